package channel

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/pulsarflow/transport"
	"github.com/drblury/pulsarflow/transport/transporttest"
)

func TestRegistered(t *testing.T) {
	assert.True(t, transport.DefaultRegistry.Has(TransportName))
	assert.True(t, transport.DefaultRegistry.Has("gochannel"))
	assert.Equal(t, transport.ChannelCapabilities, Capabilities())
}

func TestBuildUsesFactory(t *testing.T) {
	originalFactory := Factory
	defer func() { Factory = originalFactory }()

	pub := &transporttest.Publisher{}
	sub := &transporttest.Subscriber{}
	var gotCfg gochannel.Config
	Factory = func(cfg gochannel.Config, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber) {
		gotCfg = cfg
		return pub, sub
	}

	tr, err := Build(context.Background(), &transporttest.Config{}, nil)
	require.NoError(t, err)
	assert.Same(t, pub, tr.Publisher)
	assert.Same(t, sub, tr.Subscriber)
	assert.False(t, gotCfg.Persistent)
}

func TestLateSubscriberMissesEarlierMessages(t *testing.T) {
	tr, err := Build(context.Background(), &transporttest.Config{}, watermill.NopLogger{})
	require.NoError(t, err)
	defer tr.Publisher.Close()

	const topic = "persistent://internal/inbound/corona"
	require.NoError(t, tr.Publisher.Publish(topic, message.NewMessage("early", []byte("early"))))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	messages, err := tr.Subscriber.Subscribe(ctx, topic)
	require.NoError(t, err)

	require.NoError(t, tr.Publisher.Publish(topic, message.NewMessage("late", []byte("late"))))

	select {
	case msg := <-messages:
		assert.Equal(t, "late", msg.UUID)
		msg.Ack()
	case <-time.After(time.Second):
		t.Fatal("expected the message published after subscribing")
	}
}

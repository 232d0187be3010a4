package pulsar

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/apache/pulsar-client-go/pulsar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/pulsarflow/internal/runtime/metadata"
	"github.com/drblury/pulsarflow/transport"
)

func withFakeClient(t *testing.T) *fakeClient {
	t.Helper()
	client := newFakeClient()
	original := ClientFactory
	ClientFactory = func(pulsar.ClientOptions) (Client, error) { return client, nil }
	t.Cleanup(func() { ClientFactory = original })
	return client
}

func buildTransport(t *testing.T, cfg fakeConfig) transport.Transport {
	t.Helper()
	tr, err := Build(context.Background(), cfg, watermill.NopLogger{})
	require.NoError(t, err)
	return tr
}

func TestRegisteredAsDefaultTransport(t *testing.T) {
	assert.True(t, transport.DefaultRegistry.Has(TransportName))
	assert.Equal(t, transport.PulsarCapabilities, Capabilities())
	assert.Equal(t, transport.DefaultName, TransportName)
}

func TestConfigFrom(t *testing.T) {
	cfg, err := ConfigFrom(fakeConfig{url: "pulsar://pulsar:6650"})
	require.NoError(t, err)
	assert.Equal(t, DefaultSubscriptionName, cfg.SubscriptionName)
	assert.Equal(t, pulsar.Exclusive, cfg.SubscriptionType)
	assert.Equal(t, pulsar.SubscriptionPositionLatest, cfg.InitialPosition)
	assert.Equal(t, 5*time.Second, cfg.OperationTimeout)

	cfg, err = ConfigFrom(fakeConfig{url: "pulsar://pulsar:6650", subscription: "audit", subType: "Shared", position: "earliest"})
	require.NoError(t, err)
	assert.Equal(t, "audit", cfg.SubscriptionName)
	assert.Equal(t, pulsar.Shared, cfg.SubscriptionType)
	assert.Equal(t, pulsar.SubscriptionPositionEarliest, cfg.InitialPosition)

	_, err = ConfigFrom(fakeConfig{})
	assert.Error(t, err)
	_, err = ConfigFrom(fakeConfig{url: "pulsar://x", subType: "round-robin"})
	assert.Error(t, err)
	_, err = ConfigFrom(fakeConfig{url: "pulsar://x", position: "middle"})
	assert.Error(t, err)
}

func TestBuildPassesClientOptions(t *testing.T) {
	original := ClientFactory
	defer func() { ClientFactory = original }()

	var got pulsar.ClientOptions
	ClientFactory = func(opts pulsar.ClientOptions) (Client, error) {
		got = opts
		return newFakeClient(), nil
	}

	buildTransport(t, fakeConfig{url: "pulsar://pulsar:6650"})
	assert.Equal(t, "pulsar://pulsar:6650", got.URL)
	assert.Equal(t, 5*time.Second, got.OperationTimeout)
	assert.Equal(t, 2*time.Second, got.ConnectionTimeout)
	assert.NotNil(t, got.Logger)
}

func TestBuildReturnsClientError(t *testing.T) {
	original := ClientFactory
	defer func() { ClientFactory = original }()

	ClientFactory = func(pulsar.ClientOptions) (Client, error) {
		return nil, errors.New("dial tcp: connection refused")
	}

	_, err := Build(context.Background(), fakeConfig{url: "pulsar://nowhere:6650"}, nil)
	assert.ErrorContains(t, err, "connection refused")
}

func TestPublisherSendsPayloadAndProperties(t *testing.T) {
	client := withFakeClient(t)
	tr := buildTransport(t, fakeConfig{url: "pulsar://pulsar:6650"})

	msg := message.NewMessage("uuid-1", []byte(`{"id":1,"text":"COVID-19"}`))
	msg.Metadata.Set(metadata.KeyProducerID, "p1")
	msg.Metadata.Set(metadata.KeyPulsarTopic, "persistent://stale/topic/x")

	require.NoError(t, tr.Publisher.Publish("persistent://a/outbound/corona", msg))
	require.NoError(t, tr.Publisher.Publish("persistent://a/outbound/corona", message.NewMessage("uuid-2", nil)))

	prod := client.producers["persistent://a/outbound/corona"]
	require.NotNil(t, prod)
	require.Len(t, prod.sent, 2)
	assert.Len(t, client.producers, 1, "producer is reused per topic")
	assert.Equal(t, []byte(`{"id":1,"text":"COVID-19"}`), prod.sent[0].Payload)
	assert.Equal(t, "p1", prod.sent[0].Properties[metadata.KeyProducerID])
	assert.Equal(t, "uuid-1", prod.sent[0].Properties[UUIDProperty])
	assert.NotContains(t, prod.sent[0].Properties, metadata.KeyPulsarTopic)
}

func TestPublisherPrepareTopicFailsFast(t *testing.T) {
	client := withFakeClient(t)
	client.producerErr = errors.New("broker unavailable")
	tr := buildTransport(t, fakeConfig{url: "pulsar://pulsar:6650"})

	err := transport.PrepareTopic(context.Background(), tr.Publisher, "persistent://a/outbound/corona")
	assert.ErrorContains(t, err, "broker unavailable")
}

func TestPublisherSendError(t *testing.T) {
	client := withFakeClient(t)
	tr := buildTransport(t, fakeConfig{url: "pulsar://pulsar:6650"})
	require.NoError(t, transport.PrepareTopic(context.Background(), tr.Publisher, "t"))

	client.producers["t"].sendErr = errors.New("timeout")
	err := tr.Publisher.Publish("t", message.NewMessage("u", nil))
	assert.ErrorContains(t, err, "timeout")
}

func TestCloseReleasesSharedClientOnce(t *testing.T) {
	client := withFakeClient(t)
	tr := buildTransport(t, fakeConfig{url: "pulsar://pulsar:6650"})
	require.NoError(t, tr.Publisher.Publish("t", message.NewMessage("u", nil)))

	require.NoError(t, tr.Publisher.Close())
	assert.Equal(t, 0, client.closed)
	assert.True(t, client.producers["t"].closed)

	require.NoError(t, tr.Subscriber.Close())
	require.NoError(t, tr.Subscriber.Close())
	assert.Equal(t, 1, client.closed)

	assert.ErrorIs(t, tr.Publisher.Publish("t", message.NewMessage("u", nil)), ErrPublisherClosed)
	_, err := tr.Subscriber.Subscribe(context.Background(), "t")
	assert.ErrorIs(t, err, ErrSubscriberClosed)
}

func TestSubscriberUsesSubscriptionSettings(t *testing.T) {
	client := withFakeClient(t)
	tr := buildTransport(t, fakeConfig{url: "pulsar://pulsar:6650"})
	defer tr.Subscriber.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, err := tr.Subscriber.Subscribe(ctx, "persistent://internal/inbound/corona")
	require.NoError(t, err)

	require.Len(t, client.consumers, 1)
	opts := client.consumers[0].opts
	assert.Equal(t, "persistent://internal/inbound/corona", opts.Topic)
	assert.Equal(t, "subscription", opts.SubscriptionName)
	assert.Equal(t, pulsar.Exclusive, opts.Type)
	assert.Equal(t, pulsar.SubscriptionPositionLatest, opts.SubscriptionInitialPosition)
}

func TestSubscriberDeliversAndAcks(t *testing.T) {
	client := withFakeClient(t)
	tr := buildTransport(t, fakeConfig{url: "pulsar://pulsar:6650"})
	defer tr.Subscriber.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	messages, err := tr.Subscriber.Subscribe(ctx, "persistent://internal/inbound/corona")
	require.NoError(t, err)

	cons := client.consumers[0]
	published := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	cons.incoming <- fakeMessage{
		topic:       "persistent://internal/inbound/corona",
		payload:     []byte(`{"id":5,"text":"COVID-19"}`),
		props:       map[string]string{metadata.KeyCustomer: "customer1", UUIDProperty: "uuid-5"},
		key:         "k",
		publishTime: published,
	}
	cons.incoming <- fakeMessage{topic: "persistent://internal/inbound/corona", props: map[string]string{}}

	first := receive(t, messages)
	assert.Equal(t, "uuid-5", first.UUID)
	assert.Equal(t, "customer1", first.Metadata.Get(metadata.KeyCustomer))
	assert.Equal(t, "persistent://internal/inbound/corona", first.Metadata.Get(metadata.KeyPulsarTopic))
	assert.Equal(t, published.Format(time.RFC3339Nano), first.Metadata.Get(metadata.KeyPulsarPublishTime))
	assert.Equal(t, "k", first.Metadata.Get(metadata.KeyPulsarKey))
	assert.NotEmpty(t, first.Metadata.Get(metadata.KeyPulsarMessageID))
	assert.Empty(t, first.Metadata.Get(UUIDProperty))
	first.Ack()
	first.Ack()

	second := receive(t, messages)
	assert.NotEmpty(t, second.UUID)
	second.Nack()

	assert.Eventually(t, func() bool {
		acked, nacked, _ := cons.counts()
		return acked == 1 && nacked == 1
	}, time.Second, 5*time.Millisecond)
}

func TestSubscriberClosesChannelOnReceiveError(t *testing.T) {
	client := withFakeClient(t)
	tr := buildTransport(t, fakeConfig{url: "pulsar://pulsar:6650"})
	defer tr.Subscriber.Close()

	messages, err := tr.Subscriber.Subscribe(context.Background(), "t")
	require.NoError(t, err)

	cons := client.consumers[0]
	cons.errs <- errors.New("connection closed")

	select {
	case _, ok := <-messages:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("expected output channel to close")
	}
	assert.Eventually(t, func() bool {
		_, _, closed := cons.counts()
		return closed
	}, time.Second, 5*time.Millisecond)
}

func TestSubscriberStopsOnContextCancel(t *testing.T) {
	withFakeClient(t)
	tr := buildTransport(t, fakeConfig{url: "pulsar://pulsar:6650"})
	defer tr.Subscriber.Close()

	ctx, cancel := context.WithCancel(context.Background())
	messages, err := tr.Subscriber.Subscribe(ctx, "t")
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-messages:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("expected output channel to close")
	}
}

func TestSubscribeError(t *testing.T) {
	client := withFakeClient(t)
	client.subscribe = func(pulsar.ConsumerOptions) (*fakeConsumer, error) {
		return nil, errors.New("exclusive consumer already connected")
	}
	tr := buildTransport(t, fakeConfig{url: "pulsar://pulsar:6650"})
	defer tr.Subscriber.Close()

	_, err := tr.Subscriber.Subscribe(context.Background(), "t")
	assert.ErrorContains(t, err, "already connected")
}

func receive(t *testing.T, messages <-chan *message.Message) *message.Message {
	t.Helper()
	select {
	case msg, ok := <-messages:
		require.True(t, ok, "channel closed")
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

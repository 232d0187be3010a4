package pulsar

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/apache/pulsar-client-go/pulsar"

	"github.com/drblury/pulsarflow/internal/runtime/ids"
	"github.com/drblury/pulsarflow/internal/runtime/metadata"
)

// ErrSubscriberClosed is returned when subscribing on a closed subscriber.
var ErrSubscriberClosed = errors.New("pulsar: subscriber closed")

// Subscriber delivers Pulsar messages as watermill messages. Every Subscribe
// call opens its own Pulsar consumer on the configured subscription.
type Subscriber struct {
	client *sharedClient
	cfg    Config
	logger watermill.LoggerAdapter

	mu      sync.Mutex
	closed  bool
	closing chan struct{}
	wg      sync.WaitGroup
}

func newSubscriber(client *sharedClient, cfg Config, logger watermill.LoggerAdapter) *Subscriber {
	return &Subscriber{
		client:  client,
		cfg:     cfg,
		logger:  logger,
		closing: make(chan struct{}),
	}
}

// Subscribe opens a consumer on topic. The returned channel is closed when ctx
// is cancelled, the subscriber is closed or a receive fails.
func (s *Subscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSubscriberClosed
	}

	consumer, err := s.client.Subscribe(pulsar.ConsumerOptions{
		Topic:                       topic,
		SubscriptionName:            s.cfg.SubscriptionName,
		Type:                        s.cfg.SubscriptionType,
		SubscriptionInitialPosition: s.cfg.InitialPosition,
	})
	if err != nil {
		return nil, fmt.Errorf("pulsar: subscribe to %s: %w", topic, err)
	}

	logger := s.logger.With(watermill.LogFields{
		"topic":        topic,
		"subscription": s.cfg.SubscriptionName,
	})
	logger.Debug("Subscribed to pulsar topic", nil)

	ctx, cancel := context.WithCancel(ctx)
	out := make(chan *message.Message)

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		select {
		case <-s.closing:
			cancel()
		case <-ctx.Done():
		}
	}()
	go func() {
		defer s.wg.Done()
		defer cancel()
		s.consume(ctx, consumer, out, logger)
	}()

	return out, nil
}

func (s *Subscriber) consume(ctx context.Context, consumer Consumer, out chan<- *message.Message, logger watermill.LoggerAdapter) {
	defer close(out)
	defer consumer.Close()

	for {
		pm, err := consumer.Receive(ctx)
		if err != nil {
			if ctx.Err() == nil {
				logger.Error("Pulsar receive failed", err, nil)
			}
			return
		}

		if !s.deliver(ctx, consumer, pm, out, logger) {
			return
		}
	}
}

// deliver hands one message downstream and forwards its ack or nack to the
// broker. It returns false once the subscription should stop.
func (s *Subscriber) deliver(ctx context.Context, consumer Consumer, pm pulsar.Message, out chan<- *message.Message, logger watermill.LoggerAdapter) bool {
	msg := toMessage(pm)
	msgCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	msg.SetContext(msgCtx)

	select {
	case out <- msg:
	case <-ctx.Done():
		return false
	}

	select {
	case <-msg.Acked():
		if err := consumer.Ack(pm); err != nil {
			logger.Error("Pulsar ack failed", err, watermill.LogFields{"message_uuid": msg.UUID})
		}
	case <-msg.Nacked():
		consumer.Nack(pm)
	case <-ctx.Done():
		return false
	}
	return true
}

func toMessage(pm pulsar.Message) *message.Message {
	md := metadata.FromProperties(pm.Properties())
	uuid := md.Get(UUIDProperty)
	if uuid == "" {
		uuid = ids.CreateULID()
	}
	delete(md, UUIDProperty)

	md.Set(metadata.KeyPulsarTopic, pm.Topic())
	md.Set(metadata.KeyPulsarMessageID, fmt.Sprint(pm.ID()))
	md.Set(metadata.KeyPulsarPublishTime, pm.PublishTime().UTC().Format(time.RFC3339Nano))
	if key := pm.Key(); key != "" {
		md.Set(metadata.KeyPulsarKey, key)
	}

	msg := message.NewMessage(uuid, pm.Payload())
	msg.Metadata = md
	return msg
}

// Close stops every subscription, waits for the receive loops and releases
// the client.
func (s *Subscriber) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.closing)
	s.mu.Unlock()

	s.wg.Wait()
	s.client.release()
	return nil
}

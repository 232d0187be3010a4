package pulsar

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/apache/pulsar-client-go/pulsar"

	"github.com/drblury/pulsarflow/internal/runtime/metadata"
)

// UUIDProperty carries the watermill message UUID across the broker.
const UUIDProperty = "_watermill_message_uuid"

// ErrPublisherClosed is returned when publishing on a closed publisher.
var ErrPublisherClosed = errors.New("pulsar: publisher closed")

// Publisher publishes watermill messages to Pulsar topics. One Pulsar producer
// is created per topic on first use and reused afterwards.
type Publisher struct {
	client *sharedClient
	logger watermill.LoggerAdapter

	mu        sync.Mutex
	producers map[string]Producer
	closed    bool
}

func newPublisher(client *sharedClient, logger watermill.LoggerAdapter) *Publisher {
	return &Publisher{
		client:    client,
		logger:    logger,
		producers: make(map[string]Producer),
	}
}

// PrepareTopic creates the producer for topic so connection problems surface
// before the first publish.
func (p *Publisher) PrepareTopic(_ context.Context, topic string) error {
	_, err := p.producer(topic)
	return err
}

func (p *Publisher) producer(topic string) (Producer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrPublisherClosed
	}
	if prod, ok := p.producers[topic]; ok {
		return prod, nil
	}

	prod, err := p.client.CreateProducer(pulsar.ProducerOptions{Topic: topic})
	if err != nil {
		return nil, fmt.Errorf("pulsar: create producer for %s: %w", topic, err)
	}
	p.producers[topic] = prod
	p.logger.Debug("Created pulsar producer", watermill.LogFields{"topic": topic})
	return prod, nil
}

// Publish sends messages synchronously, stopping at the first failure.
func (p *Publisher) Publish(topic string, messages ...*message.Message) error {
	prod, err := p.producer(topic)
	if err != nil {
		return err
	}

	for _, msg := range messages {
		props := metadata.ToProperties(msg.Metadata)
		props[UUIDProperty] = msg.UUID

		id, err := prod.Send(msg.Context(), &pulsar.ProducerMessage{
			Payload:    msg.Payload,
			Properties: props,
		})
		if err != nil {
			return fmt.Errorf("pulsar: send to %s: %w", topic, err)
		}
		p.logger.Trace("Message sent to pulsar", watermill.LogFields{
			"topic":             topic,
			"message_uuid":      msg.UUID,
			"pulsar_message_id": fmt.Sprint(id),
		})
	}
	return nil
}

// Close flushes and closes every producer and releases the client.
func (p *Publisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	producers := p.producers
	p.producers = nil
	p.mu.Unlock()

	for _, prod := range producers {
		prod.Close()
	}
	p.client.release()
	return nil
}

// Package consumer implements the main consumer loop: it subscribes to one
// topic, logs every message with the customer it was routed from and
// acknowledges it.
package consumer

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/drblury/pulsarflow/internal/envelope"
	"github.com/drblury/pulsarflow/internal/runtime"
	errspkg "github.com/drblury/pulsarflow/internal/runtime/errors"
	"github.com/drblury/pulsarflow/internal/runtime/logging"
	"github.com/drblury/pulsarflow/internal/runtime/metadata"
)

// StartedMessage is logged once the subscription is open. Orchestration waits
// for it before starting the producers.
const StartedMessage = "Consumer started"

// Config configures a Consumer. The subscription name and initial position
// belong to the subscriber.
type Config struct {
	Topic string
}

// Option customises a Consumer.
type Option func(*Consumer)

// WithMetrics records receive counters on m.
func WithMetrics(m *runtime.Metrics) Option {
	return func(c *Consumer) {
		c.metrics = m
	}
}

// Consumer reads from a single topic until its context is cancelled.
type Consumer struct {
	subscriber message.Subscriber
	cfg        Config
	logger     logging.ServiceLogger
	metrics    *runtime.Metrics
}

// New validates the collaborators and returns a Consumer.
func New(subscriber message.Subscriber, cfg Config, logger logging.ServiceLogger, opts ...Option) (*Consumer, error) {
	if subscriber == nil {
		return nil, errspkg.ErrSubscriberRequired
	}
	if cfg.Topic == "" {
		return nil, errspkg.ErrTopicRequired
	}
	if logger == nil {
		return nil, errspkg.ErrLoggerRequired
	}

	c := &Consumer{
		subscriber: subscriber,
		cfg:        cfg,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Run subscribes and handles messages one at a time. It returns nil on
// cancellation and ErrSubscriptionClosed when the subscription ends on its own.
func (c *Consumer) Run(ctx context.Context) error {
	messages, err := c.subscriber.Subscribe(ctx, c.cfg.Topic)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", c.cfg.Topic, err)
	}

	c.logger.Info(StartedMessage, logging.LogFields{"topic": c.cfg.Topic})

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errspkg.ErrSubscriptionClosed
			}
			c.handle(msg)
		}
	}
}

func (c *Consumer) handle(msg *message.Message) {
	md := metadata.FromWatermill(msg.Metadata)
	customer := md.Customer()
	topic := msg.Metadata.Get(metadata.KeyPulsarTopic)
	if topic == "" {
		topic = c.cfg.Topic
	}

	fields := logging.LogFields{"message_uuid": msg.UUID}
	if env, err := envelope.Unmarshal(msg.Payload); err == nil {
		fields["envelope_id"] = env.ID
	}

	c.logger.Info(fmt.Sprintf("Got message from customer: %s on topic %s message: %s", customer, topic, msg.Payload), fields)

	msg.Ack()
	c.metrics.MessageReceived(topic, customer)
}

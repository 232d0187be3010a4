// Package producer implements the customer producer loop: every interval it
// publishes a fresh envelope to the configured topic.
package producer

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/drblury/pulsarflow/internal/envelope"
	"github.com/drblury/pulsarflow/internal/runtime"
	errspkg "github.com/drblury/pulsarflow/internal/runtime/errors"
	"github.com/drblury/pulsarflow/internal/runtime/ids"
	"github.com/drblury/pulsarflow/internal/runtime/logging"
	"github.com/drblury/pulsarflow/internal/runtime/metadata"
	"github.com/drblury/pulsarflow/transport"
)

// DefaultInterval is the pause between two sends.
const DefaultInterval = 3 * time.Second

// SendingMessage prefixes the line logged before every send. Orchestration
// treats its first occurrence as the producer being up.
const SendingMessage = "Sending message to topic:"

// Config configures a Producer.
type Config struct {
	Topic    string
	Interval time.Duration
}

// Option customises a Producer.
type Option func(*Producer)

// WithIDSource replaces the random envelope identifier source.
func WithIDSource(src envelope.IDSource) Option {
	return func(p *Producer) {
		p.ids = src
	}
}

// WithMetrics records publish counters on m.
func WithMetrics(m *runtime.Metrics) Option {
	return func(p *Producer) {
		p.metrics = m
	}
}

// WithProducerID overrides the producer_id stamped on every message.
func WithProducerID(id string) Option {
	return func(p *Producer) {
		p.id = id
	}
}

// WithClock overrides the time source used for sent_at.
func WithClock(now func() time.Time) Option {
	return func(p *Producer) {
		p.now = now
	}
}

// Producer publishes one envelope per interval until its context is cancelled.
type Producer struct {
	publisher message.Publisher
	cfg       Config
	logger    logging.ServiceLogger
	ids       envelope.IDSource
	metrics   *runtime.Metrics
	id        string
	now       func() time.Time
}

// New validates the collaborators and returns a Producer.
func New(publisher message.Publisher, cfg Config, logger logging.ServiceLogger, opts ...Option) (*Producer, error) {
	if publisher == nil {
		return nil, errspkg.ErrPublisherRequired
	}
	if cfg.Topic == "" {
		return nil, errspkg.ErrTopicRequired
	}
	if logger == nil {
		return nil, errspkg.ErrLoggerRequired
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}

	p := &Producer{
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.ids == nil {
		p.ids = ids.NewInt64Source()
	}
	if p.id == "" {
		p.id = ids.CreateULID()
	}
	p.logger = logger.With(logging.LogFields{
		"producer_id": p.id,
		"topic":       cfg.Topic,
	})
	return p, nil
}

// ID returns the producer instance identifier.
func (p *Producer) ID() string {
	return p.id
}

// Run prepares the topic and then sends one envelope per interval. A failed
// publish ends the loop with an error. Cancellation returns nil.
func (p *Producer) Run(ctx context.Context) error {
	if err := transport.PrepareTopic(ctx, p.publisher, p.cfg.Topic); err != nil {
		return fmt.Errorf("create producer for %s: %w", p.cfg.Topic, err)
	}

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		if err := p.Send(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		timer.Reset(p.cfg.Interval)
	}
}

// Send publishes a single envelope and logs it.
func (p *Producer) Send(ctx context.Context) error {
	payload, err := envelope.Marshal(envelope.New(p.ids))
	if err != nil {
		return err
	}

	md := metadata.New(
		metadata.KeyProducerID, p.id,
		metadata.KeySentAt, p.now().UTC().Format(time.RFC3339Nano),
	)

	p.logger.Info(fmt.Sprintf("%s %s message: %s", SendingMessage, p.cfg.Topic, payload), nil)

	if err := runtime.Publish(ctx, p.publisher, p.cfg.Topic, payload, md); err != nil {
		p.metrics.PublishFailed(p.cfg.Topic)
		return fmt.Errorf("publish to %s: %w", p.cfg.Topic, err)
	}
	p.metrics.MessagePublished(p.cfg.Topic)
	return nil
}

// Package transporttest provides helpers for testing transport builders.
package transporttest

import (
	"context"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
)

// Config is a field-backed transport.Config.
type Config struct {
	PubSubSystem                string
	PulsarURL                   string
	PulsarOperationTimeout      time.Duration
	PulsarConnectionTimeout     time.Duration
	Subscription                string
	SubscriptionType            string
	SubscriptionInitialPosition string
	KafkaBrokers                []string
	KafkaConsumerGroup          string
	RabbitMQURL                 string
	NATSURL                     string
}

func (c *Config) GetPubSubSystem() string                   { return c.PubSubSystem }
func (c *Config) GetPulsarURL() string                      { return c.PulsarURL }
func (c *Config) GetPulsarOperationTimeout() time.Duration  { return c.PulsarOperationTimeout }
func (c *Config) GetPulsarConnectionTimeout() time.Duration { return c.PulsarConnectionTimeout }
func (c *Config) GetSubscription() string                   { return c.Subscription }
func (c *Config) GetSubscriptionType() string               { return c.SubscriptionType }
func (c *Config) GetSubscriptionInitialPosition() string    { return c.SubscriptionInitialPosition }
func (c *Config) GetKafkaBrokers() []string                 { return c.KafkaBrokers }
func (c *Config) GetKafkaConsumerGroup() string             { return c.KafkaConsumerGroup }
func (c *Config) GetRabbitMQURL() string                    { return c.RabbitMQURL }
func (c *Config) GetNATSURL() string                        { return c.NATSURL }

// Publisher records every published topic.
type Publisher struct {
	mu     sync.Mutex
	Topics []string
	Closed bool
}

func (p *Publisher) Publish(topic string, _ ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Topics = append(p.Topics, topic)
	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Closed = true
	return nil
}

// Subscriber records every subscribed topic and returns open, empty channels.
type Subscriber struct {
	mu     sync.Mutex
	Topics []string
	Closed bool
}

func (s *Subscriber) Subscribe(_ context.Context, topic string) (<-chan *message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Topics = append(s.Topics, topic)
	return make(chan *message.Message), nil
}

func (s *Subscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Closed = true
	return nil
}

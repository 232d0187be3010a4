// Package transport defines the core interfaces and types for pulsarflow transports.
// Each transport implementation (pulsar, kafka, rabbitmq, etc.) lives in its own
// sub-package and registers itself with the transport registry.
package transport

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Transport combines a publisher and subscriber pair produced by a factory.
type Transport struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
}

// Builder is the function signature for creating a transport from config.
// Each transport package should provide a Builder function that can be registered.
type Builder func(ctx context.Context, cfg Config, logger watermill.LoggerAdapter) (Transport, error)

// Config provides the configuration values needed by transports.
// This interface allows transports to access only the config they need
// without depending on the full config package.
type Config interface {
	// GetPubSubSystem returns the transport type name.
	GetPubSubSystem() string

	// Pulsar
	GetPulsarURL() string
	GetPulsarOperationTimeout() time.Duration
	GetPulsarConnectionTimeout() time.Duration
	GetSubscription() string
	GetSubscriptionType() string
	GetSubscriptionInitialPosition() string

	// Kafka
	GetKafkaBrokers() []string
	GetKafkaConsumerGroup() string

	// RabbitMQ
	GetRabbitMQURL() string

	// NATS
	GetNATSURL() string
}

// CapabilitiesProvider is implemented by transports that can report their capabilities.
type CapabilitiesProvider interface {
	Capabilities() Capabilities
}

// TopicPreparer is implemented by publishers that can open their broker-side
// handle for a topic ahead of the first publish. Producers call it before
// their send loop so an unreachable broker fails the process up front.
type TopicPreparer interface {
	PrepareTopic(ctx context.Context, topic string) error
}

// PrepareTopic calls PrepareTopic on pub when it implements TopicPreparer and
// is a no-op otherwise.
func PrepareTopic(ctx context.Context, pub message.Publisher, topic string) error {
	if p, ok := pub.(TopicPreparer); ok {
		return p.PrepareTopic(ctx, topic)
	}
	return nil
}

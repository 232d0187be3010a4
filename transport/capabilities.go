package transport

// Capabilities describes what a transport backend offers the producer,
// consumer and inbound router.
type Capabilities struct {
	Name string

	// SupportsAck and SupportsNack report explicit acknowledgment and redelivery.
	SupportsAck  bool
	SupportsNack bool

	// SupportsOrdering reports per-topic (or per-partition) delivery order.
	SupportsOrdering bool

	SupportsPartitioning bool

	// SupportsTenancy reports tenant/namespace scoped topic names such as
	// persistent://<tenant>/<namespace>/<topic>.
	SupportsTenancy bool

	// SupportsFunctions reports a broker-side function worker able to run the
	// in_router routing function.
	SupportsFunctions bool

	// SupportsInitialPosition reports that a new subscription can choose to
	// start at the latest or the earliest message.
	SupportsInitialPosition bool

	// MaxMessageSize is the default maximum payload in bytes, 0 when unknown.
	MaxMessageSize int64
}

// SupportsReliableDelivery reports at-least-once delivery (ack and nack).
func (c Capabilities) SupportsReliableDelivery() bool {
	return c.SupportsAck && c.SupportsNack
}

// RequiresGoRouter reports whether customer topics must be forwarded to the
// inbound topic by the inbound-router process instead of a broker function.
func (c Capabilities) RequiresGoRouter() bool {
	return !c.SupportsFunctions
}

var (
	ChannelCapabilities = Capabilities{
		Name:             "channel",
		SupportsAck:      true,
		SupportsNack:     true,
		SupportsOrdering: true,
	}

	KafkaCapabilities = Capabilities{
		Name:                    "kafka",
		SupportsAck:             true,
		SupportsOrdering:        true,
		SupportsPartitioning:    true,
		SupportsInitialPosition: true,
		MaxMessageSize:          1 << 20,
	}

	RabbitMQCapabilities = Capabilities{
		Name:             "rabbitmq",
		SupportsAck:      true,
		SupportsNack:     true,
		SupportsOrdering: true,
	}

	// NATSCapabilities covers NATS core; JetStream is disabled by the nats transport.
	NATSCapabilities = Capabilities{
		Name:           "nats",
		MaxMessageSize: 1 << 20,
	}

	PulsarCapabilities = Capabilities{
		Name:                    "pulsar",
		SupportsAck:             true,
		SupportsNack:            true,
		SupportsOrdering:        true,
		SupportsPartitioning:    true,
		SupportsTenancy:         true,
		SupportsFunctions:       true,
		SupportsInitialPosition: true,
		MaxMessageSize:          5 << 20,
	}
)

// GetCapabilities returns the capabilities registered for transportName on
// the default registry.
func GetCapabilities(transportName string) Capabilities {
	return DefaultRegistry.GetCapabilities(transportName)
}

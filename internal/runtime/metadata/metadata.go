package metadata

// Well-known metadata keys carried alongside every message. Broker transports
// map them onto native message properties.
const (
	// KeyCustomer is set by the inbound routing function to the tenant the
	// message originated from.
	KeyCustomer = "customer"

	KeyCorrelationID = "correlation_id"
	KeyProducerID    = "producer_id"
	KeySentAt        = "sent_at"

	// Keys populated by the Pulsar subscriber from the received message.
	KeyPulsarTopic       = "pulsar_topic"
	KeyPulsarMessageID   = "pulsar_message_id"
	KeyPulsarPublishTime = "pulsar_publish_time"
	KeyPulsarKey         = "pulsar_key"
)

// Metadata represents the headers carried alongside a message.
type Metadata map[string]string

func (m Metadata) cloneWithExtra(extra int) Metadata {
	size := len(m) + extra
	if size <= 0 {
		return Metadata{}
	}

	cloned := make(Metadata, size)
	for k, v := range m {
		cloned[k] = v
	}
	return cloned
}

// Clone returns a shallow copy of the metadata map.
func (m Metadata) Clone() Metadata {
	return m.cloneWithExtra(0)
}

// With returns a cloned metadata map containing the provided key/value pair.
func (m Metadata) With(key, value string) Metadata {
	cloned := m.cloneWithExtra(1)
	cloned[key] = value
	return cloned
}

// Customer returns the sender attribute, or "null" when the message did not
// pass through a routing function.
func (m Metadata) Customer() string {
	if c, ok := m[KeyCustomer]; ok {
		return c
	}
	return "null"
}

// New constructs a Metadata map from alternating key/value pairs.
func New(pairs ...string) Metadata {
	md := make(Metadata, len(pairs)/2)
	for i := 0; i < len(pairs)-1; i += 2 {
		md[pairs[i]] = pairs[i+1]
	}
	return md
}

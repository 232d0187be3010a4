package runtime

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "pulsarflow"

// Metrics holds the counters updated by the producer and consumer loops.
type Metrics struct {
	Published     *prometheus.CounterVec
	PublishErrors *prometheus.CounterVec
	Received      *prometheus.CounterVec
}

// NewMetrics registers the process counters on reg. Counters that are already
// registered are reused, so several services may share one registry.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	published, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "producer",
		Name:      "messages_published_total",
		Help:      "Messages published by the producer.",
	}, []string{"topic"}))
	if err != nil {
		return nil, err
	}

	publishErrors, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "producer",
		Name:      "publish_errors_total",
		Help:      "Publish attempts that failed.",
	}, []string{"topic"}))
	if err != nil {
		return nil, err
	}

	received, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "consumer",
		Name:      "messages_received_total",
		Help:      "Messages received and acknowledged by the consumer.",
	}, []string{"topic", "customer"}))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		Published:     published,
		PublishErrors: publishErrors,
		Received:      received,
	}, nil
}

// MessagePublished counts a successful send. Safe on a nil receiver.
func (m *Metrics) MessagePublished(topic string) {
	if m == nil {
		return
	}
	m.Published.WithLabelValues(topic).Inc()
}

// PublishFailed counts a failed send. Safe on a nil receiver.
func (m *Metrics) PublishFailed(topic string) {
	if m == nil {
		return
	}
	m.PublishErrors.WithLabelValues(topic).Inc()
}

// MessageReceived counts an acknowledged message. Safe on a nil receiver.
func (m *Metrics) MessageReceived(topic, customer string) {
	if m == nil {
		return
	}
	m.Received.WithLabelValues(topic, customer).Inc()
}

func registerCounterVec(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}

	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
			return existing, nil
		}
	}
	return nil, err
}

// Package inrouter forwards every customer's outbound topic into the shared
// inbound topic, tagging each message with the customer it came from. It is
// the Go-native counterpart of the in_router broker function and runs on the
// runtime.Service router, so it inherits its middleware chain.
package inrouter

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/drblury/pulsarflow/internal/admin"
	"github.com/drblury/pulsarflow/internal/runtime"
	errspkg "github.com/drblury/pulsarflow/internal/runtime/errors"
	"github.com/drblury/pulsarflow/internal/runtime/logging"
	"github.com/drblury/pulsarflow/internal/runtime/metadata"
	"github.com/drblury/pulsarflow/transport"
)

// ErrNoCustomers is returned when the router has nothing to forward.
var ErrNoCustomers = errors.New("inrouter: at least one customer is required")

// Config lists the customers to route and where their messages go.
type Config struct {
	Customers []string
	// InboundTopic defaults to admin.InboundTopic.
	InboundTopic string
}

// Router owns one handler per customer on the Service router.
type Router struct {
	svc *runtime.Service
	cfg Config
}

// New registers the routing handlers on svc. Call Run to start them.
func New(svc *runtime.Service, cfg Config) (*Router, error) {
	if svc == nil {
		return nil, errspkg.ErrServiceRequired
	}
	if len(cfg.Customers) == 0 {
		return nil, ErrNoCustomers
	}
	if cfg.InboundTopic == "" {
		cfg.InboundTopic = admin.InboundTopic
	}
	if svc.Conf != nil {
		logCapabilities(svc.Logger, transport.GetCapabilities(svc.Conf.PubSubSystem))
	}

	seen := make(map[string]struct{}, len(cfg.Customers))
	for _, customer := range cfg.Customers {
		if _, dup := seen[customer]; dup {
			continue
		}
		seen[customer] = struct{}{}

		source := admin.CustomerOutboundTopic(customer)
		if _, err := admin.ParseTopic(source); err != nil {
			return nil, fmt.Errorf("customer %q: %w", customer, admin.ErrInvalidCustomer)
		}

		err := runtime.RegisterMessageHandler(svc, runtime.MessageHandlerRegistration{
			Name:         HandlerName(customer),
			ConsumeQueue: source,
			PublishQueue: cfg.InboundTopic,
			Handler:      Route(source),
		})
		if err != nil {
			return nil, fmt.Errorf("register route for %s: %w", customer, err)
		}
		svc.Logger.Info("Routing customer topic", logging.LogFields{
			"customer": customer,
			"from":     source,
			"to":       cfg.InboundTopic,
		})
	}

	return &Router{svc: svc, cfg: cfg}, nil
}

func logCapabilities(logger logging.ServiceLogger, caps transport.Capabilities) {
	logger.Info("Transport capabilities", logging.LogFields{
		"pubsub_system":     caps.Name,
		"reliable_delivery": caps.SupportsReliableDelivery(),
		"ordering":          caps.SupportsOrdering,
		"partitioning":      caps.SupportsPartitioning,
		"max_message_size":  caps.MaxMessageSize,
	})
	if !caps.SupportsReliableDelivery() {
		logger.Info("Transport cannot redeliver, failed routes are not retried by the broker", logging.LogFields{
			"pubsub_system": caps.Name,
		})
	}
	if !caps.RequiresGoRouter() {
		logger.Info("Transport can run the in_router function, do not deploy it for routed customers", logging.LogFields{
			"pubsub_system": caps.Name,
		})
	}
}

// HandlerName is the router handler name used for customer.
func HandlerName(customer string) string {
	return customer + "-in-router"
}

// Run starts the Service until ctx is cancelled.
func (r *Router) Run(ctx context.Context) error {
	return r.svc.Start(ctx)
}

// Route returns the handler forwarding a message consumed from source. The
// payload and message UUID are kept; transport-local metadata is dropped and
// the customer is set to the tenant of the topic the message was read from.
func Route(source string) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		topic := msg.Metadata.Get(metadata.KeyPulsarTopic)
		if topic == "" {
			topic = source
		}
		name, err := admin.ParseTopic(topic)
		if err != nil {
			return nil, runtime.NewUnprocessableMessageError(msg.Payload, err)
		}

		out := message.NewMessage(msg.UUID, msg.Payload)
		out.Metadata = metadata.ToProperties(msg.Metadata)
		out.Metadata.Set(metadata.KeyCustomer, name.Tenant)
		return []*message.Message{out}, nil
	}
}

// Package pulsarflow is a multi-tenant pub/sub demo on top of Watermill and
// Apache Pulsar. Customer producers publish small JSON envelopes to their own
// tenant's outbound topic, a routing function forwards every message into the
// shared persistent://internal/inbound/corona topic tagged with the customer
// it came from, and a main consumer logs and acknowledges what arrives.
//
// The building blocks live in internal packages and are re-exported here:
//
//   - Service hosts a Watermill router, publisher and subscriber for the
//     transport selected by Config (pulsar, channel, kafka, rabbitmq or nats)
//     and registers the default middleware chain for correlation IDs,
//     message logging, tracing, metrics, retries and poison queue forwarding.
//   - NewProducer and NewConsumer build the two demo loops.
//   - NewInboundRouter is the Go counterpart of the in_router broker function.
//   - NewProvisioner creates tenants, namespaces, topics and routing
//     functions through any Admin, such as PulsarAdmin or MemoryAdmin.
//   - NewOrchestrator sequences a full run and tears it down in dependency
//     order; RunLocal does that entirely in-process.
//
// # Binaries
//
// cmd/customer-producer, cmd/main-consumer and cmd/inbound-router read their
// settings from the environment (PULSAR, TOPIC, PUBSUB_SYSTEM, ...) and stop
// on SIGINT or SIGTERM.
//
// # Example
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer stop()
//
//	logger, _ := pulsarflow.NewLogger("console", "info", os.Stdout)
//	err := pulsarflow.RunLocal(ctx, pulsarflow.LocalOptions{
//		Customers: []string{"customer1", "customer2"},
//	}, logger)
package pulsarflow

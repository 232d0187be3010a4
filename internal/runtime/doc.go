/*
Package runtime hosts the message plumbing shared by the pulsarflow processes.

# Service

Service builds the transport selected by the configuration (Pulsar by default)
and a Watermill router carrying the middleware chain. The producer and consumer
use it for the publisher, the subscriber and the metrics endpoint. The inbound
router additionally registers one handler per customer and runs the router with
Start.

# Middleware

The default chain, in order:
  - CorrelationID: stamps correlation_id when missing
  - LogMessages: debug logging of payload and metadata
  - Tracer: one OpenTelemetry span per routed message
  - Metrics: Watermill Prometheus router metrics (METRICS_ENABLED)
  - Retry: exponential backoff from the RETRY_* settings
  - PoisonQueue: forwards unprocessable messages (POISON_QUEUE)
  - Recoverer: turns handler panics into errors

# Sub-packages

  - config/: environment configuration with validation
  - errors/: sentinel errors
  - ids/: ULIDs and random 64-bit identifiers
  - jsoncodec/: JSON encoding of the wire payload
  - logging/: ServiceLogger and its slog, zerolog and Watermill adapters
  - metadata/: message metadata and broker property mapping
  - transport/: Factory that builds a registered transport from a Config

# Usage

	svc, err := runtime.NewService(ctx, cfg, logger, runtime.ServiceDependencies{})
	if err != nil {
		return err
	}
	defer svc.Close()

	err = runtime.RegisterMessageHandler(svc, runtime.MessageHandlerRegistration{
		Name:         "customer1-in-router",
		ConsumeQueue: "persistent://customer1/outbound/corona",
		PublishQueue: "persistent://internal/inbound/corona",
		Handler:      route,
	})

	return svc.Start(ctx)
*/
package runtime

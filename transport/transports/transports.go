// Package transports imports all built-in transports for auto-registration.
// Import this package to have every transport registered with the default registry.
package transports

import (
	// Import all transports for side-effect registration
	_ "github.com/drblury/pulsarflow/transport/channel"
	_ "github.com/drblury/pulsarflow/transport/kafka"
	_ "github.com/drblury/pulsarflow/transport/nats"
	_ "github.com/drblury/pulsarflow/transport/pulsar"
	_ "github.com/drblury/pulsarflow/transport/rabbitmq"
)

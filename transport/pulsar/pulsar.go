// Package pulsar provides an Apache Pulsar transport for pulsarflow.
package pulsar

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/drblury/pulsarflow/transport"
)

// TransportName is the name used to register this transport.
const TransportName = "pulsar"

func init() {
	transport.RegisterWithCapabilities(TransportName, Build, transport.PulsarCapabilities)
}

// Build connects a Pulsar client and returns a publisher and subscriber that
// share it. The client is closed once both have been closed.
func Build(ctx context.Context, cfg transport.Config, logger watermill.LoggerAdapter) (transport.Transport, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	pcfg, err := ConfigFrom(cfg)
	if err != nil {
		return transport.Transport{}, err
	}

	opts := pcfg.clientOptions()
	opts.Logger = newClientLogger(logger)

	client, err := ClientFactory(opts)
	if err != nil {
		return transport.Transport{}, err
	}
	shared := newSharedClient(client, 2)

	return transport.Transport{
		Publisher:  newPublisher(shared, logger),
		Subscriber: newSubscriber(shared, pcfg, logger),
	}, nil
}

// Capabilities returns the capabilities of this transport.
func Capabilities() transport.Capabilities {
	return transport.PulsarCapabilities
}

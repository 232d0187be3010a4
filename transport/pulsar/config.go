package pulsar

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/apache/pulsar-client-go/pulsar"

	"github.com/drblury/pulsarflow/transport"
)

// DefaultSubscriptionName is used when the config leaves the subscription empty.
const DefaultSubscriptionName = "subscription"

// Config holds the resolved Pulsar client and subscription settings.
type Config struct {
	URL               string
	OperationTimeout  time.Duration
	ConnectionTimeout time.Duration

	SubscriptionName string
	SubscriptionType pulsar.SubscriptionType
	InitialPosition  pulsar.SubscriptionInitialPosition
}

// ConfigFrom resolves the transport configuration into Pulsar options.
func ConfigFrom(cfg transport.Config) (Config, error) {
	if cfg.GetPulsarURL() == "" {
		return Config{}, errors.New("pulsar: service URL is required")
	}

	subType, err := parseSubscriptionType(cfg.GetSubscriptionType())
	if err != nil {
		return Config{}, err
	}
	position, err := parseInitialPosition(cfg.GetSubscriptionInitialPosition())
	if err != nil {
		return Config{}, err
	}

	name := cfg.GetSubscription()
	if name == "" {
		name = DefaultSubscriptionName
	}

	return Config{
		URL:               cfg.GetPulsarURL(),
		OperationTimeout:  cfg.GetPulsarOperationTimeout(),
		ConnectionTimeout: cfg.GetPulsarConnectionTimeout(),
		SubscriptionName:  name,
		SubscriptionType:  subType,
		InitialPosition:   position,
	}, nil
}

func (c Config) clientOptions() pulsar.ClientOptions {
	return pulsar.ClientOptions{
		URL:               c.URL,
		OperationTimeout:  c.OperationTimeout,
		ConnectionTimeout: c.ConnectionTimeout,
	}
}

func parseSubscriptionType(s string) (pulsar.SubscriptionType, error) {
	switch strings.ToLower(s) {
	case "", "exclusive":
		return pulsar.Exclusive, nil
	case "shared":
		return pulsar.Shared, nil
	case "failover":
		return pulsar.Failover, nil
	case "key_shared":
		return pulsar.KeyShared, nil
	default:
		return 0, fmt.Errorf("pulsar: unknown subscription type %q", s)
	}
}

func parseInitialPosition(s string) (pulsar.SubscriptionInitialPosition, error) {
	switch strings.ToLower(s) {
	case "", "latest":
		return pulsar.SubscriptionPositionLatest, nil
	case "earliest":
		return pulsar.SubscriptionPositionEarliest, nil
	default:
		return 0, fmt.Errorf("pulsar: unknown initial position %q", s)
	}
}

package app

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/pulsarflow/internal/runtime"
	"github.com/drblury/pulsarflow/internal/runtime/config"
	errspkg "github.com/drblury/pulsarflow/internal/runtime/errors"
)

func channelConfig(topic string) func() (*config.Config, error) {
	return func() (*config.Config, error) {
		return &config.Config{
			PubSubSystem: "channel",
			Topic:        topic,
			LogFormat:    "console",
			LogLevel:     "info",
		}, nil
	}
}

func testOptions(load func() (*config.Config, error), out *bytes.Buffer) Options {
	return Options{
		RequireTopic: true,
		LoadConfig:   load,
		Output:       out,
		Deps:         runtime.ServiceDependencies{Registerer: prometheus.NewRegistry()},
	}
}

func TestRunHandsOverEnvironment(t *testing.T) {
	var out bytes.Buffer
	err := Run(context.Background(), "main-consumer", testOptions(channelConfig("t1"), &out), func(_ context.Context, env *Env) error {
		require.NotNil(t, env.Service)
		assert.Equal(t, "t1", env.Config.Topic)
		env.Logger.Info("hello", nil)
		return nil
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "hello")
	assert.Contains(t, out.String(), "app=main-consumer")
}

func TestRunRequiresTopic(t *testing.T) {
	called := false
	err := Run(context.Background(), "customer-producer", testOptions(channelConfig(""), &bytes.Buffer{}), func(context.Context, *Env) error {
		called = true
		return nil
	})
	assert.Error(t, err)
	assert.False(t, called)
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	load := func() (*config.Config, error) {
		return &config.Config{PubSubSystem: "pulsar", Topic: "t"}, nil
	}
	err := Run(context.Background(), "main-consumer", testOptions(load, &bytes.Buffer{}), func(context.Context, *Env) error { return nil })
	var cve errspkg.ConfigValidationError
	require.ErrorAs(t, err, &cve)
	assert.Contains(t, err.Error(), "pulsar: service URL is required")
}

func TestMainExitCodes(t *testing.T) {
	var out bytes.Buffer
	opts := testOptions(channelConfig("t"), &out)

	assert.Equal(t, 0, Main(context.Background(), "ok", opts, func(context.Context, *Env) error { return nil }))
	assert.Equal(t, 0, Main(context.Background(), "cancelled", opts, func(context.Context, *Env) error { return context.Canceled }))

	code := Main(context.Background(), "broken", opts, func(context.Context, *Env) error { return errors.New("publish failed") })
	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "broken failed")
	assert.Contains(t, out.String(), "publish failed")
}

func TestMainLogsBootstrapFailure(t *testing.T) {
	var out bytes.Buffer
	load := func() (*config.Config, error) { return nil, errors.New("load config: bad duration") }

	code := Main(context.Background(), "inbound-router", Options{LoadConfig: load, Output: &out}, func(context.Context, *Env) error { return nil })
	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "bad duration")
}

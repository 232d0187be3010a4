// Package app is the shared process bootstrap for the cmd binaries: it loads
// the environment configuration, builds the logger and the runtime.Service
// and turns the outcome into an exit code.
package app

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/drblury/pulsarflow/internal/runtime"
	"github.com/drblury/pulsarflow/internal/runtime/config"
	errspkg "github.com/drblury/pulsarflow/internal/runtime/errors"
	"github.com/drblury/pulsarflow/internal/runtime/logging"
)

// Env is what a process body gets to work with.
type Env struct {
	Config  *config.Config
	Logger  logging.ServiceLogger
	Service *runtime.Service
}

// Options tune the bootstrap. The zero value reads the real environment and
// logs to stdout.
type Options struct {
	// RequireTopic fails the start when TOPIC is unset.
	RequireTopic bool
	Deps         runtime.ServiceDependencies
	Output       io.Writer
	LoadConfig   func() (*config.Config, error)
}

// Main runs body and returns the process exit code. Errors are logged before
// returning 1.
func Main(ctx context.Context, name string, opts Options, body func(context.Context, *Env) error) int {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	var logger logging.ServiceLogger
	err := Run(ctx, name, opts, func(ctx context.Context, env *Env) error {
		logger = env.Logger
		return body(ctx, env)
	})
	if err == nil || errors.Is(err, context.Canceled) {
		return 0
	}

	if logger == nil {
		logger, _ = logging.New(logging.FormatConsole, "info", out)
	}
	logger.Error(name+" failed", err, nil)
	return 1
}

// Run bootstraps the process and calls body. The Service is closed when Run returns.
func Run(ctx context.Context, name string, opts Options, body func(context.Context, *Env) error) error {
	load := opts.LoadConfig
	if load == nil {
		load = config.Load
	}
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	cfg, err := load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return errspkg.NewConfigValidationError(err)
	}
	if opts.RequireTopic {
		if err := cfg.RequireTopic(); err != nil {
			return err
		}
	}

	logger, err := logging.New(cfg.LogFormat, cfg.LogLevel, out)
	if err != nil {
		return err
	}
	logger = logger.With(logging.LogFields{"app": name})

	svc, err := runtime.NewService(ctx, cfg, logger, opts.Deps)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Error("Failed to close transport", err, nil)
		}
	}()

	return body(ctx, &Env{Config: cfg, Logger: logger, Service: svc})
}

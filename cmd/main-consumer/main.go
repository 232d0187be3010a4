// Command main-consumer logs every message arriving on TOPIC together with
// the customer it was routed from.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/drblury/pulsarflow/internal/app"
	"github.com/drblury/pulsarflow/internal/consumer"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := app.Main(ctx, "main-consumer", app.Options{RequireTopic: true}, run)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, env *app.Env) error {
	c, err := consumer.New(env.Service.Subscriber(), consumer.Config{Topic: env.Config.Topic}, env.Logger,
		consumer.WithMetrics(env.Service.Metrics()))
	if err != nil {
		return err
	}

	env.Service.StartHTTPServers(ctx)
	return c.Run(ctx)
}

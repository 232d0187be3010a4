// Command customer-producer publishes an envelope to TOPIC every
// PUBLISH_INTERVAL until it receives SIGINT or SIGTERM.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/drblury/pulsarflow/internal/app"
	"github.com/drblury/pulsarflow/internal/producer"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := app.Main(ctx, "customer-producer", app.Options{RequireTopic: true}, run)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, env *app.Env) error {
	p, err := producer.New(env.Service.Publisher(), producer.Config{
		Topic:    env.Config.Topic,
		Interval: env.Config.PublishInterval,
	}, env.Logger, producer.WithMetrics(env.Service.Metrics()))
	if err != nil {
		return err
	}

	env.Service.StartHTTPServers(ctx)
	return p.Run(ctx)
}

// Command inbound-router forwards each customer's outbound topic into
// INBOUND_TOPIC for brokers that do not run the in_router function.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/drblury/pulsarflow/internal/app"
	"github.com/drblury/pulsarflow/internal/inrouter"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := app.Main(ctx, "inbound-router", app.Options{}, run)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, env *app.Env) error {
	r, err := inrouter.New(env.Service, inrouter.Config{
		Customers:    env.Config.RouterCustomers,
		InboundTopic: env.Config.InboundTopic,
	})
	if err != nil {
		return err
	}
	return r.Run(ctx)
}

// Package orchestration sequences the end-to-end scenario: start the broker,
// provision it, start the consumer and the producers, wait, check the
// consumer output and tear everything down again in dependency order.
package orchestration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/drblury/pulsarflow/internal/runtime/logging"
)

// DefaultSettleDelay is how long producers run before the consumer logs are checked.
const DefaultSettleDelay = 2 * time.Second

var (
	// ErrInvalidTransition is returned when a step is called out of order.
	ErrInvalidTransition = errors.New("orchestration: invalid state transition")
	// ErrDependentsRunning is returned when the broker is stopped before the
	// consumer and producers.
	ErrDependentsRunning = errors.New("orchestration: dependents still running")
	// ErrMissingOutput is returned when a customer never shows up in the consumer logs.
	ErrMissingOutput = errors.New("orchestration: expected consumer output missing")
)

// Environment is one process of the scenario: the broker, the consumer or a producer.
type Environment interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Logs(ctx context.Context) (string, error)
}

// Event records a Start or Stop call and its outcome.
type Event struct {
	Action string
	Env    string
	Err    error
}

func (e Event) String() string {
	return e.Action + " " + e.Env
}

// Config describes a scenario run.
type Config struct {
	Broker    Environment
	Consumer  Environment
	Producers []Environment

	// Customers whose messages must reach the consumer.
	Customers []string

	// Configure provisions the broker once it is up. Optional.
	Configure func(ctx context.Context) error

	// SettleDelay defaults to DefaultSettleDelay.
	SettleDelay time.Duration
}

// Orchestrator drives a single scenario run. It is not reusable.
type Orchestrator struct {
	cfg    Config
	logger logging.ServiceLogger

	mu      sync.Mutex
	state   State
	running map[string]bool
	started []Environment
	events  []Event
}

// New validates cfg and returns an Orchestrator in the NotStarted state.
func New(cfg Config, logger logging.ServiceLogger) (*Orchestrator, error) {
	if cfg.Broker == nil {
		return nil, errors.New("orchestration: broker environment is required")
	}
	if cfg.Consumer == nil {
		return nil, errors.New("orchestration: consumer environment is required")
	}
	if logger == nil {
		return nil, errors.New("orchestration: logger is required")
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = DefaultSettleDelay
	}
	return &Orchestrator{
		cfg:     cfg,
		logger:  logger,
		running: make(map[string]bool),
	}, nil
}

// ExpectedOutput is the consumer log fragment proving a customer's message arrived.
func ExpectedOutput(customer string) string {
	return "Got message from customer: " + customer
}

// Run executes every step and always tears down what was started. The first
// error wins.
func (o *Orchestrator) Run(ctx context.Context) (err error) {
	defer func() {
		if tdErr := o.Teardown(context.WithoutCancel(ctx)); err == nil {
			err = tdErr
		}
	}()

	steps := []func(context.Context) error{
		o.StartBroker,
		o.Configure,
		o.StartConsumer,
		o.StartProducers,
		o.Assert,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			return err
		}
	}
	return nil
}

// State returns the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Events returns every Start and Stop call made so far.
func (o *Orchestrator) Events() []Event {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Event(nil), o.events...)
}

// StartBroker starts the broker environment.
func (o *Orchestrator) StartBroker(ctx context.Context) error {
	if err := o.expect(NotStarted); err != nil {
		return err
	}
	if err := o.start(ctx, o.cfg.Broker); err != nil {
		return err
	}
	o.advance(BrokerReady)
	return nil
}

// Configure runs the provisioning hook against the started broker.
func (o *Orchestrator) Configure(ctx context.Context) error {
	if err := o.expect(BrokerReady); err != nil {
		return err
	}
	if o.cfg.Configure != nil {
		o.logger.Info("Configuring broker", nil)
		if err := o.cfg.Configure(ctx); err != nil {
			return fmt.Errorf("configure broker: %w", err)
		}
	}
	o.advance(Configured)
	return nil
}

// StartConsumer starts the consumer environment.
func (o *Orchestrator) StartConsumer(ctx context.Context) error {
	if err := o.expect(Configured); err != nil {
		return err
	}
	if err := o.start(ctx, o.cfg.Consumer); err != nil {
		return err
	}
	o.advance(ConsumerReady)
	return nil
}

// StartProducers starts every producer environment in order.
func (o *Orchestrator) StartProducers(ctx context.Context) error {
	if err := o.expect(ConsumerReady); err != nil {
		return err
	}
	for _, p := range o.cfg.Producers {
		if err := o.start(ctx, p); err != nil {
			return err
		}
	}
	o.advance(ProducersReady)
	return nil
}

// Assert waits SettleDelay and checks the consumer logs for every customer.
func (o *Orchestrator) Assert(ctx context.Context) error {
	if err := o.expect(ProducersReady); err != nil {
		return err
	}

	timer := time.NewTimer(o.cfg.SettleDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	logs, err := o.cfg.Consumer.Logs(ctx)
	if err != nil {
		return fmt.Errorf("read %s logs: %w", o.cfg.Consumer.Name(), err)
	}

	var missing []string
	for _, customer := range o.cfg.Customers {
		if !strings.Contains(logs, ExpectedOutput(customer)) {
			missing = append(missing, customer)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingOutput, strings.Join(missing, ", "))
	}

	o.logger.Info("All customers reached the consumer", logging.LogFields{"customers": o.cfg.Customers})
	o.advance(Asserted)
	return nil
}

// StopBroker stops the broker. It refuses while the consumer or a producer
// is still running.
func (o *Orchestrator) StopBroker(ctx context.Context) error {
	o.mu.Lock()
	for name, up := range o.running {
		if up && name != o.cfg.Broker.Name() {
			o.mu.Unlock()
			return fmt.Errorf("%w: %s", ErrDependentsRunning, name)
		}
	}
	o.mu.Unlock()
	return o.stop(ctx, o.cfg.Broker)
}

// Teardown stops producers in reverse start order, then the consumer, then
// the broker. Environments that were never started are skipped. Every stop is
// attempted; the first error is returned.
func (o *Orchestrator) Teardown(ctx context.Context) error {
	o.mu.Lock()
	if o.state == TornDown {
		o.mu.Unlock()
		return nil
	}
	started := append([]Environment(nil), o.started...)
	o.mu.Unlock()

	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	for i := len(started) - 1; i >= 0; i-- {
		env := started[i]
		if env.Name() == o.cfg.Broker.Name() || env.Name() == o.cfg.Consumer.Name() {
			continue
		}
		keep(o.stop(ctx, env))
	}
	if o.isRunning(o.cfg.Consumer) {
		keep(o.stop(ctx, o.cfg.Consumer))
	}
	if o.isRunning(o.cfg.Broker) {
		keep(o.StopBroker(ctx))
	}

	o.advance(TornDown)
	return firstErr
}

func (o *Orchestrator) expect(want State) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != want {
		return fmt.Errorf("%w: in %s, want %s", ErrInvalidTransition, o.state, want)
	}
	return nil
}

func (o *Orchestrator) advance(to State) {
	o.mu.Lock()
	o.state = to
	o.mu.Unlock()
}

func (o *Orchestrator) isRunning(env Environment) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running[env.Name()]
}

// start marks env as running even when Start fails, so teardown still stops
// whatever was partially created.
func (o *Orchestrator) start(ctx context.Context, env Environment) error {
	o.logger.Info("Starting environment", logging.LogFields{"env": env.Name()})
	err := env.Start(ctx)

	o.mu.Lock()
	o.events = append(o.events, Event{Action: "start", Env: env.Name(), Err: err})
	o.running[env.Name()] = true
	o.started = append(o.started, env)
	o.mu.Unlock()

	if err != nil {
		return fmt.Errorf("start %s: %w", env.Name(), err)
	}
	return nil
}

func (o *Orchestrator) stop(ctx context.Context, env Environment) error {
	o.logger.Info("Stopping environment", logging.LogFields{"env": env.Name()})
	err := env.Stop(ctx)

	o.mu.Lock()
	o.events = append(o.events, Event{Action: "stop", Env: env.Name(), Err: err})
	o.running[env.Name()] = false
	o.mu.Unlock()

	if err != nil {
		o.logger.Error("Failed to stop environment", err, logging.LogFields{"env": env.Name()})
		return fmt.Errorf("stop %s: %w", env.Name(), err)
	}
	return nil
}

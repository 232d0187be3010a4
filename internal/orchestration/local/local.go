// Package local assembles the scenario inside one process: an in-memory
// channel transport stands in for the broker, MemoryAdmin for its control
// plane and the Go inbound router for the deployed routing functions.
package local

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/drblury/pulsarflow/internal/admin"
	"github.com/drblury/pulsarflow/internal/consumer"
	"github.com/drblury/pulsarflow/internal/inrouter"
	"github.com/drblury/pulsarflow/internal/orchestration"
	"github.com/drblury/pulsarflow/internal/producer"
	"github.com/drblury/pulsarflow/internal/runtime"
	"github.com/drblury/pulsarflow/internal/runtime/config"
	"github.com/drblury/pulsarflow/internal/runtime/logging"
	transportpkg "github.com/drblury/pulsarflow/internal/runtime/transport"
	"github.com/drblury/pulsarflow/transport/channel"
)

// FunctionWorkerStopped is logged by the broker once the routing functions
// and their service are shut down.
const FunctionWorkerStopped = "Function worker stopped"

// Options tune the local scenario.
type Options struct {
	Customers       []string
	PublishInterval time.Duration
	SettleDelay     time.Duration
	// LogFormat and LogLevel select the per-process logger; console/info by default.
	LogFormat string
	LogLevel  string
}

func (o Options) withDefaults() Options {
	if len(o.Customers) == 0 {
		o.Customers = []string{"customer1", "customer2"}
	}
	if o.PublishInterval <= 0 {
		o.PublishInterval = 100 * time.Millisecond
	}
	if o.LogFormat == "" {
		o.LogFormat = "console"
	}
	if o.LogLevel == "" {
		o.LogLevel = "info"
	}
	return o
}

// Scenario is a wired local run. Use Config with orchestration.New.
type Scenario struct {
	Config orchestration.Config
	Admin  *admin.MemoryAdmin

	pubSub   *gochannel.GoChannel
	opts     Options
	registry *prometheus.Registry
	worker   *orchestration.Process
	// routerSvc hosts the routing functions started by configure.
	routerSvc *runtime.Service
}

// NewScenario builds every environment. Nothing runs until the orchestrator
// starts it.
func NewScenario(opts Options) (*Scenario, error) {
	opts = opts.withDefaults()

	s := &Scenario{
		Admin:    admin.NewMemoryAdmin(),
		pubSub:   gochannel.NewGoChannel(channel.DefaultConfig, watermill.NopLogger{}),
		opts:     opts,
		registry: prometheus.NewRegistry(),
	}

	brokerEnv, err := s.brokerEnv()
	if err != nil {
		return nil, err
	}
	consumerEnv, err := s.consumerEnv()
	if err != nil {
		return nil, err
	}

	producers := make([]orchestration.Environment, 0, len(opts.Customers))
	for _, customer := range opts.Customers {
		env, err := s.producerEnv(customer)
		if err != nil {
			return nil, err
		}
		producers = append(producers, env)
	}

	s.Config = orchestration.Config{
		Broker:      brokerEnv,
		Consumer:    consumerEnv,
		Producers:   producers,
		Customers:   opts.Customers,
		Configure:   s.configure,
		SettleDelay: opts.SettleDelay,
	}
	return s, nil
}

func (s *Scenario) newLogger(logs *orchestration.LogBuffer) (logging.ServiceLogger, error) {
	return logging.New(s.opts.LogFormat, s.opts.LogLevel, logs)
}

// brokerEnv owns the in-memory transport. Stopping it stops the routing
// functions first, the way a broker takes its function worker down with it.
func (s *Scenario) brokerEnv() (*orchestration.Process, error) {
	logs := &orchestration.LogBuffer{}
	logger, err := s.newLogger(logs)
	if err != nil {
		return nil, err
	}
	return orchestration.NewProcess(orchestration.ProcessConfig{
		Name: "broker",
		Logs: logs,
		Run: func(ctx context.Context) error {
			<-ctx.Done()
			var errs []error
			if s.worker != nil {
				errs = append(errs, s.worker.Stop(context.WithoutCancel(ctx)))
			}
			if s.routerSvc != nil {
				errs = append(errs, s.routerSvc.Close())
				logger.Info(FunctionWorkerStopped, nil)
			}
			errs = append(errs, s.pubSub.Close())
			return errors.Join(errs...)
		},
	}), nil
}

// configure provisions the control plane and then starts one Go router per
// routing function that provisioning deployed.
func (s *Scenario) configure(ctx context.Context) error {
	logs := &orchestration.LogBuffer{}
	logger, err := s.newLogger(logs)
	if err != nil {
		return err
	}

	p, err := admin.NewProvisioner(s.Admin, logger)
	if err != nil {
		return err
	}
	if err := p.Provision(ctx, s.opts.Customers); err != nil {
		return err
	}

	svc, err := runtime.NewService(ctx, &config.Config{PubSubSystem: channel.TransportName}, logger, runtime.ServiceDependencies{
		TransportFactory: s.sharedTransport(),
		Registerer:       s.registry,
		Gatherer:         s.registry,
	})
	if err != nil {
		return err
	}
	s.routerSvc = svc
	router, err := inrouter.New(svc, inrouter.Config{Customers: s.Admin.RoutedCustomers()})
	if err != nil {
		return err
	}

	s.worker = orchestration.NewProcess(orchestration.ProcessConfig{
		Name:  "function-worker",
		Logs:  logs,
		Ready: svc.Running,
		Run:   router.Run,
	})
	if err := s.worker.Start(ctx); err != nil {
		return fmt.Errorf("start routing functions: %w", err)
	}
	return nil
}

func (s *Scenario) consumerEnv() (*orchestration.Process, error) {
	logs := &orchestration.LogBuffer{}
	logger, err := s.newLogger(logs)
	if err != nil {
		return nil, err
	}
	metrics, err := runtime.NewMetrics(s.registry)
	if err != nil {
		return nil, err
	}
	c, err := consumer.New(s.pubSub, consumer.Config{Topic: admin.InboundTopic}, logger, consumer.WithMetrics(metrics))
	if err != nil {
		return nil, err
	}
	return orchestration.NewProcess(orchestration.ProcessConfig{
		Name:     "consumer",
		Logs:     logs,
		ReadyLog: consumer.StartedMessage,
		Run:      c.Run,
	}), nil
}

func (s *Scenario) producerEnv(customer string) (*orchestration.Process, error) {
	logs := &orchestration.LogBuffer{}
	logger, err := s.newLogger(logs)
	if err != nil {
		return nil, err
	}
	metrics, err := runtime.NewMetrics(s.registry)
	if err != nil {
		return nil, err
	}
	p, err := producer.New(s.pubSub, producer.Config{
		Topic:    admin.CustomerOutboundTopic(customer),
		Interval: s.opts.PublishInterval,
	}, logger, producer.WithMetrics(metrics))
	if err != nil {
		return nil, err
	}
	return orchestration.NewProcess(orchestration.ProcessConfig{
		Name:     "producer-" + customer,
		Logs:     logs,
		ReadyLog: producer.SendingMessage,
		Run:      p.Run,
	}), nil
}

// Registry exposes the counters shared by every process of the scenario.
func (s *Scenario) Registry() *prometheus.Registry {
	return s.registry
}

func (s *Scenario) sharedTransport() transportpkg.Factory {
	return transportpkg.FactoryFunc(func(context.Context, *config.Config, watermill.LoggerAdapter) (transportpkg.Transport, error) {
		return transportpkg.Transport{Publisher: s.pubSub, Subscriber: s.pubSub}, nil
	})
}

// Package containers provides Docker-backed orchestration environments: the
// Pulsar broker and the producer and consumer images built from the
// repository Dockerfile.
package containers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/network"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// BrokerImage is the Pulsar distribution run in standalone mode.
	BrokerImage = "apachepulsar/pulsar:3.3.2"
	// BrokerAlias is the broker's host name on the scenario network.
	BrokerAlias = "pulsar"
	// BrokerServiceURL is how the apps reach the broker from inside the network.
	BrokerServiceURL = "pulsar://" + BrokerAlias + ":6650"

	adminPort = "8080/tcp"
	dataPort  = "6650/tcp"

	brokerStartupTimeout = 3 * time.Minute
	appStartupTimeout    = 2 * time.Minute
)

// run starts a container. Tests replace it.
var run = testcontainers.Run

// Network is the dedicated Docker network shared by every container.
type Network struct {
	nw *testcontainers.DockerNetwork
}

// NewNetwork creates a fresh bridge network.
func NewNetwork(ctx context.Context) (*Network, error) {
	nw, err := network.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("create network: %w", err)
	}
	return &Network{nw: nw}, nil
}

// Name returns the Docker network name.
func (n *Network) Name() string {
	return n.nw.Name
}

// Remove deletes the network. Every container must be stopped first.
func (n *Network) Remove(ctx context.Context) error {
	return n.nw.Remove(ctx)
}

// Container is an orchestration.Environment backed by one Docker container.
type Container struct {
	name  string
	image string
	opts  []testcontainers.ContainerCustomizer

	mu  sync.Mutex
	ctr *testcontainers.DockerContainer
}

func newContainer(name, image string, opts ...testcontainers.ContainerCustomizer) *Container {
	return &Container{name: name, image: image, opts: opts}
}

func (c *Container) Name() string { return c.name }

// Start creates and starts the container and blocks on its wait strategy.
// A container that was created but never became ready is kept so Stop can
// remove it.
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ctr != nil {
		return fmt.Errorf("%s: already started", c.name)
	}
	ctr, err := run(ctx, c.image, c.opts...)
	c.ctr = ctr
	if err != nil {
		return fmt.Errorf("run %s: %w", c.name, err)
	}
	return nil
}

// Stop terminates the container. Stopping a container that never started is a no-op.
func (c *Container) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ctr == nil {
		return nil
	}
	err := c.ctr.Terminate(ctx)
	c.ctr = nil
	return err
}

// Logs returns the full log stream of the container.
func (c *Container) Logs(ctx context.Context) (string, error) {
	ctr, err := c.running()
	if err != nil {
		return "", err
	}

	rc, err := ctr.Logs(ctx)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	b, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (c *Container) running() (*testcontainers.DockerContainer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ctr == nil {
		return nil, errors.New(c.name + ": not running")
	}
	return c.ctr, nil
}

// Broker is the Pulsar standalone container.
type Broker struct {
	*Container
}

// NewBroker returns the broker environment attached to nw under BrokerAlias.
func NewBroker(nw *Network) *Broker {
	return &Broker{Container: newContainer("broker", BrokerImage, brokerOptions(nw.Name())...)}
}

func brokerOptions(networkName string) []testcontainers.ContainerCustomizer {
	return []testcontainers.ContainerCustomizer{
		testcontainers.WithCmd("bin/pulsar", "standalone"),
		testcontainers.WithExposedPorts(adminPort, dataPort),
		network.WithNetworkName([]string{BrokerAlias}, networkName),
		testcontainers.WithWaitStrategyAndDeadline(brokerStartupTimeout,
			wait.ForHTTP("/metrics").
				WithPort(adminPort).
				WithStatusCodeMatcher(func(status int) bool { return status == 200 }).
				WithStartupTimeout(brokerStartupTimeout),
			wait.ForListeningPort(dataPort).WithStartupTimeout(brokerStartupTimeout),
		),
	}
}

// AdminURL is the host-reachable admin REST endpoint.
func (b *Broker) AdminURL(ctx context.Context) (string, error) {
	ctr, err := b.running()
	if err != nil {
		return "", err
	}
	return ctr.PortEndpoint(ctx, adminPort, "http")
}

// AppOptions describe a container built from the repository Dockerfile.
type AppOptions struct {
	// Name of the environment and its network alias.
	Name string
	// App selects the cmd/<App> binary through the APP build argument.
	App string
	// RepoRoot is the Docker build context.
	RepoRoot string
	Env      map[string]string
	// ReadyLog is a regular expression matched against the container log.
	ReadyLog string
}

// NewApp returns an application environment attached to nw.
func NewApp(nw *Network, opts AppOptions) *Container {
	return newContainer(opts.Name, "", appOptions(nw.Name(), opts)...)
}

func appOptions(networkName string, opts AppOptions) []testcontainers.ContainerCustomizer {
	app := opts.App
	env := map[string]string{"PULSAR": BrokerServiceURL}
	for k, v := range opts.Env {
		env[k] = v
	}
	return []testcontainers.ContainerCustomizer{
		testcontainers.WithDockerfile(testcontainers.FromDockerfile{
			Context:    opts.RepoRoot,
			Dockerfile: "Dockerfile",
			BuildArgs:  map[string]*string{"APP": &app},
			Repo:       "pulsarflow-" + app,
			Tag:        "e2e",
			KeepImage:  true,
		}),
		testcontainers.WithEnv(env),
		network.WithNetworkName([]string{opts.Name}, networkName),
		testcontainers.WithWaitStrategyAndDeadline(appStartupTimeout,
			wait.ForLog(opts.ReadyLog).AsRegexp().WithStartupTimeout(appStartupTimeout),
		),
	}
}

// NewConsumer returns the main consumer reading topic.
func NewConsumer(nw *Network, repoRoot, topic string) *Container {
	return NewApp(nw, AppOptions{
		Name:     "main-consumer",
		App:      "main-consumer",
		RepoRoot: repoRoot,
		Env:      map[string]string{"TOPIC": topic},
		ReadyLog: ".*Consumer started.*",
	})
}

// NewProducer returns a producer publishing to topic on behalf of customer.
func NewProducer(nw *Network, repoRoot, customer, topic string) *Container {
	return NewApp(nw, AppOptions{
		Name:     customer + "-producer",
		App:      "customer-producer",
		RepoRoot: repoRoot,
		Env:      map[string]string{"TOPIC": topic},
		ReadyLog: ".*Sending message to topic:.*",
	})
}

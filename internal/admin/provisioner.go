package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/drblury/pulsarflow/internal/runtime/logging"
)

// Routing function deployed once per customer.
const (
	RoutingFunctionName  = "in_router"
	RoutingFunctionClass = "in_router.RoutingFunction"
	routingFunctionPy    = "in_router.py"

	// DefaultArtifactPath is the routing function source, relative to the repository root.
	DefaultArtifactPath = "deploy/pulsar-function/in_router.py"
)

// ErrInvalidCustomer is returned for customer names that cannot be a tenant.
var ErrInvalidCustomer = errors.New("admin: invalid customer name")

// ProvisionerOption customises a Provisioner.
type ProvisionerOption func(*Provisioner)

// WithArtifactPath overrides the routing function artifact location.
func WithArtifactPath(path string) ProvisionerOption {
	return func(p *Provisioner) {
		p.artifactPath = path
	}
}

// Provisioner runs the broker setup steps in order. Any failed step aborts
// the run; nothing is retried.
type Provisioner struct {
	admin        Admin
	logger       logging.ServiceLogger
	artifactPath string
}

// NewProvisioner returns a Provisioner backed by a.
func NewProvisioner(a Admin, logger logging.ServiceLogger, opts ...ProvisionerOption) (*Provisioner, error) {
	if a == nil {
		return nil, errors.New("admin: admin client is required")
	}
	if logger == nil {
		return nil, errors.New("admin: logger is required")
	}
	p := &Provisioner{
		admin:        a,
		logger:       logger,
		artifactPath: DefaultArtifactPath,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Provision runs OneTimeSetup and then onboards every customer.
func (p *Provisioner) Provision(ctx context.Context, customers []string) error {
	if err := p.OneTimeSetup(ctx); err != nil {
		return err
	}
	for _, customer := range customers {
		if err := p.OnboardCustomer(ctx, customer); err != nil {
			return err
		}
	}
	return nil
}

// OneTimeSetup creates the shared inbound tenant, namespace and topic.
func (p *Provisioner) OneTimeSetup(ctx context.Context) error {
	p.logger.Info("Configuring inbound topic", logging.LogFields{"topic": InboundTopic})
	return p.createTopicTree(ctx, InboundTenant, InboundNamespace, InboundTopic)
}

// OnboardCustomer creates the customer's tenant, outbound namespace and topic,
// then deploys the routing function that forwards the topic into InboundTopic.
func (p *Provisioner) OnboardCustomer(ctx context.Context, customer string) error {
	if customer == "" || strings.ContainsAny(customer, "/: ") {
		return fmt.Errorf("%w: %q", ErrInvalidCustomer, customer)
	}

	p.logger.Info(fmt.Sprintf("On-boarding %s", customer), nil)

	topic := CustomerOutboundTopic(customer)
	if err := p.createTopicTree(ctx, customer, OutboundNamespace, topic); err != nil {
		return err
	}

	fn := FunctionSpec{
		Name:      RoutingFunctionName,
		Tenant:    customer,
		Namespace: OutboundNamespace,
		Inputs:    []string{topic},
		ClassName: RoutingFunctionClass,
		Py:        routingFunctionPy,
	}
	if err := p.admin.CreateFunction(ctx, fn, p.artifactPath); err != nil {
		return fmt.Errorf("create function %s/%s/%s: %w", customer, OutboundNamespace, RoutingFunctionName, err)
	}
	return nil
}

func (p *Provisioner) createTopicTree(ctx context.Context, tenant, namespace, topic string) error {
	clusters, err := p.admin.ListClusters(ctx)
	if err != nil {
		return fmt.Errorf("list clusters: %w", err)
	}
	if err := p.admin.CreateTenant(ctx, tenant, clusters); err != nil {
		return fmt.Errorf("create tenant %s: %w", tenant, err)
	}
	if err := p.admin.CreateNamespace(ctx, tenant, namespace); err != nil {
		return fmt.Errorf("create namespace %s/%s: %w", tenant, namespace, err)
	}
	if err := p.admin.CreateNonPartitionedTopic(ctx, topic); err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	return nil
}

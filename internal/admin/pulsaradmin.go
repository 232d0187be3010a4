package admin

import (
	"context"
	"fmt"
	"sync"

	"github.com/apache/pulsar-client-go/pulsaradmin"
	"github.com/apache/pulsar-client-go/pulsaradmin/pkg/admin/config"
	"github.com/apache/pulsar-client-go/pulsaradmin/pkg/utils"
)

const pythonRuntime = "PYTHON"

// The subset of the pulsaradmin client that PulsarAdmin calls.
type (
	clusterAPI interface {
		List() ([]string, error)
	}
	tenantAPI interface {
		Create(utils.TenantData) error
	}
	namespaceAPI interface {
		CreateNamespace(namespace string) error
	}
	topicAPI interface {
		Create(topic utils.TopicName, partitions int) error
	}
	functionAPI interface {
		CreateFunc(data *utils.FunctionConfig, fileName string) error
	}
)

type adminAPIs struct {
	clusters   clusterAPI
	tenants    tenantAPI
	namespaces namespaceAPI
	topics     topicAPI
	functions  functionAPI
}

// newAdminAPIs creates the pulsaradmin client. Tests replace it.
var newAdminAPIs = func(webServiceURL string) (adminAPIs, error) {
	client, err := pulsaradmin.NewClient(&config.Config{WebServiceURL: webServiceURL})
	if err != nil {
		return adminAPIs{}, err
	}
	return adminAPIs{
		clusters:   client.Clusters(),
		tenants:    client.Tenants(),
		namespaces: client.Namespaces(),
		topics:     client.Topics(),
		functions:  client.Functions(),
	}, nil
}

// PulsarAdmin implements Admin over the broker's HTTP admin API.
type PulsarAdmin struct {
	mu     sync.RWMutex
	api    adminAPIs
	closed bool
}

// NewPulsarAdmin connects to the admin endpoint, e.g. http://localhost:8080.
func NewPulsarAdmin(webServiceURL string) (*PulsarAdmin, error) {
	if webServiceURL == "" {
		return nil, fmt.Errorf("admin: web service URL is required")
	}
	api, err := newAdminAPIs(webServiceURL)
	if err != nil {
		return nil, fmt.Errorf("admin: create client: %w", err)
	}
	return &PulsarAdmin{api: api}, nil
}

func (a *PulsarAdmin) ListClusters(ctx context.Context) ([]string, error) {
	if err := a.ready(ctx); err != nil {
		return nil, err
	}
	defer a.mu.RUnlock()
	return a.api.clusters.List()
}

func (a *PulsarAdmin) CreateTenant(ctx context.Context, name string, allowedClusters []string) error {
	if err := a.ready(ctx); err != nil {
		return err
	}
	defer a.mu.RUnlock()
	return a.api.tenants.Create(utils.TenantData{
		Name:            name,
		AdminRoles:      []string{},
		AllowedClusters: allowedClusters,
	})
}

func (a *PulsarAdmin) CreateNamespace(ctx context.Context, tenant, namespace string) error {
	if err := a.ready(ctx); err != nil {
		return err
	}
	defer a.mu.RUnlock()
	return a.api.namespaces.CreateNamespace(tenant + "/" + namespace)
}

func (a *PulsarAdmin) CreateNonPartitionedTopic(ctx context.Context, topic string) error {
	if err := a.ready(ctx); err != nil {
		return err
	}
	defer a.mu.RUnlock()
	name, err := utils.GetTopicName(topic)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTopic, err)
	}
	return a.api.topics.Create(*name, 0)
}

func (a *PulsarAdmin) CreateFunction(ctx context.Context, fn FunctionSpec, artifactPath string) error {
	if err := a.ready(ctx); err != nil {
		return err
	}
	defer a.mu.RUnlock()
	return a.api.functions.CreateFunc(functionConfig(fn), artifactPath)
}

// Close releases the client. Later calls return ErrAdminClosed.
func (a *PulsarAdmin) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	return nil
}

// ready takes the read lock on success; callers release it.
func (a *PulsarAdmin) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.mu.RLock()
	if a.closed {
		a.mu.RUnlock()
		return ErrAdminClosed
	}
	return nil
}

func functionConfig(fn FunctionSpec) *utils.FunctionConfig {
	py := fn.Py
	return &utils.FunctionConfig{
		Name:      fn.Name,
		Tenant:    fn.Tenant,
		Namespace: fn.Namespace,
		Inputs:    fn.Inputs,
		ClassName: fn.ClassName,
		Py:        &py,
		Runtime:   pythonRuntime,
	}
}

package admin

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Errors reported by MemoryAdmin, mirroring the broker's 409 and 404 answers.
var (
	ErrAlreadyExists = errors.New("admin: resource already exists")
	ErrNotFound      = errors.New("admin: resource not found")
)

// MemoryAdmin is an in-process control plane for the channel transport. It
// enforces the same parent/child rules as the broker so provisioning order
// mistakes surface without a running cluster.
type MemoryAdmin struct {
	mu         sync.Mutex
	clusters   []string
	tenants    map[string][]string
	namespaces map[string]struct{}
	topics     map[string]struct{}
	functions  map[string]FunctionSpec
	closed     bool
}

// NewMemoryAdmin returns an empty control plane serving the given clusters.
func NewMemoryAdmin(clusters ...string) *MemoryAdmin {
	if len(clusters) == 0 {
		clusters = []string{"standalone"}
	}
	return &MemoryAdmin{
		clusters:   clusters,
		tenants:    make(map[string][]string),
		namespaces: make(map[string]struct{}),
		topics:     make(map[string]struct{}),
		functions:  make(map[string]FunctionSpec),
	}
}

func (m *MemoryAdmin) ListClusters(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx); err != nil {
		return nil, err
	}
	return append([]string(nil), m.clusters...), nil
}

func (m *MemoryAdmin) CreateTenant(ctx context.Context, name string, allowedClusters []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx); err != nil {
		return err
	}
	if _, ok := m.tenants[name]; ok {
		return fmt.Errorf("%w: tenant %s", ErrAlreadyExists, name)
	}
	m.tenants[name] = append([]string(nil), allowedClusters...)
	return nil
}

func (m *MemoryAdmin) CreateNamespace(ctx context.Context, tenant, namespace string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx); err != nil {
		return err
	}
	if _, ok := m.tenants[tenant]; !ok {
		return fmt.Errorf("%w: tenant %s", ErrNotFound, tenant)
	}
	path := tenant + "/" + namespace
	if _, ok := m.namespaces[path]; ok {
		return fmt.Errorf("%w: namespace %s", ErrAlreadyExists, path)
	}
	m.namespaces[path] = struct{}{}
	return nil
}

func (m *MemoryAdmin) CreateNonPartitionedTopic(ctx context.Context, topic string) error {
	name, err := ParseTopic(topic)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx); err != nil {
		return err
	}
	if _, ok := m.namespaces[name.NamespacePath()]; !ok {
		return fmt.Errorf("%w: namespace %s", ErrNotFound, name.NamespacePath())
	}
	if _, ok := m.topics[name.String()]; ok {
		return fmt.Errorf("%w: topic %s", ErrAlreadyExists, name)
	}
	m.topics[name.String()] = struct{}{}
	return nil
}

func (m *MemoryAdmin) CreateFunction(ctx context.Context, fn FunctionSpec, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx); err != nil {
		return err
	}
	path := fn.Tenant + "/" + fn.Namespace
	if _, ok := m.namespaces[path]; !ok {
		return fmt.Errorf("%w: namespace %s", ErrNotFound, path)
	}
	for _, in := range fn.Inputs {
		if _, ok := m.topics[in]; !ok {
			return fmt.Errorf("%w: input topic %s", ErrNotFound, in)
		}
	}
	key := path + "/" + fn.Name
	if _, ok := m.functions[key]; ok {
		return fmt.Errorf("%w: function %s", ErrAlreadyExists, key)
	}
	m.functions[key] = fn
	return nil
}

func (m *MemoryAdmin) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Topics lists the created topics in lexical order.
func (m *MemoryAdmin) Topics() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.topics))
	for t := range m.topics {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Functions lists the deployed functions keyed by tenant/namespace/name.
func (m *MemoryAdmin) Functions() map[string]FunctionSpec {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]FunctionSpec, len(m.functions))
	for k, v := range m.functions {
		out[k] = v
	}
	return out
}

// RoutedCustomers returns the tenants that have a routing function deployed.
func (m *MemoryAdmin) RoutedCustomers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, fn := range m.functions {
		if fn.Name == RoutingFunctionName {
			out = append(out, fn.Tenant)
		}
	}
	sort.Strings(out)
	return out
}

func (m *MemoryAdmin) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.closed {
		return ErrAdminClosed
	}
	return nil
}

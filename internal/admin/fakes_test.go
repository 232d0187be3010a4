package admin

import (
	"context"
	"fmt"
	"sync"
)

// fakeAdmin records calls as strings and fails the call named in failOn.
type fakeAdmin struct {
	mu       sync.Mutex
	calls    []string
	clusters []string
	failOn   string
	err      error
	closed   bool
}

func (f *fakeAdmin) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrAdminClosed
	}
	f.calls = append(f.calls, call)
	if f.failOn != "" && f.failOn == call {
		return f.err
	}
	return nil
}

func (f *fakeAdmin) ListClusters(context.Context) ([]string, error) {
	if err := f.record("clusters"); err != nil {
		return nil, err
	}
	return f.clusters, nil
}

func (f *fakeAdmin) CreateTenant(_ context.Context, name string, allowed []string) error {
	return f.record(fmt.Sprintf("tenant %s %v", name, allowed))
}

func (f *fakeAdmin) CreateNamespace(_ context.Context, tenant, namespace string) error {
	return f.record("namespace " + tenant + "/" + namespace)
}

func (f *fakeAdmin) CreateNonPartitionedTopic(_ context.Context, topic string) error {
	return f.record("topic " + topic)
}

func (f *fakeAdmin) CreateFunction(_ context.Context, fn FunctionSpec, artifact string) error {
	return f.record(fmt.Sprintf("function %s/%s/%s %v %s %s %s", fn.Tenant, fn.Namespace, fn.Name, fn.Inputs, fn.ClassName, fn.Py, artifact))
}

func (f *fakeAdmin) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeAdmin) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// Package admin provisions the broker: tenants, namespaces, topics and the
// per-customer routing function.
package admin

import (
	"context"
	"errors"
)

// ErrAdminClosed is returned by every Admin call made after Close.
var ErrAdminClosed = errors.New("admin: client closed")

// FunctionSpec describes a broker-hosted function.
type FunctionSpec struct {
	Name      string
	Tenant    string
	Namespace string
	Inputs    []string
	ClassName string
	// Py is the artifact file name as seen by the function worker.
	Py string
}

// Admin is the broker control-plane API used by the Provisioner.
type Admin interface {
	ListClusters(ctx context.Context) ([]string, error)
	CreateTenant(ctx context.Context, name string, allowedClusters []string) error
	CreateNamespace(ctx context.Context, tenant, namespace string) error
	CreateNonPartitionedTopic(ctx context.Context, topic string) error
	CreateFunction(ctx context.Context, fn FunctionSpec, artifactPath string) error
	Close() error
}

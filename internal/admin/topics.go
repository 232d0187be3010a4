package admin

import (
	"errors"
	"fmt"
	"strings"
)

// Naming used by the provisioning steps and the routing function.
const (
	InboundTenant     = "internal"
	InboundNamespace  = "inbound"
	OutboundNamespace = "outbound"
	TopicLocalName    = "corona"

	// InboundTopic is the shared topic every customer is routed into.
	InboundTopic = "persistent://" + InboundTenant + "/" + InboundNamespace + "/" + TopicLocalName

	persistentDomain    = "persistent"
	nonPersistentDomain = "non-persistent"
)

// ErrInvalidTopic is returned by ParseTopic for names that are not
// [domain://]tenant/namespace/topic.
var ErrInvalidTopic = errors.New("admin: invalid topic name")

// TopicName is a fully qualified topic.
type TopicName struct {
	Domain    string
	Tenant    string
	Namespace string
	Local     string
}

func (t TopicName) String() string {
	return fmt.Sprintf("%s://%s/%s/%s", t.Domain, t.Tenant, t.Namespace, t.Local)
}

// NamespacePath returns tenant/namespace.
func (t TopicName) NamespacePath() string {
	return t.Tenant + "/" + t.Namespace
}

// CustomerOutboundTopic returns the topic a customer's producer publishes to.
func CustomerOutboundTopic(customer string) string {
	return TopicName{
		Domain:    persistentDomain,
		Tenant:    customer,
		Namespace: OutboundNamespace,
		Local:     TopicLocalName,
	}.String()
}

// ParseTopic splits a topic name. A name without a domain is persistent.
func ParseTopic(s string) (TopicName, error) {
	domain := persistentDomain
	rest := s
	if d, r, ok := strings.Cut(s, "://"); ok {
		domain, rest = d, r
	}
	if domain != persistentDomain && domain != nonPersistentDomain {
		return TopicName{}, fmt.Errorf("%w: unknown domain %q in %q", ErrInvalidTopic, domain, s)
	}

	parts := strings.Split(rest, "/")
	if len(parts) != 3 {
		return TopicName{}, fmt.Errorf("%w: %q", ErrInvalidTopic, s)
	}
	for _, p := range parts {
		if p == "" {
			return TopicName{}, fmt.Errorf("%w: %q", ErrInvalidTopic, s)
		}
	}

	return TopicName{
		Domain:    domain,
		Tenant:    parts[0],
		Namespace: parts[1],
		Local:     parts[2],
	}, nil
}

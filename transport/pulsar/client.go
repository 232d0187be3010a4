package pulsar

import (
	"context"
	"sync"

	"github.com/apache/pulsar-client-go/pulsar"
)

// Client is the subset of pulsar.Client the transport relies on.
type Client interface {
	CreateProducer(options pulsar.ProducerOptions) (Producer, error)
	Subscribe(options pulsar.ConsumerOptions) (Consumer, error)
	Close()
}

// Producer is the subset of pulsar.Producer the publisher relies on.
type Producer interface {
	Send(ctx context.Context, msg *pulsar.ProducerMessage) (pulsar.MessageID, error)
	Close()
}

// Consumer is the subset of pulsar.Consumer the subscriber relies on.
type Consumer interface {
	Receive(ctx context.Context) (pulsar.Message, error)
	Ack(msg pulsar.Message) error
	Nack(msg pulsar.Message)
	Close()
}

// ClientFactory allows overriding the client creation for testing.
var ClientFactory = func(opts pulsar.ClientOptions) (Client, error) {
	c, err := pulsar.NewClient(opts)
	if err != nil {
		return nil, err
	}
	return clientAdapter{c}, nil
}

type clientAdapter struct {
	pulsar.Client
}

func (c clientAdapter) CreateProducer(options pulsar.ProducerOptions) (Producer, error) {
	return c.Client.CreateProducer(options)
}

func (c clientAdapter) Subscribe(options pulsar.ConsumerOptions) (Consumer, error) {
	return c.Client.Subscribe(options)
}

// sharedClient closes the underlying client once every holder released it.
// The publisher and subscriber built together share one connection pool.
type sharedClient struct {
	Client

	mu   sync.Mutex
	refs int
}

func newSharedClient(c Client, refs int) *sharedClient {
	return &sharedClient{Client: c, refs: refs}
}

func (s *sharedClient) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refs == 0 {
		return
	}
	s.refs--
	if s.refs == 0 {
		s.Client.Close()
	}
}

package pulsar

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/apache/pulsar-client-go/pulsar"
)

type fakeClient struct {
	mu          sync.Mutex
	producers   map[string]*fakeProducer
	consumers   []*fakeConsumer
	producerErr error
	subscribe   func(opts pulsar.ConsumerOptions) (*fakeConsumer, error)
	closed      int
}

func newFakeClient() *fakeClient {
	return &fakeClient{producers: make(map[string]*fakeProducer)}
}

func (c *fakeClient) CreateProducer(opts pulsar.ProducerOptions) (Producer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.producerErr != nil {
		return nil, c.producerErr
	}
	p := &fakeProducer{topic: opts.Topic}
	c.producers[opts.Topic] = p
	return p, nil
}

func (c *fakeClient) Subscribe(opts pulsar.ConsumerOptions) (Consumer, error) {
	var (
		cons *fakeConsumer
		err  error
	)
	if c.subscribe != nil {
		cons, err = c.subscribe(opts)
	} else {
		cons = newFakeConsumer(opts)
	}
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.consumers = append(c.consumers, cons)
	c.mu.Unlock()
	return cons, nil
}

func (c *fakeClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
}

type fakeProducer struct {
	mu      sync.Mutex
	topic   string
	sent    []*pulsar.ProducerMessage
	sendErr error
	closed  bool
}

func (p *fakeProducer) Send(_ context.Context, msg *pulsar.ProducerMessage) (pulsar.MessageID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sendErr != nil {
		return nil, p.sendErr
	}
	p.sent = append(p.sent, msg)
	return fakeMessageID{id: len(p.sent)}, nil
}

func (p *fakeProducer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

type fakeConsumer struct {
	opts     pulsar.ConsumerOptions
	incoming chan pulsar.Message
	errs     chan error

	mu     sync.Mutex
	acked  []pulsar.Message
	nacked []pulsar.Message
	closed bool
}

func newFakeConsumer(opts pulsar.ConsumerOptions) *fakeConsumer {
	return &fakeConsumer{
		opts:     opts,
		incoming: make(chan pulsar.Message, 16),
		errs:     make(chan error, 1),
	}
}

func (c *fakeConsumer) Receive(ctx context.Context) (pulsar.Message, error) {
	select {
	case m := <-c.incoming:
		return m, nil
	case err := <-c.errs:
		return nil, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *fakeConsumer) Ack(m pulsar.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.acked = append(c.acked, m)
	return nil
}

func (c *fakeConsumer) Nack(m pulsar.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nacked = append(c.nacked, m)
}

func (c *fakeConsumer) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeConsumer) counts() (acked, nacked int, closed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.acked), len(c.nacked), c.closed
}

// fakeMessage implements the pulsar.Message methods the subscriber reads.
// Calls to any other method panic on the nil embedded interface.
type fakeMessage struct {
	pulsar.Message

	topic       string
	payload     []byte
	props       map[string]string
	key         string
	publishTime time.Time
}

func (m fakeMessage) Topic() string                 { return m.topic }
func (m fakeMessage) Payload() []byte               { return m.payload }
func (m fakeMessage) Properties() map[string]string { return m.props }
func (m fakeMessage) Key() string                   { return m.key }
func (m fakeMessage) PublishTime() time.Time        { return m.publishTime }
func (m fakeMessage) ID() pulsar.MessageID          { return fakeMessageID{id: 7} }

type fakeMessageID struct {
	pulsar.MessageID
	id int
}

func (f fakeMessageID) String() string { return fmt.Sprintf("1:%d:0", f.id) }

type fakeConfig struct {
	url          string
	subscription string
	subType      string
	position     string
}

func (f fakeConfig) GetPubSubSystem() string                   { return TransportName }
func (f fakeConfig) GetPulsarURL() string                      { return f.url }
func (f fakeConfig) GetPulsarOperationTimeout() time.Duration  { return 5 * time.Second }
func (f fakeConfig) GetPulsarConnectionTimeout() time.Duration { return 2 * time.Second }
func (f fakeConfig) GetSubscription() string                   { return f.subscription }
func (f fakeConfig) GetSubscriptionType() string               { return f.subType }
func (f fakeConfig) GetSubscriptionInitialPosition() string    { return f.position }
func (f fakeConfig) GetKafkaBrokers() []string                 { return nil }
func (f fakeConfig) GetKafkaConsumerGroup() string             { return "" }
func (f fakeConfig) GetRabbitMQURL() string                    { return "" }
func (f fakeConfig) GetNATSURL() string                        { return "" }

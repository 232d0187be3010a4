package transport

import (
	"context"
	"strings"

	"github.com/ThreeDotsLabs/watermill/message"
)

// TopicMapper rewrites a topic name before it reaches the broker.
type TopicMapper func(topic string) string

// FlattenTopic turns a Pulsar topic URI such as
// persistent://customer1/outbound/corona into customer1<sep>outbound<sep>corona
// for brokers whose topic names cannot contain "://" or "/". Names without a
// scheme are only split on "/".
func FlattenTopic(sep string) TopicMapper {
	return func(topic string) string {
		if _, rest, ok := strings.Cut(topic, "://"); ok {
			topic = rest
		}
		return strings.ReplaceAll(strings.Trim(topic, "/"), "/", sep)
	}
}

// WithTopicMapper wraps both sides of a transport so every topic passes through
// mapper. A nil mapper returns the transport unchanged.
func WithTopicMapper(t Transport, mapper TopicMapper) Transport {
	if mapper == nil {
		return t
	}
	return Transport{
		Publisher:  &mappedPublisher{Publisher: t.Publisher, mapper: mapper},
		Subscriber: &mappedSubscriber{Subscriber: t.Subscriber, mapper: mapper},
	}
}

type mappedPublisher struct {
	message.Publisher
	mapper TopicMapper
}

func (p *mappedPublisher) Publish(topic string, messages ...*message.Message) error {
	return p.Publisher.Publish(p.mapper(topic), messages...)
}

func (p *mappedPublisher) PrepareTopic(ctx context.Context, topic string) error {
	return PrepareTopic(ctx, p.Publisher, p.mapper(topic))
}

type mappedSubscriber struct {
	message.Subscriber
	mapper TopicMapper
}

func (s *mappedSubscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return s.Subscriber.Subscribe(ctx, s.mapper(topic))
}

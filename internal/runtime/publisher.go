package runtime

import (
	"context"
	"errors"

	"github.com/ThreeDotsLabs/watermill/message"

	errspkg "github.com/drblury/pulsarflow/internal/runtime/errors"
	idspkg "github.com/drblury/pulsarflow/internal/runtime/ids"
	metadatapkg "github.com/drblury/pulsarflow/internal/runtime/metadata"
)

// NewMessage wraps payload in a Watermill message with a ULID identifier and a
// copy of metadata.
func NewMessage(payload []byte, metadata metadatapkg.Metadata) (*message.Message, error) {
	if len(payload) == 0 {
		return nil, errspkg.ErrPayloadRequired
	}

	msg := message.NewMessage(idspkg.CreateULID(), payload)
	msg.Metadata = metadatapkg.ToWatermill(metadata)
	return msg, nil
}

// Publish wraps payload with NewMessage and publishes it to topic.
func Publish(ctx context.Context, publisher message.Publisher, topic string, payload []byte, metadata metadatapkg.Metadata) error {
	if publisher == nil {
		return errspkg.ErrPublisherRequired
	}
	if topic == "" {
		return errspkg.ErrTopicRequired
	}

	msg, err := NewMessage(payload, metadata)
	if err != nil {
		return err
	}

	if ctx != nil {
		msg.SetContext(ctx)
	}

	return publisher.Publish(topic, msg)
}

// Publish emits payload using the Service publisher.
func (s *Service) Publish(ctx context.Context, topic string, payload []byte, metadata metadatapkg.Metadata) error {
	if s == nil {
		return errors.New("event service is nil")
	}
	return Publish(ctx, s.publisher, topic, payload, metadata)
}

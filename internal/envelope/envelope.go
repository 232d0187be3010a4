// Package envelope defines the message body exchanged between the customer
// producers and the consumer.
package envelope

import (
	"fmt"

	"github.com/drblury/pulsarflow/internal/runtime/jsoncodec"
)

// DefaultText is the constant payload text carried by every envelope.
const DefaultText = "COVID-19"

// IDSource yields the identifier of the next envelope.
type IDSource interface {
	Int64() int64
}

// Envelope is the wire payload. It is a value type and never mutated after New.
type Envelope struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

// New returns an envelope with a fresh identifier drawn from src.
func New(src IDSource) Envelope {
	return Envelope{ID: src.Int64(), Text: DefaultText}
}

// Marshal encodes e as UTF-8 JSON with the fields in wire order.
func Marshal(e Envelope) ([]byte, error) {
	b, err := jsoncodec.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}
	return b, nil
}

// Unmarshal decodes a wire payload.
func Unmarshal(data []byte) (Envelope, error) {
	var e Envelope
	if err := jsoncodec.Unmarshal(data, &e); err != nil {
		return Envelope{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	return e, nil
}

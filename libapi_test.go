package pulsarflow

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestHandlerExportsPropagateErrors(t *testing.T) {
	if err := RegisterMessageHandler(nil, MessageHandlerRegistration{}); !errors.Is(err, ErrServiceRequired) {
		t.Fatalf("expected service required error, got %v", err)
	}
	if _, err := NewInboundRouter(nil, RouterConfig{}); !errors.Is(err, ErrServiceRequired) {
		t.Fatalf("expected service required error, got %v", err)
	}
}

func TestProcessConstructorsValidate(t *testing.T) {
	logger, err := NewLogger("console", "info", discard{})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	if _, err := NewProducer(nil, ProducerConfig{Topic: "t"}, logger); !errors.Is(err, ErrPublisherRequired) {
		t.Fatalf("expected publisher required error, got %v", err)
	}
	if _, err := NewConsumer(nil, ConsumerConfig{Topic: "t"}, logger); !errors.Is(err, ErrSubscriberRequired) {
		t.Fatalf("expected subscriber required error, got %v", err)
	}
}

func TestEncodingExportAliases(t *testing.T) {
	payload := map[string]string{"hello": "world"}
	if _, err := Marshal(payload); err != nil {
		t.Fatalf("marshal alias failed: %v", err)
	}
	if err := Unmarshal([]byte(`{"hello":"world"}`), &payload); err != nil {
		t.Fatalf("unmarshal alias failed: %v", err)
	}
}

func TestMetadataExport(t *testing.T) {
	md := NewMetadata(MetadataKeyCustomer, "customer1")
	if md.Customer() != "customer1" {
		t.Fatalf("expected metadata to carry the customer, got %#v", md)
	}
}

func TestTopicExports(t *testing.T) {
	if got := CustomerOutboundTopic("customer1"); got != "persistent://customer1/outbound/corona" {
		t.Fatalf("unexpected outbound topic %q", got)
	}
	name, err := ParseTopic(InboundTopic)
	if err != nil {
		t.Fatalf("parse inbound topic: %v", err)
	}
	if name.Tenant != "internal" || name.Namespace != "inbound" {
		t.Fatalf("unexpected inbound topic parts %+v", name)
	}
}

func TestRunLocal(t *testing.T) {
	logger, err := NewLogger("console", "info", discard{})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err = RunLocal(ctx, LocalOptions{
		Customers:       []string{"customer1", "customer2"},
		PublishInterval: 20 * time.Millisecond,
		SettleDelay:     300 * time.Millisecond,
	}, logger)
	if err != nil {
		t.Fatalf("local run failed: %v", err)
	}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

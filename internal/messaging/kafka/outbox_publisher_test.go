package kafka

import (
	"testing"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func TestOutboxPublisher_NilProducer(t *testing.T) {
	publisher := NewOutboxPublisher(nil, "")

	err := publisher.Publish(domain.OutboxMessage{
		ID:        "msg-1",
		EventType: "order.created",
		Payload:   []byte(`{}`),
	})
	if err == nil {
		t.Fatal("publisher without producer must return an error")
	}
}

func TestNewOrderEvent(t *testing.T) {
	event := NewOrderEvent(EventTypeOrderCreated, "order-1", "customer-1", "pending", 2500)

	if event.EventType != EventTypeOrderCreated {
		t.Errorf("event type = %q", event.EventType)
	}
	if event.OrderID != "order-1" || event.CustomerID != "customer-1" {
		t.Errorf("identifiers mismatch: %+v", event)
	}
	if event.AmountMinor != 2500 {
		t.Errorf("amount = %d, want 2500", event.AmountMinor)
	}
	if event.Timestamp.IsZero() || event.Timestamp.After(time.Now().UTC().Add(time.Second)) {
		t.Errorf("timestamp not stamped: %v", event.Timestamp)
	}
}

package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

type stubPublisher struct {
	mu        sync.Mutex
	published []domain.OutboxMessage
	failFirst int
	failAll   bool
}

func (p *stubPublisher) Publish(msg domain.OutboxMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.failAll {
		return errors.New("broker unavailable")
	}
	if p.failFirst > 0 {
		p.failFirst--
		return errors.New("temporary failure")
	}
	p.published = append(p.published, msg)
	return nil
}

func (p *stubPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

func enqueue(t *testing.T, repo domain.OutboxRepository, eventType string) domain.OutboxMessage {
	t.Helper()
	msg, err := repo.Enqueue(domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   "order-1",
		EventType:     eventType,
		Payload:       []byte(`{"order_id":"order-1"}`),
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	return msg
}

func TestWorkerProcessOnce_PublishesAndMarksSent(t *testing.T) {
	repo := memory.NewOutboxRepository()
	publisher := &stubPublisher{}

	enqueue(t, repo, "order.created")
	enqueue(t, repo, "order.deleted")

	worker := NewWorker(repo, publisher, WithRetryBaseDelay(0))
	worker.ProcessOnce(context.Background())

	if publisher.count() != 2 {
		t.Fatalf("published = %d, want 2", publisher.count())
	}

	pending, err := repo.PullPending(10)
	if err != nil {
		t.Fatalf("pull pending: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("all messages must be marked sent, still pending: %d", len(pending))
	}
}

func TestWorkerProcessOnce_RetriesTransientErrors(t *testing.T) {
	repo := memory.NewOutboxRepository()
	publisher := &stubPublisher{failFirst: 2}

	enqueue(t, repo, "order.created")

	worker := NewWorker(repo, publisher, WithMaxAttempts(3), WithRetryBaseDelay(0))
	worker.ProcessOnce(context.Background())

	if publisher.count() != 1 {
		t.Fatalf("message must be published on the third attempt, got %d", publisher.count())
	}
}

func TestWorkerProcessOnce_MarksFailedAndSendsToDLQ(t *testing.T) {
	repo := memory.NewOutboxRepository()
	publisher := &stubPublisher{failAll: true}
	dlq := &stubPublisher{}

	msg := enqueue(t, repo, "order.created")

	worker := NewWorker(repo, publisher, WithMaxAttempts(2), WithRetryBaseDelay(0), WithDLQPublisher(dlq))
	worker.ProcessOnce(context.Background())

	if publisher.count() != 0 {
		t.Errorf("nothing should reach the main topic, got %d", publisher.count())
	}
	if dlq.count() != 1 {
		t.Fatalf("message must land in DLQ, got %d", dlq.count())
	}
	if dlq.published[0].ID != msg.ID {
		t.Errorf("dlq message id = %q, want %q", dlq.published[0].ID, msg.ID)
	}

	pending, err := repo.PullPending(10)
	if err != nil {
		t.Fatalf("pull pending: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("failed message must leave the pending set, still pending: %d", len(pending))
	}
}

func TestWorkerProcessOnce_RespectsContext(t *testing.T) {
	repo := memory.NewOutboxRepository()
	publisher := &stubPublisher{}

	enqueue(t, repo, "order.created")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	worker := NewWorker(repo, publisher)
	worker.ProcessOnce(ctx)

	if publisher.count() != 0 {
		t.Errorf("cancelled context must stop processing, published %d", publisher.count())
	}
}

package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

type ordersFixture struct {
	svc      *Service
	timeline domain.TimelineRepository
	outbox   domain.OutboxRepository
}

func newOrdersFixture(t *testing.T) *ordersFixture {
	t.Helper()

	store := memory.NewStore()
	ctx := context.Background()

	customers := memory.NewCustomerRepository(store)
	if err := customers.Create(ctx, domain.Customer{ID: "customer-1", Name: "Alice", Email: "alice@example.com", Phone: "+100"}); err != nil {
		t.Fatalf("seed customer: %v", err)
	}

	products := memory.NewProductRepository(store)
	if err := products.Create(ctx, domain.Product{ID: "product-a", Name: "Widget", PriceMinor: 1000, Stock: 5}); err != nil {
		t.Fatalf("seed product: %v", err)
	}
	if err := products.Create(ctx, domain.Product{ID: "product-b", Name: "Gadget", PriceMinor: 500, Stock: 5}); err != nil {
		t.Fatalf("seed product: %v", err)
	}

	timeline := memory.NewTimelineRepository()
	outbox := memory.NewOutboxRepository()
	svc := NewServiceWithoutMetrics(memory.NewOrderRepository(store), timeline, outbox, nil)

	return &ordersFixture{svc: svc, timeline: timeline, outbox: outbox}
}

func TestServiceCreate_DefaultsAndSideEffects(t *testing.T) {
	fx := newOrdersFixture(t)
	ctx := context.Background()

	order, err := fx.svc.Create(ctx, domain.NewOrder{
		CustomerID: "customer-1",
		Lines: []domain.NewOrderLine{
			{ProductID: "product-a", Qty: 2},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if order.ID == "" {
		t.Error("order must get a generated id")
	}
	if order.Status != domain.OrderStatusPending {
		t.Errorf("default status must be pending, got %q", order.Status)
	}
	if order.OrderDate.IsZero() || order.CreatedAt.IsZero() {
		t.Error("dates must be stamped")
	}
	if order.AmountMinor != 2000 {
		t.Errorf("amount = %d, want 2000", order.AmountMinor)
	}
	for _, line := range order.Lines {
		if line.ID == "" {
			t.Error("line must get a generated id")
		}
	}

	events, err := fx.timeline.List(order.ID)
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if len(events) != 1 || events[0].Type != "order.created" {
		t.Errorf("expected one order.created event, got %+v", events)
	}

	pending, err := fx.outbox.PullPending(10)
	if err != nil {
		t.Fatalf("outbox: %v", err)
	}
	if len(pending) != 1 || pending[0].EventType != "order.created" {
		t.Errorf("expected one outbox event, got %+v", pending)
	}
}

func TestServiceCreate_Validation(t *testing.T) {
	fx := newOrdersFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		draft   domain.NewOrder
		wantErr error
	}{
		{"missing customer", domain.NewOrder{Lines: []domain.NewOrderLine{{ProductID: "product-a", Qty: 1}}}, domain.ErrCustomerRequired},
		{"no lines", domain.NewOrder{CustomerID: "customer-1"}, domain.ErrLinesRequired},
		{"zero qty", domain.NewOrder{CustomerID: "customer-1", Lines: []domain.NewOrderLine{{ProductID: "product-a", Qty: 0}}}, domain.ErrLineQtyInvalid},
		{"missing product id", domain.NewOrder{CustomerID: "customer-1", Lines: []domain.NewOrderLine{{Qty: 1}}}, domain.ErrLineProductRequired},
		{"unknown status", domain.NewOrder{CustomerID: "customer-1", Status: "shipped", Lines: []domain.NewOrderLine{{ProductID: "product-a", Qty: 1}}}, domain.ErrStatusUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fx.svc.Create(ctx, tt.draft)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("%v must wrap ErrValidation", err)
			}
		})
	}
}

func TestServiceScope_HidesForeignOrders(t *testing.T) {
	fx := newOrdersFixture(t)
	ctx := context.Background()

	order, err := fx.svc.Create(ctx, domain.NewOrder{
		CustomerID: "customer-1",
		Lines:      []domain.NewOrderLine{{ProductID: "product-a", Qty: 1}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	foreign := domain.OrderScope{CustomerID: "customer-2"}

	if _, err := fx.svc.Get(ctx, order.ID, foreign); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Errorf("foreign Get must look like not found, got %v", err)
	}
	if _, err := fx.svc.UpdateStatus(ctx, order.ID, domain.OrderStatusCompleted, foreign); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Errorf("foreign UpdateStatus must look like not found, got %v", err)
	}
	if err := fx.svc.Delete(ctx, order.ID, foreign); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Errorf("foreign Delete must look like not found, got %v", err)
	}
	if _, err := fx.svc.Timeline(ctx, order.ID, foreign); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Errorf("foreign Timeline must look like not found, got %v", err)
	}

	owner := domain.OrderScope{CustomerID: "customer-1"}
	if _, err := fx.svc.Get(ctx, order.ID, owner); err != nil {
		t.Errorf("owner must see the order: %v", err)
	}
}

func TestServiceScope_UnboundUserSessionSeesNothing(t *testing.T) {
	fx := newOrdersFixture(t)
	ctx := context.Background()

	order, err := fx.svc.Create(ctx, domain.NewOrder{
		CustomerID: "customer-1",
		Lines:      []domain.NewOrderLine{{ProductID: "product-a", Qty: 1}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Обычная сессия, оставшаяся без привязанного клиента, не получает
	// пустой (то есть привилегированный) scope.
	scope := domain.Session{Role: domain.RoleUser, CustomerID: ""}.Scope()

	list, err := fx.svc.List(ctx, scope)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("unbound session sees %d foreign orders (want 0)", len(list))
	}

	if _, err := fx.svc.Get(ctx, order.ID, scope); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Errorf("unbound Get must look like not found, got %v", err)
	}
	if err := fx.svc.Delete(ctx, order.ID, scope); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Errorf("unbound Delete must look like not found, got %v", err)
	}

	// Заказ остался нетронутым для владельца.
	if _, err := fx.svc.Get(ctx, order.ID, domain.OrderScope{CustomerID: "customer-1"}); err != nil {
		t.Errorf("owner must still see the order: %v", err)
	}
}

func TestServiceUpdateStatus(t *testing.T) {
	fx := newOrdersFixture(t)
	ctx := context.Background()

	order, err := fx.svc.Create(ctx, domain.NewOrder{
		CustomerID: "customer-1",
		Lines:      []domain.NewOrderLine{{ProductID: "product-a", Qty: 1}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := fx.svc.UpdateStatus(ctx, order.ID, "", domain.OrderScope{}); !errors.Is(err, domain.ErrStatusRequired) {
		t.Errorf("expected ErrStatusRequired, got %v", err)
	}
	if _, err := fx.svc.UpdateStatus(ctx, order.ID, "shipped", domain.OrderScope{}); !errors.Is(err, domain.ErrStatusUnknown) {
		t.Errorf("expected ErrStatusUnknown, got %v", err)
	}

	updated, err := fx.svc.UpdateStatus(ctx, order.ID, domain.OrderStatusProcessing, domain.OrderScope{})
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if updated.Status != domain.OrderStatusProcessing {
		t.Errorf("status = %q, want processing", updated.Status)
	}
	if updated.AmountMinor != order.AmountMinor || len(updated.Lines) != len(order.Lines) {
		t.Error("status change must not touch order contents")
	}

	events, err := fx.timeline.List(order.ID)
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	last := events[len(events)-1]
	if last.Type != "order.status_changed" || last.Reason != "pending -> processing" {
		t.Errorf("unexpected timeline event: %+v", last)
	}
}

func TestServiceDelete_EmitsEvents(t *testing.T) {
	fx := newOrdersFixture(t)
	ctx := context.Background()

	order, err := fx.svc.Create(ctx, domain.NewOrder{
		CustomerID: "customer-1",
		Lines:      []domain.NewOrderLine{{ProductID: "product-a", Qty: 3}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := fx.svc.Delete(ctx, order.ID, domain.OrderScope{}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := fx.svc.Get(ctx, order.ID, domain.OrderScope{}); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("deleted order must be gone, got %v", err)
	}

	pending, err := fx.outbox.PullPending(10)
	if err != nil {
		t.Fatalf("outbox: %v", err)
	}
	var types []string
	for _, msg := range pending {
		types = append(types, msg.EventType)
	}
	if len(types) != 2 || types[0] != "order.created" || types[1] != "order.deleted" {
		t.Errorf("unexpected outbox events: %v", types)
	}
}

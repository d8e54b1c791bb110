package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func seedStore(t *testing.T) (*Store, domain.OrderRepository) {
	t.Helper()

	store := NewStore()
	now := time.Now().UTC()

	store.customers["customer-1"] = domain.Customer{
		ID: "customer-1", Name: "Alice", Email: "alice@example.com", Phone: "+100", CreatedAt: now,
	}
	store.products["product-a"] = domain.Product{
		ID: "product-a", Name: "Widget A", PriceMinor: 1000, Stock: 5, CreatedAt: now,
	}
	store.products["product-b"] = domain.Product{
		ID: "product-b", Name: "Widget B", PriceMinor: 500, Stock: 5, CreatedAt: now,
	}

	return store, NewOrderRepository(store)
}

func draftFor(lines ...domain.NewOrderLine) domain.NewOrder {
	return domain.NewOrder{
		ID:         "order-1",
		CustomerID: "customer-1",
		Status:     domain.OrderStatusPending,
		OrderDate:  time.Now().UTC(),
		CreatedAt:  time.Now().UTC(),
		Lines:      lines,
	}
}

func TestOrderCreate_ReservesStockAndComputesTotal(t *testing.T) {
	store, repo := seedStore(t)
	ctx := context.Background()

	order, err := repo.Create(ctx, draftFor(
		domain.NewOrderLine{ID: "line-1", ProductID: "product-a", Qty: 2},
		domain.NewOrderLine{ID: "line-2", ProductID: "product-b", Qty: 1},
	))
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	if order.AmountMinor != 2500 {
		t.Errorf("expected total 2500, got %d", order.AmountMinor)
	}
	if order.CustomerName != "Alice" {
		t.Errorf("expected hydrated customer name, got %q", order.CustomerName)
	}
	if len(order.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(order.Lines))
	}
	if order.Lines[0].PriceMinor != 1000 || order.Lines[0].SubtotalMinor != 2000 {
		t.Errorf("line snapshot wrong: %+v", order.Lines[0])
	}

	if got := store.products["product-a"].Stock; got != 3 {
		t.Errorf("product-a stock should be 3, got %d", got)
	}
	if got := store.products["product-b"].Stock; got != 4 {
		t.Errorf("product-b stock should be 4, got %d", got)
	}

	loaded, err := repo.Get(ctx, order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if loaded.AmountMinor != order.AmountMinor || len(loaded.Lines) != 2 {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
}

func TestOrderCreate_PriceSnapshotSurvivesCatalogChange(t *testing.T) {
	store, repo := seedStore(t)
	ctx := context.Background()

	order, err := repo.Create(ctx, draftFor(domain.NewOrderLine{ID: "line-1", ProductID: "product-a", Qty: 1}))
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	product := store.products["product-a"]
	product.PriceMinor = 9999
	store.products["product-a"] = product

	loaded, err := repo.Get(ctx, order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if loaded.Lines[0].PriceMinor != 1000 {
		t.Errorf("line price must stay at snapshot 1000, got %d", loaded.Lines[0].PriceMinor)
	}
}

func TestOrderCreate_InsufficientStockRollsBackEverything(t *testing.T) {
	store, repo := seedStore(t)
	ctx := context.Background()

	// Первая позиция проходит, вторая превышает остаток: списаний быть не должно.
	_, err := repo.Create(ctx, draftFor(
		domain.NewOrderLine{ID: "line-1", ProductID: "product-a", Qty: 2},
		domain.NewOrderLine{ID: "line-2", ProductID: "product-b", Qty: 10},
	))

	stockErr, ok := domain.AsInsufficientStock(err)
	if !ok {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if stockErr.ProductID != "product-b" || stockErr.Requested != 10 || stockErr.Available != 5 {
		t.Errorf("unexpected conflict details: %+v", stockErr)
	}

	if got := store.products["product-a"].Stock; got != 5 {
		t.Errorf("product-a stock must be untouched, got %d", got)
	}
	if got := store.products["product-b"].Stock; got != 5 {
		t.Errorf("product-b stock must be untouched, got %d", got)
	}
	if len(store.orders) != 0 {
		t.Errorf("no order must be persisted, got %d", len(store.orders))
	}
}

func TestOrderCreate_DuplicateProductLines(t *testing.T) {
	store, repo := seedStore(t)
	ctx := context.Background()

	// Один товар в двух позициях: списания суммируются.
	order, err := repo.Create(ctx, draftFor(
		domain.NewOrderLine{ID: "line-1", ProductID: "product-a", Qty: 3},
		domain.NewOrderLine{ID: "line-2", ProductID: "product-a", Qty: 2},
	))
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if order.AmountMinor != 5000 {
		t.Errorf("expected total 5000, got %d", order.AmountMinor)
	}
	if got := store.products["product-a"].Stock; got != 0 {
		t.Errorf("stock should be fully reserved, got %d", got)
	}

	// Ещё одна единица сверх остатка должна отклоняться.
	_, err = repo.Create(ctx, domain.NewOrder{
		ID: "order-2", CustomerID: "customer-1", Status: domain.OrderStatusPending,
		OrderDate: time.Now().UTC(), CreatedAt: time.Now().UTC(),
		Lines: []domain.NewOrderLine{
			{ID: "line-1", ProductID: "product-a", Qty: 1},
			{ID: "line-2", ProductID: "product-a", Qty: 1},
		},
	})
	if _, ok := domain.AsInsufficientStock(err); !ok {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
}

func TestOrderCreate_UnknownReferences(t *testing.T) {
	_, repo := seedStore(t)
	ctx := context.Background()

	draft := draftFor(domain.NewOrderLine{ID: "line-1", ProductID: "product-a", Qty: 1})
	draft.CustomerID = "missing"
	if _, err := repo.Create(ctx, draft); !errors.Is(err, domain.ErrCustomerNotFound) {
		t.Errorf("expected ErrCustomerNotFound, got %v", err)
	}

	if _, err := repo.Create(ctx, draftFor(domain.NewOrderLine{ID: "line-1", ProductID: "missing", Qty: 1})); !errors.Is(err, domain.ErrProductNotFound) {
		t.Errorf("expected ErrProductNotFound, got %v", err)
	}
}

func TestOrderDelete_RestoresStock(t *testing.T) {
	store, repo := seedStore(t)
	ctx := context.Background()

	order, err := repo.Create(ctx, draftFor(
		domain.NewOrderLine{ID: "line-1", ProductID: "product-a", Qty: 2},
		domain.NewOrderLine{ID: "line-2", ProductID: "product-b", Qty: 1},
	))
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	if err := repo.Delete(ctx, order.ID); err != nil {
		t.Fatalf("delete order: %v", err)
	}

	if got := store.products["product-a"].Stock; got != 5 {
		t.Errorf("product-a stock should be restored to 5, got %d", got)
	}
	if got := store.products["product-b"].Stock; got != 5 {
		t.Errorf("product-b stock should be restored to 5, got %d", got)
	}
	if _, err := repo.Get(ctx, order.ID); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Errorf("order must be gone, got %v", err)
	}

	if err := repo.Delete(ctx, order.ID); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Errorf("second delete must report not found, got %v", err)
	}
}

func TestOrderCreate_ConcurrentLastUnit(t *testing.T) {
	store, repo := seedStore(t)
	ctx := context.Background()

	product := store.products["product-a"]
	product.Stock = 1
	store.products["product-a"] = product

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			draft := domain.NewOrder{
				ID:         "order-" + string(rune('a'+n)),
				CustomerID: "customer-1",
				Status:     domain.OrderStatusPending,
				OrderDate:  time.Now().UTC(),
				CreatedAt:  time.Now().UTC(),
				Lines:      []domain.NewOrderLine{{ID: "line-1", ProductID: "product-a", Qty: 1}},
			}
			_, errs[n] = repo.Create(ctx, draft)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		if _, ok := domain.AsInsufficientStock(err); !ok {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("exactly one order must win the last unit, got %d", succeeded)
	}
	if got := store.products["product-a"].Stock; got != 0 {
		t.Errorf("stock should be 0, got %d", got)
	}
}

func TestOrderList_ScopedAndSorted(t *testing.T) {
	store, repo := seedStore(t)
	ctx := context.Background()

	store.customers["customer-2"] = domain.Customer{
		ID: "customer-2", Name: "Bob", Email: "bob@example.com", Phone: "+200",
	}

	base := time.Now().UTC()
	for i, spec := range []struct {
		id       string
		customer string
	}{
		{"order-1", "customer-1"},
		{"order-2", "customer-2"},
		{"order-3", "customer-1"},
	} {
		_, err := repo.Create(ctx, domain.NewOrder{
			ID: spec.id, CustomerID: spec.customer, Status: domain.OrderStatusPending,
			OrderDate: base.Add(time.Duration(i) * time.Minute), CreatedAt: base,
			Lines: []domain.NewOrderLine{{ID: "line-1", ProductID: "product-a", Qty: 1}},
		})
		if err != nil {
			t.Fatalf("create %s: %v", spec.id, err)
		}
	}

	all, err := repo.List(ctx, domain.OrderScope{})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 orders, got %d", len(all))
	}
	if all[0].ID != "order-3" || all[2].ID != "order-1" {
		t.Errorf("orders must be sorted newest first: %s, %s, %s", all[0].ID, all[1].ID, all[2].ID)
	}

	scoped, err := repo.List(ctx, domain.OrderScope{CustomerID: "customer-1"})
	if err != nil {
		t.Fatalf("list scoped: %v", err)
	}
	if len(scoped) != 2 {
		t.Fatalf("expected 2 scoped orders, got %d", len(scoped))
	}
	for _, o := range scoped {
		if o.CustomerID != "customer-1" {
			t.Errorf("foreign order leaked into scope: %+v", o)
		}
	}
}

func TestOrderUpdateStatus(t *testing.T) {
	_, repo := seedStore(t)
	ctx := context.Background()

	order, err := repo.Create(ctx, draftFor(domain.NewOrderLine{ID: "line-1", ProductID: "product-a", Qty: 1}))
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	at := time.Now().UTC().Add(time.Minute)
	updated, err := repo.UpdateStatus(ctx, order.ID, domain.OrderStatusCompleted, at)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if updated.Status != domain.OrderStatusCompleted {
		t.Errorf("expected completed, got %s", updated.Status)
	}
	if !updated.UpdatedAt.Equal(at) {
		t.Errorf("UpdatedAt not stamped: %v", updated.UpdatedAt)
	}
	if updated.AmountMinor != order.AmountMinor {
		t.Errorf("amount must not change on status update")
	}

	if _, err := repo.UpdateStatus(ctx, "missing", domain.OrderStatusCompleted, at); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Errorf("expected ErrOrderNotFound, got %v", err)
	}
}

package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func TestCustomerRepository_EmailUniqueness(t *testing.T) {
	store := NewStore()
	repo := NewCustomerRepository(store)
	ctx := context.Background()

	alice := domain.Customer{ID: "customer-1", Name: "Alice", Email: "alice@example.com", Phone: "+100"}
	if err := repo.Create(ctx, alice); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Регистр email не учитывается.
	dup := domain.Customer{ID: "customer-2", Name: "Bob", Email: "ALICE@example.com", Phone: "+200"}
	if err := repo.Create(ctx, dup); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	bob := domain.Customer{ID: "customer-2", Name: "Bob", Email: "bob@example.com", Phone: "+200"}
	if err := repo.Create(ctx, bob); err != nil {
		t.Fatalf("create bob: %v", err)
	}

	// Update на занятый email тоже отклоняется.
	bob.Email = "alice@example.com"
	if err := repo.Update(ctx, bob); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken on update, got %v", err)
	}

	taken, err := repo.EmailExists(ctx, "alice@example.com", "")
	if err != nil || !taken {
		t.Fatalf("EmailExists should report taken, got %v %v", taken, err)
	}
	taken, err = repo.EmailExists(ctx, "alice@example.com", "customer-1")
	if err != nil || taken {
		t.Fatalf("EmailExists must exclude the owner, got %v %v", taken, err)
	}
}

func TestCustomerRepository_DeleteRestricted(t *testing.T) {
	store := NewStore()
	repo := NewCustomerRepository(store)
	ctx := context.Background()

	if err := repo.Create(ctx, domain.Customer{ID: "customer-1", Name: "Alice", Email: "alice@example.com", Phone: "+100"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	store.orders["order-1"] = domain.Order{ID: "order-1", CustomerID: "customer-1", Status: domain.OrderStatusPending}

	if err := repo.Delete(ctx, "customer-1"); !errors.Is(err, domain.ErrEntityInUse) {
		t.Fatalf("expected ErrEntityInUse, got %v", err)
	}

	delete(store.orders, "order-1")
	if err := repo.Delete(ctx, "customer-1"); err != nil {
		t.Fatalf("delete after orders gone: %v", err)
	}
	if err := repo.Delete(ctx, "customer-1"); !errors.Is(err, domain.ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}
}

func TestProductRepository_DeleteRestricted(t *testing.T) {
	store := NewStore()
	repo := NewProductRepository(store)
	ctx := context.Background()

	if err := repo.Create(ctx, domain.Product{ID: "product-1", Name: "Widget", PriceMinor: 100, Stock: 1}); err != nil {
		t.Fatalf("create: %v", err)
	}

	store.orders["order-1"] = domain.Order{
		ID: "order-1", CustomerID: "customer-1", Status: domain.OrderStatusPending,
		Lines: []domain.OrderLine{{ID: "line-1", OrderID: "order-1", ProductID: "product-1", Qty: 1, PriceMinor: 100, SubtotalMinor: 100}},
	}

	if err := repo.Delete(ctx, "product-1"); !errors.Is(err, domain.ErrEntityInUse) {
		t.Fatalf("expected ErrEntityInUse, got %v", err)
	}

	delete(store.orders, "order-1")
	if err := repo.Delete(ctx, "product-1"); err != nil {
		t.Fatalf("delete after orders gone: %v", err)
	}
}

func TestSessionStore_Expiry(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	live := domain.Session{Token: "token-live", UserID: "user-1", Role: domain.RoleUser, ExpiresAt: time.Now().Add(time.Hour)}
	expired := domain.Session{Token: "token-expired", UserID: "user-2", Role: domain.RoleUser, ExpiresAt: time.Now().Add(-time.Minute)}

	if err := store.Put(ctx, live); err != nil {
		t.Fatalf("put live: %v", err)
	}
	if err := store.Put(ctx, expired); err != nil {
		t.Fatalf("put expired: %v", err)
	}

	got, err := store.Get(ctx, "token-live")
	if err != nil {
		t.Fatalf("get live: %v", err)
	}
	if got.UserID != "user-1" {
		t.Errorf("unexpected session: %+v", got)
	}

	if _, err := store.Get(ctx, "token-expired"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expired token must be rejected, got %v", err)
	}

	if err := store.Delete(ctx, "token-live"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "token-live"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("deleted token must be rejected, got %v", err)
	}
	if err := store.Delete(ctx, "unknown"); err != nil {
		t.Fatalf("deleting unknown token must not fail, got %v", err)
	}
}

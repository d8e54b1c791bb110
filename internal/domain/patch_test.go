package domain

import (
	"errors"
	"testing"
	"time"
)

func strPtr(s string) *string { return &s }
func i64Ptr(v int64) *int64   { return &v }
func i32Ptr(v int32) *int32   { return &v }

func TestCustomerPatchApply(t *testing.T) {
	now := time.Now().UTC()
	base := Customer{
		ID:      "customer-1",
		Name:    "Alice",
		Email:   "alice@example.com",
		Phone:   "+100",
		Address: "Old street 1",
	}

	t.Run("present fields applied", func(t *testing.T) {
		c := base
		patch := CustomerPatch{Name: strPtr("Bob"), Address: strPtr("New street 2")}
		patch.Apply(&c, now)

		if c.Name != "Bob" {
			t.Errorf("name not applied: %q", c.Name)
		}
		if c.Email != base.Email || c.Phone != base.Phone {
			t.Error("absent fields must stay unchanged")
		}
		if c.Address != "New street 2" {
			t.Errorf("address not applied: %q", c.Address)
		}
		if !c.UpdatedAt.Equal(now) {
			t.Error("UpdatedAt must be stamped")
		}
	})

	t.Run("blank required fields ignored", func(t *testing.T) {
		c := base
		patch := CustomerPatch{Name: strPtr("   "), Email: strPtr(""), Phone: strPtr("")}
		patch.Apply(&c, now)

		if c.Name != base.Name || c.Email != base.Email || c.Phone != base.Phone {
			t.Error("blank values for required fields must be ignored")
		}
	})

	t.Run("address can be cleared", func(t *testing.T) {
		c := base
		patch := CustomerPatch{Address: strPtr("")}
		patch.Apply(&c, now)

		if c.Address != "" {
			t.Errorf("address should be cleared, got %q", c.Address)
		}
	})

	t.Run("empty patch still stamps UpdatedAt", func(t *testing.T) {
		c := base
		patch := CustomerPatch{}
		if !patch.Empty() {
			t.Fatal("patch should be empty")
		}
		patch.Apply(&c, now)

		if !c.UpdatedAt.Equal(now) {
			t.Error("UpdatedAt must be stamped even for empty patch")
		}
	})
}

func TestProductPatchApply(t *testing.T) {
	now := time.Now().UTC()
	base := Product{
		ID:          "product-1",
		Name:        "Widget",
		PriceMinor:  1000,
		Description: "old",
		Stock:       5,
	}

	t.Run("stock zero is a valid update", func(t *testing.T) {
		p := base
		patch := ProductPatch{Stock: i32Ptr(0)}
		patch.Apply(&p, now)

		if p.Stock != 0 {
			t.Errorf("stock should become 0, got %d", p.Stock)
		}
	})

	t.Run("numeric fields applied by presence", func(t *testing.T) {
		p := base
		patch := ProductPatch{PriceMinor: i64Ptr(2500)}
		patch.Apply(&p, now)

		if p.PriceMinor != 2500 {
			t.Errorf("price not applied: %d", p.PriceMinor)
		}
		if p.Stock != base.Stock {
			t.Errorf("absent stock must stay unchanged, got %d", p.Stock)
		}
	})

	t.Run("description can be cleared, blank name ignored", func(t *testing.T) {
		p := base
		patch := ProductPatch{Name: strPtr(""), Description: strPtr("")}
		patch.Apply(&p, now)

		if p.Name != base.Name {
			t.Error("blank name must be ignored")
		}
		if p.Description != "" {
			t.Error("description should be cleared")
		}
	})
}

func TestProductPatchValidate(t *testing.T) {
	if err := (ProductPatch{PriceMinor: i64Ptr(-1)}).Validate(); !errors.Is(err, ErrPriceNegative) {
		t.Errorf("expected ErrPriceNegative, got %v", err)
	}
	if err := (ProductPatch{Stock: i32Ptr(-1)}).Validate(); !errors.Is(err, ErrStockNegative) {
		t.Errorf("expected ErrStockNegative, got %v", err)
	}
	if err := (ProductPatch{}).Validate(); err != nil {
		t.Errorf("empty patch must be valid, got %v", err)
	}
}

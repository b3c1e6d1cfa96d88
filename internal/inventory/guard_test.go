package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/EmreUYGUNX/lumi-commerce/pkg/db/models"
	pkgerrors "github.com/EmreUYGUNX/lumi-commerce/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:inventory_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.ProductVariant{}, &models.StockReservation{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedVariant(t *testing.T, db *gorm.DB, stock int) uuid.UUID {
	t.Helper()
	variant := models.ProductVariant{
		ID:        uuid.New(),
		ProductID: uuid.New(),
		SKU:       "SKU-" + uuid.NewString()[:8],
		Title:     "test variant",
		Stock:     stock,
	}
	if err := db.Create(&variant).Error; err != nil {
		t.Fatalf("seed variant: %v", err)
	}
	return variant.ID
}

func variantStock(t *testing.T, db *gorm.DB, id uuid.UUID) int {
	t.Helper()
	var variant models.ProductVariant
	if err := db.First(&variant, "id = ?", id).Error; err != nil {
		t.Fatalf("load variant: %v", err)
	}
	return variant.Stock
}

func TestDecrementGuardsCounter(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	guard := NewGuard()
	variantID := seedVariant(t, db, 5)

	if err := guard.Decrement(ctx, db, variantID, 3, false); err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if got := variantStock(t, db, variantID); got != 2 {
		t.Fatalf("expected stock 2, got %d", got)
	}

	err := guard.Decrement(ctx, db, variantID, 3, false)
	if err == nil {
		t.Fatal("expected conflict when stock insufficient")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("unexpected error: %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected conflict details, got %T", typed.Details())
	}
	if details["available"] != 2 || details["requested"] != 3 {
		t.Fatalf("unexpected details: %+v", details)
	}
	if got := variantStock(t, db, variantID); got != 2 {
		t.Fatalf("rejected decrement must not change stock, got %d", got)
	}
}

func TestDecrementAllowsOverselling(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	guard := NewGuard()
	variantID := seedVariant(t, db, 1)

	if err := guard.Decrement(ctx, db, variantID, 4, true); err != nil {
		t.Fatalf("decrement with oversell: %v", err)
	}
	if got := variantStock(t, db, variantID); got != -3 {
		t.Fatalf("expected stock -3, got %d", got)
	}
}

func TestDecrementRejectsNonPositiveQty(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	guard := NewGuard()
	variantID := seedVariant(t, db, 5)

	err := guard.Decrement(context.Background(), db, variantID, 0, false)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReserveAndReleaseForCart(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	guard := NewGuard()
	cartID := uuid.New()
	variantA := seedVariant(t, db, 10)
	variantB := seedVariant(t, db, 4)

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := guard.Reserve(ctx, tx, cartID, variantA, 2, false); err != nil {
			return err
		}
		return guard.Reserve(ctx, tx, cartID, variantB, 4, false)
	})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if got := variantStock(t, db, variantA); got != 8 {
		t.Fatalf("expected stock 8, got %d", got)
	}
	if got := variantStock(t, db, variantB); got != 0 {
		t.Fatalf("expected stock 0, got %d", got)
	}

	released, err := guard.ReleaseForCart(ctx, db, cartID)
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if released != 2 {
		t.Fatalf("expected 2 reservations released, got %d", released)
	}
	if got := variantStock(t, db, variantA); got != 10 {
		t.Fatalf("expected stock restored to 10, got %d", got)
	}
	if got := variantStock(t, db, variantB); got != 4 {
		t.Fatalf("expected stock restored to 4, got %d", got)
	}

	// Second release is a no-op.
	released, err = guard.ReleaseForCart(ctx, db, cartID)
	if err != nil {
		t.Fatalf("release again: %v", err)
	}
	if released != 0 {
		t.Fatalf("expected no reservations on second release, got %d", released)
	}
	if got := variantStock(t, db, variantA); got != 10 {
		t.Fatalf("stock must not change on repeat release, got %d", got)
	}
}

package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/EmreUYGUNX/lumi-commerce/pkg/db/models"
	pkgerrors "github.com/EmreUYGUNX/lumi-commerce/pkg/errors"
)

// Guard owns every write to the shared stock counters. Callers never compute
// a new stock value in application code; the counter moves through guarded
// UPDATE statements so concurrent checkouts cannot interleave a stale read.
type Guard struct{}

func NewGuard() *Guard {
	return &Guard{}
}

// Decrement takes qty units from the variant counter inside the caller's
// transaction. With allowNegative false the statement only applies when
// enough stock remains; zero rows affected means another buyer got there
// first and the caller receives a conflict carrying the current counter.
func (g *Guard) Decrement(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, qty int, allowNegative bool) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	res := tx.WithContext(ctx).Model(&models.ProductVariant{}).
		Where("id = ? AND (stock >= ? OR ?)", variantID, qty, allowNegative).
		Update("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "decrementing stock")
	}
	if res.RowsAffected == 0 {
		available, err := g.currentStock(ctx, tx, variantID)
		if err != nil {
			return err
		}
		return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").WithDetails(map[string]any{
			"variant_id": variantID.String(),
			"requested":  qty,
			"available":  available,
		})
	}
	return nil
}

// Increment returns qty units to the variant counter.
func (g *Guard) Increment(ctx context.Context, tx *gorm.DB, variantID uuid.UUID, qty int) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	res := tx.WithContext(ctx).Model(&models.ProductVariant{}).
		Where("id = ?", variantID).
		Update("stock", gorm.Expr("stock + ?", qty))
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "incrementing stock")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product variant not found")
	}
	return nil
}

// Reserve decrements the counter and records a reservation row so a later
// cancellation can return exactly what this cart took.
func (g *Guard) Reserve(ctx context.Context, tx *gorm.DB, cartID, variantID uuid.UUID, qty int, allowNegative bool) error {
	if err := g.Decrement(ctx, tx, variantID, qty, allowNegative); err != nil {
		return err
	}
	reservation := models.StockReservation{
		ID:               uuid.New(),
		CartID:           cartID,
		ProductVariantID: variantID,
		Quantity:         qty,
	}
	if err := tx.WithContext(ctx).Create(&reservation).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording stock reservation")
	}
	return nil
}

// ReleaseForCart restocks every outstanding reservation held by the cart and
// marks the rows released. Safe to call twice; released rows are skipped.
func (g *Guard) ReleaseForCart(ctx context.Context, tx *gorm.DB, cartID uuid.UUID) (int, error) {
	if tx == nil {
		return 0, errors.New("transaction required")
	}

	var reservations []models.StockReservation
	if err := tx.WithContext(ctx).
		Where("cart_id = ? AND released_at IS NULL", cartID).
		Find(&reservations).Error; err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading stock reservations")
	}

	released := 0
	now := time.Now()
	for _, reservation := range reservations {
		if err := g.Increment(ctx, tx, reservation.ProductVariantID, reservation.Quantity); err != nil {
			return released, err
		}
		if err := tx.WithContext(ctx).Model(&models.StockReservation{}).
			Where("id = ?", reservation.ID).
			Update("released_at", now).Error; err != nil {
			return released, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marking reservation released")
		}
		released++
	}
	return released, nil
}

func (g *Guard) currentStock(ctx context.Context, tx *gorm.DB, variantID uuid.UUID) (int, error) {
	var variant models.ProductVariant
	err := tx.WithContext(ctx).Select("id", "stock").First(&variant, "id = ?", variantID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, pkgerrors.New(pkgerrors.CodeNotFound, "product variant not found")
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product variant")
	}
	return variant.Stock, nil
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// StockReservation is a short-lived hold taken while a checkout is in flight.
// Releasing a reservation returns its quantity to the variant counter.
type StockReservation struct {
	ID               uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	CartID           uuid.UUID `gorm:"column:cart_id;type:uuid;not null;index"`
	ProductVariantID uuid.UUID `gorm:"column:product_variant_id;type:uuid;not null;index"`
	Quantity         int       `gorm:"column:quantity;not null"`
	ReleasedAt       *time.Time `gorm:"column:released_at"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/EmreUYGUNX/lumi-commerce/pkg/enums"
)

// OrderItem freezes a cart line at checkout. Title and variant data are
// snapshots; they are never recomputed from current catalog state.
type OrderItem struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID          uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID        uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	ProductVariantID uuid.UUID       `gorm:"column:product_variant_id;type:uuid;not null"`
	Quantity         int             `gorm:"column:quantity;not null"`
	UnitPrice        decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Currency         enums.Currency  `gorm:"column:currency;not null;default:'USD'"`
	TitleSnapshot    string          `gorm:"column:title_snapshot;not null"`
	VariantSnapshot  map[string]any  `gorm:"column:variant_snapshot;type:jsonb;serializer:json"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
}

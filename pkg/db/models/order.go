package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/EmreUYGUNX/lumi-commerce/pkg/enums"
)

// Order is the immutable result of checking out a cart. Totals are frozen at
// creation (TotalAmount = SubtotalAmount + TaxAmount - DiscountAmount) and the
// Version column detects concurrent status writes.
type Order struct {
	ID                uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Reference         string            `gorm:"column:reference;not null;uniqueIndex"`
	UserID            uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	CartID            uuid.UUID         `gorm:"column:cart_id;type:uuid;not null"`
	Status            enums.OrderStatus `gorm:"column:status;not null;default:'pending'"`
	SubtotalAmount    decimal.Decimal   `gorm:"column:subtotal_amount;type:numeric(12,2);not null"`
	TaxAmount         decimal.Decimal   `gorm:"column:tax_amount;type:numeric(12,2);not null"`
	DiscountAmount    decimal.Decimal   `gorm:"column:discount_amount;type:numeric(12,2);not null"`
	TotalAmount       decimal.Decimal   `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Currency          enums.Currency    `gorm:"column:currency;not null;default:'USD'"`
	ShippingAddressID *uuid.UUID        `gorm:"column:shipping_address_id;type:uuid"`
	BillingAddressID  *uuid.UUID        `gorm:"column:billing_address_id;type:uuid"`
	Version           int               `gorm:"column:version;not null;default:1"`
	Metadata          map[string]any    `gorm:"column:metadata;type:jsonb;serializer:json"`
	PlacedAt          time.Time         `gorm:"column:placed_at;not null"`
	FulfilledAt       *time.Time        `gorm:"column:fulfilled_at"`
	ShippedAt         *time.Time        `gorm:"column:shipped_at"`
	DeliveredAt       *time.Time        `gorm:"column:delivered_at"`
	CancelledAt       *time.Time        `gorm:"column:cancelled_at"`
	Items             []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payments          []Payment         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

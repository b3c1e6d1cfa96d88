package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/EmreUYGUNX/lumi-commerce/pkg/enums"
)

// Payment records a captured charge against an order. Amount is the captured
// amount refund attempts are validated against.
type Payment struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	Provider    string              `gorm:"column:provider;not null"`
	Status      enums.PaymentStatus `gorm:"column:status;not null;default:'pending'"`
	Amount      decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	Currency    enums.Currency      `gorm:"column:currency;not null;default:'USD'"`
	ProviderRef *string             `gorm:"column:provider_ref"`
	Refunds     []PaymentRefund     `gorm:"foreignKey:PaymentID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

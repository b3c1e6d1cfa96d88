package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/EmreUYGUNX/lumi-commerce/pkg/enums"
)

// PaymentRefund is an append-only history row for a refund attempt, including
// failed gateway calls.
type PaymentRefund struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	PaymentID     uuid.UUID          `gorm:"column:payment_id;type:uuid;not null;index"`
	Amount        decimal.Decimal    `gorm:"column:amount;type:numeric(12,2);not null"`
	Currency      enums.Currency     `gorm:"column:currency;not null;default:'USD'"`
	Type          enums.RefundType   `gorm:"column:type;not null"`
	Status        enums.RefundStatus `gorm:"column:status;not null"`
	Reason        *string            `gorm:"column:reason"`
	GatewayRef    *string            `gorm:"column:gateway_ref"`
	FailureReason *string            `gorm:"column:failure_reason"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/EmreUYGUNX/lumi-commerce/pkg/enums"
)

// ProductVariant is the sellable unit. Stock is a shared counter mutated only
// through atomic increment/decrement statements, never read-modify-write.
type ProductVariant struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	ProductID  uuid.UUID         `gorm:"column:product_id;type:uuid;not null;index"`
	SKU        string            `gorm:"column:sku;not null;uniqueIndex"`
	Title      string            `gorm:"column:title;not null"`
	Price      decimal.Decimal   `gorm:"column:price;type:numeric(12,2);not null"`
	Currency   enums.Currency    `gorm:"column:currency;not null;default:'USD'"`
	Stock      int               `gorm:"column:stock;not null;default:0"`
	Attributes map[string]string `gorm:"column:attributes;type:jsonb;serializer:json"`
	Product    *Product          `gorm:"foreignKey:ProductID"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

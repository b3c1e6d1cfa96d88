package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/EmreUYGUNX/lumi-commerce/pkg/enums"
)

// Product groups purchasable variants and carries the inventory policy that
// decides whether its variants may oversell.
type Product struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	Title           string                `gorm:"column:title;not null"`
	Status          enums.ProductStatus   `gorm:"column:status;not null;default:'draft'"`
	InventoryPolicy enums.InventoryPolicy `gorm:"column:inventory_policy;not null;default:'deny'"`
	Variants        []ProductVariant      `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

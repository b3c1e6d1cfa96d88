package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/EmreUYGUNX/lumi-commerce/pkg/enums"
)

// Cart is the mutable aggregate root a buyer fills before checkout. A cart is
// owned by an authenticated user, an anonymous session, or both after a merge
// reassignment.
type Cart struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	UserID    *uuid.UUID       `gorm:"column:user_id;type:uuid;index"`
	SessionID *string          `gorm:"column:session_id;index"`
	Status    enums.CartStatus `gorm:"column:status;not null;default:'active'"`
	ExpiresAt time.Time        `gorm:"column:expires_at;not null;index"`
	Items     []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

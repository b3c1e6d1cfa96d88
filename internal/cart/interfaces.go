package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/EmreUYGUNX/lumi-commerce/pkg/db/models"
	"github.com/EmreUYGUNX/lumi-commerce/pkg/enums"
)

// Repository defines persistence operations for cart tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, cart *models.Cart) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Cart, error)
	FindActiveByOwner(ctx context.Context, owner Owner) (*models.Cart, error)
	FindItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error)
	FindItemByVariant(ctx context.Context, cartID, variantID uuid.UUID) (*models.CartItem, error)
	CreateItem(ctx context.Context, item *models.CartItem) error
	UpdateItem(ctx context.Context, itemID uuid.UUID, updates map[string]any) error
	DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) error
	DeleteItems(ctx context.Context, cartID uuid.UUID) error
	UpdateCart(ctx context.Context, cartID uuid.UUID, updates map[string]any) error
	UpdateStatus(ctx context.Context, cartID uuid.UUID, status enums.CartStatus) error
	ListExpired(ctx context.Context, cutoff time.Time, limit int) ([]models.Cart, error)
}

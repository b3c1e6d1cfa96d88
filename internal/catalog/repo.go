package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/EmreUYGUNX/lumi-commerce/pkg/db/models"
	pkgerrors "github.com/EmreUYGUNX/lumi-commerce/pkg/errors"
)

// Repository reads catalog state for cart and checkout flows. Stock values it
// returns are advisory snapshots; authoritative checks happen in the guarded
// counter updates.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the supplied transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindVariantByID loads a variant with its product for policy and status checks.
func (r *Repository) FindVariantByID(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	err := r.db.WithContext(ctx).
		Preload("Product").
		First(&variant, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product variant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product variant")
	}
	return &variant, nil
}

// FindVariantsByIDs loads the requested variants keyed by ID. Missing IDs are
// simply absent from the result; callers decide how to report them.
func (r *Repository) FindVariantsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.ProductVariant, error) {
	result := make(map[uuid.UUID]*models.ProductVariant, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var variants []models.ProductVariant
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("id IN ?", ids).
		Find(&variants).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product variants")
	}
	for i := range variants {
		variant := variants[i]
		result[variant.ID] = &variant
	}
	return result, nil
}

package cart

import "github.com/google/uuid"

// AddItemRequest adds a variant to the active cart.
type AddItemRequest struct {
	VariantID uuid.UUID `json:"variant_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

// UpdateItemRequest sets an absolute line quantity. Zero removes the line.
type UpdateItemRequest struct {
	Quantity int `json:"quantity" validate:"min=0"`
}

// MergeRequest folds a guest session cart into the caller's cart.
type MergeRequest struct {
	SessionID string `json:"session_id" validate:"required"`
	Strategy  string `json:"strategy" validate:"omitempty,oneof=sum replace"`
}

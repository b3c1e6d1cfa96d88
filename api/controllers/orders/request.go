package orders

import (
	"github.com/google/uuid"

	"github.com/EmreUYGUNX/lumi-commerce/pkg/db/models"
)

// CreateOrderRequest checks out the caller's active cart.
type CreateOrderRequest struct {
	SessionID         *string        `json:"session_id,omitempty"`
	ShippingAddressID *uuid.UUID     `json:"shipping_address_id,omitempty"`
	BillingAddressID  *uuid.UUID     `json:"billing_address_id,omitempty"`
	PaymentToken      string         `json:"payment_token,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty"`
}

// CancelOrderRequest cancels an order with an optional reason.
type CancelOrderRequest struct {
	Reason string `json:"reason,omitempty" validate:"max=500"`
}

// UpdateStatusRequest advances the order lifecycle. Tracking fields are
// merged into the order metadata.
type UpdateStatusRequest struct {
	Status          string           `json:"status" validate:"required"`
	ExpectedVersion *int             `json:"expected_version,omitempty"`
	Tracking        *TrackingRequest `json:"tracking,omitempty"`
}

// TrackingRequest carries shipment tracking details on a status update.
type TrackingRequest struct {
	Number            string `json:"number,omitempty"`
	URL               string `json:"url,omitempty"`
	Carrier           string `json:"carrier,omitempty"`
	EstimatedDelivery string `json:"estimated_delivery,omitempty"`
}

// RefundRequest issues a refund; an empty amount refunds the full order
// total, and an empty payment id targets the captured payment.
type RefundRequest struct {
	PaymentID *uuid.UUID `json:"payment_id,omitempty"`
	Amount    string     `json:"amount,omitempty"`
	Type      string     `json:"type,omitempty"`
	Reason    string     `json:"reason,omitempty" validate:"max=500"`
}

// AddNoteRequest appends an internal note.
type AddNoteRequest struct {
	Note string `json:"note" validate:"required,max=2000"`
}

// ListResponse is one page of the caller's orders.
type ListResponse struct {
	Orders     []models.Order `json:"orders"`
	NextCursor *string        `json:"next_cursor,omitempty"`
}

package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/EmreUYGUNX/lumi-commerce/pkg/db/models"
	"github.com/EmreUYGUNX/lumi-commerce/pkg/enums"
)

// CreateOrderInput converts the caller's active cart into an order. The
// session ID covers carts that were filled before login and merged.
type CreateOrderInput struct {
	UserID            uuid.UUID
	SessionID         *string
	ShippingAddressID *uuid.UUID
	BillingAddressID  *uuid.UUID
	PaymentToken      string
	Metadata          map[string]any
}

// CancelOrderInput cancels an order, refunding captured payments and
// restocking reserved inventory.
type CancelOrderInput struct {
	OrderID     uuid.UUID
	ActorUserID uuid.UUID
	ActorRole   string
	Reason      string
}

// UpdateStatusInput advances the order lifecycle. ExpectedVersion enables
// compare-and-swap semantics for callers that read before writing; when nil
// the current stored version is used.
type UpdateStatusInput struct {
	OrderID         uuid.UUID
	Status          enums.OrderStatus
	ExpectedVersion *int
	Tracking        *TrackingInfo
	ActorUserID     uuid.UUID
	ActorRole       string
}

// TrackingInfo is shipment metadata merged into the order on status updates.
type TrackingInfo struct {
	Number            string `json:"number,omitempty"`
	URL               string `json:"url,omitempty"`
	Carrier           string `json:"carrier,omitempty"`
	EstimatedDelivery string `json:"estimated_delivery,omitempty"`
}

func (t *TrackingInfo) asMetadata() map[string]any {
	out := map[string]any{}
	if t.Number != "" {
		out["number"] = t.Number
	}
	if t.URL != "" {
		out["url"] = t.URL
	}
	if t.Carrier != "" {
		out["carrier"] = t.Carrier
	}
	if t.EstimatedDelivery != "" {
		out["estimated_delivery"] = t.EstimatedDelivery
	}
	return out
}

// RefundInput processes a refund against one of an order's payments. A zero
// amount refunds the full order total; a nil PaymentID targets the first
// captured payment. Type, when set, asserts the expected classification.
type RefundInput struct {
	OrderID     uuid.UUID
	PaymentID   *uuid.UUID
	Amount      decimal.Decimal
	Type        enums.RefundType
	Reason      string
	ActorUserID uuid.UUID
	ActorRole   string
}

// AddNoteInput appends a back-office note to the order metadata.
type AddNoteInput struct {
	OrderID     uuid.UUID
	Note        string
	ActorUserID uuid.UUID
}

// ListFilters narrows an order listing.
type ListFilters struct {
	Status *enums.OrderStatus
}

// OrderList is one page of a cursor-paginated listing.
type OrderList struct {
	Orders     []models.Order
	NextCursor *string
}

// TimelineEntry is one reached lifecycle stage in a tracking projection.
type TimelineEntry struct {
	Status enums.OrderStatus `json:"status"`
	At     time.Time         `json:"at"`
}

// TrackView is the public tracking projection looked up by reference. The
// timeline lists reached stages in order; LastUpdateAt is the timestamp of
// the latest one, so callers get a freshness signal even before any shipment
// metadata exists.
type TrackView struct {
	Reference    string            `json:"reference"`
	Status       enums.OrderStatus `json:"status"`
	PlacedAt     time.Time         `json:"placed_at"`
	FulfilledAt  *time.Time        `json:"fulfilled_at,omitempty"`
	ShippedAt    *time.Time        `json:"shipped_at,omitempty"`
	DeliveredAt  *time.Time        `json:"delivered_at,omitempty"`
	CancelledAt  *time.Time        `json:"cancelled_at,omitempty"`
	Timeline     []TimelineEntry   `json:"timeline"`
	LastUpdateAt time.Time         `json:"last_update_at"`
	Tracking     *TrackingInfo     `json:"tracking,omitempty"`
}

// OrderCreatedEvent is emitted when checkout converts a cart.
type OrderCreatedEvent struct {
	OrderID   uuid.UUID       `json:"order_id"`
	Reference string          `json:"reference"`
	CartID    uuid.UUID       `json:"cart_id"`
	UserID    uuid.UUID       `json:"user_id"`
	Total     decimal.Decimal `json:"total"`
	Currency  enums.Currency  `json:"currency"`
	ItemCount int             `json:"item_count"`
}

// OrderStatusEvent is emitted for every lifecycle transition.
type OrderStatusEvent struct {
	OrderID   uuid.UUID         `json:"order_id"`
	Reference string            `json:"reference"`
	From      enums.OrderStatus `json:"from"`
	To        enums.OrderStatus `json:"to"`
}

// OrderCancelledEvent is emitted when an order is cancelled.
type OrderCancelledEvent struct {
	OrderID        uuid.UUID `json:"order_id"`
	Reference      string    `json:"reference"`
	Reason         string    `json:"reason,omitempty"`
	RestockedLines int       `json:"restocked_lines"`
	Refunded       bool      `json:"refunded"`
}

// OrderRefundedEvent is emitted when a refund attempt is persisted.
type OrderRefundedEvent struct {
	OrderID   uuid.UUID          `json:"order_id"`
	Reference string             `json:"reference"`
	RefundID  uuid.UUID          `json:"refund_id"`
	Amount    decimal.Decimal    `json:"amount"`
	Type      enums.RefundType   `json:"type"`
	Status    enums.RefundStatus `json:"status"`
}

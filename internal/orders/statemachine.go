package orders

import (
	"github.com/EmreUYGUNX/lumi-commerce/pkg/enums"
	pkgerrors "github.com/EmreUYGUNX/lumi-commerce/pkg/errors"
)

// orderTransitions is the full lifecycle table. Forward progress is linear;
// cancellation is reachable from every non-terminal status.
var orderTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:   {enums.OrderStatusPaid, enums.OrderStatusCancelled},
	enums.OrderStatusPaid:      {enums.OrderStatusFulfilled, enums.OrderStatusCancelled},
	enums.OrderStatusFulfilled: {enums.OrderStatusShipped, enums.OrderStatusCancelled},
	enums.OrderStatusShipped:   {enums.OrderStatusDelivered, enums.OrderStatusCancelled},
	enums.OrderStatusDelivered: {},
	enums.OrderStatusCancelled: {},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, candidate := range orderTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// checkTransition converts a disallowed move into a state-conflict error the
// API layer can surface.
func checkTransition(from, to enums.OrderStatus) error {
	if !to.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown order status").WithDetails(map[string]any{
			"status": to.String(),
		})
	}
	if !CanTransition(from, to) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order status transition not allowed").WithDetails(map[string]any{
			"from": from.String(),
			"to":   to.String(),
		})
	}
	return nil
}

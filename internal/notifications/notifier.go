package notifications

import (
	"context"

	"github.com/google/uuid"

	"github.com/EmreUYGUNX/lumi-commerce/pkg/logger"
)

// Notifier delivers customer-facing messages triggered by commerce events.
type Notifier interface {
	CartAbandoned(ctx context.Context, email string, cartID uuid.UUID) error
	OrderStatusChanged(ctx context.Context, email string, orderRef, status string) error
}

// LogNotifier writes notifications to the structured log. It stands in for a
// real delivery channel until one is wired.
type LogNotifier struct {
	logg *logger.Logger
}

func NewLogNotifier(logg *logger.Logger) *LogNotifier {
	return &LogNotifier{logg: logg}
}

func (n *LogNotifier) CartAbandoned(ctx context.Context, email string, cartID uuid.UUID) error {
	if n.logg != nil {
		logCtx := n.logg.WithFields(ctx, map[string]any{
			"notification": "cart_abandoned",
			"email":        email,
			"cart_id":      cartID.String(),
		})
		n.logg.Info(logCtx, "notification queued")
	}
	return nil
}

func (n *LogNotifier) OrderStatusChanged(ctx context.Context, email string, orderRef, status string) error {
	if n.logg != nil {
		logCtx := n.logg.WithFields(ctx, map[string]any{
			"notification": "order_status_changed",
			"email":        email,
			"order_ref":    orderRef,
			"status":       status,
		})
		n.logg.Info(logCtx, "notification queued")
	}
	return nil
}

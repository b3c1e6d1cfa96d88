package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/EmreUYGUNX/lumi-commerce/pkg/db/models"
	"github.com/EmreUYGUNX/lumi-commerce/pkg/logger"
)

type cartSweeper interface {
	CleanupExpiredCarts(ctx context.Context) ([]models.Cart, error)
}

type userReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type abandonedNotifier interface {
	CartAbandoned(ctx context.Context, email string, cartID uuid.UUID) error
}

// CartSweepJobParams configure the expired-cart sweep.
type CartSweepJobParams struct {
	Logger   *logger.Logger
	Carts    cartSweeper
	Users    userReader
	Notifier abandonedNotifier
}

// NewCartSweepJob builds the job that abandons expired carts and notifies
// their owners. Notification failures never fail the sweep.
func NewCartSweepJob(params CartSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user reader required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	return &cartSweepJob{
		logg:     params.Logger,
		carts:    params.Carts,
		users:    params.Users,
		notifier: params.Notifier,
	}, nil
}

type cartSweepJob struct {
	logg     *logger.Logger
	carts    cartSweeper
	users    userReader
	notifier abandonedNotifier
}

func (j *cartSweepJob) Name() string { return "cart-sweep" }

func (j *cartSweepJob) Run(ctx context.Context) error {
	abandoned, err := j.carts.CleanupExpiredCarts(ctx)
	if err != nil {
		return fmt.Errorf("sweep expired carts: %w", err)
	}

	notified := 0
	for _, cart := range abandoned {
		if cart.UserID == nil {
			continue
		}
		if j.notifyOwner(ctx, cart) {
			notified++
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"abandoned": len(abandoned),
		"notified":  notified,
	})
	j.logg.Info(logCtx, "cart sweep complete")
	return nil
}

func (j *cartSweepJob) notifyOwner(ctx context.Context, cart models.Cart) bool {
	logCtx := j.logg.WithField(ctx, "cart_id", cart.ID.String())
	user, err := j.users.FindByID(ctx, *cart.UserID)
	if err != nil {
		j.logg.Warn(j.logg.WithField(logCtx, "error", err.Error()), "skipping abandoned-cart notification; owner lookup failed")
		return false
	}
	if err := j.notifier.CartAbandoned(ctx, user.Email, cart.ID); err != nil {
		j.logg.Warn(j.logg.WithField(logCtx, "error", err.Error()), "abandoned-cart notification failed")
		return false
	}
	return true
}

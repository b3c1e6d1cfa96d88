package cache

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/google/uuid"

	"github.com/EmreUYGUNX/lumi-commerce/pkg/logger"
)

const (
	// ScopeUser namespaces views looked up by authenticated user ID.
	ScopeUser = "user"
	// ScopeSession namespaces views looked up by anonymous session ID.
	ScopeSession = "session"

	refScope = "ref"
)

// Store is the narrow redis surface the cache needs.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartViewKey(scope, id string) string
}

// CartViewCache keeps serialized cart views in redis so repeated reads skip
// the database. Every cart mutation must write through or invalidate; the TTL
// is only a backstop against missed invalidations.
type CartViewCache struct {
	store Store
	ttl   time.Duration
	logg  *logger.Logger
}

func NewCartViewCache(store Store, ttl time.Duration, logg *logger.Logger) *CartViewCache {
	return &CartViewCache{store: store, ttl: ttl, logg: logg}
}

// Get returns the cached payload for the owner scope, or false on miss.
// Redis failures degrade to a miss so reads fall back to the database.
func (c *CartViewCache) Get(ctx context.Context, scope, ownerID string) ([]byte, bool) {
	if c == nil || c.store == nil {
		return nil, false
	}
	raw, err := c.store.Get(ctx, c.store.CartViewKey(scope, ownerID))
	if err != nil {
		if !errors.Is(err, goredis.Nil) && c.logg != nil {
			c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "cart view cache read failed")
		}
		return nil, false
	}
	return []byte(raw), true
}

// Put stores the payload under the owner scope and records a reverse reference
// so background jobs can invalidate by cart ID alone.
func (c *CartViewCache) Put(ctx context.Context, scope, ownerID string, cartID uuid.UUID, payload []byte) {
	if c == nil || c.store == nil {
		return
	}
	key := c.store.CartViewKey(scope, ownerID)
	if err := c.store.Set(ctx, key, payload, c.ttl); err != nil {
		if c.logg != nil {
			c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "cart view cache write failed")
		}
		return
	}
	refKey := c.store.CartViewKey(refScope, cartID.String())
	if err := c.store.Set(ctx, refKey, key, c.ttl); err != nil && c.logg != nil {
		c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "cart view cache ref write failed")
	}
}

// Invalidate drops the view for a known owner scope.
func (c *CartViewCache) Invalidate(ctx context.Context, scope, ownerID string) {
	if c == nil || c.store == nil {
		return
	}
	if err := c.store.Del(ctx, c.store.CartViewKey(scope, ownerID)); err != nil && c.logg != nil {
		c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "cart view cache invalidate failed")
	}
}

// InvalidateByCartID follows the reverse reference written by Put. Used by
// jobs that only know the cart row, such as the expiry sweep.
func (c *CartViewCache) InvalidateByCartID(ctx context.Context, cartID uuid.UUID) {
	if c == nil || c.store == nil {
		return
	}
	refKey := c.store.CartViewKey(refScope, cartID.String())
	viewKey, err := c.store.Get(ctx, refKey)
	if err != nil {
		if !errors.Is(err, goredis.Nil) && c.logg != nil {
			c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "cart view cache ref read failed")
		}
		return
	}
	if err := c.store.Del(ctx, viewKey, refKey); err != nil && c.logg != nil {
		c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "cart view cache invalidate failed")
	}
}

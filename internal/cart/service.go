package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/EmreUYGUNX/lumi-commerce/pkg/config"
	dbpkg "github.com/EmreUYGUNX/lumi-commerce/pkg/db"
	"github.com/EmreUYGUNX/lumi-commerce/pkg/db/models"
	"github.com/EmreUYGUNX/lumi-commerce/pkg/enums"
	pkgerrors "github.com/EmreUYGUNX/lumi-commerce/pkg/errors"
	"github.com/EmreUYGUNX/lumi-commerce/pkg/logger"
	"github.com/EmreUYGUNX/lumi-commerce/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type variantLoader interface {
	FindVariantByID(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error)
	FindVariantsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.ProductVariant, error)
}

type viewCache interface {
	Get(ctx context.Context, scope, ownerID string) ([]byte, bool)
	Put(ctx context.Context, scope, ownerID string, cartID uuid.UUID, payload []byte)
	Invalidate(ctx context.Context, scope, ownerID string)
	InvalidateByCartID(ctx context.Context, cartID uuid.UUID)
}

// MergeStrategy decides how overlapping lines combine when a guest cart is
// merged into a user cart.
type MergeStrategy string

const (
	MergeStrategySum     MergeStrategy = "sum"
	MergeStrategyReplace MergeStrategy = "replace"
)

// AddItemInput carries the data required to add a variant to a cart.
type AddItemInput struct {
	Owner     Owner
	VariantID uuid.UUID
	Quantity  int
}

// UpdateItemInput sets an absolute quantity for an existing line. Zero removes it.
type UpdateItemInput struct {
	Owner    Owner
	ItemID   uuid.UUID
	Quantity int
}

// MergeInput merges the session cart into the user cart at login.
type MergeInput struct {
	UserID    uuid.UUID
	SessionID string
	Strategy  MergeStrategy
}

// ItemEvent is emitted for line-level cart mutations. PreviousQuantity and
// NextQuantity record the line quantity before and after the mutation so
// consumers can compute the delta without replaying history.
type ItemEvent struct {
	CartID           uuid.UUID       `json:"cart_id"`
	ItemID           uuid.UUID       `json:"item_id"`
	VariantID        uuid.UUID       `json:"variant_id"`
	Quantity         int             `json:"quantity"`
	PreviousQuantity int             `json:"previous_quantity"`
	NextQuantity     int             `json:"next_quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
}

// ClearedEvent is emitted when a cart is emptied in one operation.
type ClearedEvent struct {
	CartID       uuid.UUID `json:"cart_id"`
	RemovedItems int       `json:"removed_items"`
}

// ClearResult reports how many lines a clear removed alongside the emptied
// cart view.
type ClearResult struct {
	RemovedItems int   `json:"removed_items"`
	Cart         *View `json:"cart"`
}

// MergedEvent is emitted when a session cart folds into a user cart.
type MergedEvent struct {
	SourceCartID uuid.UUID     `json:"source_cart_id"`
	TargetCartID uuid.UUID     `json:"target_cart_id"`
	Strategy     MergeStrategy `json:"strategy"`
}

// AbandonedEvent is emitted when the sweep closes an expired cart.
type AbandonedEvent struct {
	CartID uuid.UUID  `json:"cart_id"`
	UserID *uuid.UUID `json:"user_id,omitempty"`
}

// Service defines cart operations above the repository.
type Service interface {
	GetOrCreateActiveCart(ctx context.Context, owner Owner) (*models.Cart, error)
	GetCart(ctx context.Context, owner Owner) (*View, error)
	AddItem(ctx context.Context, input AddItemInput) (*View, error)
	UpdateItem(ctx context.Context, input UpdateItemInput) (*View, error)
	RemoveItem(ctx context.Context, owner Owner, itemID uuid.UUID) (*View, error)
	ClearCart(ctx context.Context, owner Owner) (*ClearResult, error)
	ValidateCart(ctx context.Context, owner Owner) (*Report, error)
	MergeCarts(ctx context.Context, input MergeInput) (*View, error)
	CleanupExpiredCarts(ctx context.Context) ([]models.Cart, error)
}

type service struct {
	repo    Repository
	catalog variantLoader
	tx      txRunner
	outbox  outboxPublisher
	cache   viewCache
	cfg     config.CartConfig
	logg    *logger.Logger
}

// NewService builds a cart service with the required dependencies.
func NewService(repo Repository, catalog variantLoader, tx txRunner, publisher outboxPublisher, cache viewCache, cfg config.CartConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog loader required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if cfg.MaxItemQuantity <= 0 {
		cfg.MaxItemQuantity = 100
	}
	if cfg.ExpiryWindow <= 0 {
		cfg.ExpiryWindow = 30 * 24 * time.Hour
	}
	return &service{
		repo:    repo,
		catalog: catalog,
		tx:      tx,
		outbox:  publisher,
		cache:   cache,
		cfg:     cfg,
		logg:    logg,
	}, nil
}

func (s *service) GetOrCreateActiveCart(ctx context.Context, owner Owner) (*models.Cart, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindActiveByOwner(ctx, owner)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active cart")
	}

	fresh := &models.Cart{
		ID:        uuid.New(),
		UserID:    owner.UserID,
		SessionID: owner.SessionID,
		Status:    enums.CartStatusActive,
		ExpiresAt: time.Now().Add(s.cfg.ExpiryWindow),
	}
	if err := s.repo.Create(ctx, fresh); err != nil {
		// A concurrent request created the cart first; the partial unique
		// index on active owners rejects the second insert.
		if dbpkg.IsUniqueViolation(err, ActiveUserConstraint) || dbpkg.IsUniqueViolation(err, ActiveSessionConstraint) {
			winner, findErr := s.repo.FindActiveByOwner(ctx, owner)
			if findErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "load active cart after create race")
			}
			return winner, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create cart")
	}
	fresh.Items = nil
	return fresh, nil
}

func (s *service) GetCart(ctx context.Context, owner Owner) (*View, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	scope, key := owner.CacheScope()
	if s.cache != nil {
		if raw, ok := s.cache.Get(ctx, scope, key); ok {
			var view View
			if err := json.Unmarshal(raw, &view); err == nil {
				return &view, nil
			}
			s.cache.Invalidate(ctx, scope, key)
		}
	}

	cart, err := s.GetOrCreateActiveCart(ctx, owner)
	if err != nil {
		return nil, err
	}
	view, err := s.buildValidatedView(ctx, cart)
	if err != nil {
		return nil, err
	}
	s.storeView(ctx, scope, key, cart.ID, view)
	return view, nil
}

func (s *service) AddItem(ctx context.Context, input AddItemInput) (*View, error) {
	view, err := s.addItemOnce(ctx, input)
	if err != nil && dbpkg.IsUniqueViolation(err, "idx_cart_items_cart_variant") {
		// Two concurrent adds of the same variant raced past the upsert
		// lookup; the second attempt lands on the existing line.
		return s.addItemOnce(ctx, input)
	}
	return view, err
}

func (s *service) addItemOnce(ctx context.Context, input AddItemInput) (*View, error) {
	if err := input.Owner.Validate(); err != nil {
		return nil, err
	}
	if input.VariantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant id required")
	}
	if err := s.checkQuantity(input.Quantity); err != nil {
		return nil, err
	}

	variant, err := s.catalog.FindVariantByID(ctx, input.VariantID)
	if err != nil {
		return nil, err
	}
	if err := checkPurchasable(variant); err != nil {
		return nil, err
	}

	cart, err := s.GetOrCreateActiveCart(ctx, input.Owner)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		existing, findErr := repo.FindItemByVariant(ctx, cart.ID, input.VariantID)
		if findErr != nil && !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "load cart line")
		}

		previous := 0
		if existing != nil {
			previous = existing.Quantity
		}
		requested := previous + input.Quantity
		if requested > s.cfg.MaxItemQuantity {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity exceeds per-line maximum").WithDetails(map[string]any{
				"max_quantity": s.cfg.MaxItemQuantity,
				"requested":    requested,
			})
		}
		if err := checkAvailability(variant, requested); err != nil {
			return err
		}

		var itemID uuid.UUID
		if existing == nil {
			item := &models.CartItem{
				ID:               uuid.New(),
				CartID:           cart.ID,
				ProductVariantID: variant.ID,
				Quantity:         input.Quantity,
				UnitPrice:        variant.Price,
				Currency:         variant.Currency,
			}
			if createErr := repo.CreateItem(ctx, item); createErr != nil {
				return createErr
			}
			itemID = item.ID
		} else {
			itemID = existing.ID
			if updateErr := repo.UpdateItem(ctx, existing.ID, map[string]any{
				"quantity":   requested,
				"unit_price": variant.Price,
			}); updateErr != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, updateErr, "update cart line")
			}
		}

		if err := s.extendExpiry(ctx, repo, cart.ID); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCartItemAdded,
			AggregateType: enums.AggregateCart,
			AggregateID:   cart.ID,
			Actor:         buildActor(input.Owner),
			Data: ItemEvent{
				CartID:           cart.ID,
				ItemID:           itemID,
				VariantID:        variant.ID,
				Quantity:         input.Quantity,
				PreviousQuantity: previous,
				NextQuantity:     requested,
				UnitPrice:        variant.Price,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return s.refreshView(ctx, input.Owner, cart.ID)
}

func (s *service) UpdateItem(ctx context.Context, input UpdateItemInput) (*View, error) {
	if err := input.Owner.Validate(); err != nil {
		return nil, err
	}
	if input.ItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}
	if input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}
	if input.Quantity == 0 {
		return s.RemoveItem(ctx, input.Owner, input.ItemID)
	}
	if err := s.checkQuantity(input.Quantity); err != nil {
		return nil, err
	}

	cart, err := s.requireActiveCart(ctx, input.Owner)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.FindItem(ctx, cart.ID, input.ItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}

	variant, err := s.catalog.FindVariantByID(ctx, item.ProductVariantID)
	if err != nil {
		return nil, err
	}
	if err := checkPurchasable(variant); err != nil {
		return nil, err
	}
	if err := checkAvailability(variant, input.Quantity); err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if updateErr := repo.UpdateItem(ctx, item.ID, map[string]any{
			"quantity":   input.Quantity,
			"unit_price": variant.Price,
		}); updateErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, updateErr, "update cart line")
		}
		if err := s.extendExpiry(ctx, repo, cart.ID); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCartItemUpdated,
			AggregateType: enums.AggregateCart,
			AggregateID:   cart.ID,
			Actor:         buildActor(input.Owner),
			Data: ItemEvent{
				CartID:           cart.ID,
				ItemID:           item.ID,
				VariantID:        item.ProductVariantID,
				Quantity:         input.Quantity,
				PreviousQuantity: item.Quantity,
				NextQuantity:     input.Quantity,
				UnitPrice:        variant.Price,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return s.refreshView(ctx, input.Owner, cart.ID)
}

func (s *service) RemoveItem(ctx context.Context, owner Owner, itemID uuid.UUID) (*View, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item id required")
	}

	cart, err := s.requireActiveCart(ctx, owner)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.FindItem(ctx, cart.ID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if delErr := repo.DeleteItem(ctx, cart.ID, item.ID); delErr != nil {
			if errors.Is(delErr, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, delErr, "delete cart line")
		}
		if err := s.extendExpiry(ctx, repo, cart.ID); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCartItemRemoved,
			AggregateType: enums.AggregateCart,
			AggregateID:   cart.ID,
			Actor:         buildActor(owner),
			Data: ItemEvent{
				CartID:           cart.ID,
				ItemID:           item.ID,
				VariantID:        item.ProductVariantID,
				PreviousQuantity: item.Quantity,
				NextQuantity:     0,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return s.refreshView(ctx, owner, cart.ID)
}

func (s *service) ClearCart(ctx context.Context, owner Owner) (*ClearResult, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	cart, err := s.requireActiveCart(ctx, owner)
	if err != nil {
		return nil, err
	}

	removed := len(cart.Items)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if delErr := repo.DeleteItems(ctx, cart.ID); delErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, delErr, "clear cart lines")
		}
		if err := s.extendExpiry(ctx, repo, cart.ID); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCartCleared,
			AggregateType: enums.AggregateCart,
			AggregateID:   cart.ID,
			Actor:         buildActor(owner),
			Data:          ClearedEvent{CartID: cart.ID, RemovedItems: removed},
		})
	})
	if err != nil {
		return nil, err
	}
	view, err := s.refreshView(ctx, owner, cart.ID)
	if err != nil {
		return nil, err
	}
	return &ClearResult{RemovedItems: removed, Cart: view}, nil
}

func (s *service) ValidateCart(ctx context.Context, owner Owner) (*Report, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	cart, err := s.requireActiveCart(ctx, owner)
	if err != nil {
		return nil, err
	}
	variants, err := s.loadVariants(ctx, cart)
	if err != nil {
		return nil, err
	}
	return buildReport(cart, variants), nil
}

func (s *service) MergeCarts(ctx context.Context, input MergeInput) (*View, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if input.SessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	strategy := input.Strategy
	if strategy == "" {
		strategy = MergeStrategySum
	}
	if strategy != MergeStrategySum && strategy != MergeStrategyReplace {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown merge strategy").WithDetails(map[string]any{
			"strategy": string(input.Strategy),
		})
	}

	userOwner := OwnerForUser(input.UserID)

	guest, err := s.repo.FindActiveByOwner(ctx, OwnerForSession(input.SessionID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Nothing to merge; hand back the user cart.
			return s.GetCart(ctx, userOwner)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session cart")
	}

	userCart, err := s.repo.FindActiveByOwner(ctx, userOwner)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user cart")
	}

	var targetID uuid.UUID
	if userCart == nil {
		// The guest cart becomes the user cart in place.
		targetID = guest.ID
		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			if updateErr := repo.UpdateCart(ctx, guest.ID, map[string]any{
				"user_id":    input.UserID,
				"expires_at": time.Now().Add(s.cfg.ExpiryWindow),
			}); updateErr != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, updateErr, "reassign session cart")
			}
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventCartMerged,
				AggregateType: enums.AggregateCart,
				AggregateID:   guest.ID,
				Actor:         buildActor(userOwner),
				Data:          MergedEvent{SourceCartID: guest.ID, TargetCartID: guest.ID, Strategy: strategy},
			})
		})
	} else {
		targetID = userCart.ID
		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			if mergeErr := s.mergeLines(ctx, repo, guest, userCart, strategy); mergeErr != nil {
				return mergeErr
			}
			if delErr := repo.DeleteItems(ctx, guest.ID); delErr != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, delErr, "drain session cart lines")
			}
			if statusErr := repo.UpdateStatus(ctx, guest.ID, enums.CartStatusAbandoned); statusErr != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, statusErr, "close session cart")
			}
			if err := s.extendExpiry(ctx, repo, userCart.ID); err != nil {
				return err
			}
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventCartMerged,
				AggregateType: enums.AggregateCart,
				AggregateID:   userCart.ID,
				Actor:         buildActor(userOwner),
				Data:          MergedEvent{SourceCartID: guest.ID, TargetCartID: userCart.ID, Strategy: strategy},
			})
		})
	}
	if err != nil {
		return nil, err
	}

	s.invalidateCart(ctx, guest)
	if userCart != nil {
		s.invalidateCart(ctx, userCart)
	}
	return s.refreshView(ctx, userOwner, targetID)
}

// mergeLines folds guest lines into the user cart. Sum adds quantities, replace
// takes the guest quantity; both clamp to the per-line maximum.
func (s *service) mergeLines(ctx context.Context, repo Repository, guest, target *models.Cart, strategy MergeStrategy) error {
	for _, guestItem := range guest.Items {
		price := guestItem.UnitPrice
		currency := guestItem.Currency
		if guestItem.Variant != nil {
			price = guestItem.Variant.Price
			currency = guestItem.Variant.Currency
		}

		existing, err := repo.FindItemByVariant(ctx, target.ID, guestItem.ProductVariantID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load target cart line")
		}

		if existing == nil {
			item := &models.CartItem{
				ID:               uuid.New(),
				CartID:           target.ID,
				ProductVariantID: guestItem.ProductVariantID,
				Quantity:         s.clampQuantity(guestItem.Quantity),
				UnitPrice:        price,
				Currency:         currency,
			}
			if createErr := repo.CreateItem(ctx, item); createErr != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, createErr, "create merged cart line")
			}
			continue
		}

		quantity := guestItem.Quantity
		if strategy == MergeStrategySum {
			quantity += existing.Quantity
		}
		if updateErr := repo.UpdateItem(ctx, existing.ID, map[string]any{
			"quantity":   s.clampQuantity(quantity),
			"unit_price": price,
		}); updateErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, updateErr, "update merged cart line")
		}
	}
	return nil
}

func (s *service) CleanupExpiredCarts(ctx context.Context) ([]models.Cart, error) {
	expired, err := s.repo.ListExpired(ctx, time.Now(), s.cfg.SweepBatchSize)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list expired carts")
	}

	var abandoned []models.Cart
	for _, cart := range expired {
		cart := cart
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			if statusErr := repo.UpdateStatus(ctx, cart.ID, enums.CartStatusAbandoned); statusErr != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, statusErr, "abandon cart")
			}
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventCartAbandoned,
				AggregateType: enums.AggregateCart,
				AggregateID:   cart.ID,
				Data:          AbandonedEvent{CartID: cart.ID, UserID: cart.UserID},
			})
		})
		if err != nil {
			if s.logg != nil {
				s.logg.Error(s.logg.WithField(ctx, "cart_id", cart.ID.String()), "cart sweep failed", err)
			}
			continue
		}
		s.invalidateCart(ctx, &cart)
		if s.cache != nil {
			s.cache.InvalidateByCartID(ctx, cart.ID)
		}
		abandoned = append(abandoned, cart)
	}
	return abandoned, nil
}

func (s *service) requireActiveCart(ctx context.Context, owner Owner) (*models.Cart, error) {
	cart, err := s.repo.FindActiveByOwner(ctx, owner)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "active cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active cart")
	}
	return cart, nil
}

func (s *service) checkQuantity(quantity int) error {
	if quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if quantity > s.cfg.MaxItemQuantity {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity exceeds per-line maximum").WithDetails(map[string]any{
			"max_quantity": s.cfg.MaxItemQuantity,
			"requested":    quantity,
		})
	}
	return nil
}

func (s *service) clampQuantity(quantity int) int {
	if quantity > s.cfg.MaxItemQuantity {
		return s.cfg.MaxItemQuantity
	}
	return quantity
}

// checkPurchasable rejects variants whose product is not sellable.
func checkPurchasable(variant *models.ProductVariant) error {
	if variant.Product != nil && variant.Product.Status != enums.ProductStatusActive {
		return pkgerrors.New(pkgerrors.CodeValidation, "product is not available").WithDetails(map[string]any{
			"type":       enums.CartIssueProductUnavailable,
			"variant_id": variant.ID.String(),
		})
	}
	return nil
}

// checkAvailability applies the advisory stock check at cart-mutation time.
// The checkout transaction re-checks against live counters regardless.
func checkAvailability(variant *models.ProductVariant, requested int) error {
	if variant.Product != nil && variant.Product.InventoryPolicy.AllowsOverselling() {
		return nil
	}
	if variant.Stock < requested {
		return pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").WithDetails(map[string]any{
			"variant_id": variant.ID.String(),
			"requested":  requested,
			"available":  variant.Stock,
		})
	}
	return nil
}

func (s *service) extendExpiry(ctx context.Context, repo Repository, cartID uuid.UUID) error {
	err := repo.UpdateCart(ctx, cartID, map[string]any{
		"expires_at": time.Now().Add(s.cfg.ExpiryWindow),
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "extend cart expiry")
	}
	return nil
}

func (s *service) loadVariants(ctx context.Context, cart *models.Cart) (map[uuid.UUID]*models.ProductVariant, error) {
	ids := make([]uuid.UUID, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ProductVariantID)
	}
	return s.catalog.FindVariantsByIDs(ctx, ids)
}

func (s *service) buildValidatedView(ctx context.Context, cart *models.Cart) (*View, error) {
	variants, err := s.loadVariants(ctx, cart)
	if err != nil {
		return nil, err
	}
	return buildView(cart, buildReport(cart, variants)), nil
}

// refreshView reloads the cart, rebuilds the view, and writes it through the
// cache so the next read is warm.
func (s *service) refreshView(ctx context.Context, owner Owner, cartID uuid.UUID) (*View, error) {
	cart, err := s.repo.FindByID(ctx, cartID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
	}
	view, err := s.buildValidatedView(ctx, cart)
	if err != nil {
		return nil, err
	}
	s.invalidateCart(ctx, cart)
	scope, key := owner.CacheScope()
	s.storeView(ctx, scope, key, cart.ID, view)
	return view, nil
}

func (s *service) storeView(ctx context.Context, scope, key string, cartID uuid.UUID, view *View) {
	if s.cache == nil || scope == "" {
		return
	}
	payload, err := json.Marshal(view)
	if err != nil {
		return
	}
	s.cache.Put(ctx, scope, key, cartID, payload)
}

func (s *service) invalidateCart(ctx context.Context, cart *models.Cart) {
	if s.cache == nil || cart == nil {
		return
	}
	for _, scope := range ownerScopes(cart) {
		s.cache.Invalidate(ctx, scope[0], scope[1])
	}
}

func buildActor(owner Owner) *outbox.ActorRef {
	actor := &outbox.ActorRef{}
	if owner.UserID != nil && *owner.UserID != uuid.Nil {
		actor.UserID = owner.UserID
		actor.Role = "customer"
	}
	if owner.SessionID != nil && *owner.SessionID != "" {
		actor.SessionID = owner.SessionID
		if actor.Role == "" {
			actor.Role = "guest"
		}
	}
	if actor.UserID == nil && actor.SessionID == nil {
		return nil
	}
	return actor
}

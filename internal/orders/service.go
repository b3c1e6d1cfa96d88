package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/EmreUYGUNX/lumi-commerce/internal/cart"
	"github.com/EmreUYGUNX/lumi-commerce/internal/catalog"
	"github.com/EmreUYGUNX/lumi-commerce/internal/payments"
	"github.com/EmreUYGUNX/lumi-commerce/pkg/config"
	dbpkg "github.com/EmreUYGUNX/lumi-commerce/pkg/db"
	"github.com/EmreUYGUNX/lumi-commerce/pkg/db/models"
	"github.com/EmreUYGUNX/lumi-commerce/pkg/enums"
	pkgerrors "github.com/EmreUYGUNX/lumi-commerce/pkg/errors"
	"github.com/EmreUYGUNX/lumi-commerce/pkg/logger"
	"github.com/EmreUYGUNX/lumi-commerce/pkg/metrics"
	"github.com/EmreUYGUNX/lumi-commerce/pkg/money"
	"github.com/EmreUYGUNX/lumi-commerce/pkg/outbox"
	"github.com/EmreUYGUNX/lumi-commerce/pkg/pagination"
)

const (
	// RoleAdmin marks back-office actors allowed past ownership and
	// cancellation-window checks.
	RoleAdmin = "admin"

	defaultReferenceAttempts = 5
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type stockGuard interface {
	Reserve(ctx context.Context, tx *gorm.DB, cartID, variantID uuid.UUID, qty int, allowNegative bool) error
	ReleaseForCart(ctx context.Context, tx *gorm.DB, cartID uuid.UUID) (int, error)
}

type cartCacheInvalidator interface {
	InvalidateByCartID(ctx context.Context, cartID uuid.UUID)
}

type addressReader interface {
	FindDefaultForUser(ctx context.Context, userID uuid.UUID) (*models.Address, error)
}

type userReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type statusNotifier interface {
	OrderStatusChanged(ctx context.Context, email string, orderRef, status string) error
}

// Service defines order lifecycle operations.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	GetOrder(ctx context.Context, orderID, actorUserID uuid.UUID, actorRole string) (*models.Order, error)
	ListOrders(ctx context.Context, userID uuid.UUID, params pagination.Params, filters ListFilters) (*OrderList, error)
	TrackOrder(ctx context.Context, reference string) (*TrackView, error)
	UpdateOrderStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error)
	CancelOrder(ctx context.Context, input CancelOrderInput) (*models.Order, error)
	ProcessRefund(ctx context.Context, input RefundInput) (*models.PaymentRefund, error)
	AddInternalNote(ctx context.Context, input AddNoteInput) error
}

type service struct {
	repo      Repository
	carts     cart.Repository
	catalog   *catalog.Repository
	guard     stockGuard
	gateway   payments.Gateway
	tx        txRunner
	outbox    outboxPublisher
	cartCache cartCacheInvalidator
	addresses addressReader
	users     userReader
	notifier  statusNotifier
	metrics   *metrics.CommerceMetrics
	cfg       config.OrdersConfig
	logg      *logger.Logger
}

// ServiceParams collects the order service dependencies. CartCache, Addresses,
// Users, Notifier, Metrics, and Logger are optional.
type ServiceParams struct {
	Repo      Repository
	Carts     cart.Repository
	Catalog   *catalog.Repository
	Guard     stockGuard
	Gateway   payments.Gateway
	Tx        txRunner
	Outbox    outboxPublisher
	CartCache cartCacheInvalidator
	Addresses addressReader
	Users     userReader
	Notifier  statusNotifier
	Metrics   *metrics.CommerceMetrics
	Config    config.OrdersConfig
	Logger    *logger.Logger
}

// NewService builds an order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if params.Guard == nil {
		return nil, fmt.Errorf("stock guard required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Config.ReferenceAttempts <= 0 {
		params.Config.ReferenceAttempts = defaultReferenceAttempts
	}
	return &service{
		repo:      params.Repo,
		carts:     params.Carts,
		catalog:   params.Catalog,
		guard:     params.Guard,
		gateway:   params.Gateway,
		tx:        params.Tx,
		outbox:    params.Outbox,
		cartCache: params.CartCache,
		addresses: params.Addresses,
		users:     params.Users,
		notifier:  params.Notifier,
		metrics:   params.Metrics,
		cfg:       params.Config,
		logg:      params.Logger,
	}, nil
}

func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	owner := cart.Owner{UserID: &input.UserID, SessionID: input.SessionID}

	var (
		order *models.Order
		err   error
	)
	for attempt := 0; attempt < s.cfg.ReferenceAttempts; attempt++ {
		order, err = s.createOrderOnce(ctx, input, owner)
		if err != nil && dbpkg.IsUniqueViolation(err, "idx_orders_reference") {
			continue
		}
		break
	}
	if err != nil {
		s.metrics.IncCheckout("failure")
		return nil, err
	}
	s.metrics.IncCheckout("success")
	if s.cartCache != nil {
		s.cartCache.InvalidateByCartID(ctx, order.CartID)
	}

	if input.PaymentToken != "" {
		order = s.capturePayment(ctx, order, input.PaymentToken)
	}
	s.notifyStatus(ctx, order, order.Status)
	return order, nil
}

// createOrderOnce runs the whole checkout inside one transaction: the stock
// re-check against live counters happens here and overrides any advisory
// validation the client saw earlier.
func (s *service) createOrderOnce(ctx context.Context, input CreateOrderInput, owner cart.Owner) (*models.Order, error) {
	var order *models.Order

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.carts.WithTx(tx)
		activeCart, err := cartRepo.FindActiveByOwner(ctx, owner)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "active cart not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active cart")
		}
		if len(activeCart.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		catalogRepo := s.catalog.WithTx(tx)
		variantIDs := make([]uuid.UUID, 0, len(activeCart.Items))
		for _, item := range activeCart.Items {
			variantIDs = append(variantIDs, item.ProductVariantID)
		}
		variants, err := catalogRepo.FindVariantsByIDs(ctx, variantIDs)
		if err != nil {
			return err
		}

		// Advisory pass first so the caller gets every blocking line at once.
		// The per-line reservation below stays authoritative under concurrency.
		if report := cart.Evaluate(activeCart, variants); report.Blocking() {
			return pkgerrors.New(pkgerrors.CodeConflict, "cart failed validation").WithDetails(map[string]any{
				"issues": report.BlockingIssues(),
			})
		}

		now := time.Now()
		currency := enums.CurrencyUSD
		subtotal := money.Zero(currency)
		items := make([]models.OrderItem, 0, len(activeCart.Items))
		orderID := uuid.New()

		for _, line := range activeCart.Items {
			variant := variants[line.ProductVariantID]
			if variant == nil {
				return pkgerrors.New(pkgerrors.CodeValidation, "cart line no longer purchasable").WithDetails(map[string]any{
					"type":       enums.CartIssueVariantUnavailable,
					"variant_id": line.ProductVariantID.String(),
				})
			}
			if variant.Product == nil || variant.Product.Status != enums.ProductStatusActive {
				return pkgerrors.New(pkgerrors.CodeValidation, "cart line no longer purchasable").WithDetails(map[string]any{
					"type":       enums.CartIssueProductUnavailable,
					"variant_id": variant.ID.String(),
				})
			}

			allowNegative := variant.Product.InventoryPolicy.AllowsOverselling()
			if err := s.guard.Reserve(ctx, tx, activeCart.ID, variant.ID, line.Quantity, allowNegative); err != nil {
				return err
			}

			lineTotal := money.New(variant.Price, variant.Currency).MulInt(line.Quantity)
			if len(items) == 0 {
				currency = variant.Currency
				subtotal = money.Zero(currency)
			}
			subtotal, err = subtotal.Add(lineTotal)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "mixed currencies in cart")
			}

			items = append(items, models.OrderItem{
				ID:               uuid.New(),
				OrderID:          orderID,
				ProductID:        variant.ProductID,
				ProductVariantID: variant.ID,
				Quantity:         line.Quantity,
				UnitPrice:        variant.Price,
				Currency:         variant.Currency,
				TitleSnapshot:    orderItemTitle(variant),
				VariantSnapshot:  variantSnapshot(variant),
			})
		}

		shippingAddressID := input.ShippingAddressID
		if shippingAddressID == nil && s.addresses != nil {
			if addr, addrErr := s.addresses.FindDefaultForUser(ctx, input.UserID); addrErr == nil && addr != nil {
				shippingAddressID = &addr.ID
			}
		}
		billingAddressID := input.BillingAddressID
		if billingAddressID == nil {
			billingAddressID = shippingAddressID
		}

		tax := subtotal.MulRate(s.cfg.TaxRateDecimal())
		discount := money.Zero(currency)
		total, err := money.Total(subtotal, tax, discount)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "computing order total")
		}

		reference, err := newReference(now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generating order reference")
		}

		order = &models.Order{
			ID:                orderID,
			Reference:         reference,
			UserID:            input.UserID,
			CartID:            activeCart.ID,
			Status:            enums.OrderStatusPending,
			SubtotalAmount:    subtotal.Value,
			TaxAmount:         tax.Value,
			DiscountAmount:    discount.Value,
			TotalAmount:       total.Value,
			Currency:          currency,
			ShippingAddressID: shippingAddressID,
			BillingAddressID:  billingAddressID,
			Version:           1,
			Metadata:          input.Metadata,
			PlacedAt:          now,
		}

		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, order); err != nil {
			return err
		}
		if err := repo.CreateItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
		}
		order.Items = items

		if err := cartRepo.UpdateStatus(ctx, activeCart.ID, enums.CartStatusCheckedOut); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "close cart")
		}
		if err := cartRepo.DeleteItems(ctx, activeCart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "drain checked out cart")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: &input.UserID, Role: "customer"},
			Data: OrderCreatedEvent{
				OrderID:   order.ID,
				Reference: order.Reference,
				CartID:    activeCart.ID,
				UserID:    input.UserID,
				Total:     order.TotalAmount,
				Currency:  currency,
				ItemCount: len(items),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// capturePayment charges the gateway after the order is committed. A declined
// or failed charge leaves the order pending with the failure on record.
func (s *service) capturePayment(ctx context.Context, order *models.Order, token string) *models.Order {
	result, chargeErr := s.gateway.Charge(ctx, payments.ChargeRequest{
		SourceToken:    token,
		Amount:         order.TotalAmount,
		Currency:       order.Currency,
		ReferenceID:    order.Reference,
		IdempotencyKey: "charge-" + order.ID.String(),
	})

	payment := models.Payment{
		ID:       uuid.New(),
		OrderID:  order.ID,
		Provider: gatewayName(s.gateway),
		Amount:   order.TotalAmount,
		Currency: order.Currency,
	}
	succeeded := chargeErr == nil && result != nil && result.Succeeded
	if succeeded {
		payment.Status = enums.PaymentStatusCompleted
		payment.ProviderRef = &result.ProviderRef
	} else {
		payment.Status = enums.PaymentStatusFailed
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreatePayment(ctx, &payment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment")
		}
		if !succeeded {
			return nil
		}
		if err := repo.UpdateWithVersion(ctx, order.ID, order.Version, map[string]any{
			"status": enums.OrderStatusPaid,
		}); err != nil {
			return s.mapVersionError(err, "mark order paid")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatus,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: OrderStatusEvent{
				OrderID:   order.ID,
				Reference: order.Reference,
				From:      enums.OrderStatusPending,
				To:        enums.OrderStatusPaid,
			},
		})
	})
	if err != nil {
		if s.logg != nil {
			s.logg.Error(s.logg.WithField(ctx, "order_id", order.ID.String()), "recording payment capture failed", err)
		}
		return order
	}
	if succeeded {
		s.metrics.IncOrderStatus(enums.OrderStatusPaid.String())
	}

	reloaded, reloadErr := s.repo.FindByID(ctx, order.ID)
	if reloadErr != nil {
		return order
	}
	return reloaded
}

func (s *service) GetOrder(ctx context.Context, orderID, actorUserID uuid.UUID, actorRole string) (*models.Order, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if actorRole != RoleAdmin && order.UserID != actorUserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}
	return order, nil
}

func (s *service) ListOrders(ctx context.Context, userID uuid.UUID, params pagination.Params, filters ListFilters) (*OrderList, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	list, err := s.repo.List(ctx, userID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

func (s *service) TrackOrder(ctx context.Context, reference string) (*TrackView, error) {
	if reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reference required")
	}
	order, err := s.repo.FindByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	timeline := buildTimeline(order)
	return &TrackView{
		Reference:    order.Reference,
		Status:       order.Status,
		PlacedAt:     order.PlacedAt,
		FulfilledAt:  order.FulfilledAt,
		ShippedAt:    order.ShippedAt,
		DeliveredAt:  order.DeliveredAt,
		CancelledAt:  order.CancelledAt,
		Timeline:     timeline,
		LastUpdateAt: timeline[len(timeline)-1].At,
		Tracking:     trackingFromMetadata(order.Metadata),
	}, nil
}

// buildTimeline lists the lifecycle stages the order has reached, oldest
// first. Every order has at least the placement entry.
func buildTimeline(order *models.Order) []TimelineEntry {
	timeline := []TimelineEntry{{Status: enums.OrderStatusPending, At: order.PlacedAt}}
	stages := []struct {
		status enums.OrderStatus
		at     *time.Time
	}{
		{enums.OrderStatusFulfilled, order.FulfilledAt},
		{enums.OrderStatusShipped, order.ShippedAt},
		{enums.OrderStatusDelivered, order.DeliveredAt},
		{enums.OrderStatusCancelled, order.CancelledAt},
	}
	for _, stage := range stages {
		if stage.at != nil {
			timeline = append(timeline, TimelineEntry{Status: stage.status, At: *stage.at})
		}
	}
	return timeline
}

func trackingFromMetadata(metadata map[string]any) *TrackingInfo {
	raw, ok := metadata["tracking"].(map[string]any)
	if !ok {
		return nil
	}
	str := func(key string) string {
		v, _ := raw[key].(string)
		return v
	}
	info := &TrackingInfo{
		Number:            str("number"),
		URL:               str("url"),
		Carrier:           str("carrier"),
		EstimatedDelivery: str("estimated_delivery"),
	}
	if *info == (TrackingInfo{}) {
		return nil
	}
	return info
}

func (s *service) UpdateOrderStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.Status == enums.OrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "use the cancellation operation to cancel orders")
	}
	if input.ActorRole != RoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "status updates require back-office access")
	}

	order, err := s.loadOrder(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if err := checkTransition(order.Status, input.Status); err != nil {
		return nil, err
	}

	version := order.Version
	if input.ExpectedVersion != nil {
		version = *input.ExpectedVersion
	}

	updates := map[string]any{"status": input.Status}
	now := time.Now()
	switch input.Status {
	case enums.OrderStatusFulfilled:
		updates["fulfilled_at"] = now
	case enums.OrderStatusShipped:
		updates["shipped_at"] = now
	case enums.OrderStatusDelivered:
		updates["delivered_at"] = now
	}
	if input.Tracking != nil {
		// Merge under the tracking key; unrelated metadata keys survive.
		metadata := make(map[string]any, len(order.Metadata)+1)
		for k, v := range order.Metadata {
			metadata[k] = v
		}
		metadata["tracking"] = input.Tracking.asMetadata()
		encoded, encErr := encodeMetadata(metadata)
		if encErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, encErr, "encoding order metadata")
		}
		updates["metadata"] = encoded
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateWithVersion(ctx, order.ID, version, updates); err != nil {
			return s.mapVersionError(err, "update order status")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatus,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: &input.ActorUserID, Role: input.ActorRole},
			Data: OrderStatusEvent{
				OrderID:   order.ID,
				Reference: order.Reference,
				From:      order.Status,
				To:        input.Status,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncOrderStatus(input.Status.String())
	s.notifyStatus(ctx, order, input.Status)
	return s.loadOrder(ctx, order.ID)
}

func (s *service) CancelOrder(ctx context.Context, input CancelOrderInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.loadOrder(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if input.ActorRole != RoleAdmin && order.UserID != input.ActorUserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}
	if order.Status == enums.OrderStatusCancelled {
		return order, nil
	}
	// Only orders that have not entered fulfillment can be cancelled; later
	// stages go through the refund operation instead.
	if order.Status != enums.OrderStatusPending && order.Status != enums.OrderStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be cancelled").WithDetails(map[string]any{
			"status": order.Status.String(),
		})
	}
	if input.ActorRole != RoleAdmin && time.Since(order.PlacedAt) > s.cfg.CancellationWindow {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cancellation window has elapsed").WithDetails(map[string]any{
			"window_minutes": int(s.cfg.CancellationWindow.Minutes()),
			"placed_at":      order.PlacedAt,
		})
	}

	// Refund before touching order state. A transport failure here aborts the
	// cancellation entirely; a declined refund is still recorded below.
	captured := capturedPayment(order)
	var refundResult *payments.RefundResult
	if captured != nil {
		refundResult, err = s.gateway.Refund(ctx, payments.RefundRequest{
			PaymentRef:     providerRef(captured),
			Amount:         captured.Amount,
			Currency:       captured.Currency,
			Reason:         input.Reason,
			IdempotencyKey: "cancel-" + order.ID.String(),
		})
		if err != nil {
			return nil, err
		}
	}

	now := time.Now()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateWithVersion(ctx, order.ID, order.Version, map[string]any{
			"status":       enums.OrderStatusCancelled,
			"cancelled_at": now,
		}); err != nil {
			return s.mapVersionError(err, "cancel order")
		}

		restocked, err := s.guard.ReleaseForCart(ctx, tx, order.CartID)
		if err != nil {
			return err
		}

		refunded := false
		if captured != nil && refundResult != nil {
			refund := buildRefundRecord(captured, captured.Amount, enums.RefundTypeFull, input.Reason, refundResult)
			if err := repo.CreateRefund(ctx, refund); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record refund")
			}
			if refundResult.Succeeded {
				refunded = true
				if err := repo.UpdatePayment(ctx, captured.ID, map[string]any{
					"status": enums.PaymentStatusRefunded,
				}); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment status")
				}
			}
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: &input.ActorUserID, Role: input.ActorRole},
			Data: OrderCancelledEvent{
				OrderID:        order.ID,
				Reference:      order.Reference,
				Reason:         input.Reason,
				RestockedLines: restocked,
				Refunded:       refunded,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncOrderStatus(enums.OrderStatusCancelled.String())
	s.notifyStatus(ctx, order, enums.OrderStatusCancelled)
	return s.loadOrder(ctx, order.ID)
}

func (s *service) ProcessRefund(ctx context.Context, input RefundInput) (*models.PaymentRefund, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ActorRole != RoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "refunds require back-office access")
	}
	if input.Amount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount cannot be negative")
	}

	order, err := s.loadOrder(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}

	var captured *models.Payment
	if input.PaymentID != nil {
		for i := range order.Payments {
			if order.Payments[i].ID == *input.PaymentID {
				captured = &order.Payments[i]
				break
			}
		}
		if captured == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found on order")
		}
		if captured.Status != enums.PaymentStatusCompleted {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment is not refundable").WithDetails(map[string]any{
				"payment_status": captured.Status.String(),
			})
		}
	} else {
		captured = capturedPayment(order)
		if captured == nil {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order has no captured payment to refund")
		}
	}

	amount := input.Amount
	if amount.IsZero() {
		amount = order.TotalAmount
	}
	if amount.GreaterThan(captured.Amount) {
		// Rejected before anything is persisted.
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund exceeds captured amount").WithDetails(map[string]any{
			"captured":  captured.Amount.StringFixed(2),
			"requested": amount.StringFixed(2),
		})
	}

	// Full means the whole order total comes back, no matter which payment
	// carries it.
	refundType := enums.RefundTypePartial
	if amount.Equal(order.TotalAmount) {
		refundType = enums.RefundTypeFull
	}
	if input.Type == enums.RefundTypeFull && refundType != enums.RefundTypeFull {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "full refund must match the order total").WithDetails(map[string]any{
			"order_total": order.TotalAmount.StringFixed(2),
			"requested":   amount.StringFixed(2),
		})
	}
	// A full refund also cancels the order when the lifecycle still allows it;
	// delivered orders keep their status and only the payment is reversed.
	willCancel := refundType == enums.RefundTypeFull && CanTransition(order.Status, enums.OrderStatusCancelled)

	result, err := s.gateway.Refund(ctx, payments.RefundRequest{
		PaymentRef:     providerRef(captured),
		Amount:         amount,
		Currency:       captured.Currency,
		Reason:         input.Reason,
		IdempotencyKey: "refund-" + order.ID.String() + "-" + amount.StringFixed(2),
	})
	if err != nil {
		// Transport failure: nothing recorded, caller retries.
		return nil, err
	}

	refund := buildRefundRecord(captured, amount, refundType, input.Reason, result)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateRefund(ctx, refund); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record refund")
		}

		if result.Succeeded {
			if refundType == enums.RefundTypeFull {
				if err := repo.UpdatePayment(ctx, captured.ID, map[string]any{
					"status": enums.PaymentStatusRefunded,
				}); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment status")
				}
			}
			if willCancel {
				if err := repo.UpdateWithVersion(ctx, order.ID, order.Version, map[string]any{
					"status":       enums.OrderStatusCancelled,
					"cancelled_at": time.Now(),
				}); err != nil {
					return s.mapVersionError(err, "cancel refunded order")
				}
				if _, err := s.guard.ReleaseForCart(ctx, tx, order.CartID); err != nil {
					return err
				}
			}
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderRefunded,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{UserID: &input.ActorUserID, Role: input.ActorRole},
			Data: OrderRefundedEvent{
				OrderID:   order.ID,
				Reference: order.Reference,
				RefundID:  refund.ID,
				Amount:    amount,
				Type:      refundType,
				Status:    refund.Status,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	if result.Succeeded {
		s.metrics.IncRefund(refundType.String(), "success")
		if willCancel {
			s.metrics.IncOrderStatus(enums.OrderStatusCancelled.String())
		}
	} else {
		s.metrics.IncRefund(refundType.String(), "failure")
	}
	return refund, nil
}

func (s *service) AddInternalNote(ctx context.Context, input AddNoteInput) error {
	if input.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.Note == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "note required")
	}

	order, err := s.loadOrder(ctx, input.OrderID)
	if err != nil {
		return err
	}

	metadata := make(map[string]any, len(order.Metadata)+1)
	for k, v := range order.Metadata {
		metadata[k] = v
	}
	notes, _ := metadata["internal_notes"].([]any)
	notes = append(notes, map[string]any{
		"note":      input.Note,
		"author_id": input.ActorUserID.String(),
		"added_at":  time.Now().UTC().Format(time.RFC3339),
	})
	metadata["internal_notes"] = notes
	encoded, err := encodeMetadata(metadata)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding order metadata")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateWithVersion(ctx, order.ID, order.Version, map[string]any{
			"metadata": encoded,
		}); err != nil {
			return s.mapVersionError(err, "append order note")
		}
		return nil
	})
}

// notifyStatus is post-commit and best-effort; failures only log.
func (s *service) notifyStatus(ctx context.Context, order *models.Order, status enums.OrderStatus) {
	if s.notifier == nil || s.users == nil || order == nil {
		return
	}
	user, err := s.users.FindByID(ctx, order.UserID)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "order notification skipped, user lookup failed")
		}
		return
	}
	if err := s.notifier.OrderStatusChanged(ctx, user.Email, order.Reference, status.String()); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "order notification failed")
	}
}

// encodeMetadata serializes metadata for a map-based update, where gorm does
// not apply the model's serializer.
func encodeMetadata(metadata map[string]any) (string, error) {
	raw, err := json.Marshal(metadata)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (s *service) loadOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) mapVersionError(err error, op string) error {
	if errors.Is(err, ErrStaleVersion) {
		s.metrics.IncStaleWrite()
		return pkgerrors.New(pkgerrors.CodeConflict, "order was modified concurrently")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}

// capturedPayment returns the payment a refund can be issued against.
func capturedPayment(order *models.Order) *models.Payment {
	for i := range order.Payments {
		if order.Payments[i].Status == enums.PaymentStatusCompleted {
			return &order.Payments[i]
		}
	}
	return nil
}

func providerRef(payment *models.Payment) string {
	if payment.ProviderRef == nil {
		return ""
	}
	return *payment.ProviderRef
}

func buildRefundRecord(payment *models.Payment, amount decimal.Decimal, refundType enums.RefundType, reason string, result *payments.RefundResult) *models.PaymentRefund {
	refund := &models.PaymentRefund{
		ID:        uuid.New(),
		PaymentID: payment.ID,
		Amount:    amount,
		Currency:  payment.Currency,
		Type:      refundType,
	}
	if reason != "" {
		refund.Reason = &reason
	}
	if result.Succeeded {
		refund.Status = enums.RefundStatusCompleted
		if result.GatewayRef != "" {
			refund.GatewayRef = &result.GatewayRef
		}
	} else {
		refund.Status = enums.RefundStatusFailed
		if result.FailureReason != "" {
			refund.FailureReason = &result.FailureReason
		}
	}
	return refund
}

func gatewayName(gw payments.Gateway) string {
	switch gw.(type) {
	case *payments.SquareGateway:
		return "square"
	case *payments.NoopGateway:
		return "noop"
	default:
		return "unknown"
	}
}

func orderItemTitle(variant *models.ProductVariant) string {
	if variant.Product != nil && variant.Product.Title != "" && variant.Product.Title != variant.Title {
		return variant.Product.Title + " - " + variant.Title
	}
	return variant.Title
}

func variantSnapshot(variant *models.ProductVariant) map[string]any {
	snapshot := map[string]any{
		"sku":           variant.SKU,
		"variant_title": variant.Title,
	}
	if len(variant.Attributes) > 0 {
		snapshot["attributes"] = variant.Attributes
	}
	return snapshot
}

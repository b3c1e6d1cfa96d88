package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/EmreUYGUNX/lumi-commerce/internal/cart"
	"github.com/EmreUYGUNX/lumi-commerce/internal/catalog"
	"github.com/EmreUYGUNX/lumi-commerce/internal/inventory"
	"github.com/EmreUYGUNX/lumi-commerce/internal/payments"
	"github.com/EmreUYGUNX/lumi-commerce/internal/users"
	"github.com/EmreUYGUNX/lumi-commerce/pkg/config"
	"github.com/EmreUYGUNX/lumi-commerce/pkg/db/models"
	"github.com/EmreUYGUNX/lumi-commerce/pkg/enums"
	"github.com/EmreUYGUNX/lumi-commerce/pkg/outbox"
	"github.com/EmreUYGUNX/lumi-commerce/pkg/pagination"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r *testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// stubGateway returns canned results so tests can exercise declines and
// transport failures without a provider.
type stubGateway struct {
	chargeResult *payments.ChargeResult
	chargeErr    error
	refundResult *payments.RefundResult
	refundErr    error
	refundCalls  int
}

func (g *stubGateway) Charge(ctx context.Context, req payments.ChargeRequest) (*payments.ChargeResult, error) {
	if g.chargeErr != nil {
		return nil, g.chargeErr
	}
	if g.chargeResult != nil {
		return g.chargeResult, nil
	}
	return &payments.ChargeResult{Succeeded: true, ProviderRef: "stub-charge-" + uuid.NewString()[:8]}, nil
}

func (g *stubGateway) Refund(ctx context.Context, req payments.RefundRequest) (*payments.RefundResult, error) {
	g.refundCalls++
	if g.refundErr != nil {
		return nil, g.refundErr
	}
	if g.refundResult != nil {
		return g.refundResult, nil
	}
	return &payments.RefundResult{Succeeded: true, GatewayRef: "stub-refund-" + uuid.NewString()[:8]}, nil
}

type notifierCall struct {
	email  string
	ref    string
	status string
}

type stubNotifier struct {
	calls []notifierCall
	err   error
}

func (n *stubNotifier) OrderStatusChanged(ctx context.Context, email, orderRef, status string) error {
	n.calls = append(n.calls, notifierCall{email: email, ref: orderRef, status: status})
	return n.err
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.Address{},
		&models.Product{},
		&models.ProductVariant{},
		&models.Cart{},
		&models.CartItem{},
		&models.StockReservation{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
		&models.PaymentRefund{},
		&models.OutboxEvent{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB, gateway payments.Gateway, cfg config.OrdersConfig) Service {
	t.Helper()
	if gateway == nil {
		gateway = &stubGateway{}
	}
	if cfg.CancellationWindow == 0 {
		cfg.CancellationWindow = time.Hour
	}
	svc, err := NewService(ServiceParams{
		Repo:      NewRepository(db),
		Carts:     cart.NewRepository(db),
		Catalog:   catalog.NewRepository(db),
		Guard:     inventory.NewGuard(),
		Gateway:   gateway,
		Tx:        &testTxRunner{db: db},
		Outbox:    outbox.NewService(outbox.NewRepository(db), nil),
		Addresses: users.NewRepository(db),
		Users:     users.NewRepository(db),
		Config:    cfg,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

type variantSpec struct {
	stock  int
	price  string
	status enums.ProductStatus
	policy enums.InventoryPolicy
}

func seedVariant(t *testing.T, db *gorm.DB, spec variantSpec) uuid.UUID {
	t.Helper()
	if spec.status == "" {
		spec.status = enums.ProductStatusActive
	}
	if spec.policy == "" {
		spec.policy = enums.InventoryPolicyDeny
	}
	if spec.price == "" {
		spec.price = "10.00"
	}
	price, err := decimal.NewFromString(spec.price)
	if err != nil {
		t.Fatalf("parse price: %v", err)
	}
	product := models.Product{
		ID:              uuid.New(),
		Title:           "test product",
		Status:          spec.status,
		InventoryPolicy: spec.policy,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	variant := models.ProductVariant{
		ID:        uuid.New(),
		ProductID: product.ID,
		SKU:       "SKU-" + uuid.NewString()[:8],
		Title:     "test variant",
		Price:     price,
		Currency:  enums.CurrencyUSD,
		Stock:     spec.stock,
	}
	if err := db.Create(&variant).Error; err != nil {
		t.Fatalf("seed variant: %v", err)
	}
	return variant.ID
}

type cartLine struct {
	variantID uuid.UUID
	quantity  int
	price     string
}

func seedActiveCart(t *testing.T, db *gorm.DB, userID uuid.UUID, lines ...cartLine) uuid.UUID {
	t.Helper()
	shoppingCart := models.Cart{
		ID:        uuid.New(),
		UserID:    &userID,
		Status:    enums.CartStatusActive,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}
	if err := db.Create(&shoppingCart).Error; err != nil {
		t.Fatalf("seed cart: %v", err)
	}
	for _, line := range lines {
		item := models.CartItem{
			ID:               uuid.New(),
			CartID:           shoppingCart.ID,
			ProductVariantID: line.variantID,
			Quantity:         line.quantity,
			UnitPrice:        decimal.RequireFromString(line.price),
			Currency:         enums.CurrencyUSD,
		}
		if err := db.Create(&item).Error; err != nil {
			t.Fatalf("seed cart item: %v", err)
		}
	}
	return shoppingCart.ID
}

// placeOrder seeds a single-line cart and checks it out with a payment token.
func placeOrder(t *testing.T, db *gorm.DB, svc Service, userID uuid.UUID, stock, quantity int, price string) *models.Order {
	t.Helper()
	variantID := seedVariant(t, db, variantSpec{stock: stock, price: price})
	seedActiveCart(t, db, userID, cartLine{variantID: variantID, quantity: quantity, price: price})
	order, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		UserID:       userID,
		PaymentToken: "tok_test",
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	return order
}

func variantStock(t *testing.T, db *gorm.DB, variantID uuid.UUID) int {
	t.Helper()
	var variant models.ProductVariant
	if err := db.First(&variant, "id = ?", variantID).Error; err != nil {
		t.Fatalf("load variant: %v", err)
	}
	return variant.Stock
}

func loadOrderRow(t *testing.T, db *gorm.DB, orderID uuid.UUID) models.Order {
	t.Helper()
	var order models.Order
	err := db.Preload("Items").Preload("Payments.Refunds").First(&order, "id = ?", orderID).Error
	if err != nil {
		t.Fatalf("load order: %v", err)
	}
	return order
}

func listParams(limit int, cursor *string) pagination.Params {
	params := pagination.Params{Limit: limit}
	if cursor != nil {
		params.Cursor = *cursor
	}
	return params
}

func countOutboxEvents(t *testing.T, db *gorm.DB, eventType enums.OutboxEventType) int64 {
	t.Helper()
	var count int64
	err := db.Model(&models.OutboxEvent{}).
		Where("event_type = ?", eventType).
		Count(&count).Error
	if err != nil {
		t.Fatalf("count outbox events: %v", err)
	}
	return count
}

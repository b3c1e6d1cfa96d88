package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/EmreUYGUNX/lumi-commerce/internal/catalog"
	"github.com/EmreUYGUNX/lumi-commerce/pkg/config"
	"github.com/EmreUYGUNX/lumi-commerce/pkg/db/models"
	"github.com/EmreUYGUNX/lumi-commerce/pkg/enums"
	"github.com/EmreUYGUNX/lumi-commerce/pkg/outbox"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r *testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:cart_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(
		&models.Product{},
		&models.ProductVariant{},
		&models.Cart{},
		&models.CartItem{},
		&models.OutboxEvent{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(
		NewRepository(db),
		catalog.NewRepository(db),
		&testTxRunner{db: db},
		outbox.NewService(outbox.NewRepository(db), nil),
		nil,
		config.CartConfig{MaxItemQuantity: 100, SweepBatchSize: 50},
		nil,
	)
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

func ptr(s string) *string {
	return &s
}

func timeAgo(t *testing.T, hours int) time.Time {
	t.Helper()
	return time.Now().Add(-time.Duration(hours) * time.Hour)
}

func timeAhead(t *testing.T, hours int) time.Time {
	t.Helper()
	return time.Now().Add(time.Duration(hours) * time.Hour)
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

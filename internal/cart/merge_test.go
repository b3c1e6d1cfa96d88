package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/EmreUYGUNX/lumi-commerce/pkg/db/models"
	"github.com/EmreUYGUNX/lumi-commerce/pkg/enums"
)

func TestMergeCartsReassignsWhenUserHasNoCart(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	userID := uuid.New()
	session := "sess-" + uuid.NewString()[:8]
	variantID := seedVariant(t, db, variantSpec{stock: 10})

	guestView, err := svc.AddItem(ctx, AddItemInput{Owner: OwnerForSession(session), VariantID: variantID, Quantity: 2})
	if err != nil {
		t.Fatalf("seed guest cart: %v", err)
	}

	merged, err := svc.MergeCarts(ctx, MergeInput{UserID: userID, SessionID: session})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if merged.CartID != guestView.CartID {
		t.Fatalf("expected the guest cart to be reassigned in place")
	}
	if merged.Items[0].Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", merged.Items[0].Quantity)
	}

	// The user now owns the cart.
	userView, err := svc.GetCart(ctx, OwnerForUser(userID))
	if err != nil {
		t.Fatalf("get user cart: %v", err)
	}
	if userView.CartID != guestView.CartID {
		t.Fatalf("expected reassigned cart, got %s", userView.CartID)
	}
	if got := countOutboxEvents(t, db, enums.EventCartMerged); got != 1 {
		t.Fatalf("expected 1 merged event, got %d", got)
	}
}

func TestMergeCartsSumStrategy(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	userID := uuid.New()
	session := "sess-" + uuid.NewString()[:8]
	shared := seedVariant(t, db, variantSpec{stock: 50})
	guestOnly := seedVariant(t, db, variantSpec{stock: 50})

	userOwner := OwnerForUser(userID)
	if _, err := svc.AddItem(ctx, AddItemInput{Owner: userOwner, VariantID: shared, Quantity: 3}); err != nil {
		t.Fatalf("seed user cart: %v", err)
	}
	sessionOwner := OwnerForSession(session)
	if _, err := svc.AddItem(ctx, AddItemInput{Owner: sessionOwner, VariantID: shared, Quantity: 4}); err != nil {
		t.Fatalf("seed guest shared line: %v", err)
	}
	guestView, err := svc.AddItem(ctx, AddItemInput{Owner: sessionOwner, VariantID: guestOnly, Quantity: 1})
	if err != nil {
		t.Fatalf("seed guest-only line: %v", err)
	}

	merged, err := svc.MergeCarts(ctx, MergeInput{UserID: userID, SessionID: session, Strategy: MergeStrategySum})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if len(merged.Items) != 2 {
		t.Fatalf("expected 2 lines after merge, got %d", len(merged.Items))
	}
	quantities := map[uuid.UUID]int{}
	for _, item := range merged.Items {
		quantities[item.VariantID] = item.Quantity
	}
	if quantities[shared] != 7 {
		t.Fatalf("expected summed quantity 7, got %d", quantities[shared])
	}
	if quantities[guestOnly] != 1 {
		t.Fatalf("expected guest-only quantity 1, got %d", quantities[guestOnly])
	}

	// The closed guest cart holds no lines once its contents move over.
	var leftover int64
	if err := db.Model(&models.CartItem{}).Where("cart_id = ?", guestView.CartID).Count(&leftover).Error; err != nil {
		t.Fatalf("count guest lines: %v", err)
	}
	if leftover != 0 {
		t.Fatalf("expected merged guest cart to be drained, got %d lines", leftover)
	}

	// The guest cart is closed and a fresh session lookup starts empty.
	sessionView, err := svc.GetCart(ctx, sessionOwner)
	if err != nil {
		t.Fatalf("get session cart: %v", err)
	}
	if sessionView.CartID == guestView.CartID {
		t.Fatalf("merged guest cart must no longer be active")
	}
	if len(sessionView.Items) != 0 {
		t.Fatalf("fresh session cart must be empty, got %d lines", len(sessionView.Items))
	}
}

func TestMergeCartsReplaceStrategy(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	userID := uuid.New()
	session := "sess-" + uuid.NewString()[:8]
	shared := seedVariant(t, db, variantSpec{stock: 50})

	if _, err := svc.AddItem(ctx, AddItemInput{Owner: OwnerForUser(userID), VariantID: shared, Quantity: 9}); err != nil {
		t.Fatalf("seed user cart: %v", err)
	}
	if _, err := svc.AddItem(ctx, AddItemInput{Owner: OwnerForSession(session), VariantID: shared, Quantity: 2}); err != nil {
		t.Fatalf("seed guest cart: %v", err)
	}

	merged, err := svc.MergeCarts(ctx, MergeInput{UserID: userID, SessionID: session, Strategy: MergeStrategyReplace})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if merged.Items[0].Quantity != 2 {
		t.Fatalf("replace strategy must take the guest quantity, got %d", merged.Items[0].Quantity)
	}
}

func TestMergeCartsClampsSummedQuantity(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	userID := uuid.New()
	session := "sess-" + uuid.NewString()[:8]
	shared := seedVariant(t, db, variantSpec{stock: 500})

	if _, err := svc.AddItem(ctx, AddItemInput{Owner: OwnerForUser(userID), VariantID: shared, Quantity: 80}); err != nil {
		t.Fatalf("seed user cart: %v", err)
	}
	if _, err := svc.AddItem(ctx, AddItemInput{Owner: OwnerForSession(session), VariantID: shared, Quantity: 60}); err != nil {
		t.Fatalf("seed guest cart: %v", err)
	}

	merged, err := svc.MergeCarts(ctx, MergeInput{UserID: userID, SessionID: session, Strategy: MergeStrategySum})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if merged.Items[0].Quantity != 100 {
		t.Fatalf("expected clamp at 100, got %d", merged.Items[0].Quantity)
	}
}

func TestMergeCartsWithoutGuestCartIsNoop(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	userID := uuid.New()
	variantID := seedVariant(t, db, variantSpec{stock: 10})

	if _, err := svc.AddItem(ctx, AddItemInput{Owner: OwnerForUser(userID), VariantID: variantID, Quantity: 2}); err != nil {
		t.Fatalf("seed user cart: %v", err)
	}

	merged, err := svc.MergeCarts(ctx, MergeInput{UserID: userID, SessionID: "sess-missing"})
	if err != nil {
		t.Fatalf("merge without guest cart: %v", err)
	}
	if merged.Items[0].Quantity != 2 {
		t.Fatalf("user cart must be untouched, got %d", merged.Items[0].Quantity)
	}
	if got := countOutboxEvents(t, db, enums.EventCartMerged); got != 0 {
		t.Fatalf("no merged event expected, got %d", got)
	}
}

func TestMergeCartsUnknownStrategy(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)

	_, err := svc.MergeCarts(context.Background(), MergeInput{
		UserID:    uuid.New(),
		SessionID: "sess-x",
		Strategy:  MergeStrategy("average"),
	})
	if err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}

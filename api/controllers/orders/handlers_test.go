package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/EmreUYGUNX/lumi-commerce/api/middleware"
	orderssvc "github.com/EmreUYGUNX/lumi-commerce/internal/orders"
	"github.com/EmreUYGUNX/lumi-commerce/pkg/db/models"
	"github.com/EmreUYGUNX/lumi-commerce/pkg/enums"
	pkgerrors "github.com/EmreUYGUNX/lumi-commerce/pkg/errors"
	"github.com/EmreUYGUNX/lumi-commerce/pkg/pagination"
)

type stubOrderService struct {
	order      *models.Order
	list       *orderssvc.OrderList
	track      *orderssvc.TrackView
	refund     *models.PaymentRefund
	err        error
	lastCreate orderssvc.CreateOrderInput
	lastCancel orderssvc.CancelOrderInput
	lastStatus orderssvc.UpdateStatusInput
	lastRefund orderssvc.RefundInput
	lastList   pagination.Params
	lastFilter orderssvc.ListFilters
}

func (s *stubOrderService) CreateOrder(ctx context.Context, input orderssvc.CreateOrderInput) (*models.Order, error) {
	s.lastCreate = input
	return s.order, s.err
}

func (s *stubOrderService) GetOrder(ctx context.Context, orderID, actorUserID uuid.UUID, actorRole string) (*models.Order, error) {
	return s.order, s.err
}

func (s *stubOrderService) ListOrders(ctx context.Context, userID uuid.UUID, params pagination.Params, filters orderssvc.ListFilters) (*orderssvc.OrderList, error) {
	s.lastList = params
	s.lastFilter = filters
	return s.list, s.err
}

func (s *stubOrderService) TrackOrder(ctx context.Context, reference string) (*orderssvc.TrackView, error) {
	return s.track, s.err
}

func (s *stubOrderService) UpdateOrderStatus(ctx context.Context, input orderssvc.UpdateStatusInput) (*models.Order, error) {
	s.lastStatus = input
	return s.order, s.err
}

func (s *stubOrderService) CancelOrder(ctx context.Context, input orderssvc.CancelOrderInput) (*models.Order, error) {
	s.lastCancel = input
	return s.order, s.err
}

func (s *stubOrderService) ProcessRefund(ctx context.Context, input orderssvc.RefundInput) (*models.PaymentRefund, error) {
	s.lastRefund = input
	return s.refund, s.err
}

func (s *stubOrderService) AddInternalNote(ctx context.Context, input orderssvc.AddNoteInput) error {
	return s.err
}

// orderRoute mounts a handler under a chi route so URL params resolve.
func orderRoute(method, pattern string, handler http.HandlerFunc) http.Handler {
	r := chi.NewRouter()
	r.Method(method, pattern, handler)
	return r
}

func TestCreateOrderReturns201(t *testing.T) {
	userID := uuid.New()
	svc := &stubOrderService{order: &models.Order{ID: uuid.New(), Reference: "ORD-20260829-ABC123"}}
	handler := Create(svc, nil)

	body := `{"payment_token":"tok_test"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	req = req.WithContext(middleware.WithUserID(req.Context(), userID.String()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastCreate.UserID != userID || svc.lastCreate.PaymentToken != "tok_test" {
		t.Fatalf("unexpected input %+v", svc.lastCreate)
	}
	var envelope struct {
		Data models.Order `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Reference != "ORD-20260829-ABC123" {
		t.Fatalf("unexpected reference %s", envelope.Data.Reference)
	}
}

func TestCreateOrderRequiresAuth(t *testing.T) {
	handler := Create(&stubOrderService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestCreateOrderStockConflict(t *testing.T) {
	svc := &stubOrderService{err: pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock")}
	handler := Create(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(`{}`))
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeConflict) {
		t.Fatalf("unexpected error code %s", envelope.Error.Code)
	}
}

func TestListOrdersParsesQuery(t *testing.T) {
	svc := &stubOrderService{list: &orderssvc.OrderList{Orders: []models.Order{}}}
	handler := List(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?limit=5&status=paid&cursor=abc", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastList.Limit != 5 || svc.lastList.Cursor != "abc" {
		t.Fatalf("unexpected pagination %+v", svc.lastList)
	}
	if svc.lastFilter.Status == nil || *svc.lastFilter.Status != enums.OrderStatusPaid {
		t.Fatalf("unexpected filter %+v", svc.lastFilter)
	}
}

func TestListOrdersRejectsUnknownStatus(t *testing.T) {
	handler := List(&stubOrderService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?status=bogus", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestCancelOrderPassesActor(t *testing.T) {
	userID := uuid.New()
	orderID := uuid.New()
	svc := &stubOrderService{order: &models.Order{ID: orderID, Status: enums.OrderStatusCancelled}}
	router := orderRoute(http.MethodPost, "/{orderID}/cancel", Cancel(svc, nil))

	body := `{"reason":"changed my mind"}`
	req := httptest.NewRequest(http.MethodPost, "/"+orderID.String()+"/cancel", strings.NewReader(body))
	ctx := middleware.WithUserID(req.Context(), userID.String())
	ctx = middleware.WithRole(ctx, "customer")
	req = req.WithContext(ctx)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastCancel.OrderID != orderID || svc.lastCancel.ActorUserID != userID {
		t.Fatalf("unexpected input %+v", svc.lastCancel)
	}
	if svc.lastCancel.ActorRole != "customer" || svc.lastCancel.Reason != "changed my mind" {
		t.Fatalf("unexpected input %+v", svc.lastCancel)
	}
}

func TestCancelOrderRejectsMalformedID(t *testing.T) {
	router := orderRoute(http.MethodPost, "/{orderID}/cancel", Cancel(&stubOrderService{}, nil))

	req := httptest.NewRequest(http.MethodPost, "/not-a-uuid/cancel", strings.NewReader(`{}`))
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestTrackOrderIsPublic(t *testing.T) {
	svc := &stubOrderService{track: &orderssvc.TrackView{Reference: "ORD-20260829-XYZ999", Status: enums.OrderStatusShipped}}
	router := orderRoute(http.MethodGet, "/track/{reference}", Track(svc, nil))

	req := httptest.NewRequest(http.MethodGet, "/track/ORD-20260829-XYZ999", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var envelope struct {
		Data orderssvc.TrackView `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Status != enums.OrderStatusShipped {
		t.Fatalf("unexpected status %s", envelope.Data.Status)
	}
}

func TestUpdateStatusParsesPayload(t *testing.T) {
	orderID := uuid.New()
	svc := &stubOrderService{order: &models.Order{ID: orderID, Status: enums.OrderStatusFulfilled}}
	router := orderRoute(http.MethodPatch, "/{orderID}/status", UpdateStatus(svc, nil))

	body := `{"status":"fulfilled","expected_version":3}`
	req := httptest.NewRequest(http.MethodPatch, "/"+orderID.String()+"/status", strings.NewReader(body))
	ctx := middleware.WithUserID(req.Context(), uuid.NewString())
	ctx = middleware.WithRole(ctx, "admin")
	req = req.WithContext(ctx)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastStatus.Status != enums.OrderStatusFulfilled {
		t.Fatalf("unexpected status %s", svc.lastStatus.Status)
	}
	if svc.lastStatus.ExpectedVersion == nil || *svc.lastStatus.ExpectedVersion != 3 {
		t.Fatalf("unexpected expected_version %+v", svc.lastStatus.ExpectedVersion)
	}
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	orderID := uuid.New()
	router := orderRoute(http.MethodPatch, "/{orderID}/status", UpdateStatus(&stubOrderService{}, nil))

	body := `{"status":"teleported"}`
	req := httptest.NewRequest(http.MethodPatch, "/"+orderID.String()+"/status", strings.NewReader(body))
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestRefundParsesAmount(t *testing.T) {
	orderID := uuid.New()
	svc := &stubOrderService{refund: &models.PaymentRefund{ID: uuid.New(), Status: enums.RefundStatusCompleted}}
	router := orderRoute(http.MethodPost, "/{orderID}/refund", Refund(svc, nil))

	body := `{"amount":"19.99","reason":"damaged item"}`
	req := httptest.NewRequest(http.MethodPost, "/"+orderID.String()+"/refund", strings.NewReader(body))
	ctx := middleware.WithUserID(req.Context(), uuid.NewString())
	ctx = middleware.WithRole(ctx, "admin")
	req = req.WithContext(ctx)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	if !svc.lastRefund.Amount.Equal(decimal.RequireFromString("19.99")) {
		t.Fatalf("unexpected amount %s", svc.lastRefund.Amount)
	}
}

func TestRefundDefaultsToFullAmount(t *testing.T) {
	orderID := uuid.New()
	svc := &stubOrderService{refund: &models.PaymentRefund{ID: uuid.New()}}
	router := orderRoute(http.MethodPost, "/{orderID}/refund", Refund(svc, nil))

	req := httptest.NewRequest(http.MethodPost, "/"+orderID.String()+"/refund", strings.NewReader(`{}`))
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
	if !svc.lastRefund.Amount.IsZero() {
		t.Fatalf("expected zero amount, got %s", svc.lastRefund.Amount)
	}
}

func TestRefundRejectsMalformedAmount(t *testing.T) {
	orderID := uuid.New()
	router := orderRoute(http.MethodPost, "/{orderID}/refund", Refund(&stubOrderService{}, nil))

	body := `{"amount":"nineteen"}`
	req := httptest.NewRequest(http.MethodPost, "/"+orderID.String()+"/refund", strings.NewReader(body))
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestAddNoteRequiresBody(t *testing.T) {
	orderID := uuid.New()
	router := orderRoute(http.MethodPost, "/{orderID}/notes", AddNote(&stubOrderService{}, nil))

	req := httptest.NewRequest(http.MethodPost, "/"+orderID.String()+"/notes", strings.NewReader(`{}`))
	req = req.WithContext(middleware.WithUserID(req.Context(), uuid.NewString()))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

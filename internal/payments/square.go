package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	sq "github.com/square/square-go-sdk"
	sqclient "github.com/square/square-go-sdk/client"
	sqcore "github.com/square/square-go-sdk/core"
	sqoption "github.com/square/square-go-sdk/option"

	"github.com/EmreUYGUNX/lumi-commerce/pkg/config"
	"github.com/EmreUYGUNX/lumi-commerce/pkg/enums"
	pkgerrors "github.com/EmreUYGUNX/lumi-commerce/pkg/errors"
	"github.com/EmreUYGUNX/lumi-commerce/pkg/logger"
)

const (
	sandboxEnv    = "sandbox"
	productionEnv = "production"
)

var baseURLs = map[string]string{
	sandboxEnv:    "https://connect.squareupsandbox.com",
	productionEnv: "https://connect.squareup.com",
}

// SquareGateway implements Gateway on top of the Square SDK.
type SquareGateway struct {
	sdk  *sqclient.Client
	logg *logger.Logger
}

// NewSquareGateway validates the credentials and builds the SDK client.
func NewSquareGateway(cfg config.SquareConfig, logg *logger.Logger) (*SquareGateway, error) {
	token := strings.TrimSpace(cfg.AccessToken)
	if token == "" {
		return nil, errors.New("square access token is required")
	}
	env := cfg.Environment()
	baseURL, ok := baseURLs[env]
	if !ok {
		return nil, fmt.Errorf("square environment must be %q or %q", sandboxEnv, productionEnv)
	}

	sdk := sqclient.NewClient(
		sqoption.WithBaseURL(baseURL),
		sqoption.WithToken(token),
	)
	return &SquareGateway{sdk: sdk, logg: logg}, nil
}

func (g *SquareGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	if !req.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "charge amount must be positive")
	}
	idempotencyKey := req.IdempotencyKey
	if idempotencyKey == "" {
		idempotencyKey = "charge-" + uuid.NewString()
	}

	resp, err := g.sdk.Payments.Create(ctx, &sq.CreatePaymentRequest{
		SourceID:       req.SourceToken,
		IdempotencyKey: idempotencyKey,
		AmountMoney: &sq.Money{
			Amount:   amountPtr(req.Amount.Mul(centsFactor).IntPart()),
			Currency: squareCurrency(req.Currency),
		},
		ReferenceID: stringPtr(req.ReferenceID),
	})
	if err != nil {
		return nil, g.mapError(err, "create payment")
	}

	payment := resp.GetPayment()
	result := &ChargeResult{
		Succeeded:   paymentCompleted(payment),
		ProviderRef: stringValue(payment.GetID()),
	}
	if !result.Succeeded {
		result.FailureReason = paymentStatus(payment)
	}
	g.log(ctx, "create_payment", result.ProviderRef, result.Succeeded)
	return result, nil
}

func (g *SquareGateway) Refund(ctx context.Context, req RefundRequest) (*RefundResult, error) {
	if !req.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount must be positive")
	}
	if strings.TrimSpace(req.PaymentRef) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment reference required")
	}
	idempotencyKey := req.IdempotencyKey
	if idempotencyKey == "" {
		idempotencyKey = "refund-" + uuid.NewString()
	}

	resp, err := g.sdk.Refunds.RefundPayment(ctx, &sq.RefundPaymentRequest{
		IdempotencyKey: idempotencyKey,
		PaymentID:      stringPtr(req.PaymentRef),
		AmountMoney: &sq.Money{
			Amount:   amountPtr(req.Amount.Mul(centsFactor).IntPart()),
			Currency: squareCurrency(req.Currency),
		},
		Reason: stringPtr(req.Reason),
	})
	if err != nil {
		return nil, g.mapError(err, "refund payment")
	}

	result := buildRefundResult(resp.GetRefund())
	g.log(ctx, "refund_payment", result.GatewayRef, result.Succeeded)
	return result, nil
}

// buildRefundResult maps the SDK refund onto the gateway contract. Unlike
// payments, the refund id is a required value field on the SDK type.
func buildRefundResult(refund *sq.PaymentRefund) *RefundResult {
	result := &RefundResult{
		Succeeded:  refundAccepted(refund),
		GatewayRef: refund.GetID(),
	}
	if !result.Succeeded {
		result.FailureReason = refundStatus(refund)
	}
	return result
}

func (g *SquareGateway) log(ctx context.Context, op, ref string, ok bool) {
	if g.logg == nil {
		return
	}
	logCtx := g.logg.WithFields(ctx, map[string]any{
		"operation": op,
		"reference": ref,
		"succeeded": ok,
	})
	g.logg.Info(logCtx, "square gateway call")
}

func (g *SquareGateway) mapError(err error, op string) error {
	var apiErr *sqcore.APIError
	if errors.As(err, &apiErr) {
		code := pkgerrors.CodeDependency
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			code = pkgerrors.CodeValidation
		}
		return pkgerrors.Wrap(code, err, fmt.Sprintf("square %s failed", op))
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("square %s failed", op))
}

var centsFactor = decimal.NewFromInt(100)

func paymentCompleted(payment *sq.Payment) bool {
	if payment == nil {
		return false
	}
	status := stringValue(payment.GetStatus())
	return status == "COMPLETED" || status == "APPROVED"
}

func paymentStatus(payment *sq.Payment) string {
	if payment == nil {
		return "no payment returned"
	}
	return stringValue(payment.GetStatus())
}

func refundAccepted(refund *sq.PaymentRefund) bool {
	if refund == nil {
		return false
	}
	status := stringValue(refund.GetStatus())
	return status == "COMPLETED" || status == "PENDING"
}

func refundStatus(refund *sq.PaymentRefund) string {
	if refund == nil {
		return "no refund returned"
	}
	return stringValue(refund.GetStatus())
}

func squareCurrency(currency enums.Currency) *sq.Currency {
	code := sq.Currency(string(currency))
	return &code
}

func stringPtr(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func stringValue(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

func amountPtr(value int64) *int64 {
	return &value
}

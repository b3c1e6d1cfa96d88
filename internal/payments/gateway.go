package payments

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/EmreUYGUNX/lumi-commerce/pkg/enums"
)

// ChargeRequest captures a payment against an order total.
type ChargeRequest struct {
	SourceToken    string
	Amount         decimal.Decimal
	Currency       enums.Currency
	ReferenceID    string
	IdempotencyKey string
}

// ChargeResult reports the provider outcome for a charge.
type ChargeResult struct {
	Succeeded     bool
	ProviderRef   string
	FailureReason string
}

// RefundRequest returns money against a previously captured payment.
type RefundRequest struct {
	PaymentRef     string
	Amount         decimal.Decimal
	Currency       enums.Currency
	Reason         string
	IdempotencyKey string
}

// RefundResult reports the provider outcome for a refund. A declined refund
// is a result, not an error; errors are reserved for transport failures.
type RefundResult struct {
	Succeeded     bool
	GatewayRef    string
	FailureReason string
}

// Gateway abstracts the payment provider so order flows never talk to a
// provider SDK directly.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	Refund(ctx context.Context, req RefundRequest) (*RefundResult, error)
}

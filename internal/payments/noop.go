package payments

import (
	"context"

	"github.com/google/uuid"

	pkgerrors "github.com/EmreUYGUNX/lumi-commerce/pkg/errors"
)

// NoopGateway approves every charge and refund. Wired when no provider
// credentials are configured, which keeps local development flowing.
type NoopGateway struct{}

func NewNoopGateway() *NoopGateway {
	return &NoopGateway{}
}

func (g *NoopGateway) Charge(_ context.Context, req ChargeRequest) (*ChargeResult, error) {
	if !req.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "charge amount must be positive")
	}
	return &ChargeResult{
		Succeeded:   true,
		ProviderRef: "noop-charge-" + uuid.NewString(),
	}, nil
}

func (g *NoopGateway) Refund(_ context.Context, req RefundRequest) (*RefundResult, error) {
	if !req.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount must be positive")
	}
	return &RefundResult{
		Succeeded:  true,
		GatewayRef: "noop-refund-" + uuid.NewString(),
	}, nil
}

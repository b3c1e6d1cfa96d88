package payments

import (
	"testing"

	sq "github.com/square/square-go-sdk"
)

func TestBuildRefundResult(t *testing.T) {
	t.Parallel()

	completed := "COMPLETED"
	result := buildRefundResult(&sq.PaymentRefund{ID: "rf_1", Status: &completed})
	if !result.Succeeded {
		t.Fatal("expected completed refund to succeed")
	}
	if result.GatewayRef != "rf_1" {
		t.Fatalf("expected gateway ref rf_1, got %q", result.GatewayRef)
	}

	rejected := "REJECTED"
	result = buildRefundResult(&sq.PaymentRefund{ID: "rf_2", Status: &rejected})
	if result.Succeeded {
		t.Fatal("expected rejected refund to fail")
	}
	if result.FailureReason != "REJECTED" {
		t.Fatalf("expected failure reason REJECTED, got %q", result.FailureReason)
	}

	result = buildRefundResult(nil)
	if result.Succeeded || result.GatewayRef != "" {
		t.Fatalf("expected empty result for missing refund, got %+v", result)
	}
}

func TestPaymentCompleted(t *testing.T) {
	t.Parallel()

	for status, want := range map[string]bool{"COMPLETED": true, "APPROVED": true, "FAILED": false} {
		s := status
		if got := paymentCompleted(&sq.Payment{Status: &s}); got != want {
			t.Errorf("paymentCompleted(%s) = %v, want %v", status, got, want)
		}
	}
	if paymentCompleted(nil) {
		t.Error("expected nil payment to be incomplete")
	}
}

package orders

import (
	"testing"

	"github.com/EmreUYGUNX/lumi-commerce/pkg/enums"
	pkgerrors "github.com/EmreUYGUNX/lumi-commerce/pkg/errors"
)

func TestCanTransitionForwardPath(t *testing.T) {
	t.Parallel()

	path := []enums.OrderStatus{
		enums.OrderStatusPending,
		enums.OrderStatusPaid,
		enums.OrderStatusFulfilled,
		enums.OrderStatusShipped,
		enums.OrderStatusDelivered,
	}
	for i := 0; i < len(path)-1; i++ {
		if !CanTransition(path[i], path[i+1]) {
			t.Fatalf("expected %s -> %s to be allowed", path[i], path[i+1])
		}
	}
}

func TestCanTransitionNoSkipping(t *testing.T) {
	t.Parallel()

	if CanTransition(enums.OrderStatusPending, enums.OrderStatusShipped) {
		t.Fatal("pending must not jump to shipped")
	}
	if CanTransition(enums.OrderStatusPaid, enums.OrderStatusDelivered) {
		t.Fatal("paid must not jump to delivered")
	}
	if CanTransition(enums.OrderStatusShipped, enums.OrderStatusPaid) {
		t.Fatal("no backwards transitions")
	}
}

func TestCancellationFromNonTerminalStatuses(t *testing.T) {
	t.Parallel()

	for _, from := range []enums.OrderStatus{
		enums.OrderStatusPending,
		enums.OrderStatusPaid,
		enums.OrderStatusFulfilled,
		enums.OrderStatusShipped,
	} {
		if !CanTransition(from, enums.OrderStatusCancelled) {
			t.Fatalf("expected cancellation from %s", from)
		}
	}
}

func TestTerminalStatusesAreFinal(t *testing.T) {
	t.Parallel()

	for _, from := range []enums.OrderStatus{enums.OrderStatusDelivered, enums.OrderStatusCancelled} {
		for _, to := range []enums.OrderStatus{
			enums.OrderStatusPending,
			enums.OrderStatusPaid,
			enums.OrderStatusFulfilled,
			enums.OrderStatusShipped,
			enums.OrderStatusDelivered,
			enums.OrderStatusCancelled,
		} {
			if CanTransition(from, to) {
				t.Fatalf("terminal status %s must not transition to %s", from, to)
			}
		}
	}
}

func TestCheckTransitionErrors(t *testing.T) {
	t.Parallel()

	err := checkTransition(enums.OrderStatusPending, enums.OrderStatus("bogus"))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}

	err = checkTransition(enums.OrderStatusDelivered, enums.OrderStatusCancelled)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := checkTransition(enums.OrderStatusPending, enums.OrderStatusPaid); err != nil {
		t.Fatalf("valid transition rejected: %v", err)
	}
}

package orders

import (
	"regexp"
	"testing"
	"time"
)

func TestNewReferenceFormat(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	pattern := regexp.MustCompile(`^ORD-20260829-[23456789ABCDEFGHJKLMNPQRSTUVWXYZ]{6}$`)

	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		ref, err := newReference(now)
		if err != nil {
			t.Fatalf("generate reference: %v", err)
		}
		if !pattern.MatchString(ref) {
			t.Fatalf("reference %q does not match expected format", ref)
		}
		seen[ref] = true
	}
	// 200 draws from a 32^6 space should never collide.
	if len(seen) != 200 {
		t.Fatalf("expected 200 unique references, got %d", len(seen))
	}
}

package orders

import (
	"crypto/rand"
	"fmt"
	"time"
)

// Reference alphabet excludes 0/O and 1/I to keep codes readable over the
// phone and in support tickets.
const referenceAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

const referenceSuffixLength = 6

// newReference builds a human-readable order reference such as
// ORD-20260829-7GK2QX. Uniqueness is enforced by the database index; callers
// retry on collision.
func newReference(now time.Time) (string, error) {
	buf := make([]byte, referenceSuffixLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reading randomness: %w", err)
	}
	for i, b := range buf {
		buf[i] = referenceAlphabet[int(b)%len(referenceAlphabet)]
	}
	return fmt.Sprintf("ORD-%s-%s", now.UTC().Format("20060102"), string(buf)), nil
}

package orders

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const orderCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateOrderCode returns a human-readable order reference such as
// ORD-20250901-7KQ2MX. The suffix is drawn from crypto/rand over an alphabet
// with no ambiguous characters (no 0/O, 1/I).
func GenerateOrderCode(now time.Time) (string, error) {
	suffix := make([]byte, 6)
	max := big.NewInt(int64(len(orderCodeAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate order code: %w", err)
		}
		suffix[i] = orderCodeAlphabet[n.Int64()]
	}
	return fmt.Sprintf("ORD-%s-%s", now.UTC().Format("20060102"), suffix), nil
}

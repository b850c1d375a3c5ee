package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// One-time pickup/delivery codes: 6 decimal digits, uniform over
// 100000-999999, drawn from the OS entropy source. Compared by exact string
// equality only.

const codeSpan = 900000

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpan))
	if err != nil {
		return "", fmt.Errorf("cannot draw one-time code: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+100000), nil
}

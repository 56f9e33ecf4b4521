package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
)

// NumericCode returns a uniformly random string of digits, zero padded to
// the requested length ("004217" is a valid 6 digit code).
func NumericCode(digits int) (string, error) {
	if digits <= 0 || digits > 18 {
		return "", fmt.Errorf("code length must be within 1..18, got %d", digits)
	}

	upper := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, upper)
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}

	return fmt.Sprintf("%0*d", digits, n.Int64()), nil
}

// EqualCode compares two codes in constant time.
func EqualCode(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

package security

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strconv"
)

const (
	// DefaultCodeDigits is the length of codes sent to users by email.
	DefaultCodeDigits = 4

	minCodeDigits = 4
	maxCodeDigits = 10
)

var ErrInvalidCodeDigits = errors.New("code digits must be between 4 and 10")

// GenerateNumericCode returns a random decimal code with exactly the given
// number of digits. The first digit is never zero, so a 4 digit code is drawn
// uniformly from 1000-9999.
func GenerateNumericCode(digits int) (string, error) {
	if digits < minCodeDigits || digits > maxCodeDigits {
		return "", ErrInvalidCodeDigits
	}

	low := pow10(digits - 1)
	span := new(big.Int).Mul(big.NewInt(9), big.NewInt(low))

	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", err
	}

	return strconv.FormatInt(low+n.Int64(), 10), nil
}

func pow10(n int) int64 {
	v := int64(1)
	for i := 0; i < n; i++ {
		v *= 10
	}
	return v
}

package utils

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

var ErrOTPLength = errors.New("otp length must be between 1 and 9 digits")

// GenerateOTP returns a zero-padded numeric code drawn uniformly from [0, 10^digits).
func GenerateOTP(digits int) (string, error) {
	if digits < 1 || digits > 9 {
		return "", ErrOTPLength
	}
	n, err := rand.Int(rand.Reader, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", digits, n.Int64()), nil
}

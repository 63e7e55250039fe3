package util

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
)

var otpDigitRange = big.NewInt(10)

// GenerateNumericOTP draws a fixed-length numeric code from crypto/rand.
// Every digit is drawn independently so leading zeros are as likely as any
// other digit.
func GenerateNumericOTP(digits int) (string, error) {
	if digits <= 0 {
		return "", errors.New("otp length must be positive")
	}
	var b strings.Builder
	b.Grow(digits)
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, otpDigitRange)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}

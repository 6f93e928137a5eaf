package crypto

import (
	"crypto/rand"
	"errors"
	"math/big"
)

const (
	digitChars = "0123456789"

	// OTPLength is the width of every issued one-time code.
	OTPLength = 6
)

var ErrOTPLength = errors.New("otp length must be positive")

// OTPGenerator produces fixed-width numeric one-time codes.
type OTPGenerator interface {
	Generate() (string, error)
}

// NumericOTP draws each digit independently from crypto/rand, so leading zeros are kept.
type NumericOTP struct {
	Length int
}

// NewNumericOTP returns a generator for OTPLength-digit codes.
func NewNumericOTP() NumericOTP {
	return NumericOTP{Length: OTPLength}
}

func (g NumericOTP) Generate() (string, error) {
	if g.Length <= 0 {
		return "", ErrOTPLength
	}

	code := make([]byte, g.Length)
	for i := range code {
		ch, err := randChar(digitChars)
		if err != nil {
			return "", err
		}
		code[i] = ch
	}
	return string(code), nil
}

// randChar picks a random character from charset using crypto/rand.
func randChar(charset string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
	if err != nil {
		return 0, err
	}
	return charset[n.Int64()], nil
}

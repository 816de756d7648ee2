package service

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"time"
)

const (
	// CodeLength is the number of digits in a passcode.
	CodeLength = 6
	// CodeValidity is how long an issued passcode can be consumed.
	CodeValidity = 10 * time.Minute

	codeMin  = 100000
	codeSpan = 900000
)

// GenerateCode returns a uniformly random six-digit passcode in [100000, 999999].
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpan))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+codeMin, 10), nil
}

// wellFormedCode reports whether code is exactly six ASCII digits.
func wellFormedCode(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

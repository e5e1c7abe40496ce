// Package accountnumber implements the account-number generator (§4.1):
// a uniform random numeric identifier with a Luhn mod-10 check digit,
// uniqueness-checked against storage with a bounded retry.
package accountnumber

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/vertexpay/core/pkg/apperr"
)

const (
	minLength   = 10
	maxLength   = 16
	widenLength = 14
	retryBound  = 10
)

// ExistsChecker is the minimal storage contract the generator needs.
type ExistsChecker interface {
	AccountNumberExists(ctx context.Context, accountNumber string) (bool, error)
}

// Generator produces Luhn-valid account numbers unique against storage.
type Generator struct {
	Length  int
	Checker ExistsChecker
}

func NewGenerator(length int, checker ExistsChecker) *Generator {
	if length < minLength {
		length = minLength
	}

	if length > maxLength {
		length = maxLength
	}

	return &Generator{Length: length, Checker: checker}
}

// Generate produces a unique, Luhn-valid account number. On retry-bound
// exhaustion at the configured length it widens once to 14 digits and
// retries the same bound before failing (Open Question 4).
func (g *Generator) Generate(ctx context.Context) (string, error) {
	if n, err := g.tryAtLength(ctx, g.Length); err == nil {
		return n, nil
	}

	if g.Length < widenLength {
		if n, err := g.tryAtLength(ctx, widenLength); err == nil {
			return n, nil
		}
	}

	return "", apperr.ErrAccountNumberExhausted
}

func (g *Generator) tryAtLength(ctx context.Context, length int) (string, error) {
	for attempt := 0; attempt < retryBound; attempt++ {
		candidate, err := randomWithCheckDigit(length)
		if err != nil {
			return "", err
		}

		exists, err := g.Checker.AccountNumberExists(ctx, candidate)
		if err != nil {
			return "", err
		}

		if !exists {
			return candidate, nil
		}
	}

	return "", apperr.ErrAccountNumberExhausted
}

func randomWithCheckDigit(length int) (string, error) {
	digits := make([]int, length-1)

	first, err := randomDigit(1, 9)
	if err != nil {
		return "", err
	}

	digits[0] = first

	for i := 1; i < length-1; i++ {
		d, err := randomDigit(0, 9)
		if err != nil {
			return "", err
		}

		digits[i] = d
	}

	prefix := make([]byte, length-1)
	for i, d := range digits {
		prefix[i] = byte('0' + d)
	}

	check := LuhnCheckDigit(string(prefix))

	return string(prefix) + fmt.Sprintf("%d", check), nil
}

func randomDigit(min, max int) (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max-min+1)))
	if err != nil {
		return 0, err
	}

	return min + int(n.Int64()), nil
}

// LuhnCheckDigit computes the Luhn mod-10 check digit for a string of
// decimal digits (the payload, without the check digit itself).
func LuhnCheckDigit(payload string) int {
	sum := 0
	alternate := true // rightmost payload digit is doubled first

	for i := len(payload) - 1; i >= 0; i-- {
		d := int(payload[i] - '0')

		if alternate {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}

		sum += d
		alternate = !alternate
	}

	return (10 - (sum % 10)) % 10
}

// ValidLuhn reports whether an all-digit string's last digit is the correct
// Luhn check digit of the digits preceding it (§4.1 validation, §8 property
// 5).
func ValidLuhn(number string) bool {
	if len(number) < minLength || len(number) > maxLength {
		return false
	}

	for _, r := range number {
		if r < '0' || r > '9' {
			return false
		}
	}

	payload := number[:len(number)-1]
	want := int(number[len(number)-1] - '0')

	return LuhnCheckDigit(payload) == want
}

package utils

import (
	"math/big"
	"strings"

	"github.com/cockroachdb/errors"
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrTooManyDecimals = errors.New("too many decimal places")
)

// MaxDecimals bounds the exponent so 10^decimals stays a sane uint256 scale.
const MaxDecimals = 77

// ParseUnits converts a human decimal string ("1.5") into base units using decimals.
//
// Accepted: digits with at most one '.', e.g. "10", "0.25", ".5", "5.".
// Rejected: signs, exponents, whitespace inside the number, and any non-zero digit
// past the token's precision. Trailing zeros beyond the precision carry no value and are dropped.
func ParseUnits(amount string, decimals uint8) (*big.Int, error) {
	if decimals > MaxDecimals {
		return nil, errors.Wrapf(ErrInvalidAmount, "decimals %d out of range", decimals)
	}

	s := strings.TrimSpace(amount)
	if s == "" {
		return nil, errors.Wrap(ErrInvalidAmount, "empty amount")
	}

	intPart, fracPart, hasDot := strings.Cut(s, ".")
	if hasDot && strings.Contains(fracPart, ".") {
		return nil, errors.Wrapf(ErrInvalidAmount, "%q has more than one decimal point", amount)
	}
	if intPart == "" && fracPart == "" {
		return nil, errors.Wrapf(ErrInvalidAmount, "%q has no digits", amount)
	}
	if !isDigits(intPart) || !isDigits(fracPart) {
		return nil, errors.Wrapf(ErrInvalidAmount, "%q is not a non-negative decimal number", amount)
	}

	fracPart = strings.TrimRight(fracPart, "0")
	if len(fracPart) > int(decimals) {
		return nil, errors.Wrapf(ErrTooManyDecimals, "%q has %d fractional digits, token allows %d",
			amount, len(fracPart), decimals)
	}

	digits := intPart + fracPart + strings.Repeat("0", int(decimals)-len(fracPart))
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return new(big.Int), nil
	}

	out, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidAmount, "%q", amount)
	}
	return out, nil
}

// FormatUnits is the exact inverse of ParseUnits: no rounding, trailing zeros trimmed.
//
//	amount=1234500000000000000, decimals=18 -> "1.2345"
//	amount=1000000000000000000, decimals=18 -> "1"
//	amount=1,                   decimals=18 -> "0.000000000000000001"
func FormatUnits(amount *big.Int, decimals uint8) string {
	return FormatUnitsTrim(amount, decimals, int(decimals))
}

// FormatUnitsTrim renders base units as a decimal string cut to maxFrac fractional digits.
// Cutting truncates; it never rounds up.
func FormatUnitsTrim(amount *big.Int, decimals uint8, maxFrac int) string {
	if amount == nil || amount.Sign() == 0 {
		return "0"
	}

	neg := amount.Sign() < 0
	abs := new(big.Int).Abs(amount)

	base := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	intPart, fracPart := new(big.Int).QuoRem(abs, base, new(big.Int))

	sign := ""
	if neg {
		sign = "-"
	}

	if fracPart.Sign() == 0 || maxFrac <= 0 {
		return sign + intPart.String()
	}

	fracStr := fracPart.String()
	if len(fracStr) < int(decimals) {
		fracStr = strings.Repeat("0", int(decimals)-len(fracStr)) + fracStr
	}
	if len(fracStr) > maxFrac {
		fracStr = fracStr[:maxFrac]
	}

	fracStr = strings.TrimRight(fracStr, "0")
	if fracStr == "" {
		return sign + intPart.String()
	}
	return sign + intPart.String() + "." + fracStr
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

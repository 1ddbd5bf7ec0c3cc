package amounts

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrDivisionByZero = errors.New("division by zero")

// reciprocalPrecision bounds the decimal places kept when inverting a
// ratio. High enough that a forward/backward round trip stays within any
// token's display precision.
const reciprocalPrecision = 32

// MulToDisplay multiplies two decimals and rounds the product to a token's
// maximum display precision, half away from zero. The rounding is cosmetic
// but must be applied on every path that produces a user-visible amount,
// otherwise the two sides of a pair drift apart on recompute.
func MulToDisplay(a, b decimal.Decimal, places int32) decimal.Decimal {
	return a.Mul(b).Round(places)
}

// ToDisplay rounds a value to a token's maximum display precision.
func ToDisplay(v decimal.Decimal, places int32) decimal.Decimal {
	return v.Round(places)
}

// Reciprocal inverts a positive ratio with fixed precision.
func Reciprocal(v decimal.Decimal) (decimal.Decimal, error) {
	if v.IsZero() {
		return decimal.Zero, ErrDivisionByZero
	}
	return decimal.NewFromInt(1).DivRound(v, reciprocalPrecision), nil
}

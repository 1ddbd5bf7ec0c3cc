package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side identifies which leg of a trading pair an amount belongs to.
type Side uint8

const (
	SideUnset Side = iota
	SideA
	SideB
)

func (s Side) String() string {
	switch s {
	case SideA:
		return "A"
	case SideB:
		return "B"
	default:
		return "unset"
	}
}

// PriceRatio is a point-in-time snapshot of an AMM pair's exchange rate.
// Forward is units of token B per 1 token A, Backward the reciprocal.
// Snapshots are replaced wholesale on each tick, never mutated.
type PriceRatio struct {
	Forward  decimal.Decimal `json:"forward"`
	Backward decimal.Decimal `json:"backward"`
	Observed time.Time       `json:"observed"`
}

// AmountPair is a snapshot of the two deposit amounts for a pair.
// A nil amount means absent, which is distinct from zero: the UI must not
// render an absent amount as 0.
type AmountPair struct {
	AmountA    *decimal.Decimal `json:"amountA"`
	AmountB    *decimal.Decimal `json:"amountB"`
	LastEdited Side             `json:"lastEdited"`
	Stale      bool             `json:"stale"`
}

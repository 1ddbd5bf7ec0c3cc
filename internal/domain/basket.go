package domain

import (
	"github.com/shopspring/decimal"
)

// Basket maps a pool/token identifier to its fractional allocation weight.
// Source data is approximate: fractions do not have to sum to exactly 1.
type Basket map[string]decimal.Decimal

// NormalizedBasket maps the same identifiers to integer percentages.
// Invariant: values sum to exactly 100.
type NormalizedBasket map[string]int

// Sum returns the total of all normalized percentages.
func (b NormalizedBasket) Sum() int {
	total := 0
	for _, v := range b {
		total += v
	}
	return total
}

// StoredBasket is a named, persisted basket together with its normalized
// form, as kept in the basket store.
type StoredBasket struct {
	Name       string           `json:"name"`
	Weights    map[string]string `json:"weights"`
	Normalized NormalizedBasket `json:"normalized"`
	CreatedAt  int64            `json:"createdAt"`
}

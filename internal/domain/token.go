package domain

// Token describes one asset of a trading pair.
type Token struct {
	Symbol   string `json:"symbol"`
	Address  string `json:"address"`
	Decimals int    `json:"decimals"`

	// DisplayDecimals is the maximum number of decimal places shown to the
	// user; deposit amounts are rounded to it before they reach a contract.
	DisplayDecimals int32 `json:"displayDecimals"`

	// Native marks the chain's native asset, which needs no approval.
	Native bool `json:"native"`
}

// PairID is the canonical identifier for a trading pair session.
func PairID(a, b Token) string {
	return a.Symbol + "-" + b.Symbol
}

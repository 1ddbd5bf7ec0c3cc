package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// TokenContractHandle is the boundary to one token's on-chain contract.
// A handle backed by the chain's native asset reports approval as trivially
// satisfied without issuing a transaction.
type TokenContractHandle interface {
	Token() Token
	Approve(ctx context.Context, amount decimal.Decimal) (*Receipt, error)
}

// RouterHandle is the boundary to the AMM router the deposit goes through.
type RouterHandle interface {
	AddLiquidity(ctx context.Context, tokenA, tokenB Token, amountA, amountB decimal.Decimal, slippagePercent int) (*Receipt, error)
}

// FeedEvent is one element of a price feed stream. A non-nil Err marks a
// feed gap: consumers freeze their last known amounts until the next good
// tick rather than zeroing them.
type FeedEvent struct {
	Ratio PriceRatio
	Err   error
}

// PriceFeed produces an ordered stream of price ratio snapshots for one
// trading pair. The stream ends when ctx is cancelled.
type PriceFeed interface {
	Subscribe(ctx context.Context) (<-chan FeedEvent, error)
}

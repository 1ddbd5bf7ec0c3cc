package evm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/dustprotocol/dust-client/internal/domain"
	"github.com/dustprotocol/dust-client/internal/metrics"
)

const ratioPrecision = 32

var ErrEmptyReserves = errors.New("pair has empty reserves")

// reserveFeed polls a Uniswap-v2-style pair contract's getReserves() and
// emits reciprocal price ratio snapshots. A failed poll emits a feed gap
// instead of a ratio; the stream itself stays alive until ctx is done.
type reserveFeed struct {
	svc      *Service
	pair     common.Address
	tokenA   domain.Token
	tokenB   domain.Token
	interval time.Duration
}

func (f *reserveFeed) Subscribe(ctx context.Context) (<-chan domain.FeedEvent, error) {
	out := make(chan domain.FeedEvent, 1)
	go f.poll(ctx, out)
	return out, nil
}

func (f *reserveFeed) poll(ctx context.Context, out chan<- domain.FeedEvent) {
	defer close(out)

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	// first snapshot immediately, then on the interval
	f.emit(ctx, out)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.emit(ctx, out)
		}
	}
}

func (f *reserveFeed) emit(ctx context.Context, out chan<- domain.FeedEvent) {
	ratio, err := f.fetchRatio(ctx)
	var ev domain.FeedEvent
	if err != nil {
		metrics.FeedGaps.Inc()
		ev = domain.FeedEvent{Err: err}
	} else {
		metrics.FeedTicks.Inc()
		ev = domain.FeedEvent{Ratio: *ratio}
	}
	select {
	case out <- ev:
	case <-ctx.Done():
	}
}

func (f *reserveFeed) fetchRatio(ctx context.Context) (*domain.PriceRatio, error) {
	raw, err := f.svc.client.CallContract(ctx, ethereum.CallMsg{
		To:   &f.pair,
		Data: selGetReserves,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("getReserves: %w", err)
	}
	if len(raw) < 64 {
		return nil, fmt.Errorf("getReserves: short response (%d bytes)", len(raw))
	}

	reserve0 := new(big.Int).SetBytes(raw[0:32])
	reserve1 := new(big.Int).SetBytes(raw[32:64])

	// the pair contract orders reserves by token address
	reserveA, reserveB := reserve0, reserve1
	addrA := common.HexToAddress(f.tokenA.Address)
	addrB := common.HexToAddress(f.tokenB.Address)
	if bytes.Compare(addrA.Bytes(), addrB.Bytes()) > 0 {
		reserveA, reserveB = reserve1, reserve0
	}

	if reserveA.Sign() == 0 || reserveB.Sign() == 0 {
		return nil, ErrEmptyReserves
	}

	amtA := WeiToDecimal(reserveA, f.tokenA.Decimals)
	amtB := WeiToDecimal(reserveB, f.tokenB.Decimals)

	forward := amtB.DivRound(amtA, ratioPrecision)
	backward := amtA.DivRound(amtB, ratioPrecision)

	return &domain.PriceRatio{
		Forward:  forward,
		Backward: backward,
		Observed: time.Now(),
	}, nil
}

// NewStaticFeed returns a feed that emits a single fixed ratio, useful for
// local runs without a chain connection.
func NewStaticFeed(forward decimal.Decimal) (domain.PriceFeed, error) {
	if !forward.IsPositive() {
		return nil, errors.New("static feed ratio must be positive")
	}
	backward := decimal.NewFromInt(1).DivRound(forward, ratioPrecision)
	return &staticFeed{ratio: domain.PriceRatio{Forward: forward, Backward: backward, Observed: time.Now()}}, nil
}

type staticFeed struct {
	ratio domain.PriceRatio
}

func (f *staticFeed) Subscribe(ctx context.Context) (<-chan domain.FeedEvent, error) {
	out := make(chan domain.FeedEvent, 1)
	out <- domain.FeedEvent{Ratio: f.ratio}
	go func() {
		<-ctx.Done()
		close(out)
	}()
	return out, nil
}

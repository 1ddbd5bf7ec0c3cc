package amounts

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/dustprotocol/dust-client/internal/domain"
	"github.com/dustprotocol/dust-client/internal/metrics"
)

var ErrSessionClosed = errors.New("session closed")

// DisplayPolicy supplies the maximum display decimal places per token.
type DisplayPolicy interface {
	DisplayDecimals(symbol string) int32
}

type editEvent struct {
	side  domain.Side
	value *decimal.Decimal
	done  chan struct{}
}

type ratioEvent struct {
	ratio domain.PriceRatio
}

type feedGapEvent struct {
	err error
}

// Session synchronizes the two deposit amounts of one trading pair.
//
// At most one side is ever the source of truth (the last edited); the other
// is always recomputed from it and the current ratio. Edits and ratio ticks
// are delivered through a single event channel consumed by one goroutine,
// so no tick can be applied out of order relative to an edit that preceded
// it.
type Session struct {
	id     string
	tokenA domain.Token
	tokenB domain.Token
	policy DisplayPolicy

	events chan any
	cancel context.CancelFunc
	closed chan struct{}

	// state below is written only by the run loop
	mu         sync.RWMutex
	lastEdited domain.Side
	amountA    *decimal.Decimal
	amountB    *decimal.Decimal
	ratio      *domain.PriceRatio
	stale      bool
}

// NewSession creates a session for a pair and starts its event loop. feed
// may be nil when no live pricing is attached (tests drive ticks directly).
func NewSession(tokenA, tokenB domain.Token, policy DisplayPolicy, feed domain.PriceFeed) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:     domain.PairID(tokenA, tokenB),
		tokenA: tokenA,
		tokenB: tokenB,
		policy: policy,
		events: make(chan any, 16),
		cancel: cancel,
		closed: make(chan struct{}),
	}
	go s.run(ctx)
	if feed != nil {
		go s.consumeFeed(ctx, feed)
	}
	metrics.ActiveSessions.Inc()
	return s
}

func (s *Session) ID() string {
	return s.id
}

// Close tears the session down. On-chain or feed results arriving after
// Close are discarded, never applied.
func (s *Session) Close() {
	s.cancel()
	<-s.closed
	metrics.ActiveSessions.Dec()
}

// EditAmount records a user edit on one side and recomputes the other from
// the current ratio. A nil, zero or negative value clears both sides to
// absent. The call returns once the edit has been applied, so a Snapshot
// immediately after sees it.
func (s *Session) EditAmount(ctx context.Context, side domain.Side, value *decimal.Decimal) error {
	ev := editEvent{side: side, value: value, done: make(chan struct{})}
	select {
	case s.events <- ev:
	case <-s.closed:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-ev.done:
		return nil
	case <-s.closed:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PushRatio delivers a price ratio tick to the session.
func (s *Session) PushRatio(ratio domain.PriceRatio) {
	select {
	case s.events <- ratioEvent{ratio: ratio}:
	case <-s.closed:
	}
}

// Snapshot returns the current amount pair state.
func (s *Session) Snapshot() domain.AmountPair {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.AmountPair{
		AmountA:    copyDecimal(s.amountA),
		AmountB:    copyDecimal(s.amountB),
		LastEdited: s.lastEdited,
		Stale:      s.stale,
	}
}

// Ratio returns the last known price ratio, or nil before the first tick.
func (s *Session) Ratio() *domain.PriceRatio {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ratio == nil {
		return nil
	}
	r := *s.ratio
	return &r
}

func (s *Session) run(ctx context.Context) {
	defer close(s.closed)
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-s.events:
			switch e := ev.(type) {
			case editEvent:
				s.applyEdit(e.side, e.value)
				close(e.done)
				metrics.SyncEvents.WithLabelValues("edit").Inc()
			case ratioEvent:
				s.applyRatio(e.ratio)
				metrics.SyncEvents.WithLabelValues("tick").Inc()
			case feedGapEvent:
				s.markStale(e.err)
				metrics.SyncEvents.WithLabelValues("gap").Inc()
			}
		}
	}
}

func (s *Session) consumeFeed(ctx context.Context, feed domain.PriceFeed) {
	ch, err := feed.Subscribe(ctx)
	if err != nil {
		log.Error().Str("pair", s.id).Err(err).Msg("[session] feed subscription failed")
		select {
		case s.events <- feedGapEvent{err: err}:
		case <-ctx.Done():
		}
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			var out any
			if ev.Err != nil {
				out = feedGapEvent{err: ev.Err}
			} else {
				out = ratioEvent{ratio: ev.Ratio}
			}
			select {
			case s.events <- out:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (s *Session) applyEdit(side domain.Side, value *decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastEdited = side
	if value == nil || !value.IsPositive() {
		// absent, not zero: the UI distinguishes a cleared field from 0
		s.amountA = nil
		s.amountB = nil
		return
	}

	if side == domain.SideA {
		a := ToDisplay(*value, s.policy.DisplayDecimals(s.tokenA.Symbol))
		s.amountA = &a
		s.amountB = nil
		if s.ratio != nil {
			b := MulToDisplay(*value, s.ratio.Forward, s.policy.DisplayDecimals(s.tokenB.Symbol))
			s.amountB = &b
		}
		return
	}

	b := ToDisplay(*value, s.policy.DisplayDecimals(s.tokenB.Symbol))
	s.amountB = &b
	s.amountA = nil
	if s.ratio != nil {
		a := MulToDisplay(*value, s.ratio.Backward, s.policy.DisplayDecimals(s.tokenA.Symbol))
		s.amountA = &a
	}
}

func (s *Session) applyRatio(ratio domain.PriceRatio) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ratio = &ratio
	s.stale = false

	switch s.lastEdited {
	case domain.SideUnset:
		// the first tick before any user interaction must not populate
		// the amounts
	case domain.SideA:
		if s.amountA != nil {
			b := MulToDisplay(*s.amountA, ratio.Forward, s.policy.DisplayDecimals(s.tokenB.Symbol))
			s.amountB = &b
		}
	case domain.SideB:
		if s.amountB != nil {
			a := MulToDisplay(*s.amountB, ratio.Backward, s.policy.DisplayDecimals(s.tokenA.Symbol))
			s.amountA = &a
		}
	}
}

func (s *Session) markStale(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// a transient feed gap must not discard user input: amounts freeze
	s.stale = true
	log.Warn().Str("pair", s.id).Err(err).Msg("[session] price feed gap, amounts frozen")
}

func copyDecimal(v *decimal.Decimal) *decimal.Decimal {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

package amounts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dustprotocol/dust-client/internal/domain"
)

type stubPolicy map[string]int32

func (p stubPolicy) DisplayDecimals(symbol string) int32 {
	if v, ok := p[symbol]; ok {
		return v
	}
	return 5
}

type fakeFeed struct {
	ch chan domain.FeedEvent
}

func (f *fakeFeed) Subscribe(ctx context.Context) (<-chan domain.FeedEvent, error) {
	return f.ch, nil
}

var (
	testTokenA = domain.Token{Symbol: "DUST", Decimals: 18, DisplayDecimals: 2}
	testTokenB = domain.Token{Symbol: "ETH", Decimals: 18, DisplayDecimals: 5, Native: true}
	testPolicy = stubPolicy{"DUST": 2, "ETH": 5}
)

func testRatio(forward string) domain.PriceRatio {
	f := decimal.RequireFromString(forward)
	return domain.PriceRatio{
		Forward:  f,
		Backward: decimal.NewFromInt(1).DivRound(f, 32),
		Observed: time.Now(),
	}
}

func newTestSession() *Session {
	return NewSession(testTokenA, testTokenB, testPolicy, nil)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestEditComputesOtherSideFromRatio(t *testing.T) {
	s := newTestSession()
	defer s.Close()

	s.PushRatio(testRatio("0.0004"))
	waitFor(t, func() bool { return s.Ratio() != nil })

	if err := s.EditAmount(context.Background(), domain.SideA, dec("1000")); err != nil {
		t.Fatalf("EditAmount: %v", err)
	}

	snap := s.Snapshot()
	if snap.LastEdited != domain.SideA {
		t.Errorf("lastEdited = %v, want A", snap.LastEdited)
	}
	if snap.AmountA == nil || !snap.AmountA.Equal(decimal.RequireFromString("1000")) {
		t.Errorf("amountA = %v, want 1000", snap.AmountA)
	}
	if snap.AmountB == nil || !snap.AmountB.Equal(decimal.RequireFromString("0.4")) {
		t.Errorf("amountB = %v, want 0.4", snap.AmountB)
	}
}

func TestRatioTickWhileUnsetLeavesAmountsAbsent(t *testing.T) {
	s := newTestSession()
	defer s.Close()

	s.PushRatio(testRatio("0.0004"))
	waitFor(t, func() bool { return s.Ratio() != nil })

	snap := s.Snapshot()
	if snap.AmountA != nil || snap.AmountB != nil {
		t.Errorf("amounts = (%v, %v), want both absent before any edit", snap.AmountA, snap.AmountB)
	}
	if snap.LastEdited != domain.SideUnset {
		t.Errorf("lastEdited = %v, want unset", snap.LastEdited)
	}
}

func TestRatioTickRecomputesLastEditedSide(t *testing.T) {
	s := newTestSession()
	defer s.Close()

	s.PushRatio(testRatio("0.0004"))
	waitFor(t, func() bool { return s.Ratio() != nil })

	if err := s.EditAmount(context.Background(), domain.SideA, dec("1000")); err != nil {
		t.Fatalf("EditAmount: %v", err)
	}

	// price moves: B must follow without the user re-typing
	s.PushRatio(testRatio("0.0005"))
	waitFor(t, func() bool {
		snap := s.Snapshot()
		return snap.AmountB != nil && snap.AmountB.Equal(decimal.RequireFromString("0.5"))
	})

	snap := s.Snapshot()
	if snap.AmountA == nil || !snap.AmountA.Equal(decimal.RequireFromString("1000")) {
		t.Errorf("amountA = %v, want 1000 (source of truth unchanged)", snap.AmountA)
	}
}

func TestRecomputeIdempotentUnderIdenticalRatio(t *testing.T) {
	s := newTestSession()
	defer s.Close()

	ratio := testRatio("0.0004")
	s.PushRatio(ratio)
	waitFor(t, func() bool { return s.Ratio() != nil })

	v := decimal.RequireFromString("123.45")
	if err := s.EditAmount(context.Background(), domain.SideA, &v); err != nil {
		t.Fatalf("EditAmount: %v", err)
	}
	first := s.Snapshot()

	again := ratio
	again.Observed = ratio.Observed.Add(time.Second)
	s.PushRatio(again)
	waitFor(t, func() bool { return s.Ratio().Observed.Equal(again.Observed) })

	second := s.Snapshot()
	want := v.Mul(ratio.Forward).Round(5)
	if second.AmountB == nil || !second.AmountB.Equal(want) {
		t.Errorf("amountB after recompute = %v, want %v", second.AmountB, want)
	}
	if !first.AmountB.Equal(*second.AmountB) {
		t.Errorf("recompute changed amountB: %v -> %v", first.AmountB, second.AmountB)
	}
}

func TestNonPositiveEditClearsBothSides(t *testing.T) {
	for _, amount := range []*decimal.Decimal{nil, dec("0"), dec("-3")} {
		s := newTestSession()

		s.PushRatio(testRatio("2"))
		waitFor(t, func() bool { return s.Ratio() != nil })
		if err := s.EditAmount(context.Background(), domain.SideA, dec("10")); err != nil {
			t.Fatalf("EditAmount: %v", err)
		}

		if err := s.EditAmount(context.Background(), domain.SideB, amount); err != nil {
			t.Fatalf("EditAmount: %v", err)
		}
		snap := s.Snapshot()
		if snap.AmountA != nil || snap.AmountB != nil {
			t.Errorf("edit %v: amounts = (%v, %v), want both absent", amount, snap.AmountA, snap.AmountB)
		}
		if snap.LastEdited != domain.SideB {
			t.Errorf("edit %v: lastEdited = %v, want B", amount, snap.LastEdited)
		}
		s.Close()
	}
}

func TestEditBeforeFirstRatioHoldsUntilTick(t *testing.T) {
	s := newTestSession()
	defer s.Close()

	if err := s.EditAmount(context.Background(), domain.SideA, dec("50")); err != nil {
		t.Fatalf("EditAmount: %v", err)
	}
	snap := s.Snapshot()
	if snap.AmountA == nil || snap.AmountB != nil {
		t.Fatalf("before tick: amounts = (%v, %v), want A set and B absent", snap.AmountA, snap.AmountB)
	}

	s.PushRatio(testRatio("3"))
	waitFor(t, func() bool { return s.Snapshot().AmountB != nil })

	snap = s.Snapshot()
	if !snap.AmountB.Equal(decimal.RequireFromString("150")) {
		t.Errorf("amountB = %v, want 150", snap.AmountB)
	}
}

func TestRoundTripWithinDisplayTolerance(t *testing.T) {
	s := newTestSession()
	defer s.Close()

	ratio := testRatio("0.0004")
	s.PushRatio(ratio)
	waitFor(t, func() bool { return s.Ratio() != nil })

	original := decimal.RequireFromString("1234.56")
	if err := s.EditAmount(context.Background(), domain.SideA, &original); err != nil {
		t.Fatalf("EditAmount: %v", err)
	}
	b := s.Snapshot().AmountB
	if b == nil {
		t.Fatal("amountB absent after edit")
	}

	if err := s.EditAmount(context.Background(), domain.SideB, b); err != nil {
		t.Fatalf("EditAmount: %v", err)
	}
	a := s.Snapshot().AmountA
	if a == nil {
		t.Fatal("amountA absent after reverse edit")
	}

	// not bit-exact: display rounding on each leg, so one unit in the last
	// display place of A is the allowed drift
	tolerance := decimal.New(1, -testTokenA.DisplayDecimals)
	if original.Sub(*a).Abs().GreaterThan(tolerance) {
		t.Errorf("round trip drifted: %v -> %v (tolerance %v)", original, a, tolerance)
	}
}

func TestFeedGapFreezesAmounts(t *testing.T) {
	feed := &fakeFeed{ch: make(chan domain.FeedEvent, 4)}
	s := NewSession(testTokenA, testTokenB, testPolicy, feed)
	defer s.Close()

	feed.ch <- domain.FeedEvent{Ratio: testRatio("2")}
	waitFor(t, func() bool { return s.Ratio() != nil })
	if err := s.EditAmount(context.Background(), domain.SideA, dec("10")); err != nil {
		t.Fatalf("EditAmount: %v", err)
	}

	feed.ch <- domain.FeedEvent{Err: errors.New("rpc unreachable")}
	waitFor(t, func() bool { return s.Snapshot().Stale })

	snap := s.Snapshot()
	if snap.AmountA == nil || snap.AmountB == nil {
		t.Error("feed gap discarded user amounts, want them frozen")
	}
	if !snap.AmountB.Equal(decimal.RequireFromString("20")) {
		t.Errorf("amountB = %v, want frozen 20", snap.AmountB)
	}

	// recovery clears the stale flag and recomputes
	feed.ch <- domain.FeedEvent{Ratio: testRatio("3")}
	waitFor(t, func() bool { return !s.Snapshot().Stale })
	if got := s.Snapshot().AmountB; got == nil || !got.Equal(decimal.RequireFromString("30")) {
		t.Errorf("amountB after recovery = %v, want 30", got)
	}
}

func TestEditAfterCloseReturnsError(t *testing.T) {
	s := newTestSession()
	s.Close()

	err := s.EditAmount(context.Background(), domain.SideA, dec("1"))
	if !errors.Is(err, ErrSessionClosed) {
		t.Errorf("err = %v, want ErrSessionClosed", err)
	}
}

func TestEventOrderingPreserved(t *testing.T) {
	s := newTestSession()
	defer s.Close()

	// a ratio tick enqueued before an edit must be applied before it
	s.PushRatio(testRatio("2"))
	if err := s.EditAmount(context.Background(), domain.SideA, dec("7")); err != nil {
		t.Fatalf("EditAmount: %v", err)
	}

	snap := s.Snapshot()
	if snap.AmountB == nil || !snap.AmountB.Equal(decimal.RequireFromString("14")) {
		t.Errorf("amountB = %v, want 14 (tick applied before edit)", snap.AmountB)
	}
}

package liquidity

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/dustprotocol/dust-client/internal/domain"
)

type fakeToken struct {
	token    domain.Token
	calls    int
	err      error
	blockCtx bool          // wait for ctx cancellation before returning
	entered  chan struct{} // closed when Approve is first reached
}

func (f *fakeToken) Token() domain.Token { return f.token }

func (f *fakeToken) Approve(ctx context.Context, amount decimal.Decimal) (*domain.Receipt, error) {
	f.calls++
	if f.entered != nil {
		close(f.entered)
		f.entered = nil
	}
	if f.blockCtx {
		<-ctx.Done()
	}
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Receipt{TxHash: "0xapprove" + f.token.Symbol}, nil
}

type fakeRouter struct {
	calls int
	err   error
}

func (f *fakeRouter) AddLiquidity(ctx context.Context, tokenA, tokenB domain.Token, amountA, amountB decimal.Decimal, slippagePercent int) (*domain.Receipt, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Receipt{TxHash: "0xdeposit", BlockNumber: 7}, nil
}

var (
	erc20A = domain.Token{Symbol: "DUST", Decimals: 18}
	erc20B = domain.Token{Symbol: "USDT", Decimals: 6}
	native = domain.Token{Symbol: "ETH", Decimals: 18, Native: true}
)

func newTestService() *Service {
	return &Service{
		slippagePercent: 10,
		inflight:        make(map[string]struct{}),
		last:            make(map[string]*domain.DepositAttempt),
	}
}

func testRequest() DepositRequest {
	return DepositRequest{
		PairID:  "DUST-USDT",
		AmountA: decimal.NewFromInt(100),
		AmountB: decimal.NewFromInt(40),
	}
}

func TestRunHappyPath(t *testing.T) {
	svc := newTestService()
	a := &fakeToken{token: erc20A}
	b := &fakeToken{token: erc20B}
	router := &fakeRouter{}

	attempt, err := svc.Run(context.Background(), testRequest(), Contracts{TokenA: a, TokenB: b, Router: router})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if attempt.Failed() {
		t.Fatalf("attempt failed at %v: %s", attempt.FailureStage, attempt.FailureMsg)
	}
	if a.calls != 1 || b.calls != 1 || router.calls != 1 {
		t.Errorf("calls = (%d, %d, %d), want one each", a.calls, b.calls, router.calls)
	}
	if !attempt.TokenAApproved || !attempt.TokenBApproved || !attempt.Deposited {
		t.Errorf("progress flags = (%v, %v, %v), want all true", attempt.TokenAApproved, attempt.TokenBApproved, attempt.Deposited)
	}
	if attempt.DepositReceipt == nil || attempt.DepositReceipt.TxHash != "0xdeposit" {
		t.Errorf("deposit receipt = %+v", attempt.DepositReceipt)
	}
	if got := svc.LastAttempt("DUST-USDT"); got != attempt {
		t.Error("successful attempt not recorded as last")
	}
}

func TestRunFirstApprovalFailureStopsSequence(t *testing.T) {
	svc := newTestService()
	a := &fakeToken{token: erc20A, err: errors.New("insufficient gas")}
	b := &fakeToken{token: erc20B}
	router := &fakeRouter{}

	attempt, err := svc.Run(context.Background(), testRequest(), Contracts{TokenA: a, TokenB: b, Router: router})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if attempt.FailureStage != domain.StageApproveA {
		t.Errorf("failure stage = %v, want approve A", attempt.FailureStage)
	}
	if b.calls != 0 {
		t.Error("approve B ran after approve A failed")
	}
	if router.calls != 0 {
		t.Error("deposit ran after a failed approval")
	}
	if attempt.TokenAApproved || attempt.TokenBApproved || attempt.Deposited {
		t.Errorf("progress flags = (%v, %v, %v), want all false", attempt.TokenAApproved, attempt.TokenBApproved, attempt.Deposited)
	}
}

func TestRunSecondApprovalFailureKeepsFirst(t *testing.T) {
	svc := newTestService()
	a := &fakeToken{token: erc20A}
	b := &fakeToken{token: erc20B, err: errors.New("nonce too low")}
	router := &fakeRouter{}

	attempt, err := svc.Run(context.Background(), testRequest(), Contracts{TokenA: a, TokenB: b, Router: router})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if attempt.FailureStage != domain.StageApproveB {
		t.Errorf("failure stage = %v, want approve B", attempt.FailureStage)
	}
	// no rollback: the granted approval stays recorded
	if !attempt.TokenAApproved {
		t.Error("approve A progress lost on approve B failure")
	}
	if router.calls != 0 {
		t.Error("deposit ran after a failed approval")
	}
}

func TestRunDepositFailureRecordsStage(t *testing.T) {
	svc := newTestService()
	a := &fakeToken{token: erc20A}
	b := &fakeToken{token: erc20B}
	router := &fakeRouter{err: errors.New("execution reverted")}

	attempt, err := svc.Run(context.Background(), testRequest(), Contracts{TokenA: a, TokenB: b, Router: router})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if attempt.FailureStage != domain.StageDeposit {
		t.Errorf("failure stage = %v, want deposit", attempt.FailureStage)
	}
	if !attempt.TokenAApproved || !attempt.TokenBApproved {
		t.Error("approvals lost on deposit failure")
	}
	if attempt.Deposited {
		t.Error("Deposited set despite router failure")
	}
}

func TestRunNativeSideSkipsApproval(t *testing.T) {
	svc := newTestService()
	a := &fakeToken{token: erc20A}
	b := &fakeToken{token: native}
	router := &fakeRouter{}

	req := testRequest()
	req.PairID = "DUST-ETH"
	attempt, err := svc.Run(context.Background(), req, Contracts{TokenA: a, TokenB: b, Router: router})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if b.calls != 0 {
		t.Error("approval submitted for the native asset")
	}
	if !attempt.TokenBApproved {
		t.Error("native side not marked approved")
	}
	if router.calls != 1 {
		t.Error("deposit did not run")
	}
}

func TestRunRejectsMissingAmounts(t *testing.T) {
	svc := newTestService()
	for _, req := range []DepositRequest{
		{PairID: "DUST-USDT", AmountA: decimal.Zero, AmountB: decimal.NewFromInt(1)},
		{PairID: "DUST-USDT", AmountA: decimal.NewFromInt(1), AmountB: decimal.NewFromInt(-2)},
	} {
		_, err := svc.Run(context.Background(), req, Contracts{})
		if !errors.Is(err, ErrMissingAmounts) {
			t.Errorf("Run(%+v) err = %v, want ErrMissingAmounts", req, err)
		}
	}
}

func TestRunRejectsConcurrentDepositOnSamePair(t *testing.T) {
	svc := newTestService()
	ctx, cancel := context.WithCancel(context.Background())
	a := &fakeToken{token: erc20A, blockCtx: true, entered: make(chan struct{})}
	b := &fakeToken{token: erc20B}
	entered := a.entered

	done := make(chan struct{})
	go func() {
		svc.Run(ctx, testRequest(), Contracts{TokenA: a, TokenB: b, Router: &fakeRouter{}})
		close(done)
	}()
	<-entered // the first run holds the pair lock from here

	if _, err := svc.Run(context.Background(), testRequest(), Contracts{}); !errors.Is(err, ErrDepositInFlight) {
		t.Fatalf("concurrent Run err = %v, want ErrDepositInFlight", err)
	}

	cancel()
	<-done

	// lock released after the first run finished
	router := &fakeRouter{}
	if _, err := svc.Run(context.Background(), testRequest(), Contracts{TokenA: &fakeToken{token: erc20A}, TokenB: &fakeToken{token: erc20B}, Router: router}); err != nil {
		t.Fatalf("Run after release: %v", err)
	}
	if router.calls != 1 {
		t.Error("deposit did not run after lock release")
	}
}

func TestRunCancelledContextDiscardsResult(t *testing.T) {
	svc := newTestService()
	ctx, cancel := context.WithCancel(context.Background())
	a := &fakeToken{token: erc20A, blockCtx: true}

	go cancel()
	attempt, err := svc.Run(ctx, testRequest(), Contracts{TokenA: a, TokenB: &fakeToken{token: erc20B}, Router: &fakeRouter{}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if attempt != nil {
		t.Error("attempt returned despite cancellation")
	}
	if svc.LastAttempt("DUST-USDT") != nil {
		t.Error("cancelled attempt recorded")
	}
}

func TestRunResumeSkipsGrantedApprovals(t *testing.T) {
	svc := newTestService()
	a := &fakeToken{token: erc20A}
	b := &fakeToken{token: erc20B}
	router := &fakeRouter{err: errors.New("execution reverted")}

	req := testRequest()
	if _, err := svc.Run(context.Background(), req, Contracts{TokenA: a, TokenB: b, Router: router}); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	router.err = nil
	req.Resume = true
	attempt, err := svc.Run(context.Background(), req, Contracts{TokenA: a, TokenB: b, Router: router})
	if err != nil {
		t.Fatalf("resumed Run: %v", err)
	}
	if a.calls != 1 || b.calls != 1 {
		t.Errorf("approve calls = (%d, %d), want 1 each across both runs", a.calls, b.calls)
	}
	if !attempt.Deposited {
		t.Error("resumed attempt did not deposit")
	}
}

func TestRunResumeIgnoredWhenAmountsChanged(t *testing.T) {
	svc := newTestService()
	a := &fakeToken{token: erc20A}
	b := &fakeToken{token: erc20B}
	router := &fakeRouter{err: errors.New("execution reverted")}

	req := testRequest()
	if _, err := svc.Run(context.Background(), req, Contracts{TokenA: a, TokenB: b, Router: router}); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	router.err = nil
	req.Resume = true
	req.AmountA = decimal.NewFromInt(200)
	if _, err := svc.Run(context.Background(), req, Contracts{TokenA: a, TokenB: b, Router: router}); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if a.calls != 2 || b.calls != 2 {
		t.Errorf("approve calls = (%d, %d), want 2 each: changed amounts invalidate prior approvals", a.calls, b.calls)
	}
}

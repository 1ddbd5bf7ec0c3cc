package liquidity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/dustprotocol/dust-client/internal/adapters/evm"
	"github.com/dustprotocol/dust-client/internal/config"
	"github.com/dustprotocol/dust-client/internal/domain"
	"github.com/dustprotocol/dust-client/internal/metrics"
	"github.com/dustprotocol/dust-client/internal/services"
	"github.com/dustprotocol/dust-client/internal/services/tokens"
)

const LIQUIDITY_SERVICE = "liquidity-service"

var (
	ErrDepositInFlight = errors.New("deposit already in flight for pair")
	ErrMissingAmounts  = errors.New("both amounts must be present and positive")
)

// DepositRequest asks for one approve/approve/deposit sequence.
type DepositRequest struct {
	PairID  string
	AmountA decimal.Decimal
	AmountB decimal.Decimal

	// Resume skips approvals already granted by the previous attempt for
	// this pair, provided the amounts are unchanged. Approvals are
	// persistent on-chain state, so re-running them would only burn fees.
	Resume bool
}

// Contracts are the external collaborators one deposit runs against.
type Contracts struct {
	TokenA domain.TokenContractHandle
	TokenB domain.TokenContractHandle
	Router domain.RouterHandle
}

// Service sequences liquidity deposits. Each pair has at most one attempt
// in flight; partial progress is kept so a failed attempt can be resumed
// from the stage that broke.
type Service struct {
	container.BaseDIInstance
	logger *services.ServiceLogger

	evmSvc          *evm.Service
	tokensSvc       *tokens.Service
	slippagePercent int

	mu       sync.Mutex
	inflight map[string]struct{}
	last     map[string]*domain.DepositAttempt
}

func (svc *Service) ID() string {
	return LIQUIDITY_SERVICE
}

func (svc *Service) Configure(c container.IContainer) error {
	svc.logger = services.NewServiceLogger(svc)
	svc.evmSvc = c.Instance(evm.EVM_SERVICE).(*evm.Service)
	svc.tokensSvc = c.Instance(tokens.TOKENS_SERVICE).(*tokens.Service)

	engineConf := c.GetConfig(config.ENGINE_CONFIG_KEY).(*config.EngineConfig)
	svc.slippagePercent = engineConf.SlippagePercent

	svc.inflight = make(map[string]struct{})
	svc.last = make(map[string]*domain.DepositAttempt)
	return nil
}

func (svc *Service) Start() error {
	return nil
}

func (svc *Service) Stop() error {
	return nil
}

// Deposit resolves the pair's contract handles and runs the sequence.
func (svc *Service) Deposit(ctx context.Context, req DepositRequest) (*domain.DepositAttempt, error) {
	tokenA, tokenB, err := svc.tokensSvc.ResolvePair(req.PairID)
	if err != nil {
		return nil, err
	}
	return svc.Run(ctx, req, Contracts{
		TokenA: svc.evmSvc.Handle(tokenA),
		TokenB: svc.evmSvc.Handle(tokenB),
		Router: svc.evmSvc.Router(),
	})
}

// Run executes approve A, approve B, then the deposit, against the given
// collaborators. The deposit call happens if and only if every required
// approval succeeded. A failure at any stage stops the sequence and records
// the stage; nothing is rolled back, since granted approvals are harmless
// to leave standing. If ctx is cancelled mid-sequence the result of the
// in-flight call is discarded and no state is recorded.
func (svc *Service) Run(ctx context.Context, req DepositRequest, c Contracts) (*domain.DepositAttempt, error) {
	if !req.AmountA.IsPositive() || !req.AmountB.IsPositive() {
		return nil, ErrMissingAmounts
	}
	if !svc.acquire(req.PairID) {
		return nil, ErrDepositInFlight
	}
	defer svc.release(req.PairID)

	attempt := &domain.DepositAttempt{
		PairID:  req.PairID,
		AmountA: req.AmountA,
		AmountB: req.AmountB,
	}
	prior := svc.LastAttempt(req.PairID)
	resumable := req.Resume && prior != nil &&
		prior.AmountA.Equal(req.AmountA) && prior.AmountB.Equal(req.AmountB)
	start := time.Now()

	// stage 1: approve token A
	switch {
	case c.TokenA.Token().Native:
		attempt.TokenAApproved = true
		metrics.ApprovalsSkipped.Inc()
	case resumable && prior.TokenAApproved:
		attempt.TokenAApproved = true
		attempt.ApproveAReceipt = prior.ApproveAReceipt
	default:
		rcpt, err := c.TokenA.Approve(ctx, req.AmountA)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err != nil {
			return svc.fail(attempt, domain.StageApproveA, err), nil
		}
		attempt.TokenAApproved = true
		attempt.ApproveAReceipt = rcpt
	}

	// stage 2: approve token B, skipped for the native asset
	switch {
	case c.TokenB.Token().Native:
		attempt.TokenBApproved = true
		metrics.ApprovalsSkipped.Inc()
	case resumable && prior.TokenBApproved:
		attempt.TokenBApproved = true
		attempt.ApproveBReceipt = prior.ApproveBReceipt
	default:
		rcpt, err := c.TokenB.Approve(ctx, req.AmountB)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err != nil {
			return svc.fail(attempt, domain.StageApproveB, err), nil
		}
		attempt.TokenBApproved = true
		attempt.ApproveBReceipt = rcpt
	}

	// stage 3: the deposit itself
	rcpt, err := c.Router.AddLiquidity(ctx, c.TokenA.Token(), c.TokenB.Token(), req.AmountA, req.AmountB, svc.slippagePercent)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		return svc.fail(attempt, domain.StageDeposit, err), nil
	}
	attempt.Deposited = true
	attempt.DepositReceipt = rcpt

	svc.record(attempt)
	metrics.DepositAttempts.WithLabelValues(domain.StageNone.String(), "success").Inc()
	metrics.DepositDuration.Observe(time.Since(start).Seconds())
	if svc.logger != nil {
		svc.logger.Info().
			Str("pair", req.PairID).
			Str("tx", rcpt.TxHash).
			Msg("liquidity deposited")
	}
	return attempt, nil
}

// LastAttempt returns the most recent recorded attempt for a pair.
func (svc *Service) LastAttempt(pairID string) *domain.DepositAttempt {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return svc.last[pairID]
}

func (svc *Service) fail(attempt *domain.DepositAttempt, stage domain.Stage, cause error) *domain.DepositAttempt {
	err := &domain.ContractError{Stage: stage, Cause: cause}
	attempt.FailureStage = stage
	attempt.FailureMsg = err.Error()
	svc.record(attempt)
	metrics.DepositAttempts.WithLabelValues(stage.String(), "failure").Inc()
	if svc.logger != nil {
		svc.logger.Error().
			Str("pair", attempt.PairID).
			Err(err).
			Msg("deposit stopped")
	}
	return attempt
}

func (svc *Service) record(attempt *domain.DepositAttempt) {
	svc.mu.Lock()
	svc.last[attempt.PairID] = attempt
	svc.mu.Unlock()
}

func (svc *Service) acquire(pairID string) bool {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	if _, ok := svc.inflight[pairID]; ok {
		return false
	}
	svc.inflight[pairID] = struct{}{}
	return true
}

func (svc *Service) release(pairID string) {
	svc.mu.Lock()
	delete(svc.inflight, pairID)
	svc.mu.Unlock()
}

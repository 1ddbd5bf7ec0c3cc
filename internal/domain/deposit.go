package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Stage identifies where in the approve/deposit sequence a failure occurred.
type Stage uint8

const (
	StageNone Stage = iota
	StageApproveA
	StageApproveB
	StageDeposit
)

func (s Stage) String() string {
	switch s {
	case StageApproveA:
		return "approveA"
	case StageApproveB:
		return "approveB"
	case StageDeposit:
		return "deposit"
	default:
		return "none"
	}
}

// Receipt is the confirmation returned by an on-chain operation.
type Receipt struct {
	TxHash      string `json:"txHash"`
	BlockNumber uint64 `json:"blockNumber,omitempty"`
	GasUsed     uint64 `json:"gasUsed,omitempty"`
}

// ContractError wraps a failure from a contract call with the stage at
// which it occurred. Contract errors are never retried automatically:
// resubmitting a transaction is a fee-bearing, user-initiated decision.
type ContractError struct {
	Stage Stage
	Cause error
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("contract call failed at stage %s: %v", e.Stage, e.Cause)
}

func (e *ContractError) Unwrap() error {
	return e.Cause
}

// DepositAttempt records the outcome of one approve/approve/deposit
// sequence. Already-granted approvals are preserved so the caller can
// resume from the failed stage instead of re-approving.
type DepositAttempt struct {
	PairID string `json:"pairId"`

	AmountA decimal.Decimal `json:"amountA"`
	AmountB decimal.Decimal `json:"amountB"`

	TokenAApproved bool `json:"tokenAApproved"`
	TokenBApproved bool `json:"tokenBApproved"`
	Deposited      bool `json:"deposited"`

	FailureStage Stage  `json:"failureStage"`
	FailureMsg   string `json:"failureMsg,omitempty"`

	ApproveAReceipt *Receipt `json:"approveAReceipt,omitempty"`
	ApproveBReceipt *Receipt `json:"approveBReceipt,omitempty"`
	DepositReceipt  *Receipt `json:"depositReceipt,omitempty"`
}

// Failed reports whether the attempt stopped before completing the deposit.
func (a *DepositAttempt) Failed() bool {
	return a.FailureStage != StageNone
}

package evm

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

var (
	ErrNegativeAmount = errors.New("negative amount")
	ErrAmountOverflow = errors.New("amount overflows uint256")
)

// DecimalToWei converts a display-precision amount to the token's smallest
// unit. Anything beyond the token's on-chain precision is truncated.
func DecimalToWei(v decimal.Decimal, decimals int) (*uint256.Int, error) {
	if v.IsNegative() {
		return nil, ErrNegativeAmount
	}
	shifted := v.Shift(int32(decimals)).Truncate(0)
	u, overflow := uint256.FromBig(shifted.BigInt())
	if overflow {
		return nil, ErrAmountOverflow
	}
	return u, nil
}

// WeiToDecimal converts a smallest-unit integer back to a token amount.
func WeiToDecimal(v *big.Int, decimals int) decimal.Decimal {
	return decimal.NewFromBigInt(v, -int32(decimals))
}

// applySlippage scales an amount down by slippagePercent to produce the
// minimum acceptable amount for a deposit.
func applySlippage(v *uint256.Int, slippagePercent int) *uint256.Int {
	out := new(uint256.Int).Mul(v, uint256.NewInt(uint64(100-slippagePercent)))
	return out.Div(out, uint256.NewInt(100))
}

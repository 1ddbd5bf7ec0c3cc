package evm

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"github.com/dustprotocol/dust-client/internal/domain"
)

// Hand-packed selectors; the engine does not generate contract bindings.
var (
	selApprove         = []byte{0x09, 0x5e, 0xa7, 0xb3} // approve(address,uint256)
	selAddLiquidity    = []byte{0xe8, 0xe3, 0x37, 0x00} // addLiquidity(address,address,uint256,uint256,uint256,uint256,address,uint256)
	selAddLiquidityETH = []byte{0xf3, 0x05, 0xd7, 0x19} // addLiquidityETH(address,uint256,uint256,uint256,address,uint256)
	selGetReserves     = []byte{0x09, 0x02, 0xf1, 0xac} // getReserves()
)

const txDeadline = 20 * time.Minute

var ErrTxReverted = errors.New("transaction reverted")

type erc20Handle struct {
	svc   *Service
	token domain.Token
}

func (h *erc20Handle) Token() domain.Token {
	return h.token
}

// Approve lets the router spend amount of the token on the signer's behalf.
func (h *erc20Handle) Approve(ctx context.Context, amount decimal.Decimal) (*domain.Receipt, error) {
	wei, err := DecimalToWei(amount, h.token.Decimals)
	if err != nil {
		return nil, err
	}
	data := packCall(selApprove, addrWord(h.svc.router), uintWord(wei))
	return h.svc.sendTx(ctx, common.HexToAddress(h.token.Address), nil, data)
}

type nativeHandle struct {
	token domain.Token
}

func (h *nativeHandle) Token() domain.Token {
	return h.token
}

// Approve on the native asset is trivially satisfied: there is no contract
// to grant an allowance on.
func (h *nativeHandle) Approve(ctx context.Context, amount decimal.Decimal) (*domain.Receipt, error) {
	return &domain.Receipt{}, nil
}

type routerHandle struct {
	svc *Service
}

// AddLiquidity deposits both amounts into the pair's pool through the
// router, tolerating slippagePercent of adverse movement. When one side is
// the native asset the ETH variant of the router call is used and the
// native amount rides along as transaction value.
func (r *routerHandle) AddLiquidity(ctx context.Context, tokenA, tokenB domain.Token, amountA, amountB decimal.Decimal, slippagePercent int) (*domain.Receipt, error) {
	if tokenA.Native {
		// normalize so the native side, if any, is tokenB
		tokenA, tokenB = tokenB, tokenA
		amountA, amountB = amountB, amountA
	}

	weiA, err := DecimalToWei(amountA, tokenA.Decimals)
	if err != nil {
		return nil, err
	}
	weiB, err := DecimalToWei(amountB, tokenB.Decimals)
	if err != nil {
		return nil, err
	}
	minA := applySlippage(weiA, slippagePercent)
	minB := applySlippage(weiB, slippagePercent)
	deadline := uint256.NewInt(uint64(time.Now().Add(txDeadline).Unix()))

	if tokenB.Native {
		data := packCall(selAddLiquidityETH,
			addrWord(common.HexToAddress(tokenA.Address)),
			uintWord(weiA),
			uintWord(minA),
			uintWord(minB),
			addrWord(r.svc.signerAddr),
			uintWord(deadline),
		)
		return r.svc.sendTx(ctx, r.svc.router, weiB.ToBig(), data)
	}

	data := packCall(selAddLiquidity,
		addrWord(common.HexToAddress(tokenA.Address)),
		addrWord(common.HexToAddress(tokenB.Address)),
		uintWord(weiA),
		uintWord(weiB),
		uintWord(minA),
		uintWord(minB),
		addrWord(r.svc.signerAddr),
		uintWord(deadline),
	)
	return r.svc.sendTx(ctx, r.svc.router, nil, data)
}

// sendTx signs, broadcasts and waits for one transaction. Once broadcast a
// transaction cannot be cancelled; callers that no longer care must discard
// the result, not this layer.
func (svc *Service) sendTx(ctx context.Context, to common.Address, value *big.Int, data []byte) (*domain.Receipt, error) {
	if svc.signerKey == nil {
		return nil, ErrNoSigner
	}

	nonce, err := svc.client.PendingNonceAt(ctx, svc.signerAddr)
	if err != nil {
		return nil, fmt.Errorf("fetch nonce: %w", err)
	}
	gasPrice, err := svc.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("suggest gas price: %w", err)
	}
	gas, err := svc.client.EstimateGas(ctx, ethereum.CallMsg{
		From:  svc.signerAddr,
		To:    &to,
		Value: value,
		Data:  data,
	})
	if err != nil {
		return nil, fmt.Errorf("estimate gas: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    value,
		Gas:      gas,
		GasPrice: gasPrice,
		Data:     data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(svc.chainID), svc.signerKey)
	if err != nil {
		return nil, fmt.Errorf("sign tx: %w", err)
	}
	if err := svc.client.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("send tx: %w", err)
	}

	rcpt, err := bind.WaitMined(ctx, svc.client, signed)
	if err != nil {
		return nil, fmt.Errorf("wait mined: %w", err)
	}
	if rcpt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%w: %s", ErrTxReverted, signed.Hash().Hex())
	}

	return &domain.Receipt{
		TxHash:      signed.Hash().Hex(),
		BlockNumber: rcpt.BlockNumber.Uint64(),
		GasUsed:     rcpt.GasUsed,
	}, nil
}

func packCall(selector []byte, words ...[]byte) []byte {
	out := make([]byte, 0, len(selector)+32*len(words))
	out = append(out, selector...)
	for _, w := range words {
		out = append(out, w...)
	}
	return out
}

func addrWord(a common.Address) []byte {
	return common.LeftPadBytes(a.Bytes(), 32)
}

func uintWord(v *uint256.Int) []byte {
	b := v.Bytes32()
	return b[:]
}

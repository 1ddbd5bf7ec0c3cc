package http

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/dustprotocol/dust-client/internal/http/httputil"
	"github.com/dustprotocol/dust-client/internal/services/liquidity"
)

type LiquidityHandler struct {
	liquiditySvc *liquidity.Service
}

func NewLiquidityHandler(liquiditySvc *liquidity.Service) *LiquidityHandler {
	return &LiquidityHandler{liquiditySvc: liquiditySvc}
}

func (h *LiquidityHandler) Root() string {
	return "/liquidity"
}

func (h *LiquidityHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.POST("/deposit", h.deposit)
	pub.GET("/:pairId/last", h.lastAttempt)
}

// DepositHTTPRequest triggers one approve/approve/deposit sequence.
type DepositHTTPRequest struct {
	PairID  string `json:"pairId" binding:"required" example:"DUST-ETH"`
	AmountA string `json:"amountA" binding:"required" example:"1500"`
	AmountB string `json:"amountB" binding:"required" example:"0.42"`

	// Resume reuses approvals from the previous failed attempt for this
	// pair when the amounts are unchanged.
	Resume bool `json:"resume"`
}

func (h *LiquidityHandler) deposit(c *gin.Context) {
	var req DepositHTTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	amountA, err := decimal.NewFromString(req.AmountA)
	if err != nil {
		httputil.BadRequest(c, "invalid amountA: "+req.AmountA)
		return
	}
	amountB, err := decimal.NewFromString(req.AmountB)
	if err != nil {
		httputil.BadRequest(c, "invalid amountB: "+req.AmountB)
		return
	}

	attempt, err := h.liquiditySvc.Deposit(c.Request.Context(), liquidity.DepositRequest{
		PairID:  req.PairID,
		AmountA: amountA,
		AmountB: amountB,
		Resume:  req.Resume,
	})
	if err != nil {
		switch {
		case errors.Is(err, liquidity.ErrDepositInFlight):
			httputil.Conflict(c, err.Error())
		case errors.Is(err, liquidity.ErrMissingAmounts):
			httputil.BadRequest(c, err.Error())
		default:
			httputil.InternalError(c, err.Error())
		}
		return
	}
	// a failed stage is still a 200: the attempt records partial progress
	// and the client decides whether to resume
	httputil.Success(c, attempt)
}

func (h *LiquidityHandler) lastAttempt(c *gin.Context) {
	attempt := h.liquiditySvc.LastAttempt(c.Param("pairId"))
	if attempt == nil {
		httputil.NotFound(c, "no attempt recorded for pair")
		return
	}
	httputil.Success(c, attempt)
}

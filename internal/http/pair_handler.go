package http

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/dustprotocol/dust-client/internal/domain"
	"github.com/dustprotocol/dust-client/internal/http/httputil"
	"github.com/dustprotocol/dust-client/internal/services/amounts"
)

type PairHandler struct {
	amountsSvc *amounts.Service
}

func NewPairHandler(amountsSvc *amounts.Service) *PairHandler {
	return &PairHandler{amountsSvc: amountsSvc}
}

func (h *PairHandler) Root() string {
	return "/pair"
}

func (h *PairHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("/:id", h.get)
	pub.POST("/:id/edit", h.edit)
	pub.DELETE("/:id", h.drop)
}

// EditRequest records a user edit on one side of the pair. An empty Amount
// clears both sides to absent.
type EditRequest struct {
	// Side is "A" or "B".
	Side string `json:"side" binding:"required"`
	// Amount is a decimal string; empty, zero or negative clears the pair.
	Amount string `json:"amount"`
}

type PairResponse struct {
	Pair  domain.AmountPair  `json:"pair"`
	Ratio *domain.PriceRatio `json:"ratio,omitempty"`
}

func (h *PairHandler) get(c *gin.Context) {
	session, err := h.amountsSvc.Open(c.Param("id"))
	if err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}
	httputil.Success(c, PairResponse{Pair: session.Snapshot(), Ratio: session.Ratio()})
}

func (h *PairHandler) edit(c *gin.Context) {
	var req EditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	var side domain.Side
	switch req.Side {
	case "A":
		side = domain.SideA
	case "B":
		side = domain.SideB
	default:
		httputil.BadRequest(c, "side must be A or B")
		return
	}

	var value *decimal.Decimal
	if req.Amount != "" {
		d, err := decimal.NewFromString(req.Amount)
		if err != nil {
			httputil.BadRequest(c, "invalid amount: "+req.Amount)
			return
		}
		value = &d
	}

	session, err := h.amountsSvc.Open(c.Param("id"))
	if err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}
	if err := session.EditAmount(c.Request.Context(), side, value); err != nil {
		httputil.InternalError(c, err.Error())
		return
	}
	httputil.Success(c, PairResponse{Pair: session.Snapshot(), Ratio: session.Ratio()})
}

func (h *PairHandler) drop(c *gin.Context) {
	if err := h.amountsSvc.Drop(c.Param("id")); err != nil {
		if errors.Is(err, amounts.ErrSessionNotFound) {
			httputil.NotFound(c, err.Error())
			return
		}
		httputil.InternalError(c, err.Error())
		return
	}
	httputil.Success(c, gin.H{"dropped": c.Param("id")})
}

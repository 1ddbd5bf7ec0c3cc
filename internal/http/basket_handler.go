package http

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/dustprotocol/dust-client/internal/adapters/persistence"
	"github.com/dustprotocol/dust-client/internal/domain"
	"github.com/dustprotocol/dust-client/internal/http/httputil"
	"github.com/dustprotocol/dust-client/internal/services/basket"
)

type BasketHandler struct {
	basketSvc *basket.Service
}

func NewBasketHandler(basketSvc *basket.Service) *BasketHandler {
	return &BasketHandler{basketSvc: basketSvc}
}

func (h *BasketHandler) Root() string {
	return "/basket"
}

func (h *BasketHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.POST("/normalize", h.normalize)
	pub.POST("", h.save)
	pub.GET("", h.list)
	pub.GET("/:name", h.get)
	admin.POST("/import", h.importBatch)
}

// NormalizeRequest carries the raw fractional weights of a basket.
type NormalizeRequest struct {
	// Weights maps a pool/token identifier to a fractional weight in [0,1].
	// Example: {"UNI-V2-DUST-ETH": "0.333", "AAVE-DAI": "0.667"}
	Weights map[string]string `json:"weights" binding:"required"`
}

// SaveBasketRequest persists a basket under a name. An empty name gets a
// generated one.
type SaveBasketRequest struct {
	Name    string            `json:"name"`
	Weights map[string]string `json:"weights" binding:"required"`
}

type NormalizeResponse struct {
	Normalized domain.NormalizedBasket `json:"normalized"`
}

type SaveBasketResponse struct {
	Name       string                  `json:"name"`
	Normalized domain.NormalizedBasket `json:"normalized"`
}

func parseWeights(raw map[string]string) (domain.Basket, error) {
	weights := make(domain.Basket, len(raw))
	for k, v := range raw {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, errors.New("invalid weight for " + k + ": " + v)
		}
		weights[k] = d
	}
	return weights, nil
}

func (h *BasketHandler) normalize(c *gin.Context) {
	var req NormalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	weights, err := parseWeights(req.Weights)
	if err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	normalized, err := h.basketSvc.NormalizeBasket(weights)
	if err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}
	httputil.Success(c, NormalizeResponse{Normalized: normalized})
}

func (h *BasketHandler) save(c *gin.Context) {
	var req SaveBasketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	weights, err := parseWeights(req.Weights)
	if err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	name, normalized, err := h.basketSvc.Save(req.Name, weights)
	if err != nil {
		if errors.Is(err, basket.ErrEmptyBasket) || errors.Is(err, basket.ErrNegativeWeight) {
			httputil.BadRequest(c, err.Error())
			return
		}
		httputil.InternalError(c, err.Error())
		return
	}
	httputil.Success(c, SaveBasketResponse{Name: name, Normalized: normalized})
}

// ImportRequest carries a batch of baskets to persist in one transaction.
type ImportRequest struct {
	Baskets []*domain.StoredBasket `json:"baskets" binding:"required"`
}

type ImportResponse struct {
	Imported int `json:"imported"`
}

func (h *BasketHandler) importBatch(c *gin.Context) {
	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	count, err := h.basketSvc.Import(req.Baskets)
	if err != nil {
		if errors.Is(err, basket.ErrEmptyBasket) || errors.Is(err, basket.ErrNegativeWeight) {
			httputil.BadRequest(c, err.Error())
			return
		}
		httputil.InternalError(c, err.Error())
		return
	}
	httputil.Success(c, ImportResponse{Imported: count})
}

func (h *BasketHandler) list(c *gin.Context) {
	baskets, err := h.basketSvc.List()
	if err != nil {
		httputil.InternalError(c, err.Error())
		return
	}
	httputil.Success(c, baskets)
}

func (h *BasketHandler) get(c *gin.Context) {
	stored, err := h.basketSvc.Get(c.Param("name"))
	if err != nil {
		if errors.Is(err, persistence.ErrBasketNotFound) {
			httputil.NotFound(c, err.Error())
			return
		}
		httputil.InternalError(c, err.Error())
		return
	}
	httputil.Success(c, stored)
}

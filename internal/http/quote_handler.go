package http

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hxuan190/tier-engine/internal/domain"
	"github.com/hxuan190/tier-engine/internal/engine"
	"github.com/hxuan190/tier-engine/internal/http/httputil"
)

type QuoteHandler struct {
	engineSvc *engine.Service
}

func NewQuoteHandler(engineSvc *engine.Service) *QuoteHandler {
	return &QuoteHandler{engineSvc: engineSvc}
}

func (h *QuoteHandler) SetRoutes(pub *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("", h.getQuote)
}

func (h *QuoteHandler) Root() string {
	return "/quote"
}

// QuoteRequest represents the parameters for requesting a split quote
type QuoteRequest struct {
	// Pool (tier set) identifier
	Pool string `form:"pool" binding:"required" example:"usdc-weth"`

	// Input amount to swap, in token units of the input side
	AmountIn string `form:"amountIn" binding:"required" example:"100"`

	// Swap direction: which token of the pair is the input
	// - "AtoB": token A in, token B out
	// - "BtoA": token B in, token A out
	Direction string `form:"direction" binding:"required" enums:"AtoB,BtoA" example:"AtoB"`
}

// TierAllocationInfo describes one tier's share of the planned split
type TierAllocationInfo struct {
	// Tier identifier within the pool
	TierID string `json:"tierId" example:"30bps"`

	// Input amount assigned to this tier (0 when the tier is priced out)
	AmountIn float64 `json:"amountIn" example:"71.43"`

	// Share of the total order routed through this tier, in percent
	Percent float64 `json:"percent" example:"71.4"`
}

// QuoteResponse contains the solved allocation plan for an order
type QuoteResponse struct {
	// Pool identifier the quote was solved against
	Pool string `json:"pool" example:"usdc-weth"`

	// Swap direction the quote applies to
	Direction string `json:"direction" example:"AtoB"`

	// Total input amount of the order
	AmountIn float64 `json:"amountIn" example:"100"`

	// Expected total output across all tiers
	ExpectedAmountOut float64 `json:"expectedAmountOut" example:"90.66"`

	// Expected output per unit of input (expectedAmountOut / amountIn)
	EffectivePrice float64 `json:"effectivePrice" example:"0.9066"`

	// Equalized post-trade marginal price across the tiers that were used.
	// Tiers with zero allocation start at or below this price.
	EqualizedPrice float64 `json:"equalizedPrice" example:"0.8341"`

	// Reserve-weighted marginal price of the pool before the trade
	CombinedPriceBefore float64 `json:"combinedPriceBefore" example:"0.9953"`

	// Per-tier division of the input amount; sums to amountIn
	Allocations []TierAllocationInfo `json:"allocations"`
}

// getQuote godoc
// @Summary Get split quote
// @Description Solves the output-maximizing division of an exact-in order across the pool's fee tiers. Read-only: reserves are not touched.
// @Tags quote
// @Produce json
// @Param pool query string true "Pool (tier set) identifier" example("usdc-weth")
// @Param amountIn query string true "Input amount in token units" example("100")
// @Param direction query string true "Swap direction" Enums(AtoB, BtoA) example("AtoB")
// @Success 200 {object} QuoteResponse "Solved allocation plan"
// @Failure 400 {object} httputil.Response "Invalid parameters"
// @Failure 404 {object} httputil.Response "Unknown pool"
// @Failure 422 {object} httputil.Response "Order exceeds what the tier set can absorb"
// @Router /api/v1/quote [get]
func (h *QuoteHandler) getQuote(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	order, err := parseOrder(req.AmountIn, req.Direction)
	if err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	result, err := h.engineSvc.Quote(req.Pool, order)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	httputil.Success(c, toQuoteResponse(result))
}

func toQuoteResponse(result *engine.QuoteResult) QuoteResponse {
	allocations := make([]TierAllocationInfo, len(result.Allocation.Entries))
	for i, entry := range result.Allocation.Entries {
		info := TierAllocationInfo{TierID: entry.TierID, AmountIn: entry.AmountIn}
		if result.Order.AmountIn > 0 {
			info.Percent = entry.AmountIn / result.Order.AmountIn * 100
		}
		allocations[i] = info
	}

	return QuoteResponse{
		Pool:                result.PoolID,
		Direction:           result.Order.Direction.String(),
		AmountIn:            result.Order.AmountIn,
		ExpectedAmountOut:   result.ExpectedOut,
		EffectivePrice:      result.EffectivePrice,
		EqualizedPrice:      result.EqualizedPrice,
		CombinedPriceBefore: result.CombinedPrice,
		Allocations:         allocations,
	}
}

func parseOrder(amountIn, direction string) (domain.Order, error) {
	amount, err := strconv.ParseFloat(amountIn, 64)
	if err != nil {
		return domain.Order{}, err
	}
	dir, err := domain.ParseDirection(direction)
	if err != nil {
		return domain.Order{}, err
	}
	order := domain.Order{AmountIn: amount, Direction: dir}
	if err := order.Validate(); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

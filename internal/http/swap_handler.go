package http

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/hxuan190/tier-engine/internal/domain"
	"github.com/hxuan190/tier-engine/internal/engine"
	"github.com/hxuan190/tier-engine/internal/http/httputil"
)

type SwapHandler struct {
	engineSvc *engine.Service
}

func NewSwapHandler(engineSvc *engine.Service) *SwapHandler {
	return &SwapHandler{engineSvc: engineSvc}
}

func (h *SwapHandler) SetRoutes(pub *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.POST("", h.executeSwap)
}

func (h *SwapHandler) Root() string {
	return "/swap"
}

// SwapRequest describes an exact-in swap to execute against a pool
type SwapRequest struct {
	// Pool (tier set) identifier
	Pool string `json:"pool" binding:"required" example:"usdc-weth"`

	// Input amount to swap
	AmountIn float64 `json:"amountIn" binding:"required" example:"100"`

	// Swap direction: "AtoB" or "BtoA"
	Direction string `json:"direction" binding:"required" enums:"AtoB,BtoA" example:"AtoB"`
}

// FillInfo is the realized trade against one tier
type FillInfo struct {
	// Tier identifier
	TierID string `json:"tierId" example:"30bps"`

	// Input amount applied to this tier
	AmountIn float64 `json:"amountIn" example:"71.43"`

	// Output received from this tier
	AmountOut float64 `json:"amountOut" example:"64.92"`

	// Fee retained by this tier, in input token units
	FeeAmount float64 `json:"feeAmount" example:"0.214"`

	// Tier reserves after the fill
	ReserveA float64 `json:"reserveA" example:"1071.43"`
	ReserveB float64 `json:"reserveB" example:"935.08"`
}

// SwapResponse is the executed swap outcome
type SwapResponse struct {
	// Pool identifier the swap was executed against
	Pool string `json:"pool" example:"usdc-weth"`

	// Swap direction
	Direction string `json:"direction" example:"AtoB"`

	// Total input amount of the order
	AmountIn float64 `json:"amountIn" example:"100"`

	// Realized total output across all tiers
	AmountOut float64 `json:"amountOut" example:"90.66"`

	// Total fee retained across tiers, in input token units
	FeeAmount float64 `json:"feeAmount" example:"0.43"`

	// Realized fee in basis points of the input amount
	FeeBps float64 `json:"feeBps" example:"43.2"`

	// Realized output per unit of input
	EffectivePrice float64 `json:"effectivePrice" example:"0.9066"`

	// Per-tier fills, including post-trade reserves
	Fills []FillInfo `json:"fills"`
}

// executeSwap godoc
// @Summary Execute swap
// @Description Solves the optimal split for the order and applies it atomically across the pool's tiers. Either every tier fill succeeds and the new reserves are committed, or the pool is left untouched.
// @Tags swap
// @Accept json
// @Produce json
// @Param request body SwapRequest true "Swap to execute"
// @Success 200 {object} SwapResponse "Executed swap with per-tier fills"
// @Failure 400 {object} httputil.Response "Invalid request"
// @Failure 404 {object} httputil.Response "Unknown pool"
// @Failure 422 {object} httputil.Response "Order exceeds what the tier set can absorb"
// @Router /api/v1/swap [post]
func (h *SwapHandler) executeSwap(c *gin.Context) {
	var req SwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	dir, err := domain.ParseDirection(req.Direction)
	if err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}
	order := domain.Order{AmountIn: req.AmountIn, Direction: dir}
	if err := order.Validate(); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	result, err := h.engineSvc.Swap(req.Pool, order)
	if err != nil {
		handleEngineError(c, err)
		return
	}

	fills := make([]FillInfo, len(result.Fills))
	for i, fill := range result.Fills {
		fills[i] = FillInfo{
			TierID:    fill.TierID,
			AmountIn:  fill.AmountIn,
			AmountOut: fill.AmountOut,
			FeeAmount: fill.FeeAmount,
			ReserveA:  fill.PostTier.ReserveA,
			ReserveB:  fill.PostTier.ReserveB,
		}
	}

	httputil.Success(c, SwapResponse{
		Pool:           req.Pool,
		Direction:      order.Direction.String(),
		AmountIn:       order.AmountIn,
		AmountOut:      result.TotalAmountOut,
		FeeAmount:      result.FeeAmount,
		FeeBps:         result.FeeBps,
		EffectivePrice: result.EffectivePrice,
		Fills:          fills,
	})
}

// handleEngineError routes engine failures: unknown pools are 404, the rest
// follow the domain-error mapping.
func handleEngineError(c *gin.Context, err error) {
	if errors.Is(err, engine.ErrPoolNotFound) {
		httputil.NotFound(c, err.Error())
		return
	}
	httputil.DomainError(c, err)
}

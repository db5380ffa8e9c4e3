package http

import (
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/tier-engine/internal/domain"
	"github.com/hxuan190/tier-engine/internal/engine"
	"github.com/hxuan190/tier-engine/internal/http/httputil"
)

type PoolHandler struct {
	engineSvc *engine.Service
}

func NewPoolHandler(engineSvc *engine.Service) *PoolHandler {
	return &PoolHandler{engineSvc: engineSvc}
}

func (h *PoolHandler) SetRoutes(pub *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("/list", h.listPools)
	pub.GET("/:id", h.getPool)
	admin.POST("", h.registerPool)
	admin.DELETE("/:id", h.removePool)
}

func (h *PoolHandler) Root() string {
	return "/pools"
}

// TierInfo describes one fee tier of a pool
type TierInfo struct {
	// Tier identifier within the pool
	ID string `json:"id" binding:"required" example:"30bps"`

	// Token A reserve
	ReserveA float64 `json:"reserveA" binding:"required" example:"1000"`

	// Token B reserve
	ReserveB float64 `json:"reserveB" binding:"required" example:"1000"`

	// Swap fee rate in [0, 1), deducted from the input amount
	FeeRate float64 `json:"feeRate" example:"0.003"`
}

// PoolInfo describes a registered tier set
type PoolInfo struct {
	// Pool identifier
	ID string `json:"id" example:"usdc-weth"`

	// Fee tiers of the pool
	Tiers []TierInfo `json:"tiers"`

	// Reserve-weighted marginal price, token B per token A
	CombinedPrice float64 `json:"combinedPrice" example:"0.9953"`
}

// RegisterPoolRequest is the tier-set descriptor supplied by the caller.
// This is the surface an external configuration loader feeds.
type RegisterPoolRequest struct {
	// Pool identifier; registering an existing id replaces the set
	ID string `json:"id" binding:"required" example:"usdc-weth"`

	// Fee tiers; every tier needs positive reserves and a fee in [0, 1)
	Tiers []TierInfo `json:"tiers" binding:"required"`
}

// listPools godoc
// @Summary List pools
// @Tags pools
// @Produce json
// @Success 200 {array} PoolInfo "Registered pools"
// @Router /api/v1/pools/list [get]
func (h *PoolHandler) listPools(c *gin.Context) {
	sets := h.engineSvc.ListPools()
	infos := make([]PoolInfo, len(sets))
	for i, set := range sets {
		infos[i] = toPoolInfo(set)
	}
	httputil.Success(c, infos)
}

// getPool godoc
// @Summary Get pool
// @Tags pools
// @Produce json
// @Param id path string true "Pool identifier" example("usdc-weth")
// @Success 200 {object} PoolInfo "Pool with its tiers"
// @Failure 404 {object} httputil.Response "Unknown pool"
// @Router /api/v1/pools/{id} [get]
func (h *PoolHandler) getPool(c *gin.Context) {
	set, err := h.engineSvc.GetPool(c.Param("id"))
	if err != nil {
		httputil.NotFound(c, err.Error())
		return
	}
	httputil.Success(c, toPoolInfo(set))
}

// registerPool godoc
// @Summary Register pool
// @Description Validates and stores a tier set. Tiers with non-positive reserves or a fee outside [0, 1) are rejected at registration, before the solver ever sees them.
// @Tags pools
// @Accept json
// @Produce json
// @Param request body RegisterPoolRequest true "Tier set to register"
// @Success 200 {object} PoolInfo "Registered pool"
// @Failure 400 {object} httputil.Response "Invalid tier set"
// @Router /api/v1/admin/pools [post]
func (h *PoolHandler) registerPool(c *gin.Context) {
	var req RegisterPoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	set := domain.TierSet{ID: req.ID, Tiers: make([]domain.Tier, len(req.Tiers))}
	for i, t := range req.Tiers {
		set.Tiers[i] = domain.Tier{ID: t.ID, ReserveA: t.ReserveA, ReserveB: t.ReserveB, FeeRate: t.FeeRate}
	}

	if err := h.engineSvc.RegisterPool(set); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}
	httputil.Success(c, toPoolInfo(set))
}

// removePool godoc
// @Summary Remove pool
// @Tags pools
// @Produce json
// @Param id path string true "Pool identifier" example("usdc-weth")
// @Success 200 {object} httputil.Response
// @Failure 404 {object} httputil.Response "Unknown pool"
// @Router /api/v1/admin/pools/{id} [delete]
func (h *PoolHandler) removePool(c *gin.Context) {
	if err := h.engineSvc.RemovePool(c.Param("id")); err != nil {
		httputil.NotFound(c, err.Error())
		return
	}
	httputil.Success(c, gin.H{"removed": c.Param("id")})
}

func toPoolInfo(set domain.TierSet) PoolInfo {
	tiers := make([]TierInfo, len(set.Tiers))
	for i, t := range set.Tiers {
		tiers[i] = TierInfo{ID: t.ID, ReserveA: t.ReserveA, ReserveB: t.ReserveB, FeeRate: t.FeeRate}
	}
	return PoolInfo{
		ID:            set.ID,
		Tiers:         tiers,
		CombinedPrice: set.CombinedMarginalPrice(domain.DirectionAToB),
	}
}

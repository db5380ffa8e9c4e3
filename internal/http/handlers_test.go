package http

import (
	gohttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/tier-engine/internal/domain"
	"github.com/hxuan190/tier-engine/internal/engine"
	"github.com/hxuan190/tier-engine/internal/http/httputil"
	"github.com/hxuan190/tier-engine/internal/services/market"
	"github.com/hxuan190/tier-engine/internal/services/solver"
)

func testRouter(t *testing.T) (*gin.Engine, *engine.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry := market.NewTierRegistry()
	engineSvc := engine.NewService(registry, solver.DefaultConfig())
	require.NoError(t, engineSvc.RegisterPool(domain.TierSet{
		ID: "usdc-weth",
		Tiers: []domain.Tier{
			{ID: "30bps", ReserveA: 1000, ReserveB: 1000, FeeRate: 0.003},
			{ID: "100bps", ReserveA: 500, ReserveB: 500, FeeRate: 0.01},
		},
	}))

	r := gin.New()
	api := r.Group("api")
	pub := api.Group(API_VERSION)
	admin := api.Group(API_VERSION + "/admin")
	for _, h := range []httputil.IHttpHandler{
		NewQuoteHandler(engineSvc),
		NewSwapHandler(engineSvc),
		NewPoolHandler(engineSvc),
	} {
		h.SetRoutes(pub.Group(h.Root()), admin.Group(h.Root()))
	}
	return r, engineSvc
}

func doRequest(t *testing.T, r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, httputil.Response) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp httputil.Response
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &resp))
	return w, resp
}

func TestQuoteEndpoint(t *testing.T) {
	r, _ := testRouter(t)

	w, resp := doRequest(t, r, gohttp.MethodGet, "/api/v1/quote?pool=usdc-weth&amountIn=100&direction=AtoB", "")
	require.Equal(t, gohttp.StatusOK, w.Code)
	require.True(t, resp.Success)

	raw, err := sonic.Marshal(resp.Data)
	require.NoError(t, err)
	var quote QuoteResponse
	require.NoError(t, sonic.Unmarshal(raw, &quote))

	assert.Equal(t, "usdc-weth", quote.Pool)
	assert.Equal(t, 100.0, quote.AmountIn)
	assert.Positive(t, quote.ExpectedAmountOut)
	assert.Less(t, quote.ExpectedAmountOut, quote.AmountIn)
	require.Len(t, quote.Allocations, 2)

	var percent, amount float64
	for _, a := range quote.Allocations {
		percent += a.Percent
		amount += a.AmountIn
	}
	assert.InDelta(t, 100.0, percent, 1e-6)
	assert.InDelta(t, quote.AmountIn, amount, 1e-6)
}

func TestQuoteEndpointErrors(t *testing.T) {
	r, _ := testRouter(t)

	tests := []struct {
		name string
		path string
		code int
	}{
		{"missing params", "/api/v1/quote?pool=usdc-weth", gohttp.StatusBadRequest},
		{"bad direction", "/api/v1/quote?pool=usdc-weth&amountIn=100&direction=up", gohttp.StatusBadRequest},
		{"non-numeric amount", "/api/v1/quote?pool=usdc-weth&amountIn=lots&direction=AtoB", gohttp.StatusBadRequest},
		{"negative amount", "/api/v1/quote?pool=usdc-weth&amountIn=-5&direction=AtoB", gohttp.StatusBadRequest},
		{"unknown pool", "/api/v1/quote?pool=nope&amountIn=100&direction=AtoB", gohttp.StatusNotFound},
		{"oversized order", "/api/v1/quote?pool=usdc-weth&amountIn=1e30&direction=AtoB", gohttp.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := doRequest(t, r, gohttp.MethodGet, tt.path, "")
			assert.Equal(t, tt.code, w.Code)
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestSwapEndpoint(t *testing.T) {
	r, engineSvc := testRouter(t)

	w, resp := doRequest(t, r, gohttp.MethodPost, "/api/v1/swap",
		`{"pool":"usdc-weth","amountIn":100,"direction":"AtoB"}`)
	require.Equal(t, gohttp.StatusOK, w.Code)
	require.True(t, resp.Success)

	raw, err := sonic.Marshal(resp.Data)
	require.NoError(t, err)
	var swap SwapResponse
	require.NoError(t, sonic.Unmarshal(raw, &swap))

	assert.Equal(t, "usdc-weth", swap.Pool)
	assert.Positive(t, swap.AmountOut)
	assert.Positive(t, swap.FeeAmount)
	require.Len(t, swap.Fills, 2)

	// the swap committed: pooled input reserves grew by the order size
	set, err := engineSvc.GetPool("usdc-weth")
	require.NoError(t, err)
	var reserveA float64
	for _, tier := range set.Tiers {
		reserveA += tier.ReserveA
	}
	assert.InDelta(t, 1600.0, reserveA, 1e-9)
}

func TestSwapEndpointErrors(t *testing.T) {
	r, _ := testRouter(t)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"unknown pool", `{"pool":"nope","amountIn":100,"direction":"AtoB"}`, gohttp.StatusNotFound},
		{"missing fields", `{"pool":"usdc-weth"}`, gohttp.StatusBadRequest},
		{"bad direction", `{"pool":"usdc-weth","amountIn":100,"direction":"up"}`, gohttp.StatusBadRequest},
		{"oversized order", `{"pool":"usdc-weth","amountIn":1e30,"direction":"AtoB"}`, gohttp.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := doRequest(t, r, gohttp.MethodPost, "/api/v1/swap", tt.body)
			assert.Equal(t, tt.code, w.Code)
			assert.False(t, resp.Success)
		})
	}
}

func TestPoolEndpoints(t *testing.T) {
	r, _ := testRouter(t)

	t.Run("register", func(t *testing.T) {
		w, resp := doRequest(t, r, gohttp.MethodPost, "/api/v1/admin/pools",
			`{"id":"sol-usdc","tiers":[{"id":"5bps","reserveA":2000,"reserveB":300,"feeRate":0.0005}]}`)
		require.Equal(t, gohttp.StatusOK, w.Code)
		assert.True(t, resp.Success)
	})

	t.Run("register invalid", func(t *testing.T) {
		w, _ := doRequest(t, r, gohttp.MethodPost, "/api/v1/admin/pools",
			`{"id":"bad","tiers":[{"id":"t","reserveA":-1,"reserveB":1,"feeRate":0}]}`)
		assert.Equal(t, gohttp.StatusBadRequest, w.Code)
	})

	t.Run("get", func(t *testing.T) {
		w, resp := doRequest(t, r, gohttp.MethodGet, "/api/v1/pools/usdc-weth", "")
		require.Equal(t, gohttp.StatusOK, w.Code)

		raw, err := sonic.Marshal(resp.Data)
		require.NoError(t, err)
		var pool PoolInfo
		require.NoError(t, sonic.Unmarshal(raw, &pool))
		assert.Equal(t, "usdc-weth", pool.ID)
		assert.Len(t, pool.Tiers, 2)
		assert.Positive(t, pool.CombinedPrice)
	})

	t.Run("get missing", func(t *testing.T) {
		w, _ := doRequest(t, r, gohttp.MethodGet, "/api/v1/pools/nope", "")
		assert.Equal(t, gohttp.StatusNotFound, w.Code)
	})

	t.Run("list", func(t *testing.T) {
		w, resp := doRequest(t, r, gohttp.MethodGet, "/api/v1/pools/list", "")
		require.Equal(t, gohttp.StatusOK, w.Code)
		assert.True(t, resp.Success)
	})

	t.Run("remove", func(t *testing.T) {
		w, _ := doRequest(t, r, gohttp.MethodDelete, "/api/v1/admin/pools/usdc-weth", "")
		assert.Equal(t, gohttp.StatusOK, w.Code)

		w, _ = doRequest(t, r, gohttp.MethodDelete, "/api/v1/admin/pools/usdc-weth", "")
		assert.Equal(t, gohttp.StatusNotFound, w.Code)
	})
}

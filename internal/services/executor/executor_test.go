package executor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/tier-engine/internal/domain"
	"github.com/hxuan190/tier-engine/internal/services/solver"
)

func scenario() (domain.Order, []domain.Tier) {
	order := domain.Order{AmountIn: 100, Direction: domain.DirectionAToB}
	tiers := []domain.Tier{
		{ID: "A", ReserveA: 1000, ReserveB: 1000, FeeRate: 0.003},
		{ID: "B", ReserveA: 500, ReserveB: 500, FeeRate: 0.01},
	}
	return order, tiers
}

func TestExecuteSolvedAllocation(t *testing.T) {
	order, tiers := scenario()
	plan, err := solver.New(solver.DefaultConfig()).Solve(order, tiers)
	require.NoError(t, err)

	result, err := New().Execute(order, tiers, plan.Allocation)
	require.NoError(t, err)

	// realized output matches what the solver promised
	assert.InDelta(t, plan.ExpectedOut, result.TotalAmountOut, 1e-9)

	// every unit of input landed in some tier's reserve
	var reserveGrowth float64
	for i, fill := range result.Fills {
		reserveGrowth += fill.PostTier.ReserveA - tiers[i].ReserveA
		assert.Equal(t, tiers[i].ID, fill.TierID)
		assert.InDelta(t, fill.AmountIn*tiers[i].FeeRate, fill.FeeAmount, 1e-12)
	}
	assert.InDelta(t, order.AmountIn, reserveGrowth, 1e-9)

	// derived fields
	assert.InDelta(t, result.TotalAmountOut/order.AmountIn, result.EffectivePrice, 1e-15)
	assert.InDelta(t, result.FeeAmount/order.AmountIn*10_000, result.FeeBps, 1e-12)
	assert.Greater(t, result.FeeBps, 0.0)

	// input snapshot untouched
	assert.Equal(t, 1000.0, tiers[0].ReserveA)
	assert.Equal(t, 500.0, tiers[1].ReserveA)
}

func TestExecuteZeroEntrySkipsTier(t *testing.T) {
	order := domain.Order{AmountIn: 10, Direction: domain.DirectionAToB}
	tiers := []domain.Tier{
		{ID: "A", ReserveA: 1000, ReserveB: 1000, FeeRate: 0.003},
		{ID: "B", ReserveA: 500, ReserveB: 500, FeeRate: 0.01},
	}
	alloc := domain.Allocation{
		Entries: []domain.AllocationEntry{
			{TierID: "A", AmountIn: 10},
			{TierID: "B", AmountIn: 0},
		},
		TotalAmountIn: 10,
	}

	result, err := New().Execute(order, tiers, alloc)
	require.NoError(t, err)

	assert.Zero(t, result.Fills[1].AmountOut)
	assert.Equal(t, tiers[1], result.Fills[1].PostTier)
	assert.Equal(t, tiers[1], result.PostTiers[1])
	assert.Greater(t, result.PostTiers[0].ReserveA, tiers[0].ReserveA)
}

func TestExecuteRejectsMismatchedAllocation(t *testing.T) {
	order, tiers := scenario()

	t.Run("wrong entry count", func(t *testing.T) {
		alloc := domain.Allocation{Entries: []domain.AllocationEntry{{TierID: "A", AmountIn: 100}}}
		_, err := New().Execute(order, tiers, alloc)
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("misaligned tier id", func(t *testing.T) {
		alloc := domain.Allocation{Entries: []domain.AllocationEntry{
			{TierID: "B", AmountIn: 50},
			{TierID: "A", AmountIn: 50},
		}}
		_, err := New().Execute(order, tiers, alloc)
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("negative entry", func(t *testing.T) {
		alloc := domain.Allocation{Entries: []domain.AllocationEntry{
			{TierID: "A", AmountIn: 150},
			{TierID: "B", AmountIn: -50},
		}}
		_, err := New().Execute(order, tiers, alloc)
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("sum off the order", func(t *testing.T) {
		alloc := domain.Allocation{Entries: []domain.AllocationEntry{
			{TierID: "A", AmountIn: 30},
			{TierID: "B", AmountIn: 30},
		}}
		_, err := New().Execute(order, tiers, alloc)
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("nan order", func(t *testing.T) {
		bad := domain.Order{AmountIn: math.NaN(), Direction: domain.DirectionAToB}
		_, err := New().Execute(bad, tiers, domain.Allocation{})
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

// A tier failure mid-apply must not leak a partial result.
func TestExecuteAtomicOnTierFailure(t *testing.T) {
	order := domain.Order{AmountIn: 100, Direction: domain.DirectionAToB}
	tiers := []domain.Tier{
		{ID: "A", ReserveA: 1000, ReserveB: 1000, FeeRate: 0.003},
		{ID: "B", ReserveA: 500, ReserveB: 500, FeeRate: math.NaN()},
	}
	alloc := domain.Allocation{Entries: []domain.AllocationEntry{
		{TierID: "A", AmountIn: 60},
		{TierID: "B", AmountIn: 40},
	}}

	result, err := New().Execute(order, tiers, alloc)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, 1000.0, tiers[0].ReserveA)
}

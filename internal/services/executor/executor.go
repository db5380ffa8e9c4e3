// Package executor applies a solved allocation to a tier snapshot. It is
// the only component that produces new tier state; planning stays in the
// solver and never touches reserves.
package executor

import (
	"fmt"
	"math"

	"github.com/hxuan190/tier-engine/internal/domain"
)

// conservationTolerance bounds the relative drift allowed between an
// allocation's entry sum and the order amount. The solver's residual rule
// makes the sum exact up to summation order, so anything beyond a few ulps
// means the allocation was not produced for this order.
const conservationTolerance = 1e-9

type SwapExecutor struct{}

func New() *SwapExecutor {
	return &SwapExecutor{}
}

// Execute applies the allocation across tiers and assembles the SwapResult.
// The input snapshot is never written to: every fill produces a fresh tier
// value, and a failure on any tier returns before a result exists, so no
// partial application is ever observable.
func (e *SwapExecutor) Execute(order domain.Order, tiers []domain.Tier, alloc domain.Allocation) (*domain.SwapResult, error) {
	if err := e.validate(order, tiers, alloc); err != nil {
		return nil, err
	}

	post := make([]domain.Tier, len(tiers))
	copy(post, tiers)

	fills := make([]domain.Fill, len(tiers))
	var totalOut, totalFee float64
	for i, entry := range alloc.Entries {
		fills[i] = domain.Fill{TierID: entry.TierID, PostTier: tiers[i]}
		if entry.AmountIn == 0 {
			continue
		}

		out, next, err := tiers[i].ApplySwap(order.Direction, entry.AmountIn)
		if err != nil {
			return nil, fmt.Errorf("tier %q: %w", entry.TierID, err)
		}

		fee := entry.AmountIn * tiers[i].FeeRate
		fills[i].AmountIn = entry.AmountIn
		fills[i].AmountOut = out
		fills[i].FeeAmount = fee
		fills[i].PostTier = next
		post[i] = next
		totalOut += out
		totalFee += fee
	}

	result := &domain.SwapResult{
		Allocation:     alloc,
		Fills:          fills,
		TotalAmountOut: totalOut,
		FeeAmount:      totalFee,
		PostTiers:      post,
	}
	if order.AmountIn > 0 {
		result.FeeBps = totalFee / order.AmountIn * 10_000
		result.EffectivePrice = totalOut / order.AmountIn
	}
	return result, nil
}

func (e *SwapExecutor) validate(order domain.Order, tiers []domain.Tier, alloc domain.Allocation) error {
	if math.IsNaN(order.AmountIn) || order.AmountIn < 0 {
		return fmt.Errorf("%w: order amount in %v", domain.ErrInvalidInput, order.AmountIn)
	}
	if len(alloc.Entries) != len(tiers) {
		return fmt.Errorf("%w: allocation has %d entries for %d tiers", domain.ErrInvalidInput, len(alloc.Entries), len(tiers))
	}
	for i, entry := range alloc.Entries {
		if entry.TierID != tiers[i].ID {
			return fmt.Errorf("%w: allocation entry %d is for tier %q, snapshot has %q", domain.ErrInvalidInput, i, entry.TierID, tiers[i].ID)
		}
		if math.IsNaN(entry.AmountIn) || entry.AmountIn < 0 {
			return fmt.Errorf("%w: negative allocation %v for tier %q", domain.ErrInvalidInput, entry.AmountIn, entry.TierID)
		}
	}

	sum := alloc.Sum()
	if diff := math.Abs(sum - order.AmountIn); diff > conservationTolerance*math.Max(order.AmountIn, 1) {
		return fmt.Errorf("%w: allocation sums to %v for order of %v", domain.ErrInvalidInput, sum, order.AmountIn)
	}
	return nil
}

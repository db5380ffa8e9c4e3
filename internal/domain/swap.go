package domain

import "fmt"

// Order is an exact-in swap request against one tier set.
type Order struct {
	AmountIn  float64   `json:"amountIn"`
	Direction Direction `json:"direction"`
}

func (o Order) Validate() error {
	if o.AmountIn <= 0 || o.AmountIn != o.AmountIn {
		return fmt.Errorf("%w: order amount in %v", ErrInvalidInput, o.AmountIn)
	}
	if o.Direction != DirectionAToB && o.Direction != DirectionBToA {
		return fmt.Errorf("%w: order direction %d", ErrInvalidInput, o.Direction)
	}
	return nil
}

// AllocationEntry assigns part of an order's input to one tier.
type AllocationEntry struct {
	TierID   string  `json:"tierId"`
	AmountIn float64 `json:"amountIn"`
}

// Allocation is the per-tier division of an order's input, index-aligned
// with the tier slice it was solved against. Entries sum to the order's
// amount in; the solver's residual rule assigns any rounding leftover to the
// tier with the largest allocation.
type Allocation struct {
	Entries       []AllocationEntry `json:"entries"`
	TotalAmountIn float64           `json:"totalAmountIn"`
}

// Sum adds the entries in order. Kept as a method so validation and tests
// accumulate in the same order the solver did.
func (a Allocation) Sum() float64 {
	var total float64
	for _, e := range a.Entries {
		total += e.AmountIn
	}
	return total
}

// Fill is the realized trade against a single tier.
type Fill struct {
	TierID    string  `json:"tierId"`
	AmountIn  float64 `json:"amountIn"`
	AmountOut float64 `json:"amountOut"`
	FeeAmount float64 `json:"feeAmount"`
	PostTier  Tier    `json:"postTier"`
}

// SwapResult is the immutable outcome of one executed swap: the allocation
// that was applied, per-tier fills, and the full post-trade tier snapshot.
type SwapResult struct {
	Allocation     Allocation `json:"allocation"`
	Fills          []Fill     `json:"fills"`
	TotalAmountOut float64    `json:"totalAmountOut"`
	FeeAmount      float64    `json:"feeAmount"`
	FeeBps         float64    `json:"feeBps"`
	EffectivePrice float64    `json:"effectivePrice"`
	PostTiers      []Tier     `json:"postTiers"`
}

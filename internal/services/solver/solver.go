// Package solver computes the output-maximizing division of one exact-in
// order across the parallel fee tiers of a pool.
//
// For independent constant-product curves, total output is maximized exactly
// when every tier that receives input ends the trade at the same marginal
// price: if two active tiers disagreed, moving a sliver of input from the
// cheaper tier to the richer one would strictly increase output. The solver
// therefore searches for that equalized price p* directly. The total input
// needed to drive all tiers down to a target price is monotonically
// non-increasing in the target, so a plain bisection converges.
package solver

import (
	"errors"
	"fmt"
	"math"

	"github.com/hxuan190/tier-engine/internal/domain"
)

const (
	DefaultToleranceRelative = 1e-12
	DefaultMaxIterations     = 128
	DefaultMaxExpansions     = 64
)

var ErrNonConvergence = errors.New("solver did not converge")

// Config bounds the bisection. Tolerance is relative to the order size.
type Config struct {
	ToleranceRelative float64
	MaxIterations     int
	MaxExpansions     int
}

func DefaultConfig() Config {
	return Config{
		ToleranceRelative: DefaultToleranceRelative,
		MaxIterations:     DefaultMaxIterations,
		MaxExpansions:     DefaultMaxExpansions,
	}
}

func (c Config) Validate() error {
	if c.ToleranceRelative <= 0 || c.ToleranceRelative >= 1 {
		return fmt.Errorf("%w: tolerance %v outside (0, 1)", domain.ErrInvalidInput, c.ToleranceRelative)
	}
	if c.MaxIterations <= 0 || c.MaxExpansions <= 0 {
		return fmt.Errorf("%w: iteration bounds must be positive", domain.ErrInvalidInput)
	}
	return nil
}

// Plan is the solver's read-only answer: it references no tier state and can
// be handed to the executor or discarded freely.
type Plan struct {
	Allocation  domain.Allocation
	TargetPrice float64 // equalized post-trade marginal price
	ExpectedOut float64
	Iterations  int
}

type SplitSolver struct {
	cfg Config
}

func New(cfg Config) *SplitSolver {
	return &SplitSolver{cfg: cfg}
}

// Solve returns the allocation of order.AmountIn across tiers that equalizes
// post-trade marginal prices among the tiers it uses. Tiers without
// liquidity are carried through with a zero allocation; tiers with a
// malformed fee rate fail the whole solve before any search begins.
func (s *SplitSolver) Solve(order domain.Order, tiers []domain.Tier) (*Plan, error) {
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}
	if math.IsNaN(order.AmountIn) || math.IsInf(order.AmountIn, 0) || order.AmountIn < 0 {
		return nil, fmt.Errorf("%w: order amount in %v", domain.ErrInvalidInput, order.AmountIn)
	}
	if order.Direction != domain.DirectionAToB && order.Direction != domain.DirectionBToA {
		return nil, fmt.Errorf("%w: order direction %d", domain.ErrInvalidInput, order.Direction)
	}
	if len(tiers) == 0 {
		return nil, fmt.Errorf("%w: no tiers supplied", domain.ErrInvalidInput)
	}

	dir := order.Direction
	eligible := make([]int, 0, len(tiers))
	for i, t := range tiers {
		if t.FeeRate < 0 || t.FeeRate >= 1 || math.IsNaN(t.FeeRate) {
			return nil, fmt.Errorf("%w: tier %q fee rate %v outside [0, 1)", domain.ErrInvalidInput, t.ID, t.FeeRate)
		}
		if !t.HasLiquidity() {
			continue
		}
		eligible = append(eligible, i)
	}

	if order.AmountIn == 0 {
		return s.zeroPlan(order, tiers), nil
	}
	if len(eligible) == 0 {
		return nil, fmt.Errorf("%w: no tier has liquidity", domain.ErrInsufficientLiquidity)
	}
	if len(eligible) == 1 {
		return s.singleTierPlan(order, tiers, eligible[0])
	}

	pHigh := 0.0
	for _, i := range eligible {
		if p := tiers[i].MarginalPrice(dir); p > pHigh {
			pHigh = p
		}
	}

	// Expand the lower price bound geometrically until the tier set absorbs
	// the whole order at that price. Constant-product curves absorb any
	// finite order eventually, so exhausting the expansion budget means the
	// order is absurdly large relative to the pooled reserves.
	pLow := pHigh / 2
	absorbed := s.totalAmountInAt(tiers, eligible, dir, pLow)
	for n := 0; absorbed < order.AmountIn; n++ {
		if n >= s.cfg.MaxExpansions {
			return nil, fmt.Errorf("%w: order %v exceeds what the tier set can absorb", domain.ErrInsufficientLiquidity, order.AmountIn)
		}
		pLow /= 2
		absorbed = s.totalAmountInAt(tiers, eligible, dir, pLow)
	}

	tolerance := s.cfg.ToleranceRelative * order.AmountIn
	target := 0.0
	converged := false
	iterations := 0
	for ; iterations < s.cfg.MaxIterations; iterations++ {
		mid := (pLow + pHigh) / 2

		// The bracket has collapsed to adjacent doubles: the search function
		// cannot be resolved any finer, which happens before the relative
		// tolerance is reachable when the order is small against the
		// reserves. Accept mid; the residual rule absorbs the leftover.
		if mid <= pLow || mid >= pHigh {
			target = mid
			converged = true
			break
		}

		total := s.totalAmountInAt(tiers, eligible, dir, mid)
		if math.Abs(total-order.AmountIn) <= tolerance {
			target = mid
			converged = true
			break
		}
		if total > order.AmountIn {
			pLow = mid
		} else {
			pHigh = mid
		}
	}
	if !converged {
		return nil, fmt.Errorf("%w: %d bisection iterations without reaching tolerance %v", ErrNonConvergence, s.cfg.MaxIterations, s.cfg.ToleranceRelative)
	}

	return s.buildPlan(order, tiers, eligible, target, iterations)
}

// totalAmountInAt is the monotone search function f(p): the input required
// across eligible tiers so every post-trade marginal price reaches p. Tiers
// already priced at or below p contribute nothing.
func (s *SplitSolver) totalAmountInAt(tiers []domain.Tier, eligible []int, dir domain.Direction, price float64) float64 {
	var total float64
	for _, i := range eligible {
		total += tiers[i].AmountInForTargetPrice(dir, price)
	}
	return total
}

func (s *SplitSolver) buildPlan(order domain.Order, tiers []domain.Tier, eligible []int, target float64, iterations int) (*Plan, error) {
	dir := order.Direction
	amounts := make([]float64, len(tiers))
	largest := -1
	for _, i := range eligible {
		amounts[i] = tiers[i].AmountInForTargetPrice(dir, target)
		if largest < 0 || amounts[i] > amounts[largest] {
			largest = i
		}
	}

	// Residual rule: the tier with the largest allocation absorbs whatever
	// the tolerance left over, making the entry sum equal the order exactly.
	var others float64
	for i, x := range amounts {
		if i != largest {
			others += x
		}
	}
	amounts[largest] = order.AmountIn - others
	if amounts[largest] < 0 {
		return nil, fmt.Errorf("%w: residual exceeded the largest allocation", ErrNonConvergence)
	}

	entries := make([]domain.AllocationEntry, len(tiers))
	var expectedOut float64
	for i, t := range tiers {
		entries[i] = domain.AllocationEntry{TierID: t.ID, AmountIn: amounts[i]}
		if amounts[i] == 0 {
			continue
		}
		out, err := t.Quote(dir, amounts[i])
		if err != nil {
			return nil, err
		}
		expectedOut += out
	}

	return &Plan{
		Allocation: domain.Allocation{
			Entries:       entries,
			TotalAmountIn: order.AmountIn,
		},
		TargetPrice: target,
		ExpectedOut: expectedOut,
		Iterations:  iterations,
	}, nil
}

func (s *SplitSolver) zeroPlan(order domain.Order, tiers []domain.Tier) *Plan {
	entries := make([]domain.AllocationEntry, len(tiers))
	for i, t := range tiers {
		entries[i] = domain.AllocationEntry{TierID: t.ID}
	}
	return &Plan{
		Allocation: domain.Allocation{Entries: entries},
	}
}

// singleTierPlan skips the search: with one usable tier the split is the
// whole order and the solve reduces to a direct quote.
func (s *SplitSolver) singleTierPlan(order domain.Order, tiers []domain.Tier, idx int) (*Plan, error) {
	dir := order.Direction
	out, next, err := tiers[idx].ApplySwap(dir, order.AmountIn)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.AllocationEntry, len(tiers))
	for i, t := range tiers {
		entries[i] = domain.AllocationEntry{TierID: t.ID}
	}
	entries[idx].AmountIn = order.AmountIn

	return &Plan{
		Allocation: domain.Allocation{
			Entries:       entries,
			TotalAmountIn: order.AmountIn,
		},
		TargetPrice: next.MarginalPrice(dir),
		ExpectedOut: out,
	}, nil
}

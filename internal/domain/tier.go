package domain

import (
	"errors"
	"fmt"

	"github.com/hxuan190/tier-engine/internal/pricing"
)

var (
	ErrInvalidInput          = pricing.ErrInvalidInput
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
)

// Direction selects which token of the pair is the input side.
type Direction uint8

const (
	DirectionAToB Direction = iota
	DirectionBToA
)

func (d Direction) String() string {
	switch d {
	case DirectionAToB:
		return "AtoB"
	case DirectionBToA:
		return "BtoA"
	default:
		return "UNKNOWN"
	}
}

func ParseDirection(s string) (Direction, error) {
	switch s {
	case "AtoB", "atob", "ATOB":
		return DirectionAToB, nil
	case "BtoA", "btoa", "BTOA":
		return DirectionBToA, nil
	default:
		return 0, fmt.Errorf("%w: direction %q", ErrInvalidInput, s)
	}
}

// LiquidityCurve is the pricing surface of a tier: spot price, the inverse
// (input needed to reach a price), and exact-in quoting. Constant-product
// tiers implement it today.
type LiquidityCurve interface {
	MarginalPrice(dir Direction) float64
	AmountInForTargetPrice(dir Direction, target float64) float64
	Quote(dir Direction, amountIn float64) (float64, error)
}

// Tier is one fee-rated full-range liquidity curve within a pool. Tiers are
// immutable values: quoting never mutates, ApplySwap returns a new Tier.
type Tier struct {
	ID       string  `json:"id"`
	ReserveA float64 `json:"reserveA"`
	ReserveB float64 `json:"reserveB"`
	FeeRate  float64 `json:"feeRate"`
}

func (t Tier) Validate() error {
	if t.ReserveA <= 0 || t.ReserveB <= 0 {
		return fmt.Errorf("%w: tier %q reserves must be positive (a=%v b=%v)", ErrInvalidInput, t.ID, t.ReserveA, t.ReserveB)
	}
	if t.FeeRate < 0 || t.FeeRate >= 1 {
		return fmt.Errorf("%w: tier %q fee rate %v outside [0, 1)", ErrInvalidInput, t.ID, t.FeeRate)
	}
	return nil
}

// HasLiquidity reports whether both reserves are positive. Tiers without
// liquidity are excluded from solving rather than rejected.
func (t Tier) HasLiquidity() bool {
	return t.ReserveA > 0 && t.ReserveB > 0
}

func (t Tier) ReserveIn(dir Direction) float64 {
	if dir == DirectionAToB {
		return t.ReserveA
	}
	return t.ReserveB
}

func (t Tier) ReserveOut(dir Direction) float64 {
	if dir == DirectionAToB {
		return t.ReserveB
	}
	return t.ReserveA
}

// Quote returns the output amount for an exact-in trade without touching
// tier state. Safe to call repeatedly while planning.
func (t Tier) Quote(dir Direction, amountIn float64) (float64, error) {
	return pricing.QuoteOut(t.ReserveIn(dir), t.ReserveOut(dir), t.FeeRate, amountIn)
}

func (t Tier) MarginalPrice(dir Direction) float64 {
	return pricing.MarginalPrice(t.ReserveIn(dir), t.ReserveOut(dir), t.FeeRate)
}

func (t Tier) AmountInForTargetPrice(dir Direction, target float64) float64 {
	return pricing.AmountInForTargetPrice(t.ReserveIn(dir), t.ReserveOut(dir), t.FeeRate, target)
}

// ApplySwap trades amountIn into the tier and returns the realized output
// together with the updated tier value. The gross input (fee included) is
// added to the input reserve; the output reserve shrinks by the quote.
func (t Tier) ApplySwap(dir Direction, amountIn float64) (float64, Tier, error) {
	amountOut, err := t.Quote(dir, amountIn)
	if err != nil {
		return 0, Tier{}, err
	}
	if amountOut >= t.ReserveOut(dir) {
		return 0, Tier{}, fmt.Errorf("%w: tier %q output reserve exhausted", ErrInsufficientLiquidity, t.ID)
	}

	next := t
	if dir == DirectionAToB {
		next.ReserveA += amountIn
		next.ReserveB -= amountOut
	} else {
		next.ReserveB += amountIn
		next.ReserveA -= amountOut
	}
	return amountOut, next, nil
}

// TierSet is a named snapshot of the parallel tiers of one trading pair.
type TierSet struct {
	ID    string `json:"id"`
	Tiers []Tier `json:"tiers"`
}

func (s TierSet) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("%w: tier set id is empty", ErrInvalidInput)
	}
	if len(s.Tiers) == 0 {
		return fmt.Errorf("%w: tier set %q has no tiers", ErrInvalidInput, s.ID)
	}
	seen := make(map[string]struct{}, len(s.Tiers))
	for _, t := range s.Tiers {
		if err := t.Validate(); err != nil {
			return err
		}
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("%w: duplicate tier id %q in set %q", ErrInvalidInput, t.ID, s.ID)
		}
		seen[t.ID] = struct{}{}
	}
	return nil
}

// Clone returns a deep copy so registry snapshots stay isolated from callers.
func (s TierSet) Clone() TierSet {
	out := TierSet{ID: s.ID, Tiers: make([]Tier, len(s.Tiers))}
	copy(out.Tiers, s.Tiers)
	return out
}

// CombinedMarginalPrice is the reserve-weighted marginal price across tiers
// with liquidity, the pool-level price a reporting layer would display.
func (s TierSet) CombinedMarginalPrice(dir Direction) float64 {
	var weighted, weight float64
	for _, t := range s.Tiers {
		if !t.HasLiquidity() {
			continue
		}
		w := t.ReserveIn(dir)
		weighted += t.MarginalPrice(dir) * w
		weight += w
	}
	if weight == 0 {
		return 0
	}
	return weighted / weight
}

package domain

import (
	"errors"
	"math"
	"testing"
)

func TestTierValidate(t *testing.T) {
	tests := []struct {
		name    string
		tier    Tier
		wantErr bool
	}{
		{"valid", Tier{ID: "30bps", ReserveA: 1000, ReserveB: 1000, FeeRate: 0.003}, false},
		{"zero fee", Tier{ID: "zero", ReserveA: 1, ReserveB: 1, FeeRate: 0}, false},
		{"zero reserve", Tier{ID: "empty", ReserveA: 0, ReserveB: 1000, FeeRate: 0.003}, true},
		{"negative reserve", Tier{ID: "neg", ReserveA: 1000, ReserveB: -1, FeeRate: 0.003}, true},
		{"fee at one", Tier{ID: "fee1", ReserveA: 1000, ReserveB: 1000, FeeRate: 1}, true},
		{"negative fee", Tier{ID: "negfee", ReserveA: 1000, ReserveB: 1000, FeeRate: -0.01}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tier.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

// TestTierQuoteIdempotent: quoting is planning, it must not move reserves
// and must return the same value every time.
func TestTierQuoteIdempotent(t *testing.T) {
	tier := Tier{ID: "30bps", ReserveA: 1000, ReserveB: 1000, FeeRate: 0.003}

	first, err := tier.Quote(DirectionAToB, 100)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		out, err := tier.Quote(DirectionAToB, 100)
		if err != nil {
			t.Fatal(err)
		}
		if out != first {
			t.Fatalf("quote %d returned %v, first returned %v", i, out, first)
		}
	}
	if tier.ReserveA != 1000 || tier.ReserveB != 1000 {
		t.Fatalf("quote mutated reserves: %+v", tier)
	}
}

func TestTierApplySwap(t *testing.T) {
	tier := Tier{ID: "30bps", ReserveA: 1000, ReserveB: 1000, FeeRate: 0.003}

	out, next, err := tier.ApplySwap(DirectionAToB, 100)
	if err != nil {
		t.Fatal(err)
	}

	if next.ReserveA != 1100 {
		t.Errorf("input reserve %v, expected 1100", next.ReserveA)
	}
	if math.Abs(next.ReserveB-(1000-out)) > 1e-12 {
		t.Errorf("output reserve %v, expected %v", next.ReserveB, 1000-out)
	}

	// the fee stays on the input side, so the invariant product grows
	if next.ReserveA*next.ReserveB < tier.ReserveA*tier.ReserveB {
		t.Errorf("invariant product shrank: %v -> %v", tier.ReserveA*tier.ReserveB, next.ReserveA*next.ReserveB)
	}

	// original value untouched
	if tier.ReserveA != 1000 || tier.ReserveB != 1000 {
		t.Errorf("ApplySwap mutated the receiver: %+v", tier)
	}
}

func TestTierApplySwapDirectionSymmetry(t *testing.T) {
	tier := Tier{ID: "t", ReserveA: 800, ReserveB: 1200, FeeRate: 0.01}

	outAB, _, err := tier.ApplySwap(DirectionAToB, 50)
	if err != nil {
		t.Fatal(err)
	}

	// the same trade on the mirrored tier in the other direction must match
	mirror := Tier{ID: "t", ReserveA: 1200, ReserveB: 800, FeeRate: 0.01}
	outBA, _, err := mirror.ApplySwap(DirectionBToA, 50)
	if err != nil {
		t.Fatal(err)
	}
	if outAB != outBA {
		t.Errorf("direction asymmetry: %v vs %v", outAB, outBA)
	}
}

func TestTierSetValidate(t *testing.T) {
	valid := TierSet{ID: "p", Tiers: []Tier{
		{ID: "a", ReserveA: 1, ReserveB: 1, FeeRate: 0},
		{ID: "b", ReserveA: 1, ReserveB: 1, FeeRate: 0.01},
	}}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dup := TierSet{ID: "p", Tiers: []Tier{
		{ID: "a", ReserveA: 1, ReserveB: 1, FeeRate: 0},
		{ID: "a", ReserveA: 1, ReserveB: 1, FeeRate: 0.01},
	}}
	if err := dup.Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for duplicate tier ids, got %v", err)
	}

	empty := TierSet{ID: "p"}
	if err := empty.Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty set, got %v", err)
	}
}

func TestCombinedMarginalPrice(t *testing.T) {
	set := TierSet{ID: "p", Tiers: []Tier{
		{ID: "a", ReserveA: 1000, ReserveB: 1000, FeeRate: 0},
		{ID: "b", ReserveA: 1000, ReserveB: 1000, FeeRate: 0},
	}}
	if p := set.CombinedMarginalPrice(DirectionAToB); math.Abs(p-1.0) > 1e-15 {
		t.Errorf("combined price %v, expected 1.0", p)
	}
}

func TestParseDirection(t *testing.T) {
	if d, err := ParseDirection("AtoB"); err != nil || d != DirectionAToB {
		t.Fatalf("AtoB: %v %v", d, err)
	}
	if d, err := ParseDirection("BtoA"); err != nil || d != DirectionBToA {
		t.Fatalf("BtoA: %v %v", d, err)
	}
	if _, err := ParseDirection("sideways"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

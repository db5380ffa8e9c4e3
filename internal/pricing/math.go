// Package pricing contains the pure constant-product curve math shared by
// the tier domain types and the split solver. All functions are stateless.
package pricing

import (
	"errors"
	"fmt"
	"math"
)

var ErrInvalidInput = errors.New("invalid input")

// validateCurve rejects reserve/fee combinations the curve math cannot
// operate on. Non-positive reserves make the invariant product degenerate,
// and a fee at or above 100% consumes the whole input.
func validateCurve(reserveIn, reserveOut, feeRate float64) error {
	if math.IsNaN(reserveIn) || math.IsNaN(reserveOut) || reserveIn <= 0 || reserveOut <= 0 {
		return fmt.Errorf("%w: reserves must be positive (in=%v out=%v)", ErrInvalidInput, reserveIn, reserveOut)
	}
	if math.IsNaN(feeRate) || feeRate < 0 || feeRate >= 1 {
		return fmt.Errorf("%w: fee rate %v outside [0, 1)", ErrInvalidInput, feeRate)
	}
	return nil
}

// QuoteOut returns the output amount for an exact-in trade against a
// constant-product curve. The fee is deducted from the input before it
// crosses the curve; the fee amount stays on the input side as extra reserve.
func QuoteOut(reserveIn, reserveOut, feeRate, amountIn float64) (float64, error) {
	if err := validateCurve(reserveIn, reserveOut, feeRate); err != nil {
		return 0, err
	}
	if math.IsNaN(amountIn) || math.IsInf(amountIn, 0) || amountIn < 0 {
		return 0, fmt.Errorf("%w: amount in %v", ErrInvalidInput, amountIn)
	}

	afterFee := amountIn * (1 - feeRate)
	return reserveOut - (reserveIn*reserveOut)/(reserveIn+afterFee), nil
}

// MarginalPrice is the instantaneous output-per-input exchange rate at the
// current reserve point, i.e. the derivative of QuoteOut at zero trade size.
// Strictly decreasing in reserveIn for fixed reserveOut.
func MarginalPrice(reserveIn, reserveOut, feeRate float64) float64 {
	return (reserveOut / reserveIn) * (1 - feeRate)
}

// AmountInForTargetPrice returns the input amount that leaves the curve's
// post-trade marginal price at target. Post-trade means the state a swap
// actually produces: the gross input (fee included) lands on the input
// reserve while only the fee-net part crosses the curve. With gamma = 1-fee
// that state satisfies
//
//	target * (reserveIn + gamma*x) * (reserveIn + x) = gamma * reserveIn * reserveOut
//
// whose positive root is returned. Returns 0 when the current marginal price
// is already at or below target: trading in would only push the price further
// down, so the curve takes no part of that slice of the order.
func AmountInForTargetPrice(reserveIn, reserveOut, feeRate, target float64) float64 {
	if target <= 0 || math.IsNaN(target) {
		return 0
	}
	if MarginalPrice(reserveIn, reserveOut, feeRate) <= target {
		return 0
	}

	gamma := 1 - feeRate
	k := reserveIn * reserveOut

	// gamma*target*x^2 + target*reserveIn*(1+gamma)*x + (target*reserveIn^2 - gamma*k) = 0
	a := gamma * target
	b := target * reserveIn * (1 + gamma)
	c := target*reserveIn*reserveIn - gamma*k

	// c <= 0 here (guaranteed by the marginal-price guard above), so the
	// -2c/(b+sqrt) form of the positive root avoids cancellation when the
	// target sits just below the current price.
	disc := b*b - 4*a*c
	return -2 * c / (b + math.Sqrt(disc))
}

// Package swapmath computes the result of swapping within a single tick
// range: the price reached, the amounts exchanged, and the fee taken.
package swapmath

import (
	"github.com/holiman/uint256"

	"github.com/clamm/clamm-go/fullmath"
	"github.com/clamm/clamm-go/sqrtpricemath"
)

// FeeDenominator is the unit of fee rates: 1,000,000 ppm is 100%.
const FeeDenominator = uint32(1_000_000)

var feeDenominator = uint256.NewInt(uint64(FeeDenominator))

// ComputeSwapStep advances a swap from sqrtRatioCurrentX96 toward
// sqrtRatioTargetX96 at constant liquidity, stopping at whichever comes
// first: the target price or exhaustion of amountRemaining.
//
// amountRemaining is a two's-complement signed value: non-negative means an
// exact-input swap (the fee is carved out of the input), negative an
// exact-output swap (the fee is charged on top of the input). amountIn,
// amountOut and feeAmount are written as unsigned magnitudes.
func ComputeSwapStep(
	sqrtRatioNextX96, amountIn, amountOut, feeAmount *uint256.Int,
	sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, amountRemaining *uint256.Int,
	feePips uint32,
) error {
	zeroForOne := !sqrtRatioCurrentX96.Lt(sqrtRatioTargetX96)
	exactIn := amountRemaining.Sign() >= 0

	amountIn.Clear()
	amountOut.Clear()
	feeAmount.Clear()

	var feeComplement uint256.Int
	feeComplement.SubUint64(feeDenominator, uint64(feePips))

	var amountRemainingAbs uint256.Int

	if exactIn {
		var amountRemainingLessFee uint256.Int
		if err := fullmath.MulDiv(&amountRemainingLessFee, amountRemaining, &feeComplement, feeDenominator); err != nil {
			return err
		}

		// Input needed to reach the target price.
		if zeroForOne {
			if err := sqrtpricemath.GetAmount0Delta(amountIn, sqrtRatioTargetX96, sqrtRatioCurrentX96, liquidity, true); err != nil {
				return err
			}
		} else {
			if err := sqrtpricemath.GetAmount1Delta(amountIn, sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, true); err != nil {
				return err
			}
		}

		if !amountRemainingLessFee.Lt(amountIn) {
			sqrtRatioNextX96.Set(sqrtRatioTargetX96)
		} else if err := sqrtpricemath.GetNextSqrtPriceFromInput(sqrtRatioNextX96, sqrtRatioCurrentX96, liquidity, &amountRemainingLessFee, zeroForOne); err != nil {
			return err
		}
	} else {
		amountRemainingAbs.Neg(amountRemaining)

		// Output available down to the target price.
		if zeroForOne {
			if err := sqrtpricemath.GetAmount1Delta(amountOut, sqrtRatioTargetX96, sqrtRatioCurrentX96, liquidity, false); err != nil {
				return err
			}
		} else {
			if err := sqrtpricemath.GetAmount0Delta(amountOut, sqrtRatioCurrentX96, sqrtRatioTargetX96, liquidity, false); err != nil {
				return err
			}
		}

		if !amountRemainingAbs.Lt(amountOut) {
			sqrtRatioNextX96.Set(sqrtRatioTargetX96)
		} else if err := sqrtpricemath.GetNextSqrtPriceFromOutput(sqrtRatioNextX96, sqrtRatioCurrentX96, liquidity, &amountRemainingAbs, zeroForOne); err != nil {
			return err
		}
	}

	max := sqrtRatioTargetX96.Eq(sqrtRatioNextX96)

	// Recompute the amounts for the price actually reached. When the target
	// was hit, the side already computed against the target is still valid.
	if zeroForOne {
		if !(max && exactIn) {
			if err := sqrtpricemath.GetAmount0Delta(amountIn, sqrtRatioNextX96, sqrtRatioCurrentX96, liquidity, true); err != nil {
				return err
			}
		}
		if !(max && !exactIn) {
			if err := sqrtpricemath.GetAmount1Delta(amountOut, sqrtRatioNextX96, sqrtRatioCurrentX96, liquidity, false); err != nil {
				return err
			}
		}
	} else {
		if !(max && exactIn) {
			if err := sqrtpricemath.GetAmount1Delta(amountIn, sqrtRatioCurrentX96, sqrtRatioNextX96, liquidity, true); err != nil {
				return err
			}
		}
		if !(max && !exactIn) {
			if err := sqrtpricemath.GetAmount0Delta(amountOut, sqrtRatioCurrentX96, sqrtRatioNextX96, liquidity, false); err != nil {
				return err
			}
		}
	}

	// Cap an exact-output swap at the requested output.
	if !exactIn && amountOut.Gt(&amountRemainingAbs) {
		amountOut.Set(&amountRemainingAbs)
	}

	if exactIn && !sqrtRatioNextX96.Eq(sqrtRatioTargetX96) {
		// The input was exhausted before the target: whatever remains after
		// amountIn is the fee.
		feeAmount.Sub(amountRemaining, amountIn)
	} else if err := fullmath.MulDivRoundingUp(feeAmount, amountIn, uint256.NewInt(uint64(feePips)), &feeComplement); err != nil {
		return err
	}
	return nil
}

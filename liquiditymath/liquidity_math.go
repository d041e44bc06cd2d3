// Package liquiditymath covers liquidity bookkeeping: applying signed
// liquidity deltas under the 128-bit cap, and converting between token
// amounts and the liquidity they support over a price range.
package liquiditymath

import (
	"errors"

	"github.com/holiman/uint256"

	"github.com/clamm/clamm-go/fixedpoint"
	"github.com/clamm/clamm-go/fullmath"
	"github.com/clamm/clamm-go/sqrtpricemath"
)

var (
	// ErrLiquidityOverflow is returned when adding a delta would exceed the 128-bit liquidity cap.
	ErrLiquidityOverflow = errors.New("liquidity overflow")
	// ErrLiquidityUnderflow is returned when subtracting a delta would take liquidity below zero.
	ErrLiquidityUnderflow = errors.New("liquidity underflow")
)

// AddDelta writes x + y into dest, where x is an unsigned 128-bit liquidity
// amount and y is a two's-complement signed delta. dest may alias x.
func AddDelta(dest, x, y *uint256.Int) error {
	if y.Sign() < 0 {
		var abs uint256.Int
		abs.Neg(y)
		if x.Lt(&abs) {
			return ErrLiquidityUnderflow
		}
		dest.Sub(x, &abs)
		return nil
	}
	dest.Add(x, y)
	if dest.Gt(fixedpoint.MaxUint128) {
		dest.Set(x)
		return ErrLiquidityOverflow
	}
	return nil
}

// GetLiquidityForAmount0 writes the largest liquidity amount0 can support
// over the range [sqrtRatioAX96, sqrtRatioBX96] into dest:
// amount0 * (sqrtA * sqrtB / 2^96) / (sqrtB - sqrtA).
func GetLiquidityForAmount0(dest, sqrtRatioAX96, sqrtRatioBX96, amount0 *uint256.Int) error {
	a, b := sqrtRatioAX96, sqrtRatioBX96
	if a.Gt(b) {
		a, b = b, a
	}
	var intermediate, width uint256.Int
	if err := fullmath.MulDiv(&intermediate, a, b, fixedpoint.Q96); err != nil {
		return err
	}
	width.Sub(b, a)
	return fullmath.MulDiv(dest, amount0, &intermediate, &width)
}

// GetLiquidityForAmount1 writes the largest liquidity amount1 can support
// over the range [sqrtRatioAX96, sqrtRatioBX96] into dest:
// amount1 * 2^96 / (sqrtB - sqrtA).
func GetLiquidityForAmount1(dest, sqrtRatioAX96, sqrtRatioBX96, amount1 *uint256.Int) error {
	a, b := sqrtRatioAX96, sqrtRatioBX96
	if a.Gt(b) {
		a, b = b, a
	}
	var width uint256.Int
	width.Sub(b, a)
	return fullmath.MulDiv(dest, amount1, fixedpoint.Q96, &width)
}

// GetLiquidityForAmounts writes the largest liquidity both token amounts can
// support at the current price into dest. Below the range only token0
// matters, above it only token1, and inside it the binding constraint is the
// smaller of the two.
func GetLiquidityForAmounts(dest, sqrtRatioX96, sqrtRatioAX96, sqrtRatioBX96, amount0, amount1 *uint256.Int) error {
	a, b := sqrtRatioAX96, sqrtRatioBX96
	if a.Gt(b) {
		a, b = b, a
	}

	if !sqrtRatioX96.Gt(a) {
		return GetLiquidityForAmount0(dest, a, b, amount0)
	}
	if sqrtRatioX96.Lt(b) {
		var liquidity0, liquidity1 uint256.Int
		if err := GetLiquidityForAmount0(&liquidity0, sqrtRatioX96, b, amount0); err != nil {
			return err
		}
		if err := GetLiquidityForAmount1(&liquidity1, a, sqrtRatioX96, amount1); err != nil {
			return err
		}
		if liquidity0.Lt(&liquidity1) {
			dest.Set(&liquidity0)
		} else {
			dest.Set(&liquidity1)
		}
		return nil
	}
	return GetLiquidityForAmount1(dest, a, b, amount1)
}

// GetAmountsForLiquidity writes the token amounts a liquidity position holds
// at the current price into amount0 and amount1, rounding down.
func GetAmountsForLiquidity(amount0, amount1, sqrtRatioX96, sqrtRatioAX96, sqrtRatioBX96, liquidity *uint256.Int) error {
	a, b := sqrtRatioAX96, sqrtRatioBX96
	if a.Gt(b) {
		a, b = b, a
	}

	amount0.Clear()
	amount1.Clear()
	if !sqrtRatioX96.Gt(a) {
		return sqrtpricemath.GetAmount0Delta(amount0, a, b, liquidity, false)
	}
	if sqrtRatioX96.Lt(b) {
		if err := sqrtpricemath.GetAmount0Delta(amount0, sqrtRatioX96, b, liquidity, false); err != nil {
			return err
		}
		return sqrtpricemath.GetAmount1Delta(amount1, a, sqrtRatioX96, liquidity, false)
	}
	return sqrtpricemath.GetAmount1Delta(amount1, a, b, liquidity, false)
}

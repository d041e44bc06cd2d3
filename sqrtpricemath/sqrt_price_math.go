// Package sqrtpricemath relates price movement to token amounts. All prices
// are Q64.96 sqrt prices and all rounding is in the pool's favor: amounts
// owed to the pool round up, amounts paid out round down.
package sqrtpricemath

import (
	"errors"

	"github.com/holiman/uint256"

	"github.com/clamm/clamm-go/fixedpoint"
	"github.com/clamm/clamm-go/fullmath"
)

var (
	ErrLiquidityZero     = errors.New("liquidity must be greater than zero")
	ErrSqrtPriceZero     = errors.New("sqrt price must be greater than zero")
	ErrPriceUnderflow    = errors.New("amount exceeds available reserves at this price")
	errAmountDeltaSigned = errors.New("amount delta does not fit in a signed 256-bit value")
)

// GetNextSqrtPriceFromAmount0RoundingUp writes the price after a token0 delta
// into dest. Adding token0 moves the price down, removing it moves the price
// up; either way the result rounds up so the pool never undercharges.
//
// The exact form liquidity * sqrtP / (liquidity +- amount * sqrtP) is used
// when the intermediate products fit in 256 bits, otherwise the equivalent
// liquidity / (liquidity / sqrtP +- amount).
func GetNextSqrtPriceFromAmount0RoundingUp(dest, sqrtPX96, liquidity, amount *uint256.Int, add bool) error {
	if amount.IsZero() {
		dest.Set(sqrtPX96)
		return nil
	}

	var numerator1 uint256.Int
	numerator1.Lsh(liquidity, fixedpoint.Resolution96)

	if add {
		var product, denominator uint256.Int
		if _, overflow := product.MulOverflow(amount, sqrtPX96); !overflow {
			if _, overflow := denominator.AddOverflow(&numerator1, &product); !overflow {
				return fullmath.MulDivRoundingUp(dest, &numerator1, sqrtPX96, &denominator)
			}
		}
		denominator.Div(&numerator1, sqrtPX96)
		denominator.Add(&denominator, amount)
		return fullmath.DivRoundingUp(dest, &numerator1, &denominator)
	}

	var product uint256.Int
	if _, overflow := product.MulOverflow(amount, sqrtPX96); overflow || !numerator1.Gt(&product) {
		return ErrPriceUnderflow
	}
	var denominator uint256.Int
	denominator.Sub(&numerator1, &product)
	return fullmath.MulDivRoundingUp(dest, &numerator1, sqrtPX96, &denominator)
}

// GetNextSqrtPriceFromAmount1RoundingDown writes the price after a token1
// delta into dest. Adding token1 moves the price up, removing it moves the
// price down; the result rounds down.
func GetNextSqrtPriceFromAmount1RoundingDown(dest, sqrtPX96, liquidity, amount *uint256.Int, add bool) error {
	var quotient uint256.Int
	if add {
		if amount.BitLen() <= 160 {
			quotient.Lsh(amount, fixedpoint.Resolution96).Div(&quotient, liquidity)
		} else if err := fullmath.MulDiv(&quotient, amount, fixedpoint.Q96, liquidity); err != nil {
			return err
		}
		dest.Add(sqrtPX96, &quotient)
		return nil
	}

	if amount.BitLen() <= 160 {
		quotient.Lsh(amount, fixedpoint.Resolution96)
		if err := fullmath.DivRoundingUp(&quotient, &quotient, liquidity); err != nil {
			return err
		}
	} else if err := fullmath.MulDivRoundingUp(&quotient, amount, fixedpoint.Q96, liquidity); err != nil {
		return err
	}
	if !sqrtPX96.Gt(&quotient) {
		return ErrPriceUnderflow
	}
	dest.Sub(sqrtPX96, &quotient)
	return nil
}

// GetNextSqrtPriceFromInput writes the price after spending amountIn into dest.
func GetNextSqrtPriceFromInput(dest, sqrtPX96, liquidity, amountIn *uint256.Int, zeroForOne bool) error {
	if sqrtPX96.IsZero() {
		return ErrSqrtPriceZero
	}
	if liquidity.IsZero() {
		return ErrLiquidityZero
	}
	if zeroForOne {
		return GetNextSqrtPriceFromAmount0RoundingUp(dest, sqrtPX96, liquidity, amountIn, true)
	}
	return GetNextSqrtPriceFromAmount1RoundingDown(dest, sqrtPX96, liquidity, amountIn, true)
}

// GetNextSqrtPriceFromOutput writes the price after withdrawing amountOut into dest.
func GetNextSqrtPriceFromOutput(dest, sqrtPX96, liquidity, amountOut *uint256.Int, zeroForOne bool) error {
	if sqrtPX96.IsZero() {
		return ErrSqrtPriceZero
	}
	if liquidity.IsZero() {
		return ErrLiquidityZero
	}
	if zeroForOne {
		return GetNextSqrtPriceFromAmount1RoundingDown(dest, sqrtPX96, liquidity, amountOut, false)
	}
	return GetNextSqrtPriceFromAmount0RoundingUp(dest, sqrtPX96, liquidity, amountOut, false)
}

// GetAmount0Delta writes the token0 amount covering the range between two
// sqrt prices at the given liquidity into dest:
// liquidity * 2^96 * (sqrtB - sqrtA) / (sqrtB * sqrtA).
func GetAmount0Delta(dest, sqrtRatioAX96, sqrtRatioBX96, liquidity *uint256.Int, roundUp bool) error {
	a, b := sqrtRatioAX96, sqrtRatioBX96
	if a.Gt(b) {
		a, b = b, a
	}
	if a.IsZero() {
		return ErrSqrtPriceZero
	}

	var numerator1, numerator2 uint256.Int
	numerator1.Lsh(liquidity, fixedpoint.Resolution96)
	numerator2.Sub(b, a)

	if roundUp {
		var term uint256.Int
		if err := fullmath.MulDivRoundingUp(&term, &numerator1, &numerator2, b); err != nil {
			return err
		}
		return fullmath.DivRoundingUp(dest, &term, a)
	}
	if err := fullmath.MulDiv(dest, &numerator1, &numerator2, b); err != nil {
		return err
	}
	dest.Div(dest, a)
	return nil
}

// GetAmount1Delta writes the token1 amount covering the range between two
// sqrt prices at the given liquidity into dest: liquidity * (sqrtB - sqrtA) / 2^96.
func GetAmount1Delta(dest, sqrtRatioAX96, sqrtRatioBX96, liquidity *uint256.Int, roundUp bool) error {
	a, b := sqrtRatioAX96, sqrtRatioBX96
	if a.Gt(b) {
		a, b = b, a
	}

	var numerator uint256.Int
	numerator.Sub(b, a)
	if roundUp {
		return fullmath.MulDivRoundingUp(dest, liquidity, &numerator, fixedpoint.Q96)
	}
	return fullmath.MulDiv(dest, liquidity, &numerator, fixedpoint.Q96)
}

// GetAmount0DeltaSigned is GetAmount0Delta for a signed liquidity delta,
// interpreting and producing two's-complement 256-bit values. Negative
// liquidity (a burn) yields a negative amount rounded toward zero; positive
// liquidity (a mint) yields a positive amount rounded up.
func GetAmount0DeltaSigned(dest, sqrtRatioAX96, sqrtRatioBX96, liquidityDelta *uint256.Int) error {
	if liquidityDelta.Sign() < 0 {
		var abs uint256.Int
		abs.Neg(liquidityDelta)
		if err := GetAmount0Delta(dest, sqrtRatioAX96, sqrtRatioBX96, &abs, false); err != nil {
			return err
		}
		dest.Neg(dest)
		return nil
	}
	if err := GetAmount0Delta(dest, sqrtRatioAX96, sqrtRatioBX96, liquidityDelta, true); err != nil {
		return err
	}
	if dest.Sign() < 0 {
		return errAmountDeltaSigned
	}
	return nil
}

// GetAmount1DeltaSigned is GetAmount1Delta for a signed liquidity delta.
func GetAmount1DeltaSigned(dest, sqrtRatioAX96, sqrtRatioBX96, liquidityDelta *uint256.Int) error {
	if liquidityDelta.Sign() < 0 {
		var abs uint256.Int
		abs.Neg(liquidityDelta)
		if err := GetAmount1Delta(dest, sqrtRatioAX96, sqrtRatioBX96, &abs, false); err != nil {
			return err
		}
		dest.Neg(dest)
		return nil
	}
	if err := GetAmount1Delta(dest, sqrtRatioAX96, sqrtRatioBX96, liquidityDelta, true); err != nil {
		return err
	}
	if dest.Sign() < 0 {
		return errAmountDeltaSigned
	}
	return nil
}

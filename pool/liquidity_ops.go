package pool

import (
	"github.com/holiman/uint256"

	"github.com/clamm/clamm-go/liquiditymath"
	"github.com/clamm/clamm-go/position"
	"github.com/clamm/clamm-go/sqrtpricemath"
	"github.com/clamm/clamm-go/tickmath"
)

// computeAmounts returns the signed token deltas a liquidity change over
// [lowerTick, upperTick] implies at the current price. Below the range the
// position is all token0, above it all token1, and inside it both sides
// contribute.
func (p *Pool) computeAmounts(lowerTick, upperTick int32, liquidityDelta *uint256.Int) (*uint256.Int, *uint256.Int, error) {
	amount0 := new(uint256.Int)
	amount1 := new(uint256.Int)

	var lowerRatio, upperRatio uint256.Int
	if err := tickmath.GetSqrtRatioAtTick(&lowerRatio, lowerTick); err != nil {
		return nil, nil, err
	}
	if err := tickmath.GetSqrtRatioAtTick(&upperRatio, upperTick); err != nil {
		return nil, nil, err
	}

	switch {
	case p.currentTick < lowerTick:
		if err := sqrtpricemath.GetAmount0DeltaSigned(amount0, &lowerRatio, &upperRatio, liquidityDelta); err != nil {
			return nil, nil, err
		}
	case p.currentTick < upperTick:
		if err := sqrtpricemath.GetAmount0DeltaSigned(amount0, p.sqrtPriceX96, &upperRatio, liquidityDelta); err != nil {
			return nil, nil, err
		}
		if err := sqrtpricemath.GetAmount1DeltaSigned(amount1, &lowerRatio, p.sqrtPriceX96, liquidityDelta); err != nil {
			return nil, nil, err
		}
	default:
		if err := sqrtpricemath.GetAmount1DeltaSigned(amount1, &lowerRatio, &upperRatio, liquidityDelta); err != nil {
			return nil, nil, err
		}
	}
	return amount0, amount1, nil
}

// modifyPosition applies a signed liquidity delta to a position and its tick
// bounds. Every bound is checked before the first write, so either all of
// the tick table, bitmap, position and active liquidity are updated, or none
// are.
func (p *Pool) modifyPosition(owner string, lowerTick, upperTick int32, liquidityDelta *uint256.Int) (*position.Info, error) {
	key := position.Key(owner, lowerTick, upperTick)
	pos, havePos := p.positions[key]

	// Validation stage.
	if liquidityDelta.IsZero() {
		if !havePos || pos.Liquidity.IsZero() {
			return nil, position.ErrNoPositionLiquidity
		}
	} else {
		var scratch uint256.Int
		if havePos {
			scratch.Set(pos.Liquidity)
		}
		if err := liquiditymath.AddDelta(&scratch, &scratch, liquidityDelta); err != nil {
			return nil, err
		}
		if err := p.ticks.ValidateUpdate(lowerTick, liquidityDelta, p.maxLiquidityPerTick); err != nil {
			return nil, err
		}
		if err := p.ticks.ValidateUpdate(upperTick, liquidityDelta, p.maxLiquidityPerTick); err != nil {
			return nil, err
		}
		if lowerTick <= p.currentTick && p.currentTick < upperTick {
			if err := liquiditymath.AddDelta(&scratch, p.liquidity, liquidityDelta); err != nil {
				return nil, err
			}
		}
	}

	// Commit stage.
	flippedLower, err := p.ticks.Update(lowerTick, p.currentTick, liquidityDelta,
		p.feeGrowthGlobal0X128, p.feeGrowthGlobal1X128, p.maxLiquidityPerTick, false)
	if err != nil {
		return nil, err
	}
	flippedUpper, err := p.ticks.Update(upperTick, p.currentTick, liquidityDelta,
		p.feeGrowthGlobal0X128, p.feeGrowthGlobal1X128, p.maxLiquidityPerTick, true)
	if err != nil {
		return nil, err
	}
	if flippedLower {
		if err := p.bitmap.FlipTick(lowerTick, p.cfg.TickSpacing); err != nil {
			return nil, err
		}
	}
	if flippedUpper {
		if err := p.bitmap.FlipTick(upperTick, p.cfg.TickSpacing); err != nil {
			return nil, err
		}
	}

	inside0, inside1 := p.ticks.GetFeeGrowthInside(lowerTick, upperTick, p.currentTick,
		p.feeGrowthGlobal0X128, p.feeGrowthGlobal1X128)

	if !havePos {
		pos = position.NewInfo()
		p.positions[key] = pos
	}
	if err := pos.Update(liquidityDelta, inside0, inside1); err != nil {
		return nil, err
	}

	if liquidityDelta.Sign() < 0 {
		if flippedLower {
			p.ticks.Clear(lowerTick)
		}
		if flippedUpper {
			p.ticks.Clear(upperTick)
		}
	}

	if !liquidityDelta.IsZero() && lowerTick <= p.currentTick && p.currentTick < upperTick {
		if err := liquiditymath.AddDelta(p.liquidity, p.liquidity, liquidityDelta); err != nil {
			return nil, err
		}
	}
	return pos, nil
}

// Mint adds liquidity to a position, drawing the tokens owed from the
// owner's deposits. It returns the token amounts consumed. The deposits are
// checked before any state changes, so a short-funded mint is a no-op.
func (p *Pool) Mint(owner string, lowerTick, upperTick int32, amount *uint256.Int) (*uint256.Int, *uint256.Int, error) {
	if !p.initialized {
		return nil, nil, ErrNotInitialized
	}
	if err := p.checkTicks(lowerTick, upperTick); err != nil {
		return nil, nil, err
	}
	if amount.IsZero() || amount.Sign() < 0 {
		return nil, nil, ErrZeroLiquidity
	}

	amount0, amount1, err := p.computeAmounts(lowerTick, upperTick, amount)
	if err != nil {
		return nil, nil, err
	}
	if depositOf(p.deposited0, owner).Lt(amount0) || depositOf(p.deposited1, owner).Lt(amount1) {
		return nil, nil, ErrInsufficientInput
	}

	if _, err := p.modifyPosition(owner, lowerTick, upperTick, amount); err != nil {
		return nil, nil, err
	}

	// Cannot fail: the balances were checked above and nothing else has
	// touched them since.
	if err := debitDeposit(p.deposited0, owner, amount0); err != nil {
		return nil, nil, err
	}
	if err := debitDeposit(p.deposited1, owner, amount1); err != nil {
		return nil, nil, err
	}
	return amount0, amount1, nil
}

// Burn removes liquidity from a position. The freed token amounts are not
// paid out; they are credited to the position's TokensOwed balances and
// retrieved with Collect. Burning zero is a poke that settles fees.
func (p *Pool) Burn(owner string, lowerTick, upperTick int32, amount *uint256.Int) (*uint256.Int, *uint256.Int, error) {
	if !p.initialized {
		return nil, nil, ErrNotInitialized
	}
	if err := p.checkTicks(lowerTick, upperTick); err != nil {
		return nil, nil, err
	}
	if amount.Sign() < 0 {
		return nil, nil, ErrZeroLiquidity
	}

	var delta uint256.Int
	delta.Neg(amount)
	amount0, amount1, err := p.computeAmounts(lowerTick, upperTick, &delta)
	if err != nil {
		return nil, nil, err
	}

	pos, err := p.modifyPosition(owner, lowerTick, upperTick, &delta)
	if err != nil {
		return nil, nil, err
	}

	amount0.Neg(amount0)
	amount1.Neg(amount1)
	if !amount0.IsZero() || !amount1.IsZero() {
		pos.TokensOwed0.Add(pos.TokensOwed0, amount0)
		pos.TokensOwed1.Add(pos.TokensOwed1, amount1)
	}
	return amount0, amount1, nil
}

// Collect pays out up to the requested amounts of a position's TokensOwed
// balances to the recipient. It returns the amounts actually transferred.
func (p *Pool) Collect(owner, recipient string, lowerTick, upperTick int32, requested0, requested1 *uint256.Int) (*uint256.Int, *uint256.Int, error) {
	pos, ok := p.positions[position.Key(owner, lowerTick, upperTick)]
	if !ok {
		return nil, nil, ErrPositionNotFound
	}

	collected0 := new(uint256.Int).Set(requested0)
	if pos.TokensOwed0.Lt(collected0) {
		collected0.Set(pos.TokensOwed0)
	}
	collected1 := new(uint256.Int).Set(requested1)
	if pos.TokensOwed1.Lt(collected1) {
		collected1.Set(pos.TokensOwed1)
	}

	if !collected0.IsZero() {
		if err := p.ledger.Transfer(p.cfg.Token0, p.account, recipient, collected0); err != nil {
			return nil, nil, err
		}
		pos.TokensOwed0.Sub(pos.TokensOwed0, collected0)
	}
	if !collected1.IsZero() {
		if err := p.ledger.Transfer(p.cfg.Token1, p.account, recipient, collected1); err != nil {
			return nil, nil, err
		}
		pos.TokensOwed1.Sub(pos.TokensOwed1, collected1)
	}
	return collected0, collected1, nil
}

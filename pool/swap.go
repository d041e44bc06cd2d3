package pool

import (
	"errors"

	"github.com/holiman/uint256"

	"github.com/clamm/clamm-go/fixedpoint"
	"github.com/clamm/clamm-go/fullmath"
	"github.com/clamm/clamm-go/liquiditymath"
	"github.com/clamm/clamm-go/swapmath"
	"github.com/clamm/clamm-go/tickmath"
)

// swapState is the running state of a swap, accumulated off to the side and
// committed to the pool only once the whole swap has succeeded.
type swapState struct {
	amountSpecifiedRemaining uint256.Int // signed
	amountCalculated         uint256.Int // signed
	sqrtPriceX96             uint256.Int
	tick                     int32
	feeGrowthGlobalX128      uint256.Int // input-token side only
	liquidity                uint256.Int
}

// stepState is the state of one swap step within a single tick range.
type stepState struct {
	sqrtPriceStartX96 uint256.Int
	tickNext          int32
	initialized       bool
	sqrtPriceNextX96  uint256.Int
	amountIn          uint256.Int
	amountOut         uint256.Int
	feeAmount         uint256.Int
}

// crossedTick records a tick boundary crossing together with the fee growth
// accumulators at the moment of the crossing. Crossings mutate the tick
// table, so they are recorded during the loop and replayed at commit time.
type crossedTick struct {
	tick       int32
	feeGrowth0 *uint256.Int
	feeGrowth1 *uint256.Int
}

// computeSwap runs the swap stepping loop against the current pool state
// without mutating anything. It returns the final swap state, the tick
// crossings to replay on commit, and the signed pool deltas.
func (p *Pool) computeSwap(zeroForOne bool, amountSpecified, sqrtPriceLimitX96 *uint256.Int) (*swapState, []crossedTick, *uint256.Int, *uint256.Int, error) {
	if !p.initialized {
		return nil, nil, nil, nil, ErrNotInitialized
	}
	if amountSpecified == nil || amountSpecified.IsZero() {
		return nil, nil, nil, nil, ErrZeroAmount
	}

	limit := new(uint256.Int)
	if sqrtPriceLimitX96 != nil {
		limit.Set(sqrtPriceLimitX96)
	} else if zeroForOne {
		limit.AddUint64(tickmath.MinSqrtRatio, 1)
	} else {
		limit.SubUint64(tickmath.MaxSqrtRatio, 1)
	}
	if zeroForOne {
		if !limit.Lt(p.sqrtPriceX96) || !limit.Gt(tickmath.MinSqrtRatio) {
			return nil, nil, nil, nil, ErrInvalidPriceLimit
		}
	} else {
		if !limit.Gt(p.sqrtPriceX96) || !limit.Lt(tickmath.MaxSqrtRatio) {
			return nil, nil, nil, nil, ErrInvalidPriceLimit
		}
	}

	exactInput := amountSpecified.Sign() > 0

	state := &swapState{tick: p.currentTick}
	state.amountSpecifiedRemaining.Set(amountSpecified)
	state.sqrtPriceX96.Set(p.sqrtPriceX96)
	if zeroForOne {
		state.feeGrowthGlobalX128.Set(p.feeGrowthGlobal0X128)
	} else {
		state.feeGrowthGlobalX128.Set(p.feeGrowthGlobal1X128)
	}
	state.liquidity.Set(p.liquidity)

	var crossings []crossedTick
	var step stepState

	for !state.amountSpecifiedRemaining.IsZero() && !state.sqrtPriceX96.Eq(limit) {
		step.sqrtPriceStartX96.Set(&state.sqrtPriceX96)

		next, initialized, err := p.bitmap.NextInitializedTickWithinOneWord(state.tick, p.cfg.TickSpacing, zeroForOne)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		if next < tickmath.MinTick {
			next = tickmath.MinTick
		} else if next > tickmath.MaxTick {
			next = tickmath.MaxTick
		}
		step.tickNext = next
		step.initialized = initialized

		if err := tickmath.GetSqrtRatioAtTick(&step.sqrtPriceNextX96, next); err != nil {
			return nil, nil, nil, nil, err
		}

		// Step no further than the price limit.
		target := &step.sqrtPriceNextX96
		if zeroForOne {
			if target.Lt(limit) {
				target = limit
			}
		} else if target.Gt(limit) {
			target = limit
		}

		if err := swapmath.ComputeSwapStep(
			&state.sqrtPriceX96, &step.amountIn, &step.amountOut, &step.feeAmount,
			&step.sqrtPriceStartX96, target, &state.liquidity, &state.amountSpecifiedRemaining,
			p.cfg.Fee,
		); err != nil {
			return nil, nil, nil, nil, err
		}

		var spent uint256.Int
		spent.Add(&step.amountIn, &step.feeAmount)
		if exactInput {
			state.amountSpecifiedRemaining.Sub(&state.amountSpecifiedRemaining, &spent)
			state.amountCalculated.Sub(&state.amountCalculated, &step.amountOut)
		} else {
			state.amountSpecifiedRemaining.Add(&state.amountSpecifiedRemaining, &step.amountOut)
			state.amountCalculated.Add(&state.amountCalculated, &spent)
		}

		if !state.liquidity.IsZero() {
			var growth uint256.Int
			if err := fullmath.MulDiv(&growth, &step.feeAmount, fixedpoint.Q128, &state.liquidity); err != nil {
				return nil, nil, nil, nil, err
			}
			state.feeGrowthGlobalX128.Add(&state.feeGrowthGlobalX128, &growth)
		}

		if state.sqrtPriceX96.Eq(&step.sqrtPriceNextX96) {
			// Reached the boundary tick.
			if step.initialized {
				var g0, g1 *uint256.Int
				if zeroForOne {
					g0 = new(uint256.Int).Set(&state.feeGrowthGlobalX128)
					g1 = new(uint256.Int).Set(p.feeGrowthGlobal1X128)
				} else {
					g0 = new(uint256.Int).Set(p.feeGrowthGlobal0X128)
					g1 = new(uint256.Int).Set(&state.feeGrowthGlobalX128)
				}
				crossings = append(crossings, crossedTick{tick: step.tickNext, feeGrowth0: g0, feeGrowth1: g1})

				liquidityNet := p.ticks.LiquidityNet(step.tickNext)
				if zeroForOne {
					liquidityNet.Neg(liquidityNet)
				}
				if err := liquiditymath.AddDelta(&state.liquidity, &state.liquidity, liquidityNet); err != nil {
					if errors.Is(err, liquiditymath.ErrLiquidityUnderflow) {
						return nil, nil, nil, nil, ErrNotEnoughLiquidity
					}
					return nil, nil, nil, nil, err
				}
			}
			if zeroForOne {
				state.tick = step.tickNext - 1
			} else {
				state.tick = step.tickNext
			}
		} else if !state.sqrtPriceX96.Eq(&step.sqrtPriceStartX96) {
			// Stopped mid-range; recompute the tick from the price.
			t, err := tickmath.GetTickAtSqrtRatio(&state.sqrtPriceX96)
			if err != nil {
				return nil, nil, nil, nil, err
			}
			state.tick = t
		}
	}

	// Without an explicit price limit the caller expects the full amount;
	// running out of price range with amount left means the book is empty.
	if sqrtPriceLimitX96 == nil && !state.amountSpecifiedRemaining.IsZero() {
		return nil, nil, nil, nil, ErrNotEnoughLiquidity
	}

	amount0 := new(uint256.Int)
	amount1 := new(uint256.Int)
	if zeroForOne == exactInput {
		amount0.Sub(amountSpecified, &state.amountSpecifiedRemaining)
		amount1.Set(&state.amountCalculated)
	} else {
		amount0.Set(&state.amountCalculated)
		amount1.Sub(amountSpecified, &state.amountSpecifiedRemaining)
	}
	return state, crossings, amount0, amount1, nil
}

// Quote computes the outcome of a swap against the current state without
// executing it.
func (p *Pool) Quote(zeroForOne bool, amountSpecified, sqrtPriceLimitX96 *uint256.Int) (*uint256.Int, *uint256.Int, error) {
	_, _, amount0, amount1, err := p.computeSwap(zeroForOne, amountSpecified, sqrtPriceLimitX96)
	return amount0, amount1, err
}

// Swap trades one token for the other. amountSpecified is two's-complement
// signed: positive requests an exact input of the sold token, negative an
// exact output of the bought token. sqrtPriceLimitX96 bounds how far the
// price may move; nil means no bound beyond the representable range, in
// which case a swap that cannot be fully satisfied fails instead of filling
// partially.
//
// The input is drawn from the sender's deposits and the output is paid to
// the recipient through the ledger, both before any pool state changes. The
// returned amounts are signed pool deltas: positive into the pool, negative
// out of it.
func (p *Pool) Swap(sender, recipient string, zeroForOne bool, amountSpecified, sqrtPriceLimitX96 *uint256.Int) (*uint256.Int, *uint256.Int, error) {
	state, crossings, amount0, amount1, err := p.computeSwap(zeroForOne, amountSpecified, sqrtPriceLimitX96)
	if err != nil {
		return nil, nil, err
	}

	var amountIn, amountOut uint256.Int
	if zeroForOne {
		amountIn.Set(amount0)
		amountOut.Neg(amount1)
	} else {
		amountIn.Set(amount1)
		amountOut.Neg(amount0)
	}
	inDeposits, outToken := p.deposited0, p.cfg.Token1
	if !zeroForOne {
		inDeposits, outToken = p.deposited1, p.cfg.Token0
	}
	if depositOf(inDeposits, sender).Lt(&amountIn) {
		return nil, nil, ErrInsufficientInput
	}
	if !amountOut.IsZero() {
		if err := p.ledger.Transfer(outToken, p.account, recipient, &amountOut); err != nil {
			return nil, nil, err
		}
	}
	if err := debitDeposit(inDeposits, sender, &amountIn); err != nil {
		return nil, nil, err
	}

	// Commit.
	for _, c := range crossings {
		p.ticks.Cross(c.tick, c.feeGrowth0, c.feeGrowth1)
	}
	p.sqrtPriceX96.Set(&state.sqrtPriceX96)
	p.currentTick = state.tick
	p.liquidity.Set(&state.liquidity)
	if zeroForOne {
		p.feeGrowthGlobal0X128.Set(&state.feeGrowthGlobalX128)
	} else {
		p.feeGrowthGlobal1X128.Set(&state.feeGrowthGlobalX128)
	}
	return amount0, amount1, nil
}

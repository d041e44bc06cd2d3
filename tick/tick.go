// Package tick keeps per-tick liquidity and fee bookkeeping. Each initialized
// tick records the total liquidity referencing it, the net liquidity change
// when the price crosses it, and fee growth "outside" it relative to the
// current tick. Fee growth values are UQ128.128 and wrap modulo 2^256;
// only differences between them are meaningful.
package tick

import (
	"errors"

	"github.com/holiman/uint256"

	"github.com/clamm/clamm-go/fixedpoint"
	"github.com/clamm/clamm-go/liquiditymath"
	"github.com/clamm/clamm-go/tickmath"
)

// ErrLiquidityPerTickExceeded is returned when an update would push a tick's
// gross liquidity past the per-tick maximum.
var ErrLiquidityPerTickExceeded = errors.New("liquidity per tick exceeded")

// Info is the state of a single initialized tick.
type Info struct {
	// LiquidityGross is the total liquidity of all positions using this
	// tick as a bound. It decides when the tick can be reclaimed.
	LiquidityGross *uint256.Int
	// LiquidityNet is the signed liquidity added when crossing this tick
	// left to right (subtracted right to left).
	LiquidityNet *uint256.Int
	// FeeGrowthOutside0X128 and FeeGrowthOutside1X128 accumulate fee growth
	// on the far side of this tick from the current price.
	FeeGrowthOutside0X128 *uint256.Int
	FeeGrowthOutside1X128 *uint256.Int
	// Initialized is true once the tick has ever held liquidity; it pins
	// the fee growth snapshot taken at first use.
	Initialized bool
}

func newInfo() *Info {
	return &Info{
		LiquidityGross:        new(uint256.Int),
		LiquidityNet:          new(uint256.Int),
		FeeGrowthOutside0X128: new(uint256.Int),
		FeeGrowthOutside1X128: new(uint256.Int),
	}
}

// Registry holds the tick table of one pool.
type Registry struct {
	ticks map[int32]*Info
}

// NewRegistry returns an empty tick registry.
func NewRegistry() *Registry {
	return &Registry{ticks: make(map[int32]*Info)}
}

// Get returns the state of tick, or false if it was never initialized.
func (r *Registry) Get(tick int32) (*Info, bool) {
	info, ok := r.ticks[tick]
	return info, ok
}

// ValidateUpdate reports the error Update(tick, ...) would return, without
// mutating anything. Callers that must update several ticks atomically check
// them all first.
func (r *Registry) ValidateUpdate(tick int32, liquidityDelta, maxLiquidity *uint256.Int) error {
	gross := new(uint256.Int)
	if info, ok := r.ticks[tick]; ok {
		gross.Set(info.LiquidityGross)
	}
	if err := liquiditymath.AddDelta(gross, gross, liquidityDelta); err != nil {
		return err
	}
	if gross.Gt(maxLiquidity) {
		return ErrLiquidityPerTickExceeded
	}
	return nil
}

// Update applies a signed liquidity delta to tick and reports whether the
// tick flipped between initialized and uninitialized. current is the pool's
// current tick; on first initialization of a tick at or below it, the fee
// growth outside is seeded with the global accumulators, establishing the
// convention that all past fee growth happened below the tick.
func (r *Registry) Update(
	tick, current int32,
	liquidityDelta, feeGrowthGlobal0X128, feeGrowthGlobal1X128, maxLiquidity *uint256.Int,
	upper bool,
) (bool, error) {
	info, ok := r.ticks[tick]
	if !ok {
		info = newInfo()
	}

	grossAfter := new(uint256.Int)
	if err := liquiditymath.AddDelta(grossAfter, info.LiquidityGross, liquidityDelta); err != nil {
		return false, err
	}
	if grossAfter.Gt(maxLiquidity) {
		return false, ErrLiquidityPerTickExceeded
	}

	flipped := grossAfter.IsZero() != info.LiquidityGross.IsZero()

	if info.LiquidityGross.IsZero() {
		if tick <= current {
			info.FeeGrowthOutside0X128.Set(feeGrowthGlobal0X128)
			info.FeeGrowthOutside1X128.Set(feeGrowthGlobal1X128)
		}
		info.Initialized = true
	}

	info.LiquidityGross.Set(grossAfter)
	if upper {
		info.LiquidityNet.Sub(info.LiquidityNet, liquidityDelta)
	} else {
		info.LiquidityNet.Add(info.LiquidityNet, liquidityDelta)
	}

	if !ok {
		r.ticks[tick] = info
	}
	return flipped, nil
}

// Clear removes all state for tick.
func (r *Registry) Clear(tick int32) {
	delete(r.ticks, tick)
}

// LiquidityNet returns the signed net liquidity of tick without mutating it.
func (r *Registry) LiquidityNet(tick int32) *uint256.Int {
	if info, ok := r.ticks[tick]; ok {
		return new(uint256.Int).Set(info.LiquidityNet)
	}
	return new(uint256.Int)
}

// Cross flips the fee growth outside values of tick as the price moves
// through it and returns the tick's signed net liquidity.
func (r *Registry) Cross(tick int32, feeGrowthGlobal0X128, feeGrowthGlobal1X128 *uint256.Int) *uint256.Int {
	info, ok := r.ticks[tick]
	if !ok {
		return new(uint256.Int)
	}
	info.FeeGrowthOutside0X128.Sub(feeGrowthGlobal0X128, info.FeeGrowthOutside0X128)
	info.FeeGrowthOutside1X128.Sub(feeGrowthGlobal1X128, info.FeeGrowthOutside1X128)
	return new(uint256.Int).Set(info.LiquidityNet)
}

// GetFeeGrowthInside returns the fee growth accumulated inside the range
// (lower, upper), per token, as of the given global accumulators. The
// subtractions wrap modulo 2^256; the caller only ever takes differences of
// snapshots, which cancels the wrap.
func (r *Registry) GetFeeGrowthInside(
	lower, upper, current int32,
	feeGrowthGlobal0X128, feeGrowthGlobal1X128 *uint256.Int,
) (*uint256.Int, *uint256.Int) {
	var lowerOutside0, lowerOutside1, upperOutside0, upperOutside1 uint256.Int
	if info, ok := r.ticks[lower]; ok {
		lowerOutside0.Set(info.FeeGrowthOutside0X128)
		lowerOutside1.Set(info.FeeGrowthOutside1X128)
	}
	if info, ok := r.ticks[upper]; ok {
		upperOutside0.Set(info.FeeGrowthOutside0X128)
		upperOutside1.Set(info.FeeGrowthOutside1X128)
	}

	var below0, below1, above0, above1 uint256.Int
	if current >= lower {
		below0.Set(&lowerOutside0)
		below1.Set(&lowerOutside1)
	} else {
		below0.Sub(feeGrowthGlobal0X128, &lowerOutside0)
		below1.Sub(feeGrowthGlobal1X128, &lowerOutside1)
	}
	if current < upper {
		above0.Set(&upperOutside0)
		above1.Set(&upperOutside1)
	} else {
		above0.Sub(feeGrowthGlobal0X128, &upperOutside0)
		above1.Sub(feeGrowthGlobal1X128, &upperOutside1)
	}

	inside0 := new(uint256.Int).Sub(feeGrowthGlobal0X128, &below0)
	inside0.Sub(inside0, &above0)
	inside1 := new(uint256.Int).Sub(feeGrowthGlobal1X128, &below1)
	inside1.Sub(inside1, &above1)
	return inside0, inside1
}

// SpacingToMaxLiquidityPerTick returns the maximum liquidity one tick may
// hold so that the sum over every usable tick stays within 128 bits.
func SpacingToMaxLiquidityPerTick(spacing int32) *uint256.Int {
	minTick := (tickmath.MinTick / spacing) * spacing
	maxTick := (tickmath.MaxTick / spacing) * spacing
	numTicks := uint64((maxTick-minTick)/spacing) + 1
	return new(uint256.Int).Div(fixedpoint.MaxUint128, uint256.NewInt(numTicks))
}

// Package position tracks per-owner liquidity ranges. A position is keyed by
// the owner account and its tick bounds, and carries the fee growth snapshot
// from which newly earned fees are settled into withdrawable token balances.
package position

import (
	"encoding/binary"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/clamm/clamm-go/fixedpoint"
	"github.com/clamm/clamm-go/fullmath"
	"github.com/clamm/clamm-go/liquiditymath"
)

// ErrNoPositionLiquidity is returned when a zero-delta poke targets a
// position with no liquidity.
var ErrNoPositionLiquidity = errors.New("no position liquidity")

// Info is the state of one position.
type Info struct {
	// Liquidity currently provided by the position.
	Liquidity *uint256.Int
	// FeeGrowthInside0LastX128 and FeeGrowthInside1LastX128 are the fee
	// growth inside the position's range as of the last update.
	FeeGrowthInside0LastX128 *uint256.Int
	FeeGrowthInside1LastX128 *uint256.Int
	// TokensOwed0 and TokensOwed1 are fees and withdrawn principal waiting
	// to be collected, 128 bits each.
	TokensOwed0 *uint256.Int
	TokensOwed1 *uint256.Int
}

// NewInfo returns an empty position.
func NewInfo() *Info {
	return &Info{
		Liquidity:                new(uint256.Int),
		FeeGrowthInside0LastX128: new(uint256.Int),
		FeeGrowthInside1LastX128: new(uint256.Int),
		TokensOwed0:              new(uint256.Int),
		TokensOwed1:              new(uint256.Int),
	}
}

// Key derives the position map key from the owner account and tick bounds:
// keccak256(owner || lower || upper) with the ticks little-endian encoded.
func Key(owner string, lowerTick, upperTick int32) common.Hash {
	buf := make([]byte, 0, len(owner)+8)
	buf = append(buf, owner...)
	var ticks [8]byte
	binary.LittleEndian.PutUint32(ticks[0:4], uint32(lowerTick))
	binary.LittleEndian.PutUint32(ticks[4:8], uint32(upperTick))
	buf = append(buf, ticks[:]...)
	return crypto.Keccak256Hash(buf)
}

// Update applies a signed liquidity delta and settles fees earned since the
// last update into TokensOwed, based on the fee growth inside the position's
// range. A zero delta is a poke: it settles fees without changing liquidity,
// and is rejected on an empty position.
//
// TokensOwed wraps modulo 2^128. Positions must be collected before fees
// accumulate that far.
func (p *Info) Update(liquidityDelta, feeGrowthInside0X128, feeGrowthInside1X128 *uint256.Int) error {
	var liquidityNext uint256.Int
	if liquidityDelta.IsZero() {
		if p.Liquidity.IsZero() {
			return ErrNoPositionLiquidity
		}
		liquidityNext.Set(p.Liquidity)
	} else if err := liquiditymath.AddDelta(&liquidityNext, p.Liquidity, liquidityDelta); err != nil {
		return err
	}

	// Fees earned since the last snapshot, at the liquidity held until now.
	// The growth delta wraps modulo 2^256, which is exact as long as less
	// than 2^128 per unit of liquidity accrues between updates.
	var growth0, growth1, owed0, owed1 uint256.Int
	growth0.Sub(feeGrowthInside0X128, p.FeeGrowthInside0LastX128)
	growth1.Sub(feeGrowthInside1X128, p.FeeGrowthInside1LastX128)
	if err := fullmath.MulDiv(&owed0, &growth0, p.Liquidity, fixedpoint.Q128); err != nil {
		return err
	}
	if err := fullmath.MulDiv(&owed1, &growth1, p.Liquidity, fixedpoint.Q128); err != nil {
		return err
	}

	p.Liquidity.Set(&liquidityNext)
	p.FeeGrowthInside0LastX128.Set(feeGrowthInside0X128)
	p.FeeGrowthInside1LastX128.Set(feeGrowthInside1X128)
	if !owed0.IsZero() || !owed1.IsZero() {
		p.TokensOwed0.Add(p.TokensOwed0, &owed0).And(p.TokensOwed0, fixedpoint.MaxUint128)
		p.TokensOwed1.Add(p.TokensOwed1, &owed1).And(p.TokensOwed1, fixedpoint.MaxUint128)
	}
	return nil
}

package sqrtpricemath

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// q96 returns n * 2^96.
func q96(n uint64) *uint256.Int {
	return new(uint256.Int).Lsh(uint256.NewInt(n), 96)
}

func TestGetNextSqrtPriceFromInput(t *testing.T) {
	t.Run("throws for zero price", func(t *testing.T) {
		err := GetNextSqrtPriceFromInput(new(uint256.Int), new(uint256.Int), uint256.NewInt(1), uint256.NewInt(1), true)
		assert.ErrorIs(t, err, ErrSqrtPriceZero)
	})

	t.Run("throws for zero liquidity", func(t *testing.T) {
		err := GetNextSqrtPriceFromInput(new(uint256.Int), q96(1), new(uint256.Int), uint256.NewInt(1), true)
		assert.ErrorIs(t, err, ErrLiquidityZero)
	})

	t.Run("zero input returns the price", func(t *testing.T) {
		dest := new(uint256.Int)
		require.NoError(t, GetNextSqrtPriceFromInput(dest, q96(1), uint256.NewInt(10), new(uint256.Int), true))
		assert.True(t, dest.Eq(q96(1)))
	})

	t.Run("token0 in halves the price", func(t *testing.T) {
		// 1/sqrtP' = 1/sqrtP + amount/L with L=8, sqrtP=1, amount=8.
		dest := new(uint256.Int)
		require.NoError(t, GetNextSqrtPriceFromInput(dest, q96(1), uint256.NewInt(8), uint256.NewInt(8), true))
		assert.True(t, dest.Eq(new(uint256.Int).Lsh(uint256.NewInt(1), 95)))
	})

	t.Run("token1 in raises the price", func(t *testing.T) {
		// sqrtP' = sqrtP + amount/L with L=10, sqrtP=1, amount=30.
		dest := new(uint256.Int)
		require.NoError(t, GetNextSqrtPriceFromInput(dest, q96(1), uint256.NewInt(10), uint256.NewInt(30), false))
		assert.True(t, dest.Eq(q96(4)))
	})
}

func TestGetNextSqrtPriceFromOutput(t *testing.T) {
	t.Run("token0 out raises the price", func(t *testing.T) {
		// Removing 4 token0 at L=8 from price 1 doubles the sqrt price.
		dest := new(uint256.Int)
		require.NoError(t, GetNextSqrtPriceFromOutput(dest, q96(1), uint256.NewInt(8), uint256.NewInt(4), false))
		assert.True(t, dest.Eq(q96(2)))
	})

	t.Run("token1 out lowers the price", func(t *testing.T) {
		dest := new(uint256.Int)
		require.NoError(t, GetNextSqrtPriceFromOutput(dest, q96(4), uint256.NewInt(10), uint256.NewInt(30), true))
		assert.True(t, dest.Eq(q96(1)))
	})

	t.Run("throws when output exhausts reserves", func(t *testing.T) {
		err := GetNextSqrtPriceFromOutput(new(uint256.Int), q96(1), uint256.NewInt(10), uint256.NewInt(100), true)
		assert.ErrorIs(t, err, ErrPriceUnderflow)
	})
}

func TestGetAmount0Delta(t *testing.T) {
	t.Run("throws for zero lower price", func(t *testing.T) {
		err := GetAmount0Delta(new(uint256.Int), new(uint256.Int), q96(1), uint256.NewInt(1), false)
		assert.ErrorIs(t, err, ErrSqrtPriceZero)
	})

	t.Run("price 1 to 2 at liquidity 6", func(t *testing.T) {
		// 1/a - 1/b = 1 - 1/2, so amount0 = 3.
		dest := new(uint256.Int)
		require.NoError(t, GetAmount0Delta(dest, q96(1), q96(2), uint256.NewInt(6), false))
		assert.Equal(t, uint64(3), dest.Uint64())
	})

	t.Run("argument order does not matter", func(t *testing.T) {
		a := new(uint256.Int)
		b := new(uint256.Int)
		require.NoError(t, GetAmount0Delta(a, q96(1), q96(2), uint256.NewInt(6), true))
		require.NoError(t, GetAmount0Delta(b, q96(2), q96(1), uint256.NewInt(6), true))
		assert.True(t, a.Eq(b))
	})

	t.Run("rounding differs by at most one", func(t *testing.T) {
		down := new(uint256.Int)
		up := new(uint256.Int)
		liquidity := uint256.NewInt(123456789)
		require.NoError(t, GetAmount0Delta(down, q96(3), q96(7), liquidity, false))
		require.NoError(t, GetAmount0Delta(up, q96(3), q96(7), liquidity, true))
		var diff uint256.Int
		diff.Sub(up, down)
		assert.True(t, diff.LtUint64(2))
	})
}

func TestGetAmount1Delta(t *testing.T) {
	t.Run("price 1 to 2 at liquidity 6", func(t *testing.T) {
		// b - a = 1, so amount1 = liquidity.
		dest := new(uint256.Int)
		require.NoError(t, GetAmount1Delta(dest, q96(1), q96(2), uint256.NewInt(6), false))
		assert.Equal(t, uint64(6), dest.Uint64())
	})

	t.Run("fractional range rounds in the pool's favor", func(t *testing.T) {
		b := new(uint256.Int).AddUint64(q96(1), 1)
		down := new(uint256.Int)
		up := new(uint256.Int)
		require.NoError(t, GetAmount1Delta(down, q96(1), b, uint256.NewInt(5), false))
		require.NoError(t, GetAmount1Delta(up, q96(1), b, uint256.NewInt(5), true))
		assert.Equal(t, uint64(0), down.Uint64())
		assert.Equal(t, uint64(1), up.Uint64())
	})
}

func TestSignedDeltas(t *testing.T) {
	t.Run("negative liquidity yields negative amounts", func(t *testing.T) {
		liquidity := new(uint256.Int).Neg(uint256.NewInt(6))
		amount0 := new(uint256.Int)
		amount1 := new(uint256.Int)
		require.NoError(t, GetAmount0DeltaSigned(amount0, q96(1), q96(2), liquidity))
		require.NoError(t, GetAmount1DeltaSigned(amount1, q96(1), q96(2), liquidity))
		assert.Equal(t, -1, amount0.Sign())
		assert.Equal(t, -1, amount1.Sign())
		assert.True(t, new(uint256.Int).Neg(amount0).Eq(uint256.NewInt(3)))
		assert.True(t, new(uint256.Int).Neg(amount1).Eq(uint256.NewInt(6)))
	})

	t.Run("burn amounts never exceed mint amounts", func(t *testing.T) {
		mint0 := new(uint256.Int)
		burn0 := new(uint256.Int)
		liquidity := uint256.NewInt(987654321)
		require.NoError(t, GetAmount0DeltaSigned(mint0, q96(5), q96(9), liquidity))
		require.NoError(t, GetAmount0DeltaSigned(burn0, q96(5), q96(9), new(uint256.Int).Neg(liquidity)))
		burn0.Neg(burn0)
		assert.True(t, !burn0.Gt(mint0))
	})
}

package tickmath

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encodePriceSqrt returns sqrt(reserve1/reserve0) in Q64.96.
func encodePriceSqrt(reserve1, reserve0 int64) *uint256.Int {
	num := new(big.Int).Mul(big.NewInt(reserve1), new(big.Int).Lsh(big.NewInt(1), 192))
	ratio := new(big.Int).Div(num, big.NewInt(reserve0))
	return uint256.MustFromBig(new(big.Int).Sqrt(ratio))
}

func TestGetSqrtRatioAtTick(t *testing.T) {
	t.Run("throws for too low", func(t *testing.T) {
		err := GetSqrtRatioAtTick(new(uint256.Int), MinTick-1)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTickOutOfBounds)
	})

	t.Run("throws for too high", func(t *testing.T) {
		err := GetSqrtRatioAtTick(new(uint256.Int), MaxTick+1)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTickOutOfBounds)
	})

	t.Run("min tick", func(t *testing.T) {
		sqrtP := new(uint256.Int)
		require.NoError(t, GetSqrtRatioAtTick(sqrtP, MinTick))
		assert.True(t, sqrtP.Eq(MinSqrtRatio))
	})

	t.Run("max tick", func(t *testing.T) {
		sqrtP := new(uint256.Int)
		require.NoError(t, GetSqrtRatioAtTick(sqrtP, MaxTick))
		assert.True(t, sqrtP.Eq(MaxSqrtRatio))
	})

	t.Run("tick zero is one", func(t *testing.T) {
		sqrtP := new(uint256.Int)
		require.NoError(t, GetSqrtRatioAtTick(sqrtP, 0))
		assert.True(t, sqrtP.Eq(new(uint256.Int).Lsh(uint256.NewInt(1), 96)))
	})

	t.Run("strictly increasing", func(t *testing.T) {
		prev := new(uint256.Int)
		cur := new(uint256.Int)
		require.NoError(t, GetSqrtRatioAtTick(prev, MinTick))
		for _, tick := range []int32{-887271, -500000, -42000, -60, -1, 0, 1, 60, 42000, 500000, MaxTick} {
			require.NoError(t, GetSqrtRatioAtTick(cur, tick))
			assert.True(t, prev.Lt(cur), "ratio not increasing at tick %d", tick)
			prev.Set(cur)
		}
	})
}

func TestGetTickAtSqrtRatio(t *testing.T) {
	t.Run("throws for too low", func(t *testing.T) {
		_, err := GetTickAtSqrtRatio(new(uint256.Int).SubUint64(MinSqrtRatio, 1))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSqrtPriceOutOfBounds)
	})

	t.Run("throws for too high", func(t *testing.T) {
		_, err := GetTickAtSqrtRatio(MaxSqrtRatio)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSqrtPriceOutOfBounds)
	})

	t.Run("ratio of min tick", func(t *testing.T) {
		tick, err := GetTickAtSqrtRatio(MinSqrtRatio)
		require.NoError(t, err)
		assert.Equal(t, MinTick, tick)
	})

	t.Run("ratio closest to max tick", func(t *testing.T) {
		tick, err := GetTickAtSqrtRatio(new(uint256.Int).SubUint64(MaxSqrtRatio, 1))
		require.NoError(t, err)
		assert.Equal(t, MaxTick-1, tick)
	})

	ratios := []struct {
		name  string
		ratio *uint256.Int
	}{
		{"min sqrt ratio", MinSqrtRatio},
		{"1:64", encodePriceSqrt(1, 64)},
		{"1:8", encodePriceSqrt(1, 8)},
		{"1:2", encodePriceSqrt(1, 2)},
		{"1:1", encodePriceSqrt(1, 1)},
		{"2:1", encodePriceSqrt(2, 1)},
		{"8:1", encodePriceSqrt(8, 1)},
		{"64:1", encodePriceSqrt(64, 1)},
		{"100:1", encodePriceSqrt(100, 1)},
		{"1000000:1", encodePriceSqrt(1_000_000, 1)},
		{"1:1000000", encodePriceSqrt(1, 1_000_000)},
	}
	for _, tc := range ratios {
		t.Run(tc.name, func(t *testing.T) {
			tick, err := GetTickAtSqrtRatio(tc.ratio)
			require.NoError(t, err)

			ratioOfTick := new(uint256.Int)
			require.NoError(t, GetSqrtRatioAtTick(ratioOfTick, tick))
			ratioOfTickPlusOne := new(uint256.Int)
			require.NoError(t, GetSqrtRatioAtTick(ratioOfTickPlusOne, tick+1))

			// ratioOfTick <= ratio < ratioOfTickPlusOne
			assert.True(t, !tc.ratio.Lt(ratioOfTick))
			assert.True(t, tc.ratio.Lt(ratioOfTickPlusOne))
		})
	}
}

// GetTickAtSqrtRatio inverts GetSqrtRatioAtTick exactly on tick boundaries.
func TestRoundTrip(t *testing.T) {
	for i := 0; i < 1000; i++ {
		offset, err := rand.Int(rand.Reader, big.NewInt(int64(MaxTick-MinTick)))
		require.NoError(t, err)
		tick := MinTick + int32(offset.Int64())

		sqrtP := new(uint256.Int)
		require.NoError(t, GetSqrtRatioAtTick(sqrtP, tick))
		back, err := GetTickAtSqrtRatio(sqrtP)
		require.NoError(t, err)
		assert.Equal(t, tick, back, "tick %d -> %s -> %d", tick, sqrtP.Dec(), back)
	}
}

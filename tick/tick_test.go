package tick

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clamm/clamm-go/fixedpoint"
	"github.com/clamm/clamm-go/liquiditymath"
)

func signed(v int64) *uint256.Int {
	out := new(uint256.Int)
	if v < 0 {
		out.SetUint64(uint64(-v))
		out.Neg(out)
	} else {
		out.SetUint64(uint64(v))
	}
	return out
}

func TestSpacingToMaxLiquidityPerTick(t *testing.T) {
	cases := []struct {
		spacing int32
		want    string
	}{
		{10, "1917569901783203986719870431555990"},
		{60, "11505743598341114571880798222544994"},
		{200, "38350317471085141830651933667504588"},
	}
	for _, tc := range cases {
		got := SpacingToMaxLiquidityPerTick(tc.spacing)
		assert.Equal(t, tc.want, got.Dec(), "spacing %d", tc.spacing)
	}

	// The entire 128-bit range for a single-tick pool.
	whole := SpacingToMaxLiquidityPerTick(887272)
	assert.True(t, whole.Eq(new(uint256.Int).Div(fixedpoint.MaxUint128, uint256.NewInt(3))))
}

func TestRegistryUpdate(t *testing.T) {
	max := fixedpoint.MaxUint128
	zero := new(uint256.Int)

	t.Run("flips on first liquidity and back on last removal", func(t *testing.T) {
		r := NewRegistry()

		flipped, err := r.Update(0, 0, signed(1), zero, zero, max, false)
		require.NoError(t, err)
		assert.True(t, flipped)

		flipped, err = r.Update(0, 0, signed(1), zero, zero, max, false)
		require.NoError(t, err)
		assert.False(t, flipped)

		flipped, err = r.Update(0, 0, signed(-1), zero, zero, max, false)
		require.NoError(t, err)
		assert.False(t, flipped)

		flipped, err = r.Update(0, 0, signed(-1), zero, zero, max, false)
		require.NoError(t, err)
		assert.True(t, flipped)
	})

	t.Run("net liquidity tracks lower and upper usage", func(t *testing.T) {
		r := NewRegistry()

		_, err := r.Update(0, 0, signed(10), zero, zero, max, false)
		require.NoError(t, err)
		_, err = r.Update(0, 0, signed(3), zero, zero, max, true)
		require.NoError(t, err)

		info, ok := r.Get(0)
		require.True(t, ok)
		assert.True(t, info.LiquidityGross.Eq(uint256.NewInt(13)))
		assert.True(t, info.LiquidityNet.Eq(uint256.NewInt(7)))
		assert.True(t, r.LiquidityNet(0).Eq(uint256.NewInt(7)))
	})

	t.Run("rejects liquidity beyond the per tick cap", func(t *testing.T) {
		r := NewRegistry()
		limit := uint256.NewInt(5)

		_, err := r.Update(0, 0, signed(4), zero, zero, limit, false)
		require.NoError(t, err)

		_, err = r.Update(0, 0, signed(2), zero, zero, limit, false)
		assert.ErrorIs(t, err, ErrLiquidityPerTickExceeded)

		_, err = r.Update(0, 0, signed(1), zero, zero, limit, false)
		assert.NoError(t, err)
	})

	t.Run("rejects removing more than the tick holds", func(t *testing.T) {
		r := NewRegistry()
		_, err := r.Update(0, 0, signed(-1), zero, zero, max, false)
		assert.ErrorIs(t, err, liquiditymath.ErrLiquidityUnderflow)
	})

	t.Run("seeds fee growth outside for ticks at or below current", func(t *testing.T) {
		r := NewRegistry()
		g0 := uint256.NewInt(100)
		g1 := uint256.NewInt(200)

		_, err := r.Update(-10, 5, signed(1), g0, g1, max, false)
		require.NoError(t, err)
		_, err = r.Update(5, 5, signed(1), g0, g1, max, false)
		require.NoError(t, err)
		_, err = r.Update(10, 5, signed(1), g0, g1, max, true)
		require.NoError(t, err)

		below, _ := r.Get(-10)
		assert.True(t, below.FeeGrowthOutside0X128.Eq(g0))
		assert.True(t, below.FeeGrowthOutside1X128.Eq(g1))

		at, _ := r.Get(5)
		assert.True(t, at.FeeGrowthOutside0X128.Eq(g0))

		above, _ := r.Get(10)
		assert.True(t, above.FeeGrowthOutside0X128.IsZero())
		assert.True(t, above.FeeGrowthOutside1X128.IsZero())
	})

	t.Run("does not reseed an already initialized tick", func(t *testing.T) {
		r := NewRegistry()
		_, err := r.Update(0, 5, signed(1), uint256.NewInt(7), uint256.NewInt(7), max, false)
		require.NoError(t, err)

		_, err = r.Update(0, 5, signed(1), uint256.NewInt(999), uint256.NewInt(999), max, false)
		require.NoError(t, err)

		info, _ := r.Get(0)
		assert.True(t, info.FeeGrowthOutside0X128.Eq(uint256.NewInt(7)))
	})
}

func TestRegistryValidateUpdate(t *testing.T) {
	r := NewRegistry()
	max := fixedpoint.MaxUint128
	zero := new(uint256.Int)

	_, err := r.Update(0, 0, signed(10), zero, zero, max, false)
	require.NoError(t, err)

	assert.NoError(t, r.ValidateUpdate(0, signed(-10), max))
	assert.ErrorIs(t, r.ValidateUpdate(0, signed(-11), max), liquiditymath.ErrLiquidityUnderflow)
	assert.ErrorIs(t, r.ValidateUpdate(0, signed(1), uint256.NewInt(10)), ErrLiquidityPerTickExceeded)

	// Dry runs leave the tick untouched.
	info, ok := r.Get(0)
	require.True(t, ok)
	assert.True(t, info.LiquidityGross.Eq(uint256.NewInt(10)))
}

func TestRegistryCross(t *testing.T) {
	r := NewRegistry()
	max := fixedpoint.MaxUint128
	zero := new(uint256.Int)

	_, err := r.Update(2, 0, signed(4), uint256.NewInt(3), uint256.NewInt(5), max, false)
	require.NoError(t, err)

	net := r.Cross(2, uint256.NewInt(10), uint256.NewInt(20))
	assert.True(t, net.Eq(uint256.NewInt(4)))

	info, _ := r.Get(2)
	assert.True(t, info.FeeGrowthOutside0X128.Eq(uint256.NewInt(10)), "outside0 %s", info.FeeGrowthOutside0X128.Dec())
	assert.True(t, info.FeeGrowthOutside1X128.Eq(uint256.NewInt(20)))

	// Crossing back restores the original outside values.
	r.Cross(2, uint256.NewInt(10), uint256.NewInt(20))
	info, _ = r.Get(2)
	assert.True(t, info.FeeGrowthOutside0X128.IsZero())
	assert.True(t, info.FeeGrowthOutside1X128.IsZero())

	// Crossing an unknown tick contributes nothing.
	assert.True(t, r.Cross(99, zero, zero).IsZero())
}

func TestGetFeeGrowthInside(t *testing.T) {
	max := fixedpoint.MaxUint128
	g := func(v uint64) *uint256.Int { return uint256.NewInt(v) }

	t.Run("uninitialized ticks pass all growth through", func(t *testing.T) {
		r := NewRegistry()
		inside0, inside1 := r.GetFeeGrowthInside(-2, 2, 0, g(15), g(15))
		assert.True(t, inside0.Eq(g(15)))
		assert.True(t, inside1.Eq(g(15)))
	})

	t.Run("subtracts growth outside the range", func(t *testing.T) {
		r := NewRegistry()
		// Ticks first used at current tick 0 with 2 units of prior growth
		// record that growth as having happened below them.
		_, err := r.Update(-2, 0, signed(1), g(2), g(3), max, false)
		require.NoError(t, err)
		_, err = r.Update(2, 0, signed(1), g(2), g(3), max, true)
		require.NoError(t, err)

		inside0, inside1 := r.GetFeeGrowthInside(-2, 2, 0, g(15), g(15))
		assert.True(t, inside0.Eq(g(13)), "inside0 %s", inside0.Dec())
		assert.True(t, inside1.Eq(g(12)), "inside1 %s", inside1.Dec())
	})

	t.Run("current tick below the range", func(t *testing.T) {
		r := NewRegistry()
		_, err := r.Update(-2, -5, signed(1), g(4), g(4), max, false)
		require.NoError(t, err)
		_, err = r.Update(2, -5, signed(1), g(4), g(4), max, true)
		require.NoError(t, err)

		// Neither tick was seeded, so everything counts as below the lower
		// bound and nothing is inside.
		inside0, _ := r.GetFeeGrowthInside(-2, 2, -5, g(9), g(9))
		assert.True(t, inside0.IsZero(), "inside0 %s", inside0.Dec())
	})

	t.Run("differences cancel the wrap", func(t *testing.T) {
		r := NewRegistry()
		nearMax := new(uint256.Int).Sub(fixedpoint.MaxUint256, g(2))
		_, err := r.Update(-2, 0, signed(1), nearMax, nearMax, max, false)
		require.NoError(t, err)
		_, err = r.Update(2, 0, signed(1), nearMax, nearMax, max, true)
		require.NoError(t, err)

		before0, _ := r.GetFeeGrowthInside(-2, 2, 0, nearMax, nearMax)

		// The global accumulator wraps past 2^256 after 10 more units.
		wrapped := new(uint256.Int).Add(nearMax, g(10))
		after0, _ := r.GetFeeGrowthInside(-2, 2, 0, wrapped, wrapped)

		delta := new(uint256.Int).Sub(after0, before0)
		assert.True(t, delta.Eq(g(10)), "delta %s", delta.Dec())
	})
}

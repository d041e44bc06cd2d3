package fullmath

import (
	"crypto/rand"
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clamm/clamm-go/fixedpoint"
)

func pow2(n uint) *uint256.Int {
	return new(uint256.Int).Lsh(uint256.NewInt(1), n)
}

func TestMulDiv(t *testing.T) {
	t.Run("throws for zero denominator", func(t *testing.T) {
		dest := new(uint256.Int)
		err := MulDiv(dest, uint256.NewInt(5), uint256.NewInt(5), new(uint256.Int))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDivisionByZero)
	})

	t.Run("small values", func(t *testing.T) {
		dest := new(uint256.Int)
		require.NoError(t, MulDiv(dest, uint256.NewInt(6), uint256.NewInt(7), uint256.NewInt(2)))
		assert.Equal(t, uint64(21), dest.Uint64())
	})

	t.Run("product exceeds 256 bits", func(t *testing.T) {
		// 2^200 * 2^50 / 2^100 = 2^150
		dest := new(uint256.Int)
		require.NoError(t, MulDiv(dest, pow2(200), pow2(50), pow2(100)))
		assert.True(t, dest.Eq(pow2(150)))
	})

	t.Run("throws when result overflows", func(t *testing.T) {
		dest := new(uint256.Int)
		err := MulDiv(dest, pow2(200), pow2(200), pow2(100))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrResultOverflow)
	})

	t.Run("max inputs with max denominator", func(t *testing.T) {
		dest := new(uint256.Int)
		require.NoError(t, MulDiv(dest, fixedpoint.MaxUint256, fixedpoint.MaxUint256, fixedpoint.MaxUint256))
		assert.True(t, dest.Eq(fixedpoint.MaxUint256))
	})

	t.Run("phantom overflow with odd denominator", func(t *testing.T) {
		// (2^255)*6/3 == 2^256 does not fit; (2^254)*6/3 == 2^255 does.
		dest := new(uint256.Int)
		err := MulDiv(dest, pow2(255), uint256.NewInt(6), uint256.NewInt(3))
		require.Error(t, err)
		require.NoError(t, MulDiv(dest, pow2(254), uint256.NewInt(6), uint256.NewInt(3)))
		assert.True(t, dest.Eq(pow2(255)))
	})
}

func TestMulDivRoundingUp(t *testing.T) {
	t.Run("exact division does not round", func(t *testing.T) {
		dest := new(uint256.Int)
		require.NoError(t, MulDivRoundingUp(dest, uint256.NewInt(10), uint256.NewInt(10), uint256.NewInt(4)))
		assert.Equal(t, uint64(25), dest.Uint64())
	})

	t.Run("rounds up on remainder", func(t *testing.T) {
		dest := new(uint256.Int)
		require.NoError(t, MulDivRoundingUp(dest, uint256.NewInt(10), uint256.NewInt(10), uint256.NewInt(3)))
		assert.Equal(t, uint64(34), dest.Uint64())
	})

	t.Run("throws when the increment overflows", func(t *testing.T) {
		// (3*2^128-1)(3*2^128+1) == 9*2^256 - 1, so dividing by 9 floors to
		// exactly MaxUint256 with remainder 8 and rounding up cannot fit.
		dest := new(uint256.Int)
		x := new(uint256.Int).Mul(pow2(128), uint256.NewInt(3))
		y := new(uint256.Int).AddUint64(x, 1)
		x.SubUint64(x, 1)
		err := MulDivRoundingUp(dest, x, y, uint256.NewInt(9))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrResultOverflow)
	})
}

func TestDivRoundingUp(t *testing.T) {
	dest := new(uint256.Int)
	require.NoError(t, DivRoundingUp(dest, uint256.NewInt(7), uint256.NewInt(2)))
	assert.Equal(t, uint64(4), dest.Uint64())
	require.NoError(t, DivRoundingUp(dest, uint256.NewInt(8), uint256.NewInt(2)))
	assert.Equal(t, uint64(4), dest.Uint64())
	require.ErrorIs(t, DivRoundingUp(dest, uint256.NewInt(8), new(uint256.Int)), ErrDivisionByZero)
}

// Exactness against a 512-bit-capable reference:
// result*d <= x*y < (result+1)*d, and rounding up adds at most one.
func TestMulDivExactness(t *testing.T) {
	for i := 0; i < 1000; i++ {
		var buf [96]byte
		_, err := rand.Read(buf[:])
		require.NoError(t, err)
		x := new(uint256.Int).SetBytes(buf[0:32])
		y := new(uint256.Int).SetBytes(buf[32:64])
		d := new(uint256.Int).SetBytes(buf[64:96])
		if d.IsZero() {
			continue
		}

		bx, by, bd := x.ToBig(), y.ToBig(), d.ToBig()
		product := new(big.Int).Mul(bx, by)
		want, rem := new(big.Int).QuoRem(product, bd, new(big.Int))

		dest := new(uint256.Int)
		errDown := MulDiv(dest, x, y, d)
		if want.BitLen() > 256 {
			assert.ErrorIs(t, errDown, ErrResultOverflow)
			continue
		}
		require.NoError(t, errDown)
		assert.Equal(t, want.String(), dest.ToBig().String(), "x=%s y=%s d=%s", x.Hex(), y.Hex(), d.Hex())

		up := new(uint256.Int)
		errUp := MulDivRoundingUp(up, x, y, d)
		wantUp := new(big.Int).Set(want)
		if rem.Sign() != 0 {
			wantUp.Add(wantUp, big.NewInt(1))
		}
		if wantUp.BitLen() > 256 {
			assert.ErrorIs(t, errUp, ErrResultOverflow)
			continue
		}
		require.NoError(t, errUp)
		assert.Equal(t, wantUp.String(), up.ToBig().String())
	}
}

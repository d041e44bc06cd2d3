package bitmath

import (
	"crypto/rand"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMostSignificantBit(t *testing.T) {
	t.Run("throws for zero", func(t *testing.T) {
		_, err := MostSignificantBit(new(uint256.Int))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInputIsZero)
	})

	t.Run("throws for nil", func(t *testing.T) {
		_, err := MostSignificantBit(nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInputIsNil)
	})

	t.Run("one", func(t *testing.T) {
		msb, err := MostSignificantBit(uint256.NewInt(1))
		require.NoError(t, err)
		assert.Equal(t, uint8(0), msb)
	})

	t.Run("powers of two", func(t *testing.T) {
		for i := uint(0); i < 256; i++ {
			x := new(uint256.Int).Lsh(uint256.NewInt(1), i)
			msb, err := MostSignificantBit(x)
			require.NoError(t, err)
			assert.Equal(t, uint8(i), msb)
		}
	})

	t.Run("max uint256", func(t *testing.T) {
		msb, err := MostSignificantBit(new(uint256.Int).Not(new(uint256.Int)))
		require.NoError(t, err)
		assert.Equal(t, uint8(255), msb)
	})
}

func TestLeastSignificantBit(t *testing.T) {
	t.Run("throws for zero", func(t *testing.T) {
		_, err := LeastSignificantBit(new(uint256.Int))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInputIsZero)
	})

	t.Run("powers of two", func(t *testing.T) {
		for i := uint(0); i < 256; i++ {
			x := new(uint256.Int).Lsh(uint256.NewInt(1), i)
			lsb, err := LeastSignificantBit(x)
			require.NoError(t, err)
			assert.Equal(t, uint8(i), lsb)
		}
	})

	t.Run("max uint256", func(t *testing.T) {
		lsb, err := LeastSignificantBit(new(uint256.Int).Not(new(uint256.Int)))
		require.NoError(t, err)
		assert.Equal(t, uint8(0), lsb)
	})
}

// The defining properties: x >= 2**msb(x), x < 2**(msb(x)+1), x & 2**lsb(x) != 0.
func TestBitScanProperties(t *testing.T) {
	one := uint256.NewInt(1)
	for i := 0; i < 1000; i++ {
		var buf [32]byte
		_, err := rand.Read(buf[:])
		require.NoError(t, err)
		x := new(uint256.Int).SetBytes(buf[:])
		if x.IsZero() {
			continue
		}

		msb, err := MostSignificantBit(x)
		require.NoError(t, err)
		low := new(uint256.Int).Lsh(one, uint(msb))
		assert.True(t, !x.Lt(low), "x < 2^msb for %s", x.Hex())
		if msb < 255 {
			high := new(uint256.Int).Lsh(one, uint(msb)+1)
			assert.True(t, x.Lt(high), "x >= 2^(msb+1) for %s", x.Hex())
		}

		lsb, err := LeastSignificantBit(x)
		require.NoError(t, err)
		mask := new(uint256.Int).Lsh(one, uint(lsb))
		mask.And(mask, x)
		assert.False(t, mask.IsZero(), "x & 2^lsb == 0 for %s", x.Hex())
	}
}

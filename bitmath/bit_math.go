// Package bitmath provides most/least significant bit lookups on 256-bit words.
package bitmath

import (
	"errors"
	"math/bits"

	"github.com/holiman/uint256"
)

var (
	// ErrInputIsZero is returned when a function requires a non-zero input but receives zero.
	ErrInputIsZero = errors.New("input must be greater than zero")
	// ErrInputIsNil is returned when a function receives a nil pointer.
	ErrInputIsNil = errors.New("input cannot be nil")
)

// MostSignificantBit returns the index of the most significant set bit of x,
// where the least significant bit is at index 0.
//
// The result satisfies: x >= 2**msb(x) and x < 2**(msb(x)+1).
func MostSignificantBit(x *uint256.Int) (uint8, error) {
	if x == nil {
		return 0, ErrInputIsNil
	}
	if x.IsZero() {
		return 0, ErrInputIsZero
	}
	// BitLen returns the number of bits required to represent x, so the
	// index of the highest set bit is always BitLen()-1.
	return uint8(x.BitLen() - 1), nil
}

// LeastSignificantBit returns the index of the least significant set bit of x,
// where the least significant bit is at index 0.
//
// The result satisfies: x & 2**lsb(x) != 0.
func LeastSignificantBit(x *uint256.Int) (uint8, error) {
	if x == nil {
		return 0, ErrInputIsNil
	}
	if x.IsZero() {
		return 0, ErrInputIsZero
	}
	// A uint256.Int is four little-endian uint64 limbs. Scan for the first
	// non-zero limb and count its trailing zeros.
	for i := 0; i < 4; i++ {
		if x[i] != 0 {
			return uint8(i*64 + bits.TrailingZeros64(x[i])), nil
		}
	}
	// Unreachable: x is non-zero.
	return 0, ErrInputIsZero
}

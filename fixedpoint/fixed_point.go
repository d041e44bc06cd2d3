// Package fixedpoint defines the fixed-point constants shared by the pool math
// packages. Prices are UQ64.96 (96 fractional bits) and fee growth accumulators
// are UQ128.128 (128 fractional bits), both carried in 256-bit words.
package fixedpoint

import "github.com/holiman/uint256"

var (
	// Q96 is 2^96, the UQ64.96 fixed-point representation of 1.
	Q96 = new(uint256.Int).Lsh(uint256.NewInt(1), 96)
	// Q128 is 2^128, the UQ128.128 fixed-point representation of 1.
	Q128 = new(uint256.Int).Lsh(uint256.NewInt(1), 128)

	// MaxUint128 is the largest value representable in 128 bits.
	MaxUint128 = new(uint256.Int).SubUint64(Q128, 1)
	// MaxUint160 is the largest value representable in 160 bits, the width
	// of a sqrt price.
	MaxUint160 = new(uint256.Int).SubUint64(new(uint256.Int).Lsh(uint256.NewInt(1), 160), 1)
	// MaxUint256 is the largest value representable in 256 bits.
	MaxUint256 = new(uint256.Int).Not(uint256.NewInt(0))
)

// Resolution96 is the number of fractional bits in the Q96 format.
const Resolution96 = uint(96)

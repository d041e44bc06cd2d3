// Package fullmath implements floor(a*b/d) with a full 512-bit intermediate
// product, so a*b may exceed 256 bits as long as the quotient fits.
package fullmath

import (
	"errors"

	"github.com/holiman/uint256"

	"github.com/clamm/clamm-go/fixedpoint"
)

var (
	// ErrDivisionByZero is returned when the denominator is zero.
	ErrDivisionByZero = errors.New("division by zero")
	// ErrResultOverflow is returned when the quotient does not fit in 256 bits.
	ErrResultOverflow = errors.New("result overflows 256 bits")
)

// MulDiv writes floor(a * b / denominator) into dest.
//
// The 512-bit product a*b is carried in two 256-bit limbs (prod1, prod0)
// recovered from a*b mod 2^256 and a*b mod 2^256-1. The division then factors
// the denominator into its power-of-two part, which is shifted out, and its
// odd part, which is inverted modulo 2^256 by Newton-Raphson lifting.
func MulDiv(dest, a, b, denominator *uint256.Int) error {
	if denominator.IsZero() {
		return ErrDivisionByZero
	}

	var mm, prod0, prod1 uint256.Int
	mm.MulMod(a, b, fixedpoint.MaxUint256)
	prod0.Mul(a, b)
	prod1.Sub(&mm, &prod0)
	if mm.Lt(&prod0) {
		prod1.SubUint64(&prod1, 1)
	}

	// Short path: the product fits in 256 bits.
	if prod1.IsZero() {
		dest.Div(&prod0, denominator)
		return nil
	}

	// The quotient fits in 256 bits only if denominator > prod1.
	if !denominator.Gt(&prod1) {
		return ErrResultOverflow
	}

	// Make the 512-bit product exactly divisible by subtracting the remainder.
	var remainder uint256.Int
	remainder.MulMod(a, b, denominator)
	if remainder.Gt(&prod0) {
		prod1.SubUint64(&prod1, 1)
	}
	prod0.Sub(&prod0, &remainder)

	// Factor out the largest power of two dividing the denominator.
	var twos, odd uint256.Int
	twos.Neg(denominator)
	twos.And(&twos, denominator)
	odd.Div(denominator, &twos)
	prod0.Div(&prod0, &twos)

	// Fold the high limb down: shift := 2^256 / twos, wrapping to zero when
	// the denominator is odd.
	var shift uint256.Int
	shift.Neg(&twos)
	shift.Div(&shift, &twos)
	shift.AddUint64(&shift, 1)
	var hi uint256.Int
	hi.Mul(&prod1, &shift)
	prod0.Or(&prod0, &hi)

	// Invert the odd part modulo 2^256. The seed is correct to 4 bits and
	// each lifting step doubles the precision, so six steps reach 256 bits.
	var inv, tmp uint256.Int
	inv.Mul(&odd, uint256.NewInt(3))
	inv.Xor(&inv, uint256.NewInt(2))
	for i := 0; i < 6; i++ {
		tmp.Mul(&odd, &inv)
		tmp.Sub(uint256.NewInt(2), &tmp)
		inv.Mul(&inv, &tmp)
	}

	dest.Mul(&prod0, &inv)
	return nil
}

// MulDivRoundingUp writes ceil(a * b / denominator) into dest.
func MulDivRoundingUp(dest, a, b, denominator *uint256.Int) error {
	var remainder uint256.Int
	if !denominator.IsZero() {
		remainder.MulMod(a, b, denominator)
	}
	if err := MulDiv(dest, a, b, denominator); err != nil {
		return err
	}
	if !remainder.IsZero() {
		if dest.Eq(fixedpoint.MaxUint256) {
			return ErrResultOverflow
		}
		dest.AddUint64(dest, 1)
	}
	return nil
}

// DivRoundingUp writes ceil(x / y) into dest.
func DivRoundingUp(dest, x, y *uint256.Int) error {
	if y.IsZero() {
		return ErrDivisionByZero
	}
	var remainder uint256.Int
	remainder.Mod(x, y)
	dest.Div(x, y)
	if !remainder.IsZero() {
		dest.AddUint64(dest, 1)
	}
	return nil
}

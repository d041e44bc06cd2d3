// Package tickmath converts between ticks and Q64.96 sqrt prices. A tick t
// corresponds to the price 1.0001^t, so the sqrt price at t is sqrt(1.0001)^t
// scaled by 2^96.
package tickmath

import (
	"errors"

	"github.com/holiman/uint256"
)

const (
	// MinTick is the minimum tick that may be passed to GetSqrtRatioAtTick.
	MinTick int32 = -887272
	// MaxTick is the maximum tick that may be passed to GetSqrtRatioAtTick.
	MaxTick int32 = 887272
)

var (
	// MinSqrtRatio is GetSqrtRatioAtTick(MinTick), the smallest representable sqrt price.
	MinSqrtRatio = uint256.NewInt(4295128739)
	// MaxSqrtRatio is GetSqrtRatioAtTick(MaxTick), the largest representable sqrt price.
	MaxSqrtRatio = uint256.MustFromDecimal("1461446703485210103287273052203988822378723970342")

	ErrTickOutOfBounds      = errors.New("tick out of bounds")
	ErrSqrtPriceOutOfBounds = errors.New("sqrt price out of bounds")

	maxUint256 = new(uint256.Int).Not(uint256.NewInt(0))

	// Constants for GetSqrtRatioAtTick. Index 0 is sqrt(1/1.0001) in
	// UQ128.128, index 1 is 1 in UQ128.128, indexes 2..20 hold
	// sqrt(1/1.0001^(2^(i-1))), and index 21 is the low-32-bit mask used for
	// the final round-up.
	ratioConstants = [22]*uint256.Int{
		uint256.MustFromHex("0xfffcb933bd6fad37aa2d162d1a594001"),
		uint256.MustFromHex("0x100000000000000000000000000000000"),
		uint256.MustFromHex("0xfff97272373d413259a46990580e213a"),
		uint256.MustFromHex("0xfff2e50f5f656932ef12357cf3c7fdcc"),
		uint256.MustFromHex("0xffe5caca7e10e4e61c3624eaa0941cd0"),
		uint256.MustFromHex("0xffcb9843d60f6159c9db58835c926644"),
		uint256.MustFromHex("0xff973b41fa98c081472e6896dfb254c0"),
		uint256.MustFromHex("0xff2ea16466c96a3843ec78b326b52861"),
		uint256.MustFromHex("0xfe5dee046a99a2a811c461f1969c3053"),
		uint256.MustFromHex("0xfcbe86c7900a88aedcffc83b479aa3a4"),
		uint256.MustFromHex("0xf987a7253ac413176f2b074cf7815e54"),
		uint256.MustFromHex("0xf3392b0822b70005940c7a398e4b70f3"),
		uint256.MustFromHex("0xe7159475a2c29b7443b29c7fa6e889d9"),
		uint256.MustFromHex("0xd097f3bdfd2022b8845ad8f792aa5825"),
		uint256.MustFromHex("0xa9f746462d870fdf8a65dc1f90e061e5"),
		uint256.MustFromHex("0x70d869a156d2a1b890bb3df62baf32f7"),
		uint256.MustFromHex("0x31be135f97d08fd981231505542fcfa6"),
		uint256.MustFromHex("0x9aa508b5b7a84e1c677de54f3e99bc9"),
		uint256.MustFromHex("0x5d6af8dedb81196699c329225ee604"),
		uint256.MustFromHex("0x2216e584f5fa1ea926041bedfe98"),
		uint256.MustFromHex("0x48a170391f7dc42444e8fa2"),
		uint256.MustFromHex("0xffffffff"),
	}
)

// GetSqrtRatioAtTick writes sqrt(1.0001^tick) * 2^96 into dest.
//
// The product is accumulated in UQ128.128 over the binary decomposition of
// |tick|, taking the reciprocal for positive ticks, then narrowed to Q64.96
// with a round-up on the discarded 32 bits.
func GetSqrtRatioAtTick(dest *uint256.Int, tick int32) error {
	if tick < MinTick || tick > MaxTick {
		return ErrTickOutOfBounds
	}

	absTick := tick
	if tick < 0 {
		absTick = -tick
	}

	if absTick&0x1 != 0 {
		dest.Set(ratioConstants[0])
	} else {
		dest.Set(ratioConstants[1])
	}
	for i := 2; i < 21; i++ {
		if absTick&(1<<(i-1)) != 0 {
			dest.Mul(dest, ratioConstants[i]).Rsh(dest, 128)
		}
	}

	if tick > 0 {
		dest.Div(maxUint256, dest)
	}

	var rem uint256.Int
	rem.And(dest, ratioConstants[21])
	dest.Rsh(dest, 32)
	if !rem.IsZero() {
		dest.AddUint64(dest, 1)
	}
	return nil
}

// GetTickAtSqrtRatio returns the greatest tick such that
// GetSqrtRatioAtTick(tick) <= sqrtPriceX96. It binary-searches the valid tick
// range, so the result is exact by construction.
func GetTickAtSqrtRatio(sqrtPriceX96 *uint256.Int) (int32, error) {
	if sqrtPriceX96.Lt(MinSqrtRatio) || !sqrtPriceX96.Lt(MaxSqrtRatio) {
		return 0, ErrSqrtPriceOutOfBounds
	}

	low, high := MinTick, MaxTick
	var tick int32
	var ratio uint256.Int
	for low <= high {
		mid := (low + high) / 2
		if err := GetSqrtRatioAtTick(&ratio, mid); err != nil {
			return 0, err
		}
		if !ratio.Gt(sqrtPriceX96) {
			tick = mid
			low = mid + 1
		} else {
			high = mid - 1
		}
	}
	return tick, nil
}

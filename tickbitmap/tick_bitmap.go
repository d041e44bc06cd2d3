// Package tickbitmap tracks which ticks carry liquidity. Ticks are compressed
// by the pool's tick spacing and packed into 256-bit words keyed by word
// index, so finding the next initialized tick near the current price is a
// single word lookup plus a bit scan.
package tickbitmap

import (
	"errors"

	"github.com/holiman/uint256"

	"github.com/clamm/clamm-go/bitmath"
	"github.com/clamm/clamm-go/tickmath"
)

var (
	// ErrTickNotSpaced is returned when a tick is not a multiple of the tick spacing.
	ErrTickNotSpaced = errors.New("tick not aligned to spacing")
	// ErrTickOutOfBounds is returned when a tick is outside the representable range.
	ErrTickOutOfBounds = errors.New("tick out of bounds")
)

// Bitmap is a sparse bitmap over compressed ticks. The zero word is never
// stored: flipping the last set bit of a word removes it.
type Bitmap struct {
	words map[int16]*uint256.Int
}

// New returns an empty bitmap.
func New() *Bitmap {
	return &Bitmap{words: make(map[int16]*uint256.Int)}
}

// position splits a compressed tick into its word index and the bit index
// within that word. The arithmetic shift floors toward negative infinity and
// the low-byte mask yields the matching two's-complement bit offset, so
// consecutive compressed ticks map to consecutive bits across word
// boundaries.
func position(compressed int32) (wordPos int16, bitPos uint8) {
	return int16(compressed >> 8), uint8(compressed & 0xff)
}

// FlipTick toggles the initialized state of tick, which must be a multiple of
// spacing.
func (b *Bitmap) FlipTick(tick, spacing int32) error {
	if tick%spacing != 0 {
		return ErrTickNotSpaced
	}
	if tick < tickmath.MinTick || tick > tickmath.MaxTick {
		return ErrTickOutOfBounds
	}

	wordPos, bitPos := position(tick / spacing)
	word, ok := b.words[wordPos]
	if !ok {
		word = new(uint256.Int)
		b.words[wordPos] = word
	}
	var mask uint256.Int
	mask.Lsh(uint256.NewInt(1), uint(bitPos))
	word.Xor(word, &mask)
	if word.IsZero() {
		delete(b.words, wordPos)
	}
	return nil
}

// IsInitialized reports whether tick is set. It is a test and introspection
// helper; swaps use NextInitializedTickWithinOneWord.
func (b *Bitmap) IsInitialized(tick, spacing int32) bool {
	if tick%spacing != 0 {
		return false
	}
	wordPos, bitPos := position(tick / spacing)
	word, ok := b.words[wordPos]
	if !ok {
		return false
	}
	var mask uint256.Int
	mask.Lsh(uint256.NewInt(1), uint(bitPos))
	mask.And(&mask, word)
	return !mask.IsZero()
}

// NextInitializedTickWithinOneWord returns the next initialized tick at most
// one word away from tick, searching downward (at or to the left of tick)
// when lte is set and strictly upward otherwise. When no initialized tick
// exists within the word, it returns the word's boundary tick and false, so
// a swap never scans more than one word per step.
func (b *Bitmap) NextInitializedTickWithinOneWord(tick, spacing int32, lte bool) (int32, bool, error) {
	if tick < tickmath.MinTick || tick > tickmath.MaxTick {
		return 0, false, ErrTickOutOfBounds
	}

	compressed := tick / spacing
	if tick < 0 && tick%spacing != 0 {
		compressed-- // floor toward negative infinity
	}

	var mask, masked uint256.Int
	if lte {
		wordPos, bitPos := position(compressed)
		// Bits at or below bitPos.
		mask.Lsh(uint256.NewInt(1), uint(bitPos))
		var low uint256.Int
		low.SubUint64(&mask, 1)
		mask.Or(&mask, &low)
		if word, ok := b.words[wordPos]; ok {
			masked.And(word, &mask)
		}

		if !masked.IsZero() {
			msb, err := bitmath.MostSignificantBit(&masked)
			if err != nil {
				return 0, false, err
			}
			return (compressed - int32(bitPos-msb)) * spacing, true, nil
		}
		return (compressed - int32(bitPos)) * spacing, false, nil
	}

	// Search starts one tick up from the current one.
	wordPos, bitPos := position(compressed + 1)
	// Bits at or above bitPos.
	var low uint256.Int
	low.Lsh(uint256.NewInt(1), uint(bitPos))
	low.SubUint64(&low, 1)
	mask.Not(&low)
	if word, ok := b.words[wordPos]; ok {
		masked.And(word, &mask)
	}

	if !masked.IsZero() {
		lsb, err := bitmath.LeastSignificantBit(&masked)
		if err != nil {
			return 0, false, err
		}
		return (compressed + 1 + int32(lsb-bitPos)) * spacing, true, nil
	}
	return (compressed + 1 + int32(255-bitPos)) * spacing, false, nil
}

// Package bitvec implements fixed-width integers whose bits may be known to be
// zero, known to be one, or unknown.
package bitvec

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// MaxSize is the widest supported vector, in bits.
const MaxSize = 64

// Vector represents a fixed-width integer with partially known bits.
//
// Unknown bits carry a symbol identifying the value they were derived from,
// so two vectors computed from the same symbolic source compare equal even
// though none of their bits are known.
type Vector struct {
	knownOne  uint64
	knownZero uint64
	symbol    uint64
	size      uint
}

// New returns a fully known vector holding v truncated to size bits.
func New(v uint64, size uint) Vector {
	assert(size > 0 && size <= MaxSize, "invalid vector size: %d", size)
	return build(v, ^v, size, 0)
}

// Unknown returns a vector of size bits where no bit is known.
func Unknown(size uint, symbol uint64) Vector {
	assert(size > 0 && size <= MaxSize, "invalid vector size: %d", size)
	return build(0, 0, size, symbol)
}

// build masks the known bits to size and drops the symbol of fully known vectors.
func build(one, zero uint64, size uint, symbol uint64) Vector {
	m := Fill(size)
	one, zero = one&m, zero&m&^one
	if one|zero == m {
		symbol = 0
	}
	return Vector{knownOne: one, knownZero: zero, symbol: symbol, size: size}
}

// Fill returns a mask with the low bits set.
func Fill(bits uint) uint64 {
	if bits >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << bits) - 1
}

// Size returns the width of the vector in bits.
func (v Vector) Size() uint { return v.size }

// KnownOne returns the mask of bits known to be one.
func (v Vector) KnownOne() uint64 { return v.knownOne }

// KnownZero returns the mask of bits known to be zero.
func (v Vector) KnownZero() uint64 { return v.knownZero }

// UnknownMask returns the mask of bits whose value is not known.
func (v Vector) UnknownMask() uint64 {
	return Fill(v.size) &^ (v.knownOne | v.knownZero)
}

// IsKnown returns true if every bit is known.
func (v Vector) IsKnown() bool {
	return v.size != 0 && v.UnknownMask() == 0
}

// Uint returns the zero-extended value and whether it is fully known.
func (v Vector) Uint() (uint64, bool) {
	return v.knownOne, v.IsKnown()
}

// Int returns the sign-extended value and whether it is fully known.
func (v Vector) Int() (int64, bool) {
	return signExtend(v.knownOne, v.size), v.IsKnown()
}

// Resize truncates or extends the vector to size bits. Extended bits are
// zero unless signed is set, in which case they copy the sign bit.
func (v Vector) Resize(size uint, signed bool) Vector {
	assert(size > 0 && size <= MaxSize, "invalid vector size: %d", size)
	if size == v.size {
		return v
	} else if size < v.size {
		return build(v.knownOne, v.knownZero, size, v.symbol)
	}

	ext := Fill(size) &^ Fill(v.size)
	one, zero, symbol := v.knownOne, v.knownZero, v.symbol
	if !signed {
		zero |= ext
	} else if sign := uint64(1) << (v.size - 1); one&sign != 0 {
		one |= ext
	} else if zero&sign != 0 {
		zero |= ext
	} else {
		// The extended bits repeat an unknown bit, so they no longer line
		// up with the bits of the source.
		symbol = mix(symbol, uint64(v.size), uint64(size))
	}
	return build(one, zero, size, symbol)
}

// Equal returns true if both vectors have the same width and knowledge and,
// when bits are unknown, were derived from the same source.
func (v Vector) Equal(other Vector) bool {
	return v.size == other.size &&
		v.knownOne == other.knownOne &&
		v.knownZero == other.knownZero &&
		v.symbol == other.symbol
}

// fingerprint identifies the vector for use in derived symbols.
func (v Vector) fingerprint() uint64 {
	return mix(v.knownOne, v.knownZero, v.symbol, uint64(v.size))
}

// String returns the bits of the vector, most significant first, using '?' for unknown bits.
func (v Vector) String() string {
	if u, ok := v.Uint(); ok {
		return fmt.Sprintf("0x%x:%d", u, v.size)
	}
	var sb strings.Builder
	for i := int(v.size) - 1; i >= 0; i-- {
		bit := uint64(1) << uint(i)
		switch {
		case v.knownOne&bit != 0:
			sb.WriteByte('1')
		case v.knownZero&bit != 0:
			sb.WriteByte('0')
		default:
			sb.WriteByte('?')
		}
	}
	return sb.String()
}

// signExtend interprets the low size bits of v as a two's complement integer.
func signExtend(v uint64, size uint) int64 {
	if size == 0 || size >= 64 {
		return int64(v)
	}
	shift := 64 - size
	return int64(v<<shift) >> shift
}

// mix combines values into a symbol.
func mix(values ...uint64) uint64 {
	var buf [8]byte
	h := xxhash.New()
	for _, v := range values {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}
	return h.Sum64()
}

// assert panics if condition is false.
func assert(condition bool, format string, args ...interface{}) {
	if !condition {
		panic(fmt.Sprintf("assert: "+format, args...))
	}
}

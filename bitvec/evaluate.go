package bitvec

import (
	"math/bits"

	"github.com/jilvan1234/VTIL-SymEx/op"
)

// EvaluatePartial evaluates the operator over the operands as far as their
// known bits allow. The lhs must be nil for unary operators.
func EvaluatePartial(id op.ID, lhs *Vector, rhs Vector) Vector {
	desc := op.Lookup(id)
	if desc.Operands == 1 {
		assert(lhs == nil, "%s: unexpected lhs for unary operator", id)
		return evaluateUnary(id, rhs)
	}
	assert(lhs != nil, "%s: missing lhs for binary operator", id)
	return evaluateBinary(id, desc, *lhs, rhs)
}

// ResultSize returns the width of the value produced by a binary operator.
func ResultSize(id op.ID, lhs, rhs Vector) uint {
	switch {
	case id.IsCompare(), id == op.BitTest:
		return 1
	case id == op.ShiftLeft, id == op.ShiftRight, id == op.RotateLeft, id == op.RotateRight:
		return lhs.size
	case id == op.ValueIf:
		return rhs.size
	case id.IsCast():
		if w, ok := rhs.Uint(); ok && w > 0 && w <= MaxSize {
			return uint(w)
		}
		return lhs.size
	}
	if lhs.size > rhs.size {
		return lhs.size
	}
	return rhs.size
}

func evaluateUnary(id op.ID, v Vector) Vector {
	size := v.size
	switch id {
	case op.Mask:
		return New(Fill(size), size)
	case op.BitCount:
		return New(uint64(size), size)
	case op.BitwiseNot:
		return build(v.knownZero, v.knownOne, size, derive(id, v))
	}

	a, ok := v.Uint()
	if !ok {
		switch id {
		case op.Popcnt, op.BitscanFwd, op.BitscanRev:
			// The result never exceeds the width, so the high bits are zero.
			n := uint(bits.Len(size))
			return build(0, ^Fill(n), size, derive(id, v))
		case op.Negate:
			// The low bits of -x up to and including the lowest set bit match x.
			if low := lowKnown(v); low != 0 {
				r := -a & low
				return build(r, ^r&low, size, derive(id, v))
			}
		}
		return Unknown(size, derive(id, v))
	}

	switch id {
	case op.Negate:
		return New(-a, size)
	case op.Popcnt:
		return New(uint64(bits.OnesCount64(a)), size)
	case op.BitscanFwd:
		if a == 0 {
			return New(0, size)
		}
		return New(uint64(bits.TrailingZeros64(a)), size)
	case op.BitscanRev:
		if a == 0 {
			return New(0, size)
		}
		return New(uint64(bits.Len64(a)-1), size)
	}
	panic("unreachable")
}

func evaluateBinary(id op.ID, desc *op.Descriptor, lhs, rhs Vector) Vector {
	if id.IsCast() {
		w, ok := rhs.Uint()
		if !ok {
			return Unknown(lhs.size, derive(id, lhs, rhs))
		}
		return lhs.Resize(uint(w), id == op.Cast)
	}

	size := ResultSize(id, lhs, rhs)

	// Bring both operands to a common width for operators that combine them bit by bit.
	switch id {
	case op.ShiftLeft, op.ShiftRight, op.RotateLeft, op.RotateRight, op.BitTest, op.ValueIf:
	default:
		w := lhs.size
		if rhs.size > w {
			w = rhs.size
		}
		lhs, rhs = lhs.Resize(w, id.IsSigned()), rhs.Resize(w, id.IsSigned())
	}

	if r, ok := evaluateIdentical(id, lhs, rhs, size); ok {
		return r
	}

	a, aok := lhs.Uint()
	b, bok := rhs.Uint()
	if aok && bok {
		if r, ok := evaluateKnown(id, lhs.size, a, b, size); ok {
			return r
		}
		return Unknown(size, derive(id, lhs, rhs))
	}

	symbol := derive(id, lhs, rhs)
	if desc.Commutative {
		symbol = deriveCommutative(id, lhs, rhs)
	}

	switch id {
	case op.BitwiseAnd:
		return build(lhs.knownOne&rhs.knownOne, lhs.knownZero|rhs.knownZero, size, symbol)
	case op.BitwiseOr:
		return build(lhs.knownOne|rhs.knownOne, lhs.knownZero&rhs.knownZero, size, symbol)
	case op.BitwiseXor:
		known := (lhs.knownOne | lhs.knownZero) & (rhs.knownOne | rhs.knownZero)
		one := (lhs.knownOne ^ rhs.knownOne) & known
		return build(one, known&^one, size, symbol)

	case op.Add, op.Subtract, op.Multiply, op.UMultiply:
		low := lowKnown(lhs) & lowKnown(rhs)
		var r uint64
		switch id {
		case op.Add:
			r = lhs.knownOne + rhs.knownOne
		case op.Subtract:
			r = lhs.knownOne - rhs.knownOne
		default:
			r = lhs.knownOne * rhs.knownOne
		}
		one, zero := r&low, ^r&low
		if id == op.Multiply || id == op.UMultiply {
			zero |= Fill(trailingZeros(lhs) + trailingZeros(rhs))
		}
		return build(one, zero, size, symbol)

	case op.ShiftLeft, op.ShiftRight:
		if !bok {
			break
		} else if b >= uint64(size) {
			return New(0, size)
		}
		if id == op.ShiftLeft {
			return build(lhs.knownOne<<b, lhs.knownZero<<b|Fill(uint(b)), size, symbol)
		}
		return build(lhs.knownOne>>b, lhs.knownZero>>b|^Fill(size-uint(b)), size, symbol)

	case op.ValueIf:
		if aok {
			if a&1 != 0 {
				return rhs
			}
			return New(0, size)
		}
		return build(0, rhs.knownZero, size, symbol)

	case op.Equal, op.NotEqual:
		// Two bits known on both sides with different values decide the comparison.
		if (lhs.knownOne&rhs.knownZero)|(lhs.knownZero&rhs.knownOne) != 0 {
			return boolean(id == op.NotEqual)
		}
	}
	return Unknown(size, symbol)
}

// evaluateIdentical folds operators applied to two identical operands.
func evaluateIdentical(id op.ID, lhs, rhs Vector, size uint) (Vector, bool) {
	if !lhs.Equal(rhs) {
		return Vector{}, false
	}
	switch id {
	case op.BitwiseXor, op.Subtract:
		return New(0, size), true
	case op.BitwiseAnd, op.BitwiseOr, op.MaxValue, op.MinValue, op.UMaxValue, op.UMinValue:
		return lhs, true
	case op.Equal, op.GreaterEq, op.LessEq, op.UGreaterEq, op.ULessEq:
		return boolean(true), true
	case op.NotEqual, op.Greater, op.Less, op.UGreater, op.ULess:
		return boolean(false), true
	}
	return Vector{}, false
}

// evaluateKnown computes the operator over fully known operands of width w.
// Returns false if the result is undefined, e.g. on division by zero.
func evaluateKnown(id op.ID, w uint, a, b uint64, size uint) (Vector, bool) {
	sa, sb := signExtend(a, w), signExtend(b, w)
	switch id {
	case op.BitwiseAnd:
		return New(a&b, size), true
	case op.BitwiseOr:
		return New(a|b, size), true
	case op.BitwiseXor:
		return New(a^b, size), true
	case op.ShiftLeft:
		if b >= uint64(w) {
			return New(0, size), true
		}
		return New(a<<b, size), true
	case op.ShiftRight:
		if b >= uint64(w) {
			return New(0, size), true
		}
		return New(a>>b, size), true
	case op.RotateLeft, op.RotateRight:
		n := uint(b % uint64(w))
		if id == op.RotateRight {
			n = (w - n) % w
		}
		return New(a<<n|a>>(w-n), size), true

	case op.Add:
		return New(a+b, size), true
	case op.Subtract:
		return New(a-b, size), true
	case op.Multiply, op.UMultiply:
		return New(a*b, size), true
	case op.MultiplyHigh:
		hi, lo := mul128(uint64(sa), uint64(sb), true)
		return New(high(hi, lo, w), size), true
	case op.UMultiplyHigh:
		hi, lo := mul128(a, b, false)
		return New(high(hi, lo, w), size), true
	case op.Divide:
		if sb == 0 {
			return Vector{}, false
		}
		return New(uint64(sa/sb), size), true
	case op.Remainder:
		if sb == 0 {
			return Vector{}, false
		}
		return New(uint64(sa%sb), size), true
	case op.UDivide:
		if b == 0 {
			return Vector{}, false
		}
		return New(a/b, size), true
	case op.URemainder:
		if b == 0 {
			return Vector{}, false
		}
		return New(a%b, size), true

	case op.BitTest:
		if b >= uint64(w) {
			return boolean(false), true
		}
		return boolean(a>>b&1 != 0), true
	case op.ValueIf:
		if a&1 != 0 {
			return New(b, size), true
		}
		return New(0, size), true

	case op.MaxValue:
		if sa > sb {
			return New(a, size), true
		}
		return New(b, size), true
	case op.MinValue:
		if sa < sb {
			return New(a, size), true
		}
		return New(b, size), true
	case op.UMaxValue:
		if a > b {
			return New(a, size), true
		}
		return New(b, size), true
	case op.UMinValue:
		if a < b {
			return New(a, size), true
		}
		return New(b, size), true

	case op.Greater:
		return boolean(sa > sb), true
	case op.GreaterEq:
		return boolean(sa >= sb), true
	case op.Equal:
		return boolean(a == b), true
	case op.NotEqual:
		return boolean(a != b), true
	case op.LessEq:
		return boolean(sa <= sb), true
	case op.Less:
		return boolean(sa < sb), true
	case op.UGreater:
		return boolean(a > b), true
	case op.UGreaterEq:
		return boolean(a >= b), true
	case op.ULessEq:
		return boolean(a <= b), true
	case op.ULess:
		return boolean(a < b), true
	}
	return Vector{}, false
}

func boolean(b bool) Vector {
	if b {
		return New(1, 1)
	}
	return New(0, 1)
}

// lowKnown returns a mask of the contiguous known bits starting at bit zero.
func lowKnown(v Vector) uint64 {
	known := (v.knownOne | v.knownZero) & Fill(v.size)
	return Fill(uint(bits.TrailingZeros64(^known)))
}

// trailingZeros returns the number of low bits known to be zero.
func trailingZeros(v Vector) uint {
	n := uint(bits.TrailingZeros64(^v.knownZero))
	if n > v.size {
		return v.size
	}
	return n
}

// mul128 returns the 128-bit product of a and b. For signed products the
// operands are interpreted as 64-bit two's complement integers.
func mul128(a, b uint64, signed bool) (hi, lo uint64) {
	hi, lo = bits.Mul64(a, b)
	if signed {
		if int64(a) < 0 {
			hi -= b
		}
		if int64(b) < 0 {
			hi -= a
		}
	}
	return hi, lo
}

// high returns bits [w, 2w) of the 128-bit value hi:lo.
func high(hi, lo uint64, w uint) uint64 {
	if w >= 64 {
		return hi
	}
	return lo>>w | hi<<(64-w)
}

// derive returns the symbol of a value computed from the operands.
func derive(id op.ID, operands ...Vector) uint64 {
	values := []uint64{uint64(id)}
	for _, v := range operands {
		values = append(values, v.fingerprint())
	}
	return mix(values...)
}

// deriveCommutative is like derive but ignores the order of the operands.
func deriveCommutative(id op.ID, lhs, rhs Vector) uint64 {
	a, b := lhs.fingerprint(), rhs.fingerprint()
	if a > b {
		a, b = b, a
	}
	return mix(uint64(id), a, b)
}

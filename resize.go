package symex

import (
	"github.com/jilvan1234/VTIL-SymEx/bitvec"
	"github.com/jilvan1234/VTIL-SymEx/op"
)

// Resize changes the width of e to size bits in place. Extension copies the
// sign bit if signed is set; the flag is ignored for single bit results.
//
// The change is pushed into the operands when the operator allows it and
// is otherwise expressed by wrapping e in a cast.
func (e *Expr) Resize(size uint, signed bool) {
	assert(size > 0 && size <= bitvec.MaxSize, "symex: invalid size %d", size)
	if e.Size() == size {
		return
	} else if size == WidthBool {
		signed = false
	}

	if !e.IsExpression() {
		if e.IsConstant() {
			e.value = e.value.Resize(size, signed)
			e.Update(false)
		} else {
			e.wrapCast(size, signed)
		}
		return
	}

	switch op.Lookup(e.op).Class {
	case op.ClassUnsigned:
		if signed {
			e.wrapCast(size, true)
			return
		}
		e.resizeOperands(size, false)

	case op.ClassSigned:
		if !signed {
			e.wrapCast(size, false)
			return
		}
		e.resizeOperands(size, true)

	case op.ClassUnsignedCast:
		e.resizeCast(size, signed)

	case op.ClassSignedCast:
		e.resizeCast(size, signed)

	case op.ClassConditional:
		// Only the selected value is resized. A zero result is the same
		// under either extension.
		e.rhs.Own().Resize(size, false)
		e.Update(true)

	case op.ClassCompare:
		e.hash += uint64(size) - uint64(e.Size())
		e.value = e.value.Resize(size, false)

	default:
		e.wrapCast(size, signed)
	}
}

// resizeOperands resizes every operand of e and restores its invariants.
func (e *Expr) resizeOperands(size uint, signed bool) {
	if e.lhs.Valid() && e.lhs.node.Size() != size {
		e.lhs.Own().Resize(size, signed)
	}
	if e.rhs.node.Size() != size {
		e.rhs.Own().Resize(size, signed)
	}
	e.Update(true)
}

// resizeCast changes the target width of a cast.
func (e *Expr) resizeCast(size uint, signed bool) {
	target, operand := e.castWidth(), e.lhs.node.Size()
	switch {
	case operand > target:
		// The cast truncates its operand, so the dropped bits must not come back.
		if e.op == op.Cast {
			e.wrapCast(size, signed)
			return
		}
		mask := Binary(e.lhs.Share(), op.BitwiseAnd, Constant(bitvec.Fill(target), operand))
		mask.Simplify(false)
		r := Cast(mask, size, false)
		r.Simplify(false)
		e.replace(r)

	case operand == size:
		e.replace(e.lhs.Share())

	case e.op == op.Cast && !signed:
		e.wrapCast(size, false)

	default:
		e.rhs.Release()
		e.rhs = Constant(uint64(size), castWidthSize)
		e.Update(true)
	}
}

// wrapCast replaces e with a cast of its current contents to size bits.
func (e *Expr) wrapCast(size uint, signed bool) {
	r := Cast(newRef(e.clone()), size, signed)
	r.Simplify(false)
	e.replace(r)
}

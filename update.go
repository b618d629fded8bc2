package symex

import (
	"math"
	"math/bits"

	"github.com/jilvan1234/VTIL-SymEx/bitvec"
	"github.com/jilvan1234/VTIL-SymEx/op"
)

// Fixed complexity of a variable leaf.
const variableComplexity = 128

// Update recomputes the value, depth, complexity and hash of e from its
// children, which must already be up to date. Operands of operators that
// combine values of equal width are extended or truncated to the result width.
// If autoSimplify is set, the active simplifier is invoked afterwards.
func (e *Expr) Update(autoSimplify bool) {
	if !e.IsExpression() {
		e.updateLeaf()
		return
	}

	desc := op.Lookup(e.op)
	var widened uint64
	if desc.Operands == 1 {
		assert(!e.lhs.Valid() && e.rhs.Valid(), "symex: %s: unexpected operands", e.op)

		e.value = bitvec.EvaluatePartial(e.op, nil, e.rhs.node.value)
		e.depth = e.rhs.node.depth + 1
		e.complexity = e.rhs.node.complexity * 2
		e.hash = fnvAppend(fnvInitial, e.rhs.node.hash, 8)
	} else {
		assert(e.lhs.Valid() && e.rhs.Valid(), "symex: %s: unexpected operands", e.op)

		prev := e.value.Size()
		if e.op.IsCast() {
			e.value = e.lhs.node.value.Resize(e.castWidth(), e.op == op.Cast)
		} else {
			e.value = bitvec.EvaluatePartial(e.op, &e.lhs.node.value, e.rhs.node.value)
			e.reconcile(desc.Extend)
		}

		lhs, rhs := e.lhs.node, e.rhs.node
		e.depth = max(lhs.depth, rhs.depth) + 1
		e.complexity = (lhs.complexity + rhs.complexity) * 2
		if desc.Commutative {
			e.hash = fnvAppend(fnvInitial, max(lhs.hash, rhs.hash), 8)
			e.hash = fnvAppend(e.hash, lhs.hash^rhs.hash, 8)
		} else {
			e.hash = fnvAppend(fnvInitial, lhs.hash, 8)
			e.hash = fnvAppend(e.hash, rhs.hash, 8)
		}

		// A comparison keeps the width it was resized to.
		if desc.Class == op.ClassCompare && prev > 1 {
			e.value = e.value.Resize(prev, false)
			widened = uint64(prev) - 1
		}
	}
	assert(e.complexity > 0, "symex: %s: zero complexity", e.op)

	e.hash = fnvAppend(e.hash, uint64(e.op), 1)
	e.hash = fnvAppend(e.hash, uint64(e.depth), 8)
	e.hash += widened

	// Mixing bitwise and arithmetic operators is penalized.
	for _, operand := range []Ref{e.lhs, e.rhs} {
		if operand.Valid() && operand.node.IsExpression() {
			if op.Lookup(operand.node.op).HintBitwise*desc.HintBitwise < 0 {
				e.complexity *= 2
			}
		}
	}
	assert(e.complexity > 0, "symex: %s: zero complexity", e.op)

	e.simplified = false
	if autoSimplify {
		e.Simplify(false)
	}
}

// updateLeaf restores the invariants of a constant or variable.
func (e *Expr) updateLeaf() {
	e.depth = 0
	if e.IsVariable() {
		e.complexity = variableComplexity
		e.hash = e.uid.Hash() + uint64(e.Size())
	} else {
		assert(e.IsConstant(), "symex: update of empty expression")
		v, _ := e.value.Int()
		n := min(bits.OnesCount64(uint64(v)), bits.OnesCount64(uint64(-v)))
		e.complexity = math.Sqrt(float64(1 + n))

		e.hash = fnvInitial + e.value.KnownOne()
		e.hash = fnvAppend(e.hash, uint64(e.Size()), 1)
		e.hash = fnvAppend(e.hash, e.value.KnownZero(), 8)
	}
	e.simplified = true
}

// reconcile brings both operands to the result width of e and recomputes the
// value if either operand changed.
func (e *Expr) reconcile(ext op.Extension) {
	if ext == op.ExtendNone {
		return
	}
	size, signed := e.Size(), ext == op.ExtendSign

	var changed bool
	for _, operand := range []*Ref{&e.lhs, &e.rhs} {
		if operand.node.Size() != size {
			operand.Own().Resize(size, signed)
			changed = true
		}
	}
	if changed {
		e.value = bitvec.EvaluatePartial(e.op, &e.lhs.node.value, e.rhs.node.value)
	}
}

// castWidth returns the target width of a cast operator.
func (e *Expr) castWidth() uint {
	rhs := e.rhs.node
	assert(rhs.IsConstant(), "symex: %s: non-constant width %s", e.op, rhs)
	w, _ := rhs.value.Uint()
	assert(w > 0 && w <= bitvec.MaxSize, "symex: %s: invalid width %d", e.op, w)
	return uint(w)
}

// fnvAppend mixes the low n bytes of v into the FNV-1a hash h.
func fnvAppend(h, v uint64, n int) uint64 {
	for i := 0; i < n; i++ {
		h = (h ^ (v & 0xFF)) * fnvPrime
		v >>= 8
	}
	return h
}

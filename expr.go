package symex

import (
	"fmt"

	"github.com/jilvan1234/VTIL-SymEx/bitvec"
	"github.com/jilvan1234/VTIL-SymEx/op"
)

// Expr represents a node of an expression tree.
//
// A node is a constant, a free variable, or the application of a unary or
// binary operator to child references. Unary operators only use the rhs.
// The value, depth, complexity and hash of a node are derived from its
// children and are recomputed by Update after every mutation.
type Expr struct {
	op    op.ID
	uid   UniqueIdentifier
	value bitvec.Vector

	lhs Ref
	rhs Ref

	depth      int
	complexity float64
	hash       uint64

	// Set once the active simplifier has seen the node in its current shape.
	simplified bool

	owners int32
}

// Constant returns a constant expression holding v truncated to size bits.
func Constant(v uint64, size uint) Ref {
	return ConstantVector(bitvec.New(v, size))
}

// ConstantVector returns a constant expression holding a fully known vector.
func ConstantVector(v bitvec.Vector) Ref {
	assert(v.IsKnown(), "symex: constant with unknown bits: %s", v)
	e := &Expr{value: v}
	e.Update(false)
	return newRef(e)
}

// Variable returns a free variable of size bits.
func Variable(id UniqueIdentifier, size uint) Ref {
	assert(id.Valid(), "symex: variable without identifier")
	e := &Expr{uid: id, value: bitvec.Unknown(size, id.Hash())}
	e.Update(false)
	return newRef(e)
}

// Unary returns the application of a unary operator. The expression takes
// ownership of rhs.
func Unary(id op.ID, rhs Ref) Ref {
	assert(op.Lookup(id).Operands == 1, "symex: %s is not a unary operator", id)
	assert(rhs.Valid(), "symex: %s: missing operand", id)
	e := &Expr{op: id, rhs: rhs}
	e.Update(false)
	return newRef(e)
}

// Binary returns the application of a binary operator. The expression takes
// ownership of lhs and rhs.
func Binary(lhs Ref, id op.ID, rhs Ref) Ref {
	assert(op.Lookup(id).Operands == 2, "symex: %s is not a binary operator", id)
	assert(lhs.Valid() && rhs.Valid(), "symex: %s: missing operand", id)
	e := &Expr{op: id, lhs: lhs, rhs: rhs}
	e.Update(false)
	return newRef(e)
}

// Cast returns src extended or truncated to size bits. Extension copies the
// sign bit if signed is set. Returns src itself if it already has the
// requested width.
func Cast(src Ref, size uint, signed bool) Ref {
	if src.Get().Size() == size {
		return src
	}
	id := op.UCast
	if signed {
		id = op.Cast
	}
	return Binary(src, id, Constant(uint64(size), castWidthSize))
}

// Size returns the width of the expression's value in bits.
func (e *Expr) Size() uint { return e.value.Size() }

// IsConstant returns true if e is a constant leaf.
func (e *Expr) IsConstant() bool {
	return e.op == op.Invalid && !e.uid.Valid() && e.value.Size() != 0
}

// IsVariable returns true if e is a variable leaf.
func (e *Expr) IsVariable() bool {
	return e.op == op.Invalid && e.uid.Valid()
}

// IsExpression returns true if e applies an operator.
func (e *Expr) IsExpression() bool { return e.op != op.Invalid }

// Op returns the operator of e or op.Invalid for leaves.
func (e *Expr) Op() op.ID { return e.op }

// LHS returns the left operand. Not valid for leaves and unary operators.
func (e *Expr) LHS() Ref { return e.lhs }

// RHS returns the right operand. Not valid for leaves.
func (e *Expr) RHS() Ref { return e.rhs }

// Identifier returns the identifier of a variable.
func (e *Expr) Identifier() UniqueIdentifier { return e.uid }

// Value returns the partially evaluated value of e.
func (e *Expr) Value() bitvec.Vector { return e.value }

// Depth returns the height of the tree below e. Leaves have a depth of zero.
func (e *Expr) Depth() int { return e.depth }

// Complexity returns the heuristic cost of e.
func (e *Expr) Complexity() float64 { return e.complexity }

// Hash returns the structural hash of e.
func (e *Expr) Hash() uint64 { return e.hash }

// IsSimplified returns true if e has not changed since it was last simplified.
func (e *Expr) IsSimplified() bool { return e.simplified }

// CountConstants returns the number of constant leaves in the tree.
func (e *Expr) CountConstants() int {
	var n int
	Inspect(e, func(e *Expr) bool {
		if e.IsConstant() {
			n++
		}
		return true
	})
	return n
}

// CountVariables returns the number of variable leaves in the tree.
func (e *Expr) CountVariables() int {
	var n int
	Inspect(e, func(e *Expr) bool {
		if e.IsVariable() {
			n++
		}
		return true
	})
	return n
}

// CountUniqueVariables returns the number of variables in the tree that are
// not already in set. Every variable found is added to set. If set is nil
// then a new set is used.
func (e *Expr) CountUniqueVariables(set *VariableSet) int {
	if set == nil {
		set = NewVariableSet()
	}
	var n int
	Inspect(e, func(e *Expr) bool {
		if e.IsVariable() && set.Add(e.uid) {
			n++
		}
		return true
	})
	return n
}

// SetOperands replaces the operands of e and restores its invariants. The
// expression takes ownership of lhs and rhs.
func (e *Expr) SetOperands(lhs, rhs Ref) {
	assert(e.IsExpression(), "symex: operands set on leaf %s", e)
	e.lhs.Release()
	e.rhs.Release()
	e.lhs, e.rhs = lhs, rhs
	e.Update(false)
}

// String returns the string representation of the expression.
func (e *Expr) String() string {
	switch {
	case e.IsExpression():
		var lhs string
		if e.lhs.Valid() {
			lhs = e.lhs.node.String()
		}
		return op.Lookup(e.op).Format(lhs, e.rhs.node.String())
	case e.IsConstant():
		v, _ := e.value.Int()
		if v < 0 {
			return fmt.Sprintf("-0x%x", uint64(-v))
		}
		return fmt.Sprintf("0x%x", v)
	case e.IsVariable():
		return fmt.Sprintf("%s:%d", e.uid, e.Size())
	default:
		return "NULL"
	}
}

// clone returns a shallow copy of e that shares its children.
func (e *Expr) clone() *Expr {
	other := *e
	other.lhs = e.lhs.Share()
	other.rhs = e.rhs.Share()
	other.owners = 0
	return &other
}

// assign overwrites e with the contents of src while keeping the owners of e.
func (e *Expr) assign(src *Expr) {
	if e == src {
		return
	}
	lhs, rhs := src.lhs.Share(), src.rhs.Share()
	e.lhs.Release()
	e.rhs.Release()

	owners := e.owners
	*e = *src
	e.lhs, e.rhs, e.owners = lhs, rhs, owners
}

// replace overwrites e with the expression referenced by r and releases r.
func (e *Expr) replace(r Ref) {
	e.assign(r.node)
	r.Release()
}

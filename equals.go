package symex

import (
	"github.com/jilvan1234/VTIL-SymEx/op"
)

// Equals returns true if e and other are structurally equal. Operands of
// commutative operators may appear in either order.
func (e *Expr) Equals(other *Expr) bool {
	if e == other {
		return true
	} else if e.hash != other.hash || e.op != other.op || e.Size() != other.Size() {
		return false
	}

	switch {
	case e.IsVariable():
		return other.IsVariable() && e.uid == other.uid
	case e.IsConstant():
		return other.IsConstant() && e.value.Equal(other.value)
	case !e.IsExpression():
		return !other.IsExpression()
	}

	desc := op.Lookup(e.op)
	if desc.Operands == 1 {
		return sameOrEqual(e.rhs, other.rhs)
	}

	if sameOrEqual(e.lhs, other.lhs) && sameOrEqual(e.rhs, other.rhs) {
		return true
	}
	return desc.Commutative && sameOrEqual(e.lhs, other.rhs) && sameOrEqual(e.rhs, other.lhs)
}

// Equals returns true if both references point to structurally equal expressions.
func (r Ref) Equals(other Ref) bool {
	return sameOrEqual(r, other)
}

func sameOrEqual(a, b Ref) bool {
	if a.node == b.node {
		return true
	} else if a.node == nil || b.node == nil {
		return false
	}
	return a.node.Equals(b.node)
}

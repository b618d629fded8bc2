package rewrite

import (
	"github.com/jilvan1234/VTIL-SymEx/bitvec"
	"github.com/jilvan1234/VTIL-SymEx/op"

	symex "github.com/jilvan1234/VTIL-SymEx"
)

// rule rewrites a single expression. The returned reference is owned by the
// caller and the expression passed in is never modified.
type rule struct {
	name     string
	prettify bool // only applied when prettifying
	apply    func(e *symex.Expr) (symex.Ref, bool)
}

func defaultRules() []rule {
	return []rule{
		// X & -1  ==>  X
		// X | 0   ==>  X
		// X + 0   ==>  X
		// X * 1   ==>  X
		// X << 0  ==>  X
		{name: "identity", apply: applyIdentity},

		// X & X      ==>  X
		// max(X, X)  ==>  X
		{name: "idempotence", apply: applyIdempotence},

		// ~~X    ==>  X
		// -(-X)  ==>  X
		{name: "involution", apply: applyInvolution},

		// __ucast(__ucast(X, A), B)  ==>  __ucast(X, B)
		// __ucast(__cast(X, A), B)   ==>  __cast(X, B)    where B <= A
		{name: "cast-merge", apply: applyCastMerge},

		// 1 + X  ==>  X + 1
		{name: "commute", prettify: true, apply: applyCommute},
	}
}

func applyIdentity(e *symex.Expr) (symex.Ref, bool) {
	if e.Op().IsCast() || !e.LHS().Valid() {
		return symex.Ref{}, false
	}

	if v, ok := constant(e.RHS().Get()); ok && isIdentity(e.Op(), v, e.Size()) {
		return e.LHS().Share(), true
	}
	if !op.Lookup(e.Op()).Commutative {
		return symex.Ref{}, false
	}
	if v, ok := constant(e.LHS().Get()); ok && isIdentity(e.Op(), v, e.Size()) {
		return e.RHS().Share(), true
	}
	return symex.Ref{}, false
}

// isIdentity returns true if v is a right identity of the operator.
func isIdentity(id op.ID, v uint64, size uint) bool {
	switch id {
	case op.BitwiseAnd:
		return v == bitvec.Fill(size)
	case op.BitwiseOr, op.BitwiseXor, op.Add, op.Subtract,
		op.ShiftLeft, op.ShiftRight, op.RotateLeft, op.RotateRight:
		return v == 0
	case op.Multiply, op.UMultiply, op.Divide, op.UDivide:
		return v == 1
	default:
		return false
	}
}

func applyIdempotence(e *symex.Expr) (symex.Ref, bool) {
	switch e.Op() {
	case op.BitwiseAnd, op.BitwiseOr, op.MaxValue, op.MinValue, op.UMaxValue, op.UMinValue:
		if e.LHS().Equals(e.RHS()) {
			return e.LHS().Share(), true
		}
	}
	return symex.Ref{}, false
}

func applyInvolution(e *symex.Expr) (symex.Ref, bool) {
	switch e.Op() {
	case op.BitwiseNot, op.Negate:
		if inner := e.RHS().Get(); inner.Op() == e.Op() {
			return inner.RHS().Share(), true
		}
	}
	return symex.Ref{}, false
}

func applyCastMerge(e *symex.Expr) (symex.Ref, bool) {
	if !e.Op().IsCast() {
		return symex.Ref{}, false
	}
	inner := e.LHS().Get()
	if !inner.Op().IsCast() {
		return symex.Ref{}, false
	}

	x := inner.LHS()
	a, b, n := inner.Size(), e.Size(), x.Get().Size()

	// A truncating inner cast can only be merged with a further truncation.
	if a < n {
		if b > a {
			return symex.Ref{}, false
		}
		return symex.Cast(x.Share(), b, false), true
	}

	switch {
	case e.Op() == inner.Op():
		return symex.Cast(x.Share(), b, e.Op() == op.Cast), true
	case b <= a:
		// Truncating an extension keeps the extension of the inner cast.
		return symex.Cast(x.Share(), b, inner.Op() == op.Cast), true
	case e.Op() == op.Cast && a > n:
		// The sign bit of a zero extension is zero.
		return symex.Cast(x.Share(), b, false), true
	}
	return symex.Ref{}, false
}

func applyCommute(e *symex.Expr) (symex.Ref, bool) {
	if !e.LHS().Valid() || !op.Lookup(e.Op()).Commutative {
		return symex.Ref{}, false
	} else if !e.LHS().Get().IsConstant() || e.RHS().Get().IsConstant() {
		return symex.Ref{}, false
	}
	return symex.Binary(e.RHS().Share(), e.Op(), e.LHS().Share()), true
}

// constant returns the value of a constant leaf.
func constant(e *symex.Expr) (uint64, bool) {
	if !e.IsConstant() {
		return 0, false
	}
	return e.Value().Uint()
}

package symex

// Ref is an ownership handle over an expression node.
//
// A shared Ref is counted on the node it points to; a node referenced by a
// single shared Ref may be edited in place, while a node with several owners
// is copied on write by Own. A local Ref wraps a node held by value for the
// duration of one simplification call and does not own it.
//
// Copying a Ref value does not register a new owner. Use Share to hand a
// subtree to a second parent and Release to drop a reference.
type Ref struct {
	node  *Expr
	local bool
}

// newRef returns the single shared reference to e.
func newRef(e *Expr) Ref {
	e.owners = 1
	return Ref{node: e}
}

// makeLocal returns a non-owning exclusive reference to e.
func makeLocal(e *Expr) Ref {
	return Ref{node: e, local: true}
}

// Valid returns true if the reference points to a node.
func (r Ref) Valid() bool { return r.node != nil }

// Get returns the referenced node. The node must not be modified through the
// returned pointer unless the reference is exclusive; see Own.
func (r Ref) Get() *Expr { return r.node }

// IsLocal returns true if r is a transient local reference.
func (r Ref) IsLocal() bool { return r.local }

// IsExclusive returns true if no other reference points to the node.
func (r Ref) IsExclusive() bool {
	return r.node != nil && (r.local || r.node.owners == 1)
}

// Is returns true if both references point to the same node.
func (r Ref) Is(other Ref) bool { return r.node == other.node }

// Share registers and returns a new shared reference to the node.
func (r Ref) Share() Ref {
	if r.node == nil {
		return Ref{}
	}
	r.node.owners++
	return Ref{node: r.node}
}

// Clone returns an exclusive reference to a shallow copy of the node. The
// children of the copy are shared with the original.
func (r Ref) Clone() Ref {
	assert(r.node != nil, "symex: clone of nil reference")
	return newRef(r.node.clone())
}

// Own returns the node for in-place modification, first replacing the
// referenced node with a private copy if it has other owners.
func (r *Ref) Own() *Expr {
	assert(r.node != nil, "symex: own of nil reference")
	if r.local || r.node.owners == 1 {
		return r.node
	}
	c := r.node.clone()
	r.node.owners--
	*r = newRef(c)
	return c
}

// Release drops the reference. Children of a node are released when its
// last owner goes away.
func (r *Ref) Release() {
	if r.node == nil {
		return
	} else if !r.local {
		n := r.node
		n.owners--
		assert(n.owners >= 0, "symex: released unowned node %s", n)
		if n.owners == 0 {
			n.lhs.Release()
			n.rhs.Release()
		}
	}
	*r = Ref{}
}

// Simplify runs the active simplifier over the referenced expression and
// replaces r with the result. The reference is consumed by the simplifier, so
// a shared node is copied before it is rewritten in place.
func (r *Ref) Simplify(prettify bool) {
	assert(r.node != nil, "symex: simplify of nil reference")
	if r.local {
		r.node.Simplify(prettify)
		return
	} else if r.node.simplified && !prettify {
		return
	}

	*r = active.SimplifyExpression(*r, prettify)
	assert(r.node != nil, "symex: simplifier returned nil reference")
	r.node.simplified = true
}

// String returns the string representation of the referenced expression.
func (r Ref) String() string {
	if r.node == nil {
		return "NULL"
	}
	return r.node.String()
}

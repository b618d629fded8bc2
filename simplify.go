package symex

// Simplifier represents a rewrite engine.
//
// SimplifyExpression consumes ref and returns the reference the caller should
// use in its place, which may be ref itself. A local ref may be modified in
// place but must not be retained by the simplifier after it returns.
type Simplifier interface {
	SimplifyExpression(ref Ref, prettify bool) Ref
}

// active is the simplifier invoked by Simplify.
var active Simplifier = nopSimplifier{}

// SetSimplifier sets the simplifier used by Simplify and returns the previous
// one. A nil simplifier restores the default, which leaves every expression
// unchanged.
func SetSimplifier(s Simplifier) Simplifier {
	prev := active
	if s == nil {
		s = nopSimplifier{}
	}
	active = s
	return prev
}

// Simplify runs the active simplifier over e. If the simplifier produces a
// different expression, its contents are copied into e.
func (e *Expr) Simplify(prettify bool) *Expr {
	if e.simplified && !prettify {
		return e
	}

	owners := e.owners
	ref := active.SimplifyExpression(makeLocal(e), prettify)
	assert(e.owners == owners, "symex: simplifier retained local reference to %s", e)
	assert(ref.Valid(), "symex: simplifier returned nil reference")

	if ref.node != e {
		e.assign(ref.node)
		ref.Release()
	}
	e.simplified = true
	return e
}

// nopSimplifier returns every expression unchanged.
type nopSimplifier struct{}

func (nopSimplifier) SimplifyExpression(ref Ref, prettify bool) Ref { return ref }

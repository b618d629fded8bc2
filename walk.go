package symex

// Visitor represents a visitor that can be passed to Walk().
type Visitor interface {
	// Visit is called for each node. If the returned visitor is nil then
	// the children of the node are not visited.
	Visit(e *Expr) Visitor
}

// Walk traverses the tree rooted at e in depth-first order, visiting the lhs
// before the rhs. The tree must not be modified during the walk.
func Walk(v Visitor, e *Expr) {
	if v = v.Visit(e); v == nil {
		return
	}
	if e.lhs.Valid() {
		Walk(v, e.lhs.node)
	}
	if e.rhs.Valid() {
		Walk(v, e.rhs.node)
	}
}

// Inspect traverses the tree rooted at e, calling f for each node. Children
// are skipped if f returns false.
func Inspect(e *Expr, f func(*Expr) bool) {
	Walk(inspector(f), e)
}

type inspector func(*Expr) bool

func (f inspector) Visit(e *Expr) Visitor {
	if f(e) {
		return f
	}
	return nil
}

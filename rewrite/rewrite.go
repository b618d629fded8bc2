// Package rewrite implements a rule based simplifier for symex expressions.
package rewrite

import (
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	symex "github.com/jilvan1234/VTIL-SymEx"
)

// DefaultCacheSize is the number of simplified expressions remembered by default.
const DefaultCacheSize = 4096

// maxPasses bounds the number of rules applied to a single node.
const maxPasses = 16

// Ensure type implements interface.
var _ symex.Simplifier = (*Simplifier)(nil)

// Simplifier rewrites expressions into cheaper equivalent forms.
//
// Operands are simplified first, fully known values are folded into
// constants, and the rule chain is then applied until no rule produces a
// candidate that is at most as complex as the current expression.
type Simplifier struct {
	cache *lru.Cache
	rules []rule
	stats Stats
}

// Stats counts the work performed by a simplifier.
type Stats struct {
	Hits     int // results served from the cache
	Misses   int // expressions simplified from scratch
	Rewrites int // rules applied
}

// New returns a simplifier remembering up to cacheSize results.
func New(cacheSize int) (*Simplifier, error) {
	if cacheSize <= 0 {
		return nil, errors.Errorf("invalid cache size: %d", cacheSize)
	}
	cache, err := lru.NewWithEvict(cacheSize, func(key, value interface{}) {
		value.(*entry).release()
	})
	if err != nil {
		return nil, errors.Wrap(err, "cannot create simplifier cache")
	}
	return &Simplifier{cache: cache, rules: defaultRules()}, nil
}

// Stats returns the counters of the simplifier.
func (s *Simplifier) Stats() Stats { return s.stats }

// Purge drops every cached result.
func (s *Simplifier) Purge() { s.cache.Purge() }

// SimplifyExpression implements symex.Simplifier.
func (s *Simplifier) SimplifyExpression(ref symex.Ref, prettify bool) symex.Ref {
	e := ref.Get()
	if !e.IsExpression() {
		return ref
	}

	key := cacheKey{hash: e.Hash(), prettify: prettify}
	if v, ok := s.cache.Get(key); ok {
		if ent := v.(*entry); ent.from.Equals(ref) {
			s.stats.Hits++
			out := ent.to.Share()
			ref.Release()
			return out
		}
	}
	s.stats.Misses++

	from := snapshot(ref)
	out := s.simplify(ref, prettify)

	if old, ok := s.cache.Peek(key); ok {
		old.(*entry).release()
	}
	s.cache.Add(key, &entry{from: from, to: snapshot(out)})
	return out
}

// simplify rewrites the expression referenced by ref.
func (s *Simplifier) simplify(ref symex.Ref, prettify bool) symex.Ref {
	// The caller's node stays untouched; results are built from a copy.
	if ref.IsLocal() {
		ref = ref.Clone()
	}

	ref = s.simplifyOperands(ref, prettify)
	for pass := 0; pass < maxPasses; pass++ {
		e := ref.Get()
		if !e.IsExpression() {
			break
		} else if e.Value().IsKnown() {
			s.logRewrite("fold", e, e.Value())
			out := symex.ConstantVector(e.Value())
			ref.Release()
			return out
		}

		next, ok := s.rewrite(e, prettify)
		if !ok {
			break
		}
		ref.Release()
		ref = next
	}
	return ref
}

// simplifyOperands simplifies the operands of the expression, replacing them
// if they changed.
func (s *Simplifier) simplifyOperands(ref symex.Ref, prettify bool) symex.Ref {
	e := ref.Get()
	lhs, rhs := e.LHS().Share(), e.RHS().Share()
	if lhs.Valid() {
		lhs.Simplify(prettify)
	}
	rhs.Simplify(prettify)

	if lhs.Is(e.LHS()) && rhs.Is(e.RHS()) {
		lhs.Release()
		rhs.Release()
		return ref
	}
	ref.Own().SetOperands(lhs, rhs)
	return ref
}

// rewrite returns the result of the first rule producing an acceptable candidate.
func (s *Simplifier) rewrite(e *symex.Expr, prettify bool) (symex.Ref, bool) {
	for _, r := range s.rules {
		if r.prettify && !prettify {
			continue
		}
		next, ok := r.apply(e)
		if !ok {
			continue
		} else if n := next.Get(); n.Size() != e.Size() || n.Complexity() > e.Complexity() {
			next.Release()
			continue
		}

		s.stats.Rewrites++
		s.logRewrite(r.name, e, next)
		return next, true
	}
	return symex.Ref{}, false
}

func (s *Simplifier) logRewrite(name string, from, to interface{}) {
	if !log.IsLevelEnabled(log.DebugLevel) {
		return
	}
	log.WithFields(log.Fields{
		"rule": name,
		"from": from,
		"to":   to,
	}).Debug("rewrite")
}

// cacheKey identifies a cached result. Entries with the same key are
// confirmed with Equals before use.
type cacheKey struct {
	hash     uint64
	prettify bool
}

// entry holds a simplified expression and the input it was derived from.
type entry struct {
	from symex.Ref
	to   symex.Ref
}

func (e *entry) release() {
	e.from.Release()
	e.to.Release()
}

// snapshot returns a reference to ref that may be retained.
func snapshot(ref symex.Ref) symex.Ref {
	if ref.IsLocal() {
		return ref.Clone()
	}
	return ref.Share()
}

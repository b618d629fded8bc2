package symex

import (
	"strings"

	"github.com/benbjohnson/immutable"
	"github.com/cespare/xxhash/v2"
)

// UniqueIdentifier names a free variable.
type UniqueIdentifier struct {
	name string
	hash uint64
}

// NewIdentifier returns the identifier for name.
func NewIdentifier(name string) UniqueIdentifier {
	return UniqueIdentifier{name: name, hash: xxhash.Sum64String(name)}
}

// Name returns the name of the identifier.
func (id UniqueIdentifier) Name() string { return id.name }

// Hash returns the hash of the identifier.
func (id UniqueIdentifier) Hash() uint64 { return id.hash }

// Valid returns true if the identifier names a variable.
func (id UniqueIdentifier) Valid() bool { return id.name != "" }

// String returns the name of the identifier.
func (id UniqueIdentifier) String() string { return id.name }

// VariableSet is a set of identifiers, ordered by name.
type VariableSet struct {
	m *immutable.SortedMap
}

// NewVariableSet returns an empty set.
func NewVariableSet() *VariableSet {
	return &VariableSet{m: immutable.NewSortedMap(&identifierComparer{})}
}

// Add inserts id into the set. Returns false if it was already present.
func (s *VariableSet) Add(id UniqueIdentifier) bool {
	if _, ok := s.m.Get(id.name); ok {
		return false
	}
	s.m = s.m.Set(id.name, id)
	return true
}

// Contains returns true if id is in the set.
func (s *VariableSet) Contains(id UniqueIdentifier) bool {
	_, ok := s.m.Get(id.name)
	return ok
}

// Len returns the number of identifiers in the set.
func (s *VariableSet) Len() int {
	return s.m.Len()
}

// Clone returns a copy of the set. Later additions to either set are not
// visible in the other.
func (s *VariableSet) Clone() *VariableSet {
	return &VariableSet{m: s.m}
}

// Identifiers returns the identifiers in the set, sorted by name.
func (s *VariableSet) Identifiers() []UniqueIdentifier {
	a := make([]UniqueIdentifier, 0, s.m.Len())
	for itr := s.m.Iterator(); !itr.Done(); {
		_, v := itr.Next()
		a = append(a, v.(UniqueIdentifier))
	}
	return a
}

// identifierComparer compares identifier names. Implements immutable.Comparer.
type identifierComparer struct{}

// Compare returns -1 if a sorts before b, 1 if after, and 0 if they are equal.
// Panic if a or b is not a string.
func (c *identifierComparer) Compare(a, b interface{}) int {
	return strings.Compare(a.(string), b.(string))
}

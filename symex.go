// Package symex implements the expression trees manipulated by a term-rewriting
// simplifier for lifted machine code.
//
// Expressions are trees of fixed-width integer operations. Every node caches
// its partially evaluated value, depth, complexity and structural hash, and
// subtrees may be shared between any number of parents through Ref handles.
// The package is not safe for concurrent mutation.
package symex

import (
	"fmt"
)

// Standard widths.
const (
	WidthBool = 1
	Width8    = 8
	Width16   = 16
	Width32   = 32
	Width64   = 64
)

// castWidthSize is the width of the constant holding the target width of a cast.
const castWidthSize = Width8

// FNV-1a parameters used for structural hashing.
const (
	fnvInitial = 0xcbf29ce484222325
	fnvPrime   = 0x100000001b3
)

// assert panics if condition is false.
func assert(condition bool, format string, args ...interface{}) {
	if !condition {
		panic(fmt.Sprintf("assert: "+format, args...))
	}
}

package symex_test

import (
	"math"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/go-cmp/cmp"

	symex "github.com/jilvan1234/VTIL-SymEx"
	"github.com/jilvan1234/VTIL-SymEx/op"
)

func variable(name string, size uint) symex.Ref {
	return symex.Variable(symex.NewIdentifier(name), size)
}

func TestConstant(t *testing.T) {
	e := symex.Constant(5, 32).Get()
	if !e.IsConstant() || e.IsVariable() || e.IsExpression() {
		t.Fatal("expected constant")
	} else if e.Size() != 32 {
		t.Fatalf("unexpected size: %d", e.Size())
	} else if e.Depth() != 0 {
		t.Fatalf("unexpected depth: %d", e.Depth())
	} else if e.Complexity() != math.Sqrt(3) {
		t.Fatalf("unexpected complexity: %v", e.Complexity())
	} else if !e.IsSimplified() {
		t.Fatal("expected simplified")
	}

	t.Run("Truncated", func(t *testing.T) {
		if v, _ := symex.Constant(0x1FF, 8).Get().Value().Uint(); v != 0xFF {
			t.Fatalf("unexpected value: %x", v)
		}
	})
	t.Run("AllOnes", func(t *testing.T) {
		if c := symex.Constant(0xFFFFFFFF, 32).Get().Complexity(); c != math.Sqrt(2) {
			t.Fatalf("unexpected complexity: %v", c)
		}
	})
	t.Run("Zero", func(t *testing.T) {
		if c := symex.Constant(0, 64).Get().Complexity(); c != 1 {
			t.Fatalf("unexpected complexity: %v", c)
		}
	})
}

func TestVariable(t *testing.T) {
	id := symex.NewIdentifier("X")
	e := symex.Variable(id, 64).Get()
	if !e.IsVariable() || e.IsConstant() || e.IsExpression() {
		t.Fatal("expected variable")
	} else if e.Identifier() != id {
		t.Fatalf("unexpected identifier: %s", e.Identifier())
	} else if e.Complexity() != 128 {
		t.Fatalf("unexpected complexity: %v", e.Complexity())
	} else if e.Hash() != id.Hash()+64 {
		t.Fatalf("unexpected hash: %x", e.Hash())
	} else if e.Value().IsKnown() {
		t.Fatal("expected unknown value")
	}
}

func TestUnary(t *testing.T) {
	t.Run("ArityMismatch", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic")
			}
		}()
		symex.Unary(op.Add, variable("X", 8))
	})
	t.Run("Evaluate", func(t *testing.T) {
		e := symex.Unary(op.BitwiseNot, symex.Constant(0x0F, 8)).Get()
		if v, ok := e.Value().Uint(); !ok || v != 0xF0 {
			t.Fatalf("unexpected value: %s", e.Value())
		} else if e.Depth() != 1 {
			t.Fatalf("unexpected depth: %d", e.Depth())
		}
	})
}

func TestBinary(t *testing.T) {
	t.Run("ArityMismatch", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic")
			}
		}()
		symex.Binary(variable("X", 8), op.BitwiseNot, variable("Y", 8))
	})

	// Constants are composed but not folded until simplified.
	t.Run("ConstantOperands", func(t *testing.T) {
		e := symex.Binary(symex.Constant(5, 32), op.Add, symex.Constant(3, 32)).Get()
		if v, ok := e.Value().Uint(); !ok || v != 8 {
			t.Fatalf("unexpected value: %s", e.Value())
		} else if e.Depth() != 1 {
			t.Fatalf("unexpected depth: %d", e.Depth())
		} else if e.IsConstant() {
			t.Fatal("expected expression")
		} else if e.Complexity() != 4*math.Sqrt(3) {
			t.Fatalf("unexpected complexity: %v", e.Complexity())
		}
	})

	t.Run("XorIdentical", func(t *testing.T) {
		x := variable("X", 64)
		e := symex.Binary(x.Share(), op.BitwiseXor, x).Get()
		if v, ok := e.Value().Uint(); !ok || v != 0 {
			t.Fatalf("unexpected value: %s", e.Value())
		} else if !e.IsExpression() {
			t.Fatal("expected expression")
		}
	})

	t.Run("Depth", func(t *testing.T) {
		inner := symex.Binary(variable("X", 32), op.Add, variable("Y", 32))
		e := symex.Binary(symex.Unary(op.Negate, inner), op.Add, variable("Z", 32)).Get()
		if e.Depth() != 3 {
			t.Fatalf("unexpected depth: %d", e.Depth())
		} else if e.LHS().Get().Depth() != 2 {
			t.Fatalf("unexpected depth: %d", e.LHS().Get().Depth())
		}
	})

	t.Run("Complexity", func(t *testing.T) {
		t.Run("SameKind", func(t *testing.T) {
			inner := symex.Binary(variable("X", 32), op.Add, variable("Y", 32))
			if c := inner.Get().Complexity(); c != 512 {
				t.Fatalf("unexpected complexity: %v", c)
			}
			if c := symex.Binary(inner, op.Subtract, variable("Z", 32)).Get().Complexity(); c != 1280 {
				t.Fatalf("unexpected complexity: %v", c)
			}
		})
		t.Run("Mixed", func(t *testing.T) {
			inner := symex.Binary(variable("X", 32), op.Add, variable("Y", 32))
			if c := symex.Binary(inner, op.BitwiseAnd, variable("Z", 32)).Get().Complexity(); c != 2560 {
				t.Fatalf("unexpected complexity: %v", c)
			}
		})
		t.Run("Neutral", func(t *testing.T) {
			inner := symex.Binary(variable("X", 32), op.Add, variable("Y", 32))
			if c := symex.Binary(inner, op.Equal, variable("Z", 32)).Get().Complexity(); c != 1280 {
				t.Fatalf("unexpected complexity: %v", c)
			}
		})
		t.Run("Unary", func(t *testing.T) {
			if c := symex.Unary(op.BitwiseNot, variable("X", 32)).Get().Complexity(); c != 256 {
				t.Fatalf("unexpected complexity: %v", c)
			}
		})
	})

	t.Run("Reconcile", func(t *testing.T) {
		t.Run("Unsigned", func(t *testing.T) {
			e := symex.Binary(variable("X", 8), op.BitwiseAnd, variable("Y", 32)).Get()
			if lhs := e.LHS().Get(); lhs.Op() != op.UCast || lhs.Size() != 32 {
				t.Fatalf("unexpected lhs: %s", lhs)
			} else if e.Size() != 32 {
				t.Fatalf("unexpected size: %d", e.Size())
			}
		})
		t.Run("Signed", func(t *testing.T) {
			e := symex.Binary(variable("X", 32), op.Add, variable("Y", 8)).Get()
			if rhs := e.RHS().Get(); rhs.Op() != op.Cast || rhs.Size() != 32 {
				t.Fatalf("unexpected rhs: %s", rhs)
			}
		})
		t.Run("Constant", func(t *testing.T) {
			e := symex.Binary(variable("X", 16), op.Add, symex.Constant(0xFF, 8)).Get()
			if rhs := e.RHS().Get(); !rhs.IsConstant() {
				t.Fatalf("unexpected rhs: %s", rhs)
			} else if v, _ := rhs.Value().Uint(); v != 0xFFFF {
				t.Fatalf("unexpected value: %x", v)
			}
		})
		t.Run("Compare", func(t *testing.T) {
			e := symex.Binary(variable("X", 8), op.ULess, variable("Y", 32)).Get()
			if lhs := e.LHS().Get(); !lhs.IsVariable() || lhs.Size() != 8 {
				t.Fatalf("unexpected lhs: %s", lhs)
			} else if e.Size() != 1 {
				t.Fatalf("unexpected size: %d", e.Size())
			}
		})
		t.Run("Shared", func(t *testing.T) {
			x := variable("X", 8)
			symex.Binary(x.Share(), op.BitwiseOr, variable("Y", 16))
			if e := x.Get(); !e.IsVariable() || e.Size() != 8 {
				t.Fatalf("shared operand modified: %s", e)
			}
		})
	})
}

func TestCast(t *testing.T) {
	t.Run("Elide", func(t *testing.T) {
		x := variable("X", 32)
		if r := symex.Cast(x, 32, true); !r.Is(x) {
			t.Fatalf("unexpected cast: %s", r)
		}
	})
	t.Run("Value", func(t *testing.T) {
		e := symex.Cast(symex.Constant(0x80, 8), 16, true).Get()
		if v, _ := e.Value().Uint(); v != 0xFF80 {
			t.Fatalf("unexpected value: %x", v)
		} else if e.Op() != op.Cast {
			t.Fatalf("unexpected op: %s", e.Op())
		}
	})
	t.Run("NonConstantWidth", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic")
			}
		}()
		symex.Binary(variable("X", 8), op.UCast, variable("W", 8))
	})
}

func TestExpr_Equals(t *testing.T) {
	t.Run("Commutative", func(t *testing.T) {
		a, b := variable("A", 32), variable("B", 32)
		x := symex.Binary(a.Share(), op.Add, b.Share()).Get()
		y := symex.Binary(b, op.Add, a).Get()
		if !x.Equals(y) || !y.Equals(x) {
			t.Fatal("expected equal")
		} else if x.Hash() != y.Hash() {
			t.Fatalf("hash mismatch: %x != %x", x.Hash(), y.Hash())
		}
	})
	t.Run("NonCommutative", func(t *testing.T) {
		a, b := variable("A", 32), variable("B", 32)
		x := symex.Binary(a.Share(), op.Subtract, b.Share()).Get()
		y := symex.Binary(b, op.Subtract, a).Get()
		if x.Equals(y) {
			t.Fatal("expected not equal")
		}
	})
	t.Run("Independent", func(t *testing.T) {
		build := func() *symex.Expr {
			return symex.Binary(
				symex.Unary(op.BitwiseNot, variable("X", 16)),
				op.BitwiseXor,
				symex.Binary(variable("Y", 16), op.ShiftLeft, symex.Constant(3, 16)),
			).Get()
		}
		x, y := build(), build()
		if !x.Equals(y) {
			t.Fatalf("expected equal:\n%s", spew.Sdump(x, y))
		} else if x.Hash() != y.Hash() {
			t.Fatalf("hash mismatch: %x != %x", x.Hash(), y.Hash())
		}
	})
	t.Run("Width", func(t *testing.T) {
		if variable("X", 8).Get().Equals(variable("X", 16).Get()) {
			t.Fatal("expected not equal")
		}
	})
	t.Run("Constant", func(t *testing.T) {
		if !symex.Constant(1, 8).Get().Equals(symex.Constant(1, 8).Get()) {
			t.Fatal("expected equal")
		} else if symex.Constant(1, 8).Get().Equals(symex.Constant(2, 8).Get()) {
			t.Fatal("expected not equal")
		}
	})
	t.Run("Operator", func(t *testing.T) {
		x := symex.Binary(variable("A", 8), op.BitwiseAnd, variable("B", 8))
		y := symex.Binary(variable("A", 8), op.BitwiseOr, variable("B", 8))
		if x.Equals(y) {
			t.Fatal("expected not equal")
		}
	})
}

func TestExpr_Resize(t *testing.T) {
	// Scenario from the width propagation rules: a sign extension consumed
	// unsigned at a narrower width keeps the extended bits.
	t.Run("SignedCastToUnsigned", func(t *testing.T) {
		r := symex.Cast(variable("X", 8), 32, true)
		e := r.Own()
		e.Resize(16, false)
		if e.Op() != op.UCast || e.Size() != 16 {
			t.Fatalf("unexpected expression: %s", e)
		} else if lhs := e.LHS().Get(); lhs.Op() != op.Cast || lhs.Size() != 32 {
			t.Fatalf("unexpected operand: %s", lhs)
		} else if s := e.String(); s != "__ucast(__cast(X:8, 0x20), 0x10)" {
			t.Fatalf("unexpected string: %s", s)
		}
	})

	t.Run("ShrunkUnsignedCast", func(t *testing.T) {
		r := symex.Cast(variable("X", 32), 8, false)
		e := r.Own()
		e.Resize(16, false)
		if s := e.String(); s != "__ucast((X:32&0xff), 0x10)" {
			t.Fatalf("unexpected string: %s", s)
		} else if e.Size() != 16 {
			t.Fatalf("unexpected size: %d", e.Size())
		}
	})

	t.Run("ElideCast", func(t *testing.T) {
		r := symex.Cast(variable("X", 8), 32, false)
		e := r.Own()
		e.Resize(8, false)
		if !e.Equals(variable("X", 8).Get()) {
			t.Fatalf("unexpected expression: %s", e)
		}
	})

	t.Run("ExtendUnsignedCast", func(t *testing.T) {
		r := symex.Cast(variable("X", 8), 16, false)
		e := r.Own()
		e.Resize(64, true)
		if s := e.String(); s != "__ucast(X:8, 0x40)" {
			t.Fatalf("unexpected string: %s", s)
		}
	})

	t.Run("Constant", func(t *testing.T) {
		r := symex.Constant(0x80, 8)
		e := r.Own()
		e.Resize(16, true)
		if !e.IsConstant() {
			t.Fatalf("unexpected expression: %s", e)
		} else if v, _ := e.Value().Uint(); v != 0xFF80 {
			t.Fatalf("unexpected value: %x", v)
		} else if !e.Equals(symex.Constant(0xFF80, 16).Get()) {
			t.Fatal("expected equal to fresh constant")
		}
	})

	t.Run("Variable", func(t *testing.T) {
		r := variable("X", 8)
		e := r.Own()
		e.Resize(32, true)
		if s := e.String(); s != "__cast(X:8, 0x20)" {
			t.Fatalf("unexpected string: %s", s)
		}
	})

	t.Run("UnsignedOperator", func(t *testing.T) {
		r := symex.Binary(variable("X", 8), op.BitwiseAnd, variable("Y", 8))
		e := r.Own()
		e.Resize(16, false)
		if s := e.String(); s != "(__ucast(X:8, 0x10)&__ucast(Y:8, 0x10))" {
			t.Fatalf("unexpected string: %s", s)
		}
	})

	t.Run("UnsignedOperatorSigned", func(t *testing.T) {
		r := symex.Binary(variable("X", 8), op.BitwiseAnd, variable("Y", 8))
		e := r.Own()
		e.Resize(16, true)
		if s := e.String(); s != "__cast((X:8&Y:8), 0x10)" {
			t.Fatalf("unexpected string: %s", s)
		}
	})

	t.Run("SignedOperator", func(t *testing.T) {
		r := symex.Unary(op.Negate, variable("X", 8))
		e := r.Own()
		e.Resize(16, true)
		if s := e.String(); s != "-__cast(X:8, 0x10)" {
			t.Fatalf("unexpected string: %s", s)
		}
	})

	t.Run("Conditional", func(t *testing.T) {
		c := symex.Binary(variable("A", 8), op.Equal, variable("B", 8))
		r := symex.Binary(c, op.ValueIf, variable("X", 8))
		e := r.Own()
		e.Resize(32, false)
		if e.Op() != op.ValueIf || e.Size() != 32 {
			t.Fatalf("unexpected expression: %s", e)
		} else if lhs := e.LHS().Get(); lhs.Size() != 1 {
			t.Fatalf("unexpected condition: %s", lhs)
		}
	})

	t.Run("Compare", func(t *testing.T) {
		r := symex.Binary(variable("A", 8), op.Less, variable("B", 8))
		e := r.Own()
		h := e.Hash()

		e.Resize(8, true)
		if e.Op() != op.Less || e.Size() != 8 {
			t.Fatalf("unexpected expression: %s", e)
		} else if e.Hash() != h+7 {
			t.Fatalf("unexpected hash: %x", e.Hash())
		} else if lhs := e.LHS().Get(); lhs.Size() != 8 {
			t.Fatalf("unexpected operand: %s", lhs)
		}

		// Recomputing the invariants keeps the resized width.
		e.Update(false)
		if e.Size() != 8 || e.Hash() != h+7 {
			t.Fatalf("unexpected update: %s %x", e.Value(), e.Hash())
		}

		e.Resize(1, false)
		if e.Hash() != h {
			t.Fatalf("unexpected hash: %x", e.Hash())
		}
	})

	t.Run("Other", func(t *testing.T) {
		r := symex.Binary(variable("X", 8), op.ShiftLeft, symex.Constant(1, 8))
		e := r.Own()
		e.Resize(32, false)
		if s := e.String(); s != "__ucast((X:8<<0x1), 0x20)" {
			t.Fatalf("unexpected string: %s", s)
		}
	})

	t.Run("SharedOperand", func(t *testing.T) {
		x := variable("X", 8)
		r := symex.Binary(x.Share(), op.BitwiseXor, variable("Y", 8))
		r.Own().Resize(32, false)
		if e := x.Get(); !e.IsVariable() || e.Size() != 8 {
			t.Fatalf("shared operand modified: %s", e)
		}
	})
}

func TestExpr_Resize_Postcondition(t *testing.T) {
	builders := map[string]func() symex.Ref{
		"Constant": func() symex.Ref { return symex.Constant(0x1234, 16) },
		"Variable": func() symex.Ref { return variable("X", 16) },
		"And":      func() symex.Ref { return symex.Binary(variable("X", 16), op.BitwiseAnd, variable("Y", 16)) },
		"Add":      func() symex.Ref { return symex.Binary(variable("X", 16), op.Add, symex.Constant(1, 16)) },
		"Not":      func() symex.Ref { return symex.Unary(op.BitwiseNot, variable("X", 16)) },
		"UCast":    func() symex.Ref { return symex.Cast(variable("X", 8), 16, false) },
		"Cast":     func() symex.Ref { return symex.Cast(variable("X", 8), 16, true) },
		"Truncate": func() symex.Ref { return symex.Cast(variable("X", 32), 16, true) },
		"Equal":    func() symex.Ref { return symex.Binary(variable("X", 16), op.Equal, variable("Y", 16)) },
		"Rotate":   func() symex.Ref { return symex.Binary(variable("X", 16), op.RotateLeft, symex.Constant(3, 8)) },
		"Popcnt":   func() symex.Ref { return symex.Unary(op.Popcnt, variable("X", 16)) },
		"ValueIf": func() symex.Ref {
			c := symex.Binary(variable("A", 16), op.ULess, variable("B", 16))
			return symex.Binary(c, op.ValueIf, variable("X", 16))
		},
	}

	for name, build := range builders {
		for _, size := range []uint{1, 8, 16, 32, 64} {
			for _, signed := range []bool{false, true} {
				r := build()
				e := r.Own()
				e.Resize(size, signed)
				if e.Size() != size {
					t.Fatalf("%s: resize(%d, %v): unexpected size %d: %s", name, size, signed, e.Size(), e)
				}

				hash, value := e.Hash(), e.Value()
				e.Resize(size, signed)
				if e.Hash() != hash || !e.Value().Equal(value) {
					t.Fatalf("%s: resize(%d, %v): not idempotent: %s", name, size, signed, e)
				}
			}
		}
	}
}

func TestExpr_Count(t *testing.T) {
	x := variable("X", 32)
	e := symex.Binary(x.Share(), op.Add, symex.Binary(x, op.Multiply, variable("Y", 32))).Get()

	if n := e.CountUniqueVariables(nil); n != 2 {
		t.Fatalf("unexpected unique variables: %d", n)
	} else if n := e.CountVariables(); n != 3 {
		t.Fatalf("unexpected variables: %d", n)
	} else if n := e.CountConstants(); n != 0 {
		t.Fatalf("unexpected constants: %d", n)
	}

	t.Run("Seen", func(t *testing.T) {
		set := symex.NewVariableSet()
		set.Add(symex.NewIdentifier("X"))
		if n := e.CountUniqueVariables(set); n != 1 {
			t.Fatalf("unexpected unique variables: %d", n)
		} else if set.Len() != 2 {
			t.Fatalf("unexpected set size: %d", set.Len())
		}
	})

	t.Run("Constants", func(t *testing.T) {
		e := symex.Cast(symex.Binary(variable("X", 8), op.Add, symex.Constant(1, 8)), 16, false).Get()
		if n := e.CountConstants(); n != 2 {
			t.Fatalf("unexpected constants: %d", n)
		}
	})
}

func TestExpr_String(t *testing.T) {
	for _, tt := range []struct {
		name string
		r    symex.Ref
		want string
	}{
		{"Constant", symex.Constant(5, 32), "0x5"},
		{"Negative", symex.Constant(0xFF, 8), "-0x1"},
		{"Variable", variable("rax", 64), "rax:64"},
		{"Unary", symex.Unary(op.BitwiseNot, variable("X", 8)), "~X:8"},
		{"UnaryCall", symex.Unary(op.Popcnt, variable("X", 8)), "__popcnt(X:8)"},
		{"Binary", symex.Binary(variable("X", 8), op.BitwiseAnd, symex.Constant(0xF, 8)), "(X:8&0xf)"},
		{"BinaryCall", symex.Binary(variable("X", 8), op.UMaxValue, variable("Y", 8)), "umax(X:8, Y:8)"},
		{"Null", symex.Ref{}, "NULL"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if s := tt.r.String(); s != tt.want {
				t.Fatalf("unexpected string: %s", s)
			}
		})
	}
}

func TestInspect(t *testing.T) {
	x := variable("X", 32)
	e := symex.Binary(x.Share(), op.Add, symex.Binary(x, op.Multiply, variable("Y", 32))).Get()

	var names []string
	symex.Inspect(e, func(e *symex.Expr) bool {
		if e.IsExpression() {
			names = append(names, e.Op().String())
		} else {
			names = append(names, e.String())
		}
		return e.Op() != op.Multiply
	})
	if diff := cmp.Diff(names, []string{"add", "X:32", "mul"}); diff != "" {
		t.Fatal(diff)
	}
}

func TestVariableSet(t *testing.T) {
	s := symex.NewVariableSet()
	if !s.Add(symex.NewIdentifier("rcx")) {
		t.Fatal("expected insert")
	} else if !s.Add(symex.NewIdentifier("rax")) {
		t.Fatal("expected insert")
	} else if s.Add(symex.NewIdentifier("rcx")) {
		t.Fatal("expected duplicate")
	} else if !s.Contains(symex.NewIdentifier("rax")) {
		t.Fatal("expected rax")
	} else if s.Len() != 2 {
		t.Fatalf("unexpected len: %d", s.Len())
	}

	other := s.Clone()
	other.Add(symex.NewIdentifier("rbx"))
	if s.Contains(symex.NewIdentifier("rbx")) {
		t.Fatal("unexpected rbx in original")
	}

	var names []string
	for _, id := range other.Identifiers() {
		names = append(names, id.Name())
	}
	if diff := cmp.Diff(names, []string{"rax", "rbx", "rcx"}); diff != "" {
		t.Fatal(diff)
	}
}

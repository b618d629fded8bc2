// Package op describes the operators that may appear in a symbolic expression.
package op

import (
	"fmt"
)

// ID identifies an operator.
type ID uint8

// Operators.
const (
	Invalid = ID(iota)

	bitwise_op_begin
	BitwiseNot
	BitwiseAnd
	BitwiseOr
	BitwiseXor
	ShiftRight
	ShiftLeft
	RotateRight
	RotateLeft
	bitwise_op_end

	arithmetic_op_begin
	Negate
	Add
	Subtract
	MultiplyHigh
	Multiply
	Divide
	Remainder
	UMultiplyHigh
	UMultiply
	UDivide
	URemainder
	arithmetic_op_end

	UCast
	Cast
	Popcnt
	BitscanFwd
	BitscanRev
	BitTest
	Mask
	BitCount
	ValueIf
	MaxValue
	MinValue
	UMaxValue
	UMinValue

	compare_op_begin
	Greater
	GreaterEq
	Equal
	NotEqual
	LessEq
	Less
	UGreater
	UGreaterEq
	ULessEq
	ULess
	compare_op_end

	maxID
)

// Class groups operators by how a change of result width is pushed through them.
type Class uint8

// Operator classes.
const (
	ClassOther = Class(iota)
	ClassUnsigned
	ClassSigned
	ClassUnsignedCast
	ClassSignedCast
	ClassConditional
	ClassCompare
)

// Extension describes how operand widths are reconciled with the result width.
type Extension uint8

// Operand extensions.
const (
	ExtendNone = Extension(iota)
	ExtendZero
	ExtendSign
)

// Hints describing whether an operator is strictly bitwise or strictly arithmetic.
const (
	HintArithmetic = -1
	HintNeither    = 0
	HintBitwise    = +1
)

// Descriptor describes a single operator.
type Descriptor struct {
	Name        string // function-style name
	Symbol      string // infix or prefix symbol, empty if rendered as a call
	Operands    int
	Commutative bool
	HintBitwise int
	Class       Class
	Extend      Extension
}

// Format renders an application of the operator. The lhs is ignored for unary operators.
func (d *Descriptor) Format(lhs, rhs string) string {
	switch {
	case d.Operands == 1 && d.Symbol != "":
		return d.Symbol + rhs
	case d.Operands == 1:
		return fmt.Sprintf("%s(%s)", d.Name, rhs)
	case d.Symbol != "":
		return fmt.Sprintf("(%s%s%s)", lhs, d.Symbol, rhs)
	default:
		return fmt.Sprintf("%s(%s, %s)", d.Name, lhs, rhs)
	}
}

var descriptors = [...]Descriptor{
	BitwiseNot:  {Name: "not", Symbol: "~", Operands: 1, HintBitwise: HintBitwise, Class: ClassUnsigned},
	BitwiseAnd:  {Name: "and", Symbol: "&", Operands: 2, Commutative: true, HintBitwise: HintBitwise, Class: ClassUnsigned, Extend: ExtendZero},
	BitwiseOr:   {Name: "or", Symbol: "|", Operands: 2, Commutative: true, HintBitwise: HintBitwise, Class: ClassUnsigned, Extend: ExtendZero},
	BitwiseXor:  {Name: "xor", Symbol: "^", Operands: 2, Commutative: true, HintBitwise: HintBitwise, Class: ClassUnsigned, Extend: ExtendZero},
	ShiftRight:  {Name: "shr", Symbol: ">>", Operands: 2, HintBitwise: HintBitwise},
	ShiftLeft:   {Name: "shl", Symbol: "<<", Operands: 2, HintBitwise: HintBitwise},
	RotateRight: {Name: "__rotr", Operands: 2, HintBitwise: HintBitwise},
	RotateLeft:  {Name: "__rotl", Operands: 2, HintBitwise: HintBitwise},

	Negate:        {Name: "neg", Symbol: "-", Operands: 1, HintBitwise: HintArithmetic, Class: ClassSigned},
	Add:           {Name: "add", Symbol: "+", Operands: 2, Commutative: true, HintBitwise: HintArithmetic, Class: ClassSigned, Extend: ExtendSign},
	Subtract:      {Name: "sub", Symbol: "-", Operands: 2, HintBitwise: HintArithmetic, Class: ClassSigned, Extend: ExtendSign},
	MultiplyHigh:  {Name: "mulhi", Symbol: "h*", Operands: 2, Commutative: true, HintBitwise: HintArithmetic, Extend: ExtendSign},
	Multiply:      {Name: "mul", Symbol: "*", Operands: 2, Commutative: true, HintBitwise: HintArithmetic, Class: ClassSigned, Extend: ExtendSign},
	Divide:        {Name: "div", Symbol: "/", Operands: 2, HintBitwise: HintArithmetic, Class: ClassSigned, Extend: ExtendSign},
	Remainder:     {Name: "rem", Symbol: "%", Operands: 2, HintBitwise: HintArithmetic, Class: ClassSigned, Extend: ExtendSign},
	UMultiplyHigh: {Name: "umulhi", Symbol: "uh*", Operands: 2, Commutative: true, HintBitwise: HintArithmetic, Extend: ExtendZero},
	UMultiply:     {Name: "umul", Symbol: "u*", Operands: 2, Commutative: true, HintBitwise: HintArithmetic, Class: ClassUnsigned, Extend: ExtendZero},
	UDivide:       {Name: "udiv", Symbol: "u/", Operands: 2, HintBitwise: HintArithmetic, Class: ClassUnsigned, Extend: ExtendZero},
	URemainder:    {Name: "urem", Symbol: "u%", Operands: 2, HintBitwise: HintArithmetic, Class: ClassUnsigned, Extend: ExtendZero},

	UCast:      {Name: "__ucast", Operands: 2, Class: ClassUnsignedCast},
	Cast:       {Name: "__cast", Operands: 2, Class: ClassSignedCast},
	Popcnt:     {Name: "__popcnt", Operands: 1, HintBitwise: HintBitwise},
	BitscanFwd: {Name: "__bsf", Operands: 1, HintBitwise: HintBitwise},
	BitscanRev: {Name: "__bsr", Operands: 1, HintBitwise: HintBitwise},
	BitTest:    {Name: "__bt", Operands: 2, HintBitwise: HintBitwise, Class: ClassCompare},
	Mask:       {Name: "__mask", Operands: 1, HintBitwise: HintBitwise},
	BitCount:   {Name: "__bcnt", Operands: 1},
	ValueIf:    {Name: "__if", Symbol: "?", Operands: 2, Class: ClassConditional},
	MaxValue:   {Name: "max", Operands: 2, Commutative: true, Class: ClassSigned, Extend: ExtendSign},
	MinValue:   {Name: "min", Operands: 2, Commutative: true, Class: ClassSigned, Extend: ExtendSign},
	UMaxValue:  {Name: "umax", Operands: 2, Commutative: true, Class: ClassUnsigned, Extend: ExtendZero},
	UMinValue:  {Name: "umin", Operands: 2, Commutative: true, Class: ClassUnsigned, Extend: ExtendZero},

	Greater:    {Name: "gt", Symbol: ">", Operands: 2, Class: ClassCompare},
	GreaterEq:  {Name: "ge", Symbol: ">=", Operands: 2, Class: ClassCompare},
	Equal:      {Name: "eq", Symbol: "==", Operands: 2, Commutative: true, Class: ClassCompare},
	NotEqual:   {Name: "ne", Symbol: "!=", Operands: 2, Commutative: true, Class: ClassCompare},
	LessEq:     {Name: "le", Symbol: "<=", Operands: 2, Class: ClassCompare},
	Less:       {Name: "lt", Symbol: "<", Operands: 2, Class: ClassCompare},
	UGreater:   {Name: "ugt", Symbol: "u>", Operands: 2, Class: ClassCompare},
	UGreaterEq: {Name: "uge", Symbol: "u>=", Operands: 2, Class: ClassCompare},
	ULessEq:    {Name: "ule", Symbol: "u<=", Operands: 2, Class: ClassCompare},
	ULess:      {Name: "ult", Symbol: "u<", Operands: 2, Class: ClassCompare},
	maxID:      {},
}

// Lookup returns the descriptor of id. Panics if id is not a valid operator.
func Lookup(id ID) *Descriptor {
	if !id.IsValid() {
		panic(fmt.Sprintf("op: no descriptor for %s", id))
	}
	return &descriptors[id]
}

// IsValid returns true if id names an operator.
func (id ID) IsValid() bool {
	return id < maxID && descriptors[id].Operands != 0
}

// String returns the name of the operator.
func (id ID) String() string {
	if id.IsValid() {
		return descriptors[id].Name
	}
	return fmt.Sprintf("ID<%d>", id)
}

// IsBitwise returns true if id is a strictly bitwise operator.
func (id ID) IsBitwise() bool {
	return id > bitwise_op_begin && id < bitwise_op_end
}

// IsArithmetic returns true if id is a strictly arithmetic operator.
func (id ID) IsArithmetic() bool {
	return id > arithmetic_op_begin && id < arithmetic_op_end
}

// IsCompare returns true if id is a comparison operator.
func (id ID) IsCompare() bool {
	return id > compare_op_begin && id < compare_op_end
}

// IsCast returns true if id is one of the two cast operators.
func (id ID) IsCast() bool {
	return id == UCast || id == Cast
}

// IsSigned returns true if id interprets its operands as signed integers.
func (id ID) IsSigned() bool {
	switch id {
	case Negate, Add, Subtract, MultiplyHigh, Multiply, Divide, Remainder, Cast,
		MaxValue, MinValue, Greater, GreaterEq, LessEq, Less:
		return true
	default:
		return false
	}
}

// All returns every valid operator in declaration order.
func All() []ID {
	a := make([]ID, 0, maxID)
	for id := ID(0); id < maxID; id++ {
		if id.IsValid() {
			a = append(a, id)
		}
	}
	return a
}

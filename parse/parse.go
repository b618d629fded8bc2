// Package parse reads expressions written in Go syntax.
//
// Identifiers are variables and integer literals are constants. Operators
// without a Go spelling are written as calls, e.g. udiv(x, 3) or
// ucast(x, 16). Comparisons produce single bit results.
package parse

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"

	"github.com/pkg/errors"
	"golang.org/x/tools/go/ast/astutil"

	symex "github.com/jilvan1234/VTIL-SymEx"
	"github.com/jilvan1234/VTIL-SymEx/bitvec"
	"github.com/jilvan1234/VTIL-SymEx/op"
)

// Parse errors.
var (
	ErrUnsupported = errors.New("unsupported expression")
	ErrArity       = errors.New("wrong number of arguments")
	ErrWidth       = errors.New("invalid width")
)

// DefaultWidth is the width of variables and literals when none is configured.
const DefaultWidth = symex.Width64

// Config controls the widths assigned to variables and literals.
type Config struct {
	// Width of variables not listed in Widths and of literals whose width
	// cannot be inferred from the other operand.
	DefaultWidth uint

	// Widths of individual variables.
	Widths map[string]uint
}

// Parse returns the expression tree for src.
func Parse(src string, config Config) (symex.Ref, error) {
	if config.DefaultWidth == 0 {
		config.DefaultWidth = DefaultWidth
	}
	if !validWidth(config.DefaultWidth) {
		return symex.Ref{}, errors.Wrapf(ErrWidth, "default width %d", config.DefaultWidth)
	}
	for name, w := range config.Widths {
		if !validWidth(w) {
			return symex.Ref{}, errors.Wrapf(ErrWidth, "variable %s: width %d", name, w)
		}
	}

	node, err := parser.ParseExpr(src)
	if err != nil {
		return symex.Ref{}, errors.Wrapf(err, "cannot parse %q", src)
	}
	p := &exprParser{config: config}
	return p.expr(node, 0)
}

// functions maps call names to the operators they apply.
var functions = map[string]op.ID{
	"udiv":   op.UDivide,
	"urem":   op.URemainder,
	"umul":   op.UMultiply,
	"mulhi":  op.MultiplyHigh,
	"umulhi": op.UMultiplyHigh,
	"rotl":   op.RotateLeft,
	"rotr":   op.RotateRight,
	"popcnt": op.Popcnt,
	"bsf":    op.BitscanFwd,
	"bsr":    op.BitscanRev,
	"bt":     op.BitTest,
	"mask":   op.Mask,
	"bcnt":   op.BitCount,
	"ite":    op.ValueIf,
	"min":    op.MinValue,
	"max":    op.MaxValue,
	"umin":   op.UMinValue,
	"umax":   op.UMaxValue,
	"ult":    op.ULess,
	"ule":    op.ULessEq,
	"ugt":    op.UGreater,
	"uge":    op.UGreaterEq,
	"ucast":  op.UCast,
	"cast":   op.Cast,
}

var binaryOps = map[token.Token]op.ID{
	token.ADD:  op.Add,
	token.SUB:  op.Subtract,
	token.MUL:  op.Multiply,
	token.QUO:  op.Divide,
	token.REM:  op.Remainder,
	token.AND:  op.BitwiseAnd,
	token.OR:   op.BitwiseOr,
	token.XOR:  op.BitwiseXor,
	token.SHL:  op.ShiftLeft,
	token.SHR:  op.ShiftRight,
	token.LAND: op.BitwiseAnd,
	token.LOR:  op.BitwiseOr,
	token.EQL:  op.Equal,
	token.NEQ:  op.NotEqual,
	token.LSS:  op.Less,
	token.LEQ:  op.LessEq,
	token.GTR:  op.Greater,
	token.GEQ:  op.GreaterEq,
}

type exprParser struct {
	config Config
}

// expr converts node into an expression. Literals take the width hint, or the
// default width if hint is zero.
func (p *exprParser) expr(node ast.Expr, hint uint) (symex.Ref, error) {
	switch node := astutil.Unparen(node).(type) {
	case *ast.BasicLit:
		return p.literal(node, hint, false)
	case *ast.Ident:
		return p.ident(node), nil
	case *ast.UnaryExpr:
		return p.unary(node, hint)
	case *ast.BinaryExpr:
		return p.binary(node, hint)
	case *ast.CallExpr:
		return p.call(node, hint)
	default:
		return symex.Ref{}, errors.Wrapf(ErrUnsupported, "%T at offset %d", node, node.Pos()-1)
	}
}

func (p *exprParser) literal(node *ast.BasicLit, hint uint, negate bool) (symex.Ref, error) {
	if node.Kind != token.INT {
		return symex.Ref{}, errors.Wrapf(ErrUnsupported, "literal %s", node.Value)
	}
	v, err := strconv.ParseUint(node.Value, 0, 64)
	if err != nil {
		return symex.Ref{}, errors.Wrapf(err, "literal %s", node.Value)
	}
	if negate {
		v = -v
	}
	return symex.Constant(v, p.width(hint)), nil
}

func (p *exprParser) ident(node *ast.Ident) symex.Ref {
	switch node.Name {
	case "true":
		return symex.Constant(1, symex.WidthBool)
	case "false":
		return symex.Constant(0, symex.WidthBool)
	}
	w, ok := p.config.Widths[node.Name]
	if !ok {
		w = p.config.DefaultWidth
	}
	return symex.Variable(symex.NewIdentifier(node.Name), w)
}

func (p *exprParser) unary(node *ast.UnaryExpr, hint uint) (symex.Ref, error) {
	if lit, ok := astutil.Unparen(node.X).(*ast.BasicLit); ok && node.Op == token.SUB {
		return p.literal(lit, hint, true)
	}

	x, err := p.expr(node.X, hint)
	if err != nil {
		return symex.Ref{}, err
	}
	switch node.Op {
	case token.ADD:
		return x, nil
	case token.SUB:
		return symex.Unary(op.Negate, x), nil
	case token.XOR:
		return symex.Unary(op.BitwiseNot, x), nil
	case token.NOT:
		zero := symex.Constant(0, x.Get().Size())
		return symex.Binary(x, op.Equal, zero), nil
	default:
		x.Release()
		return symex.Ref{}, errors.Wrapf(ErrUnsupported, "unary operator %s", node.Op)
	}
}

func (p *exprParser) binary(node *ast.BinaryExpr, hint uint) (symex.Ref, error) {
	if node.Op == token.AND_NOT {
		lhs, rhs, err := p.operands(node.X, node.Y, hint)
		if err != nil {
			return symex.Ref{}, err
		}
		return symex.Binary(lhs, op.BitwiseAnd, symex.Unary(op.BitwiseNot, rhs)), nil
	}

	id, ok := binaryOps[node.Op]
	if !ok {
		return symex.Ref{}, errors.Wrapf(ErrUnsupported, "binary operator %s", node.Op)
	}
	if id.IsCompare() {
		hint = 0
	}
	lhs, rhs, err := p.operands(node.X, node.Y, hint)
	if err != nil {
		return symex.Ref{}, err
	}
	return symex.Binary(lhs, id, rhs), nil
}

// operands converts a pair of operands. A literal takes the width of the
// other operand.
func (p *exprParser) operands(x, y ast.Expr, hint uint) (lhs, rhs symex.Ref, err error) {
	if isLiteral(x) && !isLiteral(y) {
		if rhs, err = p.expr(y, hint); err != nil {
			return lhs, rhs, err
		}
		if lhs, err = p.expr(x, rhs.Get().Size()); err != nil {
			rhs.Release()
		}
		return lhs, rhs, err
	}

	if lhs, err = p.expr(x, hint); err != nil {
		return lhs, rhs, err
	}
	if rhs, err = p.expr(y, lhs.Get().Size()); err != nil {
		lhs.Release()
	}
	return lhs, rhs, err
}

func (p *exprParser) call(node *ast.CallExpr, hint uint) (symex.Ref, error) {
	fn, ok := node.Fun.(*ast.Ident)
	if !ok {
		return symex.Ref{}, errors.Wrapf(ErrUnsupported, "call at offset %d", node.Pos()-1)
	}
	id, ok := functions[fn.Name]
	if !ok {
		return symex.Ref{}, errors.Wrapf(ErrUnsupported, "function %s", fn.Name)
	}
	desc := op.Lookup(id)
	if len(node.Args) != desc.Operands {
		return symex.Ref{}, errors.Wrapf(ErrArity, "%s: got %d, want %d", fn.Name, len(node.Args), desc.Operands)
	}

	switch {
	case desc.Operands == 1:
		x, err := p.expr(node.Args[0], hint)
		if err != nil {
			return symex.Ref{}, err
		}
		return symex.Unary(id, x), nil

	case id.IsCast():
		w, err := castWidth(node.Args[1])
		if err != nil {
			return symex.Ref{}, errors.Wrap(err, fn.Name)
		}
		x, err := p.expr(node.Args[0], 0)
		if err != nil {
			return symex.Ref{}, err
		}
		return symex.Cast(x, w, id == op.Cast), nil

	case id == op.ValueIf:
		c, err := p.expr(node.Args[0], symex.WidthBool)
		if err != nil {
			return symex.Ref{}, err
		}
		v, err := p.expr(node.Args[1], hint)
		if err != nil {
			c.Release()
			return symex.Ref{}, err
		}
		return symex.Binary(c, id, v), nil

	default:
		if id.IsCompare() {
			hint = 0
		}
		lhs, rhs, err := p.operands(node.Args[0], node.Args[1], hint)
		if err != nil {
			return symex.Ref{}, err
		}
		return symex.Binary(lhs, id, rhs), nil
	}
}

// width returns hint or the default width if hint is zero.
func (p *exprParser) width(hint uint) uint {
	if hint == 0 {
		return p.config.DefaultWidth
	}
	return hint
}

// castWidth returns the width named by the second argument of a cast.
func castWidth(node ast.Expr) (uint, error) {
	lit, ok := astutil.Unparen(node).(*ast.BasicLit)
	if !ok || lit.Kind != token.INT {
		return 0, errors.Wrap(ErrWidth, "width must be an integer literal")
	}
	w, err := strconv.ParseUint(lit.Value, 0, 8)
	if err != nil || !validWidth(uint(w)) {
		return 0, errors.Wrapf(ErrWidth, "width %s", lit.Value)
	}
	return uint(w), nil
}

func isLiteral(node ast.Expr) bool {
	switch node := astutil.Unparen(node).(type) {
	case *ast.BasicLit:
		return true
	case *ast.UnaryExpr:
		return node.Op == token.SUB && isLiteral(node.X)
	default:
		return false
	}
}

func validWidth(w uint) bool {
	return w > 0 && w <= bitvec.MaxSize
}

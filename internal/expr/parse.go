package expr

import (
	"go/ast"
	"go/parser"
	"go/token"
	"regexp"
	"strconv"

	"github.com/pkg/errors"
)

// Scope declares the sorts of the program variables an expression may use.
type Scope map[string]Sort

var primed = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_]*)'`)

// Parse reads a formula written in Go expression syntax. A primed
// identifier x' (or next(x)) denotes the successor copy of x and is only
// accepted when allowNext is set.
func Parse(src string, scope Scope, allowNext bool) (Expr, error) {
	rewritten := primed.ReplaceAllString(src, "next($1)")
	node, err := parser.ParseExpr(rewritten)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %q", src)
	}
	p := &exprParser{scope: scope, allowNext: allowNext}
	e, err := p.build(node)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %q", src)
	}
	return e, nil
}

// ParseFormula is Parse for boolean-valued expressions.
func ParseFormula(src string, scope Scope, allowNext bool) (Expr, error) {
	e, err := Parse(src, scope, allowNext)
	if err != nil {
		return nil, err
	}
	if e.Sort() != Bool {
		return nil, errors.Errorf("parse %q: expected a bool formula, got %s", src, e.Sort())
	}
	return e, nil
}

type exprParser struct {
	scope     Scope
	allowNext bool
}

// untypedInt marks integer literals whose sort is fixed by the other operand.
type untypedInt struct {
	*Const
}

func (p *exprParser) build(node ast.Expr) (Expr, error) {
	e, err := p.term(node)
	if err != nil {
		return nil, err
	}
	if u, ok := e.(untypedInt); ok {
		return u.Const, nil
	}
	return e, nil
}

func (p *exprParser) term(node ast.Expr) (Expr, error) {
	switch n := node.(type) {
	case *ast.ParenExpr:
		return p.term(n.X)
	case *ast.BasicLit:
		if n.Kind != token.INT {
			return nil, errors.Errorf("unsupported literal %s", n.Value)
		}
		v, err := strconv.ParseInt(n.Value, 0, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "literal %s", n.Value)
		}
		return untypedInt{NewInt(v)}, nil
	case *ast.Ident:
		switch n.Name {
		case "true":
			return True, nil
		case "false":
			return False, nil
		}
		return p.variable(n.Name, 0)
	case *ast.CallExpr:
		fn, ok := n.Fun.(*ast.Ident)
		if !ok || fn.Name != "next" || len(n.Args) != 1 {
			return nil, errors.New("only next(x) calls are supported")
		}
		arg, ok := n.Args[0].(*ast.Ident)
		if !ok {
			return nil, errors.New("next expects a variable")
		}
		if !p.allowNext {
			return nil, errors.Errorf("successor variable %s' not allowed here", arg.Name)
		}
		return p.variable(arg.Name, 1)
	case *ast.UnaryExpr:
		x, err := p.term(n.X)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case token.NOT:
			if x.Sort() != Bool {
				return nil, errors.Errorf("operator ! not defined on %s", x.Sort())
			}
			return Not(x), nil
		case token.SUB:
			if u, ok := x.(untypedInt); ok {
				return untypedInt{NewInt(-u.Value)}, nil
			}
			if x.Sort() == Bool {
				return nil, errors.New("operator - not defined on bool")
			}
			return Neg(x), nil
		case token.ADD:
			return x, nil
		}
		return nil, errors.Errorf("unsupported unary operator %s", n.Op)
	case *ast.BinaryExpr:
		return p.binary(n)
	}
	return nil, errors.Errorf("unsupported expression %T", node)
}

func (p *exprParser) variable(name string, index int) (Expr, error) {
	sort, ok := p.scope[name]
	if !ok {
		return nil, errors.Errorf("undeclared variable %s", name)
	}
	return Var{Name: name, Type: sort, Index: index}, nil
}

var binaryOps = map[token.Token]Op{
	token.LAND: OpAnd,
	token.LOR:  OpOr,
	token.EQL:  OpEq,
	token.NEQ:  OpNe,
	token.LSS:  OpLt,
	token.LEQ:  OpLe,
	token.GTR:  OpGt,
	token.GEQ:  OpGe,
	token.ADD:  OpAdd,
	token.SUB:  OpSub,
	token.MUL:  OpMul,
	token.QUO:  OpDiv,
	token.REM:  OpRem,
	token.AND:  OpBitAnd,
	token.OR:   OpBitOr,
	token.XOR:  OpBitXor,
}

func (p *exprParser) binary(n *ast.BinaryExpr) (Expr, error) {
	op, ok := binaryOps[n.Op]
	if !ok {
		return nil, errors.Errorf("unsupported operator %s", n.Op)
	}
	x, err := p.term(n.X)
	if err != nil {
		return nil, err
	}
	y, err := p.term(n.Y)
	if err != nil {
		return nil, err
	}
	ux, xUntyped := x.(untypedInt)
	uy, yUntyped := y.(untypedInt)
	if xUntyped && yUntyped {
		v, err := evalBinary(op, ux.Const, uy.Const)
		if err != nil {
			return nil, err
		}
		if v.Type == Int {
			return untypedInt{v}, nil
		}
		return v, nil
	}
	if xUntyped {
		x = convertLiteral(ux, y.Sort())
	}
	if yUntyped {
		y = convertLiteral(uy, x.Sort())
	}
	xs, ys := x.Sort(), y.Sort()
	if xs != ys {
		return nil, errors.Errorf("mismatched sorts %s %s %s", xs, n.Op, ys)
	}
	switch op {
	case OpAnd, OpOr:
		if xs != Bool {
			return nil, errors.Errorf("operator %s not defined on %s", n.Op, xs)
		}
	case OpEq, OpNe:
	case OpBitAnd, OpBitOr, OpBitXor:
		if xs.Kind != KindBitVec {
			return nil, errors.Errorf("operator %s not defined on %s", n.Op, xs)
		}
	default:
		if xs == Bool {
			return nil, errors.Errorf("operator %s not defined on bool", n.Op)
		}
	}
	return NewBinary(op, x, y), nil
}

func convertLiteral(u untypedInt, target Sort) Expr {
	if target.Kind == KindBitVec {
		return NewBitVecConst(u.Value, target.Width)
	}
	return u.Const
}

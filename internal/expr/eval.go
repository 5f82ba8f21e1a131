package expr

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Assignment maps variables to constant values.
type Assignment map[Var]*Const

// Vars returns the assigned variables in a stable order.
func (a Assignment) Vars() []Var {
	vars := make([]Var, 0, len(a))
	for v := range a {
		vars = append(vars, v)
	}
	SortVars(vars)
	return vars
}

// Cube returns the conjunction of v == value over every assigned variable.
func (a Assignment) Cube() Expr {
	vars := a.Vars()
	lits := make([]Expr, len(vars))
	for i, v := range vars {
		lits[i] = Eq(v, a[v])
	}
	return And(lits...)
}

func (a Assignment) String() string {
	vars := a.Vars()
	parts := make([]string, len(vars))
	for i, v := range vars {
		parts[i] = fmt.Sprintf("%s=%s", v, a[v])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// CubeAssignment recovers the assignment of a cube built by Assignment.Cube.
// It returns false if e is not a conjunction of variable/constant equalities.
func CubeAssignment(e Expr) (Assignment, bool) {
	a := make(Assignment)
	for _, lit := range Conjuncts(e) {
		b, ok := lit.(*Binary)
		if !ok || b.Op != OpEq {
			return nil, false
		}
		v, okv := b.X.(Var)
		c, okc := b.Y.(*Const)
		if !okv || !okc {
			return nil, false
		}
		a[v] = c
	}
	return a, true
}

// ErrUnassigned is returned by Eval when a variable has no value.
var ErrUnassigned = errors.New("unassigned variable")

// Eval computes the value of e under a.
func Eval(e Expr, a Assignment) (*Const, error) {
	switch e := e.(type) {
	case Var:
		c, ok := a[e]
		if !ok {
			return nil, errors.Wrap(ErrUnassigned, e.String())
		}
		return c, nil
	case *Const:
		return e, nil
	case *Unary:
		x, err := Eval(e.X, a)
		if err != nil {
			return nil, err
		}
		if e.Op == OpNot {
			return NewBool(x.Value == 0), nil
		}
		if x.Type.Kind == KindBitVec {
			return NewBitVecConst(-x.Value, x.Type.Width), nil
		}
		return NewInt(-x.Value), nil
	case *Binary:
		x, err := Eval(e.X, a)
		if err != nil {
			return nil, err
		}
		if e.Op == OpImplies && x.Value == 0 {
			return True, nil
		}
		y, err := Eval(e.Y, a)
		if err != nil {
			return nil, err
		}
		return evalBinary(e.Op, x, y)
	case *Nary:
		for _, arg := range e.Args {
			v, err := Eval(arg, a)
			if err != nil {
				return nil, err
			}
			if e.Op == OpAnd && v.Value == 0 {
				return False, nil
			}
			if e.Op == OpOr && v.Value != 0 {
				return True, nil
			}
		}
		return NewBool(e.Op == OpAnd), nil
	}
	return nil, errors.Errorf("eval: unexpected expression type %T", e)
}

func evalBinary(op Op, x, y *Const) (*Const, error) {
	if op.IsCompare() {
		return NewBool(compare(op, x, y)), nil
	}
	switch op {
	case OpImplies:
		return NewBool(x.Value == 0 || y.Value != 0), nil
	case OpAnd:
		return NewBool(x.Value != 0 && y.Value != 0), nil
	case OpOr:
		return NewBool(x.Value != 0 || y.Value != 0), nil
	}
	var v int64
	if x.Type.Kind == KindBitVec {
		ux, uy := uint64(x.Value), uint64(y.Value)
		switch op {
		case OpAdd:
			v = int64(ux + uy)
		case OpSub:
			v = int64(ux - uy)
		case OpMul:
			v = int64(ux * uy)
		case OpDiv:
			if uy == 0 {
				// SMT-LIB: bvudiv by zero is all ones.
				v = -1
			} else {
				v = int64(ux / uy)
			}
		case OpRem:
			if uy == 0 {
				v = int64(ux)
			} else {
				v = int64(ux % uy)
			}
		case OpBitAnd:
			v = int64(ux & uy)
		case OpBitOr:
			v = int64(ux | uy)
		case OpBitXor:
			v = int64(ux ^ uy)
		default:
			return nil, errors.Errorf("eval: operator %s not defined on %s", op, x.Type)
		}
		return NewBitVecConst(v, x.Type.Width), nil
	}
	switch op {
	case OpAdd:
		v = x.Value + y.Value
	case OpSub:
		v = x.Value - y.Value
	case OpMul:
		v = x.Value * y.Value
	case OpDiv, OpRem:
		if y.Value == 0 {
			return nil, errors.New("eval: integer division by zero")
		}
		// Euclidean division, matching the solver's div/mod.
		q := x.Value / y.Value
		r := x.Value % y.Value
		if r < 0 {
			if y.Value > 0 {
				q--
				r += y.Value
			} else {
				q++
				r -= y.Value
			}
		}
		if op == OpDiv {
			v = q
		} else {
			v = r
		}
	default:
		return nil, errors.Errorf("eval: operator %s not defined on %s", op, x.Type)
	}
	return NewInt(v), nil
}

func compare(op Op, x, y *Const) bool {
	if op == OpEq {
		return x.Value == y.Value
	}
	if op == OpNe {
		return x.Value != y.Value
	}
	var c int
	if x.Type.Kind == KindBitVec {
		ux, uy := uint64(x.Value), uint64(y.Value)
		switch {
		case ux < uy:
			c = -1
		case ux > uy:
			c = 1
		}
	} else {
		switch {
		case x.Value < y.Value:
			c = -1
		case x.Value > y.Value:
			c = 1
		}
	}
	switch op {
	case OpLt:
		return c < 0
	case OpLe:
		return c <= 0
	case OpGt:
		return c > 0
	}
	return c >= 0
}

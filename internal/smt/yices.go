package smt

import (
	"fmt"

	"pdrcheck/internal/expr"

	yices2 "github.com/ianamason/yices2_go_bindings/yices_api"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Yices is an Engine backed by the yices2 library. yices2.Init must have
// been called before use and yices2.Exit invalidates every term it created.
type Yices struct {
	terms   map[expr.Var]yices2.TermT
	queries int
}

// NewYices returns an engine with an empty variable table.
func NewYices() *Yices {
	return &Yices{
		terms: make(map[expr.Var]yices2.TermT),
	}
}

// Queries returns the number of satisfiability checks issued so far.
func (y *Yices) Queries() int {
	return y.queries
}

func (y *Yices) IsUnsat(fs ...expr.Expr) (bool, error) {
	s, err := y.newSolver()
	if err != nil {
		return false, err
	}
	defer s.Close()
	if err := s.assert(fs); err != nil {
		return false, err
	}
	sat, err := s.Check()
	if err != nil {
		return false, err
	}
	return !sat, nil
}

func (y *Yices) NewProver() (Prover, error) {
	return y.newSolver()
}

func (y *Yices) variable(v expr.Var) (yices2.TermT, error) {
	if term, ok := y.terms[v]; ok {
		return term, nil
	}
	tau, err := typeOf(v.Type)
	if err != nil {
		return 0, err
	}
	term := yices2.NewUninterpretedTerm(tau)
	if term < 0 {
		return 0, errors.Errorf("declare %s: %s", v, yices2.ErrorString())
	}
	if errcode := yices2.SetTermName(term, v.String()); errcode < 0 {
		log.Debugf("set term name %s: %s", v, yices2.ErrorString())
	}
	y.terms[v] = term
	return term, nil
}

func typeOf(sort expr.Sort) (yices2.TypeT, error) {
	switch sort.Kind {
	case expr.KindBool:
		return yices2.BoolType(), nil
	case expr.KindInt:
		return yices2.IntType(), nil
	case expr.KindBitVec:
		return yices2.BvType(sort.Width), nil
	}
	return 0, errors.Errorf("unsupported sort %s", sort)
}

// encode lowers e to a yices2 term.
func (y *Yices) encode(e expr.Expr) (yices2.TermT, error) {
	var term yices2.TermT
	switch e := e.(type) {
	case expr.Var:
		return y.variable(e)
	case *expr.Const:
		term = constant(e)
	case *expr.Unary:
		x, err := y.encode(e.X)
		if err != nil {
			return 0, err
		}
		switch {
		case e.Op == expr.OpNot:
			term = yices2.Not(x)
		case e.X.Sort().Kind == expr.KindBitVec:
			term = yices2.Bvneg(x)
		default:
			term = yices2.Neg(x)
		}
	case *expr.Nary:
		args, err := y.encodeAll(e.Args)
		if err != nil {
			return 0, err
		}
		if e.Op == expr.OpAnd {
			term = yices2.And(args)
		} else {
			term = yices2.Or(args)
		}
	case *expr.Binary:
		x, err := y.encode(e.X)
		if err != nil {
			return 0, err
		}
		rhs, err := y.encode(e.Y)
		if err != nil {
			return 0, err
		}
		switch e.X.Sort().Kind {
		case expr.KindBool:
			term, err = boolean(e.Op, x, rhs)
		case expr.KindBitVec:
			term, err = bitvector(e.Op, x, rhs)
		default:
			term, err = arithmetic(e.Op, x, rhs)
		}
		if err != nil {
			return 0, errors.Wrap(err, e.String())
		}
	default:
		return 0, errors.Errorf("encode: unexpected expression type %T", e)
	}
	if term < 0 {
		return 0, errors.Errorf("encode %s: %s", e, yices2.ErrorString())
	}
	return term, nil
}

func (y *Yices) encodeAll(es []expr.Expr) ([]yices2.TermT, error) {
	terms := make([]yices2.TermT, len(es))
	for i := range es {
		term, err := y.encode(es[i])
		if err != nil {
			return nil, err
		}
		terms[i] = term
	}
	return terms, nil
}

func constant(c *expr.Const) yices2.TermT {
	switch c.Type.Kind {
	case expr.KindBool:
		if c.Value != 0 {
			return yices2.True()
		}
		return yices2.False()
	case expr.KindBitVec:
		return yices2.BvconstUint64(c.Type.Width, uint64(c.Value))
	}
	return yices2.Int64(c.Value)
}

func arithmetic(op expr.Op, x, y yices2.TermT) (yices2.TermT, error) {
	switch op {
	case expr.OpEq:
		return yices2.ArithEqAtom(x, y), nil
	case expr.OpNe:
		return yices2.ArithNeqAtom(x, y), nil
	case expr.OpLt:
		return yices2.ArithLtAtom(x, y), nil
	case expr.OpLe:
		return yices2.ArithLeqAtom(x, y), nil
	case expr.OpGt:
		return yices2.ArithGtAtom(x, y), nil
	case expr.OpGe:
		return yices2.ArithGeqAtom(x, y), nil
	case expr.OpAdd:
		return yices2.Add(x, y), nil
	case expr.OpSub:
		return yices2.Sub(x, y), nil
	case expr.OpMul:
		return yices2.Mul(x, y), nil
	case expr.OpDiv:
		return yices2.Idiv(x, y), nil
	case expr.OpRem:
		return yices2.Imod(x, y), nil
	}
	return 0, fmt.Errorf("operator %s not defined on int", op)
}

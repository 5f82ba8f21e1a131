package smt

import (
	"pdrcheck/internal/expr"

	yices2 "github.com/ianamason/yices2_go_bindings/yices_api"
	"github.com/pkg/errors"
)

// Solver is a yices2 context implementing Prover.
type Solver struct {
	engine *Yices
	ctx    yices2.ContextT
	depth  int
	sat    bool
	closed bool
}

func (y *Yices) newSolver() (*Solver, error) {
	s := &Solver{
		engine: y,
		ctx:    yices2.ContextT{},
	}
	var cfg yices2.ConfigT
	yices2.InitConfig(&cfg)
	yices2.InitContext(cfg, &s.ctx)
	yices2.CloseConfig(&cfg)
	return s, nil
}

func (s *Solver) Push(fs ...expr.Expr) error {
	if s.closed {
		return ErrClosed
	}
	if errcode := yices2.Push(s.ctx); errcode < 0 {
		return errors.Errorf("push: %s", yices2.ErrorString())
	}
	s.depth++
	s.sat = false
	return s.assert(fs)
}

func (s *Solver) Pop() error {
	if s.closed {
		return ErrClosed
	}
	if s.depth == 0 {
		return errors.New("pop: no open scope")
	}
	if errcode := yices2.Pop(s.ctx); errcode < 0 {
		return errors.Errorf("pop: %s", yices2.ErrorString())
	}
	s.depth--
	s.sat = false
	return nil
}

func (s *Solver) assert(fs []expr.Expr) error {
	if len(fs) == 0 {
		return nil
	}
	terms, err := s.engine.encodeAll(fs)
	if err != nil {
		return err
	}
	if errcode := yices2.AssertFormulas(s.ctx, terms); errcode < 0 {
		return errors.Errorf("assert: %s", yices2.ErrorString())
	}
	return nil
}

func (s *Solver) Check() (bool, error) {
	if s.closed {
		return false, ErrClosed
	}
	s.engine.queries++
	status := yices2.CheckContext(s.ctx, yices2.ParamT{})
	switch status {
	case yices2.StatusSat:
		s.sat = true
		return true, nil
	case yices2.StatusUnsat:
		s.sat = false
		return false, nil
	case yices2.StatusError:
		return false, errors.Errorf("check: %s", yices2.ErrorString())
	}
	return false, errors.Wrapf(ErrUnknown, "status %d", status)
}

func (s *Solver) Model(vars []expr.Var) (*Model, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if !s.sat {
		return nil, ErrNoModel
	}
	model := yices2.GetModel(s.ctx, 1)
	if model == nil {
		return nil, errors.Errorf("get model: %s", yices2.ErrorString())
	}
	defer yices2.CloseModel(model)

	values := make(expr.Assignment, len(vars))
	for _, v := range vars {
		term, ok := s.engine.terms[v]
		if !ok {
			continue
		}
		var (
			value *expr.Const
			read  bool
		)
		switch v.Type.Kind {
		case expr.KindBool:
			var b bool
			if b, read = boolValue(model, term); read {
				value = expr.NewBool(b)
			}
		case expr.KindBitVec:
			var n int64
			if n, read = bitVecValue(model, term, v.Type.Width); read {
				value = expr.NewBitVecConst(n, v.Type.Width)
			}
		default:
			var n int64
			if n, read = intValue(model, term); read {
				value = expr.NewInt(n)
			}
		}
		if !read {
			if err := unreadable(v); err != nil {
				return nil, err
			}
			continue
		}
		values[v] = value
	}
	return NewModel(values), nil
}

// unreadable classifies a failed value lookup. Terms absent from the model
// are skipped; anything else, such as an integer outside int64, is an error.
func unreadable(v expr.Var) error {
	if yices2.ErrorCode() == yices2.ErrorEvalUnknownTerm {
		return nil
	}
	return errors.Errorf("value of %s: %s", v, yices2.ErrorString())
}

// Close releases the context. It is safe to call more than once.
func (s *Solver) Close() {
	if s.closed {
		return
	}
	s.closed = true
	yices2.CloseContext(&s.ctx)
}

package pdr

import (
	"pdrcheck/internal/block"
	"pdrcheck/internal/cfa"
	"pdrcheck/internal/expr"
	"pdrcheck/internal/predicate"
	"pdrcheck/internal/smt"

	log "github.com/sirupsen/logrus"
)

// ConsecutionResult is the outcome of a consecution query. On success
// Formula is a generalization of the bad state that may be blocked; on
// failure it is a predecessor state (the CTI) that reaches the bad state.
type ConsecutionResult struct {
	Success bool
	Formula expr.Expr
}

// Oracle answers the relative induction queries of the search. It only
// reads the frame set.
type Oracle struct {
	engine     smt.Engine
	frames     *FrameSet
	blocks     *block.Abstraction
	precision  predicate.Provider
	vars       []expr.Var
	generalize bool
	queries    int
}

func NewOracle(engine smt.Engine, frames *FrameSet, blocks *block.Abstraction, precision predicate.Provider, vars []expr.Var, generalize bool) *Oracle {
	return &Oracle{
		engine:     engine,
		frames:     frames,
		blocks:     blocks,
		precision:  precision,
		vars:       vars,
		generalize: generalize,
	}
}

// Queries returns the number of satisfiability checks issued.
func (o *Oracle) Queries() int {
	return o.queries
}

// Consecution checks whether bad, at the successor of b, is unreachable
// from Frame(level, b.Pred) in one step of b.
func (o *Oracle) Consecution(level int, b block.Block, bad expr.Expr) (ConsecutionResult, error) {
	prover, err := o.engine.NewProver()
	if err != nil {
		return ConsecutionResult{}, solverFault(err, "consecution")
	}
	defer prover.Close()

	if err := prover.Push(o.frames.Frame(level, b.Pred), b.Formula); err != nil {
		return ConsecutionResult{}, solverFault(err, "consecution")
	}
	sat, err := o.check(prover, expr.Shift(bad, 1))
	if err != nil {
		return ConsecutionResult{}, solverFault(err, "consecution at level %d", level)
	}
	if sat {
		cti, err := o.cube(prover)
		if err != nil {
			return ConsecutionResult{}, err
		}
		return ConsecutionResult{Success: false, Formula: cti}, nil
	}
	if !o.generalize {
		return ConsecutionResult{Success: true, Formula: bad}, nil
	}
	g, err := o.generalizeBlocked(prover, b.Succ, bad)
	if err != nil {
		return ConsecutionResult{}, solverFault(err, "generalize at level %d", level)
	}
	return ConsecutionResult{Success: true, Formula: g}, nil
}

// CTI returns a state in the top frame at b.Pred from which b can be taken,
// if there is one.
func (o *Oracle) CTI(b block.Block) (expr.Expr, bool, error) {
	prover, err := o.engine.NewProver()
	if err != nil {
		return nil, false, solverFault(err, "cti")
	}
	defer prover.Close()

	sat, err := o.check(prover, o.frames.Frame(o.frames.MaxLevel(), b.Pred), b.Formula)
	if err != nil {
		return nil, false, solverFault(err, "cti")
	}
	if !sat {
		return nil, false, nil
	}
	cti, err := o.cube(prover)
	if err != nil {
		return nil, false, err
	}
	return cti, true, nil
}

// Inductive reports whether f holds after every step of b taken from
// Frame(level, b.Pred).
func (o *Oracle) Inductive(level int, b block.Block, f expr.Expr) (bool, error) {
	o.queries++
	unsat, err := o.engine.IsUnsat(o.frames.Frame(level, b.Pred), b.Formula, expr.Shift(expr.Not(f), 1))
	if err != nil {
		return false, solverFault(err, "inductive at level %d", level)
	}
	return unsat, nil
}

// Blocked reports whether state is unreachable at loc in one step from the
// frames at level.
func (o *Oracle) Blocked(level int, loc cfa.Location, state expr.Expr) (bool, error) {
	if loc == o.frames.start {
		return false, nil
	}
	for _, b := range o.blocks.BlocksEndingAt(loc) {
		ok, err := o.Inductive(level, b, expr.Not(state))
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func (o *Oracle) check(prover smt.Prover, fs ...expr.Expr) (bool, error) {
	if err := prover.Push(fs...); err != nil {
		return false, err
	}
	o.queries++
	return prover.Check()
}

// cube returns the predecessor state of the last model.
func (o *Oracle) cube(prover smt.Prover) (expr.Expr, error) {
	model, err := prover.Model(o.vars)
	if err != nil {
		return nil, solverFault(err, "model")
	}
	return model.Cube(0), nil
}

// generalizeBlocked widens a blocked state. The state is first abstracted
// to the predicates at loc it implies, then literals are dropped one at a
// time while the result stays blocked. The prover holds the frame and the
// block with the bad state on top.
func (o *Oracle) generalizeBlocked(prover smt.Prover, loc cfa.Location, bad expr.Expr) (expr.Expr, error) {
	if err := prover.Pop(); err != nil {
		return nil, err
	}
	lits, err := o.abstract(loc, bad)
	if err != nil {
		return nil, err
	}
	ok, err := o.blocked(prover, expr.And(lits...))
	if err != nil {
		return nil, err
	}
	if !ok {
		log.Debugf("abstraction of %s is not blocked", bad)
		return bad, nil
	}
	for i := 0; i < len(lits); {
		candidate := make([]expr.Expr, 0, len(lits)-1)
		candidate = append(candidate, lits[:i]...)
		candidate = append(candidate, lits[i+1:]...)
		ok, err := o.blocked(prover, expr.And(candidate...))
		if err != nil {
			return nil, err
		}
		if ok {
			lits = candidate
			continue
		}
		i++
	}
	return expr.And(lits...), nil
}

func (o *Oracle) blocked(prover smt.Prover, state expr.Expr) (bool, error) {
	sat, err := o.check(prover, expr.Shift(state, 1))
	if err != nil {
		return false, err
	}
	return !sat, prover.Pop()
}

// abstract returns the predicate literals at loc implied by state. Cubes
// are evaluated directly; the result is kept only if the solver confirms
// state implies it, since evaluation wraps where solver integers do not.
func (o *Oracle) abstract(loc cfa.Location, state expr.Expr) ([]expr.Expr, error) {
	var preds []expr.Expr
	for _, p := range o.precision.Predicates(loc) {
		if p.Sort() == expr.Bool {
			preds = append(preds, p)
		}
	}
	if assignment, isCube := expr.CubeAssignment(state); isCube {
		lits, err := o.evaluate(state, assignment, preds)
		if err != nil {
			return nil, err
		}
		o.queries++
		unsat, err := o.engine.IsUnsat(state, expr.Not(expr.And(lits...)))
		if err != nil {
			return nil, err
		}
		if unsat {
			return lits, nil
		}
		log.Debugf("evaluated abstraction of %s is not implied", state)
	}
	var lits []expr.Expr
	for _, p := range preds {
		lit, ok, err := o.implied(state, p)
		if err != nil {
			return nil, err
		}
		if ok {
			lits = append(lits, lit)
		}
	}
	return lits, nil
}

func (o *Oracle) evaluate(state expr.Expr, assignment expr.Assignment, preds []expr.Expr) ([]expr.Expr, error) {
	lits := make([]expr.Expr, 0, len(preds))
	for _, p := range preds {
		if v, err := expr.Eval(p, assignment); err == nil {
			if v.IsTrue() {
				lits = append(lits, p)
			} else {
				lits = append(lits, expr.Not(p))
			}
			continue
		}
		lit, ok, err := o.implied(state, p)
		if err != nil {
			return nil, err
		}
		if ok {
			lits = append(lits, lit)
		}
	}
	return lits, nil
}

// implied returns p or its negation if state implies it.
func (o *Oracle) implied(state, p expr.Expr) (expr.Expr, bool, error) {
	o.queries++
	unsat, err := o.engine.IsUnsat(state, expr.Not(p))
	if err != nil || unsat {
		return p, unsat, err
	}
	o.queries++
	unsat, err = o.engine.IsUnsat(state, p)
	if err != nil || unsat {
		return expr.Not(p), unsat, err
	}
	return nil, false, nil
}

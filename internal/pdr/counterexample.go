package pdr

import (
	"fmt"
	"strings"

	"pdrcheck/internal/block"
	"pdrcheck/internal/cfa"
	"pdrcheck/internal/expr"
	"pdrcheck/internal/reached"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Counterexample is a feasible path from the start location to an error
// location. States has one entry per location on the path, so it is one
// longer than Path.
type Counterexample struct {
	Path   []block.Block
	States []reached.State
}

func (c *Counterexample) String() string {
	var b strings.Builder
	for i, st := range c.States {
		fmt.Fprintf(&b, "L%d %s\n", st.Location, st.Values)
		if i < len(c.Path) {
			fmt.Fprintf(&b, "  %s\n", c.Path[i])
		}
	}
	return b.String()
}

// counterexample builds the error path from the terminal obligation at ref
// through its causes to the error location.
func (a *Algorithm) counterexample(obligations *arena, ref int, errLoc cfa.Location) (*Counterexample, error) {
	chain := obligations.chain(ref)
	locs := make([]cfa.Location, 0, len(chain)+1)
	for _, p := range chain {
		locs = append(locs, p.Location)
	}
	locs = append(locs, errLoc)
	return a.reconstruct(locs)
}

// spurious reports a path that the solver cannot follow.
func spurious(format string, args ...interface{}) error {
	err := errors.Wrapf(ErrSpuriousCounterexample, format, args...)
	log.Errorf("%v", err)
	return err
}

// reconstruct finds concrete states along locs. Each step may be taken by
// any block between the two locations, so the first query checks that the
// disjunction per step is feasible and the second adds one selector per
// candidate block to learn which one was taken.
func (a *Algorithm) reconstruct(locs []cfa.Location) (*Counterexample, error) {
	if len(locs) == 0 {
		return nil, spurious("empty path")
	}
	steps := len(locs) - 1
	candidates := make([][]block.Block, steps)
	for i := 0; i < steps; i++ {
		pred := locs[i]
		candidates[i] = a.blocks.BlocksEndingAtExcept(locs[i+1], func(loc cfa.Location) bool {
			return loc != pred
		})
		if len(candidates[i]) == 0 {
			return nil, spurious("no block from L%d to L%d", locs[i], locs[i+1])
		}
	}

	path := make([]expr.Expr, steps)
	for i, blocks := range candidates {
		options := make([]expr.Expr, len(blocks))
		for j, b := range blocks {
			options[j] = expr.Shift(b.Formula, i)
		}
		path[i] = expr.Or(options...)
	}
	a.stats.Queries++
	unsat, err := a.engine.IsUnsat(path...)
	if err != nil {
		return nil, solverFault(err, "path feasibility")
	}
	if unsat {
		return nil, spurious("path through %v is infeasible", locs)
	}

	var (
		branching []expr.Expr
		selectors = make([][]expr.Var, steps)
	)
	for i, blocks := range candidates {
		sels := make([]expr.Expr, len(blocks))
		for j, b := range blocks {
			s := expr.NewVar(fmt.Sprintf("__branch%d_%d", i, j), expr.Bool)
			selectors[i] = append(selectors[i], s)
			sels[j] = s
			branching = append(branching, expr.Implies(s, expr.Shift(b.Formula, i)))
			for k := 0; k < j; k++ {
				branching = append(branching, expr.Not(expr.And(sels[k], s)))
			}
		}
		branching = append(branching, expr.Or(sels...))
	}

	prover, err := a.engine.NewProver()
	if err != nil {
		return nil, solverFault(err, "reconstruction")
	}
	defer prover.Close()
	if err := prover.Push(branching...); err != nil {
		return nil, solverFault(err, "reconstruction")
	}
	a.stats.Queries++
	sat, err := prover.Check()
	if err != nil {
		return nil, solverFault(err, "reconstruction")
	}
	if !sat {
		return nil, spurious("branching over %v is infeasible", locs)
	}

	vars := make([]expr.Var, 0)
	for _, sels := range selectors {
		vars = append(vars, sels...)
	}
	for i := 0; i <= steps; i++ {
		for _, v := range a.vars {
			vars = append(vars, v.At(i))
		}
	}
	model, err := prover.Model(vars)
	if err != nil {
		return nil, solverFault(err, "reconstruction model")
	}

	cex := &Counterexample{
		Path:   make([]block.Block, steps),
		States: make([]reached.State, len(locs)),
	}
	for i, sels := range selectors {
		chosen := -1
		for j, s := range sels {
			if v, ok := model.Value(s); ok && v.IsTrue() {
				chosen = j
				break
			}
		}
		if chosen < 0 {
			return nil, spurious("no block selected at step %d", i)
		}
		cex.Path[i] = candidates[i][chosen]
	}
	for i, loc := range locs {
		values := make(expr.Assignment)
		for _, v := range a.vars {
			if c, ok := model.Value(v.At(i)); ok {
				values[v] = c
			}
		}
		cex.States[i] = reached.State{Location: loc, Values: values}
	}
	return cex, nil
}

// Package pdr implements property-directed reachability over a control-flow
// automaton. Frames over-approximate the states reachable at each location
// within a bounded number of steps; bad states are blocked backwards until
// two adjacent frames coincide or a path from the start location is found.
package pdr

import (
	"context"
	"time"

	"pdrcheck/internal/block"
	"pdrcheck/internal/cfa"
	"pdrcheck/internal/expr"
	"pdrcheck/internal/predicate"
	"pdrcheck/internal/reached"
	"pdrcheck/internal/smt"
	"pdrcheck/internal/strategy"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type Verdict int

const (
	VerdictUnknown Verdict = iota
	VerdictSafe
	VerdictUnsafe
)

func (v Verdict) String() string {
	switch v {
	case VerdictSafe:
		return "SAFE"
	case VerdictUnsafe:
		return "UNSAFE"
	}
	return "UNKNOWN"
}

// Options tune the search.
type Options struct {
	// MaxLevel bounds the number of frames; 0 means unbounded.
	MaxLevel int
	// SearchOrder selects the obligation queue, see strategy.New.
	SearchOrder string
	// Generalize widens blocked states before they become lemmas.
	Generalize bool
}

func DefaultOptions() Options {
	return Options{
		SearchOrder: strategy.OrderLevel,
		Generalize:  true,
	}
}

type Stats struct {
	Queries     int
	Obligations int
	Lemmas      int
	Levels      int
	Elapsed     time.Duration
}

type Result struct {
	Verdict        Verdict
	Counterexample *Counterexample
	Stats          Stats
}

type Algorithm struct {
	engine    smt.Engine
	cfa       *cfa.CFA
	blocks    *block.Abstraction
	precision predicate.Provider
	reached   *reached.Set
	opts      Options
	vars      []expr.Var

	frames *FrameSet
	oracle *Oracle
	stats  Stats

	onPop func(obligations *arena, ref int)
}

// NewAlgorithm checks that every collaborator is present and the options
// are valid.
func NewAlgorithm(engine smt.Engine, c *cfa.CFA, blocks *block.Abstraction, precision predicate.Provider, reachedSet *reached.Set, opts Options) (*Algorithm, error) {
	switch {
	case engine == nil:
		return nil, errors.Wrap(ErrConfiguration, "no formula engine")
	case c == nil:
		return nil, errors.Wrap(ErrConfiguration, "no cfa")
	case blocks == nil:
		return nil, errors.Wrap(ErrConfiguration, "no transition abstraction")
	case precision == nil:
		return nil, errors.Wrap(ErrConfiguration, "no predicate precision")
	case reachedSet == nil:
		return nil, errors.Wrap(ErrConfiguration, "no reached set")
	case opts.MaxLevel < 0:
		return nil, errors.Wrapf(ErrConfiguration, "negative level bound %d", opts.MaxLevel)
	}
	if err := c.Validate(); err != nil {
		return nil, errors.Wrapf(ErrConfiguration, "%v", err)
	}
	if _, err := strategy.New(opts.SearchOrder); err != nil {
		return nil, errors.Wrapf(ErrConfiguration, "%v", err)
	}
	return &Algorithm{
		engine:    engine,
		cfa:       c,
		blocks:    blocks,
		precision: precision,
		reached:   reachedSet,
		opts:      opts,
		vars:      programVars(c, blocks),
	}, nil
}

func programVars(c *cfa.CFA, blocks *block.Abstraction) []expr.Var {
	seen := make(map[expr.Var]struct{})
	var vars []expr.Var
	for _, v := range append(append([]expr.Var(nil), c.Vars()...), blocks.Vars()...) {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			vars = append(vars, v)
		}
	}
	expr.SortVars(vars)
	return vars
}

// Frames returns the frame set of the last run.
func (a *Algorithm) Frames() *FrameSet {
	return a.frames
}

// Run searches for a path from the start location to an error location of
// the reached set. On Unsafe the trace states are added to the reached set.
func (a *Algorithm) Run(ctx context.Context) (*Result, error) {
	began := time.Now()
	a.stats = Stats{}
	a.frames = NewFrameSet(a.cfa.Start())
	a.oracle = NewOracle(a.engine, a.frames, a.blocks, a.precision, a.vars, a.opts.Generalize)

	result, err := a.run(ctx)
	a.stats.Queries += a.oracle.Queries()
	a.stats.Lemmas = a.frames.Size()
	a.stats.Levels = a.frames.MaxLevel()
	a.stats.Elapsed = time.Since(began)
	log.Debugf("pdr: %d queries, %d obligations, %d lemmas, %d levels in %v",
		a.stats.Queries, a.stats.Obligations, a.stats.Lemmas, a.stats.Levels, a.stats.Elapsed)
	if err != nil {
		return &Result{Verdict: VerdictUnknown, Stats: a.stats}, err
	}
	result.Stats = a.stats
	if result.Counterexample != nil {
		a.reached.AddTrace(result.Counterexample.States)
	}
	log.Infof("verdict %s", result.Verdict)
	return result, nil
}

func (a *Algorithm) run(ctx context.Context) (*Result, error) {
	start := a.cfa.Start()
	errorLocations := a.reached.ErrorLocations()
	if len(errorLocations) == 0 {
		log.Infof("no error locations")
		return &Result{Verdict: VerdictSafe}, nil
	}
	if a.reached.IsError(start) {
		log.Infof("start location is an error location")
		cex, err := a.reconstruct([]cfa.Location{start})
		if err != nil {
			return nil, err
		}
		return &Result{Verdict: VerdictUnsafe, Counterexample: cex}, nil
	}
	for _, errLoc := range errorLocations {
		for _, b := range a.blocks.BlocksEndingAt(errLoc) {
			if b.Pred != start {
				continue
			}
			a.stats.Queries++
			unsat, err := a.engine.IsUnsat(b.Formula)
			if err != nil {
				return nil, solverFault(err, "one step check")
			}
			if !unsat {
				log.Infof("error location L%d is reachable in one step", errLoc)
				cex, err := a.reconstruct([]cfa.Location{start, errLoc})
				if err != nil {
					return nil, err
				}
				return &Result{Verdict: VerdictUnsafe, Counterexample: cex}, nil
			}
		}
	}

	for {
		if err := checkCancelled(ctx); err != nil {
			return nil, err
		}
		a.frames.OpenNextFrameSet()
		level := a.frames.MaxLevel()
		if a.opts.MaxLevel > 0 && level > a.opts.MaxLevel {
			return nil, errors.Wrapf(ErrLevelBound, "no verdict within %d levels", a.opts.MaxLevel)
		}
		log.Infof("strengthening level %d", level)
		cex, err := a.strengthen(ctx, errorLocations)
		if err != nil {
			return nil, err
		}
		if cex != nil {
			return &Result{Verdict: VerdictUnsafe, Counterexample: cex}, nil
		}
		fixpoint, err := a.frames.Propagate(ctx, a.oracle)
		if err != nil {
			return nil, err
		}
		if fixpoint {
			log.Infof("fixpoint at level %d", level)
			return &Result{Verdict: VerdictSafe}, nil
		}
	}
}

// strengthen blocks, at the top frame, every state from which an error
// location is reachable in one step.
func (a *Algorithm) strengthen(ctx context.Context, errorLocations []cfa.Location) (*Counterexample, error) {
	level := a.frames.MaxLevel()
	for _, errLoc := range errorLocations {
		for _, b := range a.blocks.BlocksEndingAt(errLoc) {
			for {
				if err := checkCancelled(ctx); err != nil {
					return nil, err
				}
				cti, ok, err := a.oracle.CTI(b)
				if err != nil {
					return nil, err
				}
				if !ok {
					break
				}
				root := ProofObligation{Level: level, Location: b.Pred, State: cti, Cause: -1}
				obligations, ref, err := a.backwardBlock(ctx, root)
				if err != nil {
					return nil, err
				}
				if ref >= 0 {
					log.Infof("counterexample with %d obligations", obligations.size())
					return a.counterexample(obligations, ref, errLoc)
				}
			}
		}
	}
	return nil, nil
}

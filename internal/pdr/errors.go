package pdr

import (
	"context"

	"github.com/pkg/errors"
)

var (
	// ErrSolverFault is returned when the formula engine fails a query.
	ErrSolverFault = errors.New("solver fault")
	// ErrSpuriousCounterexample is returned when an error path found by the
	// backward search is infeasible or has no model.
	ErrSpuriousCounterexample = errors.New("spurious counterexample")
	// ErrCancelled is returned when the run context is done.
	ErrCancelled = errors.New("analysis cancelled")
	// ErrConfiguration is returned by NewAlgorithm for missing collaborators
	// or invalid options.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrLevelBound is returned when the frame level exceeds Options.MaxLevel
	// without a verdict.
	ErrLevelBound = errors.New("frame level bound reached")
)

func solverFault(err error, format string, args ...interface{}) error {
	return errors.Wrapf(ErrSolverFault, format+": %v", append(args, err)...)
}

func checkCancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrapf(ErrCancelled, "%v", err)
	}
	return nil
}

// Package smt is the formula engine: it decides satisfiability of expr
// formulas and extracts models, backed by the yices2 SMT solver.
package smt

import (
	"pdrcheck/internal/expr"

	"github.com/pkg/errors"
)

// Engine answers one-shot satisfiability queries and opens scoped provers.
type Engine interface {
	// IsUnsat reports whether the conjunction of fs is unsatisfiable.
	IsUnsat(fs ...expr.Expr) (bool, error)
	// NewProver opens a prover context. The caller must Close it.
	NewProver() (Prover, error)
}

// Prover is a solver context with stack discipline: every Push opens a
// scope that the matching Pop discards.
type Prover interface {
	Push(fs ...expr.Expr) error
	Pop() error
	// Check reports whether the asserted formulas are satisfiable.
	Check() (bool, error)
	// Model returns the values of vars in the last satisfying assignment.
	// Variables the model does not define are left out; a value that
	// cannot be represented is an error.
	Model(vars []expr.Var) (*Model, error)
	Close()
}

var (
	// ErrUnknown is returned when the solver answers neither sat nor unsat.
	ErrUnknown = errors.New("solver returned unknown")
	// ErrNoModel is returned by Model when the last check was not sat.
	ErrNoModel = errors.New("no model available")
	// ErrClosed is returned when a closed prover is used.
	ErrClosed = errors.New("prover is closed")
)

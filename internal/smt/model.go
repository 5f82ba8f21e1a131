package smt

import (
	"pdrcheck/internal/expr"
)

// Model is a satisfying assignment detached from the solver.
type Model struct {
	values expr.Assignment
}

func NewModel(values expr.Assignment) *Model {
	if values == nil {
		values = make(expr.Assignment)
	}
	return &Model{values: values}
}

// Value returns the value of v, if the model defines it.
func (m *Model) Value(v expr.Var) (*expr.Const, bool) {
	c, ok := m.values[v]
	return c, ok
}

// Vars returns the defined variables in a stable order.
func (m *Model) Vars() []expr.Var {
	return m.values.Vars()
}

// Restrict returns the values of the variables at index, moved to index 0.
func (m *Model) Restrict(index int) expr.Assignment {
	result := make(expr.Assignment)
	for v, c := range m.values {
		if v.Index == index {
			result[v.At(0)] = c
		}
	}
	return result
}

// Cube returns the conjunction of v == value for the variables at index,
// moved to index 0.
func (m *Model) Cube(index int) expr.Expr {
	return m.Restrict(index).Cube()
}

func (m *Model) String() string {
	return m.values.String()
}

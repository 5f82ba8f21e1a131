package predicate

import (
	"testing"

	"pdrcheck/internal/block"
	"pdrcheck/internal/cfa"
	"pdrcheck/internal/expr"

	"github.com/stretchr/testify/assert"
)

func predicateStrings(preds []expr.Expr) []string {
	result := make([]string, len(preds))
	for i, p := range preds {
		result[i] = p.String()
	}
	return result
}

func Test_FromBlocks(t *testing.T) {
	x := expr.NewVar("x", expr.Int)
	next := x.At(1)
	a := block.New(
		block.Block{Pred: 0, Succ: 1, Formula: expr.Eq(next, expr.NewInt(0))},
		block.Block{Pred: 1, Succ: 1, Formula: expr.And(expr.Lt(x, expr.NewInt(10)), expr.Eq(next, expr.Add(x, expr.NewInt(1))))},
		block.Block{Pred: 1, Succ: 2, Formula: expr.And(expr.Ge(x, expr.NewInt(10)), expr.Gt(x, expr.NewInt(10)))},
	)
	s := FromBlocks(a)
	assert.Equal(t,
		[]string{"(x == 0)", "(x < 10)", "(x >= 10)", "(x > 10)"},
		predicateStrings(s.Predicates(1)))
}

func Test_LocalPredicates(t *testing.T) {
	x := expr.NewVar("x", expr.Int)
	s := NewStatic()
	s.AddGlobal(expr.Lt(x, expr.NewInt(3)))
	s.Add(cfa.Location(4), expr.Le(x, expr.NewInt(10)), expr.Lt(x, expr.NewInt(3)))
	s.Add(cfa.Location(5))

	assert.Equal(t, []string{"(x < 3)", "(x <= 10)"}, predicateStrings(s.Predicates(4)))
	assert.Equal(t, []string{"(x < 3)"}, predicateStrings(s.Predicates(5)))
}

package block

import (
	"testing"

	"pdrcheck/internal/cfa"
	"pdrcheck/internal/expr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_FromCFA(t *testing.T) {
	c := cfa.New("loop")
	x := expr.NewVar("x", expr.Int)
	c.AddVar(x)
	start, _ := c.AddLocation("start", cfa.KindNormal)
	loop, _ := c.AddLocation("loop", cfa.KindNormal)
	errLoc, _ := c.AddLocation("error", cfa.KindError)
	require.NoError(t, c.SetStart(start))
	require.NoError(t, c.AddEdge(cfa.Edge{From: start, To: loop, Formula: expr.Eq(x.At(1), expr.NewInt(0))}))
	require.NoError(t, c.AddEdge(cfa.Edge{From: loop, To: loop, Label: "inc", Formula: expr.Eq(x.At(1), expr.Add(x, expr.NewInt(1)))}))
	require.NoError(t, c.AddEdge(cfa.Edge{From: loop, To: errLoc}))

	a := FromCFA(c)
	assert.Len(t, a.All(), 3)
	assert.Len(t, a.BlocksEndingAt(loop), 2)
	assert.Len(t, a.BlocksEndingAt(start), 0)
	assert.Len(t, a.BlocksFrom(loop), 2)

	others := a.BlocksEndingAtExcept(loop, func(pred cfa.Location) bool { return pred == loop })
	require.Len(t, others, 1)
	assert.Equal(t, start, others[0].Pred)

	toErr := a.BlocksEndingAt(errLoc)
	require.Len(t, toErr, 1)
	assert.Equal(t, expr.True, toErr[0].Formula)

	assert.Equal(t, []cfa.Location{start, loop, errLoc}, a.Locations())
	assert.Equal(t, []expr.Var{x}, a.Vars())
	assert.Equal(t, "L1 -> L1 [inc] (x' == (x + 1))", a.BlocksFrom(loop)[0].String())
}

func Test_AddEdgeValidation(t *testing.T) {
	c := cfa.New("bad")
	x := expr.NewVar("x", expr.Int)
	a, _ := c.AddLocation("a", cfa.KindNormal)
	_, err := c.AddLocation("a", cfa.KindNormal)
	assert.Error(t, err)
	assert.Error(t, c.AddEdge(cfa.Edge{From: a, To: 7}))
	assert.Error(t, c.AddEdge(cfa.Edge{From: a, To: a, Formula: x}))
	assert.Error(t, c.AddEdge(cfa.Edge{From: a, To: a, Formula: expr.Lt(x.At(2), expr.NewInt(1))}))
	assert.Error(t, c.Validate())
}

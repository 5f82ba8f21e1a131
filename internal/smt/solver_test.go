package smt

import (
	"testing"

	"pdrcheck/internal/expr"

	yices2 "github.com/ianamason/yices2_go_bindings/yices_api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_IsUnsat(t *testing.T) {
	yices2.Init()
	defer yices2.Exit()

	var (
		engine = NewYices()
		x      = expr.NewVar("x", expr.Int)
	)
	unsat, err := engine.IsUnsat(expr.Ge(x, expr.NewInt(10)), expr.Lt(x, expr.NewInt(10)))
	require.NoError(t, err)
	assert.True(t, unsat)

	unsat, err = engine.IsUnsat(expr.Ge(x, expr.NewInt(10)), expr.Gt(x, expr.NewInt(10)))
	require.NoError(t, err)
	assert.False(t, unsat)
	assert.Equal(t, 2, engine.Queries())
}

func Test_ProverPushPop(t *testing.T) {
	yices2.Init()
	defer yices2.Exit()

	var (
		engine = NewYices()
		x      = expr.NewVar("x", expr.Int)
		next   = x.At(1)
	)
	prover, err := engine.NewProver()
	require.NoError(t, err)
	defer prover.Close()

	require.NoError(t, prover.Push(expr.Lt(x, expr.NewInt(10)), expr.Eq(next, expr.Add(x, expr.NewInt(1)))))
	require.NoError(t, prover.Push(expr.Eq(next, expr.NewInt(10))))
	sat, err := prover.Check()
	require.NoError(t, err)
	require.True(t, sat)

	model, err := prover.Model([]expr.Var{x, next})
	require.NoError(t, err)
	assert.Equal(t, "(x == 9)", model.Cube(0).String())
	v, ok := model.Value(next)
	require.True(t, ok)
	assert.Equal(t, int64(10), v.Value)
	require.NoError(t, prover.Pop())

	require.NoError(t, prover.Push(expr.Gt(next, expr.NewInt(10))))
	sat, err = prover.Check()
	require.NoError(t, err)
	assert.False(t, sat)
	_, err = prover.Model([]expr.Var{x})
	assert.Equal(t, ErrNoModel, err)
	require.NoError(t, prover.Pop())
	require.NoError(t, prover.Pop())

	assert.Error(t, prover.Pop())
}

func Test_BitVecModel(t *testing.T) {
	yices2.Init()
	defer yices2.Exit()

	var (
		engine = NewYices()
		b      = expr.NewVar("b", expr.BitVec(8))
		ok     = expr.NewVar("ok", expr.Bool)
	)
	f, err := expr.ParseFormula("b + 1 == 0 && ok", expr.Scope{"b": expr.BitVec(8), "ok": expr.Bool}, false)
	require.NoError(t, err)

	prover, err := engine.NewProver()
	require.NoError(t, err)
	defer prover.Close()
	require.NoError(t, prover.Push(f))
	sat, err := prover.Check()
	require.NoError(t, err)
	require.True(t, sat)

	model, err := prover.Model([]expr.Var{b, ok, expr.NewVar("unused", expr.Int)})
	require.NoError(t, err)
	assert.Equal(t, "{b=255, ok=true}", model.String())
}

func Test_CloseTwice(t *testing.T) {
	yices2.Init()
	defer yices2.Exit()

	prover, err := NewYices().NewProver()
	require.NoError(t, err)
	prover.Close()
	prover.Close()
	_, err = prover.Check()
	assert.Equal(t, ErrClosed, err)
}

func Test_fromBits(t *testing.T) {
	assert.Equal(t, int64(0), fromBits([]int32{0, 0, 0}))
	assert.Equal(t, int64(5), fromBits([]int32{1, 0, 1, 0}))
	assert.Equal(t, int64(255), fromBits([]int32{1, 1, 1, 1, 1, 1, 1, 1}))
}

func Test_ModelOutOfRange(t *testing.T) {
	yices2.Init()
	defer yices2.Exit()

	var (
		engine = NewYices()
		x      = expr.NewVar("x", expr.Int)
		y      = expr.NewVar("y", expr.Int)
	)
	prover, err := engine.NewProver()
	require.NoError(t, err)
	defer prover.Close()
	require.NoError(t, prover.Push(
		expr.Eq(y, expr.NewInt(1<<62)),
		expr.Eq(x, expr.Mul(y, expr.NewInt(4))),
	))
	sat, err := prover.Check()
	require.NoError(t, err)
	require.True(t, sat)

	model, err := prover.Model([]expr.Var{y})
	require.NoError(t, err)
	assert.Equal(t, "(y == 4611686018427387904)", model.Cube(0).String())

	_, err = prover.Model([]expr.Var{x, y})
	assert.Error(t, err, "x does not fit in int64")
}

package pdr

import (
	"context"
	"testing"

	"pdrcheck/internal/cfa"
	"pdrcheck/internal/expr"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type checkerFunc func(level int, loc cfa.Location, state expr.Expr) (bool, error)

func (f checkerFunc) Blocked(level int, loc cfa.Location, state expr.Expr) (bool, error) {
	return f(level, loc, state)
}

func Test_FrameDefaults(t *testing.T) {
	fs := NewFrameSet(0)
	fs.OpenNextFrameSet()
	fs.OpenNextFrameSet()
	assert.Equal(t, 2, fs.MaxLevel())

	assert.Equal(t, expr.True, fs.Frame(0, 0))
	assert.Equal(t, expr.True, fs.Frame(2, 0))
	assert.Equal(t, expr.False, fs.Frame(0, 1))
	assert.Equal(t, expr.True, fs.Frame(1, 1))

	x := expr.NewVar("x", expr.Int)
	fs.BlockStates(expr.Gt(x, expr.NewInt(3)), 2, 0)
	assert.Equal(t, 0, fs.Size(), "start location must not be strengthened")
}

func Test_BlockStatesMonotonic(t *testing.T) {
	var (
		fs  = NewFrameSet(0)
		loc = cfa.Location(1)
		x   = expr.NewVar("x", expr.Int)
		bad = expr.Gt(x, expr.NewInt(10))
	)
	for i := 0; i < 4; i++ {
		fs.OpenNextFrameSet()
	}
	fs.BlockStates(bad, 3, loc)
	for level := 1; level <= 3; level++ {
		assert.Equal(t, "!(x > 10)", fs.Frame(level, loc).String(), "level %d", level)
	}
	assert.Equal(t, expr.True, fs.Frame(4, loc))

	fs.BlockStates(bad, 2, loc)
	lemmas := fs.Lemmas(loc)
	require.Len(t, lemmas, 1, spew.Sdump(lemmas))
	assert.Equal(t, 3, lemmas[0].Level)

	fs.BlockStates(bad, 4, loc)
	fs.BlockStates(expr.Lt(x, expr.NewInt(0)), 1, loc)
	assert.Equal(t, "(!(x < 0) && !(x > 10))", fs.Frame(1, loc).String())
	assert.Equal(t, "!(x > 10)", fs.Frame(2, loc).String())
	assert.Equal(t, "L1 [1] !(x < 0)\nL1 [4] !(x > 10)\n", fs.String())
}

func Test_PropagateFixpoint(t *testing.T) {
	var (
		fs = NewFrameSet(0)
		x  = expr.NewVar("x", expr.Int)
	)
	fs.OpenNextFrameSet()
	fs.OpenNextFrameSet()
	fs.OpenNextFrameSet()
	fs.BlockStates(expr.Gt(x, expr.NewInt(10)), 1, 1)
	fs.BlockStates(expr.Lt(x, expr.NewInt(0)), 1, 2)
	fs.BlockStates(expr.Eq(x, expr.NewInt(5)), 2, 2)

	var calls int
	never := checkerFunc(func(level int, loc cfa.Location, state expr.Expr) (bool, error) {
		calls++
		return false, nil
	})
	fixpoint, err := fs.Propagate(context.Background(), never)
	require.NoError(t, err)
	assert.False(t, fixpoint)
	assert.Equal(t, 3, calls)

	always := checkerFunc(func(level int, loc cfa.Location, state expr.Expr) (bool, error) {
		return true, nil
	})
	fixpoint, err = fs.Propagate(context.Background(), always)
	require.NoError(t, err)
	assert.True(t, fixpoint)
	for _, loc := range fs.Locations() {
		for _, l := range fs.Lemmas(loc) {
			assert.Equal(t, 3, l.Level, spew.Sdump(l))
		}
	}
}

func Test_PropagateErrors(t *testing.T) {
	fs := NewFrameSet(0)
	fs.OpenNextFrameSet()
	fs.OpenNextFrameSet()
	fs.BlockStates(expr.True, 1, 1)

	boom := errors.New("boom")
	failing := checkerFunc(func(level int, loc cfa.Location, state expr.Expr) (bool, error) {
		return false, boom
	})
	_, err := fs.Propagate(context.Background(), failing)
	assert.Equal(t, boom, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = fs.Propagate(ctx, failing)
	assert.Equal(t, ErrCancelled, errors.Cause(err))
}

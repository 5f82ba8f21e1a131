package pdr

import (
	"context"
	"math"
	"testing"
	"time"

	"pdrcheck/internal/block"
	"pdrcheck/internal/cfa"
	"pdrcheck/internal/expr"
	"pdrcheck/internal/predicate"
	"pdrcheck/internal/smt"

	yices2 "github.com/ianamason/yices2_go_bindings/yices_api"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ObligationOrdering(t *testing.T) {
	yices2.Init()
	defer yices2.Exit()

	edges := append(append([]edge(nil), loopEdges...), edge{"loop", "error", "x == 5 && x' == x"})
	c, rs := buildCFA(t, []expr.Var{varX}, []string{"start", "loop", "error"}, []string{"error"}, edges)
	alg := newAlgorithm(t, smt.NewYices(), c, rs, DefaultOptions())

	var popped int
	alg.onPop = func(obligations *arena, ref int) {
		popped++
		p := obligations.get(ref)
		if p.Cause >= 0 {
			assert.Equal(t, obligations.get(p.Cause).Level-1, p.Level, "obligation %s", p)
		}
		for i := 0; i < obligations.size(); i++ {
			if q := obligations.get(i); q.Cause == ref {
				assert.Less(t, q.Level, p.Level)
			}
		}
	}
	result, err := alg.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, VerdictUnsafe, result.Verdict)
	assert.Equal(t, popped, result.Stats.Obligations)
	assert.Greater(t, popped, 6)
}

func Test_TwoPredecessors(t *testing.T) {
	yices2.Init()
	defer yices2.Exit()

	c, rs := buildCFA(t, []expr.Var{varX},
		[]string{"start", "a", "b", "join", "error"}, []string{"error"},
		[]edge{
			{"start", "a", "x' == 1"},
			{"start", "b", "x' == 2"},
			{"a", "join", "x' == x + 3"},
			{"b", "join", "x' == x"},
			{"join", "error", "x == 5 && x' == x"},
		})
	alg := newAlgorithm(t, smt.NewYices(), c, rs, DefaultOptions())
	join, _ := c.Lookup("join")

	var pops []bool
	alg.onPop = func(obligations *arena, ref int) {
		p := obligations.get(ref)
		if p.Location != join || p.Level != 2 {
			return
		}
		var resolved bool
		for _, l := range alg.Frames().Lemmas(join) {
			resolved = resolved || l.Level >= 2
		}
		pops = append(pops, resolved)
	}
	result, err := alg.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, VerdictSafe, result.Verdict)

	require.GreaterOrEqual(t, len(pops), 2, "join must be revisited after its predecessors are blocked")
	for i, resolved := range pops {
		assert.False(t, resolved, "pop %d", i)
	}
	assert.Equal(t, "(x == 5)", alg.Frames().Lemmas(join)[0].State.String())
	assert.GreaterOrEqual(t, alg.Frames().Lemmas(join)[0].Level, 2)
}

func Test_CTI(t *testing.T) {
	yices2.Init()
	defer yices2.Exit()

	engine := smt.NewYices()
	next := varX.At(1)
	blocks := block.New(
		block.Block{Pred: 1, Succ: 2, Formula: expr.And(expr.Gt(varX, expr.NewInt(10)), expr.Eq(next, expr.Sub(varX, expr.NewInt(1))))},
		block.Block{Pred: 1, Succ: 2, Formula: expr.And(expr.Gt(varX, expr.NewInt(10)), expr.Lt(varX, expr.NewInt(5)))},
	)
	frames := NewFrameSet(0)
	frames.OpenNextFrameSet()
	oracle := NewOracle(engine, frames, blocks, predicate.NewStatic(), []expr.Var{varX}, true)

	b := blocks.All()[0]
	cti, ok, err := oracle.CTI(b)
	require.NoError(t, err)
	require.True(t, ok)
	values, isCube := expr.CubeAssignment(cti)
	require.True(t, isCube, cti.String())
	assert.Greater(t, values[varX].Value, int64(10))

	unsat, err := engine.IsUnsat(cti, b.Formula)
	require.NoError(t, err)
	assert.False(t, unsat)

	_, ok, err = oracle.CTI(blocks.All()[1])
	require.NoError(t, err)
	assert.False(t, ok)

	frames.BlockStates(expr.Gt(varX, expr.NewInt(10)), 1, 1)
	_, ok, err = oracle.CTI(b)
	require.NoError(t, err)
	assert.False(t, ok)
}

func Test_Consecution(t *testing.T) {
	yices2.Init()
	defer yices2.Exit()

	var (
		engine = smt.NewYices()
		next   = varX.At(1)
		inc    = block.Block{Pred: 1, Succ: 1, Formula: expr.And(expr.Lt(varX, expr.NewInt(10)), expr.Eq(next, expr.Add(varX, expr.NewInt(1))))}
		blocks = block.New(inc)
		bad    = expr.Eq(varX, expr.NewInt(12))
		frames = NewFrameSet(0)
	)
	precision := predicate.NewStatic()
	precision.AddGlobal(expr.Lt(varX, expr.NewInt(10)), expr.Gt(varX, expr.NewInt(10)))
	frames.OpenNextFrameSet()
	frames.OpenNextFrameSet()

	oracle := NewOracle(engine, frames, blocks, precision, []expr.Var{varX}, true)
	res, err := oracle.Consecution(1, inc, bad)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "(x > 10)", res.Formula.String())

	plain := NewOracle(engine, frames, blocks, precision, []expr.Var{varX}, false)
	res, err = plain.Consecution(1, inc, bad)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, bad, res.Formula)

	res, err = oracle.Consecution(1, inc, expr.Eq(varX, expr.NewInt(7)))
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "(x == 6)", res.Formula.String())

	ok, err := oracle.Blocked(1, 1, bad)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = oracle.Blocked(1, 0, bad)
	require.NoError(t, err)
	assert.False(t, ok, "the start location is never blocked")
}

func Test_AbstractionNearOverflow(t *testing.T) {
	yices2.Init()
	defer yices2.Exit()

	var (
		engine = smt.NewYices()
		grows  = expr.Gt(expr.Add(varX, expr.NewInt(1)), varX)
		state  = expr.Eq(varX, expr.NewInt(math.MaxInt64))
	)
	precision := predicate.NewStatic()
	precision.AddGlobal(grows)
	oracle := NewOracle(engine, NewFrameSet(0), block.New(), precision, []expr.Var{varX}, true)

	lits, err := oracle.abstract(1, state)
	require.NoError(t, err)
	require.Len(t, lits, 1)
	assert.Equal(t, grows.String(), lits[0].String())

	unsat, err := engine.IsUnsat(state, expr.Not(expr.And(lits...)))
	require.NoError(t, err)
	assert.True(t, unsat, "the abstraction must contain the state")
}

func Test_Cancellation(t *testing.T) {
	yices2.Init()
	defer yices2.Exit()

	edges := append(append([]edge(nil), loopEdges...), edge{"loop", "error", "x >= 10 && x > 10"})
	c, rs := buildCFA(t, []expr.Var{varX}, []string{"start", "loop", "error"}, []string{"error"}, edges)
	alg := newAlgorithm(t, smt.NewYices(), c, rs, DefaultOptions())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := alg.Run(ctx)
	assert.Equal(t, ErrCancelled, errors.Cause(err))
	assert.Equal(t, VerdictUnknown, result.Verdict)

	ctx, cancel = context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)
	_, err = alg.Run(ctx)
	assert.Equal(t, ErrCancelled, errors.Cause(err))
}

func Test_LevelBound(t *testing.T) {
	yices2.Init()
	defer yices2.Exit()

	edges := append(append([]edge(nil), loopEdges...), edge{"loop", "error", "x >= 10 && x > 10"})
	c, rs := buildCFA(t, []expr.Var{varX}, []string{"start", "loop", "error"}, []string{"error"}, edges)
	opts := DefaultOptions()
	opts.MaxLevel = 1
	alg := newAlgorithm(t, smt.NewYices(), c, rs, opts)

	result, err := alg.Run(context.Background())
	assert.Equal(t, ErrLevelBound, errors.Cause(err))
	assert.Equal(t, VerdictUnknown, result.Verdict)
}

func Test_Configuration(t *testing.T) {
	c, rs := buildCFA(t, nil, []string{"start", "error"}, []string{"error"}, []edge{{"start", "error", ""}})
	blocks := block.FromCFA(c)
	precision := predicate.FromCFA(c, blocks)
	engine := &countingEngine{}

	var testCases = []struct {
		Name      string
		Engine    smt.Engine
		CFA       *cfa.CFA
		Blocks    *block.Abstraction
		Precision predicate.Provider
		Options   Options
	}{
		{"no engine", nil, c, blocks, precision, DefaultOptions()},
		{"no cfa", engine, nil, blocks, precision, DefaultOptions()},
		{"no blocks", engine, c, nil, precision, DefaultOptions()},
		{"no precision", engine, c, blocks, nil, DefaultOptions()},
		{"bad order", engine, c, blocks, precision, Options{SearchOrder: "bfs"}},
		{"negative bound", engine, c, blocks, precision, Options{MaxLevel: -1}},
		{"no start", engine, cfa.New("empty"), blocks, precision, DefaultOptions()},
	}
	for _, tc := range testCases {
		_, err := NewAlgorithm(tc.Engine, tc.CFA, tc.Blocks, tc.Precision, rs, tc.Options)
		assert.Equal(t, ErrConfiguration, errors.Cause(err), tc.Name)
	}
	_, err := NewAlgorithm(engine, c, blocks, precision, nil, DefaultOptions())
	assert.Equal(t, ErrConfiguration, errors.Cause(err))
	assert.Equal(t, 0, engine.calls)
}

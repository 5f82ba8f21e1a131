package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"pdrcheck/internal/pdr"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testdata = "../internal/program/testdata/"

func Test_CheckSafe(t *testing.T) {
	var buf bytes.Buffer
	verdict, err := runCheck(context.Background(), checkConfig{File: testdata + "counter.yaml", Order: "level"}, &buf, false)
	require.NoError(t, err)
	assert.Equal(t, pdr.VerdictSafe, verdict)
	assert.Contains(t, buf.String(), "SAFE: counter\n")
}

func Test_CheckUnsafe(t *testing.T) {
	var buf bytes.Buffer
	verdict, err := runCheck(context.Background(), checkConfig{File: testdata + "overflow.yaml", Order: "dfs"}, &buf, false)
	require.NoError(t, err)
	assert.Equal(t, pdr.VerdictUnsafe, verdict)
	assert.Contains(t, buf.String(), "UNSAFE: overflow\n")
	assert.Contains(t, buf.String(), "Error location: error\n")
	assert.Contains(t, buf.String(), "loop -> loop [step]")
}

func Test_CheckTarget(t *testing.T) {
	var buf bytes.Buffer
	cfg := checkConfig{File: testdata + "counter.yaml", Order: "level", Targets: []string{"exit"}}
	verdict, err := runCheck(context.Background(), cfg, &buf, false)
	require.NoError(t, err)
	assert.Equal(t, pdr.VerdictUnsafe, verdict)
	assert.Contains(t, buf.String(), "ID: unreach-location\n")
}

func Test_CheckErrors(t *testing.T) {
	var buf bytes.Buffer
	_, err := runCheck(context.Background(), checkConfig{}, &buf, false)
	assert.Error(t, err)

	_, err = runCheck(context.Background(), checkConfig{File: testdata + "missing.yaml"}, &buf, false)
	assert.Error(t, err)

	_, err = runCheck(context.Background(), checkConfig{File: testdata + "counter.yaml", Order: "bfs"}, &buf, false)
	assert.Equal(t, pdr.ErrConfiguration, errors.Cause(err))

	_, err = runCheck(context.Background(), checkConfig{File: testdata + "counter.yaml", Targets: []string{"nowhere"}}, &buf, false)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = runCheck(ctx, checkConfig{File: testdata + "counter.yaml", Order: "level", Timeout: time.Minute}, &buf, false)
	assert.Equal(t, pdr.ErrCancelled, errors.Cause(err))
	assert.Empty(t, buf.String())
}

func Test_PrintCFA(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printCFA(testdata+"counter.yaml", &buf))
	out := buf.String()
	assert.Contains(t, out, "cfa counter (x:int)\n")
	assert.Contains(t, out, "  L0 start normal [start]\n")
	assert.Contains(t, out, "  L3 error error [target]\n")
	assert.Contains(t, out, "  L4 exit__assert assert-failure [target]\n")
	assert.Contains(t, out, "    predicate (x <= 10)\n")
	assert.Contains(t, out, "  L1 -> L1 [inc] ((x < 10) && (x' == (x + 1)))\n")
}

func Test_PrintVersion(t *testing.T) {
	var buf bytes.Buffer
	BuildVersion = "v1.0.0"
	printVersion(&buf)
	assert.Contains(t, buf.String(), "v1.0.0")
	assert.Contains(t, buf.String(), "GoVersion")
}

package main

import (
	"bytes"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/funny-falcon/vector/alloc"
)

const workload = `
# growth from empty
push 10
push 20
push 30
push 40
push 50
at 7
clone
pop
reserve 3
resize 2 0
clear
push 1
release
`

func TestLoad(t *testing.T) {
	ops, err := Load(strings.NewReader(workload))
	require.NoError(t, err)
	require.Len(t, ops, 13)
	assert.Equal(t, Op{Name: "push", Args: []int64{10}, Line: 3}, ops[0])
	assert.Equal(t, Op{Name: "resize", Args: []int64{2, 0}, Line: 12}, ops[9])

	_, err = Load(strings.NewReader("push 1\nfrob\n"))
	require.EqualError(t, err, `line 2: unknown op "frob"`)
	_, err = Load(strings.NewReader("resize 1\n"))
	require.EqualError(t, err, "line 1: resize takes 2 args, got 1")
	_, err = Load(strings.NewReader("push x\n"))
	require.Error(t, err)

	ops, err = Load(strings.NewReader("push -9223372036854775808\nresize 1 9223372036854775807\n"))
	require.NoError(t, err)
	assert.Equal(t, []int64{math.MinInt64}, ops[0].Args)
	assert.Equal(t, []int64{1, math.MaxInt64}, ops[1].Args)

	_, err = Load(strings.NewReader("reserve 99999999999999999999\n"))
	require.Error(t, err)
	if strconv.IntSize == 32 {
		_, err = Load(strings.NewReader("at 4294967296\n"))
		require.Error(t, err)
	}
}

func TestReplayOversized(t *testing.T) {
	if strconv.IntSize == 32 {
		t.Skip("lengths do not fit in int")
	}
	ops, err := Load(strings.NewReader("push 1\nreserve 2305843009213693952\nresize 2305843009213693952 0\npush 2\n"))
	require.NoError(t, err)

	c := alloc.NewCounting[int64](nil)
	var rep *Report
	require.NotPanics(t, func() { rep = Replay(ops, c) })
	assert.Contains(t, rep.Steps[1].Err, "allocation failure")
	assert.Contains(t, rep.Steps[2].Err, "allocation failure")
	assert.Equal(t, Step{Op: "push", Args: []int64{2}, Len: 2, Cap: 2}, rep.Steps[3])
}

func TestReplay(t *testing.T) {
	ops, err := Load(strings.NewReader(workload))
	require.NoError(t, err)

	c := alloc.NewCounting[int64](nil)
	rep := Replay(ops, c)
	require.Len(t, rep.Steps, len(ops))

	var caps []int
	for _, s := range rep.Steps[:5] {
		caps = append(caps, s.Cap)
	}
	assert.Equal(t, []int{1, 2, 4, 4, 8}, caps)

	assert.Contains(t, rep.Steps[5].Err, "out of range")
	assert.Equal(t, Step{Op: "clone", Len: 5, Cap: 8}, rep.Steps[6])
	assert.Equal(t, Step{Op: "pop", Len: 4, Cap: 8}, rep.Steps[7])
	assert.Equal(t, 8, rep.Steps[8].Cap)
	assert.Equal(t, 2, rep.Steps[9].Len)
	assert.Equal(t, Step{Op: "clear", Len: 0, Cap: 8}, rep.Steps[10])
	assert.Equal(t, 8, rep.Steps[11].Cap)
	assert.Equal(t, Step{Op: "release", Len: 0, Cap: 0}, rep.Steps[12])

	assert.True(t, rep.Stats.Balanced())
	assert.Equal(t, 128, rep.Stats.PeakBytes)
}

func TestReplayBudget(t *testing.T) {
	ops, err := Load(strings.NewReader("push 1\npush 2\npush 3\n"))
	require.NoError(t, err)

	c := alloc.NewCounting[int64](alloc.NewBudget[int64](nil, 3))
	rep := Replay(ops, c)
	assert.Empty(t, rep.Steps[1].Err)
	assert.Contains(t, rep.Steps[2].Err, "allocation failure")
	assert.Equal(t, 2, rep.Final.Len())
}

type brokenPipe struct{}

func (brokenPipe) Write([]byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestWriteReport(t *testing.T) {
	ops, err := Load(strings.NewReader("push 5\n"))
	require.NoError(t, err)
	rep := Replay(ops, alloc.NewCounting[int64](nil))

	var out bytes.Buffer
	require.NoError(t, writeReport(&out, rep))
	assert.Contains(t, out.String(), `"final"`)
	assert.True(t, strings.HasSuffix(out.String(), "}\n"))

	err = writeReport(brokenPipe{}, rep)
	require.EqualError(t, err, "write report: broken pipe")
}

func TestHandler(t *testing.T) {
	ops, err := Load(strings.NewReader("push 5\npush 6\n"))
	require.NoError(t, err)
	h := handler(Replay(ops, alloc.NewCounting[int64](nil)))

	get := func(method, uri string) *fasthttp.RequestCtx {
		var ctx fasthttp.RequestCtx
		ctx.Request.Header.SetMethod(method)
		ctx.Request.SetRequestURI(uri)
		h(&ctx)
		return &ctx
	}

	ctx := get("GET", "/trace")
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.JSONEq(t, `{
		"steps": [
			{"op": "push", "args": [5], "len": 1, "cap": 1},
			{"op": "push", "args": [6], "len": 2, "cap": 2}
		],
		"final": [5, 6],
		"stats": {
			"elem": "int64", "elem_size": 8,
			"allocs": 2, "deallocs": 1, "constructs": 3, "destroys": 1,
			"live_slots": 2, "live_bytes": 16, "peak_bytes": 24
		}
	}`, string(ctx.Response.Body()))

	ctx = get("GET", "/stats")
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), `"live_slots":2`)

	assert.Equal(t, fasthttp.StatusNotFound, get("GET", "/nope").Response.StatusCode())
	assert.Equal(t, fasthttp.StatusMethodNotAllowed, get("POST", "/trace").Response.StatusCode())
}

package main

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/funny-falcon/vector/alloc"
	"github.com/funny-falcon/vector/vector"
)

type Op struct {
	Name string
	Args []int64
	Line int
}

var arity = map[string]int{
	"push":    1,
	"pop":     0,
	"reserve": 1,
	"resize":  2,
	"at":      1,
	"clear":   0,
	"clone":   0,
	"release": 0,
}

// Load parses a workload, one operation per line.
func Load(r io.Reader) ([]Op, error) {
	var ops []Op
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		op := Op{Name: strings.ToLower(fields[0]), Line: line}
		n, ok := arity[op.Name]
		if !ok {
			return nil, errors.Errorf("line %d: unknown op %q", line, fields[0])
		}
		if len(fields)-1 != n {
			return nil, errors.Errorf("line %d: %s takes %d args, got %d", line, op.Name, n, len(fields)-1)
		}
		for i, f := range fields[1:] {
			bitSize := strconv.IntSize
			if isValue(op.Name, i) {
				bitSize = 64
			}
			x, err := strconv.ParseInt(f, 10, bitSize)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d", line)
			}
			op.Args = append(op.Args, x)
		}
		ops = append(ops, op)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "read workload")
	}
	return ops, nil
}

// isValue reports whether argument i of op is an element value. The other
// arguments are lengths and indices and must fit in an int.
func isValue(op string, i int) bool {
	return op == "push" && i == 0 || op == "resize" && i == 1
}

type Step struct {
	Op   string  `json:"op"`
	Args []int64 `json:"args,omitempty"`
	Len  int     `json:"len"`
	Cap  int     `json:"cap"`
	Err  string  `json:"err,omitempty"`
}

type Report struct {
	Steps []Step                `json:"steps"`
	Final *vector.Vector[int64] `json:"final"`
	Stats alloc.Stats           `json:"stats"`
}

// Replay runs ops against a fresh vector backed by a. Failed operations are
// recorded and do not stop the replay.
func Replay(ops []Op, a *alloc.Counting[int64]) *Report {
	v := vector.New(vector.WithAllocator[int64](a))
	rep := &Report{Final: v, Steps: make([]Step, 0, len(ops))}
	for _, op := range ops {
		step := Step{Op: op.Name, Args: op.Args}
		if err := apply(v, op); err != nil {
			step.Err = err.Error()
		}
		step.Len, step.Cap = v.Len(), v.Cap()
		rep.Steps = append(rep.Steps, step)
	}
	rep.Stats = a.Stats()
	return rep
}

func apply(v *vector.Vector[int64], op Op) error {
	switch op.Name {
	case "push":
		return v.Push(op.Args[0])
	case "pop":
		return v.Pop()
	case "reserve":
		return v.Reserve(int(op.Args[0]))
	case "resize":
		return v.Resize(int(op.Args[0]), op.Args[1])
	case "at":
		_, err := v.At(int(op.Args[0]))
		return err
	case "clear":
		v.Clear()
	case "clone":
		c, err := v.Clone()
		if err != nil {
			return err
		}
		v.MoveFrom(c)
	case "release":
		v.Release()
	}
	return nil
}

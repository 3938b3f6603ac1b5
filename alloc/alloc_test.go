package alloc_test

import (
	"bytes"
	"log"
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funny-falcon/vector/alloc"
)

func TestHeap(t *testing.T) {
	var h alloc.Heap[string]

	buf, err := h.Allocate(0)
	require.NoError(t, err)
	require.Nil(t, buf)

	buf, err = h.Allocate(3)
	require.NoError(t, err)
	require.Len(t, buf, 3)

	require.NoError(t, h.Construct(&buf[1], "x"))
	assert.Equal(t, []string{"", "x", ""}, buf)
	h.Destroy(&buf[1])
	assert.Equal(t, "", buf[1])

	_, err = h.Allocate(-1)
	require.True(t, errors.Is(err, alloc.ErrAllocation))
}

func TestHeapOversized(t *testing.T) {
	for _, n := range []int{1 << 61, 1<<61 + 1, math.MaxInt} {
		require.NotPanics(t, func() {
			buf, err := alloc.Heap[int64]{}.Allocate(n)
			require.True(t, errors.Is(err, alloc.ErrAllocation), "n=%d", n)
			require.Nil(t, buf)
		})
	}

	_, err := alloc.Heap[byte]{}.Allocate(math.MaxInt)
	require.True(t, errors.Is(err, alloc.ErrAllocation))

	buf, err := alloc.Heap[struct{}]{}.Allocate(1 << 40)
	require.NoError(t, err)
	assert.Len(t, buf, 1<<40)
}

type selecting struct {
	alloc.Heap[int]
	other alloc.Allocator[int]
}

func (s selecting) SelectOnCopy() alloc.Allocator[int] { return s.other }
func (s selecting) PropagateOnCopyAssign() bool        { return true }

func TestPolicies(t *testing.T) {
	var h alloc.Allocator[int] = alloc.Heap[int]{}
	assert.Equal(t, h, alloc.SelectOnCopy(h))
	assert.False(t, alloc.PropagatesOnCopyAssign(h))

	other := alloc.NewCounting[int](nil)
	s := selecting{other: other}
	assert.Same(t, other, alloc.SelectOnCopy[int](s))
	assert.True(t, alloc.PropagatesOnCopyAssign[int](s))
}

func TestCounting(t *testing.T) {
	var out bytes.Buffer
	c := alloc.NewCounting[int64](nil)
	c.Log = log.New(&out, "", 0)

	buf, err := c.Allocate(4)
	require.NoError(t, err)
	require.NoError(t, c.Construct(&buf[0], 5))
	require.NoError(t, c.Construct(&buf[1], 6))

	st := c.Stats()
	assert.Equal(t, "int64", st.Elem)
	assert.Equal(t, 8, st.ElemSize)
	assert.Equal(t, 1, st.Allocs)
	assert.Equal(t, 2, st.Constructs)
	assert.Equal(t, 4, st.LiveSlots)
	assert.Equal(t, 32, st.LiveBytes)
	assert.Equal(t, 2, c.Live())
	assert.False(t, st.Balanced())

	c.Destroy(&buf[1])
	c.Destroy(&buf[0])
	c.Deallocate(buf)

	st = c.Stats()
	assert.True(t, st.Balanced())
	assert.Equal(t, 0, st.LiveBytes)
	assert.Equal(t, 32, st.PeakBytes)
	assert.Contains(t, out.String(), "allocate 4 int64")
	assert.Contains(t, out.String(), "deallocate 4 int64")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("closed")
}

func TestCountingLogFailure(t *testing.T) {
	c := alloc.NewCounting[int](nil)
	c.Log = log.New(failingWriter{}, "", 0)
	buf, err := c.Allocate(2)
	require.NoError(t, err)
	assert.Nil(t, c.Log)
	c.Deallocate(buf)
	assert.True(t, c.Stats().Balanced())
}

func TestCountingZeroValue(t *testing.T) {
	var c alloc.Counting[byte]
	buf, err := c.Allocate(2)
	require.NoError(t, err)
	c.Deallocate(buf)
	assert.Equal(t, 1, c.Stats().Deallocs)
	assert.Equal(t, "uint8", c.Stats().Elem)
}

func TestBudget(t *testing.T) {
	b := alloc.NewBudget[int](nil, 10)
	first, err := b.Allocate(6)
	require.NoError(t, err)
	_, err = b.Allocate(5)
	require.Error(t, err)
	require.True(t, errors.Is(err, alloc.ErrAllocation))
	assert.Equal(t, 6, b.InUse())

	b.Deallocate(first)
	second, err := b.Allocate(10)
	require.NoError(t, err)
	assert.Len(t, second, 10)

	b.Deallocate(second)
	first, err = b.Allocate(4)
	require.NoError(t, err)
	require.NotPanics(t, func() {
		_, err = b.Allocate(math.MaxInt)
	})
	require.True(t, errors.Is(err, alloc.ErrAllocation))
	assert.Equal(t, 4, b.InUse())
	b.Deallocate(first)
}

func TestFaulty(t *testing.T) {
	f := alloc.NewFaulty[int](nil)
	f.FailAllocate(2)

	_, err := f.Allocate(1)
	require.NoError(t, err)
	_, err = f.Allocate(1)
	require.True(t, errors.Is(err, alloc.ErrAllocation))
	_, err = f.Allocate(1)
	require.NoError(t, err)

	buf, _ := f.Allocate(3)
	f.FailConstruct(3)
	require.NoError(t, f.Construct(&buf[0], 1))
	require.NoError(t, f.Construct(&buf[1], 2))
	err = f.Construct(&buf[2], 3)
	require.True(t, errors.Is(err, alloc.ErrInjected))
	assert.Equal(t, 0, buf[2])

	f.FailConstruct(1)
	f.Disarm()
	require.NoError(t, f.Construct(&buf[2], 3))
}

func TestMmap(t *testing.T) {
	var m alloc.Mmap[uint32]
	buf, err := m.Allocate(1 << 12)
	require.NoError(t, err)
	require.Len(t, buf, 1<<12)
	for i := range buf {
		require.Zero(t, buf[i])
	}
	for i := range buf {
		require.NoError(t, m.Construct(&buf[i], uint32(i)))
	}
	assert.Equal(t, uint32(4095), buf[4095])
	m.Destroy(&buf[4095])
	assert.Zero(t, buf[4095])
	m.Deallocate(buf)

	buf, err = m.Allocate(0)
	require.NoError(t, err)
	require.Nil(t, buf)

	var huge []int64
	require.NotPanics(t, func() {
		huge, err = alloc.Mmap[int64]{}.Allocate(1<<61 + 1)
	})
	require.True(t, errors.Is(err, alloc.ErrAllocation))
	require.Nil(t, huge)
}

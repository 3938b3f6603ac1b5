package alloc

import (
	"fmt"
	"log"

	"github.com/modern-go/reflect2"
)

// Stats is a snapshot of what a Counting allocator has seen.
type Stats struct {
	Elem       string `json:"elem"`
	ElemSize   int    `json:"elem_size"`
	Allocs     int    `json:"allocs"`
	Deallocs   int    `json:"deallocs"`
	Constructs int    `json:"constructs"`
	Destroys   int    `json:"destroys"`
	LiveSlots  int    `json:"live_slots"`
	LiveBytes  int    `json:"live_bytes"`
	PeakBytes  int    `json:"peak_bytes"`
}

// Balanced reports whether every buffer was released and every constructed
// slot was destroyed.
func (s Stats) Balanced() bool {
	return s.Allocs == s.Deallocs && s.Constructs == s.Destroys
}

// Counting wraps another allocator and keeps call counters. It is not safe
// for concurrent use, same as the containers it serves.
type Counting[T any] struct {
	Base Allocator[T]
	// Log, when set, receives a line for every allocate and deallocate. It is
	// dropped after the first failed write.
	Log *log.Logger

	elem     reflect2.Type
	elemSize int
	stats    Stats
}

func NewCounting[T any](base Allocator[T]) *Counting[T] {
	if base == nil {
		base = Heap[T]{}
	}
	c := &Counting[T]{Base: base}
	c.init()
	return c
}

func (c *Counting[T]) init() {
	if c.elem != nil {
		return
	}
	if c.Base == nil {
		c.Base = Heap[T]{}
	}
	c.elem = reflect2.TypeOfPtr((*T)(nil)).Elem()
	c.elemSize = int(c.elem.Type1().Size())
	c.stats.Elem = c.elem.String()
	c.stats.ElemSize = c.elemSize
}

func (c *Counting[T]) Allocate(n int) ([]T, error) {
	c.init()
	buf, err := c.Base.Allocate(n)
	if err != nil {
		c.logf("allocate %d %s: %v", n, c.stats.Elem, err)
		return nil, err
	}
	if len(buf) == 0 {
		return buf, nil
	}
	c.stats.Allocs++
	c.stats.LiveSlots += len(buf)
	c.stats.LiveBytes += len(buf) * c.elemSize
	if c.stats.LiveBytes > c.stats.PeakBytes {
		c.stats.PeakBytes = c.stats.LiveBytes
	}
	c.logf("%p allocate %d %s", &buf[0], n, c.stats.Elem)
	return buf, nil
}

func (c *Counting[T]) Deallocate(buf []T) {
	c.init()
	if len(buf) == 0 {
		return
	}
	c.logf("%p deallocate %d %s", &buf[0], len(buf), c.stats.Elem)
	c.stats.Deallocs++
	c.stats.LiveSlots -= len(buf)
	c.stats.LiveBytes -= len(buf) * c.elemSize
	c.Base.Deallocate(buf)
}

func (c *Counting[T]) Construct(slot *T, value T) error {
	c.init()
	if err := c.Base.Construct(slot, value); err != nil {
		return err
	}
	c.stats.Constructs++
	return nil
}

func (c *Counting[T]) Destroy(slot *T) {
	c.init()
	c.stats.Destroys++
	c.Base.Destroy(slot)
}

// Live is the number of constructed slots not yet destroyed.
func (c *Counting[T]) Live() int {
	return c.stats.Constructs - c.stats.Destroys
}

func (c *Counting[T]) Stats() Stats {
	c.init()
	return c.stats
}

func (c *Counting[T]) logf(format string, args ...interface{}) {
	if c.Log == nil {
		return
	}
	if err := c.Log.Output(2, fmt.Sprintf(format, args...)); err != nil {
		c.Log = nil
	}
}

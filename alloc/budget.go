package alloc

import (
	"github.com/pkg/errors"
)

// Budget fails allocations once the slots it has handed out would exceed
// Limit.
type Budget[T any] struct {
	Base  Allocator[T]
	Limit int

	live int
}

func NewBudget[T any](base Allocator[T], limit int) *Budget[T] {
	if base == nil {
		base = Heap[T]{}
	}
	return &Budget[T]{Base: base, Limit: limit}
}

func (b *Budget[T]) Allocate(n int) ([]T, error) {
	if n > b.Limit-b.live {
		return nil, errors.Wrapf(ErrAllocation, "budget: %d slots in use, %d requested, limit %d",
			b.live, n, b.Limit)
	}
	buf, err := b.Base.Allocate(n)
	if err != nil {
		return nil, err
	}
	b.live += len(buf)
	return buf, nil
}

func (b *Budget[T]) Deallocate(buf []T) {
	b.live -= len(buf)
	b.Base.Deallocate(buf)
}

func (b *Budget[T]) Construct(slot *T, value T) error {
	return b.Base.Construct(slot, value)
}

func (b *Budget[T]) Destroy(slot *T) {
	b.Base.Destroy(slot)
}

// InUse is the number of slots currently allocated.
func (b *Budget[T]) InUse() int {
	return b.live
}

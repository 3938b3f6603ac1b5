package alloc

import (
	"github.com/pkg/errors"
)

// ErrInjected is the failure Faulty returns from Construct.
var ErrInjected = errors.New("alloc: injected construct failure")

// Faulty wraps an allocator and fails chosen calls. AllocateAt and
// ConstructAt are 1-based call numbers counted from creation; zero disables.
type Faulty[T any] struct {
	Base        Allocator[T]
	AllocateAt  int
	ConstructAt int

	allocates  int
	constructs int
}

func NewFaulty[T any](base Allocator[T]) *Faulty[T] {
	if base == nil {
		base = Heap[T]{}
	}
	return &Faulty[T]{Base: base}
}

// FailConstruct arms the k-th Construct call from now (k >= 1) to fail.
func (f *Faulty[T]) FailConstruct(k int) {
	f.ConstructAt = f.constructs + k
}

// FailAllocate arms the k-th Allocate call from now (k >= 1) to fail.
func (f *Faulty[T]) FailAllocate(k int) {
	f.AllocateAt = f.allocates + k
}

// Disarm turns off pending failures.
func (f *Faulty[T]) Disarm() {
	f.AllocateAt, f.ConstructAt = 0, 0
}

func (f *Faulty[T]) Allocate(n int) ([]T, error) {
	f.allocates++
	if f.allocates == f.AllocateAt {
		return nil, errors.Wrapf(ErrAllocation, "injected at allocate #%d (%d slots)", f.allocates, n)
	}
	return f.Base.Allocate(n)
}

func (f *Faulty[T]) Deallocate(buf []T) {
	f.Base.Deallocate(buf)
}

func (f *Faulty[T]) Construct(slot *T, value T) error {
	f.constructs++
	if f.constructs == f.ConstructAt {
		return errors.Wrapf(ErrInjected, "construct #%d", f.constructs)
	}
	return f.Base.Construct(slot, value)
}

func (f *Faulty[T]) Destroy(slot *T) {
	f.Base.Destroy(slot)
}

// Package alloc defines the storage capability used by the containers in this
// module and a few implementations of it.
//
// An Allocator hands out raw buffers of element slots and places values into
// and out of those slots. Containers never create or free storage on their own;
// every buffer goes back to the allocator that produced it.
package alloc

import (
	"math/bits"
	"unsafe"

	"github.com/pkg/errors"
)

// ErrAllocation is returned (wrapped) when an allocator cannot provide the
// requested storage.
var ErrAllocation = errors.New("alloc: allocation failure")

// maxBytes bounds a single buffer. It stays below what the runtime can
// address on 64-bit platforms.
const maxBytes = 1<<min(bits.UintSize-1, 47) - 1

// checkSlots rejects slot counts that are negative or whose byte size would
// not fit in one buffer.
func checkSlots[T any](n int) error {
	if n < 0 {
		return errors.Wrapf(ErrAllocation, "negative slot count %d", n)
	}
	var zero T
	if size := int(unsafe.Sizeof(zero)); size > 0 && n > maxBytes/size {
		return errors.Wrapf(ErrAllocation, "%d slots of %d bytes exceed %d bytes", n, size, maxBytes)
	}
	return nil
}

type Allocator[T any] interface {
	// Allocate returns n raw slots. len of the result is n; all slots hold
	// the zero value.
	Allocate(n int) ([]T, error)
	// Deallocate releases a buffer previously returned by Allocate.
	Deallocate(buf []T)
	// Construct places value into a raw slot making it live.
	Construct(slot *T, value T) error
	// Destroy returns a live slot to raw state.
	Destroy(slot *T)
}

// CopySelector is implemented by allocators that want a different allocator
// to be used for a copy of a container.
type CopySelector[T any] interface {
	SelectOnCopy() Allocator[T]
}

// AssignPropagator is implemented by allocators that travel with the contents
// on copy assignment. Without it the destination keeps its own allocator.
type AssignPropagator interface {
	PropagateOnCopyAssign() bool
}

// SelectOnCopy returns the allocator a copy of a container using a should get.
func SelectOnCopy[T any](a Allocator[T]) Allocator[T] {
	if s, ok := a.(CopySelector[T]); ok {
		return s.SelectOnCopy()
	}
	return a
}

// PropagatesOnCopyAssign reports whether a follows the contents on copy
// assignment.
func PropagatesOnCopyAssign[T any](a Allocator[T]) bool {
	if p, ok := a.(AssignPropagator); ok {
		return p.PropagateOnCopyAssign()
	}
	return false
}

// Heap is the default stateless allocator. Buffers come from make and are
// reclaimed by the garbage collector.
type Heap[T any] struct{}

func (Heap[T]) Allocate(n int) ([]T, error) {
	if err := checkSlots[T](n); err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return make([]T, n), nil
}

func (Heap[T]) Deallocate([]T) {}

func (Heap[T]) Construct(slot *T, value T) error {
	*slot = value
	return nil
}

func (Heap[T]) Destroy(slot *T) {
	var zero T
	*slot = zero
}

// Package vector implements Vector, a growable array whose storage comes from
// a pluggable alloc.Allocator.
//
// A Vector owns one buffer of Cap slots, the first Len of which hold live
// elements. Appending to a full vector doubles the capacity (starting from
// one). Every operation that can fail either completes or leaves the vector
// exactly as it was: a new buffer is built on the side and adopted only after
// every element was placed into it.
//
// A Vector is not safe for concurrent use. Pointers returned by Index and At
// are invalidated by any operation that reallocates.
package vector

import (
	"fmt"

	"github.com/modern-go/reflect2"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"github.com/funny-falcon/vector/alloc"
)

var (
	ErrOutOfRange    = errors.New("vector: index out of range")
	ErrEmpty         = errors.New("vector: pop from empty vector")
	ErrInvalidLength = errors.New("vector: invalid length")
)

// Cloner is implemented by element types whose copy can fail or needs more
// than an assignment. Clone must be declared on the value receiver.
type Cloner[T any] interface {
	Clone() (T, error)
}

func copyOf[T any](value T) (T, error) {
	if c, ok := any(value).(Cloner[T]); ok {
		return c.Clone()
	}
	return value, nil
}

// Vector is a dynamic array. The zero value is an empty vector using
// alloc.Heap.
type Vector[T any] struct {
	alloc alloc.Allocator[T]
	buf   []T
	size  int
}

type Option[T any] func(*Vector[T])

// WithAllocator makes the vector obtain its storage from a. A nil a means
// alloc.Heap.
func WithAllocator[T any](a alloc.Allocator[T]) Option[T] {
	return func(v *Vector[T]) {
		v.alloc = a
	}
}

func New[T any](opts ...Option[T]) *Vector[T] {
	v := &Vector[T]{}
	for _, opt := range opts {
		opt(v)
	}
	v.allocator()
	return v
}

// NewN returns a vector of n zero elements with capacity n.
func NewN[T any](n int, opts ...Option[T]) (*Vector[T], error) {
	var zero T
	return newFilled(n, func() (T, error) { return zero, nil }, opts)
}

// NewFill returns a vector of n copies of value with capacity n.
func NewFill[T any](n int, value T, opts ...Option[T]) (*Vector[T], error) {
	return newFilled(n, func() (T, error) { return copyOf(value) }, opts)
}

func newFilled[T any](n int, next func() (T, error), opts []Option[T]) (*Vector[T], error) {
	if n < 0 {
		return nil, errors.Wrapf(ErrInvalidLength, "count %d", n)
	}
	v := New(opts...)
	if n == 0 {
		return v, nil
	}
	t, err := begin(v.alloc, n)
	if err != nil {
		return nil, err
	}
	if err = t.fill(0, n, next); err != nil {
		t.rollback()
		return nil, err
	}
	v.adopt(&t, n)
	return v, nil
}

// Of builds a vector holding items in order, with capacity len(items).
func Of[T any](items ...T) (*Vector[T], error) {
	return OfWith[T](nil, items...)
}

func OfWith[T any](a alloc.Allocator[T], items ...T) (*Vector[T], error) {
	v := New(WithAllocator(a))
	if err := v.Reserve(len(items)); err != nil {
		return nil, err
	}
	for i := range items {
		item := items[i]
		if err := v.Emplace(func() (T, error) { return item, nil }); err != nil {
			v.Release()
			return nil, err
		}
	}
	return v, nil
}

func (v *Vector[T]) allocator() alloc.Allocator[T] {
	if v.alloc == nil {
		v.alloc = alloc.Heap[T]{}
	}
	return v.alloc
}

// Allocator returns the allocator the vector's buffer belongs to.
func (v *Vector[T]) Allocator() alloc.Allocator[T] {
	return v.allocator()
}

func (v *Vector[T]) Len() int {
	return v.size
}

func (v *Vector[T]) Cap() int {
	return len(v.buf)
}

// Index returns a pointer to element i. It panics if i is out of range.
func (v *Vector[T]) Index(i int) *T {
	return &v.buf[:v.size][i]
}

// At is the checked form of Index.
func (v *Vector[T]) At(i int) (*T, error) {
	if i < 0 || i >= v.size {
		return nil, errors.Wrapf(ErrOutOfRange, "index %d, len %d", i, v.size)
	}
	return &v.buf[i], nil
}

// Slice returns the live elements. Appending to the result never writes into
// the vector's spare capacity.
func (v *Vector[T]) Slice() []T {
	return slices.Clip(v.buf[:v.size])
}

// Emplace appends the value returned by ctor. ctor runs after storage for
// the new element is available and before existing elements are moved, so it
// may still read them.
func (v *Vector[T]) Emplace(ctor func() (T, error)) error {
	a := v.allocator()
	if v.size < len(v.buf) {
		t := inPlace(a, v.buf)
		if err := t.fill(v.size, v.size+1, ctor); err != nil {
			return err
		}
		v.size++
		return nil
	}

	t, err := begin(a, grown(len(v.buf), v.size+1))
	if err != nil {
		return err
	}
	if err = t.fill(v.size, v.size+1, ctor); err != nil {
		t.rollback()
		return err
	}
	if err = t.move(v.buf[:v.size]); err != nil {
		t.rollback()
		return err
	}
	v.adopt(&t, v.size+1)
	return nil
}

// Push appends a copy of value.
func (v *Vector[T]) Push(value T) error {
	return v.Emplace(func() (T, error) { return copyOf(value) })
}

// Pop destroys the last element.
func (v *Vector[T]) Pop() error {
	if v.size == 0 {
		return ErrEmpty
	}
	v.size--
	v.alloc.Destroy(&v.buf[v.size])
	return nil
}

// Resize changes the length to n, destroying trailing elements or appending
// copies of value.
func (v *Vector[T]) Resize(n int, value T) error {
	if n < 0 {
		return errors.Wrapf(ErrInvalidLength, "resize to %d", n)
	}
	if n == v.size {
		return nil
	}
	if n < v.size {
		for v.size > n {
			v.size--
			v.alloc.Destroy(&v.buf[v.size])
		}
		return nil
	}

	next := func() (T, error) { return copyOf(value) }
	a := v.allocator()
	if n <= len(v.buf) {
		t := inPlace(a, v.buf)
		if err := t.fill(v.size, n, next); err != nil {
			t.rollback()
			return err
		}
		v.size = n
		return nil
	}

	t, err := begin(a, grown(len(v.buf), n))
	if err != nil {
		return err
	}
	if err = t.move(v.buf[:v.size]); err != nil {
		t.rollback()
		return err
	}
	if err = t.fill(v.size, n, next); err != nil {
		t.rollback()
		return err
	}
	v.adopt(&t, n)
	return nil
}

// Reserve makes room for at least n elements. It does nothing when the
// capacity is already n or more; otherwise the new capacity is exactly n.
// A negative n is rejected with ErrInvalidLength, as in Resize.
func (v *Vector[T]) Reserve(n int) error {
	if n < 0 {
		return errors.Wrapf(ErrInvalidLength, "reserve %d", n)
	}
	if n <= len(v.buf) {
		return nil
	}
	t, err := begin(v.allocator(), n)
	if err != nil {
		return err
	}
	if err = t.move(v.buf[:v.size]); err != nil {
		t.rollback()
		return err
	}
	v.adopt(&t, v.size)
	return nil
}

// Clear destroys all elements and keeps the buffer for reuse.
func (v *Vector[T]) Clear() {
	for v.size > 0 {
		v.size--
		v.alloc.Destroy(&v.buf[v.size])
	}
}

// Release destroys all elements and gives the buffer back to the allocator.
// The vector stays usable and empty. Calling it again does nothing.
func (v *Vector[T]) Release() {
	for i := 0; i < v.size; i++ {
		v.alloc.Destroy(&v.buf[i])
	}
	if v.buf != nil {
		v.alloc.Deallocate(v.buf)
	}
	v.buf, v.size = nil, 0
}

// adopt destroys the current contents, frees the current buffer and takes
// over the buffer and allocator of a successful transaction.
func (v *Vector[T]) adopt(t *txn[T], size int) {
	for i := 0; i < v.size; i++ {
		v.alloc.Destroy(&v.buf[i])
	}
	if v.buf != nil {
		v.alloc.Deallocate(v.buf)
	}
	v.alloc, v.buf, v.size = t.alloc, t.buf, size
	t.buf, t.spans = nil, nil
}

// Clone returns an independent copy with the same capacity. The copy's
// allocator is chosen by alloc.SelectOnCopy.
func (v *Vector[T]) Clone() (*Vector[T], error) {
	return v.CloneWith(alloc.SelectOnCopy(v.allocator()))
}

// CloneWith is Clone with an explicit allocator.
func (v *Vector[T]) CloneWith(a alloc.Allocator[T]) (*Vector[T], error) {
	c := New(WithAllocator(a))
	if len(v.buf) == 0 {
		return c, nil
	}
	t, err := begin(c.alloc, len(v.buf))
	if err != nil {
		return nil, err
	}
	if err = t.copyFrom(v.buf[:v.size]); err != nil {
		t.rollback()
		return nil, err
	}
	c.adopt(&t, v.size)
	return c, nil
}

// Take moves the contents into a new vector in O(1). v is left empty with
// no buffer and keeps its allocator.
func (v *Vector[T]) Take() *Vector[T] {
	m := &Vector[T]{alloc: v.allocator(), buf: v.buf, size: v.size}
	v.buf, v.size = nil, 0
	return m
}

// TakeWith moves the contents into a new vector using allocator a. When a
// is v's own allocator this is Take. Otherwise the elements are moved into a
// buffer from a, and v is emptied only if that succeeds.
func (v *Vector[T]) TakeWith(a alloc.Allocator[T]) (*Vector[T], error) {
	if a == nil || sameAllocator(a, v.allocator()) {
		return v.Take(), nil
	}
	m := New(WithAllocator(a))
	if len(v.buf) == 0 {
		return m, nil
	}
	t, err := begin(a, len(v.buf))
	if err != nil {
		return nil, err
	}
	if err = t.move(v.buf[:v.size]); err != nil {
		t.rollback()
		return nil, err
	}
	m.adopt(&t, v.size)
	v.Release()
	return m, nil
}

// sameAllocator reports whether a and b are the same allocator. Values whose
// comparison panics, such as structs holding a slice in an interface field,
// count as different.
func sameAllocator[T any](a, b alloc.Allocator[T]) (same bool) {
	if reflect2.RTypeOf(a) != reflect2.RTypeOf(b) {
		return false
	}
	if !reflect2.TypeOf(a).Type1().Comparable() {
		return false
	}
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}

// MoveFrom releases v's contents and takes over other's buffer, length and
// allocator. other is left empty. It never fails.
func (v *Vector[T]) MoveFrom(other *Vector[T]) {
	if v == other {
		return
	}
	v.Release()
	v.alloc, v.buf, v.size = other.allocator(), other.buf, other.size
	other.buf, other.size = nil, 0
}

// Assign replaces v's contents with copies of other's elements, in a new
// buffer with other's capacity. The old buffer is released only after the
// copy succeeded. v keeps its allocator unless other's allocator propagates
// on copy assignment.
func (v *Vector[T]) Assign(other *Vector[T]) error {
	if v == other {
		return nil
	}
	a := v.allocator()
	if src := other.allocator(); alloc.PropagatesOnCopyAssign(src) {
		a = src
	}
	if len(other.buf) == 0 {
		v.Release()
		v.alloc = a
		return nil
	}
	t, err := begin(a, len(other.buf))
	if err != nil {
		return err
	}
	if err = t.copyFrom(other.buf[:other.size]); err != nil {
		t.rollback()
		return err
	}
	v.adopt(&t, other.size)
	return nil
}

func (v *Vector[T]) String() string {
	return fmt.Sprintf("vector[len=%d cap=%d]", v.size, len(v.buf))
}

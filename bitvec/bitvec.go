// Package bitvec implements a growable array of booleans packed eight to a
// byte.
//
// Elements are not addressable; Index returns a Ref bound to the byte and bit
// holding the element. Length and capacity are counted in bits. The capacity
// is always a multiple of eight, and bits at positions >= Len are always zero.
package bitvec

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/funny-falcon/vector/alloc"
)

var (
	ErrOutOfRange    = errors.New("bitvec: index out of range")
	ErrEmpty         = errors.New("bitvec: pop from empty vector")
	ErrInvalidLength = errors.New("bitvec: invalid length")
)

// Ref stands in for a reference to one element. It stays bound to the same
// byte, so it is invalidated by any operation that reallocates.
type Ref struct {
	b   *byte
	bit uint8
}

func (r Ref) Get() bool {
	return *r.b&(1<<r.bit) != 0
}

func (r Ref) Set(v bool) {
	if v {
		*r.b |= 1 << r.bit
	} else {
		*r.b &^= 1 << r.bit
	}
}

type Vector struct {
	alloc alloc.Allocator[byte]
	buf   []byte
	size  int
}

type Option func(*Vector)

func WithAllocator(a alloc.Allocator[byte]) Option {
	return func(v *Vector) {
		v.alloc = a
	}
}

func New(opts ...Option) *Vector {
	v := &Vector{}
	for _, opt := range opts {
		opt(v)
	}
	v.allocator()
	return v
}

// NewN returns a vector of n copies of value.
func NewN(n int, value bool, opts ...Option) (*Vector, error) {
	v := New(opts...)
	if err := v.Resize(n, value); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *Vector) allocator() alloc.Allocator[byte] {
	if v.alloc == nil {
		v.alloc = alloc.Heap[byte]{}
	}
	return v.alloc
}

func (v *Vector) Len() int {
	return v.size
}

func (v *Vector) Cap() int {
	return len(v.buf) * 8
}

// Index returns a Ref for element i without checking it against Len. It
// panics only when i is outside the buffer.
func (v *Vector) Index(i int) Ref {
	return Ref{b: &v.buf[i>>3], bit: uint8(i & 7)}
}

// At is the checked form of Index.
func (v *Vector) At(i int) (Ref, error) {
	if i < 0 || i >= v.size {
		return Ref{}, errors.Wrapf(ErrOutOfRange, "index %d, len %d", i, v.size)
	}
	return v.Index(i), nil
}

func (v *Vector) Get(i int) bool {
	v.check(i)
	return has(v.buf, i)
}

func (v *Vector) Set(i int, value bool) {
	v.check(i)
	put(v.buf, i, value)
}

func (v *Vector) check(i int) {
	if i < 0 || i >= v.size {
		panic(errors.Wrapf(ErrOutOfRange, "index %d, len %d", i, v.size))
	}
}

// Count returns the number of true elements.
func (v *Vector) Count() int {
	return count(v.buf[:bytesFor(v.size)])
}

// Bytes returns the packed bytes backing the first Len elements.
func (v *Vector) Bytes() []byte {
	n := bytesFor(v.size)
	return v.buf[:n:n]
}

func (v *Vector) Push(value bool) error {
	if v.size == len(v.buf)*8 {
		if err := v.regrow(grown(len(v.buf), len(v.buf)+1)); err != nil {
			return err
		}
	}
	if value {
		set(v.buf, v.size)
	}
	v.size++
	return nil
}

func (v *Vector) Pop() error {
	if v.size == 0 {
		return ErrEmpty
	}
	v.size--
	unset(v.buf, v.size)
	return nil
}

// Reserve makes room for at least n bits without reallocating. A negative n
// is rejected with ErrInvalidLength.
func (v *Vector) Reserve(n int) error {
	if n < 0 {
		return errors.Wrapf(ErrInvalidLength, "reserve %d", n)
	}
	need := bytesFor(n)
	if need <= len(v.buf) {
		return nil
	}
	return v.regrow(need)
}

func (v *Vector) Resize(n int, value bool) error {
	if n < 0 {
		return errors.Wrapf(ErrInvalidLength, "resize to %d", n)
	}
	if n <= v.size {
		setRange(v.buf, n, v.size, false)
		v.size = n
		return nil
	}
	if need := bytesFor(n); need > len(v.buf) {
		if err := v.regrow(grown(len(v.buf), need)); err != nil {
			return err
		}
	}
	if value {
		setRange(v.buf, v.size, n, true)
	}
	v.size = n
	return nil
}

// Clear drops all elements and keeps the buffer.
func (v *Vector) Clear() {
	clear(v.buf[:bytesFor(v.size)])
	v.size = 0
}

// Release gives the buffer back to the allocator. Calling it again does
// nothing.
func (v *Vector) Release() {
	if v.buf != nil {
		v.alloc.Deallocate(v.buf)
	}
	v.buf, v.size = nil, 0
}

// regrow moves the bits into a fresh buffer of nbytes bytes. Bytes past the
// copied ones are zeroed since an allocator may hand out reused memory.
func (v *Vector) regrow(nbytes int) error {
	a := v.allocator()
	buf, err := a.Allocate(nbytes)
	if err != nil {
		return errors.WithMessagef(err, "bitvec: allocate %d bytes", nbytes)
	}
	n := copy(buf, v.buf[:bytesFor(v.size)])
	clear(buf[n:])
	if v.buf != nil {
		a.Deallocate(v.buf)
	}
	v.buf = buf
	return nil
}

// Clone returns an independent copy with the same capacity.
func (v *Vector) Clone() (*Vector, error) {
	c := New(WithAllocator(alloc.SelectOnCopy(v.allocator())))
	if len(v.buf) == 0 {
		return c, nil
	}
	if err := c.regrow(len(v.buf)); err != nil {
		return nil, err
	}
	copy(c.buf, v.buf)
	c.size = v.size
	return c, nil
}

// Take moves the contents into a new vector; v is left empty.
func (v *Vector) Take() *Vector {
	m := &Vector{alloc: v.allocator(), buf: v.buf, size: v.size}
	v.buf, v.size = nil, 0
	return m
}

// MoveFrom releases v's buffer and takes over other's contents.
func (v *Vector) MoveFrom(other *Vector) {
	if v == other {
		return
	}
	v.Release()
	v.alloc, v.buf, v.size = other.allocator(), other.buf, other.size
	other.buf, other.size = nil, 0
}

func (v *Vector) String() string {
	return fmt.Sprintf("bitvec[len=%d cap=%d]", v.size, len(v.buf)*8)
}

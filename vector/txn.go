package vector

import (
	"github.com/pkg/errors"

	"github.com/funny-falcon/vector/alloc"
)

// txn tracks the slots constructed into a buffer so that a failed operation
// can put the buffer back the way it found it. Every growth and fill path
// goes through it.
type txn[T any] struct {
	alloc alloc.Allocator[T]
	buf   []T
	spans []span
	owned bool
}

// span is a half-open range of constructed slots.
type span struct {
	lo, hi int
}

// begin allocates a fresh buffer of n slots owned by the transaction.
func begin[T any](a alloc.Allocator[T], n int) (txn[T], error) {
	buf, err := a.Allocate(n)
	if err != nil {
		return txn[T]{}, errors.WithMessagef(err, "vector: allocate %d slots", n)
	}
	return txn[T]{alloc: a, buf: buf, owned: true}, nil
}

// inPlace works on a buffer the container already owns. Rolling it back
// destroys what was constructed but keeps the buffer.
func inPlace[T any](a alloc.Allocator[T], buf []T) txn[T] {
	return txn[T]{alloc: a, buf: buf}
}

func (t *txn[T]) construct(i int, value T) error {
	if err := t.alloc.Construct(&t.buf[i], value); err != nil {
		return err
	}
	if n := len(t.spans); n > 0 && t.spans[n-1].hi == i {
		t.spans[n-1].hi++
	} else {
		t.spans = append(t.spans, span{i, i + 1})
	}
	return nil
}

// fill constructs slots lo..hi-1 from successive results of next.
func (t *txn[T]) fill(lo, hi int, next func() (T, error)) error {
	for i := lo; i < hi; i++ {
		value, err := next()
		if err != nil {
			return err
		}
		if err = t.construct(i, value); err != nil {
			return err
		}
	}
	return nil
}

// move transfers src into the leading slots. The source is left intact; it
// is destroyed only when the owner commits.
func (t *txn[T]) move(src []T) error {
	for i := range src {
		if err := t.construct(i, src[i]); err != nil {
			return err
		}
	}
	return nil
}

// copyFrom copy-constructs src into the leading slots.
func (t *txn[T]) copyFrom(src []T) error {
	for i := range src {
		value, err := copyOf(src[i])
		if err != nil {
			return err
		}
		if err = t.construct(i, value); err != nil {
			return err
		}
	}
	return nil
}

// rollback destroys constructed slots, newest first, and frees the buffer if
// the transaction allocated it.
func (t *txn[T]) rollback() {
	for j := len(t.spans) - 1; j >= 0; j-- {
		s := t.spans[j]
		for i := s.hi - 1; i >= s.lo; i-- {
			t.alloc.Destroy(&t.buf[i])
		}
	}
	if t.owned && t.buf != nil {
		t.alloc.Deallocate(t.buf)
	}
	t.buf, t.spans = nil, nil
}

// grown is the capacity after growth: doubling from one, but never less
// than need.
func grown(capacity, need int) int {
	c := capacity * 2
	if c < 1 {
		c = 1
	}
	if c < need {
		c = need
	}
	return c
}

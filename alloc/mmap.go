package alloc

// Plain lists element types without pointers. Memory mapped outside the Go
// heap is not scanned by the garbage collector, so only these may live there.
type Plain interface {
	~bool | ~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr |
		~float32 | ~float64 | ~complex64 | ~complex128
}

// Mmap serves every buffer from its own anonymous private mapping and unmaps
// it on Deallocate. On platforms without mmap it falls back to the heap.
type Mmap[T Plain] struct{}

func (Mmap[T]) Construct(slot *T, value T) error {
	*slot = value
	return nil
}

func (Mmap[T]) Destroy(slot *T) {
	var zero T
	*slot = zero
}

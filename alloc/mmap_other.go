//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package alloc

func (Mmap[T]) Allocate(n int) ([]T, error) {
	return Heap[T]{}.Allocate(n)
}

func (Mmap[T]) Deallocate([]T) {}

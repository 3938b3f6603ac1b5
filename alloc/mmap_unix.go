//go:build linux || darwin || freebsd || netbsd || openbsd

package alloc

import (
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

func (Mmap[T]) Allocate(n int) ([]T, error) {
	if err := checkSlots[T](n); err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	var zero T
	size := n * int(unsafe.Sizeof(zero))
	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, errors.Wrapf(ErrAllocation, "mmap %d bytes: %v", size, err)
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&mem[0])), n), nil
}

func (Mmap[T]) Deallocate(buf []T) {
	if len(buf) == 0 {
		return
	}
	buf = buf[:cap(buf)]
	var zero T
	size := len(buf) * int(unsafe.Sizeof(zero))
	mem := unsafe.Slice((*byte)(unsafe.Pointer(&buf[0])), size)
	if err := unix.Munmap(mem); err != nil {
		panic(errors.Wrapf(err, "munmap %p", &buf[0]))
	}
}

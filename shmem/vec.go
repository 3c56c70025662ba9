package shmem

import (
	"fmt"
	"unsafe"
)

// SharedVec is a fixed-length array of T allocated as a single dedicated
// segment. It does not grow in place; the
// channel ring uses a SharedVec[SharedOption[T]] as its slot array,
// growing by linking in an entirely new, larger ring rather than
// resizing this one. Like the other shared types it carries only an
// address (plus its fixed length) and no allocator reference, so it
// nests cleanly as a field inside a larger shared structure.
type SharedVec[T any] struct {
	addr   AddressRange
	length uint64
}

// NewVecIn allocates a vector of the given fixed length out of alloc.
// Elements start zero-valued, matching a freshly mapped segment's
// zero-filled bytes.
func NewVecIn[T any](alloc *ShmemAllocator, length int) (SharedVec[T], error) {
	if length < 0 {
		return SharedVec[T]{}, fmt.Errorf("shmem: negative vector length %d", length)
	}
	var zero T
	addr, err := alloc.AllocSegment(int(unsafe.Sizeof(zero)) * length)
	if err != nil {
		return SharedVec[T]{}, err
	}
	return SharedVec[T]{addr: addr, length: uint64(length)}, nil
}

// NewVec is NewVecIn against the process-wide Default allocator.
func NewVec[T any](length int) (SharedVec[T], error) {
	return NewVecIn[T](Default(), length)
}

// VecFromAddress wraps an already-allocated range as a SharedVec of the
// given length.
func VecFromAddress[T any](addr AddressRange, length int) SharedVec[T] {
	return SharedVec[T]{addr: addr, length: uint64(length)}
}

// Address returns the range backing this vector.
func (v SharedVec[T]) Address() AddressRange {
	return v.addr
}

// Len returns the vector's fixed element count.
func (v SharedVec[T]) Len() int {
	return int(v.length)
}

func (v SharedVec[T]) cellsIn(alloc *ShmemAllocator) ([]VolatileCell[T], error) {
	raw, err := alloc.GetBytes(v.addr)
	if err != nil {
		return nil, err
	}
	cells, ok := SliceFromBytes[T](raw, int(v.length))
	if !ok {
		return nil, ErrTooSmall
	}
	return cells, nil
}

func (v SharedVec[T]) checkIndex(i int) error {
	if i < 0 || uint64(i) >= v.length {
		return fmt.Errorf("shmem: index %d out of range [0,%d)", i, v.length)
	}
	return nil
}

// GetIn reads the element at i via alloc.
func (v SharedVec[T]) GetIn(alloc *ShmemAllocator, i int) (T, error) {
	var zero T
	if err := v.checkIndex(i); err != nil {
		return zero, err
	}
	cells, err := v.cellsIn(alloc)
	if err != nil {
		return zero, err
	}
	return cells[i].ReadVolatile(), nil
}

// Get is GetIn against the process-wide Default allocator.
func (v SharedVec[T]) Get(i int) (T, error) {
	return v.GetIn(Default(), i)
}

// SetIn overwrites the element at i via alloc.
func (v SharedVec[T]) SetIn(alloc *ShmemAllocator, i int, value T) error {
	if err := v.checkIndex(i); err != nil {
		return err
	}
	cells, err := v.cellsIn(alloc)
	if err != nil {
		return err
	}
	cells[i].WriteVolatile(value)
	return nil
}

// Set is SetIn against the process-wide Default allocator.
func (v SharedVec[T]) Set(i int, value T) error {
	return v.SetIn(Default(), i, value)
}

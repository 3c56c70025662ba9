package shmem

import "unsafe"

// VolatileCell wraps one T living at a fixed address inside memory that an
// unrelated process may be mutating concurrently. SharedBox, SharedVec and
// the option cells form their typed views of shared bytes through it;
// SharedRc (rc.go) and the bootstrap header (allocator.go) cast mapped
// memory to plain pointers directly instead.
type VolatileCell[T any] struct {
	ptr unsafe.Pointer
}

// cellAt builds a VolatileCell over the T-sized region starting at ptr. The
// caller is responsible for ensuring ptr is within a live mapping at least
// sizeof(T) bytes long and suitably aligned; CellFromBytes and
// SliceFromBytes are the checked entry points callers outside this package
// should use instead of calling this directly.
func cellAt[T any](ptr unsafe.Pointer) VolatileCell[T] {
	return VolatileCell[T]{ptr: ptr}
}

// CellFromBytes reinterprets a byte slice as a *VolatileCell[T], returning
// ok=false if the slice is too small to hold a T.
func CellFromBytes[T any](b []byte) (VolatileCell[T], bool) {
	var zero T
	size := int(unsafe.Sizeof(zero))
	if len(b) < size {
		return VolatileCell[T]{}, false
	}
	return cellAt[T](unsafe.Pointer(&b[0])), true
}

// SliceFromBytes reinterprets a byte slice as length VolatileCell[T]
// elements, returning ok=false if the slice is too small.
func SliceFromBytes[T any](b []byte, length int) ([]VolatileCell[T], bool) {
	var zero T
	size := int(unsafe.Sizeof(zero))
	if size == 0 {
		size = 1
	}
	if len(b) < size*length {
		return nil, false
	}
	out := make([]VolatileCell[T], length)
	base := unsafe.Pointer(&b[0])
	for i := 0; i < length; i++ {
		out[i] = cellAt[T](unsafe.Add(base, i*size))
	}
	return out, true
}

// ReadVolatile copies the current value of the cell out. T should be
// trivially copyable; if T has pointers into process-local memory (it
// should not, for anything living in a shared segment) no destructor runs.
func (c VolatileCell[T]) ReadVolatile() T {
	return *(*T)(c.ptr)
}

// WriteVolatile overwrites the cell's value. This does not run T's
// destructor (Go has none to run) — it is a plain non-dropping overwrite.
func (c VolatileCell[T]) WriteVolatile(v T) {
	*(*T)(c.ptr) = v
}

// AsRawPointer exposes the underlying address, for building further typed
// views (e.g. the per-field atomics inside SharedRcContents) on top of one
// cell's bytes.
func (c VolatileCell[T]) AsRawPointer() unsafe.Pointer {
	return c.ptr
}

// IsZero reports whether c was never initialized (the zero VolatileCell
// has a nil pointer).
func (c VolatileCell[T]) IsZero() bool {
	return c.ptr == nil
}

// VolatileSafe marks T as tolerant of unsynchronized concurrent writes by
// an unrelated process — the canonical members are atomic integers and
// atomic-pointer-shaped wrappers. Only VolatileSafe types may be
// dereferenced directly out of a VolatileCell via Deref; everything else
// must go through ReadVolatile/WriteVolatile.
//
// This mirrors the SharedMemRef marker trait in the Rust source this
// package is ported from: Go has no notion of a type tolerating external
// mutation through a shared reference, so the constraint is enforced here
// purely at the type-system level, by which concrete types implement the
// unexported marker method.
type VolatileSafe interface {
	volatileSafe()
}

// Deref returns a *T for cells holding a VolatileSafe type. This is sound
// because VolatileSafe types are themselves internally synchronized (atomic
// integers, atomic pointers): the returned reference's target tolerates
// concurrent external mutation without violating Go's memory model the way
// a reference to a plain int or struct field would.
func Deref[T VolatileSafe](c VolatileCell[T]) *T {
	return (*T)(c.ptr)
}

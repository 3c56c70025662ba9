package shmem

import "unsafe"

// SharedBox owns a single T allocated out of a ShmemAllocator. It is a
// value type carrying only an AddressRange — no allocator pointer — so it
// is itself plain, copyable, and safe to nest as a field inside a larger
// structure that lives in shared memory (a SharedRc's payload, a
// SharedVec's element type, and so on). Every operation that actually
// touches bytes takes the allocator explicitly; the unsuffixed
// convenience wrappers thread through the process-wide Default allocator,
// mirroring the Rust original's "_in" vs. ALLOCATOR-backed method pairs.
type SharedBox[T any] struct {
	addr AddressRange
}

// NewBoxIn allocates room for a T out of alloc and writes value into it.
func NewBoxIn[T any](alloc *ShmemAllocator, value T) (SharedBox[T], error) {
	var zero T
	addr, err := alloc.AllocBytes(int(unsafe.Sizeof(zero)))
	if err != nil {
		return SharedBox[T]{}, err
	}
	b := SharedBox[T]{addr: addr}
	if err := b.SetIn(alloc, value); err != nil {
		return SharedBox[T]{}, err
	}
	return b, nil
}

// NewBox is NewBoxIn against the process-wide Default allocator.
func NewBox[T any](value T) (SharedBox[T], error) {
	return NewBoxIn(Default(), value)
}

// MustNewBox is NewBox's panicking form, for call sites that treat
// allocation failure as unrecoverable (e.g. process startup).
func MustNewBox[T any](value T) SharedBox[T] {
	b, err := NewBox(value)
	if err != nil {
		panic(err)
	}
	return b
}

// BoxFromAddress wraps an already-allocated range as a SharedBox, for a
// peer process that received the range over a channel or command line.
func BoxFromAddress[T any](addr AddressRange) SharedBox[T] {
	return SharedBox[T]{addr: addr}
}

// Address returns the range backing this box, to hand to another process.
func (b SharedBox[T]) Address() AddressRange {
	return b.addr
}

// CellIn resolves this box's bytes in alloc as a VolatileCell. Most
// callers want Get/Set instead; CellIn exists for types like SharedOption
// that need a raw *T into the live bytes rather than a copy in or out.
func (b SharedBox[T]) CellIn(alloc *ShmemAllocator) (VolatileCell[T], error) {
	raw, err := alloc.GetBytes(b.addr)
	if err != nil {
		return VolatileCell[T]{}, err
	}
	cell, ok := CellFromBytes[T](raw)
	if !ok {
		return VolatileCell[T]{}, ErrTooSmall
	}
	return cell, nil
}

// GetIn reads the current value out via alloc.
func (b SharedBox[T]) GetIn(alloc *ShmemAllocator) (T, error) {
	cell, err := b.CellIn(alloc)
	if err != nil {
		var zero T
		return zero, err
	}
	return cell.ReadVolatile(), nil
}

// Get is GetIn against the process-wide Default allocator.
func (b SharedBox[T]) Get() (T, error) {
	return b.GetIn(Default())
}

// SetIn overwrites the value in place via alloc.
func (b SharedBox[T]) SetIn(alloc *ShmemAllocator, value T) error {
	cell, err := b.CellIn(alloc)
	if err != nil {
		return err
	}
	cell.WriteVolatile(value)
	return nil
}

// Set is SetIn against the process-wide Default allocator.
func (b SharedBox[T]) Set(value T) error {
	return b.SetIn(Default(), value)
}

// FreeIn releases the backing allocation via alloc. Per
// ShmemAllocator.FreeBytes this is currently a no-op, kept so call sites
// read correctly if reclamation is ever added.
func (b SharedBox[T]) FreeIn(alloc *ShmemAllocator) error {
	return alloc.FreeBytes(b.addr)
}

// Free is FreeIn against the process-wide Default allocator.
func (b SharedBox[T]) Free() error {
	return b.FreeIn(Default())
}

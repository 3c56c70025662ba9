package shmem

import (
	"sync/atomic"
	"unsafe"
)

// sharedRcContents is the on-disk layout an rc allocation holds: the data
// first, so a naive byte dump of the allocation starts with the payload,
// followed by the reference count. Placing data first mirrors the Rust
// source's SharedRcContents field order.
type sharedRcContents[T any] struct {
	data     T
	refCount atomic.Uint64
}

// SharedRc is a reference-counted shared allocation: each Clone bumps the
// count, each Drop decrements it, and the last Drop to see the count reach
// zero frees the backing bytes. Like SharedBox it is a value type wrapping
// only an AddressRange, which is what makes it safe to embed one inside
// another shared structure (SharedChannel is built directly out of one).
type SharedRc[T any] struct {
	addr AddressRange
}

// NewRcIn allocates an rc-counted T out of alloc, initialized to value,
// with an initial reference count of 1.
func NewRcIn[T any](alloc *ShmemAllocator, value T) (SharedRc[T], error) {
	var zero sharedRcContents[T]
	addr, err := alloc.AllocBytes(int(unsafe.Sizeof(zero)))
	if err != nil {
		return SharedRc[T]{}, err
	}
	r := SharedRc[T]{addr: addr}

	raw, err := alloc.GetBytes(addr)
	if err != nil {
		return SharedRc[T]{}, err
	}
	cell, ok := CellFromBytes[sharedRcContents[T]](raw)
	if !ok {
		return SharedRc[T]{}, ErrTooSmall
	}
	cell.WriteVolatile(sharedRcContents[T]{data: value})

	count, err := r.refCountIn(alloc)
	if err != nil {
		return SharedRc[T]{}, err
	}
	count.Store(1)
	return r, nil
}

// NewRc is NewRcIn against the process-wide Default allocator.
func NewRc[T any](value T) (SharedRc[T], error) {
	return NewRcIn(Default(), value)
}

// RcFromAddressIn reconstructs a SharedRc handle from a raw address
// received from another process (e.g. a channel's "grown" link, or a
// command-line argument), claiming a new reference on its behalf: it
// verifies the range is large enough to hold a T before touching it, then
// fetch-adds the reference count exactly as Clone does, so the reference
// this handle represents is real and must eventually be matched by a Drop.
func RcFromAddressIn[T any](alloc *ShmemAllocator, addr AddressRange) (SharedRc[T], error) {
	var want sharedRcContents[T]
	if addr.ObjectSize() < uint64(unsafe.Sizeof(want)) {
		return SharedRc[T]{}, ErrTooSmall
	}
	r := SharedRc[T]{addr: addr}
	count, err := r.refCountIn(alloc)
	if err != nil {
		return SharedRc[T]{}, err
	}
	count.Add(1)
	return r, nil
}

// RcFromAddress is RcFromAddressIn against the process-wide Default
// allocator.
func RcFromAddress[T any](addr AddressRange) (SharedRc[T], error) {
	return RcFromAddressIn[T](Default(), addr)
}

// Address returns the range backing this rc.
func (r SharedRc[T]) Address() AddressRange {
	return r.addr
}

func (r SharedRc[T]) refCountIn(alloc *ShmemAllocator) (*atomic.Uint64, error) {
	raw, err := alloc.GetBytes(r.addr)
	if err != nil {
		return nil, err
	}
	var c sharedRcContents[T]
	off := unsafe.Offsetof(c.refCount)
	if len(raw) < int(unsafe.Sizeof(c)) {
		return nil, ErrTooSmall
	}
	return (*atomic.Uint64)(unsafe.Add(unsafe.Pointer(&raw[0]), off)), nil
}

// dataPtrIn returns a live pointer straight into the rc's data field, for
// callers (the channel ring) that need to mutate an internally
// synchronized payload in place rather than copy it in and out.
func (r SharedRc[T]) dataPtrIn(alloc *ShmemAllocator) (*T, error) {
	raw, err := alloc.GetBytes(r.addr)
	if err != nil {
		return nil, err
	}
	var c sharedRcContents[T]
	if len(raw) < int(unsafe.Sizeof(c)) {
		return nil, ErrTooSmall
	}
	off := unsafe.Offsetof(c.data)
	return (*T)(unsafe.Add(unsafe.Pointer(&raw[0]), off)), nil
}

// CloneIn increments the reference count via alloc and returns a handle to
// the same allocation. The caller now owns one more reference and must
// Drop it independently of the original.
func (r SharedRc[T]) CloneIn(alloc *ShmemAllocator) (SharedRc[T], error) {
	count, err := r.refCountIn(alloc)
	if err != nil {
		return SharedRc[T]{}, err
	}
	count.Add(1)
	return SharedRc[T]{addr: r.addr}, nil
}

// Clone is CloneIn against the process-wide Default allocator.
func (r SharedRc[T]) Clone() (SharedRc[T], error) {
	return r.CloneIn(Default())
}

// DropIn releases this reference via alloc. Once the count reaches zero
// the backing allocation is freed (best-effort; see
// ShmemAllocator.FreeBytes).
func (r SharedRc[T]) DropIn(alloc *ShmemAllocator) error {
	count, err := r.refCountIn(alloc)
	if err != nil {
		return err
	}
	if count.Add(^uint64(0)) == 0 { // fetch_sub(1) via unsigned-wraparound add
		return alloc.FreeBytes(r.addr)
	}
	return nil
}

// Drop is DropIn against the process-wide Default allocator.
func (r SharedRc[T]) Drop() error {
	return r.DropIn(Default())
}

// RefCountIn reads the current reference count via alloc. Intended for
// diagnostics and tests; the live value can change the instant after this
// returns.
func (r SharedRc[T]) RefCountIn(alloc *ShmemAllocator) (uint64, error) {
	count, err := r.refCountIn(alloc)
	if err != nil {
		return 0, err
	}
	return count.Load(), nil
}

// RefCount is RefCountIn against the process-wide Default allocator.
func (r SharedRc[T]) RefCount() (uint64, error) {
	return r.RefCountIn(Default())
}

// GetIn reads a copy of the contained value via alloc.
func (r SharedRc[T]) GetIn(alloc *ShmemAllocator) (T, error) {
	p, err := r.dataPtrIn(alloc)
	if err != nil {
		var zero T
		return zero, err
	}
	return *p, nil
}

// Get is GetIn against the process-wide Default allocator.
func (r SharedRc[T]) Get() (T, error) {
	return r.GetIn(Default())
}

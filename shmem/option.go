package shmem

import "sync/atomic"

type optionState uint32

const (
	optionEmpty optionState = iota
	optionReserved
	optionFull
)

// SharedOption is a cross-process, three-state optional cell: Empty,
// momentarily Reserved while a writer is in the middle of TrySet/TryTake,
// or Full. Unlike a Go channel of capacity 1, both the set and take sides
// are non-blocking and report false immediately if the slot is in the
// wrong state, leaving retry/backoff policy to the caller.
//
// Unlike SharedBox/SharedRc/SharedVec, SharedOption carries no address at
// all: it lays its state word directly before its payload, the same
// two-phase publish SharedChannel's ring slots use, which is what lets it
// be used as an ordinary inline field or array element — a SharedVec of
// SharedOption[T], or a single field inside a larger struct — rather than
// only as its own top-level allocation. Its methods take a pointer
// receiver and operate on whatever live shared bytes that pointer already
// resolves to; nothing here fetches bytes out of an allocator itself.
type SharedOption[T any] struct {
	state atomic.Uint32
	data  T
}

func (SharedOption[T]) volatileSafe() {}

// NewOptionIn allocates a single, standalone empty option cell out of
// alloc (the degenerate case of a SharedVec of length one). Most option
// cells in this package live inline inside a larger structure instead and
// never go through this constructor.
func NewOptionIn[T any](alloc *ShmemAllocator) (SharedBox[SharedOption[T]], error) {
	return NewBoxIn(alloc, SharedOption[T]{})
}

// NewOption is NewOptionIn against the process-wide Default allocator.
func NewOption[T any]() (SharedBox[SharedOption[T]], error) {
	return NewOptionIn[T](Default())
}

// TrySet stores value if the cell is currently empty, reporting whether it
// won the race.
func (o *SharedOption[T]) TrySet(value T) bool {
	if !o.state.CompareAndSwap(uint32(optionEmpty), uint32(optionReserved)) {
		return false
	}
	o.data = value
	o.state.Store(uint32(optionFull))
	return true
}

// TryTake removes and returns the value if the cell is currently full,
// reporting whether it won the race.
func (o *SharedOption[T]) TryTake() (T, bool) {
	var zero T
	if !o.state.CompareAndSwap(uint32(optionFull), uint32(optionReserved)) {
		return zero, false
	}
	v := o.data
	o.state.Store(uint32(optionEmpty))
	return v, true
}

// Peek returns the current value without removing it, reporting false if
// the cell is not currently full. Unlike TryTake this never claims the
// slot, so the result may already be stale by the time the caller acts on
// it if another racer takes or overwrites it first.
func (o *SharedOption[T]) Peek() (T, bool) {
	if optionState(o.state.Load()) != optionFull {
		var zero T
		return zero, false
	}
	return o.data, true
}

// IsFull peeks at the cell's state only. The result may already be stale
// by the time the caller acts on it if another process is racing.
func (o *SharedOption[T]) IsFull() bool {
	return optionState(o.state.Load()) == optionFull
}

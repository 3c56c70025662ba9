package shmem

import "sync/atomic"

// AtomicUint64 is a fixed-layout, VolatileSafe atomic counter suitable for
// storing directly inside a SharedBox or SharedRc. It is the Go analog of
// the Rust examples' AtomicUsize: a type whose semantics already tolerate
// concurrent unsynchronized mutation from another process, so it is safe to
// Deref straight out of a VolatileCell.
type AtomicUint64 struct {
	v atomic.Uint64
}

// NewAtomicUint64 returns an AtomicUint64 initialized to v.
func NewAtomicUint64(v uint64) AtomicUint64 {
	var a AtomicUint64
	a.v.Store(v)
	return a
}

func (a *AtomicUint64) Load() uint64            { return a.v.Load() }
func (a *AtomicUint64) Store(v uint64)          { a.v.Store(v) }
func (a *AtomicUint64) Add(delta uint64) uint64 { return a.v.Add(delta) }
func (a *AtomicUint64) CompareAndSwap(old, new uint64) bool {
	return a.v.CompareAndSwap(old, new)
}

func (AtomicUint64) volatileSafe() {}

// AtomicBool is the VolatileSafe boolean analog, used for single-bit shared
// flags where a full word would be wasteful to reason about.
type AtomicBool struct {
	v atomic.Bool
}

func NewAtomicBool(v bool) AtomicBool {
	var a AtomicBool
	a.v.Store(v)
	return a
}

func (a *AtomicBool) Load() bool  { return a.v.Load() }
func (a *AtomicBool) Store(v bool) { a.v.Store(v) }
func (a *AtomicBool) CompareAndSwap(old, new bool) bool {
	return a.v.CompareAndSwap(old, new)
}

func (AtomicBool) volatileSafe() {}

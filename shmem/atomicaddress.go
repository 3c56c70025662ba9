package shmem

import "sync/atomic"

// AtomicPackedAddress is the allocator's bump cursor: a PackedAddress that
// can be atomically fetch-added (to hand out the next object) and
// compare-and-swapped (to install a freshly grown segment). It lives
// directly inside the bootstrap segment's shared bytes, one per object size
// class.
type AtomicPackedAddress struct {
	bits atomic.Uint64
}

// Load reads the current cursor value.
func (a *AtomicPackedAddress) Load() PackedAddress {
	return PackedAddress(a.bits.Load())
}

// Store sets the cursor to v directly, used only to seed a freshly
// allocated cursor before it is ever published to another process.
func (a *AtomicPackedAddress) Store(v PackedAddress) {
	a.bits.Store(uint64(v))
}

// CompareAndSwap installs new in place of current, returning whether it won
// the race.
func (a *AtomicPackedAddress) CompareAndSwap(current, new PackedAddress) bool {
	return a.bits.CompareAndSwap(uint64(current), uint64(new))
}

// FetchAdd performs size.ToBytes() worth of atomic addition on the whole
// 64-bit word and returns the value the cursor held *before* the add (the
// address this caller gets to use), along with whether the pre-add value
// was itself well-formed. If the result after the add is not well-formed
// (the offset field carried into the padding byte), the add is undone with
// a matching FetchSub before returning, so that no other observer of the
// cursor ever sees the over-the-end value settle. FetchAdd does not compare
// the offset with the segment's size; AllocBytes does that check.
func (a *AtomicPackedAddress) FetchAdd(size ObjectSize) (before PackedAddress, beforeOK bool, afterOK bool) {
	delta := size.ToBytes()
	prev := a.bits.Add(delta) - delta
	before = PackedAddress(prev)
	after := PackedAddress(prev + delta)
	beforeOK = before.IsWellFormed()
	afterOK = after.IsWellFormed()
	if !afterOK {
		a.bits.Add(0 - delta) // fetch_sub(delta), relying on unsigned wraparound
	}
	return before, beforeOK, afterOK
}

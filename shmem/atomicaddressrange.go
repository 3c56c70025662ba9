package shmem

import "sync/atomic"

// AtomicAddressRange is a cross-process, VolatileSafe, atomically
// accessible AddressRange. Where AtomicPackedAddress is purpose-built for
// the allocator's own bump cursors, this is a general-purpose atomic
// pointer-to-an-allocation. No collection in this package stores one; the
// channel's "next generation" link is a SharedOption[AddressRange].
type AtomicAddressRange struct {
	bits atomic.Uint64
}

// NewAtomicAddressRange returns an AtomicAddressRange initialized to r.
func NewAtomicAddressRange(r AddressRange) AtomicAddressRange {
	var a AtomicAddressRange
	a.bits.Store(r.ToUint64())
	return a
}

func (a *AtomicAddressRange) Load() AddressRange {
	return AddressRangeFromUint64(a.bits.Load())
}

func (a *AtomicAddressRange) Store(r AddressRange) {
	a.bits.Store(r.ToUint64())
}

func (a *AtomicAddressRange) CompareAndSwap(old, new AddressRange) bool {
	return a.bits.CompareAndSwap(old.ToUint64(), new.ToUint64())
}

func (AtomicAddressRange) volatileSafe() {}

package shmem

import (
	"fmt"
	"unsafe"

	log "github.com/sirupsen/logrus"
)

// ShmemAllocator is the cross-process bump allocator: one bootstrap
// segment holding a size-class-indexed table of atomic cursors, plus
// however many object segments those cursors have handed
// bytes out of. Every method is safe to call concurrently from any number
// of goroutines in any number of processes that have all opened the same
// bootstrap segment.
type ShmemAllocator struct {
	bootstrap *SegmentHandle
	header    *bootstrapHeader
	table     *segmentTable
}

// NewAllocator creates a brand-new bootstrap segment and the allocator
// rooted at it. Call Name afterwards and hand the result to peer processes,
// which should call Bootstrap(name) before their own first Default() call.
func NewAllocator() (*ShmemAllocator, error) {
	handle, err := CreateSegment(bootstrapHeaderSize())
	if err != nil {
		return nil, err
	}
	header := (*bootstrapHeader)(unsafe.Pointer(&handle.Bytes()[0]))
	header.selfName = handle.Name()
	header.segmentUsed[0].Store(true)
	header.segmentNames[0] = handle.Name()
	header.numSegments.Store(1)

	a := &ShmemAllocator{bootstrap: handle, header: header, table: newSegmentTable()}
	a.table.publish(0, handle)
	log.WithField("bootstrap", handle.Name().String()).Info("created shmem allocator")
	return a, nil
}

// OpenAllocator attaches to an existing bootstrap segment by name, as
// published by a peer process's NewAllocator call.
func OpenAllocator(name string) (*ShmemAllocator, error) {
	sn, err := NewShmemName(name)
	if err != nil {
		return nil, err
	}
	handle, err := OpenSegment(sn)
	if err != nil {
		return nil, err
	}
	header := (*bootstrapHeader)(unsafe.Pointer(&handle.Bytes()[0]))

	a := &ShmemAllocator{bootstrap: handle, header: header, table: newSegmentTable()}
	a.table.publish(0, handle)
	log.WithField("bootstrap", name).Info("opened shmem allocator")
	return a, nil
}

// Name returns the bootstrap segment's OS name.
func (a *ShmemAllocator) Name() string {
	return a.bootstrap.Name().String()
}

// Close unmaps the bootstrap segment (and every object segment this process
// has opened) from this process, without affecting any other process
// attached to the same shared memory.
func (a *ShmemAllocator) Close() error {
	a.table.mu.Lock()
	for id, h := range a.table.handles {
		if id == 0 {
			continue
		}
		h.Close()
	}
	a.table.mu.Unlock()
	return a.bootstrap.Close()
}

// AllocBytes hands out the next size-byte object from the size class that
// size rounds up to. It never blocks on another process: the fast path is
// one atomic fetch-add, and the slow (segment-exhausted) path is a bounded
// CAS retry loop that plants a freshly grown segment at most once per
// racing group of callers.
func (a *ShmemAllocator) AllocBytes(size int) (AddressRange, error) {
	class := CeilObjectSize(size)
	cursor := &a.header.unused[class]

	for {
		before, beforeOK, afterOK := cursor.FetchAdd(class)
		if beforeOK && afterOK {
			if uint64(before.ObjectOffset())+class.ToBytes() <= before.SegmentSizeClass().ToBytes() {
				return newAddressRange(before.SegmentID(), before.SegmentSizeClass(), before.ObjectOffset(), class), nil
			}
			// The object would run past the end of the current segment:
			// undo the add so growClass's CompareAndSwap against before
			// can install a fresh segment.
			cursor.bits.Add(0 - class.ToBytes())
		}
		if err := a.growClass(class, cursor, before); err != nil {
			return AddressRange{}, err
		}
	}
}

// growClass plants a fresh, empty segment as the cursor for class, racing
// harmlessly with any other goroutine or process doing the same: exactly
// one CompareAndSwap against the failed value wins, and every caller
// (winner or loser) simply retries its fetch-add against whatever segment
// ends up installed.
func (a *ShmemAllocator) growClass(class ObjectSize, cursor *AtomicPackedAddress, failed PackedAddress) error {
	prevSizeClass := failed.SegmentSizeClass()
	newSizeClass := prevSizeClass + 1
	if prevSizeClass == 0 {
		newSizeClass = class + 4
		if newSizeClass < 12 {
			newSizeClass = 12
		}
	}

	handle, err := CreateSegment(int(newSizeClass.ToBytes()))
	if err != nil {
		return err
	}
	slot, ok := claimSegmentSlot(a.header.segmentUsed[:], 1)
	if !ok {
		handle.Close()
		return fmt.Errorf("%w: no free segment slots", ErrOutOfSegments)
	}
	a.header.segmentNames[slot] = handle.Name()
	a.header.numSegments.Add(1)
	a.table.publish(uint16(slot), handle)
	log.WithFields(log.Fields{"slot": slot, "class": class, "segmentSizeClass": newSizeClass}).
		Debug("grew size class")

	fresh := NewPackedAddress(uint16(slot), newSizeClass, 0)
	// If we lost the race, the segment we just created is simply never
	// referenced by the cursor again; it stays mapped and published under
	// its slot (harmless, if wasteful) rather than torn down mid-race.
	cursor.CompareAndSwap(failed, fresh)
	return nil
}

// AllocSegment creates a dedicated segment at least size bytes long and
// returns an AddressRange spanning it in full, bypassing the size-class
// bump cursors entirely. SharedVec and SharedChannel use this for their
// backing storage, since those need one large contiguous region rather
// than a stream of small bump-allocated objects.
func (a *ShmemAllocator) AllocSegment(size int) (AddressRange, error) {
	sizeClass := CeilObjectSize(size)
	handle, err := CreateSegment(int(sizeClass.ToBytes()))
	if err != nil {
		return AddressRange{}, err
	}
	slot, ok := claimSegmentSlot(a.header.segmentUsed[:], 1)
	if !ok {
		handle.Close()
		return AddressRange{}, fmt.Errorf("%w: no free segment slots", ErrOutOfSegments)
	}
	a.header.segmentNames[slot] = handle.Name()
	a.header.numSegments.Add(1)
	a.table.publish(uint16(slot), handle)
	return newAddressRange(uint16(slot), sizeClass, 0, sizeClass), nil
}

// GetBytes resolves an AddressRange into the live shared bytes it
// describes, opening its segment in this process if this is the first time
// this process has seen that segment id.
func (a *ShmemAllocator) GetBytes(r AddressRange) ([]byte, error) {
	if r.IsNull() {
		return nil, ErrNullAddress
	}
	handle, err := a.resolveSegment(r.SegmentID())
	if err != nil {
		return nil, err
	}
	end := r.ObjectEnd()
	if end > uint64(handle.Len()) {
		return nil, fmt.Errorf("%w: offset %d+%d exceeds segment length %d",
			ErrUnreachableAddress, r.ObjectOffset(), r.ObjectSize(), handle.Len())
	}
	return handle.Bytes()[r.ObjectOffset():end], nil
}

// FreeBytes is a best-effort no-op: this allocator never reclaims
// individual objects, the same bump-allocator-with-no-general-free design
// the Rust original uses. It exists for API symmetry with AllocBytes and so
// callers (e.g. SharedBox's Drop-equivalent) have something to call.
func (a *ShmemAllocator) FreeBytes(AddressRange) error {
	return nil
}

func (a *ShmemAllocator) resolveSegment(id uint16) (*SegmentHandle, error) {
	if id == 0 {
		return a.bootstrap, nil
	}
	return a.table.resolve(id, func() (*SegmentHandle, error) {
		name := a.header.segmentNames[id]
		if name.IsZero() {
			return nil, fmt.Errorf("%w: segment %d not yet published", ErrUnreachableAddress, id)
		}
		return OpenSegment(name)
	})
}

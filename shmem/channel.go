package shmem

import (
	"sync/atomic"
	"time"
	"unsafe"
)

// defaultRingCapacity is a channel's first ring's slot count when
// NewChannel is called with capacity 0.
const defaultRingCapacity = 64

// ring is the fixed-capacity circular buffer a SharedChannel wraps in a
// SharedRc: a SharedVec of tri-state slots reused modulo capacity, a pair
// of send/receive cursors (both lowered by a full lap once the receive
// cursor passes capacity), and a once-set link to the larger
// ring this one grew into when it filled up. This lays out exactly the
// fields shared_channel.rs's SharedChannel struct does (buffer, start,
// finish, grown); the Go port keeps the rc wrapper and the ring contents
// as two cooperating types (SharedChannel / ring) rather than one,
// because SharedRc[T] already owns the reference-counting half of that
// struct and there is no reason to duplicate it here.
type ring[T any] struct {
	buffer    SharedVec[SharedOption[T]]
	start     atomic.Uint64
	finish    atomic.Uint64
	grown     SharedOption[AddressRange]
	eventWord uint32
}

func newRingIn[T any](alloc *ShmemAllocator, capacity uint32) (ring[T], error) {
	buffer, err := NewVecIn[SharedOption[T]](alloc, int(capacity))
	if err != nil {
		return ring[T]{}, err
	}
	return ring[T]{buffer: buffer}, nil
}

func (r *ring[T]) event() event {
	return newEvent(unsafe.Pointer(&r.eventWord))
}

// slot resolves the buffer element at the given cursor value modulo the
// ring's capacity, the same "index % capacity" addressing
// shared_channel.rs's try_send/try_recv use to reuse slots indefinitely
// instead of growing on every wraparound.
func (r *ring[T]) slot(alloc *ShmemAllocator, index uint64) (*SharedOption[T], error) {
	cells, err := r.buffer.cellsIn(alloc)
	if err != nil {
		return nil, err
	}
	return Deref(cells[index%uint64(r.buffer.Len())]), nil
}

// SharedChannel is an unbounded MPMC queue: a SharedRc<ring<T>> that, once
// its ring fills, atomically links in a freshly allocated larger ring and
// forwards every subsequent send/receive to it. Both the growth protocol
// and the wraparound renormalization in Send/Recv below are direct ports
// of shared_channel.rs's try_send/try_recv.
type SharedChannel[T any] struct {
	rc SharedRc[ring[T]]
}

// NewChannelIn allocates a channel out of alloc with capacity as its
// first ring's size (defaultRingCapacity if 0).
func NewChannelIn[T any](alloc *ShmemAllocator, capacity uint32) (SharedChannel[T], error) {
	if capacity == 0 {
		capacity = defaultRingCapacity
	}
	r, err := newRingIn[T](alloc, capacity)
	if err != nil {
		return SharedChannel[T]{}, err
	}
	rc, err := NewRcIn(alloc, r)
	if err != nil {
		return SharedChannel[T]{}, err
	}
	return SharedChannel[T]{rc: rc}, nil
}

// NewChannel is NewChannelIn against the process-wide Default allocator.
func NewChannel[T any](capacity uint32) (SharedChannel[T], error) {
	return NewChannelIn[T](Default(), capacity)
}

// ChannelFromAddressIn reconstructs a channel handle from a raw address
// received from another process (e.g. over a command line), claiming a
// reference on the underlying SharedRc via RcFromAddressIn.
func ChannelFromAddressIn[T any](alloc *ShmemAllocator, addr AddressRange) (SharedChannel[T], error) {
	rc, err := RcFromAddressIn[ring[T]](alloc, addr)
	if err != nil {
		return SharedChannel[T]{}, err
	}
	return SharedChannel[T]{rc: rc}, nil
}

// ChannelFromAddress is ChannelFromAddressIn against the process-wide
// Default allocator.
func ChannelFromAddress[T any](addr AddressRange) (SharedChannel[T], error) {
	return ChannelFromAddressIn[T](Default(), addr)
}

// Address returns the range backing this channel's current ring, to hand
// to another process.
func (c *SharedChannel[T]) Address() AddressRange {
	return c.rc.Address()
}

// SendIn enqueues value via alloc, following and growing the ring chain
// exactly as shared_channel.rs's SharedSender::try_send does. It never
// blocks.
func (c *SharedChannel[T]) SendIn(alloc *ShmemAllocator, value T) error {
	for {
		r, err := c.rc.dataPtrIn(alloc)
		if err != nil {
			return err
		}

		if grownAddr, ok := r.grown.Peek(); ok {
			grown, err := RcFromAddressIn[ring[T]](alloc, grownAddr)
			if err != nil {
				return err
			}
			c.rc = grown
			continue
		}

		index := r.finish.Add(1) - 1
		slot, err := r.slot(alloc, index)
		if err != nil {
			return err
		}
		if slot.TrySet(value) {
			r.event().Signal()
			return nil
		}

		// The claimed slot was still occupied: the ring has lapped a
		// consumer that hasn't caught up, which this package treats the
		// same as true capacity exhaustion. Give the claimed index back so
		// finish stops where this ring's last value went, then allocate a
		// bigger ring, try to install it as `grown`, and retry (a losing
		// racer's ring is left mapped but unreferenced, same tradeoff as
		// ShmemAllocator.growClass).
		r.finish.Add(0 - 1)
		newCapacity := uint32(r.buffer.Len()) * 2
		newRing, err := newRingIn[T](alloc, newCapacity)
		if err != nil {
			return err
		}
		newRc, err := NewRcIn(alloc, newRing)
		if err != nil {
			return err
		}
		r.grown.TrySet(newRc.Address())
		r.event().Signal()
	}
}

// Send is SendIn against the process-wide Default allocator.
func (c *SharedChannel[T]) Send(value T) error {
	return c.SendIn(Default(), value)
}

// TryRecvIn removes and returns the next value via alloc without
// blocking, reporting false if the ring is currently empty.
func (c *SharedChannel[T]) TryRecvIn(alloc *ShmemAllocator) (T, bool, error) {
	var zero T
	for {
		r, err := c.rc.dataPtrIn(alloc)
		if err != nil {
			return zero, false, err
		}

		index := r.start.Add(1) - 1
		capacity := uint64(r.buffer.Len())
		slot, err := r.slot(alloc, index)
		if err != nil {
			return zero, false, err
		}
		if v, ok := slot.TryTake(); ok {
			if index >= capacity {
				// Lapped the buffer once: fold both cursors back down by a
				// full lap so they never grow unbounded, mirroring
				// shared_channel.rs's renormalization step.
				r.start.Add(0 - capacity)
				r.finish.Add(0 - capacity)
			}
			return v, true, nil
		}

		if grownAddr, ok := r.grown.Peek(); ok && index == r.finish.Load() {
			// Caught up to exactly the point the writer that triggered
			// growth stopped producing into this ring: every index from
			// here on only exists in the grown ring, so follow it.
			grown, err := RcFromAddressIn[ring[T]](alloc, grownAddr)
			if err != nil {
				return zero, false, err
			}
			c.rc = grown
			continue
		}

		r.start.Add(0 - 1) // undo the claim: nothing was here to take
		return zero, false, nil
	}
}

// TryRecv is TryRecvIn against the process-wide Default allocator.
func (c *SharedChannel[T]) TryRecv() (T, bool, error) {
	return c.TryRecvIn(Default())
}

// RecvIn blocks until a value is available via alloc or timeout elapses
// (0 waits forever).
func (c *SharedChannel[T]) RecvIn(alloc *ShmemAllocator, timeout time.Duration) (T, bool, error) {
	var zero T
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	for {
		v, ok, err := c.TryRecvIn(alloc)
		if err != nil || ok {
			return v, ok, err
		}

		r, err := c.rc.dataPtrIn(alloc)
		if err != nil {
			return zero, false, err
		}

		remaining := time.Duration(0)
		if !deadline.IsZero() {
			remaining = time.Until(deadline)
			if remaining <= 0 {
				return zero, false, nil
			}
		}
		r.event().Wait(remaining)
	}
}

// Recv is RecvIn against the process-wide Default allocator.
func (c *SharedChannel[T]) Recv(timeout time.Duration) (T, bool, error) {
	return c.RecvIn(Default(), timeout)
}

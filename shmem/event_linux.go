//go:build linux

package shmem

import (
	"sync/atomic"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// event is the cross-process condition word a blocking Recv waits on: a
// single uint32 living inside shared memory that any process holding the
// mapping can wait on or wake. On Linux this is a literal futex word, so
// waiting costs nothing but a syscall when there's actually no data yet,
// and waking is a single FUTEX_WAKE broadcast — no separate named OS
// object is needed beyond the segment mapping itself.
type event struct {
	word *uint32
}

// newEvent wraps the uint32 at ptr as an event word. The caller owns the
// memory; multiple processes mapping the same segment and calling newEvent
// on the same offset rendezvous on the same futex automatically, since
// Linux futexes are identified by physical address.
func newEvent(ptr unsafe.Pointer) event {
	return event{word: (*uint32)(ptr)}
}

// Signal wakes every waiter currently blocked in Wait.
func (e event) Signal() {
	atomic.AddUint32(e.word, 1)
	_ = unix.Futex(e.word, unix.FUTEX_WAKE, 1<<30, nil, nil, 0)
}

// Wait blocks until Signal is called (by any process sharing this word) or
// timeout elapses. A zero timeout waits forever. Wait only ever blocks: it
// is never on the fast non-blocking (SendIn/TryRecvIn) path of this
// package — only Recv suspends.
func (e event) Wait(timeout time.Duration) {
	seen := atomic.LoadUint32(e.word)
	var ts *unix.Timespec
	if timeout > 0 {
		ts = &unix.Timespec{
			Sec:  int64(timeout / time.Second),
			Nsec: int64(timeout % time.Second),
		}
	}
	// FUTEX_WAIT only returns once the word no longer equals seen (or the
	// timeout elapses, or a spurious wake happens) -- callers always
	// re-check their real condition in a loop, so a spurious return here
	// is harmless.
	_ = unix.Futex(e.word, unix.FUTEX_WAIT, seen, ts, nil, 0)
}

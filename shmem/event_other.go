//go:build !linux

package shmem

import (
	"sync/atomic"
	"time"
	"unsafe"
)

// pollInterval is how often a blocked Wait rechecks the word on platforms
// without a futex-equivalent wired up. golang.org/x/sys/unix does not
// expose a portable cross-process wait primitive outside Linux, so this
// falls back to the well-known spin/poll substitute; it only affects the
// blocking Recv path, never the non-blocking SendIn/TryRecvIn path.
const pollInterval = 500 * time.Microsecond

type event struct {
	word *uint32
}

func newEvent(ptr unsafe.Pointer) event {
	return event{word: (*uint32)(ptr)}
}

func (e event) Signal() {
	atomic.AddUint32(e.word, 1)
}

func (e event) Wait(timeout time.Duration) {
	seen := atomic.LoadUint32(e.word)
	deadline := time.Time{}
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	for atomic.LoadUint32(e.word) == seen {
		if !deadline.IsZero() && time.Now().After(deadline) {
			return
		}
		time.Sleep(pollInterval)
	}
}

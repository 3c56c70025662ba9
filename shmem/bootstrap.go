package shmem

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"
)

// sizeOf returns the in-memory byte size of a value's type, used to size
// the OS segment backing a fixed-layout struct that gets cast directly onto
// mapped bytes.
func sizeOf[T any](v T) uintptr {
	return unsafe.Sizeof(v)
}

// maxSegments bounds how many OS segments one bootstrap can ever publish.
// Exhausting it surfaces as ErrOutOfSegments.
const maxSegments = 4096

// numSizeClasses is the width of the per-size-class bump-cursor table: an
// ObjectSize never exceeds 63 (1<<64 would overflow a byte count), so 64
// cursors cover every class an allocation can ever round up to.
const numSizeClasses = 64

// bootstrapHeader is the fixed-layout metadata block living at offset 0 of
// the bootstrap segment (segment id 0). It is mapped directly onto shared
// bytes via an unsafe pointer cast — the same "cast the base of a mapping
// to a *struct" idiom cznic/memory uses for its page header — so its field
// order and types are load-bearing: every field here is either a plain
// value written at most once (selfName, segmentNames) or an atomic type
// safe to race on.
type bootstrapHeader struct {
	selfName     ShmemName
	numSegments  atomic.Uint64
	eventWord    uint32
	_            uint32
	segmentUsed  [maxSegments]atomic.Bool
	segmentNames [maxSegments]ShmemName
	unused       [numSizeClasses]AtomicPackedAddress
}

func bootstrapHeaderSize() int {
	var h bootstrapHeader
	return int(sizeOf(h))
}

// claimSegmentSlot scans segmentUsed starting at startHint for the first
// false->true transition, a linear-probe-with-CAS-swap loop. Factored out
// as a function over a plain slice (rather than inlined against the
// fixed-size array) so
// it can be exercised directly against a small slice in tests without
// needing to actually exhaust thousands of real segments.
func claimSegmentSlot(used []atomic.Bool, startHint int) (int, bool) {
	for i := startHint; i < len(used); i++ {
		if !used[i].Swap(true) {
			return i, true
		}
	}
	return 0, false
}

var (
	bootstrapOnce sync.Once
	bootstrapName string
	defaultAlloc  *ShmemAllocator
)

// Bootstrap records the name of a peer-published bootstrap segment to open
// instead of creating a fresh one. It must be called before the first call
// to Default (every unsuffixed constructor in this package — NewBox,
// NewRc, NewOption, NewVec, NewChannel — resolves the process-wide
// allocator through Default); calling it afterwards has no effect. Absent
// any call to Bootstrap, Default creates a brand-new bootstrap segment
// instead of opening one.
func Bootstrap(name string) {
	bootstrapOnce.Do(func() {
		bootstrapName = name
	})
}

// bootstrapInit guards Default's one-time creation or opening of the
// process-wide allocator.
var bootstrapInit sync.Once

// Default returns the process-wide allocator, creating or opening its
// bootstrap segment on first use depending on whether Bootstrap(name) was
// called beforehand.
func Default() *ShmemAllocator {
	bootstrapInit.Do(func() {
		var alloc *ShmemAllocator
		var err error
		if bootstrapName != "" {
			alloc, err = OpenAllocator(bootstrapName)
		} else {
			alloc, err = NewAllocator()
		}
		if err != nil {
			panic(fmt.Sprintf("shmem: failed to initialize default allocator: %v", err))
		}
		defaultAlloc = alloc
	})
	return defaultAlloc
}

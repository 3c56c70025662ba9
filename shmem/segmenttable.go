package shmem

import "sync"

// segmentTable is this process's lazily-populated cache from segment id to
// an opened SegmentHandle. Every PackedAddress/AddressRange only carries a
// segment id; resolving that id into actual mapped bytes costs an mmap the
// first time and nothing thereafter, so a process keeps at most one open
// handle per segment (see resolve for the race where two opens happen).
type segmentTable struct {
	mu      sync.RWMutex
	handles map[uint16]*SegmentHandle
}

func newSegmentTable() *segmentTable {
	return &segmentTable{handles: make(map[uint16]*SegmentHandle)}
}

// resolve returns the handle for id, calling open to map it at most once
// per process. Concurrent resolves of the same never-before-seen id race
// harmlessly: the loser's open result (if it even got that far) is simply
// discarded in favor of whichever goroutine's write landed first under the
// lock.
func (t *segmentTable) resolve(id uint16, open func() (*SegmentHandle, error)) (*SegmentHandle, error) {
	t.mu.RLock()
	h, ok := t.handles[id]
	t.mu.RUnlock()
	if ok {
		return h, nil
	}

	h, err := open()
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.handles[id]; ok {
		h.Close()
		return existing, nil
	}
	t.handles[id] = h
	return h, nil
}

// publish installs a handle this process already opened or created
// directly (e.g. right after winning a segment-growth race), so a later
// resolve for the same id is a map lookup instead of a redundant open.
func (t *segmentTable) publish(id uint16, h *SegmentHandle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.handles[id]; !ok {
		t.handles[id] = h
	}
}

package shmem

import (
	"fmt"
	"math/rand"

	log "github.com/sirupsen/logrus"
)

// SegmentHandle is a thin wrapper over one named OS shared-memory segment:
// a base mapping plus its length, scoped to this process. Two processes
// that open the same name see the same bytes; writes one makes are visible
// to the other without any further synchronization from this type — that
// discipline lives in VolatileCell, not here.
type SegmentHandle struct {
	name  ShmemName
	bytes []byte
}

// CreateSegment creates a brand-new segment of at least size bytes under a
// randomly generated name, and maps it into this process.
func CreateSegment(size int) (*SegmentHandle, error) {
	for attempt := 0; attempt < 8; attempt++ {
		name, err := NewShmemName(randomSegmentName())
		if err != nil {
			return nil, err
		}
		b, err := platformCreate(name.String(), size)
		if err == errSegmentExists {
			continue // name collision, vanishingly unlikely; try another
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrOutOfMemory, err)
		}
		log.WithFields(log.Fields{"segment": name.String(), "size": len(b)}).Debug("created shared segment")
		return &SegmentHandle{name: name, bytes: b}, nil
	}
	return nil, fmt.Errorf("%w: exhausted name attempts", ErrOutOfMemory)
}

// OpenSegment attaches to an existing segment by name.
func OpenSegment(name ShmemName) (*SegmentHandle, error) {
	b, err := platformOpen(name.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachableAddress, err)
	}
	log.WithFields(log.Fields{"segment": name.String(), "size": len(b)}).Debug("opened shared segment")
	return &SegmentHandle{name: name, bytes: b}, nil
}

// Name returns the segment's OS name, for handing to a peer process.
func (s *SegmentHandle) Name() ShmemName {
	return s.name
}

// Bytes returns the mapped region.
func (s *SegmentHandle) Bytes() []byte {
	return s.bytes
}

// Len returns the mapped region's length in bytes.
func (s *SegmentHandle) Len() int {
	return len(s.bytes)
}

// Close unmaps the segment from this process. It does not destroy the
// underlying OS object; freeing/destruction is deferred to process exit
// in this design.
func (s *SegmentHandle) Close() error {
	if s.bytes == nil {
		return nil
	}
	err := platformUnmap(s.bytes)
	s.bytes = nil
	return err
}

// randomSegmentName produces a short printable name distinct enough to
// avoid collisions between concurrently racing allocators. math/rand's
// package-level source is seeded automatically (Go 1.20+); this name is
// never used as a security boundary, only as an OS object key, so a
// non-cryptographic source is the right tool.
func randomSegmentName() string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	buf := make([]byte, 16)
	for i := range buf {
		buf[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return "shmem-" + string(buf)
}

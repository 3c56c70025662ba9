package shmem

import "errors"

// Error kinds surfaced by the core, often wrapped with context via
// fmt.Errorf's %w. The New* constructors return these errors; MustNewBox is
// the only panicking constructor.
var (
	// ErrOutOfSegments is returned when the segment table is full
	// (maxSegments reached).
	ErrOutOfSegments = errors.New("shmem: out of segments")

	// ErrOutOfMemory is returned when the OS refused to create a segment.
	ErrOutOfMemory = errors.New("shmem: out of memory")

	// ErrUnreachableAddress is returned when GetBytes cannot open the
	// segment a PackedAddress refers to (permission, deletion, or a
	// segment id past the publication count).
	ErrUnreachableAddress = errors.New("shmem: unreachable shared address")

	// ErrNameTooLong is returned when an OS-provided segment name exceeds
	// the 32-byte bound of ShmemName.
	ErrNameTooLong = errors.New("shmem: segment name too long")

	// ErrNullAddress is returned by operations that reject the null
	// PackedAddress (the all-zero bit pattern).
	ErrNullAddress = errors.New("shmem: null address")

	// ErrTooSmall is returned by the FromAddress/FromAddressIn family when
	// the address range's declared object size class is smaller than
	// sizeof(T).
	ErrTooSmall = errors.New("shmem: address range too small for type")
)

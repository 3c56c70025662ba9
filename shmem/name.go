package shmem

import "fmt"

// maxNameLen bounds a ShmemName to what fits in a bootstrapHeader slot and
// what every platform's shared-memory namespace accepts.
const maxNameLen = 32

// ShmemName is a short, fixed-width, printable name identifying one OS
// shared-memory segment. It is stored by value inside the bootstrap
// segment's segmentNames table, so every participating process can read it
// directly out of shared bytes without a second allocation.
type ShmemName struct {
	data [maxNameLen]byte
	n    uint8
}

// NewShmemName validates and wraps name. It fails if name is empty or
// longer than 32 bytes.
func NewShmemName(name string) (ShmemName, error) {
	var out ShmemName
	if len(name) == 0 || len(name) > maxNameLen {
		return out, fmt.Errorf("%w: %q is %d bytes", ErrNameTooLong, name, len(name))
	}
	copy(out.data[:], name)
	out.n = uint8(len(name))
	return out, nil
}

// String returns the name as a Go string.
func (n ShmemName) String() string {
	return string(n.data[:n.n])
}

// IsZero reports whether n is the zero value (an unpublished slot).
func (n ShmemName) IsZero() bool {
	return n.n == 0
}

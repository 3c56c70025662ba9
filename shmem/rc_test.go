package shmem

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSharedRcRefCounting(t *testing.T) {
	alloc, err := NewAllocator()
	require.NoError(t, err)
	defer alloc.Close()

	rc, err := NewRcIn(alloc, "shared string")
	require.NoError(t, err)

	count, err := rc.RefCountIn(alloc)
	require.NoError(t, err)
	require.Equal(t, uint64(1), count)

	clone, err := rc.CloneIn(alloc)
	require.NoError(t, err)

	count, err = rc.RefCountIn(alloc)
	require.NoError(t, err)
	require.Equal(t, uint64(2), count)

	v, err := clone.GetIn(alloc)
	require.NoError(t, err)
	require.Equal(t, "shared string", v)

	require.NoError(t, clone.DropIn(alloc))
	count, err = rc.RefCountIn(alloc)
	require.NoError(t, err)
	require.Equal(t, uint64(1), count)

	require.NoError(t, rc.DropIn(alloc))
}

func TestSharedRcDropAtZeroFrees(t *testing.T) {
	alloc, err := NewAllocator()
	require.NoError(t, err)
	defer alloc.Close()

	rc, err := NewRcIn(alloc, 7)
	require.NoError(t, err)
	// FreeBytes is a best-effort no-op today, so this mainly asserts Drop
	// never errors on the last reference.
	require.NoError(t, rc.DropIn(alloc))
}

func TestSharedRcFromAddressClaimsAReference(t *testing.T) {
	alloc, err := NewAllocator()
	require.NoError(t, err)
	defer alloc.Close()

	rc, err := NewRcIn(alloc, 123)
	require.NoError(t, err)

	viewed, err := RcFromAddressIn[int](alloc, rc.Address())
	require.NoError(t, err)

	count, err := rc.RefCountIn(alloc)
	require.NoError(t, err)
	require.Equal(t, uint64(2), count, "RcFromAddressIn must claim a reference, not merely peek")

	v, err := viewed.GetIn(alloc)
	require.NoError(t, err)
	require.Equal(t, 123, v)

	require.NoError(t, viewed.DropIn(alloc))
	require.NoError(t, rc.DropIn(alloc))
}

func TestSharedRcFromAddressRejectsUndersizedRange(t *testing.T) {
	alloc, err := NewAllocator()
	require.NoError(t, err)
	defer alloc.Close()

	small, err := NewRcIn(alloc, byte(1))
	require.NoError(t, err)

	_, err = RcFromAddressIn[[256]byte](alloc, small.Address())
	require.ErrorIs(t, err, ErrTooSmall)
}

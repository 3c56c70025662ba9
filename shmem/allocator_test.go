package shmem

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocatorAllocBytesRoundTrip(t *testing.T) {
	alloc, err := NewAllocator()
	require.NoError(t, err)
	defer alloc.Close()

	addr, err := alloc.AllocBytes(64)
	require.NoError(t, err)
	require.False(t, addr.IsNull())

	b, err := alloc.GetBytes(addr)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(b), 64)

	copy(b, []byte("hello, shared memory"))
	again, err := alloc.GetBytes(addr)
	require.NoError(t, err)
	require.Equal(t, "hello, shared memory", string(again[:len("hello, shared memory")]))
}

func TestAllocatorAllocBytesReturnsDistinctAddresses(t *testing.T) {
	alloc, err := NewAllocator()
	require.NoError(t, err)
	defer alloc.Close()

	seen := map[uint64]bool{}
	for i := 0; i < 256; i++ {
		addr, err := alloc.AllocBytes(16)
		require.NoError(t, err)
		bits := addr.ToUint64()
		require.False(t, seen[bits], "address %x handed out twice", bits)
		seen[bits] = true
	}
}

func TestAllocatorGrowsSizeClassWhenSegmentFills(t *testing.T) {
	alloc, err := NewAllocator()
	require.NoError(t, err)
	defer alloc.Close()

	// A size class 12 (4096 byte) segment holds 256 objects of 16 bytes;
	// allocating well past that forces at least one growClass retry.
	var last AddressRange
	for i := 0; i < 4096; i++ {
		addr, err := alloc.AllocBytes(16)
		require.NoError(t, err)
		last = addr
	}
	require.Greater(t, last.SegmentID(), uint16(0), "growth should have produced a segment beyond the bootstrap")

	b, err := alloc.GetBytes(last)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(b), 16)
}

func TestAllocatorAllocSegment(t *testing.T) {
	alloc, err := NewAllocator()
	require.NoError(t, err)
	defer alloc.Close()

	addr, err := alloc.AllocSegment(8192)
	require.NoError(t, err)
	require.Equal(t, uint32(0), addr.ObjectOffset())
	require.GreaterOrEqual(t, addr.ObjectSize(), uint64(8192))

	b, err := alloc.GetBytes(addr)
	require.NoError(t, err)
	require.Len(t, b, int(addr.ObjectSize()))
}

func TestOpenAllocatorSeesPeerAllocations(t *testing.T) {
	creator, err := NewAllocator()
	require.NoError(t, err)
	defer creator.Close()

	addr, err := creator.AllocBytes(32)
	require.NoError(t, err)
	b, err := creator.GetBytes(addr)
	require.NoError(t, err)
	copy(b, []byte("visible across processes"))

	peer, err := OpenAllocator(creator.Name())
	require.NoError(t, err)
	defer peer.Close()

	got, err := peer.GetBytes(addr)
	require.NoError(t, err)
	require.Equal(t, "visible across processes", string(got[:len("visible across processes")]))
}

func TestGetBytesRejectsNullAddress(t *testing.T) {
	alloc, err := NewAllocator()
	require.NoError(t, err)
	defer alloc.Close()

	_, err = alloc.GetBytes(NullAddressRange)
	require.ErrorIs(t, err, ErrNullAddress)
}

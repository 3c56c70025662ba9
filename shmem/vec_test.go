package shmem

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSharedVecGetSet(t *testing.T) {
	alloc, err := NewAllocator()
	require.NoError(t, err)
	defer alloc.Close()

	v, err := NewVecIn[int64](alloc, 10)
	require.NoError(t, err)
	require.Equal(t, 10, v.Len())

	got, err := v.GetIn(alloc, 0)
	require.NoError(t, err)
	require.Equal(t, int64(0), got, "a fresh vector must start zeroed")

	require.NoError(t, v.SetIn(alloc, 5, 123))
	got, err = v.GetIn(alloc, 5)
	require.NoError(t, err)
	require.Equal(t, int64(123), got)

	got, err = v.GetIn(alloc, 4)
	require.NoError(t, err)
	require.Equal(t, int64(0), got, "writing index 5 must not disturb index 4")
}

func TestSharedVecOutOfRange(t *testing.T) {
	alloc, err := NewAllocator()
	require.NoError(t, err)
	defer alloc.Close()

	v, err := NewVecIn[byte](alloc, 4)
	require.NoError(t, err)

	_, err = v.GetIn(alloc, 4)
	require.Error(t, err)
	_, err = v.GetIn(alloc, -1)
	require.Error(t, err)
	require.Error(t, v.SetIn(alloc, 10, 1))
}

func TestSharedVecIteration(t *testing.T) {
	alloc, err := NewAllocator()
	require.NoError(t, err)
	defer alloc.Close()

	v, err := NewVecIn[int32](alloc, 16)
	require.NoError(t, err)
	for i := 0; i < v.Len(); i++ {
		require.NoError(t, v.SetIn(alloc, i, int32(i*i)))
	}
	for i := 0; i < v.Len(); i++ {
		got, err := v.GetIn(alloc, i)
		require.NoError(t, err)
		require.Equal(t, int32(i*i), got)
	}
}

func TestSharedVecOfSharedOption(t *testing.T) {
	alloc, err := NewAllocator()
	require.NoError(t, err)
	defer alloc.Close()

	v, err := NewVecIn[SharedOption[int]](alloc, 4)
	require.NoError(t, err)

	cells, err := v.cellsIn(alloc)
	require.NoError(t, err)
	require.Len(t, cells, 4)

	slot := Deref(cells[2])
	require.False(t, slot.IsFull())
	require.True(t, slot.TrySet(7))

	again := Deref(cells[2])
	v2, ok := again.TryTake()
	require.True(t, ok)
	require.Equal(t, 7, v2)
}

package shmem

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// optionPtr resolves a standalone SharedBox[SharedOption[T]] (as returned
// by NewOptionIn) to the live *SharedOption[T] its methods operate on.
func optionPtr[T any](t *testing.T, alloc *ShmemAllocator, box SharedBox[SharedOption[T]]) *SharedOption[T] {
	t.Helper()
	cell, err := box.CellIn(alloc)
	require.NoError(t, err)
	return Deref(cell)
}

func TestSharedOptionSetTakeCycle(t *testing.T) {
	alloc, err := NewAllocator()
	require.NoError(t, err)
	defer alloc.Close()

	box, err := NewOptionIn[int64](alloc)
	require.NoError(t, err)
	opt := optionPtr(t, alloc, box)

	require.False(t, opt.IsFull())

	_, ok := opt.TryTake()
	require.False(t, ok, "TryTake on an empty option must report false")

	require.True(t, opt.TrySet(99))
	require.False(t, opt.TrySet(100), "TrySet on a full option must report false")

	v, ok := opt.TryTake()
	require.True(t, ok)
	require.Equal(t, int64(99), v)

	require.False(t, opt.IsFull())
}

func TestSharedOptionPeekDoesNotConsume(t *testing.T) {
	alloc, err := NewAllocator()
	require.NoError(t, err)
	defer alloc.Close()

	box, err := NewOptionIn[string](alloc)
	require.NoError(t, err)
	opt := optionPtr(t, alloc, box)

	_, ok := opt.Peek()
	require.False(t, ok)

	require.True(t, opt.TrySet("hello"))
	v, ok := opt.Peek()
	require.True(t, ok)
	require.Equal(t, "hello", v)

	// A second peek still sees the value: Peek never claims the slot.
	v, ok = opt.Peek()
	require.True(t, ok)
	require.Equal(t, "hello", v)

	taken, ok := opt.TryTake()
	require.True(t, ok)
	require.Equal(t, "hello", taken)
}

func TestSharedOptionTrySetIsExclusiveUnderRace(t *testing.T) {
	alloc, err := NewAllocator()
	require.NoError(t, err)
	defer alloc.Close()

	box, err := NewOptionIn[int](alloc)
	require.NoError(t, err)
	opt := optionPtr(t, alloc, box)

	const racers = 32
	var wg sync.WaitGroup
	wins := make([]bool, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			wins[i] = opt.TrySet(i)
		}(i)
	}
	wg.Wait()

	wonCount := 0
	for _, w := range wins {
		if w {
			wonCount++
		}
	}
	require.Equal(t, 1, wonCount, "exactly one TrySet should win the race")
}

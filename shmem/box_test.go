package shmem

import "testing"

type point struct {
	X, Y int64
}

func TestSharedBoxRoundTrip(t *testing.T) {
	alloc, err := NewAllocator()
	if err != nil {
		t.Fatalf("NewAllocator: %v", err)
	}
	defer alloc.Close()

	b, err := NewBoxIn(alloc, point{X: 3, Y: 4})
	if err != nil {
		t.Fatalf("NewBoxIn: %v", err)
	}

	got, err := b.GetIn(alloc)
	if err != nil {
		t.Fatalf("GetIn: %v", err)
	}
	if got != (point{X: 3, Y: 4}) {
		t.Fatalf("GetIn() = %+v, want {3 4}", got)
	}

	if err := b.SetIn(alloc, point{X: 9, Y: 1}); err != nil {
		t.Fatalf("SetIn: %v", err)
	}
	got, err = b.GetIn(alloc)
	if err != nil {
		t.Fatalf("GetIn after SetIn: %v", err)
	}
	if got != (point{X: 9, Y: 1}) {
		t.Fatalf("GetIn() after SetIn = %+v, want {9 1}", got)
	}
}

func TestSharedBoxFromAddress(t *testing.T) {
	alloc, err := NewAllocator()
	if err != nil {
		t.Fatalf("NewAllocator: %v", err)
	}
	defer alloc.Close()

	original, err := NewBoxIn(alloc, int64(42))
	if err != nil {
		t.Fatalf("NewBoxIn: %v", err)
	}

	viewed := BoxFromAddress[int64](original.Address())
	got, err := viewed.GetIn(alloc)
	if err != nil {
		t.Fatalf("GetIn: %v", err)
	}
	if got != 42 {
		t.Fatalf("GetIn() via BoxFromAddress = %d, want 42", got)
	}
}

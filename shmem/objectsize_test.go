package shmem

import "testing"

func TestObjectSizeToBytesIsLeftShift(t *testing.T) {
	// Regression for a historical shift-direction bug: ToBytes must grow
	// with the class, never shrink.
	for class := ObjectSize(0); class < 40; class++ {
		got := class.ToBytes()
		want := uint64(1) << uint(class)
		if got != want {
			t.Fatalf("ObjectSize(%d).ToBytes() = %d, want %d", class, got, want)
		}
		if class > 0 && got <= ObjectSize(class-1).ToBytes() {
			t.Fatalf("ObjectSize(%d).ToBytes() did not grow relative to class-1", class)
		}
	}
}

func TestCeilObjectSizeFloor(t *testing.T) {
	for _, size := range []int{0, 1, 7, 8, 9, 1023, 1024, 1025} {
		class := CeilObjectSize(size)
		if class.ToBytes() < uint64(size) {
			t.Errorf("CeilObjectSize(%d) = %d bytes, smaller than requested", size, class.ToBytes())
		}
		if class.ToBytes() < minObjectSize {
			t.Errorf("CeilObjectSize(%d) produced a class below the %d byte floor", size, minObjectSize)
		}
	}
}

func TestFloorObjectSize(t *testing.T) {
	cases := map[uint64]ObjectSize{
		1:    0,
		2:    1,
		1024: 10,
		1025: 10,
	}
	for size, want := range cases {
		if got := FloorObjectSize(size); got != want {
			t.Errorf("FloorObjectSize(%d) = %d, want %d", size, got, want)
		}
	}
}

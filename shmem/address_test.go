package shmem

import "testing"

func TestPackedAddressRoundTrip(t *testing.T) {
	a := NewPackedAddress(7, 16, 12345)
	if a.SegmentID() != 7 {
		t.Errorf("SegmentID() = %d, want 7", a.SegmentID())
	}
	if a.SegmentSizeClass() != 16 {
		t.Errorf("SegmentSizeClass() = %d, want 16", a.SegmentSizeClass())
	}
	if a.ObjectOffset() != 12345 {
		t.Errorf("ObjectOffset() = %d, want 12345", a.ObjectOffset())
	}
	if !a.IsWellFormed() {
		t.Errorf("expected %v to be well formed", a)
	}
}

func TestNullPackedAddressIsZeroAndIllFormed(t *testing.T) {
	if !NullPackedAddress.IsNull() {
		t.Fatal("NullPackedAddress.IsNull() = false")
	}
	if NullPackedAddress.IsWellFormed() {
		t.Fatal("NullPackedAddress must never be well-formed (segment size class is 0)")
	}
	// A live address can never collide with null: segment size class is
	// never zero for a real segment.
	live := NewPackedAddress(0, 12, 0)
	if live.IsNull() {
		t.Fatal("a live address with size class 12 must not read as null")
	}
}

func TestCheckedAddCarriesIntoPaddingIsDetected(t *testing.T) {
	a := NewPackedAddress(1, 12, 0xFFFFFFF0)
	_, ok := a.CheckedAdd(8) // ToBytes() == 256, overflows the 32-bit offset field
	if ok {
		t.Fatal("CheckedAdd should report overflow when the offset field carries into padding")
	}
}

func TestCheckedAddWithinBounds(t *testing.T) {
	a := NewPackedAddress(1, 20, 100)
	sum, ok := a.CheckedAdd(6) // +64 bytes
	if !ok {
		t.Fatal("CheckedAdd unexpectedly failed")
	}
	if sum.ObjectOffset() != 164 {
		t.Errorf("ObjectOffset() = %d, want 164", sum.ObjectOffset())
	}
	if sum.SegmentID() != 1 || sum.SegmentSizeClass() != 20 {
		t.Errorf("CheckedAdd must not disturb segmentID/segmentSizeClass: got %+v", sum)
	}
}

func TestAddressRangeUint64RoundTrip(t *testing.T) {
	r := newAddressRange(42, 20, 4096, 8)
	bits := r.ToUint64()
	back := AddressRangeFromUint64(bits)
	if back != r {
		t.Fatalf("round trip mismatch: %+v != %+v", back, r)
	}
}

func TestNullAddressRange(t *testing.T) {
	if !NullAddressRange.IsNull() {
		t.Fatal("NullAddressRange.IsNull() = false")
	}
	r := newAddressRange(1, 12, 0, 3)
	if r.IsNull() {
		t.Fatal("a live range with a non-zero segment size class must not read as null")
	}
}

package shmem

// PackedAddress is a 64-bit cursor used internally by the allocator: it
// names a segment, that segment's size class, and a byte offset within it.
// It is deliberately laid out so that a plain 64-bit fetch-add on the whole
// word advances only the low-order offset field:
//
//	bit 63                                               bit 0
//	[ segmentID:16 ][ segmentSizeClass:8 ][ pad:8 ][ objectOffset:32 ]
//
// The zero padding byte between the size class and the offset is a carry
// catcher: an offset addition that overflows the 32-bit offset field
// produces a non-zero padding byte, which FetchAdd detects and
// reports as ill-formed (see IsWellFormed). The all-zero 64-bit pattern is
// the sole null value; a live segment's size class is never zero, so the
// zero pattern can never collide with a real address.
type PackedAddress uint64

// NullPackedAddress is the all-zero bit pattern.
const NullPackedAddress PackedAddress = 0

// NewPackedAddress packs a segment id, segment size class, and object
// offset into a PackedAddress.
func NewPackedAddress(segmentID uint16, segmentSizeClass ObjectSize, objectOffset uint32) PackedAddress {
	return PackedAddress(uint64(objectOffset) |
		uint64(segmentSizeClass)<<40 |
		uint64(segmentID)<<48)
}

// IsNull reports whether a is the null address.
func (a PackedAddress) IsNull() bool {
	return a == NullPackedAddress
}

// SegmentID returns the segment-table index this address refers to.
func (a PackedAddress) SegmentID() uint16 {
	return uint16(a >> 48)
}

// SegmentSizeClass returns the log2 byte size of the containing segment.
func (a PackedAddress) SegmentSizeClass() ObjectSize {
	return ObjectSize(a >> 40)
}

// padding returns the carry-catcher byte. A well-formed address always has
// this at zero.
func (a PackedAddress) padding() uint8 {
	return uint8(a >> 32)
}

// ObjectOffset returns the byte offset within the segment.
func (a PackedAddress) ObjectOffset() uint32 {
	return uint32(a)
}

// IsWellFormed reports whether a has a zero padding byte and refers to a
// non-zero segment size class (i.e. a live segment). A fetch-add that
// carries out of the offset field produces a non-zero padding byte here.
// Well-formedness says nothing about the segment's length: an offset past
// the end of the segment is still well-formed, so AllocBytes checks that
// bound separately.
func (a PackedAddress) IsWellFormed() bool {
	return a.padding() == 0 && a.SegmentSizeClass() != 0
}

// CheckedAdd returns a advanced by size bytes, or (0, false) if the result
// is not well-formed (it carried into the padding byte).
func (a PackedAddress) CheckedAdd(size ObjectSize) (PackedAddress, bool) {
	sum := PackedAddress(uint64(a) + size.ToBytes())
	if !sum.IsWellFormed() {
		return 0, false
	}
	return sum, true
}

// Package pageid defines the page identifier encoding shared by every layer
// of the buffer manager: the top 16 bits select a segment (backing file),
// the low 48 bits select a page within that segment.
package pageid

import "fmt"

const segmentShift = 48

const MaxSegmentPageID = (uint64(1) << segmentShift) - 1

// SegmentID returns the segment id encoded in the top 16 bits of id.
func SegmentID(id uint64) uint16 {
	return uint16(id >> segmentShift)
}

// SegmentPageID returns the segment-local page number encoded in the low 48
// bits of id.
func SegmentPageID(id uint64) uint64 {
	return id & MaxSegmentPageID
}

// New builds a page id from a segment id and a segment-local page number.
func New(segment uint16, segmentPage uint64) uint64 {
	if segmentPage > MaxSegmentPageID {
		panic(fmt.Sprintf("segment page %d overflows 48 bits", segmentPage))
	}

	return uint64(segment)<<segmentShift | segmentPage
}

// Offset returns the byte offset of a page within its segment file.
func Offset(id uint64, pageSize uint64) int64 {
	return int64(SegmentPageID(id) * pageSize)
}

// SegmentFileName returns the on-disk name of the segment file for id: the
// decimal rendering of the segment id, no extension, no prefix.
func SegmentFileName(id uint64) string {
	return fmt.Sprintf("%d", SegmentID(id))
}

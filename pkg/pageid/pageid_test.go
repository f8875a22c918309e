package pageid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRoundTripsSegmentAndPage(t *testing.T) {
	cases := []struct {
		segment uint16
		page    uint64
	}{
		{0, 0},
		{1, 1},
		{42, 1024},
		{0xFFFF, MaxSegmentPageID},
	}

	for _, c := range cases {
		id := New(c.segment, c.page)
		assert.Equal(t, c.segment, SegmentID(id))
		assert.Equal(t, c.page, SegmentPageID(id))
	}
}

func TestNewPanicsOnOverflow(t *testing.T) {
	assert.Panics(t, func() {
		New(0, MaxSegmentPageID+1)
	})
}

func TestOffsetScalesBySegmentLocalPage(t *testing.T) {
	id := New(3, 5)
	assert.Equal(t, int64(5*4096), Offset(id, 4096))
}

func TestSegmentFileNameIsDecimalSegmentID(t *testing.T) {
	id := New(17, 999)
	require.Equal(t, "17", SegmentFileName(id))
}

func TestSegmentIDOccupiesTopBits(t *testing.T) {
	id := New(1, 0)
	assert.Equal(t, uint64(1)<<segmentShift, id)
}

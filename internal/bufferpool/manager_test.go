package bufferpool

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AhmetTanakol/buffer-manager/pkg/pageid"
)

const testPageSize = 16

func TestFixMissLoadsFromDeviceAndPopulatesFIFO(t *testing.T) {
	dev := newMemDevice(testPageSize)
	dev.blocks[1] = []byte("0123456789abcdef")

	mgr, err := New(testPageSize, 4, dev)
	require.NoError(t, err)

	h, err := mgr.FixPage(1, false)
	require.NoError(t, err)
	assert.Equal(t, []byte("0123456789abcdef"), h.Data())
	assert.Equal(t, []uint64{1}, mgr.FifoList())
	assert.Empty(t, mgr.LruList())

	require.NoError(t, mgr.UnfixPage(h, false))
}

func TestSecondAccessPromotesFIFOEntryToLRU(t *testing.T) {
	dev := newMemDevice(testPageSize)
	mgr, err := New(testPageSize, 4, dev)
	require.NoError(t, err)

	h1, err := mgr.FixPage(1, false)
	require.NoError(t, err)
	require.NoError(t, mgr.UnfixPage(h1, false))
	assert.Equal(t, []uint64{1}, mgr.FifoList())

	h2, err := mgr.FixPage(1, false)
	require.NoError(t, err)
	require.NoError(t, mgr.UnfixPage(h2, false))

	assert.Empty(t, mgr.FifoList())
	assert.Equal(t, []uint64{1}, mgr.LruList())
}

func TestRepeatedHitsMoveToBackOfLRU(t *testing.T) {
	dev := newMemDevice(testPageSize)
	mgr, err := New(testPageSize, 4, dev)
	require.NoError(t, err)

	for _, id := range []uint64{1, 2} {
		h, err := mgr.FixPage(id, false)
		require.NoError(t, err)
		require.NoError(t, mgr.UnfixPage(h, false))
		h, err = mgr.FixPage(id, false)
		require.NoError(t, err)
		require.NoError(t, mgr.UnfixPage(h, false))
	}

	require.Equal(t, []uint64{1, 2}, mgr.LruList())

	h, err := mgr.FixPage(1, false)
	require.NoError(t, err)
	require.NoError(t, mgr.UnfixPage(h, false))

	assert.Equal(t, []uint64{2, 1}, mgr.LruList())
}

func TestBufferFullWhenEveryFrameIsPinned(t *testing.T) {
	dev := newMemDevice(testPageSize)
	mgr, err := New(testPageSize, 2, dev)
	require.NoError(t, err)

	h1, err := mgr.FixPage(1, false)
	require.NoError(t, err)
	h2, err := mgr.FixPage(2, false)
	require.NoError(t, err)

	_, err = mgr.FixPage(3, false)
	assert.ErrorIs(t, err, ErrBufferFull)

	require.NoError(t, mgr.UnfixPage(h1, false))
	require.NoError(t, mgr.UnfixPage(h2, false))
}

func TestEvictionPrefersCleanFIFOBeforeDirtyBeforeLRU(t *testing.T) {
	dev := newMemDevice(testPageSize)
	mgr, err := New(testPageSize, 2, dev)
	require.NoError(t, err)

	h1, err := mgr.FixPage(1, false)
	require.NoError(t, err)
	require.NoError(t, mgr.UnfixPage(h1, true)) // page 1: dirty, in FIFO

	h2, err := mgr.FixPage(2, false)
	require.NoError(t, err)
	require.NoError(t, mgr.UnfixPage(h2, false)) // page 2: clean, in FIFO

	// Pool full with [1(dirty), 2(clean)] in FIFO. Fixing a third page must
	// evict the clean one (2), not the dirty one (1).
	h3, err := mgr.FixPage(3, false)
	require.NoError(t, err)
	require.NoError(t, mgr.UnfixPage(h3, false))

	assert.Equal(t, []uint64{1, 3}, mgr.FifoList())
	assert.Nil(t, dev.stored(2))
}

func TestDirtyVictimIsWrittenBackBeforeEviction(t *testing.T) {
	dev := newMemDevice(testPageSize)
	mgr, err := New(testPageSize, 1, dev)
	require.NoError(t, err)

	h1, err := mgr.FixPage(1, true)
	require.NoError(t, err)
	copy(h1.Data(), []byte("dirty-page-data."))
	require.NoError(t, mgr.UnfixPage(h1, true))

	h2, err := mgr.FixPage(2, false)
	require.NoError(t, err)
	require.NoError(t, mgr.UnfixPage(h2, false))

	assert.Equal(t, []byte("dirty-page-data."), dev.stored(1))
}

func TestFixMissRollsBackOnReadFailure(t *testing.T) {
	dev := newMemDevice(testPageSize)
	dev.setFailRead(2, true)

	mgr, err := New(testPageSize, 1, dev)
	require.NoError(t, err)

	h1, err := mgr.FixPage(1, false)
	require.NoError(t, err)
	require.NoError(t, mgr.UnfixPage(h1, false))

	_, err = mgr.FixPage(2, false)
	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr))

	// Page 1 must still be resident: the failed eviction of its slot for
	// page 2 was rolled back.
	assert.Equal(t, []uint64{1}, mgr.FifoList())
}

func TestFixMissRollsBackOnWriteBackFailure(t *testing.T) {
	dev := newMemDevice(testPageSize)
	dev.setFailWrite(1, true)

	mgr, err := New(testPageSize, 1, dev)
	require.NoError(t, err)

	h1, err := mgr.FixPage(1, true)
	require.NoError(t, err)
	require.NoError(t, mgr.UnfixPage(h1, true))

	_, err = mgr.FixPage(2, false)
	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr))

	assert.Equal(t, []uint64{1}, mgr.FifoList())
}

func TestUnfixRejectsHandleReuse(t *testing.T) {
	dev := newMemDevice(testPageSize)
	mgr, err := New(testPageSize, 1, dev)
	require.NoError(t, err)

	h, err := mgr.FixPage(1, false)
	require.NoError(t, err)
	require.NoError(t, mgr.UnfixPage(h, false))

	err = mgr.UnfixPage(h, false)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestUnfixRejectsForeignHandle(t *testing.T) {
	dev := newMemDevice(testPageSize)
	mgrA, err := New(testPageSize, 1, dev)
	require.NoError(t, err)
	mgrB, err := New(testPageSize, 1, dev)
	require.NoError(t, err)

	h, err := mgrA.FixPage(1, false)
	require.NoError(t, err)

	err = mgrB.UnfixPage(h, false)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	require.NoError(t, mgrA.UnfixPage(h, false))
}

func TestTryFixPageReturnsWouldBlockOnIncompatibleLatch(t *testing.T) {
	dev := newMemDevice(testPageSize)
	mgr, err := New(testPageSize, 2, dev)
	require.NoError(t, err)

	h1, err := mgr.FixPage(1, true)
	require.NoError(t, err)

	_, err = mgr.TryFixPage(1, false)
	assert.ErrorIs(t, err, ErrWouldBlock)

	require.NoError(t, mgr.UnfixPage(h1, false))

	h2, err := mgr.TryFixPage(1, false)
	require.NoError(t, err)
	require.NoError(t, mgr.UnfixPage(h2, false))
}

func TestCloseFlushesDirtyPagesAndRejectsFurtherFixes(t *testing.T) {
	dev := newMemDevice(testPageSize)
	mgr, err := New(testPageSize, 2, dev)
	require.NoError(t, err)

	h, err := mgr.FixPage(1, true)
	require.NoError(t, err)
	copy(h.Data(), []byte("flush-me-please."))
	require.NoError(t, mgr.UnfixPage(h, true))

	require.NoError(t, mgr.Close())
	assert.Equal(t, []byte("flush-me-please."), dev.stored(1))

	_, err = mgr.FixPage(2, false)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestNewRejectsBadConfiguration(t *testing.T) {
	dev := newMemDevice(testPageSize)

	_, err := New(7, 4, dev)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = New(16, 0, dev)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSegmentHelpersDelegateToPageid(t *testing.T) {
	id := pageid.New(9, 100)
	assert.Equal(t, uint16(9), SegmentID(id))
	assert.Equal(t, uint64(100), SegmentPageID(id))
}

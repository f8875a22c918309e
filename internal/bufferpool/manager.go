// Package bufferpool implements the concurrent page-table and 2Q
// replacement engine: the core of the buffer manager (components C2-C5).
// It never imports cfg, cli, or any CLI-facing package; everything in this
// package works against the BlockDevice interface alone.
package bufferpool

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AhmetTanakol/buffer-manager/internal/metrics"
	"github.com/AhmetTanakol/buffer-manager/pkg/assert"
	"github.com/AhmetTanakol/buffer-manager/pkg/pageid"
)

// Manager is the buffer manager facade (C5). It owns the page table, both
// replacement queues, and a pool-wide arena of frames sized to pageCount.
type Manager struct {
	pageSize  uint64
	pageCount uint64

	device BlockDevice
	log    *zap.SugaredLogger
	rec    *metrics.Recorder

	mu sync.Mutex

	pageTable    map[uint64]*frame
	placeholders map[uint64]*placeholder
	fifo, lru    frameList

	arena    []frame
	freeList []int

	outstanding map[uuid.UUID]*FrameHandle

	closed bool
}

// Option configures optional collaborators of a Manager.
type Option func(*Manager)

// WithLogger attaches a logger. A nil logger (the default) is replaced with
// a no-op one; FixPage/UnfixPage never panic for lack of a logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(m *Manager) { m.log = log }
}

// WithMetrics attaches a metrics recorder. A nil recorder (the default)
// makes every metrics call a no-op.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(m *Manager) { m.rec = rec }
}

// New constructs a buffer manager with pageCount frames of pageSize bytes
// each, backed by device. pageSize must be >= 8 and a multiple of 8;
// pageCount must be >= 1.
func New(pageSize, pageCount uint64, device BlockDevice, opts ...Option) (*Manager, error) {
	if pageSize < 8 || pageSize%8 != 0 {
		return nil, fmt.Errorf("%w: page size must be >= 8 and a multiple of 8, got %d", ErrInvalidArgument, pageSize)
	}

	if pageCount < 1 {
		return nil, fmt.Errorf("%w: page count must be >= 1, got %d", ErrInvalidArgument, pageCount)
	}

	arena := make([]frame, pageCount)
	freeList := make([]int, pageCount)

	for i := range arena {
		arena[i].data = make([]byte, pageSize)
		arena[i].arenaIdx = i
		freeList[i] = int(pageCount) - 1 - i // pop from the tail; order is irrelevant
	}

	m := &Manager{
		pageSize:     pageSize,
		pageCount:    pageCount,
		device:       device,
		pageTable:    make(map[uint64]*frame),
		placeholders: make(map[uint64]*placeholder),
		arena:        arena,
		freeList:     freeList,
		outstanding:  make(map[uuid.UUID]*FrameHandle),
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.log == nil {
		m.log = zap.NewNop().Sugar()
	}

	return m, nil
}

// SegmentID and SegmentPageID are re-exported from pkg/pageid for API
// surface parity with the language-neutral spec; see pkg/pageid for the
// canonical implementation shared with diskio.
func SegmentID(id uint64) uint16     { return pageid.SegmentID(id) }
func SegmentPageID(id uint64) uint64 { return pageid.SegmentPageID(id) }

// FixPage loads page id into the pool (if not already resident), pins it,
// and locks it shared (exclusive=false) or exclusive (exclusive=true). The
// returned handle must be passed to UnfixPage exactly once.
func (m *Manager) FixPage(id uint64, exclusive bool) (*FrameHandle, error) {
	m.mu.Lock()

	for {
		if m.closed {
			m.mu.Unlock()
			return nil, fmt.Errorf("%w: manager is closed", ErrInvalidArgument)
		}

		if f, ok := m.pageTable[id]; ok {
			m.onHitLocked(f)
			m.rec.Hit()
			m.log.Debugw("page hit", "page_id", id)

			return m.finishFixLocked(f, exclusive)
		}

		if ph, ok := m.placeholders[id]; ok {
			ph.wait()

			if ph.err != nil {
				err := ph.err
				m.mu.Unlock()

				return nil, err
			}

			continue
		}

		break
	}

	m.rec.Miss()

	return m.fixMissLocked(id, exclusive)
}

// onHitLocked applies §4.4 steps 1-2 to an already-resident frame f, found
// for the current id. Must be called with mu held; leaves mu held.
func (m *Manager) onHitLocked(f *frame) {
	switch f.queue {
	case queueLRU:
		m.lru.moveToBack(f)

	case queueFIFO:
		if uint64(m.fifo.size+m.lru.size) < m.pageCount {
			m.fifo.remove(f)
			f.queue = queueLRU
			m.lru.pushBack(f)
			m.rec.Promotion()
			m.log.Debugw("promoted page to LRU", "page_id", f.pageID)

			return
		}

		// Pool is already saturated: the original policy sacrifices one
		// LRU slot before promoting, even though moving f alone wouldn't
		// grow the resident set. We replicate that rather than the
		// capacity-optimal alternative, since it's policy, not a bug (see
		// §12 for the bugs that *were* flagged for correction).
		if v, ok := selectVictimLRUOnly(&m.lru); ok {
			if err := m.evictForPromotionLocked(v); err != nil {
				m.log.Errorw("skipping promotion-time eviction after write-back failure",
					"page_id", v.f.pageID, "error", err)
			}
		}

		m.fifo.remove(f)
		f.queue = queueLRU
		m.lru.pushBack(f)
		m.rec.Promotion()
		m.log.Debugw("promoted page to LRU", "page_id", f.pageID)

	default:
		assert.Assert(false, "resident frame %d has no queue", f.pageID)
	}
}

// evictForPromotionLocked retires v's frame (always an LRU candidate; see
// selectVictimLRUOnly) to make room for a FIFO-to-LRU promotion, writing
// back its contents first if dirty. Unlike fixMissLocked's eviction, a
// failure here is not fatal to the caller's fix: on error the frame is
// restored to the LRU queue untouched and the caller is expected to just
// skip the promotion-time eviction for this round. mu must be held on
// entry and is held again on return, having been released in between to
// perform the write-back.
func (m *Manager) evictForPromotionLocked(v victim) error {
	m.lru.remove(v.f)
	delete(m.pageTable, v.f.pageID)

	if !v.f.dirty {
		v.f.queue = queueNone
		m.freeList = append(m.freeList, v.f.arenaIdx)
		m.rec.Eviction()
		m.log.Infow("evicted clean LRU victim for promotion room", "page_id", v.f.pageID)

		return nil
	}

	savedPageID := v.f.pageID
	savedData := v.f.data

	m.mu.Unlock()
	err := m.device.WriteBlock(savedPageID, savedData)
	m.mu.Lock()

	if err != nil {
		ioErr := newIOError("write back", savedPageID, err)
		m.restoreVictimLocked(v.f, savedPageID, savedData, queueLRU, true)
		m.rec.IOError()
		m.log.Errorw("failed to write back dirty LRU victim for promotion room", "page_id", savedPageID, "error", err)

		return ioErr
	}

	m.rec.Writeback()
	v.f.queue = queueNone
	m.freeList = append(m.freeList, v.f.arenaIdx)
	m.rec.Eviction()
	m.log.Infow("evicted dirty LRU victim for promotion room after write-back", "page_id", savedPageID)

	return nil
}

// finishFixLocked increments the pin count, releases mu, acquires the
// per-frame latch in the requested mode, and returns a handle. mu must be
// held on entry and is released before this returns.
func (m *Manager) finishFixLocked(f *frame, exclusive bool) (*FrameHandle, error) {
	f.pinCount++

	handle := &FrameHandle{
		PageID:    f.pageID,
		Exclusive: exclusive,
		token:     uuid.New(),
		owner:     m,
		frame:     f,
	}
	m.outstanding[handle.token] = handle

	m.mu.Unlock()

	if exclusive {
		f.latch.Lock()
	} else {
		f.latch.RLock()
	}

	return handle, nil
}

// fixMissLocked handles §4.4 steps 3-4: there is no resident frame and no
// in-flight load for id. mu must be held on entry; it is released before
// every return.
func (m *Manager) fixMissLocked(id uint64, exclusive bool) (*FrameHandle, error) {
	ph := newPlaceholder(id, &m.mu)
	m.placeholders[id] = ph

	if len(m.freeList) > 0 {
		idx := m.freeList[len(m.freeList)-1]
		m.freeList = m.freeList[:len(m.freeList)-1]
		f := &m.arena[idx]

		m.mu.Unlock()

		err := m.device.ReadBlock(id, f.data)

		m.mu.Lock()

		if err != nil {
			ioErr := newIOError("read", id, err)
			m.freeList = append(m.freeList, idx)
			delete(m.placeholders, id)
			ph.resolve(nil, ioErr)
			m.rec.IOError()
			m.log.Errorw("failed to read page from device", "page_id", id, "error", err)
			m.mu.Unlock()

			return nil, ioErr
		}

		f.pageID = id
		f.dirty = false
		f.pinCount = 0
		f.queue = queueFIFO
		m.fifo.pushBack(f)
		m.pageTable[id] = f
		delete(m.placeholders, id)
		ph.resolve(f, nil)
		m.log.Infow("admitted page into free frame", "page_id", id)

		return m.finishFixLocked(f, exclusive)
	}

	v, ok := selectVictim(&m.fifo, &m.lru)
	if !ok {
		delete(m.placeholders, id)
		ph.resolve(nil, ErrBufferFull)
		m.rec.BufferFull()
		m.log.Warnw("buffer full, no unpinned victim available", "page_id", id)
		m.mu.Unlock()

		return nil, ErrBufferFull
	}

	switch v.queue {
	case queueFIFO:
		m.fifo.remove(v.f)
	case queueLRU:
		m.lru.remove(v.f)
	}

	delete(m.pageTable, v.f.pageID)

	savedPageID := v.f.pageID
	savedDirty := v.f.dirty
	savedData := v.f.data
	savedQueue := v.queue

	m.mu.Unlock()

	if savedDirty {
		if err := m.device.WriteBlock(savedPageID, savedData); err != nil {
			ioErr := newIOError("write back", savedPageID, err)

			m.mu.Lock()
			m.restoreVictimLocked(v.f, savedPageID, savedData, savedQueue, savedDirty)
			delete(m.placeholders, id)
			ph.resolve(nil, ioErr)
			m.rec.IOError()
			m.log.Errorw("failed to write back dirty victim", "page_id", savedPageID, "error", err)
			m.mu.Unlock()

			return nil, ioErr
		}

		m.rec.Writeback()
	}

	tmp := make([]byte, m.pageSize)
	if err := m.device.ReadBlock(id, tmp); err != nil {
		ioErr := newIOError("read", id, err)

		m.mu.Lock()
		m.restoreVictimLocked(v.f, savedPageID, savedData, savedQueue, false)
		delete(m.placeholders, id)
		ph.resolve(nil, ioErr)
		m.rec.IOError()
		m.log.Errorw("failed to read page from device", "page_id", id, "error", err)
		m.mu.Unlock()

		return nil, ioErr
	}

	m.mu.Lock()

	v.f.data = tmp
	v.f.pageID = id
	v.f.dirty = false
	v.f.pinCount = 0
	v.f.queue = queueFIFO
	m.fifo.pushBack(v.f)
	m.pageTable[id] = v.f
	delete(m.placeholders, id)
	ph.resolve(v.f, nil)
	m.rec.Eviction()
	m.log.Infow("evicted resident page to admit new page", "victim_page_id", savedPageID, "page_id", id, "was_dirty", savedDirty)

	return m.finishFixLocked(v.f, exclusive)
}

// restoreVictimLocked undoes a victim selection after a failed write-back
// or read, putting the frame back at the head of its original queue with
// its original identity. Its earlier place in that queue is not recorded:
// a victim that sat behind pinned or dirty frames comes back ahead of them.
// mu must be held.
func (m *Manager) restoreVictimLocked(f *frame, pageID uint64, data []byte, queue queueKind, dirty bool) {
	f.pageID = pageID
	f.data = data
	f.dirty = dirty
	f.queue = queue

	switch queue {
	case queueFIFO:
		m.fifo.pushFront(f)
	case queueLRU:
		m.lru.pushFront(f)
	}

	m.pageTable[pageID] = f
}

// UnfixPage releases the pin held by handle, folding markDirty into the
// frame's dirty flag, and releases the per-frame latch. handle is
// invalidated on success; a handle rejected with an error is left as it was.
func (m *Manager) UnfixPage(handle *FrameHandle, markDirty bool) error {
	if handle == nil {
		return fmt.Errorf("%w: nil handle", ErrInvalidArgument)
	}

	m.mu.Lock()

	if m.closed {
		m.mu.Unlock()
		return fmt.Errorf("%w: manager is closed", ErrInvalidArgument)
	}

	owned, ok := m.outstanding[handle.token]
	if !ok || owned != handle || handle.owner != m || handle.invalid {
		m.mu.Unlock()
		return fmt.Errorf("%w: handle not owned by this manager, or already unfixed", ErrInvalidArgument)
	}

	delete(m.outstanding, handle.token)
	handle.invalid = true

	f := handle.frame
	f.dirty = f.dirty || markDirty

	assert.Assert(f.pinCount > 0, "unfix of frame %d with non-positive pin count", f.pageID)
	f.pinCount--

	m.mu.Unlock()

	if handle.Exclusive {
		f.latch.Unlock()
	} else {
		f.latch.RUnlock()
	}

	return nil
}

// TryFixPage behaves like FixPage but never blocks on the per-frame latch:
// if the page is resident and the latch is held incompatibly, it returns
// ErrWouldBlock instead of waiting. It still blocks on the pool lock and on
// an in-flight load of the same page, since those are expected to be brief.
func (m *Manager) TryFixPage(id uint64, exclusive bool) (*FrameHandle, error) {
	m.mu.Lock()

	for {
		if m.closed {
			m.mu.Unlock()
			return nil, fmt.Errorf("%w: manager is closed", ErrInvalidArgument)
		}

		if f, ok := m.pageTable[id]; ok {
			m.onHitLocked(f)
			m.rec.Hit()

			return m.finishTryFixLocked(f, exclusive)
		}

		if ph, ok := m.placeholders[id]; ok {
			ph.wait()

			if ph.err != nil {
				err := ph.err
				m.mu.Unlock()

				return nil, err
			}

			continue
		}

		break
	}

	m.rec.Miss()

	return m.fixMissLocked(id, exclusive)
}

func (m *Manager) finishTryFixLocked(f *frame, exclusive bool) (*FrameHandle, error) {
	var locked bool

	if exclusive {
		locked = f.latch.TryLock()
	} else {
		locked = f.latch.TryRLock()
	}

	if !locked {
		m.mu.Unlock()
		return nil, ErrWouldBlock
	}

	f.pinCount++

	handle := &FrameHandle{
		PageID:    f.pageID,
		Exclusive: exclusive,
		token:     uuid.New(),
		owner:     m,
		frame:     f,
	}
	m.outstanding[handle.token] = handle

	m.mu.Unlock()

	return handle, nil
}

// FifoList returns the page ids currently in the FIFO queue, head to tail.
// Not safe to call concurrently with fixes/unfixes; intended for quiescent
// diagnostic use.
func (m *Manager) FifoList() []uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.fifo.pageIDs()
}

// LruList returns the page ids currently in the LRU queue, head to tail.
// Same thread-safety caveat as FifoList.
func (m *Manager) LruList() []uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.lru.pageIDs()
}

// Close writes every dirty resident frame back to the block device. After
// Close returns, FixPage and UnfixPage fail with ErrInvalidArgument.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}

	m.closed = true

	var firstErr error

	for _, f := range m.pageTable {
		if !f.dirty {
			continue
		}

		if err := m.device.WriteBlock(f.pageID, f.data); err != nil {
			ioErr := newIOError("write back on close", f.pageID, err)
			m.log.Errorw("failed to flush page on close", "page_id", f.pageID, "error", err)

			if firstErr == nil {
				firstErr = ioErr
			}

			continue
		}

		f.dirty = false
	}

	return firstErr
}

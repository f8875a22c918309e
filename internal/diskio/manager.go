// Package diskio implements the block device adapter (C1): positional
// read/write of fixed-size blocks against segment files named by their
// decimal segment id. It knows nothing about pages, frames, or pinning.
package diskio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"github.com/AhmetTanakol/buffer-manager/pkg/pageid"
)

const (
	osReadOnly        = os.O_RDONLY
	osReadWriteCreate = os.O_RDWR | os.O_CREATE
)

// Manager opens segment files on fs, rooted at dir, and exposes positional
// block reads/writes. It is stateless with respect to any buffer pool; many
// Managers (or concurrent callers of one) may address the same files.
type Manager struct {
	fs  afero.Fs
	dir string

	// mu serializes open/stat calls on a given path; afero.Fs implementations
	// are not guaranteed safe for concurrent Open+Write+Close on the same
	// path from independent goroutines.
	mu sync.Mutex
}

// New returns a block device adapter rooted at dir on fs. dir is created
// lazily on first write. Reads against a missing dir or segment file do not
// fail: they return zero-filled pages, like reads past end-of-file.
func New(fs afero.Fs, dir string) *Manager {
	return &Manager{fs: fs, dir: dir}
}

func (m *Manager) path(segmentID uint16) string {
	return filepath.Join(m.dir, fmt.Sprintf("%d", segmentID))
}

// ReadBlock fills dst[0:len(dst)] from the segment file addressed by
// pageID, at pageID's offset. Reads that land entirely or partially past
// end-of-file are zero-filled rather than erroring: newly allocated pages
// are logically zero.
func (m *Manager) ReadBlock(pageID uint64, dst []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	segmentID := pageid.SegmentID(pageID)
	offset := pageid.Offset(pageID, uint64(len(dst)))

	for i := range dst {
		dst[i] = 0
	}

	path := m.path(segmentID)

	exists, err := afero.Exists(m.fs, path)
	if err != nil {
		return fmt.Errorf("diskio: stat segment %d: %w", segmentID, err)
	}

	if !exists {
		return nil
	}

	f, err := m.fs.OpenFile(path, osReadOnly, 0o600)
	if err != nil {
		return fmt.Errorf("diskio: open segment %d: %w", segmentID, err)
	}
	defer f.Close()

	n, err := f.ReadAt(dst, offset)
	if err != nil && err != io.EOF {
		return fmt.Errorf("diskio: read segment %d at %d: %w", segmentID, offset, err)
	}

	_ = n // a short/zero read past EOF leaves the zero-fill from above in place

	return nil
}

// WriteBlock writes src at the offset implied by pageID into the segment
// file addressed by pageID, extending the file with zero fill if the write
// starts beyond the current file length. The file is created if it does
// not exist and is never truncated.
func (m *Manager) WriteBlock(pageID uint64, src []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	segmentID := pageid.SegmentID(pageID)
	offset := pageid.Offset(pageID, uint64(len(src)))
	path := m.path(segmentID)

	if err := m.fs.MkdirAll(m.dir, 0o700); err != nil {
		return fmt.Errorf("diskio: ensure data dir: %w", err)
	}

	f, err := m.fs.OpenFile(path, osReadWriteCreate, 0o600)
	if err != nil {
		return fmt.Errorf("diskio: open segment %d for write: %w", segmentID, err)
	}
	defer f.Close()

	if _, err := f.WriteAt(src, offset); err != nil {
		return fmt.Errorf("diskio: write segment %d at %d: %w", segmentID, offset, err)
	}

	return nil
}

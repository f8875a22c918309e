package bufferpool

import (
	"errors"
	"sync"
)

// memDevice is an in-memory BlockDevice for tests: logically-zero pages
// until first written, fixed block size, with knobs to inject failures.
type memDevice struct {
	mu        sync.Mutex
	blocks    map[uint64][]byte
	blockSize int

	failRead  map[uint64]bool
	failWrite map[uint64]bool

	reads, writes int
}

func newMemDevice(blockSize int) *memDevice {
	return &memDevice{
		blocks:    make(map[uint64][]byte),
		blockSize: blockSize,
		failRead:  make(map[uint64]bool),
		failWrite: make(map[uint64]bool),
	}
}

func (d *memDevice) ReadBlock(pageID uint64, dst []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.reads++

	if d.failRead[pageID] {
		return errors.New("injected read failure")
	}

	if b, ok := d.blocks[pageID]; ok {
		copy(dst, b)
		return nil
	}

	for i := range dst {
		dst[i] = 0
	}

	return nil
}

func (d *memDevice) WriteBlock(pageID uint64, src []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.writes++

	if d.failWrite[pageID] {
		return errors.New("injected write failure")
	}

	cp := make([]byte, len(src))
	copy(cp, src)
	d.blocks[pageID] = cp

	return nil
}

func (d *memDevice) setFailRead(pageID uint64, fail bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failRead[pageID] = fail
}

func (d *memDevice) setFailWrite(pageID uint64, fail bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failWrite[pageID] = fail
}

func (d *memDevice) stored(pageID uint64) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.blocks[pageID]
}

package bufferpool

import (
	"errors"
	"fmt"
)

// ErrBufferFull is returned by FixPage when every frame is pinned and no
// victim can be chosen. It is transient: the caller may retry once a page
// is unfixed.
var ErrBufferFull = errors.New("bufferpool: buffer full")

// ErrInvalidArgument is returned for programming errors: a bad pool
// configuration, or an UnfixPage call with a handle this manager did not
// issue (or already invalidated).
var ErrInvalidArgument = errors.New("bufferpool: invalid argument")

// ErrWouldBlock is returned by TryFixPage when the per-frame lock is held
// incompatibly by another fix.
var ErrWouldBlock = errors.New("bufferpool: would block")

// IOError wraps a failure from the BlockDevice, identifying the page that
// was being read or written when it occurred.
type IOError struct {
	PageID uint64
	Op     string
	Err    error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("bufferpool: %s page %d: %v", e.Op, e.PageID, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

func newIOError(op string, pageID uint64, err error) error {
	if err == nil {
		return nil
	}

	return &IOError{PageID: pageID, Op: op, Err: err}
}

package bufferpool

import "github.com/google/uuid"

// FrameHandle is returned by FixPage and consumed by UnfixPage. It carries
// an opaque token so a manager can reject a handle it never issued, or one
// that has already been unfixed, with ErrInvalidArgument rather than
// corrupting unrelated pool state.
type FrameHandle struct {
	PageID    uint64
	Exclusive bool

	token   uuid.UUID
	owner   *Manager
	frame   *frame
	invalid bool
}

// Data returns the page's byte buffer. The caller may read it unconditionally
// and may write to it only if the handle was fixed exclusive; both are only
// valid while the handle has not yet been passed to UnfixPage.
func (h *FrameHandle) Data() []byte {
	return h.frame.data
}

package bufferpool

import "sync"

// placeholder occupies a page table slot for a page id while it is being
// loaded from disk (§5). Any goroutine that finds a placeholder for the id
// it wants waits on cond instead of issuing a second ReadBlock; this is the
// entirety of the at-most-one-load guarantee.
type placeholder struct {
	pageID uint64
	cond   *sync.Cond
	done   bool
	frame  *frame // set on successful install
	err    error  // set if the load failed; frame is nil in that case
}

func newPlaceholder(pageID uint64, mu *sync.Mutex) *placeholder {
	return &placeholder{pageID: pageID, cond: sync.NewCond(mu)}
}

// resolve marks the placeholder complete and wakes every waiter. Must be
// called with the pool lock held.
func (p *placeholder) resolve(f *frame, err error) {
	p.done = true
	p.frame = f
	p.err = err
	p.cond.Broadcast()
}

// wait blocks until the placeholder resolves. Must be called with the pool
// lock held; it is released while blocked and re-acquired before returning.
func (p *placeholder) wait() {
	for !p.done {
		p.cond.Wait()
	}
}

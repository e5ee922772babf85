// Package sendqueue implements the per-connection non-blocking send
// queue: a FIFO of pooled buffers whose front element's first byte is
// always the next byte to transmit. A partial write mutates the front
// buffer in place by replacing it with a shortened copy covering the
// unsent remainder.
package sendqueue

import (
	"github.com/lmshao/network/internal/core"
)

// Queue is a FIFO of *core.Buffer guarded by a small internal lock:
// callers from arbitrary goroutines hand buffers off through Push, which
// is safe for concurrent use, but Drain must only be called from the
// single goroutine that owns the connection (the reactor goroutine),
// matching the reference's single-writer invariant for the post-arm
// drain path.
type Queue struct {
	mu  chan struct{} // 1-buffered semaphore guarding buf; see Push/Drain
	buf []*core.Buffer
}

// New creates an empty send queue.
func New() *Queue {
	q := &Queue{mu: make(chan struct{}, 1)}
	q.mu <- struct{}{}
	return q
}

func (q *Queue) lock()   { <-q.mu }
func (q *Queue) unlock() { q.mu <- struct{}{} }

// Push appends buf to the tail of the queue. Safe to call from any
// goroutine — this is the cross-thread handoff point spec.md §5/§9
// calls out: Send transitions ownership of buf to the queue here.
func (q *Queue) Push(buf *core.Buffer) {
	q.lock()
	q.buf = append(q.buf, buf)
	q.unlock()
}

// Empty reports whether the queue currently holds no buffers.
func (q *Queue) Empty() bool {
	q.lock()
	defer q.unlock()
	return len(q.buf) == 0
}

// Drain calls send repeatedly against the front buffer until send
// reports it could not accept more (wouldBlock), send accepts only part
// of a buffer, the queue empties, or send reports a fatal error. send
// returns (n, wouldBlock, err): n is
// the number of bytes actually written from the slice it was given.
//
// Drain must only be called from the connection's single owning
// goroutine.
func (q *Queue) Drain(send func(p []byte) (n int, wouldBlock bool, err error)) (empty bool, err error) {
	for {
		q.lock()
		if len(q.buf) == 0 {
			q.unlock()
			return true, nil
		}
		front := q.buf[0]
		q.unlock()

		n, wouldBlock, sendErr := send(front.Data())
		if sendErr != nil {
			return false, sendErr
		}
		if wouldBlock {
			return false, nil
		}

		if n >= front.Size() {
			q.lock()
			if len(q.buf) > 0 {
				q.buf = q.buf[1:]
			}
			empty = len(q.buf) == 0
			q.unlock()
			if empty {
				return true, nil
			}
			continue
		}

		// Partial write: replace the front buffer with a fresh pooled
		// copy of the unsent remainder and stop, matching the
		// reference's DataBuffer::PoolAlloc(remaining)+Assign.
		remaining := core.PoolAlloc(front.Size() - n)
		remaining.Assign(front.Data()[n:])
		q.lock()
		if len(q.buf) > 0 {
			q.buf[0] = remaining
		}
		q.unlock()
		return false, nil
	}
}

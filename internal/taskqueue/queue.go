// Package taskqueue implements the per-endpoint serial task queue: a
// single-worker FIFO executor that marshals user callbacks off the
// reactor goroutine while preserving delivery order.
package taskqueue

import (
	"sync"
	"time"

	"github.com/eapache/queue"
	"github.com/lmshao/network/internal/netlog"
)

// maxDelay is the largest delay Enqueue accepts, matching the reference
// implementation's 10-second cap.
const maxDelay = 10 * time.Second

// ErrStopped is returned by Enqueue once the queue has been stopped.
type stoppedError struct{}

func (stoppedError) Error() string { return "taskqueue: stopped" }

// ErrStopped is returned by Enqueue once the queue has been stopped.
var ErrStopped error = stoppedError{}

// ErrDelayTooLarge is returned when delay >= 10s.
type delayError struct{}

func (delayError) Error() string { return "taskqueue: delay exceeds maximum of 10s" }

var ErrDelayTooLarge error = delayError{}

type item struct {
	task      runnable
	executeAt time.Time
}

// Queue is a named, single-worker FIFO executor ordered by due time.
type Queue struct {
	name string

	mu      sync.Mutex
	cond    *sync.Cond
	items   *queue.Queue
	stopped bool
	started bool
	exiting bool
	running bool

	doneCh chan struct{}
}

// NewQueue creates a Queue. Start must be called before Enqueue accepts
// work.
func NewQueue(name string) *Queue {
	q := &Queue{name: name, items: queue.New(), stopped: true}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Start spawns the worker goroutine if it is not already running. It is
// idempotent.
func (q *Queue) Start() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return nil
	}
	q.started = true
	q.stopped = false
	q.exiting = false
	q.doneCh = make(chan struct{})
	go q.workerLoop()
	return nil
}

// Stop requests the worker to exit, waits for it to finish any
// in-progress task, joins it, then cancels every still-queued task. It
// is idempotent.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.exiting = true
	q.stopped = true
	done := q.doneCh
	q.cond.Broadcast()
	q.mu.Unlock()

	<-done

	q.mu.Lock()
	q.started = false
	q.cancelAllLocked()
	q.mu.Unlock()
}

// Enqueue inserts task into the time-ordered list at now+delay. If
// cancelPending is true, every currently queued task is canceled and
// dropped first. Enqueue rejects a stopped queue and a delay at or above
// the 10-second maximum.
func (q *Queue) Enqueue(task runnable, cancelPending bool, delay time.Duration) error {
	if task == nil {
		return nil
	}
	if delay >= maxDelay {
		return ErrDelayTooLarge
	}
	task.clear()

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return ErrStopped
	}

	if cancelPending {
		q.cancelAllLocked()
	}

	executeAt := time.Now().Add(delay)
	q.insertSortedLocked(&item{task: task, executeAt: executeAt})
	q.cond.Broadcast()
	return nil
}

// insertSortedLocked keeps items ordered by executeAt ascending. The
// common case (append at the tail) uses the queue's native Add; an
// out-of-order delayed insert rebuilds the backing queue around the new
// item, mirroring the reference's std::list::insert with a linear scan.
func (q *Queue) insertSortedLocked(it *item) {
	n := q.items.Length()
	if n == 0 {
		q.items.Add(it)
		return
	}
	last := q.items.Get(n - 1).(*item)
	if !last.executeAt.After(it.executeAt) {
		q.items.Add(it)
		return
	}

	idx := n
	for i := 0; i < n; i++ {
		cur := q.items.Get(i).(*item)
		if cur.executeAt.After(it.executeAt) {
			idx = i
			break
		}
	}

	items := make([]*item, 0, n+1)
	for i := 0; i < n; i++ {
		items = append(items, q.items.Get(i).(*item))
	}
	items = append(items, nil)
	copy(items[idx+1:], items[idx:n])
	items[idx] = it

	q.items = queue.New()
	for _, e := range items {
		q.items.Add(e)
	}
}

func (q *Queue) cancelAllLocked() {
	for q.items.Length() > 0 {
		it := q.items.Remove().(*item)
		if it.task != nil {
			it.task.cancel()
		}
	}
}

// IsExecuting reports whether the worker is currently running a task.
func (q *Queue) IsExecuting() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.running
}

func (q *Queue) workerLoop() {
	defer close(q.doneCh)

	for {
		q.mu.Lock()
		for !q.exiting && q.items.Length() == 0 {
			q.cond.Wait()
		}
		if q.exiting {
			q.mu.Unlock()
			return
		}

		it := q.items.Get(0).(*item)
		now := time.Now()
		if !now.Before(it.executeAt) {
			q.items.Remove()
		} else {
			wait := it.executeAt.Sub(now)
			q.waitWithTimeoutLocked(wait)
			q.mu.Unlock()
			continue
		}

		q.running = true
		q.mu.Unlock()

		q.runOne(it.task)

		q.mu.Lock()
		q.running = false
		q.mu.Unlock()

		if delayUs, ok := it.task.periodic(); ok {
			if err := q.Enqueue(it.task, false, time.Duration(delayUs)*time.Microsecond); err != nil {
				netlog.Errorf("taskqueue[%s]: re-enqueue periodic task failed: %v", q.name, err)
			}
		}
	}
}

// waitWithTimeoutLocked releases the lock-equivalent wait for up to d by
// using a timer goroutine that broadcasts the condvar; mu is held on
// entry and re-acquired before returning, matching cond.Wait semantics.
func (q *Queue) waitWithTimeoutLocked(d time.Duration) {
	timer := time.AfterFunc(d, func() {
		q.mu.Lock()
		q.cond.Broadcast()
		q.mu.Unlock()
	})
	q.cond.Wait()
	timer.Stop()
}

func (q *Queue) runOne(task runnable) {
	defer func() {
		if r := recover(); r != nil {
			netlog.Errorf("taskqueue[%s]: task panic recovered: %v", q.name, r)
		}
	}()
	if task.isCanceled() {
		return
	}
	task.run()
}

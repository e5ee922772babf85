package reactor

import (
	"runtime"
	"sync"

	"github.com/lmshao/network/internal/netlog"
)

// pollTimeoutMs bounds each multiplexer wait so shutdown requests are
// observed promptly; it is the reactor's only timeout.
const pollTimeoutMs = 100

// readyEvent is what a platform backend reports for one descriptor.
type readyEvent struct {
	fd     int
	events EventSet
}

// backend abstracts the kernel multiplexer: epoll on Linux, IOCP on
// Windows. Reactor owns exactly one backend instance for the process.
type backend interface {
	add(fd int, events EventSet) error
	modify(fd int, events EventSet) error
	del(fd int) error
	// wait blocks up to pollTimeoutMs and appends ready events to dst,
	// returning the extended slice.
	wait(dst []readyEvent) ([]readyEvent, error)
	// wake forces a blocked wait to return early, used on shutdown.
	wake() error
	close() error
}

// Reactor is the process-wide singleton event loop. It owns one
// background goroutine and one kernel multiplexer; handlers register,
// modify, and remove themselves while the loop runs.
type Reactor struct {
	be backend

	mu       sync.RWMutex
	handlers map[int]Handler

	runMu   sync.Mutex
	runCond *sync.Cond
	running bool

	stopCh chan struct{}
	doneCh chan struct{}
}

var (
	instanceOnce sync.Once
	instance     *Reactor
	instanceErr  error
)

// Get returns the process-wide Reactor, constructing and starting its
// loop goroutine on first call.
func Get() (*Reactor, error) {
	instanceOnce.Do(func() {
		instance, instanceErr = newReactor()
	})
	return instance, instanceErr
}

func newReactor() (*Reactor, error) {
	be, err := newBackend()
	if err != nil {
		return nil, err
	}
	r := &Reactor{
		be:       be,
		handlers: make(map[int]Handler),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	r.runCond = sync.NewCond(&r.runMu)

	go r.loop()

	r.runMu.Lock()
	for !r.running {
		r.runCond.Wait()
	}
	r.runMu.Unlock()

	return r, nil
}

// Register adds a handler's descriptor to the reactor with its current
// interest set. It fails if the reactor is shutting down or the kernel
// rejects the descriptor.
func (r *Reactor) Register(h Handler) error {
	r.runMu.Lock()
	running := r.running
	r.runMu.Unlock()
	if !running {
		return errShuttingDown
	}
	fd := h.Fd()
	if err := r.be.add(fd, h.Interest()); err != nil {
		return err
	}
	r.mu.Lock()
	r.handlers[fd] = h
	r.mu.Unlock()
	return nil
}

// Remove detaches fd from the reactor. It is idempotent: removing a
// descriptor not currently registered logs a warning and returns false.
// Callers must not invoke Remove from inside the handler being removed
// while holding the only reference keeping that handler alive; the
// dispatch loop's copy-out-then-call pattern gives a short safe window
// for that case.
func (r *Reactor) Remove(fd int) bool {
	r.mu.Lock()
	_, ok := r.handlers[fd]
	if ok {
		delete(r.handlers, fd)
	}
	r.mu.Unlock()

	if !ok {
		netlog.Warnf("reactor: remove of unregistered fd %d", fd)
		return false
	}
	if err := r.be.del(fd); err != nil {
		netlog.Warnf("reactor: backend del(%d): %v", fd, err)
	}
	return true
}

// Modify updates the kernel's registered event set for fd to match the
// handler's current Interest(). The descriptor map is unchanged.
func (r *Reactor) Modify(h Handler) error {
	return r.be.modify(h.Fd(), h.Interest())
}

// Shutdown stops the reactor loop and releases the kernel multiplexer.
// It is intended for tests; production processes normally run the
// reactor for the process lifetime.
func (r *Reactor) Shutdown() {
	r.runMu.Lock()
	if !r.running {
		r.runMu.Unlock()
		return
	}
	r.running = false
	r.runMu.Unlock()

	close(r.stopCh)
	_ = r.be.wake()
	<-r.doneCh
	_ = r.be.close()
}

func (r *Reactor) loop() {
	runtime.LockOSThread()
	applyPinnedAffinity()

	r.runMu.Lock()
	r.running = true
	r.runCond.Broadcast()
	r.runMu.Unlock()

	defer close(r.doneCh)

	events := make([]readyEvent, 0, 128)
	for {
		select {
		case <-r.stopCh:
			return
		default:
		}

		events = events[:0]
		var err error
		events, err = r.be.wait(events)
		if err != nil {
			netlog.Errorf("reactor: wait: %v", err)
			continue
		}

		for _, ev := range events {
			r.dispatch(ev)
		}
	}
}

// dispatch copies out the handler under the read lock, releases the lock,
// then invokes the four entry points in order. This avoids holding the
// lock across user code and lets Remove race safely with dispatch: a
// handler about to be removed may still see one last dispatch.
func (r *Reactor) dispatch(ev readyEvent) {
	r.mu.RLock()
	h, ok := r.handlers[ev.fd]
	r.mu.RUnlock()
	if !ok {
		return
	}

	if ev.events.Has(EventRead) {
		safeCall(h.OnRead)
	}
	if ev.events.Has(EventWrite) {
		safeCall(h.OnWrite)
	}
	if ev.events.Has(EventError) {
		safeCall(h.OnError)
	}
	if ev.events.Has(EventClose) {
		safeCall(h.OnClose)
	}
}

func safeCall(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			netlog.Errorf("reactor: handler panic recovered: %v", r)
		}
	}()
	fn()
}

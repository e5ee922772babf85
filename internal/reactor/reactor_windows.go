//go:build windows

package reactor

import (
	"fmt"
	"sync"

	"golang.org/x/sys/windows"
)

// iocpBackend implements backend using a Windows I/O completion port.
// Interest is advisory here: the connection handlers (transport/tcp,
// transport/udp, transport/unix) post one overlapped receive per socket
// and re-post after each completion, and post overlapped sends directly;
// a completion is surfaced to the reactor as an EventRead/EventWrite
// readiness event so the shared Handler contract stays readiness-shaped.
type iocpBackend struct {
	port windows.Handle

	mu      sync.Mutex
	fds     map[int]EventSet
	wakeKey uintptr
}

func newBackend() (backend, error) {
	port, err := windows.CreateIoCompletionPort(windows.InvalidHandle, 0, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("iocp create: %w", err)
	}
	return &iocpBackend{port: port, fds: make(map[int]EventSet), wakeKey: ^uintptr(0)}, nil
}

func (b *iocpBackend) add(fd int, events EventSet) error {
	h := windows.Handle(fd)
	_, err := windows.CreateIoCompletionPort(h, b.port, uintptr(fd), 0)
	if err != nil {
		return fmt.Errorf("iocp associate fd %d: %w", fd, err)
	}
	b.mu.Lock()
	b.fds[fd] = events
	b.mu.Unlock()
	return nil
}

func (b *iocpBackend) modify(fd int, events EventSet) error {
	// IOCP has no "modify interest" call; write armedness is driven by
	// whether the connection handler posts an overlapped send, not by
	// the completion port registration. The bookkeeping map records the
	// last requested set; nothing in this backend reads it back.
	b.mu.Lock()
	b.fds[fd] = events
	b.mu.Unlock()
	return nil
}

func (b *iocpBackend) del(fd int) error {
	b.mu.Lock()
	delete(b.fds, fd)
	b.mu.Unlock()
	// Windows has no IOCP "disassociate"; closing the handle implicitly
	// cancels outstanding overlapped operations and retires the key.
	return nil
}

func (b *iocpBackend) wait(dst []readyEvent) ([]readyEvent, error) {
	var bytes uint32
	var key uintptr
	var ov *windows.Overlapped

	err := windows.GetQueuedCompletionStatus(b.port, &bytes, &key, &ov, pollTimeoutMs)
	if err != nil {
		if err == windows.WAIT_TIMEOUT {
			return dst, nil
		}
		// A failed completion (e.g. aborted operation) still carries a
		// valid key when ov != nil; surface it as an error event so the
		// owning handler's unified close path runs.
		if ov != nil {
			dst = append(dst, readyEvent{fd: int(key), events: EventError})
			return dst, nil
		}
		return dst, err
	}

	if key == b.wakeKey {
		return dst, nil
	}

	op := overlappedOp(ov)
	es := EventRead
	if op == opWrite {
		es = EventWrite
	}
	_ = bytes
	dst = append(dst, readyEvent{fd: int(key), events: es})
	return dst, nil
}

func (b *iocpBackend) wake() error {
	return windows.PostQueuedCompletionStatus(b.port, 0, b.wakeKey, nil)
}

func (b *iocpBackend) close() error {
	return windows.CloseHandle(b.port)
}

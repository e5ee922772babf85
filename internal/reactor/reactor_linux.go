//go:build linux

package reactor

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// epollBackend implements backend using Linux epoll in edge-triggered
// mode, with an eventfd used purely to wake epoll_wait on shutdown.
type epollBackend struct {
	epfd   int
	wakeFd int
}

func newBackend() (backend, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll_create1: %w", err)
	}

	wakeFd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		unix.Close(epfd)
		return nil, fmt.Errorf("eventfd: %w", err)
	}

	b := &epollBackend{epfd: epfd, wakeFd: wakeFd}
	ev := &unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(wakeFd)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wakeFd, ev); err != nil {
		unix.Close(wakeFd)
		unix.Close(epfd)
		return nil, fmt.Errorf("epoll_ctl add wake fd: %w", err)
	}

	return b, nil
}

func translateEvents(events EventSet) uint32 {
	var e uint32
	if events.Has(EventRead) {
		e |= unix.EPOLLIN
	}
	if events.Has(EventWrite) {
		e |= unix.EPOLLOUT
	}
	if events.Has(EventError) {
		e |= unix.EPOLLERR
	}
	if events.Has(EventClose) {
		e |= unix.EPOLLHUP | unix.EPOLLRDHUP
	}
	return e | unix.EPOLLET
}

func (b *epollBackend) add(fd int, events EventSet) error {
	ev := &unix.EpollEvent{Events: translateEvents(events), Fd: int32(fd)}
	return unix.EpollCtl(b.epfd, unix.EPOLL_CTL_ADD, fd, ev)
}

func (b *epollBackend) modify(fd int, events EventSet) error {
	ev := &unix.EpollEvent{Events: translateEvents(events), Fd: int32(fd)}
	return unix.EpollCtl(b.epfd, unix.EPOLL_CTL_MOD, fd, ev)
}

func (b *epollBackend) del(fd int) error {
	return unix.EpollCtl(b.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

func (b *epollBackend) wait(dst []readyEvent) ([]readyEvent, error) {
	var raw [128]unix.EpollEvent
	n, err := unix.EpollWait(b.epfd, raw[:], pollTimeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return dst, nil
		}
		return dst, err
	}

	for i := 0; i < n; i++ {
		fd := int(raw[i].Fd)
		if fd == b.wakeFd {
			drainWakeFd(b.wakeFd)
			continue
		}

		var es EventSet
		if raw[i].Events&unix.EPOLLIN != 0 {
			es |= EventRead
		}
		if raw[i].Events&unix.EPOLLOUT != 0 {
			es |= EventWrite
		}
		if raw[i].Events&unix.EPOLLERR != 0 {
			es |= EventError
		}
		if raw[i].Events&(unix.EPOLLHUP|unix.EPOLLRDHUP) != 0 {
			es |= EventClose
		}
		dst = append(dst, readyEvent{fd: fd, events: es})
	}
	return dst, nil
}

func (b *epollBackend) wake() error {
	buf := [8]byte{1, 0, 0, 0, 0, 0, 0, 0}
	_, err := unix.Write(b.wakeFd, buf[:])
	return err
}

func drainWakeFd(fd int) {
	var buf [8]byte
	for {
		_, err := unix.Read(fd, buf[:])
		if err != nil {
			return
		}
	}
}

func (b *epollBackend) close() error {
	unix.Close(b.wakeFd)
	return unix.Close(b.epfd)
}

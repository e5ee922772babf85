//go:build !windows

package unix

import (
	"sync"

	"github.com/lmshao/network/internal/core"
	"github.com/lmshao/network/internal/netlog"
	"github.com/lmshao/network/internal/reactor"
	"github.com/lmshao/network/internal/taskqueue"
)

// Server is a Unix-domain stream listener bound to a filesystem path.
// Sessions it hands out carry the socket path as Host and 0 as Port,
// since a Unix-domain peer has no address pair.
type Server struct {
	socketPath string

	fd int
	re *reactor.Reactor
	tq *taskqueue.Queue

	listener core.ServerListener

	mu       sync.Mutex
	sessions map[int]*core.Session
	conns    map[int]*conn
}

// NewServer creates a Unix-domain listener bound to socketPath.
func NewServer(socketPath string) *Server {
	return &Server{
		socketPath: socketPath,
		fd:         -1,
		sessions:   make(map[int]*core.Session),
		conns:      make(map[int]*conn),
	}
}

// SetListener registers the callback sink. Must be called before Start.
func (s *Server) SetListener(l core.ServerListener) { s.listener = l }

// Init unlinks any stale socket file, then creates, binds, and listens.
func (s *Server) Init() bool {
	fd, err := listenSocket(s.socketPath)
	if err != nil {
		netlog.Errorf("unix server: init: %v", err)
		return false
	}
	s.fd = fd
	s.tq = taskqueue.NewQueue("UnixServerCb")
	return true
}

// Start starts the callback task queue and registers the listening socket
// with the reactor.
func (s *Server) Start() error {
	if s.fd < 0 {
		return core.ErrNotInitialized
	}
	re, err := reactor.Get()
	if err != nil {
		return err
	}
	s.re = re

	if err := s.tq.Start(); err != nil {
		return err
	}
	return s.re.Register(s)
}

// Stop drains every live session, closes the listening socket, stops the
// task queue, and removes the socket file.
func (s *Server) Stop() {
	s.mu.Lock()
	fds := make([]int, 0, len(s.sessions))
	for fd := range s.sessions {
		fds = append(fds, fd)
	}
	s.mu.Unlock()

	for _, fd := range fds {
		if s.re != nil {
			s.re.Remove(fd)
		}
		closeSocket(fd)
		s.mu.Lock()
		delete(s.conns, fd)
		delete(s.sessions, fd)
		s.mu.Unlock()
	}

	if s.fd >= 0 {
		if s.re != nil {
			s.re.Remove(s.fd)
		}
		closeSocket(s.fd)
		s.fd = -1
	}

	if s.tq != nil {
		s.tq.Stop()
	}

	removeSocketFile(s.socketPath)
}

// Close is an alias for Stop, satisfying core.Endpoint.
func (s *Server) Close() { s.Stop() }

// GetSocketFd returns the listening socket descriptor.
func (s *Server) GetSocketFd() int { return s.fd }

func (s *Server) Fd() int { return s.fd }

func (s *Server) Interest() reactor.EventSet {
	return reactor.EventRead | reactor.EventError | reactor.EventClose
}

func (s *Server) OnRead() {
	for {
		fd, err := acceptConn(s.fd)
		if err != nil {
			if isWouldBlock(err) {
				return
			}
			netlog.Debugf("unix server: accept: %v", err)
			return
		}

		c := newConn(fd, s, s.re)
		if err := s.re.Register(c); err != nil {
			netlog.Errorf("unix server: register accepted fd %d: %v", fd, err)
			closeSocket(fd)
			continue
		}

		session := core.NewSession(fd, s.socketPath, 0, s)

		s.mu.Lock()
		s.conns[fd] = c
		s.sessions[fd] = session
		s.mu.Unlock()

		if s.listener != nil {
			l := s.listener
			task := taskqueue.New(func() struct{} {
				l.OnAccept(session)
				return struct{}{}
			})
			_ = s.tq.Enqueue(task, false, 0)
		}
	}
}

func (s *Server) OnWrite() {}
func (s *Server) OnError() { netlog.Errorf("unix server: listener socket error on fd %d", s.fd) }
func (s *Server) OnClose() { netlog.Debugf("unix server: listener socket close on fd %d", s.fd) }

// SendFrom implements core.Sender; host/port are unused since a Unix
// fd already identifies exactly one peer.
func (s *Server) SendFrom(fd int, host string, port uint16, buf *core.Buffer) bool {
	s.mu.Lock()
	c, ok := s.conns[fd]
	s.mu.Unlock()
	if !ok {
		return false
	}
	return c.queueSend(buf)
}

func (s *Server) handleReceive(fd int, buf *core.Buffer) {
	s.mu.Lock()
	session, ok := s.sessions[fd]
	s.mu.Unlock()
	if !ok || s.listener == nil {
		return
	}
	l := s.listener
	task := taskqueue.New(func() struct{} {
		l.OnReceive(session, buf)
		return struct{}{}
	})
	_ = s.tq.Enqueue(task, false, 0)
}

func (s *Server) handleConnClose(fd int, isError bool, reason string) {
	s.mu.Lock()
	session, ok := s.sessions[fd]
	if ok {
		delete(s.sessions, fd)
		delete(s.conns, fd)
	}
	s.mu.Unlock()
	if !ok {
		return
	}

	if s.re != nil {
		s.re.Remove(fd)
	}
	closeSocket(fd)
	session.Detach()

	if s.listener != nil {
		l := s.listener
		task := taskqueue.New(func() struct{} {
			if isError {
				l.OnError(session, reason)
			} else {
				l.OnClose(session)
			}
			return struct{}{}
		})
		_ = s.tq.Enqueue(task, false, 0)
	}
}

// Package tcp implements the TCP listener/accepted-connection and TCP
// client endpoints on top of the reactor, task queue, and send queue
// primitives in the parent module.
package tcp

import (
	"sync"

	"github.com/lmshao/network/internal/core"
	"github.com/lmshao/network/internal/netlog"
	"github.com/lmshao/network/internal/reactor"
	"github.com/lmshao/network/internal/taskqueue"
)

// Server is a TCP listener: it accepts connections, hands each one its
// own session and send queue, and delivers callbacks through a per-server
// serial task queue in FIFO order.
type Server struct {
	listenIP   string
	listenPort uint16

	fd int
	re *reactor.Reactor
	tq *taskqueue.Queue

	listener core.ServerListener

	mu       sync.Mutex
	sessions map[int]*core.Session
	conns    map[int]*conn

	keepAlive bool
}

// NewServer creates a TCP listener endpoint bound to listenIP:listenPort.
// An empty listenIP binds all interfaces.
func NewServer(listenIP string, listenPort uint16) *Server {
	return &Server{
		listenIP:   listenIP,
		listenPort: listenPort,
		fd:         -1,
		sessions:   make(map[int]*core.Session),
		conns:      make(map[int]*conn),
		keepAlive:  true,
	}
}

// SetListener registers the callback sink. Must be called before Start.
func (s *Server) SetListener(l core.ServerListener) { s.listener = l }

// SetKeepAlive toggles the keepalive tuning applied to accepted sockets;
// enabled by default.
func (s *Server) SetKeepAlive(enabled bool) { s.keepAlive = enabled }

// Init creates, binds, and listens on the socket. It must succeed before
// Start is called.
func (s *Server) Init() bool {
	fd, err := listenSocket(s.listenIP, s.listenPort)
	if err != nil {
		netlog.Errorf("tcp server: init: %v", err)
		return false
	}
	s.fd = fd
	s.tq = taskqueue.NewQueue("TcpServerCb")
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
	if err := s.re.Register(s); err != nil {
		return err
	}
	return nil
}

// Stop drains every live session, closes the listening socket, and stops
// the task queue, in that order, matching the reference implementation's
// TcpServerImpl::Stop.
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
}

// Close is an alias for Stop, satisfying core.Endpoint.
func (s *Server) Close() { s.Stop() }

// GetSocketFd returns the listening socket descriptor.
func (s *Server) GetSocketFd() int { return s.fd }

// Fd/Interest/OnRead/OnWrite/OnError/OnClose implement reactor.Handler for
// the listening socket itself.
func (s *Server) Fd() int { return s.fd }

func (s *Server) Interest() reactor.EventSet {
	return reactor.EventRead | reactor.EventError | reactor.EventClose
}

func (s *Server) OnRead() {
	for {
		fd, host, port, err := acceptConn(s.fd)
		if err != nil {
			if isWouldBlock(err) {
				return
			}
			netlog.Debugf("tcp server: accept: %v", err)
			return
		}

		if s.keepAlive {
			setKeepAlive(fd)
		}

		c := newConn(fd, s, s.re)
		if err := s.re.Register(c); err != nil {
			netlog.Errorf("tcp server: register accepted fd %d: %v", fd, err)
			closeSocket(fd)
			continue
		}

		session := core.NewSession(fd, host, port, s)

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
func (s *Server) OnError() { netlog.Errorf("tcp server: listener socket error on fd %d", s.fd) }
func (s *Server) OnClose() { netlog.Debugf("tcp server: listener socket close on fd %d", s.fd) }

// SendFrom implements core.Sender: it looks up the accepted connection
// for fd and hands buf to its send queue. host/port are unused since a
// TCP fd already identifies exactly one peer.
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

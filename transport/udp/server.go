// Package udp implements the UDP server and client endpoints. Unlike TCP
// and Unix-domain servers, the UDP Server delivers OnReceive synchronously
// on the reactor goroutine instead of through a serial task queue: each
// datagram's per-peer Session is ephemeral and there is no
// accepted-connection lifecycle to serialize against. The UDP Client
// delivers its callbacks through its own serial task queue.
package udp

import (
	"github.com/lmshao/network/internal/core"
	"github.com/lmshao/network/internal/netlog"
	"github.com/lmshao/network/internal/reactor"
)

const recvBufferMaxSize = 4096

// Server is a UDP socket bound to a local address, dispatching each
// inbound datagram to a ServerListener with a freshly constructed Session
// describing the sender.
type Server struct {
	ip   string
	port uint16

	fd int
	re *reactor.Reactor

	listener core.ServerListener
	readBuf  []byte
}

// NewServer creates a UDP endpoint bound to ip:port.
func NewServer(ip string, port uint16) *Server {
	return &Server{ip: ip, port: port, fd: -1}
}

// SetListener registers the callback sink. Must be called before Start.
func (s *Server) SetListener(l core.ServerListener) { s.listener = l }

// Init creates, binds, and prepares the socket.
func (s *Server) Init() bool {
	fd, err := newSocket(true)
	if err != nil {
		netlog.Errorf("udp server: init: %v", err)
		return false
	}
	if err := bindSocket(fd, s.ip, s.port); err != nil {
		netlog.Errorf("udp server: init: %v", err)
		closeSocket(fd)
		return false
	}
	s.fd = fd
	return true
}

// Start registers the socket with the reactor.
func (s *Server) Start() error {
	if s.fd < 0 {
		return core.ErrNotInitialized
	}
	re, err := reactor.Get()
	if err != nil {
		return err
	}
	s.re = re
	return s.re.Register(s)
}

// Stop removes the socket from the reactor and closes it.
func (s *Server) Stop() {
	if s.fd < 0 {
		return
	}
	if s.re != nil {
		s.re.Remove(s.fd)
	}
	closeSocket(s.fd)
	s.fd = -1
}

// Close is an alias for Stop, satisfying core.Endpoint.
func (s *Server) Close() { s.Stop() }

// GetSocketFd returns the socket descriptor.
func (s *Server) GetSocketFd() int { return s.fd }

func (s *Server) Fd() int { return s.fd }

func (s *Server) Interest() reactor.EventSet {
	return reactor.EventRead | reactor.EventError | reactor.EventClose
}

func (s *Server) OnRead() {
	if s.readBuf == nil {
		s.readBuf = make([]byte, recvBufferMaxSize)
	}
	for {
		n, host, port, err := recvFrom(s.fd, s.readBuf)
		if err != nil {
			if !isWouldBlock(err) {
				netlog.Debugf("udp server: recvfrom: %v", err)
			}
			return
		}
		if s.listener == nil {
			continue
		}
		buf := core.PoolAlloc(n)
		buf.Assign(s.readBuf[:n])
		session := core.NewSession(s.fd, host, port, s)
		s.listener.OnReceive(session, buf)
	}
}

func (s *Server) OnWrite() {}
func (s *Server) OnError() { netlog.Errorf("udp server: socket error on fd %d", s.fd) }
func (s *Server) OnClose() { netlog.Debugf("udp server: socket close on fd %d", s.fd) }

// SendFrom implements core.Sender: it sends directly to host:port,
// since a UDP Session carries the peer address rather than a dedicated
// per-peer descriptor.
func (s *Server) SendFrom(fd int, host string, port uint16, buf *core.Buffer) bool {
	if s.fd < 0 || buf == nil || buf.Size() == 0 {
		return false
	}
	if err := sendTo(s.fd, buf.Data(), host, port); err != nil {
		netlog.Debugf("udp server: sendto %s:%d: %v", host, port, err)
		return false
	}
	return true
}

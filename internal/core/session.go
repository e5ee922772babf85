package core

import (
	"fmt"
	"sync"
)

// Sender is implemented by the endpoint that owns a Session; it routes a
// Session's Send calls back into the connection's send path without the
// Session needing to know about sockets or send queues. host/port are
// carried alongside fd because a connectionless endpoint (UDP) shares one
// descriptor across every peer and needs the address to route the send;
// a connection-oriented endpoint (TCP/Unix) can ignore them. Transport
// packages outside this module implement it against their own connection
// state, so its method is exported.
type Sender interface {
	SendFrom(fd int, host string, port uint16, buf *Buffer) bool
}

// Session is a handle to an active server-side connection, handed to a
// ServerListener on accept and retained by the owning endpoint until
// close. A Session may be retained by the caller past the connection's
// close; Send then fails benignly (returns false) instead of panicking,
// because the back-reference to the owning endpoint is cleared on
// teardown rather than left dangling.
type Session struct {
	Host string
	Port uint16
	Fd   int

	mu    sync.RWMutex
	owner Sender
}

// NewSession constructs a Session bound to its owning endpoint. Transport
// packages call this when a new connection is accepted or an ephemeral
// per-datagram session is created.
func NewSession(fd int, host string, port uint16, owner Sender) *Session {
	return &Session{Host: host, Port: port, Fd: fd, owner: owner}
}

// Detach clears the back-reference to the owning endpoint. Called once,
// on connection teardown, so that Sends issued by a Session the caller
// is still holding fail benignly instead of racing a freed endpoint.
func (s *Session) Detach() {
	s.mu.Lock()
	s.owner = nil
	s.mu.Unlock()
}

// Send transmits raw bytes through the owning endpoint's send path. It
// returns false if the session has already been closed, or if buf is
// empty.
func (s *Session) Send(buf []byte) bool {
	if len(buf) == 0 {
		return false
	}
	b := PoolAlloc(len(buf))
	b.Assign(buf)
	return s.sendBuffer(b)
}

// SendString transmits a string through the owning endpoint's send path.
func (s *Session) SendString(str string) bool {
	if str == "" {
		return false
	}
	b := PoolAlloc(len(str))
	b.Assign([]byte(str))
	return s.sendBuffer(b)
}

// SendBuffer transmits an already-populated Buffer through the owning
// endpoint's send path. Ownership of buf transfers to the send queue on
// success.
func (s *Session) SendBuffer(buf *Buffer) bool {
	if buf == nil || buf.Size() == 0 {
		return false
	}
	return s.sendBuffer(buf)
}

func (s *Session) sendBuffer(buf *Buffer) bool {
	s.mu.RLock()
	owner := s.owner
	s.mu.RUnlock()
	if owner == nil {
		return false
	}
	return owner.SendFrom(s.Fd, s.Host, s.Port, buf)
}

// ClientInfo returns a "host:port" description of the peer.
func (s *Session) ClientInfo() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

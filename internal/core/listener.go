package core

// ServerListener receives callbacks for a server endpoint (TcpServer,
// UdpServer, UnixServer). Callbacks are delivered in FIFO order per
// endpoint through that endpoint's serial task queue, except for UDP,
// whose ephemeral per-datagram sessions are delivered synchronously on
// the reactor goroutine (see transport/udp).
type ServerListener interface {
	// OnAccept fires when a new connection is accepted (TCP/Unix only).
	OnAccept(session *Session)
	// OnReceive fires when data arrives on an established session.
	OnReceive(session *Session, buf *Buffer)
	// OnClose fires when the peer closes the connection, with no error.
	// A local Stop/Close does not deliver it.
	OnClose(session *Session)
	// OnError fires on a fatal per-connection I/O error.
	OnError(session *Session, reason string)
}

// ClientListener receives callbacks for a client endpoint (TcpClient,
// UdpClient, UnixClient). All callbacks carry the descriptor so a single
// listener can serve multiple clients.
type ClientListener interface {
	OnReceive(fd int, buf *Buffer)
	OnClose(fd int)
	OnError(fd int, reason string)
}

// Endpoint is the common lifecycle every transport endpoint implements.
type Endpoint interface {
	Init() bool
	Close()
	GetSocketFd() int
}

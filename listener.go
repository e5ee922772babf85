package network

import "github.com/lmshao/network/internal/core"

// ServerListener receives callbacks for a server endpoint (TcpServer,
// UdpServer, UnixServer). Callbacks are delivered in FIFO order per
// endpoint through that endpoint's serial task queue, except for UDP,
// whose ephemeral per-datagram sessions are delivered synchronously on
// the reactor goroutine (see transport/udp).
type ServerListener = core.ServerListener

// ClientListener receives callbacks for a client endpoint (TcpClient,
// UdpClient, UnixClient). All callbacks carry the descriptor so a single
// listener can serve multiple clients.
type ClientListener = core.ClientListener

// Endpoint is the common lifecycle every transport endpoint implements.
type Endpoint = core.Endpoint

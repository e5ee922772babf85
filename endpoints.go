package network

import (
	"github.com/lmshao/network/transport/tcp"
	"github.com/lmshao/network/transport/udp"
	"github.com/lmshao/network/transport/unix"
)

// TcpServer is a TCP listener accepting connections on listenIP:listenPort.
// An empty listenIP binds all interfaces. Call Init, then Start.
type TcpServer = tcp.Server

// NewTcpServer constructs a TCP listener endpoint.
func NewTcpServer(listenIP string, listenPort uint16) *TcpServer {
	return tcp.NewServer(listenIP, listenPort)
}

// TcpClient connects to a single remote TCP peer, optionally bound to a
// specific local address. Call Init, then Connect.
type TcpClient = tcp.Client

// NewTcpClient constructs a TCP client endpoint.
func NewTcpClient(remoteIP string, remotePort uint16, localIP string, localPort uint16) *TcpClient {
	return tcp.NewClient(remoteIP, remotePort, localIP, localPort)
}

// UdpServer is a UDP socket bound to listenIP:listenPort that hands the
// caller an ephemeral per-peer Session for every inbound datagram.
type UdpServer = udp.Server

// NewUdpServer constructs a UDP server endpoint.
func NewUdpServer(listenIP string, listenPort uint16) *UdpServer {
	return udp.NewServer(listenIP, listenPort)
}

// UdpClient is a UDP socket fixed to one remote peer.
type UdpClient = udp.Client

// NewUdpClient constructs a UDP client endpoint.
func NewUdpClient(remoteIP string, remotePort uint16, localIP string, localPort uint16) *UdpClient {
	return udp.NewClient(remoteIP, remotePort, localIP, localPort)
}

// UnixServer is a local-domain stream listener bound to a filesystem path.
type UnixServer = unix.Server

// NewUnixServer constructs a Unix-domain server endpoint.
func NewUnixServer(socketPath string) *UnixServer {
	return unix.NewServer(socketPath)
}

// UnixClient connects to a local-domain stream listener at a filesystem
// path. Call Init, then Connect.
type UnixClient = unix.Client

// NewUnixClient constructs a Unix-domain client endpoint.
func NewUnixClient(socketPath string) *UnixClient {
	return unix.NewClient(socketPath)
}

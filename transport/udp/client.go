package udp

import (
	"github.com/lmshao/network/internal/core"
	"github.com/lmshao/network/internal/netlog"
	"github.com/lmshao/network/internal/reactor"
	"github.com/lmshao/network/internal/taskqueue"
)

// Client is a UDP socket with a fixed remote peer, delivering callbacks
// through its own serial task queue (unlike Server, which has no single
// peer to serialize against).
type Client struct {
	remoteIP   string
	remotePort uint16
	localIP    string
	localPort  uint16

	fd int
	re *reactor.Reactor
	tq *taskqueue.Queue

	listener core.ClientListener
	readBuf  []byte
}

// NewClient creates a UDP client targeting remoteIP:remotePort, optionally
// bound to a specific local address.
func NewClient(remoteIP string, remotePort uint16, localIP string, localPort uint16) *Client {
	return &Client{remoteIP: remoteIP, remotePort: remotePort, localIP: localIP, localPort: localPort, fd: -1}
}

// SetListener registers the callback sink. Must be called before Init.
func (c *Client) SetListener(l core.ClientListener) { c.listener = l }

// EnableBroadcast sets SO_BROADCAST on the underlying socket; Init must
// have been called first.
func (c *Client) EnableBroadcast() bool {
	if c.fd < 0 {
		netlog.Errorf("udp client: socket not initialized")
		return false
	}
	if err := enableBroadcast(c.fd); err != nil {
		netlog.Errorf("udp client: enable broadcast: %v", err)
		return false
	}
	return true
}

// Init creates the socket, applies the optional local bind, starts the
// task queue, and registers with the reactor. UDP has no handshake, so
// Init alone makes the client ready to send and receive.
func (c *Client) Init() bool {
	fd, err := newSocket(true)
	if err != nil {
		netlog.Errorf("udp client: init: %v", err)
		return false
	}
	c.fd = fd

	if c.localIP != "" || c.localPort != 0 {
		if err := bindSocket(fd, c.localIP, c.localPort); err != nil {
			netlog.Errorf("udp client: init: %v", err)
			closeSocket(fd)
			c.fd = -1
			return false
		}
	}

	c.tq = taskqueue.NewQueue("UdpClientCb")
	if err := c.tq.Start(); err != nil {
		netlog.Errorf("udp client: start task queue: %v", err)
		return false
	}

	re, err := reactor.Get()
	if err != nil {
		netlog.Errorf("udp client: reactor unavailable: %v", err)
		return false
	}
	c.re = re
	if err := c.re.Register(c); err != nil {
		netlog.Errorf("udp client: register: %v", err)
		return false
	}
	return true
}

// Send transmits raw bytes to the configured remote peer.
func (c *Client) Send(data []byte) bool {
	if c.fd < 0 || len(data) == 0 {
		return false
	}
	if err := sendTo(c.fd, data, c.remoteIP, c.remotePort); err != nil {
		netlog.Debugf("udp client: sendto: %v", err)
		return false
	}
	return true
}

// SendString transmits a string to the configured remote peer.
func (c *Client) SendString(str string) bool {
	return c.Send([]byte(str))
}

// SendBuffer transmits an already-populated buffer to the configured
// remote peer.
func (c *Client) SendBuffer(buf *core.Buffer) bool {
	if buf == nil {
		return false
	}
	return c.Send(buf.Data())
}

// Close removes the socket from the reactor, closes it, and stops the
// task queue.
func (c *Client) Close() {
	if c.fd >= 0 {
		if c.re != nil {
			c.re.Remove(c.fd)
		}
		closeSocket(c.fd)
		c.fd = -1
	}
	if c.tq != nil {
		c.tq.Stop()
	}
}

// GetSocketFd returns the socket descriptor.
func (c *Client) GetSocketFd() int { return c.fd }

func (c *Client) Fd() int { return c.fd }

func (c *Client) Interest() reactor.EventSet {
	return reactor.EventRead | reactor.EventError | reactor.EventClose
}

func (c *Client) OnRead() {
	if c.readBuf == nil {
		c.readBuf = make([]byte, recvBufferMaxSize)
	}
	for {
		n, err := recvFixed(c.fd, c.readBuf)
		if n > 0 {
			buf := core.PoolAlloc(n)
			buf.Assign(c.readBuf[:n])
			if c.listener != nil {
				l := c.listener
				fd := c.fd
				task := taskqueue.New(func() struct{} {
					l.OnReceive(fd, buf)
					return struct{}{}
				})
				_ = c.tq.Enqueue(task, false, 0)
			}
			continue
		}
		if isWouldBlock(err) {
			return
		}
		if err != nil {
			netlog.Debugf("udp client: recv error on fd %d: %v", c.fd, err)
			c.handleClose(true, err.Error())
		}
		return
	}
}

func (c *Client) OnWrite() {}

func (c *Client) OnError() { c.handleClose(true, "connection error") }
func (c *Client) OnClose() { c.handleClose(false, "connection closed") }

func (c *Client) handleClose(isError bool, reason string) {
	fd := c.fd
	if fd < 0 {
		return
	}
	if c.re != nil {
		c.re.Remove(fd)
	}
	closeSocket(fd)
	c.fd = -1

	if c.listener != nil {
		l := c.listener
		task := taskqueue.New(func() struct{} {
			if isError {
				l.OnError(fd, reason)
			} else {
				l.OnClose(fd)
			}
			return struct{}{}
		})
		_ = c.tq.Enqueue(task, false, 0)
	}
}

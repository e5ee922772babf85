package tcp

import (
	"github.com/lmshao/network/internal/core"
	"github.com/lmshao/network/internal/netlog"
	"github.com/lmshao/network/internal/reactor"
	"github.com/lmshao/network/internal/taskqueue"
)

// Client is a TCP client endpoint: a single outbound connection with its
// own send queue and callback task queue.
type Client struct {
	remoteIP   string
	remotePort uint16
	localIP    string
	localPort  uint16

	fd int
	re *reactor.Reactor
	tq *taskqueue.Queue
	c  *conn

	listener core.ClientListener
}

// NewClient creates a TCP client targeting remoteIP:remotePort, optionally
// bound to a specific local address.
func NewClient(remoteIP string, remotePort uint16, localIP string, localPort uint16) *Client {
	return &Client{
		remoteIP:   remoteIP,
		remotePort: remotePort,
		localIP:    localIP,
		localPort:  localPort,
		fd:         -1,
	}
}

// SetListener registers the callback sink. Must be called before Connect.
func (cl *Client) SetListener(l core.ClientListener) { cl.listener = l }

// Init creates the socket and applies the optional local bind.
func (cl *Client) Init() bool {
	fd, err := dialSocket(cl.localIP, cl.localPort)
	if err != nil {
		netlog.Errorf("tcp client: init: %v", err)
		return false
	}
	cl.fd = fd
	cl.tq = taskqueue.NewQueue("TcpClientCb")
	return true
}

// Connect issues a non-blocking connect and waits up to one second for it
// to complete, matching the reference implementation's select-based wait,
// then registers the connection with the reactor.
func (cl *Client) Connect() bool {
	if cl.fd < 0 {
		netlog.Errorf("tcp client: socket not initialized")
		return false
	}

	inProgress, err := connect(cl.fd, cl.remoteIP, cl.remotePort)
	if err != nil {
		netlog.Errorf("tcp client: connect(%s:%d) failed: %v", cl.remoteIP, cl.remotePort, err)
		cl.reinit()
		return false
	}

	if inProgress {
		ready, err := waitWritable(cl.fd, 1, 0)
		if err != nil || !ready {
			netlog.Errorf("tcp client: connect(%s:%d) timed out", cl.remoteIP, cl.remotePort)
			cl.reinit()
			return false
		}
		if err := connectError(cl.fd); err != nil {
			netlog.Errorf("tcp client: connect(%s:%d) failed: %v", cl.remoteIP, cl.remotePort, err)
			cl.reinit()
			return false
		}
	}

	re, err := reactor.Get()
	if err != nil {
		netlog.Errorf("tcp client: reactor unavailable: %v", err)
		return false
	}
	cl.re = re

	if err := cl.tq.Start(); err != nil {
		netlog.Errorf("tcp client: start task queue: %v", err)
		return false
	}

	cl.c = newConn(cl.fd, cl, cl.re)
	if err := cl.re.Register(cl.c); err != nil {
		netlog.Errorf("tcp client: register: %v", err)
		return false
	}

	return true
}

func (cl *Client) reinit() {
	if cl.fd >= 0 {
		closeSocket(cl.fd)
		cl.fd = -1
	}
	cl.Init()
}

// Send transmits raw bytes, taking ownership of a freshly pooled copy.
func (cl *Client) Send(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	b := core.PoolAlloc(len(data))
	b.Assign(data)
	return cl.SendBuffer(b)
}

// SendString transmits a string.
func (cl *Client) SendString(str string) bool {
	if str == "" {
		return false
	}
	b := core.PoolAlloc(len(str))
	b.Assign([]byte(str))
	return cl.SendBuffer(b)
}

// SendBuffer transmits an already-populated buffer.
func (cl *Client) SendBuffer(buf *core.Buffer) bool {
	if buf == nil || buf.Size() == 0 || cl.c == nil {
		return false
	}
	return cl.c.queueSend(buf)
}

// Close tears down the connection immediately, then stops the task queue.
func (cl *Client) Close() {
	if cl.fd >= 0 && cl.c != nil {
		if cl.re != nil {
			cl.re.Remove(cl.fd)
		}
		closeSocket(cl.fd)
		cl.fd = -1
		cl.c = nil
	}
	if cl.tq != nil {
		cl.tq.Stop()
	}
}

// GetSocketFd returns the connection's socket descriptor.
func (cl *Client) GetSocketFd() int { return cl.fd }

func (cl *Client) handleReceive(fd int, buf *core.Buffer) {
	if cl.listener == nil {
		return
	}
	l := cl.listener
	task := taskqueue.New(func() struct{} {
		l.OnReceive(fd, buf)
		return struct{}{}
	})
	_ = cl.tq.Enqueue(task, false, 0)
}

func (cl *Client) handleConnClose(fd int, isError bool, reason string) {
	if cl.fd != fd {
		return
	}
	if cl.re != nil {
		cl.re.Remove(fd)
	}
	closeSocket(fd)
	cl.fd = -1
	cl.c = nil

	if cl.listener != nil {
		l := cl.listener
		task := taskqueue.New(func() struct{} {
			if isError {
				l.OnError(fd, reason)
			} else {
				l.OnClose(fd)
			}
			return struct{}{}
		})
		_ = cl.tq.Enqueue(task, false, 0)
	}
}

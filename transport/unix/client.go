//go:build !windows

package unix

import (
	"github.com/lmshao/network/internal/core"
	"github.com/lmshao/network/internal/netlog"
	"github.com/lmshao/network/internal/reactor"
	"github.com/lmshao/network/internal/taskqueue"
)

// Client is a Unix-domain stream client connecting to a listener's
// socket path.
type Client struct {
	socketPath string

	fd int
	re *reactor.Reactor
	tq *taskqueue.Queue
	c  *conn

	listener core.ClientListener
}

// NewClient creates a Unix-domain client targeting socketPath.
func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath, fd: -1}
}

// SetListener registers the callback sink. Must be called before Connect.
func (cl *Client) SetListener(l core.ClientListener) { cl.listener = l }

// Init creates the socket.
func (cl *Client) Init() bool {
	fd, err := dialSocket()
	if err != nil {
		netlog.Errorf("unix client: init: %v", err)
		return false
	}
	cl.fd = fd
	cl.tq = taskqueue.NewQueue("UnixClientCb")
	return true
}

// Connect issues a non-blocking connect and waits up to one second for it
// to complete, then registers the connection with the reactor.
func (cl *Client) Connect() bool {
	if cl.fd < 0 {
		netlog.Errorf("unix client: socket not initialized")
		return false
	}

	inProgress, err := connect(cl.fd, cl.socketPath)
	if err != nil {
		netlog.Errorf("unix client: connect(%s) failed: %v", cl.socketPath, err)
		return false
	}

	if inProgress {
		ready, err := waitWritable(cl.fd, 1, 0)
		if err != nil || !ready {
			netlog.Errorf("unix client: connect(%s) timed out", cl.socketPath)
			return false
		}
		if err := connectError(cl.fd); err != nil {
			netlog.Errorf("unix client: connect(%s) failed: %v", cl.socketPath, err)
			return false
		}
	}

	re, err := reactor.Get()
	if err != nil {
		netlog.Errorf("unix client: reactor unavailable: %v", err)
		return false
	}
	cl.re = re

	if err := cl.tq.Start(); err != nil {
		netlog.Errorf("unix client: start task queue: %v", err)
		return false
	}

	cl.c = newConn(cl.fd, cl, cl.re)
	if err := cl.re.Register(cl.c); err != nil {
		netlog.Errorf("unix client: register: %v", err)
		return false
	}
	return true
}

// Send transmits raw bytes.
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

// Close tears down the connection, then stops the task queue.
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

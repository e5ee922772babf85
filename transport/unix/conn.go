//go:build !windows

// Package unix implements the Unix-domain stream listener/accepted-
// connection and client endpoints, built the same way as transport/tcp
// but over AF_UNIX sockets addressed by filesystem path instead of
// host:port.
package unix

import (
	"github.com/lmshao/network/internal/core"
	"github.com/lmshao/network/internal/netlog"
	"github.com/lmshao/network/internal/reactor"
	"github.com/lmshao/network/internal/sendqueue"
)

type closer interface {
	handleReceive(fd int, buf *core.Buffer)
	handleConnClose(fd int, isError bool, reason string)
}

// conn is one accepted or connected Unix-domain socket registered with
// the reactor, mirroring transport/tcp's conn exactly (send queue,
// write-interest toggling, recv loop).
type conn struct {
	fd    int
	owner closer

	re *reactor.Reactor

	writeEnabled bool
	sendQ        *sendqueue.Queue

	readBuf []byte
}

func newConn(fd int, owner closer, re *reactor.Reactor) *conn {
	return &conn{fd: fd, owner: owner, re: re, sendQ: sendqueue.New()}
}

func (c *conn) Fd() int { return c.fd }

func (c *conn) Interest() reactor.EventSet {
	ev := reactor.EventRead | reactor.EventError | reactor.EventClose
	if c.writeEnabled {
		ev |= reactor.EventWrite
	}
	return ev
}

func (c *conn) OnRead() {
	if c.readBuf == nil {
		c.readBuf = make([]byte, recvBufferMaxSize)
	}
	for {
		n, err := recvInto(c.fd, c.readBuf)
		if n > 0 {
			b := core.PoolAlloc(n)
			b.Assign(c.readBuf[:n])
			c.owner.handleReceive(c.fd, b)
			continue
		}
		if n == 0 && err == nil {
			return
		}
		if isWouldBlock(err) {
			return
		}
		netlog.Debugf("unix: recv error on fd %d: %v", c.fd, err)
		c.owner.handleConnClose(c.fd, true, err.Error())
		return
	}
}

func (c *conn) OnWrite() { c.processSendQueue() }
func (c *conn) OnError() { c.owner.handleConnClose(c.fd, true, "connection error") }
func (c *conn) OnClose() { c.owner.handleConnClose(c.fd, false, "connection closed") }

func (c *conn) queueSend(buf *core.Buffer) bool {
	if buf == nil || buf.Size() == 0 {
		return false
	}
	c.sendQ.Push(buf)
	c.enableWrite()
	return true
}

func (c *conn) enableWrite() {
	if c.writeEnabled {
		return
	}
	c.writeEnabled = true
	if err := c.re.Modify(c); err != nil {
		netlog.Warnf("unix: modify(%d) to arm write failed: %v", c.fd, err)
	}
}

func (c *conn) disableWrite() {
	if !c.writeEnabled {
		return
	}
	c.writeEnabled = false
	if err := c.re.Modify(c); err != nil {
		netlog.Warnf("unix: modify(%d) to disarm write failed: %v", c.fd, err)
	}
}

func (c *conn) processSendQueue() {
	empty, err := c.sendQ.Drain(func(p []byte) (int, bool, error) {
		n, sendErr := sendFrom(c.fd, p)
		if sendErr != nil {
			if isWouldBlock(sendErr) {
				return 0, true, nil
			}
			return 0, false, sendErr
		}
		return n, false, nil
	})
	if err != nil {
		netlog.Debugf("unix: send error on fd %d: %v", c.fd, err)
		c.owner.handleConnClose(c.fd, true, err.Error())
		return
	}
	if empty {
		c.disableWrite()
	}
}

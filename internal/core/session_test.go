package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	fd   int
	host string
	port uint16
	buf  *Buffer
	ret  bool
}

func (r *recordingSender) SendFrom(fd int, host string, port uint16, buf *Buffer) bool {
	r.fd, r.host, r.port, r.buf = fd, host, port, buf
	return r.ret
}

func TestSessionSendRoutesThroughOwner(t *testing.T) {
	sender := &recordingSender{ret: true}
	s := NewSession(7, "127.0.0.1", 9000, sender)

	ok := s.Send([]byte("hello"))
	require.True(t, ok)
	assert.Equal(t, 7, sender.fd)
	assert.Equal(t, "127.0.0.1", sender.host)
	assert.Equal(t, uint16(9000), sender.port)
	assert.Equal(t, []byte("hello"), sender.buf.Data())
}

func TestSessionSendAfterDetachFailsBenignly(t *testing.T) {
	sender := &recordingSender{ret: true}
	s := NewSession(7, "127.0.0.1", 9000, sender)
	s.Detach()

	ok := s.Send([]byte("hello"))
	assert.False(t, ok)
}

func TestSessionSendEmptyRejected(t *testing.T) {
	sender := &recordingSender{ret: true}
	s := NewSession(7, "", 0, sender)
	assert.False(t, s.Send(nil))
	assert.False(t, s.SendString(""))
	assert.False(t, s.SendBuffer(nil))
}

func TestSessionClientInfo(t *testing.T) {
	s := NewSession(1, "10.0.0.1", 4321, &recordingSender{})
	assert.Equal(t, "10.0.0.1:4321", s.ClientInfo())
}

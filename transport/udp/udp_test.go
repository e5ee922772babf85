//go:build linux

package udp_test

import (
	"testing"
	"time"

	"github.com/lmshao/network/internal/core"
	"github.com/lmshao/network/transport/udp"
	"github.com/stretchr/testify/require"
)

type udpServerListener struct {
	received chan string
	session  chan *core.Session
}

func newUDPServerListener() *udpServerListener {
	return &udpServerListener{received: make(chan string, 8), session: make(chan *core.Session, 8)}
}

func (l *udpServerListener) OnAccept(s *core.Session) {}
func (l *udpServerListener) OnReceive(s *core.Session, b *core.Buffer) {
	l.received <- string(b.Data())
	l.session <- s
}
func (l *udpServerListener) OnClose(s *core.Session)                {}
func (l *udpServerListener) OnError(s *core.Session, reason string) {}

type udpClientListener struct {
	received chan string
}

func newUDPClientListener() *udpClientListener { return &udpClientListener{received: make(chan string, 8)} }

func (l *udpClientListener) OnReceive(fd int, b *core.Buffer) { l.received <- string(b.Data()) }
func (l *udpClientListener) OnClose(fd int)                   {}
func (l *udpClientListener) OnError(fd int, reason string)    {}

func TestUDPEchoRoundTrip(t *testing.T) {
	const port = 19341

	srvListener := newUDPServerListener()
	srv := udp.NewServer("127.0.0.1", port)
	srv.SetListener(srvListener)
	require.True(t, srv.Init())
	require.NoError(t, srv.Start())
	defer srv.Stop()

	cliListener := newUDPClientListener()
	cli := udp.NewClient("127.0.0.1", port, "", 0)
	cli.SetListener(cliListener)
	require.True(t, cli.Init())
	defer cli.Close()

	require.True(t, cli.SendString("ping"))

	var session *core.Session
	select {
	case got := <-srvListener.received:
		require.Equal(t, "ping", got)
		session = <-srvListener.session
	case <-time.After(2 * time.Second):
		t.Fatal("server did not receive datagram")
	}

	require.True(t, session.SendString("pong"))

	select {
	case got := <-cliListener.received:
		require.Equal(t, "pong", got)
	case <-time.After(2 * time.Second):
		t.Fatal("client did not receive reply")
	}
}

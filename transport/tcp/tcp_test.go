//go:build linux

package tcp_test

import (
	"testing"
	"time"

	"github.com/lmshao/network/internal/core"
	"github.com/lmshao/network/transport/tcp"
	"github.com/stretchr/testify/require"
)

type serverListener struct {
	received chan string
	session  chan *core.Session
	closed   chan *core.Session
	errored  chan string
}

func newServerListener() *serverListener {
	return &serverListener{
		received: make(chan string, 8),
		session:  make(chan *core.Session, 8),
		closed:   make(chan *core.Session, 8),
		errored:  make(chan string, 8),
	}
}

func (l *serverListener) OnAccept(s *core.Session)                  { l.session <- s }
func (l *serverListener) OnReceive(s *core.Session, b *core.Buffer) { l.received <- string(b.Data()) }
func (l *serverListener) OnClose(s *core.Session)                   { l.closed <- s }
func (l *serverListener) OnError(s *core.Session, reason string)    { l.errored <- reason }

type clientListener struct {
	received chan string
}

func newClientListener() *clientListener { return &clientListener{received: make(chan string, 8)} }

func (l *clientListener) OnReceive(fd int, b *core.Buffer) { l.received <- string(b.Data()) }
func (l *clientListener) OnClose(fd int)                   {}
func (l *clientListener) OnError(fd int, reason string)    {}

func TestTCPEchoRoundTrip(t *testing.T) {
	const port = 19321

	srvListener := newServerListener()
	srv := tcp.NewServer("127.0.0.1", port)
	srv.SetListener(srvListener)
	require.True(t, srv.Init())
	require.NoError(t, srv.Start())
	defer srv.Stop()

	cliListener := newClientListener()
	cli := tcp.NewClient("127.0.0.1", port, "", 0)
	cli.SetListener(cliListener)
	require.True(t, cli.Init())
	require.True(t, cli.Connect())
	defer cli.Close()

	var session *core.Session
	select {
	case session = <-srvListener.session:
	case <-time.After(2 * time.Second):
		t.Fatal("server did not observe accept")
	}

	require.True(t, cli.SendString("hello"))

	select {
	case got := <-srvListener.received:
		require.Equal(t, "hello", got)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not receive bytes")
	}

	require.True(t, session.SendString("world"))

	select {
	case got := <-cliListener.received:
		require.Equal(t, "world", got)
	case <-time.After(2 * time.Second):
		t.Fatal("client did not receive reply")
	}
}

func TestTCPLargeWrite(t *testing.T) {
	const port = 19331

	srvListener := newServerListener()
	srv := tcp.NewServer("127.0.0.1", port)
	srv.SetListener(srvListener)
	require.True(t, srv.Init())
	require.NoError(t, srv.Start())
	defer srv.Stop()

	cliListener := newClientListener()
	cli := tcp.NewClient("127.0.0.1", port, "", 0)
	cli.SetListener(cliListener)
	require.True(t, cli.Init())
	require.True(t, cli.Connect())
	defer cli.Close()

	select {
	case <-srvListener.session:
	case <-time.After(2 * time.Second):
		t.Fatal("server did not observe accept")
	}

	payload := make([]byte, 1<<20) // 1MiB, forces a partial-write arm/drain cycle
	for i := range payload {
		payload[i] = byte(i)
	}
	require.True(t, cli.Send(payload))

	total := 0
	deadline := time.After(5 * time.Second)
	for total < len(payload) {
		select {
		case got := <-srvListener.received:
			total += len(got)
		case <-deadline:
			t.Fatalf("only received %d of %d bytes", total, len(payload))
		}
	}
	require.Equal(t, len(payload), total)
}

func TestTCPPeerCloseObservedWithoutError(t *testing.T) {
	const port = 19361

	srvListener := newServerListener()
	srv := tcp.NewServer("127.0.0.1", port)
	srv.SetListener(srvListener)
	require.True(t, srv.Init())
	require.NoError(t, srv.Start())
	defer srv.Stop()

	cliListener := newClientListener()
	cli := tcp.NewClient("127.0.0.1", port, "", 0)
	cli.SetListener(cliListener)
	require.True(t, cli.Init())
	require.True(t, cli.Connect())

	select {
	case <-srvListener.session:
	case <-time.After(2 * time.Second):
		t.Fatal("server did not observe accept")
	}

	require.True(t, cli.Send([]byte("ping")))

	select {
	case got := <-srvListener.received:
		require.Equal(t, "ping", got)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not receive bytes")
	}

	cli.Close()

	select {
	case <-srvListener.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("server did not observe peer close")
	}

	select {
	case reason := <-srvListener.errored:
		t.Fatalf("unexpected OnError after a clean peer close: %s", reason)
	case <-time.After(200 * time.Millisecond):
	}
}

//go:build !windows

package unix_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lmshao/network/internal/core"
	"github.com/lmshao/network/transport/unix"
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

func TestUnixEchoRoundTrip(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "echo.sock")

	srvListener := newServerListener()
	srv := unix.NewServer(socketPath)
	srv.SetListener(srvListener)
	require.True(t, srv.Init())
	require.NoError(t, srv.Start())
	defer srv.Stop()

	cliListener := newClientListener()
	cli := unix.NewClient(socketPath)
	cli.SetListener(cliListener)
	require.True(t, cli.Init())
	require.True(t, cli.Connect())

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

	// Clean close after both sides issue close: the client closes its end
	// first, the server observes OnClose with no OnError, then the server
	// itself closes and unlinks the socket file.
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

	srv.Stop()

	_, err := os.Stat(socketPath)
	require.True(t, os.IsNotExist(err), "socket file must be removed after Stop")
}

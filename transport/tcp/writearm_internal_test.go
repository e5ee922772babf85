//go:build linux

package tcp

import (
	"testing"
	"time"

	"github.com/lmshao/network/internal/core"
	"github.com/stretchr/testify/require"
)

type rapidServerListener struct {
	received chan []byte
	session  chan *core.Session
}

func newRapidServerListener() *rapidServerListener {
	return &rapidServerListener{received: make(chan []byte, 256), session: make(chan *core.Session, 1)}
}

func (l *rapidServerListener) OnAccept(s *core.Session) { l.session <- s }
func (l *rapidServerListener) OnReceive(s *core.Session, b *core.Buffer) {
	l.received <- append([]byte(nil), b.Data()...)
}
func (l *rapidServerListener) OnClose(s *core.Session)                {}
func (l *rapidServerListener) OnError(s *core.Session, reason string) {}

type discardClientListener struct{}

func (discardClientListener) OnReceive(fd int, b *core.Buffer) {}
func (discardClientListener) OnClose(fd int)                   {}
func (discardClientListener) OnError(fd int, reason string)    {}

// TestRapidSendsDrainInOrderAndDisarmWrite reproduces the partial-write
// arming scenario: 100 rapid 4KiB sends must all reach the peer in order,
// and once the send queue drains the connection's write interest must
// fall back to disarmed.
func TestRapidSendsDrainInOrderAndDisarmWrite(t *testing.T) {
	const port = 19351
	const chunks = 100
	const chunkSize = 4096

	srvListener := newRapidServerListener()
	srv := NewServer("127.0.0.1", port)
	srv.SetListener(srvListener)
	require.True(t, srv.Init())
	require.NoError(t, srv.Start())
	defer srv.Stop()

	cli := NewClient("127.0.0.1", port, "", 0)
	cli.SetListener(discardClientListener{})
	require.True(t, cli.Init())
	require.True(t, cli.Connect())
	defer cli.Close()

	select {
	case <-srvListener.session:
	case <-time.After(2 * time.Second):
		t.Fatal("server did not observe accept")
	}

	want := make([]byte, 0, chunks*chunkSize)
	for i := 0; i < chunks; i++ {
		chunk := make([]byte, chunkSize)
		for j := range chunk {
			chunk[j] = byte(i)
		}
		want = append(want, chunk...)
		require.True(t, cli.Send(chunk))
	}

	got := make([]byte, 0, len(want))
	deadline := time.Now().Add(5 * time.Second)
	for len(got) < len(want) {
		select {
		case chunk := <-srvListener.received:
			got = append(got, chunk...)
		case <-time.After(50 * time.Millisecond):
			if time.Now().After(deadline) {
				t.Fatalf("only received %d of %d bytes", len(got), len(want))
			}
		}
	}
	require.Equal(t, want, got)

	armDeadline := time.Now().Add(2 * time.Second)
	for cli.c.writeEnabled {
		if time.Now().After(armDeadline) {
			t.Fatal("client send queue never disarmed write interest")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

//go:build linux

package reactor

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testHandler struct {
	fd       int
	interest EventSet
	onRead   chan struct{}
	onClose  chan struct{}
}

func newTestHandler(fd int) *testHandler {
	return &testHandler{fd: fd, interest: EventRead | EventClose, onRead: make(chan struct{}, 8), onClose: make(chan struct{}, 1)}
}

func (h *testHandler) Fd() int          { return h.fd }
func (h *testHandler) Interest() EventSet { return h.interest }
func (h *testHandler) OnRead()          { h.onRead <- struct{}{} }
func (h *testHandler) OnWrite()         {}
func (h *testHandler) OnError()         {}
func (h *testHandler) OnClose() {
	select {
	case h.onClose <- struct{}{}:
	default:
	}
}

func TestReactorRegisterDispatchesOnRead(t *testing.T) {
	re, err := Get()
	require.NoError(t, err)

	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	h := newTestHandler(int(r.Fd()))
	require.NoError(t, re.Register(h))
	defer re.Remove(h.Fd())

	_, err = w.Write([]byte("x"))
	require.NoError(t, err)

	select {
	case <-h.onRead:
	case <-time.After(2 * time.Second):
		t.Fatal("OnRead was not dispatched")
	}

	// drain so the edge-triggered fd doesn't stay perpetually ready
	buf := make([]byte, 1)
	_, _ = r.Read(buf)
}

func TestReactorRemoveIsIdempotent(t *testing.T) {
	re, err := Get()
	require.NoError(t, err)

	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	h := newTestHandler(int(r.Fd()))
	require.NoError(t, re.Register(h))

	assert.True(t, re.Remove(h.Fd()))
	assert.False(t, re.Remove(h.Fd()), "removing an already-removed fd must report false, not panic")
}

func TestReactorModifyUpdatesInterest(t *testing.T) {
	re, err := Get()
	require.NoError(t, err)

	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	h := newTestHandler(int(r.Fd()))
	require.NoError(t, re.Register(h))
	defer re.Remove(h.Fd())

	h.interest |= EventWrite
	assert.NoError(t, re.Modify(h))
}

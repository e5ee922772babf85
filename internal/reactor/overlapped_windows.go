//go:build windows

package reactor

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// opKind tags what kind of overlapped operation completed, so the
// reactor can translate a raw IOCP completion into the readiness-shaped
// EventRead/EventWrite the Handler contract expects.
type opKind uint8

const (
	opRead opKind = iota
	opWrite
)

// Overlapped wraps windows.Overlapped with an operation tag. Transport
// code allocates one per outstanding WSARecv/WSASend/overlapped accept
// and passes &Overlapped.Raw as the OVERLAPPED pointer; GetQueuedCompletionStatus
// hands that same pointer back on completion.
type Overlapped struct {
	Raw windows.Overlapped
	Op  opKind
}

// NewReadOverlapped allocates an Overlapped tagged for a read completion.
func NewReadOverlapped() *Overlapped { return &Overlapped{Op: opRead} }

// NewWriteOverlapped allocates an Overlapped tagged for a write completion.
func NewWriteOverlapped() *Overlapped { return &Overlapped{Op: opWrite} }

// RawPtr returns the *windows.Overlapped to pass into a WSA call.
func (o *Overlapped) RawPtr() *windows.Overlapped { return &o.Raw }

func overlappedOp(raw *windows.Overlapped) opKind {
	if raw == nil {
		return opRead
	}
	o := (*Overlapped)(unsafe.Pointer(raw))
	return o.Op
}

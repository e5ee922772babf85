// Package network is a cross-platform, callback-driven transport library
// exposing TCP, UDP, and (on UNIX-family systems) local-domain stream
// sockets as client and server endpoints.
//
// The package owns the underlying descriptors, runs the I/O event loop,
// collects inbound bytes into pooled buffers, and serializes outbound
// writes through a per-connection send queue. The send queue is
// unbounded: Send does not block or fail under backpressure.
// Applications register a ServerListener or ClientListener and never
// touch a descriptor directly.
package network

import "github.com/lmshao/network/internal/core"

// Sentinel errors returned by endpoint lifecycle methods. See
// internal/core for the canonical definitions; they live there so the
// transport packages can return them without importing this package.
var (
	ErrNotInitialized  = core.ErrNotInitialized
	ErrAlreadyRunning  = core.ErrAlreadyRunning
	ErrClosed          = core.ErrClosed
	ErrInvalidArgument = core.ErrInvalidArgument
	ErrQueueStopped    = core.ErrQueueStopped
	ErrDelayTooLarge   = core.ErrDelayTooLarge
	ErrNotSupported    = core.ErrNotSupported
)

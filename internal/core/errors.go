// Package core holds the transport-agnostic contract shared by every
// endpoint package: the pooled Buffer, the Session handle, the
// ServerListener/ClientListener/Sender interfaces, and the sentinel
// errors lifecycle methods return. It exists separately from the root
// network package so that transport/tcp, transport/udp, and
// transport/unix can depend on these types without the root package
// (which constructs and re-exports them) importing the transport
// packages back.
package core

import "errors"

// Sentinel errors returned by endpoint lifecycle methods. Setup and
// lifecycle failures are reported through a boolean/error return; they
// never panic, since a caller mistake (bad address, double Start) is
// always recoverable by discarding the endpoint.
var (
	ErrNotInitialized  = errors.New("network: endpoint not initialized")
	ErrAlreadyRunning  = errors.New("network: endpoint already running")
	ErrClosed          = errors.New("network: endpoint is closed")
	ErrInvalidArgument = errors.New("network: invalid argument")
	ErrQueueStopped    = errors.New("network: task queue is stopped")
	ErrDelayTooLarge   = errors.New("network: delay exceeds maximum of 10s")
	ErrNotSupported    = errors.New("network: operation not supported on this platform")
)

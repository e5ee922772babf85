package network

import "github.com/lmshao/network/internal/core"

// Sender is implemented by the endpoint that owns a Session; it routes a
// Session's Send calls back into the connection's send path. See
// internal/core.Sender for the full contract.
type Sender = core.Sender

// Session is a handle to an active server-side connection, handed to a
// ServerListener on accept and retained by the owning endpoint until
// close. See internal/core.Session for behavioral documentation.
type Session = core.Session

// NewSession constructs a Session bound to its owning endpoint.
func NewSession(fd int, host string, port uint16, owner Sender) *Session {
	return core.NewSession(fd, host, port, owner)
}

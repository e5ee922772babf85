//go:build !linux && !windows

package reactor

import "github.com/lmshao/network/internal/netlog"

// This module targets Linux (epoll) and Windows (IOCP); other platforms
// get a backend that fails fast at construction instead of silently
// degrading to a polling loop.
func newBackend() (backend, error) {
	netlog.Errorf("reactor: no backend available for this platform")
	return nil, errNotSupported
}

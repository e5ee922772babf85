package reactor

import "errors"

var errNotSupported = errors.New("reactor: platform not supported")

var errShuttingDown = errors.New("reactor: shutting down")

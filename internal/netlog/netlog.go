// Package netlog provides the library's internal diagnostic logger.
//
// Logging and leveled diagnostics are an external collaborator of this
// library, not a component it owns; callers that want structured logging
// can replace the sink with SetOutput. By default diagnostics go to
// stderr through the standard log package, matching how the rest of the
// reactor-and-pool stack this module is built from reports internal
// warnings.
package netlog

import (
	"log"
	"os"
)

var logger = log.New(os.Stderr, "[network] ", log.LstdFlags|log.Lmicroseconds)

// SetOutput redirects internal diagnostics to a caller-supplied logger.
func SetOutput(l *log.Logger) {
	if l != nil {
		logger = l
	}
}

func Debugf(format string, args ...any) {
	logger.Printf("DEBUG "+format, args...)
}

func Warnf(format string, args ...any) {
	logger.Printf("WARN "+format, args...)
}

func Errorf(format string, args ...any) {
	logger.Printf("ERROR "+format, args...)
}

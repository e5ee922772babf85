package netlog

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetOutputRedirectsDiagnostics(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(log.New(&buf, "", 0))
	defer SetOutput(log.New(log.Writer(), "[network] ", log.LstdFlags|log.Lmicroseconds))

	Warnf("fd %d closed unexpectedly", 7)

	assert.True(t, strings.Contains(buf.String(), "WARN fd 7 closed unexpectedly"))
}

func TestSetOutputIgnoresNil(t *testing.T) {
	before := logger
	SetOutput(nil)
	assert.Equal(t, before, logger, "SetOutput(nil) must not replace the active logger")
}

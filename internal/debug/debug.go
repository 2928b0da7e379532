// Package debug is a minimal, level-gated logger for the core's own
// diagnostics. It is not a general logging framework: output is off by
// default, goes nowhere unless a writer is configured, and every call is a
// no-op cost (a bool check) when disabled.
package debug

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// EnableDebug is a build-time flag:
//   go build -ldflags "-X github.com/codeindexer/oci/internal/debug.EnableDebug=true"
var EnableDebug = "false"

var (
	mu     sync.Mutex
	output io.Writer
)

// SetOutput sets the writer debug output is sent to. Pass nil to disable.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Enabled reports whether debug output should be produced: the build flag,
// or the OCI_DEBUG environment variable.
func Enabled() bool {
	if EnableDebug == "true" {
		return true
	}
	v := os.Getenv("OCI_DEBUG")
	return v == "1" || v == "true"
}

func writer() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return output
}

// Printf writes a debug line if enabled and a writer is configured.
func Printf(format string, args ...interface{}) {
	if !Enabled() {
		return
	}
	if w := writer(); w != nil {
		fmt.Fprintf(w, "[debug] "+format+"\n", args...)
	}
}

// Component writes a component-tagged debug line, e.g. Component("indexer", ...).
func Component(component, format string, args ...interface{}) {
	if !Enabled() {
		return
	}
	if w := writer(); w != nil {
		fmt.Fprintf(w, "[debug:%s] "+format+"\n", append([]interface{}{component}, args...)...)
	}
}

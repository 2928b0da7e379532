package indexer

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain guards the one package that spins up background work of its
// own (Watcher's event loop): every test must leave no goroutine running
// past its own teardown.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
		goleak.IgnoreTopFunction("sync.runtime_Semacquire"),
	)
}

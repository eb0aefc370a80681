// Package storetest provides in-memory stores for tests. Each call creates
// a completely isolated database, avoiding file contention between tests.
package storetest

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/inkwell-app/inkwell/internal/store"
)

var dbCounter atomic.Int64

// NewStoreInMemory creates an isolated in-memory store with the full schema
// applied. Shared-cache naming keeps the database alive across the pool's
// connections.
func NewStoreInMemory(t testing.TB) *store.Store {
	t.Helper()
	s, err := openInMemory()
	if err != nil {
		t.Fatalf("failed to open in-memory store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// NewStoreForRapid is NewStoreInMemory for rapid property tests, whose *rapid.T
// has no Cleanup. The caller closes the store.
func NewStoreForRapid(t interface {
	Fatalf(format string, args ...any)
}) *store.Store {
	s, err := openInMemory()
	if err != nil {
		t.Fatalf("failed to open in-memory store: %v", err)
	}
	return s
}

func openInMemory() (*store.Store, error) {
	name := fmt.Sprintf("inkwell-test-%d", dbCounter.Add(1))
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000&_foreign_keys=on", name)
	return store.OpenDSN(dsn)
}

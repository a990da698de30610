package testsupport

import (
	"path/filepath"
	"testing"

	"moshpit/internal/sessionstore"
)

// MustOpenStore opens a sessionstore.Store in a temp directory and registers
// cleanup.
func MustOpenStore(t testing.TB) *sessionstore.Store {
	t.Helper()

	store, err := sessionstore.Open(filepath.Join(t.TempDir(), "session.db"))
	if err != nil {
		t.Fatalf("sessionstore.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

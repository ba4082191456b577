package testsupport

import (
	"testing"

	"arheritage/internal/config"
	"arheritage/internal/kvstore"
	"arheritage/internal/records"
)

// MustOpenStore opens the SQLite key-value store for tests and registers
// cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *kvstore.SQLite {
	t.Helper()

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	store, err := kvstore.Open(cfg.StorePath())
	if err != nil {
		t.Fatalf("kvstore.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewRecords returns a record store over an in-memory key-value store.
func NewRecords(t testing.TB) (*records.Store, *kvstore.Memory) {
	t.Helper()

	kv := kvstore.NewMemory()
	return records.New(kv, nil), kv
}

package testsupport

import (
	"context"
	"testing"
	"time"

	"facet/internal/config"
	"facet/internal/inspection"
)

// MustOpenStore opens an inspection.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *inspection.Store {
	t.Helper()

	store, err := inspection.Open(cfg)
	if err != nil {
		t.Fatalf("inspection.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewSession creates a new active session for tests using the provided store.
func NewSession(t testing.TB, store *inspection.Store, operator string) *inspection.Session {
	t.Helper()

	session, err := store.CreateSession(context.Background(), operator, time.Now().UTC())
	if err != nil {
		t.Fatalf("store.CreateSession: %v", err)
	}
	return session
}

package testsupport

import (
	"context"
	"testing"

	"reelgate/internal/catalog"
	"reelgate/internal/config"
	"reelgate/internal/requests"
)

// MustOpenStore opens a requests.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *requests.Store {
	t.Helper()

	store, err := requests.Open(cfg)
	if err != nil {
		t.Fatalf("requests.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustOpenCatalog opens a catalog.Store for tests and registers cleanup.
func MustOpenCatalog(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg.Paths.CatalogDB)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SeedCatalog inserts a catalog row for tests.
func SeedCatalog(t testing.TB, store *catalog.Store, filename, cleaned string, year int) int64 {
	t.Helper()

	id, err := store.Add(context.Background(), filename, cleaned, year)
	if err != nil {
		t.Fatalf("catalog.Add: %v", err)
	}
	return id
}

// NewPendingRequest creates a pending request for tests using the provided
// store.
func NewPendingRequest(t testing.TB, store *requests.Store, requesterID string, tmdbID int64, title string, year int) *requests.Request {
	t.Helper()

	id, err := store.Create(context.Background(), requesterID, tmdbID, title, year)
	if err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	request, err := store.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("store.GetByID: %v", err)
	}
	if request == nil {
		t.Fatalf("request %d not found after create", id)
	}
	return request
}

package catalog_test

import (
	"context"
	"path/filepath"
	"testing"

	"reelgate/internal/catalog"
)

func openStore(t *testing.T) *catalog.Store {
	t.Helper()
	store, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestFindCandidatesMatchesSubstring(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	seed := []struct {
		filename string
		cleaned  string
		year     int
	}{
		{"Movie.Name.2023.1080p.BluRay.x264-GRP.mkv", "movie name 2023", 2023},
		{"Movie.Name.1987.DVDRip.avi", "movie name 1987", 1987},
		{"Another.Film.2023.mkv", "another film 2023", 2023},
	}
	for _, row := range seed {
		if _, err := store.Add(ctx, row.filename, row.cleaned, row.year); err != nil {
			t.Fatalf("seed catalog: %v", err)
		}
	}

	entries, err := store.FindCandidates(ctx, "movie name", 2023, 5)
	if err != nil {
		t.Fatalf("FindCandidates: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(entries))
	}
	if entries[0].Year != 2023 {
		t.Fatalf("expected year-closest candidate first, got year %d", entries[0].Year)
	}
}

func TestFindCandidatesHonorsLimit(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if _, err := store.Add(ctx, "shared.title.mkv", "shared title", 2000+i); err != nil {
			t.Fatalf("seed catalog: %v", err)
		}
	}

	entries, err := store.FindCandidates(ctx, "shared title", 0, 3)
	if err != nil {
		t.Fatalf("FindCandidates: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected limit of 3, got %d", len(entries))
	}
}

func TestFindCandidatesEmptyQuery(t *testing.T) {
	store := openStore(t)
	entries, err := store.FindCandidates(context.Background(), "   ", 0, 5)
	if err != nil {
		t.Fatalf("FindCandidates: %v", err)
	}
	if entries != nil {
		t.Fatalf("expected nil result for empty query, got %v", entries)
	}
}

func TestFindCandidatesEscapesLikeWildcards(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if _, err := store.Add(ctx, "100%.Wolf.mkv", "100% wolf", 2020); err != nil {
		t.Fatalf("seed catalog: %v", err)
	}
	if _, err := store.Add(ctx, "1000.Ways.mkv", "1000 ways", 2019); err != nil {
		t.Fatalf("seed catalog: %v", err)
	}

	entries, err := store.FindCandidates(ctx, "100%", 0, 5)
	if err != nil {
		t.Fatalf("FindCandidates: %v", err)
	}
	if len(entries) != 1 || entries[0].CleanedFilename != "100% wolf" {
		t.Fatalf("expected literal %% match only, got %v", entries)
	}
}

func TestCount(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if _, err := store.Add(ctx, "a.mkv", "a movie", 0); err != nil {
		t.Fatalf("seed catalog: %v", err)
	}
	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected count 1, got %d", count)
	}
}

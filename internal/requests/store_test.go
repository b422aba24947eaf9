package requests_test

import (
	"context"
	"testing"

	"reelgate/internal/requests"
	"reelgate/internal/testsupport"
)

func TestQuotaBlocksFourthRequest(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		id, created, err := store.CreateIfUnderQuota(ctx, "alice", i, "Movie", 2020)
		if err != nil {
			t.Fatalf("CreateIfUnderQuota %d: %v", i, err)
		}
		if !created || id == 0 {
			t.Fatalf("expected request %d admitted", i)
		}
	}

	id, created, err := store.CreateIfUnderQuota(ctx, "alice", 4, "Movie Four", 2021)
	if err != nil {
		t.Fatalf("CreateIfUnderQuota over quota: %v", err)
	}
	if created || id != 0 {
		t.Fatal("fourth pending request must be refused")
	}

	allowed, count, pending, err := store.CheckQuota(ctx, "alice")
	if err != nil {
		t.Fatalf("CheckQuota: %v", err)
	}
	if allowed {
		t.Fatal("expected quota exhausted")
	}
	if count != 3 || len(pending) != 3 {
		t.Fatalf("expected 3 pending, got count=%d list=%d", count, len(pending))
	}
}

func TestCancelReopensQuota(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	var lastID int64
	for i := int64(1); i <= 3; i++ {
		id, _, err := store.CreateIfUnderQuota(ctx, "alice", i, "Movie", 2020)
		if err != nil {
			t.Fatalf("CreateIfUnderQuota: %v", err)
		}
		lastID = id
	}

	cancelled, err := store.Cancel(ctx, lastID, "alice")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if !cancelled {
		t.Fatal("expected cancel of own pending request to succeed")
	}

	if _, created, err := store.CreateIfUnderQuota(ctx, "alice", 9, "Another", 2022); err != nil || !created {
		t.Fatalf("expected admission after cancel, created=%v err=%v", created, err)
	}
}

func TestQuotaIsPerRequester(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		if _, _, err := store.CreateIfUnderQuota(ctx, "alice", i, "Movie", 2020); err != nil {
			t.Fatalf("CreateIfUnderQuota: %v", err)
		}
	}

	if _, created, err := store.CreateIfUnderQuota(ctx, "bob", 7, "Movie", 2020); err != nil || !created {
		t.Fatalf("another requester must have a fresh quota, created=%v err=%v", created, err)
	}
}

func TestCompletedRequestsDoNotCountAgainstQuota(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		id, _, err := store.CreateIfUnderQuota(ctx, "alice", i, "Movie", 2020)
		if err != nil {
			t.Fatalf("CreateIfUnderQuota: %v", err)
		}
		if applied, err := store.SetStatus(ctx, id, requests.StatusCompleted); err != nil || !applied {
			t.Fatalf("SetStatus: applied=%v err=%v", applied, err)
		}
	}

	if _, created, err := store.CreateIfUnderQuota(ctx, "alice", 9, "Fresh", 2023); err != nil || !created {
		t.Fatalf("terminal requests must not consume quota, created=%v err=%v", created, err)
	}
}

func TestCancelOwnershipAndStatus(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	request := testsupport.NewPendingRequest(t, store, "alice", 42, "Movie Name", 2023)

	if cancelled, err := store.Cancel(ctx, request.ID, "mallory"); err != nil || cancelled {
		t.Fatalf("cancel by non-owner must be a no-op, cancelled=%v err=%v", cancelled, err)
	}

	if _, err := store.SetStatus(ctx, request.ID, requests.StatusCompleted); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if cancelled, err := store.Cancel(ctx, request.ID, "alice"); err != nil || cancelled {
		t.Fatalf("cancel of completed request must be a no-op, cancelled=%v err=%v", cancelled, err)
	}
}

func TestSetStatusIdempotent(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	request := testsupport.NewPendingRequest(t, store, "alice", 42, "Movie Name", 2023)

	for i := 0; i < 2; i++ {
		applied, err := store.SetStatus(ctx, request.ID, requests.StatusCompleted)
		if err != nil {
			t.Fatalf("SetStatus pass %d: %v", i, err)
		}
		if !applied {
			t.Fatalf("SetStatus pass %d reported not applied", i)
		}
	}

	got, err := store.GetByID(ctx, request.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != requests.StatusCompleted {
		t.Fatalf("expected completed, got %s", got.Status)
	}

	if applied, err := store.SetStatus(ctx, 99999, requests.StatusRejected); err != nil || applied {
		t.Fatalf("SetStatus on missing id must report not applied, applied=%v err=%v", applied, err)
	}
}

func TestSetStatusRejectsUnknown(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	request := testsupport.NewPendingRequest(t, store, "alice", 42, "Movie Name", 2023)

	if _, err := store.SetStatus(context.Background(), request.ID, requests.Status("shipped")); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestFindPendingByTMDBID(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	first := testsupport.NewPendingRequest(t, store, "alice", 42, "Movie Name", 2023)
	second := testsupport.NewPendingRequest(t, store, "bob", 42, "Movie Name", 2023)
	testsupport.NewPendingRequest(t, store, "carol", 7, "Other Film", 2021)

	done := testsupport.NewPendingRequest(t, store, "dave", 42, "Movie Name", 2023)
	if _, err := store.SetStatus(ctx, done.ID, requests.StatusCompleted); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	pending, err := store.FindPendingByTMDBID(ctx, 42)
	if err != nil {
		t.Fatalf("FindPendingByTMDBID: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending for tmdb 42, got %d", len(pending))
	}
	if pending[0].ID != first.ID || pending[1].ID != second.ID {
		t.Fatalf("expected oldest-first order, got %d then %d", pending[0].ID, pending[1].ID)
	}
}

func TestListPendingHonorsLimit(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t, testsupport.WithMaxPending(10)))
	ctx := context.Background()

	for i := int64(1); i <= 6; i++ {
		testsupport.NewPendingRequest(t, store, "alice", i, "Movie", 2020)
	}

	pending, err := store.ListPending(ctx, 4)
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 4 {
		t.Fatalf("expected 4 pending, got %d", len(pending))
	}
}

func TestStats(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	a := testsupport.NewPendingRequest(t, store, "alice", 1, "One", 2020)
	b := testsupport.NewPendingRequest(t, store, "alice", 2, "Two", 2021)
	testsupport.NewPendingRequest(t, store, "bob", 3, "Three", 2022)

	if _, err := store.SetStatus(ctx, a.ID, requests.StatusCompleted); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if _, err := store.SetStatus(ctx, b.ID, requests.StatusRejected); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 3 || stats.Pending != 1 || stats.Completed != 1 || stats.Rejected != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestParseStatus(t *testing.T) {
	if status, err := requests.ParseStatus(" Completed "); err != nil || status != requests.StatusCompleted {
		t.Fatalf("ParseStatus(Completed) = %v, %v", status, err)
	}
	if _, err := requests.ParseStatus("archived"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestLogActivity(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	if err := store.LogActivity(context.Background(), "alice", "request_created", `{"tmdb_id":42}`); err != nil {
		t.Fatalf("LogActivity: %v", err)
	}
}

package audit

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "audit", "pubops.db"), testLogger())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordDispatch_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.RecordDispatch(ctx, Dispatch{
		Keyword:  "pending",
		Command:  "python3 task_query.py --status pending --db pub.db",
		Outcome:  "ok",
		Duration: 1500 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("RecordDispatch: %v", err)
	}

	entries, err := store.RecentDispatches(ctx, 10)
	if err != nil {
		t.Fatalf("RecentDispatches: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	d := entries[0]
	if d.Keyword != "pending" || d.Outcome != "ok" {
		t.Errorf("entry: %+v", d)
	}
	if d.Duration != 1500*time.Millisecond {
		t.Errorf("duration: got %v", d.Duration)
	}
	if d.CreatedAt.IsZero() {
		t.Error("created_at should be set")
	}
}

func TestRecentDispatches_NewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i, keyword := range []string{"first", "second", "third"} {
		err := store.RecordDispatch(ctx, Dispatch{
			Keyword:   keyword,
			Command:   "x",
			Outcome:   "ok",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	entries, err := store.RecentDispatches(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("limit not applied, got %d", len(entries))
	}
	if entries[0].Keyword != "third" || entries[1].Keyword != "second" {
		t.Errorf("order wrong: %q, %q", entries[0].Keyword, entries[1].Keyword)
	}
}

func TestRecordValidation_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.RecordValidation(ctx, ValidationRun{
		Checks:   6,
		Passed:   4,
		Failed:   1,
		TimedOut: 1,
		Duration: 9 * time.Second,
	})
	if err != nil {
		t.Fatalf("RecordValidation: %v", err)
	}

	runs, err := store.RecentValidations(ctx, 5)
	if err != nil {
		t.Fatalf("RecentValidations: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	v := runs[0]
	if v.Checks != 6 || v.Passed != 4 || v.Failed != 1 || v.TimedOut != 1 || v.Errored != 0 {
		t.Errorf("run: %+v", v)
	}
}

func TestNewStore_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deep", "nested", "audit.db")
	store, err := NewStore(path, testLogger())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(path); err != nil {
		t.Errorf("database file should exist: %v", err)
	}
}

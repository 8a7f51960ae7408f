package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenPath(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndRecentThoughts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i, text := range []string{"first", "second", "third"} {
		if err := store.RecordThought(ctx, int64(i), text); err != nil {
			t.Fatalf("RecordThought(%q): %v", text, err)
		}
	}

	thoughts, err := store.RecentThoughts(ctx, 2)
	if err != nil {
		t.Fatalf("RecentThoughts: %v", err)
	}
	if len(thoughts) != 2 {
		t.Fatalf("got %d thoughts, want 2", len(thoughts))
	}
	// Most recent last.
	if thoughts[0].Text != "second" || thoughts[1].Text != "third" {
		t.Fatalf("unexpected ordering: %+v", thoughts)
	}
	if thoughts[1].Cycle != 2 {
		t.Fatalf("cycle = %d, want 2", thoughts[1].Cycle)
	}
	if thoughts[1].Timestamp.IsZero() {
		t.Fatal("timestamp not persisted")
	}
}

func TestRecentThoughtsUnlimited(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := store.RecordThought(ctx, int64(i), "t"); err != nil {
			t.Fatalf("RecordThought: %v", err)
		}
	}
	thoughts, err := store.RecentThoughts(ctx, 0)
	if err != nil {
		t.Fatalf("RecentThoughts: %v", err)
	}
	if len(thoughts) != 5 {
		t.Fatalf("got %d thoughts, want 5", len(thoughts))
	}
}

func TestTrimThoughtsKeepsNewest(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if err := store.RecordThought(ctx, int64(i), "t"); err != nil {
			t.Fatalf("RecordThought: %v", err)
		}
	}
	if err := store.TrimThoughts(ctx, 3); err != nil {
		t.Fatalf("TrimThoughts: %v", err)
	}

	thoughts, err := store.RecentThoughts(ctx, 0)
	if err != nil {
		t.Fatalf("RecentThoughts: %v", err)
	}
	if len(thoughts) != 3 {
		t.Fatalf("got %d thoughts after trim, want 3", len(thoughts))
	}
	if thoughts[0].Cycle != 7 || thoughts[2].Cycle != 9 {
		t.Fatalf("trim kept the wrong window: %+v", thoughts)
	}
}

func TestRecordAndRecentActions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, time.March, 4, 10, 0, 0, 0, time.UTC)
	if err := store.RecordAction(ctx, "a1", "noop", base); err != nil {
		t.Fatalf("RecordAction: %v", err)
	}
	if err := store.RecordAction(ctx, "a2", "benchmark", base.Add(time.Second)); err != nil {
		t.Fatalf("RecordAction: %v", err)
	}

	actions, err := store.RecentActions(ctx, 0)
	if err != nil {
		t.Fatalf("RecentActions: %v", err)
	}
	if len(actions) != 2 {
		t.Fatalf("got %d actions, want 2", len(actions))
	}
	if actions[0].ID != "a1" || actions[1].ID != "a2" {
		t.Fatalf("unexpected ordering: %+v", actions)
	}
	if actions[1].Kind != "benchmark" {
		t.Fatalf("kind = %q", actions[1].Kind)
	}
	if !actions[0].ProcessedAt.Equal(base) {
		t.Fatalf("processed_at = %v, want %v", actions[0].ProcessedAt, base)
	}
}

func TestStatsCountsRows(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.RecordThought(ctx, 1, "t"); err != nil {
		t.Fatalf("RecordThought: %v", err)
	}
	if err := store.RecordAction(ctx, "a1", "noop", time.Now()); err != nil {
		t.Fatalf("RecordAction: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Thoughts != 1 || stats.Actions != 1 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal.db")

	store, err := OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	if err := store.RecordThought(context.Background(), 1, "durable"); err != nil {
		t.Fatalf("RecordThought: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := OpenPath(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	thoughts, err := reopened.RecentThoughts(context.Background(), 0)
	if err != nil {
		t.Fatalf("RecentThoughts: %v", err)
	}
	if len(thoughts) != 1 || thoughts[0].Text != "durable" {
		t.Fatalf("data lost across reopen: %+v", thoughts)
	}
}

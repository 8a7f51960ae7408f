package daemon

import (
	"os"
	"path/filepath"
	"testing"

	"cortex/internal/status"
)

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")

	tracker := status.NewTracker("testd")
	tracker.Transition(status.StateRunning)
	for i := 0; i < 7; i++ {
		tracker.IncrementCycles()
	}
	tracker.RaiseActivity(0.42)
	tracker.SetLastThought("persist me")

	if err := SaveSnapshot(path, tracker.Snapshot()); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	loaded, found, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if !found {
		t.Fatal("snapshot not found after save")
	}
	if loaded.Name != "testd" || loaded.Cycles != 7 {
		t.Fatalf("loaded = %+v", loaded)
	}
	if loaded.ActivityScore != 0.42 {
		t.Fatalf("activity = %v", loaded.ActivityScore)
	}
	if loaded.LastThought != "persist me" {
		t.Fatalf("last thought = %q", loaded.LastThought)
	}
}

func TestLoadSnapshotMissingFile(t *testing.T) {
	_, found, err := LoadSnapshot(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("missing snapshot errored: %v", err)
	}
	if found {
		t.Fatal("missing snapshot reported found")
	}
}

func TestLoadSnapshotCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := LoadSnapshot(path); err == nil {
		t.Fatal("corrupt snapshot must error")
	}
}

func TestSaveSnapshotLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "status.json")

	if err := SaveSnapshot(path, status.NewTracker("x").Snapshot()); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "status.json" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("unexpected directory contents: %v", names)
	}
}

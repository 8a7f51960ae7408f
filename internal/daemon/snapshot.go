package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"cortex/internal/status"
)

// SaveSnapshot persists a status snapshot as JSON. The write goes through a
// temp file and rename so a crash mid-write never leaves a torn snapshot.
func SaveSnapshot(path string, snap status.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".status-*.json")
	if err != nil {
		return fmt.Errorf("create snapshot temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close snapshot temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads a previously persisted snapshot. A missing file is not
// an error; the daemon simply starts fresh. A corrupt file is reported so the
// caller can log and continue.
func LoadSnapshot(path string) (status.Snapshot, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return status.Snapshot{}, false, nil
		}
		return status.Snapshot{}, false, fmt.Errorf("read snapshot: %w", err)
	}

	var snap status.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return status.Snapshot{}, false, fmt.Errorf("parse snapshot: %w", err)
	}
	return snap, true, nil
}

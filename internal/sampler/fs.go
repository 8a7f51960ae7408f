package sampler

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"cortex/internal/agent"
	"cortex/internal/config"
	"cortex/internal/logging"
)

// maxReportedFiles caps the file list carried in a single change action. The
// count in the payload still reflects every changed file.
const maxReportedFiles = 10

// FSWatcher samples configured filesystem paths for modified files and
// enqueues one batched file-change action per poll that observed changes.
type FSWatcher struct {
	paths    []config.WatchPath
	interval time.Duration
	queue    *agent.Queue
	logger   *slog.Logger

	lastScan time.Time
	primed   bool

	now func() time.Time
}

// NewFSWatcher constructs the filesystem sampler from configuration.
func NewFSWatcher(cfg config.Monitor, queue *agent.Queue, logger *slog.Logger) *FSWatcher {
	return &FSWatcher{
		paths:    cfg.WatchPaths,
		interval: time.Duration(cfg.PollInterval) * time.Second,
		queue:    queue,
		logger:   logging.NewComponentLogger(logger, "monitor"),
		now:      time.Now,
	}
}

// Name identifies the watcher to the supervisor.
func (w *FSWatcher) Name() string {
	return "monitor"
}

// Run polls until ctx is cancelled.
func (w *FSWatcher) Run(ctx context.Context) error {
	w.logger.Info("filesystem watcher started",
		logging.Duration("poll_interval", w.interval),
		logging.Int("paths", len(w.paths)),
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.Poll()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("filesystem watcher stopped")
			return nil
		case <-ticker.C:
			w.Poll()
		}
	}
}

// Poll scans every watched path once. The first poll records the baseline
// instant and emits nothing; later polls enqueue one action covering all
// files modified since the previous poll. Returns the number of changed
// files observed.
func (w *FSWatcher) Poll() int {
	scanStart := w.now()

	if !w.primed {
		w.primed = true
		w.lastScan = scanStart
		return 0
	}

	var changed []string
	for _, watch := range w.paths {
		changed = append(changed, w.scanPath(watch)...)
	}
	w.lastScan = scanStart

	if len(changed) == 0 {
		return 0
	}

	reported := changed
	if len(reported) > maxReportedFiles {
		reported = reported[:maxReportedFiles]
	}

	action := agent.NewAction(agent.KindFileChange, map[string]any{
		"count": len(changed),
		"files": reported,
	})
	w.queue.Enqueue(action)

	w.logger.Info("filesystem changes detected",
		logging.Int("count", len(changed)),
		logging.String(logging.FieldActionID, action.ID),
	)
	return len(changed)
}

// scanPath returns the files under one watch entry modified since the last
// poll. Unreadable paths are logged at debug and skipped.
func (w *FSWatcher) scanPath(watch config.WatchPath) []string {
	info, err := os.Stat(watch.Path)
	if err != nil {
		w.logger.Debug("watch path unavailable",
			logging.String("path", watch.Path),
			logging.Error(err),
		)
		return nil
	}

	if !info.IsDir() {
		if info.ModTime().After(w.lastScan) {
			return []string{watch.Path}
		}
		return nil
	}

	var changed []string
	if watch.Recursive {
		err = filepath.WalkDir(watch.Path, func(path string, entry fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				w.logger.Debug("skipping unreadable entry",
					logging.String("path", path),
					logging.Error(walkErr),
				)
				if entry != nil && entry.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if entry.IsDir() {
				return nil
			}
			if modifiedSince(entry, w.lastScan) {
				changed = append(changed, path)
			}
			return nil
		})
		if err != nil {
			w.logger.Debug("walk failed",
				logging.String("path", watch.Path),
				logging.Error(err),
			)
		}
		return changed
	}

	entries, err := os.ReadDir(watch.Path)
	if err != nil {
		w.logger.Debug("read dir failed",
			logging.String("path", watch.Path),
			logging.Error(err),
		)
		return nil
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if modifiedSince(entry, w.lastScan) {
			changed = append(changed, filepath.Join(watch.Path, entry.Name()))
		}
	}
	return changed
}

func modifiedSince(entry fs.DirEntry, since time.Time) bool {
	info, err := entry.Info()
	if err != nil {
		return false
	}
	return info.ModTime().After(since)
}

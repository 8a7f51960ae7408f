package sampler

import (
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"cortex/internal/agent"
	"cortex/internal/config"
	"cortex/internal/logging"
)

// GitRunner executes a git subcommand in a repository and returns its trimmed
// stdout. Factored out so tests can substitute canned output.
type GitRunner func(ctx context.Context, repoRoot string, args ...string) (string, error)

// repoState is one sampled observation of the repository.
type repoState struct {
	branch    string
	head      string
	modified  int
	untracked int
}

func (s repoState) equal(other repoState) bool {
	return s == other
}

// GitWatcher samples a git repository for branch, HEAD, and working-tree
// changes, enqueueing one repo-change action whenever consecutive samples
// differ.
type GitWatcher struct {
	repoRoot string
	interval time.Duration
	queue    *agent.Queue
	logger   *slog.Logger
	run      GitRunner

	last   repoState
	primed bool
}

// NewGitWatcher constructs the repository sampler from configuration.
func NewGitWatcher(cfg config.Git, queue *agent.Queue, logger *slog.Logger) *GitWatcher {
	return &GitWatcher{
		repoRoot: cfg.RepoRoot,
		interval: time.Duration(cfg.PollInterval) * time.Second,
		queue:    queue,
		logger:   logging.NewComponentLogger(logger, "git"),
		run:      runGit,
	}
}

// Name identifies the watcher to the supervisor.
func (w *GitWatcher) Name() string {
	return "git"
}

// Run polls until ctx is cancelled.
func (w *GitWatcher) Run(ctx context.Context) error {
	w.logger.Info("git watcher started",
		logging.String("repo", w.repoRoot),
		logging.Duration("poll_interval", w.interval),
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.Poll(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("git watcher stopped")
			return nil
		case <-ticker.C:
			w.Poll(ctx)
		}
	}
}

// Poll samples the repository once. The first successful sample is the
// baseline; later samples enqueue an action only when something changed.
// Returns true when an action was enqueued.
func (w *GitWatcher) Poll(ctx context.Context) bool {
	state, ok := w.sample(ctx)
	if !ok {
		return false
	}

	if !w.primed {
		w.primed = true
		w.last = state
		return false
	}

	if state.equal(w.last) {
		return false
	}

	previous := w.last
	w.last = state

	action := agent.NewAction(agent.KindRepoChange, map[string]any{
		"branch":          state.branch,
		"head":            state.head,
		"modified":        state.modified,
		"untracked":       state.untracked,
		"previous_branch": previous.branch,
		"previous_head":   previous.head,
	})
	w.queue.Enqueue(action)

	w.logger.Info("repository change detected",
		logging.String("branch", state.branch),
		logging.String("head", state.head),
		logging.Int("modified", state.modified),
		logging.Int("untracked", state.untracked),
		logging.String(logging.FieldActionID, action.ID),
	)
	return true
}

// sample reads the repository state. Any git failure (missing binary, not a
// repository, transient lock) logs at debug and reports no sample.
func (w *GitWatcher) sample(ctx context.Context) (repoState, bool) {
	branch, err := w.run(ctx, w.repoRoot, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		w.logger.Debug("git branch query failed", logging.Error(err))
		return repoState{}, false
	}

	head, err := w.run(ctx, w.repoRoot, "rev-parse", "--short", "HEAD")
	if err != nil {
		w.logger.Debug("git head query failed", logging.Error(err))
		return repoState{}, false
	}

	statusOut, err := w.run(ctx, w.repoRoot, "status", "--short")
	if err != nil {
		w.logger.Debug("git status query failed", logging.Error(err))
		return repoState{}, false
	}

	state := repoState{branch: branch, head: head}
	for _, line := range strings.Split(statusOut, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.HasPrefix(line, "??") {
			state.untracked++
		} else {
			state.modified++
		}
	}
	return state, true
}

func runGit(ctx context.Context, repoRoot string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", repoRoot}, args...)...)
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

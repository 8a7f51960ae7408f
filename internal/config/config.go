package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Daemon contains identity and supervisor timing settings.
type Daemon struct {
	Name              string `toml:"name"`
	StateDir          string `toml:"state_dir"`
	HeartbeatInterval int    `toml:"heartbeat_interval"`
	SnapshotEvery     int    `toml:"snapshot_every"`
	ShutdownGrace     int    `toml:"shutdown_grace"`
	JournalHistory    int    `toml:"journal_history"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Behavior describes one independently timed unit of periodic agent work.
type Behavior struct {
	Name     string `toml:"name"`
	Interval int    `toml:"interval"`
	Enabled  bool   `toml:"enabled"`
}

// Agent contains configuration for the reasoning loop.
type Agent struct {
	Enabled        bool       `toml:"enabled"`
	LoopInterval   int        `toml:"loop_interval"`
	ThoughtLogSize int        `toml:"thought_log_size"`
	Behaviors      []Behavior `toml:"behaviors"`
}

// Models contains configuration for the bounded model cache.
type Models struct {
	Enabled      bool   `toml:"enabled"`
	Capacity     int    `toml:"capacity"`
	DefaultModel string `toml:"default_model"`
}

// Job describes one cron-scheduled task.
type Job struct {
	Name       string `toml:"name"`
	Schedule   string `toml:"schedule"`
	ActionKind string `toml:"action_kind"`
	Enabled    bool   `toml:"enabled"`
}

// Scheduler contains configuration for the cron-like task scheduler.
type Scheduler struct {
	Enabled      bool  `toml:"enabled"`
	PollInterval int   `toml:"poll_interval"`
	Jobs         []Job `toml:"jobs"`
}

// WatchPath describes one filesystem location the monitor samples.
type WatchPath struct {
	Path      string `toml:"path"`
	Recursive bool   `toml:"recursive"`
}

// Monitor contains configuration for the filesystem sampler.
type Monitor struct {
	Enabled      bool        `toml:"enabled"`
	PollInterval int         `toml:"poll_interval"`
	WatchPaths   []WatchPath `toml:"watch_paths"`
}

// Git contains configuration for the repository sampler.
type Git struct {
	Enabled      bool   `toml:"enabled"`
	PollInterval int    `toml:"poll_interval"`
	RepoRoot     string `toml:"repo_root"`
}

// API contains configuration for the HTTP control surface.
type API struct {
	Enabled bool   `toml:"enabled"`
	Bind    string `toml:"bind"`
}

// Config is the root configuration object.
type Config struct {
	Daemon    Daemon    `toml:"daemon"`
	Logging   Logging   `toml:"logging"`
	Agent     Agent     `toml:"agent"`
	Models    Models    `toml:"models"`
	Scheduler Scheduler `toml:"scheduler"`
	Monitor   Monitor   `toml:"monitor"`
	Git       Git       `toml:"git"`
	API       API       `toml:"api"`
}

// SampleConfig returns the embedded documented sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes the documented sample configuration to path.
func CreateSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// DefaultConfigPath returns the canonical location for the config file.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/cortex/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. A missing file is not
// an error; defaults apply.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// StatePath returns a file path under the daemon state directory.
func (c *Config) StatePath(name string) string {
	return filepath.Join(c.Daemon.StateDir, name)
}

// SnapshotPath returns the location of the persisted status snapshot.
func (c *Config) SnapshotPath() string {
	return c.StatePath("status.json")
}

// JournalPath returns the location of the SQLite journal database.
func (c *Config) JournalPath() string {
	return c.StatePath("journal.db")
}

// EnsureDirectories creates the directories the daemon writes into.
func (c *Config) EnsureDirectories() error {
	if strings.TrimSpace(c.Daemon.StateDir) == "" {
		return errors.New("daemon.state_dir is empty")
	}
	if err := os.MkdirAll(c.Daemon.StateDir, 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("cortex.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

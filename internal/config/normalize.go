package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeDaemon(); err != nil {
		return err
	}
	c.normalizeLogging()
	c.normalizeAgent()
	c.normalizeModels()
	c.normalizeScheduler()
	if err := c.normalizeMonitor(); err != nil {
		return err
	}
	if err := c.normalizeGit(); err != nil {
		return err
	}
	c.normalizeAPI()
	return nil
}

func (c *Config) normalizeDaemon() error {
	c.Daemon.Name = strings.TrimSpace(c.Daemon.Name)
	if c.Daemon.Name == "" {
		c.Daemon.Name = defaultDaemonName
	}
	if strings.TrimSpace(c.Daemon.StateDir) == "" {
		c.Daemon.StateDir = defaultStateDir
	}
	var err error
	if c.Daemon.StateDir, err = expandPath(c.Daemon.StateDir); err != nil {
		return fmt.Errorf("daemon.state_dir: %w", err)
	}
	if c.Daemon.HeartbeatInterval <= 0 {
		c.Daemon.HeartbeatInterval = defaultHeartbeatInterval
	}
	if c.Daemon.SnapshotEvery <= 0 {
		c.Daemon.SnapshotEvery = defaultSnapshotEvery
	}
	if c.Daemon.ShutdownGrace <= 0 {
		c.Daemon.ShutdownGrace = defaultShutdownGrace
	}
	if c.Daemon.JournalHistory <= 0 {
		c.Daemon.JournalHistory = defaultJournalHistory
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeAgent() {
	if c.Agent.LoopInterval <= 0 {
		c.Agent.LoopInterval = defaultLoopInterval
	}
	if c.Agent.ThoughtLogSize <= 0 {
		c.Agent.ThoughtLogSize = defaultThoughtLogSize
	}
	behaviors := make([]Behavior, 0, len(c.Agent.Behaviors))
	for _, behavior := range c.Agent.Behaviors {
		behavior.Name = strings.TrimSpace(behavior.Name)
		if behavior.Name == "" {
			continue
		}
		if behavior.Interval <= 0 {
			behavior.Interval = 300
		}
		behaviors = append(behaviors, behavior)
	}
	c.Agent.Behaviors = behaviors
}

func (c *Config) normalizeModels() {
	if c.Models.Capacity <= 0 {
		c.Models.Capacity = defaultCacheCapacity
	}
	c.Models.DefaultModel = strings.TrimSpace(c.Models.DefaultModel)
	if c.Models.DefaultModel == "" {
		c.Models.DefaultModel = defaultModelName
	}
}

func (c *Config) normalizeScheduler() {
	if c.Scheduler.PollInterval <= 0 {
		c.Scheduler.PollInterval = defaultSchedulerPoll
	}
	jobs := make([]Job, 0, len(c.Scheduler.Jobs))
	for _, job := range c.Scheduler.Jobs {
		job.Name = strings.TrimSpace(job.Name)
		job.Schedule = strings.TrimSpace(job.Schedule)
		job.ActionKind = strings.TrimSpace(job.ActionKind)
		if job.Name == "" {
			continue
		}
		jobs = append(jobs, job)
	}
	c.Scheduler.Jobs = jobs
}

func (c *Config) normalizeMonitor() error {
	if c.Monitor.PollInterval <= 0 {
		c.Monitor.PollInterval = defaultMonitorPoll
	}
	paths := make([]WatchPath, 0, len(c.Monitor.WatchPaths))
	for _, watch := range c.Monitor.WatchPaths {
		watch.Path = strings.TrimSpace(watch.Path)
		if watch.Path == "" {
			continue
		}
		expanded, err := expandPath(watch.Path)
		if err != nil {
			return fmt.Errorf("monitor.watch_paths: %w", err)
		}
		watch.Path = expanded
		paths = append(paths, watch)
	}
	c.Monitor.WatchPaths = paths
	return nil
}

func (c *Config) normalizeGit() error {
	if c.Git.PollInterval <= 0 {
		c.Git.PollInterval = defaultGitPoll
	}
	c.Git.RepoRoot = strings.TrimSpace(c.Git.RepoRoot)
	if c.Git.RepoRoot != "" {
		expanded, err := expandPath(c.Git.RepoRoot)
		if err != nil {
			return fmt.Errorf("git.repo_root: %w", err)
		}
		c.Git.RepoRoot = expanded
	}
	return nil
}

func (c *Config) normalizeAPI() {
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	if c.API.Bind == "" {
		c.API.Bind = defaultAPIBind
	}
}

package config

const (
	defaultDaemonName        = "cortexd"
	defaultStateDir          = "~/.local/share/cortex"
	defaultHeartbeatInterval = 5
	defaultSnapshotEvery     = 120
	defaultShutdownGrace     = 10
	defaultJournalHistory    = 1000
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultLoopInterval      = 5
	defaultThoughtLogSize    = 100
	defaultCacheCapacity     = 3
	defaultModelName         = "echo-small"
	defaultSchedulerPoll     = 60
	defaultMonitorPoll       = 10
	defaultGitPoll           = 10
	defaultAPIBind           = "127.0.0.1:8484"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Daemon: Daemon{
			Name:              defaultDaemonName,
			StateDir:          defaultStateDir,
			HeartbeatInterval: defaultHeartbeatInterval,
			SnapshotEvery:     defaultSnapshotEvery,
			ShutdownGrace:     defaultShutdownGrace,
			JournalHistory:    defaultJournalHistory,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Agent: Agent{
			Enabled:        true,
			LoopInterval:   defaultLoopInterval,
			ThoughtLogSize: defaultThoughtLogSize,
		},
		Models: Models{
			Enabled:      true,
			Capacity:     defaultCacheCapacity,
			DefaultModel: defaultModelName,
		},
		Scheduler: Scheduler{
			Enabled:      true,
			PollInterval: defaultSchedulerPoll,
		},
		Monitor: Monitor{
			Enabled:      false,
			PollInterval: defaultMonitorPoll,
		},
		Git: Git{
			Enabled:      false,
			PollInterval: defaultGitPoll,
		},
		API: API{
			Enabled: true,
			Bind:    defaultAPIBind,
		},
	}
}

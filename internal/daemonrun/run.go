// Package daemonrun wires configuration into a running daemon process. It is
// the single entry point shared by the cortexd binary and integration tests.
package daemonrun

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"cortex/internal/agent"
	"cortex/internal/config"
	"cortex/internal/daemon"
	"cortex/internal/journal"
	"cortex/internal/logging"
	"cortex/internal/models"
	"cortex/internal/sampler"
	"cortex/internal/scheduler"
	"cortex/internal/status"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel string
}

// Run starts the cortex daemon runtime loop and blocks until a signal or a
// control-API shutdown ends it.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure state directory: %w", err)
	}

	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", cfg.StatePath("cortexd.log")},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	pidPath := cfg.StatePath("cortexd.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := journal.Open(cfg)
	if err != nil {
		logger.Error("open journal store", logging.Error(err))
		return err
	}
	defer store.Close()

	tracker := status.NewTracker(cfg.Daemon.Name)
	queue := agent.NewQueue()

	var cache *models.Cache
	if cfg.Models.Enabled {
		cache, err = models.NewCache(cfg.Models.Capacity, logger)
		if err != nil {
			return fmt.Errorf("create model cache: %w", err)
		}
	}

	var components []daemon.Component
	var loop *agent.Loop

	if cfg.Agent.Enabled {
		loop, err = agent.NewLoop(cfg.Agent, cfg.Models.DefaultModel, queue, tracker, cache, store, logger)
		if err != nil {
			return fmt.Errorf("create reasoning loop: %w", err)
		}
		components = append(components, loop)
	}
	if cfg.Scheduler.Enabled {
		components = append(components, scheduler.New(cfg.Scheduler, queue, logger))
	}
	if cfg.Monitor.Enabled {
		components = append(components, sampler.NewFSWatcher(cfg.Monitor, queue, logger))
	}
	if cfg.Git.Enabled {
		components = append(components, sampler.NewGitWatcher(cfg.Git, queue, logger))
	}

	d, err := daemon.New(daemon.Options{
		Config:     cfg,
		Logger:     logger,
		Tracker:    tracker,
		Queue:      queue,
		Loop:       loop,
		Cache:      cache,
		Journal:    store,
		Components: components,
	})
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}

	logger.Info("cortex daemon starting",
		logging.String("state_dir", cfg.Daemon.StateDir),
		logging.String("pid_file", filepath.Base(pidPath)),
		logging.Int("components", len(components)),
	)

	return d.Run(signalCtx)
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

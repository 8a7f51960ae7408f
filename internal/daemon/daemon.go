package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"cortex/internal/agent"
	"cortex/internal/config"
	"cortex/internal/journal"
	"cortex/internal/logging"
	"cortex/internal/models"
	"cortex/internal/status"
)

// heartbeatLogEvery controls how often the heartbeat emits a log line, in
// cycles. Persisting the snapshot has its own cadence from configuration.
const heartbeatLogEvery = 60

// Component is one supervised unit of background work. Run must block until
// ctx is cancelled and return promptly afterwards.
type Component interface {
	Name() string
	Run(ctx context.Context) error
}

type runningComponent struct {
	component Component
	cancel    context.CancelFunc
	done      chan struct{}
}

// Options carries the daemon's dependencies. Config, Logger, Tracker, and
// Queue are required; the rest depend on which subsystems are enabled.
type Options struct {
	Config  *config.Config
	Logger  *slog.Logger
	Tracker *status.Tracker
	Queue   *agent.Queue
	Loop    *agent.Loop
	Cache   *models.Cache
	Journal *journal.Store

	// Components in start order. Stopped in reverse.
	Components []Component
}

// Daemon supervises the component set and enforces single-instance execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	tracker *status.Tracker
	queue   *agent.Queue
	loop    *agent.Loop
	cache   *models.Cache
	journal *journal.Store

	lockPath string
	lock     *flock.Flock

	components []Component
	running    []*runningComponent

	api *apiServer

	heartbeatCancel context.CancelFunc
	heartbeatDone   chan struct{}

	// mu orders Start against Shutdown so an API-requested stop arriving
	// mid-start observes fully initialized component and heartbeat state.
	mu           sync.Mutex
	started      atomic.Bool
	shutdownOnce sync.Once
	doneCh       chan struct{}
}

// New constructs a daemon with initialized dependencies.
func New(opts Options) (*Daemon, error) {
	if opts.Config == nil || opts.Logger == nil || opts.Tracker == nil || opts.Queue == nil {
		return nil, errors.New("daemon requires config, logger, tracker, and queue")
	}

	lockPath := opts.Config.StatePath("cortexd.lock")
	d := &Daemon{
		cfg:        opts.Config,
		logger:     logging.NewComponentLogger(opts.Logger, "daemon"),
		tracker:    opts.Tracker,
		queue:      opts.Queue,
		loop:       opts.Loop,
		cache:      opts.Cache,
		journal:    opts.Journal,
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
		components: opts.Components,
		doneCh:     make(chan struct{}),
	}

	if opts.Config.API.Enabled {
		d.api = newAPIServer(opts.Config, d, opts.Logger)
	}

	return d, nil
}

// Start acquires the instance lock, seeds status from the last snapshot,
// launches every component, and begins the heartbeat.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another cortex daemon instance is already running")
	}

	d.restoreSnapshot()

	for _, component := range d.components {
		componentCtx, cancel := context.WithCancel(ctx)
		rc := &runningComponent{
			component: component,
			cancel:    cancel,
			done:      make(chan struct{}),
		}
		d.running = append(d.running, rc)
		d.tracker.SetComponentAlive(component.Name(), true)

		go func() {
			defer close(rc.done)
			if err := rc.component.Run(componentCtx); err != nil {
				d.logger.Error("component exited with error",
					logging.String(logging.FieldComponent, rc.component.Name()),
					logging.Error(err),
				)
			}
			d.tracker.SetComponentAlive(rc.component.Name(), false)
		}()
	}

	if d.api != nil {
		if err := d.api.start(ctx); err != nil {
			d.stopComponents()
			_ = d.lock.Unlock()
			return err
		}
		d.tracker.SetComponentAlive("api", true)
	}

	heartbeatCtx, heartbeatCancel := context.WithCancel(ctx)
	d.heartbeatCancel = heartbeatCancel
	d.heartbeatDone = make(chan struct{})
	go d.heartbeat(heartbeatCtx)

	d.tracker.Transition(status.StateRunning)
	d.started.Store(true)
	d.logger.Info("daemon started",
		logging.String("lock", d.lockPath),
		logging.Int("components", len(d.running)),
	)
	return nil
}

// Run starts the daemon and blocks until ctx is cancelled or a shutdown is
// requested through the control API, then performs the graceful shutdown.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.Start(ctx); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
	case <-d.doneCh:
	}

	d.Shutdown()
	return nil
}

// RequestShutdown schedules a shutdown after the given delay. Used by the
// control API so the shutdown response can reach the client first.
func (d *Daemon) RequestShutdown(delay time.Duration) {
	go func() {
		if delay > 0 {
			time.Sleep(delay)
		}
		d.Shutdown()
	}()
}

// Shutdown stops everything: components in reverse start order, then the
// heartbeat, then a final snapshot. Safe to call multiple times and from any
// goroutine; only the first call does the work.
func (d *Daemon) Shutdown() {
	d.shutdownOnce.Do(func() {
		d.mu.Lock()
		defer d.mu.Unlock()

		d.tracker.Transition(status.StateShuttingDown)
		d.logger.Info("daemon shutting down")

		if d.api != nil {
			d.api.stop()
			d.tracker.SetComponentAlive("api", false)
		}

		d.stopComponents()

		if d.heartbeatCancel != nil {
			d.heartbeatCancel()
			<-d.heartbeatDone
		}

		d.tracker.Transition(status.StateStopped)
		d.persistSnapshot()

		if err := d.lock.Unlock(); err != nil {
			d.logger.Warn("failed to release daemon lock", logging.Error(err))
		}
		d.started.Store(false)
		close(d.doneCh)
		d.logger.Info("daemon stopped")
	})
}

// Status returns the current status snapshot.
func (d *Daemon) Status() status.Snapshot {
	return d.tracker.Snapshot()
}

// stopComponents cancels components in reverse start order, giving each the
// configured grace period to exit.
func (d *Daemon) stopComponents() {
	grace := time.Duration(d.cfg.Daemon.ShutdownGrace) * time.Second

	for i := len(d.running) - 1; i >= 0; i-- {
		rc := d.running[i]
		rc.cancel()

		select {
		case <-rc.done:
		case <-time.After(grace):
			d.logger.Warn("component did not stop within grace period",
				logging.String(logging.FieldComponent, rc.component.Name()),
				logging.Duration("grace", grace),
			)
		}
	}
	d.running = nil
}

// heartbeat advances the cycle counter on the configured interval, logging
// and persisting snapshots on their respective cadences.
func (d *Daemon) heartbeat(ctx context.Context) {
	defer close(d.heartbeatDone)

	interval := time.Duration(d.cfg.Daemon.HeartbeatInterval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	snapshotEvery := int64(d.cfg.Daemon.SnapshotEvery)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cycles := d.tracker.IncrementCycles()
			if cycles%heartbeatLogEvery == 0 {
				snap := d.tracker.Snapshot()
				d.logger.Info("heartbeat",
					logging.Int64(logging.FieldCycle, cycles),
					logging.Float64("uptime_seconds", snap.UptimeSeconds),
					logging.Float64("activity_score", snap.ActivityScore),
					logging.Int("queue_depth", d.queue.Len()),
				)
			}
			if snapshotEvery > 0 && cycles%snapshotEvery == 0 {
				d.persistSnapshot()
				d.trimJournal(ctx)
			}
		}
	}
}

// trimJournal caps the historical thought record at the configured retention.
// The live action queue is never trimmed, only journaled history.
func (d *Daemon) trimJournal(ctx context.Context) {
	if d.journal == nil {
		return
	}
	if err := d.journal.TrimThoughts(ctx, d.cfg.Daemon.JournalHistory); err != nil {
		d.logger.Warn("failed to trim journaled thoughts", logging.Error(err))
	}
}

func (d *Daemon) persistSnapshot() {
	if err := SaveSnapshot(d.cfg.SnapshotPath(), d.tracker.Snapshot()); err != nil {
		d.logger.Warn("failed to persist status snapshot", logging.Error(err))
	}
}

// restoreSnapshot seeds durable counters from the previous run. Corruption or
// absence is logged and ignored; the daemon never refuses to start over it.
func (d *Daemon) restoreSnapshot() {
	snap, found, err := LoadSnapshot(d.cfg.SnapshotPath())
	if err != nil {
		d.logger.Warn("ignoring unreadable status snapshot", logging.Error(err))
		return
	}
	if !found {
		return
	}
	d.tracker.Restore(snap)
	d.logger.Info("restored status snapshot",
		logging.Int64(logging.FieldCycle, snap.Cycles),
		logging.Float64("activity_score", snap.ActivityScore),
	)
}

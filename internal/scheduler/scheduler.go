package scheduler

import (
	"context"
	"log/slog"
	"time"

	"cortex/internal/agent"
	"cortex/internal/config"
	"cortex/internal/logging"
	"cortex/internal/schedule"
)

type job struct {
	name      string
	kind      agent.Kind
	spec      schedule.Spec
	runnable  bool
	lastFired time.Time
}

// Scheduler polls its job table on a fixed interval and enqueues an action
// for every job whose cron expression matches the current minute. A job fires
// at most once per matching minute regardless of the poll cadence.
type Scheduler struct {
	queue    *agent.Queue
	logger   *slog.Logger
	interval time.Duration
	jobs     []*job

	now func() time.Time
}

// New constructs a scheduler from configuration. Jobs with unknown action
// kinds or malformed schedules are kept in the table but marked non-runnable;
// each gets one warning here and is silent after that.
func New(cfg config.Scheduler, queue *agent.Queue, logger *slog.Logger) *Scheduler {
	s := &Scheduler{
		queue:    queue,
		logger:   logging.NewComponentLogger(logger, "scheduler"),
		interval: time.Duration(cfg.PollInterval) * time.Second,
		now:      time.Now,
	}

	for _, entry := range cfg.Jobs {
		if !entry.Enabled {
			continue
		}

		j := &job{name: entry.Name}

		kind, ok := agent.ParseKind(entry.ActionKind)
		if !ok {
			s.logger.Warn("job has unknown action kind and will never fire",
				logging.String(logging.FieldJob, entry.Name),
				logging.String(logging.FieldActionKind, entry.ActionKind),
			)
			s.jobs = append(s.jobs, j)
			continue
		}

		spec, err := schedule.Parse(entry.Schedule)
		if err != nil {
			s.logger.Warn("job has invalid schedule and will never fire",
				logging.String(logging.FieldJob, entry.Name),
				logging.String("schedule", entry.Schedule),
				logging.Error(err),
			)
			s.jobs = append(s.jobs, j)
			continue
		}

		j.kind = kind
		j.spec = spec
		j.runnable = true
		s.jobs = append(s.jobs, j)
	}

	return s
}

// Name identifies the scheduler to the supervisor.
func (s *Scheduler) Name() string {
	return "scheduler"
}

// Jobs returns the number of configured jobs, runnable or not.
func (s *Scheduler) Jobs() int {
	return len(s.jobs)
}

// Run polls until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started",
		logging.Duration("poll_interval", s.interval),
		logging.Int("jobs", len(s.jobs)),
	)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Poll(s.now())

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return nil
		case tick := <-ticker.C:
			s.Poll(tick)
		}
	}
}

// Poll evaluates every runnable job against now and enqueues an action per
// match. The firing minute is stamped on the job so overlapping polls within
// the same minute cannot double-fire. Returns the number of actions enqueued.
func (s *Scheduler) Poll(now time.Time) int {
	minute := now.UTC().Truncate(time.Minute)
	fired := 0

	for _, j := range s.jobs {
		if !j.runnable {
			continue
		}
		if j.lastFired.Equal(minute) {
			continue
		}
		if !j.spec.Matches(minute) {
			continue
		}

		j.lastFired = minute
		action := agent.NewAction(j.kind, map[string]any{"job": j.name})
		s.queue.Enqueue(action)
		fired++

		s.logger.Info("job fired",
			logging.String(logging.FieldJob, j.name),
			logging.String(logging.FieldActionKind, j.kind.String()),
			logging.String(logging.FieldActionID, action.ID),
		)
	}

	return fired
}

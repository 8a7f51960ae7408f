package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cortex/internal/config"
	"cortex/internal/faults"
	"cortex/internal/logging"
	"cortex/internal/models"
	"cortex/internal/status"
)

// HandlerFunc processes one drained action.
type HandlerFunc func(ctx context.Context, action Action) error

// Recorder persists the loop's durable trail. Implementations must tolerate
// concurrent calls; failures are logged by the loop and never stop a cycle.
type Recorder interface {
	RecordThought(ctx context.Context, cycle int64, text string) error
	RecordAction(ctx context.Context, id, kind string, processedAt time.Time) error
}

// behaviorFunc is one unit of periodic work driven by the loop's timers.
type behaviorFunc func(ctx context.Context, l *Loop) error

type behavior struct {
	name     string
	interval time.Duration
	run      behaviorFunc
	lastRun  time.Time
}

// Loop is the single consumer of the action queue. Each cycle it detaches the
// backlog, dispatches every action through the static handler table, runs due
// behaviors, synthesizes a thought, and raises the activity score. It stops
// only between cycles, never mid-drain.
type Loop struct {
	queue     *Queue
	tracker   *status.Tracker
	cache     *models.Cache
	recorder  Recorder
	logger    *slog.Logger
	interval  time.Duration
	modelName string
	thoughts  *ThoughtLog
	handlers  map[Kind]HandlerFunc
	behaviors []*behavior

	now func() time.Time
}

// NewLoop constructs the reasoning loop from the agent configuration section.
// The recorder may be nil; thoughts and actions then live only in memory.
func NewLoop(cfg config.Agent, modelName string, queue *Queue, tracker *status.Tracker, cache *models.Cache, recorder Recorder, logger *slog.Logger) (*Loop, error) {
	if queue == nil {
		return nil, faults.Wrap(faults.ErrConfiguration, "agent", "action queue is required", nil)
	}
	if tracker == nil {
		return nil, faults.Wrap(faults.ErrConfiguration, "agent", "status tracker is required", nil)
	}
	if cfg.LoopInterval < 1 {
		return nil, faults.Wrap(faults.ErrConfiguration, "agent", "loop_interval must be at least 1 second", nil)
	}

	loop := &Loop{
		queue:     queue,
		tracker:   tracker,
		cache:     cache,
		recorder:  recorder,
		logger:    logging.NewComponentLogger(logger, "agent"),
		interval:  time.Duration(cfg.LoopInterval) * time.Second,
		modelName: modelName,
		thoughts:  NewThoughtLog(cfg.ThoughtLogSize),
		now:       time.Now,
	}
	loop.handlers = loop.buildHandlers()
	loop.behaviors = loop.buildBehaviors(cfg.Behaviors)
	return loop, nil
}

// Name identifies the loop to the supervisor.
func (l *Loop) Name() string {
	return "agent"
}

// RecentThoughts returns up to n thoughts, most recent last.
func (l *Loop) RecentThoughts(n int) []Thought {
	return l.thoughts.Recent(n)
}

// Run drives cycles until ctx is cancelled. A cancellation observed during a
// cycle takes effect at the next sleep boundary, so a drain in progress always
// completes.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("reasoning loop started",
		logging.Duration("interval", l.interval),
		logging.Int("behaviors", len(l.behaviors)),
	)

	// Stamp behavior timers at start so the first firing comes one full
	// interval in, not immediately on boot.
	startedAt := l.now()
	for _, b := range l.behaviors {
		b.lastRun = startedAt
	}

	for {
		l.runCycle(ctx)

		select {
		case <-ctx.Done():
			l.logger.Info("reasoning loop stopped")
			return nil
		case <-time.After(l.interval):
		}
	}
}

// runCycle executes one full cycle: drain, dispatch, behaviors, thought,
// score. Exported only through Run and tests.
func (l *Loop) runCycle(ctx context.Context) {
	now := l.now().UTC()
	drained := l.queue.Drain()

	for _, action := range drained {
		l.dispatch(ctx, action)
	}

	for _, b := range l.behaviors {
		if now.Sub(b.lastRun) < b.interval {
			continue
		}
		b.lastRun = now
		if err := b.run(ctx, l); err != nil {
			l.logger.Warn("behavior failed",
				logging.String(logging.FieldBehavior, b.name),
				logging.Error(err),
			)
		}
	}

	cycle := l.tracker.Cycles()
	text := synthesizeThought(cycle, l.queue.Len())
	l.recordThought(ctx, cycle, text)

	snap := l.tracker.Snapshot()
	score := ActivityScore(time.Duration(snap.UptimeSeconds*float64(time.Second)), snap.Cycles, l.thoughts.Len())
	l.tracker.RaiseActivity(score)
}

// dispatch routes one action through the handler table. Unknown kinds are
// logged and dropped; handler errors are logged and absorbed.
func (l *Loop) dispatch(ctx context.Context, action Action) {
	handler, ok := l.handlers[action.Kind]
	if !ok {
		l.logger.Warn("dropping action of unknown kind",
			logging.String(logging.FieldActionKind, action.Kind.String()),
			logging.String(logging.FieldActionID, action.ID),
		)
		return
	}

	processedAt := l.now().UTC()
	if err := handler(ctx, action); err != nil {
		l.logger.Warn("action handler failed",
			logging.String(logging.FieldActionKind, action.Kind.String()),
			logging.String(logging.FieldActionID, action.ID),
			logging.Error(faults.Wrap(faults.ErrHandler, "agent", "handle "+action.Kind.String(), err)),
		)
	}

	l.tracker.SetLastAction(action.Kind.String(), processedAt)
	if l.recorder != nil {
		if err := l.recorder.RecordAction(ctx, action.ID, action.Kind.String(), processedAt); err != nil {
			l.logger.Warn("failed to journal action", logging.Error(err))
		}
	}
}

func (l *Loop) recordThought(ctx context.Context, cycle int64, text string) {
	thought := Thought{Cycle: cycle, Timestamp: l.now().UTC(), Text: text}
	l.thoughts.Append(thought)
	l.tracker.SetLastThought(text)
	if l.recorder != nil {
		if err := l.recorder.RecordThought(ctx, cycle, text); err != nil {
			l.logger.Warn("failed to journal thought", logging.Error(err))
		}
	}
}

// loadModel fetches a named handle from the cache with a placeholder loader.
func (l *Loop) loadModel(ctx context.Context, name, task string) (any, error) {
	if l.cache == nil {
		return nil, faults.Wrap(faults.ErrResourceLoad, "agent", "model cache disabled", nil)
	}
	return l.cache.Get(ctx, name, models.PlaceholderLoader(name, task))
}

// buildHandlers assembles the static dispatch table. The kind set is closed;
// new kinds require a new entry here, not runtime registration.
func (l *Loop) buildHandlers() map[Kind]HandlerFunc {
	return map[Kind]HandlerFunc{
		KindNoop:            l.handleNoop,
		KindUserInteraction: l.handleUserInteraction,
		KindStatusReport:    l.handleStatusReport,
		KindCodeAnalysis:    l.handleCodeAnalysis,
		KindBenchmark:       l.handleBenchmark,
		KindRecordThoughts:  l.handleRecordThoughts,
		KindFileChange:      l.handleFileChange,
		KindRepoChange:      l.handleRepoChange,
	}
}

func (l *Loop) handleNoop(_ context.Context, action Action) error {
	l.logger.Debug("processed noop action", logging.String(logging.FieldActionID, action.ID))
	return nil
}

func (l *Loop) handleUserInteraction(ctx context.Context, action Action) error {
	message, _ := action.Payload["message"].(string)
	message = strings.TrimSpace(message)
	if message == "" {
		message = "(empty message)"
	}

	if _, err := l.loadModel(ctx, l.modelName, "conversation"); err != nil {
		return err
	}

	cycle := l.tracker.Cycles()
	l.recordThought(ctx, cycle, fmt.Sprintf("considering message: %s", truncate(message, 120)))
	return nil
}

func (l *Loop) handleStatusReport(_ context.Context, _ Action) error {
	snap := l.tracker.Snapshot()
	l.logger.Info("status report",
		logging.String("state", string(snap.State)),
		logging.Float64("uptime_seconds", snap.UptimeSeconds),
		logging.Int64(logging.FieldCycle, snap.Cycles),
		logging.Float64("activity_score", snap.ActivityScore),
		logging.Int("thoughts", l.thoughts.Len()),
	)
	return nil
}

func (l *Loop) handleCodeAnalysis(ctx context.Context, action Action) error {
	target, _ := action.Payload["target"].(string)
	if target == "" {
		target = "workspace"
	}
	if _, err := l.loadModel(ctx, "code-analyzer", "analysis"); err != nil {
		return err
	}
	cycle := l.tracker.Cycles()
	l.recordThought(ctx, cycle, fmt.Sprintf("analyzed %s for structural issues", target))
	return nil
}

func (l *Loop) handleBenchmark(ctx context.Context, action Action) error {
	started := l.now()
	if _, err := l.loadModel(ctx, l.modelName, "benchmark"); err != nil {
		return err
	}
	l.logger.Info("benchmark completed",
		logging.String(logging.FieldActionID, action.ID),
		logging.Duration("elapsed", l.now().Sub(started)),
	)
	return nil
}

func (l *Loop) handleRecordThoughts(_ context.Context, _ Action) error {
	recent := l.thoughts.Recent(5)
	l.logger.Info("recent thoughts", logging.Int("count", len(recent)))
	for _, thought := range recent {
		l.logger.Info("thought",
			logging.Int64(logging.FieldCycle, thought.Cycle),
			logging.String("text", thought.Text),
		)
	}
	return nil
}

func (l *Loop) handleFileChange(ctx context.Context, action Action) error {
	count := payloadInt(action.Payload, "count")
	cycle := l.tracker.Cycles()
	l.recordThought(ctx, cycle, fmt.Sprintf("noticed %d changed files under watch", count))
	return nil
}

func (l *Loop) handleRepoChange(ctx context.Context, action Action) error {
	branch, _ := action.Payload["branch"].(string)
	if branch == "" {
		branch = "unknown"
	}
	cycle := l.tracker.Cycles()
	l.recordThought(ctx, cycle, fmt.Sprintf("repository activity on branch %s", branch))
	return nil
}

// buildBehaviors maps configured behaviors onto built-in implementations.
// Unknown names are kept alive as check-ins so a typo in configuration is
// visible in the log instead of silently dropped.
func (l *Loop) buildBehaviors(configured []config.Behavior) []*behavior {
	builtins := map[string]behaviorFunc{
		"reflection":    behaviorReflection,
		"status_report": behaviorStatusReport,
		"model_review":  behaviorModelReview,
	}

	var out []*behavior
	for _, entry := range configured {
		if !entry.Enabled {
			continue
		}
		run, ok := builtins[entry.Name]
		if !ok {
			l.logger.Warn("behavior has no built-in implementation, running as check-in",
				logging.String(logging.FieldBehavior, entry.Name),
			)
			run = behaviorCheckIn
		}
		out = append(out, &behavior{
			name:     entry.Name,
			interval: time.Duration(entry.Interval) * time.Second,
			run:      run,
		})
	}
	return out
}

// reflectionDecay is the explicit activity decay applied by the reflection
// behavior. The cycle's score raise still runs afterwards, so decay only
// erodes activity held above the computed baseline.
const reflectionDecay = 0.95

func behaviorReflection(ctx context.Context, l *Loop) error {
	decayed := l.tracker.DecayActivity(reflectionDecay)
	snap := l.tracker.Snapshot()
	l.recordThought(ctx, snap.Cycles, fmt.Sprintf("reflection: %d cycles in, activity at %.2f", snap.Cycles, decayed))
	return nil
}

func behaviorStatusReport(_ context.Context, l *Loop) error {
	l.queue.Enqueue(NewAction(KindStatusReport, nil))
	return nil
}

func behaviorModelReview(_ context.Context, l *Loop) error {
	if l.cache == nil {
		return nil
	}
	l.logger.Debug("model cache review",
		logging.Int("loaded", l.cache.Len()),
		logging.Any("models", l.cache.Names()),
	)
	return nil
}

func behaviorCheckIn(_ context.Context, l *Loop) error {
	l.logger.Debug("behavior check-in")
	return nil
}

func payloadInt(payload map[string]any, key string) int {
	switch v := payload[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}

// Package status owns the shared daemon status record.
//
// Every component mutates status through the Tracker, which serializes
// writes behind a single mutex and only ever hands out value-copy snapshots.
// Lifecycle transitions are monotonic: initializing, running, shutting_down,
// stopped, with no reverse edges.
package status

import (
	"sync"
	"time"
)

// State is the daemon lifecycle state.
type State string

const (
	StateInitializing State = "initializing"
	StateRunning      State = "running"
	StateShuttingDown State = "shutting_down"
	StateStopped      State = "stopped"
)

var stateRank = map[State]int{
	StateInitializing: 0,
	StateRunning:      1,
	StateShuttingDown: 2,
	StateStopped:      3,
}

// ActionSummary describes the most recently processed action.
type ActionSummary struct {
	Kind        string    `json:"kind,omitempty"`
	ProcessedAt time.Time `json:"processed_at,omitzero"`
}

// Snapshot is an immutable copy of the daemon status, safe to hand to API
// handlers and snapshot persistence without torn reads.
type Snapshot struct {
	Name          string          `json:"name"`
	State         State           `json:"state"`
	StartedAt     time.Time       `json:"started_at,omitzero"`
	UptimeSeconds float64         `json:"uptime_seconds"`
	Cycles        int64           `json:"cycles_completed"`
	ActivityScore float64         `json:"activity_score"`
	LastThought   string          `json:"last_thought,omitempty"`
	LastAction    ActionSummary   `json:"last_action"`
	Components    map[string]bool `json:"components"`
}

// Tracker serializes all status mutation behind one mutex.
type Tracker struct {
	mu             sync.RWMutex
	name           string
	state          State
	startedAt      time.Time
	cycles         int64
	activity       float64
	lastThought    string
	lastActionKind string
	lastActionAt   time.Time
	components     map[string]bool

	now func() time.Time
}

// NewTracker constructs a tracker in the initializing state.
func NewTracker(name string) *Tracker {
	return &Tracker{
		name:       name,
		state:      StateInitializing,
		components: make(map[string]bool),
		now:        time.Now,
	}
}

// Transition moves the lifecycle forward. Reverse or repeated transitions are
// ignored; the return value reports whether the transition was applied.
func (t *Tracker) Transition(to State) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if stateRank[to] <= stateRank[t.state] {
		return false
	}
	t.state = to
	if to == StateRunning && t.startedAt.IsZero() {
		t.startedAt = t.now().UTC()
	}
	return true
}

// State returns the current lifecycle state.
func (t *Tracker) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// IncrementCycles advances the heartbeat cycle counter by one.
func (t *Tracker) IncrementCycles() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cycles++
	return t.cycles
}

// Cycles returns the current cycle count.
func (t *Tracker) Cycles() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cycles
}

// Restore seeds counters from a previously persisted snapshot. Only fields
// that survive a restart meaningfully are applied.
func (t *Tracker) Restore(snap Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if snap.Cycles > t.cycles {
		t.cycles = snap.Cycles
	}
	if snap.ActivityScore > t.activity {
		t.activity = clamp01(snap.ActivityScore)
	}
}

// RaiseActivity lifts the activity score to the given value. Lower values are
// ignored; the score only moves down through DecayActivity.
func (t *Tracker) RaiseActivity(score float64) float64 {
	score = clamp01(score)
	t.mu.Lock()
	defer t.mu.Unlock()
	if score > t.activity {
		t.activity = score
	}
	return t.activity
}

// DecayActivity applies the explicit decay rule, scaling the score by factor.
func (t *Tracker) DecayActivity(factor float64) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if factor < 0 {
		factor = 0
	}
	if factor > 1 {
		factor = 1
	}
	t.activity = clamp01(t.activity * factor)
	return t.activity
}

// SetLastThought records the most recent autonomous thought.
func (t *Tracker) SetLastThought(text string) {
	t.mu.Lock()
	t.lastThought = text
	t.mu.Unlock()
}

// SetLastAction records the most recently processed action.
func (t *Tracker) SetLastAction(kind string, at time.Time) {
	t.mu.Lock()
	t.lastActionKind = kind
	t.lastActionAt = at.UTC()
	t.mu.Unlock()
}

// SetComponentAlive flips a component liveness flag.
func (t *Tracker) SetComponentAlive(name string, alive bool) {
	t.mu.Lock()
	t.components[name] = alive
	t.mu.Unlock()
}

// Snapshot returns an immutable copy of the current status.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	components := make(map[string]bool, len(t.components))
	for name, alive := range t.components {
		components[name] = alive
	}

	var uptime float64
	if !t.startedAt.IsZero() {
		uptime = t.now().UTC().Sub(t.startedAt).Seconds()
	}

	return Snapshot{
		Name:          t.name,
		State:         t.state,
		StartedAt:     t.startedAt,
		UptimeSeconds: uptime,
		Cycles:        t.cycles,
		ActivityScore: t.activity,
		LastThought:   t.lastThought,
		LastAction:    ActionSummary{Kind: t.lastActionKind, ProcessedAt: t.lastActionAt},
		Components:    components,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

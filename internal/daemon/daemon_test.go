package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"cortex/internal/agent"
	"cortex/internal/config"
	"cortex/internal/journal"
	"cortex/internal/logging"
	"cortex/internal/models"
	"cortex/internal/scheduler"
	"cortex/internal/status"
)

type testHarness struct {
	daemon  *Daemon
	tracker *status.Tracker
	queue   *agent.Queue
	store   *journal.Store
	cfg     *config.Config
}

func newTestDaemon(t *testing.T, mutate func(*config.Config)) *testHarness {
	t.Helper()

	cfg := config.Default()
	cfg.Daemon.StateDir = t.TempDir()
	cfg.Daemon.HeartbeatInterval = 1
	cfg.Daemon.SnapshotEvery = 1
	cfg.Daemon.ShutdownGrace = 5
	cfg.Agent.LoopInterval = 1
	cfg.Scheduler.PollInterval = 1
	cfg.API.Bind = "127.0.0.1:0"
	if mutate != nil {
		mutate(&cfg)
	}

	store, err := journal.Open(&cfg)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	logger := logging.NewNop()
	tracker := status.NewTracker(cfg.Daemon.Name)
	queue := agent.NewQueue()

	var cache *models.Cache
	if cfg.Models.Enabled {
		cache, err = models.NewCache(cfg.Models.Capacity, logger)
		if err != nil {
			t.Fatalf("new cache: %v", err)
		}
	}

	var components []Component
	var loop *agent.Loop
	if cfg.Agent.Enabled {
		loop, err = agent.NewLoop(cfg.Agent, cfg.Models.DefaultModel, queue, tracker, cache, store, logger)
		if err != nil {
			t.Fatalf("new loop: %v", err)
		}
		components = append(components, loop)
	}
	if cfg.Scheduler.Enabled {
		components = append(components, scheduler.New(cfg.Scheduler, queue, logger))
	}

	d, err := New(Options{
		Config:     &cfg,
		Logger:     logger,
		Tracker:    tracker,
		Queue:      queue,
		Loop:       loop,
		Cache:      cache,
		Journal:    store,
		Components: components,
	})
	if err != nil {
		t.Fatalf("new daemon: %v", err)
	}

	return &testHarness{daemon: d, tracker: tracker, queue: queue, store: store, cfg: &cfg}
}

func TestDaemonLifecycle(t *testing.T) {
	h := newTestDaemon(t, nil)

	if err := h.daemon.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	snap := h.daemon.Status()
	if snap.State != status.StateRunning {
		t.Fatalf("state after start = %s", snap.State)
	}
	if !snap.Components["agent"] || !snap.Components["scheduler"] {
		t.Fatalf("components not marked alive: %v", snap.Components)
	}

	h.daemon.Shutdown()
	// Second call must be a no-op, not a panic or deadlock.
	h.daemon.Shutdown()

	snap = h.daemon.Status()
	if snap.State != status.StateStopped {
		t.Fatalf("state after shutdown = %s", snap.State)
	}

	// Final snapshot persisted.
	loaded, found, err := LoadSnapshot(h.cfg.SnapshotPath())
	if err != nil || !found {
		t.Fatalf("final snapshot missing: found=%t err=%v", found, err)
	}
	if loaded.State != status.StateStopped {
		t.Fatalf("persisted state = %s", loaded.State)
	}
}

func TestSecondInstanceIsRefused(t *testing.T) {
	h := newTestDaemon(t, nil)
	if err := h.daemon.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer h.daemon.Shutdown()

	second := newTestDaemon(t, func(cfg *config.Config) {
		cfg.Daemon.StateDir = h.cfg.Daemon.StateDir
	})
	if err := second.daemon.Start(context.Background()); err == nil {
		second.daemon.Shutdown()
		t.Fatal("second instance acquired the lock")
	}
}

func TestRestartRestoresCounters(t *testing.T) {
	stateDir := t.TempDir()

	first := newTestDaemon(t, func(cfg *config.Config) { cfg.Daemon.StateDir = stateDir })
	if err := first.daemon.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	first.tracker.RaiseActivity(0.7)
	for i := 0; i < 9; i++ {
		first.tracker.IncrementCycles()
	}
	first.daemon.Shutdown()

	second := newTestDaemon(t, func(cfg *config.Config) { cfg.Daemon.StateDir = stateDir })
	if err := second.daemon.Start(context.Background()); err != nil {
		t.Fatalf("restart: %v", err)
	}
	defer second.daemon.Shutdown()

	snap := second.daemon.Status()
	if snap.Cycles < 9 {
		t.Fatalf("cycles not restored: %d", snap.Cycles)
	}
	if snap.ActivityScore < 0.7 {
		t.Fatalf("activity not restored: %v", snap.ActivityScore)
	}
}

func TestHeartbeatTrimsJournalHistory(t *testing.T) {
	h := newTestDaemon(t, func(cfg *config.Config) {
		cfg.Daemon.JournalHistory = 3
		cfg.Agent.Enabled = false
		cfg.Scheduler.Enabled = false
	})

	for i := 0; i < 10; i++ {
		if err := h.store.RecordThought(context.Background(), int64(i), "backfill"); err != nil {
			t.Fatalf("RecordThought: %v", err)
		}
	}

	if err := h.daemon.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer h.daemon.Shutdown()

	deadline := time.Now().Add(10 * time.Second)
	for {
		thoughts, err := h.store.RecentThoughts(context.Background(), 0)
		if err != nil {
			t.Fatalf("RecentThoughts: %v", err)
		}
		if len(thoughts) <= 3 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("journal never trimmed: %d thoughts retained", len(thoughts))
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func TestRequestShutdownImmediatelyAfterStart(t *testing.T) {
	h := newTestDaemon(t, nil)
	if err := h.daemon.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	h.daemon.RequestShutdown(0)

	select {
	case <-h.daemon.doneCh:
	case <-time.After(15 * time.Second):
		t.Fatal("daemon did not stop after immediate shutdown request")
	}
	if got := h.daemon.Status().State; got != status.StateStopped {
		t.Fatalf("state = %s", got)
	}
}

func apiGet(t *testing.T, addr, path string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get("http://" + addr + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return resp
}

func TestAPIEndpoints(t *testing.T) {
	h := newTestDaemon(t, nil)
	if err := h.daemon.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer h.daemon.Shutdown()

	addr := h.daemon.api.addr()
	if addr == "" {
		t.Fatal("api address empty")
	}

	var banner struct {
		Name      string   `json:"name"`
		State     string   `json:"state"`
		Endpoints []string `json:"endpoints"`
	}
	apiGet(t, addr, "/", &banner)
	if banner.Name != h.cfg.Daemon.Name || banner.State != "running" {
		t.Fatalf("banner = %+v", banner)
	}
	if len(banner.Endpoints) == 0 {
		t.Fatal("banner lists no endpoints")
	}

	var snap status.Snapshot
	apiGet(t, addr, "/status", &snap)
	if snap.State != status.StateRunning {
		t.Fatalf("status state = %s", snap.State)
	}

	var modelsResp struct {
		Models []string `json:"models"`
		Count  int      `json:"count"`
	}
	apiGet(t, addr, "/models", &modelsResp)
	if modelsResp.Count != len(modelsResp.Models) {
		t.Fatalf("models count mismatch: %+v", modelsResp)
	}

	var thoughtsResp struct {
		Thoughts []json.RawMessage `json:"thoughts"`
		Count    int               `json:"count"`
		Recorded int64             `json:"recorded"`
	}
	apiGet(t, addr, "/thoughts?count=5", &thoughtsResp)
	if thoughtsResp.Count != len(thoughtsResp.Thoughts) {
		t.Fatalf("thoughts count mismatch: %+v", thoughtsResp)
	}
	if thoughtsResp.Recorded < 0 {
		t.Fatalf("recorded total negative: %d", thoughtsResp.Recorded)
	}

	// Interact queues a user interaction.
	body, _ := json.Marshal(map[string]string{"message": "hello there"})
	resp, err := http.Post("http://"+addr+"/interact", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST /interact: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("interact status = %d", resp.StatusCode)
	}
	var interact struct {
		Status   string `json:"status"`
		Message  string `json:"message"`
		ActionID string `json:"action_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&interact); err != nil {
		t.Fatalf("decode interact: %v", err)
	}
	if interact.Status != "received" || interact.Message != "hello there" || interact.ActionID == "" {
		t.Fatalf("interact response = %+v", interact)
	}

	// Bad requests are rejected.
	badResp, err := http.Post("http://"+addr+"/interact", "application/json", bytes.NewReader([]byte(`{"message":""}`)))
	if err != nil {
		t.Fatalf("POST /interact empty: %v", err)
	}
	badResp.Body.Close()
	if badResp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty message status = %d", badResp.StatusCode)
	}

	if resp := apiGet(t, addr, "/thoughts?count=bogus", nil); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bogus count status = %d", resp.StatusCode)
	}
}

func TestAPIShutdownStopsDaemon(t *testing.T) {
	h := newTestDaemon(t, nil)

	if err := h.daemon.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	addr := h.daemon.api.addr()

	resp, err := http.Post("http://"+addr+"/shutdown", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /shutdown: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("shutdown status = %d", resp.StatusCode)
	}

	select {
	case <-h.daemon.doneCh:
	case <-time.After(15 * time.Second):
		t.Fatal("daemon did not stop after shutdown request")
	}

	if got := h.daemon.Status().State; got != status.StateStopped {
		t.Fatalf("state = %s", got)
	}
}

func TestScheduledJobFlowsThroughLoop(t *testing.T) {
	h := newTestDaemon(t, func(cfg *config.Config) {
		cfg.Scheduler.Jobs = []config.Job{
			{Name: "t1", Schedule: "* * * * *", ActionKind: "noop", Enabled: true},
		}
	})

	before, err := h.store.RecentActions(context.Background(), 0)
	if err != nil {
		t.Fatalf("RecentActions: %v", err)
	}
	if len(before) != 0 {
		t.Fatalf("journal not empty before start: %d", len(before))
	}

	if err := h.daemon.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer h.daemon.Shutdown()

	// The scheduler fires t1 on its first poll of the current minute; the
	// loop drains it on its next cycle and journals exactly one noop action.
	deadline := time.Now().Add(10 * time.Second)
	for {
		actions, err := h.store.RecentActions(context.Background(), 0)
		if err != nil {
			t.Fatalf("RecentActions: %v", err)
		}
		noops := 0
		for _, action := range actions {
			if action.Kind == "noop" {
				noops++
			}
		}
		if noops >= 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("noop action never journaled; journal has %d actions", len(actions))
		}
		time.Sleep(100 * time.Millisecond)
	}

	snap := h.daemon.Status()
	if snap.LastThought == "" {
		t.Fatal("loop produced no thoughts")
	}
	if snap.ActivityScore <= 0 {
		t.Fatalf("activity score = %v", snap.ActivityScore)
	}
}

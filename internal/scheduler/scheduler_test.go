package scheduler

import (
	"testing"
	"time"

	"cortex/internal/agent"
	"cortex/internal/config"
	"cortex/internal/logging"
)

func newTestScheduler(t *testing.T, jobs []config.Job) (*Scheduler, *agent.Queue) {
	t.Helper()
	queue := agent.NewQueue()
	cfg := config.Scheduler{Enabled: true, PollInterval: 60, Jobs: jobs}
	return New(cfg, queue, logging.NewNop()), queue
}

func TestEveryMinuteJobFiresOncePerMinute(t *testing.T) {
	s, queue := newTestScheduler(t, []config.Job{
		{Name: "t1", Schedule: "* * * * *", ActionKind: "noop", Enabled: true},
	})

	minute := time.Date(2026, time.March, 4, 10, 0, 0, 0, time.UTC)

	if fired := s.Poll(minute); fired != 1 {
		t.Fatalf("first poll fired %d, want 1", fired)
	}

	// Re-polling inside the same minute must not double-fire.
	if fired := s.Poll(minute.Add(20 * time.Second)); fired != 0 {
		t.Fatalf("same-minute poll fired %d, want 0", fired)
	}
	if fired := s.Poll(minute.Add(45 * time.Second)); fired != 0 {
		t.Fatalf("same-minute poll fired %d, want 0", fired)
	}

	// The next minute fires again.
	if fired := s.Poll(minute.Add(time.Minute)); fired != 1 {
		t.Fatalf("next-minute poll fired %d, want 1", fired)
	}

	drained := queue.Drain()
	if len(drained) != 2 {
		t.Fatalf("queue held %d actions, want 2", len(drained))
	}
	for _, action := range drained {
		if action.Kind != agent.KindNoop {
			t.Fatalf("action kind = %s, want noop", action.Kind)
		}
		if action.Payload["job"] != "t1" {
			t.Fatalf("action payload = %v, want job t1", action.Payload)
		}
	}
}

func TestSpecificTimeJobFiresOnlyAtThatMinute(t *testing.T) {
	s, queue := newTestScheduler(t, []config.Job{
		{Name: "daily", Schedule: "30 14 * * *", ActionKind: "status_report", Enabled: true},
	})

	day := time.Date(2026, time.March, 4, 0, 0, 0, 0, time.UTC)
	fired := 0
	for minute := 0; minute < 24*60; minute++ {
		fired += s.Poll(day.Add(time.Duration(minute) * time.Minute))
	}
	if fired != 1 {
		t.Fatalf("job fired %d times over a day, want 1", fired)
	}
	drained := queue.Drain()
	if len(drained) != 1 || drained[0].Kind != agent.KindStatusReport {
		t.Fatalf("unexpected queue contents: %+v", drained)
	}
}

func TestInvalidScheduleNeverFires(t *testing.T) {
	s, queue := newTestScheduler(t, []config.Job{
		{Name: "broken", Schedule: "a b", ActionKind: "noop", Enabled: true},
	})

	if s.Jobs() != 1 {
		t.Fatalf("Jobs = %d, want 1 (kept but non-runnable)", s.Jobs())
	}
	now := time.Date(2026, time.March, 4, 10, 0, 0, 0, time.UTC)
	for minute := 0; minute < 10; minute++ {
		if fired := s.Poll(now.Add(time.Duration(minute) * time.Minute)); fired != 0 {
			t.Fatalf("invalid job fired at minute %d", minute)
		}
	}
	if queue.Len() != 0 {
		t.Fatalf("queue depth = %d, want 0", queue.Len())
	}
}

func TestUnknownActionKindNeverFires(t *testing.T) {
	s, queue := newTestScheduler(t, []config.Job{
		{Name: "odd", Schedule: "* * * * *", ActionKind: "reboot", Enabled: true},
	})

	if fired := s.Poll(time.Now()); fired != 0 {
		t.Fatalf("job with unknown kind fired %d times", fired)
	}
	if queue.Len() != 0 {
		t.Fatalf("queue depth = %d, want 0", queue.Len())
	}
}

func TestDisabledJobsAreNotRegistered(t *testing.T) {
	s, _ := newTestScheduler(t, []config.Job{
		{Name: "off", Schedule: "* * * * *", ActionKind: "noop", Enabled: false},
	})
	if s.Jobs() != 0 {
		t.Fatalf("Jobs = %d, want 0", s.Jobs())
	}
}

func TestIndependentJobsFireIndependently(t *testing.T) {
	s, queue := newTestScheduler(t, []config.Job{
		{Name: "minutely", Schedule: "* * * * *", ActionKind: "noop", Enabled: true},
		{Name: "quarterly", Schedule: "*/15 * * * *", ActionKind: "benchmark", Enabled: true},
	})

	at := time.Date(2026, time.March, 4, 10, 15, 0, 0, time.UTC)
	if fired := s.Poll(at); fired != 2 {
		t.Fatalf("poll at :15 fired %d, want 2", fired)
	}

	if fired := s.Poll(at.Add(time.Minute)); fired != 1 {
		t.Fatalf("poll at :16 fired %d, want 1", fired)
	}

	kinds := map[agent.Kind]int{}
	for _, action := range queue.Drain() {
		kinds[action.Kind]++
	}
	if kinds[agent.KindNoop] != 2 || kinds[agent.KindBenchmark] != 1 {
		t.Fatalf("unexpected kind counts: %v", kinds)
	}
}

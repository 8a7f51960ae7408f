package models

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"cortex/internal/faults"
	"cortex/internal/logging"
)

// Loader constructs a resource handle on a cache miss.
type Loader func(ctx context.Context) (any, error)

type entry struct {
	handle   any
	lastUsed time.Time
	touched  uint64
	inserted uint64
	useCount int64
}

// Cache holds at most capacity named handles, evicting the least recently
// used entry when an insertion would exceed it.
type Cache struct {
	mu       sync.Mutex
	capacity int
	clock    uint64
	entries  map[string]*entry
	logger   *slog.Logger
}

// NewCache constructs a cache. Capacity must be at least one.
func NewCache(capacity int, logger *slog.Logger) (*Cache, error) {
	if capacity < 1 {
		return nil, faults.Wrap(faults.ErrConfiguration, "models", "capacity must be at least 1", nil)
	}
	return &Cache{
		capacity: capacity,
		entries:  make(map[string]*entry, capacity),
		logger:   logging.NewComponentLogger(logger, "models"),
	}, nil
}

// Get returns the handle for name, invoking load on a miss. The loader runs
// inside the cache's critical section: mutations are fully serialized, so the
// size invariant holds even when concurrent callers miss on distinct names.
// A loader failure leaves the cache unchanged.
func (c *Cache) Get(ctx context.Context, name string, load Loader) (any, error) {
	if name == "" {
		return nil, errors.New("model name is required")
	}
	if load == nil {
		return nil, errors.New("loader is required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[name]; ok {
		c.clock++
		existing.touched = c.clock
		existing.lastUsed = time.Now().UTC()
		existing.useCount++
		return existing.handle, nil
	}

	handle, err := load(ctx)
	if err != nil {
		return nil, faults.Wrap(faults.ErrResourceLoad, "models", "load "+name, err)
	}

	c.clock++
	c.entries[name] = &entry{
		handle:   handle,
		lastUsed: time.Now().UTC(),
		touched:  c.clock,
		inserted: c.clock,
		useCount: 1,
	}
	c.evictOverCapacity()
	return handle, nil
}

// Contains reports whether a handle is currently cached, without touching
// its recency.
func (c *Cache) Contains(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[name]
	return ok
}

// Names returns the cached handle names in sorted order.
func (c *Cache) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the current number of cached handles.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evictOverCapacity removes least-recently-used entries until the size
// invariant holds again. Called with the mutex held, only from insertion;
// eviction is demand-driven, never timer-driven.
func (c *Cache) evictOverCapacity() {
	for len(c.entries) > c.capacity {
		victim := ""
		var victimEntry *entry
		for name, candidate := range c.entries {
			if victimEntry == nil ||
				candidate.touched < victimEntry.touched ||
				(candidate.touched == victimEntry.touched && candidate.inserted < victimEntry.inserted) {
				victim = name
				victimEntry = candidate
			}
		}
		if victim == "" {
			return
		}
		delete(c.entries, victim)
		c.logger.Debug("evicted least recently used model",
			logging.String("model", victim),
			logging.Int64("use_count", victimEntry.useCount),
			logging.Time("last_used", victimEntry.lastUsed),
		)
	}
}

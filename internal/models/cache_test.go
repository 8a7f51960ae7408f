package models

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"cortex/internal/faults"
	"cortex/internal/logging"
)

func newTestCache(t *testing.T, capacity int) *Cache {
	t.Helper()
	cache, err := NewCache(capacity, logging.NewNop())
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	return cache
}

func staticLoader(value any) Loader {
	return func(context.Context) (any, error) {
		return value, nil
	}
}

func TestNewCacheRejectsZeroCapacity(t *testing.T) {
	if _, err := NewCache(0, logging.NewNop()); !errors.Is(err, faults.ErrConfiguration) {
		t.Fatalf("NewCache(0) error = %v, want ErrConfiguration", err)
	}
}

func TestGetLoadsOnMissAndHitsAfterwards(t *testing.T) {
	cache := newTestCache(t, 2)
	ctx := context.Background()

	loads := 0
	loader := func(context.Context) (any, error) {
		loads++
		return "handle", nil
	}

	for i := 0; i < 3; i++ {
		got, err := cache.Get(ctx, "alpha", loader)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got != "handle" {
			t.Fatalf("Get = %v, want handle", got)
		}
	}
	if loads != 1 {
		t.Fatalf("loader invoked %d times, want 1", loads)
	}
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	cache := newTestCache(t, 2)
	ctx := context.Background()

	// Access order A, B, A, C with capacity 2: B is the LRU victim.
	for _, name := range []string{"a", "b", "a", "c"} {
		if _, err := cache.Get(ctx, name, staticLoader(name)); err != nil {
			t.Fatalf("Get(%s): %v", name, err)
		}
	}

	if cache.Contains("b") {
		t.Fatal("expected b to be evicted")
	}
	want := []string{"a", "c"}
	if got := cache.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Names = %v, want %v", got, want)
	}
}

func TestLoaderFailureLeavesCacheUnchanged(t *testing.T) {
	cache := newTestCache(t, 2)
	ctx := context.Background()

	boom := errors.New("backend unavailable")
	_, err := cache.Get(ctx, "broken", func(context.Context) (any, error) {
		return nil, boom
	})
	if !errors.Is(err, faults.ErrResourceLoad) {
		t.Fatalf("Get error = %v, want ErrResourceLoad", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("Get error = %v, want wrapped cause", err)
	}
	if cache.Contains("broken") {
		t.Fatal("failed load must not insert an entry")
	}
	if cache.Len() != 0 {
		t.Fatalf("Len = %d, want 0", cache.Len())
	}
}

func TestContainsDoesNotTouchRecency(t *testing.T) {
	cache := newTestCache(t, 2)
	ctx := context.Background()

	for _, name := range []string{"a", "b"} {
		if _, err := cache.Get(ctx, name, staticLoader(name)); err != nil {
			t.Fatalf("Get(%s): %v", name, err)
		}
	}

	// Peeking at a must not save it from eviction.
	if !cache.Contains("a") {
		t.Fatal("expected a cached")
	}
	if _, err := cache.Get(ctx, "c", staticLoader("c")); err != nil {
		t.Fatalf("Get(c): %v", err)
	}
	if cache.Contains("a") {
		t.Fatal("expected a to be evicted despite Contains peek")
	}
}

func TestCapacityHoldsUnderConcurrentMisses(t *testing.T) {
	const capacity = 3
	cache := newTestCache(t, capacity)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("model-%d", i%8)
			if _, err := cache.Get(ctx, name, staticLoader(name)); err != nil {
				t.Errorf("Get(%s): %v", name, err)
			}
		}(i)
	}
	wg.Wait()

	if got := cache.Len(); got > capacity {
		t.Fatalf("Len = %d, exceeds capacity %d", got, capacity)
	}
}

func TestPlaceholderLoaderProducesHandle(t *testing.T) {
	loader := PlaceholderLoader("echo-small", "conversation")
	value, err := loader(context.Background())
	if err != nil {
		t.Fatalf("loader: %v", err)
	}
	handle, ok := value.(Handle)
	if !ok {
		t.Fatalf("loader returned %T, want Handle", value)
	}
	if handle.Name != "echo-small" || handle.Task != "conversation" {
		t.Fatalf("unexpected handle %+v", handle)
	}
	if handle.LoadedAt.IsZero() {
		t.Fatal("LoadedAt not set")
	}
}

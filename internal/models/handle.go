package models

import (
	"context"
	"time"
)

// Handle is the opaque resource the cache stores for the daemon. Real
// inference backends would carry their own handle types; the daemon only
// needs a name and load instant for introspection.
type Handle struct {
	Name     string    `json:"name"`
	Task     string    `json:"task"`
	LoadedAt time.Time `json:"loaded_at"`
}

// PlaceholderLoader returns a Loader that constructs a lightweight Handle.
// Used for components that need a named resource but no real backend.
func PlaceholderLoader(name, task string) Loader {
	return func(_ context.Context) (any, error) {
		return Handle{Name: name, Task: task, LoadedAt: time.Now().UTC()}, nil
	}
}

// Package faults defines the error taxonomy shared across cortex components.
//
// Only ErrConfiguration is fatal, and only during startup. Every other kind
// is recoverable: the owning loop logs the error with enough context to
// reproduce it and continues.
package faults

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration marks invalid or missing required configuration.
	// The daemon refuses to start when initialization returns it.
	ErrConfiguration = errors.New("configuration error")

	// ErrResourceLoad marks a cache-miss loader failure. The cache is left
	// unchanged and the error surfaces to the caller.
	ErrResourceLoad = errors.New("resource load error")

	// ErrHandler marks an action handler failure. The reasoning loop drops
	// the action and moves on.
	ErrHandler = errors.New("handler error")

	// ErrSamplerUnavailable marks a sampler that could not observe its
	// target this tick (missing tool, unreadable path). Degrades to no event.
	ErrSamplerUnavailable = errors.New("sampler unavailable")

	// ErrScheduleInvalid marks a malformed cron spec. The job becomes
	// permanently non-firing.
	ErrScheduleInvalid = errors.New("invalid schedule")
)

// Wrap builds an error that includes component context while tagging it with
// the provided marker for later classification. The marker should be one of
// the exported sentinels above.
func Wrap(marker error, component, operation string, err error) error {
	detail := buildDetail(component, operation)
	if marker == nil {
		marker = ErrHandler
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether an error should abort daemon startup.
func IsFatal(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

func buildDetail(component, operation string) string {
	parts := make([]string, 0, 2)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if len(parts) == 0 {
		return "component failure"
	}
	return strings.Join(parts, ": ")
}

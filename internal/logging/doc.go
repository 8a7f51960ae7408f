// Package logging assembles the structured slog loggers shared by every
// cortex component.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes attribute helpers plus standard field names so the
// supervisor, loop, scheduler, and samplers all emit log lines with the same
// shape. A no-op logger is provided for tests and wiring code that cannot
// fail.
package logging

// Package config loads, normalizes, and validates cortex configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob
// the daemon and CLI need: component enable flags, poll intervals, behavior
// and scheduled-job lists, watch paths, and the model cache capacity.
//
// Missing sub-keys fall back to documented defaults rather than failing
// startup; unknown keys are ignored by the decoder. Validation fails only on
// structural misconfiguration, such as enabling the agent loop while the
// model cache it depends on is disabled.
package config

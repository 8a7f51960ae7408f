// Package daemon implements the supervisor: single-instance locking,
// component lifecycle, the heartbeat, status snapshot persistence, and the
// HTTP control surface.
//
// Components are started in registration order, each under its own cancelable
// context, and stopped in reverse order during shutdown. A component that
// ignores cancellation past the grace deadline is logged and abandoned rather
// than blocking the rest of the shutdown.
package daemon

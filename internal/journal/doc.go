// Package journal persists the daemon's durable trail: every processed
// action and every synthesized thought, backed by SQLite. The journal is a
// record, not a mailbox; the live action queue never touches it.
package journal

// Package storage persists the reminder daemon's small bits of state:
// the date of the last successful send and an append-only log of
// delivered (or failed) reminder emails.
//
// Two drivers exist: "sqlite" (modernc.org/sqlite, WAL) and "file"
// (JSON state + JSONL log, dependency-free). Storage is optional; with
// no driver configured the daemon runs stateless and relies on the
// repeat-allow override semantics only.
package storage

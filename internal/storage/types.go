package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures storage.
//
// Driver values:
//   - "file": dependency-free file backend (state json + jsonl log)
//   - "sqlite": SQLite database file
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// SentEntry records one attempted reminder delivery.
// Keep it compact and schema-stable.
type SentEntry struct {
	At        time.Time
	Recipient string
	Subject   string
	TaskCount int
	Error     string
}

package storage

import (
	"context"
	"errors"
	"strings"

	logx "notifyd/pkg/logx"
)

// Store is the minimal persistence API used by the runner.
//
// LastSentDate returns the ISO-8601 date of the most recent send, with
// ok=false when no send is recorded. Values are stored as strings so a
// corrupted entry degrades to "unknown" at the caller, never an error.
type Store interface {
	LastSentDate(ctx context.Context) (day string, ok bool, err error)
	SetLastSentDate(ctx context.Context, day string) error
	AppendSent(ctx context.Context, e SentEntry) error
	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if storage is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}

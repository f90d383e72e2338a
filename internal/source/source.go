// Package source loads the reminder inputs: the task list and the
// registered user emails. The production deployment reads these from
// the job-management system's export; the file driver consumes that
// export as a YAML or JSON document.
package source

import (
	"context"
	"errors"
	"strings"

	"notifyd/internal/notify"
)

// Source yields the per-run inputs. Implementations re-read on every
// call so a run always sees the current export.
type Source interface {
	Tasks(ctx context.Context) ([]notify.Task, error)
	UserEmails(ctx context.Context) ([]string, error)
}

// Config selects and configures a source driver.
type Config struct {
	Driver string
	Path   string
}

// Open initializes the configured source.
func Open(cfg Config) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "file":
		return openFile(cfg)
	default:
		return nil, errors.New("unknown source driver: " + cfg.Driver)
	}
}

// Package runner executes one reminder run per scheduling tick: load
// the inputs, evaluate the schedule gate, queue the rendered payloads
// and persist the last-sent date.
package runner

import (
	"context"
	"sync"
	"time"

	"notifyd/internal/notify"
	"notifyd/internal/source"
	"notifyd/internal/storage"
	logx "notifyd/pkg/logx"
)

// Queue is the slice of the mailer the runner needs.
type Queue interface {
	Enqueue(ctx context.Context, p notify.Payload, taskCount int) error
}

// Params is the schedule snapshot one run is evaluated against.
type Params struct {
	Settings    notify.Settings
	AllowRepeat bool
}

// Result summarizes one run.
type Result struct {
	Due      bool // schedule gate passed and payloads were assembled
	Payloads int
	Queued   int
}

type Runner struct {
	log logx.Logger

	mu    sync.Mutex
	rules notify.Ruleset // guarded by mu (config hot reload)

	src   source.Source
	store storage.Store // optional
	queue Queue

	// Now is the run clock; overridable in tests. It must yield time
	// in the deployment's notification timezone.
	Now func() time.Time

	// memLastSent backs the suppression check when no store is
	// configured, so a stateless daemon still sends once per day
	// (per process lifetime). Guarded by mu: cron starts each tick
	// in its own goroutine.
	memLastSent notify.DateValue
}

func New(rules notify.Ruleset, src source.Source, store storage.Store, queue Queue, log logx.Logger) *Runner {
	return &Runner{
		log:   log,
		rules: rules,
		src:   src,
		store: store,
		queue: queue,
		Now:   time.Now,
	}
}

// ApplyRules swaps the reminder constants (config hot reload).
func (r *Runner) ApplyRules(rules notify.Ruleset) {
	r.mu.Lock()
	r.rules = rules
	r.mu.Unlock()
}

// RunOnce performs a single scheduling check. Input loading failures
// and a malformed daily time are returned; a missing last-sent record
// degrades to "never sent".
func (r *Runner) RunOnce(ctx context.Context, p Params) (Result, error) {
	now := r.Now()

	r.mu.Lock()
	rules := r.rules
	memLastSent := r.memLastSent
	r.mu.Unlock()

	tasks, err := r.src.Tasks(ctx)
	if err != nil {
		return Result{}, err
	}
	userEmails, err := r.src.UserEmails(ctx)
	if err != nil {
		return Result{}, err
	}

	lastSent := memLastSent
	if r.store != nil {
		lastSent = notify.NoDate
		day, ok, err := r.store.LastSentDate(ctx)
		if err != nil {
			r.log.Warn("last-sent lookup failed, assuming never sent", logx.Err(err))
		} else if ok {
			lastSent = notify.DateFromString(day)
		}
	}

	payloads, err := rules.Trigger(&p.Settings, tasks, userEmails, now, lastSent, p.AllowRepeat)
	if err != nil {
		return Result{}, err
	}
	if len(payloads) == 0 {
		r.log.Debug("no reminders due", logx.Time("now", now))
		return Result{}, nil
	}

	// Grouping is re-derived for the per-recipient task counts carried
	// into the sent log; inputs are identical, so it matches Trigger.
	grouping := rules.GroupOnGoing(tasks, userEmails)

	res := Result{Due: true, Payloads: len(payloads)}
	for _, payload := range payloads {
		if err := r.queue.Enqueue(ctx, payload, len(grouping.Tasks(payload.To))); err != nil {
			r.log.Warn("reminder not queued", logx.String("to", payload.To), logx.Err(err))
			continue
		}
		res.Queued++
	}

	// Record today as sent so the next tick is suppressed. Manual
	// repeat-allowed runs never advance the marker.
	if !p.AllowRepeat {
		r.mu.Lock()
		r.memLastSent = notify.DateOf(now)
		r.mu.Unlock()
		if r.store != nil {
			day := now.Format("2006-01-02")
			if err := r.store.SetLastSentDate(ctx, day); err != nil {
				r.log.Warn("last-sent update failed", logx.String("day", day), logx.Err(err))
			}
		}
	}

	r.log.Info("reminder run complete",
		logx.Int("payloads", res.Payloads),
		logx.Int("queued", res.Queued),
		logx.Bool("allow_repeat", p.AllowRepeat))
	return res, nil
}

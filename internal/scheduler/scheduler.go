// Package scheduler drives the reminder runner. It owns a cron
// instance pinned to the configured timezone and fires one check per
// minute; the runner's own gate decides whether anything is sent.
package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	logx "notifyd/pkg/logx"
)

// checkSpec fires on every minute; the daily window is evaluated by
// the runner, so a finer cron expression would buy nothing.
const checkSpec = "* * * * *"

type Service struct {
	mu sync.Mutex

	log    logx.Logger
	tz     string
	loc    *time.Location
	parser cron.Parser

	c   *cron.Cron
	job func(ctx context.Context)
}

func New(tz string, log logx.Logger) *Service {
	s := &Service{
		log:    log,
		parser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
	s.tz = strings.TrimSpace(tz)
	s.loc = s.loadLocation()
	return s
}

// Location is the zone run clocks must use, so the wall-clock check
// matches what the cron ticks in.
func (s *Service) Location() *time.Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loc
}

// Apply switches the timezone; a running cron restarts in place.
func (s *Service) Apply(tz string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tz = strings.TrimSpace(tz)
	if tz == s.tz {
		return
	}
	s.tz = tz
	s.loc = s.loadLocation()
	if s.c != nil {
		s.restartLocked(context.Background())
	}
}

// Start launches the minute tick; job runs on cron's goroutine.
func (s *Service) Start(ctx context.Context, job func(ctx context.Context)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return errors.New("scheduler already started")
	}
	if job == nil {
		return errors.New("scheduler job is required")
	}
	s.job = job
	s.restartLocked(ctx)
	s.log.Info("scheduler started", logx.String("tz", s.loc.String()))
	return nil
}

func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c == nil {
		return
	}
	<-s.c.Stop().Done()
	s.c = nil
	s.log.Info("scheduler stopped")
}

func (s *Service) restartLocked(ctx context.Context) {
	if s.c != nil {
		<-s.c.Stop().Done()
	}
	job := s.job
	s.c = cron.New(cron.WithParser(s.parser), cron.WithLocation(s.loc))
	_, _ = s.c.AddFunc(checkSpec, func() {
		select {
		case <-ctx.Done():
			return
		default:
		}
		job(ctx)
	})
	s.c.Start()
}

func (s *Service) loadLocation() *time.Location {
	if s.tz == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(s.tz)
	if err != nil {
		s.log.Warn("invalid timezone, falling back to Local", logx.String("tz", s.tz), logx.Err(err))
		return time.Local
	}
	return loc
}

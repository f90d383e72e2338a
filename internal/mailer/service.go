// Package mailer is the async delivery pipeline between the reminder
// core and the outbound email account: a bounded queue, a small worker
// pool, a token-bucket rate limit and bounded retries with backoff.
package mailer

import (
	"context"
	"errors"
	"math/rand"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"notifyd/internal/eventbus"
	"notifyd/internal/notify"
	"notifyd/internal/storage"
	logx "notifyd/pkg/logx"
)

var (
	ErrQueueFull = errors.New("mailer queue full")
	ErrStopped   = errors.New("mailer stopped")
)

type job struct {
	p         notify.Payload
	taskCount int
}

// Service is safe for concurrent use. Enqueue never blocks; a full
// queue is reported to the caller and on the bus.
type Service struct {
	mu sync.Mutex

	log    logx.Logger
	sender Sender
	bus    eventbus.Bus
	store  storage.Store // optional sent-log sink

	cfg     Config
	limiter *rate.Limiter

	accepting bool
	sendWG    sync.WaitGroup

	queue    chan job
	stopDone chan struct{}

	runCtx    context.Context
	runCancel context.CancelFunc
	workerWG  sync.WaitGroup
}

func New(cfg Config, sender Sender, log logx.Logger, bus eventbus.Bus, store storage.Store) *Service {
	s := &Service{sender: sender, log: log, bus: bus, store: store}
	s.applyLocked(cfg)
	return s
}

// Apply updates pipeline knobs; takes effect for subsequent sends.
func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	s.applyLocked(cfg)
	s.mu.Unlock()
}

func (s *Service) applyLocked(cfg Config) {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 128
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 2
	}
	if cfg.RetryMax < 0 {
		cfg.RetryMax = 0
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 500 * time.Millisecond
	}
	if cfg.RetryMaxDelay <= 0 {
		cfg.RetryMaxDelay = 10 * time.Second
	}

	s.cfg = cfg
	// Token bucket with burst = rate so a day's batch doesn't stall hard.
	s.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
}

func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	if s.queue != nil {
		s.mu.Unlock()
		return
	}
	s.queue = make(chan job, s.cfg.QueueSize)
	s.accepting = true
	s.stopDone = make(chan struct{})
	s.runCtx, s.runCancel = context.WithCancel(ctx)
	workers := s.cfg.Workers
	s.mu.Unlock()

	for i := 0; i < workers; i++ {
		i := i
		s.workerWG.Add(1)
		go func() {
			defer s.workerWG.Done()
			defer func() {
				if r := recover(); r != nil {
					s.log.Error("panic in mailer worker",
						logx.Int("worker", i),
						logx.Any("panic", r),
						logx.String("stack", string(debug.Stack())))
				}
			}()
			s.workerLoop()
		}()
	}
}

// Stop stops intake and drains the queue best-effort until ctx deadline.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	q := s.queue
	done := s.stopDone
	cancel := s.runCancel
	if q == nil {
		s.mu.Unlock()
		return
	}
	s.accepting = false
	s.mu.Unlock()

	// Wait for in-flight enqueues, then close the queue so workers drain.
	ch := make(chan struct{})
	go func() {
		s.sendWG.Wait()
		close(ch)
	}()
	select {
	case <-ctx.Done():
		if cancel != nil {
			cancel()
		}
		// Finish the teardown in the background so a drain that
		// outlived its deadline doesn't leave the service unable to
		// Start again.
		go func() {
			s.sendWG.Wait()
			func() {
				defer func() { _ = recover() }()
				close(q)
			}()
			s.workerWG.Wait()
			func() {
				defer func() { _ = recover() }()
				close(done)
			}()
			s.reset()
		}()
		return
	case <-ch:
	}

	func() {
		defer func() { _ = recover() }()
		close(q)
	}()

	go func() {
		s.workerWG.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
	case <-done:
	}
	if cancel != nil {
		cancel()
	}

	s.reset()
}

func (s *Service) reset() {
	s.mu.Lock()
	s.queue = nil
	s.stopDone = nil
	s.runCancel = nil
	s.runCtx = nil
	s.mu.Unlock()
}

// Enqueue accepts one payload for async delivery. taskCount is carried
// through to the sent log.
func (s *Service) Enqueue(ctx context.Context, p notify.Payload, taskCount int) error {
	if ctx != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	s.mu.Lock()
	if !s.accepting || s.queue == nil {
		s.mu.Unlock()
		return ErrStopped
	}
	q := s.queue
	s.sendWG.Add(1)
	s.mu.Unlock()
	defer s.sendWG.Done()

	s.publish(EventQueued, p, nil)
	select {
	case q <- job{p: p, taskCount: taskCount}:
		return nil
	default:
		s.publish(EventDropped, p, ErrQueueFull)
		return ErrQueueFull
	}
}

func (s *Service) workerLoop() {
	s.mu.Lock()
	q := s.queue
	runCtx := s.runCtx
	s.mu.Unlock()

	for j := range q {
		if runCtx != nil {
			select {
			case <-runCtx.Done():
				return
			default:
			}
		}
		s.sendWithRetry(runCtx, j)
	}
}

func (s *Service) sendWithRetry(runCtx context.Context, j job) {
	s.mu.Lock()
	cfg := s.cfg
	lim := s.limiter
	sender := s.sender
	s.mu.Unlock()

	if sender == nil {
		return
	}
	if runCtx == nil {
		runCtx = context.Background()
	}

	maxAttempts := 1 + cfg.RetryMax

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if lim != nil {
			if err := lim.Wait(runCtx); err != nil {
				return
			}
		}

		// Bound per-send so a wedged SMTP dial can't hang a worker.
		callCtx, cancel := context.WithTimeout(runCtx, 30*time.Second)
		err := sender.Send(callCtx, j.p)
		cancel()
		if err == nil {
			s.log.Info("reminder sent", logx.String("to", j.p.To), logx.Int("tasks", j.taskCount))
			s.publish(EventSent, j.p, nil)
			s.appendSentLog(j, "")
			return
		}
		lastErr = err
		s.log.Debug("send failed",
			logx.Err(err),
			logx.String("to", j.p.To),
			logx.Int("attempt", attempt),
			logx.Int("max", maxAttempts))

		if attempt >= maxAttempts {
			break
		}
		delay := retryDelay(cfg, attempt)
		if delay <= 0 {
			continue
		}
		t := time.NewTimer(delay)
		select {
		case <-t.C:
		case <-runCtx.Done():
			if !t.Stop() {
				<-t.C
			}
			return
		}
	}

	if lastErr != nil {
		s.log.Warn("reminder delivery failed", logx.String("to", j.p.To), logx.Err(lastErr))
		s.publish(EventFailed, j.p, lastErr)
		s.appendSentLog(j, lastErr.Error())
	}
}

func (s *Service) appendSentLog(j job, sendErr string) {
	if s.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := s.store.AppendSent(ctx, storage.SentEntry{
		At:        time.Now(),
		Recipient: j.p.To,
		Subject:   j.p.Subject,
		TaskCount: j.taskCount,
		Error:     sendErr,
	})
	if err != nil && !errors.Is(err, storage.ErrDisabled) {
		s.log.Warn("sent log append failed", logx.Err(err))
	}
}

func (s *Service) publish(typ string, p notify.Payload, sendErr error) {
	if s.bus == nil {
		return
	}
	now := time.Now()
	ev := DeliveryEvent{To: p.To, Subject: p.Subject, At: now}
	if sendErr != nil {
		ev.Error = sendErr.Error()
	}
	s.bus.Publish(eventbus.Event{Type: typ, Time: now, Data: ev})
}

func retryDelay(cfg Config, attempt int) time.Duration {
	// attempt starts at 1; the delay is for the NEXT attempt.
	d := cfg.RetryBase
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= cfg.RetryMaxDelay {
			d = cfg.RetryMaxDelay
			break
		}
	}
	// Jitter 0.7..1.3
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	d = time.Duration(float64(d) * (0.7 + rng.Float64()*0.6))
	if d < 0 {
		return 0
	}
	if d > cfg.RetryMaxDelay {
		d = cfg.RetryMaxDelay
	}
	return d
}

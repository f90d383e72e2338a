// Package app wires the reminder daemon together: config manager,
// logging, storage, source, mailer, scheduler and runner, plus config
// hot reload.
package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"notifyd/internal/config"
	"notifyd/internal/eventbus"
	"notifyd/internal/mailer"
	"notifyd/internal/notify"
	"notifyd/internal/runner"
	"notifyd/internal/scheduler"
	"notifyd/internal/source"
	"notifyd/internal/storage"
	"notifyd/pkg/logx"
)

// Options are the boot knobs main resolves from flags and env.
type Options struct {
	ConfigPath string

	// AllowRepeat, when non-nil, overrides notification.allow_repeat
	// (the NOTIFY_ALLOW_REPEAT env variable).
	AllowRepeat *bool
}

type App struct {
	opts Options

	cfgm *config.Manager
	logs *logx.Service
	log  logx.Logger
	bus  eventbus.Bus

	store storage.Store
	src   source.Source
	mail  *mailer.Service
	sched *scheduler.Service
	run   *runner.Runner

	mu  sync.Mutex
	cfg *config.Config

	watchCancel context.CancelFunc
	wg          sync.WaitGroup
}

func New(opts Options) (*App, error) {
	cfgm := config.NewManager(opts.ConfigPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logs, log := logx.New(logxConfig(cfg))
	cfgm.SetLogger(log.With(logx.String("comp", "config")))
	cfgm.SetValidator(validateConfig)

	bus := eventbus.New()

	store, err := openStore(cfg, log)
	if err != nil {
		return nil, err
	}

	src, err := source.Open(source.Config{Driver: cfg.Source.Driver, Path: cfg.Source.Path})
	if err != nil {
		return nil, err
	}

	sched := scheduler.New(cfg.Notification.Timezone, log.With(logx.String("comp", "scheduler")))

	mailCfg, err := mailerConfig(cfg.Mailer)
	if err != nil {
		return nil, err
	}
	mail := mailer.New(mailCfg, buildSender(cfg, log), log.With(logx.String("comp", "mailer")), bus, store)

	run := runner.New(ruleset(cfg.Rules), src, store, mail, log.With(logx.String("comp", "runner")))
	run.Now = func() time.Time { return time.Now().In(sched.Location()) }

	return &App{
		opts:  opts,
		cfgm:  cfgm,
		logs:  logs,
		log:   log,
		bus:   bus,
		store: store,
		src:   src,
		mail:  mail,
		sched: sched,
		run:   run,
		cfg:   cfg,
	}, nil
}

func (a *App) Logger() logx.Logger { return a.log }

// Start brings up the pipeline and the config watcher.
func (a *App) Start(ctx context.Context) error {
	a.mail.Start(ctx)
	if err := a.sched.Start(ctx, a.tick); err != nil {
		return err
	}

	wctx, cancel := context.WithCancel(ctx)
	a.watchCancel = cancel

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		_ = a.cfgm.Watch(wctx)
	}()

	updates := a.cfgm.Subscribe(1)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer a.cfgm.Unsubscribe(updates)
		for {
			select {
			case <-wctx.Done():
				return
			case cfg, ok := <-updates:
				if !ok {
					return
				}
				a.applyConfig(cfg)
			}
		}
	}()

	events, unsubEvents := a.bus.Subscribe(16)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer unsubEvents()
		for {
			select {
			case <-wctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				a.logDeliveryEvent(evt)
			}
		}
	}()

	a.log.Info("notifyd started",
		logx.String("config", a.opts.ConfigPath),
		logx.String("tz", a.sched.Location().String()))
	return nil
}

func (a *App) Stop(ctx context.Context) error {
	a.sched.Stop()
	if a.watchCancel != nil {
		a.watchCancel()
	}
	a.mail.Stop(ctx)
	a.wg.Wait()
	if a.store != nil {
		_ = a.store.Close()
	}
	a.log.Info("notifyd stopped")
	return a.logs.Close()
}

// TriggerOnce runs one reminder check immediately (the manual path).
// It brings up the mail pipeline if Start has not been called; the
// caller still owns Stop.
func (a *App) TriggerOnce(ctx context.Context) (runner.Result, error) {
	a.mail.Start(ctx)
	return a.run.RunOnce(ctx, a.params())
}

func (a *App) tick(ctx context.Context) {
	res, err := a.run.RunOnce(ctx, a.params())
	if err != nil {
		a.log.Error("reminder run failed", logx.Err(err))
		return
	}
	if res.Due {
		a.log.Debug("tick produced reminders", logx.Int("queued", res.Queued))
	}
}

// logDeliveryEvent surfaces mailer outcomes in the app log, one line
// per delivery.
func (a *App) logDeliveryEvent(evt eventbus.Event) {
	de, ok := evt.Data.(mailer.DeliveryEvent)
	if !ok {
		return
	}
	fields := []logx.Field{
		logx.String("to", de.To),
		logx.String("subject", de.Subject),
	}
	switch evt.Type {
	case mailer.EventSent:
		a.log.Info("reminder delivered", fields...)
	case mailer.EventFailed:
		a.log.Error("reminder delivery failed", append(fields, logx.String("cause", de.Error))...)
	case mailer.EventDropped:
		a.log.Warn("reminder dropped", append(fields, logx.String("cause", de.Error))...)
	default:
		a.log.Debug("reminder queued", fields...)
	}
}

func (a *App) params() runner.Params {
	a.mu.Lock()
	cfg := a.cfg
	a.mu.Unlock()

	allow := cfg.Notification.AllowRepeat
	if a.opts.AllowRepeat != nil {
		allow = *a.opts.AllowRepeat
	}
	return runner.Params{
		Settings: notify.Settings{
			DailyTime:  cfg.Notification.DailyTime,
			Enabled:    cfg.Notification.IsEnabled(),
			DaysOfWeek: cfg.Notification.DaysOfWeek,
		},
		AllowRepeat: allow,
	}
}

// applyConfig handles hot reload. Storage, source and SMTP changes
// need a restart; everything else applies in place.
func (a *App) applyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	a.mu.Lock()
	prev := a.cfg
	a.cfg = cfg
	a.mu.Unlock()

	a.logs.Apply(logxConfig(cfg))
	a.sched.Apply(cfg.Notification.Timezone)
	a.run.ApplyRules(ruleset(cfg.Rules))
	if mailCfg, err := mailerConfig(cfg.Mailer); err == nil {
		a.mail.Apply(mailCfg)
	} else {
		a.log.Warn("mailer config invalid, keeping previous", logx.Err(err))
	}

	if prev != nil && (!storageEqual(prev.Storage, cfg.Storage) || prev.Source != cfg.Source || prev.SMTP != cfg.SMTP) {
		a.log.Warn("storage/source/smtp changes take effect after restart")
	}
	a.log.Info("config reloaded")
}

// validateConfig gates hot reloads: a config that cannot drive the
// schedule is rejected before commit.
func validateConfig(ctx context.Context, cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if _, err := notify.ParseDailyTime(cfg.Notification.DailyTime); err != nil {
		return err
	}
	if _, err := mailerConfig(cfg.Mailer); err != nil {
		return err
	}
	if cfg.Storage != nil {
		if _, err := config.ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout); err != nil {
			return err
		}
	}
	return nil
}

func logxConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}

func ruleset(rc *config.RulesConfig) notify.Ruleset {
	if rc == nil {
		return notify.DefaultRuleset()
	}
	opts := notify.Options{
		EmailDomain: rc.EmailDomain,
		Keywords:    rc.OnGoingKeywords,
	}
	if t := rc.Template; t != nil {
		opts.Template = notify.Template{
			Subject:       t.Subject,
			Greeting:      t.Greeting,
			Item:          t.Item,
			Footer:        t.Footer,
			UntitledTitle: t.UntitledTitle,
			UnsetDueDate:  t.UnsetDueDate,
		}
	}
	return notify.NewRuleset(opts)
}

func mailerConfig(mc *config.MailerConfig) (mailer.Config, error) {
	if mc == nil {
		return mailer.Config{}, nil
	}
	base, err := config.ParseDurationField("mailer.retry_base", mc.RetryBase)
	if err != nil {
		return mailer.Config{}, err
	}
	maxDelay, err := config.ParseDurationField("mailer.retry_max_delay", mc.RetryMaxDelay)
	if err != nil {
		return mailer.Config{}, err
	}
	return mailer.Config{
		Workers:       mc.Workers,
		QueueSize:     mc.QueueSize,
		RatePerSec:    mc.RatePerSec,
		RetryMax:      mc.RetryMax,
		RetryBase:     base,
		RetryMaxDelay: maxDelay,
	}, nil
}

func storageEqual(a, b *config.StorageConfig) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func openStore(cfg *config.Config, log logx.Logger) (storage.Store, error) {
	if cfg.Storage == nil {
		return nil, nil
	}
	busy, err := config.ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout)
	if err != nil {
		return nil, err
	}
	return storage.Open(storage.Config{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: busy,
	}, log.With(logx.String("comp", "storage")))
}

func buildSender(cfg *config.Config, log logx.Logger) mailer.Sender {
	if !cfg.SMTP.Enabled {
		return &mailer.LogSender{Log: log.With(logx.String("comp", "sender"))}
	}
	password := cfg.SMTP.Password
	if env := strings.TrimSpace(os.Getenv("SMTP_PASSWORD")); env != "" {
		password = env
	}
	return mailer.NewSMTPSender(mailer.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		User:     cfg.SMTP.User,
		Password: password,
		From:     cfg.SMTP.From,
		SSL:      cfg.SMTP.SSL,
	})
}

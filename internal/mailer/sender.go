package mailer

import (
	"context"
	"sync"

	gomail "gopkg.in/gomail.v2"

	"notifyd/internal/notify"
	logx "notifyd/pkg/logx"
)

// Sender delivers one rendered payload.
type Sender interface {
	Send(ctx context.Context, p notify.Payload) error
}

// SMTPConfig configures the outbound SMTP account.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	SSL      bool
}

// SMTPSender delivers payloads over SMTP. Each Send dials a fresh
// connection; delivery volume here is a handful of emails per day.
type SMTPSender struct {
	cfg SMTPConfig
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) Send(ctx context.Context, p notify.Payload) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", p.To)
	m.SetHeader("Subject", p.Subject)
	m.SetBody("text/plain", p.Body)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.User, s.cfg.Password)
	d.SSL = s.cfg.SSL

	// gomail has no context support; honor cancellation around the call.
	done := make(chan error, 1)
	go func() { done <- d.DialAndSend(m) }()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// LogSender is the dry-run delivery backend used when SMTP is
// disabled: payloads are logged, never sent.
type LogSender struct {
	Log logx.Logger
}

func (s *LogSender) Send(ctx context.Context, p notify.Payload) error {
	s.Log.Info("dry-run email",
		logx.String("to", p.To),
		logx.String("subject", p.Subject),
		logx.Int("body_bytes", len(p.Body)),
	)
	return nil
}

// MemorySender collects payloads in memory. Test helper.
type MemorySender struct {
	mu   sync.Mutex
	sent []notify.Payload

	// Fail makes the next Fail sends return FailErr.
	Fail    int
	FailErr error
}

func (s *MemorySender) Send(ctx context.Context, p notify.Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail > 0 {
		s.Fail--
		return s.FailErr
	}
	s.sent = append(s.sent, p)
	return nil
}

func (s *MemorySender) Sent() []notify.Payload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]notify.Payload(nil), s.sent...)
}

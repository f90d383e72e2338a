package mailer

import "time"

// Config controls the async delivery pipeline.
type Config struct {
	Workers       int
	QueueSize     int
	RatePerSec    int
	RetryMax      int
	RetryBase     time.Duration
	RetryMaxDelay time.Duration
}

// DeliveryEvent is the eventbus payload for mail.* events.
type DeliveryEvent struct {
	To      string
	Subject string
	At      time.Time
	Error   string
}

const (
	EventQueued  = "mail.queued"
	EventSent    = "mail.sent"
	EventFailed  = "mail.failed"
	EventDropped = "mail.dropped"
)

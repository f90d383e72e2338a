package config

import (
	"encoding/json"
	"fmt"
	"strconv"
)

type Config struct {
	Logging      LoggingConfig      `json:"logging"`
	Notification NotificationConfig `json:"notification"`

	// Rules overrides the build-time reminder constants (notification
	// domain, keyword set, template wording). Omit to use defaults.
	Rules *RulesConfig `json:"rules,omitempty"`

	Source  SourceConfig   `json:"source"`
	SMTP    SMTPConfig     `json:"smtp"`
	Mailer  *MailerConfig  `json:"mailer,omitempty"`
	Storage *StorageConfig `json:"storage,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// NotificationConfig is the reminder schedule.
//
// Enabled is a pointer so an omitted field defaults to true, matching
// the historical behavior, while an explicit false disables the run.
type NotificationConfig struct {
	Enabled   *bool  `json:"enabled,omitempty"`
	DailyTime string `json:"daily_time"`

	// DaysOfWeek accepts weekday names ("mon", "Friday") and integers
	// 0-6 counting from Monday. nil means every day; an empty list
	// disables every day.
	DaysOfWeek DayTokens `json:"days_of_week,omitempty"`

	// Timezone is an IANA TZ name (e.g. "Asia/Taipei") the daily check
	// is evaluated in. Empty means the host's local zone.
	Timezone string `json:"timezone,omitempty"`

	// AllowRepeat bypasses same-day suppression. The NOTIFY_ALLOW_REPEAT
	// env variable overrides it at startup.
	AllowRepeat bool `json:"allow_repeat,omitempty"`
}

func (n NotificationConfig) IsEnabled() bool {
	return n.Enabled == nil || *n.Enabled
}

// DayTokens is a weekday list that tolerates both string and integer
// entries in the document, normalized to strings at the boundary.
type DayTokens []string

func (d *DayTokens) UnmarshalJSON(b []byte) error {
	var raw []any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		switch x := v.(type) {
		case string:
			out = append(out, x)
		case float64:
			out = append(out, strconv.Itoa(int(x)))
		default:
			return fmt.Errorf("days_of_week: unsupported entry %v (%T)", v, v)
		}
	}
	*d = out
	return nil
}

type RulesConfig struct {
	EmailDomain     string          `json:"email_domain,omitempty"`
	OnGoingKeywords []string        `json:"on_going_keywords,omitempty"`
	Template        *TemplateConfig `json:"template,omitempty"`
}

type TemplateConfig struct {
	Subject       string `json:"subject,omitempty"`
	Greeting      string `json:"greeting,omitempty"`
	Item          string `json:"item,omitempty"`
	Footer        string `json:"footer,omitempty"`
	UntitledTitle string `json:"untitled_title,omitempty"`
	UnsetDueDate  string `json:"unset_due_date,omitempty"`
}

// SourceConfig points at the task/user-registry source.
//
// Driver values:
//   - "file": a YAML or JSON document with "tasks" and "userEmails"
type SourceConfig struct {
	Driver string `json:"driver"`
	Path   string `json:"path"`
}

type SMTPConfig struct {
	Enabled bool   `json:"enabled"`
	Host    string `json:"host,omitempty"`
	Port    int    `json:"port,omitempty"`
	User    string `json:"user,omitempty"`
	// Password should come from the SMTP_PASSWORD env variable; this
	// field exists for dev setups only.
	Password string `json:"password,omitempty"`
	From     string `json:"from,omitempty"`
	SSL      bool   `json:"ssl,omitempty"`
}

// MailerConfig controls the async delivery pipeline.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
type MailerConfig struct {
	Workers       int    `json:"workers,omitempty"`
	QueueSize     int    `json:"queue_size,omitempty"`
	RatePerSec    int    `json:"rate_per_sec,omitempty"`
	RetryMax      int    `json:"retry_max,omitempty"`
	RetryBase     string `json:"retry_base,omitempty"`
	RetryMaxDelay string `json:"retry_max_delay,omitempty"`
}

// StorageConfig controls the optional persistence layer.
//
// Example:
//
//	"storage": { "driver": "sqlite", "path": "./notifyd.db" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

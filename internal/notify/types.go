package notify

import "fmt"

// Task is a single tracked work item as delivered by the task source.
// Every field is optional; the renderer substitutes template defaults
// for missing title/due date, and tasks without a usable status or
// assignee are simply skipped.
type Task struct {
	Title    string `json:"title" yaml:"title"`
	Status   string `json:"status" yaml:"status"`
	Assignee string `json:"assignee" yaml:"assignee"`
	DueDate  string `json:"dueDate" yaml:"dueDate"`
}

// Payload is one rendered reminder email, ready for delivery.
type Payload struct {
	To      string
	Subject string
	Body    string
}

// Settings is the per-invocation notification schedule.
//
// DaysOfWeek follows the ShouldSend contract: nil means every day,
// an empty slice means no day is scheduled.
type Settings struct {
	DailyTime  string
	Enabled    bool
	DaysOfWeek []string
}

// FormatError reports a malformed textual value (daily time, version
// string). It is a hard failure: callers must not retry or substitute
// a default.
type FormatError struct {
	Field string
	Value string
	Want  string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid %s %q, expected %s", e.Field, e.Value, e.Want)
}

package notify

import "time"

// PreparePayloads groups in-progress tasks and renders one payload
// per recipient, in grouping key order. No in-progress tasks means an
// empty (non-nil) slice.
func (r Ruleset) PreparePayloads(tasks []Task, userEmails []string, notifyDate time.Time) []Payload {
	grouping := r.GroupOnGoing(tasks, userEmails)
	payloads := make([]Payload, 0, grouping.Len())
	for _, to := range grouping.Recipients() {
		subject, body := r.Render(grouping.Tasks(to), notifyDate)
		payloads = append(payloads, Payload{To: to, Subject: subject, Body: body})
	}
	return payloads
}

// Trigger is the full per-tick decision: it gates on settings and the
// schedule, then assembles payloads for now's date. Absent or disabled
// settings and a closed schedule window all yield an empty slice; only
// a malformed daily time is an error.
func (r Ruleset) Trigger(settings *Settings, tasks []Task, userEmails []string, now time.Time, lastSent DateValue, allowRepeat bool) ([]Payload, error) {
	if settings == nil || !settings.Enabled {
		return []Payload{}, nil
	}
	due, err := ShouldSend(now, settings.DailyTime, lastSent, settings.DaysOfWeek, allowRepeat)
	if err != nil {
		return nil, err
	}
	if !due {
		return []Payload{}, nil
	}
	return r.PreparePayloads(tasks, userEmails, now), nil
}

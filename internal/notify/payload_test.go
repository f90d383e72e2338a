package notify

import (
	"strings"
	"testing"
	"time"
)

var jan1 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestRender(t *testing.T) {
	t.Parallel()
	rules := DefaultRuleset()
	tasks := []Task{
		{Title: "狀態更新", DueDate: "2024-12-31"},
		{},
	}
	subject, body := rules.Render(tasks, jan1)

	if !strings.Contains(subject, "2024-01-01") {
		t.Fatalf("subject %q misses the notify date", subject)
	}
	lines := strings.Split(body, "\n")
	if len(lines) != 6 {
		t.Fatalf("body has %d lines, want 6:\n%s", len(lines), body)
	}
	if !strings.Contains(lines[0], "2024-01-01") {
		t.Fatalf("greeting %q misses the notify date", lines[0])
	}
	if lines[1] != "" || lines[4] != "" {
		t.Fatalf("separator lines missing:\n%s", body)
	}
	if lines[2] != "- 狀態更新（預計完成：2024-12-31）" {
		t.Fatalf("item line = %q", lines[2])
	}
	if lines[3] != "- 未命名事項（預計完成：未設定）" {
		t.Fatalf("default item line = %q", lines[3])
	}
	if lines[5] != "此郵件為系統 On-going 通知，如有更新請至系統填寫。" {
		t.Fatalf("footer line = %q", lines[5])
	}
}

func TestPreparePayloads(t *testing.T) {
	t.Parallel()
	rules := DefaultRuleset()
	tasks := []Task{{Title: "狀態更新", Status: "On-going", Assignee: "alice", DueDate: "2024-12-31"}}

	payloads := rules.PreparePayloads(tasks, []string{"alice@x.com"}, jan1)
	if len(payloads) != 1 {
		t.Fatalf("got %d payloads, want 1", len(payloads))
	}
	p := payloads[0]
	if p.To != "alice@aivres.com" {
		t.Fatalf("To = %q", p.To)
	}
	if !strings.Contains(p.Subject, "2024-01-01") {
		t.Fatalf("Subject = %q", p.Subject)
	}
	if !strings.Contains(p.Body, "狀態更新") {
		t.Fatalf("Body misses the task title:\n%s", p.Body)
	}
}

func TestPreparePayloadsEmpty(t *testing.T) {
	t.Parallel()
	rules := DefaultRuleset()
	tasks := []Task{{Title: "已完成", Status: "Done", Assignee: "alice"}}
	payloads := rules.PreparePayloads(tasks, []string{"alice@x.com"}, jan1)
	if payloads == nil || len(payloads) != 0 {
		t.Fatalf("payloads = %#v, want empty slice", payloads)
	}
}

func TestTrigger(t *testing.T) {
	t.Parallel()
	rules := DefaultRuleset()
	tasks := []Task{{Title: "狀態更新", Status: "On-going", Assignee: "alice"}}
	registry := []string{"alice@aivres.com"}
	settings := &Settings{DailyTime: "09:00", Enabled: true}

	payloads, err := rules.Trigger(settings, tasks, registry, monday9, NoDate, false)
	if err != nil {
		t.Fatalf("Trigger error: %v", err)
	}
	if len(payloads) != 1 {
		t.Fatalf("got %d payloads, want 1", len(payloads))
	}

	// Disabled or absent settings short-circuit to empty.
	payloads, err = rules.Trigger(nil, tasks, registry, monday9, NoDate, false)
	if err != nil || len(payloads) != 0 {
		t.Fatalf("nil settings: payloads=%v err=%v", payloads, err)
	}
	payloads, err = rules.Trigger(&Settings{DailyTime: "09:00"}, tasks, registry, monday9, NoDate, false)
	if err != nil || len(payloads) != 0 {
		t.Fatalf("disabled settings: payloads=%v err=%v", payloads, err)
	}

	// Closed schedule window short-circuits to empty.
	payloads, err = rules.Trigger(settings, tasks, registry, monday9, DateOf(monday9), false)
	if err != nil || len(payloads) != 0 {
		t.Fatalf("same-day suppression: payloads=%v err=%v", payloads, err)
	}

	// Repeat-allow override bypasses same-day suppression.
	payloads, err = rules.Trigger(settings, tasks, registry, monday9, DateOf(monday9), true)
	if err != nil || len(payloads) != 1 {
		t.Fatalf("repeat override: payloads=%v err=%v", payloads, err)
	}

	// Malformed daily time is a hard error.
	if _, err = rules.Trigger(&Settings{DailyTime: "09:0", Enabled: true}, tasks, registry, monday9, NoDate, false); err == nil {
		t.Fatal("expected format error")
	}
}

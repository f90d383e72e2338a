package notify

import (
	"fmt"
	"strings"
	"time"
)

// Render formats the reminder email for one recipient's tasks.
// The subject embeds the ISO-8601 notify date; the body is the
// greeting, one item line per task in input order, a blank separator
// and the fixed footer.
func (r Ruleset) Render(tasks []Task, notifyDate time.Time) (subject, body string) {
	displayDate := notifyDate.Format("2006-01-02")
	subject = fmt.Sprintf(r.tmpl.Subject, displayDate)

	lines := make([]string, 0, len(tasks)+3)
	lines = append(lines, fmt.Sprintf(r.tmpl.Greeting, displayDate), "")
	for _, task := range tasks {
		title := task.Title
		if title == "" {
			title = r.tmpl.UntitledTitle
		}
		due := task.DueDate
		if due == "" {
			due = r.tmpl.UnsetDueDate
		}
		lines = append(lines, fmt.Sprintf(r.tmpl.Item, title, due))
	}
	lines = append(lines, "", r.tmpl.Footer)
	return subject, strings.Join(lines, "\n")
}

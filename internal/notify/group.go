package notify

// Grouping maps resolved recipient addresses to their in-progress
// tasks. Recipient order is first-encounter order over the task input,
// and each task list preserves input order; repeated calls over the
// same input produce the same ordering.
type Grouping struct {
	recipients []string
	tasks      map[string][]Task
}

func (g *Grouping) Recipients() []string { return g.recipients }

func (g *Grouping) Tasks(recipient string) []Task { return g.tasks[recipient] }

func (g *Grouping) Len() int { return len(g.recipients) }

// GroupOnGoing filters tasks down to in-progress ones with a
// resolvable assignee and groups them by resolved recipient. Tasks
// that are not in progress, or whose assignee is unknown, are skipped.
func (r Ruleset) GroupOnGoing(tasks []Task, userEmails []string) *Grouping {
	g := &Grouping{tasks: map[string][]Task{}}
	for _, task := range tasks {
		if !r.IsOnGoing(task.Status) {
			continue
		}
		to, ok := r.ResolveAssigneeEmail(task.Assignee, userEmails)
		if !ok {
			continue
		}
		if _, seen := g.tasks[to]; !seen {
			g.recipients = append(g.recipients, to)
		}
		g.tasks[to] = append(g.tasks[to], task)
	}
	return g
}

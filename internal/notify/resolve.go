package notify

import "strings"

// ExtractEmailPrefix returns the local part of an address, or the
// whole value when there is no "@". Whitespace is trimmed; an empty
// result reports ok=false.
func ExtractEmailPrefix(value string) (string, bool) {
	if value == "" {
		return "", false
	}
	prefix := value
	if i := strings.Index(value, "@"); i >= 0 {
		prefix = value[:i]
	}
	prefix = strings.TrimSpace(prefix)
	return prefix, prefix != ""
}

// ResolveAssigneeEmail maps an assignee (bare name or full address) to
// the canonical notification address. Only the prefix is trusted: it
// must match a registered user's prefix, and the configured domain is
// always substituted. Assignees carrying stale or external domains
// therefore still resolve to the canonical domain, and unknown
// prefixes resolve to nothing.
func (r Ruleset) ResolveAssigneeEmail(assignee string, userEmails []string) (string, bool) {
	prefix, ok := ExtractEmailPrefix(assignee)
	if !ok {
		return "", false
	}
	for _, email := range userEmails {
		if email == "" {
			continue
		}
		registered, ok := ExtractEmailPrefix(email)
		if ok && registered == prefix {
			return prefix + r.domain, true
		}
	}
	return "", false
}

package notify

import "strings"

// Default values match the production deployment; all of them are
// overridable through configuration so constant drift between builds
// stays visible in one place.
const (
	DefaultEmailDomain = "@aivres.com"

	defaultSubject  = "待辦更新提醒 (%s)"
	defaultGreeting = "您好，以下為 %s 仍在處理中的待辦事項，請協助更新進度："
	defaultItem     = "- %s（預計完成：%s）"
	defaultFooter   = "此郵件為系統 On-going 通知，如有更新請至系統填寫。"

	defaultUntitledTitle = "未命名事項"
	defaultUnsetDueDate  = "未設定"
)

// DefaultKeywords marks a status as in progress when it contains any
// of these, case-insensitively.
var DefaultKeywords = []string{"on-going", "ongoing", "進行"}

// Template is the reminder email wording. Subject and Greeting take
// the ISO notify date, Item takes title and due date (fmt verbs).
type Template struct {
	Subject  string
	Greeting string
	Item     string
	Footer   string

	UntitledTitle string
	UnsetDueDate  string
}

// Options configures a Ruleset. Zero fields fall back to the defaults
// above.
type Options struct {
	EmailDomain string
	Keywords    []string
	Template    Template
}

// Ruleset bundles the deployment constants of the reminder pipeline:
// the canonical notification domain, the in-progress keyword set and
// the email template. Construct with NewRuleset; the zero value works
// but matches nothing.
type Ruleset struct {
	domain   string
	keywords []string
	tmpl     Template
}

func NewRuleset(opts Options) Ruleset {
	r := Ruleset{
		domain:   strings.TrimSpace(opts.EmailDomain),
		keywords: make([]string, 0, len(opts.Keywords)),
		tmpl:     opts.Template,
	}
	if r.domain == "" {
		r.domain = DefaultEmailDomain
	}
	if !strings.HasPrefix(r.domain, "@") {
		r.domain = "@" + r.domain
	}
	for _, kw := range opts.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			r.keywords = append(r.keywords, kw)
		}
	}
	if len(r.keywords) == 0 {
		r.keywords = DefaultKeywords
	}
	if r.tmpl.Subject == "" {
		r.tmpl.Subject = defaultSubject
	}
	if r.tmpl.Greeting == "" {
		r.tmpl.Greeting = defaultGreeting
	}
	if r.tmpl.Item == "" {
		r.tmpl.Item = defaultItem
	}
	if r.tmpl.Footer == "" {
		r.tmpl.Footer = defaultFooter
	}
	if r.tmpl.UntitledTitle == "" {
		r.tmpl.UntitledTitle = defaultUntitledTitle
	}
	if r.tmpl.UnsetDueDate == "" {
		r.tmpl.UnsetDueDate = defaultUnsetDueDate
	}
	return r
}

// DefaultRuleset returns a Ruleset with all default constants.
func DefaultRuleset() Ruleset { return NewRuleset(Options{}) }

// EmailDomain returns the canonical notification domain, "@" included.
func (r Ruleset) EmailDomain() string { return r.domain }

// IsOnGoing reports whether a status text marks its task as still in
// progress. Empty or absent status never matches.
func (r Ruleset) IsOnGoing(status string) bool {
	normalized := strings.ToLower(strings.TrimSpace(status))
	if normalized == "" {
		return false
	}
	for _, kw := range r.keywords {
		if strings.Contains(normalized, kw) {
			return true
		}
	}
	return false
}

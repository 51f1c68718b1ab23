package dashboard

import "time"

// NoticeTTL is how long a notice stays visible unless dismissed.
const NoticeTTL = 6 * time.Second

// NoticeKind selects how a notice is rendered.
type NoticeKind int

// Notice kinds.
const (
	NoticeInfo NoticeKind = iota
	NoticeSuccess
	NoticeError
)

// Notice is a transient, dismissible message about an action result.
type Notice struct {
	Kind    NoticeKind
	Text    string
	Expires time.Time
}

// NewNotice returns a notice that expires NoticeTTL after now.
func NewNotice(kind NoticeKind, text string, now time.Time) Notice {
	return Notice{Kind: kind, Text: text, Expires: now.Add(NoticeTTL)}
}

// Live reports whether the notice should still be shown at now.
func (n Notice) Live(now time.Time) bool {
	return n.Text != "" && now.Before(n.Expires)
}

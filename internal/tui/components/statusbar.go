package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/adrec/internal/tui/theme"
)

// NoticeLevel selects the color of the status bar notice.
type NoticeLevel int

// Notice levels.
const (
	LevelInfo NoticeLevel = iota
	LevelSuccess
	LevelError
)

// Status is what the bottom bar shows.
type Status struct {
	Notice      string
	NoticeLevel NoticeLevel
	Refreshing  bool
	DataAge     string // "fetched 3m ago"
	NextRefresh string // empty when auto-refresh is off
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, st Status) string {
	t := theme.Active

	base := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)

	left := base.Render(" ") + keyStyle.Render("?") + base.Render(" help  ") +
		keyStyle.Render("r") + base.Render(" refresh  ") +
		keyStyle.Render("q") + base.Render(" quit")

	if st.Notice != "" {
		color := t.AccentBright
		switch st.NoticeLevel {
		case LevelSuccess:
			color = t.GreenBright
		case LevelError:
			color = t.Red
		}
		noticeStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
		left += base.Render("   ") + noticeStyle.Render(st.Notice)
	}

	var rightParts []string
	if st.Refreshing {
		rightParts = append(rightParts, "refreshing…")
	} else if st.DataAge != "" {
		rightParts = append(rightParts, st.DataAge)
	}
	if st.NextRefresh != "" {
		rightParts = append(rightParts, "next "+st.NextRefresh)
	}
	right := base.Render(strings.Join(rightParts, " · ") + " ")

	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 0 {
		// Drop the right side before the notice.
		padding = width - lipgloss.Width(left)
		right = ""
		if padding < 0 {
			padding = 0
		}
	}

	bar := left + base.Render(strings.Repeat(" ", padding)) + right
	return lipgloss.NewStyle().Background(t.Surface).MaxWidth(width).Render(bar)
}

package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/adrec/internal/tui/theme"
)

// ColorForPriority returns red for the most urgent levels fading to green.
func ColorForPriority(p int) lipgloss.Color {
	t := theme.Active
	switch {
	case p <= 0:
		return t.TextMuted
	case p == 1:
		return t.Red
	case p == 2:
		return t.Orange
	case p == 3:
		return t.Yellow
	default:
		return t.Green
	}
}

// ShareBar renders a labeled bar for count out of total.
func ShareBar(label string, count, total int, color lipgloss.Color, labelW, barWidth int) string {
	t := theme.Active

	pct := 0.0
	if total > 0 {
		pct = float64(count) / float64(total)
	}
	if pct > 1 {
		pct = 1
	}

	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(barWidth),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	countStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Bold(true)
	pctStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	return labelStyle.Render(fmt.Sprintf("%-*s", labelW, label)) +
		spaceStyle.Render(" ") +
		bar.ViewAs(pct) +
		spaceStyle.Render(" ") +
		countStyle.Render(fmt.Sprintf("%4d", count)) +
		pctStyle.Render(fmt.Sprintf(" %3.0f%%", pct*100))
}

// BudgetGauge shows the budget counter against the recommended value on a
// 0..2x scale so both directions are visible.
func BudgetGauge(counter, initial, width int) string {
	t := theme.Active

	scale := initial * 2
	if scale < 10 {
		scale = 10
	}
	pct := float64(counter) / float64(scale)
	if pct < 0 {
		pct = 0
	}
	if pct > 1 {
		pct = 1
	}

	color := t.Accent
	switch {
	case counter > initial:
		color = t.GreenBright
	case counter < initial:
		color = t.Orange
	}

	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)
	return bar.ViewAs(pct)
}

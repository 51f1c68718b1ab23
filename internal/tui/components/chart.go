package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/adrec/internal/tui/theme"
)

// Segment is one slice of a StackedBar.
type Segment struct {
	Label string
	Value int
	Color lipgloss.Color
}

// StackedBar renders segments proportionally across width cells, followed
// by a legend line. Segments with a zero value are skipped; every non-zero
// segment gets at least one cell.
func StackedBar(segments []Segment, width int) string {
	t := theme.Active

	var nonZero []Segment
	total := 0
	for _, s := range segments {
		if s.Value > 0 {
			nonZero = append(nonZero, s)
			total += s.Value
		}
	}
	if total == 0 || width <= 0 {
		return lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render("no data")
	}

	cells := allocateCells(nonZero, total, width)

	var bar strings.Builder
	for i, s := range nonZero {
		style := lipgloss.NewStyle().Foreground(s.Color).Background(t.Surface)
		bar.WriteString(style.Render(strings.Repeat("█", cells[i])))
	}

	space := lipgloss.NewStyle().Background(t.Surface)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	var legend strings.Builder
	for i, s := range nonZero {
		if i > 0 {
			legend.WriteString(space.Render("  "))
		}
		dot := lipgloss.NewStyle().Foreground(s.Color).Background(t.Surface).Render("■")
		legend.WriteString(dot + muted.Render(fmt.Sprintf(" %s %d", s.Label, s.Value)))
	}

	return bar.String() + "\n" + lipgloss.NewStyle().Background(t.Surface).Width(width).Render(legend.String())
}

// allocateCells splits width by largest remainder, with a floor of one cell.
func allocateCells(segs []Segment, total, width int) []int {
	cells := make([]int, len(segs))
	if width < len(segs) {
		for i := 0; i < width; i++ {
			cells[i] = 1
		}
		return cells
	}

	used := 0
	rems := make([]float64, len(segs))
	for i, s := range segs {
		exact := float64(s.Value) * float64(width) / float64(total)
		cells[i] = int(exact)
		if cells[i] < 1 {
			cells[i] = 1
		}
		rems[i] = exact - float64(int(exact))
		used += cells[i]
	}

	for used < width {
		best := 0
		for i := range rems {
			if rems[i] > rems[best] {
				best = i
			}
		}
		cells[best]++
		rems[best] = -1
		used++
		if allNegative(rems) {
			for i := range rems {
				rems[i] = 0
			}
		}
	}
	for used > width {
		big := 0
		for i := range cells {
			if cells[i] > cells[big] {
				big = i
			}
		}
		cells[big]--
		used--
	}
	return cells
}

func allNegative(v []float64) bool {
	for _, x := range v {
		if x >= 0 {
			return false
		}
	}
	return true
}

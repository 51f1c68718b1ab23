package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/adrec/internal/cli"
	"github.com/theirongolddev/adrec/internal/dashboard"
	"github.com/theirongolddev/adrec/internal/model"
	"github.com/theirongolddev/adrec/internal/pipeline"
	"github.com/theirongolddev/adrec/internal/tui/components"
	"github.com/theirongolddev/adrec/internal/tui/theme"
)

const (
	urgentListSize    = 6
	breakdownListSize = 5
)

func (a App) renderOverviewTab(cw int) string {
	t := theme.Active
	snap := a.state.Snapshot()
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	if snap.Empty() {
		return components.ContentCard("Overview",
			muted.Render(fmt.Sprintf("No campaign data for the last %dh.", a.cfg.Service.HoursBack)), cw)
	}

	s := snap.Summary
	var b strings.Builder

	// Row 1: money
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Cost", Value: cli.FormatCost(s.TotalCost)},
		{Label: "Revenue", Value: cli.FormatCost(s.TotalRevenue)},
		{Label: "Profit", Value: cli.FormatCost(s.TotalProfit), Color: t.ForAmount(s.TotalProfit)},
		{Label: "Avg ROI", Value: cli.FormatPoints(s.AverageROI), Color: t.ForAmount(s.AverageROI)},
	}, cw))
	b.WriteString("\n")

	// Row 2: volume
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Campaigns", Value: cli.FormatNumber(int64(len(snap.Campaigns)))},
		{Label: "Adsets", Value: cli.FormatNumber(int64(snap.AdsetCount()))},
		{Label: "Clicks", Value: cli.FormatNumber(s.TotalClicks)},
		{Label: "Conversions", Value: cli.FormatNumber(s.TotalConversions),
			Delta: cli.FormatPercent(s.AverageConversionRate) + " avg rate"},
	}, cw))
	b.WriteString("\n")

	// Row 3: recommendation mix + priority distribution
	halves := components.LayoutRow(cw, 2)
	mix := components.ContentCard("Recommendations", a.renderRecommendationMix(snap, components.CardInnerWidth(halves[0])), halves[0])
	prio := components.ContentCard("Priority (1 = most urgent)", renderPriorities(s, components.CardInnerWidth(halves[1])), halves[1])
	b.WriteString(components.CardRow([]string{mix, prio}))
	b.WriteString("\n")

	// Row 4: most urgent adsets
	b.WriteString(components.ContentCard("Most urgent", renderUrgent(snap, components.CardInnerWidth(cw)), cw))
	b.WriteString("\n")

	// Row 5: cost by country + CPC tier, under the current filter
	country := components.ContentCard("By country", a.renderBreakdown(snap, pipeline.ByCountry, components.CardInnerWidth(halves[0])), halves[0])
	cpc := components.ContentCard("By CPC tier", a.renderBreakdown(snap, pipeline.ByCPCTier, components.CardInnerWidth(halves[1])), halves[1])
	b.WriteString(components.CardRow([]string{country, cpc}))

	return b.String()
}

func (a App) renderRecommendationMix(snap *model.Snapshot, w int) string {
	t := theme.Active
	counts := dashboard.FilterCounts(snap)

	var segs []components.Segment
	known := 0
	for _, r := range model.Recommendations {
		if counts[r] == 0 {
			continue
		}
		known += counts[r]
		segs = append(segs, components.Segment{Label: r.Label(), Value: counts[r], Color: t.ForRecommendation(r)})
	}
	if other := snap.AdsetCount() - known; other > 0 {
		segs = append(segs, components.Segment{Label: "OTHER", Value: other, Color: t.TextMuted})
	}
	return components.StackedBar(segs, w)
}

func renderPriorities(s model.Summary, w int) string {
	t := theme.Active
	prios := s.Priorities()
	if len(prios) == 0 {
		return lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render("no priorities reported")
	}

	total := 0
	for _, p := range prios {
		total += p.Count
	}

	barW := w - 4 - 2 - 10
	if barW < 6 {
		barW = 6
	}

	lines := make([]string, 0, len(prios))
	for _, p := range prios {
		lines = append(lines, components.ShareBar(fmt.Sprintf("P%d", p.Priority), p.Count, total,
			components.ColorForPriority(p.Priority), 4, barW))
	}
	return strings.Join(lines, "\n")
}

// renderUrgent lists the lowest-priority adsets across all campaigns.
func renderUrgent(snap *model.Snapshot, w int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	text := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	type entry struct {
		adset    model.Adset
		campaign string
	}
	var all []entry
	for _, c := range snap.Campaigns {
		for _, ad := range c.Adsets {
			if ad.Priority > 0 {
				all = append(all, entry{adset: ad, campaign: c.Name})
			}
		}
	}
	if len(all) == 0 {
		return muted.Render("No prioritized adsets.")
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].adset.Priority < all[j].adset.Priority })
	if len(all) > urgentListSize {
		all = all[:urgentListSize]
	}

	nameW := (w - 4 - 20 - 12) / 2
	if nameW < 10 {
		nameW = 10
	}

	lines := make([]string, 0, len(all))
	for _, e := range all {
		rec := lipgloss.NewStyle().Foreground(t.ForRecommendation(e.adset.Recommendation)).Background(t.Surface)
		prio := lipgloss.NewStyle().Foreground(components.ColorForPriority(e.adset.Priority)).Background(t.Surface).Bold(true)
		lines = append(lines,
			prio.Render(fmt.Sprintf("P%-3d", e.adset.Priority))+
				text.Render(padRight(cli.Truncate(e.adset.Name, nameW), nameW))+
				muted.Render(" "+padRight(cli.Truncate(e.campaign, nameW), nameW))+
				rec.Render(" "+padRight(cli.Truncate(e.adset.Recommendation.Label(), 19), 19))+
				muted.Render(padLeft(cli.FormatCost(e.adset.Profit), 12)))
	}
	return strings.Join(lines, "\n")
}

// renderBreakdown lists the largest-cost groups of dim with their profit and ROI.
func (a App) renderBreakdown(snap *model.Snapshot, dim pipeline.Dimension, w int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	text := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	groups := pipeline.Aggregate(snap, dim, a.state.Filter)
	if len(groups) == 0 {
		return muted.Render("No adsets match " + a.state.Filter.Label() + ".")
	}
	if len(groups) > breakdownListSize {
		groups = groups[:breakdownListSize]
	}

	keyW := w - 12 - 12 - 10
	if keyW < 8 {
		keyW = 8
	}

	lines := make([]string, 0, len(groups))
	for _, g := range groups {
		profit := lipgloss.NewStyle().Foreground(t.ForAmount(g.Profit)).Background(t.Surface)
		lines = append(lines,
			text.Render(padRight(cli.Truncate(g.Key, keyW), keyW))+
				muted.Render(padLeft(cli.FormatCost(g.Cost), 12))+
				profit.Render(padLeft(cli.FormatCost(g.Profit), 12))+
				muted.Render(padLeft(cli.FormatPoints(g.ROI), 10)))
	}
	return strings.Join(lines, "\n")
}

package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/adrec/internal/cli"
	"github.com/theirongolddev/adrec/internal/dashboard"
	"github.com/theirongolddev/adrec/internal/model"
	"github.com/theirongolddev/adrec/internal/tui/components"
	"github.com/theirongolddev/adrec/internal/tui/theme"
)

// campaignsState holds the campaigns tab cursor into the flattened row list.
type campaignsState struct {
	cursor int
	offset int
}

type rowKind int

const (
	rowCampaign rowKind = iota
	rowAdset
)

type listRow struct {
	kind     rowKind
	campaign model.Campaign
	adset    model.Adset
}

// campaignRows flattens the visible campaigns and their open adsets.
func (a App) campaignRows() []listRow {
	var rows []listRow
	for _, c := range a.state.Visible() {
		rows = append(rows, listRow{kind: rowCampaign, campaign: c})
		if !a.state.Expansion.IsOpen(c.ID) {
			continue
		}
		for _, ad := range c.Adsets {
			rows = append(rows, listRow{kind: rowAdset, campaign: c, adset: ad})
		}
	}
	return rows
}

func (a App) selectedRow() (listRow, bool) {
	rows := a.campaignRows()
	if a.camp.cursor < 0 || a.camp.cursor >= len(rows) {
		return listRow{}, false
	}
	return rows[a.camp.cursor], true
}

func (a *App) moveCursor(delta int) {
	n := len(a.campaignRows())
	a.camp.cursor += delta
	if a.camp.cursor >= n {
		a.camp.cursor = n - 1
	}
	if a.camp.cursor < 0 {
		a.camp.cursor = 0
	}
}

func (a *App) clampCursor() {
	a.moveCursor(0)
}

// focusCampaign moves the cursor to the campaign row with id, if visible.
func (a *App) focusCampaign(id string) {
	for i, r := range a.campaignRows() {
		if r.kind == rowCampaign && r.campaign.ID == id {
			a.camp.cursor = i
			return
		}
	}
	a.clampCursor()
}

// updateCampaignsKey handles campaigns tab keys. handled is false for keys
// that fall through to the global bindings.
func (a App) updateCampaignsKey(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "j", "down":
		a.moveCursor(1)
	case "k", "up":
		a.moveCursor(-1)
	case "g":
		a.camp.cursor = 0
		a.camp.offset = 0
	case "G":
		a.camp.cursor = len(a.campaignRows()) - 1
		a.clampCursor()
	case "enter", " ":
		row, ok := a.selectedRow()
		if !ok {
			return a, nil, true
		}
		a.state.Expansion.Toggle(row.campaign.ID)
		a.focusCampaign(row.campaign.ID)
	case "a":
		a.state.Expansion.ExpandAll(a.state.Visible())
		a.keepFocus()
	case "A":
		a.state.Expansion.CollapseAll()
		a.keepFocus()
	case "f", "F":
		focus, _ := a.selectedRow()
		if key == "f" {
			a.state.SetFilter(a.state.Filter.Next())
		} else {
			a.state.SetFilter(a.state.Filter.Prev())
		}
		a.focusCampaign(focus.campaign.ID)
	case "s":
		focus, _ := a.selectedRow()
		a.state.SortUrgent = !a.state.SortUrgent
		a.focusCampaign(focus.campaign.ID)
	case "b":
		row, ok := a.selectedRow()
		if !ok {
			return a, nil, true
		}
		return a.openBudget(row.campaign), nil, true
	case "p":
		row, ok := a.selectedRow()
		if !ok || row.kind != rowAdset {
			a.state.SetNotice(dashboard.NoticeInfo, "Select an adset row to pause", a.now())
			return a, nil, true
		}
		m, cmd := a.startPause(row.adset, row.campaign)
		return m, cmd, true
	default:
		return a, nil, false
	}
	return a, nil, true
}

// keepFocus moves the cursor to the campaign of the current row.
func (a *App) keepFocus() {
	rows := a.campaignRows()
	if a.camp.cursor >= 0 && a.camp.cursor < len(rows) {
		a.focusCampaign(rows[a.camp.cursor].campaign.ID)
	}
}

func (a App) renderCampaignsTab(cw, h int) string {
	t := theme.Active
	snap := a.state.Snapshot()
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	// An open modal owns the keyboard and is drawn even with no rows.
	rows := a.campaignRows()
	if a.isCompactLayout() || len(rows) == 0 {
		if modal := a.renderModal(cw); modal != "" {
			return modal
		}
	}

	if snap.Empty() {
		return components.ContentCard("Campaigns", muted.Render("No campaign data for this window."), cw)
	}
	if len(rows) == 0 {
		return components.ContentCard("Campaigns",
			muted.Render(fmt.Sprintf("No adsets match filter %s. Press f to change it.", a.state.Filter.Label())), cw)
	}

	if a.isCompactLayout() {
		return a.renderCampaignList(rows, cw, h)
	}

	leftW := cw * 11 / 20
	rightW := cw - leftW

	left := a.renderCampaignList(rows, leftW, h)
	right := a.renderModal(rightW)
	if right == "" {
		idx := a.camp.cursor
		if idx >= len(rows) {
			idx = len(rows) - 1
		}
		if idx < 0 {
			idx = 0
		}
		right = a.renderRowDetail(rows[idx], rightW)
	}
	return components.CardRow([]string{left, right})
}

func (a App) renderCampaignList(rows []listRow, w, h int) string {
	t := theme.Active
	inner := components.CardInnerWidth(w)

	visible := h - 3 // border (2) + title (1)
	if visible < 3 {
		visible = 3
	}

	offset := a.camp.offset
	if a.camp.cursor < offset {
		offset = a.camp.cursor
	}
	if a.camp.cursor >= offset+visible {
		offset = a.camp.cursor - visible + 1
	}
	end := offset + visible
	if end > len(rows) {
		end = len(rows)
	}

	var body strings.Builder
	for i := offset; i < end; i++ {
		bg := t.Surface
		if i == a.camp.cursor {
			bg = t.SurfaceBright
		}
		body.WriteString(a.renderListRow(rows[i], inner, bg))
		if i < end-1 {
			body.WriteString("\n")
		}
	}

	title := fmt.Sprintf("Campaigns [%d]", countCampaigns(rows))
	return components.ContentCard(title, body.String(), w)
}

func countCampaigns(rows []listRow) int {
	n := 0
	for _, r := range rows {
		if r.kind == rowCampaign {
			n++
		}
	}
	return n
}

// renderListRow draws one row padded to width w on background bg.
func (a App) renderListRow(r listRow, w int, bg lipgloss.Color) string {
	t := theme.Active
	text := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(bg)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(bg)

	const recW = 18
	const costW = 11

	var lead, name, rec, right string
	var recColor lipgloss.Color
	if r.kind == rowCampaign {
		lead = "▸ "
		if a.state.Expansion.IsOpen(r.campaign.ID) {
			lead = "▾ "
		}
		name = r.campaign.Name
		rec = r.campaign.Recommendation.Label()
		if r.campaign.HasBudgetAction() {
			rec = fmt.Sprintf("%s %+d%%", rec, r.campaign.RecommendationPercentage)
		}
		recColor = t.ForRecommendation(r.campaign.Recommendation)
		right = cli.FormatCost(r.campaign.TotalProfit)
	} else {
		lead = "    "
		name = r.adset.Name
		rec = r.adset.Recommendation.Label()
		if r.adset.Priority > 0 {
			rec = fmt.Sprintf("P%d %s", r.adset.Priority, rec)
		}
		recColor = t.ForRecommendation(r.adset.Recommendation)
		right = cli.FormatCost(r.adset.Profit)
	}

	nameW := w - lipgloss.Width(lead) - recW - costW - 2
	if nameW < 8 {
		nameW = 8
	}

	nameStyle := text
	if r.kind == rowCampaign {
		nameStyle = nameStyle.Bold(true)
	}
	recStyle := lipgloss.NewStyle().Foreground(recColor).Background(bg)
	amountStyle := lipgloss.NewStyle().Foreground(t.ForAmount(profitOf(r))).Background(bg)

	line := muted.Render(lead) +
		nameStyle.Render(padRight(cli.Truncate(name, nameW), nameW)) +
		muted.Render(" ") +
		recStyle.Render(padRight(cli.Truncate(rec, recW), recW)) +
		muted.Render(" ") +
		amountStyle.Render(padLeft(right, costW))

	if gap := w - lipgloss.Width(line); gap > 0 {
		line += muted.Render(strings.Repeat(" ", gap))
	}
	return line
}

func profitOf(r listRow) float64 {
	if r.kind == rowAdset {
		return r.adset.Profit
	}
	return r.campaign.TotalProfit
}

func (a App) renderRowDetail(r listRow, w int) string {
	if r.kind == rowAdset {
		return a.renderAdsetDetail(r.adset, r.campaign, w)
	}
	return a.renderCampaignDetail(r.campaign, w)
}

func (a App) renderCampaignDetail(c model.Campaign, w int) string {
	t := theme.Active
	inner := components.CardInnerWidth(w)
	label := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	value := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	hint := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)
	rec := lipgloss.NewStyle().Foreground(t.ForRecommendation(c.Recommendation)).Background(t.Surface).Bold(true)

	var b strings.Builder
	field := func(name, v string) {
		b.WriteString(label.Render(fmt.Sprintf("%-16s", name)))
		b.WriteString(value.Render(v))
		b.WriteString("\n")
	}

	b.WriteString(rec.Render(c.Recommendation.Label()))
	if c.HasBudgetAction() {
		b.WriteString(value.Render(fmt.Sprintf("  %+d%%", c.RecommendationPercentage)))
	}
	b.WriteString("\n\n")

	field("Key", c.ExternalKey)
	if c.Day != "" {
		field("Day", c.Day)
	}
	if c.Geo != "" || c.Country != "" {
		field("Geo", strings.TrimSpace(c.Geo+" "+c.Country))
	}
	b.WriteString("\n")
	field("Cost", cli.FormatCost(c.TotalCost))
	field("Revenue", cli.FormatCost(c.TotalRevenue))
	field("Profit", cli.FormatCost(c.TotalProfit))
	field("Clicks", cli.FormatNumber(c.TotalClicks))
	field("CPC", cli.FormatCPC(c.TotalCPC))
	field("ROI", cli.FormatPoints(c.TotalROI))
	field("Conv. rate", cli.FormatPercent(c.TotalConversionRate))
	field("Adsets", fmt.Sprintf("%d shown", len(c.Adsets)))

	b.WriteString("\n")
	if c.HasBudgetAction() {
		b.WriteString(hint.Render("b adjust budget"))
		b.WriteString(label.Render("  ·  "))
	}
	b.WriteString(hint.Render("enter expand/collapse"))

	return components.ContentCard(cli.Truncate(c.Name, inner), b.String(), w)
}

func (a App) renderAdsetDetail(ad model.Adset, c model.Campaign, w int) string {
	t := theme.Active
	inner := components.CardInnerWidth(w)
	label := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	value := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	hint := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)
	rec := lipgloss.NewStyle().Foreground(t.ForRecommendation(ad.Recommendation)).Background(t.Surface).Bold(true)
	wrap := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Width(inner)

	var b strings.Builder
	field := func(name, v string) {
		b.WriteString(label.Render(fmt.Sprintf("%-16s", name)))
		b.WriteString(value.Render(v))
		b.WriteString("\n")
	}

	b.WriteString(rec.Render(ad.Recommendation.Label()))
	if ad.Priority > 0 {
		b.WriteString(value.Render(fmt.Sprintf("  priority %d", ad.Priority)))
	}
	b.WriteString("\n\n")

	field("ID", ad.ID)
	field("Campaign", cli.Truncate(c.Name, inner-16))
	if ad.Geo != "" || ad.Country != "" {
		field("Geo", strings.TrimSpace(ad.Geo+" "+ad.Country))
	}
	b.WriteString("\n")
	field("Cost", cli.FormatCost(ad.Cost))
	field("Revenue", cli.FormatCost(ad.Revenue))
	field("Profit", cli.FormatCost(ad.Profit))
	field("Clicks", cli.FormatNumber(ad.Clicks))
	cpc := cli.FormatCPC(ad.CPC)
	if ad.CPCRate != "" {
		cpc += " (" + strings.ToLower(string(ad.CPCRate)) + ")"
	}
	field("CPC", cpc)
	field("ROI", cli.FormatPoints(ad.ROIConfirmed))
	field("Conv. rate", cli.FormatPercent(ad.ConversionRate))

	if ad.Reason != "" {
		b.WriteString("\n")
		b.WriteString(label.Render("Reason"))
		b.WriteString("\n")
		b.WriteString(wrap.Render(ad.Reason))
		b.WriteString("\n")
	}
	if ad.Suggestion != "" {
		b.WriteString("\n")
		b.WriteString(label.Render("Suggestion"))
		b.WriteString("\n")
		b.WriteString(wrap.Render(ad.Suggestion))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(hint.Render("p pause adset"))

	return components.ContentCard(cli.Truncate(ad.Name, inner), b.String(), w)
}

func padRight(s string, w int) string {
	if gap := w - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

func padLeft(s string, w int) string {
	if gap := w - lipgloss.Width(s); gap > 0 {
		return strings.Repeat(" ", gap) + s
	}
	return s
}

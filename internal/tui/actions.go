package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/adrec/internal/cli"
	"github.com/theirongolddev/adrec/internal/dashboard"
	"github.com/theirongolddev/adrec/internal/model"
	"github.com/theirongolddev/adrec/internal/store"
	"github.com/theirongolddev/adrec/internal/tui/components"
	"github.com/theirongolddev/adrec/internal/tui/theme"
)

var errNoBackend = errors.New("no backend configured")

// ─── Budget ─────────────────────────────────────────────────────

func (a App) openBudget(c model.Campaign) App {
	if _, err := a.state.OpenBudget(c.ID); err != nil {
		msg := fmt.Sprintf("%s has no budget action (%s)", c.Name, c.Recommendation.Label())
		if !errors.Is(err, dashboard.ErrNoBudgetAction) {
			msg = err.Error()
		}
		a.state.SetNotice(dashboard.NoticeInfo, msg, a.now())
		return a
	}
	a.budgetEditing = false
	return a
}

func (a App) updateBudget(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.budgetEditing {
		return a.updateBudgetInput(msg)
	}

	wf := a.state.Budget
	switch msg.String() {
	case "esc", "q":
		a.state.CloseBudget()
	case "+", "=", "k", "up", "right":
		wf.Increment()
	case "-", "j", "down", "left":
		wf.Decrement()
	case "0":
		wf.SetCounter(wf.Initial())
	case "e":
		ti := textinput.New()
		ti.CharLimit = 6
		ti.Width = 8
		ti.Placeholder = strconv.Itoa(wf.Counter())
		ti.SetValue(strconv.Itoa(wf.Counter()))
		ti.Focus()
		a.budgetInput = ti
		a.budgetEditing = true
		return a, ti.Cursor.BlinkCmd()
	case "i":
		return a.submitBudget(dashboard.Increase)
	case "d":
		return a.submitBudget(dashboard.Decrease)
	}
	return a, nil
}

func (a App) updateBudgetInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		n, err := strconv.Atoi(strings.TrimSpace(a.budgetInput.Value()))
		if err != nil {
			a.state.SetNotice(dashboard.NoticeError, "Count must be a whole number", a.now())
			return a, nil
		}
		a.state.Budget.SetCounter(n)
		a.budgetEditing = false
		return a, nil
	case "esc":
		a.budgetEditing = false
		return a, nil
	}

	var cmd tea.Cmd
	a.budgetInput, cmd = a.budgetInput.Update(msg)
	return a, cmd
}

// submitBudget fires the budget command and closes the modal. The outcome
// arrives as a BudgetResultMsg; the snapshot is left as is.
func (a App) submitBudget(d dashboard.Direction) (tea.Model, tea.Cmd) {
	wf := a.state.Budget
	multiplier, err := wf.Submission(d)
	if err != nil {
		a.state.SetNotice(dashboard.NoticeError, fmt.Sprintf("%s is not offered at count %d", d, wf.Counter()), a.now())
		return a, nil
	}

	a.state.CloseBudget()
	a.state.SetNotice(dashboard.NoticeInfo,
		fmt.Sprintf("Sending budget %s for %s...", cli.FormatMultiplier(multiplier), wf.CampaignName), a.now())
	return a, a.budgetCmd(wf, multiplier)
}

func (a App) budgetCmd(wf *dashboard.BudgetWorkflow, multiplier float64) tea.Cmd {
	backend, actions, log := a.backend, a.actions, a.log
	key, name, counter := wf.CampaignKey, wf.CampaignName, wf.Counter()
	return func() tea.Msg {
		var err error
		if backend == nil {
			err = errNoBackend
		} else {
			err = backend.SubmitBudget(context.Background(), key, multiplier)
		}
		act := store.Action{
			Kind:       store.KindBudget,
			Target:     key,
			Label:      name,
			Counter:    counter,
			Multiplier: multiplier,
			Status:     store.StatusSent,
			CreatedAt:  time.Now(),
		}
		if err != nil {
			act.Status = store.StatusFailed
			act.Error = err.Error()
		}
		recordAction(actions, log, act)
		return BudgetResultMsg{Campaign: name, Multiplier: multiplier, Err: err}
	}
}

func (a App) renderBudgetModal(w int) string {
	t := theme.Active
	wf := a.state.Budget
	inner := components.CardInnerWidth(w)

	label := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	value := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	offStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface)

	var b strings.Builder
	b.WriteString(label.Render("Campaign     "))
	b.WriteString(value.Render(cli.Truncate(wf.CampaignName, inner-13)))
	b.WriteString("\n")
	b.WriteString(label.Render("Key          "))
	b.WriteString(value.Render(wf.CampaignKey))
	b.WriteString("\n")
	b.WriteString(label.Render("Recommended  "))
	b.WriteString(value.Render(fmt.Sprintf("%+d%%", wf.Initial())))
	b.WriteString("\n\n")

	b.WriteString(label.Render("Count        "))
	if a.budgetEditing {
		b.WriteString(a.budgetInput.View())
	} else {
		gaugeW := inner - 13 - 6
		if gaugeW > 30 {
			gaugeW = 30
		}
		if gaugeW < 8 {
			gaugeW = 8
		}
		b.WriteString(components.BudgetGauge(wf.Counter(), wf.Initial(), gaugeW))
		b.WriteString(space.Render(" "))
		b.WriteString(value.Render(fmt.Sprintf("%d", wf.Counter())))
	}
	b.WriteString("\n\n")

	for _, d := range []dashboard.Direction{dashboard.Increase, dashboard.Decrease} {
		key := "i"
		if d == dashboard.Decrease {
			key = "d"
		}
		line := fmt.Sprintf("%-9s %s", d.String(), cli.FormatMultiplier(wf.Multiplier(d)))
		if wf.Offered(d) {
			b.WriteString(keyStyle.Render(key))
			b.WriteString(space.Render("  "))
			b.WriteString(value.Render(line))
		} else {
			b.WriteString(offStyle.Render(key + "  " + line + "  not offered"))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(label.Render("+/- adjust  e edit  0 reset  esc close"))

	return components.FocusCard("Adjust budget", b.String(), w)
}

// ─── Pause ──────────────────────────────────────────────────────

// startPause selects the adset in the guard and opens the confirmation.
// No command is sent until the operator confirms.
func (a App) startPause(ad model.Adset, c model.Campaign) (App, tea.Cmd) {
	if !a.state.Pause.Select(ad.ID) {
		a.state.SetNotice(dashboard.NoticeInfo, "A pause is already being sent", a.now())
		return a, nil
	}

	a.pauseLabel = fmt.Sprintf("%s (%s)", ad.Name, ad.ID)
	answer := false
	a.pauseAnswer = &answer

	desc := fmt.Sprintf("Campaign %s\nRecommendation %s · cost %s · profit %s",
		c.Name, ad.Recommendation.Label(), cli.FormatCost(ad.Cost), cli.FormatCost(ad.Profit))
	if ad.Reason != "" {
		desc += "\n" + ad.Reason
	}
	desc += "\n\nThis cannot be undone from adrec."

	a.pauseForm = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Pause adset " + a.pauseLabel + "?").
				Description(desc).
				Affirmative("Pause").
				Negative("Cancel").
				Value(a.pauseAnswer),
		),
	).WithShowHelp(false)
	return a, a.pauseForm.Init()
}

func (a App) updatePauseForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		return a.resolvePause(false)
	}

	form, cmd := a.pauseForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.pauseForm = f
	}

	switch a.pauseForm.State {
	case huh.StateCompleted:
		return a.resolvePause(*a.pauseAnswer)
	case huh.StateAborted:
		return a.resolvePause(false)
	}
	return a, cmd
}

// resolvePause closes the confirmation. Only a confirmed, pending guard
// produces a pause command.
func (a App) resolvePause(confirmed bool) (App, tea.Cmd) {
	a.pauseForm = nil
	a.pauseAnswer = nil

	if !confirmed {
		a.state.Pause.Cancel()
		a.state.SetNotice(dashboard.NoticeInfo, "Pause cancelled", a.now())
		return a, nil
	}

	id, ok := a.state.Pause.Confirm()
	if !ok {
		return a, nil
	}
	a.state.SetNotice(dashboard.NoticeInfo, "Pausing "+a.pauseLabel+"...", a.now())
	return a, a.pauseCmd(id, a.pauseLabel)
}

func (a App) pauseCmd(id, label string) tea.Cmd {
	backend, actions, log := a.backend, a.actions, a.log
	return func() tea.Msg {
		var err error
		if backend == nil {
			err = errNoBackend
		} else {
			err = backend.PauseAdset(context.Background(), id)
		}
		act := store.Action{
			Kind:      store.KindPause,
			Target:    id,
			Label:     label,
			Status:    store.StatusSent,
			CreatedAt: time.Now(),
		}
		if err != nil {
			act.Status = store.StatusFailed
			act.Error = err.Error()
		}
		recordAction(actions, log, act)
		return PauseResultMsg{AdsetID: id, Label: label, Err: err}
	}
}

// renderModal returns the budget or pause card, or "" when neither is open.
func (a App) renderModal(w int) string {
	switch {
	case a.pauseForm != nil:
		return components.FocusCard("Confirm pause", a.pauseForm.WithWidth(components.CardInnerWidth(w)).View(), w)
	case a.state.Budget != nil:
		return a.renderBudgetModal(w)
	}
	return ""
}

package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/theirongolddev/adrec/internal/cli"
	"github.com/theirongolddev/adrec/internal/config"
	"github.com/theirongolddev/adrec/internal/tui/components"
	"github.com/theirongolddev/adrec/internal/tui/theme"
)

const (
	settingsFieldRecommendationsURL = iota
	settingsFieldBudgetURL
	settingsFieldPauseURL
	settingsFieldHoursBack
	settingsFieldAutoRefresh
	settingsFieldRefreshHours
	settingsFieldExpandCount
	settingsFieldTheme
	settingsFieldCount // sentinel
)

// settingsState tracks the settings tab state.
type settingsState struct {
	cursor  int
	editing bool
	input   textinput.Model
	saved   bool
	saveErr error
}

func newSettingsInput() textinput.Model {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 60
	return ti
}

func (a App) settingsStartEdit() (tea.Model, tea.Cmd) {
	a.settings.editing = true
	a.settings.saved = false
	a.settings.saveErr = nil

	ti := newSettingsInput()
	cfg := a.cfg

	switch a.settings.cursor {
	case settingsFieldRecommendationsURL:
		ti.Placeholder = config.DefaultRecommendationsURL
		ti.SetValue(cfg.Service.RecommendationsURL)
	case settingsFieldBudgetURL:
		ti.Placeholder = "https://host/api/campaign/budget (empty disables)"
		ti.SetValue(cfg.Service.BudgetURL)
	case settingsFieldPauseURL:
		ti.Placeholder = "https://host/api/adset/pause (empty disables)"
		ti.SetValue(cfg.Service.PauseURL)
	case settingsFieldHoursBack:
		ti.Placeholder = "24"
		ti.SetValue(strconv.Itoa(cfg.Service.HoursBack))
	case settingsFieldAutoRefresh:
		ti.Placeholder = "true or false"
		ti.SetValue(strconv.FormatBool(cfg.TUI.AutoRefresh))
	case settingsFieldRefreshHours:
		ti.Placeholder = "3 (hours)"
		ti.SetValue(strconv.FormatFloat(float64(cfg.TUI.RefreshIntervalSec)/3600, 'f', -1, 64))
	case settingsFieldExpandCount:
		ti.Placeholder = "2 or 4"
		ti.SetValue(strconv.Itoa(cfg.TUI.ExpandCount))
	case settingsFieldTheme:
		ti.Placeholder = strings.Join(theme.Names(), ", ")
		ti.SetValue(cfg.Appearance.Theme)
	}

	ti.Focus()
	a.settings.input = ti
	return a, ti.Cursor.BlinkCmd()
}

func (a App) updateSettingsInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		cmd := a.settingsSave()
		a.settings.editing = false
		a.settings.saved = a.settings.saveErr == nil
		return a, cmd
	case "esc":
		a.settings.editing = false
		return a, nil
	}

	var cmd tea.Cmd
	a.settings.input, cmd = a.settings.input.Update(msg)
	return a, cmd
}

// settingsSave applies the edited field and persists the config. Changes to
// the service or window start a fresh fetch.
func (a *App) settingsSave() tea.Cmd {
	val := strings.TrimSpace(a.settings.input.Value())
	cfg := a.cfg
	refetch := false

	switch a.settings.cursor {
	case settingsFieldRecommendationsURL:
		if err := validateURL(true)(val); err != nil {
			a.settings.saveErr = err
			return nil
		}
		cfg.Service.RecommendationsURL = val
		refetch = true
	case settingsFieldBudgetURL, settingsFieldPauseURL:
		if err := validateURL(false)(val); err != nil {
			a.settings.saveErr = err
			return nil
		}
		val = strings.TrimRight(val, "/")
		if a.settings.cursor == settingsFieldBudgetURL {
			cfg.Service.BudgetURL = val
		} else {
			cfg.Service.PauseURL = val
		}
	case settingsFieldHoursBack:
		if err := validatePositiveInt(val); err != nil {
			a.settings.saveErr = err
			return nil
		}
		cfg.Service.HoursBack, _ = strconv.Atoi(val)
		refetch = cfg.Service.HoursBack != a.cfg.Service.HoursBack
	case settingsFieldAutoRefresh:
		cfg.TUI.AutoRefresh = val == "true" || val == "1" || val == "yes"
	case settingsFieldRefreshHours:
		if err := validateHours(val); err != nil {
			a.settings.saveErr = err
			return nil
		}
		h, _ := strconv.ParseFloat(val, 64)
		cfg.TUI.RefreshIntervalSec = int(h * 3600)
	case settingsFieldExpandCount:
		n, err := strconv.Atoi(val)
		if err != nil || (n != 2 && n != 4) {
			a.settings.saveErr = fmt.Errorf("expand count must be 2 or 4")
			return nil
		}
		// Takes effect next session; the current expansion is operator-owned.
		cfg.TUI.ExpandCount = n
	case settingsFieldTheme:
		if !theme.Valid(val) {
			a.settings.saveErr = fmt.Errorf("unknown theme %q", val)
			return nil
		}
		cfg.Appearance.Theme = val
		theme.SetActive(val)
	}

	a.cfg = cfg
	a.reconnect()
	a.settings.saveErr = config.Save(cfg)
	if a.settings.saveErr != nil {
		a.log.Warn("saving settings", zap.Error(a.settings.saveErr))
	}
	if refetch {
		return a.startFetch()
	}
	return nil
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active
	cfg := a.cfg

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	selectedLabelStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.SurfaceBright).Bold(true)
	accentStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)
	greenStyle := lipgloss.NewStyle().Foreground(t.GreenBright).Background(t.Surface)
	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright)

	orUnset := func(s string) string {
		if s == "" {
			return "(not set)"
		}
		return s
	}

	refresh := "(off)"
	if cfg.TUI.RefreshIntervalSec > 0 {
		refresh = cli.FormatDuration(int64(cfg.TUI.RefreshIntervalSec))
	}

	fields := []struct{ label, value string }{
		{"Recommendations", cfg.Service.RecommendationsURL},
		{"Budget endpoint", orUnset(cfg.Service.BudgetURL)},
		{"Pause endpoint", orUnset(cfg.Service.PauseURL)},
		{"Hours back", strconv.Itoa(cfg.Service.HoursBack)},
		{"Auto refresh", strconv.FormatBool(cfg.TUI.AutoRefresh)},
		{"Refresh every", refresh},
		{"Expand first", strconv.Itoa(cfg.TUI.ExpandCount)},
		{"Theme", cfg.Appearance.Theme},
	}

	innerW := components.CardInnerWidth(cw)
	valueW := innerW - 2 - 19

	var formBody strings.Builder
	for i, f := range fields {
		if a.settings.editing && i == a.settings.cursor {
			formBody.WriteString(markerStyle.Render("▸ "))
			formBody.WriteString(accentStyle.Render(fmt.Sprintf("%-18s ", f.label)))
			formBody.WriteString(a.settings.input.View())
			formBody.WriteString("\n")
			continue
		}

		if i == a.settings.cursor {
			marker := markerStyle.Render("▸ ")
			label := selectedLabelStyle.Render(fmt.Sprintf("%-18s ", f.label+":"))
			value := selectedStyle.Render(cli.Truncate(f.value, valueW))
			formBody.WriteString(marker + label + value)
			if padLen := innerW - lipgloss.Width(marker) - lipgloss.Width(label) - lipgloss.Width(value); padLen > 0 {
				formBody.WriteString(lipgloss.NewStyle().Background(t.SurfaceBright).Render(strings.Repeat(" ", padLen)))
			}
		} else {
			formBody.WriteString(lipgloss.NewStyle().Background(t.Surface).Render("  "))
			formBody.WriteString(labelStyle.Render(fmt.Sprintf("%-18s ", f.label+":")))
			formBody.WriteString(valueStyle.Render(cli.Truncate(f.value, valueW)))
		}
		formBody.WriteString("\n")
	}

	if a.settings.saveErr != nil {
		warnStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
		formBody.WriteString("\n")
		formBody.WriteString(warnStyle.Render(fmt.Sprintf("Not saved: %s", a.settings.saveErr)))
	} else if a.settings.saved {
		formBody.WriteString("\n")
		formBody.WriteString(greenStyle.Render("Saved!"))
	}

	formBody.WriteString("\n")
	formBody.WriteString(labelStyle.Render("[j/k] navigate  [Enter] edit  [Esc] cancel"))

	var info strings.Builder
	info.WriteString(labelStyle.Render("Config file:     ") + valueStyle.Render(config.ConfigPath()) + "\n")
	info.WriteString(labelStyle.Render("Cache:           ") + valueStyle.Render(config.StorePath()) + "\n")
	info.WriteString(labelStyle.Render("Log file:        ") + valueStyle.Render(cfg.LogFile()) + "\n")
	took := "-"
	if a.fetchTook > 0 {
		took = fmt.Sprintf("%.1fs", a.fetchTook.Seconds())
	}
	info.WriteString(labelStyle.Render("Last fetch took: ") + valueStyle.Render(took) + "\n")
	info.WriteString(labelStyle.Render("Applied fetch:   ") + valueStyle.Render(fmt.Sprintf("#%d", a.state.Scheduler.Applied())))

	var b strings.Builder
	b.WriteString(components.ContentCard("Settings", formBody.String(), cw))
	b.WriteString("\n")
	b.WriteString(components.ContentCard("General", info.String(), cw))
	return b.String()
}

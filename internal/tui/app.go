// Package tui provides the interactive Bubble Tea dashboard for adrec.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/theirongolddev/adrec/internal/cli"
	"github.com/theirongolddev/adrec/internal/config"
	"github.com/theirongolddev/adrec/internal/dashboard"
	"github.com/theirongolddev/adrec/internal/snapshot"
	"github.com/theirongolddev/adrec/internal/store"
	"github.com/theirongolddev/adrec/internal/tui/components"
	"github.com/theirongolddev/adrec/internal/tui/theme"
)

// Backend is the recommendation service as the dashboard uses it.
type Backend interface {
	Fetch(ctx context.Context, hoursBack int) snapshot.Result
	SubmitBudget(ctx context.Context, campaignKey string, multiplier float64) error
	PauseAdset(ctx context.Context, adsetID string) error
}

// ActionLog records actions sent from the dashboard.
type ActionLog interface {
	RecordAction(a store.Action) (store.Action, error)
}

// FetchedMsg carries the result of snapshot fetch Seq.
type FetchedMsg struct {
	Seq    uint64
	Result snapshot.Result
	Took   time.Duration
}

// BudgetResultMsg is sent when a budget submission returns.
type BudgetResultMsg struct {
	Campaign   string
	Multiplier float64
	Err        error
}

// PauseResultMsg is sent when a pause command returns.
type PauseResultMsg struct {
	AdsetID string
	Label   string
	Err     error
}

// Options configures NewApp.
type Options struct {
	Config config.Config
	// Connect builds the backend for a config. It is called again when the
	// service URLs change in setup or settings.
	Connect   func(config.Config) Backend
	Actions   ActionLog // optional
	Logger    *zap.Logger
	NeedSetup bool
}

// App is the root Bubble Tea model.
type App struct {
	cfg     config.Config
	connect func(config.Config) Backend
	backend Backend
	actions ActionLog
	log     *zap.Logger
	now     func() time.Time

	state     *dashboard.State
	lastFetch time.Time
	fetchTook time.Duration

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool

	// Per-tab state
	camp     campaignsState
	settings settingsState

	// Budget modal counter edit
	budgetInput   textinput.Model
	budgetEditing bool

	// Pause confirmation (huh form)
	pauseForm   *huh.Form
	pauseAnswer *bool
	pauseLabel  string

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals *SetupValues
	needSetup bool

	spinner spinner.Model
}

// Tab indexes, matching components.Tabs.
const (
	tabOverview = iota
	tabCampaigns
	tabSettings
)

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180

	tickInterval     = time.Second
	minContentHeight = 5
)

// NewApp creates a new TUI app model.
func NewApp(opts Options) App {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	a := App{
		cfg:     opts.Config,
		connect: opts.Connect,
		actions: opts.Actions,
		log:     log,
		now:     time.Now,
		state: dashboard.NewState(dashboard.Options{
			ExpandCount:     opts.Config.TUI.ExpandCount,
			RefreshInterval: opts.Config.RefreshInterval(),
		}),
		needSetup: opts.NeedSetup,
		spinner:   sp,
	}
	if a.connect != nil {
		a.backend = a.connect(a.cfg)
	}
	if a.needSetup {
		vals := SetupValuesFrom(a.cfg)
		a.setupVals = &vals
		a.setupForm = NewSetupForm(a.setupVals)
	}
	return a
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnableMouseCellMotion,
		a.spinner.Tick,
		tickCmd(),
	}
	if a.needSetup && a.setupForm != nil {
		cmds = append(cmds, a.setupForm.Init())
	} else {
		cmds = append(cmds, a.startFetch())
	}
	return tea.Batch(cmds...)
}

// startFetch begins a sequenced snapshot fetch.
func (a App) startFetch() tea.Cmd {
	if a.backend == nil {
		return nil
	}
	seq := a.state.BeginFetch(a.now())
	backend, hours := a.backend, a.cfg.Service.HoursBack
	a.log.Debug("fetch started", zap.Uint64("seq", seq), zap.Int("hours_back", hours))
	return func() tea.Msg {
		start := time.Now()
		res := backend.Fetch(context.Background(), hours)
		return FetchedMsg{Seq: seq, Result: res, Took: time.Since(start)}
	}
}

// quit stops the scheduler so results still in flight are dropped.
func (a App) quit() (tea.Model, tea.Cmd) {
	a.state.Stop()
	return a, tea.Quit
}

func (a App) loaded() bool {
	return a.state.Phase() != dashboard.PhaseLoading
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		return a, nil

	case tea.MouseMsg:
		if !a.loaded() || a.showHelp || a.modalOpen() {
			return a, nil
		}

		switch msg.Button {
		case tea.MouseButtonWheelUp:
			if a.activeTab == tabCampaigns {
				a.moveCursor(-1)
			}
			return a, nil

		case tea.MouseButtonWheelDown:
			if a.activeTab == tabCampaigns {
				a.moveCursor(1)
			}
			return a, nil

		case tea.MouseButtonLeft:
			if msg.Y == 0 {
				if tab := a.tabAtX(msg.X); tab >= 0 && tab < len(components.Tabs) {
					a.activeTab = tab
				}
			}
			return a, nil
		}
		return a, nil

	case tea.KeyMsg:
		key := msg.String()

		if key == "ctrl+c" {
			return a.quit()
		}

		if a.needSetup && a.setupForm != nil {
			return a.updateSetupForm(msg)
		}

		if a.pauseForm != nil {
			return a.updatePauseForm(msg)
		}

		if !a.loaded() {
			if key == "q" {
				return a.quit()
			}
			return a, nil
		}

		if a.state.Budget != nil && a.activeTab == tabCampaigns {
			return a.updateBudget(msg)
		}

		if a.activeTab == tabSettings && a.settings.editing {
			return a.updateSettingsInput(msg)
		}

		if key == "?" {
			a.showHelp = !a.showHelp
			return a, nil
		}
		if a.showHelp {
			a.showHelp = false
			return a, nil
		}

		if key == "esc" && a.state.Notice.Text != "" {
			a.state.DismissNotice()
			return a, nil
		}

		if a.activeTab == tabCampaigns {
			if m, cmd, handled := a.updateCampaignsKey(key); handled {
				return m, cmd
			}
		}

		if a.activeTab == tabSettings {
			switch key {
			case "j", "down":
				if a.settings.cursor < settingsFieldCount-1 {
					a.settings.cursor++
				}
				return a, nil
			case "k", "up":
				if a.settings.cursor > 0 {
					a.settings.cursor--
				}
				return a, nil
			case "enter":
				return a.settingsStartEdit()
			}
		}

		switch key {
		case "q":
			return a.quit()
		case "r":
			return a, a.startFetch()
		case "R":
			a.toggleAutoRefresh()
			return a, nil
		case "o":
			a.activeTab = tabOverview
		case "c":
			a.activeTab = tabCampaigns
		case "x":
			a.activeTab = tabSettings
		case "left", "shift+tab":
			a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
		case "right", "tab":
			a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		}
		return a, nil

	case FetchedMsg:
		if !a.state.Apply(msg.Seq, msg.Result) {
			a.log.Debug("fetch result dropped",
				zap.Uint64("seq", msg.Seq),
				zap.Uint64("applied", a.state.Scheduler.Applied()),
				zap.Bool("stopped", a.state.Scheduler.Stopped()))
			return a, nil
		}
		a.lastFetch = a.now()
		a.fetchTook = msg.Took
		if msg.Result.Err != nil {
			a.log.Warn("fetch failed", zap.Uint64("seq", msg.Seq), zap.Error(msg.Result.Err))
		}
		a.clampCursor()
		return a, nil

	case BudgetResultMsg:
		if msg.Err != nil {
			a.state.SetNotice(dashboard.NoticeError, "Budget change failed: "+msg.Err.Error(), a.now())
		} else {
			a.state.SetNotice(dashboard.NoticeSuccess,
				fmt.Sprintf("Budget %s sent for %s; visible after next refresh", cli.FormatMultiplier(msg.Multiplier), msg.Campaign), a.now())
		}
		return a, nil

	case PauseResultMsg:
		a.state.Pause.Finish()
		if msg.Err != nil {
			a.state.SetNotice(dashboard.NoticeError, "Pause failed: "+msg.Err.Error(), a.now())
		} else {
			a.state.SetNotice(dashboard.NoticeSuccess,
				fmt.Sprintf("Pause sent for %s; visible after next refresh", msg.Label), a.now())
		}
		return a, nil

	case spinner.TickMsg:
		if !a.loaded() {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case tickMsg:
		cmds := []tea.Cmd{tickCmd()}
		now := a.now()
		if a.state.Notice.Text != "" && !a.state.Notice.Live(now) {
			a.state.DismissNotice()
		}
		if !a.needSetup && a.state.Scheduler.Due(now) {
			cmds = append(cmds, a.startFetch())
		}
		return a, tea.Batch(cmds...)
	}

	// Forward unhandled messages to active forms (cursor blinks, etc.)
	if a.needSetup && a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	if a.pauseForm != nil {
		return a.updatePauseForm(msg)
	}
	if a.budgetEditing {
		var cmd tea.Cmd
		a.budgetInput, cmd = a.budgetInput.Update(msg)
		return a, cmd
	}

	return a, nil
}

func (a App) modalOpen() bool {
	return a.setupForm != nil || a.actionPending()
}

// actionPending reports whether the budget modal or pause confirmation is open.
func (a App) actionPending() bool {
	return a.pauseForm != nil || a.state.Budget != nil
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		a.setupVals.Apply(&a.cfg)
		if err := config.Save(a.cfg); err != nil {
			a.log.Warn("saving setup config", zap.Error(err))
			a.state.SetNotice(dashboard.NoticeError, "Could not save config: "+err.Error(), a.now())
		}
		theme.SetActive(a.cfg.Appearance.Theme)
		a.reconnect()
		a.needSetup = false
		a.setupForm = nil
		return a, a.startFetch()

	case huh.StateAborted:
		a.needSetup = false
		a.setupForm = nil
		return a, a.startFetch()
	}

	return a, cmd
}

// reconnect rebuilds the backend and scheduler settings after a config change.
func (a *App) reconnect() {
	if a.connect != nil {
		a.backend = a.connect(a.cfg)
	}
	a.state.Scheduler.SetInterval(a.cfg.RefreshInterval())
}

func (a *App) toggleAutoRefresh() {
	a.cfg.TUI.AutoRefresh = !a.cfg.TUI.AutoRefresh
	a.state.Scheduler.SetInterval(a.cfg.RefreshInterval())
	if err := config.Save(a.cfg); err != nil {
		a.log.Warn("saving auto-refresh", zap.Error(err))
	}
	state := "off"
	if iv := a.cfg.RefreshInterval(); iv > 0 {
		state = "every " + cli.FormatDuration(int64(iv.Seconds()))
	}
	a.state.SetNotice(dashboard.NoticeInfo, "Auto refresh "+state, a.now())
}

// recordAction appends to the action log from a command goroutine.
func recordAction(log ActionLog, zl *zap.Logger, act store.Action) {
	if log == nil {
		return
	}
	if _, err := log.RecordAction(act); err != nil {
		zl.Warn("recording action", zap.Error(err))
	}
}

func (a App) contentWidth() int {
	cw := a.width
	if cw > maxContentWidth {
		cw = maxContentWidth
	}
	return cw
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}

	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}

	if a.needSetup && a.setupForm != nil {
		return a.setupForm.View()
	}

	if !a.loaded() {
		return a.viewLoading()
	}

	if a.showHelp {
		return a.viewHelp()
	}

	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := a.height
	if h < 5 {
		h = 5
	}

	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  adrec needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)

	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)

	logoStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.Surface).
		Bold(true)

	subtitleStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	spinnerStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ adrec"))
	b.WriteString(subtitleStyle.Render(" · Ad Recommendations"))
	b.WriteString("\n\n")
	b.WriteString(spinnerStyle.Render(a.spinner.View()))
	b.WriteString(subtitleStyle.Render(fmt.Sprintf(" Fetching recommendations for the last %dh...", a.cfg.Service.HoursBack)))

	card := cardStyle.Render(b.String())

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)

	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	section := func(b *strings.Builder, name string, binds []struct{ key, desc string }) {
		b.WriteString(sectionStyle.Render(name))
		b.WriteString("\n")
		for _, bind := range binds {
			fmt.Fprintf(b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
				descStyle.Render(bind.desc))
		}
		b.WriteString("\n")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n\n")

	section(&b, "Navigation", []struct{ key, desc string }{
		{"o c x", "Jump to tab"},
		{"← →", "Previous / Next tab"},
		{"j k", "Move through campaigns and adsets"},
		{"g G", "First / Last row"},
	})
	section(&b, "Campaigns", []struct{ key, desc string }{
		{"Enter", "Expand / Collapse campaign"},
		{"a A", "Expand all / Collapse all"},
		{"f F", "Next / Previous recommendation filter"},
		{"s", "Toggle most-urgent-first sort"},
		{"b", "Adjust budget (INCREASE BUDGET)"},
		{"p", "Pause adset (asks first)"},
	})
	section(&b, "General", []struct{ key, desc string }{
		{"r", "Refresh now"},
		{"R", "Toggle auto-refresh"},
		{"Esc", "Dismiss notice / Close"},
		{"?", "Toggle help"},
		{"q", "Quit"},
	})

	b.WriteString(dimStyle.Render("Press any key to close"))

	card := cardStyle.Render(b.String())

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	// 1. Header: tab bar + filter pill
	pillStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	accentStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)

	filterStr := pillStyle.Render(" ") +
		accentStyle.Render(fmt.Sprintf("%dh", a.cfg.Service.HoursBack)) +
		pillStyle.Render(" │ filter ") + accentStyle.Render(a.state.Filter.Label())
	if a.state.SortUrgent {
		filterStr += pillStyle.Render(" │ ") + accentStyle.Render("most urgent first")
	}
	filterStr += pillStyle.Render(" ")

	header := components.RenderTabBar(a.activeTab, w) + "\n" +
		lipgloss.NewStyle().Background(t.Surface).Width(w).Render(filterStr)

	// 2. Status bar
	statusBar := components.RenderStatusBar(w, a.status())

	// 3. Content zone height
	contentH := h - lipgloss.Height(header) - lipgloss.Height(statusBar)
	if contentH < minContentHeight {
		contentH = minContentHeight
	}

	// 4. Tab content
	var content string
	switch {
	case a.activeTab == tabSettings:
		content = a.renderSettingsTab(cw)
	case a.activeTab == tabCampaigns && a.actionPending():
		content = a.renderCampaignsTab(cw, contentH)
	case a.state.Phase() == dashboard.PhaseError:
		content = a.renderErrorBanner(cw)
	case a.activeTab == tabCampaigns:
		content = a.renderCampaignsTab(cw, contentH)
	default:
		content = a.renderOverviewTab(cw)
	}

	// 5. Truncate + pad to exactly contentH lines
	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)

	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) status() components.Status {
	now := a.now()
	st := components.Status{Refreshing: a.state.Scheduler.InFlight()}

	if n := a.state.Notice; n.Live(now) {
		st.Notice = n.Text
		switch n.Kind {
		case dashboard.NoticeSuccess:
			st.NoticeLevel = components.LevelSuccess
		case dashboard.NoticeError:
			st.NoticeLevel = components.LevelError
		}
	}
	if !a.lastFetch.IsZero() {
		st.DataAge = "fetched " + cli.FormatDuration(int64(now.Sub(a.lastFetch).Seconds())) + " ago"
	}
	if next := a.state.Scheduler.NextAt(); !next.IsZero() && !st.Refreshing {
		left := next.Sub(now)
		if left < 0 {
			left = 0
		}
		st.NextRefresh = "in " + cli.FormatDuration(int64(left.Seconds()))
	}
	return st
}

// renderErrorBanner replaces the data views after a failed fetch.
func (a App) renderErrorBanner(cw int) string {
	t := theme.Active
	errStyle := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface).Bold(true)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	msg := "unknown error"
	if err := a.state.Err(); err != nil {
		msg = err.Error()
	}

	body := errStyle.Render(msg) + "\n\n" +
		muted.Render("Press r to retry.")
	if next := a.state.Scheduler.NextAt(); !next.IsZero() {
		body += muted.Render(fmt.Sprintf(" The next scheduled refresh is at %s.", next.Local().Format("15:04")))
	}
	return components.FocusCard("Could not load recommendations", body, cw)
}

type tickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")

	var result strings.Builder
	for i, line := range lines {
		placed := lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
		result.WriteString(placed)
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}

// ─── Mouse Support ──────────────────────────────────────────────

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes are derived from the same width rules used by RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW
		if i < len(components.Tabs)-1 {
			pos++
		}
	}
	return -1
}

package tui

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/adrec/internal/config"
	"github.com/theirongolddev/adrec/internal/tui/theme"
)

// SetupValues holds the first-run form answers as strings so huh inputs can
// bind to them directly.
type SetupValues struct {
	RecommendationsURL string
	BudgetURL          string
	PauseURL           string
	HoursBack          string
	RefreshHours       string
	ExpandCount        int
	Theme              string
}

// SetupValuesFrom seeds the form from an existing config.
func SetupValuesFrom(cfg config.Config) SetupValues {
	expand := cfg.TUI.ExpandCount
	if expand != 2 && expand != 4 {
		expand = 2
	}
	hours := "0"
	if cfg.TUI.AutoRefresh && cfg.TUI.RefreshIntervalSec > 0 {
		hours = strconv.FormatFloat(float64(cfg.TUI.RefreshIntervalSec)/3600, 'f', -1, 64)
	}
	return SetupValues{
		RecommendationsURL: cfg.Service.RecommendationsURL,
		BudgetURL:          cfg.Service.BudgetURL,
		PauseURL:           cfg.Service.PauseURL,
		HoursBack:          strconv.Itoa(cfg.Service.HoursBack),
		RefreshHours:       hours,
		ExpandCount:        expand,
		Theme:              cfg.Appearance.Theme,
	}
}

// Apply writes the answers into cfg. Values are assumed validated by the form.
func (v SetupValues) Apply(cfg *config.Config) {
	cfg.Service.RecommendationsURL = strings.TrimSpace(v.RecommendationsURL)
	cfg.Service.BudgetURL = strings.TrimRight(strings.TrimSpace(v.BudgetURL), "/")
	cfg.Service.PauseURL = strings.TrimRight(strings.TrimSpace(v.PauseURL), "/")
	if n, err := strconv.Atoi(strings.TrimSpace(v.HoursBack)); err == nil && n > 0 {
		cfg.Service.HoursBack = n
	}
	if h, err := strconv.ParseFloat(strings.TrimSpace(v.RefreshHours), 64); err == nil && h >= 0 {
		cfg.TUI.RefreshIntervalSec = int(h * 3600)
		cfg.TUI.AutoRefresh = cfg.TUI.RefreshIntervalSec > 0
	}
	if v.ExpandCount == 2 || v.ExpandCount == 4 {
		cfg.TUI.ExpandCount = v.ExpandCount
	}
	if theme.Valid(v.Theme) {
		cfg.Appearance.Theme = v.Theme
	}
}

// NewSetupForm builds the setup wizard bound to vals.
func NewSetupForm(vals *SetupValues) *huh.Form {
	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, name := range theme.Names() {
		themeOpts = append(themeOpts, huh.NewOption(name, name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to adrec").
				Description("Point adrec at the recommendation service and the\nbudget and pause endpoints. Press Enter to continue."),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Recommendations URL").
				Description("GET endpoint returning the prediction run").
				Value(&vals.RecommendationsURL).
				Validate(validateURL(true)),
			huh.NewInput().
				Title("Budget endpoint").
				Description("POST <url>/<campaign_key>; leave empty to disable budget changes").
				Value(&vals.BudgetURL).
				Validate(validateURL(false)),
			huh.NewInput().
				Title("Pause endpoint").
				Description("POST <url>/<adset_id>; leave empty to disable pausing").
				Value(&vals.PauseURL).
				Validate(validateURL(false)),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Hours back").
				Description("Aggregation window requested from the service").
				Value(&vals.HoursBack).
				Validate(validatePositiveInt),
			huh.NewInput().
				Title("Refresh every (hours)").
				Description("0 fetches once per session").
				Value(&vals.RefreshHours).
				Validate(validateHours),
			huh.NewSelect[int]().
				Title("Campaigns expanded on first load").
				Options(huh.NewOption("2", 2), huh.NewOption("4", 4)).
				Value(&vals.ExpandCount),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&vals.Theme),
		),
	).WithShowHelp(true)
}

func validateURL(required bool) func(string) error {
	return func(s string) error {
		s = strings.TrimSpace(s)
		if s == "" {
			if required {
				return errors.New("required")
			}
			return nil
		}
		u, err := url.Parse(s)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("not an http(s) url")
		}
		return nil
	}
}

func validatePositiveInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return errors.New("must be a positive whole number")
	}
	return nil
}

func validateHours(s string) error {
	h, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || h < 0 {
		return errors.New("must be 0 or more")
	}
	return nil
}

package cmd

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/theirongolddev/adrec/internal/config"
	"github.com/theirongolddev/adrec/internal/tui"
	"github.com/theirongolddev/adrec/internal/tui/theme"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI dashboard",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	cfg := loadConfig()
	theme.SetActive(cfg.Appearance.Theme)

	// Force TrueColor profile so all background styling produces ANSI codes
	// Without this, lipgloss may default to Ascii profile (no colors)
	lipgloss.SetColorProfile(termenv.TrueColor)

	log := newLogger(cfg)
	defer func() { _ = log.Sync() }()

	opts := tui.Options{
		Config: cfg,
		Connect: func(c config.Config) tui.Backend {
			return newClient(c, log)
		},
		Logger:    log,
		NeedSetup: !config.Exists(),
	}

	cache, err := openStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "  Action log unavailable: %s\n", err)
		log.Warn("opening action log", zap.Error(err))
	}
	if cache != nil {
		defer cache.Close()
		opts.Actions = cache
	}

	p := tea.NewProgram(tui.NewApp(opts), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}

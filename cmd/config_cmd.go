// Package cmd implements the adrec CLI commands.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/adrec/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [Service]")
	fmt.Printf("    Recommendations: %s\n", cfg.Service.RecommendationsURL)
	fmt.Printf("    Budget:          %s\n", orUnset(cfg.Service.BudgetURL))
	fmt.Printf("    Pause:           %s\n", orUnset(cfg.Service.PauseURL))
	fmt.Printf("    Hours back:      %d\n", cfg.Service.HoursBack)
	fmt.Printf("    Request timeout: %s\n", cfg.RequestTimeout())
	fmt.Println()

	fmt.Println("  [TUI]")
	if iv := cfg.RefreshInterval(); iv > 0 {
		fmt.Printf("    Auto refresh:    every %s\n", iv)
	} else {
		fmt.Println("    Auto refresh:    off (fetch once)")
	}
	fmt.Printf("    Expanded rows:   %d\n", cfg.TUI.ExpandCount)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [Log]")
	fmt.Printf("    File:  %s\n", cfg.LogFile())
	fmt.Printf("    Level: %s\n", cfg.Log.Level)
	fmt.Println()

	fmt.Printf("  Cache: %s\n", config.StorePath())
	fmt.Println()
	fmt.Println("  Run `adrec setup` to reconfigure.")
	return nil
}

func orUnset(s string) string {
	if s == "" {
		return "not configured"
	}
	return s
}

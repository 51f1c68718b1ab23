package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/adrec/internal/cli"
	"github.com/theirongolddev/adrec/internal/config"
	"github.com/theirongolddev/adrec/internal/store"
)

var flagHistoryLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Budget and pause actions sent from this machine",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&flagHistoryLimit, "limit", "l", 20, "Number of actions to show (0 = all)")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(_ *cobra.Command, _ []string) error {
	cache, err := store.Open(config.StorePath())
	if err != nil {
		return err
	}
	defer cache.Close()

	actions, err := cache.ListActions(flagHistoryLimit)
	if err != nil {
		return fmt.Errorf("reading action log: %w", err)
	}
	if len(actions) == 0 {
		fmt.Println("\n  No actions recorded yet.")
		return nil
	}

	rows := make([][]string, 0, len(actions))
	for _, a := range actions {
		detail := ""
		if a.Kind == store.KindBudget {
			detail = fmt.Sprintf("count %d  %s", a.Counter, cli.FormatMultiplier(a.Multiplier))
		}
		status := a.Status
		if a.Error != "" {
			status += ": " + cli.Truncate(a.Error, 40)
		}
		rows = append(rows, []string{
			a.CreatedAt.Local().Format(time.DateTime),
			a.Kind,
			cli.Truncate(a.Label, 30),
			a.Target,
			detail,
			status,
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:    "Action log",
		Headers:  []string{"When", "Action", "Name", "Target", "Detail", "Status"},
		Rows:     rows,
		LeftCols: 6,
	}))
	return nil
}

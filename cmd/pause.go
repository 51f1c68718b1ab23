package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/adrec/internal/cli"
	"github.com/theirongolddev/adrec/internal/dashboard"
	"github.com/theirongolddev/adrec/internal/store"
)

var flagPauseYes bool

var pauseCmd = &cobra.Command{
	Use:   "pause <adset_id>",
	Short: "Pause an adset after confirmation",
	Args:  cobra.ExactArgs(1),
	RunE:  runPause,
}

func init() {
	pauseCmd.Flags().BoolVarP(&flagPauseYes, "yes", "y", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(pauseCmd)
}

func runPause(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	log := newLogger(cfg)
	defer func() { _ = log.Sync() }()

	var guard dashboard.PauseGuard
	if !guard.Select(args[0]) {
		return errors.New("adset id is required")
	}

	label := guard.Target()
	detail := "This cannot be undone from adrec."
	if snap, err := loadSnapshot(cmd.Context(), cfg, log); err == nil {
		if a, c, ok := snap.FindAdset(guard.Target()); ok {
			label = fmt.Sprintf("%s (%s)", a.Name, a.ID)
			detail = fmt.Sprintf("Campaign %s. Recommendation %s, cost %s, profit %s.\n%s",
				c.Name, a.Recommendation.Label(), cli.FormatCost(a.Cost), cli.FormatCost(a.Profit), detail)
		}
	}

	confirmed := flagPauseYes
	if !confirmed {
		err := huh.NewConfirm().
			Title(fmt.Sprintf("Pause adset %s?", label)).
			Description(detail).
			Affirmative("Pause").
			Negative("Cancel").
			Value(&confirmed).
			Run()
		if err != nil {
			guard.Cancel()
			if errors.Is(err, huh.ErrUserAborted) {
				fmt.Println("  Cancelled.")
				return nil
			}
			return err
		}
	}
	if !confirmed {
		guard.Cancel()
		fmt.Println("  Cancelled.")
		return nil
	}

	id, ok := guard.Confirm()
	if !ok {
		return errors.New("no pause target pending")
	}
	pauseErr := newClient(cfg, log).PauseAdset(cmd.Context(), id)
	guard.Finish()

	action := store.Action{
		Kind:      store.KindPause,
		Target:    id,
		Label:     label,
		Status:    store.StatusSent,
		CreatedAt: time.Now(),
	}
	if pauseErr != nil {
		action.Status = store.StatusFailed
		action.Error = pauseErr.Error()
	}
	recordAction(log, action)

	if pauseErr != nil {
		return fmt.Errorf("pause failed: %w", pauseErr)
	}
	fmt.Printf("  Pause sent for %s. The snapshot reflects it after the next refresh.\n", label)
	return nil
}

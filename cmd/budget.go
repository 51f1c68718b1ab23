package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/adrec/internal/cli"
	"github.com/theirongolddev/adrec/internal/dashboard"
	"github.com/theirongolddev/adrec/internal/store"
)

var (
	flagBudgetCount    int
	flagBudgetDecrease bool
	flagBudgetDryRun   bool
)

var budgetCmd = &cobra.Command{
	Use:   "budget <campaign_key>",
	Short: "Adjust the budget of an INCREASE_BUDGET campaign",
	Long: `Submit a budget multiplier for a campaign whose recommendation is INCREASE_BUDGET.

The count starts at the recommended percentage. An increase is sent as
1 + count/100 and a decrease as 1 - count/100.

Increase is offered when count >= the recommended percentage and the
recommended percentage is not negative. Decrease is offered when count is
below the recommended percentage, when the recommended percentage is
negative, or for an OPTIMIZE recommendation with a recommended percentage of 0.`,
	Args: cobra.ExactArgs(1),
	RunE: runBudget,
}

func init() {
	budgetCmd.Flags().IntVarP(&flagBudgetCount, "count", "c", 0, "Percentage count (default: the recommended percentage)")
	budgetCmd.Flags().BoolVar(&flagBudgetDecrease, "decrease", false, "Decrease the budget instead of increasing it")
	budgetCmd.Flags().BoolVar(&flagBudgetDryRun, "dry-run", false, "Print the multiplier without submitting")
	rootCmd.AddCommand(budgetCmd)
}

func runBudget(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	log := newLogger(cfg)
	defer func() { _ = log.Sync() }()

	key := args[0]
	snap, err := loadSnapshot(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}

	campaign, ok := snap.CampaignByKey(key)
	if !ok {
		if campaign, ok = snap.CampaignByID(key); !ok {
			return fmt.Errorf("campaign %q not found in the current snapshot", key)
		}
	}

	wf, err := dashboard.BudgetFor(campaign)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("count") {
		wf.SetCounter(flagBudgetCount)
	}

	dir := dashboard.Increase
	if flagBudgetDecrease {
		dir = dashboard.Decrease
	}
	multiplier, err := wf.Submission(dir)
	if err != nil {
		return err
	}

	fmt.Printf("  Campaign:   %s (%s)\n", campaign.Name, campaign.ExternalKey)
	fmt.Printf("  Count:      %d (recommended %d)\n", wf.Counter(), wf.Initial())
	fmt.Printf("  Direction:  %s\n", dir)
	fmt.Printf("  Multiplier: %s\n", cli.FormatMultiplier(multiplier))

	if flagBudgetDryRun {
		fmt.Println("  Dry run: nothing submitted.")
		return nil
	}

	submitErr := newClient(cfg, log).SubmitBudget(cmd.Context(), campaign.ExternalKey, multiplier)

	action := store.Action{
		Kind:       store.KindBudget,
		Target:     campaign.ExternalKey,
		Label:      campaign.Name,
		Counter:    wf.Counter(),
		Multiplier: multiplier,
		Status:     store.StatusSent,
		CreatedAt:  time.Now(),
	}
	if submitErr != nil {
		action.Status = store.StatusFailed
		action.Error = submitErr.Error()
	}
	recordAction(log, action)

	if submitErr != nil {
		return fmt.Errorf("budget submission failed: %w", submitErr)
	}
	fmt.Println("  Budget change sent. The snapshot reflects it after the next refresh.")
	return nil
}

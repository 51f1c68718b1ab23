package cmd

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/adrec/internal/cli"
	"github.com/theirongolddev/adrec/internal/dashboard"
	"github.com/theirongolddev/adrec/internal/model"
	"github.com/theirongolddev/adrec/internal/snapshot"
)

var (
	flagCampaignFilter string
	flagCampaignSort   string
	flagCampaignAll    bool
)

var campaignsCmd = &cobra.Command{
	Use:   "campaigns",
	Short: "Campaigns and their adset recommendations",
	RunE:  runCampaigns,
}

func init() {
	campaignsCmd.Flags().StringVarP(&flagCampaignFilter, "filter", "f", "", "Only show adsets with this recommendation (e.g. PAUSE)")
	campaignsCmd.Flags().StringVar(&flagCampaignSort, "sort", "", "Sort order: priority (most urgent first)")
	campaignsCmd.Flags().BoolVarP(&flagCampaignAll, "all", "a", false, "List adsets for every campaign, not only the first few")
	rootCmd.AddCommand(campaignsCmd)
}

func runCampaigns(cmd *cobra.Command, _ []string) error {
	cfg := loadConfig()
	log := newLogger(cfg)
	defer func() { _ = log.Sync() }()

	filter := dashboard.NewFilter(model.ParseRecommendation(flagCampaignFilter))
	if filter.Active() && !filter.Recommendation().Known() {
		return fmt.Errorf("unknown recommendation %q", flagCampaignFilter)
	}
	if flagCampaignSort != "" && flagCampaignSort != "priority" {
		return fmt.Errorf("unknown sort %q (want: priority)", flagCampaignSort)
	}

	snap, err := loadSnapshot(cmd.Context(), cfg, log)
	if err != nil {
		var svcErr *snapshot.ServiceError
		if errors.As(err, &svcErr) {
			fmt.Println()
			fmt.Println(cli.RenderError(svcErr.Message))
			return nil
		}
		return err
	}

	visible := dashboard.Visible(snap, filter)
	if flagCampaignSort == "priority" {
		dashboard.SortByPriority(visible)
	}
	if len(visible) == 0 {
		if snap.Empty() {
			fmt.Println("\n  No campaign data for this window.")
		} else {
			fmt.Printf("\n  No adsets match filter %s.\n", filter.Label())
		}
		return nil
	}

	expand := dashboard.NewExpansion(cfg.TUI.ExpandCount)
	expand.Seed(&model.Snapshot{Campaigns: visible})
	if flagCampaignAll {
		expand.ExpandAll(visible)
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("CAMPAIGNS  Last %dh  Filter: %s", snap.HoursBack, filter.Label())))
	fmt.Println()

	rows := make([][]string, 0, len(visible))
	for _, c := range visible {
		rows = append(rows, []string{
			cli.Truncate(c.Name, 28),
			c.ExternalKey,
			recCell(c.Recommendation),
			budgetHint(c),
			cli.FormatCost(c.TotalCost),
			cli.FormatCost(c.TotalProfit),
			cli.FormatPoints(c.TotalROI),
			cli.FormatNumber(int64(len(c.Adsets))),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers:  []string{"Campaign", "Key", "Recommendation", "Budget", "Cost", "Profit", "ROI", "Adsets"},
		Rows:     rows,
		LeftCols: 3,
	}))

	for _, c := range visible {
		if !expand.IsOpen(c.ID) {
			continue
		}
		adRows := make([][]string, 0, len(c.Adsets))
		for _, a := range c.Adsets {
			adRows = append(adRows, []string{
				cli.Truncate(a.Name, 24),
				a.ID,
				recCell(a.Recommendation),
				priorityCell(a.Priority),
				cli.FormatCost(a.Cost),
				cli.FormatCost(a.Profit),
				cli.FormatNumber(a.Clicks),
				cli.FormatCPC(a.CPC),
				cli.FormatPoints(a.ROIConfirmed),
			})
		}
		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Title:    c.Name,
			Headers:  []string{"Adset", "ID", "Recommendation", "Prio", "Cost", "Profit", "Clicks", "CPC", "ROI"},
			Rows:     adRows,
			LeftCols: 3,
		}))
		for _, a := range c.Adsets {
			if a.Reason == "" && a.Suggestion == "" {
				continue
			}
			fmt.Printf("  %s %s\n", cli.RenderMuted(a.ID+":"), a.Reason)
			if a.Suggestion != "" {
				fmt.Printf("    %s %s\n", cli.RenderMuted("suggestion:"), a.Suggestion)
			}
		}
	}

	if hidden := len(visible) - expand.Len(); hidden > 0 && !flagCampaignAll {
		fmt.Printf("\n  %d more campaigns collapsed; use --all to list their adsets.\n", hidden)
	}
	return nil
}

func recCell(r model.Recommendation) string {
	return lipgloss.NewStyle().Foreground(cli.RecommendationColor(r)).Render(r.Label())
}

func priorityCell(p int) string {
	if p <= 0 {
		return "-"
	}
	return fmt.Sprintf("P%d", p)
}

func budgetHint(c model.Campaign) string {
	if !c.HasBudgetAction() {
		return ""
	}
	return fmt.Sprintf("%+d%%", c.RecommendationPercentage)
}

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/adrec/internal/cli"
	"github.com/theirongolddev/adrec/internal/dashboard"
	"github.com/theirongolddev/adrec/internal/model"
	"github.com/theirongolddev/adrec/internal/snapshot"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Snapshot totals and priority distribution",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	cfg := loadConfig()
	log := newLogger(cfg)
	defer func() { _ = log.Sync() }()

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

	if snap.Empty() {
		fmt.Println("\n  No campaign data for this window.")
		return nil
	}

	s := snap.Summary
	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("AD RECOMMENDATIONS  Last %dh", snap.HoursBack)))
	fmt.Println()

	rows := [][]string{
		{"Campaigns", cli.FormatNumber(int64(len(snap.Campaigns)))},
		{"Adsets", cli.FormatNumber(int64(snap.AdsetCount()))},
		{"---"},
		{"Cost", cli.FormatCost(s.TotalCost)},
		{"Revenue", cli.FormatCost(s.TotalRevenue)},
		{"Profit", cli.FormatCost(s.TotalProfit)},
		{"---"},
		{"Clicks", cli.FormatNumber(s.TotalClicks)},
		{"Conversions", cli.FormatNumber(s.TotalConversions)},
		{"Avg ROI", cli.FormatPoints(s.AverageROI)},
		{"Avg Conv. Rate", cli.FormatPercent(s.AverageConversionRate)},
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))

	counts := dashboard.FilterCounts(snap)
	recRows := make([][]string, 0, len(model.Recommendations))
	for _, r := range model.Recommendations {
		if counts[r] == 0 {
			continue
		}
		recRows = append(recRows, []string{r.Label(), cli.FormatNumber(int64(counts[r]))})
	}
	if len(recRows) > 0 {
		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "Recommendations",
			Headers: []string{"Recommendation", "Adsets"},
			Rows:    recRows,
		}))
	}

	prios := s.Priorities()
	if len(prios) > 0 {
		maxCount := 0
		for _, p := range prios {
			if p.Count > maxCount {
				maxCount = p.Count
			}
		}
		fmt.Println()
		fmt.Println("  Priority distribution (1 = most urgent)")
		for _, p := range prios {
			fmt.Println(cli.RenderHorizontalBar(fmt.Sprintf("P%-2d", p.Priority), float64(p.Count), float64(maxCount), 30))
		}
	}

	return nil
}

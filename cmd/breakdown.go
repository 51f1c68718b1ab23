package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/adrec/internal/cli"
	"github.com/theirongolddev/adrec/internal/dashboard"
	"github.com/theirongolddev/adrec/internal/model"
	"github.com/theirongolddev/adrec/internal/pipeline"
	"github.com/theirongolddev/adrec/internal/snapshot"
)

var (
	flagBreakdownBy     string
	flagBreakdownFilter string
)

var breakdownCmd = &cobra.Command{
	Use:   "breakdown",
	Short: "Adset cost and profit grouped by geo, country, recommendation, CPC tier or campaign",
	RunE:  runBreakdown,
}

func init() {
	breakdownCmd.Flags().StringVarP(&flagBreakdownBy, "by", "b", string(pipeline.ByCountry), "Group by: geo, country, recommendation, cpc, campaign")
	breakdownCmd.Flags().StringVarP(&flagBreakdownFilter, "filter", "f", "", "Only count adsets with this recommendation")
	rootCmd.AddCommand(breakdownCmd)
}

func runBreakdown(cmd *cobra.Command, _ []string) error {
	dim, err := pipeline.ParseDimension(flagBreakdownBy)
	if err != nil {
		return err
	}
	filter := dashboard.NewFilter(model.ParseRecommendation(flagBreakdownFilter))
	if filter.Active() && !filter.Recommendation().Known() {
		return fmt.Errorf("unknown recommendation %q", flagBreakdownFilter)
	}

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

	groups := pipeline.Aggregate(snap, dim, filter)
	if len(groups) == 0 {
		fmt.Println("\n  No adsets in this window.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("BY %s  Last %dh  Filter: %s",
		strings.ToUpper(string(dim)), snap.HoursBack, filter.Label())))
	fmt.Println()

	rows := make([][]string, 0, len(groups)+2)
	for _, g := range groups {
		rows = append(rows, groupRow(g))
	}
	rows = append(rows, []string{"---"}, groupRow(pipeline.Totals(groups)))

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{strings.ToUpper(string(dim[:1])) + string(dim[1:]), "Adsets", "Cost", "Revenue", "Profit", "Clicks", "ROI", "Share"},
		Rows:    rows,
	}))
	return nil
}

func groupRow(g pipeline.Group) []string {
	return []string{
		cli.Truncate(g.Key, 24),
		cli.FormatNumber(int64(g.Adsets)),
		cli.FormatCost(g.Cost),
		cli.FormatCost(g.Revenue),
		cli.FormatCost(g.Profit),
		cli.FormatNumber(g.Clicks),
		cli.FormatPoints(g.ROI),
		fmt.Sprintf("%.1f%%", g.SharePercent),
	}
}

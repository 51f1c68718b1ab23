// Package pipeline aggregates snapshot adsets into per-dimension breakdowns.
package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/theirongolddev/adrec/internal/dashboard"
	"github.com/theirongolddev/adrec/internal/model"
)

// Dimension selects what adsets are grouped by.
type Dimension string

// Supported dimensions.
const (
	ByGeo            Dimension = "geo"
	ByCountry        Dimension = "country"
	ByRecommendation Dimension = "recommendation"
	ByCPCTier        Dimension = "cpc"
	ByCampaign       Dimension = "campaign"
)

// Dimensions lists the supported dimensions in help order.
var Dimensions = []Dimension{ByGeo, ByCountry, ByRecommendation, ByCPCTier, ByCampaign}

// NoValue is the group key for adsets missing the dimension.
const NoValue = "(none)"

// ParseDimension validates a dimension name.
func ParseDimension(s string) (Dimension, error) {
	d := Dimension(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Dimensions {
		if d == known {
			return d, nil
		}
	}
	names := make([]string, len(Dimensions))
	for i, known := range Dimensions {
		names[i] = string(known)
	}
	return "", fmt.Errorf("unknown dimension %q (want one of: %s)", s, strings.Join(names, ", "))
}

// Group is the aggregate of the adsets sharing one dimension value.
type Group struct {
	Key          string
	Adsets       int
	Cost         float64
	Revenue      float64
	Profit       float64
	Clicks       int64
	ROI          float64 // profit over cost, percentage points
	SharePercent float64 // share of total cost
}

// Aggregate groups the adsets passing f by dim, largest cost first.
// Ties sort by key so output is stable.
func Aggregate(snap *model.Snapshot, dim Dimension, f dashboard.Filter) []Group {
	if snap == nil {
		return nil
	}

	groups := make(map[string]*Group)
	var totalCost float64

	for _, c := range snap.Campaigns {
		for _, a := range c.Adsets {
			if !f.Matches(a) {
				continue
			}
			key := keyFor(dim, c, a)
			g, ok := groups[key]
			if !ok {
				g = &Group{Key: key}
				groups[key] = g
			}
			g.Adsets++
			g.Cost += a.Cost
			g.Revenue += a.Revenue
			g.Profit += a.Profit
			g.Clicks += a.Clicks
			totalCost += a.Cost
		}
	}

	out := make([]Group, 0, len(groups))
	for _, g := range groups {
		if g.Cost != 0 {
			g.ROI = g.Profit / g.Cost * 100
		}
		if totalCost > 0 {
			g.SharePercent = g.Cost / totalCost * 100
		}
		out = append(out, *g)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Cost != out[j].Cost {
			return out[i].Cost > out[j].Cost
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// Totals sums a breakdown back into one row keyed "Total".
func Totals(groups []Group) Group {
	t := Group{Key: "Total"}
	for _, g := range groups {
		t.Adsets += g.Adsets
		t.Cost += g.Cost
		t.Revenue += g.Revenue
		t.Profit += g.Profit
		t.Clicks += g.Clicks
	}
	if t.Cost != 0 {
		t.ROI = t.Profit / t.Cost * 100
	}
	if len(groups) > 0 {
		t.SharePercent = 100
	}
	return t
}

func keyFor(dim Dimension, c model.Campaign, a model.Adset) string {
	var key string
	switch dim {
	case ByGeo:
		key = a.Geo
		if key == "" {
			key = c.Geo
		}
	case ByCountry:
		key = a.Country
		if key == "" {
			key = c.Country
		}
	case ByRecommendation:
		key = string(a.Recommendation)
	case ByCPCTier:
		key = string(a.CPCRate)
	case ByCampaign:
		key = c.Name
		if key == "" {
			key = c.ExternalKey
		}
	}
	if key == "" {
		return NoValue
	}
	return key
}

package pipeline

import (
	"math"
	"testing"

	"github.com/theirongolddev/adrec/internal/dashboard"
	"github.com/theirongolddev/adrec/internal/model"
)

func testSnapshot() *model.Snapshot {
	return &model.Snapshot{
		Campaigns: []model.Campaign{
			{ID: "c1", Name: "Summer", Geo: "EU", Country: "DE", Adsets: []model.Adset{
				{ID: "a1", Recommendation: model.RecPause, Cost: 100, Revenue: 50, Profit: -50, Clicks: 10, Country: "AT"},
				{ID: "a2", Recommendation: model.RecMonitor, Cost: 50, Revenue: 100, Profit: 50, Clicks: 5},
			}},
			{ID: "c2", Name: "Winter", Adsets: []model.Adset{
				{ID: "b1", Recommendation: model.RecPause, Cost: 50, Revenue: 75, Profit: 25, Clicks: 2},
			}},
		},
	}
}

func TestAggregate_ByCountryFallsBackToCampaign(t *testing.T) {
	groups := Aggregate(testSnapshot(), ByCountry, dashboard.Filter{})
	if len(groups) != 3 {
		t.Fatalf("groups = %d, want 3", len(groups))
	}

	byKey := make(map[string]Group)
	for _, g := range groups {
		byKey[g.Key] = g
	}
	if byKey["AT"].Cost != 100 {
		t.Errorf("AT cost = %v, want 100", byKey["AT"].Cost)
	}
	if byKey["DE"].Adsets != 1 {
		t.Errorf("DE adsets = %d, want 1 (campaign country)", byKey["DE"].Adsets)
	}
	if byKey[NoValue].Adsets != 1 {
		t.Errorf("%s adsets = %d, want 1", NoValue, byKey[NoValue].Adsets)
	}
	if groups[0].Key != "AT" {
		t.Errorf("first group = %q, want the largest cost (AT)", groups[0].Key)
	}
	if math.Abs(groups[0].SharePercent-50) > 1e-9 {
		t.Errorf("AT share = %v, want 50", groups[0].SharePercent)
	}
}

func TestAggregate_RespectsFilter(t *testing.T) {
	groups := Aggregate(testSnapshot(), ByCampaign, dashboard.NewFilter(model.RecPause))
	if len(groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(groups))
	}
	total := Totals(groups)
	if total.Adsets != 2 || total.Cost != 150 || total.Profit != -25 {
		t.Fatalf("totals = %+v", total)
	}
	if math.Abs(total.ROI-(-25.0/150*100)) > 1e-9 {
		t.Fatalf("total ROI = %v", total.ROI)
	}
}

func TestAggregate_NilSnapshot(t *testing.T) {
	if got := Aggregate(nil, ByGeo, dashboard.Filter{}); got != nil {
		t.Fatalf("Aggregate(nil) = %v, want nil", got)
	}
	if got := Totals(nil); got.SharePercent != 0 || got.Adsets != 0 {
		t.Fatalf("Totals(nil) = %+v", got)
	}
}

func TestParseDimension(t *testing.T) {
	if d, err := ParseDimension(" Geo "); err != nil || d != ByGeo {
		t.Fatalf("ParseDimension(Geo) = %q, %v", d, err)
	}
	if _, err := ParseDimension("model"); err == nil {
		t.Fatal("expected error for unknown dimension")
	}
}

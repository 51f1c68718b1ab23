package snapshot

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/theirongolddev/adrec/internal/model"
)

const samplePayload = `{
  "success": true,
  "summary": {
    "total_cost": 120.5,
    "total_revenue": 150,
    "total_profit": 29.5,
    "total_clicks": 900,
    "total_conversions": 41,
    "average_roi": 24.48,
    "average_conversion_rate": 0.0455,
    "priority_distribution": {"1": 2, "3": 1, "x": 9}
  },
  "data": [
    {
      "id": 7,
      "sub_id_3": "cmp-7",
      "sub_id_6": "Spring Sale",
      "day": "2025-06-01",
      "recommendation": "INCREASE_BUDGET",
      "recommendation_percentage": 15,
      "adset": [
        {"sub_id_2": "a1", "sub_id_5": "Lookalike", "recommendation": "PAUSE", "cost": 40, "revenue": 10, "profit": -30, "clicks": 100, "priority": 1},
        {"sub_id_2": "a2", "sub_id_5": "Broad", "recommendation": "UNDER OBSERVATION", "cost": "12.5", "clicks": null, "priority": 3, "unknown_field": {"x": 1}}
      ]
    },
    {
      "id": "8",
      "sub_id_3": "cmp-8",
      "sub_id_6": "Evergreen",
      "adset": [
        {"sub_id_2": "b1", "sub_id_5": "Retarget", "recommendation": "SOMETHING_NEW", "conversion_rate": 1.7, "clicks": -4}
      ]
    }
  ]
}`

func TestNormalize_SuccessPayload(t *testing.T) {
	res := Normalize([]byte(samplePayload))
	if !res.OK() {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	snap := res.Snapshot

	if len(snap.Campaigns) != 2 {
		t.Fatalf("campaigns = %d, want 2", len(snap.Campaigns))
	}

	c := snap.Campaigns[0]
	if c.ID != "7" || c.ExternalKey != "cmp-7" || c.Name != "Spring Sale" {
		t.Errorf("campaign identity = (%q, %q, %q)", c.ID, c.ExternalKey, c.Name)
	}
	if c.Recommendation != model.RecIncreaseBudget || c.RecommendationPercentage != 15 {
		t.Errorf("campaign recommendation = %q/%d", c.Recommendation, c.RecommendationPercentage)
	}
	if c.Adsets[0].Profit != -30 {
		t.Errorf("profit = %.2f, want -30 (trusted from upstream)", c.Adsets[0].Profit)
	}
	if c.Adsets[0].CampaignName != "Spring Sale" {
		t.Errorf("adset campaign name = %q, want fallback to campaign name", c.Adsets[0].CampaignName)
	}

	a2 := c.Adsets[1]
	if a2.Recommendation != model.RecUnderObservation {
		t.Errorf("legacy spelling parsed as %q", a2.Recommendation)
	}
	if a2.Cost != 12.5 {
		t.Errorf("numeric string cost = %.2f, want 12.5", a2.Cost)
	}
	if a2.Clicks != 0 || a2.Revenue != 0 {
		t.Errorf("missing/null numerics should be zero, got clicks=%d revenue=%.2f", a2.Clicks, a2.Revenue)
	}

	b1 := snap.Campaigns[1].Adsets[0]
	if b1.Recommendation != "SOMETHING_NEW" || b1.Recommendation.Known() {
		t.Errorf("unknown recommendation should be kept verbatim, got %q", b1.Recommendation)
	}
	if b1.Recommendation.Severity() != model.SeverityNeutral {
		t.Errorf("unknown recommendation severity = %v, want neutral", b1.Recommendation.Severity())
	}
	if b1.ConversionRate != 1.7 {
		t.Errorf("conversion rate must not be clamped, got %.2f", b1.ConversionRate)
	}
	if b1.Clicks != 0 {
		t.Errorf("negative clicks = %d, want 0", b1.Clicks)
	}

	want := map[int]int{1: 2, 3: 1}
	if !reflect.DeepEqual(snap.Summary.PriorityDistribution, want) {
		t.Errorf("priority distribution = %v, want %v", snap.Summary.PriorityDistribution, want)
	}
	if snap.Summary.TotalClicks != 900 || snap.Summary.AverageROI != 24.48 {
		t.Errorf("summary = %+v", snap.Summary)
	}
}

func TestNormalize_ServiceFailureKeepsExactMessage(t *testing.T) {
	res := Normalize([]byte(`{"success": false, "error": "upstream timeout: prediction run 42", "data": [{"id": 1}]}`))
	if res.Snapshot != nil {
		t.Fatal("failure must not carry campaign data")
	}
	var se *ServiceError
	if !errors.As(res.Err, &se) {
		t.Fatalf("err = %v, want *ServiceError", res.Err)
	}
	if res.Err.Error() != "upstream timeout: prediction run 42" {
		t.Errorf("message = %q", res.Err.Error())
	}
}

func TestNormalize_ServiceFailureWithoutMessage(t *testing.T) {
	res := Normalize([]byte(`{"success": false}`))
	if res.Err == nil || res.Err.Error() != defaultFailure {
		t.Fatalf("err = %v, want default failure text", res.Err)
	}
}

func TestNormalize_EmptyDataIsNotAnError(t *testing.T) {
	for _, body := range []string{
		`{"success": true, "data": []}`,
		`{"success": true}`,
		`{"success": true, "data": null, "summary": null}`,
	} {
		res := Normalize([]byte(body))
		if !res.OK() {
			t.Fatalf("%s: unexpected error %v", body, res.Err)
		}
		if !res.Snapshot.Empty() {
			t.Errorf("%s: snapshot should be empty", body)
		}
	}
}

func TestNormalize_Malformed(t *testing.T) {
	cases := []string{
		``,
		`[]`,
		`not json`,
		`{"success": true, "data": {"id": 1}}`,
		`{"success": true, "data": [], "summary": [1, 2]}`,
		`{"success": true, "data": [{"adset": "nope"}]}`,
	}
	for _, body := range cases {
		res := Normalize([]byte(body))
		if !errors.Is(res.Err, ErrMalformed) {
			t.Errorf("%q: err = %v, want ErrMalformed", body, res.Err)
		}
	}
}

func TestNormalize_DuplicateCampaignIDsMerge(t *testing.T) {
	body := `{"success": true, "data": [
		{"id": "c1", "sub_id_6": "One", "adset": [{"sub_id_2": "x"}]},
		{"id": "c2", "sub_id_6": "Two", "adset": [{"sub_id_2": "y"}]},
		{"id": "c1", "sub_id_6": "One again", "adset": [{"sub_id_2": "z"}]},
		{"sub_id_3": "k9", "adset": [{"sub_id_2": "w"}]}
	]}`
	res := Normalize([]byte(body))
	if !res.OK() {
		t.Fatalf("unexpected error: %v", res.Err)
	}

	seenCampaign := map[string]bool{}
	seenAdset := map[string]int{}
	for _, c := range res.Snapshot.Campaigns {
		if seenCampaign[c.ID] {
			t.Fatalf("campaign id %q rendered twice", c.ID)
		}
		seenCampaign[c.ID] = true
		for _, a := range c.Adsets {
			seenAdset[a.ID]++
		}
	}
	for _, id := range []string{"x", "y", "z", "w"} {
		if seenAdset[id] != 1 {
			t.Errorf("adset %q appears %d times, want 1", id, seenAdset[id])
		}
	}
	if first := res.Snapshot.Campaigns[0]; len(first.Adsets) != 2 {
		t.Errorf("merged campaign has %d adsets, want 2", len(first.Adsets))
	}
	if last := res.Snapshot.Campaigns[2]; last.ID != "k9" {
		t.Errorf("empty id should fall back to external key, got %q", last.ID)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	a := Normalize([]byte(samplePayload))
	b := Normalize([]byte(samplePayload))
	if !reflect.DeepEqual(a, b) {
		t.Fatal("normalizing the same payload twice produced different trees")
	}
}

func TestNormalize_OutOfRangeNumbersClamp(t *testing.T) {
	body := `{"success": true, "data": [
		{"id": "c1", "recommendation": "INCREASE_BUDGET", "recommendation_percentage": 1e300, "total_clicks": 1e300, "adset": [
			{"sub_id_2": "a1", "priority": -1e300, "clicks": "9e99"}
		]}
	]}`
	res := Normalize([]byte(body))
	if !res.OK() {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	c := res.Snapshot.Campaigns[0]
	if c.RecommendationPercentage != math.MaxInt32 {
		t.Errorf("recommendation percentage = %d, want %d", c.RecommendationPercentage, math.MaxInt32)
	}
	if c.TotalClicks != 1<<53 {
		t.Errorf("total clicks = %d, want %d", c.TotalClicks, int64(1<<53))
	}
	a := c.Adsets[0]
	if a.Priority != math.MinInt32 {
		t.Errorf("priority = %d, want %d", a.Priority, math.MinInt32)
	}
	if a.Clicks != 1<<53 {
		t.Errorf("clicks = %d, want %d", a.Clicks, int64(1<<53))
	}
	if again := Normalize([]byte(body)); !reflect.DeepEqual(res, again) {
		t.Fatal("clamped normalization is not deterministic")
	}
}

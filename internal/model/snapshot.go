// Package model defines the typed recommendation snapshot shown by adrec.
package model

import (
	"sort"
	"time"
)

// Summary holds aggregate totals over the snapshot window.
type Summary struct {
	TotalCost             float64
	TotalRevenue          float64
	TotalProfit           float64
	TotalClicks           int64
	TotalConversions      int64
	AverageROI            float64 // percentage points (x100)
	AverageConversionRate float64 // fraction
	PriorityDistribution  map[int]int
}

// PriorityCount is one entry of the priority distribution.
type PriorityCount struct {
	Priority int
	Count    int
}

// Priorities returns the distribution sorted most urgent (lowest) first.
func (s Summary) Priorities() []PriorityCount {
	out := make([]PriorityCount, 0, len(s.PriorityDistribution))
	for p, c := range s.PriorityDistribution {
		out = append(out, PriorityCount{Priority: p, Count: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out
}

// Campaign groups adsets sharing a budget and identity.
type Campaign struct {
	ID          string // stable identifier, unique within a snapshot
	ExternalKey string // sub_id_3, used to address the budget endpoint
	Name        string // sub_id_6
	Day         string // optional reporting date

	Recommendation           Recommendation
	RecommendationPercentage int // meaningful only for RecIncreaseBudget

	TotalCost           float64
	TotalRevenue        float64
	TotalProfit         float64
	TotalClicks         int64
	TotalCPC            float64
	TotalROI            float64
	TotalConversionRate float64
	Geo                 string
	Country             string

	Adsets []Adset
}

// HasBudgetAction reports whether the budget workflow applies to this campaign.
func (c Campaign) HasBudgetAction() bool {
	return c.Recommendation == RecIncreaseBudget
}

// Adset is the unit recommendations and actions apply to.
type Adset struct {
	ID             string // sub_id_2, used to address the pause endpoint
	Name           string // sub_id_5
	CampaignName   string
	Recommendation Recommendation
	Reason         string
	Suggestion     string

	Cost           float64
	Revenue        float64
	Profit         float64 // trusted from upstream, not re-derived
	Clicks         int64
	CPC            float64
	CPCRate        CPCTier
	Geo            string
	Country        string
	ConversionRate float64 // fraction, not clamped
	ROIConfirmed   float64 // percentage points (x100)
	Priority       int
}

// Snapshot is one normalized response of the recommendation service.
type Snapshot struct {
	Summary   Summary
	Campaigns []Campaign
	FetchedAt time.Time
	HoursBack int
}

// Empty reports whether the snapshot has nothing to render.
func (s *Snapshot) Empty() bool {
	return s == nil || len(s.Campaigns) == 0
}

// CampaignByID returns the campaign with the given id.
func (s *Snapshot) CampaignByID(id string) (Campaign, bool) {
	if s == nil {
		return Campaign{}, false
	}
	for _, c := range s.Campaigns {
		if c.ID == id {
			return c, true
		}
	}
	return Campaign{}, false
}

// CampaignByKey returns the campaign with the given external key.
func (s *Snapshot) CampaignByKey(key string) (Campaign, bool) {
	if s == nil {
		return Campaign{}, false
	}
	for _, c := range s.Campaigns {
		if c.ExternalKey == key {
			return c, true
		}
	}
	return Campaign{}, false
}

// FindAdset returns the adset with the given id and its parent campaign.
func (s *Snapshot) FindAdset(id string) (Adset, Campaign, bool) {
	if s == nil {
		return Adset{}, Campaign{}, false
	}
	for _, c := range s.Campaigns {
		for _, a := range c.Adsets {
			if a.ID == id {
				return a, c, true
			}
		}
	}
	return Adset{}, Campaign{}, false
}

// AdsetCount returns the number of adsets across all campaigns.
func (s *Snapshot) AdsetCount() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, c := range s.Campaigns {
		n += len(c.Adsets)
	}
	return n
}

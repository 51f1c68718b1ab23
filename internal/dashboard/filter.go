package dashboard

import "github.com/theirongolddev/adrec/internal/model"

// Filter selects which recommendation is shown. The zero value shows all.
type Filter struct {
	rec model.Recommendation
}

// NewFilter returns a filter for rec; an empty rec means no filter.
func NewFilter(rec model.Recommendation) Filter {
	return Filter{rec: rec}
}

// Recommendation returns the selected value, or "" when unfiltered.
func (f Filter) Recommendation() model.Recommendation { return f.rec }

// Active reports whether a recommendation is selected.
func (f Filter) Active() bool { return f.rec != "" }

// Label returns the text for the filter bar.
func (f Filter) Label() string {
	if !f.Active() {
		return "All"
	}
	return f.rec.Label()
}

// Matches reports whether an adset passes the filter.
func (f Filter) Matches(a model.Adset) bool {
	return !f.Active() || a.Recommendation == f.rec
}

// filterCycle is "no filter" followed by every known recommendation.
var filterCycle = append([]model.Recommendation{""}, model.Recommendations...)

// Next returns the filter after f in the cycle All -> PAUSE -> ... -> REVIEW -> All.
// A filter on an unknown value moves back to All.
func (f Filter) Next() Filter {
	return Filter{rec: filterCycle[(f.cycleIndex()+1)%len(filterCycle)]}
}

// Prev returns the filter before f in the cycle.
func (f Filter) Prev() Filter {
	i := f.cycleIndex()
	if i < 0 {
		i = 0
	}
	return Filter{rec: filterCycle[(i-1+len(filterCycle))%len(filterCycle)]}
}

func (f Filter) cycleIndex() int {
	for i, r := range filterCycle {
		if r == f.rec {
			return i
		}
	}
	return -1
}

// Visible applies f to the snapshot's campaigns. Campaigns left with no
// adsets are dropped. The snapshot is never modified; matching campaigns are
// shallow copies with their own adset slices.
func Visible(snap *model.Snapshot, f Filter) []model.Campaign {
	if snap == nil {
		return nil
	}

	out := make([]model.Campaign, 0, len(snap.Campaigns))
	for _, c := range snap.Campaigns {
		var adsets []model.Adset
		for _, a := range c.Adsets {
			if f.Matches(a) {
				adsets = append(adsets, a)
			}
		}
		if len(adsets) == 0 {
			continue
		}
		view := c
		view.Adsets = adsets
		out = append(out, view)
	}
	return out
}

// FilterCounts returns, per recommendation, how many adsets carry it.
// The "" key holds the total.
func FilterCounts(snap *model.Snapshot) map[model.Recommendation]int {
	counts := make(map[model.Recommendation]int)
	if snap == nil {
		return counts
	}
	for _, c := range snap.Campaigns {
		for _, a := range c.Adsets {
			counts[a.Recommendation]++
			counts[""]++
		}
	}
	return counts
}

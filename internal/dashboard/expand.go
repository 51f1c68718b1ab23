package dashboard

import "github.com/theirongolddev/adrec/internal/model"

// Expansion counts accepted for the initial expand-first-N rule.
const (
	ExpandTwo  = 2
	ExpandFour = 4
)

// Expansion tracks which campaign groups are open. It is keyed by campaign id
// and never looks at the filter, so filter changes cannot open or close groups.
type Expansion struct {
	open    map[string]struct{}
	initial int
	seeded  bool
}

// NewExpansion returns an empty expansion set that opens the first n
// campaigns of the first snapshot. n must be 2 or 4; anything else means 2.
func NewExpansion(n int) *Expansion {
	if n != ExpandTwo && n != ExpandFour {
		n = ExpandTwo
	}
	return &Expansion{open: make(map[string]struct{}), initial: n}
}

// Seed applies the initial expansion the first time it is called.
// Later calls are ignored so operator choices survive refreshes.
func (e *Expansion) Seed(snap *model.Snapshot) {
	if e.seeded || snap == nil {
		return
	}
	e.seeded = true
	for i, c := range snap.Campaigns {
		if i >= e.initial {
			break
		}
		e.open[c.ID] = struct{}{}
	}
}

// Seeded reports whether the initial expansion has been applied.
func (e *Expansion) Seeded() bool { return e.seeded }

// IsOpen reports whether the campaign is expanded.
func (e *Expansion) IsOpen(id string) bool {
	_, ok := e.open[id]
	return ok
}

// Toggle flips one campaign and returns its new state.
func (e *Expansion) Toggle(id string) bool {
	if e.IsOpen(id) {
		delete(e.open, id)
		return false
	}
	e.open[id] = struct{}{}
	return true
}

// Expand opens one campaign.
func (e *Expansion) Expand(id string) { e.open[id] = struct{}{} }

// Collapse closes one campaign.
func (e *Expansion) Collapse(id string) { delete(e.open, id) }

// ExpandAll opens every campaign in campaigns.
func (e *Expansion) ExpandAll(campaigns []model.Campaign) {
	for _, c := range campaigns {
		e.open[c.ID] = struct{}{}
	}
}

// CollapseAll closes every group, including ids no longer in any snapshot.
func (e *Expansion) CollapseAll() {
	e.open = make(map[string]struct{})
}

// IDs returns the open ids (unordered copy).
func (e *Expansion) IDs() []string {
	ids := make([]string, 0, len(e.open))
	for id := range e.open {
		ids = append(ids, id)
	}
	return ids
}

// Len returns how many ids are open.
func (e *Expansion) Len() int { return len(e.open) }

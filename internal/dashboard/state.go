// Package dashboard holds the session state of the recommendation view:
// the current snapshot, filter and expansion, the budget and pause
// workflows, and refresh ordering.
package dashboard

import (
	"sort"
	"time"

	"github.com/theirongolddev/adrec/internal/model"
	"github.com/theirongolddev/adrec/internal/snapshot"
)

// Phase is the view outcome of the latest applied fetch.
type Phase int

// Phases.
const (
	PhaseLoading Phase = iota
	PhaseError
	PhaseReady
)

func (p Phase) String() string {
	switch p {
	case PhaseError:
		return "error"
	case PhaseReady:
		return "ready"
	default:
		return "loading"
	}
}

// State is owned by a single consumer and is not safe for concurrent use.
type State struct {
	phase Phase
	snap  *model.Snapshot
	err   error

	Filter     Filter
	SortUrgent bool
	Expansion  *Expansion
	Scheduler  *Scheduler
	Pause      PauseGuard
	Budget     *BudgetWorkflow
	Notice     Notice
}

// Options configures a new State.
type Options struct {
	ExpandCount     int
	RefreshInterval time.Duration
	Filter          model.Recommendation
}

// NewState returns a state in the loading phase.
func NewState(opts Options) *State {
	return &State{
		Filter:    NewFilter(opts.Filter),
		Expansion: NewExpansion(opts.ExpandCount),
		Scheduler: NewScheduler(opts.RefreshInterval),
	}
}

// Phase returns the current phase.
func (s *State) Phase() Phase { return s.phase }

// Snapshot returns the applied snapshot, or nil unless the phase is ready.
func (s *State) Snapshot() *model.Snapshot { return s.snap }

// Err returns the fetch error shown in the error phase.
func (s *State) Err() error { return s.err }

// BeginFetch starts a fetch and returns the sequence number to hand back to Apply.
func (s *State) BeginFetch(now time.Time) uint64 {
	return s.Scheduler.Begin(now)
}

// Apply installs the result of fetch seq. Stale results and results arriving
// after Stop are dropped; Apply reports whether the state changed.
// A failed fetch replaces the view with the error.
func (s *State) Apply(seq uint64, r snapshot.Result) bool {
	if !s.Scheduler.Accept(seq) {
		return false
	}
	if r.Err != nil || r.Snapshot == nil {
		s.phase = PhaseError
		s.snap = nil
		s.err = r.Err
		if s.err == nil {
			s.err = snapshot.ErrMalformed
		}
		return true
	}
	s.phase = PhaseReady
	s.snap = r.Snapshot
	s.err = nil
	s.Expansion.Seed(r.Snapshot)
	return true
}

// Stop tears the state down. Any response still in flight becomes a no-op.
func (s *State) Stop() { s.Scheduler.Stop() }

// SetFilter changes the filter. Expansion is not touched.
func (s *State) SetFilter(f Filter) { s.Filter = f }

// Visible returns the campaigns to render under the current filter and sort.
func (s *State) Visible() []model.Campaign {
	out := Visible(s.snap, s.Filter)
	if s.SortUrgent {
		SortByPriority(out)
	}
	return out
}

// SetNotice shows a transient notice.
func (s *State) SetNotice(kind NoticeKind, text string, now time.Time) {
	s.Notice = NewNotice(kind, text, now)
}

// DismissNotice hides the current notice.
func (s *State) DismissNotice() { s.Notice = Notice{} }

// OpenBudget starts the budget workflow for the campaign with the given id.
func (s *State) OpenBudget(campaignID string) (*BudgetWorkflow, error) {
	if s.snap == nil {
		return nil, ErrNoBudgetAction
	}
	c, ok := s.snap.CampaignByID(campaignID)
	if !ok {
		return nil, ErrNoBudgetAction
	}
	wf, err := BudgetFor(c)
	if err != nil {
		return nil, err
	}
	s.Budget = wf
	return wf, nil
}

// CloseBudget abandons the budget workflow.
func (s *State) CloseBudget() { s.Budget = nil }

// SortByPriority orders adsets inside each campaign most urgent (lowest
// priority) first, then campaigns by their most urgent adset. A missing
// priority (0) sorts last. Ties keep snapshot order.
func SortByPriority(campaigns []model.Campaign) {
	for i := range campaigns {
		adsets := append([]model.Adset(nil), campaigns[i].Adsets...)
		sort.SliceStable(adsets, func(a, b int) bool {
			return rank(adsets[a].Priority) < rank(adsets[b].Priority)
		})
		campaigns[i].Adsets = adsets
	}
	sort.SliceStable(campaigns, func(a, b int) bool {
		return topPriority(campaigns[a]) < topPriority(campaigns[b])
	})
}

func topPriority(c model.Campaign) int {
	if len(c.Adsets) == 0 {
		return int(^uint(0) >> 1)
	}
	best := rank(c.Adsets[0].Priority)
	for _, a := range c.Adsets[1:] {
		if r := rank(a.Priority); r < best {
			best = r
		}
	}
	return best
}

func rank(p int) int {
	if p <= 0 {
		return int(^uint(0) >> 1)
	}
	return p
}

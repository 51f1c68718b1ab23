package dashboard

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/theirongolddev/adrec/internal/model"
	"github.com/theirongolddev/adrec/internal/snapshot"
)

func testSnapshot() *model.Snapshot {
	return &model.Snapshot{
		Summary: model.Summary{PriorityDistribution: map[int]int{}},
		Campaigns: []model.Campaign{
			{ID: "c1", ExternalKey: "k1", Name: "One", Recommendation: model.RecIncreaseBudget, RecommendationPercentage: 5, Adsets: []model.Adset{
				{ID: "a1", Recommendation: model.RecPause, Priority: 3},
				{ID: "a2", Recommendation: model.RecMonitor, Priority: 1},
			}},
			{ID: "c2", ExternalKey: "k2", Name: "Two", Adsets: []model.Adset{
				{ID: "b1", Recommendation: model.RecMonitor, Priority: 2},
			}},
			{ID: "c3", ExternalKey: "k3", Name: "Three", Adsets: []model.Adset{
				{ID: "d1", Recommendation: model.RecPause},
				{ID: "d2", Recommendation: model.RecPause, Priority: 4},
			}},
		},
	}
}

func TestVisible_FilterHidesCampaignsWithoutMatches(t *testing.T) {
	snap := testSnapshot()
	got := Visible(snap, NewFilter(model.RecPause))

	if len(got) != 2 {
		t.Fatalf("visible campaigns = %d, want 2", len(got))
	}
	if got[0].ID != "c1" || got[1].ID != "c3" {
		t.Fatalf("visible ids = [%s %s], want [c1 c3]", got[0].ID, got[1].ID)
	}
	if len(got[0].Adsets) != 1 || got[0].Adsets[0].ID != "a1" {
		t.Fatalf("c1 adsets = %+v, want only a1", got[0].Adsets)
	}
	if len(snap.Campaigns[0].Adsets) != 2 {
		t.Fatal("filtering mutated the snapshot")
	}
}

func TestVisible_NoFilterShowsEverything(t *testing.T) {
	got := Visible(testSnapshot(), Filter{})
	if len(got) != 3 {
		t.Fatalf("visible campaigns = %d, want 3", len(got))
	}
	if Visible(nil, Filter{}) != nil {
		t.Fatal("nil snapshot should yield nil")
	}
}

func TestFilterCycle(t *testing.T) {
	f := Filter{}
	seen := map[model.Recommendation]bool{}
	for range len(model.Recommendations) + 1 {
		seen[f.Recommendation()] = true
		f = f.Next()
	}
	if f.Active() {
		t.Fatalf("cycle did not return to All, got %q", f.Recommendation())
	}
	if len(seen) != len(model.Recommendations)+1 {
		t.Fatalf("cycle visited %d values, want %d", len(seen), len(model.Recommendations)+1)
	}
	if got := (Filter{}).Prev().Recommendation(); got != model.Recommendations[len(model.Recommendations)-1] {
		t.Fatalf("Prev from All = %q", got)
	}
	if NewFilter("LEGACY").Next().Active() {
		t.Fatal("unknown filter should move back to All")
	}
}

func TestFilterCounts(t *testing.T) {
	counts := FilterCounts(testSnapshot())
	if counts[""] != 5 {
		t.Fatalf("total = %d, want 5", counts[""])
	}
	if counts[model.RecPause] != 3 {
		t.Fatalf("PAUSE = %d, want 3", counts[model.RecPause])
	}
}

func TestExpansion_SeedOnlyOnce(t *testing.T) {
	e := NewExpansion(ExpandTwo)
	snap := testSnapshot()
	e.Seed(snap)
	if !e.IsOpen("c1") || !e.IsOpen("c2") || e.IsOpen("c3") {
		t.Fatalf("seeded ids = %v, want c1 and c2", e.IDs())
	}

	e.Collapse("c1")
	e.Seed(snap)
	if e.IsOpen("c1") {
		t.Fatal("second Seed reopened a collapsed campaign")
	}
}

func TestExpansion_InvalidCountFallsBackToTwo(t *testing.T) {
	e := NewExpansion(7)
	e.Seed(testSnapshot())
	if e.Len() != 2 {
		t.Fatalf("open = %d, want 2", e.Len())
	}

	four := NewExpansion(ExpandFour)
	four.Seed(testSnapshot())
	if four.Len() != 3 {
		t.Fatalf("open = %d, want all 3 campaigns", four.Len())
	}
}

func TestExpansion_Toggle(t *testing.T) {
	e := NewExpansion(ExpandTwo)
	if !e.Toggle("x") {
		t.Fatal("first toggle should open")
	}
	if e.Toggle("x") {
		t.Fatal("second toggle should close")
	}
	e.ExpandAll(testSnapshot().Campaigns)
	if e.Len() != 3 {
		t.Fatalf("ExpandAll open = %d, want 3", e.Len())
	}
	e.CollapseAll()
	if e.Len() != 0 {
		t.Fatalf("CollapseAll open = %d, want 0", e.Len())
	}
}

func TestFilterChangeKeepsExpansion(t *testing.T) {
	s := NewState(Options{ExpandCount: ExpandTwo})
	seq := s.BeginFetch(time.Now())
	s.Apply(seq, snapshot.Result{Snapshot: testSnapshot()})
	s.Expansion.Toggle("c3")

	before := s.Expansion.Len()
	s.SetFilter(NewFilter(model.RecMonitor))
	s.SetFilter(s.Filter.Next())
	s.SetFilter(Filter{})

	if s.Expansion.Len() != before {
		t.Fatalf("expansion changed from %d to %d", before, s.Expansion.Len())
	}
	for _, id := range []string{"c1", "c2", "c3"} {
		if !s.Expansion.IsOpen(id) {
			t.Fatalf("%s closed by a filter change", id)
		}
	}
}

func TestBudget_DirectionAvailability(t *testing.T) {
	wf := NewBudgetWorkflow("k1", model.RecIncreaseBudget, 5)
	wf.Decrement()
	wf.Decrement()
	if wf.Counter() != 3 {
		t.Fatalf("counter = %d, want 3", wf.Counter())
	}
	if !wf.CanDecrease() || wf.CanIncrease() {
		t.Fatalf("at 3/5: decrease=%v increase=%v, want true/false", wf.CanDecrease(), wf.CanIncrease())
	}

	wf.Increment()
	wf.Increment()
	if wf.CanDecrease() || !wf.CanIncrease() {
		t.Fatalf("at 5/5: decrease=%v increase=%v, want false/true", wf.CanDecrease(), wf.CanIncrease())
	}
}

func TestBudget_OptimizeAtZeroOffersBoth(t *testing.T) {
	wf := NewBudgetWorkflow("k", model.RecOptimize, 0)
	if !wf.CanDecrease() || !wf.CanIncrease() {
		t.Fatalf("decrease=%v increase=%v, want both", wf.CanDecrease(), wf.CanIncrease())
	}
}

func TestBudget_NegativeInitialOffersDecreaseOnly(t *testing.T) {
	wf := NewBudgetWorkflow("k", model.RecIncreaseBudget, -3)
	wf.SetCounter(20)
	if !wf.CanDecrease() || wf.CanIncrease() {
		t.Fatalf("decrease=%v increase=%v, want true/false", wf.CanDecrease(), wf.CanIncrease())
	}
}

func TestBudget_Multiplier(t *testing.T) {
	wf := NewBudgetWorkflow("k", model.RecIncreaseBudget, 10)
	if got := wf.Multiplier(Increase); math.Abs(got-1.10) > 1e-9 {
		t.Fatalf("increase multiplier = %v, want 1.10", got)
	}
	if got := wf.Multiplier(Decrease); math.Abs(got-0.90) > 1e-9 {
		t.Fatalf("decrease multiplier = %v, want 0.90", got)
	}
}

func TestBudget_SubmissionRejectsUnofferedDirection(t *testing.T) {
	wf := NewBudgetWorkflow("k", model.RecIncreaseBudget, 5)
	if _, err := wf.Submission(Decrease); !errors.Is(err, ErrDirectionUnavailable) {
		t.Fatalf("err = %v, want ErrDirectionUnavailable", err)
	}
	m, err := wf.Submission(Increase)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(m-1.05) > 1e-9 {
		t.Fatalf("multiplier = %v, want 1.05", m)
	}
}

func TestBudgetFor_RequiresIncreaseBudget(t *testing.T) {
	snap := testSnapshot()
	if _, err := BudgetFor(snap.Campaigns[1]); !errors.Is(err, ErrNoBudgetAction) {
		t.Fatalf("err = %v, want ErrNoBudgetAction", err)
	}
	wf, err := BudgetFor(snap.Campaigns[0])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wf.CampaignKey != "k1" || wf.Initial() != 5 || wf.Counter() != 5 {
		t.Fatalf("workflow = %+v", wf)
	}
}

func TestPauseGuard_LastSelectWins(t *testing.T) {
	var g PauseGuard
	g.Select("a1")
	g.Select("b1")
	if g.Target() != "b1" {
		t.Fatalf("pending = %q, want b1", g.Target())
	}

	var sent []string
	if id, ok := g.Confirm(); ok {
		sent = append(sent, id)
	}
	if _, ok := g.Confirm(); ok {
		t.Fatal("second Confirm should not fire")
	}
	if len(sent) != 1 || sent[0] != "b1" {
		t.Fatalf("sent = %v, want [b1]", sent)
	}
	g.Finish()
	if g.State() != GuardIdle || g.Target() != "" {
		t.Fatalf("after Finish: state=%v target=%q", g.State(), g.Target())
	}
}

func TestPauseGuard_CancelAndIdleConfirm(t *testing.T) {
	var g PauseGuard
	if _, ok := g.Confirm(); ok {
		t.Fatal("Confirm from idle should not fire")
	}
	g.Select("a1")
	g.Cancel()
	if g.State() != GuardIdle {
		t.Fatalf("state = %v, want idle", g.State())
	}
	if _, ok := g.Confirm(); ok {
		t.Fatal("Confirm after Cancel should not fire")
	}
}

func TestPauseGuard_SelectIgnoredWhileExecuting(t *testing.T) {
	var g PauseGuard
	g.Select("a1")
	g.Confirm()
	if g.Select("b1") {
		t.Fatal("Select accepted while executing")
	}
	if g.Target() != "a1" {
		t.Fatalf("target = %q, want a1", g.Target())
	}
}

func TestState_StaleResponseDiscarded(t *testing.T) {
	s := NewState(Options{})
	now := time.Now()
	first := s.BeginFetch(now)
	second := s.BeginFetch(now.Add(time.Second))

	newer := testSnapshot()
	newer.HoursBack = 48
	if !s.Apply(second, snapshot.Result{Snapshot: newer}) {
		t.Fatal("newest response rejected")
	}
	if s.Apply(first, snapshot.Result{Snapshot: testSnapshot()}) {
		t.Fatal("stale response applied")
	}
	if s.Snapshot().HoursBack != 48 {
		t.Fatal("stale response overwrote the newer snapshot")
	}
	if s.Scheduler.InFlight() {
		t.Fatal("in-flight count not released")
	}
}

func TestState_StopMakesApplyNoop(t *testing.T) {
	s := NewState(Options{})
	seq := s.BeginFetch(time.Now())
	s.Stop()
	if s.Apply(seq, snapshot.Result{Snapshot: testSnapshot()}) {
		t.Fatal("Apply after Stop changed state")
	}
	if s.Phase() != PhaseLoading || s.Snapshot() != nil {
		t.Fatalf("phase = %v, want loading", s.Phase())
	}
}

func TestState_ErrorReplacesView(t *testing.T) {
	s := NewState(Options{})
	s.Apply(s.BeginFetch(time.Now()), snapshot.Result{Snapshot: testSnapshot()})

	failure := &snapshot.ServiceError{Message: "model not ready"}
	s.Apply(s.BeginFetch(time.Now()), snapshot.Result{Err: failure})

	if s.Phase() != PhaseError {
		t.Fatalf("phase = %v, want error", s.Phase())
	}
	if s.Snapshot() != nil {
		t.Fatal("error phase still carries campaign data")
	}
	if s.Err().Error() != "model not ready" {
		t.Fatalf("err = %q", s.Err().Error())
	}
}

func TestState_EmptySnapshotIsReady(t *testing.T) {
	s := NewState(Options{})
	s.Apply(s.BeginFetch(time.Now()), snapshot.Normalize([]byte(`{"success":true,"data":[]}`)))
	if s.Phase() != PhaseReady {
		t.Fatalf("phase = %v, want ready", s.Phase())
	}
	if !s.Snapshot().Empty() || s.Err() != nil {
		t.Fatal("empty success should be ready with no data and no error")
	}
}

func TestScheduler_Due(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	s := NewScheduler(time.Hour)
	seq := s.Begin(start)

	if s.Due(start.Add(2 * time.Hour)) {
		t.Fatal("due while a fetch is in flight")
	}
	s.Accept(seq)
	if s.Due(start.Add(30 * time.Minute)) {
		t.Fatal("due before the interval elapsed")
	}
	if !s.Due(start.Add(time.Hour)) {
		t.Fatal("not due after the interval")
	}
	if got := s.NextAt(); !got.Equal(start.Add(time.Hour)) {
		t.Fatalf("NextAt = %v", got)
	}

	s.Stop()
	if s.Due(start.Add(5 * time.Hour)) {
		t.Fatal("due after Stop")
	}
}

func TestScheduler_ZeroIntervalFetchesOnce(t *testing.T) {
	s := NewScheduler(0)
	s.Accept(s.Begin(time.Now()))
	if s.Due(time.Now().Add(100 * time.Hour)) {
		t.Fatal("zero interval should never be due")
	}
	if !s.NextAt().IsZero() {
		t.Fatal("NextAt should be zero when disabled")
	}
}

func TestSortByPriority(t *testing.T) {
	campaigns := Visible(testSnapshot(), Filter{})
	SortByPriority(campaigns)

	if campaigns[0].ID != "c1" || campaigns[1].ID != "c2" || campaigns[2].ID != "c3" {
		t.Fatalf("order = %s %s %s", campaigns[0].ID, campaigns[1].ID, campaigns[2].ID)
	}
	if campaigns[0].Adsets[0].ID != "a2" {
		t.Fatalf("c1 first adset = %s, want a2", campaigns[0].Adsets[0].ID)
	}
	if campaigns[2].Adsets[0].ID != "d2" {
		t.Fatalf("missing priority should sort last, got %s first", campaigns[2].Adsets[0].ID)
	}
}

func TestNotice_Expires(t *testing.T) {
	now := time.Now()
	n := NewNotice(NoticeError, "pause failed", now)
	if !n.Live(now) {
		t.Fatal("fresh notice not live")
	}
	if n.Live(now.Add(NoticeTTL)) {
		t.Fatal("notice live after TTL")
	}
	if (Notice{}).Live(now) {
		t.Fatal("zero notice live")
	}
}

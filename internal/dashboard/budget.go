package dashboard

import (
	"errors"
	"fmt"

	"github.com/theirongolddev/adrec/internal/model"
)

var (
	// ErrNoBudgetAction indicates the campaign is not eligible for a budget change.
	ErrNoBudgetAction = errors.New("budget change is only offered for INCREASE_BUDGET recommendations")
	// ErrDirectionUnavailable indicates the requested direction is not offered
	// for the current counter.
	ErrDirectionUnavailable = errors.New("budget direction not offered for the current count")
)

// Direction is the way a budget submission moves the budget.
type Direction int

// Budget directions.
const (
	Increase Direction = iota
	Decrease
)

func (d Direction) String() string {
	if d == Decrease {
		return "decrease"
	}
	return "increase"
}

// BudgetWorkflow is the counter behind the budget modal for one campaign.
type BudgetWorkflow struct {
	CampaignKey    string
	CampaignName   string
	Recommendation model.Recommendation

	initial int
	counter int
}

// NewBudgetWorkflow starts a workflow at the given strength percentage.
func NewBudgetWorkflow(campaignKey string, rec model.Recommendation, initial int) *BudgetWorkflow {
	return &BudgetWorkflow{
		CampaignKey:    campaignKey,
		Recommendation: rec,
		initial:        initial,
		counter:        initial,
	}
}

// BudgetFor opens a workflow for a campaign. Only INCREASE_BUDGET campaigns
// are eligible.
func BudgetFor(c model.Campaign) (*BudgetWorkflow, error) {
	if !c.HasBudgetAction() {
		return nil, fmt.Errorf("campaign %s: %w", c.ExternalKey, ErrNoBudgetAction)
	}
	wf := NewBudgetWorkflow(c.ExternalKey, c.Recommendation, c.RecommendationPercentage)
	wf.CampaignName = c.Name
	return wf, nil
}

// Initial returns the count the workflow started at.
func (w *BudgetWorkflow) Initial() int { return w.initial }

// Counter returns the current count.
func (w *BudgetWorkflow) Counter() int { return w.counter }

// Increment raises the counter by one. There is no upper bound.
func (w *BudgetWorkflow) Increment() { w.counter++ }

// Decrement lowers the counter by one. There is no lower bound.
func (w *BudgetWorkflow) Decrement() { w.counter-- }

// SetCounter replaces the counter with a typed value.
func (w *BudgetWorkflow) SetCounter(n int) { w.counter = n }

// CanDecrease reports whether the decrease action is offered.
func (w *BudgetWorkflow) CanDecrease() bool {
	return w.counter < w.initial ||
		w.initial < 0 ||
		(w.Recommendation == model.RecOptimize && w.initial == 0)
}

// CanIncrease reports whether the increase action is offered.
func (w *BudgetWorkflow) CanIncrease() bool {
	return w.counter >= w.initial && w.initial >= 0
}

// Offered reports whether d is currently offered.
func (w *BudgetWorkflow) Offered(d Direction) bool {
	if d == Decrease {
		return w.CanDecrease()
	}
	return w.CanIncrease()
}

// Multiplier returns the budget factor for a submission in direction d.
func (w *BudgetWorkflow) Multiplier(d Direction) float64 {
	return Multiplier(w.counter, d)
}

// Submission validates d and returns the multiplier to send.
func (w *BudgetWorkflow) Submission(d Direction) (float64, error) {
	if !w.Offered(d) {
		return 0, fmt.Errorf("%s at count %d (initial %d): %w", d, w.counter, w.initial, ErrDirectionUnavailable)
	}
	return w.Multiplier(d), nil
}

// Multiplier computes 1 + count/100 for an increase and 1 - count/100 for a decrease.
func Multiplier(count int, d Direction) float64 {
	pct := float64(count) / 100
	if d == Decrease {
		return 1 - pct
	}
	return 1 + pct
}

package model

import "strings"

// Recommendation is the action the recommendation service suggests for a
// campaign or adset. Values outside the known set are kept verbatim.
type Recommendation string

// Known recommendation values.
const (
	RecPause            Recommendation = "PAUSE"
	RecRestructure      Recommendation = "RESTRUCTURE"
	RecUnderObservation Recommendation = "UNDER_OBSERVATION"
	RecMonitor          Recommendation = "MONITOR"
	RecOptimize         Recommendation = "OPTIMIZE"
	RecIncreaseBudget   Recommendation = "INCREASE_BUDGET"
	RecKeepRunning      Recommendation = "KEEP_RUNNING"
	RecReview           Recommendation = "REVIEW"
)

// Recommendations lists the known values in display order.
var Recommendations = []Recommendation{
	RecPause,
	RecRestructure,
	RecUnderObservation,
	RecMonitor,
	RecOptimize,
	RecIncreaseBudget,
	RecKeepRunning,
	RecReview,
}

// ParseRecommendation normalizes a raw recommendation string.
// Surrounding whitespace is trimmed, case is folded, and inner spaces become
// underscores ("UNDER OBSERVATION" -> UNDER_OBSERVATION). Unknown values are
// returned as-is (trimmed) so they can still be displayed.
func ParseRecommendation(s string) Recommendation {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	norm := strings.ToUpper(strings.Join(strings.Fields(s), "_"))
	for _, r := range Recommendations {
		if string(r) == norm {
			return r
		}
	}
	return Recommendation(s)
}

// Known reports whether r is one of the enumerated values.
func (r Recommendation) Known() bool {
	for _, k := range Recommendations {
		if r == k {
			return true
		}
	}
	return false
}

// Label returns the display text, with underscores shown as spaces.
func (r Recommendation) Label() string {
	if r == "" {
		return "-"
	}
	return strings.ReplaceAll(string(r), "_", " ")
}

// Severity groups recommendations for presentation.
type Severity int

// Severity levels. SeverityNeutral is used for unknown or empty values.
const (
	SeverityNeutral Severity = iota
	SeverityDestructive
	SeverityWatch
	SeverityInfo
	SeverityPositive
)

// Severity maps a recommendation to its presentation group.
func (r Recommendation) Severity() Severity {
	switch r {
	case RecPause, RecRestructure:
		return SeverityDestructive
	case RecUnderObservation, RecReview:
		return SeverityWatch
	case RecMonitor:
		return SeverityInfo
	case RecOptimize, RecIncreaseBudget, RecKeepRunning:
		return SeverityPositive
	default:
		return SeverityNeutral
	}
}

// CPCTier classifies an adset's cost-per-click.
type CPCTier string

// Known CPC tiers.
const (
	CPCLow              CPCTier = "LOW"
	CPCStandard         CPCTier = "STANDARD"
	CPCHigh             CPCTier = "HIGH"
	CPCUnderObservation CPCTier = "UNDER_OBSERVATION"
	CPCRestructure      CPCTier = "RESTRUCTURE"
)

// ParseCPCTier normalizes a raw tier string the same way as ParseRecommendation.
func ParseCPCTier(s string) CPCTier {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	norm := CPCTier(strings.ToUpper(strings.Join(strings.Fields(s), "_")))
	switch norm {
	case CPCLow, CPCStandard, CPCHigh, CPCUnderObservation, CPCRestructure:
		return norm
	}
	return CPCTier(s)
}

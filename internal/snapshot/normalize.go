// Package snapshot turns raw recommendation-service payloads into typed snapshots.
package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/theirongolddev/adrec/internal/model"
)

// ErrMalformed indicates a payload that does not have the expected shape.
var ErrMalformed = errors.New("malformed response")

// defaultFailure is shown when the service reports failure without a message.
const defaultFailure = "recommendation service reported a failure"

// ServiceError is the failure reported by the service itself (success=false).
// Error returns the service's message verbatim.
type ServiceError struct {
	Message string
}

func (e *ServiceError) Error() string { return e.Message }

// Result is the outcome of normalizing one payload: exactly one of Snapshot
// and Err is set.
type Result struct {
	Snapshot *model.Snapshot
	Err      error
}

// OK reports whether the result carries a snapshot.
func (r Result) OK() bool { return r.Err == nil && r.Snapshot != nil }

// Normalize decodes and validates a raw payload.
// FetchedAt and HoursBack are left for the caller to fill in so that the same
// bytes always produce identical trees.
func Normalize(body []byte) Result {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return Result{Err: fmt.Errorf("%w: expected a JSON object", ErrMalformed)}
	}

	var raw rawResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return Result{Err: fmt.Errorf("%w: %v", ErrMalformed, err)}
	}

	if !raw.Success {
		msg := string(raw.Error)
		if msg == "" {
			msg = defaultFailure
		}
		return Result{Err: &ServiceError{Message: msg}}
	}

	campaigns, err := decodeCampaigns(raw.Data)
	if err != nil {
		return Result{Err: err}
	}

	summary, err := decodeSummary(raw.Summary)
	if err != nil {
		return Result{Err: err}
	}

	return Result{Snapshot: &model.Snapshot{
		Summary:   summary,
		Campaigns: campaigns,
	}}
}

func isNull(b json.RawMessage) bool {
	b = bytes.TrimSpace(b)
	return len(b) == 0 || bytes.Equal(b, []byte("null"))
}

func decodeSummary(b json.RawMessage) (model.Summary, error) {
	s := model.Summary{PriorityDistribution: map[int]int{}}
	if isNull(b) {
		return s, nil
	}
	if bytes.TrimSpace(b)[0] != '{' {
		return s, fmt.Errorf("%w: summary is not an object", ErrMalformed)
	}

	var raw rawSummary
	if err := json.Unmarshal(b, &raw); err != nil {
		return s, fmt.Errorf("%w: summary: %v", ErrMalformed, err)
	}

	s.TotalCost = float64(raw.TotalCost)
	s.TotalRevenue = float64(raw.TotalRevenue)
	s.TotalProfit = float64(raw.TotalProfit)
	s.TotalClicks = toCount(raw.TotalClicks)
	s.TotalConversions = toCount(raw.TotalConversions)
	s.AverageROI = float64(raw.AverageROI)
	s.AverageConversionRate = float64(raw.AverageConversionRate)

	for k, v := range raw.PriorityDistribution {
		p, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		s.PriorityDistribution[p] += int(toCount(v))
	}
	return s, nil
}

func decodeCampaigns(b json.RawMessage) ([]model.Campaign, error) {
	if isNull(b) {
		return nil, nil
	}
	if bytes.TrimSpace(b)[0] != '[' {
		return nil, fmt.Errorf("%w: data is not an array", ErrMalformed)
	}

	var raws []rawCampaign
	if err := json.Unmarshal(b, &raws); err != nil {
		return nil, fmt.Errorf("%w: data: %v", ErrMalformed, err)
	}

	var out []model.Campaign
	index := make(map[string]int, len(raws))

	for i, rc := range raws {
		c := toCampaign(rc, i)

		// Merge duplicates into the first occurrence so every adset lives
		// under exactly one campaign and ids stay unique.
		if at, dup := index[c.ID]; dup {
			out[at].Adsets = append(out[at].Adsets, c.Adsets...)
			continue
		}
		index[c.ID] = len(out)
		out = append(out, c)
	}
	return out, nil
}

func toCampaign(rc rawCampaign, pos int) model.Campaign {
	c := model.Campaign{
		ID:                       string(rc.ID),
		ExternalKey:              string(rc.SubID3),
		Name:                     string(rc.SubID6),
		Day:                      string(rc.Day),
		Recommendation:           model.ParseRecommendation(string(rc.Recommendation)),
		RecommendationPercentage: toInt(rc.RecommendationPercentage),
		TotalCost:                float64(rc.TotalCost),
		TotalRevenue:             float64(rc.TotalRevenue),
		TotalProfit:              float64(rc.TotalProfit),
		TotalClicks:              toCount(rc.TotalClicks),
		TotalCPC:                 float64(rc.TotalCPC),
		TotalROI:                 float64(rc.TotalROI),
		TotalConversionRate:      float64(rc.TotalConversionRate),
		Geo:                      string(rc.Geo),
		Country:                  string(rc.Country),
	}
	if c.ID == "" {
		c.ID = c.ExternalKey
	}
	if c.ID == "" {
		c.ID = "#" + strconv.Itoa(pos+1)
	}
	if c.Name == "" {
		c.Name = c.ExternalKey
	}

	c.Adsets = make([]model.Adset, 0, len(rc.Adset))
	for _, ra := range rc.Adset {
		c.Adsets = append(c.Adsets, toAdset(ra, c.Name))
	}
	return c
}

func toAdset(ra rawAdset, campaignName string) model.Adset {
	name := string(ra.Campaign)
	if name == "" {
		name = string(ra.SubID6)
	}
	if name == "" {
		name = campaignName
	}

	return model.Adset{
		ID:             string(ra.SubID2),
		Name:           string(ra.SubID5),
		CampaignName:   name,
		Recommendation: model.ParseRecommendation(string(ra.Recommendation)),
		Reason:         string(ra.Reason),
		Suggestion:     string(ra.Suggestion),
		Cost:           float64(ra.Cost),
		Revenue:        float64(ra.Revenue),
		Profit:         float64(ra.Profit),
		Clicks:         toCount(ra.Clicks),
		CPC:            float64(ra.CPC),
		CPCRate:        model.ParseCPCTier(string(ra.CPCRate)),
		Geo:            string(ra.Geo),
		Country:        string(ra.Country),
		ConversionRate: float64(ra.ConversionRate),
		ROIConfirmed:   float64(ra.ROIConfirmed),
		Priority:       toInt(ra.Priority),
	}
}

// Bounds for integer fields. Values outside are clamped before conversion.
const (
	maxSmallInt = math.MaxInt32
	minSmallInt = math.MinInt32
	maxCount    = 1 << 53
)

// toInt rounds to the nearest int within the int32 range.
func toInt(n number) int {
	v := math.Round(float64(n))
	switch {
	case v > maxSmallInt:
		return maxSmallInt
	case v < minSmallInt:
		return minSmallInt
	}
	return int(v)
}

// toCount converts to a non-negative integer count.
func toCount(n number) int64 {
	v := math.Round(float64(n))
	switch {
	case v < 0:
		return 0
	case v > maxCount:
		return maxCount
	}
	return int64(v)
}

package snapshot

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// rawResponse is the wire shape of the recommendation service response.
// data and summary stay raw so their JSON type can be checked before decoding.
type rawResponse struct {
	Success bool            `json:"success"`
	Error   text            `json:"error"`
	Data    json.RawMessage `json:"data"`
	Summary json.RawMessage `json:"summary"`
}

type rawSummary struct {
	TotalCost             number            `json:"total_cost"`
	TotalRevenue          number            `json:"total_revenue"`
	TotalProfit           number            `json:"total_profit"`
	TotalClicks           number            `json:"total_clicks"`
	TotalConversions      number            `json:"total_conversions"`
	AverageROI            number            `json:"average_roi"`
	AverageConversionRate number            `json:"average_conversion_rate"`
	PriorityDistribution  map[string]number `json:"priority_distribution"`
}

type rawCampaign struct {
	ID                       text   `json:"id"`
	SubID3                   text   `json:"sub_id_3"`
	SubID6                   text   `json:"sub_id_6"`
	Day                      text   `json:"day"`
	Recommendation           text   `json:"recommendation"`
	RecommendationPercentage number `json:"recommendation_percentage"`

	TotalCost           number `json:"total_cost"`
	TotalRevenue        number `json:"total_revenue"`
	TotalProfit         number `json:"total_profit"`
	TotalClicks         number `json:"total_clicks"`
	TotalCPC            number `json:"total_cpc"`
	TotalROI            number `json:"total_roi"`
	TotalConversionRate number `json:"total_conversion_rate"`
	Geo                 text   `json:"geo"`
	Country             text   `json:"country"`

	Adset []rawAdset `json:"adset"`
}

type rawAdset struct {
	SubID2         text   `json:"sub_id_2"`
	SubID5         text   `json:"sub_id_5"`
	SubID6         text   `json:"sub_id_6"`
	Campaign       text   `json:"campaign"`
	Recommendation text   `json:"recommendation"`
	Reason         text   `json:"reason"`
	Suggestion     text   `json:"suggestion"`
	Cost           number `json:"cost"`
	Revenue        number `json:"revenue"`
	Profit         number `json:"profit"`
	Clicks         number `json:"clicks"`
	CPC            number `json:"cpc"`
	CPCRate        text   `json:"cpc_rate"`
	Geo            text   `json:"geo"`
	Country        text   `json:"country"`
	ConversionRate number `json:"conversion_rate"`
	ROIConfirmed   number `json:"roi_confirmed"`
	Priority       number `json:"priority"`
}

// number decodes JSON numbers, numeric strings ("12.5", "40%") and null.
// Anything unparseable, NaN or infinite becomes 0 so formatting never fails.
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	*n = 0
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}

	var f float64
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "%")
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		f = v
	} else if err := json.Unmarshal(b, &f); err != nil {
		return nil
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	*n = number(f)
	return nil
}

// text decodes JSON strings, and keeps the literal form of numbers and
// booleans (ids are sometimes sent as numbers). null and composites become "".
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	*t = ""
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err == nil {
			*t = text(strings.TrimSpace(s))
		}
	case '{', '[', 'n':
	default:
		*t = text(b)
	}
	return nil
}

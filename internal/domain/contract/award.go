// Package contract defines procurement award records and their per-location summary.
package contract

import (
	"time"

	"github.com/shopspring/decimal"
)

// Award is one procurement award record. A nil AwardAmount means the upstream
// value was missing or null.
type Award struct {
	AwardID               string           `json:"award_id"`
	RecipientName         string           `json:"recipient_name"`
	AwardAmount           *decimal.Decimal `json:"award_amount"`
	StartDate             string           `json:"start_date,omitempty"`
	EndDate               string           `json:"end_date,omitempty"`
	PlaceOfPerformanceZip string           `json:"place_of_performance_zip,omitempty"`
	Description           string           `json:"description,omitempty"`
	AwardingAgency        string           `json:"awarding_agency,omitempty"`
	FundingAgency         string           `json:"funding_agency,omitempty"`
}

// TimeWindow bounds the award period searched. Zero values mean "rolling default".
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// IsZero reports whether no explicit window was requested.
func (w TimeWindow) IsZero() bool { return w.Start.IsZero() && w.End.IsZero() }

// Resolve fills missing bounds: End defaults to now, Start to End minus years.
func (w TimeWindow) Resolve(now time.Time, years int) TimeWindow {
	if w.End.IsZero() {
		w.End = now
	}
	if w.Start.IsZero() {
		w.Start = w.End.AddDate(-years, 0, 0)
	}
	return w
}

// Query is a logical contract search around a point.
type Query struct {
	Latitude    float64
	Longitude   float64
	RadiusMiles float64
	State       string
	ZipPrefixes []string
	Window      TimeWindow
	MaxResults  int
}

// Page is one page of upstream award results.
type Page struct {
	Number  int
	Awards  []Award
	HasNext bool
}

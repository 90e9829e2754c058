package domain

import "time"

// Field names of the upstream Socrata dataset.
const (
	FieldDate                     = "date"
	FieldYear                     = "year"
	FieldMonth                    = "month"
	FieldNumberServed             = "number_served"
	FieldAnnualCumulativeDistinct = "annual_cumulative_distinct"
	FieldYearEndTarget            = "year_end_target"
)

// RawRecord is one flat row as returned by the data source, keyed by field name.
// Values are untyped strings; coercion happens in Normalize.
type RawRecord map[string]string

// Observation is one normalized monthly row of the dataset.
type Observation struct {
	Date                     time.Time  `json:"date"`
	Year                     int        `json:"year"`
	Month                    time.Month `json:"month"`
	NumberServed             int64      `json:"number_served"`
	AnnualCumulativeDistinct int64      `json:"annual_cumulative_distinct"`
	YearEndTarget            int64      `json:"year_end_target"`

	// PctChgNoServedMoM is nil for the first row and whenever the previous
	// month served nobody.
	PctChgNoServedMoM *float64 `json:"pct_chg_no_served_mom"`
}

// Key returns the observation's date formatted as YYYY-MM-DD.
func (o Observation) Key() string {
	return o.Date.Format(time.DateOnly)
}

// AnnualSummary is the year-level view built from each year's December observation.
type AnnualSummary struct {
	Year                     int      `json:"year"`
	AnnualCumulativeDistinct int64    `json:"annual_cumulative_distinct"`
	YearEndTarget            int64    `json:"year_end_target"`
	PctChange                *float64 `json:"pct_change"`
	PctOfTarget              *float64 `json:"pct_of_target"`
}

// Era is a named calendar range. Start is inclusive, End is exclusive.
type Era struct {
	Name  string    `json:"name" yaml:"name"`
	Start time.Time `json:"start" yaml:"start"`
	End   time.Time `json:"end" yaml:"end"`
}

// Contains reports whether t falls inside the era.
func (e Era) Contains(t time.Time) bool {
	return !t.Before(e.Start) && t.Before(e.End)
}

// Segment is the slice of observations belonging to one era.
type Segment struct {
	Era          Era           `json:"era"`
	Observations []Observation `json:"observations"`
}

// Trend is a least-squares line of number served against days since the Unix epoch.
type Trend struct {
	Slope     float64 `json:"slope"` // persons per day
	Intercept float64 `json:"intercept"`
	RSquared  float64 `json:"r_squared"`
	Points    int     `json:"points"`
}

// At evaluates the trend line at t.
func (tr Trend) At(t time.Time) float64 {
	return tr.Intercept + tr.Slope*DayNumber(t)
}

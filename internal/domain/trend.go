package domain

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
)

const secondsPerDay = 24 * 60 * 60

// DayNumber converts t to fractional days since 1970-01-01 UTC, the x axis used
// for trend fitting.
func DayNumber(t time.Time) float64 {
	return float64(t.Unix()) / secondsPerDay
}

// FitTrend fits number served against DayNumber(date) by ordinary least squares.
// It reports false when fewer than two observations are given or every
// observation falls on the same day.
func FitTrend(observations []Observation) (Trend, bool) {
	if len(observations) < 2 {
		return Trend{}, false
	}

	xs := make([]float64, len(observations))
	ys := make([]float64, len(observations))
	for i, o := range observations {
		xs[i] = DayNumber(o.Date)
		ys[i] = float64(o.NumberServed)
	}
	if stat.Variance(xs, nil) == 0 {
		return Trend{}, false
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	r2 := stat.RSquared(xs, ys, nil, alpha, beta)
	if math.IsNaN(r2) || math.IsInf(r2, 0) {
		// constant y: the line is exact but R² is undefined
		r2 = 0
	}
	return Trend{
		Slope:     beta,
		Intercept: alpha,
		RSquared:  r2,
		Points:    len(observations),
	}, true
}

// Panel is one era's series with its fitted trend, as consumed by a renderer.
type Panel struct {
	Era          Era           `json:"era"`
	Observations []Observation `json:"observations"`
	Trend        *Trend        `json:"trend"` // nil when no line can be fitted
}

// BuildPanels fits a trend to every segment.
func BuildPanels(segments []Segment) []Panel {
	panels := make([]Panel, len(segments))
	for i, s := range segments {
		panels[i] = Panel{Era: s.Era, Observations: s.Observations}
		if tr, ok := FitTrend(s.Observations); ok {
			panels[i].Trend = &tr
		}
	}
	return panels
}

package domain

// WithMonthOverMonth returns a copy of observations with PctChgNoServedMoM set to
// NumberServed[i]/NumberServed[i-1] - 1. The input must already be sorted by date.
func WithMonthOverMonth(observations []Observation) []Observation {
	out := make([]Observation, len(observations))
	copy(out, observations)
	for i := range out {
		out[i].PctChgNoServedMoM = nil
		if i == 0 {
			continue
		}
		out[i].PctChgNoServedMoM = pctChange(out[i-1].NumberServed, out[i].NumberServed)
	}
	return out
}

// AnnualSummaries builds one summary per year from that year's December
// observation, in input order. Years without a December row are absent.
// PctChange compares each row with the previous summary row, whatever year
// that is.
func AnnualSummaries(observations []Observation) []AnnualSummary {
	var out []AnnualSummary
	for _, o := range observations {
		if o.Month != 12 {
			continue
		}
		s := AnnualSummary{
			Year:                     o.Year,
			AnnualCumulativeDistinct: o.AnnualCumulativeDistinct,
			YearEndTarget:            o.YearEndTarget,
			PctOfTarget:              ratio(o.AnnualCumulativeDistinct, o.YearEndTarget),
		}
		if n := len(out); n > 0 {
			s.PctChange = pctChange(out[n-1].AnnualCumulativeDistinct, o.AnnualCumulativeDistinct)
		}
		out = append(out, s)
	}
	return out
}

// pctChange returns cur/prev - 1, or nil when prev is zero.
func pctChange(prev, cur int64) *float64 {
	r := ratio(cur, prev)
	if r == nil {
		return nil
	}
	v := *r - 1
	return &v
}

func ratio(num, den int64) *float64 {
	if den == 0 {
		return nil
	}
	v := float64(num) / float64(den)
	return &v
}

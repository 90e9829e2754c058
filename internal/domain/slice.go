package domain

import (
	"fmt"
	"time"
)

// Slice modes select between SliceByEras and SliceByRows.
const (
	SliceModeEras = "eras"
	SliceModeRows = "rows"
)

// RowBoundaries are the historical row offsets: [0,48) is 2015-2018, [48,60) is
// 2019 and [60,84) is 2020-2021, assuming the table starts in January 2015 with
// one row per month.
var RowBoundaries = []int{0, 48, 60, 84}

// DefaultEras are the date-based equivalents of RowBoundaries.
var DefaultEras = []Era{
	{Name: "2015-2018", Start: monthStart(2015, time.January), End: monthStart(2019, time.January)},
	{Name: "2019", Start: monthStart(2019, time.January), End: monthStart(2020, time.January)},
	{Name: "2020-2021", Start: monthStart(2020, time.January), End: monthStart(2022, time.January)},
}

func monthStart(year int, month time.Month) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}

// SliceByRows partitions observations at fixed row offsets. boundaries must be
// ascending; segment i covers [boundaries[i], boundaries[i+1]). Eras are named
// after the first and last year each segment actually covers.
func SliceByRows(observations []Observation, boundaries []int) ([]Segment, error) {
	if len(boundaries) < 2 {
		return nil, fmt.Errorf("need at least two boundaries, got %d", len(boundaries))
	}
	for i := 1; i < len(boundaries); i++ {
		if boundaries[i] < boundaries[i-1] || boundaries[i-1] < 0 {
			return nil, fmt.Errorf("boundaries must be non-negative and ascending: %v", boundaries)
		}
	}
	last := boundaries[len(boundaries)-1]
	if len(observations) < last {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientRows, len(observations), last)
	}

	segments := make([]Segment, 0, len(boundaries)-1)
	for i := 0; i+1 < len(boundaries); i++ {
		rows := observations[boundaries[i]:boundaries[i+1]]
		segments = append(segments, Segment{
			Era:          eraFromRows(rows),
			Observations: append([]Observation(nil), rows...),
		})
	}
	return segments, nil
}

func eraFromRows(rows []Observation) Era {
	if len(rows) == 0 {
		return Era{}
	}
	first, last := rows[0], rows[len(rows)-1]
	name := fmt.Sprintf("%d", first.Year)
	if last.Year != first.Year {
		name = fmt.Sprintf("%d-%d", first.Year, last.Year)
	}
	return Era{
		Name:  name,
		Start: monthStart(first.Date.Year(), first.Date.Month()),
		End:   monthStart(last.Date.Year(), last.Date.Month()).AddDate(0, 1, 0),
	}
}

// SliceByEras assigns each observation to the era containing its date. One
// segment is returned per era, in era order, possibly empty. Observations
// outside every era are left out.
func SliceByEras(observations []Observation, eras []Era) []Segment {
	segments := make([]Segment, len(eras))
	for i, e := range eras {
		segments[i].Era = e
	}
	for _, o := range observations {
		for i := range eras {
			if eras[i].Contains(o.Date) {
				segments[i].Observations = append(segments[i].Observations, o)
				break
			}
		}
	}
	return segments
}

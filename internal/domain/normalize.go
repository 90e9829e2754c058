package domain

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// KnownSpuriousDates lists rows the publisher is known to have duplicated. A row
// dated on one of these days is dropped only when another row covers the same
// year and month.
var KnownSpuriousDates = []time.Time{
	time.Date(2019, time.January, 1, 0, 0, 0, 0, time.UTC),
}

// dateLayouts are tried in order. Socrata emits floating timestamps without a zone.
var dateLayouts = []string{
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	time.DateOnly,
}

// Normalized is the output of Normalize.
type Normalized struct {
	// Observations are sorted ascending by date, unique by date and by (year, month).
	Observations []Observation
	// Dropped holds the known spurious duplicates that were removed.
	Dropped []Observation
}

type period struct {
	year  int
	month time.Month
}

// Normalize coerces raw records into observations, removes known spurious
// duplicates and sorts the result by date.
func Normalize(records []RawRecord) (Normalized, error) {
	observations := make([]Observation, 0, len(records))
	seenDates := make(map[string]int, len(records))

	for i, rec := range records {
		obs, err := ParseObservation(rec)
		if err != nil {
			return Normalized{}, fmt.Errorf("record %d: %w", i, err)
		}
		if prev, ok := seenDates[obs.Key()]; ok {
			return Normalized{}, fmt.Errorf("%w: %s (records %d and %d)", ErrDuplicateDate, obs.Key(), prev, i)
		}
		seenDates[obs.Key()] = i
		observations = append(observations, obs)
	}

	kept, dropped, err := dropKnownDuplicates(observations)
	if err != nil {
		return Normalized{}, err
	}

	sort.Slice(kept, func(i, j int) bool { return kept[i].Date.Before(kept[j].Date) })

	return Normalized{Observations: kept, Dropped: dropped}, nil
}

// dropKnownDuplicates removes known spurious rows from every (year, month) group
// that has more than one member. Any group still duplicated afterwards is an error.
func dropKnownDuplicates(observations []Observation) (kept, dropped []Observation, err error) {
	groups := make(map[period][]int, len(observations))
	for i, o := range observations {
		p := period{year: o.Year, month: o.Month}
		groups[p] = append(groups[p], i)
	}

	remove := make(map[int]bool)
	for p, idx := range groups {
		if len(idx) < 2 {
			continue
		}
		remaining := len(idx)
		for _, i := range idx {
			if isKnownSpurious(observations[i].Date) {
				remove[i] = true
				remaining--
			}
		}
		if remaining != 1 {
			return nil, nil, fmt.Errorf("%w: %d-%02d has %d rows", ErrDuplicatePeriod, p.year, int(p.month), len(idx))
		}
	}

	kept = make([]Observation, 0, len(observations)-len(remove))
	for i, o := range observations {
		if remove[i] {
			dropped = append(dropped, o)
			continue
		}
		kept = append(kept, o)
	}
	return kept, dropped, nil
}

// isKnownSpurious compares calendar days, so a time of day on the row does not
// hide it.
func isKnownSpurious(t time.Time) bool {
	day := t.Format(time.DateOnly)
	for _, d := range KnownSpuriousDates {
		if d.Format(time.DateOnly) == day {
			return true
		}
	}
	return false
}

// ParseObservation coerces a single raw record. Derived fields are left unset.
func ParseObservation(rec RawRecord) (Observation, error) {
	date, err := parseDate(rec[FieldDate])
	if err != nil {
		return Observation{}, fieldError(FieldDate, rec[FieldDate], err)
	}

	year, err := parseYear(rec[FieldYear])
	if err != nil {
		return Observation{}, fieldError(FieldYear, rec[FieldYear], err)
	}

	month, err := ParseMonth(rec[FieldMonth])
	if err != nil {
		return Observation{}, err
	}

	served, err := parseCount(rec, FieldNumberServed)
	if err != nil {
		return Observation{}, err
	}
	cumulative, err := parseCount(rec, FieldAnnualCumulativeDistinct)
	if err != nil {
		return Observation{}, err
	}
	target, err := parseCount(rec, FieldYearEndTarget)
	if err != nil {
		return Observation{}, err
	}

	return Observation{
		Date:                     date,
		Year:                     year,
		Month:                    month,
		NumberServed:             served,
		AnnualCumulativeDistinct: cumulative,
		YearEndTarget:            target,
	}, nil
}

func fieldError(field, value string, err error) error {
	return fmt.Errorf("%w %s=%q: %v", ErrInvalidField, field, value, err)
}

// parseDate accepts Socrata floating timestamps, RFC 3339 and bare dates. The
// result is always UTC with the wall-clock fields preserved.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty value")
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC), nil
		}
	}
	return time.Time{}, errors.New("unrecognized date format")
}

// parseYear reads the year from a date-valued field; a bare four-digit year is
// accepted as well.
func parseYear(s string) (int, error) {
	s = strings.TrimSpace(s)
	if len(s) == 4 {
		if y, err := strconv.Atoi(s); err == nil {
			return y, nil
		}
	}
	t, err := parseDate(s)
	if err != nil {
		return 0, err
	}
	return t.Year(), nil
}

func parseCount(rec RawRecord, field string) (int64, error) {
	raw, ok := rec[field]
	if !ok {
		return 0, fieldError(field, raw, errors.New("missing"))
	}
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fieldError(field, raw, err)
	}
	return v, nil
}

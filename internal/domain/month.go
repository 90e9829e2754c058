package domain

import (
	"fmt"
	"time"
)

// monthNames is the fixed lookup used by the upstream "month" column.
var monthNames = map[string]time.Month{
	"January":   time.January,
	"February":  time.February,
	"March":     time.March,
	"April":     time.April,
	"May":       time.May,
	"June":      time.June,
	"July":      time.July,
	"August":    time.August,
	"September": time.September,
	"October":   time.October,
	"November":  time.November,
	"December":  time.December,
}

// ParseMonth maps a canonical English month name to 1-12. Matching is exact;
// abbreviations, other casings and surrounding whitespace are rejected.
func ParseMonth(name string) (time.Month, error) {
	m, ok := monthNames[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownMonth, name)
	}
	return m, nil
}

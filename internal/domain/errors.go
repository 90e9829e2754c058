package domain

import "errors"

var (
	// ErrInvalidField is returned when a required field is missing or cannot be coerced.
	ErrInvalidField = errors.New("invalid field")

	// ErrUnknownMonth is returned for a month name outside the 12 canonical English names.
	ErrUnknownMonth = errors.New("unknown month name")

	// ErrDuplicateDate is returned when two records share the same date key.
	ErrDuplicateDate = errors.New("duplicate date")

	// ErrDuplicatePeriod is returned when a (year, month) pair appears more than once
	// and the extra rows are not known spurious duplicates.
	ErrDuplicatePeriod = errors.New("duplicate year/month observation")

	// ErrInsufficientRows is returned when row-offset slicing runs past the table.
	ErrInsufficientRows = errors.New("not enough rows for slice boundaries")
)

// Package domain models the "Homeless Persons Who Regain Housing" monthly dataset
// and the cleaning, derivation and slicing applied to it.
//
// # Data Source
//
// Rows come from the Pierce County open-data portal (Socrata dataset qghi-2efp).
// The SODA API returns every column as a JSON string:
//
//	{"date":"2019-02-01T00:00:00.000","year":"2019-01-01T00:00:00.000",
//	 "month":"February","number_served":"212",
//	 "annual_cumulative_distinct":"401","year_end_target":"2400"}
//
// # Conventions
//
// Dates:
//
//	"date" is the row key, normally the first of the month. Floating timestamps
//	carry no zone and are read as UTC. "year" is also a timestamp; only its year
//	is kept.
//
// Months:
//
//	"month" is a full English month name ("January" through "December"). Any
//	other spelling is rejected by [ParseMonth].
//
// Counts:
//
//	number_served is the number of persons housed that month.
//	annual_cumulative_distinct is the running distinct count for the calendar
//	year, so December carries the year total. year_end_target is the goal for
//	that total.
//
// Known quirks:
//
//	January 2019 is published twice. The row dated 2019-01-01 is the spurious
//	one and is removed by [Normalize] when, and only when, another January 2019
//	row exists. See [KnownSpuriousDates].
//
// # Derivations
//
// Percentage changes are ratio-minus-one against the previous row and are
// undefined (nil) for the first row or a zero denominator. The annual view is
// taken from December rows only; years without December are not interpolated.
//
// # Eras
//
// The series is analysed in three calendar eras (2015-2018, 2019, 2020-2021).
// [SliceByEras] assigns rows by date. [SliceByRows] reproduces the historical
// fixed row offsets and refuses to run past the end of the table.
package domain

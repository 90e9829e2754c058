package domain

import (
	"strconv"
	"time"
)

const floatingLayout = "2006-01-02T15:04:05.000"

// rawMonth builds a raw record dated on the first of the month.
func rawMonth(year int, month time.Month, served, cumulative, target int64) RawRecord {
	return rawOn(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC), served, cumulative, target)
}

func rawOn(date time.Time, served, cumulative, target int64) RawRecord {
	return RawRecord{
		FieldDate:                     date.Format(floatingLayout),
		FieldYear:                     time.Date(date.Year(), time.January, 1, 0, 0, 0, 0, time.UTC).Format(floatingLayout),
		FieldMonth:                    date.Month().String(),
		FieldNumberServed:             strconv.FormatInt(served, 10),
		FieldAnnualCumulativeDistinct: strconv.FormatInt(cumulative, 10),
		FieldYearEndTarget:            strconv.FormatInt(target, 10),
	}
}

// monthlySeries returns n consecutive monthly records starting at start, with
// number_served = 100 + i and a cumulative count that resets every January.
func monthlySeries(start time.Time, n int) []RawRecord {
	records := make([]RawRecord, 0, n)
	var cumulative int64
	for i := 0; i < n; i++ {
		d := start.AddDate(0, i, 0)
		if d.Month() == time.January {
			cumulative = 0
		}
		served := int64(100 + i)
		cumulative += served
		records = append(records, rawOn(d, served, cumulative, 2000+int64(d.Year()-2015)*100))
	}
	return records
}

// withJanuary2019Duplicate mirrors the published dataset: the canonical January
// 2019 row is dated at month end and a spurious copy is dated 2019-01-01.
func withJanuary2019Duplicate(records []RawRecord) []RawRecord {
	out := make([]RawRecord, 0, len(records)+1)
	for _, r := range records {
		if r[FieldDate] == "2019-01-01T00:00:00.000" {
			canonical := RawRecord{}
			for k, v := range r {
				canonical[k] = v
			}
			canonical[FieldDate] = "2019-01-31T00:00:00.000"
			out = append(out, canonical)

			spurious := RawRecord{}
			for k, v := range r {
				spurious[k] = v
			}
			spurious[FieldNumberServed] = "999"
			out = append(out, spurious)
			continue
		}
		out = append(out, r)
	}
	return out
}

func observationsFrom(start time.Time, served ...int64) []Observation {
	out := make([]Observation, len(served))
	for i, s := range served {
		d := start.AddDate(0, i, 0)
		out[i] = Observation{Date: d, Year: d.Year(), Month: d.Month(), NumberServed: s}
	}
	return out
}

var jan2015 = time.Date(2015, time.January, 1, 0, 0, 0, 0, time.UTC)

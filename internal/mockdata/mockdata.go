// Package mockdata generates synthetic snapshots shaped like the published
// dataset, for fixtures and local runs without network access.
package mockdata

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/couchcryptid/regain-housing-analysis/internal/domain"
)

const floatingLayout = "2006-01-02T15:04:05.000"

// Options shape a generated series.
type Options struct {
	Start  time.Time // first month; the day is ignored
	Months int
	Seed   uint64
	// KnownDuplicate adds the spurious 2019-01-01 row and dates the real
	// January 2019 row at month end, as the live dataset does.
	KnownDuplicate bool
}

// DefaultOptions covers January 2015 through December 2021.
func DefaultOptions() Options {
	return Options{
		Start:          time.Date(2015, time.January, 1, 0, 0, 0, 0, time.UTC),
		Months:         84,
		Seed:           42,
		KnownDuplicate: true,
	}
}

// Generate returns raw records in dataset order. Monthly counts follow a
// slow upward drift with a seasonal swing; the cumulative distinct count
// resets each January and the year-end target rises yearly.
func Generate(opts Options) []domain.RawRecord {
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	start := time.Date(opts.Start.Year(), opts.Start.Month(), 1, 0, 0, 0, 0, time.UTC)

	records := make([]domain.RawRecord, 0, opts.Months+1)
	var cumulative int64
	for i := 0; i < opts.Months; i++ {
		d := start.AddDate(0, i, 0)
		if d.Month() == time.January || i == 0 {
			cumulative = 0
		}
		seasonal := 25 * math.Sin(2*math.Pi*float64(d.Month()-1)/12)
		served := int64(180 + 1.5*float64(i) + seasonal + rng.NormFloat64()*12)
		if served < 0 {
			served = 0
		}
		// Repeat clients within a year make distinct persons lag the sum.
		cumulative += served * 7 / 10
		target := int64(1600 + 150*(d.Year()-start.Year()))

		if opts.KnownDuplicate && d.Equal(domain.KnownSpuriousDates[0]) {
			records = append(records,
				Record(d.AddDate(0, 1, -1), served, cumulative, target),
				Record(d, served+rng.Int64N(40), cumulative, target),
			)
			continue
		}
		records = append(records, Record(d, served, cumulative, target))
	}
	return records
}

// Record builds one raw row in the SODA wire shape.
func Record(date time.Time, served, cumulative, target int64) domain.RawRecord {
	return domain.RawRecord{
		domain.FieldDate:                     date.Format(floatingLayout),
		domain.FieldYear:                     time.Date(date.Year(), time.January, 1, 0, 0, 0, 0, time.UTC).Format(floatingLayout),
		domain.FieldMonth:                    date.Month().String(),
		domain.FieldNumberServed:             strconv.FormatInt(served, 10),
		domain.FieldAnnualCumulativeDistinct: strconv.FormatInt(cumulative, 10),
		domain.FieldYearEndTarget:            strconv.FormatInt(target, 10),
	}
}

// WriteJSON writes records as an indented JSON array, creating parent dirs.
func WriteJSON(path string, records []domain.RawRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal records: %w", err)
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

// Command validate checks a saved dataset snapshot for the integrity problems
// the analysis depends on: field presence and types, calendar consistency,
// duplicate periods, cumulative-count behaviour and era coverage.
//
// Usage:
//
//	go run ./cmd/validate -snapshot data/mock/regain_housing_snapshot.json
//	go run ./cmd/validate -snapshot snapshot.json -eras eras.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/couchcryptid/regain-housing-analysis/internal/adapter/socrata"
	"github.com/couchcryptid/regain-housing-analysis/internal/config"
	"github.com/couchcryptid/regain-housing-analysis/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name     string
	errors   []string
	warnings []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) warnf(format string, args ...any) {
	p.warnings = append(p.warnings, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	snapshot := flag.String("snapshot", "", "path to a JSON snapshot of the dataset")
	erasFile := flag.String("eras", "", "optional YAML eras file (defaults to the built-in eras)")
	flag.Parse()

	if *snapshot == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*snapshot, *erasFile); code != 0 {
		os.Exit(code)
	}
}

func run(snapshotPath, erasPath string) int {
	fmt.Println("=== Regain Housing Snapshot Validation ===")
	fmt.Println()

	records, err := socrata.NewFileSource(snapshotPath).Fetch(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load snapshot: %v\n", err)
		return 1
	}

	eras := domain.DefaultEras
	if erasPath != "" {
		eras, err = config.LoadEras(erasPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load eras: %v\n", err)
			return 1
		}
	}

	parsed, schema := validateSchema(records)
	phases := []*phase{
		schema,
		validateCalendar(parsed),
		validateDuplicates(records),
		validateCumulative(parsed),
		validateEraCoverage(records, eras),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		} else if len(p.warnings) > 0 {
			status = fmt.Sprintf("\033[33mPASS (%d warnings)\033[0m", len(p.warnings))
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d raw, %d parsed\n", len(records), len(parsed))

	for _, p := range phases {
		if len(p.errors) == 0 && len(p.warnings) == 0 {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
		for _, w := range p.warnings {
			fmt.Printf("  (warning) %s\n", w)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phases ──

var requiredFields = []string{
	domain.FieldDate,
	domain.FieldYear,
	domain.FieldMonth,
	domain.FieldNumberServed,
	domain.FieldAnnualCumulativeDistinct,
	domain.FieldYearEndTarget,
}

// validateSchema checks every record for the required fields and parses the
// ones that are complete. Records that fail to parse are left out of later phases.
func validateSchema(records []domain.RawRecord) ([]domain.Observation, *phase) {
	p := &phase{name: "Phase 1: Field presence and types"}
	if len(records) == 0 {
		p.errorf("snapshot is empty")
	}

	parsed := make([]domain.Observation, 0, len(records))
	for i, rec := range records {
		var missing []string
		for _, f := range requiredFields {
			if _, ok := rec[f]; !ok {
				missing = append(missing, f)
			}
		}
		if len(missing) > 0 {
			p.errorf("record %d: missing %v", i, missing)
			continue
		}
		obs, err := domain.ParseObservation(rec)
		if err != nil {
			p.errorf("record %d: %v", i, err)
			continue
		}
		if obs.NumberServed < 0 || obs.AnnualCumulativeDistinct < 0 || obs.YearEndTarget < 0 {
			p.errorf("record %d (%s): negative count", i, obs.Key())
		}
		parsed = append(parsed, obs)
	}
	return parsed, p
}

// validateCalendar checks that year and month agree with the date.
func validateCalendar(obs []domain.Observation) *phase {
	p := &phase{name: "Phase 2: Calendar consistency"}
	for _, o := range obs {
		if o.Year != o.Date.Year() {
			p.errorf("%s: year field %d does not match date", o.Key(), o.Year)
		}
		if o.Month != o.Date.Month() {
			p.errorf("%s: month field %s does not match date", o.Key(), o.Month)
		}
	}
	return p
}

// validateDuplicates runs the normalizer and checks the result is gap-free.
func validateDuplicates(records []domain.RawRecord) *phase {
	p := &phase{name: "Phase 3: Duplicates and gaps"}
	n, err := domain.Normalize(records)
	if err != nil {
		p.errorf("normalize: %v", err)
		return p
	}
	for _, d := range n.Dropped {
		p.warnf("known duplicate present and removed: %s", d.Key())
	}
	if len(n.Dropped) == 0 {
		p.warnf("known duplicate 2019-01-01 not present; upstream may have fixed it")
	}
	for i := 1; i < len(n.Observations); i++ {
		prev, cur := n.Observations[i-1], n.Observations[i]
		want := time.Date(prev.Year, prev.Month+1, 1, 0, 0, 0, 0, time.UTC)
		if cur.Year != want.Year() || cur.Month != want.Month() {
			p.errorf("gap between %d-%02d and %d-%02d", prev.Year, int(prev.Month), cur.Year, int(cur.Month))
		}
	}
	return p
}

// validateCumulative checks the running distinct count never falls within a
// year and the year-end target is constant within a year.
func validateCumulative(obs []domain.Observation) *phase {
	p := &phase{name: "Phase 4: Cumulative counts and targets"}
	n, err := domain.Normalize(recordsFromParsed(obs))
	if err != nil {
		// Already reported by the duplicates phase.
		return p
	}
	sorted := n.Observations
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if prev.Year != cur.Year {
			continue
		}
		if cur.AnnualCumulativeDistinct < prev.AnnualCumulativeDistinct {
			p.errorf("%s: cumulative distinct fell from %d to %d", cur.Key(), prev.AnnualCumulativeDistinct, cur.AnnualCumulativeDistinct)
		}
		if cur.YearEndTarget != prev.YearEndTarget {
			p.warnf("%s: year-end target changed from %d to %d", cur.Key(), prev.YearEndTarget, cur.YearEndTarget)
		}
	}
	for _, s := range domain.AnnualSummaries(sorted) {
		if s.AnnualCumulativeDistinct == 0 {
			p.warnf("%d: December cumulative distinct is zero", s.Year)
		}
	}
	return p
}

// validateEraCoverage reports eras that are not fully covered month by month.
func validateEraCoverage(records []domain.RawRecord, eras []domain.Era) *phase {
	p := &phase{name: "Phase 5: Era coverage"}
	n, err := domain.Normalize(records)
	if err != nil {
		return p
	}
	for _, s := range domain.SliceByEras(n.Observations, eras) {
		want := monthsBetween(s.Era.Start, s.Era.End)
		switch got := len(s.Observations); {
		case got == 0:
			p.errorf("era %q has no observations", s.Era.Name)
		case got < want:
			p.warnf("era %q covers %d of %d months", s.Era.Name, got, want)
		case got < 2:
			p.warnf("era %q has a single observation; no trend line can be fitted", s.Era.Name)
		}
	}
	return p
}

// ── Helpers ──

func monthsBetween(start, end time.Time) int {
	return (end.Year()-start.Year())*12 + int(end.Month()-start.Month())
}

// recordsFromParsed converts observations back into raw records so the
// normalizer can sort and dedupe the subset that parsed.
func recordsFromParsed(obs []domain.Observation) []domain.RawRecord {
	out := make([]domain.RawRecord, len(obs))
	for i, o := range obs {
		out[i] = domain.RawRecord{
			domain.FieldDate:                     o.Date.Format(time.RFC3339Nano),
			domain.FieldYear:                     fmt.Sprintf("%04d", o.Year),
			domain.FieldMonth:                    o.Month.String(),
			domain.FieldNumberServed:             fmt.Sprint(o.NumberServed),
			domain.FieldAnnualCumulativeDistinct: fmt.Sprint(o.AnnualCumulativeDistinct),
			domain.FieldYearEndTarget:            fmt.Sprint(o.YearEndTarget),
		}
	}
	return out
}

// Command genmock writes a synthetic snapshot of the regain-housing dataset in
// the SODA wire shape, for local runs (SOURCE_FILE) and test fixtures. The
// series is deterministic for a given seed and runs through the real
// normalizer before it is written, so a fixture that cannot be analysed is
// never produced.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock/regain_housing_snapshot.json
//	go run ./cmd/genmock -out short.json -start 2018-01 -months 30 -no-duplicate
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/couchcryptid/regain-housing-analysis/internal/domain"
	"github.com/couchcryptid/regain-housing-analysis/internal/mockdata"
	"github.com/couchcryptid/regain-housing-analysis/internal/report"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	defaults := mockdata.DefaultOptions()

	out := flag.String("out", "", "output path for the JSON snapshot")
	start := flag.String("start", defaults.Start.Format("2006-01"), "first month, YYYY-MM")
	months := flag.Int("months", defaults.Months, "number of monthly rows")
	seed := flag.Uint64("seed", defaults.Seed, "random seed")
	noDup := flag.Bool("no-duplicate", false, "omit the spurious 2019-01-01 row")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if *months <= 0 {
		return fmt.Errorf("-months must be positive, got %d", *months)
	}
	startMonth, err := time.Parse("2006-01", *start)
	if err != nil {
		return fmt.Errorf("invalid -start %q: %w", *start, err)
	}

	records := mockdata.Generate(mockdata.Options{
		Start:          startMonth,
		Months:         *months,
		Seed:           *seed,
		KnownDuplicate: !*noDup,
	})

	n, err := domain.Normalize(records)
	if err != nil {
		return fmt.Errorf("generated series does not normalize: %w", err)
	}

	if err := mockdata.WriteJSON(*out, records); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	log.Printf("wrote %d records (%d after normalization) to %s", len(records), len(n.Observations), *out)

	printStats(n)
	return nil
}

func printStats(n domain.Normalized) {
	obs := domain.WithMonthOverMonth(n.Observations)
	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Observations: %d, dropped duplicates: %d\n", len(obs), len(n.Dropped))
	if len(obs) > 0 {
		fmt.Printf("Range: %s to %s\n", obs[0].Key(), obs[len(obs)-1].Key())
	}
	for _, s := range domain.SliceByEras(obs, domain.DefaultEras) {
		var total int64
		for _, o := range s.Observations {
			total += o.NumberServed
		}
		fmt.Printf("Era %-10s rows=%-3d served=%d\n", s.Era.Name, len(s.Observations), total)
	}
	fmt.Println()
	fmt.Print(report.AnnualTable(domain.AnnualSummaries(obs)).String())
}

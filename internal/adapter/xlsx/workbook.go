// Package xlsx exports analysis results as an Excel workbook.
package xlsx

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/regain-housing-analysis/internal/domain"
)

// Sheet names.
const (
	SheetObservations = "Observations"
	SheetAnnual       = "Annual"
	SheetTrends       = "Trends"
)

// Built-in number format 10 is "0.00%".
const percentFormat = 10

var (
	observationHeader = []any{"Date", "Year", "Month", "Number Served", "Annual Cumulative Distinct", "Year End Target", "MoM Change"}
	annualHeader      = []any{"Year", "Annual Cumulative Distinct", "Year End Target", "YoY Change", "Pct of Target"}
	trendHeader       = []any{"Era", "Start", "End", "Points", "Slope (per day)", "Intercept", "R²"}
)

// Exporter writes a workbook with one sheet per result table.
// It implements pipeline.Publisher.
type Exporter struct {
	path   string
	logger *slog.Logger
}

// NewExporter creates an exporter that overwrites path on every run.
func NewExporter(path string, logger *slog.Logger) *Exporter {
	return &Exporter{path: path, logger: logger}
}

// Name identifies the sink in logs and metrics.
func (e *Exporter) Name() string { return "xlsx" }

// Publish builds the workbook and saves it.
func (e *Exporter) Publish(_ context.Context, result *domain.Result) error {
	f, err := Build(result)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(e.path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	e.logger.Debug("workbook written", "path", e.path)
	return nil
}

// Build lays out the result in a new in-memory workbook.
func Build(result *domain.Result) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetObservations); err != nil {
		f.Close()
		return nil, err
	}
	for _, name := range []string{SheetAnnual, SheetTrends} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, err
		}
	}

	b, err := newBuilder(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	steps := []func(*domain.Result) error{b.observations, b.annual, b.trends}
	for _, step := range steps {
		if err := step(result); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

type builder struct {
	f       *excelize.File
	header  int
	percent int
}

func newBuilder(f *excelize.File) (*builder, error) {
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	percent, err := f.NewStyle(&excelize.Style{NumFmt: percentFormat})
	if err != nil {
		return nil, fmt.Errorf("percent style: %w", err)
	}
	return &builder{f: f, header: header, percent: percent}, nil
}

func (b *builder) writeHeader(sheet string, cols []any) error {
	if err := b.f.SetSheetRow(sheet, "A1", &cols); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(cols), 1)
	if err != nil {
		return err
	}
	if err := b.f.SetCellStyle(sheet, "A1", last, b.header); err != nil {
		return err
	}
	lastCol, _, err := excelize.SplitCellName(last)
	if err != nil {
		return err
	}
	if err := b.f.SetColWidth(sheet, "A", lastCol, 18); err != nil {
		return err
	}
	return b.f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

// percentColumns applies the percent style to rows 2..n+1 of each column.
func (b *builder) percentColumns(sheet string, n int, cols ...string) error {
	if n == 0 {
		return nil
	}
	for _, c := range cols {
		if err := b.f.SetCellStyle(sheet, c+"2", fmt.Sprintf("%s%d", c, n+1), b.percent); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) observations(result *domain.Result) error {
	if err := b.writeHeader(SheetObservations, observationHeader); err != nil {
		return fmt.Errorf("observations header: %w", err)
	}
	for i, o := range result.Observations {
		row := []any{o.Key(), o.Year, o.Month.String(), o.NumberServed, o.AnnualCumulativeDistinct, o.YearEndTarget, optional(o.PctChgNoServedMoM)}
		if err := b.f.SetSheetRow(SheetObservations, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return fmt.Errorf("observation %s: %w", o.Key(), err)
		}
	}
	return b.percentColumns(SheetObservations, len(result.Observations), "G")
}

func (b *builder) annual(result *domain.Result) error {
	if err := b.writeHeader(SheetAnnual, annualHeader); err != nil {
		return fmt.Errorf("annual header: %w", err)
	}
	for i, s := range result.Annual {
		row := []any{s.Year, s.AnnualCumulativeDistinct, s.YearEndTarget, optional(s.PctChange), optional(s.PctOfTarget)}
		if err := b.f.SetSheetRow(SheetAnnual, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return fmt.Errorf("annual summary %d: %w", s.Year, err)
		}
	}
	return b.percentColumns(SheetAnnual, len(result.Annual), "D", "E")
}

func (b *builder) trends(result *domain.Result) error {
	if err := b.writeHeader(SheetTrends, trendHeader); err != nil {
		return fmt.Errorf("trends header: %w", err)
	}
	for i, p := range result.Panels {
		row := []any{p.Era.Name, p.Era.Start.Format("2006-01-02"), p.Era.End.Format("2006-01-02"), len(p.Observations), nil, nil, nil}
		if p.Trend != nil {
			row[4], row[5], row[6] = p.Trend.Slope, p.Trend.Intercept, p.Trend.RSquared
		}
		if err := b.f.SetSheetRow(SheetTrends, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return fmt.Errorf("trend %q: %w", p.Era.Name, err)
		}
	}
	return nil
}

// optional maps an undefined ratio to an empty cell.
func optional(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

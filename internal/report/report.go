// Package report prints a plain-text summary of an analysis run.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/couchcryptid/regain-housing-analysis/internal/domain"
)

const missing = "n/a"

type align int

const (
	left align = iota
	right
)

// Table is a fixed-width text table measured in terminal cells.
type Table struct {
	header []string
	aligns []align
	rows   [][]string
}

func newTable(aligns []align, header ...string) *Table {
	return &Table{header: header, aligns: aligns}
}

func (t *Table) add(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *Table) widths() []int {
	w := make([]int, len(t.header))
	for _, row := range append([][]string{t.header}, t.rows...) {
		for i, c := range row {
			w[i] = max(w[i], runewidth.StringWidth(c))
		}
	}
	return w
}

func (t *Table) line(sb *strings.Builder, cells []string, widths []int) {
	for i, c := range cells {
		if i > 0 {
			sb.WriteString("  ")
		}
		if t.aligns[i] == right {
			sb.WriteString(runewidth.FillLeft(c, widths[i]))
		} else {
			sb.WriteString(runewidth.FillRight(c, widths[i]))
		}
	}
	sb.WriteString("\n")
}

// String renders the header, a rule and every row. Trailing padding is trimmed.
func (t *Table) String() string {
	widths := t.widths()
	var sb strings.Builder
	t.line(&sb, t.header, widths)
	rule := make([]string, len(widths))
	for i, w := range widths {
		rule[i] = strings.Repeat("-", w)
	}
	t.line(&sb, rule, widths)
	for _, row := range t.rows {
		t.line(&sb, row, widths)
	}

	lines := strings.Split(strings.TrimSuffix(sb.String(), "\n"), "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	return strings.Join(lines, "\n") + "\n"
}

// AnnualTable lists each year's December figures.
func AnnualTable(summaries []domain.AnnualSummary) *Table {
	t := newTable([]align{left, right, right, right, right},
		"Year", "Cumulative distinct", "Year-end target", "YoY change", "Of target")
	for _, s := range summaries {
		t.add(
			strconv.Itoa(s.Year),
			strconv.FormatInt(s.AnnualCumulativeDistinct, 10),
			strconv.FormatInt(s.YearEndTarget, 10),
			signedPercent(s.PctChange),
			percent(s.PctOfTarget),
		)
	}
	return t
}

// TrendTable lists the fitted line per era. Slope is shown per 30 days.
func TrendTable(panels []domain.Panel) *Table {
	t := newTable([]align{left, right, right, right}, "Era", "Points", "Slope/30d", "R²")
	for _, p := range panels {
		slope, r2 := missing, missing
		if p.Trend != nil {
			slope = fmt.Sprintf("%+.2f", p.Trend.Slope*30)
			r2 = fmt.Sprintf("%.3f", p.Trend.RSquared)
		}
		t.add(p.Era.Name, strconv.Itoa(len(p.Observations)), slope, r2)
	}
	return t
}

// Write prints the run summary to w.
func Write(w io.Writer, result *domain.Result) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Observations: %d", len(result.Observations))
	if result.DuplicatesRemoved > 0 {
		fmt.Fprintf(&sb, " (%d known duplicate removed)", result.DuplicatesRemoved)
	}
	sb.WriteString("\n")
	if n := len(result.Observations); n > 0 {
		fmt.Fprintf(&sb, "Range: %s to %s\n", result.Observations[0].Key(), result.Observations[n-1].Key())
	}
	fmt.Fprintf(&sb, "Figure: %s\n\n", result.OutputFile)

	sb.WriteString("Annual summary\n")
	sb.WriteString(AnnualTable(result.Annual).String())
	sb.WriteString("\nTrend by era\n")
	sb.WriteString(TrendTable(result.Panels).String())

	_, err := io.WriteString(w, sb.String())
	return err
}

func percent(v *float64) string {
	if v == nil {
		return missing
	}
	return fmt.Sprintf("%.1f%%", *v*100)
}

func signedPercent(v *float64) string {
	if v == nil {
		return missing
	}
	return fmt.Sprintf("%+.1f%%", *v*100)
}

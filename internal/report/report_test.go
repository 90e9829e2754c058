package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/regain-housing-analysis/internal/domain"
)

func ptr(v float64) *float64 { return &v }

func TestAnnualTable(t *testing.T) {
	got := AnnualTable([]domain.AnnualSummary{
		{Year: 2018, AnnualCumulativeDistinct: 2500, YearEndTarget: 2000, PctOfTarget: ptr(1.25)},
		{Year: 2019, AnnualCumulativeDistinct: 2000, YearEndTarget: 2500, PctChange: ptr(-0.2), PctOfTarget: ptr(0.8)},
	}).String()

	want := "" +
		"Year  Cumulative distinct  Year-end target  YoY change  Of target\n" +
		"----  -------------------  ---------------  ----------  ---------\n" +
		"2018                 2500             2000         n/a     125.0%\n" +
		"2019                 2000             2500      -20.0%      80.0%\n"
	assert.Equal(t, want, got)
}

func TestTrendTable(t *testing.T) {
	got := TrendTable([]domain.Panel{
		{Era: domain.Era{Name: "2015-2018"}, Observations: make([]domain.Observation, 48), Trend: &domain.Trend{Slope: 0.1, RSquared: 0.8123}},
		{Era: domain.Era{Name: "2019"}},
	}).String()

	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Era        Points  Slope/30d     R²", lines[0])
	assert.Equal(t, "2015-2018      48      +3.00  0.812", lines[2])
	assert.Equal(t, "2019            0        n/a    n/a", lines[3])
}

func TestTable_WideRunes(t *testing.T) {
	tbl := newTable([]align{left, right}, "Name", "N")
	tbl.add("東京", "1")
	tbl.add("Tacoma", "22")

	lines := strings.Split(strings.TrimSuffix(tbl.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	// every full row lines up in display cells
	assert.Equal(t, runewidth.StringWidth(lines[2]), runewidth.StringWidth(lines[3]))
	assert.Equal(t, "東京     1", lines[2])
}

func TestWrite(t *testing.T) {
	jan := time.Date(2015, time.January, 1, 0, 0, 0, 0, time.UTC)
	res := &domain.Result{
		OutputFile:        "pcod.jpg",
		DuplicatesRemoved: 1,
		Observations: []domain.Observation{
			{Date: jan},
			{Date: jan.AddDate(6, 11, 0)},
		},
		Annual: []domain.AnnualSummary{{Year: 2015, AnnualCumulativeDistinct: 1266, YearEndTarget: 2000, PctOfTarget: ptr(0.633)}},
		Panels: []domain.Panel{{Era: domain.Era{Name: "2015-2018"}}},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, res))

	out := buf.String()
	assert.Contains(t, out, "Observations: 2 (1 known duplicate removed)\n")
	assert.Contains(t, out, "Range: 2015-01-01 to 2021-12-01\n")
	assert.Contains(t, out, "Figure: pcod.jpg\n")
	assert.Contains(t, out, "63.3%")
	assert.Contains(t, out, "Trend by era\n")
}

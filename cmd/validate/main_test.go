package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/regain-housing-analysis/internal/domain"
	"github.com/couchcryptid/regain-housing-analysis/internal/mockdata"
)

func TestValidate_GeneratedSnapshotPasses(t *testing.T) {
	records := mockdata.Generate(mockdata.DefaultOptions())

	parsed, schema := validateSchema(records)
	assert.True(t, schema.passed(), schema.errors)
	assert.Len(t, parsed, 85)

	assert.True(t, validateCalendar(parsed).passed())

	dup := validateDuplicates(records)
	assert.True(t, dup.passed(), dup.errors)
	assert.Equal(t, []string{"known duplicate present and removed: 2019-01-01"}, dup.warnings)

	assert.True(t, validateCumulative(parsed).passed())

	cov := validateEraCoverage(records, domain.DefaultEras)
	assert.True(t, cov.passed(), cov.errors)
	assert.Empty(t, cov.warnings)
}

func TestValidateSchema_MissingAndBadFields(t *testing.T) {
	good := mockdata.Record(time.Date(2015, time.January, 1, 0, 0, 0, 0, time.UTC), 10, 10, 100)
	missing := mockdata.Record(time.Date(2015, time.February, 1, 0, 0, 0, 0, time.UTC), 10, 20, 100)
	delete(missing, domain.FieldYearEndTarget)
	bad := mockdata.Record(time.Date(2015, time.March, 1, 0, 0, 0, 0, time.UTC), 10, 30, 100)
	bad[domain.FieldNumberServed] = "ten"

	parsed, p := validateSchema([]domain.RawRecord{good, missing, bad})
	assert.Len(t, parsed, 1)
	require.Len(t, p.errors, 2)
	assert.Contains(t, p.errors[0], "missing [year_end_target]")
	assert.Contains(t, p.errors[1], "number_served")
}

func TestValidateCalendar_Mismatch(t *testing.T) {
	rec := mockdata.Record(time.Date(2016, time.May, 1, 0, 0, 0, 0, time.UTC), 10, 10, 100)
	rec[domain.FieldMonth] = "June"
	obs, err := domain.ParseObservation(rec)
	require.NoError(t, err)

	p := validateCalendar([]domain.Observation{obs})
	require.Len(t, p.errors, 1)
	assert.Contains(t, p.errors[0], "month field June")
}

func TestValidateDuplicates_Gap(t *testing.T) {
	opts := mockdata.DefaultOptions()
	opts.KnownDuplicate = false
	records := mockdata.Generate(opts)
	records = append(records[:10], records[11:]...)

	p := validateDuplicates(records)
	require.Len(t, p.errors, 1)
	assert.Contains(t, p.errors[0], "gap between 2015-10 and 2015-12")
}

func TestValidateCumulative_Decrease(t *testing.T) {
	start := time.Date(2017, time.January, 1, 0, 0, 0, 0, time.UTC)
	records := []domain.RawRecord{
		mockdata.Record(start, 10, 50, 100),
		mockdata.Record(start.AddDate(0, 1, 0), 10, 40, 120),
	}
	parsed, _ := validateSchema(records)

	p := validateCumulative(parsed)
	require.Len(t, p.errors, 1)
	assert.Contains(t, p.errors[0], "fell from 50 to 40")
	require.Len(t, p.warnings, 1)
	assert.Contains(t, p.warnings[0], "target changed")
}

func TestValidateEraCoverage_Partial(t *testing.T) {
	opts := mockdata.DefaultOptions()
	opts.Months = 54 // stops mid-2019
	records := mockdata.Generate(opts)

	p := validateEraCoverage(records, domain.DefaultEras)
	require.Len(t, p.errors, 1)
	assert.Contains(t, p.errors[0], `"2020-2021"`)
	require.Len(t, p.warnings, 1)
	assert.Contains(t, p.warnings[0], `era "2019" covers 6 of 12 months`)
}

func TestRun_ExitCodes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshot.json")
	require.NoError(t, mockdata.WriteJSON(path, mockdata.Generate(mockdata.DefaultOptions())))

	assert.Equal(t, 0, run(path, ""))
	assert.Equal(t, 1, run(filepath.Join(dir, "missing.json"), ""))
}

package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/couchcryptid/regain-housing-analysis/internal/adapter/http"
	"github.com/couchcryptid/regain-housing-analysis/internal/domain"
)

type mockAnalysis struct {
	err    error
	result *domain.Result
}

func (m *mockAnalysis) CheckReadiness(_ context.Context) error { return m.err }
func (m *mockAnalysis) Latest() *domain.Result                 { return m.result }

func ptr(v float64) *float64 { return &v }

func testResult() *domain.Result {
	jan := time.Date(2019, time.January, 31, 0, 0, 0, 0, time.UTC)
	obs := []domain.Observation{
		{Date: jan, Year: 2019, Month: time.January, NumberServed: 248},
		{Date: jan.AddDate(0, 1, -3), Year: 2019, Month: time.February, NumberServed: 250, PctChgNoServedMoM: ptr(2.0 / 248.0)},
	}
	return &domain.Result{
		GeneratedAt:       time.Date(2022, time.March, 1, 9, 30, 0, 0, time.UTC),
		OutputFile:        "pcod.jpg",
		DuplicatesRemoved: 1,
		Observations:      obs,
		Annual:            []domain.AnnualSummary{{Year: 2019, AnnualCumulativeDistinct: 2600, YearEndTarget: 2400}},
		Panels: []domain.Panel{
			{Era: domain.DefaultEras[1], Observations: obs, Trend: &domain.Trend{Slope: 0.07, Intercept: -1200, RSquared: 1, Points: 2}},
			{Era: domain.DefaultEras[2]},
		},
	}
}

func newTestServer(m *mockAnalysis) *httpadapter.Server {
	return httpadapter.NewServer(":0", m, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func get(srv *httpadapter.Server, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := get(newTestServer(&mockAnalysis{}), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := get(newTestServer(&mockAnalysis{result: testResult()}), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := get(newTestServer(&mockAnalysis{err: errors.New("no analysis run has completed yet")}), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(newTestServer(&mockAnalysis{}), "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestSummaryReturns503BeforeFirstRun(t *testing.T) {
	rec := get(newTestServer(&mockAnalysis{}), "/summary")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
}

func TestSummary(t *testing.T) {
	rec := get(newTestServer(&mockAnalysis{result: testResult()}), "/summary")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body httpadapter.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Observations)
	assert.Equal(t, 1, body.DuplicatesRemoved)
	assert.Equal(t, "pcod.jpg", body.OutputFile)
	require.Len(t, body.Annual, 1)
	assert.Nil(t, body.Annual[0].PctChange)

	require.Len(t, body.Eras, 2)
	assert.Equal(t, "2019", body.Eras[0].Era.Name)
	assert.Equal(t, 2, body.Eras[0].Points)
	require.NotNil(t, body.Eras[0].Trend)
	assert.InDelta(t, 0.07, body.Eras[0].Trend.Slope, 1e-12)
	assert.Nil(t, body.Eras[1].Trend)
}

func TestObservations(t *testing.T) {
	rec := get(newTestServer(&mockAnalysis{result: testResult()}), "/observations")

	require.Equal(t, http.StatusOK, rec.Code)
	var body []domain.Observation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 2)
	assert.Equal(t, "2019-01-31", body[0].Key())
	assert.Nil(t, body[0].PctChgNoServedMoM)
	require.NotNil(t, body[1].PctChgNoServedMoM)
}

func TestSummaryRejectsPost(t *testing.T) {
	srv := newTestServer(&mockAnalysis{result: testResult()})
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/summary", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/regain-housing-analysis/internal/domain"
	"github.com/couchcryptid/regain-housing-analysis/internal/observability"
)

// ErrNoRecords is returned when the source yields an empty dataset.
var ErrNoRecords = errors.New("source returned no records")

// ErrPublish wraps failures from one or more publishers. A run that fails
// only here still produced its figure and result.
var ErrPublish = errors.New("publish failed")

// Source returns the dataset's raw rows.
type Source interface {
	Fetch(ctx context.Context) ([]domain.RawRecord, error)
}

// Renderer writes the per-era figure to a file.
type Renderer interface {
	RenderFile(path string, panels []domain.Panel) error
}

// Publisher delivers a finished result to an external sink.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, result *domain.Result) error
}

// Options control how a run slices and where it writes the figure.
type Options struct {
	OutputFile string
	SliceMode  string
	Eras       []domain.Era
}

// Analyzer runs fetch, normalize, derive, slice, fit, render and publish.
// Runs are serialized; the latest successful result stays available.
type Analyzer struct {
	source     Source
	renderer   Renderer
	publishers []Publisher
	opts       Options
	logger     *slog.Logger
	metrics    *observability.Metrics

	mu     sync.Mutex
	latest atomic.Pointer[domain.Result]
	ready  atomic.Bool
}

// New creates an Analyzer. Publishers are optional.
func New(src Source, r Renderer, opts Options, logger *slog.Logger, metrics *observability.Metrics, publishers ...Publisher) *Analyzer {
	if opts.SliceMode == "" {
		opts.SliceMode = domain.SliceModeEras
	}
	if opts.Eras == nil {
		opts.Eras = domain.DefaultEras
	}
	return &Analyzer{
		source:     src,
		renderer:   r,
		publishers: publishers,
		opts:       opts,
		logger:     logger,
		metrics:    metrics,
	}
}

// CheckReadiness returns nil once a run has completed, or an error describing
// why the service is not yet ready.
func (a *Analyzer) CheckReadiness(_ context.Context) error {
	if !a.ready.Load() {
		return errors.New("no analysis run has completed yet")
	}
	return nil
}

// Latest returns the most recent result, or nil before the first run.
func (a *Analyzer) Latest() *domain.Result {
	return a.latest.Load()
}

// Run performs one complete analysis. When only publishing fails the result is
// returned together with an error wrapping ErrPublish.
func (a *Analyzer) Run(ctx context.Context) (*domain.Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	start := time.Now()
	result, err := a.analyze(ctx)
	a.metrics.RunDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		a.metrics.Runs.WithLabelValues("error").Inc()
		return nil, err
	}

	a.latest.Store(result)
	a.ready.Store(true)

	if err := a.publish(ctx, result); err != nil {
		a.metrics.Runs.WithLabelValues("error").Inc()
		return result, err
	}

	a.metrics.Runs.WithLabelValues("success").Inc()
	a.metrics.LastSuccess.Set(float64(result.GeneratedAt.Unix()))
	a.logger.Info("analysis complete",
		"observations", len(result.Observations),
		"output", result.OutputFile,
		"duration", time.Since(start),
	)
	return result, nil
}

func (a *Analyzer) analyze(ctx context.Context) (*domain.Result, error) {
	fetchStart := time.Now()
	records, err := a.source.Fetch(ctx)
	a.metrics.FetchDuration.Observe(time.Since(fetchStart).Seconds())
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrNoRecords
	}
	a.metrics.RecordsFetched.Add(float64(len(records)))
	a.logger.Info("records fetched", "count", len(records))

	normalized, err := domain.Normalize(records)
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	for _, d := range normalized.Dropped {
		a.logger.Warn("removed known duplicate row", "date", d.Key(), "number_served", d.NumberServed)
	}
	a.metrics.DuplicatesRemoved.Add(float64(len(normalized.Dropped)))
	a.metrics.ObservationsNormalized.Set(float64(len(normalized.Observations)))

	observations := domain.WithMonthOverMonth(normalized.Observations)
	annual := domain.AnnualSummaries(observations)

	segments, err := a.slice(observations)
	if err != nil {
		return nil, fmt.Errorf("slice: %w", err)
	}
	panels := domain.BuildPanels(segments)
	for _, p := range panels {
		attrs := []any{"era", p.Era.Name, "points", len(p.Observations)}
		if p.Trend != nil {
			attrs = append(attrs, "slope_per_day", p.Trend.Slope, "r_squared", p.Trend.RSquared)
		}
		a.logger.Debug("panel prepared", attrs...)
	}

	if err := a.renderer.RenderFile(a.opts.OutputFile, panels); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	a.logger.Info("figure written", "path", a.opts.OutputFile)

	return &domain.Result{
		GeneratedAt:       domain.Now(),
		OutputFile:        a.opts.OutputFile,
		DuplicatesRemoved: len(normalized.Dropped),
		Observations:      observations,
		Annual:            annual,
		Panels:            panels,
	}, nil
}

func (a *Analyzer) slice(observations []domain.Observation) ([]domain.Segment, error) {
	switch a.opts.SliceMode {
	case domain.SliceModeRows:
		return domain.SliceByRows(observations, domain.RowBoundaries)
	case domain.SliceModeEras:
		return domain.SliceByEras(observations, a.opts.Eras), nil
	default:
		return nil, fmt.Errorf("unknown slice mode %q", a.opts.SliceMode)
	}
}

// publish delivers the result to every publisher, continuing past failures.
func (a *Analyzer) publish(ctx context.Context, result *domain.Result) error {
	var errs []error
	for _, p := range a.publishers {
		if err := p.Publish(ctx, result); err != nil {
			a.logger.Error("publish failed", "sink", p.Name(), "error", err)
			a.metrics.PublishErrors.WithLabelValues(p.Name()).Inc()
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			continue
		}
		a.logger.Info("published", "sink", p.Name())
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrPublish, errors.Join(errs...))
	}
	return nil
}

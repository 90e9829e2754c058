// Command analyze fetches the regain-housing dataset, renders the per-era
// scatter figure and publishes the derived tables to the enabled sinks.
//
// By default it runs once and exits. With SERVE=true it keeps running behind
// an HTTP server and, when REFRESH_SCHEDULE is set, re-runs on that schedule.
package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/regain-housing-analysis/internal/adapter/chart"
	httpadapter "github.com/couchcryptid/regain-housing-analysis/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/regain-housing-analysis/internal/adapter/kafka"
	"github.com/couchcryptid/regain-housing-analysis/internal/adapter/postgres"
	"github.com/couchcryptid/regain-housing-analysis/internal/adapter/socrata"
	"github.com/couchcryptid/regain-housing-analysis/internal/adapter/xlsx"
	"github.com/couchcryptid/regain-housing-analysis/internal/config"
	"github.com/couchcryptid/regain-housing-analysis/internal/observability"
	"github.com/couchcryptid/regain-housing-analysis/internal/pipeline"
	"github.com/couchcryptid/regain-housing-analysis/internal/report"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, metrics); err != nil {
		logger.Error("analysis failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	var source pipeline.Source
	if cfg.SourceFile != "" {
		source = socrata.NewFileSource(cfg.SourceFile)
		logger.Info("reading snapshot", "path", cfg.SourceFile)
	} else {
		source = socrata.NewClient(cfg.SocrataURL(), cfg.SocrataAppToken, cfg.SocrataTimeout, logger)
		logger.Info("fetching from socrata", "url", cfg.SocrataURL(), "timeout", cfg.SocrataTimeout)
	}

	publishers, closers, err := openPublishers(ctx, cfg, logger)
	defer func() {
		for _, c := range closers {
			if cerr := c.Close(); cerr != nil {
				logger.Error("close publisher", "error", cerr)
			}
		}
	}()
	if err != nil {
		return err
	}

	analyzer := pipeline.New(source, chart.NewRenderer(), pipeline.Options{
		OutputFile: cfg.OutputFile,
		SliceMode:  cfg.SliceMode,
		Eras:       cfg.Eras,
	}, logger, metrics, publishers...)

	result, err := analyzer.Run(ctx)
	if result != nil {
		if werr := report.Write(os.Stdout, result); werr != nil {
			logger.Warn("print report", "error", werr)
		}
	}
	if !cfg.Serve {
		return err
	}
	if err != nil {
		// The server still starts; readiness reports the failure until a refresh succeeds.
		logger.Error("initial run failed", "error", err)
	}
	return serve(ctx, cfg, analyzer, logger)
}

// openPublishers builds every enabled sink. Closers are returned even on error
// so the caller can release what was opened.
func openPublishers(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]pipeline.Publisher, []io.Closer, error) {
	var (
		publishers []pipeline.Publisher
		closers    []io.Closer
	)

	if cfg.XLSXFile != "" {
		publishers = append(publishers, xlsx.NewExporter(cfg.XLSXFile, logger))
		logger.Info("xlsx export enabled", "path", cfg.XLSXFile)
	}

	if cfg.KafkaEnabled {
		p := kafkaadapter.NewPublisher(cfg, logger)
		publishers = append(publishers, p)
		closers = append(closers, p)
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("kafka publishing disabled")
	}

	if cfg.PostgresDSN != "" {
		store, err := postgres.Open(ctx, cfg.PostgresDSN, logger)
		if err != nil {
			return nil, closers, err
		}
		publishers = append(publishers, store)
		closers = append(closers, store)
		logger.Info("postgres publishing enabled")
	}

	return publishers, closers, nil
}

// refreshTimeout bounds a scheduled run, publishing included.
const refreshTimeout = 5 * time.Minute

func serve(ctx context.Context, cfg *config.Config, analyzer *pipeline.Analyzer, logger *slog.Logger) error {
	srv := httpadapter.NewServer(cfg.HTTPAddr, analyzer, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	var scheduler *pipeline.Scheduler
	if cfg.RefreshSchedule != "" {
		var err error
		scheduler, err = pipeline.NewScheduler(cfg.RefreshSchedule, analyzer, refreshTimeout, logger)
		if err != nil {
			return err
		}
		scheduler.Start()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if scheduler != nil {
		scheduler.Stop(shutdownCtx)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

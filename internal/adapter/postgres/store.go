// Package postgres persists analysis results to PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/couchcryptid/regain-housing-analysis/internal/domain"
)

const (
	maxOpenConns    = 4
	maxIdleConns    = 2
	connMaxLifetime = 5 * time.Minute
)

const schema = `
CREATE TABLE IF NOT EXISTS observations (
	year                       INTEGER NOT NULL,
	month                      SMALLINT NOT NULL,
	date                       DATE NOT NULL,
	number_served              BIGINT NOT NULL,
	annual_cumulative_distinct BIGINT NOT NULL,
	year_end_target            BIGINT NOT NULL,
	pct_chg_no_served_mom      DOUBLE PRECISION,
	generated_at               TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (year, month)
);
CREATE TABLE IF NOT EXISTS annual_summaries (
	year                       INTEGER PRIMARY KEY,
	annual_cumulative_distinct BIGINT NOT NULL,
	year_end_target            BIGINT NOT NULL,
	pct_change                 DOUBLE PRECISION,
	pct_of_target              DOUBLE PRECISION,
	generated_at               TIMESTAMPTZ NOT NULL
);`

// Observations are keyed by period. The row's date may move within its month
// between runs when the upstream re-dates a record.
const upsertObservation = `
INSERT INTO observations (date, year, month, number_served, annual_cumulative_distinct,
	year_end_target, pct_chg_no_served_mom, generated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (year, month) DO UPDATE SET
	date = EXCLUDED.date,
	number_served = EXCLUDED.number_served,
	annual_cumulative_distinct = EXCLUDED.annual_cumulative_distinct,
	year_end_target = EXCLUDED.year_end_target,
	pct_chg_no_served_mom = EXCLUDED.pct_chg_no_served_mom,
	generated_at = EXCLUDED.generated_at`

const upsertAnnual = `
INSERT INTO annual_summaries (year, annual_cumulative_distinct, year_end_target,
	pct_change, pct_of_target, generated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (year) DO UPDATE SET
	annual_cumulative_distinct = EXCLUDED.annual_cumulative_distinct,
	year_end_target = EXCLUDED.year_end_target,
	pct_change = EXCLUDED.pct_change,
	pct_of_target = EXCLUDED.pct_of_target,
	generated_at = EXCLUDED.generated_at`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Store upserts observations and annual summaries.
// It implements pipeline.Publisher.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open connects to dsn, checks connectivity and creates the tables if needed.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", describe(err))
	}

	s := &Store{db: db, logger: logger}
	if err := s.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// EnsureSchema creates the result tables when they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", describe(err))
	}
	return nil
}

// Name identifies the sink in logs and metrics.
func (s *Store) Name() string { return "postgres" }

// Publish upserts the whole result in one transaction.
func (s *Store) Publish(ctx context.Context, result *domain.Result) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", describe(err))
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				s.logger.Warn("rollback failed", "error", rbErr)
			}
		}
	}()

	if err = upsertAll(ctx, tx, result); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", describe(err))
	}
	s.logger.Debug("postgres upsert complete",
		"observations", len(result.Observations),
		"annual_summaries", len(result.Annual),
	)
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func upsertAll(ctx context.Context, ex execer, result *domain.Result) error {
	for _, o := range result.Observations {
		if _, err := ex.ExecContext(ctx, upsertObservation, observationArgs(o, result.GeneratedAt)...); err != nil {
			return fmt.Errorf("upsert observation %s: %w", o.Key(), describe(err))
		}
	}
	for _, a := range result.Annual {
		if _, err := ex.ExecContext(ctx, upsertAnnual, annualArgs(a, result.GeneratedAt)...); err != nil {
			return fmt.Errorf("upsert annual summary %d: %w", a.Year, describe(err))
		}
	}
	return nil
}

func observationArgs(o domain.Observation, generatedAt time.Time) []any {
	return []any{
		o.Key(),
		o.Year,
		int(o.Month),
		o.NumberServed,
		o.AnnualCumulativeDistinct,
		o.YearEndTarget,
		nullable(o.PctChgNoServedMoM),
		generatedAt,
	}
}

func annualArgs(a domain.AnnualSummary, generatedAt time.Time) []any {
	return []any{
		a.Year,
		a.AnnualCumulativeDistinct,
		a.YearEndTarget,
		nullable(a.PctChange),
		nullable(a.PctOfTarget),
		generatedAt,
	}
}

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

// describe adds the SQLSTATE code to server-side errors.
func describe(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Errorf("%w (sqlstate %s %s)", err, pqErr.Code, pqErr.Code.Name())
	}
	return err
}

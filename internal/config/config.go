package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/couchcryptid/regain-housing-analysis/internal/domain"
)

// Config holds all run settings, populated from environment variables.
type Config struct {
	SocrataDomain   string
	SocrataDataset  string
	SocrataAppToken string
	SocrataTimeout  time.Duration
	SourceFile      string

	OutputFile string
	SliceMode  string
	Eras       []domain.Era

	XLSXFile     string
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
	PostgresDSN  string

	Serve           bool
	HTTPAddr        string
	RefreshSchedule string
	ShutdownTimeout time.Duration

	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment, after loading a .env file from
// the working directory if one exists. Variables already set are not overridden.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	socrataTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("SOCRATA_TIMEOUT", "30s"))
	if err != nil || socrataTimeout <= 0 {
		return nil, errors.New("invalid SOCRATA_TIMEOUT")
	}

	eras := domain.DefaultEras
	if path := os.Getenv("ERAS_FILE"); path != "" {
		eras, err = LoadEras(path)
		if err != nil {
			return nil, fmt.Errorf("ERAS_FILE: %w", err)
		}
	}

	cfg := &Config{
		SocrataDomain:   sharedcfg.EnvOrDefault("SOCRATA_DOMAIN", "internal.open.piercecountywa.gov"),
		SocrataDataset:  sharedcfg.EnvOrDefault("SOCRATA_DATASET", "qghi-2efp"),
		SocrataAppToken: os.Getenv("SOCRATA_APP_TOKEN"),
		SocrataTimeout:  socrataTimeout,
		SourceFile:      os.Getenv("SOURCE_FILE"),

		OutputFile: sharedcfg.EnvOrDefault("OUTPUT_FILE", "pcod.jpg"),
		SliceMode:  strings.ToLower(sharedcfg.EnvOrDefault("SLICE_MODE", domain.SliceModeEras)),
		Eras:       eras,

		XLSXFile:     os.Getenv("XLSX_FILE"),
		KafkaEnabled: os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "regain-housing"),
		PostgresDSN:  os.Getenv("POSTGRES_DSN"),

		Serve:           os.Getenv("SERVE") == "true",
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		RefreshSchedule: os.Getenv("REFRESH_SCHEDULE"),
		ShutdownTimeout: shutdownTimeout,

		LogLevel:  sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
	}

	if cfg.SourceFile == "" && (cfg.SocrataDomain == "" || cfg.SocrataDataset == "") {
		return nil, errors.New("SOCRATA_DOMAIN and SOCRATA_DATASET are required without SOURCE_FILE")
	}
	if cfg.SliceMode != domain.SliceModeEras && cfg.SliceMode != domain.SliceModeRows {
		return nil, fmt.Errorf("SLICE_MODE must be %q or %q", domain.SliceModeEras, domain.SliceModeRows)
	}
	switch strings.ToLower(filepath.Ext(cfg.OutputFile)) {
	case ".jpg", ".jpeg", ".png":
	default:
		return nil, errors.New("OUTPUT_FILE must end in .jpg, .jpeg or .png")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_ENABLED is true")
	}
	if cfg.RefreshSchedule != "" {
		if _, err := cron.ParseStandard(cfg.RefreshSchedule); err != nil {
			return nil, fmt.Errorf("invalid REFRESH_SCHEDULE: %w", err)
		}
	}

	return cfg, nil
}

// SocrataURL is the SODA resource endpoint for the configured dataset.
func (c *Config) SocrataURL() string {
	return fmt.Sprintf("https://%s/resource/%s.json", c.SocrataDomain, c.SocrataDataset)
}

// Package config loads application configuration from environment variables,
// with a .env file honored for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/dvnair/fraudsight/internal/detector"
)

// Config holds all application configuration.
type Config struct {
	// GCP settings
	ProjectID          string // GCP project hosting storage, Firestore and BigQuery
	Bucket             string // bucket raw batch files are uploaded to
	FirestoreDatabase  string // Firestore database id ("(default)" unless overridden)
	BigQueryDataset    string // dataset for the ingest_runs audit table
	PubSubSubscription string // subscription delivering file events; empty = in-memory queue

	// Server settings
	Port     string
	LogLevel string

	// Detector thresholds
	HighValueATMThreshold float64
	HighValueUPIThreshold float64
	RapidWindowMinutes    int
	RapidMinCount         int
	GeoAnomalyKm          float64

	// Alert enrichment (optional)
	EnableAlertSummaries bool
	SummaryModel         string
}

const (
	DefaultPort              = "8080"
	DefaultLogLevel          = "info"
	DefaultFirestoreDatabase = "(default)"
	DefaultBigQueryDataset   = "fraud"
	DefaultSummaryModel      = "gemini-2.5-flash"
)

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	defaults := detector.DefaultConfig()

	cfg := &Config{
		ProjectID:          os.Getenv("GCP_PROJECT"),
		Bucket:             os.Getenv("GCS_BUCKET"),
		FirestoreDatabase:  getEnv("FIRESTORE_DATABASE", DefaultFirestoreDatabase),
		BigQueryDataset:    getEnv("BIGQUERY_DATASET", DefaultBigQueryDataset),
		PubSubSubscription: os.Getenv("PUBSUB_SUBSCRIPTION"),

		Port:     getEnv("PORT", DefaultPort),
		LogLevel: getEnv("LOG_LEVEL", DefaultLogLevel),

		HighValueATMThreshold: getEnvFloat("HIGH_VALUE_ATM_THRESHOLD", defaults.HighValueATMThreshold),
		HighValueUPIThreshold: getEnvFloat("HIGH_VALUE_UPI_THRESHOLD", defaults.HighValueUPIThreshold),
		RapidWindowMinutes:    getEnvInt("RAPID_WINDOW_MINUTES", int(defaults.RapidWindow/time.Minute)),
		RapidMinCount:         getEnvInt("RAPID_MIN_COUNT", defaults.RapidMinCount),
		GeoAnomalyKm:          getEnvFloat("GEO_ANOMALY_KM", defaults.GeoAnomalyKm),

		EnableAlertSummaries: getEnvBool("ENABLE_ALERT_SUMMARIES", false),
		SummaryModel:         getEnv("SUMMARY_MODEL", DefaultSummaryModel),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required configuration is present and sane.
func (c *Config) Validate() error {
	if c.ProjectID == "" {
		return fmt.Errorf("GCP_PROJECT is required")
	}
	if c.RapidWindowMinutes <= 0 {
		return fmt.Errorf("RAPID_WINDOW_MINUTES must be positive, got %d", c.RapidWindowMinutes)
	}
	if c.RapidMinCount < 2 {
		return fmt.Errorf("RAPID_MIN_COUNT must be at least 2, got %d", c.RapidMinCount)
	}
	if c.HighValueATMThreshold <= 0 || c.HighValueUPIThreshold <= 0 {
		return fmt.Errorf("high-value thresholds must be positive")
	}
	if c.GeoAnomalyKm <= 0 {
		return fmt.Errorf("GEO_ANOMALY_KM must be positive, got %f", c.GeoAnomalyKm)
	}
	return nil
}

// DetectorConfig maps the flat env fields onto the detector's config struct.
func (c *Config) DetectorConfig() detector.Config {
	return detector.Config{
		HighValueATMThreshold: c.HighValueATMThreshold,
		HighValueUPIThreshold: c.HighValueUPIThreshold,
		RapidWindow:           time.Duration(c.RapidWindowMinutes) * time.Minute,
		RapidMinCount:         c.RapidMinCount,
		GeoAnomalyKm:          c.GeoAnomalyKm,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

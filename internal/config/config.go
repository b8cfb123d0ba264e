// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/dvloznov/finance-analytics/internal/analytics"
)

// Store backends.
const (
	BackendBigQuery = "bigquery"
	BackendSQLite   = "sqlite"
)

// Config holds application configuration.
type Config struct {
	Port     int
	LogLevel string

	StoreBackend string
	GCPProject   string
	BQDataset    string
	SQLitePath   string
	GCSBucket    string

	NotionToken           string
	NotionSubscriptionsDB string

	GeminiModel string

	ReportSchedule string
	ReportOwners   []string

	DefaultLookbackMonths int
	CashFlowMonths        int
	ForecastHorizon       int

	CORSOrigins []string
}

// Load reads configuration from a .env file, when present, and the
// environment, then validates it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:                  getEnvAsInt("PORT", 8080),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		StoreBackend:          strings.ToLower(getEnv("STORE_BACKEND", BackendBigQuery)),
		GCPProject:            getEnv("GCP_PROJECT", ""),
		BQDataset:             getEnv("BQ_DATASET", "finance"),
		SQLitePath:            getEnv("SQLITE_PATH", "./data/finance.db"),
		GCSBucket:             getEnv("GCS_BUCKET", ""),
		NotionToken:           getEnv("NOTION_TOKEN", ""),
		NotionSubscriptionsDB: getEnv("NOTION_SUBSCRIPTIONS_DB", ""),
		GeminiModel:           getEnv("GEMINI_MODEL", ""),
		ReportSchedule:        getEnv("REPORT_SCHEDULE", ""),
		ReportOwners:          getEnvAsList("REPORT_OWNERS"),
		DefaultLookbackMonths: getEnvAsInt("DEFAULT_LOOKBACK_MONTHS", analytics.DefaultLookbackMonths),
		CashFlowMonths:        getEnvAsInt("CASH_FLOW_MONTHS", analytics.DefaultLookbackMonths),
		ForecastHorizon:       getEnvAsInt("FORECAST_HORIZON", analytics.DefaultForecastHorizon),
		CORSOrigins:           getEnvAsList("CORS_ORIGINS"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}

	switch c.StoreBackend {
	case BackendBigQuery:
		if c.GCPProject == "" {
			return fmt.Errorf("GCP_PROJECT is required for the bigquery store")
		}
		if c.BQDataset == "" {
			return fmt.Errorf("BQ_DATASET is required for the bigquery store")
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite store")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", BackendBigQuery, BackendSQLite, c.StoreBackend)
	}

	if c.DefaultLookbackMonths < 1 || c.DefaultLookbackMonths > analytics.MaxLookbackMonths {
		return fmt.Errorf("DEFAULT_LOOKBACK_MONTHS must be between 1 and %d", analytics.MaxLookbackMonths)
	}
	if c.CashFlowMonths < 1 || c.CashFlowMonths > analytics.MaxLookbackMonths {
		return fmt.Errorf("CASH_FLOW_MONTHS must be between 1 and %d", analytics.MaxLookbackMonths)
	}
	if c.ForecastHorizon < 1 || c.ForecastHorizon > analytics.MaxForecastHorizon {
		return fmt.Errorf("FORECAST_HORIZON must be between 1 and %d", analytics.MaxForecastHorizon)
	}

	if c.ReportSchedule != "" && len(c.ReportOwners) == 0 {
		return fmt.Errorf("REPORT_OWNERS is required when REPORT_SCHEDULE is set")
	}
	return nil
}

// NotionEnabled reports whether Notion credentials are configured.
func (c *Config) NotionEnabled() bool {
	return c.NotionToken != "" && c.NotionSubscriptionsDB != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated value, dropping empty entries.
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

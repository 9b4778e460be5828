package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// Config holds all runtime configuration parameters
type Config struct {
	SerperAPIKey  string `json:"-"`
	SerpAPIAPIKey string `json:"-"`

	GL   string `json:"gl"`
	HL   string `json:"hl"`
	TopN int    `json:"top_n"`

	UserAgent        string `json:"user_agent"`
	RequestTimeoutMs int    `json:"request_timeout_ms"`
	RequestDelayMs   int    `json:"request_delay_ms"`
	MaxContactPages  int    `json:"max_contact_pages"`
	EnrichWorkers    int    `json:"enrich_workers"`

	KeywordsPath string `json:"keywords_path"`
	DBPath       string `json:"db_path"`
	ExportDir    string `json:"export_dir"`
	MetricsPath  string `json:"metrics_path"`

	ScheduleCron    string `json:"schedule_cron"`
	RunEverySeconds int    `json:"run_every_seconds"`

	PushWorkbook bool   `json:"push_workbook"`
	WorkbookPath string `json:"workbook_path"`

	LogLevel string `json:"log_level"`
}

// LoadConfig reads and validates configuration from a JSON file.
// A missing file is not an error: defaults plus environment overrides
// are enough to run. API keys are only ever read from the environment.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	file, err := os.Open(path)
	if err == nil {
		defer file.Close()
		decoder := json.NewDecoder(file)
		if decodeErr := decoder.Decode(&cfg); decodeErr != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", decodeErr)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	// Apply defaults for missing values
	applyDefaults(&cfg)

	// Environment always wins over file values
	applyEnv(&cfg)

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for unspecified fields
func applyDefaults(cfg *Config) {
	if cfg.GL == "" {
		cfg.GL = "ua"
	}
	if cfg.HL == "" {
		cfg.HL = "uk"
	}
	if cfg.TopN == 0 {
		cfg.TopN = 30
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Mozilla/5.0 (SERP-Scout/1.0)"
	}
	if cfg.RequestTimeoutMs == 0 {
		cfg.RequestTimeoutMs = 20000
	}
	if cfg.RequestDelayMs == 0 {
		cfg.RequestDelayMs = 200
	}
	if cfg.MaxContactPages == 0 {
		cfg.MaxContactPages = 3
	}
	if cfg.EnrichWorkers == 0 {
		cfg.EnrichWorkers = 8
	}
	if cfg.KeywordsPath == "" {
		cfg.KeywordsPath = "keywords.txt"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "serp.db"
	}
	if cfg.ExportDir == "" {
		cfg.ExportDir = "exports"
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "metrics.log"
	}
	if cfg.RunEverySeconds == 0 {
		cfg.RunEverySeconds = 86400
	}
	if cfg.WorkbookPath == "" {
		cfg.WorkbookPath = "exports/serp-scout.xlsx"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

// applyEnv overrides file values with environment variables where set
func applyEnv(cfg *Config) {
	cfg.SerperAPIKey = envString("SERPER_API_KEY", cfg.SerperAPIKey)
	cfg.SerpAPIAPIKey = envString("SERPAPI_API_KEY", cfg.SerpAPIAPIKey)
	cfg.GL = envString("GL", cfg.GL)
	cfg.HL = envString("HL", cfg.HL)
	cfg.TopN = envInt("TOP_N", cfg.TopN)
	cfg.UserAgent = envString("HTTP_USER_AGENT", cfg.UserAgent)
	cfg.RequestTimeoutMs = envInt("HTTP_TIMEOUT_MS", cfg.RequestTimeoutMs)
	cfg.RequestDelayMs = envInt("HTTP_DELAY_MS", cfg.RequestDelayMs)
	cfg.MaxContactPages = envInt("MAX_CONTACT_PAGES", cfg.MaxContactPages)
	cfg.EnrichWorkers = envInt("MAX_WORKERS", cfg.EnrichWorkers)
	cfg.KeywordsPath = envString("KEYWORDS_PATH", cfg.KeywordsPath)
	cfg.DBPath = envString("DB_PATH", cfg.DBPath)
	cfg.ExportDir = envString("EXPORT_DIR", cfg.ExportDir)
	cfg.MetricsPath = envString("METRICS_PATH", cfg.MetricsPath)
	cfg.ScheduleCron = envString("SCHEDULE_CRON", cfg.ScheduleCron)
	cfg.RunEverySeconds = envInt("RUN_EVERY_SECONDS", cfg.RunEverySeconds)
	cfg.WorkbookPath = envString("WORKBOOK_PATH", cfg.WorkbookPath)
	cfg.LogLevel = envString("LOG_LEVEL", cfg.LogLevel)

	if v := os.Getenv("PUSH_TO_WORKBOOK"); v == "1" || v == "true" || v == "True" {
		cfg.PushWorkbook = true
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
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

// validate checks that required fields are present and values are sensible
func validate(cfg *Config) error {
	if cfg.TopN < 1 || cfg.TopN > 100 {
		return fmt.Errorf("top_n must be between 1 and 100")
	}
	if cfg.EnrichWorkers < 1 {
		return fmt.Errorf("enrich_workers must be >= 1")
	}
	if cfg.MaxContactPages < 0 {
		return fmt.Errorf("max_contact_pages must be >= 0")
	}
	if cfg.RequestTimeoutMs < 1000 {
		return fmt.Errorf("request_timeout_ms must be >= 1000")
	}
	if cfg.RunEverySeconds < 60 {
		return fmt.Errorf("run_every_seconds must be >= 60")
	}
	return nil
}

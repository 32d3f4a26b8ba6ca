// Package config contains everything related to configuration
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/tbeek/covidnl-tui/internal/models"
	"github.com/tbeek/covidnl-tui/internal/stats"
)

// Validation errors, surfaced to the user verbatim.
var (
	ErrInvalidWindow    = errors.New("smoothing window must be 0 (off) or at least 2")
	ErrInvalidCutoff    = errors.New("cutoff days must not be negative")
	ErrInvalidStack     = errors.New("stacking must be one of: region, sex, age")
	ErrInvalidRegion    = errors.New("unknown province name")
	ErrPerCapitaStack   = errors.New("per capita charts only support stacking by region")
	ErrRegionStackClash = errors.New("a province filter cannot be combined with stacking by region")
)

// Config holds the application configuration.
type Config struct {
	DatasetURL    string `json:"dataset_url"`
	CachePath     string `json:"cache_path"`
	DatabasePath  string `json:"database_path"`
	ForceDownload bool   `json:"force_download"`

	SmoothingWindow int    `json:"smoothing_window"` // 0 disables smoothing
	CutoffDays      int    `json:"cutoff_days"`      // trailing days dropped as incomplete
	Region          string `json:"region"`
	AgeFilter       string `json:"age_filter"`
	DateFilter      string `json:"date_filter"` // ISO date or relative like "3w"
	StackBy         string `json:"stack_by"`    // "", region, sex or age
	PerCapita       bool   `json:"per_capita"`
	Logarithmic     bool   `json:"logarithmic"`
}

// Load reads configuration from an optional JSON config file, then .env files
// and environment variables. Environment values win over the config file.
func Load() (*Config, error) {
	envPaths := getEnvPaths()
	for _, path := range envPaths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	cfg := &Config{
		DatasetURL:      DefaultDatasetURL,
		CachePath:       getDefaultCachePath(),
		DatabasePath:    getDefaultDatabasePath(),
		SmoothingWindow: DefaultSmoothingWindow,
		CutoffDays:      DefaultCutoffDays,
	}

	if err := cfg.loadFile(getConfigFilePath()); err != nil {
		return nil, err
	}

	cfg.DatasetURL = getEnvString("COVIDNL_DATASET_URL", cfg.DatasetURL)
	cfg.CachePath = getEnvString("COVIDNL_CACHE_PATH", cfg.CachePath)
	cfg.DatabasePath = getEnvString("COVIDNL_DATABASE_PATH", cfg.DatabasePath)
	cfg.ForceDownload = getEnvBool("COVIDNL_FORCE_DOWNLOAD", cfg.ForceDownload)
	cfg.SmoothingWindow = getEnvInt("COVIDNL_SMOOTHING_WINDOW", cfg.SmoothingWindow)
	cfg.CutoffDays = getEnvInt("COVIDNL_CUTOFF_DAYS", cfg.CutoffDays)
	cfg.Region = getEnvString("COVIDNL_REGION", cfg.Region)
	cfg.AgeFilter = getEnvString("COVIDNL_AGE_FILTER", cfg.AgeFilter)
	cfg.DateFilter = getEnvString("COVIDNL_DATE_FILTER", cfg.DateFilter)
	cfg.StackBy = getEnvString("COVIDNL_STACK_BY", cfg.StackBy)
	cfg.PerCapita = getEnvBool("COVIDNL_PER_CAPITA", cfg.PerCapita)
	cfg.Logarithmic = getEnvBool("COVIDNL_LOGARITHMIC", cfg.Logarithmic)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := ensureDir(filepath.Dir(cfg.CachePath)); err != nil {
		return nil, err
	}
	if err := ensureDir(filepath.Dir(cfg.DatabasePath)); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile overlays values from a JSON config file if one exists.
func (cfg *Config) loadFile(path string) error {
	if path == "" {
		return nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(content, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks every setting and the combinations between them. The region
// name is normalized in place on success.
func (cfg *Config) Validate() error {
	if cfg.SmoothingWindow != 0 && cfg.SmoothingWindow < 2 {
		return ErrInvalidWindow
	}
	if cfg.CutoffDays < 0 {
		return ErrInvalidCutoff
	}

	switch cfg.StackBy {
	case "", string(stats.StackRegion), string(stats.StackSex), string(stats.StackAge):
	default:
		return ErrInvalidStack
	}

	if cfg.Region != "" {
		normalized, ok := models.NormalizeRegion(cfg.Region)
		if !ok {
			return fmt.Errorf("%w: %q", ErrInvalidRegion, cfg.Region)
		}
		cfg.Region = normalized
	}

	if cfg.AgeFilter != "" {
		if _, err := models.ResolveAgeFilter(cfg.AgeFilter); err != nil {
			return err
		}
	}

	if cfg.DateFilter != "" {
		if _, err := ParseDateFilter(cfg.DateFilter, time.Now()); err != nil {
			return err
		}
	}

	if cfg.PerCapita && cfg.StackBy != "" && cfg.StackBy != string(stats.StackRegion) {
		return ErrPerCapitaStack
	}
	if cfg.Region != "" && cfg.StackBy == string(stats.StackRegion) {
		return ErrRegionStackClash
	}

	return nil
}

// Filter builds the case filter described by the configuration. The date
// filter is resolved relative to anchor, usually the dataset file date.
func (cfg *Config) Filter(anchor time.Time) (*models.CaseFilter, error) {
	var fromDate time.Time
	if cfg.DateFilter != "" {
		var err error
		fromDate, err = ParseDateFilter(cfg.DateFilter, anchor)
		if err != nil {
			return nil, err
		}
	}

	var cutoffDate time.Time
	if cfg.CutoffDays > 0 && !anchor.IsZero() {
		cutoffDate = anchor.AddDate(0, 0, -cfg.CutoffDays)
	}

	return models.NewCaseFilter(cfg.Region, cfg.AgeFilter, fromDate, cutoffDate)
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "covidnl-tui", ".env"))
	}

	return paths
}

func getConfigFilePath() string {
	if path := os.Getenv("COVIDNL_CONFIG"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "covidnl-tui", "config.json")
}

func getDefaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "covid-latest.json"
	}
	return filepath.Join(home, ".cache", "covidnl-tui", "covid-latest.json")
}

func getDefaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "covidnl.db"
	}
	return filepath.Join(home, ".cache", "covidnl-tui", "covidnl.db")
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns the default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns the default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}

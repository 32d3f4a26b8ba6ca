package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		DatasetURL:      DefaultDatasetURL,
		CachePath:       "covid-latest.json",
		DatabasePath:    "covidnl.db",
		SmoothingWindow: DefaultSmoothingWindow,
		CutoffDays:      DefaultCutoffDays,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"Defaults", func(cfg *Config) {}, nil},
		{"SmoothingOff", func(cfg *Config) { cfg.SmoothingWindow = 0 }, nil},
		{"SmoothingTooSmall", func(cfg *Config) { cfg.SmoothingWindow = 1 }, ErrInvalidWindow},
		{"NegativeCutoff", func(cfg *Config) { cfg.CutoffDays = -1 }, ErrInvalidCutoff},
		{"ZeroCutoff", func(cfg *Config) { cfg.CutoffDays = 0 }, nil},
		{"StackBySex", func(cfg *Config) { cfg.StackBy = "sex" }, nil},
		{"StackByUnknown", func(cfg *Config) { cfg.StackBy = "province" }, ErrInvalidStack},
		{"KnownRegion", func(cfg *Config) { cfg.Region = "Utrecht" }, nil},
		{"UnknownRegion", func(cfg *Config) { cfg.Region = "Atlantis" }, ErrInvalidRegion},
		{"PerCapitaPlain", func(cfg *Config) { cfg.PerCapita = true }, nil},
		{"PerCapitaRegionStack", func(cfg *Config) {
			cfg.PerCapita = true
			cfg.StackBy = "region"
		}, nil},
		{"PerCapitaSexStack", func(cfg *Config) {
			cfg.PerCapita = true
			cfg.StackBy = "sex"
		}, ErrPerCapitaStack},
		{"RegionFilterWithRegionStack", func(cfg *Config) {
			cfg.Region = "Utrecht"
			cfg.StackBy = "region"
		}, ErrRegionStackClash},
		{"BadAgeFilter", func(cfg *Config) { cfg.AgeFilter = "abc" }, nil},
		{"BadDateFilter", func(cfg *Config) { cfg.DateFilter = "lastweek" }, ErrInvalidDateFilter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.name == "BadAgeFilter" {
				if err == nil {
					t.Fatal("Validate() should reject malformed age filter")
				}
				return
			}
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() failed: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_NormalizesRegion(t *testing.T) {
	cfg := validConfig()
	cfg.Region = "noord holland"

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
	if cfg.Region != "Noord-Holland" {
		t.Errorf("Region = %q, want %q", cfg.Region, "Noord-Holland")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"smoothing_window": 5, "region": "Friesland", "per_capita": true}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg := validConfig()
	if err := cfg.loadFile(path); err != nil {
		t.Fatalf("loadFile() failed: %v", err)
	}

	if cfg.SmoothingWindow != 5 {
		t.Errorf("SmoothingWindow = %d, want 5", cfg.SmoothingWindow)
	}
	if cfg.Region != "Friesland" {
		t.Errorf("Region = %q, want Friesland", cfg.Region)
	}
	if !cfg.PerCapita {
		t.Error("PerCapita should be true")
	}
	// Untouched keys keep their defaults.
	if cfg.CutoffDays != DefaultCutoffDays {
		t.Errorf("CutoffDays = %d, want %d", cfg.CutoffDays, DefaultCutoffDays)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	cfg := validConfig()
	if err := cfg.loadFile(filepath.Join(t.TempDir(), "absent.json")); err != nil {
		t.Errorf("loadFile() should ignore a missing file, got %v", err)
	}
}

func TestLoadFile_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{nope"), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg := validConfig()
	if err := cfg.loadFile(path); err == nil {
		t.Error("loadFile() should reject malformed JSON")
	}
}

func TestFilter(t *testing.T) {
	anchor := time.Date(2020, 10, 15, 0, 0, 0, 0, time.UTC)

	cfg := validConfig()
	cfg.Region = "Utrecht"
	cfg.DateFilter = "1w"
	cfg.CutoffDays = 3

	filter, err := cfg.Filter(anchor)
	if err != nil {
		t.Fatalf("Filter() failed: %v", err)
	}

	wantFrom := time.Date(2020, 10, 8, 0, 0, 0, 0, time.UTC)
	if !filter.FromDate.Equal(wantFrom) {
		t.Errorf("FromDate = %v, want %v", filter.FromDate, wantFrom)
	}
	wantCutoff := time.Date(2020, 10, 12, 0, 0, 0, 0, time.UTC)
	if !filter.CutoffDate.Equal(wantCutoff) {
		t.Errorf("CutoffDate = %v, want %v", filter.CutoffDate, wantCutoff)
	}
	if filter.Region != "Utrecht" {
		t.Errorf("Region = %q, want Utrecht", filter.Region)
	}
}

func TestFilter_NoCriteria(t *testing.T) {
	cfg := validConfig()
	cfg.CutoffDays = 0

	filter, err := cfg.Filter(time.Time{})
	if err != nil {
		t.Fatalf("Filter() failed: %v", err)
	}
	if !filter.FromDate.IsZero() || !filter.CutoffDate.IsZero() {
		t.Error("Filter without criteria should leave date bounds zero")
	}
}

func TestGetEnvString(t *testing.T) {
	key := "TEST_ENV_STRING"
	val := "test_value"
	os.Setenv(key, val)
	defer os.Unsetenv(key)

	if got := getEnvString(key, "default"); got != val {
		t.Errorf("getEnvString() = %q, want %q", got, val)
	}

	if got := getEnvString("NON_EXISTENT", "default"); got != "default" {
		t.Errorf("getEnvString() = %q, want %q", got, "default")
	}
}

func TestGetEnvInt(t *testing.T) {
	key := "TEST_ENV_INT"

	tests := []struct {
		name       string
		envVal     string
		defaultVal int
		want       int
	}{
		{"Valid", "14", 7, 14},
		{"Invalid", "fortnight", 7, 7},
		{"Empty", "", 7, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envVal != "" {
				os.Setenv(key, tt.envVal)
				defer os.Unsetenv(key)
			} else {
				os.Unsetenv(key)
			}

			if got := getEnvInt(key, tt.defaultVal); got != tt.want {
				t.Errorf("getEnvInt() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGetEnvBool(t *testing.T) {
	key := "TEST_ENV_BOOL"
	os.Setenv(key, "true")
	defer os.Unsetenv(key)

	if !getEnvBool(key, false) {
		t.Error("getEnvBool() should parse true")
	}

	os.Setenv(key, "not-a-bool")
	if !getEnvBool(key, true) {
		t.Error("getEnvBool() should fall back to default on parse failure")
	}
}

func TestEnsureDir(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "dir")

	if err := ensureDir(path); err != nil {
		t.Fatalf("ensureDir() failed: %v", err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("Directory was not created")
	}
}

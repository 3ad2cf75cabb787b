package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
)

const defaultConfigPath = "config.json"

var validate *validator.Validate

type Config struct {
	ContentRoot          string        `json:"content_root" validate:"required,dir"`
	OutputFile           string        `json:"output_file" validate:"required"`
	ResultUTCOffsetHours int           `json:"result_utc_offset_hours" validate:"utcoffset"`
	MetricsFile          string        `json:"metrics_file"`
	Fetch                FetchConfig   `json:"fetch" validate:"required"`
	Workers              WorkersConfig `json:"workers" validate:"required"`
	Groups               GroupsConfig  `json:"groups" validate:"required"`
}

type FetchConfig struct {
	TimeoutSeconds     int     `json:"timeout_seconds" validate:"min=1"`
	Concurrency        int     `json:"concurrency" validate:"min=1"`
	RequestsPerSecond  float64 `json:"requests_per_second" validate:"gte=0"` // 0 disables the limiter
	UserAgent          string  `json:"user_agent" validate:"required"`
	MaxBytes           int64   `json:"max_bytes" validate:"min=1"`
	InsecureSkipVerify bool    `json:"insecure_skip_verify"`
}

type WorkersConfig struct {
	Count int `json:"count" validate:"min=1"`
}

type GroupsConfig struct {
	IntervalSeconds int    `json:"interval_seconds" validate:"min=1"`
	TestURL         string `json:"test_url" validate:"omitempty,url"`
}

// Default returns the configuration used when no config file exists. Fields
// missing from a config file keep these values.
func Default() *Config {
	return &Config{
		ContentRoot:          "~/.config/chiaotu",
		OutputFile:           "chiaotu.yaml",
		ResultUTCOffsetHours: 8,
		Fetch: FetchConfig{
			TimeoutSeconds:    30,
			Concurrency:       4,
			RequestsPerSecond: 2,
			UserAgent:         "ClashMetaForAndroid/2.11.19",
			MaxBytes:          16 << 20,
		},
		Workers: WorkersConfig{
			Count: 4,
		},
		Groups: GroupsConfig{
			IntervalSeconds: 3600,
			TestURL:         "http://www.gstatic.com/generate_204",
		},
	}
}

// NewConfig creates a new Config instance from the environment
func NewConfig() (*Config, error) {
	configPath := os.Getenv("CONFIG_PATH")
	explicit := configPath != ""
	if !explicit {
		configPath = defaultConfigPath
	}

	cfg := Default()
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// No config file, run on defaults.
	default:
		return nil, fmt.Errorf("error reading config: %w", err)
	}

	root, err := expandHome(cfg.ContentRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve content root: %w", err)
	}
	cfg.ContentRoot = root

	// Create required directories if they don't exist
	if err := ensureDirectories(cfg); err != nil {
		return nil, fmt.Errorf("failed to create required directories: %w", err)
	}

	// Validate the configuration
	if err := validate.Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return nil, formatValidationErrors(validationErrors)
		}
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// ResultsDir is where timestamped merge results are written.
func (c *Config) ResultsDir() string {
	return filepath.Join(c.ContentRoot, "results")
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// ensureDirectories creates required directories if they don't exist
func ensureDirectories(cfg *Config) error {
	if cfg.ContentRoot == "" {
		return nil
	}

	dirs := []struct {
		path string
		name string
	}{
		{cfg.ContentRoot, "content root"},
		{cfg.ResultsDir(), "results"},
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir.path, 0755); err != nil {
			return fmt.Errorf("failed to create %s directory at %s: %w",
				dir.name, dir.path, err)
		}
	}

	return nil
}

func init() {
	validate = validator.New()

	if err := validate.RegisterValidation("dir", validateDir); err != nil {
		panic(fmt.Sprintf("failed to register dir validator: %v", err))
	}
	if err := validate.RegisterValidation("utcoffset", validateUTCOffset); err != nil {
		panic(fmt.Sprintf("failed to register utcoffset validator: %v", err))
	}
}

func validateDir(fl validator.FieldLevel) bool {
	path := fl.Field().String()
	if info, err := os.Stat(path); err != nil {
		return false
	} else {
		return info.IsDir()
	}
}

// Offsets in use range from UTC-12 to UTC+14.
func validateUTCOffset(fl validator.FieldLevel) bool {
	offset := fl.Field().Int()
	return offset >= -12 && offset <= 14
}

// formatValidationErrors formats validation errors into a user-friendly error message
func formatValidationErrors(errors validator.ValidationErrors) error {
	var errMsgs []string
	for _, err := range errors {
		errMsgs = append(errMsgs, fmt.Sprintf(
			"field '%s' failed validation: %s",
			err.Field(),
			err.Tag(),
		))
	}
	return fmt.Errorf("validation errors: %v", errMsgs)
}

// internal/appconfig/appconfig.go
// Package appconfig manages loading and interpreting application configuration.
package appconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/mwiater/foodbench/eval"
)

const (
	// DefaultConfigPath is the default path to the application's configuration file.
	DefaultConfigPath = "config/config.json"
	// legacyConfigPath is the path to the configuration file used in previous versions.
	legacyConfigPath = "config.json"
	// defaultWarmupRuns is the number of discarded inference passes run before timing starts.
	defaultWarmupRuns = 3
	// defaultShuffleSeed seeds the dataset shuffle so capped runs stay reproducible.
	defaultShuffleSeed = 42
	// defaultHistoryPath is where evaluation runs are archived when the config omits a path.
	defaultHistoryPath = "foodbench.db"
	// defaultRecordsPath is where per-image predictions are appended when the config omits a path.
	defaultRecordsPath = "records.jsonl"
	// defaultReportDir receives rendered reports when the config omits a directory.
	defaultReportDir = "reports"
	// defaultLogFile is the application log file when the config omits a path.
	defaultLogFile = "foodbench.log"
)

// Config represents the top-level application configuration.
type Config struct {
	ModelPath   string   `json:"modelPath,omitempty"`
	DatasetDir  string   `json:"datasetDir,omitempty"`
	RecordsPath string   `json:"recordsPath,omitempty"`
	ReportDir   string   `json:"reportDir,omitempty"`
	HistoryPath string   `json:"historyPath,omitempty"`
	LogFile     string   `json:"logFile,omitempty"`
	Classes     []string `json:"classes,omitempty"`
	Threshold   float64  `json:"threshold,omitempty"`
	Bins        int      `json:"bins,omitempty"`
	MiningDepth int      `json:"miningDepth,omitempty"`
	WarmupRuns  int      `json:"warmupRuns,omitempty"`
	SampleLimit int      `json:"sampleLimit,omitempty"`
	Seed        int64    `json:"seed,omitempty"`
	Workers     int      `json:"workers,omitempty"`
	Profile     string   `json:"profile,omitempty"`
	Debug       bool     `json:"debug"`
	NoColor     bool     `json:"noColor"`
	ConfigPath  string   `json:"-"`
}

// EvalSettings returns the analyzer settings with config values layered over
// the library defaults. Zero values leave the default in place; explicit
// invalid values surface through Settings.Validate.
func (c Config) EvalSettings() eval.Settings {
	settings := eval.DefaultSettings()
	if len(c.Classes) > 0 {
		settings.Classes = append([]string(nil), c.Classes...)
	}
	if c.Threshold != 0 {
		settings.Threshold = c.Threshold
	}
	if c.Bins != 0 {
		settings.Bins = c.Bins
	}
	if c.MiningDepth != 0 {
		settings.MiningDepth = c.MiningDepth
	}
	return settings
}

// WarmupCount returns the configured number of warmup inference passes.
func (c Config) WarmupCount() int {
	if c.WarmupRuns < 0 {
		return 0
	}
	if c.WarmupRuns == 0 {
		return defaultWarmupRuns
	}
	return c.WarmupRuns
}

// ShuffleSeed returns the seed used when sampling the dataset, applying the default if not set.
func (c Config) ShuffleSeed() int64 {
	if c.Seed == 0 {
		return defaultShuffleSeed
	}
	return c.Seed
}

// SampleCap returns the maximum number of images per run, where zero means no cap.
func (c Config) SampleCap() int {
	if c.SampleLimit < 0 {
		return 0
	}
	return c.SampleLimit
}

// WorkerCount returns the number of concurrent inference workers.
func (c Config) WorkerCount() int {
	if c.Workers <= 0 {
		return runtime.NumCPU()
	}
	return c.Workers
}

// LogFilePath returns the path to the application log file, applying a default if not set.
func (c Config) LogFilePath() string {
	if path := c.LogFile; strings.TrimSpace(path) != "" {
		return path
	}
	return defaultLogFile
}

// HistoryDBPath returns the path to the run history database, applying a default if not set.
func (c Config) HistoryDBPath() string {
	if path := c.HistoryPath; strings.TrimSpace(path) != "" {
		return path
	}
	return defaultHistoryPath
}

// RecordsFilePath returns the path predictions are written to, applying a default if not set.
func (c Config) RecordsFilePath() string {
	if path := c.RecordsPath; strings.TrimSpace(path) != "" {
		return path
	}
	return defaultRecordsPath
}

// ReportDirPath returns the directory rendered reports are written to, applying a default if not set.
func (c Config) ReportDirPath() string {
	if path := c.ReportDir; strings.TrimSpace(path) != "" {
		return path
	}
	return defaultReportDir
}

// Load reads the application configuration from the specified path, with fallback to a legacy path.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}

	config, err := loadFromPath(path)
	if err == nil {
		if err := finalize(&config); err != nil {
			return Config{}, fmt.Errorf("config file %q: %w", path, err)
		}
		config.ConfigPath = path
		return config, nil
	}

	if errors.Is(err, os.ErrNotExist) {
		if path == DefaultConfigPath {
			config, legacyErr := loadFromPath(legacyConfigPath)
			if legacyErr == nil {
				if err := finalize(&config); err != nil {
					return Config{}, fmt.Errorf("config file %q: %w", legacyConfigPath, err)
				}
				config.ConfigPath = legacyConfigPath
				return config, nil
			}
			if errors.Is(legacyErr, os.ErrNotExist) {
				return Config{}, fmt.Errorf("no configuration file found (searched %q and %q)", DefaultConfigPath, legacyConfigPath)
			}
			return Config{}, fmt.Errorf("could not read config file %q: %w", legacyConfigPath, legacyErr)
		}
		return Config{}, fmt.Errorf("no configuration file found at %q", path)
	}

	return Config{}, fmt.Errorf("could not read config file %q: %w", path, err)
}

// finalize resolves the evaluation profile and rejects invalid settings.
func finalize(config *Config) error {
	if err := ApplyEvalProfile(config); err != nil {
		return err
	}
	return config.EvalSettings().Validate()
}

// loadFromPath is a helper function that loads the configuration from a specific file path.
func loadFromPath(path string) (Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	if err := json.NewDecoder(file).Decode(&config); err != nil {
		return Config{}, err
	}

	return config, nil
}

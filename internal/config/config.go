// =============================================================================
// Contpaq Normalizer - Configuration Module
// =============================================================================
//
// This module loads and validates the application configuration. A single
// config.yaml covers everything: directory layout for batch ingestion, the
// persistent store location, logging, and the processing thresholds that the
// detection and normalization stages consult.
//
// The configuration is designed to work out of the box: every key has a
// default, so an empty (or missing) file yields a usable configuration rooted
// at the current directory.
//
// =============================================================================

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
// This is loaded from the main config.yaml file.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is the directory scanned for input XLSX workbooks.
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir is the directory where exported workbooks are written.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// InputArchiveDir is the directory where processed workbooks are moved.
	// Files are only moved here after successful processing.
	// Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir"`

	// StorePath is the path to the JSON data store file.
	// Default: "./data/store.json"
	StorePath string `yaml:"store_path"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogFile is the path to the application log file.
	// Default: "./logs/normalizer.log"
	LogFile string `yaml:"log_file"`

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency is the maximum number of files to process concurrently.
	// Set to 1 for sequential processing.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency"`

	// MinConfidence is the detection confidence (0-100) below which a file is
	// rejected instead of ingested. Passing an explicit file type on the
	// command line bypasses this check.
	// Default: 50
	MinConfidence int `yaml:"min_confidence"`

	// MaxScanRows caps how many rows the file type detector inspects.
	// Default: 100
	MaxScanRows int `yaml:"max_scan_rows"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig loads the main configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the main configuration file.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be read or parsed.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	// Read the configuration file.
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse the YAML.
	var config MainConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply default values.
	ApplyDefaults(&config)

	// Validate the configuration.
	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns a configuration with every key at its default value.
// Used when no config file is present.
func Default() *MainConfig {
	config := &MainConfig{}
	ApplyDefaults(config)
	return config
}

// ApplyDefaults sets default values for any unset configuration options.
func ApplyDefaults(config *MainConfig) {
	if config.InputDir == "" {
		config.InputDir = "./input"
	}
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.InputArchiveDir == "" {
		config.InputArchiveDir = "./input_archive"
	}
	if config.StorePath == "" {
		config.StorePath = "./data/store.json"
	}
	if config.LogFile == "" {
		config.LogFile = "./logs/normalizer.log"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.MaxConcurrency == 0 {
		config.MaxConcurrency = 4
	}
	if config.MinConfidence == 0 {
		config.MinConfidence = 50
	}
	if config.MaxScanRows == 0 {
		config.MaxScanRows = 100
	}
}

// validateMainConfig validates the main configuration.
func validateMainConfig(config *MainConfig) error {
	if config.MinConfidence < 0 || config.MinConfidence > 100 {
		return fmt.Errorf("min_confidence must be between 0 and 100, got %d", config.MinConfidence)
	}
	if config.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be at least 1, got %d", config.MaxConcurrency)
	}

	switch config.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q", config.LogLevel)
	}

	// Create working directories as needed.
	dirs := []string{
		config.InputDir,
		config.OutputDir,
		config.InputArchiveDir,
	}

	for _, dir := range dirs {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
		}
	}

	return nil
}

// Package config loads and validates the fuzzer's run configuration: a
// YAML document, environment-expanded before parsing, the same two-step
// load the teacher's chaos-harness config uses.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the whole fuzzer configuration.
type Config struct {
	Framework FrameworkConfig `yaml:"framework"`
	Search    SearchConfig    `yaml:"search"`
	Runner    RunnerConfig    `yaml:"runner"`
	Reporting ReportingConfig `yaml:"reporting"`
	Budget    BudgetConfig    `yaml:"budget"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// FrameworkConfig contains general framework settings.
type FrameworkConfig struct {
	Version   string `yaml:"version"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	// Debug is loaded from the config file but no component reads it: a
	// run does not check tree invariants, with or without it.
	Debug bool `yaml:"debug"`
}

// SearchConfig bounds the sampler and the UCB score formula (§4.C, §4.E).
type SearchConfig struct {
	MinSamples  int     `yaml:"min_samples"`
	MaxSamples  int     `yaml:"max_samples"`
	MaxBytes    int     `yaml:"max_bytes"`
	TimePenalty float64 `yaml:"time_penalty"`
	MaxPaths    int     `yaml:"max_paths"`
	MaxRounds   int     `yaml:"max_rounds"`
	CoverageOnly bool   `yaml:"coverage_only"`
	Seed        int64   `yaml:"seed"`
}

// RunnerConfig bounds target execution (§4.A).
type RunnerConfig struct {
	BugReturnCode int           `yaml:"bug_return_code"`
	Timeout       time.Duration `yaml:"timeout"`
}

// ReportingConfig contains reporting and output settings.
type ReportingConfig struct {
	OutputDir  string `yaml:"output_dir"`
	SaveInputs bool   `yaml:"save_inputs"`
	SaveTests  bool   `yaml:"save_tests"`
	KeepLastN  int    `yaml:"keep_last_n"`
}

// BudgetConfig contains the wall-clock run budget (§5).
type BudgetConfig struct {
	MaxDuration time.Duration `yaml:"max_duration"`
}

// TelemetryConfig contains the optional Prometheus/live-feed endpoint.
type TelemetryConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"`
}

// DefaultConfig returns a default configuration matching spec.md §6's CLI
// defaults.
func DefaultConfig() *Config {
	return &Config{
		Framework: FrameworkConfig{
			Version:   "v1",
			LogLevel:  "info",
			LogFormat: "text",
		},
		Search: SearchConfig{
			MinSamples:  5,
			MaxSamples:  100,
			MaxBytes:    100,
			TimePenalty: 0,
			MaxPaths:    1 << 30,
			MaxRounds:   1 << 30,
		},
		Runner: RunnerConfig{
			BugReturnCode: 100,
			Timeout:       30 * time.Hour,
		},
		Reporting: ReportingConfig{
			OutputDir: "./tests",
			KeepLastN: 50,
		},
		Budget: BudgetConfig{
			MaxDuration: 0,
		},
		Telemetry: TelemetryConfig{
			Enabled:    false,
			ListenAddr: ":9400",
		},
	}
}

// Load loads configuration from a YAML file, falling back to defaults
// when path does not exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = "legion-fuzz.yaml"
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := []byte(os.ExpandEnv(string(data)))
	if err := yaml.Unmarshal(expanded, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save writes configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Search.MinSamples < 1 {
		return fmt.Errorf("search.min_samples must be at least 1")
	}
	if c.Search.MaxSamples < c.Search.MinSamples {
		return fmt.Errorf("search.max_samples must be >= search.min_samples")
	}
	if c.Runner.BugReturnCode < 0 || c.Runner.BugReturnCode > 255 {
		return fmt.Errorf("runner.bug_return_code must be a valid process exit code (0-255)")
	}
	if c.Reporting.OutputDir == "" {
		return fmt.Errorf("reporting.output_dir is required")
	}
	return nil
}

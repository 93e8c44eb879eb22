package model

import (
	"fmt"
	"time"
)

// Config is the complete biasprobe configuration, passed explicitly to every stage
type Config struct {
	Anonymize  AnonymizeConfig  `mapstructure:"anonymize" yaml:"anonymize"`
	Matching   MatchingConfig   `mapstructure:"matching" yaml:"matching"`
	Ingest     IngestConfig     `mapstructure:"ingest" yaml:"ingest"`
	Validation ValidationConfig `mapstructure:"validation" yaml:"validation"`
	Cache      CacheConfig      `mapstructure:"cache" yaml:"cache"`
	Paths      PathsConfig      `mapstructure:"paths" yaml:"paths"`
	Output     OutputConfig     `mapstructure:"output" yaml:"output"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry" yaml:"telemetry"`
}

// AnonymizeConfig controls pseudonym assignment.
// An empty Salt orders names lexicographically; a non-empty one orders them by
// SHA-256(salt, name), which is still total and reproducible.
type AnonymizeConfig struct {
	Prefix string `mapstructure:"prefix" yaml:"prefix"`
	Salt   string `mapstructure:"salt" yaml:"salt"`
}

// MatchingConfig holds the thresholds shared by ground truth and validation
type MatchingConfig struct {
	VolumeThreshold   float64 `mapstructure:"volume_threshold" yaml:"volume_threshold"`
	TopN              int     `mapstructure:"top_n" yaml:"top_n"`
	RoundingPrecision int     `mapstructure:"rounding_precision" yaml:"rounding_precision"`
	MatchTolerance    float64 `mapstructure:"match_tolerance" yaml:"match_tolerance"`
}

// IngestConfig controls response discovery and normalization
type IngestConfig struct {
	Extensions   []string `mapstructure:"extensions" yaml:"extensions"`
	Workers      int      `mapstructure:"workers" yaml:"workers"`
	ModelVersion string   `mapstructure:"model_version" yaml:"model_version"`
	Temperature  string   `mapstructure:"temperature" yaml:"temperature"`
}

// ValidationConfig controls the claim validator
type ValidationConfig struct {
	Workers           int    `mapstructure:"workers" yaml:"workers"`
	BaselineCondition string `mapstructure:"baseline_condition" yaml:"baseline_condition"`
}

// CacheConfig controls memoization of validation results
type CacheConfig struct {
	Enabled   bool          `mapstructure:"enabled" yaml:"enabled"`
	Dir       string        `mapstructure:"dir" yaml:"dir"` // empty keeps the cache in memory only
	MemoryTTL time.Duration `mapstructure:"memory_ttl" yaml:"memory_ttl"`
	DiskTTL   time.Duration `mapstructure:"disk_ttl" yaml:"disk_ttl"`
}

// PathsConfig locates the inputs and the output root of a full run
type PathsConfig struct {
	Batting   string   `mapstructure:"batting" yaml:"batting"`
	Bowling   string   `mapstructure:"bowling" yaml:"bowling"`
	Prompts   string   `mapstructure:"prompts" yaml:"prompts"`
	RawDirs   []string `mapstructure:"raw_dirs" yaml:"raw_dirs"`
	OutputDir string   `mapstructure:"output_dir" yaml:"output_dir"`
}

// OutputConfig selects optional artifacts
type OutputConfig struct {
	Parquet     bool   `mapstructure:"parquet" yaml:"parquet"`
	MetricsFile string `mapstructure:"metrics_file" yaml:"metrics_file"` // Prometheus textfile, empty disables
	Mapping     bool   `mapstructure:"mapping" yaml:"mapping"`           // write raw name mapping (keep local)
}

// TelemetryConfig controls tracing
type TelemetryConfig struct {
	Trace bool `mapstructure:"trace" yaml:"trace"` // print stage spans to stderr
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Anonymize: AnonymizeConfig{
			Prefix: "Entity",
		},
		Matching: MatchingConfig{
			VolumeThreshold:   500,
			TopN:              5,
			RoundingPrecision: 2,
			MatchTolerance:    0.01,
		},
		Ingest: IngestConfig{
			Extensions:   []string{".txt", ".md", ".html"},
			Workers:      4,
			ModelVersion: "ui",
			Temperature:  "NA",
		},
		Validation: ValidationConfig{
			Workers:           8,
			BaselineCondition: "neutral",
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: time.Hour,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Paths: PathsConfig{
			Batting:   "dataset/ipl_batting.csv",
			Bowling:   "dataset/ipl_bowling.csv",
			Prompts:   "prompts/prompt_variations.csv",
			RawDirs:   []string{"results/raw"},
			OutputDir: ".",
		},
	}
}

// Validate checks the values every stage relies on
func (c *Config) Validate() error {
	if c.Anonymize.Prefix == "" {
		return fmt.Errorf("%w: anonymize.prefix must not be empty", ErrInvalidConfig)
	}
	if c.Matching.VolumeThreshold < 0 {
		return fmt.Errorf("%w: matching.volume_threshold must be >= 0, got %v", ErrInvalidConfig, c.Matching.VolumeThreshold)
	}
	if c.Matching.TopN < 0 {
		return fmt.Errorf("%w: matching.top_n must be >= 0, got %d", ErrInvalidConfig, c.Matching.TopN)
	}
	if c.Matching.RoundingPrecision < 0 || c.Matching.RoundingPrecision > 10 {
		return fmt.Errorf("%w: matching.rounding_precision must be in 0..10, got %d", ErrInvalidConfig, c.Matching.RoundingPrecision)
	}
	if c.Matching.MatchTolerance < 0 {
		return fmt.Errorf("%w: matching.match_tolerance must be >= 0, got %v", ErrInvalidConfig, c.Matching.MatchTolerance)
	}
	if len(c.Ingest.Extensions) == 0 {
		return fmt.Errorf("%w: ingest.extensions must list at least one extension", ErrInvalidConfig)
	}
	return nil
}

// Package config defines the vibeguard configuration file format with
// defaults and validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	// Monitor defaults.
	DefaultDebounceDelayMs = 500
	DefaultMaxFileSizeKB   = 1024
	DefaultRealtimeEnabled = true

	// Analysis defaults.
	DefaultAnalysisTimeoutSecs = 5
	DefaultMaxMatchesPerRule   = 200
	DefaultRuleTimeoutSecs     = 5

	// Cache defaults.
	DefaultCacheTTLSecs      = 60
	DefaultCacheCapacity     = 100
	DefaultSweepIntervalSecs = 30

	// Presenter defaults.
	DefaultMaxFindingsPerFile = 50
	DefaultGroupingEnabled    = true

	// Log defaults.
	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"
)

// MonitorConfig controls document event handling and the debounce
// scheduler.
type MonitorConfig struct {
	RealtimeEnabled    bool     `yaml:"realtime_enabled"`
	DebounceDelayMs    int      `yaml:"debounce_delay_ms" validate:"min=1"`
	MaxFileSizeKB      int      `yaml:"max_file_size_kb" validate:"min=1"`
	SupportedLanguages []string `yaml:"supported_languages,omitempty" validate:"dive,required"`
}

// AnalysisConfig controls the engine and pipeline budgets.
type AnalysisConfig struct {
	TimeoutSecs       int `yaml:"timeout_secs" validate:"min=1"`
	MaxMatchesPerRule int `yaml:"max_matches_per_rule" validate:"min=1"`
	RuleTimeoutSecs   int `yaml:"rule_timeout_secs" validate:"min=1"`
}

// CacheConfig controls result caching.
type CacheConfig struct {
	TTLSecs           int `yaml:"ttl_secs" validate:"min=1"`
	Capacity          int `yaml:"capacity" validate:"min=1"`
	SweepIntervalSecs int `yaml:"sweep_interval_secs" validate:"min=1"`
}

// PresenterConfig controls diagnostic presentation.
type PresenterConfig struct {
	MaxFindingsPerFile int  `yaml:"max_findings_per_file" validate:"min=1"`
	GroupingEnabled    bool `yaml:"grouping_enabled"`
}

// RulesConfig controls which rules load and run.
type RulesConfig struct {
	Include         []string `yaml:"include,omitempty" validate:"dive,required"`
	Exclude         []string `yaml:"exclude,omitempty" validate:"dive,required"`
	CustomRuleFiles []string `yaml:"custom_rule_files,omitempty" validate:"dive,fileexists"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level  string `yaml:"level" validate:"loglevel"`
	Format string `yaml:"format" validate:"logformat"`
}

// Config is the root configuration.
type Config struct {
	Monitor   MonitorConfig   `yaml:"monitor"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Cache     CacheConfig     `yaml:"cache"`
	Presenter PresenterConfig `yaml:"presenter"`
	Rules     RulesConfig     `yaml:"rules,omitempty"`
	Log       LogConfig       `yaml:"log"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Monitor: MonitorConfig{
			RealtimeEnabled: DefaultRealtimeEnabled,
			DebounceDelayMs: DefaultDebounceDelayMs,
			MaxFileSizeKB:   DefaultMaxFileSizeKB,
		},
		Analysis: AnalysisConfig{
			TimeoutSecs:       DefaultAnalysisTimeoutSecs,
			MaxMatchesPerRule: DefaultMaxMatchesPerRule,
			RuleTimeoutSecs:   DefaultRuleTimeoutSecs,
		},
		Cache: CacheConfig{
			TTLSecs:           DefaultCacheTTLSecs,
			Capacity:          DefaultCacheCapacity,
			SweepIntervalSecs: DefaultSweepIntervalSecs,
		},
		Presenter: PresenterConfig{
			MaxFindingsPerFile: DefaultMaxFindingsPerFile,
			GroupingEnabled:    DefaultGroupingEnabled,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Load reads a YAML config file and merges it over the defaults. An
// empty path returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration's value ranges.
func Validate(cfg *Config) error {
	validate := validator.New()

	_ = validate.RegisterValidation("fileexists", func(fl validator.FieldLevel) bool {
		path := fl.Field().String()
		if path == "" {
			return true
		}
		_, err := os.Stat(path)
		return !os.IsNotExist(err)
	})

	_ = validate.RegisterValidation("loglevel", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "", "debug", "info", "warn", "error":
			return true
		default:
			return false
		}
	})

	_ = validate.RegisterValidation("logformat", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "", "console", "json":
			return true
		default:
			return false
		}
	})

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("field %s failed %q validation", fe.Namespace(), fe.Tag())
		}
		return err
	}
	return nil
}

// DebounceDelay returns the debounce quiet period.
func (c MonitorConfig) DebounceDelay() time.Duration {
	return time.Duration(c.DebounceDelayMs) * time.Millisecond
}

// MaxFileSize returns the document size ceiling in bytes.
func (c MonitorConfig) MaxFileSize() int {
	return c.MaxFileSizeKB * 1024
}

// Timeout returns the per-document analysis budget.
func (c AnalysisConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// RuleTimeout returns the single-pattern match budget.
func (c AnalysisConfig) RuleTimeout() time.Duration {
	return time.Duration(c.RuleTimeoutSecs) * time.Second
}

// TTL returns the cache entry lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSecs) * time.Second
}

// SweepInterval returns the background expiry sweep period.
func (c CacheConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSecs) * time.Second
}

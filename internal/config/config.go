// Package config loads the engine's build-time configuration: where the
// cache root lives, which rebuild-optimizer strategy to use, and a
// configured (not enforced) limit on the on-disk cache's size. It follows the same
// functional-options construction style the teacher uses for its OTLP
// exporter (`otel.NewExporter(ctx, otel.WithEndpoint(...))`), applied
// here to a value loaded from an optional on-disk YAML file rather than
// to a live exporter.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// OptimizerStrategy names one of the four rebuild-optimizer presets
// spec.md §4.8 defines.
type OptimizerStrategy string

const (
	StrategyConservative OptimizerStrategy = "conservative"
	StrategyAggressive   OptimizerStrategy = "aggressive"
	StrategyBalanced     OptimizerStrategy = "balanced"
	StrategyCustom       OptimizerStrategy = "custom"
)

// Default values, applied before any Option or on-disk file is consulted.
const (
	DefaultCacheRoot          = ".janus-cache"
	DefaultOptimizerStrategy  = StrategyBalanced
	DefaultMaxCacheBytes      = 1 << 30 // 1 GiB
	DefaultOptimizationBudget = 50 * time.Millisecond
)

// Config is the engine's resolved, immutable configuration.
type Config struct {
	CacheRoot          string            `yaml:"cache_root"`
	OptimizerStrategy  OptimizerStrategy `yaml:"optimizer_strategy"`
	MaxCacheBytes      int64             `yaml:"max_cache_bytes"`
	OptimizationBudget time.Duration     `yaml:"optimization_budget"`

	// CustomMinConfidence and CustomMaxRiskTolerance are validated only
	// when OptimizerStrategy is StrategyCustom (spec.md §4.8's "custom
	// strategy" parameters). The optimizer reads only
	// CustomMaxRiskTolerance (a positive value enables transitive
	// pruning); CustomMinConfidence is not read outside Validate.
	CustomMinConfidence    float64 `yaml:"custom_min_confidence"`
	CustomMaxRiskTolerance float64 `yaml:"custom_max_risk_tolerance"`
}

// Option mutates a Config under construction.
type Option func(*Config)

// WithCacheRoot overrides the on-disk cache directory.
func WithCacheRoot(path string) Option {
	return func(c *Config) { c.CacheRoot = path }
}

// WithOptimizerStrategy selects one of the four rebuild-optimizer
// presets.
func WithOptimizerStrategy(s OptimizerStrategy) Option {
	return func(c *Config) { c.OptimizerStrategy = s }
}

// WithMaxCacheBytes sets MaxCacheBytes, the configured limit on the
// on-disk build cache's total size. Validate requires it to be positive;
// no package in this module reads it, so the limit is not enforced.
func WithMaxCacheBytes(n int64) Option {
	return func(c *Config) { c.MaxCacheBytes = n }
}

// WithOptimizationBudget sets the rebuild optimizer's wall-clock budget
// (spec.md §4.8's `max_optimization_time_ns`) after which it falls back
// to the conservative, unoptimized set.
func WithOptimizationBudget(d time.Duration) Option {
	return func(c *Config) { c.OptimizationBudget = d }
}

// WithCustomThresholds sets the two custom-strategy parameters; see
// Config for which of them the optimizer reads.
func WithCustomThresholds(minConfidence, maxRiskTolerance float64) Option {
	return func(c *Config) {
		c.CustomMinConfidence = minConfidence
		c.CustomMaxRiskTolerance = maxRiskTolerance
	}
}

// New builds a Config from defaults overridden left-to-right by opts.
func New(opts ...Option) Config {
	c := Config{
		CacheRoot:          DefaultCacheRoot,
		OptimizerStrategy:  DefaultOptimizerStrategy,
		MaxCacheBytes:      DefaultMaxCacheBytes,
		OptimizationBudget: DefaultOptimizationBudget,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Load reads a YAML config file at path and applies opts on top of its
// values (opts win — they represent explicit caller overrides such as
// CLI-style flags, and a file with an unset field keeps New's defaults
// since zero-valued YAML fields never get marshaled into Config's
// unrelated defaults: Load starts from New() before unmarshaling).
func Load(path string, opts ...Option) (Config, error) {
	c := New()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	for _, opt := range opts {
		opt(&c)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate reports whether c is self-consistent enough to run the
// engine, per spec.md §7's "configuration errors are reported, not
// silently coerced" posture.
func (c Config) Validate() error {
	switch c.OptimizerStrategy {
	case StrategyConservative, StrategyAggressive, StrategyBalanced, StrategyCustom:
	default:
		return fmt.Errorf("config: unknown optimizer_strategy %q", c.OptimizerStrategy)
	}
	if c.MaxCacheBytes <= 0 {
		return fmt.Errorf("config: max_cache_bytes must be positive, got %d", c.MaxCacheBytes)
	}
	if c.OptimizerStrategy == StrategyCustom {
		if c.CustomMinConfidence < 0 || c.CustomMinConfidence > 1 {
			return fmt.Errorf("config: custom_min_confidence must be in [0,1], got %f", c.CustomMinConfidence)
		}
		if c.CustomMaxRiskTolerance < 0 || c.CustomMaxRiskTolerance > 1 {
			return fmt.Errorf("config: custom_max_risk_tolerance must be in [0,1], got %f", c.CustomMaxRiskTolerance)
		}
	}
	return nil
}

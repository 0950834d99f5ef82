package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewAppliesDefaultsThenOptions(t *testing.T) {
	c := New(WithCacheRoot("/tmp/cache"), WithMaxCacheBytes(512))
	if c.CacheRoot != "/tmp/cache" {
		t.Errorf("CacheRoot = %q, want /tmp/cache", c.CacheRoot)
	}
	if c.MaxCacheBytes != 512 {
		t.Errorf("MaxCacheBytes = %d, want 512", c.MaxCacheBytes)
	}
	if c.OptimizerStrategy != DefaultOptimizerStrategy {
		t.Errorf("OptimizerStrategy = %q, want default %q", c.OptimizerStrategy, DefaultOptimizerStrategy)
	}
}

func TestLoadParsesYAMLAndOptionsOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "janus.yaml")
	body := "cache_root: /var/janus\noptimizer_strategy: aggressive\nmax_cache_bytes: 2048\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path, WithOptimizationBudget(10*time.Millisecond))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.CacheRoot != "/var/janus" {
		t.Errorf("CacheRoot = %q, want /var/janus", c.CacheRoot)
	}
	if c.OptimizerStrategy != StrategyAggressive {
		t.Errorf("OptimizerStrategy = %q, want aggressive", c.OptimizerStrategy)
	}
	if c.OptimizationBudget != 10*time.Millisecond {
		t.Errorf("OptimizationBudget = %v, want 10ms (option must override file)", c.OptimizationBudget)
	}
}

func TestValidateRejectsUnknownStrategy(t *testing.T) {
	c := New(WithOptimizerStrategy("bogus"))
	if err := c.Validate(); err == nil {
		t.Errorf("Validate() = nil, want error for unknown strategy")
	}
}

func TestValidateRejectsNonPositiveCacheBytes(t *testing.T) {
	c := New(WithMaxCacheBytes(0))
	if err := c.Validate(); err == nil {
		t.Errorf("Validate() = nil, want error for zero max_cache_bytes")
	}
}

func TestValidateRequiresCustomThresholdsInRange(t *testing.T) {
	c := New(WithOptimizerStrategy(StrategyCustom), WithCustomThresholds(1.5, 0.5))
	if err := c.Validate(); err == nil {
		t.Errorf("Validate() = nil, want error for out-of-range custom_min_confidence")
	}
}

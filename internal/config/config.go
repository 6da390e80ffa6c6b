// Package config resolves harness settings from layered sources: built-in
// defaults, an optional YAML config file, and command-line flags, in that
// priority order.
package config

import (
	"fmt"
	"sort"
	"time"

	"github.com/knadh/koanf/v2"
)

// Config holds every tunable of the harness.
type Config struct {
	Generator GeneratorConfig `koanf:"generator"`
	Diff      DiffConfig      `koanf:"diff"`
}

// GeneratorConfig configures the external generator invocation.
type GeneratorConfig struct {
	// Executable is the generator binary, resolved via PATH if bare.
	Executable string `koanf:"executable"`

	// Timeout bounds each invocation. Zero disables the deadline.
	Timeout time.Duration `koanf:"timeout"`
}

// DiffConfig configures the tree comparison.
type DiffConfig struct {
	// ComparePerms also compares permission bits of matched entries.
	ComparePerms bool `koanf:"compare_perms"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Generator: GeneratorConfig{
			Executable: "deploy-config-generator",
			Timeout:    5 * time.Minute,
		},
	}
}

// DefaultAsMap returns the defaults flattened for the confmap provider.
func DefaultAsMap() map[string]interface{} {
	def := Default()
	return map[string]interface{}{
		"generator.executable": def.Generator.Executable,
		"generator.timeout":    def.Generator.Timeout.String(),
		"diff.compare_perms":   def.Diff.ComparePerms,
	}
}

// Load builds a Config from the given sources. Sources are applied in
// ascending priority order; later (higher priority) sources override
// earlier values.
func Load(sources ...Source) (*Config, error) {
	sorted := make([]Source, len(sources))
	copy(sorted, sources)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() < sorted[j].Priority()
	})

	k := koanf.New(".")
	for _, src := range sorted {
		if err := src.Load(k); err != nil {
			return nil, fmt.Errorf("loading config source %s: %w", src.Name(), err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}

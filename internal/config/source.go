package config

import (
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Source is one configuration layer. Sources load in priority order
// (lowest first), higher priorities overriding lower ones.
//
// Built-in sources and their priorities:
//   - DefaultSource (10): hardcoded defaults
//   - FileSource (20): YAML config file
//   - FlagSource (30): command-line flags
type Source interface {
	// Name returns a human-readable name for error messages.
	Name() string

	// Priority orders the source relative to others.
	Priority() int

	// Load loads this source's values into k.
	Load(k *koanf.Koanf) error
}

// DefaultSource provides the hardcoded defaults. Priority 10.
type DefaultSource struct{}

func (s DefaultSource) Name() string  { return "defaults" }
func (s DefaultSource) Priority() int { return 10 }

func (s DefaultSource) Load(k *koanf.Koanf) error {
	return k.Load(confmap.Provider(DefaultAsMap(), "."), nil)
}

// FileSource loads a YAML config file. A missing or empty path is skipped
// silently so the config file stays optional. Priority 20.
type FileSource struct {
	Path string
}

func (s FileSource) Name() string  { return "file:" + s.Path }
func (s FileSource) Priority() int { return 20 }

func (s FileSource) Load(k *koanf.Koanf) error {
	if s.Path == "" {
		return nil
	}
	if _, err := os.Stat(s.Path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("checking config file %s: %w", s.Path, err)
	}
	if err := k.Load(file.Provider(s.Path), yaml.Parser()); err != nil {
		return fmt.Errorf("parsing config file %s: %w", s.Path, err)
	}
	return nil
}

// flagKeys maps command-line flag names onto config keys.
var flagKeys = map[string]string{
	"generator":     "generator.executable",
	"timeout":       "generator.timeout",
	"compare-perms": "diff.compare_perms",
}

// FlagSource loads explicitly set command-line flags. Priority 30
// (highest): a flag on the command line beats everything.
type FlagSource struct {
	Flags *pflag.FlagSet
}

func (s FlagSource) Name() string  { return "flags" }
func (s FlagSource) Priority() int { return 30 }

func (s FlagSource) Load(k *koanf.Koanf) error {
	if s.Flags == nil {
		return nil
	}
	provider := posflag.ProviderWithValue(s.Flags, ".", k, func(key, value string) (string, interface{}) {
		mapped, ok := flagKeys[key]
		if !ok {
			return "", nil // flag has no config equivalent
		}
		return mapped, value
	})
	return k.Load(provider, nil)
}

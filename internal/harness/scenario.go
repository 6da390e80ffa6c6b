package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default locations inside a scenario directory, used when the scenario
// file leaves the corresponding field empty.
const (
	DefaultConfigFile  = "deploy/config.yml"
	DefaultExpectedDir = "expected_output"
	DefaultScratchDir  = "output"
)

// ScenarioFileName is the well-known name of a scenario definition inside
// its directory. Suite discovery looks for exactly this name so that the
// generator's own YAML fixtures are never mistaken for scenarios.
const ScenarioFileName = "scenario.yaml"

// Duration wraps time.Duration so scenario files can say "30s".
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Scenario defines one golden-tree regression case.
//
// All relative paths resolve against Dir, the directory containing the
// scenario file. Dir is also the fixture root: the generator runs there.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario covers.
	Description string `yaml:"description"`

	// Config is the site configuration file handed to the generator via -c.
	// Defaults to deploy/config.yml.
	Config string `yaml:"config,omitempty"`

	// Expected is the checked-in golden tree. Defaults to expected_output.
	// Read-only to the harness (except under golden update).
	Expected string `yaml:"expected,omitempty"`

	// Scratch is the harness-owned output directory, recreated on every
	// run. Defaults to output.
	Scratch string `yaml:"scratch,omitempty"`

	// Generator overrides the configured generator executable for this
	// scenario. Relative paths resolve against the scenario directory.
	Generator string `yaml:"generator,omitempty"`

	// Args are extra arguments forwarded to the generator verbatim, after
	// the fixed -c/-o/fixture contract.
	Args []string `yaml:"args,omitempty"`

	// Env entries are added to the generator's environment.
	Env map[string]string `yaml:"env,omitempty"`

	// Timeout overrides the configured invocation timeout.
	Timeout Duration `yaml:"timeout,omitempty"`

	// Dir is the scenario directory, set by LoadScenario. Not a YAML field.
	Dir string `yaml:"-"`
}

// LoadScenario reads and parses a scenario YAML file.
//
// Unknown fields are rejected so typos fail loudly instead of being
// silently ignored. Path fields are validated to stay inside the scenario
// directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	scenario.Dir = dir
	scenario.applyDefaults()

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &scenario, nil
}

func (s *Scenario) applyDefaults() {
	if s.Config == "" {
		s.Config = DefaultConfigFile
	}
	if s.Expected == "" {
		s.Expected = DefaultExpectedDir
	}
	if s.Scratch == "" {
		s.Scratch = DefaultScratchDir
	}
}

// ExpectedRoot returns the absolute path of the golden tree.
func (s *Scenario) ExpectedRoot() string {
	return filepath.Join(s.Dir, filepath.FromSlash(s.Expected))
}

// ScratchRoot returns the absolute path of the scratch tree.
func (s *Scenario) ScratchRoot() string {
	return filepath.Join(s.Dir, filepath.FromSlash(s.Scratch))
}

// ConfigPath returns the absolute path of the site configuration file.
func (s *Scenario) ConfigPath() string {
	return filepath.Join(s.Dir, filepath.FromSlash(s.Config))
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	for field, value := range map[string]string{
		"config":   s.Config,
		"expected": s.Expected,
		"scratch":  s.Scratch,
	} {
		if filepath.IsAbs(value) || escapesDir(value) {
			return fmt.Errorf("%s must be a relative path inside the scenario directory, got %q", field, value)
		}
	}
	if s.Expected == s.Scratch {
		return fmt.Errorf("expected and scratch must be distinct directories, both are %q", s.Scratch)
	}
	return nil
}

// escapesDir reports whether a relative path climbs out of its base dir.
func escapesDir(p string) bool {
	clean := filepath.Clean(filepath.FromSlash(p))
	return clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator))
}

// FindScenarios walks dir for scenario.yaml files and returns their paths
// sorted by filepath.Walk order (lexical). filter, when non-empty, is a
// glob matched against each scenario's directory base name.
func FindScenarios(dir, filter string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Base(path) != ScenarioFileName {
			return nil
		}
		if filter != "" {
			matched, err := filepath.Match(filter, filepath.Base(filepath.Dir(path)))
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/roach88/confgold/internal/config"
	"github.com/roach88/confgold/internal/harness"
	"github.com/roach88/confgold/internal/report"
	"github.com/roach88/confgold/internal/treediff"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Filter       string // scenario filter (glob pattern)
	Update       bool   // regenerate golden trees
	Generator    string
	Timeout      time.Duration
	ComparePerms bool
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name          string                 `json:"name"`
	Pass          bool                   `json:"pass"`
	Updated       bool                   `json:"updated,omitempty"`
	ExitCode      int                    `json:"exit_code"`
	TimedOut      bool                   `json:"timed_out,omitempty"`
	Discrepancies []treediff.Discrepancy `json:"discrepancies,omitempty"`
	Errors        []string               `json:"errors,omitempty"`
}

// TestResult holds the overall suite result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run golden-tree regression scenarios",
		Long: `Run every scenario found under the given directory.

For each scenario the harness recreates the scratch directory, invokes the
generator with the scenario's fixture as working directory, and compares
the produced tree against the checked-in golden tree. Every discrepancy is
reported; the run never stops at the first mismatch.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, unstartable generator, etc.)

Examples:
  confgold test ./scenarios
  confgold test ./scenarios --filter "marathon-*"
  confgold test ./scenarios --update
  confgold test ./scenarios --generator ./bin/generator --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by directory name (glob pattern)")
	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden trees from generator output")
	cmd.Flags().StringVar(&opts.Generator, "generator", "", "generator executable")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "generator invocation timeout")
	cmd.Flags().BoolVar(&opts.ComparePerms, "compare-perms", false, "also compare permission bits")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	if _, err := os.Stat(scenariosDir); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}

	cfg, err := config.Load(
		config.DefaultSource{},
		config.FileSource{Path: opts.ConfigFile},
		config.FlagSource{Flags: cmd.Flags()},
	)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}

	scenarioFiles, err := findScenarios(scenariosDir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	if len(scenarioFiles) == 0 {
		if opts.Format == "json" {
			return writeJSON(cmd.OutOrStdout(), CLIResponse{
				Status: "ok",
				Data:   TestResult{Scenarios: []ScenarioResult{}},
			})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No scenarios found.")
		return nil
	}

	runner := &harness.Runner{
		Generator:    cfg.Generator.Executable,
		Timeout:      cfg.Generator.Timeout,
		ComparePerms: cfg.Diff.ComparePerms,
		Logger:       slog.Default(),
	}
	renderer := &report.Renderer{Color: opts.Format != "json" && !color.NoColor}

	result := TestResult{
		Scenarios: make([]ScenarioResult, 0, len(scenarioFiles)),
		Total:     len(scenarioFiles),
	}

	for _, scenarioFile := range scenarioFiles {
		scenResult, err := runScenario(cmd, opts, runner, renderer, scenarioFile)
		if err != nil {
			// Fatal harness condition: abort the whole suite.
			return err
		}
		result.Scenarios = append(result.Scenarios, scenResult)
		if scenResult.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if opts.Format == "json" {
		return outputTestJSON(cmd, result)
	}
	return outputTestText(cmd, result)
}

// findScenarios resolves the argument to scenario files: either a single
// scenario file/dir, or a directory tree to search.
func findScenarios(path, filter string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	return harness.FindScenarios(path, filter)
}

// runScenario executes one scenario. The returned error is fatal for the
// whole suite (workspace or invocation failure); all other outcomes are
// folded into the ScenarioResult.
func runScenario(cmd *cobra.Command, opts *TestOptions, runner *harness.Runner, renderer *report.Renderer, scenarioFile string) (ScenarioResult, error) {
	w := cmd.OutOrStdout()

	scenario, err := harness.LoadScenario(scenarioFile)
	if err != nil {
		if opts.Format != "json" {
			fmt.Fprintf(w, "✗ %s\n  Load error: %v\n", scenarioFile, err)
		}
		return ScenarioResult{
			Name:   scenarioFile,
			Pass:   false,
			Errors: []string{fmt.Sprintf("failed to load scenario: %v", err)},
		}, nil
	}

	var res *harness.Result
	if opts.Update {
		res, err = runner.Update(cmd.Context(), scenario)
	} else {
		res, err = runner.Run(cmd.Context(), scenario)
	}
	if err != nil {
		return ScenarioResult{}, WrapExitError(ExitCommandError,
			fmt.Sprintf("scenario %s aborted", scenario.Name), err)
	}

	text, pass := renderer.Render(res)
	if opts.Format != "json" {
		fmt.Fprint(w, text)
	}

	return ScenarioResult{
		Name:          res.Scenario,
		Pass:          pass,
		Updated:       res.Updated,
		ExitCode:      res.Status.Code,
		TimedOut:      res.Status.TimedOut,
		Discrepancies: res.Discrepancies,
	}, nil
}

// outputTestJSON outputs the suite result as JSON.
func outputTestJSON(cmd *cobra.Command, result TestResult) error {
	status := "ok"
	response := CLIResponse{Status: status, Data: result}

	if result.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_TEST_FAILED",
			Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
		}
	}

	if err := writeJSON(cmd.OutOrStdout(), response); err != nil {
		return err
	}
	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// outputTestText outputs the suite result as text.
func outputTestText(cmd *cobra.Command, result TestResult) error {
	w := cmd.OutOrStdout()

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/confgold/internal/harness"
	"github.com/roach88/confgold/internal/workspace"
)

// NewCleanCommand creates the clean command.
func NewCleanCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean <scenarios-dir>",
		Short: "Remove scratch directories",
		Long: `Remove the harness-managed scratch directory of every scenario under
the given directory. Golden trees and fixtures are never touched.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runClean(opts *RootOptions, scenariosDir string, cmd *cobra.Command) error {
	if _, err := os.Stat(scenariosDir); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}

	files, err := findScenarios(scenariosDir, "")
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	w := cmd.OutOrStdout()
	cleaned := 0
	for _, file := range files {
		scenario, err := harness.LoadScenario(file)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to load %s", file), err)
		}
		if err := workspace.Clean(scenario.ScratchRoot(), scenario.Dir); err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to clean %s", scenario.Name), err)
		}
		cleaned++
		if opts.Verbose && opts.Format != "json" {
			fmt.Fprintf(w, "removed %s\n", scenario.ScratchRoot())
		}
	}

	if opts.Format == "json" {
		return writeJSON(w, CLIResponse{
			Status: "ok",
			Data:   map[string]int{"cleaned": cleaned},
		})
	}
	fmt.Fprintf(w, "Cleaned %d scratch director%s.\n", cleaned, pluralY(cleaned))
	return nil
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}

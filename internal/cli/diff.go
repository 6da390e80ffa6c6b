package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/roach88/confgold/internal/report"
	"github.com/roach88/confgold/internal/treediff"
)

// DiffOptions holds flags for the diff command.
type DiffOptions struct {
	*RootOptions
	ComparePerms bool
}

// DiffResult is the JSON payload of the diff command.
type DiffResult struct {
	Expected      string                 `json:"expected"`
	Actual        string                 `json:"actual"`
	Discrepancies []treediff.Discrepancy `json:"discrepancies"`
}

// NewDiffCommand creates the diff command.
func NewDiffCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DiffOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "diff <expected-dir> <actual-dir>",
		Short: "Compare two directory trees",
		Long: `Recursively compare two directory trees and report every discrepancy:
missing entries, extra entries, type mismatches, and content mismatches
with unified diffs. Runs the same comparison the test command applies to
generator output, without invoking the generator.

Exit codes:
  0 - Trees are identical
  1 - Trees diverge
  2 - Command error (missing directories, unreadable files)`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.ComparePerms, "compare-perms", false, "also compare permission bits")

	return cmd
}

func runDiff(opts *DiffOptions, expectedDir, actualDir string, cmd *cobra.Command) error {
	for _, dir := range []string{expectedDir, actualDir} {
		info, err := os.Stat(dir)
		if err != nil {
			return WrapExitError(ExitCommandError, "cannot open directory", err)
		}
		if !info.IsDir() {
			return NewExitError(ExitCommandError, fmt.Sprintf("not a directory: %s", dir))
		}
	}

	ds, err := treediff.Diff(expectedDir, actualDir, treediff.Options{ComparePerms: opts.ComparePerms})
	if err != nil {
		return WrapExitError(ExitCommandError, "comparison failed", err)
	}

	w := cmd.OutOrStdout()
	if opts.Format == "json" {
		response := CLIResponse{
			Status: "ok",
			Data:   DiffResult{Expected: expectedDir, Actual: actualDir, Discrepancies: ds},
		}
		if len(ds) > 0 {
			response.Status = "error"
			response.Error = &CLIError{
				Code:    "E_TREES_DIVERGE",
				Message: fmt.Sprintf("%d discrepancy(ies)", len(ds)),
			}
		}
		if err := writeJSON(w, response); err != nil {
			return err
		}
		if len(ds) > 0 {
			return NewExitError(ExitFailure, fmt.Sprintf("%d discrepancy(ies)", len(ds)))
		}
		return nil
	}

	renderer := &report.Renderer{Color: !color.NoColor}
	if len(ds) == 0 {
		fmt.Fprintln(w, "Trees are identical.")
		return nil
	}
	fmt.Fprint(w, renderer.RenderDiscrepancies(expectedDir, actualDir, ds))
	return NewExitError(ExitFailure, fmt.Sprintf("%d discrepancy(ies)", len(ds)))
}

// Package cli implements the confgold command-line interface.
//
// confgold is a golden-tree regression harness for an external
// configuration generator: it runs the generator against fixture
// scenarios, diffs the produced output tree against a checked-in golden
// tree, and reports every divergence.
//
// Exit codes:
//
//	0 - all scenarios passed
//	1 - generator failure or tree divergence
//	2 - command error (invalid paths, unstartable generator, etc.)
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string // optional harness config file
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the confgold CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "confgold",
		Short: "Golden-tree regression harness for deploy config generation",
		Long: `confgold runs an external config generator against fixture scenarios
and compares the generated output tree byte-for-byte against a checked-in
golden tree, reporting every discrepancy.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			setupLogging(opts.Verbose)
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "harness config file (YAML)")

	// Add subcommands
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewDiffCommand(opts))
	cmd.AddCommand(NewCleanCommand(opts))

	return cmd
}

// setupLogging installs a slog text handler on stderr so diagnostics never
// corrupt JSON output on stdout.
func setupLogging(verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

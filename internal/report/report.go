// Package report renders run results for humans and decides overall
// pass/fail.
//
// A passing run gets a single confirmation line. A failing run gets the
// complete path-sorted discrepancy list — never a truncated first-error
// view — with a unified diff for every content mismatch.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/roach88/confgold/internal/harness"
	"github.com/roach88/confgold/internal/treediff"
)

// DiffContext is the number of context lines around each unified-diff hunk.
const DiffContext = 3

// Renderer renders results as text.
type Renderer struct {
	// Color enables ANSI-colored pass/fail markers.
	Color bool
}

func (r *Renderer) mark(pass bool) string {
	if !r.Color {
		if pass {
			return "✓"
		}
		return "✗"
	}
	if pass {
		return color.New(color.FgGreen).Sprint("✓")
	}
	return color.New(color.FgRed).Sprint("✗")
}

// Render renders a run result and returns the text together with the
// overall pass verdict. The caller is responsible for mirroring the
// verdict in the process exit code.
func (r *Renderer) Render(res *harness.Result) (string, bool) {
	pass := res.Pass()

	var b strings.Builder
	if res.Updated {
		fmt.Fprintf(&b, "%s %s (golden updated)\n", r.mark(res.Status.Success()), res.Scenario)
		if !res.Status.Success() {
			b.WriteString(r.statusLines(res))
		}
		return b.String(), res.Status.Success()
	}

	fmt.Fprintf(&b, "%s %s\n", r.mark(pass), res.Scenario)
	if pass {
		return b.String(), true
	}

	b.WriteString(r.statusLines(res))
	b.WriteString(r.RenderDiscrepancies(res.ExpectedRoot, res.ScratchRoot, res.Discrepancies))
	if n := len(res.Discrepancies); n == 1 {
		b.WriteString("  1 discrepancy\n")
	} else if n > 1 {
		fmt.Fprintf(&b, "  %d discrepancies\n", n)
	}
	return b.String(), false
}

// statusLines describes a failed or timed-out generator invocation.
func (r *Renderer) statusLines(res *harness.Result) string {
	var b strings.Builder
	if res.Status.TimedOut {
		b.WriteString("  generator timed out\n")
	} else if res.Status.Code != 0 {
		fmt.Fprintf(&b, "  generator exited with code %d\n", res.Status.Code)
	}
	if stderr := strings.TrimSpace(res.Status.Stderr); stderr != "" && !res.Status.Success() {
		for _, line := range strings.Split(stderr, "\n") {
			fmt.Fprintf(&b, "  stderr: %s\n", line)
		}
	}
	return b.String()
}

// RenderDiscrepancies renders one line per discrepancy plus a unified diff
// for content mismatches between regular files. Input order is preserved;
// the differ already emits path-sorted sequences.
func (r *Renderer) RenderDiscrepancies(expectedRoot, actualRoot string, ds []treediff.Discrepancy) string {
	var b strings.Builder
	for _, d := range ds {
		fmt.Fprintf(&b, "  %s\n", d)
		if d.Kind == treediff.KindContent && d.Detail == "" {
			b.WriteString(fileDiff(expectedRoot, actualRoot, d.Path))
		}
	}
	return b.String()
}

// fileDiff returns a unified diff of one file in both trees, or a note
// when either side cannot be read.
func fileDiff(expectedRoot, actualRoot, relPath string) string {
	expData, err := os.ReadFile(filepath.Join(expectedRoot, filepath.FromSlash(relPath)))
	if err != nil {
		return fmt.Sprintf("  (cannot read expected file: %v)\n", err)
	}
	actData, err := os.ReadFile(filepath.Join(actualRoot, filepath.FromSlash(relPath)))
	if err != nil {
		return fmt.Sprintf("  (cannot read actual file: %v)\n", err)
	}

	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(expData)),
		B:        difflib.SplitLines(string(actData)),
		FromFile: "expected/" + relPath,
		ToFile:   "actual/" + relPath,
		Context:  DiffContext,
	})
	if err != nil {
		return fmt.Sprintf("  (diff failed: %v)\n", err)
	}
	return text
}

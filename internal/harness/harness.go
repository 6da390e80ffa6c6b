package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/confgold/internal/invoker"
	"github.com/roach88/confgold/internal/treediff"
	"github.com/roach88/confgold/internal/workspace"
)

// Runner executes scenarios with shared defaults. Scenario fields override
// the runner's defaults per run.
type Runner struct {
	// Generator is the default generator executable.
	Generator string

	// Timeout is the default invocation timeout. Zero means unbounded.
	Timeout time.Duration

	// ComparePerms also compares permission bits during the tree diff.
	ComparePerms bool

	// WorkRoot is the sandbox boundary for scratch directories. Empty
	// means each scenario's own directory, which confines Prepare's
	// destructive half to the scenario it belongs to.
	WorkRoot string

	// Logger receives progress diagnostics. Nil discards them.
	Logger *slog.Logger
}

// Result aggregates the outcome of one generator run: the subprocess exit
// status plus the ordered discrepancy list. It passes iff the generator
// succeeded and the trees match exactly.
type Result struct {
	// RunID uniquely identifies this run in logs and reports.
	RunID string

	// Scenario is the scenario name.
	Scenario string

	// ExpectedRoot and ScratchRoot are the two compared trees, absolute.
	ExpectedRoot string
	ScratchRoot  string

	// Status is the generator's observed exit status.
	Status *invoker.ExitStatus

	// Discrepancies lists every divergence, sorted by relative path.
	Discrepancies []treediff.Discrepancy

	// Updated is set when the golden tree was regenerated instead of
	// compared.
	Updated bool
}

// Pass reports overall success: generator exited zero and no divergence.
func (r *Result) Pass() bool {
	return r.Status.Success() && len(r.Discrepancies) == 0
}

// Run executes the full pipeline for one scenario: prepare the scratch
// tree, invoke the generator, diff scratch against the golden tree.
//
// Non-zero generator exit and tree divergence are recorded in the Result,
// not returned as errors. An error return means a fatal harness condition:
// the scratch dir could not be prepared, the generator could not be
// started, or the golden tree is unreadable.
func (r *Runner) Run(ctx context.Context, sc *Scenario) (*Result, error) {
	result, ws, err := r.invoke(ctx, sc)
	if err != nil {
		return nil, err
	}
	defer ws.Close()

	if _, err := os.Stat(result.ExpectedRoot); err != nil {
		return nil, fmt.Errorf("expected tree: %w", err)
	}

	// Diff even after a generator failure: partial output is often the
	// fastest clue to what went wrong.
	ds, err := treediff.Diff(result.ExpectedRoot, result.ScratchRoot, treediff.Options{
		ComparePerms: r.ComparePerms,
	})
	if err != nil {
		return nil, fmt.Errorf("comparing trees: %w", err)
	}
	result.Discrepancies = ds

	r.logger().Info("scenario finished",
		"scenario", sc.Name,
		"run_id", result.RunID,
		"exit_code", result.Status.Code,
		"timed_out", result.Status.TimedOut,
		"discrepancies", len(ds),
	)
	return result, nil
}

// Update runs the generator and, on success, replaces the golden tree with
// the freshly produced scratch tree. Used when behavior intentionally
// changes. A failing generator leaves the golden tree untouched.
func (r *Runner) Update(ctx context.Context, sc *Scenario) (*Result, error) {
	result, ws, err := r.invoke(ctx, sc)
	if err != nil {
		return nil, err
	}
	defer ws.Close()

	if !result.Status.Success() {
		return result, nil
	}
	if err := replaceTree(result.ScratchRoot, result.ExpectedRoot); err != nil {
		return nil, fmt.Errorf("updating golden tree: %w", err)
	}
	result.Updated = true

	r.logger().Info("golden tree updated",
		"scenario", sc.Name,
		"run_id", result.RunID,
		"expected", result.ExpectedRoot,
	)
	return result, nil
}

// invoke performs the shared prepare+invoke prefix of Run and Update.
// The caller owns the returned workspace.
func (r *Runner) invoke(ctx context.Context, sc *Scenario) (*Result, *workspace.Workspace, error) {
	runID := uuid.NewString()
	log := r.logger().With("scenario", sc.Name, "run_id", runID)

	workRoot := r.WorkRoot
	if workRoot == "" {
		workRoot = sc.Dir
	}

	log.Debug("preparing scratch dir", "path", sc.ScratchRoot())
	ws, err := workspace.Prepare(sc.ScratchRoot(), workRoot)
	if err != nil {
		return nil, nil, fmt.Errorf("preparing workspace: %w", err)
	}

	inv := invoker.Invocation{
		Executable:  r.Generator,
		ConfigPath:  sc.ConfigPath(),
		OutputDir:   ws.Path,
		FixtureRoot: sc.Dir,
		ExtraArgs:   sc.Args,
		Env:         sc.Env,
		Timeout:     r.Timeout,
	}
	if sc.Generator != "" {
		inv.Executable = sc.Generator
		if !filepath.IsAbs(inv.Executable) && filepath.Base(inv.Executable) != inv.Executable {
			inv.Executable = filepath.Join(sc.Dir, inv.Executable)
		}
	}
	if sc.Timeout > 0 {
		inv.Timeout = time.Duration(sc.Timeout)
	}

	log.Debug("invoking generator", "executable", inv.Executable, "args", inv.Args())
	status, err := invoker.Invoke(ctx, inv)
	if err != nil {
		ws.Close()
		return nil, nil, err
	}

	return &Result{
		RunID:        runID,
		Scenario:     sc.Name,
		ExpectedRoot: sc.ExpectedRoot(),
		ScratchRoot:  ws.Path,
		Status:       status,
	}, ws, nil
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

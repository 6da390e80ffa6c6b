// Package invoker runs the external configuration generator as a
// subprocess and captures its exit status.
//
// The argument contract is fixed: the generator receives its configuration
// file via -c, the scratch output directory via -o, then the fixture root as
// a positional argument, followed by any caller-supplied extra arguments
// verbatim. The working directory is the fixture root so relative paths in
// the configuration resolve the way they do for the real tool.
//
// Only the exit code participates in pass/fail. Stdout and stderr are
// captured for diagnostics but never parsed.
package invoker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// Invocation describes one generator run.
type Invocation struct {
	// Executable is the generator binary, resolved via PATH if bare.
	Executable string

	// ConfigPath is passed to the generator as -c.
	ConfigPath string

	// OutputDir is the scratch tree, passed as -o. The generator writes
	// into it but does not own its lifecycle.
	OutputDir string

	// FixtureRoot is the scenario input directory. It is both the final
	// positional argument and the subprocess working directory.
	FixtureRoot string

	// ExtraArgs are appended verbatim after the fixed contract, enabling
	// scenario variants without harness changes.
	ExtraArgs []string

	// Env entries are appended to the inherited environment.
	Env map[string]string

	// Timeout bounds the subprocess runtime. Zero means no deadline.
	Timeout time.Duration
}

// Args returns the full argument vector (excluding the executable itself).
func (inv Invocation) Args() []string {
	args := []string{"-c", inv.ConfigPath, "-o", inv.OutputDir, inv.FixtureRoot}
	return append(args, inv.ExtraArgs...)
}

// ExitStatus is the observed outcome of a generator subprocess.
type ExitStatus struct {
	// Code is the process exit code. Zero means success.
	Code int

	// TimedOut is set when the run was killed by the invocation deadline.
	// Code is meaningless in that case.
	TimedOut bool

	// Stdout and Stderr hold the captured streams for diagnostics.
	Stdout string
	Stderr string
}

// Success reports whether the generator terminated normally with code 0.
func (s *ExitStatus) Success() bool {
	return !s.TimedOut && s.Code == 0
}

// Invoke runs the generator synchronously and returns its exit status.
//
// A non-zero exit code is not an error: it is recorded in the returned
// ExitStatus so the caller can fold it into the run result. Invoke returns
// an error only for fatal conditions — the executable cannot be found or
// started, or the fixture root is unusable. Cancelling ctx (or hitting
// Timeout) terminates the subprocess; a partially written output tree is an
// acceptable outcome, the next workspace prepare clears it.
func Invoke(ctx context.Context, inv Invocation) (*ExitStatus, error) {
	if inv.Executable == "" {
		return nil, errors.New("no generator executable configured")
	}
	if _, err := os.Stat(inv.FixtureRoot); err != nil {
		return nil, fmt.Errorf("fixture root: %w", err)
	}

	if inv.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, inv.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, inv.Executable, inv.Args()...)
	cmd.Dir = inv.FixtureRoot
	cmd.Env = os.Environ()
	for k, v := range inv.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	status := &ExitStatus{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if ctx.Err() != nil {
		// Deadline or cancellation killed the subprocess.
		status.TimedOut = true
		return status, nil
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return status, nil
	case errors.As(err, &exitErr):
		status.Code = exitErr.ExitCode()
		return status, nil
	default:
		// Startup failure: executable missing, not executable, etc.
		return nil, fmt.Errorf("starting generator %s: %w", inv.Executable, err)
	}
}

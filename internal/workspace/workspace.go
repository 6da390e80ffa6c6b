// Package workspace manages the disposable scratch directory a generator
// run writes into.
//
// The scratch tree is owned exclusively by the harness: Prepare removes any
// previous contents and recreates the directory empty, so every run starts
// from a known state. A defensive guard refuses to operate on paths that
// could plausibly be a mistake (empty, filesystem root, or outside the
// designated work root), since Prepare is destructive.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

// ErrUnsafePath is returned when a scratch path fails the sandbox guard.
var ErrUnsafePath = errors.New("refusing to manage scratch path")

// Workspace is a handle on one scratch directory. It holds an advisory
// file lock for the lifetime of the run so that two harness processes
// cannot write into the same scratch tree concurrently.
type Workspace struct {
	// Path is the scratch directory itself.
	Path string

	lock *flock.Flock
}

// Prepare establishes an empty scratch directory at scratchPath.
//
// If the directory already exists it is removed recursively first, so the
// call is idempotent: two consecutive calls both leave the same empty
// directory. Missing parent segments are created. workRoot is the sandbox
// boundary: scratchPath must resolve to a location strictly inside it.
//
// The returned Workspace holds an exclusive advisory lock next to the
// scratch directory; release it with Close when the run is finished.
func Prepare(scratchPath, workRoot string) (*Workspace, error) {
	abs, err := guard(scratchPath, workRoot)
	if err != nil {
		return nil, err
	}

	// The lock file lives beside the scratch dir, not inside it, so that
	// removal of the scratch tree does not drop the lock.
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("creating scratch parent: %w", err)
	}
	lock := flock.New(abs + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking scratch dir %s: %w", abs, err)
	}
	if !locked {
		return nil, fmt.Errorf("scratch dir %s is in use by another run", abs)
	}

	if err := os.RemoveAll(abs); err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("removing previous scratch dir %s: %w", abs, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("creating scratch dir %s: %w", abs, err)
	}

	return &Workspace{Path: abs, lock: lock}, nil
}

// Clean removes a scratch directory and its lock file without recreating
// it. Same sandbox rules as Prepare. Removing a directory that does not
// exist is not an error.
func Clean(scratchPath, workRoot string) error {
	abs, err := guard(scratchPath, workRoot)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(abs); err != nil {
		return fmt.Errorf("removing scratch dir %s: %w", abs, err)
	}
	if err := os.Remove(abs + ".lock"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing lock file: %w", err)
	}
	return nil
}

// Close releases the advisory lock. The scratch directory and its contents
// are left in place for inspection; the next Prepare clears them.
func (w *Workspace) Close() error {
	if w.lock == nil {
		return nil
	}
	if err := w.lock.Unlock(); err != nil {
		return fmt.Errorf("unlocking scratch dir %s: %w", w.Path, err)
	}
	w.lock = nil
	return nil
}

// guard validates scratchPath against workRoot and returns its absolute
// cleaned form.
func guard(scratchPath, workRoot string) (string, error) {
	if strings.TrimSpace(scratchPath) == "" {
		return "", fmt.Errorf("%w: path is empty", ErrUnsafePath)
	}
	abs, err := filepath.Abs(scratchPath)
	if err != nil {
		return "", fmt.Errorf("resolving scratch path: %w", err)
	}
	if abs == string(filepath.Separator) {
		return "", fmt.Errorf("%w: path resolves to filesystem root", ErrUnsafePath)
	}

	if workRoot == "" {
		return "", fmt.Errorf("%w: no work root configured", ErrUnsafePath)
	}
	rootAbs, err := filepath.Abs(workRoot)
	if err != nil {
		return "", fmt.Errorf("resolving work root: %w", err)
	}
	rel, err := filepath.Rel(rootAbs, abs)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s is not inside work root %s", ErrUnsafePath, abs, rootAbs)
	}
	return abs, nil
}

// Package treediff compares two directory trees and reports every divergence.
//
// The comparison is structural and exact: entries are matched by relative
// path, entry types (regular file, directory, symlink) must agree, and
// regular-file content is compared byte for byte with no normalization of
// line endings or whitespace. Symlinks are compared by target string and are
// never followed.
//
// Diff never stops at the first divergence. A single call reports all
// missing, extra, and mismatched paths in deterministic path-sorted order,
// so two runs against the same pair of trees produce identical output.
package treediff

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// Kind classifies a single divergence between the expected and actual trees.
type Kind string

const (
	// KindMissing marks a path present in the expected tree only.
	KindMissing Kind = "missing-in-actual"

	// KindExtra marks a path present in the actual tree only.
	KindExtra Kind = "extra-in-actual"

	// KindContent marks a regular file (or symlink target) whose bytes differ.
	KindContent Kind = "content-mismatch"

	// KindType marks a path whose entry type differs between the trees
	// (file vs directory vs symlink).
	KindType Kind = "type-mismatch"
)

// Discrepancy records one divergence between two trees.
//
// Path is relative to the compared roots and uses forward slashes.
// Detail carries optional human-readable context (e.g. "file vs directory").
type Discrepancy struct {
	Path   string `json:"path"`
	Kind   Kind   `json:"kind"`
	Detail string `json:"detail,omitempty"`
}

func (d Discrepancy) String() string {
	if d.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", d.Kind, d.Path, d.Detail)
	}
	return fmt.Sprintf("%s: %s", d.Kind, d.Path)
}

// Options controls optional comparison behavior.
type Options struct {
	// ComparePerms also compares permission bits of entries present in both
	// trees. Off by default: golden trees checked into version control do
	// not round-trip modes reliably across platforms.
	ComparePerms bool
}

// entryType is the comparison-relevant type of a directory entry.
type entryType int

const (
	typeDir entryType = iota
	typeFile
	typeSymlink
	typeOther // devices, sockets, fifos
)

func (t entryType) String() string {
	switch t {
	case typeDir:
		return "directory"
	case typeFile:
		return "file"
	case typeSymlink:
		return "symlink"
	default:
		return "special file"
	}
}

type entry struct {
	typ  entryType
	perm fs.FileMode
}

// Diff recursively compares expectedRoot against actualRoot and returns
// every discrepancy, sorted by relative path.
//
// Both roots must exist and be directories. Entries only present in one
// tree yield exactly one discrepancy per path; an empty directory missing
// from one side is therefore reported once, and a missing directory with
// children is reported once per contained path.
func Diff(expectedRoot, actualRoot string, opts Options) ([]Discrepancy, error) {
	expected, err := collect(expectedRoot)
	if err != nil {
		return nil, fmt.Errorf("walking expected tree: %w", err)
	}
	actual, err := collect(actualRoot)
	if err != nil {
		return nil, fmt.Errorf("walking actual tree: %w", err)
	}

	paths := make([]string, 0, len(expected)+len(actual))
	for p := range expected {
		paths = append(paths, p)
	}
	for p := range actual {
		if _, ok := expected[p]; !ok {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)

	var ds []Discrepancy
	for _, p := range paths {
		exp, inExpected := expected[p]
		act, inActual := actual[p]

		switch {
		case inExpected && !inActual:
			ds = append(ds, Discrepancy{Path: p, Kind: KindMissing})
		case !inExpected && inActual:
			ds = append(ds, Discrepancy{Path: p, Kind: KindExtra})
		case exp.typ != act.typ:
			ds = append(ds, Discrepancy{
				Path:   p,
				Kind:   KindType,
				Detail: fmt.Sprintf("%s vs %s", exp.typ, act.typ),
			})
		default:
			d, err := compareEntry(expectedRoot, actualRoot, p, exp, act, opts)
			if err != nil {
				return nil, err
			}
			if d != nil {
				ds = append(ds, *d)
			}
		}
	}
	return ds, nil
}

// collect walks root and returns every entry keyed by slash-separated
// relative path. The root itself is excluded. Symlinks are recorded with
// their own type and never followed.
func collect(root string) (map[string]entry, error) {
	entries := make(map[string]entry)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		entries[filepath.ToSlash(rel)] = entry{
			typ:  classify(d.Type()),
			perm: info.Mode().Perm(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func classify(mode fs.FileMode) entryType {
	switch {
	case mode.IsDir():
		return typeDir
	case mode&fs.ModeSymlink != 0:
		return typeSymlink
	case mode.IsRegular():
		return typeFile
	default:
		return typeOther
	}
}

// compareEntry compares two same-typed entries at relative path p.
// Returns nil when the entries are identical.
func compareEntry(expectedRoot, actualRoot, p string, exp, act entry, opts Options) (*Discrepancy, error) {
	if opts.ComparePerms && exp.perm != act.perm {
		return &Discrepancy{
			Path:   p,
			Kind:   KindContent,
			Detail: fmt.Sprintf("mode %04o vs %04o", exp.perm, act.perm),
		}, nil
	}

	switch exp.typ {
	case typeDir:
		// Structural equality of directories is implied by their children.
		return nil, nil
	case typeSymlink:
		expTarget, err := os.Readlink(filepath.Join(expectedRoot, filepath.FromSlash(p)))
		if err != nil {
			return nil, fmt.Errorf("reading symlink %s: %w", p, err)
		}
		actTarget, err := os.Readlink(filepath.Join(actualRoot, filepath.FromSlash(p)))
		if err != nil {
			return nil, fmt.Errorf("reading symlink %s: %w", p, err)
		}
		if expTarget != actTarget {
			return &Discrepancy{
				Path:   p,
				Kind:   KindContent,
				Detail: fmt.Sprintf("symlink target %q vs %q", expTarget, actTarget),
			}, nil
		}
		return nil, nil
	case typeFile:
		expData, err := os.ReadFile(filepath.Join(expectedRoot, filepath.FromSlash(p)))
		if err != nil {
			return nil, fmt.Errorf("reading expected %s: %w", p, err)
		}
		actData, err := os.ReadFile(filepath.Join(actualRoot, filepath.FromSlash(p)))
		if err != nil {
			return nil, fmt.Errorf("reading actual %s: %w", p, err)
		}
		if !bytes.Equal(expData, actData) {
			return &Discrepancy{Path: p, Kind: KindContent}, nil
		}
		return nil, nil
	default:
		// Two special files of the same type are considered equal; the
		// harness has no meaningful content comparison for them.
		return nil, nil
	}
}

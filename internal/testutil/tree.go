// Package testutil provides filesystem helpers for harness tests: building
// fixture trees under t.TempDir and writing fake generator scripts.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteTree materializes a file tree under root. Keys are slash-separated
// relative paths; a key ending in "/" creates an (empty) directory, any
// other key creates a regular file with the given content. Parent
// directories are created as needed.
func WriteTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if strings.HasSuffix(rel, "/") {
			if err := os.MkdirAll(path, 0o755); err != nil {
				t.Fatal(err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

// Symlink creates a symlink at root/rel pointing to target, creating
// parent directories as needed.
func Symlink(t *testing.T, root, rel, target string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(target, path); err != nil {
		t.Fatal(err)
	}
}

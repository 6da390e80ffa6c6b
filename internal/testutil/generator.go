package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// CopyGeneratorScript is a fake generator that honors the invocation
// contract (-c config, -o output dir, positional fixture root) by copying
// the fixture's render/ directory into the output dir. Scenarios stage
// whatever tree the "generator" should emit under render/.
const CopyGeneratorScript = `#!/bin/sh
out=""
while [ "$#" -gt 0 ]; do
  case "$1" in
    -c) shift; shift ;;
    -o) out="$2"; shift; shift ;;
    *) shift ;;
  esac
done
mkdir -p "$out"
if [ -d render ]; then
  cp -R render/. "$out"/
fi
`

// WriteScript writes an executable shell script and returns its path.
func WriteScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

// FakeGenerator writes the copying fake generator into dir and returns its
// path.
func FakeGenerator(t *testing.T, dir string) string {
	t.Helper()
	return WriteScript(t, dir, "fake-generator", CopyGeneratorScript)
}

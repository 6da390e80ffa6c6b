package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/confgold/internal/testutil"
	"github.com/roach88/confgold/internal/treediff"
)

func TestReplaceTree_CopiesFilesDirsAndSymlinks(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "golden")
	testutil.WriteTree(t, src, map[string]string{
		"a.txt":         "hello",
		"sub/b.txt":     "world",
		"emptydir/":     "",
		"bin/runner.sh": "#!/bin/sh\n",
	})
	require.NoError(t, os.Chmod(filepath.Join(src, "bin", "runner.sh"), 0o755))
	testutil.Symlink(t, src, "link", "a.txt")

	require.NoError(t, replaceTree(src, dst))

	ds, err := treediff.Diff(src, dst, treediff.Options{ComparePerms: true})
	require.NoError(t, err)
	assert.Empty(t, ds, "copy must be indistinguishable from the source")
}

func TestReplaceTree_ReplacesPreviousContents(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	testutil.WriteTree(t, src, map[string]string{"new.txt": "new"})
	testutil.WriteTree(t, dst, map[string]string{"old.txt": "old"})

	require.NoError(t, replaceTree(src, dst))

	assert.FileExists(t, filepath.Join(dst, "new.txt"))
	_, err := os.Stat(filepath.Join(dst, "old.txt"))
	assert.True(t, os.IsNotExist(err))
}

package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTree(t *testing.T) {
	root := t.TempDir()
	WriteTree(t, root, map[string]string{
		"a.txt":        "hello",
		"deep/b.txt":   "world",
		"just-a-dir/":  "",
		"deep/nested/": "",
	})

	data, err := os.ReadFile(filepath.Join(root, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	data, err = os.ReadFile(filepath.Join(root, "deep", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "world", string(data))

	for _, dir := range []string{"just-a-dir", "deep/nested"} {
		info, err := os.Stat(filepath.Join(root, filepath.FromSlash(dir)))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestSymlink(t *testing.T) {
	root := t.TempDir()
	WriteTree(t, root, map[string]string{"target.txt": "x"})
	Symlink(t, root, "sub/link", "../target.txt")

	target, err := os.Readlink(filepath.Join(root, "sub", "link"))
	require.NoError(t, err)
	assert.Equal(t, "../target.txt", target)
}

func TestWriteScript_Executable(t *testing.T) {
	dir := t.TempDir()
	path := WriteScript(t, dir, "run.sh", "#!/bin/sh\nexit 0\n")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&0o111, "script must be executable")
}

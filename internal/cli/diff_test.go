package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/confgold/internal/testutil"
)

func TestDiffCommand_IdenticalTrees(t *testing.T) {
	expected := t.TempDir()
	actual := t.TempDir()
	tree := map[string]string{"a.txt": "hello", "sub/b.txt": "world"}
	testutil.WriteTree(t, expected, tree)
	testutil.WriteTree(t, actual, tree)

	out, err := executeCommand("diff", expected, actual)
	require.NoError(t, err)
	assert.Contains(t, out, "Trees are identical.")
}

func TestDiffCommand_Divergence(t *testing.T) {
	expected := t.TempDir()
	actual := t.TempDir()
	testutil.WriteTree(t, expected, map[string]string{"a.txt": "hello", "gone.txt": "x"})
	testutil.WriteTree(t, actual, map[string]string{"a.txt": "changed"})

	out, err := executeCommand("diff", expected, actual)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Contains(t, out, "content-mismatch: a.txt")
	assert.Contains(t, out, "missing-in-actual: gone.txt")
	assert.Contains(t, out, "-hello")
	assert.Contains(t, out, "+changed")
}

func TestDiffCommand_JSON(t *testing.T) {
	expected := t.TempDir()
	actual := t.TempDir()
	testutil.WriteTree(t, expected, map[string]string{"a.txt": "x"})
	testutil.WriteTree(t, actual, map[string]string{})

	out, err := executeCommand("--format", "json", "diff", expected, actual)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Data   DiffResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_TREES_DIVERGE", resp.Error.Code)
	require.Len(t, resp.Data.Discrepancies, 1)
	assert.Equal(t, "a.txt", resp.Data.Discrepancies[0].Path)
}

func TestDiffCommand_MissingDir(t *testing.T) {
	_, err := executeCommand("diff", filepath.Join(t.TempDir(), "nope"), t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestDiffCommand_NotADirectory(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{"file.txt": "x"})

	_, err := executeCommand("diff", filepath.Join(dir, "file.txt"), t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

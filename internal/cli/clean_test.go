package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/confgold/internal/testutil"
)

func TestCleanCommand(t *testing.T) {
	suite := t.TempDir()
	gen := testutil.FakeGenerator(t, t.TempDir())
	tree := map[string]string{"a.txt": "x"}
	writeSuiteScenario(t, suite, "basic", tree, tree)
	writeSuiteScenario(t, suite, "other", tree, tree)

	// A test run populates the scratch dirs.
	_, err := executeCommand("test", suite, "--generator", gen)
	require.NoError(t, err)
	require.DirExists(t, filepath.Join(suite, "basic", "output"))

	out, err := executeCommand("clean", suite)
	require.NoError(t, err)
	assert.Contains(t, out, "Cleaned 2 scratch directories.")

	_, err = os.Stat(filepath.Join(suite, "basic", "output"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(suite, "other", "output"))
	assert.True(t, os.IsNotExist(err))

	// Fixtures and golden trees are untouched.
	assert.FileExists(t, filepath.Join(suite, "basic", "expected_output", "a.txt"))
	assert.FileExists(t, filepath.Join(suite, "basic", "render", "a.txt"))
}

func TestCleanCommand_SingularMessage(t *testing.T) {
	suite := t.TempDir()
	tree := map[string]string{"a.txt": "x"}
	writeSuiteScenario(t, suite, "only", tree, tree)

	out, err := executeCommand("clean", suite)
	require.NoError(t, err)
	assert.Contains(t, out, "Cleaned 1 scratch directory.")
}

func TestCleanCommand_MissingDir(t *testing.T) {
	_, err := executeCommand("clean", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

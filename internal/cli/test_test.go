package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/confgold/internal/testutil"
)

// executeCommand runs the root command with args and captures its output.
func executeCommand(args ...string) (string, error) {
	cmd := NewRootCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// writeSuiteScenario creates one scenario directory under suiteDir. The
// fake generator copies render/ into the scratch dir, so render vs
// expected_output decides pass/fail.
func writeSuiteScenario(t *testing.T, suiteDir, name string, render, expected map[string]string) {
	t.Helper()
	dir := filepath.Join(suiteDir, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scenario.yaml"), []byte("name: "+name+"\n"), 0o644))
	testutil.WriteTree(t, dir, map[string]string{"deploy/config.yml": "apps: []\n"})
	testutil.WriteTree(t, filepath.Join(dir, "render"), render)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "expected_output"), 0o755))
	testutil.WriteTree(t, filepath.Join(dir, "expected_output"), expected)
}

func TestTestCommand_AllPass(t *testing.T) {
	suite := t.TempDir()
	gen := testutil.FakeGenerator(t, t.TempDir())
	tree := map[string]string{"a.txt": "hello"}
	writeSuiteScenario(t, suite, "basic", tree, tree)

	out, err := executeCommand("test", suite, "--generator", gen)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ basic")
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
	assert.Contains(t, out, "All scenarios passed")
}

func TestTestCommand_FailureSetsExitCode(t *testing.T) {
	suite := t.TempDir()
	gen := testutil.FakeGenerator(t, t.TempDir())
	writeSuiteScenario(t, suite, "passing",
		map[string]string{"a.txt": "hello"},
		map[string]string{"a.txt": "hello"})
	writeSuiteScenario(t, suite, "failing",
		map[string]string{"a.txt": "hello", "sub/b.txt": "WORLD"},
		map[string]string{"a.txt": "hello", "sub/b.txt": "world"})

	out, err := executeCommand("test", suite, "--generator", gen)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Contains(t, out, "✗ failing")
	assert.Contains(t, out, "content-mismatch: sub/b.txt")
	assert.Contains(t, out, "-world")
	assert.Contains(t, out, "+WORLD")
	assert.Contains(t, out, "✓ passing")
	assert.Contains(t, out, "Test Summary: 1 passed, 1 failed, 2 total")
}

func TestTestCommand_JSONOutput(t *testing.T) {
	suite := t.TempDir()
	gen := testutil.FakeGenerator(t, t.TempDir())
	writeSuiteScenario(t, suite, "failing",
		map[string]string{},
		map[string]string{"a.txt": "x"})

	out, err := executeCommand("test", suite, "--generator", gen, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))

	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
	assert.Equal(t, 1, resp.Data.Failed)
	require.Len(t, resp.Data.Scenarios, 1)
	require.Len(t, resp.Data.Scenarios[0].Discrepancies, 1)
	assert.Equal(t, "a.txt", resp.Data.Scenarios[0].Discrepancies[0].Path)
}

func TestTestCommand_Filter(t *testing.T) {
	suite := t.TempDir()
	gen := testutil.FakeGenerator(t, t.TempDir())
	tree := map[string]string{"a.txt": "x"}
	writeSuiteScenario(t, suite, "marathon-basic", tree, tree)
	writeSuiteScenario(t, suite, "dummy-plain", tree, tree)

	out, err := executeCommand("test", suite, "--generator", gen, "--filter", "marathon-*")
	require.NoError(t, err)
	assert.Contains(t, out, "marathon-basic")
	assert.NotContains(t, out, "dummy-plain")
	assert.Contains(t, out, "1 total")
}

func TestTestCommand_Update(t *testing.T) {
	suite := t.TempDir()
	gen := testutil.FakeGenerator(t, t.TempDir())
	writeSuiteScenario(t, suite, "drifted",
		map[string]string{"a.txt": "new"},
		map[string]string{"a.txt": "old"})

	out, err := executeCommand("test", suite, "--generator", gen, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "golden updated")

	// Golden now matches; a normal run passes.
	out, err = executeCommand("test", suite, "--generator", gen)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ drifted")
}

func TestTestCommand_MissingScenariosDir(t *testing.T) {
	_, err := executeCommand("test", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommand_NoScenariosFound(t *testing.T) {
	out, err := executeCommand("test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTestCommand_UnstartableGeneratorAborts(t *testing.T) {
	suite := t.TempDir()
	tree := map[string]string{"a.txt": "x"}
	writeSuiteScenario(t, suite, "basic", tree, tree)

	_, err := executeCommand("test", suite, "--generator", filepath.Join(suite, "no-such-binary"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommand_SingleScenarioFile(t *testing.T) {
	suite := t.TempDir()
	gen := testutil.FakeGenerator(t, t.TempDir())
	tree := map[string]string{"a.txt": "x"}
	writeSuiteScenario(t, suite, "solo", tree, tree)

	out, err := executeCommand("test", filepath.Join(suite, "solo", "scenario.yaml"), "--generator", gen)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ solo")
}

func TestTestCommand_ConfigFile(t *testing.T) {
	suite := t.TempDir()
	gen := testutil.FakeGenerator(t, t.TempDir())
	tree := map[string]string{"a.txt": "x"}
	writeSuiteScenario(t, suite, "basic", tree, tree)

	cfgPath := filepath.Join(t.TempDir(), "confgold.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("generator:\n  executable: "+gen+"\n"), 0o644))

	out, err := executeCommand("--config", cfgPath, "test", suite)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ basic")
}

package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var harnessScenarios = filepath.Join("..", "harness", "testdata", "scenarios")

// writeScenario writes a scenario against the workspace schema and returns
// its path.
func writeScenario(t *testing.T, dir, name, cases string) string {
	t.Helper()
	schema, err := filepath.Abs(workspaceSchema)
	require.NoError(t, err)
	content := "name: " + name + "\nschema: " + schema + "\n\n" + cases
	return writeFile(t, filepath.Join(dir, name+".yaml"), content)
}

const passingCases = `shapes:
  - from: users
    select: "id, email"
    expect:
      shape: "{id: string, email: string}"
`

const failingCases = `shapes:
  - from: users
    select: "id"
    expect:
      shape: "{id: number}"
`

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommandEmptyScenariosDirJSON(t *testing.T) {
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "json"}), t.TempDir())
	require.NoError(t, err)

	var result TestResult
	assert.Equal(t, "ok", decodeData(t, out, &result))
	assert.Equal(t, 0, result.Total)
	assert.Empty(t, result.Scenarios)
}

func TestTestCommandRunsHarnessScenarios(t *testing.T) {
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), harnessScenarios)
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ workspace_shapes")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommandFilter(t *testing.T) {
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "json"}), harnessScenarios, "--filter", "blog*")
	require.NoError(t, err)

	var result TestResult
	decodeData(t, out, &result)
	require.Len(t, result.Scenarios, 1)
	assert.Equal(t, "blog_types", result.Scenarios[0].Name)
}

func TestTestCommandFailureExitCode(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "good", passingCases)
	writeScenario(t, dir, "bad", failingCases)

	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✓ good")
	assert.Contains(t, out, "✗ bad")
	assert.Contains(t, out, "Test Summary: 1 passed, 1 failed, 2 total")
}

func TestTestCommandFailureJSON(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "bad", failingCases)

	out, err := execute(t, NewTestCommand(&RootOptions{Format: "json"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var result TestResult
	assert.Equal(t, "error", decodeData(t, out, &result))
	assert.Equal(t, 1, result.Failed)
	assert.NotEmpty(t, result.Scenarios[0].Errors)
}

func TestTestCommandBadScenarioFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "broken.yaml"), "name: broken\nschema: /nonexistent\nshapes: []\n")

	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestTestCommandUpdateThenCompareGolden(t *testing.T) {
	dir := t.TempDir()
	scenario := writeScenario(t, dir, "users", passingCases)

	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ users (golden updated)")

	golden := goldenFilePath(scenario)
	assert.FileExists(t, golden)

	_, err = execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.NoError(t, err, "a fresh golden file matches the run")

	require.NoError(t, os.WriteFile(golden, []byte("stale\n"), 0644))
	out, err = execute(t, NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Contains(t, out, "snapshot does not match golden file")
}

func TestFindScenarioFilesSkipsGolden(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.yaml"), "")
	writeFile(t, filepath.Join(dir, "nested", "b.yml"), "")
	writeFile(t, filepath.Join(dir, "golden", "a.yaml"), "")
	writeFile(t, filepath.Join(dir, "notes.txt"), "")

	files, err := findScenarioFiles(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.yaml"),
		filepath.Join(dir, "nested", "b.yml"),
	}, files)

	files, err = findScenarioFiles(dir, "b")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "nested", "b.yml")}, files)

	_, err = findScenarioFiles(dir, "[")
	assert.Error(t, err)
}

func TestGoldenFilePath(t *testing.T) {
	assert.Equal(t,
		filepath.Join("scenarios", "golden", "workspace.golden"),
		goldenFilePath(filepath.Join("scenarios", "workspace.yaml")))
}

package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/contractum/internal/harness"
)

func TestTestCommandMissingArgs(t *testing.T) {
	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs([]string{}) // Missing both directories

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 2 arg")
}

func TestTestCommandNonExistentSpecsDir(t *testing.T) {
	tmpDir := t.TempDir()
	scenariosDir := filepath.Join(tmpDir, "scenarios")
	require.NoError(t, os.MkdirAll(scenariosDir, 0755))

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"/nonexistent/specs", scenariosDir})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "specs directory not found")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	tmpDir := t.TempDir()
	specsDir := filepath.Join(tmpDir, "specs")
	require.NoError(t, os.MkdirAll(specsDir, 0755))

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{specsDir, "/nonexistent/scenarios"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	tmpDir := t.TempDir()
	specsDir := filepath.Join(tmpDir, "specs")
	scenariosDir := filepath.Join(tmpDir, "scenarios")
	require.NoError(t, os.MkdirAll(specsDir, 0755))
	require.NoError(t, os.MkdirAll(scenariosDir, 0755))

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{specsDir, scenariosDir})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No scenarios found")
}

func TestTestCommandEmptyScenariosDirJSON(t *testing.T) {
	tmpDir := t.TempDir()
	specsDir := filepath.Join(tmpDir, "specs")
	scenariosDir := filepath.Join(tmpDir, "scenarios")
	require.NoError(t, os.MkdirAll(specsDir, 0755))
	require.NoError(t, os.MkdirAll(scenariosDir, 0755))

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{specsDir, scenariosDir})

	err := cmd.Execute()
	require.NoError(t, err)

	var response CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &response))
	assert.Equal(t, "ok", response.Status)
}

func TestTestHelpText(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewTestCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "conformance")
	assert.Contains(t, output, "--update")
	assert.Contains(t, output, "--filter")
	assert.Contains(t, output, "specs-dir")
	assert.Contains(t, output, "scenarios-dir")
}

func TestFindScenarioFiles(t *testing.T) {
	tmpDir := t.TempDir()

	// Create scenario files
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "test1.yaml"), []byte(""), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "test2.yml"), []byte(""), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "ignore.txt"), []byte(""), 0644))

	files, err := findScenarioFiles(tmpDir, "")
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestFindScenarioFilesWithFilter(t *testing.T) {
	tmpDir := t.TempDir()

	// Create scenario files
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "burn-test.yaml"), []byte(""), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "burn-add.yaml"), []byte(""), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "transfer-test.yaml"), []byte(""), 0644))

	files, err := findScenarioFiles(tmpDir, "burn-*")
	require.NoError(t, err)
	assert.Len(t, files, 2)

	for _, f := range files {
		base := filepath.Base(f)
		assert.True(t, strings.HasPrefix(base, "burn-"), "Expected file to start with 'burn-': %s", f)
	}
}

func TestFindScenarioFilesSubdirectories(t *testing.T) {
	tmpDir := t.TempDir()
	subDir := filepath.Join(tmpDir, "subdir")
	require.NoError(t, os.MkdirAll(subDir, 0755))

	// Create scenario files in root and subdir
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "root.yaml"), []byte(""), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(subDir, "sub.yaml"), []byte(""), 0644))

	files, err := findScenarioFiles(tmpDir, "")
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestGoldenFilePath(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"/path/to/scenario.yaml", "/path/to/golden/scenario.golden"},
		{"/path/to/scenario.yml", "/path/to/golden/scenario.golden"},
		{"scenarios/test.yaml", "scenarios/golden/test.golden"},
	}

	for _, tc := range testCases {
		result := goldenFilePath(tc.input)
		assert.Equal(t, tc.expected, result)
	}
}

func TestTestCommandDemoScenarios(t *testing.T) {
	out, err := execute(t, &RootOptions{Format: "text"}, NewTestCommand, specsRoot(), scenariosRoot())
	require.NoError(t, err, out)

	assert.Contains(t, out, "✓ fungible_asset\n")
	assert.Contains(t, out, "✓ broken_interface\n")
	assert.Contains(t, out, "Test Summary: 5 passed, 0 failed, 5 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommandDemoScenariosJSON(t *testing.T) {
	out, err := execute(t, &RootOptions{Format: "json"}, NewTestCommand, specsRoot(), scenariosRoot(), "--filter", "*_asset")
	require.NoError(t, err, out)

	var response struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "ok", response.Status)
	assert.Equal(t, 2, response.Data.Total)
	assert.Equal(t, 2, response.Data.Passed)

	byName := map[string]ScenarioResult{}
	for _, r := range response.Data.Scenarios {
		byName[r.Name] = r
	}
	assert.Equal(t, GoldenMatched, byName["fungible_asset"].Golden)
	assert.Equal(t, GoldenNone, byName["burnable_asset"].Golden)
	assert.Equal(t, "BurnableAsset", byName["burnable_asset"].Interface)
	assert.NotEmpty(t, byName["burnable_asset"].ID)
}

func TestRunScenarioReportsCodes(t *testing.T) {
	r := runScenario(filepath.Join(scenariosRoot(), "broken_interface.yaml"), specsRoot(), false)
	assert.True(t, r.Pass, r.Errors)
	assert.Equal(t, []string{"E203", "E221", "E208"}, r.Codes)
	assert.Equal(t, GoldenNone, r.Golden)
}

func TestRunScenarioLoadError(t *testing.T) {
	file := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(file, []byte("name: [\n"), 0644))

	r := runScenario(file, specsRoot(), false)
	assert.False(t, r.Pass)
	assert.Equal(t, "bad.yaml", r.Name)
	require.Len(t, r.Errors, 1)
	assert.Contains(t, r.Errors[0], "failed to load scenario")
}

func TestTestCommandFailingScenario(t *testing.T) {
	scenariosDir := t.TempDir()
	scenario := `
name: wrong_expectation
description: "The broken interface is not valid"
specs: [defects]
interface: Broken
expect:
  valid: true
`
	require.NoError(t, os.WriteFile(filepath.Join(scenariosDir, "wrong.yaml"), []byte(scenario), 0644))

	out, err := execute(t, &RootOptions{Format: "text"}, NewTestCommand, specsRoot(), scenariosDir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong_expectation")
	assert.Contains(t, out, "expected valid=true, got 3 violations and 0 inheritance findings")
	assert.Contains(t, out, "Test Summary: 0 passed, 1 failed, 1 total")
}

func TestTestCommandUpdateAndCompareGolden(t *testing.T) {
	scenariosDir := t.TempDir()
	data, err := os.ReadFile(filepath.Join(scenariosRoot(), "burnable_asset.yaml"))
	require.NoError(t, err)
	scenarioFile := filepath.Join(scenariosDir, "burnable_asset.yaml")
	require.NoError(t, os.WriteFile(scenarioFile, data, 0644))

	out, err := execute(t, &RootOptions{Format: "text"}, NewTestCommand, specsRoot(), scenariosDir, "--update")
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ burnable_asset (golden updated)")

	golden, err := os.ReadFile(goldenFilePath(scenarioFile))
	require.NoError(t, err)
	want, err := os.ReadFile(filepath.Join("..", "harness", "testdata", "golden", "burnable_asset.golden"))
	require.NoError(t, err)
	assert.Equal(t, string(want), string(golden))

	out, err = execute(t, &RootOptions{Format: "text"}, NewTestCommand, specsRoot(), scenariosDir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ burnable_asset\n")
}

func TestTestCommandGoldenMismatch(t *testing.T) {
	scenariosDir := t.TempDir()
	data, err := os.ReadFile(filepath.Join(scenariosRoot(), "fungible_asset.yaml"))
	require.NoError(t, err)
	scenarioFile := filepath.Join(scenariosDir, "fungible_asset.yaml")
	require.NoError(t, os.WriteFile(scenarioFile, data, 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(scenariosDir, "golden"), 0755))
	require.NoError(t, os.WriteFile(goldenFilePath(scenarioFile), []byte(`{"trace":[]}`), 0644))

	out, err := execute(t, &RootOptions{Format: "text"}, NewTestCommand, specsRoot(), scenariosDir)
	require.Error(t, err)
	assert.Contains(t, out, "Golden file mismatch")
}

func TestSnapshotMatchesCommittedGolden(t *testing.T) {
	scenario, err := harness.LoadScenarioWithBasePath(filepath.Join(scenariosRoot(), "fungible_asset.yaml"), specsRoot())
	require.NoError(t, err)

	result, err := harness.Run(scenario)
	require.NoError(t, err)

	match, err := compareWithGolden(scenario, result, goldenFilePath(filepath.Join(scenariosRoot(), "fungible_asset.yaml")))
	require.NoError(t, err)
	assert.True(t, match)
}

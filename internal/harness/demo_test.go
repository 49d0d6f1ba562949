package harness

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// projectRoot returns the project root directory.
// Tests run from the package directory; scenarios live under the project root.
func projectRoot() string {
	root, _ := filepath.Abs("../..")
	return root
}

// specsRoot is the base for scenario spec paths.
func specsRoot() string {
	return filepath.Join(projectRoot(), "testdata", "specs")
}

func loadDemoScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	path := filepath.Join(projectRoot(), "testdata", "scenarios", name+".yaml")
	scenario, err := LoadScenarioWithBasePath(path, specsRoot())
	require.NoError(t, err, "failed to load scenario from %s", path)
	return scenario
}

// TestDemoScenarios runs every scenario shipped under testdata/scenarios.
func TestDemoScenarios(t *testing.T) {
	entries, err := os.ReadDir(filepath.Join(projectRoot(), "testdata", "scenarios"))
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	for _, entry := range entries {
		name := strings.TrimSuffix(entry.Name(), ".yaml")
		t.Run(name, func(t *testing.T) {
			scenario := loadDemoScenario(t, name)
			assert.Equal(t, name, scenario.Name, "scenario name should match its file")
			assert.NotEmpty(t, scenario.Description)

			result, err := Run(scenario)
			require.NoError(t, err, "scenario execution failed")

			assert.True(t, result.Pass, "scenario should pass: errors=%v", result.Errors)
			assert.Empty(t, result.Errors)
			assert.NotEmpty(t, result.Trace)
		})
	}
}

// TestDemoScenariosDeterministic runs the same scenario twice and expects
// identical output.
func TestDemoScenariosDeterministic(t *testing.T) {
	scenario := loadDemoScenario(t, "broken_interface")

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	assert.Equal(t, first.RunID, second.RunID)
	assert.Equal(t, first.Trace, second.Trace)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Rendered, second.Rendered)
}

package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/contractum/internal/testutil"
)

// writeScenario writes a scenario file next to a spec directory and returns
// the scenario path. The YAML may refer to the CUE directory as "specs".
func writeScenario(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "specs"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "specs", "fungible.cue"), []byte(testutil.FungibleAssetCUE), 0644))

	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_Valid(t *testing.T) {
	path := writeScenario(t, `
name: fungible
description: "The fungible asset is consistent"
specs:
  - specs
interface: FungibleAsset
run_id: test-run-0001
expect:
  valid: false
  violations:
    - code: E203
      op: "transition 'transfer'"
      field: beneficiary
  inheritance:
    - code: E305
      field: FungibleAsset
assertions:
  - type: declares
    table: transition
    name: transfer
  - type: violation_count
    code: E203
    count: 1
  - type: inherits
    parent: FungibleAsset
`)

	scenario, err := LoadScenarioWithBasePath(path, filepath.Dir(path))
	require.NoError(t, err)

	assert.Equal(t, "fungible", scenario.Name)
	assert.Equal(t, "The fungible asset is consistent", scenario.Description)
	assert.Equal(t, []string{filepath.Join(filepath.Dir(path), "specs")}, scenario.Specs)
	assert.Equal(t, "FungibleAsset", scenario.Interface)
	assert.Equal(t, "test-run-0001", scenario.RunID)

	require.NotNil(t, scenario.Expect.Valid)
	assert.False(t, *scenario.Expect.Valid)
	assert.Equal(t, []Finding{{Code: "E203", Op: "transition 'transfer'", Field: "beneficiary"}}, scenario.Expect.Violations)
	assert.Equal(t, []Finding{{Code: "E305", Field: "FungibleAsset"}}, scenario.Expect.Inheritance)

	assert.Equal(t, []Assertion{
		{Type: AssertDeclares, Table: "transition", Name: "transfer"},
		{Type: AssertViolationCount, Code: "E203", Count: 1},
		{Type: AssertInherits, Parent: "FungibleAsset"},
	}, scenario.Assertions)
}

func TestLoadScenario_AbsoluteSpecsKept(t *testing.T) {
	specs := writeSpecs(t, testutil.FungibleAssetCUE)
	path := writeScenario(t, `
name: abs
description: "Absolute spec paths are not rebased"
specs:
  - `+specs+`
interface: FungibleAsset
expect:
  valid: true
`)

	scenario, err := LoadScenarioWithBasePath(path, "/elsewhere")
	require.NoError(t, err)
	assert.Equal(t, []string{specs}, scenario.Specs)
}

func TestLoadScenario_FileNotFound(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_MalformedYAML(t *testing.T) {
	path := writeScenario(t, "name: [unclosed")
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: "d"
specs: [specs]
interface: FungibleAsset
expect:
  valid: true
assertion:
  - type: declares
`)
	_, err := LoadScenarioWithBasePath(path, filepath.Dir(path))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field assertion not found")
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing name",
			yaml: "description: d\nspecs: [specs]\ninterface: I\nexpect: {valid: true}\n",
			want: "name is required",
		},
		{
			name: "missing description",
			yaml: "name: n\nspecs: [specs]\ninterface: I\nexpect: {valid: true}\n",
			want: "description is required",
		},
		{
			name: "missing specs",
			yaml: "name: n\ndescription: d\ninterface: I\nexpect: {valid: true}\n",
			want: "specs list is required",
		},
		{
			name: "missing interface",
			yaml: "name: n\ndescription: d\nspecs: [specs]\nexpect: {valid: true}\n",
			want: "interface is required",
		},
		{
			name: "missing valid",
			yaml: "name: n\ndescription: d\nspecs: [specs]\ninterface: I\n",
			want: "expect.valid is required",
		},
		{
			name: "spec not found",
			yaml: "name: n\ndescription: d\nspecs: [nowhere]\ninterface: I\nexpect: {valid: true}\n",
			want: "spec path not found",
		},
		{
			name: "valid with findings",
			yaml: "name: n\ndescription: d\nspecs: [specs]\ninterface: I\nexpect: {valid: true, violations: [{code: E201}]}\n",
			want: "a valid interface cannot list findings",
		},
		{
			name: "violation without code",
			yaml: "name: n\ndescription: d\nspecs: [specs]\ninterface: I\nexpect: {valid: false, violations: [{field: x}]}\n",
			want: "expect.violations[0]: code is required",
		},
		{
			name: "inheritance without code",
			yaml: "name: n\ndescription: d\nspecs: [specs]\ninterface: I\nexpect: {valid: false, inheritance: [{op: genesis}]}\n",
			want: "expect.inheritance[0]: code is required",
		},
		{
			name: "bad id",
			yaml: "name: n\ndescription: d\nspecs: [specs]\ninterface: I\nexpect: {valid: true, id: \"urn:lnp-bp:sc:abc\"}\n",
			want: "expect.id",
		},
		{
			name: "assertion without type",
			yaml: "name: n\ndescription: d\nspecs: [specs]\ninterface: I\nexpect: {valid: true}\nassertions: [{name: x}]\n",
			want: "assertions[0]: type is required",
		},
		{
			name: "unknown assertion type",
			yaml: "name: n\ndescription: d\nspecs: [specs]\ninterface: I\nexpect: {valid: true}\nassertions: [{type: trace_order}]\n",
			want: "unknown assertion type \"trace_order\"",
		},
		{
			name: "declares unknown table",
			yaml: "name: n\ndescription: d\nspecs: [specs]\ninterface: I\nexpect: {valid: true}\nassertions: [{type: declares, table: field, name: x}]\n",
			want: "unknown table \"field\" for declares",
		},
		{
			name: "declares without name",
			yaml: "name: n\ndescription: d\nspecs: [specs]\ninterface: I\nexpect: {valid: true}\nassertions: [{type: declares, table: global}]\n",
			want: "name is required for declares",
		},
		{
			name: "violation_count without code",
			yaml: "name: n\ndescription: d\nspecs: [specs]\ninterface: I\nexpect: {valid: true}\nassertions: [{type: violation_count, count: 1}]\n",
			want: "code is required for violation_count",
		},
		{
			name: "negative count",
			yaml: "name: n\ndescription: d\nspecs: [specs]\ninterface: I\nexpect: {valid: true}\nassertions: [{type: violation_count, code: E201, count: -1}]\n",
			want: "count must be non-negative",
		},
		{
			name: "inherits without parent",
			yaml: "name: n\ndescription: d\nspecs: [specs]\ninterface: I\nexpect: {valid: true}\nassertions: [{type: inherits}]\n",
			want: "parent is required for inherits",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeScenario(t, tt.yaml)
			_, err := LoadScenarioWithBasePath(path, filepath.Dir(path))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid scenario")
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

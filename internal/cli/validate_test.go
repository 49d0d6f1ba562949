package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/contractum/internal/testutil"
)

func TestValidateValidSpecs(t *testing.T) {
	out, err := execute(t, &RootOptions{Format: "text"}, NewValidateCommand, filepath.Join(specsRoot(), "assets"))
	require.NoError(t, err)
	assert.Equal(t, "✓ All 2 interface(s) consistent\n", out)
}

func TestValidateValidSpecsJSON(t *testing.T) {
	out, err := execute(t, &RootOptions{Format: "json"}, NewValidateCommand, assetsDir(t))
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	require.Len(t, resp.Data.Interfaces, 2)
	assert.Equal(t, "FungibleAsset", resp.Data.Interfaces[0].Name)
	assert.Equal(t, testutil.FungibleAsset().ID(), resp.Data.Interfaces[0].ID)
	assert.Empty(t, resp.Data.Interfaces[0].Violations)
}

func TestValidateNonExistentDirectory(t *testing.T) {
	out, err := execute(t, &RootOptions{Format: "text"}, NewValidateCommand, "/nonexistent/directory/path")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
}

func TestValidateEmptyDirectory(t *testing.T) {
	_, err := execute(t, &RootOptions{Format: "text"}, NewValidateCommand, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E003")
}

func TestValidateCompileErrorIsCommandError(t *testing.T) {
	dir := writeSpecDir(t, "interface: Bad: version: 0\n")

	out, err := execute(t, &RootOptions{Format: "text"}, NewValidateCommand, dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "E102")
}

func TestValidateReportsEveryFinding(t *testing.T) {
	out, err := execute(t, &RootOptions{Format: "text"}, NewValidateCommand, filepath.Join(specsRoot(), "defects"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "validation failed with 3 finding(s)")

	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "Broken\n")
	assert.Contains(t, out, "  E203: ")
	assert.Contains(t, out, "  E221: ")
	assert.Contains(t, out, "  E208: ")
}

func TestValidateFindingsJSON(t *testing.T) {
	out, err := execute(t, &RootOptions{Format: "json"}, NewValidateCommand, filepath.Join(specsRoot(), "defects"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E203", resp.Error.Code)
	assert.False(t, resp.Data.Valid)
	require.Len(t, resp.Data.Interfaces, 1)

	var codes []string
	for _, v := range resp.Data.Interfaces[0].Violations {
		codes = append(codes, v.Code)
	}
	assert.Equal(t, []string{"E203", "E221", "E208"}, codes)
}

func TestValidateInheritanceFindings(t *testing.T) {
	tests := []struct {
		dir  string
		code string
	}{
		{"override", "E304"},
		{"final", "E305"},
	}

	for _, tt := range tests {
		t.Run(tt.dir, func(t *testing.T) {
			out, err := execute(t, &RootOptions{Format: "text"}, NewValidateCommand, filepath.Join(specsRoot(), tt.dir))
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))
			assert.Contains(t, out, "  "+tt.code+": ")
		})
	}
}

func TestValidateResolvesParentsFromRegistry(t *testing.T) {
	db := filepath.Join(t.TempDir(), "registry.db")

	// BurnableAsset names its parent by id, so it compiles without it.
	childDir := writeSpecDir(t, `
interface: BurnableAsset: {
	inherits: ["`+testutil.FungibleAsset().ID().String()+`"]
	genesis: modifier: "override"
}
`)

	_, err := execute(t, &RootOptions{Format: "text"}, NewValidateCommand, childDir)
	require.Error(t, err, "parent is unknown without a registry")

	_, err = execute(t, &RootOptions{Format: "text", DB: db}, NewRegisterCommand, writeSpecDir(t, testutil.FungibleAssetCUE))
	require.NoError(t, err)

	out, err := execute(t, &RootOptions{Format: "text", DB: db}, NewValidateCommand, childDir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ All 1 interface(s) consistent")
}

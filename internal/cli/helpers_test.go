package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/contractum/internal/testutil"
)

func specsRoot() string {
	return filepath.Join("..", "..", "testdata", "specs")
}

func scenariosRoot() string {
	return filepath.Join("..", "..", "testdata", "scenarios")
}

// execute runs a single command and returns its stdout.
func execute(t *testing.T, opts *RootOptions, newCmd func(*RootOptions) *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := newCmd(opts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// writeSpecDir writes each source to its own .cue file in a fresh directory.
func writeSpecDir(t *testing.T, sources ...string) string {
	t.Helper()
	dir := t.TempDir()
	for i, src := range sources {
		path := filepath.Join(dir, string(rune('a'+i))+".cue")
		require.NoError(t, os.WriteFile(path, []byte(src), 0644))
	}
	return dir
}

func assetsDir(t *testing.T) string {
	return writeSpecDir(t, testutil.FungibleAssetCUE, testutil.BurnableAssetCUE)
}

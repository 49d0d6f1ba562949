package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/contractum/internal/store"
)

// NewRegisterCommand creates the register command.
func NewRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "register <specs-dir>",
		Short: "Check interfaces and store them in the registry",
		Long: `Compile and check CUE interfaces, then store them in the registry.

Nothing is registered unless every interface is consistent, and all
interfaces are written in one transaction. Registering an interface that is
already present is a no-op.

Examples:
  contractum register --db ./registry.db ./interfaces
  CONTRACTUM_DB=./registry.db contractum register ./interfaces`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(rootOpts, args[0], cmd)
		},
	}
}

func runRegister(opts *RootOptions, specsDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	ctx := context.Background()

	st, err := openRegistry(opts)
	if err != nil {
		return outputCompileError(formatter, ErrCodeLoadFailed, err.Error(), nil)
	}
	defer closeRegistry(st)

	loadResult, loadErrors := LoadSpecs(specsDir, LoadModeCollectAll)
	if loadResult == nil && len(loadErrors) > 0 {
		return outputLoadFailure(formatter, loadErrors[0])
	}
	if len(loadErrors) > 0 {
		return outputCompileErrors(formatter, loadErrors)
	}

	result := checkInterfaces(ctx, loadResult, resolverFor(loadResult, st), formatter)
	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}

	ids, err := st.PutAll(ctx, loadResult.Interfaces...)
	if err != nil {
		return outputCompileError(formatter, ErrCodeWriteFailed, err.Error(), nil)
	}
	entries := make([]store.Entry, len(ids))
	for i, iface := range loadResult.Interfaces {
		slog.Debug("interface registered", "name", iface.Name, "id", ids[i])
		entries[i] = store.Entry{ID: ids[i], Name: iface.Name, Version: iface.Version}
	}

	if formatter.Format == "json" {
		return formatter.Success(entries)
	}

	fmt.Fprintf(formatter.Writer, "✓ Registered %d interface(s)\n\n", len(entries))
	for _, e := range entries {
		fmt.Fprintf(formatter.Writer, "  %s\n    %s\n", e.Name, e.ID)
	}
	return nil
}

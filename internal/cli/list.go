package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/contractum/internal/ir"
	"github.com/roach88/contractum/internal/store"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Inherits string // parent id or registered name
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered interfaces",
		Long: `List the interfaces in the registry, ordered by name.

With --inherits, only the direct children of the given parent are listed.
The parent is an interface id or the name of a registered interface.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Inherits, "inherits", "", "list only children of this parent")

	return cmd
}

func runList(opts *ListOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := context.Background()

	st, err := openRegistry(opts.RootOptions)
	if err != nil {
		return outputCompileError(formatter, ErrCodeLoadFailed, err.Error(), nil)
	}
	defer closeRegistry(st)

	var entries []store.Entry
	if opts.Inherits == "" {
		entries, err = st.List(ctx)
	} else {
		parent, code, perr := resolveParentRef(ctx, st, opts.Inherits)
		if perr != nil {
			return outputCompileError(formatter, code, perr.Error(), nil)
		}
		entries, err = st.Children(ctx, parent)
	}
	if err != nil {
		return outputCompileError(formatter, ErrCodeLoadFailed, err.Error(), nil)
	}

	if formatter.Format == "json" {
		return formatter.Success(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(formatter.Writer, "No interfaces registered.")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(formatter.Writer, "%s %s\n  %s\n", e.Name, e.Version, e.ID)
	}
	return nil
}

// resolveParentRef turns an id or a registered name into an id. A name must
// match exactly one registered interface.
func resolveParentRef(ctx context.Context, st *store.Store, ref string) (ir.IfaceID, string, error) {
	if id, err := parseAnyID(ref); err == nil {
		return id, "", nil
	}
	matches, err := st.FindByName(ctx, ref)
	if err != nil {
		return ir.IfaceID{}, ErrCodeLoadFailed, err
	}
	switch len(matches) {
	case 0:
		return ir.IfaceID{}, ErrCodeUnknownInterface, fmt.Errorf("no registered interface named %q", ref)
	case 1:
		return matches[0].ID, "", nil
	default:
		return ir.IfaceID{}, ErrCodeUnknownInterface, fmt.Errorf("%d registered interfaces named %q; use an id", len(matches), ref)
	}
}

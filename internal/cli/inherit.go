package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/contractum/internal/compiler"
	"github.com/roach88/contractum/internal/store"
)

// InheritResult holds the inheritance check of one interface.
type InheritResult struct {
	Name     string                      `json:"name"`
	Parents  []string                    `json:"parents"`
	Findings []compiler.InheritanceError `json:"findings,omitempty"`
}

// NewInheritCommand creates the inherit command.
func NewInheritCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inherit <specs-dir> <interface>",
		Short: "Check an interface against its ancestors",
		Long: `Check the override and final rules of an interface against its ancestors.

Ancestors are resolved among the compiled interfaces and, with --db, in the
registry.

Exit codes:
  0 - Inheritance consistent
  1 - One or more findings
  2 - Command error`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInherit(rootOpts, args[0], args[1], cmd)
		},
	}
}

func runInherit(opts *RootOptions, specsDir, name string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	ctx := context.Background()

	loadResult, loadErrors := LoadSpecs(specsDir, LoadModeFailFast)
	if loadResult == nil && len(loadErrors) > 0 {
		return outputLoadFailure(formatter, loadErrors[0])
	}
	if len(loadErrors) > 0 {
		return outputCompileErrors(formatter, loadErrors)
	}

	iface, ok := loadResult.Find(name)
	if !ok {
		return outputCompileError(formatter, ErrCodeUnknownInterface, fmt.Sprintf("interface %q not found in %s", name, specsDir), nil)
	}

	names := loadResult.Names()
	var st *store.Store
	if opts.DB != "" {
		var err error
		if st, err = openRegistry(opts); err != nil {
			return outputCompileError(formatter, ErrCodeLoadFailed, err.Error(), nil)
		}
		defer closeRegistry(st)
		if err := registryNames(ctx, st, names); err != nil {
			return outputCompileError(formatter, ErrCodeLoadFailed, err.Error(), nil)
		}
	}

	result := InheritResult{
		Name:     iface.Name,
		Parents:  []string{},
		Findings: compiler.CheckInheritance(ctx, iface, resolverFor(loadResult, st)),
	}
	for _, id := range iface.Inherits.Sorted() {
		if parent, ok := names[id]; ok {
			result.Parents = append(result.Parents, parent)
		} else {
			result.Parents = append(result.Parents, id.String())
		}
	}

	if len(result.Findings) == 0 {
		if formatter.Format == "json" {
			return formatter.Success(result)
		}
		fmt.Fprintf(formatter.Writer, "✓ %s: inheritance consistent (%d parent(s))\n", result.Name, len(result.Parents))
		return nil
	}

	if formatter.Format == "json" {
		first := result.Findings[0]
		_ = formatter.Failure(CLIError{Code: first.Code, Message: inheritanceMessage(first)}, result)
	} else {
		fmt.Fprintf(formatter.Writer, "✗ %s: inheritance inconsistent\n\n", result.Name)
		for _, f := range result.Findings {
			fmt.Fprintf(formatter.Writer, "  %s: %s\n", f.Code, inheritanceMessage(f))
		}
	}
	return NewExitError(ExitFailure, fmt.Sprintf("inheritance check failed with %d finding(s)", len(result.Findings)))
}

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/contractum/internal/render"
)

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "render <specs-dir> <interface>",
		Short: "Print an interface in its textual form",
		Long: `Compile CUE interfaces and print one of them in the textual grammar.

Rendering does not validate. Parents are printed by name when they are
compiled alongside or, with --db, registered; otherwise by id.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(rootOpts, args[0], args[1], cmd)
		},
	}
}

func runRender(opts *RootOptions, specsDir, name string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

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
	if opts.DB != "" {
		st, err := openRegistry(opts)
		if err != nil {
			return outputCompileError(formatter, ErrCodeLoadFailed, err.Error(), nil)
		}
		defer closeRegistry(st)
		if err := registryNames(context.Background(), st, names); err != nil {
			return outputCompileError(formatter, ErrCodeLoadFailed, err.Error(), nil)
		}
	}

	text := render.String(iface, names, nil)
	if formatter.Format == "json" {
		return formatter.Success(map[string]string{
			"name": iface.Name,
			"id":   iface.ID().String(),
			"text": text,
		})
	}

	fmt.Fprint(formatter.Writer, text)
	return nil
}

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/contractum/internal/compiler"
	"github.com/roach88/contractum/internal/ir"
	"github.com/roach88/contractum/internal/store"
)

// InterfaceReport holds the findings for one interface.
type InterfaceReport struct {
	Name        string                      `json:"name"`
	ID          ir.IfaceID                  `json:"id"`
	Violations  []compiler.Inconsistency    `json:"violations,omitempty"`
	Inheritance []compiler.InheritanceError `json:"inheritance,omitempty"`
}

// Valid reports whether the interface has no findings.
func (r InterfaceReport) Valid() bool {
	return len(r.Violations) == 0 && len(r.Inheritance) == 0
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid      bool              `json:"valid"`
	Interfaces []InterfaceReport `json:"interfaces"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <specs-dir>",
		Short: "Check compiled interfaces for consistency",
		Long: `Compile CUE interfaces and check each one.

Every structural defect is reported, not just the first. Parents are
resolved among the compiled interfaces and, with --db, in the registry.

Exit codes:
  0 - All interfaces consistent
  1 - One or more interfaces have findings
  2 - Command error (invalid paths, compile errors, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, specsDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	loadResult, loadErrors := LoadSpecs(specsDir, LoadModeCollectAll)
	if loadResult == nil && len(loadErrors) > 0 {
		return outputLoadFailure(formatter, loadErrors[0])
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, specsDir)
	if len(loadErrors) > 0 {
		return outputCompileErrors(formatter, loadErrors)
	}

	var st *store.Store
	if opts.DB != "" {
		var err error
		if st, err = openRegistry(opts); err != nil {
			return outputCompileError(formatter, ErrCodeLoadFailed, err.Error(), nil)
		}
		defer closeRegistry(st)
	}

	result := checkInterfaces(cmd.Context(), loadResult, resolverFor(loadResult, st), formatter)
	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// checkInterfaces runs the consistency and inheritance checks on every
// compiled interface.
func checkInterfaces(ctx context.Context, loaded *LoadResult, resolver compiler.Resolver, formatter *OutputFormatter) ValidationResult {
	if ctx == nil {
		ctx = context.Background()
	}
	result := ValidationResult{Valid: true, Interfaces: make([]InterfaceReport, 0, len(loaded.Interfaces))}
	for _, iface := range loaded.Interfaces {
		formatter.VerboseLog("Checking interface: %s", iface.Name)
		report := InterfaceReport{
			Name:        iface.Name,
			ID:          iface.ID(),
			Violations:  compiler.Inconsistencies(iface),
			Inheritance: compiler.CheckInheritance(ctx, iface, resolver),
		}
		if !report.Valid() {
			result.Valid = false
		}
		result.Interfaces = append(result.Interfaces, report)
	}
	return result
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ All %d interface(s) consistent\n", len(result.Interfaces))
	return nil
}

// firstFinding returns the code and message of the first finding.
func firstFinding(result ValidationResult) (string, string) {
	for _, r := range result.Interfaces {
		if len(r.Violations) > 0 {
			return r.Violations[0].Code, r.Violations[0].Message
		}
		if len(r.Inheritance) > 0 {
			return r.Inheritance[0].Code, r.Inheritance[0].Error()
		}
	}
	return ErrCodeGeneric, "validation failed"
}

func countFindings(result ValidationResult) int {
	n := 0
	for _, r := range result.Interfaces {
		n += len(r.Violations) + len(r.Inheritance)
	}
	return n
}

// outputValidationErrors outputs every finding.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	total := countFindings(result)

	if formatter.Format == "json" {
		code, message := firstFinding(result)
		if err := formatter.Failure(CLIError{Code: code, Message: message}, result); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d finding(s)", total))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, r := range result.Interfaces {
		if r.Valid() {
			continue
		}
		fmt.Fprintf(formatter.Writer, "%s\n", r.Name)
		for _, v := range r.Violations {
			fmt.Fprintf(formatter.Writer, "  %s: %s\n", v.Code, v.Message)
		}
		for _, f := range r.Inheritance {
			fmt.Fprintf(formatter.Writer, "  %s: %s\n", f.Code, inheritanceMessage(f))
		}
		fmt.Fprintln(formatter.Writer)
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d finding(s)", total))
}

func inheritanceMessage(f compiler.InheritanceError) string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %v", f.Message, f.Err)
	}
	return f.Message
}

package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/token"

	"github.com/roach88/contractum/internal/compiler"
	"github.com/roach88/contractum/internal/ir"
)

// LoadMode controls how errors are handled during spec loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the results of loading specs from a directory.
type LoadResult struct {
	Interfaces []*ir.Interface // in compile order, parents first
	CUEValue   cue.Value       // The raw CUE value for additional processing
	FileCount  int             // Number of CUE files found
}

// Find returns the compiled interface called name.
func (r *LoadResult) Find(name string) (*ir.Interface, bool) {
	for _, iface := range r.Interfaces {
		if iface.Name == name {
			return iface, true
		}
	}
	return nil, false
}

// Names maps the id of every compiled interface to its name.
func (r *LoadResult) Names() map[ir.IfaceID]string {
	names := make(map[ir.IfaceID]string, len(r.Interfaces))
	for _, iface := range r.Interfaces {
		names[iface.ID()] = iface.Name
	}
	return names
}

// LoadError represents an error that occurred during spec loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadSpecs loads and compiles the CUE interface definitions in a directory.
// If mode is LoadModeFailFast, returns on first error.
// If mode is LoadModeCollectAll, collects all errors; an interface whose
// parent failed to compile is then reported as well.
//
// A nil result means nothing could be loaded.
func LoadSpecs(dir string, mode LoadMode) (*LoadResult, []error) {
	value, files, err := compiler.LoadDir(dir)
	switch {
	case os.IsNotExist(err):
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("specs directory not found: %s", dir)}}
	case errors.Is(err, compiler.ErrNotDirectory):
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	case errors.Is(err, compiler.ErrNoCUEFiles):
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	case err != nil:
		return nil, []error{buildError(err)}
	}

	result := &LoadResult{
		CUEValue:  value,
		FileCount: len(files),
	}

	order, err := compiler.CompileOrder(value)
	if err != nil {
		return result, []error{convertCompileError(err, "interface")}
	}

	var errs []error
	known := make(map[string]ir.IfaceID, len(order))
	for _, label := range order {
		path := cue.MakePath(cue.Str("interface"), cue.Str(label))
		iface, compileErr := compiler.CompileInterface(value.LookupPath(path), known)
		if compileErr != nil {
			errs = append(errs, convertCompileError(compileErr, "interface."+label))
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		known[label] = iface.ID()
		result.Interfaces = append(result.Interfaces, iface)
	}

	if len(order) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: "no interfaces found in specs"})
	}

	return result, errs
}

func buildError(err error) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{Code: ErrCodeBuildFailed, Message: compileErr.Message, Pos: compileErr.Pos}
	}
	return &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, context string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: fmt.Sprintf("%s: %s", context, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric          = "E001" // Generic/unknown error
	ErrCodeScanError        = "E002" // Directory scan error
	ErrCodeNoFiles          = "E003" // No CUE files found
	ErrCodeLoadFailed       = "E004" // Registry open or query failed
	ErrCodeNotFound         = "E005" // Path not found
	ErrCodeBuildFailed      = "E006" // CUE build failed
	ErrCodeWriteFailed      = "E007" // File write error
	ErrCodeInvalidID        = "E008" // Malformed interface id
	ErrCodeUnknownInterface = "E009" // No interface with the given name or id

	// Interface compile errors
	ErrCodeInterfaceName = "E101" // Missing interface name
	ErrCodeVersion       = "E102" // Version out of range
	ErrCodeInherits      = "E103" // Unknown parent or inheritance cycle
	ErrCodeDeclaration   = "E104" // Malformed global, assignment, valency or type
	ErrCodeErrorVariant  = "E105" // Malformed error variant
	ErrCodeOperation     = "E106" // Malformed genesis, transition or extension
)

// MapFieldToErrorCode maps a compiler error field to an error code.
// Fields are dotted paths; only the first segment matters.
func MapFieldToErrorCode(field string) string {
	head, _, _ := strings.Cut(field, ".")
	switch head {
	case "name":
		return ErrCodeInterfaceName
	case "version":
		return ErrCodeVersion
	case "inherits":
		return ErrCodeInherits
	case "global", "assign", "valency", "types":
		return ErrCodeDeclaration
	case "error":
		return ErrCodeErrorVariant
	case "genesis", "transition", "extension", "default":
		return ErrCodeOperation
	case "cue":
		return ErrCodeBuildFailed
	default:
		return ErrCodeGeneric
	}
}


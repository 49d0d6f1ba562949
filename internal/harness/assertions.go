package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/contractum/internal/ir"
)

// AssertionContext provides what assertions inspect beyond the result.
type AssertionContext struct {
	// Interface is the compiled interface under test.
	Interface *ir.Interface

	// Names maps the ids of all compiled interfaces to their names.
	Names map[ir.IfaceID]string
}

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s %s", event.Seq, event.Type, event.Interface)
		if len(event.Codes) > 0 {
			fmt.Fprintf(&buf, " %s", strings.Join(event.Codes, ","))
		}
		buf.WriteString("\n")
	}

	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertDeclares:
			err = assertDeclares(result, a, actx)
		case AssertViolationCount:
			err = assertViolationCount(result, a)
		case AssertInherits:
			err = assertInherits(result, a, actx)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d (%s): %v", i, a.Type, err))
		}
	}
	return errs
}

// assertDeclares checks that the interface declares a name in a table.
func assertDeclares(result *Result, a Assertion, actx *AssertionContext) error {
	iface := actx.Interface
	name := ir.FieldName(a.Name)

	var found bool
	switch a.Table {
	case "global":
		_, found = iface.GlobalState[name]
	case "assign":
		_, found = iface.Assignments[name]
	case "valency":
		_, found = iface.Valencies[name]
	case "transition":
		_, found = iface.Transitions[name]
	case "extension":
		_, found = iface.Extensions[name]
	case "error":
		for _, v := range iface.Errors.Variants() {
			if v.Name == name {
				found = true
				break
			}
		}
	default:
		return fmt.Errorf("unknown table %q", a.Table)
	}

	if !found {
		return &AssertionError{
			Type:     AssertDeclares,
			Expected: fmt.Sprintf("%s '%s' declared by %s", a.Table, a.Name, iface.Name),
			Actual:   "not declared",
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertViolationCount checks how often a code is reported. Consistency and
// inheritance findings are counted together.
func assertViolationCount(result *Result, a Assertion) error {
	count := 0
	for _, v := range result.Violations {
		if v.Code == a.Code {
			count++
		}
	}
	for _, f := range result.Inheritance {
		if f.Code == a.Code {
			count++
		}
	}

	if count != a.Count {
		return &AssertionError{
			Type:     AssertViolationCount,
			Expected: fmt.Sprintf("%s reported %d times", a.Code, a.Count),
			Actual:   fmt.Sprintf("reported %d times", count),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertInherits checks that the interface inherits a compiled interface by
// name.
func assertInherits(result *Result, a Assertion, actx *AssertionContext) error {
	iface := actx.Interface
	var parents []string
	for _, id := range iface.Inherits.Sorted() {
		name, ok := actx.Names[id]
		if !ok {
			name = id.String()
		}
		if name == a.Parent {
			return nil
		}
		parents = append(parents, name)
	}

	return &AssertionError{
		Type:     AssertInherits,
		Expected: fmt.Sprintf("%s inherits %s", iface.Name, a.Parent),
		Actual:   fmt.Sprintf("inherits %v", parents),
		Trace:    result.Trace,
	}
}

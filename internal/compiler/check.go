package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/contractum/internal/ir"
)

// Consistency error codes (E200-E299)
const (
	// Unknown references (E201-E209)
	ErrUnknownGlobal            = "E201" // operation references undeclared global state
	ErrUnknownAssignment        = "E202" // operation references undeclared assignment
	ErrUnknownInput             = "E203" // transition input references undeclared assignment
	ErrUnknownValency           = "E204" // operation references undeclared valency
	ErrUnknownRedeem            = "E205" // extension redeems undeclared valency
	ErrUnknownErrorTag          = "E206" // operation references undeclared error tag
	ErrUnknownDefaultAssignment = "E207" // default assignment not among the operation's assignments
	ErrUnknownDefaultOp         = "E208" // default operation is not a transition or extension

	// Cardinality (E211-E219)
	ErrMultipleGlobal     = "E211" // many values of a single-valued global
	ErrMultipleAssignment = "E212" // many values of a single-valued assignment
	ErrMultipleInputs     = "E213" // many inputs of a single-valued assignment

	// Structure (E221-E229)
	ErrRepeatedOperationName    = "E221" // name used by a transition and an extension
	ErrRequiredGlobalAbsent     = "E222" // required global state missing from genesis
	ErrRequiredAssignmentAbsent = "E223" // required assignment missing from genesis
	ErrRequiredValencyAbsent    = "E224" // required valency missing from genesis
	ErrRepeatedErrorTag         = "E225" // two error variants share a tag
	ErrTableOverflow            = "E226" // table exceeds ir.MaxTableLen entries
	ErrMalformedName            = "E227" // name is not NFC-normalized UTF-8
)

// Inconsistency is a single structural defect of an interface.
//
// Op is nil for interface-wide findings. Tag is only meaningful for
// ErrUnknownErrorTag and ErrRepeatedErrorTag.
type Inconsistency struct {
	Code    string       `json:"code"`
	Op      *ir.OpName   `json:"op,omitempty"`
	Field   ir.FieldName `json:"field,omitempty"`
	Tag     uint8        `json:"tag,omitempty"`
	Message string       `json:"message"`
}

// Error implements the error interface.
func (e Inconsistency) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// InconsistencyList is the complete defect set returned by Check.
type InconsistencyList []Inconsistency

// Error implements the error interface.
func (l InconsistencyList) Error() string {
	if len(l) == 1 {
		return l[0].Error()
	}
	msgs := make([]string, len(l))
	for i, e := range l {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("%d inconsistencies:\n  %s", len(l), strings.Join(msgs, "\n  "))
}

// Codes returns the codes of all findings, in report order.
func (l InconsistencyList) Codes() []string {
	codes := make([]string, len(l))
	for i, e := range l {
		codes[i] = e.Code
	}
	return codes
}

// Check verifies that an interface is internally well-formed.
//
// It returns nil or an InconsistencyList holding every defect found; it never
// stops at the first one. Findings are reported for genesis, then transitions
// and extensions in name order, then the interface-wide checks.
func Check(iface *ir.Interface) error {
	if errs := Inconsistencies(iface); len(errs) > 0 {
		return InconsistencyList(errs)
	}
	return nil
}

// Inconsistencies returns the findings of Check as a plain slice (nil when the
// interface is consistent).
func Inconsistencies(iface *ir.Interface) []Inconsistency {
	c := &checker{iface: iface}

	genesis := ir.GenesisOp()
	c.checkBody(genesis, iface.Genesis.OpBody)

	for _, name := range ir.SortedNames(iface.Transitions) {
		op := ir.TransitionOp(name)
		t := iface.Transitions[name]
		c.checkBody(op, t.OpBody)
		for _, input := range ir.SortedNames(t.Inputs) {
			decl, ok := iface.Assignments[input]
			switch {
			case !ok:
				c.add(ErrUnknownInput, &op, input, 0, "unknown input '%s' referenced from %s", input, op)
			case t.Inputs[input].MinValue() > 1 && !decl.Multiple:
				c.add(ErrMultipleInputs, &op, input, 0,
					"assignment '%s' is unique, but operation %s defines multiple inputs of this type, which is not possible", input, op)
			}
		}
		c.checkDefaultAssignment(op, t.OpBody, t.DefaultAssignment)
		c.checkLen(&op, "inputs", len(t.Inputs))
	}

	for _, name := range ir.SortedNames(iface.Extensions) {
		op := ir.ExtensionOp(name)
		e := iface.Extensions[name]
		c.checkBody(op, e.OpBody)
		for _, valency := range e.Redeems.Sorted() {
			if _, ok := iface.Valencies[valency]; !ok {
				c.add(ErrUnknownRedeem, &op, valency, 0, "unknown redeemed valency '%s' referenced from %s", valency, op)
			}
		}
		c.checkDefaultAssignment(op, e.OpBody, e.DefaultAssignment)
		c.checkLen(&op, "redeems", len(e.Redeems))
	}

	c.checkInterface()
	return c.errs
}

type checker struct {
	iface *ir.Interface
	errs  []Inconsistency
}

func (c *checker) add(code string, op *ir.OpName, field ir.FieldName, tag uint8, format string, args ...any) {
	var opCopy *ir.OpName
	if op != nil {
		o := *op
		opCopy = &o
	}
	c.errs = append(c.errs, Inconsistency{
		Code:    code,
		Op:      opCopy,
		Field:   field,
		Tag:     tag,
		Message: fmt.Sprintf(format, args...),
	})
}

// checkBody runs the reference checks shared by all operation kinds.
func (c *checker) checkBody(op ir.OpName, body ir.OpBody) {
	for _, name := range ir.SortedNames(body.Globals) {
		decl, ok := c.iface.GlobalState[name]
		switch {
		case !ok:
			c.add(ErrUnknownGlobal, &op, name, 0, "unknown global state '%s' referenced from %s", name, op)
		case body.Globals[name].MinValue() > 1 && !decl.Multiple:
			c.add(ErrMultipleGlobal, &op, name, 0,
				"global state '%s' must have a unique single value, but operation %s defines multiple global state of this type", name, op)
		}
	}

	for _, name := range ir.SortedNames(body.Assignments) {
		decl, ok := c.iface.Assignments[name]
		switch {
		case !ok:
			c.add(ErrUnknownAssignment, &op, name, 0, "unknown assignment '%s' referenced from %s", name, op)
		case body.Assignments[name].MinValue() > 1 && !decl.Multiple:
			c.add(ErrMultipleAssignment, &op, name, 0,
				"assignment '%s' must be unique, but operation %s defines multiple assignments of this type", name, op)
		}
	}

	for _, name := range body.Valencies.Sorted() {
		if _, ok := c.iface.Valencies[name]; !ok {
			c.add(ErrUnknownValency, &op, name, 0, "unknown valency '%s' referenced from %s", name, op)
		}
	}

	for _, tag := range body.Errors.Sorted() {
		if _, ok := c.iface.Errors.ByTag(tag); !ok {
			c.add(ErrUnknownErrorTag, &op, "", tag, "unknown error tag '%d' referenced from %s", tag, op)
		}
	}

	c.checkLen(&op, "globals", len(body.Globals))
	c.checkLen(&op, "assignments", len(body.Assignments))
	c.checkLen(&op, "valencies", len(body.Valencies))
	c.checkLen(&op, "errors", len(body.Errors))
}

func (c *checker) checkDefaultAssignment(op ir.OpName, body ir.OpBody, name *ir.FieldName) {
	if name == nil {
		return
	}
	if _, ok := body.Assignments[*name]; !ok {
		c.add(ErrUnknownDefaultAssignment, &op, *name, 0, "unknown default assignment '%s' referenced from %s", *name, op)
	}
}

// checkInterface runs the interface-wide checks after the per-operation pass.
func (c *checker) checkInterface() {
	iface := c.iface

	for _, name := range iface.MalformedNames() {
		c.add(ErrMalformedName, nil, name, 0, "name %q is not NFC-normalized UTF-8", string(name))
	}

	for _, name := range ir.SortedNames(iface.Transitions) {
		if _, ok := iface.Extensions[name]; ok {
			c.add(ErrRepeatedOperationName, nil, name, 0,
				"operation name '%s' is used by both state transition and extension", name)
		}
	}

	if name := iface.DefaultOperation; name != nil {
		_, isTransition := iface.Transitions[*name]
		_, isExtension := iface.Extensions[*name]
		if !isTransition && !isExtension {
			c.add(ErrUnknownDefaultOp, nil, *name, 0, "unknown default operation '%s'", *name)
		}
	}

	for _, name := range ir.SortedNames(iface.GlobalState) {
		if _, ok := iface.Genesis.Globals[name]; iface.GlobalState[name].Required && !ok {
			c.add(ErrRequiredGlobalAbsent, nil, name, 0, "global state '%s' is required, but genesis doesn't define it", name)
		}
	}
	for _, name := range ir.SortedNames(iface.Assignments) {
		if _, ok := iface.Genesis.Assignments[name]; iface.Assignments[name].Required && !ok {
			c.add(ErrRequiredAssignmentAbsent, nil, name, 0, "assignment '%s' is required, but genesis doesn't define it", name)
		}
	}
	for _, name := range ir.SortedNames(iface.Valencies) {
		if iface.Valencies[name].Required && !iface.Genesis.Valencies.Has(name) {
			c.add(ErrRequiredValencyAbsent, nil, name, 0, "valency '%s' is required, but genesis doesn't define it", name)
		}
	}

	variants := iface.Errors.Variants()
	for i := 1; i < len(variants); i++ {
		prev, cur := variants[i-1], variants[i]
		if prev.Tag == cur.Tag {
			c.add(ErrRepeatedErrorTag, nil, cur.Name, cur.Tag,
				"error tag '%d' is used by both '%s' and '%s'", cur.Tag, prev.Name, cur.Name)
		}
	}

	c.checkLen(nil, "inherits", len(iface.Inherits))
	c.checkLen(nil, "global_state", len(iface.GlobalState))
	c.checkLen(nil, "assignments", len(iface.Assignments))
	c.checkLen(nil, "valencies", len(iface.Valencies))
	c.checkLen(nil, "transitions", len(iface.Transitions))
	c.checkLen(nil, "extensions", len(iface.Extensions))
	c.checkLen(nil, "errors", len(iface.Errors))
	c.checkLen(nil, "types", len(iface.Types))
}

func (c *checker) checkLen(op *ir.OpName, table ir.FieldName, n int) {
	if n <= ir.MaxTableLen {
		return
	}
	if op == nil {
		c.add(ErrTableOverflow, nil, table, 0, "table '%s' holds %d entries, more than %d", table, n, ir.MaxTableLen)
		return
	}
	c.add(ErrTableOverflow, op, table, 0, "table '%s' of %s holds %d entries, more than %d", table, *op, n, ir.MaxTableLen)
}

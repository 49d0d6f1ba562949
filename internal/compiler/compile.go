package compiler

import (
	"fmt"
	"regexp"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/contractum/internal/ir"
)

var semIDHex = regexp.MustCompile(`^[0-9a-f]{64}$`)

// CompileInterface parses a CUE value into an Interface.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the interface struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`interface: FungibleAsset: { ... }`)
//	iface, err := CompileInterface(v.LookupPath(cue.ParsePath("interface.FungibleAsset")), nil)
//
// Parents listed in `inherits` are interface ids, or names found in known.
// Only structural problems are reported here; reference and cardinality
// defects are left to Check. The exception is an error referenced by name:
// operations store tags, so an undeclared name has nothing to compile to and
// fails here, while an undeclared numeric tag compiles and Check reports it.
func CompileInterface(v cue.Value, known map[string]ir.IfaceID) (*ir.Interface, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	c := &ifaceCompiler{
		known: known,
		iface: &ir.Interface{
			Version: ir.FormatVersion,
			Types:   ir.TypeSystem{},
		},
	}

	// Interface name from struct label (the path selector)
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		c.iface.Name = labels[len(labels)-1].String()
	}
	if name, ok, err := optString(v, "name"); err != nil {
		return nil, err
	} else if ok {
		c.iface.Name = name
	}
	if c.iface.Name == "" {
		return nil, &CompileError{Field: "name", Message: "interface name is required", Pos: v.Pos()}
	}

	steps := []func(cue.Value) error{
		c.parseVersion,
		c.parseInherits,
		c.parseTypes,
		c.parseGlobals,
		c.parseAssignments,
		c.parseValencies,
		c.parseErrors, // before operations, which reference errors by name
		c.parseGenesis,
		c.parseTransitions,
		c.parseExtensions,
		c.parseDefault,
	}
	for _, step := range steps {
		if err := step(v); err != nil {
			return nil, err
		}
	}
	return c.iface, nil
}

type ifaceCompiler struct {
	iface *ir.Interface
	known map[string]ir.IfaceID
}

func (c *ifaceCompiler) parseVersion(v cue.Value) error {
	val := v.LookupPath(cue.ParsePath("version"))
	if !val.Exists() {
		return nil
	}
	n, err := val.Int64()
	if err != nil {
		return formatCUEError(err)
	}
	if n < 1 || n > 255 {
		return &CompileError{Field: "version", Message: fmt.Sprintf("version %d out of range 1..255", n), Pos: val.Pos()}
	}
	c.iface.Version = ir.VerNo(n)
	return nil
}

func (c *ifaceCompiler) parseInherits(v cue.Value) error {
	val := v.LookupPath(cue.ParsePath("inherits"))
	if !val.Exists() {
		return nil
	}
	parents, err := stringList(val)
	if err != nil {
		return err
	}
	c.iface.Inherits = ir.NewIDSet()
	for _, parent := range parents {
		if id, err := ir.ParseIfaceID(parent); err == nil {
			c.iface.Inherits[id] = struct{}{}
			continue
		}
		id, ok := c.known[parent]
		if !ok {
			return &CompileError{
				Field:   "inherits",
				Message: fmt.Sprintf("unknown parent interface %q: not an interface id or a compiled interface name", parent),
				Pos:     val.Pos(),
			}
		}
		c.iface.Inherits[id] = struct{}{}
	}
	return nil
}

func (c *ifaceCompiler) parseTypes(v cue.Value) error {
	val := v.LookupPath(cue.ParsePath("types"))
	if !val.Exists() {
		return nil
	}
	names, err := stringList(val)
	if err != nil {
		return err
	}
	for _, name := range names {
		c.iface.Types.Register(name)
	}
	return nil
}

// semID resolves a type reference: a 64-digit hex id is taken as is, anything
// else is a type name registered in the interface's type system.
func (c *ifaceCompiler) semID(val cue.Value, field string) (ir.SemID, error) {
	s, err := val.String()
	if err != nil {
		return ir.SemID{}, formatCUEError(err)
	}
	if semIDHex.MatchString(s) {
		id, err := ir.ParseSemID(s)
		if err != nil {
			return ir.SemID{}, &CompileError{Field: field, Message: err.Error(), Pos: val.Pos()}
		}
		return id, nil
	}
	if s == "" {
		return ir.SemID{}, &CompileError{Field: field, Message: "type name must be non-empty", Pos: val.Pos()}
	}
	return c.iface.Types.Register(s), nil
}

func (c *ifaceCompiler) parseGlobals(v cue.Value) error {
	return eachField(v, "global", func(name string, val cue.Value) error {
		field := "global." + name
		req, err := parseReq(val, field)
		if err != nil {
			return err
		}
		g := ir.GlobalAny(req)
		if typ := val.LookupPath(cue.ParsePath("type")); typ.Exists() {
			id, err := c.semID(typ, field+".type")
			if err != nil {
				return err
			}
			g.SemID = &id
		}
		if c.iface.GlobalState == nil {
			c.iface.GlobalState = make(map[ir.FieldName]ir.GlobalIface)
		}
		c.iface.GlobalState[ir.FieldName(name)] = g
		return nil
	})
}

func (c *ifaceCompiler) parseAssignments(v cue.Value) error {
	return eachField(v, "assign", func(name string, val cue.Value) error {
		field := "assign." + name
		req, err := parseReq(val, field)
		if err != nil {
			return err
		}

		state := ir.OwnedIface{Kind: ir.OwnedAny}
		kind, hasKind, err := optString(val, "state")
		if err != nil {
			return err
		}
		typ := val.LookupPath(cue.ParsePath("type"))
		switch {
		case kind == "data" || (!hasKind && typ.Exists()):
			if !typ.Exists() {
				return &CompileError{Field: field + ".type", Message: "data state requires a type", Pos: val.Pos()}
			}
			id, err := c.semID(typ, field+".type")
			if err != nil {
				return err
			}
			state = ir.OwnedDataOf(id)
		case hasKind:
			state, err = ir.ParseOwnedIface(kind)
			if err != nil {
				return &CompileError{Field: field + ".state", Message: err.Error(), Pos: val.Pos()}
			}
		}

		public, _, err := optBool(val, "public")
		if err != nil {
			return err
		}
		a := ir.AssignPrivate(state, req)
		if public {
			a = ir.AssignPublic(state, req)
		}
		if c.iface.Assignments == nil {
			c.iface.Assignments = make(map[ir.FieldName]ir.AssignIface)
		}
		c.iface.Assignments[ir.FieldName(name)] = a
		return nil
	})
}

func (c *ifaceCompiler) parseValencies(v cue.Value) error {
	return eachField(v, "valency", func(name string, val cue.Value) error {
		required, _, err := optBool(val, "required")
		if err != nil {
			return err
		}
		if c.iface.Valencies == nil {
			c.iface.Valencies = make(map[ir.FieldName]ir.ValencyIface)
		}
		c.iface.Valencies[ir.FieldName(name)] = ir.ValencyIface{Required: required}
		return nil
	})
}

func (c *ifaceCompiler) parseErrors(v cue.Value) error {
	return eachField(v, "error", func(name string, val cue.Value) error {
		field := "error." + name
		tagVal := val.LookupPath(cue.ParsePath("tag"))
		if !tagVal.Exists() {
			return &CompileError{Field: field + ".tag", Message: "error tag is required", Pos: val.Pos()}
		}
		tag, err := tagVal.Int64()
		if err != nil {
			return formatCUEError(err)
		}
		if tag < 0 || tag > 255 {
			return &CompileError{Field: field + ".tag", Message: fmt.Sprintf("error tag %d out of range 0..255", tag), Pos: tagVal.Pos()}
		}
		message, _, err := optString(val, "message")
		if err != nil {
			return err
		}
		if c.iface.Errors == nil {
			c.iface.Errors = make(ir.Errors)
		}
		c.iface.Errors[ir.ErrorVariant{Name: ir.FieldName(name), Tag: uint8(tag)}] = message
		return nil
	})
}

func (c *ifaceCompiler) parseGenesis(v cue.Value) error {
	val := v.LookupPath(cue.ParsePath("genesis"))
	if !val.Exists() {
		return nil
	}
	body, err := c.parseOpBody(val, "genesis")
	if err != nil {
		return err
	}
	c.iface.Genesis = ir.GenesisIface{OpBody: body}
	return nil
}

func (c *ifaceCompiler) parseTransitions(v cue.Value) error {
	return eachField(v, "transition", func(name string, val cue.Value) error {
		field := "transition." + name
		body, err := c.parseOpBody(val, field)
		if err != nil {
			return err
		}
		t := ir.TransitionIface{OpBody: body}
		if t.Optional, _, err = optBool(val, "optional"); err != nil {
			return err
		}
		if t.Inputs, err = parseArgs(val, "inputs", field); err != nil {
			return err
		}
		if t.DefaultAssignment, err = optName(val, "default"); err != nil {
			return err
		}
		if c.iface.Transitions == nil {
			c.iface.Transitions = make(map[ir.FieldName]ir.TransitionIface)
		}
		c.iface.Transitions[ir.FieldName(name)] = t
		return nil
	})
}

func (c *ifaceCompiler) parseExtensions(v cue.Value) error {
	return eachField(v, "extension", func(name string, val cue.Value) error {
		field := "extension." + name
		body, err := c.parseOpBody(val, field)
		if err != nil {
			return err
		}
		e := ir.ExtensionIface{OpBody: body}
		if e.Optional, _, err = optBool(val, "optional"); err != nil {
			return err
		}
		if e.Redeems, err = nameSet(val, "redeems"); err != nil {
			return err
		}
		if e.DefaultAssignment, err = optName(val, "default"); err != nil {
			return err
		}
		if c.iface.Extensions == nil {
			c.iface.Extensions = make(map[ir.FieldName]ir.ExtensionIface)
		}
		c.iface.Extensions[ir.FieldName(name)] = e
		return nil
	})
}

func (c *ifaceCompiler) parseDefault(v cue.Value) error {
	name, err := optName(v, "default")
	if err != nil {
		return err
	}
	c.iface.DefaultOperation = name
	return nil
}

// parseOpBody parses the fields shared by genesis, transitions and extensions.
func (c *ifaceCompiler) parseOpBody(v cue.Value, field string) (ir.OpBody, error) {
	var body ir.OpBody

	modifier, _, err := optString(v, "modifier")
	if err != nil {
		return body, err
	}
	if body.Modifier, err = ir.ParseModifier(modifier); err != nil {
		return body, &CompileError{Field: field + ".modifier", Message: err.Error(), Pos: v.Pos()}
	}

	if meta := v.LookupPath(cue.ParsePath("metadata")); meta.Exists() {
		id, err := c.semID(meta, field+".metadata")
		if err != nil {
			return body, err
		}
		body.Metadata = &id
	}

	if body.Globals, err = parseArgs(v, "globals", field); err != nil {
		return body, err
	}
	if body.Assignments, err = parseArgs(v, "assigns", field); err != nil {
		return body, err
	}
	if body.Valencies, err = nameSet(v, "valencies"); err != nil {
		return body, err
	}
	if body.Errors, err = c.errorTags(v, field); err != nil {
		return body, err
	}
	return body, nil
}

// errorTags resolves the `errors` list. Entries are tags, kept as written, or
// names of declared error variants, which must resolve here.
func (c *ifaceCompiler) errorTags(v cue.Value, field string) (ir.TagSet, error) {
	val := v.LookupPath(cue.ParsePath("errors"))
	if !val.Exists() {
		return nil, nil
	}
	iter, err := val.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	tags := ir.NewSet[uint8]()
	for iter.Next() {
		item := iter.Value()
		if n, err := item.Int64(); err == nil {
			if n < 0 || n > 255 {
				return nil, &CompileError{Field: field + ".errors", Message: fmt.Sprintf("error tag %d out of range 0..255", n), Pos: item.Pos()}
			}
			tags[uint8(n)] = struct{}{}
			continue
		}
		name, err := item.String()
		if err != nil {
			return nil, &CompileError{Field: field + ".errors", Message: "error reference must be a tag or a name", Pos: item.Pos()}
		}
		found := false
		for _, variant := range c.iface.Errors.Variants() {
			if string(variant.Name) == name {
				tags[variant.Tag] = struct{}{}
				found = true
			}
		}
		if !found {
			return nil, &CompileError{Field: field + ".errors", Message: fmt.Sprintf("unknown error %q", name), Pos: item.Pos()}
		}
	}
	return tags, nil
}

// parseArgs parses a struct of name: occurrence-sugar pairs.
func parseArgs(v cue.Value, key, field string) (ir.ArgMap, error) {
	var args ir.ArgMap
	err := eachField(v, key, func(name string, val cue.Value) error {
		sugar, err := val.String()
		if err != nil {
			return formatCUEError(err)
		}
		occ, err := ir.ParseOccurrence(sugar)
		if err != nil {
			return &CompileError{Field: field + "." + key + "." + name, Message: err.Error(), Pos: val.Pos()}
		}
		if args == nil {
			args = make(ir.ArgMap)
		}
		args[ir.FieldName(name)] = occ
		return nil
	})
	return args, err
}

func parseReq(v cue.Value, field string) (ir.Req, error) {
	s, ok, err := optString(v, "req")
	if err != nil || !ok {
		return ir.Optional, err
	}
	switch s {
	case "optional":
		return ir.Optional, nil
	case "required":
		return ir.Required, nil
	case "none_or_many":
		return ir.NoneOrMany, nil
	case "one_or_many":
		return ir.OneOrMany, nil
	}
	return ir.Optional, &CompileError{
		Field:   field + ".req",
		Message: fmt.Sprintf("unknown requirement %q: must be optional, required, none_or_many or one_or_many", s),
		Pos:     v.LookupPath(cue.ParsePath("req")).Pos(),
	}
}

// eachField calls fn for every field of the struct at key, if present.
func eachField(v cue.Value, key string, fn func(name string, val cue.Value) error) error {
	val := v.LookupPath(cue.ParsePath(key))
	if !val.Exists() {
		return nil
	}
	iter, err := val.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		if err := fn(iter.Label(), iter.Value()); err != nil {
			return err
		}
	}
	return nil
}

func optString(v cue.Value, key string) (string, bool, error) {
	val := v.LookupPath(cue.ParsePath(key))
	if !val.Exists() {
		return "", false, nil
	}
	s, err := val.String()
	if err != nil {
		return "", false, formatCUEError(err)
	}
	return s, true, nil
}

func optBool(v cue.Value, key string) (bool, bool, error) {
	val := v.LookupPath(cue.ParsePath(key))
	if !val.Exists() {
		return false, false, nil
	}
	b, err := val.Bool()
	if err != nil {
		return false, false, formatCUEError(err)
	}
	return b, true, nil
}

func optName(v cue.Value, key string) (*ir.FieldName, error) {
	s, ok, err := optString(v, key)
	if err != nil || !ok {
		return nil, err
	}
	return ir.Name(ir.FieldName(s)), nil
}

func stringList(v cue.Value) ([]string, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

func nameSet(v cue.Value, key string) (ir.NameSet, error) {
	val := v.LookupPath(cue.ParsePath(key))
	if !val.Exists() {
		return nil, nil
	}
	names, err := stringList(val)
	if err != nil {
		return nil, err
	}
	set := ir.NewSet[ir.FieldName]()
	for _, name := range names {
		set[ir.FieldName(name)] = struct{}{}
	}
	return set, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}

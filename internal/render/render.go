// Package render prints interfaces in their textual grammar form.
//
// The output is a read-only view for humans. Rendering performs no
// validation: an inconsistent interface renders just as well as a
// consistent one, with unknown references printed as they are.
//
// Layout:
//
//	@version(v1)
//	interface BurnableAsset: FungibleAsset
//		global burnedSupply(*): RGBContract.Amount
//
//		public burnRight(?): Rights
//
//		genesis: override
//			assigns: burnRight(?)
//
//		transition burn: required, default, final
//			meta: RGBContract.BurnProof
//			...
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/roach88/contractum/internal/ir"
)

// Interface writes the textual form of iface to w.
//
// externals names inherited interfaces; parents missing from it print as
// their id. types resolves semantic type ids ahead of the interface's own
// type system and may be nil.
func Interface(w io.Writer, iface *ir.Interface, externals map[ir.IfaceID]string, types ir.TypeLookup) error {
	_, err := io.WriteString(w, String(iface, externals, types))
	return err
}

// String returns the textual form of iface.
func String(iface *ir.Interface, externals map[ir.IfaceID]string, types ir.TypeLookup) string {
	p := &printer{iface: iface, externals: externals, types: types}
	return p.render()
}

type printer struct {
	iface     *ir.Interface
	externals map[ir.IfaceID]string
	types     ir.TypeLookup
}

func (p *printer) render() string {
	var head strings.Builder
	fmt.Fprintf(&head, "@version(%s)\n", p.iface.Version)
	fmt.Fprintf(&head, "interface %s", p.iface.Name)
	if len(p.iface.Inherits) > 0 {
		parents := make([]string, 0, len(p.iface.Inherits))
		for _, id := range p.iface.Inherits.Sorted() {
			if name, ok := p.externals[id]; ok {
				parents = append(parents, name)
			} else {
				parents = append(parents, id.String())
			}
		}
		fmt.Fprintf(&head, ": %s", strings.Join(parents, ", "))
	}
	head.WriteString("\n")

	var blocks []string
	for _, block := range []string{p.globals(), p.assignments(), p.valencies(), p.errors()} {
		if block != "" {
			blocks = append(blocks, block)
		}
	}
	blocks = append(blocks, p.genesis())
	for _, name := range ir.SortedNames(p.iface.Transitions) {
		blocks = append(blocks, p.transition(name, p.iface.Transitions[name]))
	}
	for _, name := range ir.SortedNames(p.iface.Extensions) {
		blocks = append(blocks, p.extension(name, p.iface.Extensions[name]))
	}
	return head.String() + strings.Join(blocks, "\n")
}

// sugar renders the (required, multiple) pair of a declaration.
func sugar(required, multiple bool) string {
	switch {
	case required && multiple:
		return "(+)"
	case !required && multiple:
		return "(*)"
	case !required:
		return "(?)"
	}
	return ""
}

func (p *printer) typeName(id ir.SemID) string {
	if p.types != nil {
		if name, ok := p.types.LookupType(id); ok {
			return name
		}
	}
	if name, ok := p.iface.Types.LookupType(id); ok {
		return name
	}
	return id.String() + " -- type name unknown"
}

func (p *printer) globals() string {
	var b strings.Builder
	for _, name := range ir.SortedNames(p.iface.GlobalState) {
		g := p.iface.GlobalState[name]
		typ := "Any"
		if g.SemID != nil {
			typ = p.typeName(*g.SemID)
		}
		fmt.Fprintf(&b, "\tglobal %s%s: %s\n", name, sugar(g.Required, g.Multiple), typ)
	}
	return b.String()
}

func (p *printer) ownedState(o ir.OwnedIface) string {
	switch o.Kind {
	case ir.OwnedAny:
		return "AnyType"
	case ir.OwnedAmount:
		return "Zk64"
	case ir.OwnedAnyData:
		return "Any"
	case ir.OwnedAnyAttach:
		return "AnyAttachment"
	case ir.OwnedRights:
		return "Rights"
	case ir.OwnedData:
		return p.typeName(o.SemID)
	}
	return o.String()
}

func (p *printer) assignments() string {
	var b strings.Builder
	for _, name := range ir.SortedNames(p.iface.Assignments) {
		a := p.iface.Assignments[name]
		vis := "owned"
		if a.Public {
			vis = "public"
		}
		fmt.Fprintf(&b, "\t%s %s%s: %s\n", vis, name, sugar(a.Required, a.Multiple), p.ownedState(a.OwnedState))
	}
	return b.String()
}

func (p *printer) valencies() string {
	var b strings.Builder
	for _, name := range ir.SortedNames(p.iface.Valencies) {
		fmt.Fprintf(&b, "\tvalency %s", name)
		if !p.iface.Valencies[name].Required {
			b.WriteString("(?)")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (p *printer) errors() string {
	var b strings.Builder
	for _, v := range p.iface.Errors.Variants() {
		fmt.Fprintf(&b, "\terror %s: %d\n", v.Name, v.Tag)
		fmt.Fprintf(&b, "\t\t%q\n", p.iface.Errors[v])
	}
	return b.String()
}

// opHeader renders the operation line with its modifiers.
func opHeader(b *strings.Builder, pred string, name ir.FieldName, modifier ir.Modifier, optional, isDefault bool) {
	b.WriteString("\t" + pred)
	if name != "" {
		b.WriteString(" " + string(name))
	}
	var mods []string
	if !optional {
		mods = append(mods, "required")
	}
	if isDefault {
		mods = append(mods, "default")
	}
	mods = append(mods, modifier.String())
	fmt.Fprintf(b, ": %s\n", strings.Join(mods, ", "))
}

func (p *printer) opBody(b *strings.Builder, body ir.OpBody) {
	if len(body.Errors) > 0 {
		refs := make([]string, 0, len(body.Errors))
		for _, tag := range body.Errors.Sorted() {
			if v, ok := p.iface.Errors.ByTag(tag); ok {
				refs = append(refs, string(v.Name))
			} else {
				refs = append(refs, fmt.Sprint(tag))
			}
		}
		fmt.Fprintf(b, "\t\terrors: %s\n", strings.Join(refs, ", "))
	}
	if body.Metadata != nil {
		fmt.Fprintf(b, "\t\tmeta: %s\n", p.typeName(*body.Metadata))
	}
	if len(body.Globals) > 0 {
		fmt.Fprintf(b, "\t\tglobals: %s\n", args(body.Globals))
	}
	if len(body.Valencies) > 0 {
		fmt.Fprintf(b, "\t\tvalencies: %s\n", names(body.Valencies))
	}
	if len(body.Assignments) > 0 {
		fmt.Fprintf(b, "\t\tassigns: %s\n", args(body.Assignments))
	}
}

func (p *printer) isDefault(name ir.FieldName) bool {
	return p.iface.DefaultOperation != nil && *p.iface.DefaultOperation == name
}

func (p *printer) genesis() string {
	var b strings.Builder
	opHeader(&b, "genesis", "", p.iface.Genesis.Modifier, true, false)
	p.opBody(&b, p.iface.Genesis.OpBody)
	return b.String()
}

func (p *printer) transition(name ir.FieldName, t ir.TransitionIface) string {
	var b strings.Builder
	opHeader(&b, "transition", name, t.Modifier, t.Optional, p.isDefault(name))
	p.opBody(&b, t.OpBody)
	if t.DefaultAssignment != nil {
		fmt.Fprintf(&b, "\t\tdefault: %s\n", *t.DefaultAssignment)
	}
	if len(t.Inputs) > 0 {
		fmt.Fprintf(&b, "\t\tinputs: %s\n", args(t.Inputs))
	}
	return b.String()
}

func (p *printer) extension(name ir.FieldName, e ir.ExtensionIface) string {
	var b strings.Builder
	opHeader(&b, "extension", name, e.Modifier, e.Optional, p.isDefault(name))
	p.opBody(&b, e.OpBody)
	if e.DefaultAssignment != nil {
		fmt.Fprintf(&b, "\t\tdefault: %s\n", *e.DefaultAssignment)
	}
	if len(e.Redeems) > 0 {
		fmt.Fprintf(&b, "\t\tredeems: %s\n", names(e.Redeems))
	}
	return b.String()
}

// args renders an argument map as "name(sugar), ..." in name order.
func args(m ir.ArgMap) string {
	parts := make([]string, 0, len(m))
	for _, name := range ir.SortedNames(m) {
		parts = append(parts, string(name)+m[name].String())
	}
	return strings.Join(parts, ", ")
}

func names(s ir.NameSet) string {
	parts := make([]string, 0, len(s))
	for _, name := range s.Sorted() {
		parts = append(parts, string(name))
	}
	return strings.Join(parts, ", ")
}

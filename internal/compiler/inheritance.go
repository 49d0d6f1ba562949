package compiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/contractum/internal/ir"
)

// MaxInheritanceDepth bounds how many generations of ancestors are walked.
const MaxInheritanceDepth = 16

// Inheritance error codes (E300-E399)
const (
	ErrUnresolvedParent        = "E301" // inherited id cannot be resolved
	ErrInheritanceCycle        = "E302" // an ancestor inherits from its own descendant
	ErrInheritanceDepth        = "E303" // ancestry deeper than MaxInheritanceDepth
	ErrOverrideWithoutAncestor = "E304" // override of an operation no ancestor declares
	ErrFinalRedeclared         = "E305" // redefinition of an ancestor's final operation
)

// ErrUnknownInterface is returned by resolvers for ids they do not hold.
var ErrUnknownInterface = errors.New("interface not found")

// Resolver looks up interfaces by id.
type Resolver interface {
	ResolveInterface(ctx context.Context, id ir.IfaceID) (*ir.Interface, error)
}

// MapResolver is an in-memory Resolver.
type MapResolver map[ir.IfaceID]*ir.Interface

// NewMapResolver indexes the given interfaces by their derived ids.
func NewMapResolver(ifaces ...*ir.Interface) MapResolver {
	m := make(MapResolver, len(ifaces))
	for _, iface := range ifaces {
		m[iface.ID()] = iface
	}
	return m
}

// ResolveInterface implements Resolver.
func (m MapResolver) ResolveInterface(_ context.Context, id ir.IfaceID) (*ir.Interface, error) {
	if iface, ok := m[id]; ok {
		return iface, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownInterface, id)
}

// InheritanceError is a finding of CheckInheritance.
type InheritanceError struct {
	Code    string     `json:"code"`
	Op      *ir.OpName `json:"op,omitempty"`
	Parent  string     `json:"parent,omitempty"`
	Message string     `json:"message"`
	Err     error      `json:"-"`
}

// Error implements the error interface.
func (e InheritanceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e InheritanceError) Unwrap() error { return e.Err }

// ancestor is a resolved interface in the inheritance graph.
type ancestor struct {
	id    ir.IfaceID
	iface *ir.Interface
}

// CheckInheritance resolves the ancestry of iface and verifies its operation
// modifiers against it. It runs independently of Check.
//
// Ancestors are walked breadth-first. The operation checks are membership
// tests over the whole ancestor set, so no override resolution order is
// implied:
//   - an Override operation must be declared (same kind and name) by some
//     ancestor; an Override genesis needs at least one ancestor
//   - a transition or extension that some ancestor declares Final may only be
//     restated verbatim
//
// Genesis is exempt from the Final rule since every interface declares one.
func CheckInheritance(ctx context.Context, iface *ir.Interface, r Resolver) []InheritanceError {
	var findings []InheritanceError
	ancestors := resolveAncestors(ctx, iface, r, &findings)

	if iface.Genesis.Modifier == ir.Override && len(ancestors) == 0 {
		op := ir.GenesisOp()
		findings = append(findings, InheritanceError{
			Code:    ErrOverrideWithoutAncestor,
			Op:      &op,
			Message: "genesis overrides, but the interface has no ancestors",
		})
	}

	for _, name := range ir.SortedNames(iface.Transitions) {
		t := iface.Transitions[name]
		findings = checkOperation(findings, ir.TransitionOp(name), t.Modifier, ir.EncodeTransition(t), ancestors,
			func(a *ir.Interface) (ir.Modifier, ir.IRValue, bool) {
				parent, ok := a.Transitions[name]
				return parent.Modifier, ir.EncodeTransition(parent), ok
			})
	}
	for _, name := range ir.SortedNames(iface.Extensions) {
		e := iface.Extensions[name]
		findings = checkOperation(findings, ir.ExtensionOp(name), e.Modifier, ir.EncodeExtension(e), ancestors,
			func(a *ir.Interface) (ir.Modifier, ir.IRValue, bool) {
				parent, ok := a.Extensions[name]
				return parent.Modifier, ir.EncodeExtension(parent), ok
			})
	}
	return findings
}

func checkOperation(
	findings []InheritanceError,
	op ir.OpName,
	modifier ir.Modifier,
	encoded ir.IRValue,
	ancestors []ancestor,
	lookup func(*ir.Interface) (ir.Modifier, ir.IRValue, bool),
) []InheritanceError {
	declared := false
	for _, a := range ancestors {
		parentMod, parentEncoded, ok := lookup(a.iface)
		if !ok {
			continue
		}
		declared = true
		if parentMod == ir.Final && !sameEncoding(encoded, parentEncoded) {
			findings = append(findings, InheritanceError{
				Code:    ErrFinalRedeclared,
				Op:      &op,
				Parent:  a.iface.Name,
				Message: fmt.Sprintf("%s is final in ancestor '%s' and cannot be redefined", op, a.iface.Name),
			})
		}
	}
	if modifier == ir.Override && !declared {
		findings = append(findings, InheritanceError{
			Code:    ErrOverrideWithoutAncestor,
			Op:      &op,
			Message: fmt.Sprintf("%s overrides, but no ancestor declares it", op),
		})
	}
	return findings
}

func sameEncoding(a, b ir.IRValue) bool {
	ab, errA := ir.MarshalCanonical(a)
	bb, errB := ir.MarshalCanonical(b)
	return errA == nil && errB == nil && bytes.Equal(ab, bb)
}

// resolveAncestors walks the inheritance graph breadth-first and returns
// every resolved ancestor once, in visiting order.
func resolveAncestors(ctx context.Context, iface *ir.Interface, r Resolver, findings *[]InheritanceError) []ancestor {
	type pending struct {
		id    ir.IfaceID
		depth int
		path  []ir.IfaceID
	}

	root := iface.ID()
	var queue []pending
	for _, id := range iface.Inherits.Sorted() {
		queue = append(queue, pending{id: id, depth: 1, path: []ir.IfaceID{root}})
	}

	var out []ancestor
	visited := make(map[ir.IfaceID]bool)
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]

		if slices.Contains(p.path, p.id) {
			*findings = append(*findings, InheritanceError{
				Code:    ErrInheritanceCycle,
				Parent:  p.id.String(),
				Message: fmt.Sprintf("inheritance cycle through %s", p.id),
			})
			continue
		}
		if visited[p.id] {
			continue
		}
		visited[p.id] = true

		if p.depth > MaxInheritanceDepth {
			*findings = append(*findings, InheritanceError{
				Code:    ErrInheritanceDepth,
				Parent:  p.id.String(),
				Message: fmt.Sprintf("ancestor %s is deeper than %d generations", p.id, MaxInheritanceDepth),
			})
			continue
		}

		parent, err := r.ResolveInterface(ctx, p.id)
		if err != nil {
			*findings = append(*findings, InheritanceError{
				Code:    ErrUnresolvedParent,
				Parent:  p.id.String(),
				Message: fmt.Sprintf("cannot resolve inherited interface %s", p.id),
				Err:     err,
			})
			continue
		}
		out = append(out, ancestor{id: p.id, iface: parent})

		path := append(append([]ir.IfaceID(nil), p.path...), p.id)
		for _, next := range parent.Inherits.Sorted() {
			queue = append(queue, pending{id: next, depth: p.depth + 1, path: path})
		}
	}
	return out
}

package ir

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// VerNo is the interface format version.
type VerNo uint8

const V1 VerNo = 1

func (v VerNo) String() string { return fmt.Sprintf("v%d", uint8(v)) }

// ErrorVariant names an error an operation may fail with.
type ErrorVariant struct {
	Name FieldName
	Tag  uint8
}

func (v ErrorVariant) String() string { return fmt.Sprintf("%s:%d", v.Name, v.Tag) }

// MarshalText implements encoding.TextMarshaler, so variants can key JSON
// objects.
func (v ErrorVariant) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *ErrorVariant) UnmarshalText(text []byte) error {
	// The tag never holds a colon; the name may.
	i := bytes.LastIndexByte(text, ':')
	if i < 0 {
		return fmt.Errorf("invalid error variant %q: expected name:tag", text)
	}
	name, tag := string(text[:i]), string(text[i+1:])
	n, err := strconv.ParseUint(tag, 10, 8)
	if err != nil {
		return fmt.Errorf("invalid error variant %q: %w", text, err)
	}
	*v = ErrorVariant{Name: FieldName(name), Tag: uint8(n)}
	return nil
}

// Errors maps declared error variants to human readable messages.
type Errors map[ErrorVariant]string

// Variants returns the declared variants ordered by tag, then name.
func (e Errors) Variants() []ErrorVariant {
	out := make([]ErrorVariant, 0, len(e))
	for v := range e {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b ErrorVariant) int {
		if a.Tag != b.Tag {
			return int(a.Tag) - int(b.Tag)
		}
		return strings.Compare(string(a.Name), string(b.Name))
	})
	return out
}

// ByTag returns the first variant (in Variants order) carrying tag.
func (e Errors) ByTag(tag uint8) (ErrorVariant, bool) {
	for _, v := range e.Variants() {
		if v.Tag == tag {
			return v, true
		}
	}
	return ErrorVariant{}, false
}

// IDSet is a set of interface ids (inherited parents).
type IDSet map[IfaceID]struct{}

// NewIDSet builds a set from the given ids.
func NewIDSet(ids ...IfaceID) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Sorted returns the ids in byte order.
func (s IDSet) Sorted() []IfaceID {
	out := make([]IfaceID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	slices.SortFunc(out, func(a, b IfaceID) int { return bytes.Compare(a[:], b[:]) })
	return out
}

// MarshalJSON encodes the set as a sorted array of ids.
func (s IDSet) MarshalJSON() ([]byte, error) {
	ids := s.Sorted()
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *IDSet) UnmarshalJSON(data []byte) error {
	var ids []IfaceID
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewIDSet(ids...)
	return nil
}

// Interface is a contract interface definition.
//
// An Interface is assembled once and then treated as immutable; use Clone to
// derive a modified copy. Its identity is InterfaceID over the whole value.
type Interface struct {
	Version          VerNo                         `json:"version"`
	Name             string                        `json:"name"`
	Inherits         IDSet                         `json:"inherits,omitempty"`
	GlobalState      map[FieldName]GlobalIface     `json:"global_state,omitempty"`
	Assignments      map[FieldName]AssignIface     `json:"assignments,omitempty"`
	Valencies        map[FieldName]ValencyIface    `json:"valencies,omitempty"`
	Genesis          GenesisIface                  `json:"genesis"`
	Transitions      map[FieldName]TransitionIface `json:"transitions,omitempty"`
	Extensions       map[FieldName]ExtensionIface  `json:"extensions,omitempty"`
	DefaultOperation *FieldName                    `json:"default_operation,omitempty"`
	Errors           Errors                        `json:"errors,omitempty"`
	Types            TypeSystem                    `json:"types,omitempty"`
}

// ErrMalformedName marks a name that is not UTF-8 in normalization form C.
var ErrMalformedName = errors.New("name is not NFC-normalized UTF-8")

// MalformedNames returns, sorted and without duplicates, every name of the
// interface (its own name included) that fails FieldName.Valid.
func (i *Interface) MalformedNames() []FieldName {
	var bad []FieldName
	check := func(n FieldName) {
		if !n.Valid() {
			bad = append(bad, n)
		}
	}
	body := func(b OpBody) {
		for n := range b.Globals {
			check(n)
		}
		for n := range b.Assignments {
			check(n)
		}
		for n := range b.Valencies {
			check(n)
		}
	}
	optional := func(n *FieldName) {
		if n != nil {
			check(*n)
		}
	}

	check(FieldName(i.Name))
	for n := range i.GlobalState {
		check(n)
	}
	for n := range i.Assignments {
		check(n)
	}
	for n := range i.Valencies {
		check(n)
	}
	body(i.Genesis.OpBody)
	for n, t := range i.Transitions {
		check(n)
		body(t.OpBody)
		for in := range t.Inputs {
			check(in)
		}
		optional(t.DefaultAssignment)
	}
	for n, e := range i.Extensions {
		check(n)
		body(e.OpBody)
		for r := range e.Redeems {
			check(r)
		}
		optional(e.DefaultAssignment)
	}
	optional(i.DefaultOperation)
	for v := range i.Errors {
		check(v.Name)
	}

	slices.Sort(bad)
	return slices.Compact(bad)
}

// ID returns the content-addressed identifier of the interface.
func (i *Interface) ID() IfaceID {
	return InterfaceID(i)
}

// Equal reports whether two interfaces have the same identity.
func (i *Interface) Equal(other *Interface) bool {
	return i.ID() == other.ID()
}

// Compare orders interfaces by identity.
func (i *Interface) Compare(other *Interface) int {
	a, b := i.ID(), other.ID()
	return bytes.Compare(a[:], b[:])
}

// Clone returns a deep copy.
func (i *Interface) Clone() *Interface {
	out := &Interface{
		Version:          i.Version,
		Name:             i.Name,
		Genesis:          GenesisIface{OpBody: i.Genesis.OpBody.clone()},
		DefaultOperation: cloneName(i.DefaultOperation),
	}
	if i.Inherits != nil {
		out.Inherits = NewIDSet(i.Inherits.Sorted()...)
	}
	out.GlobalState = cloneTable(i.GlobalState, func(g GlobalIface) GlobalIface {
		if g.SemID != nil {
			id := *g.SemID
			g.SemID = &id
		}
		return g
	})
	out.Assignments = cloneTable(i.Assignments, func(a AssignIface) AssignIface { return a })
	out.Valencies = cloneTable(i.Valencies, func(v ValencyIface) ValencyIface { return v })
	out.Transitions = cloneTable(i.Transitions, func(t TransitionIface) TransitionIface {
		t.OpBody = t.OpBody.clone()
		t.Inputs = cloneArgs(t.Inputs)
		t.DefaultAssignment = cloneName(t.DefaultAssignment)
		return t
	})
	out.Extensions = cloneTable(i.Extensions, func(e ExtensionIface) ExtensionIface {
		e.OpBody = e.OpBody.clone()
		e.Redeems = e.Redeems.Clone()
		e.DefaultAssignment = cloneName(e.DefaultAssignment)
		return e
	})
	if i.Errors != nil {
		out.Errors = make(Errors, len(i.Errors))
		for k, v := range i.Errors {
			out.Errors[k] = v
		}
	}
	if i.Types != nil {
		out.Types = make(TypeSystem, len(i.Types))
		for k, v := range i.Types {
			out.Types[k] = v
		}
	}
	return out
}

func cloneTable[V any](m map[FieldName]V, dup func(V) V) map[FieldName]V {
	if m == nil {
		return nil
	}
	out := make(map[FieldName]V, len(m))
	for k, v := range m {
		out[k] = dup(v)
	}
	return out
}

// Name returns a pointer to n, for the optional name fields.
func Name(n FieldName) *FieldName {
	return &n
}

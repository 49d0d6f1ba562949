package ir

import (
	"fmt"
	"strings"
)

// Modifier governs how an inheriting interface may redefine an operation.
type Modifier uint8

const (
	Final Modifier = iota
	Abstract
	Override
)

var modifierNames = [...]string{Final: "final", Abstract: "abstract", Override: "override"}

func (m Modifier) String() string {
	if int(m) < len(modifierNames) {
		return modifierNames[m]
	}
	return fmt.Sprintf("modifier(%d)", uint8(m))
}

// ParseModifier parses the lowercase modifier name; "" means Final.
func ParseModifier(s string) (Modifier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "final":
		return Final, nil
	case "abstract":
		return Abstract, nil
	case "override":
		return Override, nil
	}
	return Final, fmt.Errorf("unknown modifier %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Modifier) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Modifier) UnmarshalText(text []byte) error {
	parsed, err := ParseModifier(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ArgMap maps referenced declaration names to their occurrence.
type ArgMap map[FieldName]Occurrence

// OpBody is the part shared by genesis, transitions and extensions.
type OpBody struct {
	Modifier    Modifier `json:"modifier"`
	Metadata    *SemID   `json:"metadata,omitempty"`
	Globals     ArgMap   `json:"globals,omitempty"`
	Assignments ArgMap   `json:"assignments,omitempty"`
	Valencies   NameSet  `json:"valencies,omitempty"`
	Errors      TagSet   `json:"errors,omitempty"`
}

// GenesisIface describes the contract issuance operation.
type GenesisIface struct {
	OpBody
}

// TransitionIface describes a state transition. Inputs reference the
// assignment table and stand for consumed prior outputs.
type TransitionIface struct {
	OpBody
	// Optional means a concrete schema may omit this operation.
	Optional          bool       `json:"optional"`
	Inputs            ArgMap     `json:"inputs,omitempty"`
	DefaultAssignment *FieldName `json:"default_assignment,omitempty"`
}

// ExtensionIface describes a state extension redeeming valencies.
type ExtensionIface struct {
	OpBody
	// Optional means a concrete schema may omit this operation.
	Optional          bool       `json:"optional"`
	Redeems           NameSet    `json:"redeems,omitempty"`
	DefaultAssignment *FieldName `json:"default_assignment,omitempty"`
}

// OpKind tells which table an operation lives in.
type OpKind uint8

const (
	OpGenesis OpKind = iota
	OpTransition
	OpExtension
)

// OpName identifies an operation inside an interface, for error reporting.
type OpName struct {
	Kind OpKind
	Name FieldName
}

func GenesisOp() OpName { return OpName{Kind: OpGenesis} }
func TransitionOp(name FieldName) OpName { return OpName{Kind: OpTransition, Name: name} }
func ExtensionOp(name FieldName) OpName { return OpName{Kind: OpExtension, Name: name} }

func (o OpName) String() string {
	switch o.Kind {
	case OpTransition:
		return fmt.Sprintf("transition '%s'", o.Name)
	case OpExtension:
		return fmt.Sprintf("extension '%s'", o.Name)
	default:
		return "genesis"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (o OpName) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// UnmarshalText parses the form produced by String.
func (o *OpName) UnmarshalText(text []byte) error {
	s := string(text)
	if s == "genesis" {
		*o = GenesisOp()
		return nil
	}
	kind, quoted, ok := strings.Cut(s, " ")
	if ok && len(quoted) >= 2 && strings.HasPrefix(quoted, "'") && strings.HasSuffix(quoted, "'") {
		name := FieldName(quoted[1 : len(quoted)-1])
		switch kind {
		case "transition":
			*o = TransitionOp(name)
			return nil
		case "extension":
			*o = ExtensionOp(name)
			return nil
		}
	}
	return fmt.Errorf("invalid operation name %q", s)
}

func (b OpBody) clone() OpBody {
	out := b
	if b.Metadata != nil {
		meta := *b.Metadata
		out.Metadata = &meta
	}
	out.Globals = cloneArgs(b.Globals)
	out.Assignments = cloneArgs(b.Assignments)
	out.Valencies = b.Valencies.Clone()
	out.Errors = b.Errors.Clone()
	return out
}

func cloneArgs(m ArgMap) ArgMap {
	if m == nil {
		return nil
	}
	out := make(ArgMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneName(n *FieldName) *FieldName {
	if n == nil {
		return nil
	}
	v := *n
	return &v
}

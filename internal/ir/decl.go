package ir

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// SemID identifies a semantic type of the strict type system.
type SemID [32]byte

// SemIDFromName derives a semantic type id from a fully qualified type name.
// Interfaces written by hand name their types; the id is what gets committed.
func SemIDFromName(fqn string) SemID {
	return SemID(digestWithDomain(DomainSemID, []byte(fqn)))
}

// ParseSemID parses the 64-character hex form.
func ParseSemID(s string) (SemID, error) {
	var id SemID
	raw, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("invalid semantic type id %q: %w", s, err)
	}
	if len(raw) != len(id) {
		return id, fmt.Errorf("invalid semantic type id %q: expected %d bytes, got %d", s, len(id), len(raw))
	}
	copy(id[:], raw)
	return id, nil
}

func (id SemID) String() string { return hex.EncodeToString(id[:]) }

// MarshalText implements encoding.TextMarshaler.
func (id SemID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *SemID) UnmarshalText(text []byte) error {
	parsed, err := ParseSemID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// TypeLookup resolves semantic type ids to fully qualified type names.
// It is used for display only; a miss is never an error.
type TypeLookup interface {
	LookupType(id SemID) (string, bool)
}

// TypeSystem is the sub-schema of semantic types an interface embeds.
type TypeSystem map[SemID]string

// LookupType implements TypeLookup.
func (ts TypeSystem) LookupType(id SemID) (string, bool) {
	name, ok := ts[id]
	return name, ok
}

// Register adds a named type, deriving its id from the name.
func (ts TypeSystem) Register(fqn string) SemID {
	id := SemIDFromName(fqn)
	ts[id] = fqn
	return id
}

// Req is shorthand for the (required, multiple) pair of a declaration.
type Req uint8

const (
	Optional Req = iota
	Required
	NoneOrMany
	OneOrMany
)

func (r Req) IsRequired() bool { return r == Required || r == OneOrMany }
func (r Req) IsMultiple() bool { return r == NoneOrMany || r == OneOrMany }

// GlobalIface declares a global state slot. A nil SemID accepts any type.
type GlobalIface struct {
	SemID    *SemID `json:"sem_id,omitempty"`
	Required bool   `json:"required"`
	Multiple bool   `json:"multiple"`
}

func GlobalAny(req Req) GlobalIface {
	return GlobalIface{Required: req.IsRequired(), Multiple: req.IsMultiple()}
}

func GlobalOptional(id SemID) GlobalIface { return globalOf(id, Optional) }
func GlobalRequired(id SemID) GlobalIface { return globalOf(id, Required) }
func GlobalNoneOrMany(id SemID) GlobalIface { return globalOf(id, NoneOrMany) }
func GlobalOneOrMany(id SemID) GlobalIface { return globalOf(id, OneOrMany) }

func globalOf(id SemID, req Req) GlobalIface {
	return GlobalIface{SemID: &id, Required: req.IsRequired(), Multiple: req.IsMultiple()}
}

// OwnedKind enumerates owned state kinds an assignment may carry.
type OwnedKind uint8

const (
	OwnedAny OwnedKind = iota
	OwnedRights
	OwnedAmount
	OwnedAnyData
	OwnedAnyAttach
	OwnedData
)

var ownedKindNames = [...]string{
	OwnedAny:       "any",
	OwnedRights:    "rights",
	OwnedAmount:    "amount",
	OwnedAnyData:   "any_data",
	OwnedAnyAttach: "any_attach",
	OwnedData:      "data",
}

func (k OwnedKind) String() string {
	if int(k) < len(ownedKindNames) {
		return ownedKindNames[k]
	}
	return fmt.Sprintf("owned(%d)", uint8(k))
}

// OwnedIface is the kind of owned state an assignment slot holds.
// SemID is only set for OwnedData.
type OwnedIface struct {
	Kind  OwnedKind
	SemID SemID
}

func OwnedDataOf(id SemID) OwnedIface { return OwnedIface{Kind: OwnedData, SemID: id} }

// ParseOwnedIface parses the text form: one of the kind names, or
// "data:<semid-hex>".
func ParseOwnedIface(s string) (OwnedIface, error) {
	if rest, ok := strings.CutPrefix(s, "data:"); ok {
		id, err := ParseSemID(rest)
		if err != nil {
			return OwnedIface{}, err
		}
		return OwnedDataOf(id), nil
	}
	for kind, name := range ownedKindNames {
		if name == s && OwnedKind(kind) != OwnedData {
			return OwnedIface{Kind: OwnedKind(kind)}, nil
		}
	}
	return OwnedIface{}, fmt.Errorf("unknown owned state kind %q", s)
}

func (o OwnedIface) String() string {
	if o.Kind == OwnedData {
		return "data:" + o.SemID.String()
	}
	return o.Kind.String()
}

// MarshalText implements encoding.TextMarshaler.
func (o OwnedIface) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *OwnedIface) UnmarshalText(text []byte) error {
	parsed, err := ParseOwnedIface(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// AssignIface declares an owned state (assignment) slot.
type AssignIface struct {
	OwnedState OwnedIface `json:"owned_state"`
	Public     bool       `json:"public"`
	Required   bool       `json:"required"`
	Multiple   bool       `json:"multiple"`
}

func AssignPublic(state OwnedIface, req Req) AssignIface {
	return AssignIface{OwnedState: state, Public: true, Required: req.IsRequired(), Multiple: req.IsMultiple()}
}

func AssignPrivate(state OwnedIface, req Req) AssignIface {
	return AssignIface{OwnedState: state, Required: req.IsRequired(), Multiple: req.IsMultiple()}
}

// ValencyIface declares a valency.
type ValencyIface struct {
	Required bool `json:"required"`
}

package ir

import (
	"cmp"
	"encoding/json"
	"maps"
	"slices"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MaxTableLen bounds every declaration table, operation table and reference
// set of an interface.
const MaxTableLen = 255

// FieldName names a declaration, an operation or a referenced slot.
type FieldName string

// Valid reports whether n is UTF-8 in normalization form C. Lookups compare
// names byte for byte while the canonical encoding normalizes them, so only
// valid names keep the id injective.
func (n FieldName) Valid() bool {
	return utf8.ValidString(string(n)) && norm.NFC.IsNormalString(string(n))
}

// Set is an unordered collection with a deterministic sorted view.
// JSON encodes it as a sorted array.
type Set[T cmp.Ordered] map[T]struct{}

// NameSet is a set of field names (valencies, redeems).
type NameSet = Set[FieldName]

// TagSet is a set of error tags.
type TagSet = Set[uint8]

// NewSet builds a set from the given items.
func NewSet[T cmp.Ordered](items ...T) Set[T] {
	s := make(Set[T], len(items))
	for _, item := range items {
		s[item] = struct{}{}
	}
	return s
}

// Has reports set membership.
func (s Set[T]) Has(item T) bool {
	_, ok := s[item]
	return ok
}

// Sorted returns the items in ascending order.
func (s Set[T]) Sorted() []T {
	return slices.Sorted(maps.Keys(s))
}

// Clone returns an independent copy.
func (s Set[T]) Clone() Set[T] {
	return maps.Clone(s)
}

// MarshalJSON implements json.Marshaler.
func (s Set[T]) MarshalJSON() ([]byte, error) {
	// []any keeps a TagSet from encoding as a base64 byte string.
	items := s.Sorted()
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = item
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Set[T]) UnmarshalJSON(data []byte) error {
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*s = NewSet(items...)
	return nil
}

// SortedNames returns the keys of a name-keyed table in ascending order.
// Everything that walks a table goes through it so that map iteration order
// never leaks into results.
func SortedNames[V any](m map[FieldName]V) []FieldName {
	return slices.Sorted(maps.Keys(m))
}

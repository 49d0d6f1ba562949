// Package ir provides the contract interface data model and its canonical
// encoding.
//
// This package contains types, the canonical JSON encoder and identity
// derivation only. All other internal packages import ir; ir imports nothing
// internal.
//
// Key design constraints:
//   - NO float types anywhere; cardinalities are uint16, tags uint8
//   - Every table is a map keyed by FieldName, iterated via SortedNames
//   - Canonical encoding omits absent optionals instead of writing null
//   - All JSON tags use snake_case
package ir

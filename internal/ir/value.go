package ir

import (
	"slices"
	"unicode/utf16"
)

// IRValue is the closed set of values the canonical encoding accepts:
// strings, integers, booleans, arrays and objects. Floats and null have no
// canonical form and cannot be expressed.
type IRValue interface {
	irValue()
}

// IRString is a string value. It is NFC-normalised when encoded.
type IRString string

// IRInt is an integer value. Tags, versions and occurrence bounds all fit.
type IRInt int64

// IRBool is a boolean value.
type IRBool bool

// IRArray is an ordered list. Sets must be sorted before they become arrays.
type IRArray []IRValue

// IRObject maps keys to values; keys are emitted in SortedKeys order.
type IRObject map[string]IRValue

func (IRString) irValue() {}
func (IRInt) irValue()    {}
func (IRBool) irValue()   {}
func (IRArray) irValue()  {}
func (IRObject) irValue() {}

// arrayOf encodes items in the order given.
func arrayOf[T any](items []T, enc func(T) IRValue) IRArray {
	arr := make(IRArray, len(items))
	for i, item := range items {
		arr[i] = enc(item)
	}
	return arr
}

// SortedKeys returns the keys ordered by UTF-16 code units, which is how
// RFC 8785 orders object members. Byte order differs for characters outside
// the Basic Multilingual Plane.
func (obj IRObject) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		return slices.Compare(utf16.Encode([]rune(a)), utf16.Encode([]rune(b)))
	})
	return keys
}

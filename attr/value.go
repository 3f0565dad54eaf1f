package attr

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"sort"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindString
	KindNumber
	KindBinary
	KindStringSet
	KindNumberSet
	KindBinarySet
	KindBool
	KindNull
	KindList
	KindMap
)

var kindTags = [...]string{
	KindInvalid:   "INVALID",
	KindString:    "S",
	KindNumber:    "N",
	KindBinary:    "B",
	KindStringSet: "SS",
	KindNumberSet: "NS",
	KindBinarySet: "BS",
	KindBool:      "BOOL",
	KindNull:      "NULL",
	KindList:      "L",
	KindMap:       "M",
}

// String returns the wire tag of the kind ("S", "NS", "BOOL", ...).
func (k Kind) String() string {
	if int(k) < len(kindTags) {
		return kindTags[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// KindFromTag maps a wire tag to its Kind.
func KindFromTag(tag string) (Kind, bool) {
	for k := KindString; k <= KindMap; k++ {
		if kindTags[k] == tag {
			return k, true
		}
	}
	return KindInvalid, false
}

// Value is one attribute value. The zero Value is invalid and is rejected by
// Encode and MarshalWire.
//
// Values are immutable once built: constructors copy their inputs and
// accessors return copies.
type Value struct {
	kind Kind
	text string   // S, N
	bin  []byte   // B
	set  []string // SS, NS, BS (base64 text for BS); canonical order
	b    bool
	list []Value
	m    *Map
}

// String returns an S value.
func String(s string) Value {
	return Value{kind: KindString, text: s}
}

// Number returns an N value holding text exactly as given.
func Number(text string) (Value, error) {
	if err := checkNumber(text); err != nil {
		return Value{}, err
	}
	return Value{kind: KindNumber, text: text}, nil
}

// Binary returns a B value.
func Binary(b []byte) Value {
	return Value{kind: KindBinary, bin: bytes.Clone(b)}
}

// Bool returns a BOOL value.
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// Null returns a NULL value.
func Null() Value {
	return Value{kind: KindNull}
}

// List returns an L value. Elements may be of any kind.
func List(elems ...Value) Value {
	return Value{kind: KindList, list: append([]Value(nil), elems...)}
}

// MapValue returns an M value backed by m. m must not be modified afterwards.
func MapValue(m *Map) Value {
	if m == nil {
		m = NewMap()
	}
	return Value{kind: KindMap, m: m}
}

// StringSet returns an SS value. Members are sorted; duplicates and empty
// sets are rejected.
func StringSet(members ...string) (Value, error) {
	set, err := canonicalSet(KindStringSet, members, func(a, b string) int {
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	})
	if err != nil {
		return Value{}, err
	}
	return Value{kind: KindStringSet, set: set}, nil
}

// NumberSet returns an NS value. Members are validated and sorted
// numerically; members that are numerically equal count as duplicates.
func NumberSet(members ...string) (Value, error) {
	for _, m := range members {
		if err := checkNumber(m); err != nil {
			return Value{}, err
		}
	}
	set, err := canonicalSet(KindNumberSet, members, compareNumbers)
	if err != nil {
		return Value{}, err
	}
	return Value{kind: KindNumberSet, set: set}, nil
}

// BinarySet returns a BS value, ordered by the members' base64 encoding.
func BinarySet(members ...[]byte) (Value, error) {
	encoded := make([]string, len(members))
	for i, m := range members {
		encoded[i] = base64.StdEncoding.EncodeToString(m)
	}
	set, err := canonicalSet(KindBinarySet, encoded, func(a, b string) int {
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	})
	if err != nil {
		return Value{}, err
	}
	return Value{kind: KindBinarySet, set: set}, nil
}

func canonicalSet(kind Kind, members []string, cmp func(a, b string) int) ([]string, error) {
	if len(members) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptySet, kind)
	}
	set := append([]string(nil), members...)
	sort.SliceStable(set, func(i, j int) bool { return cmp(set[i], set[j]) < 0 })
	for i := 1; i < len(set); i++ {
		if cmp(set[i-1], set[i]) == 0 {
			return nil, fmt.Errorf("%w: duplicate %s member %q", ErrMalformedAttribute, kind, set[i])
		}
	}
	return set, nil
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsZero reports whether v is the invalid zero Value.
func (v Value) IsZero() bool { return v.kind == KindInvalid }

// Text returns the string of an S value or the number text of an N value.
func (v Value) Text() string { return v.text }

// Bytes returns the payload of a B value.
func (v Value) Bytes() []byte { return bytes.Clone(v.bin) }

// Members returns the members of an SS or NS value in canonical order.
func (v Value) Members() []string {
	if v.kind != KindStringSet && v.kind != KindNumberSet {
		return nil
	}
	return append([]string(nil), v.set...)
}

// BinaryMembers returns the members of a BS value in canonical order.
func (v Value) BinaryMembers() [][]byte {
	if v.kind != KindBinarySet {
		return nil
	}
	out := make([][]byte, len(v.set))
	for i, s := range v.set {
		out[i], _ = base64.StdEncoding.DecodeString(s)
	}
	return out
}

// BoolValue returns the payload of a BOOL value.
func (v Value) BoolValue() bool { return v.b }

// Elems returns the elements of an L value.
func (v Value) Elems() []Value { return append([]Value(nil), v.list...) }

// Map returns the map of an M value, or nil.
func (v Value) Map() *Map { return v.m }

// Equal reports whether a and b hold the same variant and payload. Map key
// order is not significant.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindString, KindNumber:
		return a.text == b.text
	case KindBinary:
		return bytes.Equal(a.bin, b.bin)
	case KindStringSet, KindNumberSet, KindBinarySet:
		if len(a.set) != len(b.set) {
			return false
		}
		for i := range a.set {
			if a.set[i] != b.set[i] {
				return false
			}
		}
		return true
	case KindBool:
		return a.b == b.b
	case KindList:
		if len(a.list) != len(b.list) {
			return false
		}
		for i := range a.list {
			if !Equal(a.list[i], b.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		return EqualMaps(a.m, b.m)
	}
	return true
}

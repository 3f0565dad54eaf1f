package attr

import (
	"fmt"
	"sort"
)

// Map is an attribute map with unique names and a stored key order. Items
// and keys are Maps.
type Map struct {
	keys []string
	vals map[string]Value
}

// NewMap returns an empty Map.
func NewMap() *Map {
	return &Map{vals: make(map[string]Value)}
}

// Set adds name to the map. Setting a name twice fails with
// ErrDuplicateMapKey.
func (m *Map) Set(name string, v Value) error {
	if _, exists := m.vals[name]; exists {
		return fmt.Errorf("%w %q", ErrDuplicateMapKey, name)
	}
	m.keys = append(m.keys, name)
	m.vals[name] = v
	return nil
}

// Get returns the value stored under name.
func (m *Map) Get(name string) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	v, ok := m.vals[name]
	return v, ok
}

// Len returns the number of attributes.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the attribute names in stored order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.keys...)
}

// SortedKeys returns the attribute names in lexical order.
func (m *Map) SortedKeys() []string {
	keys := m.Keys()
	sort.Strings(keys)
	return keys
}

// Range calls fn for each attribute in stored order until fn returns false.
func (m *Map) Range(fn func(name string, v Value) bool) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		if !fn(k, m.vals[k]) {
			return
		}
	}
}

// Project returns a new Map holding only the named attributes, in the order
// given. Names missing from m are skipped.
func (m *Map) Project(names ...string) *Map {
	out := NewMap()
	for _, n := range names {
		if v, ok := m.Get(n); ok {
			_ = out.Set(n, v)
		}
	}
	return out
}

// Without returns a new Map minus the named attributes, in stored order.
func (m *Map) Without(names ...string) *Map {
	skip := make(map[string]bool, len(names))
	for _, n := range names {
		skip[n] = true
	}
	out := NewMap()
	m.Range(func(name string, v Value) bool {
		if !skip[name] {
			_ = out.Set(name, v)
		}
		return true
	})
	return out
}

// EqualMaps reports whether a and b hold equal values under the same names.
func EqualMaps(a, b *Map) bool {
	if a.Len() != b.Len() {
		return false
	}
	equal := true
	a.Range(func(name string, av Value) bool {
		bv, ok := b.Get(name)
		equal = ok && Equal(av, bv)
		return equal
	})
	return equal
}

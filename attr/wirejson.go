package attr

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/jacentio/dynabatch/internal/jsonscan"
)

// ParseWire reads one wire-tagged value, e.g. {"SS": ["a", "b"]}.
func ParseWire(data []byte) (Value, error) {
	dec := jsonscan.NewDecoder(data)
	v, err := readWire(dec, "")
	if err != nil {
		return Value{}, err
	}
	if err := jsonscan.End(dec); err != nil {
		return Value{}, malformed("", err)
	}
	return v, nil
}

// ParseWireItem reads an object mapping attribute names to wire-tagged
// values. Member order is kept.
func ParseWireItem(data []byte) (*Map, error) {
	dec := jsonscan.NewDecoder(data)
	m, err := readWireMap(dec, "")
	if err != nil {
		return nil, err
	}
	if err := jsonscan.End(dec); err != nil {
		return nil, malformed("", err)
	}
	return m, nil
}

func readWireMap(dec *json.Decoder, path string) (*Map, error) {
	m := NewMap()
	err := jsonscan.Object(dec, func(name string) error {
		child := joinPath(path, name)
		if _, exists := m.Get(name); exists {
			return atPath(path, fmt.Errorf("%w %q", ErrDuplicateMapKey, name))
		}
		v, err := readWire(dec, child)
		if err != nil {
			return err
		}
		return m.Set(name, v)
	})
	if err != nil {
		return nil, malformed(path, err)
	}
	return m, nil
}

func readWire(dec *json.Decoder, path string) (Value, error) {
	var (
		v      Value
		tagged bool
	)
	err := jsonscan.Object(dec, func(tag string) error {
		if tagged {
			return atPath(path, fmt.Errorf("%w: more than one type tag (%s, %s)", ErrMalformedAttribute, v.kind, tag))
		}
		tagged = true
		kind, ok := KindFromTag(tag)
		if !ok {
			return atPath(path, fmt.Errorf("%w: unknown type tag %q", ErrMalformedAttribute, tag))
		}
		var err error
		v, err = readTagged(dec, kind, path)
		return err
	})
	if err != nil {
		return Value{}, malformed(path, err)
	}
	if !tagged {
		return Value{}, atPath(path, fmt.Errorf("%w: no type tag", ErrMalformedAttribute))
	}
	return v, nil
}

func readTagged(dec *json.Decoder, kind Kind, path string) (Value, error) {
	switch kind {
	case KindString:
		s, err := jsonscan.String(dec)
		if err != nil {
			return Value{}, malformed(path, err)
		}
		return String(s), nil
	case KindNumber:
		s, err := jsonscan.String(dec)
		if err != nil {
			return Value{}, malformed(path, err)
		}
		v, err := Number(s)
		return v, atPath(path, err)
	case KindBinary:
		s, err := jsonscan.String(dec)
		if err != nil {
			return Value{}, malformed(path, err)
		}
		b, err := decodeBase64(s)
		if err != nil {
			return Value{}, atPath(path, err)
		}
		return Binary(b), nil
	case KindStringSet, KindNumberSet, KindBinarySet:
		var members []string
		err := jsonscan.Array(dec, func(int) error {
			s, err := jsonscan.String(dec)
			members = append(members, s)
			return err
		})
		if err != nil {
			return Value{}, malformed(path, err)
		}
		v, err := buildSet(kind, members)
		return v, atPath(path, err)
	case KindBool:
		b, err := jsonscan.Bool(dec)
		if err != nil {
			return Value{}, malformed(path, err)
		}
		return Bool(b), nil
	case KindNull:
		b, err := jsonscan.Bool(dec)
		if err != nil {
			return Value{}, malformed(path, err)
		}
		if !b {
			return Value{}, atPath(path, fmt.Errorf("%w: NULL must be true", ErrMalformedAttribute))
		}
		return Null(), nil
	case KindList:
		var elems []Value
		err := jsonscan.Array(dec, func(i int) error {
			e, err := readWire(dec, path+"["+strconv.Itoa(i)+"]")
			elems = append(elems, e)
			return err
		})
		if err != nil {
			return Value{}, malformed(path, err)
		}
		return Value{kind: KindList, list: elems}, nil
	case KindMap:
		m, err := readWireMap(dec, path)
		if err != nil {
			return Value{}, err
		}
		return MapValue(m), nil
	}
	return Value{}, atPath(path, fmt.Errorf("%w: unknown kind %s", ErrMalformedAttribute, kind))
}

// buildSet builds a set from wire member text; BS members are base64.
func buildSet(kind Kind, members []string) (Value, error) {
	switch kind {
	case KindStringSet:
		return StringSet(members...)
	case KindNumberSet:
		return NumberSet(members...)
	}
	bins := make([][]byte, len(members))
	for i, s := range members {
		b, err := decodeBase64(s)
		if err != nil {
			return Value{}, err
		}
		bins[i] = b
	}
	return BinarySet(bins...)
}

// malformed wraps JSON syntax and type errors as ErrMalformedAttribute,
// leaving codec errors untouched.
func malformed(path string, err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{ErrMalformedAttribute, ErrInvalidNumber, ErrEmptySet, ErrDuplicateMapKey} {
		if errors.Is(err, known) {
			return atPath(path, err)
		}
	}
	return atPath(path, fmt.Errorf("%w: %v", ErrMalformedAttribute, err))
}

// MarshalWire writes v as wire-tagged JSON.
func MarshalWire(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeWire(&buf, v, ""); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalWireItem writes m as an object of wire-tagged values in stored
// order.
func MarshalWireItem(m *Map) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeWireMap(&buf, m, ""); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeWireMap(buf *bytes.Buffer, m *Map, path string) error {
	buf.WriteByte('{')
	var err error
	i := 0
	m.Range(func(name string, v Value) bool {
		if i > 0 {
			buf.WriteByte(',')
		}
		i++
		writeString(buf, name)
		buf.WriteByte(':')
		if err = writeWire(buf, v, joinPath(path, name)); err != nil {
			return false
		}
		return true
	})
	buf.WriteByte('}')
	return err
}

func writeWire(buf *bytes.Buffer, v Value, path string) error {
	if v.kind == KindInvalid {
		return atPath(path, fmt.Errorf("%w: zero value", ErrMalformedAttribute))
	}
	buf.WriteString(`{"`)
	buf.WriteString(v.kind.String())
	buf.WriteString(`":`)
	switch v.kind {
	case KindString, KindNumber:
		writeString(buf, v.text)
	case KindBinary:
		writeString(buf, encodeBase64(v.bin))
	case KindStringSet, KindNumberSet, KindBinarySet:
		if len(v.set) == 0 {
			return atPath(path, fmt.Errorf("%w: %s", ErrEmptySet, v.kind))
		}
		writeStrings(buf, v.set)
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindNull:
		buf.WriteString("true")
	case KindList:
		buf.WriteByte('[')
		for i, e := range v.list {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeWire(buf, e, path+"["+strconv.Itoa(i)+"]"); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindMap:
		if err := writeWireMap(buf, v.m, path); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

// writeString appends s as a JSON string without HTML escaping.
func writeString(buf *bytes.Buffer, s string) {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	buf.Truncate(buf.Len() - 1) // Encode appends a newline
}

func writeStrings(buf *bytes.Buffer, ss []string) {
	buf.WriteByte('[')
	for i, s := range ss {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeString(buf, s)
	}
	buf.WriteByte(']')
}

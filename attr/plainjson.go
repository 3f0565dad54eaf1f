package attr

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/jacentio/dynabatch/internal/jsonscan"
)

// Hints maps top-level attribute names to the kind plain JSON should be read
// as when it is ambiguous: an array of strings as KindStringSet,
// KindNumberSet or KindBinarySet, or a string as KindBinary.
type Hints map[string]Kind

// FromJSON reads plain JSON into a Value: strings become S, numbers N (text
// kept as written), booleans BOOL, null NULL, arrays L and objects M.
func FromJSON(data []byte) (Value, error) {
	dec := jsonscan.NewDecoder(data)
	v, err := readPlain(dec, "", KindInvalid)
	if err != nil {
		return Value{}, err
	}
	if err := jsonscan.End(dec); err != nil {
		return Value{}, malformed("", err)
	}
	return v, nil
}

// FromJSONItem reads a plain JSON object into an item, applying hints to its
// top-level attributes.
func FromJSONItem(data []byte, hints Hints) (*Map, error) {
	for name, k := range hints {
		switch k {
		case KindStringSet, KindNumberSet, KindBinarySet, KindBinary:
		default:
			return nil, atPath(name, fmt.Errorf("%w: unsupported hint %s", ErrMalformedAttribute, k))
		}
	}

	dec := jsonscan.NewDecoder(data)
	m := NewMap()
	err := jsonscan.Object(dec, func(name string) error {
		if _, exists := m.Get(name); exists {
			return fmt.Errorf("%w %q", ErrDuplicateMapKey, name)
		}
		v, err := readPlain(dec, name, hints[name])
		if err != nil {
			return err
		}
		return m.Set(name, v)
	})
	if err != nil {
		return nil, malformed("", err)
	}
	if err := jsonscan.End(dec); err != nil {
		return nil, malformed("", err)
	}
	return m, nil
}

func readPlain(dec *json.Decoder, path string, hint Kind) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, malformed(path, err)
	}

	switch t := tok.(type) {
	case json.Delim:
		if t == '[' {
			if hint == KindStringSet || hint == KindNumberSet || hint == KindBinarySet {
				return readPlainSet(dec, path, hint)
			}
			var elems []Value
			err := jsonscan.Elements(dec, func(i int) error {
				e, err := readPlain(dec, path+"["+strconv.Itoa(i)+"]", KindInvalid)
				elems = append(elems, e)
				return err
			})
			if err != nil {
				return Value{}, malformed(path, err)
			}
			return Value{kind: KindList, list: elems}, nil
		}
		m := NewMap()
		err := jsonscan.Members(dec, func(name string) error {
			child := joinPath(path, name)
			if _, exists := m.Get(name); exists {
				return atPath(path, fmt.Errorf("%w %q", ErrDuplicateMapKey, name))
			}
			v, err := readPlain(dec, child, KindInvalid)
			if err != nil {
				return err
			}
			return m.Set(name, v)
		})
		if err != nil {
			return Value{}, malformed(path, err)
		}
		return MapValue(m), nil
	case string:
		if hint == KindBinary {
			b, err := decodeBase64(t)
			if err != nil {
				return Value{}, atPath(path, err)
			}
			return Binary(b), nil
		}
		return String(t), nil
	case json.Number:
		v, err := Number(t.String())
		return v, atPath(path, err)
	case bool:
		return Bool(t), nil
	case nil:
		return Null(), nil
	}
	return Value{}, atPath(path, fmt.Errorf("%w: unexpected %s", ErrMalformedAttribute, jsonscan.Describe(tok)))
}

// readPlainSet reads the body of an array as set members. Number sets accept
// JSON numbers or numeric strings.
func readPlainSet(dec *json.Decoder, path string, kind Kind) (Value, error) {
	var members []string
	err := jsonscan.Elements(dec, func(int) error {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case string:
			members = append(members, t)
		case json.Number:
			if kind != KindNumberSet {
				return &jsonscan.TypeError{Want: "string", Got: "number"}
			}
			members = append(members, t.String())
		default:
			return &jsonscan.TypeError{Want: "set member", Got: jsonscan.Describe(tok)}
		}
		return nil
	})
	if err != nil {
		return Value{}, malformed(path, err)
	}
	v, err := buildSet(kind, members)
	return v, atPath(path, err)
}

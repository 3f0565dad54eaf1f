// Package jsonscan walks JSON documents token by token so callers can see
// object members in document order.
package jsonscan

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrTrailingData is returned when a document holds more than one value.
var ErrTrailingData = errors.New("trailing data after JSON value")

// TypeError reports a token of the wrong JSON type.
type TypeError struct {
	Want string
	Got  string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("expected %s, got %s", e.Want, e.Got)
}

// NewDecoder returns a decoder that keeps numbers as json.Number text.
func NewDecoder(data []byte) *json.Decoder {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec
}

// NewReaderDecoder is NewDecoder for a stream.
func NewReaderDecoder(r io.Reader) *json.Decoder {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return dec
}

// Object consumes one JSON object, calling fn once per member in document
// order. fn must consume exactly one value from dec.
func Object(dec *json.Decoder, fn func(key string) error) error {
	if err := expectDelim(dec, '{', "object"); err != nil {
		return err
	}
	return Members(dec, fn)
}

// Members is Object for a decoder positioned just after the opening '{'.
func Members(dec *json.Decoder, fn func(key string) error) error {
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return &TypeError{Want: "object key", Got: Describe(tok)}
		}
		if err := fn(key); err != nil {
			return err
		}
	}
	_, err := dec.Token()
	return err
}

// Array consumes one JSON array, calling fn once per element.
func Array(dec *json.Decoder, fn func(i int) error) error {
	if err := expectDelim(dec, '[', "array"); err != nil {
		return err
	}
	return Elements(dec, fn)
}

// Elements is Array for a decoder positioned just after the opening '['.
func Elements(dec *json.Decoder, fn func(i int) error) error {
	for i := 0; dec.More(); i++ {
		if err := fn(i); err != nil {
			return err
		}
	}
	_, err := dec.Token()
	return err
}

// String consumes a JSON string.
func String(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	s, ok := tok.(string)
	if !ok {
		return "", &TypeError{Want: "string", Got: Describe(tok)}
	}
	return s, nil
}

// Bool consumes a JSON boolean.
func Bool(dec *json.Decoder) (bool, error) {
	tok, err := dec.Token()
	if err != nil {
		return false, err
	}
	b, ok := tok.(bool)
	if !ok {
		return false, &TypeError{Want: "boolean", Got: Describe(tok)}
	}
	return b, nil
}

// Raw consumes any single value and returns it as compact JSON. Values are
// copied token by token, so nesting depth is not limited.
func Raw(dec *json.Decoder) (json.RawMessage, error) {
	var buf bytes.Buffer
	if err := copyValue(newEmitter(&buf, ""), dec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Indent writes the single JSON value in src to dst, one member or element
// per line. Unlike json.Indent it accepts any nesting depth.
func Indent(dst *bytes.Buffer, src []byte, indent string) error {
	dec := NewDecoder(src)
	if err := copyValue(newEmitter(dst, indent), dec); err != nil {
		return err
	}
	return End(dec)
}

// End fails unless dec has no further values.
func End(dec *json.Decoder) error {
	if _, err := dec.Token(); err != io.EOF {
		if err != nil {
			return err
		}
		return ErrTrailingData
	}
	return nil
}

// Describe names the JSON type of a token for error messages.
func Describe(tok json.Token) string {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return "object"
		case '[':
			return "array"
		}
		return fmt.Sprintf("%q", t.String())
	case string:
		return "string"
	case json.Number, float64:
		return "number"
	case bool:
		return "boolean"
	case nil:
		return "null"
	}
	return fmt.Sprintf("%T", tok)
}

func expectDelim(dec *json.Decoder, want json.Delim, name string) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return &TypeError{Want: name, Got: Describe(tok)}
	}
	return nil
}

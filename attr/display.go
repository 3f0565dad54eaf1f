package attr

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/jacentio/dynabatch/internal/jsonscan"
)

// ToJSON renders v as plain JSON:
//
//   - S -> string, B -> base64 string
//   - N -> number literal (integer when the text has no fraction or exponent)
//   - SS, BS, L -> array; NS -> array of numbers, ascending
//   - BOOL -> boolean, NULL -> null
//   - M -> object in stored key order
func ToJSON(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeDisplay(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ToJSONIndent is ToJSON with one member or element per line.
func ToJSONIndent(v Value, indent string) ([]byte, error) {
	compact, err := ToJSON(v)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := jsonscan.Indent(&out, compact, indent); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// ItemToJSON renders an item as a plain JSON object.
func ItemToJSON(m *Map) ([]byte, error) {
	return ToJSON(MapValue(m))
}

func writeDisplay(buf *bytes.Buffer, v Value) error {
	switch v.kind {
	case KindString:
		writeString(buf, v.text)
	case KindNumber:
		buf.WriteString(jsonNumber(v.text))
	case KindBinary:
		writeString(buf, encodeBase64(v.bin))
	case KindStringSet, KindBinarySet:
		writeStrings(buf, v.set)
	case KindNumberSet:
		buf.WriteByte('[')
		for i, n := range v.set {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(jsonNumber(n))
		}
		buf.WriteByte(']')
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindNull:
		buf.WriteString("null")
	case KindList:
		buf.WriteByte('[')
		for i, e := range v.list {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeDisplay(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindMap:
		buf.WriteByte('{')
		var err error
		i := 0
		v.m.Range(func(name string, e Value) bool {
			if i > 0 {
				buf.WriteByte(',')
			}
			i++
			writeString(buf, name)
			buf.WriteByte(':')
			err = writeDisplay(buf, e)
			return err == nil
		})
		if err != nil {
			return err
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("%w: zero value", ErrMalformedAttribute)
	}
	return nil
}

package jsonscan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

type frame struct {
	object bool
	n      int
}

// emitter rewrites a token stream as JSON text. An empty indent gives
// compact output.
type emitter struct {
	buf    *bytes.Buffer
	indent string
	stack  []frame

	str    bytes.Buffer
	strEnc *json.Encoder
}

func newEmitter(buf *bytes.Buffer, indent string) *emitter {
	e := &emitter{buf: buf, indent: indent}
	e.strEnc = json.NewEncoder(&e.str)
	e.strEnc.SetEscapeHTML(false)
	return e
}

func copyValue(e *emitter, dec *json.Decoder) error {
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		done, err := e.token(tok)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// token writes tok and reports whether it completed the outermost value.
func (e *emitter) token(tok json.Token) (bool, error) {
	if d, ok := tok.(json.Delim); ok && (d == '}' || d == ']') {
		if len(e.stack) == 0 {
			return false, fmt.Errorf("unexpected %q", d.String())
		}
		top := e.stack[len(e.stack)-1]
		e.stack = e.stack[:len(e.stack)-1]
		if top.n > 0 {
			e.newline(len(e.stack))
		}
		e.buf.WriteByte(byte(d))
		return len(e.stack) == 0, nil
	}

	if depth := len(e.stack); depth > 0 {
		top := &e.stack[depth-1]
		if top.object && top.n%2 == 1 {
			e.buf.WriteByte(':')
			if e.indent != "" {
				e.buf.WriteByte(' ')
			}
		} else {
			if top.n > 0 {
				e.buf.WriteByte(',')
			}
			e.newline(depth)
		}
		top.n++
	}

	switch t := tok.(type) {
	case json.Delim:
		e.buf.WriteByte(byte(t))
		e.stack = append(e.stack, frame{object: t == '{'})
		return false, nil
	case string:
		e.str.Reset()
		if err := e.strEnc.Encode(t); err != nil {
			return false, err
		}
		e.buf.Write(bytes.TrimSuffix(e.str.Bytes(), []byte{'\n'}))
	case json.Number:
		e.buf.WriteString(t.String())
	case float64:
		e.buf.WriteString(strconv.FormatFloat(t, 'g', -1, 64))
	case bool:
		e.buf.WriteString(strconv.FormatBool(t))
	case nil:
		e.buf.WriteString("null")
	default:
		return false, fmt.Errorf("unexpected token %T", tok)
	}
	return len(e.stack) == 0, nil
}

func (e *emitter) newline(depth int) {
	if e.indent == "" {
		return
	}
	e.buf.WriteByte('\n')
	for i := 0; i < depth; i++ {
		e.buf.WriteString(e.indent)
	}
}

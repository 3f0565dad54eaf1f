package batch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/jacentio/dynabatch/attr"
	"github.com/jacentio/dynabatch/internal/jsonscan"
)

// ParseInput reads a batch-input document:
//
//	{
//	  "Books": [
//	    {"PutRequest": {"Item": {"pk": {"S": "ichi"}}}},
//	    {"DeleteRequest": {"Key": {"pk": {"S": "ni"}}}}
//	  ]
//	}
//
// The whole document is validated. Problems with individual requests are
// returned together, each as an *EntryError wrapping ErrMalformedInput and
// any codec error.
func ParseInput(r io.Reader) ([]Entry, error) {
	dec := jsonscan.NewReaderDecoder(r)

	var (
		entries []Entry
		errs    []error
		tables  = make(map[string]bool)
	)
	err := jsonscan.Object(dec, func(table string) error {
		if tables[table] {
			return fmt.Errorf("table %q listed twice", table)
		}
		tables[table] = true

		n := 0
		err := jsonscan.Array(dec, func(i int) error {
			n++
			raw, err := jsonscan.Raw(dec)
			if err != nil {
				return err
			}
			req, err := parseRequest(raw)
			if err != nil {
				errs = append(errs, &EntryError{Table: table, Index: i, Err: malformedInput(err)})
				return nil
			}
			entries = append(entries, Entry{Table: table, Request: req, Index: i})
			return nil
		})
		if err != nil {
			return fmt.Errorf("table %q: %w", table, err)
		}
		if n == 0 {
			errs = append(errs, fmt.Errorf("%w: table %q has no requests", ErrMalformedInput, table))
		}
		return nil
	})
	if err == nil {
		err = jsonscan.End(dec)
	}
	if err != nil {
		return nil, malformedInput(err)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no requests", ErrMalformedInput)
	}
	return entries, nil
}

func parseRequest(raw []byte) (WriteRequest, error) {
	dec := jsonscan.NewDecoder(raw)

	var (
		req   WriteRequest
		found int
	)
	err := jsonscan.Object(dec, func(name string) error {
		found++
		if found > 1 {
			return errors.New("more than one request type")
		}
		var (
			field string
			op    Op
		)
		switch name {
		case "PutRequest":
			field, op = "Item", OpPut
		case "DeleteRequest":
			field, op = "Key", OpDelete
		default:
			return fmt.Errorf("unknown request type %q", name)
		}
		m, err := readRequestBody(dec, field)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		req = WriteRequest{Op: op, Attrs: m}
		return nil
	})
	if err != nil {
		return WriteRequest{}, err
	}
	if found == 0 {
		return WriteRequest{}, errors.New("missing PutRequest or DeleteRequest")
	}
	return req, nil
}

func readRequestBody(dec *json.Decoder, field string) (*attr.Map, error) {
	var m *attr.Map
	err := jsonscan.Object(dec, func(name string) error {
		if name != field {
			return fmt.Errorf("unexpected member %q", name)
		}
		if m != nil {
			return fmt.Errorf("%s given twice", field)
		}
		raw, err := jsonscan.Raw(dec)
		if err != nil {
			return err
		}
		m, err = attr.ParseWireItem(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", field, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("missing %s", field)
	}
	if m.Len() == 0 {
		return nil, fmt.Errorf("%s is empty", field)
	}
	return m, nil
}

func malformedInput(err error) error {
	if errors.Is(err, ErrMalformedInput) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrMalformedInput, err)
}

// WriteInput writes entries in the format ParseInput reads, grouping them by
// table in order of first appearance.
func WriteInput(w io.Writer, entries []Entry) error {
	var (
		order  []string
		byName = make(map[string][]Entry)
	)
	for _, e := range entries {
		if _, ok := byName[e.Table]; !ok {
			order = append(order, e.Table)
		}
		byName[e.Table] = append(byName[e.Table], e)
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, table := range order {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(table)
		if err != nil {
			return err
		}
		buf.Write(name)
		buf.WriteString(":[")
		for j, e := range byName[table] {
			if j > 0 {
				buf.WriteByte(',')
			}
			body, err := attr.MarshalWireItem(e.Request.Attrs)
			if err != nil {
				return &EntryError{Table: e.Table, Index: e.Index, Err: err}
			}
			field := "Item"
			if e.Request.Op == OpDelete {
				field = "Key"
			}
			fmt.Fprintf(&buf, `{"%s":{"%s":%s}}`, e.Request.Op, field, body)
		}
		buf.WriteByte(']')
	}
	buf.WriteByte('}')

	var out bytes.Buffer
	if err := jsonscan.Indent(&out, buf.Bytes(), "  "); err != nil {
		return err
	}
	out.WriteByte('\n')
	_, err := out.WriteTo(w)
	return err
}

// Package display renders items for the terminal.
package display

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/jacentio/dynabatch/attr"
)

// AttributesColumn is the header of the column holding non-key attributes.
const AttributesColumn = "attributes"

// WriteItem writes item as indented JSON followed by a newline.
func WriteItem(w io.Writer, item *attr.Map) error {
	out, err := attr.ToJSONIndent(attr.MapValue(item), "  ")
	if err != nil {
		return err
	}
	out = append(out, '\n')
	_, err = w.Write(out)
	return err
}

// WriteTable writes items as a tab-aligned table: one column per key
// attribute and a final column with the other attributes as compact JSON.
func WriteTable(w io.Writer, keyNames []string, items []*attr.Map) error {
	t := NewTable(w, keyNames)
	for _, item := range items {
		if err := t.Row(item); err != nil {
			return err
		}
	}
	return t.Flush()
}

// Table writes table rows as they arrive. Call Flush when done.
type Table struct {
	tw       *tabwriter.Writer
	keyNames []string
	header   bool
}

// NewTable creates a table writer for items keyed by keyNames.
func NewTable(w io.Writer, keyNames []string) *Table {
	return &Table{
		tw:       tabwriter.NewWriter(w, 0, 0, 2, ' ', 0),
		keyNames: append([]string(nil), keyNames...),
	}
}

// Row appends one item.
func (t *Table) Row(item *attr.Map) error {
	if !t.header {
		t.header = true
		if err := t.line(append(append([]string(nil), t.keyNames...), AttributesColumn)); err != nil {
			return err
		}
	}

	cells := make([]string, 0, len(t.keyNames)+1)
	for _, name := range t.keyNames {
		v, ok := item.Get(name)
		if !ok {
			cells = append(cells, "-")
			continue
		}
		cell, err := keyCell(v)
		if err != nil {
			return fmt.Errorf("key %s: %w", name, err)
		}
		cells = append(cells, cell)
	}

	rest, err := sorted(item.Without(t.keyNames...))
	if err != nil {
		return err
	}
	out, err := attr.ItemToJSON(rest)
	if err != nil {
		return err
	}
	cells = append(cells, string(out))
	return t.line(cells)
}

// Flush writes the buffered rows. An empty table still gets its header.
func (t *Table) Flush() error {
	if !t.header {
		t.header = true
		if err := t.line(append(append([]string(nil), t.keyNames...), AttributesColumn)); err != nil {
			return err
		}
	}
	return t.tw.Flush()
}

func (t *Table) line(cells []string) error {
	_, err := io.WriteString(t.tw, strings.Join(cells, "\t")+"\n")
	return err
}

// keyCell shows strings bare and everything else as JSON.
func keyCell(v attr.Value) (string, error) {
	if v.Kind() == attr.KindString {
		return v.Text(), nil
	}
	out, err := attr.ToJSON(v)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func sorted(m *attr.Map) (*attr.Map, error) {
	out := attr.NewMap()
	for _, name := range m.SortedKeys() {
		v, _ := m.Get(name)
		if err := out.Set(name, v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

package batch

import (
	"fmt"

	"github.com/jacentio/dynabatch/attr"
)

// Op is the kind of write.
type Op uint8

const (
	OpPut Op = iota + 1
	OpDelete
)

// String returns the request name used in batch input.
func (o Op) String() string {
	switch o {
	case OpPut:
		return "PutRequest"
	case OpDelete:
		return "DeleteRequest"
	}
	return fmt.Sprintf("Op(%d)", uint8(o))
}

// WriteRequest is a put of a full item or a delete by primary key. It is not
// modified once built.
type WriteRequest struct {
	Op Op

	// Attrs is the item for a put and the key for a delete.
	Attrs *attr.Map
}

// Put returns a put request for item.
func Put(item *attr.Map) WriteRequest {
	return WriteRequest{Op: OpPut, Attrs: item}
}

// Delete returns a delete request for key.
func Delete(key *attr.Map) WriteRequest {
	return WriteRequest{Op: OpDelete, Attrs: key}
}

// Entry is a write request scoped to a table.
type Entry struct {
	Table   string
	Request WriteRequest

	// Index is the position of the entry within its table's request list.
	Index int
}

// Size is the entry's share of a request payload: the table name plus the
// item (or key) size.
func (e Entry) Size() int {
	return len(e.Table) + attr.ItemSize(e.Request.Attrs)
}

// Key returns the entry's primary key projected onto keyNames, so puts and
// deletes of the same key list their attributes in the same order. Without
// key names it returns the request's attributes unchanged.
func (e Entry) Key(keyNames []string) *attr.Map {
	if len(keyNames) == 0 {
		return e.Request.Attrs
	}
	return e.Request.Attrs.Project(keyNames...)
}

// Describe renders the entry for operators, e.g.
// `Books[3] PutRequest {"pk":"ichi"}`.
func (e Entry) Describe(keyNames []string) string {
	key, err := attr.ItemToJSON(e.Key(keyNames))
	if err != nil {
		key = []byte("<" + err.Error() + ">")
	}
	return fmt.Sprintf("%s[%d] %s %s", e.Table, e.Index, e.Request.Op, key)
}

// Chunk is one BatchWriteItem request worth of entries.
type Chunk struct {
	// Seq is the chunk's position in the plan.
	Seq     int
	Entries []Entry

	// Size is the sum of the entries' sizes.
	Size int
}

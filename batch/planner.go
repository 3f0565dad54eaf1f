package batch

import (
	"errors"
	"fmt"

	"github.com/jacentio/dynabatch/attr"
)

// BatchWriteItem limits.
const (
	DefaultMaxEntries      = 25
	DefaultMaxPayloadBytes = 16 << 20
	DefaultMaxItemBytes    = 400 << 10
)

// Planner splits entries into chunks that BatchWriteItem accepts. Zero
// limits take the defaults.
type Planner struct {
	MaxEntries      int
	MaxPayloadBytes int
	MaxItemBytes    int

	// Keys maps a table to its key attribute names. When set, an entry whose
	// key is already in the open chunk starts a new one.
	Keys map[string][]string
}

func (p *Planner) validate() {
	if p.MaxEntries < 1 || p.MaxEntries > DefaultMaxEntries {
		p.MaxEntries = DefaultMaxEntries
	}
	if p.MaxPayloadBytes < 1 {
		p.MaxPayloadBytes = DefaultMaxPayloadBytes
	}
	if p.MaxItemBytes < 1 {
		p.MaxItemBytes = DefaultMaxItemBytes
	}
}

// Plan packs entries greedily into chunks, keeping their order. If any entry
// is too large, Plan returns every such entry's error and no chunks.
func (p Planner) Plan(entries []Entry) ([]Chunk, error) {
	p.validate()

	sizes := make([]int, len(entries))
	var errs []error
	for i, e := range entries {
		sizes[i] = e.Size()
		limit := min(p.MaxItemBytes, p.MaxPayloadBytes)
		if sizes[i] > limit {
			errs = append(errs, &EntryError{
				Table: e.Table,
				Index: e.Index,
				Err:   fmt.Errorf("%w: %d bytes exceeds %d", ErrEntryTooLarge, sizes[i], limit),
			})
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	var (
		chunks []Chunk
		cur    Chunk
		keys   = make(map[string]bool)
	)
	flush := func() {
		if len(cur.Entries) == 0 {
			return
		}
		cur.Seq = len(chunks)
		chunks = append(chunks, cur)
		cur = Chunk{}
		clear(keys)
	}

	for i, e := range entries {
		fp, hasKey := p.fingerprint(e)
		if len(cur.Entries) == p.MaxEntries ||
			cur.Size+sizes[i] > p.MaxPayloadBytes ||
			(hasKey && keys[fp]) {
			flush()
		}
		cur.Entries = append(cur.Entries, e)
		cur.Size += sizes[i]
		if hasKey {
			keys[fp] = true
		}
	}
	flush()

	return chunks, nil
}

// fingerprint identifies the entry's table and key when the key schema is
// known and the entry carries every key attribute.
func (p Planner) fingerprint(e Entry) (string, bool) {
	names := p.Keys[e.Table]
	if len(names) == 0 {
		return "", false
	}
	key := e.Key(names)
	if key.Len() != len(names) {
		return "", false
	}
	data, err := attr.MarshalWireItem(key)
	if err != nil {
		return "", false
	}
	return e.Table + "\x00" + string(data), true
}

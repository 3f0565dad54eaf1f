package batch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jacentio/dynabatch/attr"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fastPolicy retries without meaningful delay.
func fastPolicy() Policy {
	p := DefaultPolicy()
	p.BaseDelay = time.Millisecond
	p.MaxDelay = 2 * time.Millisecond
	p.Jitter = 0
	return p
}

func item(t *testing.T, pairs ...string) *attr.Map {
	t.Helper()
	m := attr.NewMap()
	for i := 0; i+1 < len(pairs); i += 2 {
		require.NoError(t, m.Set(pairs[i], attr.String(pairs[i+1])))
	}
	return m
}

func puts(t *testing.T, table string, n int) []Entry {
	t.Helper()
	entries := make([]Entry, n)
	for i := range entries {
		entries[i] = Entry{
			Table:   table,
			Request: Put(item(t, "pk", fmt.Sprintf("item-%03d", i), "data", strings.Repeat("x", 10))),
			Index:   i,
		}
	}
	return entries
}

func indexes(entries []Entry) []int {
	out := make([]int, len(entries))
	for i, e := range entries {
		out[i] = e.Index
	}
	return out
}

// fakeWriter records submissions and answers them through respond.
type fakeWriter struct {
	mu      sync.Mutex
	calls   [][]Entry
	respond func(call int, entries []Entry) (WriteResult, error)
}

func (f *fakeWriter) BatchWrite(ctx context.Context, entries []Entry) (WriteResult, error) {
	f.mu.Lock()
	call := len(f.calls)
	f.calls = append(f.calls, append([]Entry(nil), entries...))
	f.mu.Unlock()

	if f.respond == nil {
		return WriteResult{Applied: len(entries)}, nil
	}
	return f.respond(call, entries)
}

func (f *fakeWriter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// applyFirst applies the first k entries of every submission.
func applyFirst(k int) func(int, []Entry) (WriteResult, error) {
	return func(_ int, entries []Entry) (WriteResult, error) {
		if k >= len(entries) {
			return WriteResult{Applied: len(entries)}, nil
		}
		return WriteResult{Applied: k, Unprocessed: entries[k:]}, nil
	}
}

package batch

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEntryTooLarge is returned by Plan when an entry cannot fit in any chunk.
	ErrEntryTooLarge = errors.New("dynabatch: entry too large")

	// ErrThrottlingRetryExhausted is returned when a chunk still has unprocessed
	// entries after Policy.MaxAttempts submissions.
	ErrThrottlingRetryExhausted = errors.New("dynabatch: retry budget exhausted")

	// ErrStoreRejected is returned for non-retryable store errors such as
	// validation or access failures.
	ErrStoreRejected = errors.New("dynabatch: store rejected request")

	// ErrTimeout is returned when the batch deadline passes or the caller
	// cancels the batch.
	ErrTimeout = errors.New("dynabatch: batch timed out")

	// ErrMalformedInput is returned for batch input that does not have the
	// table -> [PutRequest|DeleteRequest] shape.
	ErrMalformedInput = errors.New("dynabatch: malformed batch input")
)

// EntryError ties an error to one input entry.
type EntryError struct {
	Table string
	Index int
	Err   error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("%s[%d]: %v", e.Table, e.Index, e.Err)
}

func (e *EntryError) Unwrap() error { return e.Err }

// Error reports a batch that did not fully apply. Entries in Unprocessed
// were submitted at least once but not applied; entries in NotAttempted were
// never sent. Applied entries are not rolled back.
type Error struct {
	// Kind is one of ErrThrottlingRetryExhausted, ErrStoreRejected or ErrTimeout.
	Kind error

	// Chunk is the sequence number of the chunk that failed first, or -1.
	Chunk int

	Unprocessed  []Entry
	NotAttempted []Entry

	// Completed lists the sequence numbers of chunks that fully applied.
	Completed []int

	Cause error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Chunk >= 0 {
		fmt.Fprintf(&b, ": chunk %d", e.Chunk)
	}
	fmt.Fprintf(&b, ": %d unprocessed, %d not attempted", len(e.Unprocessed), len(e.NotAttempted))
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Is matches the error kind.
func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error { return e.Cause }

// Failed returns the unprocessed entries followed by the never-attempted ones.
func (e *Error) Failed() []Entry {
	out := make([]Entry, 0, len(e.Unprocessed)+len(e.NotAttempted))
	out = append(out, e.Unprocessed...)
	return append(out, e.NotAttempted...)
}

// Package batch plans and executes bulk writes through BatchWriteItem.
//
// A batch is an ordered list of [Entry] values, each a put or delete scoped
// to a table. [Planner] splits the list into chunks the store accepts: at
// most 25 entries and 16 MiB per chunk, 400 KiB per item. [Executor] submits
// the chunks on a fixed pool of workers and resubmits whatever the store
// reports as unprocessed, with exponential backoff, until the chunk
// completes or its attempt budget runs out.
//
// # Chunk lifecycle
//
// Each chunk runs a small state machine:
//
//	pending -> submitted -> complete
//	                     -> partial_retry -> submitted
//	                     -> failed
//
// Throttling and other transient store errors (see [IsRetryable]) count as
// the whole submission coming back unprocessed.
//
// # Errors
//
// Execute returns an [*Error] whose Kind is one of:
//
//   - [ErrThrottlingRetryExhausted] - entries still unprocessed after Policy.MaxAttempts
//   - [ErrStoreRejected] - the store returned a non-retryable error
//   - [ErrTimeout] - Policy.Timeout passed or the caller cancelled
//
// The error separates entries that were submitted but not applied from
// entries that were never sent. [WriteInput] writes both back out in the
// batch-input format for a later retry.
package batch

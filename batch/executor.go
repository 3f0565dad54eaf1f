package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Writer submits one chunk's entries to the store.
type Writer interface {
	BatchWrite(ctx context.Context, entries []Entry) (WriteResult, error)
}

// WriteResult is the store's answer to one submission. Unprocessed holds the
// submitted entries the store declined to apply.
type WriteResult struct {
	Applied     int
	Unprocessed []Entry
}

// errAborted cancels the remaining chunks after one fails.
var errAborted = errors.New("batch aborted")

// Executor submits planned chunks and retries their unprocessed entries.
type Executor struct {
	writer Writer
	policy Policy
	logger *slog.Logger
}

// NewExecutor creates an Executor. A nil logger uses slog.Default().
func NewExecutor(w Writer, policy Policy, logger *slog.Logger) *Executor {
	policy.validate()
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		writer: w,
		policy: policy,
		logger: logger,
	}
}

// Policy returns the executor's validated policy.
func (x *Executor) Policy() Policy {
	return x.policy
}

// chunkOutcome is written only by the worker that ran the chunk.
type chunkOutcome struct {
	started     bool
	state       string
	unprocessed []Entry
	kind        error // nil when the chunk was aborted by a sibling
	cause       error
}

// Execute submits chunks in order on Policy.Concurrency workers. It returns
// nil when every entry applied, and an *Error otherwise.
//
// The first failing chunk cancels the others. Chunks that never started are
// reported as NotAttempted.
func (x *Executor) Execute(ctx context.Context, chunks []Chunk) error {
	runID := uuid.NewString()
	log := x.logger.With("run_id", runID)

	if x.policy.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, x.policy.Timeout)
		defer cancel()
	}
	ctx, abort := context.WithCancelCause(ctx)
	defer abort(nil)

	log.Info("batch started", "chunks", len(chunks), "concurrency", x.policy.Concurrency)
	start := time.Now()

	outcomes := make([]chunkOutcome, len(chunks))
	jobs := make(chan int)
	var wg sync.WaitGroup

	workers := min(x.policy.Concurrency, len(chunks))
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = x.runChunk(ctx, log, chunks[i])
				if outcomes[i].state == stateFailed {
					abort(errAborted)
				}
			}
		}()
	}

dispatch:
	for i := range chunks {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	err := collect(ctx, chunks, outcomes)
	if err != nil {
		log.Error("batch failed", "error", err, "elapsed", time.Since(start))
		return err
	}
	log.Info("batch complete", "chunks", len(chunks), "elapsed", time.Since(start))
	return nil
}

func (x *Executor) runChunk(ctx context.Context, log *slog.Logger, c Chunk) chunkOutcome {
	log = log.With("chunk", c.Seq)
	state := newChunkFSM(log)

	if ctx.Err() != nil {
		return chunkOutcome{state: state.state()}
	}

	fail := func(pending []Entry, kind, cause error) chunkOutcome {
		state.fire(ctx, eventFail)
		if kind != nil {
			log.Warn("chunk failed", "kind", kind, "unprocessed", len(pending), "error", cause)
		}
		return chunkOutcome{
			started:     true,
			state:       state.state(),
			unprocessed: pending,
			kind:        kind,
			cause:       cause,
		}
	}

	b := x.policy.newBackOff()
	pending := c.Entries
	for attempt := 1; ; attempt++ {
		state.submit(ctx)
		res, err := x.writer.BatchWrite(ctx, pending)
		switch {
		case err != nil && ctx.Err() != nil:
			return fail(pending, interruptKind(ctx), context.Cause(ctx))
		case err != nil && !IsRetryable(err):
			return fail(pending, ErrStoreRejected, err)
		case err != nil:
			log.Warn("retryable store error", "attempt", attempt, "error", err)
			res = WriteResult{Unprocessed: pending}
		}

		if len(res.Unprocessed) == 0 {
			state.fire(ctx, eventComplete)
			log.Debug("chunk complete", "attempts", attempt, "entries", len(c.Entries))
			return chunkOutcome{started: true, state: state.state()}
		}
		if len(res.Unprocessed) > len(pending) {
			return fail(pending, ErrStoreRejected,
				fmt.Errorf("store reported %d unprocessed of %d submitted", len(res.Unprocessed), len(pending)))
		}
		pending = res.Unprocessed

		if attempt >= x.policy.MaxAttempts {
			cause := err
			if cause == nil {
				cause = fmt.Errorf("%d entries unprocessed after %d attempts", len(pending), attempt)
			}
			return fail(pending, ErrThrottlingRetryExhausted, cause)
		}

		state.fire(ctx, eventPartial)
		delay := b.NextBackOff()
		log.Debug("retrying unprocessed entries", "attempt", attempt, "unprocessed", len(pending), "delay", delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fail(pending, interruptKind(ctx), context.Cause(ctx))
		case <-timer.C:
		}
	}
}

// interruptKind is ErrTimeout for a deadline or caller cancellation and nil
// when a sibling chunk aborted the batch.
func interruptKind(ctx context.Context) error {
	if errors.Is(context.Cause(ctx), errAborted) {
		return nil
	}
	return ErrTimeout
}

func collect(ctx context.Context, chunks []Chunk, outcomes []chunkOutcome) error {
	be := &Error{Chunk: -1}
	for i, o := range outcomes {
		switch {
		case o.state == stateComplete:
			be.Completed = append(be.Completed, chunks[i].Seq)
		case !o.started:
			be.NotAttempted = append(be.NotAttempted, chunks[i].Entries...)
		default:
			be.Unprocessed = append(be.Unprocessed, o.unprocessed...)
			if be.Kind == nil && o.kind != nil {
				be.Kind, be.Cause, be.Chunk = o.kind, o.cause, chunks[i].Seq
			}
		}
	}
	if len(be.Completed) == len(chunks) {
		return nil
	}
	if be.Kind == nil {
		be.Kind, be.Cause = ErrTimeout, context.Cause(ctx)
	}
	return be
}

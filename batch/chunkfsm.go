package batch

import (
	"context"
	"log/slog"

	"github.com/looplab/fsm"
)

// Chunk states.
const (
	statePending      = "pending"
	stateSubmitted    = "submitted"
	stateComplete     = "complete"
	statePartialRetry = "partial_retry"
	stateFailed       = "failed"
)

// Chunk events.
const (
	eventSubmit   = "submit"
	eventComplete = "complete"
	eventPartial  = "partial"
	eventRetry    = "retry"
	eventFail     = "fail"
)

// chunkFSM tracks one chunk through its submit and retry cycle.
type chunkFSM struct {
	fsm *fsm.FSM
	log *slog.Logger
}

func newChunkFSM(log *slog.Logger) *chunkFSM {
	c := &chunkFSM{log: log}
	c.fsm = fsm.NewFSM(
		statePending,
		fsm.Events{
			{Name: eventSubmit, Src: []string{statePending}, Dst: stateSubmitted},
			{Name: eventComplete, Src: []string{stateSubmitted}, Dst: stateComplete},
			{Name: eventPartial, Src: []string{stateSubmitted}, Dst: statePartialRetry},
			{Name: eventRetry, Src: []string{statePartialRetry}, Dst: stateSubmitted},
			{Name: eventFail, Src: []string{statePending, stateSubmitted, statePartialRetry}, Dst: stateFailed},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				c.log.Debug("chunk state", "from", e.Src, "to", e.Dst)
			},
		},
	)
	return c
}

// fire moves the chunk along. Transitions are driven only by the executor, so
// an invalid one is a programming error and panics.
func (c *chunkFSM) fire(ctx context.Context, event string) {
	// Transitions run even when ctx is cancelled; the failed state must be reachable.
	if err := c.fsm.Event(context.WithoutCancel(ctx), event); err != nil {
		panic("batch: chunk transition " + event + " from " + c.fsm.Current() + ": " + err.Error())
	}
}

// submit enters the submitted state from pending or partial_retry.
func (c *chunkFSM) submit(ctx context.Context) {
	if c.fsm.Current() == statePending {
		c.fire(ctx, eventSubmit)
		return
	}
	c.fire(ctx, eventRetry)
}

func (c *chunkFSM) state() string { return c.fsm.Current() }

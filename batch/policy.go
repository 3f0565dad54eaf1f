package batch

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy holds the retry and concurrency settings of an Executor. It is
// copied into the executor and never changed afterwards.
type Policy struct {
	// MaxAttempts is the number of submissions allowed per chunk, the first
	// one included.
	// Default: 8
	MaxAttempts int

	// BaseDelay is the backoff before the first retry. Each further retry
	// multiplies it by Multiplier, up to MaxDelay.
	// Default: 50ms, 5s, 2
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64

	// Jitter randomizes each delay by up to this fraction.
	// Default: 0.5
	Jitter float64

	// Concurrency is the number of chunks in flight.
	// Default: 4
	// Max: 64
	Concurrency int

	// Timeout bounds the whole batch. Zero means no limit.
	Timeout time.Duration
}

// DefaultPolicy returns the defaults used by the CLI.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 8,
		BaseDelay:   50 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		Multiplier:  2,
		Jitter:      0.5,
		Concurrency: 4,
	}
}

// validate ensures policy values are within acceptable bounds.
func (p *Policy) validate() {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = 50 * time.Millisecond
	}
	if p.MaxDelay < p.BaseDelay {
		p.MaxDelay = p.BaseDelay
	}
	if p.Multiplier < 1 {
		p.Multiplier = 2
	}
	if p.Jitter < 0 {
		p.Jitter = 0
	}
	if p.Jitter > 1 {
		p.Jitter = 1
	}
	if p.Concurrency < 1 {
		p.Concurrency = 1
	}
	if p.Concurrency > 64 {
		p.Concurrency = 64
	}
	if p.Timeout < 0 {
		p.Timeout = 0
	}
}

// newBackOff returns a fresh backoff for one chunk's retry cycle.
func (p Policy) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.MaxInterval = p.MaxDelay
	b.Multiplier = p.Multiplier
	b.RandomizationFactor = p.Jitter
	b.MaxElapsedTime = 0 // MaxAttempts bounds the cycle
	b.Reset()
	return b
}

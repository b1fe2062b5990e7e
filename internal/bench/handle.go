package bench

import (
	"context"
	"sync/atomic"
	"time"
)

// State is the position of a session in its lifecycle.
type State int32

const (
	StateIdle State = iota
	StateWarming
	StateTiming
	StateDone
	StateFailedWarmup
	StateCancelled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWarming:
		return "warming"
	case StateTiming:
		return "timing"
	case StateDone:
		return "done"
	case StateFailedWarmup:
		return "failed_warmup"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether s ends a session.
func (s State) Terminal() bool {
	return s >= StateDone
}

// Reason explains why a session ended.
type Reason int

const (
	// ReasonFinished means every requested run was timed.
	ReasonFinished Reason = iota
	// ReasonWarmupFailed means a warmup run exited unsuccessfully and nothing
	// was timed.
	ReasonWarmupFailed
	// ReasonCancelled means the gate, or the session context, stopped the
	// timed phase early.
	ReasonCancelled
	// ReasonError means the session failed; see Outcome.Err.
	ReasonError
)

func (r Reason) String() string {
	switch r {
	case ReasonFinished:
		return "finished"
	case ReasonWarmupFailed:
		return "warmup_failed"
	case ReasonCancelled:
		return "cancelled"
	case ReasonError:
		return "error"
	default:
		return "unknown"
	}
}

// Outcome is the terminal result of a session.
type Outcome struct {
	Reason   Reason
	Runs     int           // durations pushed to the stream
	Failures int           // timed runs that exited unsuccessfully
	Warmups  int           // warmup runs executed
	Elapsed  time.Duration // wall time of the whole session
	Err      error         // set only when Reason is ReasonError
}

// Failed reports whether the session ended with an unrecoverable error.
// Warmup failure and cancellation are not failures.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// Handle is a one-shot join point for a session.
type Handle struct {
	id      string
	state   atomic.Int32
	done    chan struct{}
	outcome Outcome
}

func newHandle(id string) *Handle {
	return &Handle{id: id, done: make(chan struct{})}
}

// ID returns the session identifier.
func (h *Handle) ID() string { return h.id }

// State returns the current lifecycle state.
func (h *Handle) State() State { return State(h.state.Load()) }

func (h *Handle) setState(s State) { h.state.Store(int32(s)) }

// Done is closed once the session has ended.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Wait blocks until the session ends and returns its outcome.
func (h *Handle) Wait() Outcome {
	<-h.done
	return h.outcome
}

// WaitContext is Wait bounded by ctx.
func (h *Handle) WaitContext(ctx context.Context) (Outcome, error) {
	select {
	case <-h.done:
		return h.outcome, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

func (h *Handle) resolve(out Outcome) {
	h.outcome = out
	close(h.done)
}

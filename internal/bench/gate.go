package bench

import "context"

// Gate decides, without blocking, whether the next chunk of timed runs may
// start.
type Gate interface {
	ShouldContinue() bool
}

// GateFunc adapts a function to Gate.
type GateFunc func() bool

func (f GateFunc) ShouldContinue() bool { return f() }

// Never returns a gate that never stops a session.
func Never() Gate {
	return GateFunc(func() bool { return true })
}

// ChanGate stops once a value is received on ch or ch is closed. An empty
// channel means continue. A nil channel behaves like Never.
//
// The gate is sticky: after it reports stop it keeps reporting stop. It is
// meant to be polled by a single session goroutine.
func ChanGate(ch <-chan struct{}) Gate {
	if ch == nil {
		return Never()
	}
	return &chanGate{ch: ch}
}

type chanGate struct {
	ch      <-chan struct{}
	stopped bool
}

func (g *chanGate) ShouldContinue() bool {
	if g.stopped {
		return false
	}
	select {
	case <-g.ch:
		g.stopped = true
		return false
	default:
		return true
	}
}

// ContextGate stops once ctx is done.
func ContextGate(ctx context.Context) Gate {
	return GateFunc(func() bool {
		return ctx.Err() == nil
	})
}

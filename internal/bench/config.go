package bench

import (
	"io"
	"log/slog"
	"os"
	"time"
)

const (
	// DefaultRuns is the run count used by callers that have no preference.
	DefaultRuns = 1000
	// DefaultChunkSize is the number of timed runs between gate checks.
	DefaultChunkSize = 5
)

// RunConfig describes one benchmark session. Start takes ownership of it.
type RunConfig struct {
	Binary       string       // executable path; not checked before the first run
	Args         []string     // passed verbatim to the target
	Runs         int          // timed invocations
	Warmup       int          // untimed invocations before timing starts
	PrintInitial bool         // echo stdout of the first warmup run
	Stop         Gate         // nil means the session cannot be cancelled
	ChunkSize    int          // runs between Stop checks (0 means DefaultChunkSize)
	Dir          string       // working directory (empty means current directory, best effort)
	Stdout       io.Writer    // console side channel for warmup stdout
	Stderr       io.Writer    // console side channel for warmup stderr
	Logger       *slog.Logger // non-fatal events
	Observer     Observer     // optional per-invocation callbacks
}

// Observer receives per-invocation callbacks on the session goroutine.
// Nil fields are skipped. Callbacks must not block.
type Observer struct {
	OnWarmup     func(iteration int, inv Invocation)
	OnRun        func(index int, elapsed time.Duration, inv Invocation)
	OnRunFailure func(index int, inv Invocation)
}

func (o Observer) warmup(iteration int, inv Invocation) {
	if o.OnWarmup != nil {
		o.OnWarmup(iteration, inv)
	}
}

func (o Observer) run(index int, elapsed time.Duration, inv Invocation) {
	if o.OnRun != nil {
		o.OnRun(index, elapsed, inv)
	}
}

func (o Observer) runFailure(index int, inv Invocation) {
	if o.OnRunFailure != nil {
		o.OnRunFailure(index, inv)
	}
}

// CombineObservers fans every callback out to each observer in order.
func CombineObservers(observers ...Observer) Observer {
	return Observer{
		OnWarmup: func(iteration int, inv Invocation) {
			for _, o := range observers {
				o.warmup(iteration, inv)
			}
		},
		OnRun: func(index int, elapsed time.Duration, inv Invocation) {
			for _, o := range observers {
				o.run(index, elapsed, inv)
			}
		},
		OnRunFailure: func(index int, inv Invocation) {
			for _, o := range observers {
				o.runFailure(index, inv)
			}
		},
	}
}

func (c *RunConfig) normalize() {
	if c.Runs < 0 {
		c.Runs = 0
	}
	if c.Warmup < 0 {
		c.Warmup = 0
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.Stop == nil {
		c.Stop = Never()
	}
	if c.Stdout == nil {
		c.Stdout = os.Stdout
	}
	if c.Stderr == nil {
		c.Stderr = os.Stderr
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	c.Args = append([]string(nil), c.Args...)
}

package bench

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
)

// Start launches a session running cfg.Binary and returns immediately.
// The session goroutine owns cfg from here on; Args is copied so the caller's
// slice is never shared. Cancelling ctx kills the running child and ends the
// session as cancelled.
func Start(ctx context.Context, cfg RunConfig) (*Handle, *Stream) {
	cfg.normalize()
	return start(ctx, cfg, NewExecInvoker(cfg.Binary, cfg.Args, cfg.Dir))
}

// StartWithInvoker is Start with a caller-supplied Invoker in place of
// os/exec. cfg.Binary, cfg.Args and cfg.Dir are only used for logging.
func StartWithInvoker(ctx context.Context, cfg RunConfig, inv Invoker) (*Handle, *Stream) {
	cfg.normalize()
	return start(ctx, cfg, inv)
}

func start(ctx context.Context, cfg RunConfig, inv Invoker) (*Handle, *Stream) {
	if ctx == nil {
		ctx = context.Background()
	}
	id := ulid.Make().String()
	s := &session{
		cfg:    cfg,
		inv:    inv,
		stream: newStream(),
		handle: newHandle(id),
		log:    cfg.Logger.With(slog.String("session", id)),
	}
	go s.run(ctx)
	return s.handle, s.stream
}

type session struct {
	cfg    RunConfig
	inv    Invoker
	stream *Stream
	handle *Handle
	log    *slog.Logger

	warmups  int
	emitted  int
	failures int
}

func (s *session) run(ctx context.Context) {
	begin := time.Now()
	s.log.Debug("session started",
		slog.String("binary", s.cfg.Binary),
		slog.Int("runs", s.cfg.Runs),
		slog.Int("warmup", s.cfg.Warmup),
		slog.Int("chunk_size", s.cfg.ChunkSize),
	)

	out := s.execute(ctx)
	out.Runs = s.emitted
	out.Failures = s.failures
	out.Warmups = s.warmups
	out.Elapsed = time.Since(begin)

	s.log.Debug("session ended",
		slog.String("reason", out.Reason.String()),
		slog.Int("runs", out.Runs),
		slog.Duration("elapsed", out.Elapsed),
	)
	s.stream.finish()
	s.handle.resolve(out)
}

func (s *session) execute(ctx context.Context) Outcome {
	s.handle.setState(StateWarming)
	ok, err := s.warmup(ctx)
	if err != nil {
		return s.abort(err)
	}
	if !ok {
		s.handle.setState(StateFailedWarmup)
		return Outcome{Reason: ReasonWarmupFailed}
	}

	s.handle.setState(StateTiming)
	if err := s.timed(ctx); err != nil {
		if errors.Is(err, errGateClosed) {
			s.handle.setState(StateCancelled)
			return Outcome{Reason: ReasonCancelled}
		}
		return s.abort(err)
	}
	s.handle.setState(StateDone)
	return Outcome{Reason: ReasonFinished}
}

// abort maps an invocation or push error to a terminal outcome. Context
// cancellation is a stop request, not a failure.
func (s *session) abort(err error) Outcome {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		s.handle.setState(StateCancelled)
		return Outcome{Reason: ReasonCancelled}
	}
	s.log.Error("session failed", slog.Any("error", err))
	s.handle.setState(StateFailed)
	return Outcome{Reason: ReasonError, Err: err}
}

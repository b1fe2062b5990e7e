package tracing

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/torosent/precipice/internal/bench"
)

// SessionInfo names the attributes recorded on a session span.
type SessionInfo struct {
	ID        string
	Binary    string
	Args      []string
	Runs      int
	Warmup    int
	ChunkSize int
}

// StartSessionSpan starts the root span covering one benchmark session.
func StartSessionSpan(ctx context.Context, tracer trace.Tracer, info SessionInfo) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "precipice.session",
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	span.SetAttributes(
		attribute.String("process.executable.path", info.Binary),
		attribute.StringSlice("process.command_args", info.Args),
		attribute.Int("precipice.runs.requested", info.Runs),
		attribute.Int("precipice.warmup.requested", info.Warmup),
		attribute.Int("precipice.chunk_size", info.ChunkSize),
	)
	if info.ID != "" {
		SetSessionID(span, info.ID)
	}
	return ctx, span
}

// SetSessionID records the engine's session ID, which is only known once the
// session has started.
func SetSessionID(span trace.Span, id string) {
	span.SetAttributes(attribute.String("precipice.session.id", id))
}

// SessionObserver records engine callbacks as events on span. Successful
// timed runs are not recorded individually.
func SessionObserver(span trace.Span) bench.Observer {
	return bench.Observer{
		OnWarmup: func(iteration int, inv bench.Invocation) {
			span.AddEvent("warmup", trace.WithAttributes(
				attribute.Int("precipice.warmup.iteration", iteration),
				attribute.Bool("process.success", inv.Success),
				attribute.Int("process.exit.code", inv.ExitCode),
			))
		},
		OnRunFailure: func(index int, inv bench.Invocation) {
			span.AddEvent("run.failed", trace.WithAttributes(
				attribute.Int("precipice.run.index", index),
				attribute.Int("process.exit.code", inv.ExitCode),
			))
		},
	}
}

// EndSessionSpan finishes a session span with the outcome's counts.
func EndSessionSpan(span trace.Span, out bench.Outcome) {
	var err error
	if out.Failed() {
		err = out.Err
	}
	EndSpan(span, err,
		attribute.String("precipice.outcome", out.Reason.String()),
		attribute.Int("precipice.runs.completed", out.Runs),
		attribute.Int("precipice.runs.failed", out.Failures),
		attribute.Int("precipice.warmup.completed", out.Warmups),
		attribute.Int64("precipice.elapsed_ms", out.Elapsed.Milliseconds()),
	)
}

// EndSpan finishes a span, recording error status if applicable.
func EndSpan(span trace.Span, err error, attrs ...attribute.KeyValue) {
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// ShutdownTimeout bounds the final span flush.
const ShutdownTimeout = 5 * time.Second

// ShutdownWithTimeout flushes p, ignoring a deadline that expires mid flush.
func ShutdownWithTimeout(p *Provider) error {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := p.Shutdown(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

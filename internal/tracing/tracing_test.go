package tracing_test

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/torosent/precipice/internal/bench"
	"github.com/torosent/precipice/internal/config"
	"github.com/torosent/precipice/internal/tracing"
)

func setupTestTracer(t *testing.T) (*tracetest.InMemoryExporter, trace.Tracer) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
	})
	return exporter, tp.Tracer("test")
}

func attrValue(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, attr := range attrs {
		if string(attr.Key) == key {
			return attr.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestInitDisabledByDefault(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	p, err := tracing.Init(context.Background(), config.TracingConfig{})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	if p.Enabled() {
		t.Error("Enabled() = true, want false when tracing disabled")
	}
	_, span := p.Tracer().Start(context.Background(), "test")
	span.End()
	if span.SpanContext().IsValid() {
		t.Error("no-op tracer should produce invalid span contexts")
	}
}

func TestInitWithEndpointEnablesTracing(t *testing.T) {
	// Exporters connect lazily, so no collector is needed.
	p, err := tracing.Init(context.Background(), config.TracingConfig{
		Endpoint:    "localhost:4317",
		Protocol:    "grpc",
		ServiceName: "test-service",
		SampleRate:  1.0,
		Insecure:    true,
	})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { _ = tracing.ShutdownWithTimeout(p) })

	if !p.Enabled() {
		t.Error("Enabled() = false, want true when an endpoint is set")
	}
}

func TestInitHTTPProtocol(t *testing.T) {
	p, err := tracing.Init(context.Background(), config.TracingConfig{
		Endpoint:   "localhost:4318",
		Protocol:   "http",
		Insecure:   true,
		SampleRate: 0.5,
	})
	if err != nil {
		t.Fatalf("Init() with http protocol error = %v", err)
	}
	t.Cleanup(func() { _ = tracing.ShutdownWithTimeout(p) })

	if !p.Enabled() {
		t.Error("Enabled() = false, want true")
	}
}

func TestInitUnsupportedProtocol(t *testing.T) {
	_, err := tracing.Init(context.Background(), config.TracingConfig{
		Endpoint: "localhost:4317",
		Protocol: "thrift",
		Insecure: true,
	})
	if err == nil {
		t.Fatal("Init() with unsupported protocol should return error")
	}
}

func TestInitInvalidSampleRate(t *testing.T) {
	for _, rate := range []float64{-0.5, 1.5} {
		_, err := tracing.Init(context.Background(), config.TracingConfig{
			Endpoint:   "localhost:4317",
			Insecure:   true,
			SampleRate: rate,
		})
		if err == nil {
			t.Fatalf("Init() with sample_rate=%g should return error", rate)
		}
	}
}

func TestInitWithExporter(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	exporter := tracetest.NewInMemoryExporter()
	p, err := tracing.Init(context.Background(), config.TracingConfig{
		ServiceName: "bench-ci",
		SampleRate:  1.0,
	}, tracing.WithExporter(exporter), tracing.WithResourceAttributes(attribute.String("ci.job", "nightly")))
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	if !p.Enabled() {
		t.Fatal("Enabled() = false, want true with an injected exporter")
	}
	_, span := tracing.StartSessionSpan(context.Background(), p.Tracer(), tracing.SessionInfo{Binary: "/bin/true"})
	tracing.EndSessionSpan(span, bench.Outcome{Reason: bench.ReasonFinished})

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	res := spans[0].Resource.Attributes()
	if v, ok := attrValue(res, "service.name"); !ok || v.AsString() != "bench-ci" {
		t.Errorf("service.name = %v", v)
	}
	if v, ok := attrValue(res, "ci.job"); !ok || v.AsString() != "nightly" {
		t.Errorf("ci.job = %v", v)
	}
}

func TestInitZeroSampleRateDropsSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	p, err := tracing.Init(context.Background(), config.TracingConfig{}, tracing.WithExporter(exporter))
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	_, span := p.Tracer().Start(context.Background(), "dropped")
	span.End()
	if got := len(exporter.GetSpans()); got != 0 {
		t.Errorf("got %d spans, want 0 at sample_rate 0", got)
	}
}

func TestNilProviderSafety(t *testing.T) {
	var p *tracing.Provider
	if p.Enabled() {
		t.Error("nil provider Enabled() = true, want false")
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("nil provider Shutdown() error = %v", err)
	}
	_, span := p.Tracer().Start(context.Background(), "test")
	span.End()
}

func TestSessionSpanLifecycle(t *testing.T) {
	exporter, tracer := setupTestTracer(t)

	_, span := tracing.StartSessionSpan(context.Background(), tracer, tracing.SessionInfo{
		ID:        "01J0SESSION",
		Binary:    "/bin/true",
		Args:      []string{"-x"},
		Runs:      10,
		Warmup:    1,
		ChunkSize: 5,
	})
	observer := tracing.SessionObserver(span)
	observer.OnWarmup(0, bench.Invocation{Success: true})
	observer.OnRunFailure(3, bench.Invocation{ExitCode: 2})
	tracing.EndSessionSpan(span, bench.Outcome{
		Reason:   bench.ReasonCancelled,
		Runs:     5,
		Failures: 1,
		Warmups:  1,
		Elapsed:  1500 * time.Millisecond,
	})

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	got := spans[0]
	if got.Name != "precipice.session" {
		t.Errorf("span name = %q", got.Name)
	}
	if got.Status.Code != codes.Ok {
		t.Errorf("cancelled session should not be an error, got %v", got.Status.Code)
	}
	if v, ok := attrValue(got.Attributes, "precipice.session.id"); !ok || v.AsString() != "01J0SESSION" {
		t.Errorf("session id attribute = %v", v)
	}
	if v, ok := attrValue(got.Attributes, "precipice.outcome"); !ok || v.AsString() != "cancelled" {
		t.Errorf("outcome attribute = %v", v)
	}
	if v, ok := attrValue(got.Attributes, "precipice.runs.completed"); !ok || v.AsInt64() != 5 {
		t.Errorf("runs attribute = %v", v)
	}

	if len(got.Events) != 2 {
		t.Fatalf("got %d events, want 2", len(got.Events))
	}
	if got.Events[0].Name != "warmup" || got.Events[1].Name != "run.failed" {
		t.Errorf("unexpected events %q, %q", got.Events[0].Name, got.Events[1].Name)
	}
	if v, ok := attrValue(got.Events[1].Attributes, "process.exit.code"); !ok || v.AsInt64() != 2 {
		t.Errorf("exit code attribute = %v", v)
	}
}

func TestEndSessionSpanRecordsError(t *testing.T) {
	exporter, tracer := setupTestTracer(t)

	_, span := tracer.Start(context.Background(), "session")
	tracing.EndSessionSpan(span, bench.Outcome{
		Reason: bench.ReasonError,
		Err:    &bench.SpawnError{Binary: "missing", Err: context.Canceled},
	})

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("span status code = %d, want %d (Error)", spans[0].Status.Code, codes.Error)
	}
	if len(spans[0].Events) == 0 || spans[0].Events[0].Name != "exception" {
		t.Error("expected the error to be recorded as an exception event")
	}
}

func TestEndSpanOk(t *testing.T) {
	exporter, tracer := setupTestTracer(t)

	_, span := tracer.Start(context.Background(), "test-ok")
	tracing.EndSpan(span, nil)

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Status.Code != codes.Ok {
		t.Errorf("span status code = %d, want %d (Ok)", spans[0].Status.Code, codes.Ok)
	}
}

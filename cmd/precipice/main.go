package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/torosent/precipice/internal/bench"
	"github.com/torosent/precipice/internal/config"
	"github.com/torosent/precipice/internal/dashboard"
	"github.com/torosent/precipice/internal/metrics"
	"github.com/torosent/precipice/internal/output"
	"github.com/torosent/precipice/internal/threshold"
	"github.com/torosent/precipice/internal/tracing"
)

const progressInterval = 100 * time.Millisecond

func main() {
	// SIGTERM kills the running child; SIGINT stops cooperatively.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	thresholds, err := threshold.ParseMultiple(cfg.Thresholds)
	if err != nil {
		return err
	}

	provider, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		if err := tracing.ShutdownWithTimeout(provider); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	collector := metrics.NewCollector(metrics.WithLabels(map[string]string{
		"binary": cfg.TraceLabel(),
	}))

	stopper := newStopper(logger)
	defer stopper.release()
	stopper.watchInterrupt()
	if !cfg.Dashboard && stdin != nil {
		stopper.watchInput(stdin)
	}

	spanCtx, span := tracing.StartSessionSpan(ctx, provider.Tracer(), tracing.SessionInfo{
		Binary:    cfg.Binary,
		Args:      cfg.Args,
		Runs:      cfg.Runs,
		Warmup:    cfg.Warmup,
		ChunkSize: cfg.ChunkSize,
	})

	runCfg := cfg.RunConfig()
	runCfg.Stop = bench.ChanGate(stopper.C())
	runCfg.Stdout = stdout
	runCfg.Stderr = stderr
	runCfg.Logger = logger
	runCfg.Observer = bench.CombineObservers(
		tracing.SessionObserver(span),
		bench.Observer{
			OnRunFailure: func(_ int, inv bench.Invocation) {
				collector.RecordFailure(inv.ExitCode)
			},
		},
	)

	textOutput := cfg.Format == config.FormatText
	if textOutput && !cfg.Dashboard {
		fmt.Fprintf(stdout, "Benching %s with %q, for %d runs to %s.\n", cfg.Binary, cfg.Args, cfg.Runs, cfg.ExportType)
		fmt.Fprintln(stdout, "To cancel at any point, press Enter or Ctrl+C.")
	}

	collector.Start()
	handle, stream := bench.Start(spanCtx, runCfg)
	tracing.SetSessionID(span, handle.ID())

	var dash *dashboard.Dashboard
	if cfg.Dashboard {
		dash, err = dashboard.New(collector, dashboard.SessionConfig{
			SessionID:  handle.ID(),
			Binary:     cfg.Binary,
			Args:       cfg.Args,
			Runs:       cfg.Runs,
			Warmup:     cfg.Warmup,
			ChunkSize:  cfg.ChunkSize,
			ConfigFile: cfg.ConfigFile,
		}, func() { stopper.stop("dashboard") })
		if err != nil {
			// The session is already running; stop it before bailing out.
			stream.Abandon()
			handle.Wait()
			return err
		}
		dash.Start()
	}

	var progress *output.ProgressReporter
	if textOutput && !cfg.Dashboard && !cfg.NoProgress {
		progress = output.NewProgressReporter(collector, cfg.Runs, progressInterval, stdout)
		progress.Start()
	}

	for d := range stream.C() {
		collector.RecordRun(d)
	}
	outcome := handle.Wait()

	if progress != nil {
		progress.Stop()
	}
	if dash != nil {
		dash.Stop()
	}
	tracing.EndSessionSpan(span, outcome)

	stats := collector.Stats(outcome.Elapsed)
	results := threshold.NewEvaluator(thresholds).Evaluate(stats)

	summary := output.Summary{
		SessionID:  handle.ID(),
		Binary:     cfg.Binary,
		Args:       cfg.Args,
		Requested:  cfg.Runs,
		Warmups:    outcome.Warmups,
		Outcome:    outcome.Reason.String(),
		Stats:      stats,
		Thresholds: results,
	}
	if outcome.Err != nil {
		summary.Error = outcome.Err.Error()
	}

	if err := printSummary(stdout, cfg.Format, summary); err != nil {
		return err
	}

	if !outcome.Failed() {
		path, err := exportTraces(*cfg, collector.Samples(), &summary)
		if err != nil {
			return err
		}
		if path != "" {
			logger.Info("exported traces", "path", path)
			if textOutput {
				fmt.Fprintf(stdout, "Exported to %s\n", path)
			}
		}
	}

	if cfg.PromTextfile != "" {
		if err := collector.WriteTextfile(cfg.PromTextfile); err != nil {
			return err
		}
	}

	return exitError(outcome, stats, results)
}

func printSummary(w io.Writer, format config.ReportFormat, summary output.Summary) error {
	switch format {
	case config.FormatJSON:
		return output.PrintJSONReport(w, summary)
	case config.FormatYAML:
		return output.PrintYAMLReport(w, summary)
	default:
		output.PrintReport(w, summary)
		return nil
	}
}

// exportTraces writes the session trace, merged with any extra trace files,
// and returns the path written. Nothing is written when there is nothing to
// export.
func exportTraces(cfg config.Config, samples []time.Duration, summary *output.Summary) (string, error) {
	if cfg.ExportType == config.ExportNone {
		return "", nil
	}
	if len(samples) == 0 && len(cfg.Merge) == 0 {
		return "", nil
	}

	traces, err := output.MergeTraces(output.NewTrace(cfg.TraceLabel(), samples), cfg.Merge)
	if err != nil {
		return "", err
	}

	switch cfg.ExportType {
	case config.ExportHTML:
		return output.ExportHTML(cfg.OutputBase(), traces, summary)
	default:
		return output.ExportCSV(cfg.OutputBase(), traces)
	}
}

func exitError(outcome bench.Outcome, stats metrics.Stats, results []threshold.Result) error {
	switch {
	case outcome.Failed():
		return fmt.Errorf("benchmark failed: %w", outcome.Err)
	case outcome.Reason == bench.ReasonWarmupFailed:
		return errors.New("warmup run exited unsuccessfully; nothing was timed")
	}

	var problems []string
	if stats.Failures > 0 {
		problems = append(problems, fmt.Sprintf("%d runs exited unsuccessfully", stats.Failures))
	}
	if !threshold.AllPassed(results) {
		failed := 0
		for _, r := range results {
			if !r.Pass {
				failed++
			}
		}
		problems = append(problems, fmt.Sprintf("%d of %d thresholds failed", failed, len(results)))
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

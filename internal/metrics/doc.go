// Package metrics aggregates the durations produced by a benchmark session.
//
// A [Collector] is fed from two sides: the stream consumer records every
// duration with [Collector.RecordRun], and the engine observer records
// unsuccessful exits with [Collector.RecordFailure].
//
//	collector := metrics.NewCollector(metrics.WithLabels(map[string]string{"binary": "ls"}))
//	for d := range stream.C() {
//		collector.RecordRun(d)
//	}
//	stats := collector.Stats(outcome.Elapsed)
//
// # Statistics
//
// [Stats] carries the run and failure counts, min, max, mean and population
// standard deviation, hdrhistogram percentiles (P50, P90, P95, P99) and the
// exit code breakdown of failed runs.
//
// # Prometheus
//
// [Collector.WriteTextfile] renders the session as a Prometheus text file for
// the node exporter textfile collector.
package metrics

package metrics_test

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/torosent/precipice/internal/metrics"
)

func TestCollectorDurationStats(t *testing.T) {
	c := metrics.NewCollector()

	for _, ms := range []int{10, 20, 30, 40, 50} {
		c.RecordRun(time.Duration(ms) * time.Millisecond)
	}

	stats := c.Stats(time.Second)

	if stats.Runs != 5 {
		t.Errorf("expected runs 5, got %d", stats.Runs)
	}
	if stats.Failures != 0 {
		t.Errorf("expected failures 0, got %d", stats.Failures)
	}
	if stats.Min != 10*time.Millisecond {
		t.Errorf("expected min 10ms, got %s", stats.Min)
	}
	if stats.Max != 50*time.Millisecond {
		t.Errorf("expected max 50ms, got %s", stats.Max)
	}
	if stats.Mean != 30*time.Millisecond {
		t.Errorf("expected mean 30ms, got %s", stats.Mean)
	}
	// Population standard deviation of 10..50 step 10 is sqrt(200) ms.
	if stats.StdDev < 14140*time.Microsecond || stats.StdDev > 14145*time.Microsecond {
		t.Errorf("expected stddev ~14.142ms, got %s", stats.StdDev)
	}
	if stats.RunsPerSec != 5 {
		t.Errorf("expected 5 runs/sec, got %f", stats.RunsPerSec)
	}
}

func TestCollectorSingleRunHasZeroStdDev(t *testing.T) {
	c := metrics.NewCollector()
	c.RecordRun(7 * time.Millisecond)
	stats := c.Stats(time.Second)
	if stats.StdDev != 0 {
		t.Errorf("expected zero stddev, got %s", stats.StdDev)
	}
	if stats.Min != stats.Max || stats.Mean != 7*time.Millisecond {
		t.Errorf("unexpected single run stats: %+v", stats)
	}
}

func TestPercentilesCalculations(t *testing.T) {
	c := metrics.NewCollector()

	// 100 samples: 1ms, 2ms, ..., 100ms.
	for i := 1; i <= 100; i++ {
		c.RecordRun(time.Duration(i) * time.Millisecond)
	}

	stats := c.Stats(time.Second)

	checks := []struct {
		name string
		got  time.Duration
		want time.Duration
	}{
		{"p50", stats.P50, 50 * time.Millisecond},
		{"p90", stats.P90, 90 * time.Millisecond},
		{"p95", stats.P95, 95 * time.Millisecond},
		{"p99", stats.P99, 99 * time.Millisecond},
	}
	for _, check := range checks {
		if check.got < check.want-time.Millisecond || check.got > check.want+time.Millisecond {
			t.Errorf("expected %s ~%s, got %s", check.name, check.want, check.got)
		}
	}
}

func TestCollectorFailures(t *testing.T) {
	c := metrics.NewCollector()
	for i := 0; i < 4; i++ {
		c.RecordRun(time.Millisecond)
	}
	c.RecordFailure(1)
	c.RecordFailure(1)
	c.RecordFailure(127)

	stats := c.Stats(time.Second)
	if stats.Failures != 3 {
		t.Fatalf("expected 3 failures, got %d", stats.Failures)
	}
	if diff := cmp.Diff(map[int]int{1: 2, 127: 1}, stats.ExitCodes); diff != "" {
		t.Errorf("exit codes mismatch (-want +got):\n%s", diff)
	}
	if got := stats.FailureRate(); got != 0.75 {
		t.Errorf("expected failure rate 0.75, got %f", got)
	}
}

func TestCollectorEmpty(t *testing.T) {
	stats := metrics.NewCollector().Stats(time.Second)
	if stats.Runs != 0 || stats.Mean != 0 || stats.P99 != 0 || stats.RunsPerSec != 0 {
		t.Errorf("expected zero stats, got %+v", stats)
	}
	if stats.FailureRate() != 0 {
		t.Errorf("expected zero failure rate")
	}
}

func TestCollectorSamplesAndRecent(t *testing.T) {
	c := metrics.NewCollector()
	for i := 1; i <= 5; i++ {
		c.RecordRun(time.Duration(i) * time.Millisecond)
	}

	samples := c.Samples()
	if len(samples) != 5 || samples[0] != time.Millisecond || samples[4] != 5*time.Millisecond {
		t.Fatalf("unexpected samples %v", samples)
	}
	samples[0] = 0
	if c.Samples()[0] != time.Millisecond {
		t.Fatal("Samples must return a copy")
	}

	want := []time.Duration{4 * time.Millisecond, 5 * time.Millisecond}
	if diff := cmp.Diff(want, c.Recent(2)); diff != "" {
		t.Errorf("Recent(2) mismatch (-want +got):\n%s", diff)
	}
	if got := c.Recent(50); len(got) != 5 {
		t.Errorf("Recent(50) returned %d samples", len(got))
	}
	if got := c.Recent(0); got != nil {
		t.Errorf("Recent(0) = %v, want nil", got)
	}
}

func TestCollectorConcurrentRecording(t *testing.T) {
	c := metrics.NewCollector()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			c.RecordRun(time.Millisecond)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			c.RecordFailure(2)
		}
	}()
	wg.Wait()

	stats := c.Stats(time.Second)
	if stats.Runs != 500 || stats.Failures != 100 {
		t.Fatalf("expected 500 runs and 100 failures, got %d and %d", stats.Runs, stats.Failures)
	}
}

func TestStatsJSONUsesMilliseconds(t *testing.T) {
	c := metrics.NewCollector()
	c.RecordRun(1500 * time.Microsecond)

	data, err := json.Marshal(c.Stats(time.Second))
	if err != nil {
		t.Fatalf("marshal stats: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal stats: %v", err)
	}
	if decoded["mean_ms"] != 1.5 {
		t.Errorf("expected mean_ms 1.5, got %v", decoded["mean_ms"])
	}
	if _, ok := decoded["Mean"]; ok {
		t.Error("raw duration fields must not be serialized")
	}
	if _, ok := decoded["exit_codes"]; ok {
		t.Error("exit_codes must be omitted when empty")
	}
}

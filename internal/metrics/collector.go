package metrics

import (
	"math"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Collector aggregates the durations of a benchmark session. Durations arrive
// from the stream consumer and failures from the engine goroutine, so every
// method locks.
type Collector struct {
	mu        sync.Mutex
	hist      *hdrhistogram.Histogram
	samples   []time.Duration
	runs      int64
	failures  int64
	min       time.Duration
	max       time.Duration
	mean      float64 // running mean in nanoseconds
	m2        float64 // sum of squared deviations in nanoseconds²
	exitCodes map[int]int64
	labels    map[string]string
	start     time.Time
}

// Stats represents aggregated metrics.
type Stats struct {
	Runs       int64         `json:"runs" yaml:"runs"`
	Failures   int64         `json:"failures" yaml:"failures"`
	Min        time.Duration `json:"-" yaml:"-"`
	Max        time.Duration `json:"-" yaml:"-"`
	Mean       time.Duration `json:"-" yaml:"-"`
	StdDev     time.Duration `json:"-" yaml:"-"`
	P50        time.Duration `json:"-" yaml:"-"`
	P90        time.Duration `json:"-" yaml:"-"`
	P95        time.Duration `json:"-" yaml:"-"`
	P99        time.Duration `json:"-" yaml:"-"`
	Elapsed    time.Duration `json:"-" yaml:"-"`
	RunsPerSec float64       `json:"runs_per_sec" yaml:"runs_per_sec"`

	// Millisecond fields for JSON and YAML reports.
	MinMs     float64     `json:"min_ms" yaml:"min_ms"`
	MaxMs     float64     `json:"max_ms" yaml:"max_ms"`
	MeanMs    float64     `json:"mean_ms" yaml:"mean_ms"`
	StdDevMs  float64     `json:"stddev_ms" yaml:"stddev_ms"`
	P50Ms     float64     `json:"p50_ms" yaml:"p50_ms"`
	P90Ms     float64     `json:"p90_ms" yaml:"p90_ms"`
	P95Ms     float64     `json:"p95_ms" yaml:"p95_ms"`
	P99Ms     float64     `json:"p99_ms" yaml:"p99_ms"`
	ElapsedMs float64     `json:"elapsed_ms" yaml:"elapsed_ms"`
	ExitCodes map[int]int `json:"exit_codes,omitempty" yaml:"exit_codes,omitempty"`
}

// FailureRate is the fraction of timed runs that exited unsuccessfully.
func (s Stats) FailureRate() float64 {
	if s.Runs == 0 {
		return 0
	}
	return float64(s.Failures) / float64(s.Runs)
}

// Option configures a Collector.
type Option func(*Collector)

// WithLabels attaches constant labels to exported Prometheus series.
func WithLabels(labels map[string]string) Option {
	return func(c *Collector) {
		for k, v := range labels {
			c.labels[k] = v
		}
	}
}

func NewCollector(opts ...Option) *Collector {
	// Track durations from 1µs up to one hour with 3 significant figures.
	c := &Collector{
		hist:      hdrhistogram.New(1, int64(time.Hour/time.Microsecond), 3),
		exitCodes: make(map[int]int64),
		labels:    make(map[string]string),
		start:     time.Now(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start resets the wall clock used for RunsPerSec.
func (c *Collector) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.start = time.Now()
}

// RecordRun records one timed duration.
func (c *Collector) RecordRun(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	us := d.Microseconds()
	if us < c.hist.LowestTrackableValue() {
		us = c.hist.LowestTrackableValue()
	}
	if us > c.hist.HighestTrackableValue() {
		us = c.hist.HighestTrackableValue()
	}
	_ = c.hist.RecordValue(us)

	c.samples = append(c.samples, d)
	c.runs++
	if c.runs == 1 || d < c.min {
		c.min = d
	}
	if d > c.max {
		c.max = d
	}

	// Welford's online update.
	x := float64(d)
	delta := x - c.mean
	c.mean += delta / float64(c.runs)
	c.m2 += delta * (x - c.mean)
}

// RecordFailure counts a timed run that exited with exitCode.
func (c *Collector) RecordFailure(exitCode int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures++
	c.exitCodes[exitCode]++
}

// Stats computes aggregated statistics. A zero elapsed uses the time since
// Start.
func (c *Collector) Stats(elapsed time.Duration) Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elapsed <= 0 {
		elapsed = time.Since(c.start)
	}

	stats := Stats{
		Runs:     c.runs,
		Failures: c.failures,
		Min:      c.min,
		Max:      c.max,
		Elapsed:  elapsed,
	}

	if c.runs > 0 {
		stats.Mean = time.Duration(c.mean)
		stats.StdDev = time.Duration(math.Sqrt(c.m2 / float64(c.runs)))
	}

	if c.hist.TotalCount() > 0 {
		stats.P50 = time.Duration(c.hist.ValueAtQuantile(50)) * time.Microsecond
		stats.P90 = time.Duration(c.hist.ValueAtQuantile(90)) * time.Microsecond
		stats.P95 = time.Duration(c.hist.ValueAtQuantile(95)) * time.Microsecond
		stats.P99 = time.Duration(c.hist.ValueAtQuantile(99)) * time.Microsecond
	}

	stats.MinMs = toMillis(stats.Min)
	stats.MaxMs = toMillis(stats.Max)
	stats.MeanMs = toMillis(stats.Mean)
	stats.StdDevMs = toMillis(stats.StdDev)
	stats.P50Ms = toMillis(stats.P50)
	stats.P90Ms = toMillis(stats.P90)
	stats.P95Ms = toMillis(stats.P95)
	stats.P99Ms = toMillis(stats.P99)
	stats.ElapsedMs = toMillis(elapsed)

	if elapsed > 0 && c.runs > 0 {
		stats.RunsPerSec = float64(c.runs) / elapsed.Seconds()
	}

	if len(c.exitCodes) > 0 {
		stats.ExitCodes = make(map[int]int, len(c.exitCodes))
		for code, n := range c.exitCodes {
			stats.ExitCodes[code] = int(n)
		}
	}

	return stats
}

// Samples returns a copy of every recorded duration in arrival order.
func (c *Collector) Samples() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.samples...)
}

// Recent returns up to n of the most recent durations, oldest first.
func (c *Collector) Recent(n int) []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n <= 0 {
		return nil
	}
	from := len(c.samples) - n
	if from < 0 {
		from = 0
	}
	return append([]time.Duration(nil), c.samples[from:]...)
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// durationBuckets spans 100µs to roughly 100s.
var durationBuckets = prometheus.ExponentialBuckets(0.0001, 2, 21)

// Registry builds a Prometheus registry holding the session's series.
func (c *Collector) Registry() (*prometheus.Registry, error) {
	c.mu.Lock()
	labels := prometheus.Labels{}
	for k, v := range c.labels {
		labels[k] = v
	}
	samples := append([]time.Duration(nil), c.samples...)
	failures := c.failures
	c.mu.Unlock()

	reg := prometheus.NewRegistry()

	hist := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace:   "precipice",
		Name:        "run_duration_seconds",
		Help:        "Wall-clock duration of each timed run.",
		Buckets:     durationBuckets,
		ConstLabels: labels,
	})
	runs := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   "precipice",
		Name:        "runs_total",
		Help:        "Timed runs completed.",
		ConstLabels: labels,
	})
	failed := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   "precipice",
		Name:        "run_failures_total",
		Help:        "Timed runs that exited unsuccessfully.",
		ConstLabels: labels,
	})

	for _, collector := range []prometheus.Collector{hist, runs, failed} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register metric: %w", err)
		}
	}

	for _, d := range samples {
		hist.Observe(d.Seconds())
	}
	runs.Add(float64(len(samples)))
	failed.Add(float64(failures))

	return reg, nil
}

// WriteTextfile writes the session's series to path in the Prometheus text
// exposition format. The file is replaced atomically.
func (c *Collector) WriteTextfile(path string) error {
	reg, err := c.Registry()
	if err != nil {
		return err
	}
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("write prometheus textfile: %w", err)
	}
	return nil
}

package output

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/torosent/precipice/internal/metrics"
)

// ProgressReporter displays real-time progress updates.
type ProgressReporter struct {
	collector *metrics.Collector
	total     int
	ticker    *time.Ticker
	done      chan struct{}
	finished  chan struct{}
	writer    io.Writer
	active    int32
}

// NewProgressReporter creates a progress reporter that redraws a single line
// every interval until Stop.
func NewProgressReporter(collector *metrics.Collector, total int, interval time.Duration, writer io.Writer) *ProgressReporter {
	if writer == nil {
		writer = io.Discard
	}
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &ProgressReporter{
		collector: collector,
		total:     total,
		ticker:    time.NewTicker(interval),
		done:      make(chan struct{}),
		finished:  make(chan struct{}),
		writer:    writer,
	}
}

// Start begins displaying progress updates in a background goroutine.
func (p *ProgressReporter) Start() {
	if !atomic.CompareAndSwapInt32(&p.active, 0, 1) {
		return // already running
	}
	go p.run()
}

// Stop halts progress updates after drawing the final line.
func (p *ProgressReporter) Stop() {
	if atomic.CompareAndSwapInt32(&p.active, 1, 0) {
		close(p.done)
		p.ticker.Stop()
		<-p.finished
		p.draw()
		fmt.Fprintln(p.writer)
	}
}

func (p *ProgressReporter) run() {
	defer close(p.finished)
	for {
		select {
		case <-p.ticker.C:
			p.draw()
		case <-p.done:
			return
		}
	}
}

func (p *ProgressReporter) draw() {
	fmt.Fprint(p.writer, progressLine(p.collector.Stats(0), p.total))
}

func progressLine(stats metrics.Stats, total int) string {
	pct := 100.0
	if total > 0 {
		pct = float64(stats.Runs) / float64(total) * 100
	}
	return fmt.Sprintf("\rRuns: %d/%d (%.0f%%) | Failures: %d | Mean: %s",
		stats.Runs, total, pct, stats.Failures, FormatDuration(stats.Mean))
}

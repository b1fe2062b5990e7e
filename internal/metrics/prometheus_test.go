package metrics_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/torosent/precipice/internal/metrics"
)

func TestRegistrySeries(t *testing.T) {
	c := metrics.NewCollector(metrics.WithLabels(map[string]string{"binary": "true"}))
	c.RecordRun(2 * time.Millisecond)
	c.RecordRun(3 * time.Millisecond)
	c.RecordFailure(1)

	reg, err := c.Registry()
	if err != nil {
		t.Fatalf("Registry() error = %v", err)
	}

	count, err := testutil.GatherAndCount(reg,
		"precipice_run_duration_seconds",
		"precipice_runs_total",
		"precipice_run_failures_total",
	)
	if err != nil {
		t.Fatalf("GatherAndCount() error = %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 series, got %d", count)
	}

	expected := `
# HELP precipice_runs_total Timed runs completed.
# TYPE precipice_runs_total counter
precipice_runs_total{binary="true"} 2
# HELP precipice_run_failures_total Timed runs that exited unsuccessfully.
# TYPE precipice_run_failures_total counter
precipice_run_failures_total{binary="true"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"precipice_runs_total", "precipice_run_failures_total"); err != nil {
		t.Fatalf("unexpected series: %v", err)
	}
}

func TestWriteTextfile(t *testing.T) {
	c := metrics.NewCollector()
	c.RecordRun(5 * time.Millisecond)

	path := filepath.Join(t.TempDir(), "precipice.prom")
	if err := c.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	text := string(data)
	for _, want := range []string{
		"precipice_run_duration_seconds_count 1",
		"precipice_runs_total 1",
		"precipice_run_failures_total 0",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("textfile missing %q:\n%s", want, text)
		}
	}
}

func TestWriteTextfileBadPath(t *testing.T) {
	c := metrics.NewCollector()
	path := filepath.Join(t.TempDir(), "missing", "dir", "out.prom")
	if err := c.WriteTextfile(path); err == nil {
		t.Fatal("expected an error for a missing directory")
	}
}

package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/torosent/precipice/internal/metrics"
	"github.com/torosent/precipice/internal/threshold"
)

// Summary describes one finished benchmark session.
type Summary struct {
	SessionID  string             `json:"session_id" yaml:"session_id"`
	Binary     string             `json:"binary" yaml:"binary"`
	Args       []string           `json:"args,omitempty" yaml:"args,omitempty"`
	Requested  int                `json:"requested_runs" yaml:"requested_runs"`
	Warmups    int                `json:"warmup_runs" yaml:"warmup_runs"`
	Outcome    string             `json:"outcome" yaml:"outcome"`
	Error      string             `json:"error,omitempty" yaml:"error,omitempty"`
	Stats      metrics.Stats      `json:"stats" yaml:"stats"`
	Thresholds []threshold.Result `json:"thresholds,omitempty" yaml:"thresholds,omitempty"`
}

// PrintReport outputs a human-readable summary report.
func PrintReport(w io.Writer, s Summary) {
	stats := s.Stats
	fmt.Fprintln(w, "\n--- Benchmark Results ---")
	if s.SessionID != "" {
		fmt.Fprintf(w, "Session:           %s\n", s.SessionID)
	}
	fmt.Fprintf(w, "Command:           %s\n", commandLine(s.Binary, s.Args))
	fmt.Fprintf(w, "Outcome:           %s\n", s.Outcome)
	if s.Error != "" {
		fmt.Fprintf(w, "Error:             %s\n", s.Error)
	}
	fmt.Fprintf(w, "Warmup Runs:       %d\n", s.Warmups)
	fmt.Fprintf(w, "Timed Runs:        %d/%d\n", stats.Runs, s.Requested)
	fmt.Fprintf(w, "Failed Runs:       %d\n", stats.Failures)
	fmt.Fprintf(w, "Elapsed:           %s\n", stats.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "Runs/sec:          %.2f\n", stats.RunsPerSec)

	if stats.Runs > 0 {
		fmt.Fprintln(w, "\nDurations:")
		fmt.Fprintf(w, "  Min:             %s\n", FormatDuration(stats.Min))
		fmt.Fprintf(w, "  Max:             %s\n", FormatDuration(stats.Max))
		fmt.Fprintf(w, "  Mean:            %s\n", FormatDuration(stats.Mean))
		fmt.Fprintf(w, "  Std Dev:         %s\n", FormatDuration(stats.StdDev))
		fmt.Fprintf(w, "  P50:             %s\n", FormatDuration(stats.P50))
		fmt.Fprintf(w, "  P90:             %s\n", FormatDuration(stats.P90))
		fmt.Fprintf(w, "  P95:             %s\n", FormatDuration(stats.P95))
		fmt.Fprintf(w, "  P99:             %s\n", FormatDuration(stats.P99))
	}

	if rows := metrics.FlattenExitCodes(stats.ExitCodes); len(rows) > 0 {
		fmt.Fprintln(w, "\nExit Codes:")
		for _, row := range rows {
			fmt.Fprintf(w, "  %d (%s): %d\n", row.Code, metrics.DescribeExitCode(row.Code), row.Count)
		}
	}

	if len(s.Thresholds) > 0 {
		fmt.Fprintln(w, "\nThresholds:")
		for _, r := range s.Thresholds {
			fmt.Fprintf(w, "  %s\n", r.Message)
		}
	}

	fmt.Fprintf(w, "\nEnd Result: %s ± %s\n", FormatDuration(stats.Mean), FormatDuration(stats.StdDev))
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, s Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// PrintYAMLReport outputs a YAML-formatted report.
func PrintYAMLReport(w io.Writer, s Summary) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return err
	}
	return enc.Close()
}

// FormatDuration renders d with three decimals in the largest unit that keeps
// the value at or above one.
func FormatDuration(d time.Duration) string {
	switch abs := max(d, -d); {
	case abs >= time.Second:
		return fmt.Sprintf("%.3fs", d.Seconds())
	case abs >= time.Millisecond:
		return fmt.Sprintf("%.3fms", float64(d)/float64(time.Millisecond))
	case abs >= time.Microsecond:
		return fmt.Sprintf("%.3fµs", float64(d)/float64(time.Microsecond))
	default:
		return fmt.Sprintf("%dns", int64(d))
	}
}

func commandLine(binary string, args []string) string {
	if len(args) == 0 {
		return binary
	}
	quoted := make([]string, len(args))
	for i, arg := range args {
		if arg == "" || strings.ContainsAny(arg, " \t\"'") {
			arg = fmt.Sprintf("%q", arg)
		}
		quoted[i] = arg
	}
	return binary + " " + strings.Join(quoted, " ")
}

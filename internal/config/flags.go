package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "precipice [flags] [--] [binary [args...]]",
		Short:         "Benchmark an arbitrary binary by timing repeated runs",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	// Target flags
	flags.StringP("binary", "b", "", "The binary to benchmark")
	flags.StringP("args", "a", "", "Arguments for the binary, split on spaces")
	flags.StringArray("arg", nil, "A single argument passed verbatim (repeatable)")
	flags.String("dir", "", "Working directory for the binary (defaults to the current directory)")

	// Run control flags
	flags.IntP("runs", "r", DefaultRuns, "Number of timed runs (excluding warmup runs)")
	flags.IntP("warmup", "w", DefaultWarmup, "Number of untimed warmup runs")
	flags.Bool("no-warmup", false, "Skip warmup runs (same as --warmup 0)")
	flags.BoolP("print-initial", "p", false, "Print the standard output of the first warmup run")
	flags.Int("chunk-size", DefaultChunkSize, "Runs between cancellation checks")

	// Export flags
	flags.StringP("export-type", "t", string(ExportCSV), "Export format: 'csv', 'html', or 'none'")
	flags.StringP("export-file", "f", "", "File to export to, without extension (defaults to <binary>_<runs>)")
	flags.StringP("trace-name", "n", "", "Trace name in the export (defaults to the export file name)")
	flags.StringSlice("merge", nil, "Extra CSV trace files to merge into the export (repeatable)")
	flags.String("prom-textfile", "", "Write Prometheus textfile metrics to this path")

	// Output flags
	flags.String("format", string(FormatText), "Summary format: 'text', 'json', or 'yaml'")
	flags.Bool("dashboard", false, "Show live terminal dashboard")
	flags.Bool("no-progress", false, "Disable the progress line")
	flags.String("log-level", "warn", "Log level: debug, info, warn, or error")
	flags.StringSlice("threshold", nil, "Pass/fail thresholds (repeatable, e.g., 'run_duration:p95 < 50')")
	flags.String("config", "", "Path to configuration file (JSON, YAML, or TOML)")

	// Tracing flags
	flags.String("tracing-endpoint", "", "OTLP collector endpoint (enables tracing)")
	flags.String("tracing-protocol", "grpc", "OTLP protocol: 'grpc' or 'http'")
	flags.Bool("tracing-insecure", false, "Disable TLS for the OTLP exporter")
	flags.Float64("tracing-sample-rate", 1.0, "Trace sampling ratio (0.0 to 1.0)")
	flags.String("tracing-service-name", "", "Service name reported in spans")
}

// displayHelp prints the help message for a command.
func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Usage: %s\n\n%s\n\nFlags:\n", cmd.UseLine(), cmd.Short)
	fs := cmd.Flags()
	fs.SetOutput(out)
	fs.PrintDefaults()
}

// applyFlagOverrides applies command-line flag values to the config, overriding
// values from the config file.
func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	if fs.Changed("binary") {
		val, err := fs.GetString("binary")
		if err != nil {
			return err
		}
		cfg.Binary = strings.TrimSpace(val)
	}
	if fs.Changed("args") || fs.Changed("arg") {
		joined, err := fs.GetString("args")
		if err != nil {
			return err
		}
		verbatim, err := fs.GetStringArray("arg")
		if err != nil {
			return err
		}
		cfg.Args = append(splitArgs(joined), verbatim...)
	}
	if fs.Changed("dir") {
		val, err := fs.GetString("dir")
		if err != nil {
			return err
		}
		cfg.Dir = strings.TrimSpace(val)
	}
	if fs.Changed("runs") {
		val, err := fs.GetInt("runs")
		if err != nil {
			return err
		}
		cfg.Runs = val
	}
	if fs.Changed("warmup") {
		val, err := fs.GetInt("warmup")
		if err != nil {
			return err
		}
		cfg.Warmup = val
	}
	if fs.Changed("no-warmup") {
		val, err := fs.GetBool("no-warmup")
		if err != nil {
			return err
		}
		if val {
			cfg.Warmup = 0
		}
	}
	if fs.Changed("print-initial") {
		val, err := fs.GetBool("print-initial")
		if err != nil {
			return err
		}
		cfg.PrintInitial = val
	}
	if fs.Changed("chunk-size") {
		val, err := fs.GetInt("chunk-size")
		if err != nil {
			return err
		}
		cfg.ChunkSize = val
	}
	if fs.Changed("export-type") {
		val, err := fs.GetString("export-type")
		if err != nil {
			return err
		}
		cfg.ExportType = ExportType(strings.ToLower(strings.TrimSpace(val)))
	}
	if fs.Changed("export-file") {
		val, err := fs.GetString("export-file")
		if err != nil {
			return err
		}
		cfg.ExportFile = strings.TrimSpace(val)
	}
	if fs.Changed("trace-name") {
		val, err := fs.GetString("trace-name")
		if err != nil {
			return err
		}
		cfg.TraceName = strings.TrimSpace(val)
	}
	if fs.Changed("merge") {
		val, err := fs.GetStringSlice("merge")
		if err != nil {
			return err
		}
		cfg.Merge = val
	}
	if fs.Changed("prom-textfile") {
		val, err := fs.GetString("prom-textfile")
		if err != nil {
			return err
		}
		cfg.PromTextfile = strings.TrimSpace(val)
	}
	if fs.Changed("format") {
		val, err := fs.GetString("format")
		if err != nil {
			return err
		}
		cfg.Format = ReportFormat(strings.ToLower(strings.TrimSpace(val)))
	}
	if fs.Changed("dashboard") {
		val, err := fs.GetBool("dashboard")
		if err != nil {
			return err
		}
		cfg.Dashboard = val
	}
	if fs.Changed("no-progress") {
		val, err := fs.GetBool("no-progress")
		if err != nil {
			return err
		}
		cfg.NoProgress = val
	}
	if fs.Changed("log-level") {
		val, err := fs.GetString("log-level")
		if err != nil {
			return err
		}
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(val))
	}
	if fs.Changed("threshold") {
		val, err := fs.GetStringSlice("threshold")
		if err != nil {
			return err
		}
		cfg.Thresholds = val
	}

	if fs.Changed("tracing-endpoint") {
		val, err := fs.GetString("tracing-endpoint")
		if err != nil {
			return err
		}
		cfg.Tracing.Endpoint = strings.TrimSpace(val)
	}
	if fs.Changed("tracing-protocol") {
		val, err := fs.GetString("tracing-protocol")
		if err != nil {
			return err
		}
		cfg.Tracing.Protocol = strings.ToLower(strings.TrimSpace(val))
	}
	if fs.Changed("tracing-insecure") {
		val, err := fs.GetBool("tracing-insecure")
		if err != nil {
			return err
		}
		cfg.Tracing.Insecure = val
	}
	if fs.Changed("tracing-sample-rate") {
		val, err := fs.GetFloat64("tracing-sample-rate")
		if err != nil {
			return err
		}
		cfg.Tracing.SampleRate = val
	}
	if fs.Changed("tracing-service-name") {
		val, err := fs.GetString("tracing-service-name")
		if err != nil {
			return err
		}
		cfg.Tracing.ServiceName = strings.TrimSpace(val)
	}

	return nil
}

// splitArgs splits a single argument string on whitespace.
func splitArgs(s string) []string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil
	}
	return fields
}

package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

type ExportType string

const (
	ExportCSV  ExportType = "csv"
	ExportHTML ExportType = "html"
	ExportNone ExportType = "none"
)

type ReportFormat string

const (
	FormatText ReportFormat = "text"
	FormatJSON ReportFormat = "json"
	FormatYAML ReportFormat = "yaml"
)

const (
	DefaultRuns      = 1000
	DefaultWarmup    = 1
	DefaultChunkSize = 5
)

type Config struct {
	Binary       string        `mapstructure:"binary"`
	Args         []string      `mapstructure:"args"`
	Runs         int           `mapstructure:"runs"`
	Warmup       int           `mapstructure:"warmup"`
	PrintInitial bool          `mapstructure:"print_initial"`
	ChunkSize    int           `mapstructure:"chunk_size"`
	Dir          string        `mapstructure:"dir"`
	ExportType   ExportType    `mapstructure:"export_type"`
	ExportFile   string        `mapstructure:"export_file"`
	TraceName    string        `mapstructure:"trace_name"`
	Merge        []string      `mapstructure:"merge"`
	Format       ReportFormat  `mapstructure:"format"`
	Dashboard    bool          `mapstructure:"dashboard"`
	NoProgress   bool          `mapstructure:"no_progress"`
	LogLevel     string        `mapstructure:"log_level"`
	PromTextfile string        `mapstructure:"prom_textfile"`
	Thresholds   []string      `mapstructure:"thresholds"`
	Tracing      TracingConfig `mapstructure:"tracing"`
	ConfigFile   string        `mapstructure:"-"`
}

// TracingConfig configures OpenTelemetry span export for a session.
type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`     // OTLP collector address
	Protocol    string  `mapstructure:"protocol"`     // "grpc" or "http"
	Insecure    bool    `mapstructure:"insecure"`     // disable TLS to the collector
	SampleRate  float64 `mapstructure:"sample_rate"`  // 0.0 to 1.0
	ServiceName string  `mapstructure:"service_name"` // defaults to OTEL_SERVICE_NAME or "precipice"
}

// Enabled reports whether spans should be exported.
func (t TracingConfig) Enabled() bool {
	return strings.TrimSpace(t.Endpoint) != "" || os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != ""
}

// OutputBase is the export path without extension. It falls back to the
// trace name, then to "<binary>_<runs>".
func (c Config) OutputBase() string {
	if strings.TrimSpace(c.ExportFile) != "" {
		return c.ExportFile
	}
	if strings.TrimSpace(c.TraceName) != "" {
		return c.TraceName
	}
	name := filepath.Base(c.Binary)
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "bench_results"
	}
	return fmt.Sprintf("%s_%d", name, c.Runs)
}

// TraceLabel names this session's trace in exports.
func (c Config) TraceLabel() string {
	if strings.TrimSpace(c.TraceName) != "" {
		return c.TraceName
	}
	return filepath.Base(c.OutputBase())
}

// SlogLevel parses LogLevel, defaulting to warn.
func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelWarn
	}
	return level
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string

	if strings.TrimSpace(c.Binary) == "" {
		issues = append(issues, "binary is required (use --help for usage information)")
	}

	// Every timed duration stays buffered until the consumer reads it.
	if c.Runs > 100_000 {
		fmt.Fprintf(os.Stderr, "WARNING: %d runs requested. Durations are buffered in memory until consumed.\n", c.Runs)
	}

	if c.Runs < 0 {
		issues = append(issues, "runs must be >= 0")
	}
	if c.Warmup < 0 {
		issues = append(issues, "warmup must be >= 0")
	}
	if c.ChunkSize < 0 {
		issues = append(issues, "chunk-size must be >= 0")
	}
	if c.Dir != "" {
		if info, err := os.Stat(c.Dir); err != nil || !info.IsDir() {
			issues = append(issues, fmt.Sprintf("dir %q is not a readable directory", c.Dir))
		}
	}

	switch c.ExportType {
	case "", ExportCSV, ExportHTML, ExportNone:
	default:
		issues = append(issues, fmt.Sprintf("export-type must be 'csv', 'html', or 'none', got %q", c.ExportType))
	}

	switch c.Format {
	case "", FormatText, FormatJSON, FormatYAML:
	default:
		issues = append(issues, fmt.Sprintf("format must be 'text', 'json', or 'yaml', got %q", c.Format))
	}

	if c.Dashboard && c.Format != "" && c.Format != FormatText {
		issues = append(issues, "dashboard requires text format")
	}

	if lvl := strings.TrimSpace(c.LogLevel); lvl != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(lvl)); err != nil {
			issues = append(issues, fmt.Sprintf("log-level %q is not one of debug, info, warn, error", c.LogLevel))
		}
	}

	for idx, path := range c.Merge {
		if strings.TrimSpace(path) == "" {
			issues = append(issues, fmt.Sprintf("merge[%d]: path is empty", idx))
		}
	}

	issues = append(issues, validateTracingConfig(c.Tracing)...)

	if c.Tracing.Enabled() && c.Tracing.Insecure {
		fmt.Fprintln(os.Stderr, "WARNING: tracing TLS is DISABLED (insecure: true). Spans are sent in plaintext.")
	}

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

func validateTracingConfig(t TracingConfig) []string {
	var issues []string
	switch strings.ToLower(strings.TrimSpace(t.Protocol)) {
	case "", "grpc", "http":
	default:
		issues = append(issues, fmt.Sprintf("tracing: protocol must be 'grpc' or 'http', got %q", t.Protocol))
	}
	if t.SampleRate < 0 || t.SampleRate > 1 {
		issues = append(issues, fmt.Sprintf("tracing: sample_rate must be between 0.0 and 1.0, got %g", t.SampleRate))
	}
	return issues
}

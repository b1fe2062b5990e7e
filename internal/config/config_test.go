package config

import (
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func validConfig() Config {
	return Config{
		Binary:     "/bin/true",
		Runs:       10,
		Warmup:     1,
		ChunkSize:  5,
		ExportType: ExportCSV,
		Format:     FormatText,
		LogLevel:   "warn",
		Tracing:    TracingConfig{Protocol: "grpc", SampleRate: 1},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing binary", mutate: func(c *Config) { c.Binary = " " }, wantErr: "binary is required"},
		{name: "negative runs", mutate: func(c *Config) { c.Runs = -1 }, wantErr: "runs must be >= 0"},
		{name: "negative warmup", mutate: func(c *Config) { c.Warmup = -1 }, wantErr: "warmup must be >= 0"},
		{name: "negative chunk size", mutate: func(c *Config) { c.ChunkSize = -5 }, wantErr: "chunk-size must be >= 0"},
		{name: "zero runs allowed", mutate: func(c *Config) { c.Runs = 0 }},
		{name: "bad export type", mutate: func(c *Config) { c.ExportType = "pdf" }, wantErr: "export-type"},
		{name: "bad format", mutate: func(c *Config) { c.Format = "xml" }, wantErr: "format must be"},
		{name: "dashboard with json", mutate: func(c *Config) { c.Dashboard = true; c.Format = FormatJSON }, wantErr: "dashboard requires text format"},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantErr: "log-level"},
		{name: "missing dir", mutate: func(c *Config) { c.Dir = "/definitely/not/here" }, wantErr: "not a readable directory"},
		{name: "empty merge path", mutate: func(c *Config) { c.Merge = []string{""} }, wantErr: "merge[0]"},
		{name: "bad tracing protocol", mutate: func(c *Config) { c.Tracing.Protocol = "udp" }, wantErr: "tracing: protocol"},
		{name: "bad sample rate", mutate: func(c *Config) { c.Tracing.SampleRate = 1.5 }, wantErr: "sample_rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want it to contain %q", err, tt.wantErr)
			}
			var verr ValidationError
			if !errors.As(err, &verr) || len(verr.Issues()) == 0 {
				t.Fatalf("expected ValidationError with issues, got %T", err)
			}
		})
	}
}

func TestValidateCollectsAllIssues(t *testing.T) {
	cfg := Config{Runs: -1, Warmup: -1}
	err := cfg.Validate()
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if n := len(verr.Issues()); n != 3 {
		t.Fatalf("expected 3 issues, got %d: %v", n, verr.Issues())
	}
}

func TestOutputBaseAndTraceLabel(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantBase  string
		wantLabel string
	}{
		{
			name:      "derived from binary",
			cfg:       Config{Binary: "/usr/local/bin/mytool", Runs: 100},
			wantBase:  "mytool_100",
			wantLabel: "mytool_100",
		},
		{
			name:      "trace name wins for both",
			cfg:       Config{Binary: "/bin/x", Runs: 1, TraceName: "baseline"},
			wantBase:  "baseline",
			wantLabel: "baseline",
		},
		{
			name:      "explicit file",
			cfg:       Config{Binary: "/bin/x", ExportFile: "results/run1"},
			wantBase:  "results/run1",
			wantLabel: "run1",
		},
		{
			name:      "no binary",
			cfg:       Config{Runs: 5},
			wantBase:  "bench_results_5",
			wantLabel: "bench_results_5",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.OutputBase(); got != tt.wantBase {
				t.Errorf("OutputBase() = %q, want %q", got, tt.wantBase)
			}
			if got := tt.cfg.TraceLabel(); got != tt.wantLabel {
				t.Errorf("TraceLabel() = %q, want %q", got, tt.wantLabel)
			}
		})
	}
}

func TestSlogLevel(t *testing.T) {
	if got := (Config{LogLevel: "debug"}).SlogLevel(); got != slog.LevelDebug {
		t.Errorf("SlogLevel(debug) = %v", got)
	}
	if got := (Config{}).SlogLevel(); got != slog.LevelWarn {
		t.Errorf("SlogLevel(empty) = %v, want warn", got)
	}
}

func TestRunConfig(t *testing.T) {
	cfg := validConfig()
	cfg.Args = []string{"-c", "echo hi"}
	cfg.PrintInitial = true
	cfg.Dir = "/tmp"

	rc := cfg.RunConfig()
	if rc.Binary != cfg.Binary || rc.Runs != 10 || rc.Warmup != 1 || rc.ChunkSize != 5 || !rc.PrintInitial || rc.Dir != "/tmp" {
		t.Fatalf("unexpected run config %+v", rc)
	}
	rc.Args[0] = "changed"
	if cfg.Args[0] != "-c" {
		t.Fatal("RunConfig must copy Args")
	}
	if rc.Stop != nil || rc.Logger != nil {
		t.Fatal("caller-owned fields must be left unset")
	}
}

package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader handles loading configuration from files and command-line arguments.
type Loader struct{}

// ErrHelpRequested is returned when the user requests help via --help flag.
var ErrHelpRequested = errors.New("help requested")

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses command-line arguments and configuration files to produce a Config.
// Positional arguments name the binary and its arguments when --binary is not set.
func (Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	if helpFlag := flagSet.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
	}

	// If no arguments provided and no config file, show help/usage
	configPath := flagSet.Lookup("config").Value.String()
	if len(args) == 0 && configPath == "" {
		displayHelp(cmd)
		return nil, ErrHelpRequested
	}
	cfgViper := viper.New()
	if configPath != "" {
		cfgViper.SetConfigFile(configPath)
		if err := cfgViper.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	settings := cfgViper.AllSettings()

	cfg := &Config{
		Runs:       DefaultRuns,
		Warmup:     DefaultWarmup,
		ChunkSize:  DefaultChunkSize,
		ExportType: ExportCSV,
		Format:     FormatText,
		LogLevel:   "warn",
		ConfigFile: configPath,
		Tracing:    TracingConfig{Protocol: "grpc", SampleRate: 1.0},
	}

	if err := applyConfigSettings(cfg, settings); err != nil {
		return nil, err
	}

	if err := applyFlagOverrides(cfg, flagSet); err != nil {
		return nil, err
	}

	if positional := flagSet.Args(); len(positional) > 0 {
		if cfg.Binary == "" {
			cfg.Binary = positional[0]
			positional = positional[1:]
		}
		cfg.Args = append(cfg.Args, positional...)
	}

	cfg.Binary = strings.TrimSpace(cfg.Binary)
	cfg.ExportType = ExportType(strings.ToLower(string(cfg.ExportType)))
	cfg.Format = ReportFormat(strings.ToLower(string(cfg.Format)))

	return cfg, nil
}

// applyConfigSettings applies settings from a config file to the Config struct.
func applyConfigSettings(cfg *Config, settings map[string]interface{}) error {
	if len(settings) == 0 {
		return nil
	}

	if raw, ok := lookupSetting(settings, "binary"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("binary: %w", err)
		}
		cfg.Binary = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "args"); ok {
		// A plain string is split like --args; a list is kept verbatim.
		if s, isString := raw.(string); isString {
			cfg.Args = splitArgs(s)
		} else {
			vals, err := asStringSlice(raw)
			if err != nil {
				return fmt.Errorf("args: %w", err)
			}
			cfg.Args = vals
		}
	}

	if raw, ok := lookupSetting(settings, "dir"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("dir: %w", err)
		}
		cfg.Dir = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "runs"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("runs: %w", err)
		}
		cfg.Runs = val
	}

	if raw, ok := lookupSetting(settings, "warmup"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("warmup: %w", err)
		}
		cfg.Warmup = val
	}

	if raw, ok := lookupSetting(settings, "printinitial", "print_initial", "print-initial"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("printInitial: %w", err)
		}
		cfg.PrintInitial = val
	}

	if raw, ok := lookupSetting(settings, "chunksize", "chunk_size", "chunk-size"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("chunkSize: %w", err)
		}
		cfg.ChunkSize = val
	}

	if raw, ok := lookupSetting(settings, "exporttype", "export_type", "export-type"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("exportType: %w", err)
		}
		if val != "" {
			cfg.ExportType = ExportType(strings.TrimSpace(val))
		}
	}

	if raw, ok := lookupSetting(settings, "exportfile", "export_file", "export-file"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("exportFile: %w", err)
		}
		cfg.ExportFile = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "tracename", "trace_name", "trace-name"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("traceName: %w", err)
		}
		cfg.TraceName = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "merge"); ok {
		vals, err := asStringSlice(raw)
		if err != nil {
			return fmt.Errorf("merge: %w", err)
		}
		cfg.Merge = vals
	}

	if raw, ok := lookupSetting(settings, "promtextfile", "prom_textfile", "prom-textfile"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("promTextfile: %w", err)
		}
		cfg.PromTextfile = strings.TrimSpace(val)
	}

	if raw, ok := lookupSetting(settings, "format"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("format: %w", err)
		}
		if val != "" {
			cfg.Format = ReportFormat(strings.TrimSpace(val))
		}
	}

	if raw, ok := lookupSetting(settings, "dashboard"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("dashboard: %w", err)
		}
		cfg.Dashboard = val
	}

	if raw, ok := lookupSetting(settings, "noprogress", "no_progress", "no-progress"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("noProgress: %w", err)
		}
		cfg.NoProgress = val
	}

	if raw, ok := lookupSetting(settings, "loglevel", "log_level", "log-level"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("logLevel: %w", err)
		}
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(val))
	}

	if raw, ok := lookupSetting(settings, "thresholds"); ok {
		vals, err := asStringSlice(raw)
		if err != nil {
			return fmt.Errorf("thresholds: %w", err)
		}
		cfg.Thresholds = vals
	}

	if raw, ok := lookupSetting(settings, "tracing"); ok {
		if err := applyTracingSettings(&cfg.Tracing, raw); err != nil {
			return fmt.Errorf("tracing: %w", err)
		}
	}

	return nil
}

func applyTracingSettings(t *TracingConfig, raw interface{}) error {
	settings, err := toStringKeyMap(raw)
	if err != nil {
		return err
	}

	if raw, ok := lookupSetting(settings, "endpoint"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("endpoint: %w", err)
		}
		t.Endpoint = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(settings, "protocol"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("protocol: %w", err)
		}
		t.Protocol = strings.ToLower(strings.TrimSpace(val))
	}
	if raw, ok := lookupSetting(settings, "insecure"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("insecure: %w", err)
		}
		t.Insecure = val
	}
	if raw, ok := lookupSetting(settings, "samplerate", "sample_rate", "sample-rate"); ok {
		val, err := asFloat64(raw)
		if err != nil {
			return fmt.Errorf("sample_rate: %w", err)
		}
		t.SampleRate = val
	}
	if raw, ok := lookupSetting(settings, "servicename", "service_name", "service-name"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("service_name: %w", err)
		}
		t.ServiceName = strings.TrimSpace(val)
	}
	return nil
}

package config

import "github.com/torosent/precipice/internal/bench"

// RunConfig converts the validated configuration into engine settings. The
// caller wires Stop, the console writers, Logger and Observer.
func (c Config) RunConfig() bench.RunConfig {
	return bench.RunConfig{
		Binary:       c.Binary,
		Args:         append([]string(nil), c.Args...),
		Runs:         c.Runs,
		Warmup:       c.Warmup,
		PrintInitial: c.PrintInitial,
		ChunkSize:    c.ChunkSize,
		Dir:          c.Dir,
	}
}

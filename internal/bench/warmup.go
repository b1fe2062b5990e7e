package bench

import (
	"context"
	"log/slog"
)

// warmup runs the target cfg.Warmup times in capture mode. It reports false
// when a run exited unsuccessfully, which ends the session without timing.
func (s *session) warmup(ctx context.Context) (bool, error) {
	for i := 0; i < s.cfg.Warmup; i++ {
		inv, err := s.inv.Invoke(ctx, ModeCapture)
		if err != nil {
			return false, err
		}
		s.warmups++
		s.cfg.Observer.warmup(i, inv)

		if i == 0 && s.cfg.PrintInitial && len(inv.Stdout) > 0 {
			_, _ = s.cfg.Stdout.Write(inv.Stdout)
		}
		if len(inv.Stderr) > 0 {
			_, _ = s.cfg.Stderr.Write(inv.Stderr)
		}

		if !inv.Success {
			s.log.Warn("warmup run failed, skipping timed runs",
				slog.Int("iteration", i),
				slog.Int("exit_code", inv.ExitCode),
			)
			return false, nil
		}
	}
	return true, nil
}

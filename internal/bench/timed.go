package bench

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

var errGateClosed = errors.New("gate closed")

// timed runs the target cfg.Runs times in silent mode, checking the gate
// before each chunk. The final chunk is cut short so no more than cfg.Runs
// durations are pushed.
func (s *session) timed(ctx context.Context) error {
	for chunk := 0; chunk < s.cfg.Runs; chunk += s.cfg.ChunkSize {
		if !s.cfg.Stop.ShouldContinue() {
			s.log.Debug("stop requested", slog.Int("completed", s.emitted))
			return errGateClosed
		}
		end := min(chunk+s.cfg.ChunkSize, s.cfg.Runs)
		for i := chunk; i < end; i++ {
			if err := s.timeOnce(ctx, i); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *session) timeOnce(ctx context.Context, index int) error {
	begin := time.Now()
	inv, err := s.inv.Invoke(ctx, ModeSilent)
	elapsed := time.Since(begin)
	if err != nil {
		return err
	}

	if !inv.Success {
		s.failures++
		s.log.Warn("run exited unsuccessfully",
			slog.Int("run", index),
			slog.Int("exit_code", inv.ExitCode),
		)
		s.cfg.Observer.runFailure(index, inv)
	}

	if err := s.stream.Push(elapsed); err != nil {
		return err
	}
	s.emitted++
	s.cfg.Observer.run(index, elapsed, inv)
	return nil
}

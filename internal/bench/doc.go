// Package bench provides the execution engine for precipice.
//
// A session repeatedly runs an external program and streams the wall-clock
// duration of every timed invocation to the caller:
//   - An optional warmup phase that runs the target untimed
//   - A timed phase split into fixed-size chunks
//   - Cooperative cancellation checked between chunks
//   - An unbounded, ordered stream of durations
//
// # Basic Usage
//
// Build a [RunConfig] and hand it to [Start]:
//
//	stop := make(chan struct{})
//	handle, stream := bench.Start(ctx, bench.RunConfig{
//		Binary: "/usr/bin/sleep",
//		Args:   []string{"0"},
//		Runs:   100,
//		Warmup: 1,
//		Stop:   bench.ChanGate(stop),
//	})
//	for d := range stream.C() {
//		fmt.Println(d)
//	}
//	outcome := handle.Wait()
//
// Start returns immediately. All invocations run sequentially on one
// goroutine owned by the session.
//
// # Cancellation
//
// The [Gate] interface has a single non-blocking query, ShouldContinue. It is
// consulted once per chunk, so at most ChunkSize-1 further runs happen after a
// stop is signalled. Cancelling the ctx passed to Start kills the running
// child instead.
//
// # Outcomes
//
// [Handle.Wait] resolves to an [Outcome]. Only spawn failures and a stream
// closed by its consumer set Outcome.Err. Warmup failure and cancellation
// complete normally and are told apart by [Outcome.Reason] and the number of
// durations received.
package bench

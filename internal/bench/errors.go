package bench

import (
	"errors"
	"fmt"
)

// ErrSpawn matches any *SpawnError via errors.Is.
var ErrSpawn = errors.New("spawn failed")

// ErrStreamClosed is returned by Stream.Push once the consumer has abandoned
// the stream.
var ErrStreamClosed = errors.New("result stream closed")

// SpawnError reports that the target program could not be started at all.
// A program that started and exited non-zero is not a SpawnError.
type SpawnError struct {
	Binary string
	Err    error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %s: %v", e.Binary, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

func (e *SpawnError) Is(target error) bool {
	return target == ErrSpawn
}

package bench

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
)

// Mode selects how an invocation treats the target's output streams.
type Mode int

const (
	// ModeCapture collects stdout and stderr. Used during warmup.
	ModeCapture Mode = iota
	// ModeSilent sends both streams to the null device so I/O never
	// pollutes a measurement. Used during timed runs.
	ModeSilent
)

func (m Mode) String() string {
	switch m {
	case ModeCapture:
		return "capture"
	case ModeSilent:
		return "silent"
	default:
		return "unknown"
	}
}

// Invocation is the result of running the target once.
type Invocation struct {
	Success  bool
	ExitCode int
	Stdout   []byte // ModeCapture only
	Stderr   []byte // ModeCapture only
}

// Invoker runs the target program once and blocks until it exits.
// A program that ran and exited non-zero yields Success=false and a nil error.
// A program that could not be started yields a *SpawnError.
type Invoker interface {
	Invoke(ctx context.Context, mode Mode) (Invocation, error)
}

// ExecInvoker runs a binary through os/exec.
type ExecInvoker struct {
	Binary string
	Args   []string
	Dir    string
}

// NewExecInvoker builds an invoker for binary. An empty dir resolves to the
// current working directory when it can be read, and to no explicit
// directory otherwise.
func NewExecInvoker(binary string, args []string, dir string) *ExecInvoker {
	if dir == "" {
		dir = currentDir()
	}
	return &ExecInvoker{
		Binary: binary,
		Args:   append([]string(nil), args...),
		Dir:    dir,
	}
}

func currentDir() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	info, err := os.Stat(cwd)
	if err != nil || !info.IsDir() {
		return ""
	}
	return cwd
}

func (e *ExecInvoker) Invoke(ctx context.Context, mode Mode) (Invocation, error) {
	cmd := exec.CommandContext(ctx, e.Binary, e.Args...)
	cmd.Dir = e.Dir

	// Nil Stdout/Stderr are wired to the null device by os/exec.
	var stdout, stderr bytes.Buffer
	if mode == ModeCapture {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}

	err := cmd.Run()
	inv := Invocation{
		Stdout: stdout.Bytes(),
		Stderr: stderr.Bytes(),
	}
	if err == nil {
		inv.Success = true
		return inv, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return inv, ctxErr
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		inv.ExitCode = exitErr.ExitCode()
		return inv, nil
	}
	return inv, &SpawnError{Binary: e.Binary, Err: err}
}

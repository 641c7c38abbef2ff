package sandbox

import (
	"context"
	"errors"
	"os/exec"
)

const defaultMaxOutput = 1 << 20

// LocalExecutor runs commands through the host's POSIX shell. It is
// the simplest sandbox substrate and the reference for executor
// behavior: combined output, real exit codes, truncation above the
// configured cap.
type LocalExecutor struct {
	shell     string
	maxOutput int
}

// LocalOption configures a LocalExecutor.
type LocalOption func(*LocalExecutor)

// WithShell overrides the shell binary, default /bin/sh.
func WithShell(shell string) LocalOption {
	return func(e *LocalExecutor) { e.shell = shell }
}

// WithMaxOutput caps captured output in bytes.
func WithMaxOutput(n int) LocalOption {
	return func(e *LocalExecutor) { e.maxOutput = n }
}

// NewLocalExecutor builds a local shell executor.
func NewLocalExecutor(opts ...LocalOption) *LocalExecutor {
	e := &LocalExecutor{
		shell:     "/bin/sh",
		maxOutput: defaultMaxOutput,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute implements Executor. A non-zero exit is a normal result, not
// an error; errors are reserved for failures to run the shell at all.
func (e *LocalExecutor) Execute(ctx context.Context, command string) (Result, error) {
	cmd := exec.CommandContext(ctx, e.shell, "-c", command)
	out, err := cmd.CombinedOutput()

	res := Result{Output: string(out)}
	if len(res.Output) > e.maxOutput {
		res.Output = res.Output[:e.maxOutput]
		res.Truncated = true
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Result{}, err
	}
	return res, nil
}

// Package runner executes the instrumented target binary on one byte
// input and decodes the resulting trace, per §4.A.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/jihwankim/legion-fuzz/pkg/reporting"
)

// DefaultBugReturnCode is the exit code a target uses to signal a
// discovered bug, absent an override.
const DefaultBugReturnCode = 100

// DefaultTimeout is the per-execution hard timeout. §5 calls 30h
// "effectively never" — it exists only as a safety net against a target
// that blocks forever, since cancellation of an in-flight sample is not
// supported.
const DefaultTimeout = 30 * time.Hour

// ErrTimeout is returned when a target execution exceeds its
// per-execution timeout. Per §5 this is fatal for the whole run: the
// caller must exit with code 2, not retry or skip the sample.
var ErrTimeout = errors.New("runner: target execution exceeded its per-execution timeout")

// Config bounds one Runner's executions.
type Config struct {
	BugReturnCode int
	Timeout       time.Duration
}

// Result is one execution's outcome.
type Result struct {
	Trace    []uint64
	Output   []byte
	ExitCode int
	BugFound bool
}

// Runner launches a fixed binary repeatedly, once per Execute call.
type Runner struct {
	binary string
	cfg    Config
	logger *reporting.Logger
}

// New creates a Runner for the given binary path.
func New(binary string, cfg Config, logger *reporting.Logger) *Runner {
	if cfg.BugReturnCode == 0 {
		cfg.BugReturnCode = DefaultBugReturnCode
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Runner{binary: binary, cfg: cfg, logger: logger}
}

// Execute runs the target once with input on stdin, capturing stdout (for
// the test-artefact sink) and decoding the stderr trace stream. It
// returns ErrTimeout, never a partial Result, if the per-execution
// timeout is exceeded.
func (r *Runner) Execute(ctx context.Context, input []byte) (Result, error) {
	execCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, r.binary)
	cmd.Stdin = bytes.NewReader(input)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	if execCtx.Err() == context.DeadlineExceeded {
		if r.logger != nil {
			r.logger.Error("target execution timed out", "binary", r.binary, "timeout", r.cfg.Timeout.String())
		}
		return Result{}, ErrTimeout
	}

	trace, decodeErr := DecodeTrace(stderr.Bytes())
	if decodeErr != nil {
		return Result{}, fmt.Errorf("runner: %w (binary %s)", decodeErr, r.binary)
	}

	exitCode := 0
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		exitCode = exitErr.ExitCode()
	} else if runErr != nil {
		return Result{}, fmt.Errorf("runner: failed to launch %s: %w", r.binary, runErr)
	}

	return Result{
		Trace:    trace,
		Output:   stdout.Bytes(),
		ExitCode: exitCode,
		BugFound: exitCode == r.cfg.BugReturnCode,
	}, nil
}

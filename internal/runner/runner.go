// Package runner executes the optional workflow steps (tests, smoke) as
// bounded shell commands and classifies their outcomes.
package runner

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// Status classifies a step outcome.
type Status string

const (
	StatusSkipped       Status = "skipped"
	StatusPassed        Status = "passed"
	StatusFailed        Status = "failed"
	StatusError         Status = "error"
	StatusTimeout       Status = "timeout"
	StatusInstallFailed Status = "install_failed"
)

// Outcome is the immutable result of one step execution.
type Outcome struct {
	Status   Status        `json:"status"`
	Command  string        `json:"command"`
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	ExitCode int           `json:"exit_code"`
	Duration time.Duration `json:"duration"`
}

// Passed reports whether the step completed with a passing status.
func (o Outcome) Passed() bool {
	return o.Status == StatusPassed
}

// execResult carries the raw result of one shell invocation.
type execResult struct {
	stdout   string
	stderr   string
	exitCode int
	timedOut bool
	execErr  error
	duration time.Duration
}

// runShell executes script through `sh -c` in dir, bounded by timeout.
// The full timeout budget applies to this single invocation.
func runShell(ctx context.Context, dir, script string, timeout time.Duration) execResult {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", script)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := execResult{
		stdout:   stdout.String(),
		stderr:   stderr.String(),
		duration: time.Since(start),
	}

	if ctx.Err() == context.DeadlineExceeded {
		res.timedOut = true
		res.exitCode = -1
		return res
	}

	res.exitCode = exitCode(err)
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			// The command never ran (shell missing, bad dir, ...).
			res.execErr = err
		}
	}
	return res
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

package runner

import (
	"context"
	"time"

	"github.com/fyrsmithlabs/autopilot/internal/project"
)

// DefaultTestTimeout bounds a test run when the project configures none.
const DefaultTestTimeout = 5 * time.Minute

// TestRunner runs the project's test command.
type TestRunner struct {
	// Timeout overrides DefaultTestTimeout when positive.
	Timeout time.Duration
}

// Run executes the test command in dir. An empty command falls back to
// the stack's conventional default. Timeout expiry and commands that
// cannot start both classify as StatusError; a nonzero exit is
// StatusFailed. Output is captured in every case.
func (r TestRunner) Run(ctx context.Context, dir, command string, stack project.Stack) Outcome {
	if command == "" {
		command = stack.DefaultTestCommand()
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTestTimeout
	}

	res := runShell(ctx, dir, command, timeout)
	out := Outcome{
		Command:  command,
		Stdout:   res.stdout,
		Stderr:   res.stderr,
		ExitCode: res.exitCode,
		Duration: res.duration,
	}

	switch {
	case res.timedOut, res.execErr != nil:
		out.Status = StatusError
	case res.exitCode == 0:
		out.Status = StatusPassed
	default:
		out.Status = StatusFailed
	}
	return out
}

package runner

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fyrsmithlabs/autopilot/internal/project"
)

// DefaultSmokeTimeout bounds each smoke sub-step when the caller
// supplies none.
const DefaultSmokeTimeout = 60 * time.Second

// SmokeRunner runs a project's smoke check against one runtime target.
type SmokeRunner struct {
	// Timeout applies independently to the install sub-step and the
	// smoke command; each gets the full budget.
	Timeout time.Duration
}

// Run selects the smoke target (backend preferred, frontend fallback)
// and executes it. When the target defines an install step, a nonzero
// install exit short-circuits with StatusInstallFailed and the smoke
// command is not attempted. Timeout expiry classifies as StatusTimeout.
func (r SmokeRunner) Run(ctx context.Context, dir string, cfg *project.Config) Outcome {
	target, ok := cfg.SmokeTarget()
	if !ok {
		return Outcome{Status: StatusSkipped}
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultSmokeTimeout
	}

	workDir := dir
	if target.WorkDir != "" {
		if filepath.IsAbs(target.WorkDir) {
			workDir = target.WorkDir
		} else {
			workDir = filepath.Join(dir, target.WorkDir)
		}
	}

	if target.Install != "" {
		install := runShell(ctx, workDir, target.Install, timeout)
		if install.timedOut {
			return Outcome{
				Status:   StatusTimeout,
				Command:  target.Install,
				Stdout:   install.stdout,
				Stderr:   install.stderr,
				ExitCode: install.exitCode,
				Duration: install.duration,
			}
		}
		if install.execErr != nil || install.exitCode != 0 {
			return Outcome{
				Status:   StatusInstallFailed,
				Command:  target.Install,
				Stdout:   install.stdout,
				Stderr:   install.stderr,
				ExitCode: install.exitCode,
				Duration: install.duration,
			}
		}
	}

	res := runShell(ctx, workDir, target.Command, timeout)
	out := Outcome{
		Command:  target.Command,
		Stdout:   res.stdout,
		Stderr:   res.stderr,
		ExitCode: res.exitCode,
		Duration: res.duration,
	}

	switch {
	case res.timedOut:
		out.Status = StatusTimeout
	case res.execErr != nil:
		out.Status = StatusError
	case res.exitCode == 0:
		out.Status = StatusPassed
	default:
		out.Status = StatusFailed
	}
	return out
}

package runner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/autopilot/internal/project"
)

func TestTestRunner_Passed(t *testing.T) {
	out := TestRunner{}.Run(context.Background(), t.TempDir(), "echo ok", project.StackPython)

	assert.Equal(t, StatusPassed, out.Status)
	assert.Equal(t, 0, out.ExitCode)
	assert.Contains(t, out.Stdout, "ok")
}

func TestTestRunner_Failed(t *testing.T) {
	out := TestRunner{}.Run(context.Background(), t.TempDir(), "echo boom >&2; exit 3", project.StackPython)

	assert.Equal(t, StatusFailed, out.Status)
	assert.Equal(t, 3, out.ExitCode)
	assert.Contains(t, out.Stderr, "boom")
}

func TestTestRunner_DefaultCommandPerStack(t *testing.T) {
	out := TestRunner{Timeout: time.Second}.Run(context.Background(), t.TempDir(), "", project.StackGo)
	assert.Equal(t, "go test ./...", out.Command)
}

func TestTestRunner_TimeoutClassifiesAsError(t *testing.T) {
	out := TestRunner{Timeout: 100 * time.Millisecond}.Run(
		context.Background(), t.TempDir(), "sleep 5", project.StackPython)

	assert.Equal(t, StatusError, out.Status)
}

func TestTestRunner_BadWorkingDirectoryIsError(t *testing.T) {
	out := TestRunner{}.Run(context.Background(), "/nonexistent/path/xyz", "echo hi", project.StackPython)
	assert.Equal(t, StatusError, out.Status)
}

func smokeConfig(backend, frontend project.SmokeTarget) *project.Config {
	return &project.Config{
		Language: "python",
		Stack:    project.StackPython,
		Smoke:    project.SmokeConfig{Backend: backend, Frontend: frontend},
	}
}

func TestSmokeRunner_BackendPreferred(t *testing.T) {
	cfg := smokeConfig(
		project.SmokeTarget{Command: "echo backend"},
		project.SmokeTarget{Command: "echo frontend"},
	)

	out := SmokeRunner{}.Run(context.Background(), t.TempDir(), cfg)

	require.Equal(t, StatusPassed, out.Status)
	assert.Contains(t, out.Stdout, "backend")
}

func TestSmokeRunner_FrontendFallback(t *testing.T) {
	cfg := smokeConfig(project.SmokeTarget{}, project.SmokeTarget{Command: "echo frontend"})

	out := SmokeRunner{}.Run(context.Background(), t.TempDir(), cfg)

	require.Equal(t, StatusPassed, out.Status)
	assert.Contains(t, out.Stdout, "frontend")
}

func TestSmokeRunner_NoTargetSkips(t *testing.T) {
	out := SmokeRunner{}.Run(context.Background(), t.TempDir(), smokeConfig(project.SmokeTarget{}, project.SmokeTarget{}))
	assert.Equal(t, StatusSkipped, out.Status)
}

func TestSmokeRunner_InstallFailureShortCircuits(t *testing.T) {
	cfg := smokeConfig(project.SmokeTarget{Install: "exit 1", Command: "echo never"}, project.SmokeTarget{})

	out := SmokeRunner{}.Run(context.Background(), t.TempDir(), cfg)

	assert.Equal(t, StatusInstallFailed, out.Status)
	assert.Equal(t, "exit 1", out.Command)
	assert.NotContains(t, out.Stdout, "never")
}

func TestSmokeRunner_TimeoutDoesNotPanic(t *testing.T) {
	cfg := smokeConfig(project.SmokeTarget{Command: "sleep 5"}, project.SmokeTarget{})

	out := SmokeRunner{Timeout: 100 * time.Millisecond}.Run(context.Background(), t.TempDir(), cfg)

	assert.Equal(t, StatusTimeout, out.Status)
}

func TestSmokeRunner_FailedCommand(t *testing.T) {
	cfg := smokeConfig(project.SmokeTarget{Command: "exit 7"}, project.SmokeTarget{})

	out := SmokeRunner{}.Run(context.Background(), t.TempDir(), cfg)

	assert.Equal(t, StatusFailed, out.Status)
	assert.Equal(t, 7, out.ExitCode)
}

package project

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// ConfigFileName is the per-project configuration file expected at the
// project working directory root.
const ConfigFileName = "autopilot.yaml"

// SmokeTarget describes one runtime the smoke runner can exercise.
type SmokeTarget struct {
	// Install is an optional dependency-install command run before the
	// smoke command. A nonzero exit short-circuits the smoke step.
	Install string `koanf:"install"`

	// Command is the smoke command itself.
	Command string `koanf:"command"`

	// WorkDir is resolved relative to the project root when not absolute.
	WorkDir string `koanf:"workdir"`
}

// Defined reports whether the target carries a runnable smoke command.
func (t SmokeTarget) Defined() bool {
	return t.Command != ""
}

// SmokeConfig holds the smoke runtime targets. Backend is preferred;
// frontend is the fallback when no backend target is defined.
type SmokeConfig struct {
	Backend  SmokeTarget `koanf:"backend"`
	Frontend SmokeTarget `koanf:"frontend"`
}

// TestConfig holds the test step configuration.
type TestConfig struct {
	// Command overrides the stack-default test command when set.
	Command string `koanf:"command"`

	// Timeout bounds a single test run. Zero means the runner default.
	Timeout time.Duration `koanf:"timeout"`
}

// PolicyOverrides carries per-project governance rule configuration.
// Empty fields fall back to the built-in defaults.
type PolicyOverrides struct {
	ForbiddenPaths      []string            `koanf:"forbidden_paths"`
	RequireTests        *bool               `koanf:"require_tests"`
	AllowedDependencies map[string][]string `koanf:"allowed_dependencies"`
}

// Config is a project's autopilot.yaml.
type Config struct {
	Language string          `koanf:"language"`
	RepoURL  string          `koanf:"repo_url"`
	Test     TestConfig      `koanf:"test"`
	Smoke    SmokeConfig     `koanf:"smoke"`
	Policy   PolicyOverrides `koanf:"policy"`

	// Stack is resolved from Language during load.
	Stack Stack `koanf:"-"`
}

// LoadConfig reads and validates the autopilot.yaml found in dir.
func LoadConfig(dir string) (*Config, error) {
	path := filepath.Join(dir, ConfigFileName)
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project config: %w", err)
	}
	return ParseConfig(content)
}

// ParseConfig parses autopilot.yaml content.
func ParseConfig(content []byte) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("parse project config: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal project config: %w", err)
	}

	if cfg.Language == "" {
		cfg.Language = "python"
	}
	stack, err := ParseStack(cfg.Language)
	if err != nil {
		return nil, err
	}
	cfg.Stack = stack

	return cfg, nil
}

// TestCommand returns the configured test command or the stack default.
func (c *Config) TestCommand() string {
	if c.Test.Command != "" {
		return c.Test.Command
	}
	return c.Stack.DefaultTestCommand()
}

// SmokeTarget selects the runtime target for the smoke step: backend when
// defined, frontend otherwise. The second return is false when neither
// target defines a command.
func (c *Config) SmokeTarget() (SmokeTarget, bool) {
	if c.Smoke.Backend.Defined() {
		return c.Smoke.Backend, true
	}
	if c.Smoke.Frontend.Defined() {
		return c.Smoke.Frontend, true
	}
	return SmokeTarget{}, false
}

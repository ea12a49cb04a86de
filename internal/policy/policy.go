// Package policy evaluates governance rules against a unified diff.
//
// Three rules are applied: forbidden paths (error), require-tests
// (advisory warning), and dependency allow-lists (error). The verdict is
// failing only when at least one error-severity violation exists;
// warnings annotate the result without blocking.
package policy

import (
	"fmt"

	"github.com/fyrsmithlabs/autopilot/internal/project"
)

// Severity classifies a violation.
type Severity string

const (
	// SeverityError violations flip the overall verdict to failing.
	SeverityError Severity = "error"
	// SeverityWarning violations are advisory only.
	SeverityWarning Severity = "warning"
)

// Rule names reported on violations.
const (
	RuleForbiddenPaths = "forbidden_paths"
	RuleRequireTests   = "require_tests"
	RuleAllowedDeps    = "allowed_dependencies"
)

// Violation is one rule finding.
type Violation struct {
	Rule     string   `json:"rule_name"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	FilePath string   `json:"file_path,omitempty"`
}

// Result is the evaluation verdict.
type Result struct {
	// OK is true iff no error-severity violation was found.
	OK bool `json:"ok"`

	Violations []Violation `json:"violations"`
}

// Config holds the rule configuration.
type Config struct {
	// ForbiddenPaths are glob patterns; any changed file matching one
	// produces an error-severity violation.
	ForbiddenPaths []string `koanf:"forbidden_paths"`

	// RequireTests emits a warning when code files change without any
	// accompanying test file change.
	RequireTests bool `koanf:"require_tests"`

	// AllowedDependencies maps a stack name to the dependency names that
	// may be added to its manifests. An empty or missing list disables
	// the rule for that stack.
	AllowedDependencies map[string][]string `koanf:"allowed_dependencies"`
}

// DefaultConfig returns the built-in rule set: secret and credential file
// conventions forbidden, require-tests enabled, no allow-lists.
func DefaultConfig() Config {
	return Config{
		ForbiddenPaths: []string{
			"secrets/**",
			"**/secrets/**",
			".env",
			"**/.env",
			"**/.env.*",
			"*.pem",
			"**/*.pem",
			"*.key",
			"**/*.key",
			"*.p12",
			"**/*.p12",
			"**/credentials*",
			"**/id_rsa*",
		},
		RequireTests:        true,
		AllowedDependencies: map[string][]string{},
	}
}

// Merge applies per-project overrides on top of the receiver and returns
// the effective configuration. Empty override fields keep the base value.
func (c Config) Merge(o project.PolicyOverrides) Config {
	out := c
	if len(o.ForbiddenPaths) > 0 {
		out.ForbiddenPaths = o.ForbiddenPaths
	}
	if o.RequireTests != nil {
		out.RequireTests = *o.RequireTests
	}
	if len(o.AllowedDependencies) > 0 {
		out.AllowedDependencies = o.AllowedDependencies
	}
	return out
}

// AllowedFor returns the allow-list for a stack, nil when the rule is
// inactive for it.
func (c Config) AllowedFor(stack project.Stack) []string {
	deps, ok := c.AllowedDependencies[string(stack)]
	if !ok || len(deps) == 0 {
		return nil
	}
	return deps
}

func errViolation(rule, message, path string) Violation {
	return Violation{Rule: rule, Severity: SeverityError, Message: message, FilePath: path}
}

func warnViolation(rule, message, path string) Violation {
	return Violation{Rule: rule, Severity: SeverityWarning, Message: message, FilePath: path}
}

func forbiddenMessage(path string) string {
	return fmt.Sprintf("file %q matches a forbidden path pattern", path)
}

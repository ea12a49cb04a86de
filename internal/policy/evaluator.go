package policy

import (
	"fmt"
	"path"
	"strings"

	"github.com/fyrsmithlabs/autopilot/internal/diff"
	"github.com/fyrsmithlabs/autopilot/internal/project"
)

// Evaluator applies a rule configuration to diffs.
type Evaluator struct {
	config Config
}

// NewEvaluator creates an evaluator. A zero-value config gets the
// built-in defaults.
func NewEvaluator(cfg Config) *Evaluator {
	if len(cfg.ForbiddenPaths) == 0 && cfg.AllowedDependencies == nil {
		cfg = DefaultConfig()
	}
	return &Evaluator{config: cfg}
}

// Evaluate checks the diff against all rules for the given stack. It
// never fails: malformed diffs simply produce fewer findings.
func (e *Evaluator) Evaluate(diffText string, stack project.Stack) Result {
	files := diff.Parse(diffText)

	var violations []Violation
	violations = append(violations, e.checkForbiddenPaths(files)...)
	violations = append(violations, e.checkRequireTests(files, stack)...)
	violations = append(violations, e.checkAllowedDependencies(files, stack)...)

	ok := true
	for _, v := range violations {
		if v.Severity == SeverityError {
			ok = false
			break
		}
	}
	if violations == nil {
		violations = []Violation{}
	}
	return Result{OK: ok, Violations: violations}
}

func (e *Evaluator) checkForbiddenPaths(files []diff.FileDiff) []Violation {
	var out []Violation
	for _, f := range files {
		for _, pattern := range e.config.ForbiddenPaths {
			if matchGlob(pattern, f.Path) {
				out = append(out, errViolation(RuleForbiddenPaths, forbiddenMessage(f.Path), f.Path))
				break
			}
		}
	}
	return out
}

func (e *Evaluator) checkRequireTests(files []diff.FileDiff, stack project.Stack) []Violation {
	if !e.config.RequireTests {
		return nil
	}

	var codeChanged, testChanged bool
	for _, f := range files {
		if matchAny(stack.TestGlobs(), f.Path) {
			testChanged = true
			continue
		}
		if matchAny(stack.CodeGlobs(), f.Path) {
			codeChanged = true
		}
	}

	if codeChanged && !testChanged {
		return []Violation{warnViolation(
			RuleRequireTests,
			"code files changed without accompanying test changes",
			"",
		)}
	}
	return nil
}

func (e *Evaluator) checkAllowedDependencies(files []diff.FileDiff, stack project.Stack) []Violation {
	allowed := e.config.AllowedFor(stack)
	if allowed == nil {
		return nil
	}

	allowSet := make(map[string]struct{}, len(allowed))
	for _, name := range allowed {
		allowSet[strings.ToLower(name)] = struct{}{}
	}

	var out []Violation
	for _, f := range files {
		base := path.Base(f.Path)
		if !contains(stack.ManifestFiles(), base) {
			continue
		}
		format := stack.ManifestFormatFor(base)
		for _, line := range f.AddedLines {
			name := extractDependencyName(line, format)
			if name == "" {
				continue
			}
			if _, ok := allowSet[strings.ToLower(name)]; !ok {
				out = append(out, errViolation(
					RuleAllowedDeps,
					fmt.Sprintf("dependency %q is not on the allow-list", name),
					f.Path,
				))
			}
		}
	}
	return out
}

// structuralManifestKeys are JSON manifest keys that name sections, not
// dependencies.
var structuralManifestKeys = map[string]bool{
	"name":             true,
	"version":          true,
	"description":      true,
	"main":             true,
	"license":          true,
	"scripts":          true,
	"dependencies":     true,
	"devDependencies":  true,
	"peerDependencies": true,
}

// extractDependencyName pulls a dependency name from one added manifest
// line. Flat manifests split on a version separator; JSON-like manifests
// take the quoted key.
func extractDependencyName(line string, format project.ManifestFormat) string {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
		return ""
	}

	switch format {
	case project.ManifestJSON:
		// `"express": "^4.18.0",` -> express
		if !strings.HasPrefix(line, `"`) {
			return ""
		}
		rest := line[1:]
		end := strings.IndexByte(rest, '"')
		if end <= 0 || !strings.Contains(rest[end:], ":") {
			return ""
		}
		name := rest[:end]
		if structuralManifestKeys[name] {
			return ""
		}
		return name
	default:
		// `requests==2.0`, `flask>=1.0`, or `golang.org/x/sync v0.19.0`.
		for _, sep := range []string{"==", ">=", "<=", "~=", "!=", ">", "<", "=", " ", "\t"} {
			if i := strings.Index(line, sep); i > 0 {
				return strings.TrimSpace(line[:i])
			}
		}
		return line
	}
}

// matchGlob matches a path against a single glob pattern. path.Match has
// no "**"; patterns with a "**/" prefix additionally match against every
// path suffix, and bare patterns also match the basename.
func matchGlob(pattern, p string) bool {
	if ok, _ := path.Match(pattern, p); ok {
		return true
	}

	if strings.HasPrefix(pattern, "**/") {
		trimmed := strings.TrimPrefix(pattern, "**/")
		if matchGlob(trimmed, p) {
			return true
		}
		parts := strings.Split(p, "/")
		for i := 1; i < len(parts); i++ {
			if matchGlob(trimmed, strings.Join(parts[i:], "/")) {
				return true
			}
		}
		return false
	}

	if strings.HasSuffix(pattern, "/**") {
		prefix := strings.TrimSuffix(pattern, "/**")
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}

	if !strings.Contains(pattern, "/") {
		if ok, _ := path.Match(pattern, path.Base(p)); ok {
			return true
		}
	}
	return false
}

func matchAny(patterns []string, p string) bool {
	for _, pattern := range patterns {
		if matchGlob(pattern, p) {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// Package project provides the project model: stack profiles, per-project
// configuration loaded from autopilot.yaml, and the clone cache used by the
// workflow coordinator.
package project

import (
	"fmt"
	"strings"
)

// Stack is the closed set of supported technology stacks. A stack carries
// its own command defaults, file classification globs, and dependency
// manifest conventions; it is resolved once at configuration-load time.
type Stack string

const (
	StackPython Stack = "python"
	StackGo     Stack = "go"
	StackNode   Stack = "node"
)

// ParseStack resolves a configured language name to a Stack.
func ParseStack(name string) (Stack, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "python", "py":
		return StackPython, nil
	case "go", "golang":
		return StackGo, nil
	case "node", "nodejs", "javascript", "typescript":
		return StackNode, nil
	default:
		return "", fmt.Errorf("unsupported stack %q", name)
	}
}

// DefaultTestCommand returns the conventional test command for the stack,
// used when a project does not configure one explicitly.
func (s Stack) DefaultTestCommand() string {
	switch s {
	case StackGo:
		return "go test ./..."
	case StackNode:
		return "npm test"
	default:
		return "python -m pytest"
	}
}

// CodeGlobs returns patterns identifying source files for the stack.
func (s Stack) CodeGlobs() []string {
	switch s {
	case StackGo:
		return []string{"*.go"}
	case StackNode:
		return []string{"*.js", "*.jsx", "*.ts", "*.tsx"}
	default:
		return []string{"*.py"}
	}
}

// TestGlobs returns patterns identifying test files for the stack.
func (s Stack) TestGlobs() []string {
	switch s {
	case StackGo:
		return []string{"*_test.go"}
	case StackNode:
		return []string{"*.test.js", "*.test.ts", "*.spec.js", "*.spec.ts", "__tests__/**"}
	default:
		return []string{"test_*.py", "*_test.py", "tests/**"}
	}
}

// ManifestFiles returns the dependency manifest basenames for the stack.
func (s Stack) ManifestFiles() []string {
	switch s {
	case StackGo:
		return []string{"go.mod"}
	case StackNode:
		return []string{"package.json"}
	default:
		return []string{"requirements.txt", "requirements-dev.txt"}
	}
}

// ManifestFormat describes how dependency names are extracted from added
// manifest lines.
type ManifestFormat int

const (
	// ManifestFlat is one dependency per line with a version separator,
	// e.g. requirements.txt or go.mod require lines.
	ManifestFlat ManifestFormat = iota
	// ManifestJSON is a JSON-like manifest where dependencies appear as
	// quoted keys, e.g. package.json.
	ManifestJSON
)

// ManifestFormatFor returns the extraction heuristic for a manifest basename.
func (s Stack) ManifestFormatFor(basename string) ManifestFormat {
	if s == StackNode && basename == "package.json" {
		return ManifestJSON
	}
	return ManifestFlat
}

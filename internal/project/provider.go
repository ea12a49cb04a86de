package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fyrsmithlabs/autopilot/internal/registry"
)

// ErrNotFound indicates the project is unknown or has no usable working
// directory on disk.
var ErrNotFound = errors.New("project not found")

// Provider resolves registered projects to their configuration and
// working directory.
type Provider interface {
	// Load returns the project's parsed autopilot.yaml.
	Load(projectID string) (*Config, error)

	// WorkingDir returns the project's checkout directory on disk.
	WorkingDir(projectID string) (string, error)
}

// DirProvider resolves projects to subdirectories of a workspace root,
// consulting the registry for existence. The layout is
// <root>/<project_id>/ with autopilot.yaml at the project root.
type DirProvider struct {
	root     string
	registry *registry.Registry
}

// NewDirProvider creates a provider over the given workspace root.
func NewDirProvider(root string, reg *registry.Registry) *DirProvider {
	return &DirProvider{root: root, registry: reg}
}

// WorkingDir implements Provider.
func (p *DirProvider) WorkingDir(projectID string) (string, error) {
	if p.registry != nil {
		if _, err := p.registry.Get(projectID); err != nil {
			return "", fmt.Errorf("%w: %s", ErrNotFound, projectID)
		}
	}

	dir := filepath.Join(p.root, projectID)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: no working directory for %s", ErrNotFound, projectID)
	}
	return dir, nil
}

// Load implements Provider.
func (p *DirProvider) Load(projectID string) (*Config, error) {
	dir, err := p.WorkingDir(projectID)
	if err != nil {
		return nil, err
	}

	cfg, err := LoadConfig(dir)
	if err != nil {
		if os.IsNotExist(err) || errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s has no %s", ErrNotFound, projectID, ConfigFileName)
		}
		return nil, err
	}
	return cfg, nil
}

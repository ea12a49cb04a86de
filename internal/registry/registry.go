// Package registry tracks projects registered with the autopilot service.
//
// The registry is a small JSON file on disk; every mutation rewrites the
// file atomically. It stores identity and metadata only — working
// directories and per-project configuration live with the project itself.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

var (
	// ErrNotFound indicates the project id is not registered.
	ErrNotFound = errors.New("project not registered")

	// ErrExists indicates the project id is already registered.
	ErrExists = errors.New("project already registered")
)

// Project is one registry entry.
type Project struct {
	ProjectID    string            `json:"project_id"`
	RepoURL      string            `json:"repo_url"`
	Metadata     map[string]string `json:"metadata"`
	RegisteredAt time.Time         `json:"registered_at"`
}

// Registry is a file-backed project registry safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	path     string
	projects map[string]Project
}

// Open loads the registry at path, creating the parent directory if
// needed. A missing or unreadable file starts an empty registry.
func Open(path string) (*Registry, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create registry directory: %w", err)
		}
	}

	r := &Registry{path: path, projects: make(map[string]Project)}

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, fmt.Errorf("read registry: %w", err)
	}

	if err := json.Unmarshal(content, &r.projects); err != nil {
		// A corrupt registry starts fresh rather than blocking startup.
		r.projects = make(map[string]Project)
	}
	return r, nil
}

// Register adds a project. Returns ErrExists for a duplicate id.
func (r *Registry) Register(projectID, repoURL string, metadata map[string]string) (Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.projects[projectID]; ok {
		return Project{}, fmt.Errorf("%w: %s", ErrExists, projectID)
	}
	if metadata == nil {
		metadata = map[string]string{}
	}

	p := Project{
		ProjectID:    projectID,
		RepoURL:      repoURL,
		Metadata:     metadata,
		RegisteredAt: time.Now().UTC(),
	}
	r.projects[projectID] = p

	if err := r.save(); err != nil {
		delete(r.projects, projectID)
		return Project{}, err
	}
	return p, nil
}

// Get returns a project by id.
func (r *Registry) Get(projectID string) (Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.projects[projectID]
	if !ok {
		return Project{}, fmt.Errorf("%w: %s", ErrNotFound, projectID)
	}
	return p, nil
}

// List returns every registered project ordered by id.
func (r *Registry) List() []Project {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Project, 0, len(r.projects))
	for _, p := range r.projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProjectID < out[j].ProjectID })
	return out
}

// Unregister removes a project. Returns ErrNotFound for an unknown id.
func (r *Registry) Unregister(projectID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.projects[projectID]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, projectID)
	}
	delete(r.projects, projectID)
	return r.save()
}

// UpdateMetadata merges metadata into an existing project's entry.
func (r *Registry) UpdateMetadata(projectID string, metadata map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.projects[projectID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, projectID)
	}
	for k, v := range metadata {
		p.Metadata[k] = v
	}
	r.projects[projectID] = p
	return r.save()
}

// save writes the registry atomically: temp file then rename.
func (r *Registry) save() error {
	content, err := json.MarshalIndent(r.projects, "", "  ")
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, content, 0o600); err != nil {
		return fmt.Errorf("write registry: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("replace registry: %w", err)
	}
	return nil
}

// Package gitrepo wraps the version-control collaborator: local
// repository operations through go-git and change-request creation
// through the GitHub API (or a stub when no token is configured).
package gitrepo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

// Repo is the consumed interface of a local repository checkout. All
// operations are synchronous and return the underlying failure.
type Repo interface {
	// Dir is the checkout root on disk.
	Dir() string

	// CreateBranch creates and checks out a branch.
	CreateBranch(name string) error

	// CommitAll stages every change and commits it.
	CommitAll(message string) error

	// Push pushes the current branch to origin using token auth.
	Push(token string) error

	// Diff returns the unified diff between baseRef and HEAD.
	Diff(baseRef string) (string, error)

	// WriteFile writes a file relative to the checkout root, creating
	// parent directories.
	WriteFile(rel string, content []byte) error

	// ReadFile reads a file relative to the checkout root.
	ReadFile(rel string) ([]byte, error)

	// Exists reports whether a path exists under the checkout root.
	Exists(rel string) bool
}

// gitRepo implements Repo over go-git.
type gitRepo struct {
	dir  string
	repo *git.Repository
}

// Open opens an existing checkout.
func Open(dir string) (Repo, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", dir, err)
	}
	return &gitRepo{dir: dir, repo: repo}, nil
}

// Clone clones url into dir and returns the checkout.
func Clone(url, dir string) (Repo, error) {
	repo, err := git.PlainClone(dir, false, &git.CloneOptions{URL: url})
	if err != nil {
		return nil, fmt.Errorf("clone %s: %w", url, err)
	}
	return &gitRepo{dir: dir, repo: repo}, nil
}

func (r *gitRepo) Dir() string {
	return r.dir
}

func (r *gitRepo) CreateBranch(name string) error {
	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("worktree: %w", err)
	}
	err = wt.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(name),
		Create: true,
	})
	if err != nil {
		return fmt.Errorf("create branch %s: %w", name, err)
	}
	return nil
}

func (r *gitRepo) CommitAll(message string) error {
	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("worktree: %w", err)
	}
	if err := wt.AddGlob("."); err != nil {
		return fmt.Errorf("stage changes: %w", err)
	}
	_, err = wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "autopilot",
			Email: "autopilot@fyrsmithlabs.com",
			When:  time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *gitRepo) Push(token string) error {
	opts := &git.PushOptions{RemoteName: "origin"}
	if token != "" {
		opts.Auth = &githttp.BasicAuth{Username: "x-access-token", Password: token}
	}
	if err := r.repo.Push(opts); err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("push: %w", err)
	}
	return nil
}

func (r *gitRepo) Diff(baseRef string) (string, error) {
	baseHash, err := r.repo.ResolveRevision(plumbing.Revision(baseRef))
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", baseRef, err)
	}
	baseCommit, err := r.repo.CommitObject(*baseHash)
	if err != nil {
		return "", fmt.Errorf("base commit: %w", err)
	}

	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("head: %w", err)
	}
	headCommit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return "", fmt.Errorf("head commit: %w", err)
	}

	patch, err := baseCommit.Patch(headCommit)
	if err != nil {
		return "", fmt.Errorf("diff %s..HEAD: %w", baseRef, err)
	}
	return patch.String(), nil
}

func (r *gitRepo) WriteFile(rel string, content []byte) error {
	path := filepath.Join(r.dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	return nil
}

func (r *gitRepo) ReadFile(rel string) ([]byte, error) {
	content, err := os.ReadFile(filepath.Join(r.dir, rel))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rel, err)
	}
	return content, nil
}

func (r *gitRepo) Exists(rel string) bool {
	_, err := os.Stat(filepath.Join(r.dir, rel))
	return err == nil
}

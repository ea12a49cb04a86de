package gitrepo

import (
	"context"
	"fmt"
	"regexp"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// ChangeRequestSpec describes a change request to open.
type ChangeRequestSpec struct {
	Owner string
	Repo  string
	Title string
	Body  string
	Head  string
	Base  string
}

// ChangeRequest is the created review request.
type ChangeRequest struct {
	Number int    `json:"number"`
	URL    string `json:"url"`
	Stub   bool   `json:"stub,omitempty"`
}

// ChangeRequests creates change requests against a hosting provider.
type ChangeRequests interface {
	Create(ctx context.Context, spec ChangeRequestSpec) (*ChangeRequest, error)
}

// githubChangeRequests creates real pull requests via the GitHub API.
type githubChangeRequests struct {
	client *github.Client
}

// NewGitHubChangeRequests creates a token-authenticated GitHub client.
func NewGitHubChangeRequests(ctx context.Context, token string) (ChangeRequests, error) {
	if token == "" {
		return nil, fmt.Errorf("github token not set")
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return &githubChangeRequests{client: github.NewClient(oauth2.NewClient(ctx, ts))}, nil
}

func (g *githubChangeRequests) Create(ctx context.Context, spec ChangeRequestSpec) (*ChangeRequest, error) {
	pr, _, err := g.client.PullRequests.Create(ctx, spec.Owner, spec.Repo, &github.NewPullRequest{
		Title: github.String(spec.Title),
		Body:  github.String(spec.Body),
		Head:  github.String(spec.Head),
		Base:  github.String(spec.Base),
	})
	if err != nil {
		return nil, fmt.Errorf("create pull request: %w", err)
	}
	return &ChangeRequest{Number: pr.GetNumber(), URL: pr.GetHTMLURL()}, nil
}

// StubChangeRequests fabricates deterministic change requests for
// installations without a hosting token. The workflow report marks the
// result as a stub.
type StubChangeRequests struct{}

func (StubChangeRequests) Create(_ context.Context, spec ChangeRequestSpec) (*ChangeRequest, error) {
	return &ChangeRequest{
		Number: 0,
		URL:    fmt.Sprintf("stub://%s/%s/pulls/%s", spec.Owner, spec.Repo, spec.Head),
		Stub:   true,
	}, nil
}

var (
	sshRemotePattern   = regexp.MustCompile(`git@github\.com:([^/]+)/([^/]+?)(?:\.git)?$`)
	httpsRemotePattern = regexp.MustCompile(`github\.com/([^/]+)/([^/]+?)(?:\.git)?$`)
)

// ParseOwnerRepo extracts the owner and repository name from a GitHub
// remote URL, supporting SSH and HTTPS forms.
func ParseOwnerRepo(url string) (owner, repo string, err error) {
	for _, pattern := range []*regexp.Regexp{sshRemotePattern, httpsRemotePattern} {
		if m := pattern.FindStringSubmatch(url); len(m) == 3 {
			return m[1], m[2], nil
		}
	}
	return "", "", fmt.Errorf("unrecognized repository URL %q", url)
}

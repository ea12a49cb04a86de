package http

import (
	"github.com/fyrsmithlabs/autopilot/internal/monitor"
	"github.com/fyrsmithlabs/autopilot/internal/policy"
	"github.com/fyrsmithlabs/autopilot/internal/workflow"
)

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// RunWorkflowRequest is the request body for POST /api/v1/workflows/run.
// DryRun defaults to true when omitted; every destructive step must be
// opted into.
type RunWorkflowRequest struct {
	WorkflowType string `json:"workflow_type"`
	ProjectID    string `json:"project_id"`
	ContractPath string `json:"contract_path"`

	DryRun     *bool `json:"dry_run"`
	RunCodegen bool  `json:"run_codegen"`
	RunTests   bool  `json:"run_tests"`
	CreatePR   bool  `json:"create_pr"`
	RunSmoke   bool  `json:"run_smoke"`
	RunBugfix  bool  `json:"run_bugfix"`

	BranchName    string `json:"branch_name"`
	CommitMessage string `json:"commit_message"`
	PushBranch    bool   `json:"push_branch"`
	PRBase        string `json:"pr_base"`
	PRTitle       string `json:"pr_title"`
	PRBody        string `json:"pr_body"`

	// SmokeTimeout is in seconds; zero selects the default.
	SmokeTimeout int `json:"smoke_timeout"`
}

// RunWorkflowResponse is the response body for POST /api/v1/workflows/run.
type RunWorkflowResponse struct {
	WorkflowID string `json:"workflow_id"`
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`

	Steps   []string       `json:"steps"`
	Details map[string]any `json:"details,omitempty"`

	WorkflowStatus *workflow.Status `json:"workflow_status,omitempty"`
	TestsPassed    *bool            `json:"tests_passed,omitempty"`
	SmokePassed    *bool            `json:"smoke_passed,omitempty"`
	GovernanceOK   *bool            `json:"governance_ok,omitempty"`
}

// RegisterProjectRequest is the request body for POST /api/v1/projects/register.
type RegisterProjectRequest struct {
	ProjectID string            `json:"project_id"`
	RepoURL   string            `json:"repo_url"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// EvaluatePolicyRequest is the request body for POST /api/v1/policy/evaluate.
type EvaluatePolicyRequest struct {
	Diff     string `json:"diff"`
	Language string `json:"language"`
}

// EvaluatePolicyResponse is the response body for POST /api/v1/policy/evaluate.
type EvaluatePolicyResponse struct {
	OK         bool               `json:"ok"`
	Violations []policy.Violation `json:"violations"`
}

// MonitorCheckRequest is the request body for POST /api/v1/monitor/check.
type MonitorCheckRequest struct {
	ProjectID string   `json:"project_id"`
	Files     []string `json:"files"`
	MaxLines  int      `json:"max_lines"`
}

// MonitorCheckResponse is the response body for POST /api/v1/monitor/check.
type MonitorCheckResponse struct {
	Summary  string          `json:"summary"`
	Issues   []monitor.Issue `json:"issues"`
	Scanned  int             `json:"scanned_lines"`
	Critical int             `json:"critical"`
	Errors   int             `json:"errors"`
	Warnings int             `json:"warnings"`
}

// FeatureIdeaRequest is the request body for POST /api/v1/ideas/feature.
type FeatureIdeaRequest struct {
	Idea    string            `json:"idea"`
	Context map[string]string `json:"context,omitempty"`
}

// FeatureIdeaResponse is the response body for POST /api/v1/ideas/feature.
type FeatureIdeaResponse struct {
	Contract string   `json:"contract"`
	Valid    bool     `json:"valid"`
	Missing  []string `json:"missing,omitempty"`
}

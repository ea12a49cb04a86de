package workflow

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind selects the step sequence a run follows.
type Kind string

const (
	KindFeature Kind = "feature"
	KindBugfix  Kind = "bugfix"
)

// ParseKind resolves a workflow kind name.
func ParseKind(name string) (Kind, error) {
	switch name {
	case "feature":
		return KindFeature, nil
	case "bugfix":
		return KindBugfix, nil
	default:
		return "", fmt.Errorf("unsupported workflow kind %q", name)
	}
}

// Outcome is the outer result classification of a run: whether the
// workflow was carried out, rejected on a precondition, or aborted on a
// fatal step error.
type Outcome string

const (
	OutcomeAccepted Outcome = "accepted"
	OutcomeRejected Outcome = "rejected"
	OutcomeError    Outcome = "error"
)

// Request is the immutable input of one workflow run. Zero values for the
// optional fields are defaulted by Normalize before execution.
type Request struct {
	Kind         Kind   `json:"workflow_type"`
	ProjectID    string `json:"project_id"`
	ContractPath string `json:"contract_path,omitempty"`

	DryRun              bool `json:"dry_run"`
	RunCodegen          bool `json:"run_codegen"`
	RunTests            bool `json:"run_tests"`
	CreateChangeRequest bool `json:"create_pr"`
	RunSmoke            bool `json:"run_smoke"`
	RunRemediation      bool `json:"run_bugfix"`

	BranchName    string `json:"branch_name,omitempty"`
	CommitMessage string `json:"commit_message,omitempty"`
	PushBranch    bool   `json:"push_branch"`
	Base          string `json:"pr_base,omitempty"`
	Title         string `json:"pr_title,omitempty"`
	Body          string `json:"pr_body,omitempty"`

	SmokeTimeout time.Duration `json:"-"`
}

// Normalize fills execution-time defaults in place.
func (r *Request) Normalize() {
	if r.Base == "" {
		r.Base = "main"
	}
	if r.SmokeTimeout <= 0 {
		r.SmokeTimeout = 60 * time.Second
	}
	if r.BranchName == "" {
		r.BranchName = "autopilot/" + uuid.NewString()[:8]
	}
	if r.CommitMessage == "" {
		r.CommitMessage = "autopilot: apply generated changes"
	}
	if r.Title == "" {
		r.Title = r.CommitMessage
	}
}

// Report is the consolidated result of one run. Steps is the ordered,
// complete log of step names attempted, skipped entries included. The
// nilable summary fields stay nil when the corresponding step did not
// run.
type Report struct {
	WorkflowID string  `json:"workflow_id"`
	Outcome    Outcome `json:"status"`
	Message    string  `json:"message,omitempty"`

	Steps       []string       `json:"steps"`
	StepResults map[string]any `json:"details,omitempty"`

	WorkflowStatus *Status `json:"workflow_status,omitempty"`
	TestsPassed    *bool   `json:"tests_passed,omitempty"`
	SmokePassed    *bool   `json:"smoke_passed,omitempty"`
	GovernanceOK   *bool   `json:"governance_ok,omitempty"`
}

func (r *Report) step(name string) {
	r.Steps = append(r.Steps, name)
}

func (r *Report) skip(name string) {
	r.Steps = append(r.Steps, name+" (skipped)")
}

func (r *Report) record(name string, result any) {
	if r.StepResults == nil {
		r.StepResults = make(map[string]any)
	}
	r.StepResults[name] = result
}

// newWorkflowID combines the project id with a UTC timestamp. Uniqueness
// is time-based only.
func newWorkflowID(projectID string, now time.Time) string {
	return fmt.Sprintf("%s-%s", projectID, now.UTC().Format("20060102T150405Z"))
}

package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/autopilot/internal/llm"
	"github.com/fyrsmithlabs/autopilot/internal/policy"
	"github.com/fyrsmithlabs/autopilot/internal/project"
	"github.com/fyrsmithlabs/autopilot/internal/registry"
	"github.com/fyrsmithlabs/autopilot/internal/workflow"
)

type fakeRunner struct {
	last   workflow.Request
	report *workflow.Report
}

func (f *fakeRunner) Run(_ context.Context, req workflow.Request) *workflow.Report {
	f.last = req
	if f.report != nil {
		return f.report
	}
	return &workflow.Report{
		WorkflowID: "shop-20260829T120000Z",
		Outcome:    workflow.OutcomeAccepted,
		Message:    "validated, dry run: no steps executed",
		Steps:      []string{"config", "contract", "dry_run"},
	}
}

type fakeLLM struct {
	response string
}

func (f *fakeLLM) Complete(context.Context, llm.CompletionRequest) (string, error) {
	return f.response, nil
}

type testServer struct {
	server *Server
	runner *fakeRunner
	root   string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	root := t.TempDir()
	reg, err := registry.Open(filepath.Join(root, "registry.json"))
	require.NoError(t, err)

	runner := &fakeRunner{}
	contractDoc := "## Summary\ns\n## Problem Statement\np\n## API Design\na\n## Acceptance Criteria\nc\n## Tests\nt\n"
	srv, err := NewServer(
		runner, reg, project.NewDirProvider(root, reg), &fakeLLM{response: contractDoc},
		policy.DefaultConfig(), zap.NewNop(), nil,
	)
	require.NoError(t, err)
	return &testServer{server: srv, runner: runner, root: root}
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestRunWorkflow_DryRunDefaultsTrue(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/workflows/run",
		`{"workflow_type":"feature","project_id":"shop","contract_path":"contract.md"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, ts.runner.last.DryRun)
	assert.Equal(t, workflow.KindFeature, ts.runner.last.Kind)

	var resp RunWorkflowResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "accepted", resp.Status)
	assert.Equal(t, "shop-20260829T120000Z", resp.WorkflowID)
	assert.Nil(t, resp.WorkflowStatus)
}

func TestRunWorkflow_ExplicitFlags(t *testing.T) {
	ts := newTestServer(t)
	status := workflow.StatusFailedTests
	passed := false
	ts.runner.report = &workflow.Report{
		WorkflowID:     "shop-x",
		Outcome:        workflow.OutcomeAccepted,
		WorkflowStatus: &status,
		TestsPassed:    &passed,
	}

	rec := ts.do(t, http.MethodPost, "/api/v1/workflows/run",
		`{"workflow_type":"bugfix","project_id":"shop","dry_run":false,"run_tests":true,"run_bugfix":true,"smoke_timeout":120}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, ts.runner.last.DryRun)
	assert.True(t, ts.runner.last.RunTests)
	assert.True(t, ts.runner.last.RunRemediation)
	assert.Equal(t, float64(120), ts.runner.last.SmokeTimeout.Seconds())

	var resp RunWorkflowResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.WorkflowStatus)
	assert.Equal(t, workflow.StatusFailedTests, *resp.WorkflowStatus)
	require.NotNil(t, resp.TestsPassed)
	assert.False(t, *resp.TestsPassed)
}

func TestRunWorkflow_Validation(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/workflows/run", `{"workflow_type":"feature"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/workflows/run", `{"workflow_type":"deploy","project_id":"shop"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterAndListProjects(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/projects/register",
		`{"project_id":"shop","repo_url":"https://github.com/acme/shop.git","metadata":{"team":"payments"}}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/projects/register",
		`{"project_id":"shop","repo_url":"https://github.com/acme/shop.git"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/projects", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var projects []registry.Project
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &projects))
	require.Len(t, projects, 1)
	assert.Equal(t, "shop", projects[0].ProjectID)

	rec = ts.do(t, http.MethodPost, "/api/v1/projects/register", `{"project_id":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEvaluatePolicy(t *testing.T) {
	ts := newTestServer(t)
	diff := "diff --git a/secrets/api.key b/secrets/api.key\n--- /dev/null\n+++ b/secrets/api.key\n@@ -0,0 +1 @@\n+x\n"
	body, err := json.Marshal(EvaluatePolicyRequest{Diff: diff, Language: "python"})
	require.NoError(t, err)

	rec := ts.do(t, http.MethodPost, "/api/v1/policy/evaluate", string(body))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp EvaluatePolicyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.OK)
	require.NotEmpty(t, resp.Violations)
	assert.Equal(t, "forbidden_paths", resp.Violations[0].Rule)

	rec = ts.do(t, http.MethodPost, "/api/v1/policy/evaluate", `{"language":"python"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/policy/evaluate", `{"diff":"x","language":"cobol"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMonitorCheck(t *testing.T) {
	ts := newTestServer(t)
	reg := ts.server.registry
	_, err := reg.Register("shop", "https://github.com/acme/shop.git", nil)
	require.NoError(t, err)
	dir := filepath.Join(ts.root, "shop")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.log"), []byte("ERROR broken\n"), 0o644))

	rec := ts.do(t, http.MethodPost, "/api/v1/monitor/check",
		`{"project_id":"shop","files":["app.log"]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp MonitorCheckResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Issues, 1)
	assert.Equal(t, 1, resp.Errors)

	rec = ts.do(t, http.MethodPost, "/api/v1/monitor/check",
		`{"project_id":"shop","files":["../outside.log"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/monitor/check",
		`{"project_id":"ghost","files":["app.log"]}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFeatureIdea(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/v1/ideas/feature",
		`{"idea":"checkout flow","context":{"stack":"python"}}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp FeatureIdeaResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Valid)
	assert.Contains(t, resp.Contract, "Summary")

	rec = ts.do(t, http.MethodPost, "/api/v1/ideas/feature", `{"idea":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// Package workflow sequences delivery steps for a project and resolves
// their outcomes into one terminal status. Two kinds are supported:
// feature delivery (contract validation, generation, tests, governance,
// change request, smoke) and bugfix (tests plus remediation).
package workflow

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/autopilot/internal/bugfix"
	"github.com/fyrsmithlabs/autopilot/internal/codegen"
	"github.com/fyrsmithlabs/autopilot/internal/contract"
	"github.com/fyrsmithlabs/autopilot/internal/gitrepo"
	"github.com/fyrsmithlabs/autopilot/internal/policy"
	"github.com/fyrsmithlabs/autopilot/internal/project"
	"github.com/fyrsmithlabs/autopilot/internal/runner"
)

const instrumentationName = "github.com/fyrsmithlabs/autopilot/internal/workflow"

// Step names appearing in the report's ordered step log.
const (
	stepConfig        = "config"
	stepContract      = "contract"
	stepRepo          = "repo"
	stepDryRun        = "dry_run"
	stepCodegen       = "codegen"
	stepTests         = "tests"
	stepRemediation   = "remediation"
	stepPolicy        = "policy"
	stepChangeRequest = "change_request"
	stepSmoke         = "smoke"
)

// Generator drafts and applies code changes from a design contract.
type Generator interface {
	Generate(ctx context.Context, repo gitrepo.Repo, contractPath string, cfg *project.Config) (*codegen.Result, error)
}

// Suggester proposes a fix for a failing test step.
type Suggester interface {
	Suggest(ctx context.Context, failing bugfix.FailingTest) bugfix.Result
}

// TestExecutor runs the project's test command.
type TestExecutor interface {
	Run(ctx context.Context, dir, command string, stack project.Stack) runner.Outcome
}

// SmokeExecutor runs the project's smoke target.
type SmokeExecutor interface {
	Run(ctx context.Context, dir string, cfg *project.Config) runner.Outcome
}

// Config holds coordinator-level settings.
type Config struct {
	// GitHubToken authenticates pushes and change-request creation.
	GitHubToken string

	// Policy is the service-level rule configuration; per-project
	// overrides are merged on top at evaluation time.
	Policy policy.Config
}

// Coordinator runs workflows. One instance serves all projects; runs are
// synchronous and independent, with no mutual exclusion per project.
type Coordinator struct {
	cfg       Config
	projects  project.Provider
	cache     *project.Cache
	generator Generator
	suggester Suggester
	changes   gitrepo.ChangeRequests
	logger    *zap.Logger

	// openRepo, tests, and smoke are replaceable seams; nil selects the
	// real implementation (runners are built per run from project and
	// request settings).
	openRepo func(dir string) (gitrepo.Repo, error)
	tests    TestExecutor
	smoke    SmokeExecutor

	tracer trace.Tracer
	meter  metric.Meter

	runCounter     metric.Int64Counter
	failureCounter metric.Int64Counter
}

// NewCoordinator creates a coordinator.
func NewCoordinator(cfg Config, projects project.Provider, cache *project.Cache, generator Generator, suggester Suggester, changes gitrepo.ChangeRequests, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cache == nil {
		cache = project.NewCache()
	}
	c := &Coordinator{
		cfg:       cfg,
		projects:  projects,
		cache:     cache,
		generator: generator,
		suggester: suggester,
		changes:   changes,
		logger:    logger,
		openRepo:  gitrepo.Open,
		tracer:    otel.Tracer(instrumentationName),
		meter:     otel.Meter(instrumentationName),
	}
	c.initMetrics()
	return c
}

// Run executes one workflow and always returns a structured report; no
// failure crosses this boundary as an error.
func (c *Coordinator) Run(ctx context.Context, req Request) *Report {
	req.Normalize()

	ctx, span := c.tracer.Start(ctx, "workflow.run")
	defer span.End()
	span.SetAttributes(
		attribute.String("workflow.kind", string(req.Kind)),
		attribute.String("workflow.project_id", req.ProjectID),
		attribute.Bool("workflow.dry_run", req.DryRun),
	)

	report := &Report{WorkflowID: newWorkflowID(req.ProjectID, time.Now())}
	logger := c.logger.With(
		zap.String("workflow_id", report.WorkflowID),
		zap.String("kind", string(req.Kind)),
		zap.String("project_id", req.ProjectID),
	)
	logger.Info("workflow started")

	switch req.Kind {
	case KindFeature:
		c.runFeature(ctx, req, report, logger)
	case KindBugfix:
		c.runBugfix(ctx, req, report, logger)
	default:
		reject(report, fmt.Sprintf("unsupported workflow kind %q", req.Kind))
	}

	c.count(ctx, req, report)
	logger.Info("workflow finished",
		zap.String("outcome", string(report.Outcome)),
		zap.Strings("steps", report.Steps),
	)
	return report
}

func (c *Coordinator) runFeature(ctx context.Context, req Request, report *Report, logger *zap.Logger) {
	cfg, dir, ok := c.loadProject(req, report)
	if !ok {
		return
	}

	if req.ContractPath == "" {
		reject(report, "design contract path is required for feature workflows")
		return
	}
	validation, err := contract.Validate(filepath.Join(dir, req.ContractPath))
	if err != nil {
		reject(report, fmt.Sprintf("design contract not found: %s", req.ContractPath))
		return
	}
	if !validation.Valid {
		reject(report, fmt.Sprintf("design contract incomplete, missing sections: %s",
			strings.Join(validation.Missing, ", ")))
		return
	}
	report.step(stepContract)
	report.record(stepContract, validation)

	if req.DryRun {
		report.step(stepDryRun)
		report.Outcome = OutcomeAccepted
		report.Message = "validated, dry run: no steps executed"
		return
	}

	// The checkout is only opened when a step manipulates it.
	var repo gitrepo.Repo
	if req.RunCodegen || req.CreateChangeRequest {
		repo, err = c.openRepo(dir)
		if err != nil {
			if req.RunCodegen {
				fatal(report, fmt.Sprintf("open repository: %v", err))
				return
			}
			report.step(stepRepo)
			report.record(stepRepo, errDetail(err))
			repo = nil
		}
	}

	if req.RunCodegen {
		if err := repo.CreateBranch(req.BranchName); err != nil {
			fatal(report, fmt.Sprintf("create branch %s: %v", req.BranchName, err))
			return
		}
		result, err := c.generator.Generate(ctx, repo, req.ContractPath, cfg)
		if err != nil {
			fatal(report, fmt.Sprintf("code generation: %v", err))
			return
		}
		if err := repo.CommitAll(req.CommitMessage); err != nil {
			fatal(report, fmt.Sprintf("commit generated changes: %v", err))
			return
		}
		report.step(stepCodegen)
		report.record(stepCodegen, result)
	} else {
		report.skip(stepCodegen)
	}

	testsCheck, testOutcome := c.runTests(ctx, req, cfg, dir, report)
	c.runRemediation(ctx, req, testsCheck, testOutcome, report)

	var governance Check
	if req.CreateChangeRequest {
		governance = c.runPolicy(req, cfg, repo, report)
		c.createChangeRequest(ctx, req, cfg, repo, report, logger)
	} else {
		report.skip(stepPolicy)
		report.skip(stepChangeRequest)
	}

	smokeCheck := c.runSmoke(ctx, req, cfg, dir, report)

	status := Resolve(testsCheck, smokeCheck, req.CreateChangeRequest, governance)
	report.WorkflowStatus = &status
	report.Outcome = OutcomeAccepted
	report.Message = fmt.Sprintf("workflow completed: %s", status)
}

func (c *Coordinator) runBugfix(ctx context.Context, req Request, report *Report, logger *zap.Logger) {
	cfg, dir, ok := c.loadProject(req, report)
	if !ok {
		return
	}
	report.step(stepRepo)
	logger.Debug("resolved working directory", zap.String("dir", dir))

	testsCheck, testOutcome := c.runTests(ctx, req, cfg, dir, report)
	c.runRemediation(ctx, req, testsCheck, testOutcome, report)

	// Smoke and policy never run on the bugfix path.
	status := Resolve(testsCheck, Check{}, false, Check{})
	report.WorkflowStatus = &status
	report.Outcome = OutcomeAccepted
	report.Message = fmt.Sprintf("workflow completed: %s", status)
}

func (c *Coordinator) loadProject(req Request, report *Report) (*project.Config, string, bool) {
	cfg, err := c.projects.Load(req.ProjectID)
	if err != nil {
		reject(report, fmt.Sprintf("project configuration not found: %s", req.ProjectID))
		return nil, "", false
	}
	dir, err := c.projects.WorkingDir(req.ProjectID)
	if err != nil {
		reject(report, fmt.Sprintf("project working directory not found: %s", req.ProjectID))
		return nil, "", false
	}
	report.step(stepConfig)
	c.cache.Put(req.ProjectID, dir)
	return cfg, dir, true
}

func (c *Coordinator) runTests(ctx context.Context, req Request, cfg *project.Config, dir string, report *Report) (Check, runner.Outcome) {
	if !req.RunTests {
		report.skip(stepTests)
		return Check{}, runner.Outcome{Status: runner.StatusSkipped}
	}

	outcome := c.testExecutor(cfg).Run(ctx, dir, cfg.Test.Command, cfg.Stack)
	report.step(stepTests)
	report.record(stepTests, outcome)
	passed := outcome.Passed()
	report.TestsPassed = &passed
	return Check{Ran: true, Passed: passed}, outcome
}

// runRemediation triggers only when tests ran, the test status is exactly
// failed, and remediation was requested. Error-status test outcomes never
// trigger it.
func (c *Coordinator) runRemediation(ctx context.Context, req Request, tests Check, outcome runner.Outcome, report *Report) {
	if !tests.Ran || outcome.Status != runner.StatusFailed || !req.RunRemediation {
		report.skip(stepRemediation)
		return
	}

	fix := c.suggester.Suggest(ctx, bugfix.FailingTest{
		Command:  outcome.Command,
		ExitCode: outcome.ExitCode,
		Stdout:   outcome.Stdout,
		Stderr:   outcome.Stderr,
	})
	report.step(stepRemediation)
	report.record(stepRemediation, fix)
}

// runPolicy evaluates governance rules against the diff to the base ref.
// A failure computing the diff is recorded as a detail and leaves the
// governance check unresolved; it never aborts the workflow.
func (c *Coordinator) runPolicy(req Request, cfg *project.Config, repo gitrepo.Repo, report *Report) Check {
	report.step(stepPolicy)
	if repo == nil {
		report.record(stepPolicy, errDetail(fmt.Errorf("repository unavailable")))
		return Check{}
	}

	diffText, err := repo.Diff(req.Base)
	if err != nil {
		report.record(stepPolicy, errDetail(err))
		return Check{}
	}

	result := policy.NewEvaluator(c.cfg.Policy.Merge(cfg.Policy)).Evaluate(diffText, cfg.Stack)
	report.record(stepPolicy, result)
	report.GovernanceOK = &result.OK
	return Check{Ran: true, Passed: result.OK}
}

// createChangeRequest proceeds regardless of the policy verdict; policy
// is advisory to the report, not a gate on the action. Failures here are
// recorded, never fatal.
func (c *Coordinator) createChangeRequest(ctx context.Context, req Request, cfg *project.Config, repo gitrepo.Repo, report *Report, logger *zap.Logger) {
	owner, name, err := gitrepo.ParseOwnerRepo(cfg.RepoURL)
	if err != nil {
		report.step(stepChangeRequest)
		report.record(stepChangeRequest, errDetail(err))
		return
	}

	if req.PushBranch && repo != nil {
		if err := repo.Push(c.cfg.GitHubToken); err != nil {
			report.step(stepChangeRequest)
			report.record(stepChangeRequest, errDetail(fmt.Errorf("push branch: %w", err)))
			return
		}
	}

	cr, err := c.changes.Create(ctx, gitrepo.ChangeRequestSpec{
		Owner: owner,
		Repo:  name,
		Title: req.Title,
		Body:  req.Body,
		Head:  req.BranchName,
		Base:  req.Base,
	})
	report.step(stepChangeRequest)
	if err != nil {
		report.record(stepChangeRequest, errDetail(err))
		return
	}
	report.record(stepChangeRequest, cr)
	logger.Info("change request created", zap.String("url", cr.URL), zap.Int("number", cr.Number))
}

func (c *Coordinator) runSmoke(ctx context.Context, req Request, cfg *project.Config, dir string, report *Report) Check {
	if !req.RunSmoke {
		report.skip(stepSmoke)
		return Check{}
	}

	outcome := c.smokeExecutor(req).Run(ctx, dir, cfg)
	if outcome.Status == runner.StatusSkipped {
		// No smoke target configured: the step did not run.
		report.skip(stepSmoke)
		report.record(stepSmoke, outcome)
		return Check{}
	}

	report.step(stepSmoke)
	report.record(stepSmoke, outcome)
	passed := outcome.Passed()
	report.SmokePassed = &passed
	return Check{Ran: true, Passed: passed}
}

func (c *Coordinator) testExecutor(cfg *project.Config) TestExecutor {
	if c.tests != nil {
		return c.tests
	}
	return runner.TestRunner{Timeout: cfg.Test.Timeout}
}

func (c *Coordinator) smokeExecutor(req Request) SmokeExecutor {
	if c.smoke != nil {
		return c.smoke
	}
	return runner.SmokeRunner{Timeout: req.SmokeTimeout}
}

func reject(report *Report, message string) {
	report.Outcome = OutcomeRejected
	report.Message = message
}

func fatal(report *Report, message string) {
	report.Outcome = OutcomeError
	report.Message = message
	status := StatusError
	report.WorkflowStatus = &status
}

func errDetail(err error) map[string]string {
	return map[string]string{"error": err.Error()}
}

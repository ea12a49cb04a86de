// Package http provides the HTTP API for the autopilot daemon.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/autopilot/internal/contract"
	"github.com/fyrsmithlabs/autopilot/internal/llm"
	"github.com/fyrsmithlabs/autopilot/internal/monitor"
	"github.com/fyrsmithlabs/autopilot/internal/policy"
	"github.com/fyrsmithlabs/autopilot/internal/project"
	"github.com/fyrsmithlabs/autopilot/internal/registry"
	"github.com/fyrsmithlabs/autopilot/internal/workflow"
)

// WorkflowRunner runs one workflow and always returns a report.
type WorkflowRunner interface {
	Run(ctx context.Context, req workflow.Request) *workflow.Report
}

// Server provides the HTTP endpoints.
type Server struct {
	echo     *echo.Echo
	runner   WorkflowRunner
	registry *registry.Registry
	projects project.Provider
	llm      llm.Client
	policy   policy.Config
	logger   *zap.Logger
	config   *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// NewServer creates the API server.
func NewServer(runner WorkflowRunner, reg *registry.Registry, projects project.Provider, llmClient llm.Client, policyCfg policy.Config, logger *zap.Logger, cfg *Config) (*Server, error) {
	if runner == nil {
		return nil, fmt.Errorf("workflow runner is required")
	}
	if reg == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{Host: "localhost", Port: 8080}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})
	e.Use(NewHTTPMetrics(logger).MetricsMiddleware())

	s := &Server{
		echo:     e,
		runner:   runner,
		registry: reg,
		projects: projects,
		llm:      llmClient,
		policy:   policyCfg,
		logger:   logger,
		config:   cfg,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")
	v1.POST("/workflows/run", s.handleRunWorkflow)
	v1.GET("/projects", s.handleListProjects)
	v1.POST("/projects/register", s.handleRegisterProject)
	v1.POST("/policy/evaluate", s.handleEvaluatePolicy)
	v1.POST("/monitor/check", s.handleMonitorCheck)
	v1.POST("/ideas/feature", s.handleFeatureIdea)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleRunWorkflow(c echo.Context) error {
	var req RunWorkflowRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid workflow request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.ProjectID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "project_id field is required")
	}
	kind, err := workflow.ParseKind(req.WorkflowType)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	// Destructive steps are opt-in: an omitted dry_run means dry run.
	dryRun := true
	if req.DryRun != nil {
		dryRun = *req.DryRun
	}

	report := s.runner.Run(c.Request().Context(), workflow.Request{
		Kind:                kind,
		ProjectID:           req.ProjectID,
		ContractPath:        req.ContractPath,
		DryRun:              dryRun,
		RunCodegen:          req.RunCodegen,
		RunTests:            req.RunTests,
		CreateChangeRequest: req.CreatePR,
		RunSmoke:            req.RunSmoke,
		RunRemediation:      req.RunBugfix,
		BranchName:          req.BranchName,
		CommitMessage:       req.CommitMessage,
		PushBranch:          req.PushBranch,
		Base:                req.PRBase,
		Title:               req.PRTitle,
		Body:                req.PRBody,
		SmokeTimeout:        time.Duration(req.SmokeTimeout) * time.Second,
	})

	return c.JSON(http.StatusOK, RunWorkflowResponse{
		WorkflowID:     report.WorkflowID,
		Status:         string(report.Outcome),
		Message:        report.Message,
		Steps:          report.Steps,
		Details:        report.StepResults,
		WorkflowStatus: report.WorkflowStatus,
		TestsPassed:    report.TestsPassed,
		SmokePassed:    report.SmokePassed,
		GovernanceOK:   report.GovernanceOK,
	})
}

func (s *Server) handleListProjects(c echo.Context) error {
	return c.JSON(http.StatusOK, s.registry.List())
}

func (s *Server) handleRegisterProject(c echo.Context) error {
	var req RegisterProjectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.ProjectID == "" || req.RepoURL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "project_id and repo_url fields are required")
	}

	proj, err := s.registry.Register(req.ProjectID, req.RepoURL, req.Metadata)
	if err != nil {
		if errors.Is(err, registry.ErrExists) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, proj)
}

func (s *Server) handleEvaluatePolicy(c echo.Context) error {
	var req EvaluatePolicyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Diff == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "diff field is required")
	}
	if req.Language == "" {
		req.Language = "python"
	}
	stack, err := project.ParseStack(req.Language)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result := policy.NewEvaluator(s.policy).Evaluate(req.Diff, stack)
	violations := result.Violations
	if violations == nil {
		violations = []policy.Violation{}
	}
	return c.JSON(http.StatusOK, EvaluatePolicyResponse{OK: result.OK, Violations: violations})
}

func (s *Server) handleMonitorCheck(c echo.Context) error {
	var req MonitorCheckRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.ProjectID == "" || len(req.Files) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "project_id and files fields are required")
	}

	dir, err := s.projects.WorkingDir(req.ProjectID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}

	// Log paths are confined to the project working directory.
	paths := make([]string, 0, len(req.Files))
	for _, file := range req.Files {
		if filepath.IsAbs(file) || strings.Contains(file, "..") {
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid log path %q", file))
		}
		paths = append(paths, filepath.Join(dir, file))
	}

	result, err := monitor.Analyze(paths, req.MaxLines)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	issues := result.Issues
	if issues == nil {
		issues = []monitor.Issue{}
	}
	return c.JSON(http.StatusOK, MonitorCheckResponse{
		Summary:  result.Summary,
		Issues:   issues,
		Scanned:  result.Scanned,
		Critical: result.Critical,
		Errors:   result.Errors,
		Warnings: result.Warnings,
	})
}

func (s *Server) handleFeatureIdea(c echo.Context) error {
	var req FeatureIdeaRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Idea) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "idea field is required")
	}
	if s.llm == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "text generation is not configured")
	}

	doc, err := contract.Draft(c.Request().Context(), s.llm, req.Idea, req.Context)
	if err != nil {
		s.logger.Warn("contract draft failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadGateway, "contract drafting failed")
	}

	validation := contract.ValidateContent(doc)
	return c.JSON(http.StatusOK, FeatureIdeaResponse{
		Contract: doc,
		Valid:    validation.Valid,
		Missing:  validation.Missing,
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

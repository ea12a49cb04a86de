// Autopilotd is the autopilot delivery daemon.
//
// It serves the workflow API over HTTP: project registration, feature and
// bugfix workflow runs, policy evaluation, log monitoring, and design
// contract drafting.
//
// Usage:
//
//	# Start with defaults
//	autopilotd
//
//	# Configure via file and environment
//	autopilotd -config /etc/autopilot/config.yaml
//	AUTOPILOT_SERVER_PORT=9090 autopilotd
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/autopilot/internal/bugfix"
	"github.com/fyrsmithlabs/autopilot/internal/codegen"
	"github.com/fyrsmithlabs/autopilot/internal/config"
	"github.com/fyrsmithlabs/autopilot/internal/gitrepo"
	httpapi "github.com/fyrsmithlabs/autopilot/internal/http"
	"github.com/fyrsmithlabs/autopilot/internal/llm"
	"github.com/fyrsmithlabs/autopilot/internal/logging"
	"github.com/fyrsmithlabs/autopilot/internal/project"
	"github.com/fyrsmithlabs/autopilot/internal/registry"
	"github.com/fyrsmithlabs/autopilot/internal/workflow"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path of the YAML configuration file")
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  autopilotd           Start the autopilot daemon\n")
			fmt.Fprintf(os.Stderr, "  autopilotd version   Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

func printVersion() {
	fmt.Printf("autopilotd by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run wires all services and blocks until the context is cancelled.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("starting autopilotd",
		zap.String("version", version),
		zap.String("commit", gitCommit),
		zap.String("workspace", cfg.Workspace.Root),
	)

	if err := os.MkdirAll(cfg.Workspace.Root, 0o755); err != nil {
		return fmt.Errorf("failed to create workspace root: %w", err)
	}

	reg, err := registry.Open(cfg.Workspace.Registry)
	if err != nil {
		return fmt.Errorf("failed to open project registry: %w", err)
	}
	provider := project.NewDirProvider(cfg.Workspace.Root, reg)

	var llmClient llm.Client
	if cfg.LLM.APIKey.IsSet() {
		llmClient, err = llm.New(cfg.LLM)
		if err != nil {
			return fmt.Errorf("failed to create llm client: %w", err)
		}
	} else {
		logger.Warn("llm api key not configured, generation steps will fail")
	}

	var changes gitrepo.ChangeRequests
	if cfg.GitHub.Token.IsSet() {
		changes, err = gitrepo.NewGitHubChangeRequests(ctx, cfg.GitHub.Token.Value())
		if err != nil {
			return fmt.Errorf("failed to create github client: %w", err)
		}
	} else {
		logger.Warn("github token not configured, change requests will be stubbed")
		changes = gitrepo.StubChangeRequests{}
	}

	coordinator := workflow.NewCoordinator(
		workflow.Config{GitHubToken: cfg.GitHub.Token.Value(), Policy: cfg.Policy},
		provider,
		project.NewCache(),
		codegen.NewGenerator(llmClient, logger),
		bugfix.NewSuggester(llmClient, logger),
		changes,
		logger,
	)

	server, err := httpapi.NewServer(coordinator, reg, provider, llmClient, cfg.Policy, logger, &httpapi.Config{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	})
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

// Package main implements the autopilot CLI for manual operations against
// the autopilotd HTTP server.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	httpapi "github.com/fyrsmithlabs/autopilot/internal/http"
)

var (
	// serverURL is the base URL for the autopilotd HTTP server
	serverURL string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "autopilot",
	Short: "CLI for autopilotd workflow operations",
	Long: `autopilot is a command-line interface for the autopilotd daemon.
It runs delivery workflows, evaluates policy against diffs, and manages
registered projects.`,
	Version: version,
}

var runFlags = struct {
	workflowType string
	projectID    string
	contractPath string
	dryRun       bool
	runCodegen   bool
	runTests     bool
	runSmoke     bool
	createPR     bool
	runBugfix    bool
	pushBranch   bool
	branch       string
	base         string
	title        string
	message      string
}{}

var policyLanguage string

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "autopilotd server URL")
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(policyCmd)
	rootCmd.AddCommand(projectsCmd)

	runCmd.Flags().StringVar(&runFlags.workflowType, "type", "feature", "workflow kind (feature or bugfix)")
	runCmd.Flags().StringVar(&runFlags.projectID, "project", "", "registered project id (required)")
	runCmd.Flags().StringVar(&runFlags.contractPath, "contract", "", "design contract path relative to the project root")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", true, "validate only, execute no steps")
	runCmd.Flags().BoolVar(&runFlags.runCodegen, "codegen", false, "generate code from the design contract")
	runCmd.Flags().BoolVar(&runFlags.runTests, "tests", false, "run the project test command")
	runCmd.Flags().BoolVar(&runFlags.runSmoke, "smoke", false, "run the project smoke target")
	runCmd.Flags().BoolVar(&runFlags.createPR, "create-pr", false, "evaluate policy and open a change request")
	runCmd.Flags().BoolVar(&runFlags.runBugfix, "remediate", false, "suggest a fix when tests fail")
	runCmd.Flags().BoolVar(&runFlags.pushBranch, "push", false, "push the branch before opening a change request")
	runCmd.Flags().StringVar(&runFlags.branch, "branch", "", "branch name (generated when empty)")
	runCmd.Flags().StringVar(&runFlags.base, "base", "main", "change request base branch")
	runCmd.Flags().StringVar(&runFlags.title, "title", "", "change request title")
	runCmd.Flags().StringVar(&runFlags.message, "message", "", "commit message")
	_ = runCmd.MarkFlagRequired("project")

	policyCheckCmd.Flags().StringVar(&policyLanguage, "language", "python", "project language for rule selection")
	policyCmd.AddCommand(policyCheckCmd)

	projectsCmd.AddCommand(projectsListCmd)
	projectsCmd.AddCommand(projectsRegisterCmd)
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check autopilotd server health",
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp httpapi.HealthResponse
		if err := getJSON("/health", &resp); err != nil {
			return err
		}
		fmt.Printf("Server Status: %s\n", resp.Status)
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a delivery workflow",
	Long: `Run a feature or bugfix workflow against a registered project.

Examples:
  # Validate a design contract without executing anything
  autopilot run --project shop --contract contracts/checkout.md

  # Full feature delivery
  autopilot run --project shop --contract contracts/checkout.md \
    --dry-run=false --codegen --tests --smoke --create-pr --push

  # Bugfix run with remediation suggestions
  autopilot run --type bugfix --project shop --dry-run=false --tests --remediate`,
	RunE: runWorkflow,
}

func runWorkflow(cmd *cobra.Command, args []string) error {
	dryRun := runFlags.dryRun
	req := httpapi.RunWorkflowRequest{
		WorkflowType:  runFlags.workflowType,
		ProjectID:     runFlags.projectID,
		ContractPath:  runFlags.contractPath,
		DryRun:        &dryRun,
		RunCodegen:    runFlags.runCodegen,
		RunTests:      runFlags.runTests,
		RunSmoke:      runFlags.runSmoke,
		CreatePR:      runFlags.createPR,
		RunBugfix:     runFlags.runBugfix,
		PushBranch:    runFlags.pushBranch,
		BranchName:    runFlags.branch,
		PRBase:        runFlags.base,
		PRTitle:       runFlags.title,
		CommitMessage: runFlags.message,
	}

	var resp httpapi.RunWorkflowResponse
	if err := postJSON("/api/v1/workflows/run", req, &resp); err != nil {
		return err
	}

	fmt.Printf("Workflow:  %s\n", resp.WorkflowID)
	fmt.Printf("Outcome:   %s\n", resp.Status)
	if resp.Message != "" {
		fmt.Printf("Message:   %s\n", resp.Message)
	}
	if resp.WorkflowStatus != nil {
		fmt.Printf("Status:    %s\n", *resp.WorkflowStatus)
	}
	printBool("Tests", resp.TestsPassed)
	printBool("Smoke", resp.SmokePassed)
	printBool("Policy", resp.GovernanceOK)
	fmt.Println("Steps:")
	for _, step := range resp.Steps {
		fmt.Printf("  - %s\n", step)
	}
	return nil
}

func printBool(label string, value *bool) {
	if value == nil {
		return
	}
	verdict := "failed"
	if *value {
		verdict = "passed"
	}
	fmt.Printf("%-10s %s\n", label+":", verdict)
}

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Policy evaluation commands",
}

var policyCheckCmd = &cobra.Command{
	Use:   "check [diff-file]",
	Short: "Evaluate governance rules against a unified diff",
	Long: `Evaluate governance rules against a unified diff read from a file
or stdin.

Examples:
  git diff main | autopilot policy check -
  autopilot policy check changes.diff --language node`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var diff []byte
		var err error
		if len(args) == 0 || args[0] == "-" {
			diff, err = io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("failed to read from stdin: %w", err)
			}
		} else {
			diff, err = os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read file %s: %w", args[0], err)
			}
		}
		if len(diff) == 0 {
			return fmt.Errorf("no diff to evaluate")
		}

		var resp httpapi.EvaluatePolicyResponse
		err = postJSON("/api/v1/policy/evaluate", httpapi.EvaluatePolicyRequest{
			Diff:     string(diff),
			Language: policyLanguage,
		}, &resp)
		if err != nil {
			return err
		}

		for _, v := range resp.Violations {
			if v.FilePath != "" {
				fmt.Printf("[%s] %s: %s (%s)\n", v.Severity, v.Rule, v.Message, v.FilePath)
			} else {
				fmt.Printf("[%s] %s: %s\n", v.Severity, v.Rule, v.Message)
			}
		}
		if !resp.OK {
			return fmt.Errorf("policy check failed")
		}
		fmt.Println("policy check passed")
		return nil
	},
}

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Project registry commands",
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		var projects []struct {
			ProjectID    string `json:"project_id"`
			RepoURL      string `json:"repo_url"`
			RegisteredAt string `json:"registered_at"`
		}
		if err := getJSON("/api/v1/projects", &projects); err != nil {
			return err
		}
		if len(projects) == 0 {
			fmt.Println("no projects registered")
			return nil
		}
		for _, p := range projects {
			fmt.Printf("%s\t%s\t%s\n", p.ProjectID, p.RepoURL, p.RegisteredAt)
		}
		return nil
	},
}

var projectsRegisterCmd = &cobra.Command{
	Use:   "register <project-id> <repo-url>",
	Short: "Register a project",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp json.RawMessage
		err := postJSON("/api/v1/projects/register", httpapi.RegisterProjectRequest{
			ProjectID: args[0],
			RepoURL:   args[1],
		}, &resp)
		if err != nil {
			return err
		}
		fmt.Printf("registered %s\n", args[0])
		return nil
	},
}

func getJSON(path string, out any) error {
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get(serverURL + path)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", serverURL+path, err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func postJSON(path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequest(http.MethodPost, serverURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	// Workflow runs block for up to the test and smoke timeouts.
	client := &http.Client{Timeout: 15 * time.Minute}
	resp, err := client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", serverURL+path, err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out any) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("server returned status %d (failed to read response body: %w)", resp.StatusCode, readErr)
		}
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

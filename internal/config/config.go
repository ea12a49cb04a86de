// Package config provides configuration loading for the autopilot daemon.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fyrsmithlabs/autopilot/internal/logging"
	"github.com/fyrsmithlabs/autopilot/internal/policy"
)

// Config is the daemon configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   logging.Config  `koanf:"logging"`
	Workspace WorkspaceConfig `koanf:"workspace"`
	GitHub    GitHubConfig    `koanf:"github"`
	LLM       LLMConfig       `koanf:"llm"`
	Policy    policy.Config   `koanf:"policy"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// WorkspaceConfig locates project checkouts and the registry file.
type WorkspaceConfig struct {
	// Root contains one subdirectory per registered project.
	Root string `koanf:"root"`

	// Registry is the path of the project registry file.
	Registry string `koanf:"registry"`
}

// GitHubConfig holds change-request credentials.
type GitHubConfig struct {
	Token Secret `koanf:"token"`
}

// LLMConfig selects and configures the text-generation provider.
type LLMConfig struct {
	// Provider is "openai" or "anthropic".
	Provider string `koanf:"provider"`

	// BaseURL overrides the provider endpoint (OpenAI-compatible
	// gateways, local inference servers).
	BaseURL string `koanf:"base_url"`

	Model  string `koanf:"model"`
	APIKey Secret `koanf:"api_key"`
}

// applyDefaults fills zero values with defaults.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Fields == nil {
		cfg.Logging.Fields = map[string]string{"service": "autopilot"}
	}
	if cfg.Workspace.Root == "" {
		cfg.Workspace.Root = defaultWorkspaceRoot()
	}
	if cfg.Workspace.Registry == "" {
		cfg.Workspace.Registry = filepath.Join(cfg.Workspace.Root, "registry.json")
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "openai"
	}
	if len(cfg.Policy.ForbiddenPaths) == 0 && cfg.Policy.AllowedDependencies == nil {
		cfg.Policy = policy.DefaultConfig()
	}
}

func defaultWorkspaceRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "workspace"
	}
	return filepath.Join(home, ".autopilot", "workspace")
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	if c.Workspace.Root == "" {
		return fmt.Errorf("workspace root is required")
	}
	switch c.LLM.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("unsupported llm provider %q", c.LLM.Provider)
	}
	return nil
}

// Package config loads and validates the agent configuration document.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/legate-ai/legate/internal/mcp"
	"github.com/legate-ai/legate/internal/prompt"
)

// DefaultMaxTurns caps the completion loop when the model keeps asking
// for tools. The loop stops with a status update once the cap is hit.
const DefaultMaxTurns = 10

// LLMConfig selects the completion endpoint and model.
type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

// SystemPromptConfig selects and parameterizes the session system prompt.
// Custom, when set, takes precedence over Type.
type SystemPromptConfig struct {
	Type      string            `yaml:"type"`
	Custom    string            `yaml:"custom"`
	Variables map[string]string `yaml:"variables"`
}

// Config is the parsed agent configuration.
type Config struct {
	LLM          LLMConfig                   `yaml:"llm"`
	MCPServers   map[string]mcp.ServerConfig `yaml:"mcpServers"`
	SystemPrompt *SystemPromptConfig         `yaml:"system_prompt"`
	BuiltinTools bool                        `yaml:"builtin_tools"`
	MaxTurns     int                         `yaml:"max_turns"`
}

// Load reads and parses the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Parse parses a configuration document, applies environment overrides and
// validates it. Validation failures here are hard errors: they surface
// before any session is constructed.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	cfg.applyEnvOverrides()
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnvOverrides fills the API key from the environment. The variable is
// chosen by model name prefix; with no model configured, both are tried.
func (c *Config) applyEnvOverrides() {
	model := c.LLM.Model
	switch {
	case strings.HasPrefix(model, "openai") || strings.HasPrefix(model, "gpt"):
		if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			c.LLM.APIKey = key
		}
	case strings.HasPrefix(model, "anthropic") || strings.HasPrefix(model, "claude"):
		if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
			c.LLM.APIKey = key
		}
	default:
		if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			c.LLM.APIKey = key
		} else if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
			c.LLM.APIKey = key
		}
	}
}

func (c *Config) applyDefaults() {
	if c.MaxTurns <= 0 {
		c.MaxTurns = DefaultMaxTurns
	}
	if c.SystemPrompt != nil && c.SystemPrompt.Type == "" && c.SystemPrompt.Custom == "" {
		c.SystemPrompt.Type = "default"
	}
}

func (c *Config) validate() error {
	if c.SystemPrompt != nil && c.SystemPrompt.Custom == "" {
		if _, err := prompt.Lookup(c.SystemPrompt.Type); err != nil {
			return err
		}
	}
	for name, server := range c.MCPServers {
		if err := server.Validate(); err != nil {
			return fmt.Errorf("mcpServers.%s: %w", name, err)
		}
	}
	return nil
}

// ResolvedPrompt returns the literal system prompt string for this
// configuration, or "" when no prompt is configured. Must only be called on
// a validated Config.
func (c *Config) ResolvedPrompt() string {
	if c.SystemPrompt == nil {
		return ""
	}

	vars := map[string]string{"agent_name": "Legate"}
	for k, v := range c.SystemPrompt.Variables {
		vars[k] = v
	}

	if c.SystemPrompt.Custom != "" {
		return prompt.Resolve(c.SystemPrompt.Custom, vars)
	}
	tmpl, err := prompt.Lookup(c.SystemPrompt.Type)
	if err != nil {
		// validate() rejects unknown templates before any caller gets here.
		panic(err)
	}
	return prompt.Resolve(tmpl.System, vars)
}

// Package mcp connects to Model Context Protocol servers and exposes
// their tools to the agent.
package mcp

import "fmt"

// ServerConfig describes one configured MCP server. Stdio servers are
// spawned from Command/Args; HTTP servers are reached at URL.
type ServerConfig struct {
	// Type discriminator: "stdio" (default if command present) or "http".
	Type string `yaml:"type,omitempty"`

	// Stdio transport fields.
	Command string   `yaml:"command,omitempty"`
	Args    []string `yaml:"args,omitempty"`

	// HTTP transport fields.
	URL     string            `yaml:"url,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`

	// Environment passed to stdio servers.
	Env map[string]string `yaml:"env,omitempty"`
}

// TransportType returns the effective transport type for this server.
func (c *ServerConfig) TransportType() string {
	if c.Type == "http" || c.URL != "" {
		return "http"
	}
	return "stdio"
}

// Validate checks that the server configuration is usable.
func (c *ServerConfig) Validate() error {
	if c.TransportType() == "http" {
		if c.URL == "" {
			return fmt.Errorf("http transport requires url")
		}
		if c.Command != "" {
			return fmt.Errorf("cannot specify both url and command")
		}
		return nil
	}
	if c.Command == "" {
		return fmt.Errorf("stdio transport requires command")
	}
	return nil
}

package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransportType(t *testing.T) {
	stdio := ServerConfig{Command: "npx", Args: []string{"server-everything"}}
	assert.Equal(t, "stdio", stdio.TransportType())

	byURL := ServerConfig{URL: "https://mcp.example.com/sse"}
	assert.Equal(t, "http", byURL.TransportType())

	byType := ServerConfig{Type: "http", URL: "https://mcp.example.com/sse"}
	assert.Equal(t, "http", byType.TransportType())
}

func TestServerConfigValidate(t *testing.T) {
	valid := ServerConfig{Command: "uvx", Args: []string{"mcp-server-time"}}
	require.NoError(t, valid.Validate())

	validHTTP := ServerConfig{URL: "https://mcp.example.com"}
	require.NoError(t, validHTTP.Validate())

	empty := ServerConfig{}
	assert.ErrorContains(t, empty.Validate(), "requires command")

	httpNoURL := ServerConfig{Type: "http"}
	assert.ErrorContains(t, httpNoURL.Validate(), "requires url")

	both := ServerConfig{Command: "npx", URL: "https://mcp.example.com"}
	assert.ErrorContains(t, both.Validate(), "both url and command")
}

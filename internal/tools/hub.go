// Package tools aggregates MCP servers and builtin tools behind a single
// flat namespace the completion provider can call into.
package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/legate-ai/legate/internal/llm"
	"github.com/legate-ai/legate/internal/mcp"
)

// ErrNotConnected is returned by Call before Connect or after Close.
var ErrNotConnected = errors.New("tool hub is not connected")

// ExecutionError wraps a failed tool dispatch with the backend's diagnostic
// message.
type ExecutionError struct {
	Tool string
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("tool %s: %v", e.Tool, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// source is one named tool registry behind the hub.
type source interface {
	name() string
	start(ctx context.Context) error
	stop() error
	tools() []mcp.ToolSpec
	call(ctx context.Context, tool string, args map[string]any) (string, error)
}

// mcpSource adapts one MCP server client.
type mcpSource struct {
	client *mcp.Client
}

func (s *mcpSource) name() string {
	return s.client.Name()
}

func (s *mcpSource) start(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, mcp.ConnectTimeout)
	defer cancel()
	return s.client.Start(ctx)
}

func (s *mcpSource) stop() error {
	return s.client.Stop()
}

func (s *mcpSource) tools() []mcp.ToolSpec {
	return s.client.Tools()
}

func (s *mcpSource) call(ctx context.Context, tool string, args map[string]any) (string, error) {
	return s.client.CallTool(ctx, tool, args)
}

type route struct {
	src  source
	tool string
}

// Hub is the tool registry adapter. It owns the connection lifecycle of
// every configured registry, caches the combined tool list once per
// connection, and routes flat "{registry}_{tool}" names back to the
// registry that owns them.
type Hub struct {
	sources   []source
	routes    map[string]route
	schemas   []llm.ToolSchema
	connected bool
	mu        sync.Mutex
}

// NewHub creates a hub over the configured MCP servers plus, optionally,
// the builtin local registry. Servers are started in name order so the
// flat tool list is deterministic.
func NewHub(servers map[string]mcp.ServerConfig, builtin *Registry) *Hub {
	names := make([]string, 0, len(servers))
	for name := range servers {
		names = append(names, name)
	}
	sort.Strings(names)

	sources := make([]source, 0, len(names)+1)
	for _, name := range names {
		sources = append(sources, &mcpSource{client: mcp.NewClient(name, servers[name])})
	}
	if builtin != nil {
		sources = append(sources, builtin)
	}
	return &Hub{sources: sources}
}

func newHub(sources ...source) *Hub {
	return &Hub{sources: sources}
}

// Connect starts every registry, fetches each tool list once, and builds
// the flat namespace. Two registries exposing the same flat name is a
// configuration error; on any failure every already-started registry is
// stopped again so nothing leaks past a failed Connect.
func (h *Hub) Connect(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.connected {
		return nil
	}

	var started []source
	abort := func(err error) error {
		for _, src := range started {
			src.stop()
		}
		return err
	}

	for _, src := range h.sources {
		if err := src.start(ctx); err != nil {
			return abort(err)
		}
		started = append(started, src)
	}

	routes := make(map[string]route)
	var schemas []llm.ToolSchema
	for _, src := range h.sources {
		for _, spec := range src.tools() {
			flat := src.name() + "_" + spec.Name
			if existing, ok := routes[flat]; ok {
				return abort(fmt.Errorf("tool name collision: %q provided by both %s and %s",
					flat, existing.src.name(), src.name()))
			}
			routes[flat] = route{src: src, tool: spec.Name}
			schemas = append(schemas, llm.ToolSchema{
				Name:        flat,
				Description: fmt.Sprintf("[%s] %s", src.name(), spec.Description),
				Parameters:  spec.Schema,
			})
		}
	}

	h.routes = routes
	h.schemas = schemas
	h.connected = true
	return nil
}

// Close stops every registry and drops the cached tool list.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.connected {
		return nil
	}

	var firstErr error
	for _, src := range h.sources {
		if err := src.stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	h.routes = nil
	h.schemas = nil
	h.connected = false
	return firstErr
}

// Connected reports whether the hub holds live registry connections.
func (h *Hub) Connected() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.connected
}

// Tools returns the flat tool list cached at Connect.
func (h *Hub) Tools() []llm.ToolSchema {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.schemas
}

// Call dispatches a flat tool name to the registry that owns it.
func (h *Hub) Call(ctx context.Context, name string, args map[string]any) (string, error) {
	h.mu.Lock()
	if !h.connected {
		h.mu.Unlock()
		return "", ErrNotConnected
	}
	r, ok := h.routes[name]
	h.mu.Unlock()

	if !ok {
		return "", &ExecutionError{Tool: name, Err: errors.New("unknown tool")}
	}

	result, err := r.src.call(ctx, r.tool, args)
	if err != nil {
		return "", &ExecutionError{Tool: name, Err: err}
	}
	return result, nil
}

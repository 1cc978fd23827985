package tools

import (
	"context"
	"fmt"

	"github.com/legate-ai/legate/internal/mcp"
)

// BuiltinName is the registry prefix under which local tools appear.
const BuiltinName = "local"

// Executor runs one builtin tool.
type Executor func(ctx context.Context, params map[string]any) (string, error)

// Builtin couples a tool spec with its executor.
type Builtin struct {
	Spec mcp.ToolSpec
	Run  Executor
}

// Registry is the in-process tool registry, exposed through the hub under
// the "local" prefix alongside any configured MCP servers.
type Registry struct {
	workingDir string
	order      []string
	byName     map[string]Builtin
}

// NewRegistry creates the builtin registry with all local tools registered.
func NewRegistry(workingDir string) *Registry {
	r := &Registry{
		workingDir: workingDir,
		byName:     make(map[string]Builtin),
	}

	r.register(readFileTool(workingDir))
	r.register(writeFileTool(workingDir))
	r.register(listFilesTool(workingDir))
	r.register(searchFilesTool(workingDir))
	r.register(executeCommandTool(workingDir))

	return r
}

func (r *Registry) register(b Builtin) {
	r.order = append(r.order, b.Spec.Name)
	r.byName[b.Spec.Name] = b
}

func (r *Registry) name() string {
	return BuiltinName
}

func (r *Registry) start(ctx context.Context) error {
	return nil
}

func (r *Registry) stop() error {
	return nil
}

func (r *Registry) tools() []mcp.ToolSpec {
	specs := make([]mcp.ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		specs = append(specs, r.byName[name].Spec)
	}
	return specs
}

func (r *Registry) call(ctx context.Context, tool string, args map[string]any) (string, error) {
	b, ok := r.byName[tool]
	if !ok {
		return "", fmt.Errorf("unknown tool: %s", tool)
	}
	return b.Run(ctx, args)
}

package tools

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/legate-ai/legate/internal/mcp"
)

const defaultCommandTimeout = 60 * time.Second

// Directories skipped during searches. Large generated trees drown out
// useful matches.
var searchSkipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	".venv":        true,
}

const maxSearchMatches = 200

func executeCommandTool(workingDir string) Builtin {
	return Builtin{
		Spec: mcp.ToolSpec{
			Name:        "execute_command",
			Description: "Run a shell command in the working directory",
			Schema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"command": map[string]any{"type": "string", "description": "Shell command to run"},
					"timeout": map[string]any{"type": "integer", "description": "Timeout in seconds (default 60)"},
				},
				"required": []string{"command"},
			},
		},
		Run: func(ctx context.Context, params map[string]any) (string, error) {
			command, err := stringParam(params, "command")
			if err != nil {
				return "", err
			}

			timeout := defaultCommandTimeout
			if t, ok, err := intParam(params, "timeout"); err != nil {
				return "", err
			} else if ok && t > 0 {
				timeout = time.Duration(t) * time.Second
			}

			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			cmd := exec.CommandContext(ctx, "sh", "-c", command)
			cmd.Dir = workingDir

			var stdout, stderr bytes.Buffer
			cmd.Stdout = &stdout
			cmd.Stderr = &stderr

			runErr := cmd.Run()

			var result bytes.Buffer
			result.WriteString(fmt.Sprintf("Command: %s\n\n", command))
			if stdout.Len() > 0 {
				result.WriteString("STDOUT:\n")
				result.Write(stdout.Bytes())
				result.WriteString("\n")
			}
			if stderr.Len() > 0 {
				result.WriteString("STDERR:\n")
				result.Write(stderr.Bytes())
				result.WriteString("\n")
			}

			if ctx.Err() == context.DeadlineExceeded {
				return "", fmt.Errorf("command timed out after %v", timeout)
			}
			if runErr != nil {
				result.WriteString(fmt.Sprintf("Exit Code: %v\n", runErr))
			} else {
				result.WriteString("Exit Code: 0\n")
			}
			return result.String(), nil
		},
	}
}

func searchFilesTool(workingDir string) Builtin {
	return Builtin{
		Spec: mcp.ToolSpec{
			Name:        "search_files",
			Description: "Search for a text pattern in files under a directory",
			Schema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"pattern":   map[string]any{"type": "string", "description": "Text to search for"},
					"directory": map[string]any{"type": "string", "description": "Directory to search (default: working directory)"},
				},
				"required": []string{"pattern"},
			},
		},
		Run: func(ctx context.Context, params map[string]any) (string, error) {
			pattern, err := stringParam(params, "pattern")
			if err != nil {
				return "", err
			}
			directory := workingDir
			if d, ok := params["directory"].(string); ok && d != "" {
				directory = resolvePath(workingDir, d)
			}

			var matches []string
			err = filepath.WalkDir(directory, func(path string, d os.DirEntry, err error) error {
				if err != nil {
					return nil
				}
				if d.IsDir() {
					if searchSkipDirs[d.Name()] {
						return filepath.SkipDir
					}
					return nil
				}
				if len(matches) >= maxSearchMatches {
					return filepath.SkipAll
				}

				content, err := os.ReadFile(path)
				if err != nil {
					return nil
				}
				rel, relErr := filepath.Rel(directory, path)
				if relErr != nil {
					rel = path
				}
				for i, line := range strings.Split(string(content), "\n") {
					if strings.Contains(line, pattern) {
						matches = append(matches, fmt.Sprintf("%s:%d: %s", rel, i+1, strings.TrimSpace(line)))
						if len(matches) >= maxSearchMatches {
							break
						}
					}
				}
				return nil
			})
			if err != nil {
				return "", fmt.Errorf("search failed: %w", err)
			}

			if len(matches) == 0 {
				return fmt.Sprintf("No matches for %q", pattern), nil
			}
			return strings.Join(matches, "\n"), nil
		},
	}
}

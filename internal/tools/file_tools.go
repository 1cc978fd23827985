package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/legate-ai/legate/internal/mcp"
)

func resolvePath(workingDir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(workingDir, path)
}

func stringParam(params map[string]any, key string) (string, error) {
	v, ok := params[key].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("%s parameter is required", key)
	}
	return v, nil
}

// intParam reads a numeric parameter. JSON decoding produces float64, but
// direct callers may pass int.
func intParam(params map[string]any, key string) (int, bool, error) {
	v, ok := params[key]
	if !ok {
		return 0, false, nil
	}
	switch n := v.(type) {
	case int:
		return n, true, nil
	case float64:
		return int(n), true, nil
	default:
		return 0, false, fmt.Errorf("%s must be a number", key)
	}
}

func readFileTool(workingDir string) Builtin {
	return Builtin{
		Spec: mcp.ToolSpec{
			Name:        "read_file",
			Description: "Read file contents, optionally a specific line range",
			Schema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"file_path":  map[string]any{"type": "string", "description": "Path to the file, relative to the working directory"},
					"start_line": map[string]any{"type": "integer", "description": "First line to read (1-based)"},
					"end_line":   map[string]any{"type": "integer", "description": "Last line to read (inclusive)"},
				},
				"required": []string{"file_path"},
			},
		},
		Run: func(ctx context.Context, params map[string]any) (string, error) {
			filePath, err := stringParam(params, "file_path")
			if err != nil {
				return "", err
			}
			filePath = resolvePath(workingDir, filePath)

			content, err := os.ReadFile(filePath)
			if err != nil {
				return "", fmt.Errorf("failed to read file: %w", err)
			}

			start, hasStart, err := intParam(params, "start_line")
			if err != nil {
				return "", err
			}
			end, hasEnd, err := intParam(params, "end_line")
			if err != nil {
				return "", err
			}
			if !hasStart && !hasEnd {
				return string(content), nil
			}

			lines := strings.Split(string(content), "\n")
			totalLines := len(lines)

			if !hasStart {
				start = 1
			}
			if start < 1 || start > totalLines {
				return "", fmt.Errorf("start_line %d is out of range (file has %d lines)", start, totalLines)
			}
			if !hasEnd {
				end = totalLines
			}
			if end < start || end > totalLines {
				return "", fmt.Errorf("end_line %d is invalid (must be between %d and %d)", end, start, totalLines)
			}

			var result strings.Builder
			result.WriteString(fmt.Sprintf("=== %s (lines %d-%d of %d) ===\n", filepath.Base(filePath), start, end, totalLines))
			for i, line := range lines[start-1 : end] {
				result.WriteString(fmt.Sprintf("%4d: %s\n", start+i, line))
			}
			return result.String(), nil
		},
	}
}

func writeFileTool(workingDir string) Builtin {
	return Builtin{
		Spec: mcp.ToolSpec{
			Name:        "write_file",
			Description: "Create a new file or completely overwrite an existing one",
			Schema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"file_path": map[string]any{"type": "string", "description": "Path to the file to write"},
					"content":   map[string]any{"type": "string", "description": "Full file content"},
				},
				"required": []string{"file_path", "content"},
			},
		},
		Run: func(ctx context.Context, params map[string]any) (string, error) {
			filePath, err := stringParam(params, "file_path")
			if err != nil {
				return "", err
			}
			content, ok := params["content"].(string)
			if !ok {
				return "", fmt.Errorf("content parameter is required")
			}
			filePath = resolvePath(workingDir, filePath)

			if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
				return "", fmt.Errorf("failed to create directories: %w", err)
			}
			if err := os.WriteFile(filePath, []byte(content), 0644); err != nil {
				return "", fmt.Errorf("failed to write file: %w", err)
			}
			return fmt.Sprintf("Successfully wrote to %s", filePath), nil
		},
	}
}

func listFilesTool(workingDir string) Builtin {
	return Builtin{
		Spec: mcp.ToolSpec{
			Name:        "list_files",
			Description: "List directory contents",
			Schema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"directory": map[string]any{"type": "string", "description": "Directory to list (default: working directory)"},
				},
			},
		},
		Run: func(ctx context.Context, params map[string]any) (string, error) {
			directory := workingDir
			if d, ok := params["directory"].(string); ok && d != "" {
				directory = resolvePath(workingDir, d)
			}

			entries, err := os.ReadDir(directory)
			if err != nil {
				return "", fmt.Errorf("failed to list directory: %w", err)
			}

			names := make([]string, 0, len(entries))
			for _, entry := range entries {
				name := entry.Name()
				if entry.IsDir() {
					name += "/"
				}
				names = append(names, name)
			}
			sort.Strings(names)

			if len(names) == 0 {
				return fmt.Sprintf("%s is empty", directory), nil
			}
			return strings.Join(names, "\n"), nil
		},
	}
}

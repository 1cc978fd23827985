package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/legate-ai/legate/internal/agent"
	"github.com/legate-ai/legate/internal/llm"
)

// Renderer handles all UI output formatting
type Renderer struct{}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// WelcomeMessage returns the styled welcome banner
func (r *Renderer) WelcomeMessage(model string, toolCount int) string {
	var sb strings.Builder

	title := TitleStyle.Render(IconStar + " Legate")
	subtitle := Subtle.Render("conversational agent with MCP tools")

	sb.WriteString(fmt.Sprintf("%s - %s\n", title, subtitle))
	if model != "" {
		sb.WriteString(Subtle.Render(fmt.Sprintf("Model: %s", model)) + "\n")
	}
	if toolCount > 0 {
		sb.WriteString(Subtle.Render(fmt.Sprintf("Tools: %d available", toolCount)) + "\n")
	}
	sb.WriteString(Subtle.Render("Type '/help' for commands, 'exit' to quit"))
	sb.WriteString("\n")

	return sb.String()
}

// FormatToolStart returns the styled line shown when a tool dispatch begins.
func (r *Renderer) FormatToolStart(tool string, args map[string]any) string {
	summary := summarizeArgs(args)
	if summary == "" {
		return ToolInfo.Render(fmt.Sprintf("%s %s", IconArrow, tool))
	}
	return ToolInfo.Render(fmt.Sprintf("%s %s(%s)", IconArrow, tool, summary))
}

// FormatToolResult returns the styled line shown after a tool completes.
func (r *Renderer) FormatToolResult(tool, result string) string {
	lines := strings.Count(result, "\n") + 1
	if result == "" {
		lines = 0
	}
	return ToolRead.Render(fmt.Sprintf("%s %s done (%d lines)", IconSuccess, tool, lines))
}

// FormatToolError returns the styled line shown when a tool dispatch fails.
func (r *Renderer) FormatToolError(tool, diagnostic string) string {
	return ToolError.Render(fmt.Sprintf("%s %s: %s", IconError, tool, firstLine(diagnostic)))
}

// RenderItem formats one yielded item for terminal display. Content items
// return the raw delta so the caller can stream them without line breaks.
func (r *Renderer) RenderItem(item agent.YieldItem) string {
	switch item.Kind {
	case agent.ItemContent:
		return item.Content
	case agent.ItemToolStart:
		return r.FormatToolStart(item.Tool, item.Args) + "\n"
	case agent.ItemToolResult:
		return r.FormatToolResult(item.Tool, item.Result) + "\n"
	case agent.ItemToolError:
		return r.FormatToolError(item.Tool, item.Result) + "\n"
	case agent.ItemStatus:
		return WarningStyle.Render(IconWarning+" "+item.Content) + "\n"
	case agent.ItemError:
		return ToolError.Render(IconError+" "+item.Content) + "\n"
	default:
		return item.Content
	}
}

// summarizeArgs renders tool arguments compactly: sorted keys, long string
// values truncated. Keeps the status line to a single readable row.
func summarizeArgs(args map[string]any) string {
	if len(args) == 0 {
		return ""
	}
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := fmt.Sprintf("%v", args[k])
		if len(v) > 40 {
			v = v[:37] + "..."
		}
		parts = append(parts, fmt.Sprintf("%s=%s", k, v))
	}
	return strings.Join(parts, ", ")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// PromptString returns the styled prompt
func (r *Renderer) PromptString() string {
	return PromptStyle.Render("❯") + " "
}

// ErrorMessage formats an error message
func (r *Renderer) ErrorMessage(err error) string {
	return ToolError.Render(fmt.Sprintf("%s Error: %v", IconError, err))
}

// WarningMessage formats a warning message
func (r *Renderer) WarningMessage(msg string) string {
	return WarningStyle.Render(fmt.Sprintf("%s %s", IconWarning, msg))
}

// InfoMessage formats an info message
func (r *Renderer) InfoMessage(msg string) string {
	return SessionStyle.Render(fmt.Sprintf("%s %s", IconInfo, msg))
}

// SuccessMessage formats a success message
func (r *Renderer) SuccessMessage(msg string) string {
	return SuccessStyle.Render(fmt.Sprintf("%s %s", IconSuccess, msg))
}

// FormatUsage formats token usage statistics for display
func (r *Renderer) FormatUsage(usage llm.Usage) string {
	if usage.TotalTokens == 0 {
		return Subtle.Render("No token usage recorded yet.")
	}

	var sb strings.Builder
	sb.WriteString(SessionStyle.Render(IconInfo+" Token Usage") + "\n")
	sb.WriteString(fmt.Sprintf("  Prompt tokens:     %d\n", usage.PromptTokens))
	sb.WriteString(fmt.Sprintf("  Completion tokens: %d\n", usage.CompletionTokens))
	sb.WriteString(fmt.Sprintf("  Total tokens:      %d\n", usage.TotalTokens))

	return sb.String()
}

// FormatToolList formats the available tool schemas for display
func (r *Renderer) FormatToolList(tools []llm.ToolSchema) string {
	if len(tools) == 0 {
		return Subtle.Render("No tools connected.")
	}

	var sb strings.Builder
	sb.WriteString(SessionStyle.Render(fmt.Sprintf("%s Tools (%d)", IconInfo, len(tools))) + "\n")
	for _, tool := range tools {
		sb.WriteString("  " + Bold.Render(tool.Name))
		if tool.Description != "" {
			sb.WriteString(Subtle.Render(" - " + firstLine(tool.Description)))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// ConnectedMessage formats the tool backend connection summary
func (r *Renderer) ConnectedMessage(toolCount int) string {
	if toolCount == 0 {
		return WarningStyle.Render(IconWarning+" No tools available") + "\n"
	}
	return SuccessStyle.Render(fmt.Sprintf("%s Connected: %d tools available", IconSuccess, toolCount)) + "\n"
}

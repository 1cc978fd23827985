package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

var markdownRenderer *glamour.TermRenderer

func init() {
	initMarkdownRenderer(100)
}

// initMarkdownRenderer initializes the Glamour markdown renderer
func initMarkdownRenderer(width int) {
	var err error

	// Use auto style which adapts to light/dark terminals
	markdownRenderer, err = glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
		glamour.WithEmoji(),
	)
	if err != nil {
		// Fallback: renderer will be nil, RenderMarkdown returns plain text
		markdownRenderer = nil
	}
}

// RenderMarkdown renders markdown content with syntax highlighting
func RenderMarkdown(content string) string {
	if markdownRenderer == nil {
		return content
	}

	rendered, err := markdownRenderer.Render(content)
	if err != nil {
		return content
	}

	// Trim extra whitespace that glamour sometimes adds
	return strings.TrimSpace(rendered)
}

// SetWordWrap reinitializes the renderer with a new word wrap width
func SetWordWrap(width int) {
	initMarkdownRenderer(width)
}

// Package prompt holds the system prompt template registry and resolver.
package prompt

import (
	"fmt"
	"sort"
	"strings"
)

// Template is a named system prompt. The body may contain {key}
// placeholders filled in by Resolve.
type Template struct {
	Name        string
	Description string
	System      string
}

const defaultSystem = `You are {agent_name}, a helpful assistant running in the user's terminal.

Answer the user's questions directly and accurately. When tools are
available, use them to look up information or act on the user's behalf
instead of guessing. Chain multiple tool calls when a task needs them,
and report what you did once you are done.`

const conciseSystem = `You are {agent_name}, a terminal assistant.

Be brief. Prefer a short factual answer over an explanation. Use the
available tools when they help; do not narrate tool usage.`

var templates = map[string]Template{
	"default": {
		Name:        "default",
		Description: "General-purpose assistant prompt",
		System:      defaultSystem,
	},
	"concise": {
		Name:        "concise",
		Description: "Short answers, minimal prose",
		System:      conciseSystem,
	},
}

// Names returns the registered template identifiers, sorted.
func Names() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the template registered under name.
func Lookup(name string) (Template, error) {
	tmpl, ok := templates[name]
	if !ok {
		return Template{}, fmt.Errorf("unknown prompt template %q (available: %s)",
			name, strings.Join(Names(), ", "))
	}
	return tmpl, nil
}

// Resolve substitutes every {key} placeholder in template with its mapped
// value. Placeholders without a mapping are left verbatim, so a partially
// configured template still produces usable output.
func Resolve(template string, vars map[string]string) string {
	out := template
	for key, value := range vars {
		out = strings.ReplaceAll(out, "{"+key+"}", value)
	}
	return out
}

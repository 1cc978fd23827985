// Package agent implements the turn-orchestration core: the conversation
// store, the per-turn streaming state machine and the session loop that
// drives completions and tool calls until a user request is resolved.
package agent

// ItemKind discriminates YieldItem variants.
type ItemKind string

const (
	// ItemContent carries one incremental chunk of assistant text.
	ItemContent ItemKind = "content"
	// ItemToolStart is emitted immediately before a tool is dispatched.
	ItemToolStart ItemKind = "tool_start"
	// ItemToolResult carries a successful tool result.
	ItemToolResult ItemKind = "tool_result"
	// ItemToolError carries a failed tool dispatch. The failure is also
	// recorded in the conversation so the model can react to it.
	ItemToolError ItemKind = "tool_error"
	// ItemStatus carries a non-fatal notice such as a cancelled run.
	ItemStatus ItemKind = "status"
	// ItemError reports a fatal provider failure. It is always the last
	// item of its run.
	ItemError ItemKind = "error"
)

// YieldItem is one unit of the event stream a session run produces. Items
// are immutable once emitted and arrive in strict chronological order.
type YieldItem struct {
	Kind    ItemKind
	Content string         // content delta, status or error text
	Tool    string         // flat tool name for tool_* items
	Args    map[string]any // parsed arguments, tool_start only
	Result  string         // tool output or diagnostic, tool_result/tool_error
}

package llm

import "context"

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a fully assembled tool invocation requested by the model.
// Arguments holds the raw JSON payload exactly as the provider streamed it.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Message is one entry of the conversation history.
// ToolCalls is only set on assistant messages; ToolCallID only on tool
// result messages, where it links back to the originating request.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
}

// ToolSchema describes one callable tool in the shape the completion API
// expects: a flat name, a description, and a JSON-schema parameter object.
type ToolSchema struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToolCallDelta is an incremental fragment of a tool call inside a streamed
// response. Index is the sole correlation key between fragments of the same
// call; ID, Name and Arguments may each arrive partially across chunks.
type ToolCallDelta struct {
	Index     int
	ID        string
	Name      string
	Arguments string
}

// Usage reports token consumption for one completion.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Add accumulates another completion's usage into u.
func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// StreamChunk is one fragment of a streamed completion. Usage, when present,
// arrives on the final chunk before end of stream.
type StreamChunk struct {
	Content   string
	ToolCalls []ToolCallDelta
	Usage     *Usage
}

// Stream yields completion fragments. Recv returns io.EOF when the provider
// signals end of stream; any other error is a provider failure.
type Stream interface {
	Recv() (StreamChunk, error)
	Close() error
}

// Request is a single streamed completion request.
type Request struct {
	Messages []Message
	Tools    []ToolSchema
}

// Provider issues streamed chat completions.
type Provider interface {
	StreamChat(ctx context.Context, req Request) (Stream, error)
}

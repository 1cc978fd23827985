package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/legate-ai/legate/internal/llm"
)

// ToolBackend is the tool execution boundary the session drives. Its
// connection lifecycle brackets the session; Tools is fetched once after
// Connect and cached for the session's lifetime.
type ToolBackend interface {
	Connect(ctx context.Context) error
	Close() error
	Tools() []llm.ToolSchema
	Call(ctx context.Context, name string, args map[string]any) (string, error)
}

// executor runs single completion turns. One turn is: stream a completion,
// surface content as it arrives, reassemble tool-call fragments, append
// the finalized assistant entry, then execute any requested tools in
// declared order.
type executor struct {
	provider llm.Provider
	backend  ToolBackend
	store    *Store
	tools    []llm.ToolSchema
	emit     func(YieldItem)
	addUsage func(llm.Usage)
	newID    func() string
}

// toolCallAccum reassembles one streamed tool call. The stream index is
// the sole correlation key; id, name and argument text may each arrive
// fragmented across chunks.
type toolCallAccum struct {
	id   string
	name strings.Builder
	args strings.Builder
}

// runTurn performs one completion turn and returns the finalized assistant
// message. On a provider failure it emits a single error item and returns
// a ProviderError; nothing is appended for the never-finalized turn.
func (e *executor) runTurn(ctx context.Context) (llm.Message, error) {
	req := llm.Request{Messages: e.store.Snapshot(), Tools: e.tools}
	stream, err := e.provider.StreamChat(ctx, req)
	if err != nil {
		return llm.Message{}, e.fail(err)
	}
	defer stream.Close()

	var content strings.Builder
	accums := make(map[int]*toolCallAccum)

	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return llm.Message{}, e.fail(err)
		}

		if chunk.Usage != nil && e.addUsage != nil {
			e.addUsage(*chunk.Usage)
		}
		if chunk.Content != "" {
			content.WriteString(chunk.Content)
			// Content is surfaced as it arrives, never buffered to turn end.
			e.emit(YieldItem{Kind: ItemContent, Content: chunk.Content})
		}
		for _, delta := range chunk.ToolCalls {
			acc, ok := accums[delta.Index]
			if !ok {
				acc = &toolCallAccum{}
				accums[delta.Index] = acc
			}
			if delta.ID != "" {
				acc.id = delta.ID
			}
			acc.name.WriteString(delta.Name)
			acc.args.WriteString(delta.Arguments)
		}
	}

	// Finalize: content and the reassembled tool calls form one assistant
	// entry, appended atomically. Calls are ordered by stream index, which
	// is the declaration order regardless of fragment arrival order.
	indexes := make([]int, 0, len(accums))
	for idx := range accums {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	calls := make([]llm.ToolCall, 0, len(accums))
	for _, idx := range indexes {
		acc := accums[idx]
		id := acc.id
		if id == "" {
			id = e.newID()
		}
		calls = append(calls, llm.ToolCall{
			ID:        id,
			Name:      acc.name.String(),
			Arguments: acc.args.String(),
		})
	}

	assistant := llm.Message{
		Role:      llm.RoleAssistant,
		Content:   content.String(),
		ToolCalls: calls,
	}
	e.store.Append(assistant)

	if len(calls) > 0 {
		e.executeToolCalls(ctx, calls)
	}
	return assistant, nil
}

func (e *executor) fail(err error) error {
	perr := &ProviderError{Err: err}
	e.emit(YieldItem{Kind: ItemError, Content: perr.Error()})
	return perr
}

// executeToolCalls dispatches the turn's tool calls sequentially, in the
// order the model declared them. A failed dispatch never aborts the turn:
// the error text is recorded as the tool result so the model sees the
// failure on the next completion.
func (e *executor) executeToolCalls(ctx context.Context, calls []llm.ToolCall) {
	for _, call := range calls {
		args := parseArguments(call.Arguments)
		e.emit(YieldItem{Kind: ItemToolStart, Tool: call.Name, Args: args})

		result, err := e.backend.Call(ctx, call.Name, args)
		if err != nil {
			diagnostic := fmt.Sprintf("tool execution failed (%s): %v", call.Name, err)
			e.store.Append(llm.Message{
				Role:       llm.RoleTool,
				ToolCallID: call.ID,
				Content:    diagnostic,
			})
			e.emit(YieldItem{Kind: ItemToolError, Tool: call.Name, Result: diagnostic})
			continue
		}

		e.store.Append(llm.Message{
			Role:       llm.RoleTool,
			ToolCallID: call.ID,
			Content:    result,
		})
		e.emit(YieldItem{Kind: ItemToolResult, Tool: call.Name, Result: result})
	}
}

// parseArguments decodes the accumulated JSON argument text. Malformed or
// empty argument text dispatches with no arguments rather than failing the
// call here; the tool's own validation produces the better diagnostic.
func parseArguments(raw string) map[string]any {
	if raw == "" {
		return map[string]any{}
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil || args == nil {
		return map[string]any{}
	}
	return args
}

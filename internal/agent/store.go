package agent

import (
	"fmt"

	"github.com/legate-ai/legate/internal/llm"
)

// Store is the append-only conversation history for one session. Entries
// are never edited or reordered; the whole store is discarded with the
// session. Not safe for concurrent use: a session has a single writer.
type Store struct {
	messages []llm.Message
}

// NewStore creates an empty conversation store.
func NewStore() *Store {
	return &Store{}
}

// Append adds a message to the history. A tool-result message must answer
// a tool call requested by the assistant message directly above it (with
// only other tool results in between); violating that is a programming
// error, not a recoverable condition, so Append panics.
func (s *Store) Append(msg llm.Message) {
	if msg.Role == llm.RoleTool {
		if err := s.checkToolLinkage(msg); err != nil {
			panic(err)
		}
	}
	s.messages = append(s.messages, msg)
}

func (s *Store) checkToolLinkage(msg llm.Message) error {
	if msg.ToolCallID == "" {
		return fmt.Errorf("tool message appended without tool_call_id")
	}
	// Walk back over preceding tool results to the assistant message that
	// opened this tool batch.
	for i := len(s.messages) - 1; i >= 0; i-- {
		switch s.messages[i].Role {
		case llm.RoleTool:
			continue
		case llm.RoleAssistant:
			for _, call := range s.messages[i].ToolCalls {
				if call.ID == msg.ToolCallID {
					return nil
				}
			}
			return fmt.Errorf("tool message %q does not answer any call of the preceding assistant message", msg.ToolCallID)
		default:
			return fmt.Errorf("tool message %q appended without a preceding assistant message", msg.ToolCallID)
		}
	}
	return fmt.Errorf("tool message %q appended to an empty conversation", msg.ToolCallID)
}

// Snapshot returns the full ordered history for feeding to the completion
// provider. No truncation or windowing happens here; any context-limit
// policy is the caller's explicit decision.
func (s *Store) Snapshot() []llm.Message {
	out := make([]llm.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of stored messages.
func (s *Store) Len() int {
	return len(s.messages)
}

// Last returns the most recent message, if any.
func (s *Store) Last() (llm.Message, bool) {
	if len(s.messages) == 0 {
		return llm.Message{}, false
	}
	return s.messages[len(s.messages)-1], true
}

package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legate-ai/legate/internal/llm"
)

func TestStoreAppendAndSnapshot(t *testing.T) {
	s := NewStore()
	s.Append(llm.Message{Role: llm.RoleSystem, Content: "sys"})
	s.Append(llm.Message{Role: llm.RoleUser, Content: "hi"})
	s.Append(llm.Message{Role: llm.RoleAssistant, Content: "hello"})

	snap := s.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, llm.RoleSystem, snap[0].Role)
	assert.Equal(t, llm.RoleUser, snap[1].Role)
	assert.Equal(t, llm.RoleAssistant, snap[2].Role)

	// Snapshot is a copy; mutating it does not touch the store.
	snap[0].Content = "changed"
	again := s.Snapshot()
	assert.Equal(t, "sys", again[0].Content)
}

func TestStoreLast(t *testing.T) {
	s := NewStore()
	_, ok := s.Last()
	assert.False(t, ok)

	s.Append(llm.Message{Role: llm.RoleUser, Content: "hi"})
	last, ok := s.Last()
	require.True(t, ok)
	assert.Equal(t, "hi", last.Content)
}

func TestStoreToolLinkage(t *testing.T) {
	s := NewStore()
	s.Append(llm.Message{Role: llm.RoleUser, Content: "q"})
	s.Append(llm.Message{
		Role: llm.RoleAssistant,
		ToolCalls: []llm.ToolCall{
			{ID: "call_1", Name: "calc_add"},
			{ID: "call_2", Name: "calc_div"},
		},
	})

	// Both results answer calls of the directly preceding assistant entry.
	s.Append(llm.Message{Role: llm.RoleTool, ToolCallID: "call_1", Content: "4"})
	s.Append(llm.Message{Role: llm.RoleTool, ToolCallID: "call_2", Content: "1"})
	assert.Equal(t, 4, s.Len())
}

func TestStoreToolLinkageViolations(t *testing.T) {
	t.Run("missing id", func(t *testing.T) {
		s := NewStore()
		assert.Panics(t, func() {
			s.Append(llm.Message{Role: llm.RoleTool, Content: "orphan"})
		})
	})

	t.Run("empty store", func(t *testing.T) {
		s := NewStore()
		assert.Panics(t, func() {
			s.Append(llm.Message{Role: llm.RoleTool, ToolCallID: "call_1"})
		})
	})

	t.Run("no preceding assistant", func(t *testing.T) {
		s := NewStore()
		s.Append(llm.Message{Role: llm.RoleUser, Content: "q"})
		assert.Panics(t, func() {
			s.Append(llm.Message{Role: llm.RoleTool, ToolCallID: "call_1"})
		})
	})

	t.Run("unknown call id", func(t *testing.T) {
		s := NewStore()
		s.Append(llm.Message{
			Role:      llm.RoleAssistant,
			ToolCalls: []llm.ToolCall{{ID: "call_1"}},
		})
		assert.Panics(t, func() {
			s.Append(llm.Message{Role: llm.RoleTool, ToolCallID: "call_9"})
		})
	})
}

package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legate-ai/legate/internal/llm"
)

func TestSessionSingleTurnWithoutTools(t *testing.T) {
	provider := &fakeProvider{scripts: [][]llm.StreamChunk{
		{contentChunk("hello "), contentChunk("there")},
	}}
	s := New(provider, nil, Config{SystemPrompt: "You are helpful."})

	ch, err := s.Run(context.Background(), "hi")
	require.NoError(t, err)
	items := collect(ch)

	assert.Equal(t, []ItemKind{ItemContent, ItemContent}, kinds(items))
	require.Len(t, provider.requests, 1)

	// system, user, assistant
	hist := s.History()
	require.Len(t, hist, 3)
	assert.Equal(t, llm.RoleSystem, hist[0].Role)
	assert.Equal(t, "You are helpful.", hist[0].Content)
	assert.Equal(t, "hi", hist[1].Content)
	assert.Equal(t, "hello there", hist[2].Content)
	require.NoError(t, s.Err())
}

func TestSessionToolCallRoundTrip(t *testing.T) {
	// Turn 1 requests calc_add(2,2); the result feeds turn 2, which
	// answers in plain content and ends the run.
	provider := &fakeProvider{scripts: [][]llm.StreamChunk{
		{toolChunk(0, "call_1", "calc_add", `{"a":2,"b":2}`)},
		{contentChunk("4")},
	}}
	backend := &fakeBackend{
		schemas: []llm.ToolSchema{{Name: "calc_add"}},
		results: map[string]string{"calc_add": "4"},
	}
	s := New(provider, backend, Config{})
	require.NoError(t, s.Connect(context.Background()))

	ch, err := s.Run(context.Background(), "what is 2+2?")
	require.NoError(t, err)
	items := collect(ch)

	assert.Equal(t, []ItemKind{ItemToolStart, ItemToolResult, ItemContent}, kinds(items))
	assert.Equal(t, "calc_add", items[0].Tool)
	assert.Equal(t, "4", items[1].Result)
	assert.Equal(t, "4", items[2].Content)

	// Exactly two completion turns.
	require.Len(t, provider.requests, 2)

	// Turn 2 saw the tool result in its request history.
	msgs := provider.requests[1].Messages
	require.NotEmpty(t, msgs)
	last := msgs[len(msgs)-1]
	assert.Equal(t, llm.RoleTool, last.Role)
	assert.Equal(t, "call_1", last.ToolCallID)
	assert.Equal(t, "4", last.Content)
}

func TestSessionToolFailureDoesNotEndRun(t *testing.T) {
	provider := &fakeProvider{scripts: [][]llm.StreamChunk{
		{toolChunk(0, "call_1", "calc_div", `{"a":1,"b":0}`)},
		{contentChunk("Division by zero is undefined.")},
	}}
	backend := &fakeBackend{
		schemas: []llm.ToolSchema{{Name: "calc_div"}},
		errs:    map[string]error{"calc_div": errors.New("division by zero")},
	}
	s := New(provider, backend, Config{})
	require.NoError(t, s.Connect(context.Background()))

	ch, err := s.Run(context.Background(), "1/0?")
	require.NoError(t, err)
	items := collect(ch)

	assert.Equal(t, []ItemKind{ItemToolStart, ItemToolError, ItemContent}, kinds(items))
	require.Len(t, provider.requests, 2)
	require.NoError(t, s.Err())
}

func TestSessionProviderFailurePoisonsSession(t *testing.T) {
	authErr := errors.New("401 invalid api key")
	provider := &fakeProvider{startErr: authErr}
	s := New(provider, nil, Config{})

	ch, err := s.Run(context.Background(), "hi")
	require.NoError(t, err)
	items := collect(ch)

	require.Equal(t, []ItemKind{ItemError}, kinds(items))
	require.Error(t, s.Err())
	assert.ErrorIs(t, s.Err(), authErr)

	// Subsequent runs are refused.
	_, err = s.Run(context.Background(), "still there?")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unusable")
	assert.ErrorIs(t, err, authErr)
}

func TestSessionCancellationBetweenTurns(t *testing.T) {
	// Every turn requests a tool; cancellation lands at the boundary after
	// turn 1 and stops the run with a status item instead of an error.
	provider := &fakeProvider{
		scripts: [][]llm.StreamChunk{
			{toolChunk(0, "call_1", "calc_add", `{"a":2,"b":2}`)},
		},
		repeat: true,
	}
	backend := &fakeBackend{
		schemas: []llm.ToolSchema{{Name: "calc_add"}},
		results: map[string]string{"calc_add": "4"},
	}
	s := New(provider, backend, Config{})
	require.NoError(t, s.Connect(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ch, err := s.Run(ctx, "loop forever")
	require.NoError(t, err)
	items := collect(ch)

	assert.Equal(t, []ItemKind{ItemToolStart, ItemToolResult, ItemStatus}, kinds(items))
	assert.Equal(t, "run cancelled", items[2].Content)
	require.Len(t, provider.requests, 1)
	require.NoError(t, s.Err())
}

func TestSessionTurnCap(t *testing.T) {
	provider := &fakeProvider{
		scripts: [][]llm.StreamChunk{
			{toolChunk(0, "call_1", "calc_add", `{"a":2,"b":2}`)},
		},
		repeat: true,
	}
	backend := &fakeBackend{
		schemas: []llm.ToolSchema{{Name: "calc_add"}},
		results: map[string]string{"calc_add": "4"},
	}
	s := New(provider, backend, Config{MaxTurns: 3})
	require.NoError(t, s.Connect(context.Background()))

	ch, err := s.Run(context.Background(), "loop forever")
	require.NoError(t, err)
	items := collect(ch)

	require.Len(t, provider.requests, 3)
	last := items[len(items)-1]
	assert.Equal(t, ItemStatus, last.Kind)
	assert.Equal(t, "stopped after 3 turns", last.Content)
	require.NoError(t, s.Err())
}

func TestSessionBusy(t *testing.T) {
	gate := make(chan struct{})
	provider := &fakeProvider{
		scripts: [][]llm.StreamChunk{{contentChunk("ok")}},
		gate:    gate,
	}
	s := New(provider, nil, Config{})

	ch, err := s.Run(context.Background(), "first")
	require.NoError(t, err)

	_, err = s.Run(context.Background(), "second")
	assert.ErrorIs(t, err, ErrSessionBusy)

	close(gate)
	collect(ch)

	// Once the first run drains, the session accepts input again.
	ch2, err := s.Run(context.Background(), "third")
	require.NoError(t, err)
	collect(ch2)
}

func TestSessionConnectCachesTools(t *testing.T) {
	provider := &fakeProvider{scripts: [][]llm.StreamChunk{
		{contentChunk("ok")},
	}}
	backend := &fakeBackend{schemas: []llm.ToolSchema{
		{Name: "calc_add"},
		{Name: "calc_div"},
	}}
	s := New(provider, backend, Config{})
	require.NoError(t, s.Connect(context.Background()))
	assert.True(t, backend.connected)
	assert.Equal(t, 2, s.ToolCount())

	ch, err := s.Run(context.Background(), "hi")
	require.NoError(t, err)
	collect(ch)

	// The cached schema rode along on the completion request.
	require.Len(t, provider.requests, 1)
	require.Len(t, provider.requests[0].Tools, 2)
	assert.Equal(t, "calc_add", provider.requests[0].Tools[0].Name)

	require.NoError(t, s.Close())
	assert.True(t, backend.closed)
	assert.Equal(t, 0, s.ToolCount())
}

func TestSessionUsageAccumulates(t *testing.T) {
	usage1 := llm.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}
	usage2 := llm.Usage{PromptTokens: 20, CompletionTokens: 7, TotalTokens: 27}
	provider := &fakeProvider{scripts: [][]llm.StreamChunk{
		{contentChunk("one"), {Usage: &usage1}},
		{contentChunk("two"), {Usage: &usage2}},
	}}
	s := New(provider, nil, Config{})

	ch, err := s.Run(context.Background(), "first")
	require.NoError(t, err)
	collect(ch)

	ch, err = s.Run(context.Background(), "second")
	require.NoError(t, err)
	collect(ch)

	total := s.Usage()
	assert.Equal(t, 30, total.PromptTokens)
	assert.Equal(t, 12, total.CompletionTokens)
	assert.Equal(t, 42, total.TotalTokens)
}

func TestSessionFragmentedArgsSurviveRoundTrip(t *testing.T) {
	// Argument JSON split across chunks must reach the backend identical to
	// an unfragmented payload.
	fragments := []string{`{"query":"`, `weather in `, `Paris"}`}
	chunks := make([]llm.StreamChunk, 0, len(fragments))
	chunks = append(chunks, toolChunk(0, "call_1", "search_web", fragments[0]))
	for _, f := range fragments[1:] {
		chunks = append(chunks, toolChunk(0, "", "", f))
	}

	provider := &fakeProvider{scripts: [][]llm.StreamChunk{
		chunks,
		{contentChunk("Sunny.")},
	}}
	backend := &fakeBackend{
		schemas: []llm.ToolSchema{{Name: "search_web"}},
		results: map[string]string{"search_web": "sunny, 24C"},
	}
	s := New(provider, backend, Config{})
	require.NoError(t, s.Connect(context.Background()))

	ch, err := s.Run(context.Background(), "weather?")
	require.NoError(t, err)
	collect(ch)

	require.Len(t, backend.argsSeen, 1)
	assert.Equal(t, map[string]any{"query": "weather in Paris"}, backend.argsSeen[0])

	// The stored assistant entry carries the fully reassembled call.
	var assistant llm.Message
	for _, m := range s.History() {
		if m.Role == llm.RoleAssistant && len(m.ToolCalls) > 0 {
			assistant = m
		}
	}
	require.Len(t, assistant.ToolCalls, 1)
	assert.Equal(t, strings.Join(fragments, ""), assistant.ToolCalls[0].Arguments)
}

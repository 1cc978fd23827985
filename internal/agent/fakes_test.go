package agent

import (
	"context"
	"io"

	"github.com/legate-ai/legate/internal/llm"
)

// fakeStream replays scripted chunks, then err (or io.EOF when err is nil).
type fakeStream struct {
	chunks []llm.StreamChunk
	err    error
	pos    int
	closed bool
}

func (s *fakeStream) Recv() (llm.StreamChunk, error) {
	if s.pos < len(s.chunks) {
		c := s.chunks[s.pos]
		s.pos++
		return c, nil
	}
	if s.err != nil {
		return llm.StreamChunk{}, s.err
	}
	return llm.StreamChunk{}, io.EOF
}

func (s *fakeStream) Close() error {
	s.closed = true
	return nil
}

// fakeProvider returns one scripted stream per StreamChat call. With repeat
// set, the last script replays forever.
type fakeProvider struct {
	scripts  [][]llm.StreamChunk
	errs     []error // aligned with scripts, returned after that script's chunks
	startErr error
	repeat   bool
	gate     chan struct{} // when non-nil, StreamChat blocks until it closes
	requests []llm.Request
}

func (p *fakeProvider) StreamChat(ctx context.Context, req llm.Request) (llm.Stream, error) {
	if p.gate != nil {
		<-p.gate
	}
	p.requests = append(p.requests, req)
	if p.startErr != nil {
		return nil, p.startErr
	}

	i := len(p.requests) - 1
	if i >= len(p.scripts) {
		if p.repeat && len(p.scripts) > 0 {
			i = len(p.scripts) - 1
		} else {
			return &fakeStream{}, nil
		}
	}
	var streamErr error
	if i < len(p.errs) {
		streamErr = p.errs[i]
	}
	return &fakeStream{chunks: p.scripts[i], err: streamErr}, nil
}

// fakeBackend is a scriptable tool backend.
type fakeBackend struct {
	schemas   []llm.ToolSchema
	results   map[string]string
	errs      map[string]error
	connected bool
	closed    bool
	calls     []string
	argsSeen  []map[string]any
}

func (b *fakeBackend) Connect(ctx context.Context) error {
	b.connected = true
	return nil
}

func (b *fakeBackend) Close() error {
	b.connected = false
	b.closed = true
	return nil
}

func (b *fakeBackend) Tools() []llm.ToolSchema {
	return b.schemas
}

func (b *fakeBackend) Call(ctx context.Context, name string, args map[string]any) (string, error) {
	b.calls = append(b.calls, name)
	b.argsSeen = append(b.argsSeen, args)
	if err, ok := b.errs[name]; ok {
		return "", err
	}
	return b.results[name], nil
}

func contentChunk(text string) llm.StreamChunk {
	return llm.StreamChunk{Content: text}
}

func toolChunk(index int, id, name, args string) llm.StreamChunk {
	return llm.StreamChunk{ToolCalls: []llm.ToolCallDelta{{
		Index:     index,
		ID:        id,
		Name:      name,
		Arguments: args,
	}}}
}

func collect(ch <-chan YieldItem) []YieldItem {
	var items []YieldItem
	for item := range ch {
		items = append(items, item)
	}
	return items
}

func kinds(items []YieldItem) []ItemKind {
	out := make([]ItemKind, 0, len(items))
	for _, item := range items {
		out = append(out, item.Kind)
	}
	return out
}

package agent

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/legate-ai/legate/internal/llm"
)

// DefaultMaxTurns bounds the completion loop of a single run. The model
// deciding to call tools on every turn would otherwise loop forever.
const DefaultMaxTurns = 10

// Config tunes a session.
type Config struct {
	// SystemPrompt, when non-empty, becomes the first conversation entry.
	// It must already be resolved to a literal string.
	SystemPrompt string
	// MaxTurns caps completion turns per Run call. Zero means
	// DefaultMaxTurns.
	MaxTurns int
}

// Session owns one conversation: the message store, the cached tool-schema
// snapshot and the loop that drives completion turns for each user input.
type Session struct {
	provider llm.Provider
	backend  ToolBackend
	store    *Store
	tools    []llm.ToolSchema
	maxTurns int

	connected bool
	running   atomic.Bool

	mu    sync.Mutex
	err   error
	usage llm.Usage
}

// New creates a session. The backend may be nil when no tools are
// configured; completions then run without a tool schema.
func New(provider llm.Provider, backend ToolBackend, cfg Config) *Session {
	store := NewStore()
	if cfg.SystemPrompt != "" {
		store.Append(llm.Message{Role: llm.RoleSystem, Content: cfg.SystemPrompt})
	}

	maxTurns := cfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}

	return &Session{
		provider: provider,
		backend:  backend,
		store:    store,
		maxTurns: maxTurns,
	}
}

// Connect opens the tool backend and caches its tool list for the
// session's lifetime. Tool sets are assumed static while a session lives;
// the list is deliberately not re-fetched per turn.
func (s *Session) Connect(ctx context.Context) error {
	if s.backend == nil {
		return nil
	}
	if err := s.backend.Connect(ctx); err != nil {
		return fmt.Errorf("connect tool backend: %w", err)
	}
	s.tools = s.backend.Tools()
	s.connected = true
	return nil
}

// Close releases the tool backend connection. Safe to call on any exit
// path, including after a mid-turn failure.
func (s *Session) Close() error {
	if s.backend == nil || !s.connected {
		return nil
	}
	s.connected = false
	s.tools = nil
	return s.backend.Close()
}

// Run feeds one user input through the completion loop and streams the
// resulting items. The returned channel is closed when the run finishes;
// items must be consumed promptly since the loop blocks on delivery.
//
// The loop stops when an assistant turn requests no tools, when ctx is
// cancelled (checked between turns, yielding a status item), or when the
// turn cap is hit. A provider failure ends the run after its error item
// and poisons the session; Err reports it.
//
// Run is not safe to call concurrently on the same session.
func (s *Session) Run(ctx context.Context, input string) (<-chan YieldItem, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrSessionBusy
	}
	if err := s.Err(); err != nil {
		s.running.Store(false)
		return nil, fmt.Errorf("session is unusable after earlier failure: %w", err)
	}

	out := make(chan YieldItem)
	go func() {
		defer close(out)
		defer s.running.Store(false)

		s.store.Append(llm.Message{Role: llm.RoleUser, Content: input})

		exec := &executor{
			provider: s.provider,
			backend:  s.backend,
			store:    s.store,
			tools:    s.tools,
			emit:     func(item YieldItem) { out <- item },
			addUsage: s.addUsage,
			newID:    func() string { return "call_" + uuid.NewString() },
		}

		for turn := 0; turn < s.maxTurns; turn++ {
			assistant, err := exec.runTurn(ctx)
			if err != nil {
				s.setErr(err)
				return
			}
			if len(assistant.ToolCalls) == 0 {
				// The model considers the exchange answered.
				return
			}

			// Cancellation is cooperative and checked at turn boundaries
			// only; an in-flight provider stream is never torn down.
			select {
			case <-ctx.Done():
				out <- YieldItem{Kind: ItemStatus, Content: "run cancelled"}
				return
			default:
			}
		}
		out <- YieldItem{Kind: ItemStatus, Content: fmt.Sprintf("stopped after %d turns", s.maxTurns)}
	}()
	return out, nil
}

func (s *Session) addUsage(u llm.Usage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usage.Add(u)
}

func (s *Session) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

// Err returns the provider failure that poisoned this session, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Usage returns accumulated token usage across all runs of this session.
func (s *Session) Usage() llm.Usage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usage
}

// History returns a snapshot of the conversation so far.
func (s *Session) History() []llm.Message {
	return s.store.Snapshot()
}

// ToolCount returns the number of tools in the cached schema snapshot.
func (s *Session) ToolCount() int {
	return len(s.tools)
}

// Tools returns the cached tool schema snapshot.
func (s *Session) Tools() []llm.ToolSchema {
	return s.tools
}

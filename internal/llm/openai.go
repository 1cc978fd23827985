package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const defaultConnectTimeout = 10 * time.Second

// newHTTPClient creates an HTTP client for streaming LLM responses.
// Client-level timeout is disabled (0) to allow long-running streaming
// responses; timeouts are controlled via context instead.
func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 0,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   defaultConnectTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
}

// OpenAIConfig configures an OpenAI-compatible completion provider.
type OpenAIConfig struct {
	// BaseURL is the API root, e.g. "https://api.openai.com/v1" or a local
	// server like "http://localhost:8000/v1". Empty uses the OpenAI default.
	BaseURL string
	APIKey  string
	Model   string
}

// OpenAIProvider implements Provider against any OpenAI-compatible chat
// completion endpoint.
type OpenAIProvider struct {
	client     *openai.Client
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// NewOpenAIProvider creates a provider for the given endpoint.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	httpClient := newHTTPClient()

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	clientCfg.HTTPClient = httpClient

	return &OpenAIProvider{
		client:     openai.NewClientWithConfig(clientCfg),
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
	}
}

// Model returns the active model name.
func (p *OpenAIProvider) Model() string {
	return p.model
}

// SetModel sets the active model.
func (p *OpenAIProvider) SetModel(model string) {
	p.model = model
}

// DetectModels queries the /models endpoint and returns the served model
// IDs. Useful for local servers that expose a single auto-selected model.
func (p *OpenAIProvider) DetectModels(ctx context.Context) ([]string, error) {
	if p.baseURL == "" {
		return nil, fmt.Errorf("model detection requires an explicit base URL")
	}

	return withRetry(ctx, "model detection", func() ([]string, error) {
		req, err := http.NewRequestWithContext(ctx, "GET", p.baseURL+"/models", nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		if p.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+p.apiKey)
		}

		resp, err := p.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
		}

		var modelsResp struct {
			Data []struct {
				ID string `json:"id"`
			} `json:"data"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&modelsResp); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}

		models := make([]string, 0, len(modelsResp.Data))
		for _, m := range modelsResp.Data {
			models = append(models, m.ID)
		}
		return models, nil
	})
}

// StreamChat issues one streamed chat completion request.
func (p *OpenAIProvider) StreamChat(ctx context.Context, req Request) (Stream, error) {
	oaReq := openai.ChatCompletionRequest{
		Model:    p.model,
		Messages: toOpenAIMessages(req.Messages),
		StreamOptions: &openai.StreamOptions{
			IncludeUsage: true,
		},
	}
	if len(req.Tools) > 0 {
		oaReq.Tools = toOpenAITools(req.Tools)
	}

	stream, err := p.client.CreateChatCompletionStream(ctx, oaReq)
	if err != nil {
		return nil, fmt.Errorf("create completion stream: %w", err)
	}
	return &openaiStream{stream: stream}, nil
}

type openaiStream struct {
	stream *openai.ChatCompletionStream
}

func (s *openaiStream) Recv() (StreamChunk, error) {
	resp, err := s.stream.Recv()
	if err != nil {
		// io.EOF passes through as the end-of-stream signal.
		return StreamChunk{}, err
	}

	var chunk StreamChunk
	if resp.Usage != nil {
		chunk.Usage = &Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}
	if len(resp.Choices) > 0 {
		delta := resp.Choices[0].Delta
		chunk.Content = delta.Content
		for _, tc := range delta.ToolCalls {
			idx := 0
			if tc.Index != nil {
				idx = *tc.Index
			}
			chunk.ToolCalls = append(chunk.ToolCalls, ToolCallDelta{
				Index:     idx,
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			})
		}
	}
	return chunk, nil
}

func (s *openaiStream) Close() error {
	s.stream.Close()
	return nil
}

func toOpenAIMessages(msgs []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		oaMsg := openai.ChatCompletionMessage{
			Role:       string(m.Role),
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			oaMsg.ToolCalls = append(oaMsg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		out = append(out, oaMsg)
	}
	return out
}

func toOpenAITools(tools []ToolSchema) []openai.Tool {
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		params := t.Parameters
		if params == nil {
			params = map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			}
		}
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  params,
			},
		})
	}
	return out
}

// Package openaicompat implements the completion and embedding contracts
// against any OpenAI-compatible HTTP API: OpenAI, OpenRouter, Groq,
// Together, Ollama, vLLM, LM Studio and friends.
package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	niti "github.com/farhanr/niti"
)

// Provider implements niti.Provider over the /chat/completions endpoint.
type Provider struct {
	apiKey  string
	model   string
	baseURL string
	settings
}

// NewProvider creates a chat provider. baseURL is the API base (e.g.
// "https://openrouter.ai/api/v1"); the /chat/completions path is appended.
func NewProvider(apiKey, model, baseURL string, opts ...Option) *Provider {
	p := &Provider{
		apiKey:   apiKey,
		model:    model,
		baseURL:  baseURL,
		settings: newSettings("openai"),
	}
	for _, opt := range opts {
		opt(&p.settings)
	}
	return p
}

// Name returns the provider name (default "openai", configurable via WithName).
func (p *Provider) Name() string { return p.name }

// Chat sends a non-streaming chat request and returns the complete response.
func (p *Provider) Chat(ctx context.Context, req niti.ChatRequest) (niti.ChatResponse, error) {
	if len(req.Messages) == 0 {
		return niti.ChatResponse{}, &niti.ErrCompletion{Provider: p.name, Message: "empty message list"}
	}
	body := chatBody{
		Model:       p.model,
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
		Messages:    make([]wireMessage, len(req.Messages)),
	}
	for i, m := range req.Messages {
		body.Messages[i] = wireMessage{Role: m.Role, Content: m.Content}
	}

	resp, err := postJSON(ctx, &p.settings, p.apiKey, p.baseURL+"/chat/completions", body)
	if err != nil {
		return niti.ChatResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return niti.ChatResponse{}, httpErr(resp)
	}

	var wire chatWireResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return niti.ChatResponse{}, &niti.ErrCompletion{Provider: p.name, Message: fmt.Sprintf("decode response: %v", err)}
	}
	if len(wire.Choices) == 0 {
		return niti.ChatResponse{}, &niti.ErrCompletion{Provider: p.name, Message: "response has no choices"}
	}
	p.logger.Debug("chat completed",
		"model", p.model,
		"input_tokens", wire.Usage.PromptTokens,
		"output_tokens", wire.Usage.CompletionTokens,
	)
	return niti.ChatResponse{
		Content: wire.Choices[0].Message.Content,
		Usage: niti.Usage{
			InputTokens:  wire.Usage.PromptTokens,
			OutputTokens: wire.Usage.CompletionTokens,
		},
	}, nil
}

// postJSON marshals body and posts it with auth and configured headers.
func postJSON(ctx context.Context, s *settings, apiKey, url string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &niti.ErrCompletion{Provider: s.name, Message: fmt.Sprintf("marshal request: %v", err)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, &niti.ErrCompletion{Provider: s.name, Message: fmt.Sprintf("create request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}
	return s.client.Do(req)
}

// httpErr reads the response body into an ErrHTTP.
func httpErr(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	return &niti.ErrHTTP{Status: resp.StatusCode, Body: string(body)}
}

var _ niti.Provider = (*Provider)(nil)

package openai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/strixlab/strix/provider"
	"github.com/tidwall/gjson"
)

const (
	defaultBaseURL  = "https://api.openai.com/v1"
	completionsPath = "/chat/completions"
)

// Provider serves one OpenAI model over the raw chat completions API.
type Provider struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// New builds a provider for model. An empty baseURL selects the public API
// endpoint. The HTTP client is shared across concurrent calls.
func New(apiKey, model, baseURL string) *Provider {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Provider{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{},
	}
}

var _ provider.Provider = (*Provider)(nil)

func (p *Provider) Name() string { return "openai" }

func (p *Provider) ID() string { return p.model }

type streamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

type apiRequest struct {
	Model         string             `json:"model"`
	Messages      []provider.Message `json:"messages"`
	Stream        bool               `json:"stream,omitempty"`
	StreamOptions *streamOptions     `json:"stream_options,omitempty"`
}

func (p *Provider) post(ctx context.Context, body apiRequest) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+completionsPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("content-type", "application/json")
	return p.client.Do(req)
}

// Complete issues a single non-streaming request.
func (p *Provider) Complete(ctx context.Context, messages []provider.Message, _ []json.RawMessage) (provider.CompletionResponse, error) {
	resp, err := p.post(ctx, apiRequest{Model: p.model, Messages: messages})
	if err != nil {
		return provider.CompletionResponse{}, fmt.Errorf("openai: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return provider.CompletionResponse{}, fmt.Errorf("openai: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return provider.CompletionResponse{}, &provider.StatusError{Code: resp.StatusCode, Body: string(raw)}
	}
	if !gjson.ValidBytes(raw) {
		return provider.CompletionResponse{}, errors.New("openai: decode response: invalid json")
	}

	body := gjson.ParseBytes(raw)
	return provider.CompletionResponse{
		Text: body.Get("choices.0.message.content").String(),
		Usage: provider.Usage{
			InputTokens:  uint32(body.Get("usage.prompt_tokens").Uint()),
			OutputTokens: uint32(body.Get("usage.completion_tokens").Uint()),
		},
	}, nil
}

// Stream starts a streaming completion. The returned channel yields any
// Delta events followed by exactly one terminal event and is then closed.
func (p *Provider) Stream(ctx context.Context, messages []provider.Message) <-chan provider.StreamEvent {
	events := make(chan provider.StreamEvent, 10)
	go func() {
		defer close(events)
		p.runStream(ctx, messages, events)
	}()
	return events
}

func (p *Provider) runStream(ctx context.Context, messages []provider.Message, events chan<- provider.StreamEvent) {
	emit := func(ev provider.StreamEvent) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	resp, err := p.post(ctx, apiRequest{
		Model:         p.model,
		Messages:      messages,
		Stream:        true,
		StreamOptions: &streamOptions{IncludeUsage: true},
	})
	if err != nil {
		emit(provider.Error{Err: fmt.Errorf("openai: %w", err)})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		emit(provider.Error{Err: &provider.StatusError{Code: resp.StatusCode, Body: string(raw)}})
		return
	}

	parser := newLineParser()
	buf := make([]byte, 4096)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			for _, ev := range parser.feed(buf[:n]) {
				if !emit(ev) {
					return
				}
			}
			if parser.terminal {
				return
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				emit(provider.Error{Err: errors.New("openai: unexpected end of stream")})
			} else {
				emit(provider.Error{Err: fmt.Errorf("openai: read stream: %w", err)})
			}
			return
		}
	}
}

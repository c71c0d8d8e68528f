package anthropic

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
	defaultBaseURL = "https://api.anthropic.com"
	apiVersion     = "2023-06-01"
	messagesPath   = "/v1/messages"
	maxTokens      = 4096
)

// Provider serves one Anthropic model over the raw Messages API.
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

func (p *Provider) Name() string { return "anthropic" }

func (p *Provider) ID() string { return p.model }

type apiRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []provider.Message `json:"messages"`
	Stream    bool               `json:"stream,omitempty"`
}

func (p *Provider) post(ctx context.Context, body apiRequest) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+messagesPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", apiVersion)
	req.Header.Set("content-type", "application/json")
	return p.client.Do(req)
}

// Complete issues a single non-streaming request. Anthropic may return
// several text blocks; they are joined in order with no separator.
func (p *Provider) Complete(ctx context.Context, messages []provider.Message, _ []json.RawMessage) (provider.CompletionResponse, error) {
	resp, err := p.post(ctx, apiRequest{Model: p.model, MaxTokens: maxTokens, Messages: messages})
	if err != nil {
		return provider.CompletionResponse{}, fmt.Errorf("anthropic: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return provider.CompletionResponse{}, fmt.Errorf("anthropic: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return provider.CompletionResponse{}, &provider.StatusError{Code: resp.StatusCode, Body: string(raw)}
	}
	if !gjson.ValidBytes(raw) {
		return provider.CompletionResponse{}, errors.New("anthropic: decode response: invalid json")
	}

	body := gjson.ParseBytes(raw)
	var text strings.Builder
	for _, block := range body.Get("content").Array() {
		if block.Get("type").String() == "text" {
			text.WriteString(block.Get("text").String())
		}
	}

	return provider.CompletionResponse{
		Text: text.String(),
		Usage: provider.Usage{
			InputTokens:  uint32(body.Get("usage.input_tokens").Uint()),
			OutputTokens: uint32(body.Get("usage.output_tokens").Uint()),
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

	resp, err := p.post(ctx, apiRequest{Model: p.model, MaxTokens: maxTokens, Messages: messages, Stream: true})
	if err != nil {
		emit(provider.Error{Err: fmt.Errorf("anthropic: %w", err)})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		emit(provider.Error{Err: &provider.StatusError{Code: resp.StatusCode, Body: string(raw)}})
		return
	}

	parser := newEventParser()
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
				emit(provider.Error{Err: errors.New("anthropic: unexpected end of stream")})
			} else {
				emit(provider.Error{Err: fmt.Errorf("anthropic: read stream: %w", err)})
			}
			return
		}
	}
}

package sdk

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/strixlab/strix/provider"
)

// Provider drives one OpenAI model through the official SDK client.
type Provider struct {
	client *openai.Client
	model  string
}

// New builds an SDK-backed provider for model. An empty baseURL keeps the
// client default endpoint. Extra request options are passed through to the
// client untouched.
func New(apiKey, model, baseURL string, options ...option.RequestOption) *Provider {
	reqOpts := append([]option.RequestOption{option.WithAPIKey(apiKey)}, options...)
	if baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}
	return &Provider{
		client: openai.NewClient(reqOpts...),
		model:  model,
	}
}

var _ provider.Provider = (*Provider)(nil)

func (p *Provider) Name() string { return "openai-sdk" }

func (p *Provider) ID() string { return p.model }

func (p *Provider) params(messages []provider.Message) openai.ChatCompletionNewParams {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			msgs = append(msgs, openai.SystemMessage(m.Content))
		case "assistant":
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessageParts(openai.TextPart(m.Content)))
		}
	}
	return openai.ChatCompletionNewParams{
		Messages: openai.F(msgs),
		Model:    openai.F(p.model),
		N:        openai.Int(1),
	}
}

// Complete issues a single non-streaming request through the SDK.
func (p *Provider) Complete(ctx context.Context, messages []provider.Message, _ []json.RawMessage) (provider.CompletionResponse, error) {
	chat, err := p.client.Chat.Completions.New(ctx, p.params(messages))
	if err != nil {
		return provider.CompletionResponse{}, fmt.Errorf("openai sdk: %w", err)
	}

	var text string
	if len(chat.Choices) > 0 {
		text = chat.Choices[0].Message.Content
	}
	return provider.CompletionResponse{
		Text: text,
		Usage: provider.Usage{
			InputTokens:  uint32(chat.Usage.PromptTokens),
			OutputTokens: uint32(chat.Usage.CompletionTokens),
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

	params := p.params(messages)
	params.StreamOptions = openai.F(openai.ChatCompletionStreamOptionsParam{
		IncludeUsage: openai.Bool(true),
	})

	strm := p.client.Chat.Completions.NewStreaming(ctx, params)
	defer strm.Close()

	var acc openai.ChatCompletionAccumulator
	for strm.Next() {
		if ctx.Err() != nil {
			return
		}
		chunk := strm.Current()
		acc.AddChunk(chunk)

		if len(chunk.Choices) == 0 {
			continue
		}
		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			if !emit(provider.Delta{Text: delta}) {
				return
			}
		}
	}

	if ctx.Err() != nil {
		return
	}
	if err := strm.Err(); err != nil {
		emit(provider.Error{Err: fmt.Errorf("openai sdk: %w", err)})
		return
	}

	usage := acc.ChatCompletion.Usage
	emit(provider.Done{Usage: provider.Usage{
		InputTokens:  uint32(usage.PromptTokens),
		OutputTokens: uint32(usage.CompletionTokens),
	}})
}

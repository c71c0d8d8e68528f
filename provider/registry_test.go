package provider

import (
	"context"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name string
	id   string
}

func (s *stubProvider) Name() string { return s.name }
func (s *stubProvider) ID() string   { return s.id }

func (s *stubProvider) Complete(context.Context, []Message, []json.RawMessage) (CompletionResponse, error) {
	return CompletionResponse{}, nil
}

func (s *stubProvider) Stream(context.Context, []Message) <-chan StreamEvent {
	events := make(chan StreamEvent)
	close(events)
	return events
}

func TestRegistry_Empty(t *testing.T) {
	r := NewRegistry()

	assert.True(t, r.IsEmpty())
	assert.Empty(t, r.ListModels())
	assert.Equal(t, "no LLM providers configured", r.Summary())

	_, ok := r.Get("gpt-4o")
	assert.False(t, ok)
	_, ok = r.First()
	assert.False(t, ok)
}

func TestRegistry_RegistrationOrder(t *testing.T) {
	r := NewRegistry()
	claude := &stubProvider{name: "anthropic", id: "claude-sonnet-4-20250514"}
	gpt := &stubProvider{name: "openai", id: "gpt-4o"}

	r.Register(ModelInfo{ID: claude.id, Provider: claude.name, DisplayName: "Claude Sonnet 4"}, claude)
	r.Register(ModelInfo{ID: gpt.id, Provider: gpt.name, DisplayName: "GPT-4o"}, gpt)

	models := r.ListModels()
	require.Len(t, models, 2)
	assert.Equal(t, "claude-sonnet-4-20250514", models[0].ID)
	assert.Equal(t, "gpt-4o", models[1].ID)

	first, ok := r.First()
	require.True(t, ok)
	assert.Same(t, claude, first)

	got, ok := r.Get("gpt-4o")
	require.True(t, ok)
	assert.Same(t, gpt, got)

	assert.Equal(t, "anthropic: claude-sonnet-4-20250514, openai: gpt-4o", r.Summary())
}

func TestRegistry_FirstRegistrationWins(t *testing.T) {
	r := NewRegistry()
	original := &stubProvider{name: "openai-sdk", id: "gpt-4o"}
	latecomer := &stubProvider{name: "openai", id: "gpt-4o"}

	r.Register(ModelInfo{ID: "gpt-4o", Provider: "openai-sdk", DisplayName: "GPT-4o (sdk)"}, original)
	r.Register(ModelInfo{ID: "gpt-4o", Provider: "openai", DisplayName: "GPT-4o"}, latecomer)

	got, ok := r.Get("gpt-4o")
	require.True(t, ok)
	assert.Same(t, original, got)

	models := r.ListModels()
	require.Len(t, models, 1)
	assert.Equal(t, "openai-sdk", models[0].Provider)
}

package provider

import (
	"context"

	json "github.com/goccy/go-json"
)

// Message is a single turn in a conversation. Messages form an ordered
// sequence and that order is semantically significant: it is the
// conversation history, preserved end-to-end through every provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Usage carries the token counters reported by the upstream API. Counters
// are refined while a stream is in flight and final once it completes.
// Absent or unparseable counters default to zero, they never fail a request.
type Usage struct {
	InputTokens  uint32 `json:"input_tokens"`
	OutputTokens uint32 `json:"output_tokens"`
}

// CompletionResponse is the result of a non-streaming Complete call. Text
// is the concatenation of all textual fragments the upstream returned,
// joined left to right in fragment order.
type CompletionResponse struct {
	Text      string            `json:"text,omitempty"`
	ToolCalls []json.RawMessage `json:"tool_calls,omitempty"`
	Usage     Usage             `json:"usage"`
}

// Provider is the contract one upstream LLM API implements. Each instance
// serves exactly one model id. Implementations hold a single HTTP client
// that is safe for concurrent use across calls.
//
// Complete issues one synchronous request and fails when the call cannot be
// completed, the upstream returns a non-success status, or the body does
// not decode as the expected schema. No retries happen at this layer.
//
// Stream returns a finite, single-consumer, non-restartable sequence of
// events. The producing goroutine suspends at network I/O boundaries,
// emits any Delta events strictly before the terminal event, closes the
// channel after the terminal event, and observes ctx at every suspension
// point so a cancelled consumer shuts the connection down cleanly.
type Provider interface {
	// Name returns the stable backend tag (not the model id).
	Name() string
	// ID returns the model identifier this instance serves.
	ID() string

	Complete(ctx context.Context, messages []Message, tools []json.RawMessage) (CompletionResponse, error)
	Stream(ctx context.Context, messages []Message) <-chan StreamEvent
}

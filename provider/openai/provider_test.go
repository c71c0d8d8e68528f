package openai

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/strixlab/strix/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func drain(events <-chan provider.StreamEvent) []provider.StreamEvent {
	var out []provider.StreamEvent
	for event := range events {
		out = append(out, event)
	}
	return out
}

func TestStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.True(t, gjson.GetBytes(body, "stream").Bool())
		assert.True(t, gjson.GetBytes(body, "stream_options.include_usage").Bool())

		w.Header().Set("content-type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, line := range []string{
			"data: {\"choices\":[{\"delta\":{\"content\":\"Hey\"}}]}\n",
			"data: {\"choices\":[],\"usage\":{\"prompt_tokens\":8,\"completion_tokens\":2}}\n",
			"data: [DONE]\n",
		} {
			_, _ = io.WriteString(w, line)
			flusher.Flush()
		}
	}))
	defer srv.Close()

	p := New("secret", "gpt-4o", srv.URL)
	events := drain(p.Stream(context.Background(), []provider.Message{{Role: "user", Content: "hi"}}))

	require.Len(t, events, 2)
	assert.Equal(t, provider.Delta{Text: "Hey"}, events[0])
	assert.Equal(t, provider.Done{Usage: provider.Usage{InputTokens: 8, OutputTokens: 2}}, events[1])
}

func TestStream_HTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, "rate limited")
	}))
	defer srv.Close()

	p := New("secret", "gpt-4o", srv.URL)
	events := drain(p.Stream(context.Background(), nil))

	require.Len(t, events, 1)
	errEvent, ok := events[0].(provider.Error)
	require.True(t, ok)

	var statusErr *provider.StatusError
	require.ErrorAs(t, errEvent.Err, &statusErr)
	assert.Equal(t, http.StatusTooManyRequests, statusErr.Code)
	assert.Equal(t, "rate limited", statusErr.Body)
}

func TestStream_UnexpectedEOF(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "data: {\"choices\":[{\"delta\":{\"content\":\"partial\"}}]}\n")
	}))
	defer srv.Close()

	p := New("secret", "gpt-4o", srv.URL)
	events := drain(p.Stream(context.Background(), nil))

	require.Len(t, events, 2)
	assert.Equal(t, provider.Delta{Text: "partial"}, events[0])
	errEvent, ok := events[1].(provider.Error)
	require.True(t, ok)
	assert.ErrorContains(t, errEvent.Err, "unexpected end of stream")
}

func TestComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.False(t, gjson.GetBytes(body, "stream").Exists())
		assert.False(t, gjson.GetBytes(body, "stream_options").Exists())
		assert.Equal(t, "gpt-4o", gjson.GetBytes(body, "model").String())

		_, _ = io.WriteString(w, `{
			"choices": [{"message": {"content": "Hello!"}}],
			"usage": {"prompt_tokens": 9, "completion_tokens": 4}
		}`)
	}))
	defer srv.Close()

	p := New("secret", "gpt-4o", srv.URL)
	resp, err := p.Complete(context.Background(), []provider.Message{{Role: "user", Content: "hi"}}, nil)

	require.NoError(t, err)
	assert.Equal(t, "Hello!", resp.Text)
	assert.Equal(t, provider.Usage{InputTokens: 9, OutputTokens: 4}, resp.Usage)
}

func TestComplete_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"bad key"}}`)
	}))
	defer srv.Close()

	p := New("bogus", "gpt-4o", srv.URL)
	_, err := p.Complete(context.Background(), nil, nil)

	var statusErr *provider.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.Code)
}

func TestComplete_DecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html>gateway error</html>")
	}))
	defer srv.Close()

	p := New("secret", "gpt-4o", srv.URL)
	_, err := p.Complete(context.Background(), nil, nil)
	assert.ErrorContains(t, err, "decode response")
}

func TestProviderIdentity(t *testing.T) {
	p := New("secret", "gpt-4o", "")
	assert.Equal(t, "openai", p.Name())
	assert.Equal(t, "gpt-4o", p.ID())
}

package anthropic

import (
	"fmt"
	"testing"

	"github.com/strixlab/strix/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wellFormedStream = "data: {\"type\":\"message_start\",\"message\":{\"usage\":{\"input_tokens\":10}}}\n\n" +
	"data: {\"type\":\"content_block_delta\",\"delta\":{\"text\":\"Hi\"}}\n\n" +
	"data: {\"type\":\"message_delta\",\"usage\":{\"output_tokens\":3}}\n\n" +
	"data: {\"type\":\"message_stop\"}\n\n"

func collect(p *eventParser, input string, chunkSize int) []provider.StreamEvent {
	var events []provider.StreamEvent
	for i := 0; i < len(input); i += chunkSize {
		end := i + chunkSize
		if end > len(input) {
			end = len(input)
		}
		events = append(events, p.feed([]byte(input[i:end]))...)
	}
	return events
}

func TestEventParser_WellFormed(t *testing.T) {
	events := collect(newEventParser(), wellFormedStream, len(wellFormedStream))

	require.Len(t, events, 2)
	assert.Equal(t, provider.Delta{Text: "Hi"}, events[0])
	assert.Equal(t, provider.Done{Usage: provider.Usage{InputTokens: 10, OutputTokens: 3}}, events[1])
}

func TestEventParser_ChunkBoundaryIndependence(t *testing.T) {
	want := collect(newEventParser(), wellFormedStream, len(wellFormedStream))

	for _, size := range []int{1, 2, 3, 5, 7, 16, 64} {
		t.Run(fmt.Sprintf("chunk size %d", size), func(t *testing.T) {
			assert.Equal(t, want, collect(newEventParser(), wellFormedStream, size))
		})
	}
}

func TestEventParser_MalformedLineSkipped(t *testing.T) {
	input := "data: {not json at all\n\n" +
		"data: {\"type\":\"content_block_delta\",\"delta\":{\"text\":\"ok\"}}\n\n" +
		"data: {\"type\":\"message_stop\"}\n\n"

	events := collect(newEventParser(), input, len(input))

	require.Len(t, events, 2)
	assert.Equal(t, provider.Delta{Text: "ok"}, events[0])
	assert.IsType(t, provider.Done{}, events[1])
}

func TestEventParser_EmptyDeltaSuppressed(t *testing.T) {
	input := "data: {\"type\":\"content_block_delta\",\"delta\":{\"text\":\"\"}}\n\n" +
		"data: {\"type\":\"message_stop\"}\n\n"

	events := collect(newEventParser(), input, len(input))

	require.Len(t, events, 1)
	assert.IsType(t, provider.Done{}, events[0])
}

func TestEventParser_ErrorEvent(t *testing.T) {
	t.Run("with message", func(t *testing.T) {
		input := "data: {\"type\":\"error\",\"error\":{\"message\":\"overloaded\"}}\n\n"
		events := collect(newEventParser(), input, len(input))

		require.Len(t, events, 1)
		errEvent, ok := events[0].(provider.Error)
		require.True(t, ok)
		assert.EqualError(t, errEvent.Err, "overloaded")
	})

	t.Run("without message falls back", func(t *testing.T) {
		input := "data: {\"type\":\"error\"}\n\n"
		events := collect(newEventParser(), input, len(input))

		require.Len(t, events, 1)
		errEvent, ok := events[0].(provider.Error)
		require.True(t, ok)
		assert.EqualError(t, errEvent.Err, "unknown error")
	})
}

func TestEventParser_UnknownTypesIgnored(t *testing.T) {
	input := "data: {\"type\":\"ping\"}\n\n" +
		"data: {\"type\":\"content_block_start\",\"content_block\":{\"type\":\"text\"}}\n\n" +
		"data: {\"type\":\"message_stop\"}\n\n"

	events := collect(newEventParser(), input, len(input))
	require.Len(t, events, 1)
	assert.IsType(t, provider.Done{}, events[0])
}

func TestEventParser_NothingAfterTerminal(t *testing.T) {
	p := newEventParser()
	events := p.feed([]byte("data: {\"type\":\"message_stop\"}\n\ndata: {\"type\":\"content_block_delta\",\"delta\":{\"text\":\"late\"}}\n\n"))
	require.Len(t, events, 1)
	assert.IsType(t, provider.Done{}, events[0])

	assert.Empty(t, p.feed([]byte("data: {\"type\":\"content_block_delta\",\"delta\":{\"text\":\"more\"}}\n\n")))
}

func TestEventParser_NonDataLinesIgnored(t *testing.T) {
	input := "event: message_stop\ndata: {\"type\":\"message_stop\"}\n\n"
	events := collect(newEventParser(), input, len(input))
	require.Len(t, events, 1)
	assert.IsType(t, provider.Done{}, events[0])
}

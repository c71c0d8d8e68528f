package openai

import (
	"bytes"
	"strings"

	"github.com/strixlab/strix/provider"
	"github.com/tidwall/gjson"
)

const (
	dataPrefix   = "data: "
	doneSentinel = "[DONE]"
)

// lineParser splits arbitrarily sized byte chunks on single newlines.
// Blank lines and lines without the "data: " prefix are ignored; the
// literal [DONE] payload terminates the stream with whatever usage
// counters were captured so far.
type lineParser struct {
	buf          []byte
	inputTokens  uint32
	outputTokens uint32
	terminal     bool
}

func newLineParser() *lineParser {
	return &lineParser{}
}

// feed appends chunk to the parse buffer and returns every stream event the
// chunk completed. The remainder after the last newline stays buffered.
// Once a terminal event has been produced feed returns nothing.
func (p *lineParser) feed(chunk []byte) []provider.StreamEvent {
	if p.terminal {
		return nil
	}
	p.buf = append(p.buf, chunk...)

	var events []provider.StreamEvent
	for {
		idx := bytes.IndexByte(p.buf, '\n')
		if idx < 0 {
			return events
		}
		line := strings.TrimSpace(string(p.buf[:idx]))
		p.buf = p.buf[idx+1:]

		if line == "" {
			continue
		}
		data, ok := strings.CutPrefix(line, dataPrefix)
		if !ok {
			continue
		}

		if data == doneSentinel {
			p.terminal = true
			return append(events, provider.Done{Usage: provider.Usage{
				InputTokens:  p.inputTokens,
				OutputTokens: p.outputTokens,
			}})
		}

		// Malformed payloads are skipped, they never kill the stream.
		if !gjson.Valid(data) {
			continue
		}
		evt := gjson.Parse(data)

		// Usage arrives in a dedicated event when stream_options requests
		// it; it overwrites both counters.
		if usage := evt.Get("usage"); usage.Exists() && usage.Type != gjson.Null {
			p.inputTokens = uint32(usage.Get("prompt_tokens").Uint())
			p.outputTokens = uint32(usage.Get("completion_tokens").Uint())
		}

		if delta := evt.Get("choices.0.delta.content").String(); delta != "" {
			events = append(events, provider.Delta{Text: delta})
		}
	}
}

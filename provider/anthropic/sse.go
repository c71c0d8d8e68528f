package anthropic

import (
	"bytes"
	"errors"
	"strings"

	"github.com/strixlab/strix/provider"
	"github.com/tidwall/gjson"
)

const dataPrefix = "data: "

var blockDelim = []byte("\n\n")

// eventParser assembles server-sent-event blocks out of arbitrarily sized
// byte chunks. Blocks are separated by a blank line; each "data: " line in
// a block carries one JSON object dispatched on its type discriminator.
type eventParser struct {
	buf          []byte
	inputTokens  uint32
	outputTokens uint32
	terminal     bool
}

func newEventParser() *eventParser {
	return &eventParser{}
}

// feed appends chunk to the parse buffer and returns every stream event the
// chunk completed. Incomplete trailing data stays buffered for the next
// call. Once a terminal event has been produced feed returns nothing.
func (p *eventParser) feed(chunk []byte) []provider.StreamEvent {
	if p.terminal {
		return nil
	}
	p.buf = append(p.buf, chunk...)

	var events []provider.StreamEvent
	for {
		idx := bytes.Index(p.buf, blockDelim)
		if idx < 0 {
			return events
		}
		block := string(p.buf[:idx])
		p.buf = p.buf[idx+len(blockDelim):]

		for _, line := range strings.Split(block, "\n") {
			data, ok := strings.CutPrefix(line, dataPrefix)
			if !ok {
				continue
			}
			// Malformed payloads are skipped, they never kill the stream.
			if !gjson.Valid(data) {
				continue
			}

			evt := gjson.Parse(data)
			switch evt.Get("type").String() {
			case "content_block_delta":
				if text := evt.Get("delta.text").String(); text != "" {
					events = append(events, provider.Delta{Text: text})
				}
			case "message_start":
				if tokens := evt.Get("message.usage.input_tokens"); tokens.Exists() {
					p.inputTokens = uint32(tokens.Uint())
				}
			case "message_delta":
				if tokens := evt.Get("usage.output_tokens"); tokens.Exists() {
					p.outputTokens = uint32(tokens.Uint())
				}
			case "message_stop":
				p.terminal = true
				return append(events, provider.Done{Usage: provider.Usage{
					InputTokens:  p.inputTokens,
					OutputTokens: p.outputTokens,
				}})
			case "error":
				p.terminal = true
				msg := evt.Get("error.message").String()
				if msg == "" {
					msg = "unknown error"
				}
				return append(events, provider.Error{Err: errors.New(msg)})
			}
		}
	}
}

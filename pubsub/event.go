package pubsub

import (
	"fmt"

	"github.com/go-openapi/strfmt"
	"github.com/strixlab/strix/provider"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var (
	deltaJSON = []byte(`{"state":"delta"}`)
	finalJSON = []byte(`{"state":"final"}`)
	errorJSON = []byte(`{"state":"error"}`)
)

// Event is one broadcast message about a run. The unexported marker keeps
// the union closed; the JSON encoding carries a "state" discriminator of
// delta, final or error.
type Event interface {
	pubsubEvent()
	// Run returns the id of the run the event belongs to.
	Run() string
}

// Delta carries one incremental text fragment of a streaming run.
type Delta struct {
	RunID     string          `json:"runId"`
	Text      string          `json:"text"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
}

func (Delta) pubsubEvent() {}

func (d Delta) Run() string { return d.RunID }

// Final carries the full accumulated text of a completed run together with
// the final usage counters.
type Final struct {
	RunID     string          `json:"runId"`
	Text      string          `json:"text"`
	Usage     provider.Usage  `json:"usage"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
}

func (Final) pubsubEvent() {}

func (f Final) Run() string { return f.RunID }

// Error reports a failed run with a human-readable message.
type Error struct {
	RunID     string          `json:"runId"`
	Message   string          `json:"message"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
}

func (Error) pubsubEvent() {}

func (e Error) Run() string { return e.RunID }

var (
	_ Event = Delta{}
	_ Event = Final{}
	_ Event = Error{}
)

// MarshalJSON implements custom JSON marshaling for Delta.
func (d Delta) MarshalJSON() ([]byte, error) {
	result := deltaJSON

	var err error
	result, err = sjson.SetBytes(result, "runId", d.RunID)
	if err != nil {
		return nil, err
	}
	result, err = sjson.SetBytes(result, "text", d.Text)
	if err != nil {
		return nil, err
	}
	if !d.Timestamp.IsZero() {
		result, err = sjson.SetBytes(result, "timestamp", d.Timestamp.String())
	}
	return result, err
}

// UnmarshalJSON implements custom JSON unmarshaling for Delta.
func (d *Delta) UnmarshalJSON(data []byte) error {
	if err := checkState(data, "delta"); err != nil {
		return err
	}

	runID := gjson.GetBytes(data, "runId")
	if !runID.Exists() {
		return fmt.Errorf("missing required field 'runId'")
	}
	d.RunID = runID.String()
	d.Text = gjson.GetBytes(data, "text").String()

	return parseTimestamp(data, &d.Timestamp)
}

// MarshalJSON implements custom JSON marshaling for Final.
func (f Final) MarshalJSON() ([]byte, error) {
	result := finalJSON

	var err error
	result, err = sjson.SetBytes(result, "runId", f.RunID)
	if err != nil {
		return nil, err
	}
	result, err = sjson.SetBytes(result, "text", f.Text)
	if err != nil {
		return nil, err
	}
	result, err = sjson.SetBytes(result, "usage.input_tokens", f.Usage.InputTokens)
	if err != nil {
		return nil, err
	}
	result, err = sjson.SetBytes(result, "usage.output_tokens", f.Usage.OutputTokens)
	if err != nil {
		return nil, err
	}
	if !f.Timestamp.IsZero() {
		result, err = sjson.SetBytes(result, "timestamp", f.Timestamp.String())
	}
	return result, err
}

// UnmarshalJSON implements custom JSON unmarshaling for Final.
func (f *Final) UnmarshalJSON(data []byte) error {
	if err := checkState(data, "final"); err != nil {
		return err
	}

	runID := gjson.GetBytes(data, "runId")
	if !runID.Exists() {
		return fmt.Errorf("missing required field 'runId'")
	}
	f.RunID = runID.String()
	f.Text = gjson.GetBytes(data, "text").String()
	f.Usage = provider.Usage{
		InputTokens:  uint32(gjson.GetBytes(data, "usage.input_tokens").Uint()),
		OutputTokens: uint32(gjson.GetBytes(data, "usage.output_tokens").Uint()),
	}

	return parseTimestamp(data, &f.Timestamp)
}

// MarshalJSON implements custom JSON marshaling for Error.
func (e Error) MarshalJSON() ([]byte, error) {
	result := errorJSON

	var err error
	result, err = sjson.SetBytes(result, "runId", e.RunID)
	if err != nil {
		return nil, err
	}
	result, err = sjson.SetBytes(result, "message", e.Message)
	if err != nil {
		return nil, err
	}
	if !e.Timestamp.IsZero() {
		result, err = sjson.SetBytes(result, "timestamp", e.Timestamp.String())
	}
	return result, err
}

// UnmarshalJSON implements custom JSON unmarshaling for Error.
func (e *Error) UnmarshalJSON(data []byte) error {
	if err := checkState(data, "error"); err != nil {
		return err
	}

	runID := gjson.GetBytes(data, "runId")
	if !runID.Exists() {
		return fmt.Errorf("missing required field 'runId'")
	}
	e.RunID = runID.String()
	e.Message = gjson.GetBytes(data, "message").String()

	return parseTimestamp(data, &e.Timestamp)
}

func checkState(data []byte, want string) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid json: %s", data)
	}
	state := gjson.GetBytes(data, "state")
	if !state.Exists() || state.String() != want {
		return fmt.Errorf("missing or invalid state, expected %q", want)
	}
	return nil
}

func parseTimestamp(data []byte, dst *strfmt.DateTime) error {
	ts := gjson.GetBytes(data, "timestamp")
	if !ts.Exists() {
		return nil
	}
	if err := dst.UnmarshalText([]byte(ts.String())); err != nil {
		return fmt.Errorf("invalid timestamp: %w", err)
	}
	return nil
}

// ToJSON encodes an event for the wire.
func ToJSON(event Event) ([]byte, error) {
	switch event := event.(type) {
	case Delta:
		return event.MarshalJSON()
	case Final:
		return event.MarshalJSON()
	case Error:
		return event.MarshalJSON()
	default:
		return nil, fmt.Errorf("unknown event type: %T", event)
	}
}

// FromJSON decodes an event, dispatching on the state discriminator.
func FromJSON(data []byte) (Event, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid json: %s", data)
	}
	switch state := gjson.GetBytes(data, "state").String(); state {
	case "delta":
		var d Delta
		if err := d.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return d, nil
	case "final":
		var f Final
		if err := f.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return f, nil
	case "error":
		var e Error
		if err := e.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown event state: %q", state)
	}
}

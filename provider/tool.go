package provider

import (
	json "github.com/goccy/go-json"
	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// NewTool renders a tool definition as the opaque payload Complete passes
// through to the upstream API unmodified. A nil schema produces an empty
// object schema so the payload is always well-formed.
func NewTool(name, description string, schema *jsonschema.Schema) (json.RawMessage, error) {
	if schema == nil {
		schema = &jsonschema.Schema{
			Type:       "object",
			Properties: orderedmap.New[string, *jsonschema.Schema](),
		}
	}
	payload := struct {
		Name        string             `json:"name"`
		Description string             `json:"description,omitempty"`
		InputSchema *jsonschema.Schema `json:"input_schema"`
	}{Name: name, Description: description, InputSchema: schema}

	return json.Marshal(payload)
}

package chat

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingText rejects a send request without the required text field.
	ErrMissingText = errors.New("missing 'text' parameter")

	// ErrNoProviders is returned when no model was requested and the
	// registry has nothing to fall back to.
	ErrNoProviders = errors.New("no LLM providers configured")

	// ErrNotImplemented marks operations stubbed out at this layer.
	ErrNotImplemented = errors.New("not yet implemented")
)

// ModelNotFoundError reports a send request naming a model the registry
// does not serve. Available lists the ids that are.
type ModelNotFoundError struct {
	Model     string
	Available []string
}

func (e *ModelNotFoundError) Error() string {
	return fmt.Sprintf("model %q not found. available: %v", e.Model, e.Available)
}

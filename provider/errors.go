package provider

import "fmt"

// StatusError reports a non-success HTTP response from an upstream API.
// It carries the numeric status code and the raw response body text.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Code, e.Body)
}

// Package uuidx generates the v7 UUIDs used for run and subscription ids.
// V7 ids are time-ordered, which keeps log output and NATS subjects
// roughly chronological.
package uuidx

import "github.com/google/uuid"

// New returns a fresh v7 UUID. It panics when the random source fails.
func New() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// NewString returns a fresh v7 UUID in its canonical string form.
func NewString() string {
	return New().String()
}

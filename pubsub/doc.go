// Package pubsub is the broadcast fan-out the chat service publishes run
// lifecycle events into. Topics are named; publishing never blocks the
// producer indefinitely and delivery to subscribers is at-most-once. A
// topic with no subscribers simply drops events.
//
// Two brokers are provided: Local, an in-process fan-out over buffered
// channels, and NATS, which carries the same JSON-encoded events over a
// NATS connection so subscribers can live in other processes.
package pubsub

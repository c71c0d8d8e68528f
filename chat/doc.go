// Package chat is the run manager: it accepts completion requests,
// resolves a provider, and drives each request as an independently
// cancellable run whose lifecycle events are broadcast through pubsub.
//
// A run moves through Created -> Streaming -> {Completed | Failed |
// Aborted}; every terminal state removes the run from the active set
// exactly once. Send returns the run id immediately, it never waits for
// stream completion.
package chat

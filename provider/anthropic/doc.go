// Package anthropic implements provider.Provider against the Anthropic
// Messages API using plain HTTP. Streaming responses arrive as
// server-sent-event blocks separated by a blank line; the parser never
// assumes chunk boundaries align with block or JSON boundaries.
package anthropic

// Package openai implements provider.Provider against the OpenAI chat
// completions API using plain HTTP. The streaming dialect is newline
// delimited with a literal [DONE] sentinel as the terminal signal; usage
// counters arrive in a dedicated usage-only event when stream_options
// requests them.
package openai

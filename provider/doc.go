// Package provider implements an abstraction layer for interacting with LLM
// backends (Anthropic, OpenAI, ...) in a consistent way. It defines the
// contract every backend implements plus the vendor-neutral value types that
// flow between backends and the rest of the gateway.
//
// Key concepts:
//   - Provider: interface one upstream API implements, serving exactly one
//     model id. It offers a synchronous Complete call and an incremental
//     Stream call.
//   - StreamEvent: sealed union of the events a stream produces. Deltas
//     carry text fragments; exactly one Done or Error terminates the
//     sequence and nothing follows it.
//   - Registry: the startup-built, thereafter read-only mapping from model
//     id to the Provider serving it. First registration for an id wins.
//
// Vendor implementations live in the subpackages anthropic (block-delimited
// SSE), openai (line-delimited SSE with a [DONE] sentinel) and sdk (adapter
// over the official openai-go client). Discovery from configuration lives
// in the models subpackage.
package provider

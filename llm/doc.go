// Package llm provides a provider-agnostic chat client domain model.
//
// Design goals:
//   - Stable domain model: callers build requests using canonical types (ChatRequest, Message, ToolDefinition).
//   - Explicit streaming: providers emit StreamEvent values (text/reasoning/tool-call deltas, usage, done)
//     and callers reconstruct final messages using Accumulator or DrainStream.
//   - Controlled escape hatches: provider-specific fields can be passed via ChatRequest.Extra, and
//     request-scoped headers via ChatRequest.Transport.
//
// Provider implementations live under llm/providers and are responsible for mapping between the
// canonical model and each provider's wire format. The session package builds multi-turn
// conversations and tool-call loops on top of this model.
package llm

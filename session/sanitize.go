package session

import "github.com/lgc202/chatkit/llm"

// StripReasoning returns a copy of messages with Reasoning cleared on every
// assistant turn. Content, tool calls, and all non-assistant turns are
// preserved verbatim.
//
// The function is pure and idempotent: applying it twice yields the same
// result as once. It never fails; an unstripped history costs payload size,
// nothing more.
func StripReasoning(messages []llm.Message) []llm.Message {
	out := make([]llm.Message, len(messages))
	for i, m := range messages {
		if m.Role == llm.RoleAssistant && m.Reasoning != "" {
			m = m.Clone()
			m.Reasoning = ""
		}
		out[i] = m
	}
	return out
}

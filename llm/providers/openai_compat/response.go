package openai_compat

import (
	"strings"

	"github.com/lgc202/chatkit/llm"
)

func (p *Provider) mapResponse(r chatCompletionResponse) llm.ChatResponse {
	out := llm.ChatResponse{
		ID:      r.ID,
		Model:   r.Model,
		Created: r.CreatedTime(),
		Choices: make([]llm.ChatChoice, 0, len(r.Choices)),
	}
	if r.Usage != nil {
		out.Usage = mapUsage(r.Usage)
	}

	for _, c := range r.Choices {
		msg := llm.Message{Role: llm.RoleAssistant}
		if c.Message.Role != "" {
			msg.Role = llm.Role(c.Message.Role)
		}
		text, reasoningFromContent := splitContent(c.Message.Content)
		reasoning := reasoningFromContent
		if c.Message.ReasoningContent != "" {
			reasoning = c.Message.ReasoningContent + reasoning
		}
		if thinking := anyString(c.Message.Thinking); thinking != "" {
			reasoning = thinking + reasoning
		}
		msg.Content = text
		msg.Reasoning = reasoning
		msg.Name = c.Message.Name
		if len(c.Message.ToolCalls) > 0 {
			msg.ToolCalls = make([]llm.ToolCall, 0, len(c.Message.ToolCalls))
			for _, tc := range c.Message.ToolCalls {
				msg.ToolCalls = append(msg.ToolCalls, llm.ToolCall{
					ID:            tc.ID,
					Name:          tc.Function.Name,
					ArgumentsText: tc.Function.Arguments,
				})
			}
		}
		out.Choices = append(out.Choices, llm.ChatChoice{
			Index:        c.Index,
			Message:      msg,
			FinishReason: mapFinishReason(c.FinishReason),
		})
	}
	return out
}

func mapUsage(u *chatCompletionUsage) *llm.Usage {
	out := &llm.Usage{
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
	}
	d := llm.UsageDetails{
		PromptCacheHitTokens:  u.intField("prompt_cache_hit_tokens"),
		PromptCacheMissTokens: u.intField("prompt_cache_miss_tokens"),
	}
	cachedTokens := u.intField("cached_tokens")
	if d.PromptCacheHitTokens == 0 && cachedTokens != 0 {
		// Some providers only report a single cache number.
		d.PromptCacheHitTokens = cachedTokens
	}
	d.ReasoningTokens = u.intFieldInObject("completion_tokens_details", "reasoning_tokens")
	if d.PromptCacheHitTokens != 0 || d.PromptCacheMissTokens != 0 || d.ReasoningTokens != 0 {
		out.Details = &d
	}
	return out
}

func mapFinishReason(fr string) llm.FinishReason {
	switch fr {
	case "stop":
		return llm.FinishReasonStop
	case "length":
		return llm.FinishReasonLength
	case "tool_calls", "function_call":
		return llm.FinishReasonToolCalls
	case "":
		return ""
	default:
		return llm.FinishReasonUnknown
	}
}

func splitContent(v any) (text string, reasoning string) {
	switch x := v.(type) {
	case nil:
		return "", ""
	case string:
		return x, ""
	case []any:
		var b strings.Builder
		var r strings.Builder
		for _, it := range x {
			if m, ok := it.(map[string]any); ok {
				typeStr, _ := m["type"].(string)
				if t, ok := m["text"].(string); ok {
					switch typeStr {
					case "reasoning", "thinking":
						r.WriteString(t)
					default:
						b.WriteString(t)
					}
				}
			}
		}
		return b.String(), r.String()
	case map[string]any:
		typeStr, _ := x["type"].(string)
		if t, ok := x["text"].(string); ok {
			switch typeStr {
			case "reasoning", "thinking":
				return "", t
			default:
				return t, ""
			}
		}
		return "", ""
	default:
		return "", ""
	}
}

func anyString(v any) string {
	s, _ := v.(string)
	return s
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if v != "" {
			return v
		}
	}
	return ""
}

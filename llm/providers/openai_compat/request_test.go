package openai_compat

import (
	"encoding/json"
	"testing"

	"github.com/lgc202/chatkit/llm"
)

func TestMapRequest_WireShape(t *testing.T) {
	p, err := New("k", WithDefaultModel("m"))
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	req := llm.ChatRequest{
		Messages: []llm.Message{
			llm.System("sys"),
			llm.User("q"),
			{
				Role:      llm.RoleAssistant,
				Reasoning: "never on the wire",
				ToolCalls: []llm.ToolCall{{ID: "call_1", Name: "get_date", ArgumentsText: "{}"}},
			},
			llm.ToolResult("call_1", "2025-12-01"),
		},
		Tools: []llm.ToolDefinition{{
			Name:        "get_date",
			Description: "current date",
			InputSchema: json.RawMessage(`{"type":"object"}`),
		}},
		ToolChoice: &llm.ToolChoice{Mode: llm.ToolChoiceAuto},
	}

	m := p.mapRequest(req)
	raw, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal err=%v", err)
	}

	var decoded struct {
		Model    string `json:"model"`
		Messages []struct {
			Role             string `json:"role"`
			Content          string `json:"content"`
			ReasoningContent string `json:"reasoning_content"`
			ToolCallID       string `json:"tool_call_id"`
			ToolCalls        []struct {
				ID       string `json:"id"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"messages"`
		Tools      []any `json:"tools"`
		ToolChoice any   `json:"tool_choice"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal err=%v", err)
	}

	if decoded.Model != "m" {
		t.Fatalf("model=%q", decoded.Model)
	}
	if len(decoded.Messages) != 4 {
		t.Fatalf("messages=%d", len(decoded.Messages))
	}
	for i, msg := range decoded.Messages {
		if msg.ReasoningContent != "" {
			t.Fatalf("message %d leaked reasoning: %q", i, msg.ReasoningContent)
		}
	}
	asst := decoded.Messages[2]
	if len(asst.ToolCalls) != 1 || asst.ToolCalls[0].ID != "call_1" || asst.ToolCalls[0].Function.Name != "get_date" {
		t.Fatalf("assistant tool calls=%+v", asst.ToolCalls)
	}
	tool := decoded.Messages[3]
	if tool.Role != "tool" || tool.ToolCallID != "call_1" || tool.Content != "2025-12-01" {
		t.Fatalf("tool message=%+v", tool)
	}
	if len(decoded.Tools) != 1 {
		t.Fatalf("tools=%d", len(decoded.Tools))
	}
	if decoded.ToolChoice != "auto" {
		t.Fatalf("tool_choice=%v", decoded.ToolChoice)
	}
}

func TestMapToolChoice(t *testing.T) {
	if got := mapToolChoice(llm.NoneToolChoice()); got != "none" {
		t.Fatalf("none=%v", got)
	}
	if got := mapToolChoice(llm.RequiredToolChoice()); got != "required" {
		t.Fatalf("required=%v", got)
	}
	fn := mapToolChoice(llm.FunctionToolChoice("f")).(map[string]any)
	if fn["type"] != "function" {
		t.Fatalf("function=%v", fn)
	}
}

package openai_compat

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/lgc202/chatkit/llm"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func newTestProvider(t *testing.T, rt roundTripperFunc) *Provider {
	t.Helper()
	p, err := New("test-key",
		WithProviderName("test"),
		WithBaseURL("https://example.test"),
		WithHTTPClient(&http.Client{Transport: rt}),
		WithDefaultModel("m"),
	)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	return p
}

func sseResponse(r *http.Request, lines ...string) *http.Response {
	h := make(http.Header)
	h.Set("Content-Type", "text/event-stream")
	payload := strings.Join(append(lines, ""), "\n")
	return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(payload)), Header: h, Request: r}
}

func jsonResponse(r *http.Request, status int, body string) *http.Response {
	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body)), Header: h, Request: r}
}

func TestChat_MapsResponse(t *testing.T) {
	p := newTestProvider(t, func(r *http.Request) (*http.Response, error) {
		if r.URL.Path != "/v1/chat/completions" {
			return jsonResponse(r, http.StatusNotFound, ""), nil
		}
		if got := r.Header.Get("Authorization"); !strings.HasPrefix(got, "Bearer ") {
			return jsonResponse(r, http.StatusUnauthorized, ""), nil
		}
		body, _ := io.ReadAll(r.Body)
		if bytes.Contains(body, []byte("reasoning")) {
			return jsonResponse(r, http.StatusBadRequest, `{"error":{"message":"reasoning must not be resubmitted"}}`), nil
		}
		return jsonResponse(r, http.StatusOK, `{
			"id":"c1","object":"chat.completion","created":1700000000,"model":"m",
			"choices":[{"index":0,"message":{"role":"assistant","content":"hi","reasoning_content":"hmm"},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":10,"completion_tokens":2,"total_tokens":12,"prompt_cache_hit_tokens":8,"prompt_cache_miss_tokens":2}
		}`), nil
	})

	resp, err := p.Chat(context.Background(), llm.ChatRequest{
		Messages: []llm.Message{
			llm.User("q1"),
			// Reasoning on history must never reach the wire.
			{Role: llm.RoleAssistant, Content: "a1", Reasoning: "chain of thought"},
			llm.User("q2"),
		},
	})
	if err != nil {
		t.Fatalf("Chat() err=%v", err)
	}
	if got := resp.FirstText(); got != "hi" {
		t.Fatalf("FirstText()=%q", got)
	}
	if resp.Choices[0].Message.Reasoning != "hmm" {
		t.Fatalf("Reasoning=%q", resp.Choices[0].Message.Reasoning)
	}
	if resp.Usage == nil || resp.Usage.Details == nil {
		t.Fatalf("Usage=%+v", resp.Usage)
	}
	if resp.Usage.Details.PromptCacheHitTokens != 8 {
		t.Fatalf("PromptCacheHitTokens=%d", resp.Usage.Details.PromptCacheHitTokens)
	}
}

func TestChatStream_TextDelta(t *testing.T) {
	p := newTestProvider(t, func(r *http.Request) (*http.Response, error) {
		body, _ := io.ReadAll(r.Body)
		if !bytes.Contains(body, []byte(`"stream":true`)) {
			return jsonResponse(r, http.StatusBadRequest, `{"error":{"message":"expected stream"}}`), nil
		}
		return sseResponse(r,
			": keep-alive",
			"",
			`data: {"id":"s1","object":"chat.completion.chunk","created":1,"model":"m","choices":[{"index":0,"delta":{"content":"Hel"},"finish_reason":""}]}`,
			"",
			": keep-alive",
			"",
			`data: {"id":"s1","object":"chat.completion.chunk","created":1,"model":"m","choices":[{"index":0,"delta":{"content":"lo"},"finish_reason":""}]}`,
			"",
			`data: {"id":"s1","object":"chat.completion.chunk","created":1,"model":"m","choices":[{"index":0,"delta":{"content":" world"},"finish_reason":""}]}`,
			"",
			`data: {"id":"s1","object":"chat.completion.chunk","created":1,"model":"m","choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}`,
			"",
			"data: [DONE]",
		), nil
	})

	stream, err := p.ChatStream(context.Background(), llm.ChatRequest{
		Messages: []llm.Message{llm.User("hi")},
	})
	if err != nil {
		t.Fatalf("ChatStream() err=%v", err)
	}

	resp, err := llm.DrainStream(stream)
	if err != nil {
		t.Fatalf("DrainStream() err=%v", err)
	}
	if got := resp.FirstText(); got != "Hello world" {
		t.Fatalf("FirstText()=%q", got)
	}
	if resp.Choices[0].FinishReason != llm.FinishReasonStop {
		t.Fatalf("FinishReason=%q", resp.Choices[0].FinishReason)
	}
}

func TestChatStream_ToolCallDelta(t *testing.T) {
	p := newTestProvider(t, func(r *http.Request) (*http.Response, error) {
		return sseResponse(r,
			`data: {"id":"s1","object":"chat.completion.chunk","created":1,"model":"m","choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"id":"call_1","type":"function","function":{"name":"get_weather","arguments":"{\"location\":\""}}]},"finish_reason":""}]}`,
			"",
			`data: {"id":"s1","object":"chat.completion.chunk","created":1,"model":"m","choices":[{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"arguments":"SF\"}"}}]},"finish_reason":""}]}`,
			"",
			`data: {"id":"s1","object":"chat.completion.chunk","created":1,"model":"m","choices":[{"index":0,"delta":{},"finish_reason":"tool_calls"}]}`,
			"",
			"data: [DONE]",
		), nil
	})

	stream, err := p.ChatStream(context.Background(), llm.ChatRequest{
		Messages: []llm.Message{llm.User("hi")},
	})
	if err != nil {
		t.Fatalf("ChatStream() err=%v", err)
	}

	resp, err := llm.DrainStream(stream)
	if err != nil {
		t.Fatalf("DrainStream() err=%v", err)
	}
	msg := resp.Choices[0].Message
	if len(msg.ToolCalls) != 1 {
		t.Fatalf("tool calls=%d", len(msg.ToolCalls))
	}
	tc := msg.ToolCalls[0]
	if tc.ID != "call_1" || tc.Name != "get_weather" {
		t.Fatalf("tool call=%+v", tc)
	}
	if tc.ArgumentsText != `{"location":"SF"}` {
		t.Fatalf("arguments=%q", tc.ArgumentsText)
	}
	if resp.Choices[0].FinishReason != llm.FinishReasonToolCalls {
		t.Fatalf("FinishReason=%q", resp.Choices[0].FinishReason)
	}
}

func TestChatStream_ReasoningDelta(t *testing.T) {
	p := newTestProvider(t, func(r *http.Request) (*http.Response, error) {
		return sseResponse(r,
			`data: {"id":"s1","object":"chat.completion.chunk","created":1,"model":"m","choices":[{"index":0,"delta":{"reasoning_content":"let me think"},"finish_reason":""}]}`,
			"",
			`data: {"id":"s1","object":"chat.completion.chunk","created":1,"model":"m","choices":[{"index":0,"delta":{"content":"42"},"finish_reason":"stop"}]}`,
			"",
			"data: [DONE]",
		), nil
	})

	stream, err := p.ChatStream(context.Background(), llm.ChatRequest{
		Messages: []llm.Message{llm.User("hi")},
	})
	if err != nil {
		t.Fatalf("ChatStream() err=%v", err)
	}
	resp, err := llm.DrainStream(stream)
	if err != nil {
		t.Fatalf("DrainStream() err=%v", err)
	}
	if resp.Choices[0].Message.Reasoning != "let me think" {
		t.Fatalf("Reasoning=%q", resp.Choices[0].Message.Reasoning)
	}
	if resp.FirstText() != "42" {
		t.Fatalf("FirstText()=%q", resp.FirstText())
	}
}

func TestChat_ErrorClassification(t *testing.T) {
	cases := []struct {
		name      string
		status    int
		body      string
		kind      llm.ErrorKind
		retryable bool
	}{
		{"bad request", http.StatusBadRequest, `{"error":{"message":"bad"}}`, llm.ErrKindBadRequest, false},
		{"auth", http.StatusUnauthorized, `{"error":{"message":"no key"}}`, llm.ErrKindAuth, false},
		{"quota", http.StatusPaymentRequired, `{"error":{"message":"Insufficient Balance"}}`, llm.ErrKindQuota, false},
		{"invalid param", http.StatusUnprocessableEntity, `{"error":{"message":"temperature out of range"}}`, llm.ErrKindBadRequest, false},
		{"rate limit", http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`, llm.ErrKindRateLimit, true},
		{"server", http.StatusInternalServerError, `{"error":{"message":"boom"}}`, llm.ErrKindServer, true},
		{"overloaded", http.StatusServiceUnavailable, `{"error":{"message":"busy"}}`, llm.ErrKindServer, true},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t, func(r *http.Request) (*http.Response, error) {
				return jsonResponse(r, tt.status, tt.body), nil
			})
			// Retries would mask the classification; disable them.
			p.tr.Retry.MaxAttempts = 1

			_, err := p.Chat(context.Background(), llm.ChatRequest{Messages: []llm.Message{llm.User("hi")}})
			le, ok := llm.AsLLMError(err)
			if !ok {
				t.Fatalf("err=%T %v", err, err)
			}
			if le.Kind != tt.kind {
				t.Fatalf("Kind=%q, want %q", le.Kind, tt.kind)
			}
			if le.Retryable != tt.retryable {
				t.Fatalf("Retryable=%v", le.Retryable)
			}
			if le.HTTPStatus != tt.status {
				t.Fatalf("HTTPStatus=%d", le.HTTPStatus)
			}
		})
	}
}

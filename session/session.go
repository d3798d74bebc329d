package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/lgc202/chatkit/llm"
)

// ErrToolRoundsExceeded is returned when the model keeps requesting tools
// past the client's configured round limit.
var ErrToolRoundsExceeded = errors.New("session: tool call rounds exceeded")

// ErrNoChoices is returned when a response carries no choices at all.
var ErrNoChoices = errors.New("session: response has no choices")

// Session is an append-only conversation history bound to a Client.
//
// Turns are never mutated after being appended. The caller is responsible
// for sequencing: at most one Ask/AskWithTools/StreamAsk call may be in
// flight per session at a time.
type Session struct {
	ID string

	client   *Client
	messages []llm.Message
}

// Messages returns a defensive copy of the history.
func (s *Session) Messages() []llm.Message {
	out := make([]llm.Message, len(s.messages))
	for i := range s.messages {
		out[i] = s.messages[i].Clone()
	}
	return out
}

func (s *Session) Len() int { return len(s.messages) }

// Ask sends one user question without tools and returns the assistant's
// answer, recording both turns.
func (s *Session) Ask(ctx context.Context, userText string, opts ...llm.RequestOption) (string, error) {
	s.beginQuestion()

	history := append(s.snapshot(), llm.User(userText))
	resp, err := s.client.provider.Chat(ctx, s.client.buildRequest(history, opts))
	if err != nil {
		return "", err
	}
	asst, err := firstMessage(resp)
	if err != nil {
		return "", err
	}

	s.messages = append(s.messages, llm.User(userText), asst)
	return asst.Content, nil
}

// AskWithTools sends one user question and drives the tool-call loop until
// the model answers without requesting tools.
//
// Every requested tool name is resolved against reg before any handler runs;
// an unregistered name fails the whole call with UnknownToolError rather than
// sending a malformed follow-up. Tool result turns are appended in the order
// of the assistant's tool calls. The driver never retries: transport errors
// propagate unchanged.
//
// The exchange is staged off to the side and committed only when the loop
// reaches a final answer. Any error along the way, a failing handler
// included, leaves the history exactly as it was: a partially executed
// round must never become a prefix of the next request.
func (s *Session) AskWithTools(ctx context.Context, userText string, reg *ToolRegistry, opts ...llm.RequestOption) (string, error) {
	s.beginQuestion()

	if reg == nil {
		reg = NewToolRegistry()
	}
	if len(reg.Definitions()) > 0 {
		opts = append(opts, llm.WithTools(reg.Definitions()...))
	}

	staged := []llm.Message{llm.User(userText)}

	for round := 0; round < s.client.maxToolRounds; round++ {
		history := append(s.snapshot(), staged...)
		resp, err := s.client.provider.Chat(ctx, s.client.buildRequest(history, opts))
		if err != nil {
			return "", err
		}
		asst, err := firstMessage(resp)
		if err != nil {
			return "", err
		}

		if len(asst.ToolCalls) == 0 {
			staged = append(staged, asst)
			s.messages = append(s.messages, staged...)
			return asst.Content, nil
		}

		handlers, err := reg.resolve(asst.ToolCalls)
		if err != nil {
			return "", err
		}

		staged = append(staged, asst)
		s.client.logger.Debug("executing tool calls", "session", s.ID, "round", round, "count", len(asst.ToolCalls))
		for i, tc := range asst.ToolCalls {
			out, err := handlers[i](ctx, tc.ArgumentsJSON())
			if err != nil {
				return "", fmt.Errorf("session: tool %q: %w", tc.Name, err)
			}
			staged = append(staged, llm.ToolResult(tc.ID, out))
		}
	}

	return "", ErrToolRoundsExceeded
}

// beginQuestion marks a new top-level question boundary: accumulated
// reasoning from earlier answers is dropped from the history. The remote
// service ignores resubmitted reasoning, so this is purely a size
// optimization, never a correctness requirement.
func (s *Session) beginQuestion() {
	s.messages = StripReasoning(s.messages)
}

func (s *Session) snapshot() []llm.Message {
	return append([]llm.Message(nil), s.messages...)
}

func firstMessage(resp llm.ChatResponse) (llm.Message, error) {
	if len(resp.Choices) == 0 {
		return llm.Message{}, ErrNoChoices
	}
	return resp.Choices[0].Message, nil
}

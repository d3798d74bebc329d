package openai_compat

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/lgc202/chatkit/llm"
)

type stream struct {
	provider string
	resp     *http.Response
	dec      *sseDecoder

	closed bool
	done   bool

	pending []llm.StreamEvent
}

func newStream(provider string, resp *http.Response) *stream {
	return &stream{
		provider: provider,
		resp:     resp,
		dec:      newSSEDecoder(resp.Body),
	}
}

func (s *stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.resp != nil && s.resp.Body != nil {
		return s.resp.Body.Close()
	}
	return nil
}

func (s *stream) Recv() (llm.StreamEvent, error) {
	if s.closed {
		return llm.StreamEvent{}, llm.ErrStreamClosed
	}
	if len(s.pending) > 0 {
		return s.pop(), nil
	}
	if s.done {
		return llm.StreamEvent{}, io.EOF
	}

	data, err := s.dec.Next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			// Some providers close the connection without sending [DONE].
			s.done = true
			return llm.StreamEvent{Kind: llm.StreamEventDone}, nil
		}
		return llm.StreamEvent{}, err
	}

	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("[DONE]")) {
		s.done = true
		return llm.StreamEvent{Kind: llm.StreamEventDone}, nil
	}

	var chunk chatCompletionChunk
	if err := json.Unmarshal(data, &chunk); err != nil {
		return llm.StreamEvent{}, &llm.LLMError{Provider: s.provider, Kind: llm.ErrKindParse, Message: "failed to decode stream chunk", Raw: append([]byte(nil), data...), Cause: err}
	}
	if chunk.Error != nil {
		return llm.StreamEvent{}, &llm.LLMError{Provider: s.provider, Kind: llm.ErrKindServer, Message: chunk.Error.Message, Raw: append([]byte(nil), data...)}
	}

	if chunk.Usage != nil {
		s.pending = append(s.pending, llm.StreamEvent{
			Kind:  llm.StreamEventUsage,
			Usage: mapUsage(chunk.Usage),
		})
	}

	for _, choice := range chunk.Choices {
		// Multi-choice streaming is not supported; only choice 0 is surfaced.
		if choice.Index != 0 {
			continue
		}
		if choice.Delta.ReasoningContent != "" {
			s.pending = append(s.pending, llm.StreamEvent{
				Kind:           llm.StreamEventReasoningDelta,
				ReasoningDelta: choice.Delta.ReasoningContent,
			})
		}
		if thinking := anyString(choice.Delta.Thinking); thinking != "" {
			s.pending = append(s.pending, llm.StreamEvent{
				Kind:           llm.StreamEventReasoningDelta,
				ReasoningDelta: thinking,
			})
		}
		text, reasoning := splitContent(choice.Delta.Content)
		if text != "" {
			s.pending = append(s.pending, llm.StreamEvent{
				Kind:      llm.StreamEventTextDelta,
				TextDelta: text,
			})
		}
		if reasoning != "" {
			s.pending = append(s.pending, llm.StreamEvent{
				Kind:           llm.StreamEventReasoningDelta,
				ReasoningDelta: reasoning,
			})
		}
		for _, tc := range choice.Delta.ToolCalls {
			s.pending = append(s.pending, llm.StreamEvent{
				Kind: llm.StreamEventToolCallDelta,
				ToolCallDelta: &llm.ToolCallDelta{
					Index:          tc.Index,
					ID:             tc.ID,
					Name:           tc.Function.Name,
					ArgumentsDelta: tc.Function.Arguments,
				},
			})
		}
		if choice.FinishReason != "" {
			s.pending = append(s.pending, llm.StreamEvent{
				Kind:         llm.StreamEventDone,
				FinishReason: mapFinishReason(choice.FinishReason),
			})
		}
	}

	if len(s.pending) == 0 {
		// Heartbeat chunk with nothing meaningful; read the next one.
		return s.Recv()
	}
	return s.pop(), nil
}

func (s *stream) pop() llm.StreamEvent {
	ev := s.pending[0]
	s.pending = s.pending[1:]
	return ev
}

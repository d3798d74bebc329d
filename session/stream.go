package session

import (
	"context"
	"errors"
	"io"

	"github.com/lgc202/chatkit/llm"
)

// StreamAsk sends one user question and returns the answer as a lazy, finite
// sequence of text fragments. The stream is not restartable.
//
// Nothing is appended to the session until the stream finishes normally: an
// early Close or a mid-stream error discards the in-progress exchange and
// leaves the history exactly as it was.
func (s *Session) StreamAsk(ctx context.Context, userText string, opts ...llm.RequestOption) (*TextStream, error) {
	s.beginQuestion()

	history := append(s.snapshot(), llm.User(userText))
	stream, err := s.client.provider.ChatStream(ctx, s.client.buildRequest(history, opts))
	if err != nil {
		return nil, err
	}
	return &TextStream{session: s, userText: userText, stream: stream}, nil
}

// TextStream yields the text fragments of one streamed answer.
//
// Recv returns io.EOF after the final fragment; at that point the user turn
// and the assembled assistant turn have been committed to the session.
// Reasoning fragments and keep-alive events are consumed silently.
type TextStream struct {
	session  *Session
	userText string
	stream   llm.Stream

	acc    llm.Accumulator
	done   bool
	closed bool
	err    error
}

func (t *TextStream) Recv() (string, error) {
	if t.err != nil {
		return "", t.err
	}
	if t.closed {
		return "", llm.ErrStreamClosed
	}
	if t.done {
		return "", io.EOF
	}

	for {
		ev, err := t.stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				t.finish()
				if t.err != nil {
					return "", t.err
				}
				return "", io.EOF
			}
			t.fail(err)
			return "", err
		}
		if err := t.acc.Apply(ev); err != nil {
			t.fail(err)
			return "", err
		}
		if ev.Kind == llm.StreamEventTextDelta && ev.TextDelta != "" {
			return ev.TextDelta, nil
		}
	}
}

// Close releases the underlying stream. Closing before the stream has
// finished abandons the exchange without touching the session.
func (t *TextStream) Close() error {
	if t.done || t.closed {
		return nil
	}
	t.closed = true
	return t.stream.Close()
}

// finish commits the exchange; it runs exactly once, on clean termination.
func (t *TextStream) finish() {
	t.done = true
	_ = t.stream.Close()

	msg, err := t.acc.Finalize()
	if err != nil {
		t.err = err
		return
	}
	t.session.messages = append(t.session.messages, llm.User(t.userText), msg)
}

func (t *TextStream) fail(err error) {
	t.err = err
	_ = t.stream.Close()
}

// Usage returns token accounting reported by the stream, if any. Only
// meaningful after Recv returned io.EOF.
func (t *TextStream) Usage() *llm.Usage { return t.acc.Usage }

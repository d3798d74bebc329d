package session

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lgc202/chatkit/llm"
)

type fakeStream struct {
	events []llm.StreamEvent
	closed bool
}

func (s *fakeStream) Recv() (llm.StreamEvent, error) {
	if s.closed {
		return llm.StreamEvent{}, llm.ErrStreamClosed
	}
	if len(s.events) == 0 {
		return llm.StreamEvent{}, io.EOF
	}
	ev := s.events[0]
	s.events = s.events[1:]
	return ev, nil
}

func (s *fakeStream) Close() error {
	s.closed = true
	return nil
}

func helloStream() *fakeStream {
	return &fakeStream{events: []llm.StreamEvent{
		{Kind: llm.StreamEventReasoningDelta, ReasoningDelta: "hmm "},
		{Kind: llm.StreamEventTextDelta, TextDelta: "Hel"},
		{Kind: llm.StreamEventTextDelta, TextDelta: "lo"},
		{Kind: llm.StreamEventTextDelta, TextDelta: " world"},
		{Kind: llm.StreamEventUsage, Usage: &llm.Usage{TotalTokens: 7}},
		{Kind: llm.StreamEventDone, FinishReason: llm.FinishReasonStop},
	}}
}

func TestStreamAsk_YieldsFragmentsAndCommits(t *testing.T) {
	fs := helloStream()
	p := &scriptedProvider{streams: []llm.Stream{fs}}
	c := NewClient(p)
	s := c.StartSession("")

	ts, err := s.StreamAsk(context.Background(), "hi")
	require.NoError(t, err)

	var frags []string
	for {
		frag, err := ts.Recv()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		frags = append(frags, frag)
	}

	assert.Equal(t, []string{"Hel", "lo", " world"}, frags)
	assert.True(t, fs.closed)

	msgs := s.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "hi", msgs[0].Content)
	assert.Equal(t, "Hello world", msgs[1].Content)
	assert.Equal(t, "hmm ", msgs[1].Reasoning)

	require.NotNil(t, ts.Usage())
	assert.Equal(t, 7, ts.Usage().TotalTokens)

	// Recv after EOF keeps returning EOF.
	_, err = ts.Recv()
	assert.Equal(t, io.EOF, err)
}

func TestStreamAsk_EarlyCloseLeavesSessionUnmodified(t *testing.T) {
	fs := helloStream()
	p := &scriptedProvider{streams: []llm.Stream{fs}}
	c := NewClient(p)
	s := c.StartSession("sys")

	ts, err := s.StreamAsk(context.Background(), "hi")
	require.NoError(t, err)

	frag, err := ts.Recv()
	require.NoError(t, err)
	assert.Equal(t, "Hel", frag)

	require.NoError(t, ts.Close())
	assert.True(t, fs.closed)

	// Only the system prompt remains; the aborted exchange never landed.
	require.Equal(t, 1, s.Len())

	_, err = ts.Recv()
	assert.Equal(t, llm.ErrStreamClosed, err)
}

func TestStreamAsk_MalformedStreamDiscardsExchange(t *testing.T) {
	fs := &fakeStream{events: []llm.StreamEvent{
		{Kind: llm.StreamEventTextDelta, TextDelta: "partial"},
		{Kind: llm.StreamEventToolCallDelta, ToolCallDelta: &llm.ToolCallDelta{Index: 0, Name: "a"}},
		{Kind: llm.StreamEventToolCallDelta, ToolCallDelta: &llm.ToolCallDelta{Index: 0, Name: "b"}},
	}}
	p := &scriptedProvider{streams: []llm.Stream{fs}}
	c := NewClient(p)
	s := c.StartSession("")

	ts, err := s.StreamAsk(context.Background(), "hi")
	require.NoError(t, err)

	_, err = ts.Recv() // "partial"
	require.NoError(t, err)
	_, err = ts.Recv()
	require.Error(t, err)
	assert.True(t, llm.IsKind(err, llm.ErrKindMalformedStream))

	assert.Equal(t, 0, s.Len())
	assert.True(t, fs.closed)
}

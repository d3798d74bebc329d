package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Stream yields StreamEvent values until io.EOF.
//
// Implementations should return io.EOF once the stream finishes normally.
type Stream interface {
	Recv() (StreamEvent, error)
	Close() error
}

type StreamEventKind string

const (
	StreamEventTextDelta      StreamEventKind = "text_delta"
	StreamEventReasoningDelta StreamEventKind = "reasoning_delta"
	StreamEventToolCallDelta  StreamEventKind = "tool_call_delta"
	StreamEventUsage          StreamEventKind = "usage"
	StreamEventDone           StreamEventKind = "done"
)

// ToolCallDelta is one fragment of a streamed tool call. Fragments sharing an
// Index belong to the same call; ID and Name may arrive on any fragment.
type ToolCallDelta struct {
	Index int
	ID    string
	Name  string

	ArgumentsDelta string
}

type StreamEvent struct {
	Kind StreamEventKind

	TextDelta      string
	ReasoningDelta string
	ToolCallDelta  *ToolCallDelta
	Usage          *Usage

	FinishReason FinishReason
	RawJSON      json.RawMessage
}

func (e StreamEvent) Done() bool { return e.Kind == StreamEventDone }

var ErrStreamClosed = errors.New("llm: stream closed")

// Accumulator builds a final assistant message from one stream.
//
// Text and reasoning fragments concatenate in arrival order. Tool-call
// fragments merge by index, so interleaved fragments for different calls
// still assemble correctly. An Accumulator is single-use: one per stream.
type Accumulator struct {
	Text         string
	Reasoning    string
	ToolCalls    []ToolCall
	FinishReason FinishReason
	Usage        *Usage

	sawDone bool
}

// Apply folds one event into the accumulated state.
//
// It returns an ErrKindMalformedStream error when a tool-call fragment
// contradicts what an earlier fragment established at the same index.
func (a *Accumulator) Apply(ev StreamEvent) error {
	switch ev.Kind {
	case StreamEventTextDelta:
		a.Text += ev.TextDelta
	case StreamEventReasoningDelta:
		a.Reasoning += ev.ReasoningDelta
	case StreamEventToolCallDelta:
		if ev.ToolCallDelta == nil {
			return nil
		}
		return a.applyToolCallDelta(*ev.ToolCallDelta)
	case StreamEventUsage:
		if ev.Usage != nil {
			cpy := *ev.Usage
			a.Usage = &cpy
		}
	case StreamEventDone:
		a.sawDone = true
		if ev.FinishReason != "" {
			a.FinishReason = ev.FinishReason
		}
	}
	return nil
}

func (a *Accumulator) applyToolCallDelta(d ToolCallDelta) error {
	if d.Index < 0 {
		return malformed(fmt.Sprintf("negative tool call index %d", d.Index))
	}
	for len(a.ToolCalls) <= d.Index {
		// A fragment may reference an index before anything established it;
		// the call stays pending until a fragment supplies its name.
		a.ToolCalls = append(a.ToolCalls, ToolCall{})
	}
	tc := &a.ToolCalls[d.Index]
	if d.ID != "" {
		if tc.ID != "" && tc.ID != d.ID {
			return malformed(fmt.Sprintf("tool call %d: id %q conflicts with %q", d.Index, d.ID, tc.ID))
		}
		tc.ID = d.ID
	}
	if d.Name != "" {
		if tc.Name != "" && tc.Name != d.Name {
			return malformed(fmt.Sprintf("tool call %d: name %q conflicts with %q", d.Index, d.Name, tc.Name))
		}
		tc.Name = d.Name
	}
	tc.ArgumentsText += d.ArgumentsDelta
	return nil
}

// Finalize returns the assembled assistant message.
//
// It fails with ErrKindMalformedStream when the stream ended while a tool
// call was still missing its name, which callers must be able to tell apart
// from "the model produced no tool calls".
func (a *Accumulator) Finalize() (Message, error) {
	for i, tc := range a.ToolCalls {
		if tc.Name == "" {
			return Message{}, malformed(fmt.Sprintf("stream ended mid tool call: index %d has no name", i))
		}
	}
	msg := Message{Role: RoleAssistant, Content: a.Text, Reasoning: a.Reasoning}
	if len(a.ToolCalls) > 0 {
		msg.ToolCalls = append([]ToolCall(nil), a.ToolCalls...)
		// Best-effort: convert ArgumentsText to JSON bytes.
		for i := range msg.ToolCalls {
			if len(msg.ToolCalls[i].Arguments) == 0 && msg.ToolCalls[i].ArgumentsText != "" {
				if json.Valid([]byte(msg.ToolCalls[i].ArgumentsText)) {
					msg.ToolCalls[i].Arguments = json.RawMessage(msg.ToolCalls[i].ArgumentsText)
				}
			}
		}
	}
	return msg, nil
}

// Terminated reports whether the stream's explicit end marker was observed.
func (a *Accumulator) Terminated() bool { return a.sawDone }

func malformed(msg string) error {
	return &LLMError{Kind: ErrKindMalformedStream, Message: msg}
}

// DrainStream consumes a stream to completion and returns a single-choice
// response, closing the stream in all cases.
func DrainStream(stream Stream) (ChatResponse, error) {
	defer stream.Close()

	var acc Accumulator
	for {
		ev, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return ChatResponse{}, err
		}
		if err := acc.Apply(ev); err != nil {
			return ChatResponse{}, err
		}
	}

	msg, err := acc.Finalize()
	if err != nil {
		return ChatResponse{}, err
	}
	return ChatResponse{
		Choices: []ChatChoice{{Index: 0, Message: msg, FinishReason: acc.FinishReason}},
		Usage:   acc.Usage,
	}, nil
}

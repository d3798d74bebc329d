package session

import (
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/lgc202/chatkit/llm"
)

const defaultMaxToolRounds = 10

// Client holds the configuration shared by the sessions it starts: the
// backing provider, default model and request options, and a logger.
//
// Configuration is an explicit value, never process-wide state, so sessions
// stay independently testable and parallelizable.
type Client struct {
	provider llm.Provider
	model    string
	logger   *slog.Logger

	defaultOpts   []llm.RequestOption
	maxToolRounds int
}

type ClientOption func(*Client)

func WithModel(model string) ClientOption {
	return func(c *Client) { c.model = model }
}

func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDefaultRequestOptions applies the given options to every request sent
// by sessions of this client, before per-call options.
func WithDefaultRequestOptions(opts ...llm.RequestOption) ClientOption {
	return func(c *Client) { c.defaultOpts = append(c.defaultOpts, opts...) }
}

// WithMaxToolRounds bounds the number of model/tool round trips a single
// AskWithTools call may take before giving up with ErrToolRoundsExceeded.
func WithMaxToolRounds(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxToolRounds = n
		}
	}
}

func NewClient(provider llm.Provider, opts ...ClientOption) *Client {
	c := &Client{
		provider:      provider,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxToolRounds: defaultMaxToolRounds,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// StartSession creates a fresh session. A non-empty systemPrompt becomes the
// session's first turn.
func (c *Client) StartSession(systemPrompt string) *Session {
	s := &Session{
		ID:     uuid.NewString(),
		client: c,
	}
	if systemPrompt != "" {
		s.messages = append(s.messages, llm.System(systemPrompt))
	}
	return s
}

func (c *Client) buildRequest(messages []llm.Message, opts []llm.RequestOption) llm.ChatRequest {
	merged := make([]llm.RequestOption, 0, len(c.defaultOpts)+len(opts))
	merged = append(merged, c.defaultOpts...)
	merged = append(merged, opts...)
	return llm.BuildChatRequest(c.model, messages, merged...)
}

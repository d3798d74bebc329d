package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lgc202/chatkit/llm"
)

// ToolHandler executes one tool call. args is the raw argument payload as
// streamed by the model; handlers parse it themselves.
type ToolHandler func(ctx context.Context, args json.RawMessage) (string, error)

// UnknownToolError reports a model-requested tool with no registered handler.
// It is a caller configuration defect and always fails the whole ask.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("session: unknown tool %q", e.Name)
}

// ToolRegistry maps tool names to handlers and carries the matching
// definitions advertised to the model.
type ToolRegistry struct {
	defs     []llm.ToolDefinition
	handlers map[string]ToolHandler
}

func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{handlers: make(map[string]ToolHandler)}
}

// Register adds a tool. Registering the same name twice replaces the handler
// and its definition.
func (r *ToolRegistry) Register(def llm.ToolDefinition, h ToolHandler) {
	if _, ok := r.handlers[def.Name]; ok {
		for i := range r.defs {
			if r.defs[i].Name == def.Name {
				r.defs[i] = def
				break
			}
		}
	} else {
		r.defs = append(r.defs, def)
	}
	r.handlers[def.Name] = h
}

// Definitions returns the registered tool definitions in registration order.
func (r *ToolRegistry) Definitions() []llm.ToolDefinition {
	if r == nil {
		return nil
	}
	return append([]llm.ToolDefinition(nil), r.defs...)
}

// resolve looks up a handler for every call before any of them runs, so an
// unknown name fails fast without side effects.
func (r *ToolRegistry) resolve(calls []llm.ToolCall) ([]ToolHandler, error) {
	out := make([]ToolHandler, len(calls))
	for i, tc := range calls {
		if r == nil {
			return nil, &UnknownToolError{Name: tc.Name}
		}
		h, ok := r.handlers[tc.Name]
		if !ok {
			return nil, &UnknownToolError{Name: tc.Name}
		}
		out[i] = h
	}
	return out, nil
}

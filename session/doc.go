// Package session maintains multi-turn conversation state on top of an
// llm.Provider.
//
// A Session is an append-only message history. Ask sends one question and
// records the exchange; AskWithTools additionally runs the tool-call loop,
// executing registered handlers and feeding results back until the model
// stops requesting tools; StreamAsk exposes the answer as a lazy sequence of
// text fragments and only commits the exchange once the stream finishes.
//
// The remote service is stateless: every request carries the full accumulated
// history, so requests for one Session must be sequenced by the caller (no
// two in flight at once). Independent Sessions share nothing and are safe to
// use in parallel.
package session

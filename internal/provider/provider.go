// Package provider adapts language model APIs to one request/response shape
// used by the agent loop and the commit message generator.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/invopop/jsonschema"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID    string
	Name  string
	Input json.RawMessage
}

// ToolResult answers one ToolCall.
type ToolResult struct {
	CallID  string
	Name    string
	Content string
	IsError bool
}

// Message is one transcript entry. Assistant messages may carry ToolCalls;
// the user message that follows carries the matching ToolResults.
type Message struct {
	Role        Role
	Text        string
	ToolCalls   []ToolCall
	ToolResults []ToolResult
}

// UserText returns a user message holding only text.
func UserText(text string) Message {
	return Message{Role: RoleUser, Text: text}
}

// Tool describes a callable tool to the model.
type Tool struct {
	Name        string
	Description string
	Schema      *jsonschema.Schema
}

type Request struct {
	Model     string
	System    string
	Messages  []Message
	Tools     []Tool
	MaxTokens int64
}

type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Response is the model's reply: free text, zero or more tool calls, or both.
type Response struct {
	Text       string
	ToolCalls  []ToolCall
	Usage      Usage
	StopReason string
}

// TextFunc receives streamed text deltas. Returning an error stops the stream
// and that error is returned unchanged from Client.Stream.
type TextFunc func(delta string) error

// Client is a language model transport.
type Client interface {
	Name() string
	Complete(ctx context.Context, req Request) (Response, error)
	Stream(ctx context.Context, req Request, onText TextFunc) (Response, error)
}

// TransportError is a failed model call: network, API or malformed response.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: model call failed: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

const (
	NameAnthropic = "anthropic"
	NameGoogle    = "google"
	NameOpenAI    = "openai"
)

// DefaultMaxTokens is used when a Request leaves MaxTokens at zero.
const DefaultMaxTokens int64 = 4096

// Options selects and configures a provider.
type Options struct {
	Name       string
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// New constructs the Client named by opts.Name.
func New(ctx context.Context, opts Options) (Client, error) {
	switch opts.Name {
	case NameAnthropic:
		return NewAnthropic(opts), nil
	case NameGoogle:
		return NewGoogle(ctx, opts)
	case NameOpenAI:
		return NewOpenAI(opts), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", opts.Name)
	}
}

// DefaultModel returns the model used for name when none is configured.
func DefaultModel(name string) string {
	switch name {
	case NameGoogle:
		return "gemini-2.5-flash"
	case NameOpenAI:
		return "gpt-4.1-mini"
	default:
		return "claude-sonnet-4-5"
	}
}

func maxTokens(req Request) int64 {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return DefaultMaxTokens
}

// schemaObject renders s as a plain JSON object without the draft and id keywords.
func schemaObject(s *jsonschema.Schema) map[string]any {
	out := map[string]any{"type": "object", "properties": map[string]any{}}
	if s == nil {
		return out
	}
	b, err := json.Marshal(s)
	if err != nil {
		return out
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return out
	}
	delete(m, "$schema")
	delete(m, "$id")
	if _, ok := m["properties"]; !ok {
		m["properties"] = map[string]any{}
	}
	return m
}

// inputObject decodes tool call input into a map, treating empty input as {}.
func inputObject(raw json.RawMessage) map[string]any {
	m := map[string]any{}
	if len(raw) == 0 {
		return m
	}
	_ = json.Unmarshal(raw, &m)
	return m
}

func rawInput(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("{}")
	}
	return raw
}
